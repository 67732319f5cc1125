package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"github.com/payflow-labs/payflow/pkg/config"
	"github.com/payflow-labs/payflow/pkg/transfer"
)

// transferSelector is the 4-byte selector for ERC-20 transfer(address,uint256).
var transferSelector = crypto.Keccak256([]byte("transfer(address,uint256)"))[:4]

// EVMClient implements Adapter against an EVM JSON-RPC endpoint with a
// server-side signing key.
type EVMClient struct {
	config     *config.ChainConfig
	client     *ethclient.Client
	privateKey *ecdsa.PrivateKey
	address    common.Address
	logger     *zap.Logger
}

// NewEVMClient creates a new EVM chain client
func NewEVMClient(cfg *config.ChainConfig, logger *zap.Logger) (*EVMClient, error) {
	client, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to EVM RPC: %w", err)
	}

	privateKey, err := crypto.HexToECDSA(cfg.SignerPrivateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load signer key: %w", err)
	}
	address := crypto.PubkeyToAddress(privateKey.PublicKey)

	logger.Info("Connected to EVM chain",
		zap.Int64("chain_id", cfg.ChainID),
		zap.String("rpc_url", cfg.RPCURL),
		zap.String("signer_address", address.Hex()))

	return &EVMClient{
		config:     cfg,
		client:     client,
		privateKey: privateKey,
		address:    address,
		logger:     logger,
	}, nil
}

// Close closes the underlying RPC connection.
func (c *EVMClient) Close() {
	if c.client != nil {
		c.client.Close()
	}
}

// SubmitTransfer signs and broadcasts an ERC-20 transfer, returning the tx
// hash immediately after broadcast (before mining).
func (c *EVMClient) SubmitTransfer(ctx context.Context, ins Instruction) (string, error) {
	nonce, err := c.client.PendingNonceAt(ctx, c.address)
	if err != nil {
		return "", fmt.Errorf("failed to get nonce: %w", err)
	}

	gasPrice, err := c.GasPrice(ctx)
	if err != nil {
		return "", err
	}

	calldata := packTransfer(ins.Recipient, ins.Amount)

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &ins.TokenAddress,
		Value:    big.NewInt(0),
		Gas:      c.config.GasLimit,
		GasPrice: gasPrice,
		Data:     calldata,
	})

	signer := types.LatestSignerForChainID(big.NewInt(c.config.ChainID))
	signedTx, err := types.SignTx(tx, signer, c.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := c.client.SendTransaction(ctx, signedTx); err != nil {
		return "", fmt.Errorf("failed to broadcast transaction: %w", err)
	}

	txHash := signedTx.Hash().Hex()
	c.logger.Info("Transfer submitted",
		zap.String("tx_hash", txHash),
		zap.String("token", ins.TokenAddress.Hex()),
		zap.String("recipient", ins.Recipient.Hex()),
		zap.String("amount", ins.Amount.String()))

	return txHash, nil
}

// ActiveChainID reads the chain id from the connected endpoint.
func (c *EVMClient) ActiveChainID(ctx context.Context) (int64, error) {
	id, err := c.client.ChainID(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read chain id: %w", err)
	}
	return id.Int64(), nil
}

// RequestChainSwitch reports whether the endpoint serves the requested chain.
// A fixed RPC endpoint cannot switch networks, so the request succeeds only
// when it already matches and is unsupported otherwise.
func (c *EVMClient) RequestChainSwitch(ctx context.Context, chainID int64) (SwitchResult, error) {
	active, err := c.ActiveChainID(ctx)
	if err != nil {
		return "", err
	}
	if active == chainID {
		return SwitchOK, nil
	}
	return SwitchUnsupported, nil
}

// GasPrice returns the suggested gas price, capped by the configured maximum.
func (c *EVMClient) GasPrice(ctx context.Context) (*big.Int, error) {
	gasPrice, err := c.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to suggest gas price: %w", err)
	}

	if c.config.MaxGasPrice != "" {
		maxGasPrice := new(big.Int)
		maxGasPrice.SetString(c.config.MaxGasPrice, 10)
		if gasPrice.Cmp(maxGasPrice) > 0 {
			c.logger.Warn("Suggested gas price exceeds maximum",
				zap.String("suggested", gasPrice.String()),
				zap.String("max", maxGasPrice.String()))
			return maxGasPrice, nil
		}
	}
	return gasPrice, nil
}

// WaitForReceipt polls for the transaction receipt until the configured
// timeout elapses.
func (c *EVMClient) WaitForReceipt(ctx context.Context, txHash string) (transfer.Outcome, error) {
	hash := common.HexToHash(txHash)

	interval := c.config.ReceiptInterval
	if interval <= 0 {
		interval = 3 * time.Second
	}
	timeout := c.config.ReceiptTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		receipt, err := c.client.TransactionReceipt(waitCtx, hash)
		if err == nil {
			if receipt.Status == types.ReceiptStatusSuccessful {
				return transfer.OutcomeConfirmed, nil
			}
			return transfer.OutcomeFailed, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			c.logger.Warn("Receipt lookup failed",
				zap.String("tx_hash", txHash),
				zap.Error(err))
		}

		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			return "", ErrReceiptTimeout
		case <-ticker.C:
		}
	}
}

// packTransfer builds calldata for transfer(address,uint256).
func packTransfer(recipient common.Address, amount *big.Int) []byte {
	data := make([]byte, 0, 4+32+32)
	data = append(data, transferSelector...)
	data = append(data, common.LeftPadBytes(recipient.Bytes(), 32)...)
	data = append(data, common.LeftPadBytes(amount.Bytes(), 32)...)
	return data
}
