// Package chain provides the adapter contract to the external wallet/provider
// and its EVM implementation. The adapter submits a single token-transfer
// instruction and reports chain state back; it never moves funds itself.
package chain

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/payflow-labs/payflow/pkg/transfer"
)

// ErrReceiptTimeout is returned when no receipt was observed within the
// adapter's waiting window. The transfer may still confirm later; the record
// stays pending and is resolved by a later hash lookup.
var ErrReceiptTimeout = errors.New("timed out waiting for transaction receipt")

// SwitchResult is the outcome of a network switch request.
type SwitchResult string

const (
	// SwitchOK means the wallet reports the switch succeeded. Callers must
	// still re-read the active chain before trusting it.
	SwitchOK SwitchResult = "ok"
	// SwitchRejected means the user declined the switch prompt.
	SwitchRejected SwitchResult = "rejected"
	// SwitchUnsupported means the wallet cannot add or switch to the chain.
	SwitchUnsupported SwitchResult = "unsupported"
)

// Instruction describes a single token transfer to submit.
type Instruction struct {
	TokenAddress common.Address
	Recipient    common.Address
	Amount       *big.Int
}

// Adapter is the contract the reconciliation core requires from the
// wallet/provider side.
type Adapter interface {
	// SubmitTransfer submits the transfer instruction and returns the
	// chain-assigned transaction hash. The hash is available before mining.
	SubmitTransfer(ctx context.Context, ins Instruction) (string, error)

	// ActiveChainID reads the provider's current chain identifier.
	ActiveChainID(ctx context.Context) (int64, error)

	// RequestChainSwitch asks the provider to switch networks.
	RequestChainSwitch(ctx context.Context, chainID int64) (SwitchResult, error)

	// GasPrice returns the current suggested gas price.
	GasPrice(ctx context.Context) (*big.Int, error)

	// WaitForReceipt blocks until the transaction is mined and returns its
	// outcome, or ErrReceiptTimeout when the waiting window elapses.
	WaitForReceipt(ctx context.Context, txHash string) (transfer.Outcome, error)
}
