// Package service exposes transfer submission and lookup as an HTTP-facing
// service over the reconciliation core.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	apperrors "github.com/payflow-labs/payflow/pkg/app/errors"
	"github.com/payflow-labs/payflow/pkg/auth"
	"github.com/payflow-labs/payflow/pkg/reconciler"
	"github.com/payflow-labs/payflow/pkg/transfer"
	"github.com/payflow-labs/payflow/pkg/transferstore"
	"github.com/payflow-labs/payflow/pkg/wallet"
)

// DefaultListLimit caps address history queries without an explicit limit.
const DefaultListLimit = 50

var ErrNoRecipientWallet = errors.New("recipient has no wallet bound for chain")

// Submitter is the slice of the reconciler the service drives. Degraded
// reports hashes whose on-chain transfer completed but whose ledger write is
// still behind, so lookups can warn instead of showing a silently stale
// status.
type Submitter interface {
	SubmitAndReconcile(ctx context.Context, req reconciler.SubmitRequest) (*reconciler.SubmitResult, error)
	Degraded(txHash string) bool
}

// ReadStore is the read-side store contract for lookups.
type ReadStore interface {
	FindByTxHash(ctx context.Context, txHash string) (*transfer.Record, error)
	ListByAddress(ctx context.Context, address string, limit int) ([]*transfer.Record, error)
}

// WalletDirectory resolves a recipient user to their bound receiving address.
type WalletDirectory interface {
	GetPreferredWallet(ctx context.Context, userID string, chainID int64) (*wallet.PreferredWallet, error)
}

// Service defines the transfer API business logic
type Service interface {
	Submit(ctx context.Context, req *transfer.SubmitTransferRequest) (*transfer.SubmitTransferResponse, error)
	GetByTxHash(ctx context.Context, txHash string) (*transfer.TransferView, error)
	ListByAddress(ctx context.Context, address string, limit int) ([]*transfer.TransferView, error)
}

type transferService struct {
	submitter Submitter
	store     ReadStore
	wallets   WalletDirectory
	validate  *validator.Validate
	logger    *zap.Logger
}

// NewService creates a new transfer service
func NewService(submitter Submitter, store ReadStore, wallets WalletDirectory, logger *zap.Logger) Service {
	return &transferService{
		submitter: submitter,
		store:     store,
		wallets:   wallets,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		logger:    logger,
	}
}

// Submit validates the request, resolves the recipient address if the caller
// named a user instead, and hands the transfer to the reconciler. The
// response carries the provisional status; confirmation converges in the
// background and is observable through GetByTxHash.
func (s *transferService) Submit(ctx context.Context, req *transfer.SubmitTransferRequest) (*transfer.SubmitTransferResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperrors.BadRequestError(err, "invalid transfer request")
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return nil, apperrors.BadRequestError(err, "invalid amount")
	}
	if amount.Sign() <= 0 {
		return nil, apperrors.BadRequestError(nil, "amount must be positive")
	}

	details := transfer.Details{
		SenderAddress:    auth.NormalizeAddress(req.SenderAddress),
		RecipientAddress: req.RecipientAddress,
		Amount:           amount,
		TokenSymbol:      req.TokenSymbol,
		TokenAddress:     auth.NormalizeAddress(req.TokenAddress),
		ChainID:          req.ChainID,
	}
	if userID, ok := auth.UserIDFromContext(ctx); ok {
		details.SenderUserID = &userID
	}

	if req.RecipientUserID != "" {
		details.RecipientUserID = &req.RecipientUserID
	}
	if details.RecipientAddress == "" {
		resolved, err := s.resolveRecipient(ctx, req.RecipientUserID, req.ChainID)
		if err != nil {
			return nil, err
		}
		details.RecipientAddress = resolved
	} else {
		details.RecipientAddress = auth.NormalizeAddress(details.RecipientAddress)
	}

	res, err := s.submitter.SubmitAndReconcile(ctx, reconciler.SubmitRequest{
		Details:       details,
		TokenDecimals: req.TokenDecimals,
	})
	if err != nil {
		return nil, apperrors.DependencyError(fmt.Errorf("submit transfer: %w", err),
			"transfer could not be submitted to the chain")
	}

	return &transfer.SubmitTransferResponse{
		TxHash: res.TxHash,
		Status: string(res.InitialStatus),
	}, nil
}

// resolveRecipient maps a recipient user to the address they bound for the
// chain. Only verified bindings exist in the store, so a hit here is an
// address the user proved they control on that network.
func (s *transferService) resolveRecipient(ctx context.Context, userID string, chainID int64) (string, error) {
	pw, err := s.wallets.GetPreferredWallet(ctx, userID, chainID)
	if errors.Is(err, transferstore.ErrNotFound) {
		return "", apperrors.ResourceNotFoundError(ErrNoRecipientWallet,
			fmt.Sprintf("recipient %s has no wallet bound for chain %d", userID, chainID))
	}
	if err != nil {
		return "", fmt.Errorf("resolve recipient wallet: %w", err)
	}
	return pw.ReceivingAddress, nil
}

func (s *transferService) GetByTxHash(ctx context.Context, txHash string) (*transfer.TransferView, error) {
	rec, err := s.store.FindByTxHash(ctx, txHash)
	if errors.Is(err, transferstore.ErrNotFound) {
		return nil, apperrors.ResourceNotFoundError(err, "transfer not found")
	}
	if err != nil {
		return nil, fmt.Errorf("lookup transfer: %w", err)
	}

	view := transfer.NewView(rec)
	if !rec.Status.Terminal() && s.submitter.Degraded(txHash) {
		view.Warning = transfer.WarningRecordingDegraded
	}
	return view, nil
}

func (s *transferService) ListByAddress(ctx context.Context, address string, limit int) ([]*transfer.TransferView, error) {
	if !auth.ValidateEVMAddress(address) {
		return nil, apperrors.BadRequestError(nil, "invalid address")
	}
	if limit <= 0 || limit > DefaultListLimit {
		limit = DefaultListLimit
	}

	recs, err := s.store.ListByAddress(ctx, auth.NormalizeAddress(address), limit)
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}

	views := make([]*transfer.TransferView, 0, len(recs))
	for _, rec := range recs {
		views = append(views, transfer.NewView(rec))
	}
	return views, nil
}
