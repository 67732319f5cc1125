// Package service exposes wallet binding as an HTTP-facing service over the
// chain-binding verifier.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	apperrors "github.com/payflow-labs/payflow/pkg/app/errors"
	"github.com/payflow-labs/payflow/pkg/auth"
	"github.com/payflow-labs/payflow/pkg/transferstore"
	"github.com/payflow-labs/payflow/pkg/wallet"
)

// Binder is the slice of the verifier the service drives.
type Binder interface {
	Bind(ctx context.Context, userID string, targetChainID int64, candidateAddress string) (*wallet.PreferredWallet, error)
	Preferred(ctx context.Context, userID string, chainID int64) (*wallet.PreferredWallet, error)
}

// Service defines the wallet binding business logic
type Service interface {
	BindWallet(ctx context.Context, req *wallet.BindRequest) (*wallet.BindResponse, error)
	GetBinding(ctx context.Context, userID string, chainID int64) (*wallet.BindingView, error)
}

type walletService struct {
	binder   Binder
	validate *validator.Validate
	logger   *zap.Logger
}

// NewService creates a new wallet service
func NewService(binder Binder, logger *zap.Logger) Service {
	return &walletService{
		binder:   binder,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

// BindWallet proves the caller controls the address, then runs the
// chain-binding verification. Verification failures map to distinct error
// categories so the caller can tell a declined prompt from an unsupported
// network from a wallet that lied about switching.
func (s *walletService) BindWallet(ctx context.Context, req *wallet.BindRequest) (*wallet.BindResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperrors.BadRequestError(err, "invalid bind request")
	}

	if err := auth.ProveAddressOwnership(req.Message, req.Signature, req.Address); err != nil {
		return nil, apperrors.UnAuthorizedError(err, "address ownership proof failed")
	}

	pw, err := s.binder.Bind(ctx, req.UserID, req.ChainID, req.Address)
	switch {
	case err == nil:
		return &wallet.BindResponse{
			Status:  wallet.BindStatusVerified,
			Binding: wallet.NewBindingView(pw),
		}, nil

	case errors.Is(err, wallet.ErrNotConnected):
		// Not a failure: the connection prompt is on screen and the
		// caller re-invokes once the signer connects.
		return &wallet.BindResponse{
			Status: wallet.BindStatusPendingConnection,
			Reason: err.Error(),
		}, nil

	case errors.Is(err, wallet.ErrSignerRejected):
		return nil, apperrors.ForbiddenError(err, "network switch rejected by signer")

	case errors.Is(err, wallet.ErrUnsupportedNetwork):
		return nil, apperrors.BadRequestError(err,
			fmt.Sprintf("chain %d is not supported by the connected wallet", req.ChainID))

	case errors.Is(err, wallet.ErrChainMismatchAfterSwitch):
		return nil, apperrors.ConflictError(err, "wallet stayed on the previous network, retry the bind")

	case errors.Is(err, wallet.ErrInvalidAddress):
		return nil, apperrors.BadRequestError(err, "invalid receiving address")

	default:
		return nil, apperrors.GeneralError(fmt.Errorf("bind wallet: %w", err))
	}
}

func (s *walletService) GetBinding(ctx context.Context, userID string, chainID int64) (*wallet.BindingView, error) {
	pw, err := s.binder.Preferred(ctx, userID, chainID)
	if errors.Is(err, transferstore.ErrNotFound) {
		return nil, apperrors.ResourceNotFoundError(err, "no wallet bound for chain")
	}
	if err != nil {
		return nil, fmt.Errorf("lookup binding: %w", err)
	}
	return wallet.NewBindingView(pw), nil
}
