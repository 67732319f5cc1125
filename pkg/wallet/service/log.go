package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/payflow-labs/payflow/pkg/wallet"
)

const serviceName = "WalletService"

const signatureDisplaySize = 16

// logService wraps Service with automatic logging of all method calls
type logService struct {
	svc    Service
	logger *zap.Logger
}

// NewLog creates a logging decorator for the wallet Service.
func NewLog(svc Service, logger *zap.Logger) Service {
	return &logService{
		svc:    svc,
		logger: logger,
	}
}

func (ls *logService) BindWallet(ctx context.Context, req *wallet.BindRequest) (resp *wallet.BindResponse, err error) {
	start := time.Now()

	ls.logger.Info("BindWallet started",
		zap.String("service", serviceName),
		zap.String("user_id", req.UserID),
		zap.Int64("chain_id", req.ChainID),
		zap.String("address", req.Address),
		zap.String("signature", redactSignature(req.Signature)),
	)

	defer func() {
		duration := time.Since(start)
		if err != nil {
			ls.logger.Error("BindWallet failed",
				zap.String("service", serviceName),
				zap.String("user_id", req.UserID),
				zap.Int64("chain_id", req.ChainID),
				zap.Duration("duration", duration),
				zap.Error(err),
			)
		} else {
			ls.logger.Info("BindWallet completed",
				zap.String("service", serviceName),
				zap.String("user_id", req.UserID),
				zap.Int64("chain_id", req.ChainID),
				zap.String("status", resp.Status),
				zap.Duration("duration", duration),
			)
		}
	}()

	return ls.svc.BindWallet(ctx, req)
}

func (ls *logService) GetBinding(ctx context.Context, userID string, chainID int64) (view *wallet.BindingView, err error) {
	start := time.Now()
	defer func() {
		if err != nil {
			ls.logger.Debug("GetBinding failed",
				zap.String("service", serviceName),
				zap.String("user_id", userID),
				zap.Int64("chain_id", chainID),
				zap.Duration("duration", time.Since(start)),
				zap.Error(err),
			)
		}
	}()
	return ls.svc.GetBinding(ctx, userID, chainID)
}

// redactSignature redacts signature data to show only metadata
func redactSignature(sig string) string {
	if sig == "" {
		return "<empty>"
	}
	sigLen := len(sig)
	if sigLen > signatureDisplaySize {
		return fmt.Sprintf("%s...%s (%d bytes)", sig[:8], sig[sigLen-4:], sigLen)
	}
	return fmt.Sprintf("<%d bytes>", sigLen)
}
