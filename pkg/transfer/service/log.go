package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/payflow-labs/payflow/pkg/transfer"
)

const serviceName = "TransferService"

// logService wraps Service with automatic logging of all method calls
type logService struct {
	svc    Service
	logger *zap.Logger
}

// NewLog creates a logging decorator for the transfer Service.
func NewLog(svc Service, logger *zap.Logger) Service {
	return &logService{
		svc:    svc,
		logger: logger,
	}
}

func (ls *logService) Submit(ctx context.Context, req *transfer.SubmitTransferRequest) (resp *transfer.SubmitTransferResponse, err error) {
	start := time.Now()

	ls.logger.Info("Submit started",
		zap.String("service", serviceName),
		zap.String("sender", req.SenderAddress),
		zap.String("recipient", req.RecipientAddress),
		zap.String("recipient_user_id", req.RecipientUserID),
		zap.String("token", req.TokenSymbol),
		zap.Int64("chain_id", req.ChainID),
	)

	defer func() {
		duration := time.Since(start)
		if err != nil {
			ls.logger.Error("Submit failed",
				zap.String("service", serviceName),
				zap.Duration("duration", duration),
				zap.Error(err),
			)
		} else {
			ls.logger.Info("Submit completed",
				zap.String("service", serviceName),
				zap.String("tx_hash", resp.TxHash),
				zap.String("status", resp.Status),
				zap.Duration("duration", duration),
			)
		}
	}()

	return ls.svc.Submit(ctx, req)
}

func (ls *logService) GetByTxHash(ctx context.Context, txHash string) (view *transfer.TransferView, err error) {
	start := time.Now()
	defer func() {
		if err != nil {
			ls.logger.Debug("GetByTxHash failed",
				zap.String("service", serviceName),
				zap.String("tx_hash", txHash),
				zap.Duration("duration", time.Since(start)),
				zap.Error(err),
			)
		}
	}()
	return ls.svc.GetByTxHash(ctx, txHash)
}

func (ls *logService) ListByAddress(ctx context.Context, address string, limit int) (views []*transfer.TransferView, err error) {
	start := time.Now()
	defer func() {
		if err != nil {
			ls.logger.Debug("ListByAddress failed",
				zap.String("service", serviceName),
				zap.String("address", address),
				zap.Duration("duration", time.Since(start)),
				zap.Error(err),
			)
		}
	}()
	return ls.svc.ListByAddress(ctx, address, limit)
}
