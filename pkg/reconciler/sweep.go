package reconciler

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/payflow-labs/payflow/internal/metrics"
	"github.com/payflow-labs/payflow/pkg/chain"
	"github.com/payflow-labs/payflow/pkg/transfer"
)

// SweepConfig bounds the stale-pending sweep.
type SweepConfig struct {
	Interval time.Duration
	MinAge   time.Duration
	Batch    int
}

// StartPendingSweep starts a background loop that resolves abandoned pending
// records by polling the chain for their receipts. A record goes stale when
// the receipt wait timed out or the process died before the confirmation
// write; without the sweep such records would stay pending until a user
// happened to look at them again.
func (r *Reconciler) StartPendingSweep(cfg SweepConfig) {
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Minute
	}
	if cfg.MinAge <= 0 {
		cfg.MinAge = 5 * time.Minute
	}
	if cfg.Batch <= 0 {
		cfg.Batch = 50
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()

		r.logger.Info("Started pending transfer sweep",
			zap.Duration("interval", cfg.Interval),
			zap.Duration("min_age", cfg.MinAge))

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
				if _, err := r.sweepOnce(ctx, cfg); err != nil {
					r.logger.Error("Pending sweep failed", zap.Error(err))
				}
				cancel()
			case <-r.stopCh:
				r.logger.Info("Stopping pending transfer sweep")
				return
			}
		}
	}()
}

// sweepOnce resolves one batch of stale pending records and returns how many
// it actually transitioned.
func (r *Reconciler) sweepOnce(ctx context.Context, cfg SweepConfig) (int, error) {
	stale, err := r.store.ListPendingOlderThan(ctx, cfg.MinAge, cfg.Batch)
	if err != nil {
		return 0, err
	}
	if len(stale) == 0 {
		return 0, nil
	}

	metrics.PendingTransfers.Set(float64(len(stale)))
	r.logger.Info("Sweeping stale pending transfers", zap.Int("count", len(stale)))

	var resolved int
	for _, rec := range stale {
		if ctx.Err() != nil {
			break
		}

		// Short per-record window: a receipt that exists is returned on
		// the first poll, and one that does not is someone else's turn
		// next sweep.
		lookupCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		outcome, err := r.adapter.WaitForReceipt(lookupCtx, rec.TxHash)
		cancel()
		if err != nil {
			if !errors.Is(err, chain.ErrReceiptTimeout) && !errors.Is(err, context.DeadlineExceeded) {
				r.logger.Warn("Sweep receipt lookup failed",
					zap.String("tx_hash", rec.TxHash),
					zap.Error(err))
			}
			continue
		}

		details := detailsFromRecord(rec)
		applied, err := r.HandleConfirmation(ctx, rec.TxHash, outcome, &details)
		if err != nil {
			r.logger.Warn("Sweep reconcile failed",
				zap.String("tx_hash", rec.TxHash),
				zap.Error(err))
			continue
		}
		// A guard skip or an already-terminal row is not a resolution.
		if applied {
			resolved++
		}
	}

	if resolved > 0 {
		metrics.SweepResolved.Add(float64(resolved))
		r.logger.Info("Pending sweep completed",
			zap.Int("stale", len(stale)),
			zap.Int("resolved", resolved))
	}
	return resolved, nil
}

// detailsFromRecord recovers submit-time details from a stored record so the
// confirmation path can recreate it if it vanished in the meantime.
func detailsFromRecord(rec *transfer.Record) transfer.Details {
	return transfer.Details{
		SenderAddress:    rec.SenderAddress,
		RecipientAddress: rec.RecipientAddress,
		SenderUserID:     rec.SenderUserID,
		RecipientUserID:  rec.RecipientUserID,
		Amount:           rec.Amount,
		TokenSymbol:      rec.TokenSymbol,
		TokenAddress:     rec.TokenAddress,
		ChainID:          rec.ChainID,
	}
}
