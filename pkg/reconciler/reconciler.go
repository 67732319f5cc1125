// Package reconciler turns submit-time and confirmation-time observations of
// on-chain transfers into exactly one ledger record each, with a monotonic
// status. Observations for the same tx hash may arrive in any order, any
// number of times, from interleaved flows; the reconcile operation is an
// idempotent upsert so every interleaving converges to the same stored state.
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/payflow-labs/payflow/internal/metrics"
	"github.com/payflow-labs/payflow/pkg/chain"
	"github.com/payflow-labs/payflow/pkg/retry"
	"github.com/payflow-labs/payflow/pkg/transfer"
	"github.com/payflow-labs/payflow/pkg/transferstore"
)

var (
	// ErrDegradedSuccess reports that the on-chain transfer succeeded but
	// the ledger write did not converge within the retry budget. The money
	// moved; only the bookkeeping is behind. Callers must surface this as
	// a warning, never as a plain failure.
	ErrDegradedSuccess = errors.New("payment sent, status recording failed")

	// ErrDetailsUnrecoverable is returned when a confirmation is observed
	// for a tx hash with no stored record and no recoverable transfer
	// details. Reconciliation is deferred until details surface.
	ErrDetailsUnrecoverable = errors.New("no transfer details recoverable for observed transaction")

	// ErrEmptyTxHash is returned for observations without a transaction
	// identifier.
	ErrEmptyTxHash = errors.New("observation has no tx hash")
)

// LedgerStore is the narrow store contract the reconciler writes through.
type LedgerStore interface {
	FindByTxHash(ctx context.Context, txHash string) (*transfer.Record, error)
	CreatePending(ctx context.Context, details transfer.Details, txHash string) (*transfer.Record, error)
	CreateTerminal(ctx context.Context, details transfer.Details, txHash string, outcome transfer.Outcome) (*transfer.Record, error)
	MarkTerminal(ctx context.Context, txHash string, outcome transfer.Outcome) (bool, error)
	ListPendingOlderThan(ctx context.Context, age time.Duration, limit int) ([]*transfer.Record, error)
}

// Result reports the stored record after an observation was applied.
// Applied is false when the observation was a no-op (duplicate delivery or
// repeat of already-known state).
type Result struct {
	Record  *transfer.Record
	Applied bool
}

// SubmitRequest describes a transfer to submit and track.
type SubmitRequest struct {
	Details transfer.Details
	// TokenDecimals converts Details.Amount to base units for submission.
	// Zero means the ERC-20 default of 18.
	TokenDecimals int32
}

// SubmitResult is returned to the caller as soon as the provisional record
// is written; confirmation continues in the background.
type SubmitResult struct {
	TxHash        string
	InitialStatus transfer.Status
}

// Reconciler reconciles the append-only chain view with the mutable ledger
// store.
type Reconciler struct {
	store   LedgerStore
	adapter chain.Adapter
	policy  retry.Policy
	guard   *dedupGuard
	logger  *zap.Logger

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	// degraded holds hashes whose on-chain transfer completed but whose
	// ledger write exhausted its retries. Read-side callers surface them
	// as a warning until a later reconcile converges.
	degradedMu sync.Mutex
	degraded   map[string]struct{}
}

// New creates a new Reconciler
func New(store LedgerStore, adapter chain.Adapter, policy retry.Policy, logger *zap.Logger) *Reconciler {
	if policy.InitialInterval <= 0 {
		policy = retry.DefaultPolicy()
	}
	return &Reconciler{
		store:    store,
		adapter:  adapter,
		policy:   policy,
		guard:    newDedupGuard(10 * time.Minute),
		logger:   logger,
		stopCh:   make(chan struct{}),
		degraded: make(map[string]struct{}),
	}
}

// Reconcile applies a single observation as an idempotent upsert:
//
//  1. No record, submit-time details known: create pending.
//  2. No record, only an outcome known: create directly in the terminal
//     state from whatever details the observation carries; with none, defer.
//  3. Record already terminal: no-op, success.
//  4. Record pending, observation terminal: transition once.
//  5. Record pending, observation repeats submit details: no-op.
//
// Concurrent callers racing on the same hash converge through the store's
// conditional writes; there is no distinguished "first" caller.
func (r *Reconciler) Reconcile(ctx context.Context, obs transfer.Observation) (*Result, error) {
	if obs.TxHash == "" {
		return nil, ErrEmptyTxHash
	}

	// Two passes at most: a create that loses its race falls through to
	// the update path against the row the winner inserted.
	for attempt := 0; attempt < 2; attempt++ {
		rec, err := r.store.FindByTxHash(ctx, obs.TxHash)
		switch {
		case errors.Is(err, transferstore.ErrNotFound):
			res, createErr := r.createFirstRecord(ctx, obs)
			if errors.Is(createErr, transferstore.ErrConflict) {
				continue // concurrent writer won; re-read and update
			}
			return res, createErr

		case err != nil:
			return nil, fmt.Errorf("lookup by tx hash: %w", err)

		default:
			return r.applyToExisting(ctx, rec, obs)
		}
	}

	// Both passes lost the insert race, which means the row exists now.
	rec, err := r.store.FindByTxHash(ctx, obs.TxHash)
	if err != nil {
		return nil, fmt.Errorf("lookup after insert race: %w", err)
	}
	return r.applyToExisting(ctx, rec, obs)
}

// createFirstRecord handles the no-existing-record arm of the upsert.
func (r *Reconciler) createFirstRecord(ctx context.Context, obs transfer.Observation) (*Result, error) {
	if obs.Outcome == nil {
		if obs.Details == nil {
			return nil, ErrEmptyTxHash
		}
		rec, err := r.store.CreatePending(ctx, *obs.Details, obs.TxHash)
		if err != nil {
			return nil, err
		}
		metrics.ReconcileApplied.WithLabelValues("create_pending").Inc()
		r.logger.Info("Provisional transfer record created",
			zap.String("tx_hash", obs.TxHash),
			zap.String("recipient", obs.Details.RecipientAddress),
			zap.String("amount", obs.Details.Amount.String()))
		return &Result{Record: rec, Applied: true}, nil
	}

	// Confirmation observed before the submit-time write landed.
	if obs.Details == nil {
		return nil, ErrDetailsUnrecoverable
	}
	rec, err := r.store.CreateTerminal(ctx, *obs.Details, obs.TxHash, *obs.Outcome)
	if err != nil {
		return nil, err
	}
	metrics.ReconcileApplied.WithLabelValues("create_terminal").Inc()
	r.logger.Info("Transfer record created directly in terminal state",
		zap.String("tx_hash", obs.TxHash),
		zap.String("status", string(rec.Status)))
	return &Result{Record: rec, Applied: true}, nil
}

// applyToExisting handles the record-exists arm of the upsert.
func (r *Reconciler) applyToExisting(ctx context.Context, rec *transfer.Record, obs transfer.Observation) (*Result, error) {
	if rec.Status.Terminal() {
		// Re-observing a terminal record is defined as success.
		metrics.DuplicateObservations.Inc()
		return &Result{Record: rec, Applied: false}, nil
	}

	if obs.Outcome == nil {
		// Repeat of submit-time details against a pending record.
		return &Result{Record: rec, Applied: false}, nil
	}

	applied, err := r.store.MarkTerminal(ctx, obs.TxHash, *obs.Outcome)
	if err != nil {
		return nil, err
	}

	updated, err := r.store.FindByTxHash(ctx, obs.TxHash)
	if err != nil {
		return nil, fmt.Errorf("re-read after terminal transition: %w", err)
	}

	if applied {
		metrics.ReconcileApplied.WithLabelValues("mark_terminal").Inc()
		r.logger.Info("Transfer record transitioned",
			zap.String("tx_hash", obs.TxHash),
			zap.String("status", string(updated.Status)))
	} else {
		metrics.DuplicateObservations.Inc()
	}
	return &Result{Record: updated, Applied: applied}, nil
}

// SubmitAndReconcile submits the transfer through the chain adapter, records
// it provisionally, and tracks the receipt to a terminal status in the
// background. The returned result is available as soon as the hash is known;
// calling again for the same logical request after a hash was assigned is
// reconciled to the same record.
func (r *Reconciler) SubmitAndReconcile(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	decimals := req.TokenDecimals
	if decimals == 0 {
		decimals = 18
	}

	ins := chain.Instruction{
		TokenAddress: common.HexToAddress(req.Details.TokenAddress),
		Recipient:    common.HexToAddress(req.Details.RecipientAddress),
		Amount:       toBaseUnits(req.Details.Amount, decimals),
	}

	txHash, err := r.adapter.SubmitTransfer(ctx, ins)
	if err != nil {
		return nil, fmt.Errorf("submit transfer: %w", err)
	}
	metrics.TransfersSubmitted.WithLabelValues(req.Details.TokenSymbol).Inc()

	// A fresh submission gets a fresh dedup marker.
	r.guard.reset(txHash)

	// Provisional write. Failure here is tolerable: the confirmation path
	// recreates the record from the same details.
	details := req.Details
	if _, err := r.reconcileWithRetry(ctx, transfer.SubmitObservation(txHash, details)); err != nil {
		r.logger.Warn("Provisional record write failed; confirmation path will recover it",
			zap.String("tx_hash", txHash),
			zap.Error(err))
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.trackReceipt(txHash, details)
	}()

	return &SubmitResult{TxHash: txHash, InitialStatus: transfer.StatusPending}, nil
}

// HandleConfirmation applies a confirmation observation through the dedup
// guard and the retry policy. Duplicate in-process deliveries for the same
// hash are skipped; everything else converges through Reconcile. The bool
// reports whether this call changed stored state: false for a guard skip or
// an observation the store already knew.
//
// When the ledger write fails on every attempt after a confirmed transfer,
// the returned error wraps ErrDegradedSuccess and the hash is flagged as
// degraded until a later reconcile converges: the on-chain action already
// happened and must not be reported as a plain failure.
func (r *Reconciler) HandleConfirmation(ctx context.Context, txHash string, outcome transfer.Outcome, details *transfer.Details) (bool, error) {
	if !r.guard.tryAcquire(txHash) {
		metrics.DedupSkips.Inc()
		r.logger.Debug("Confirmation already being reconciled, skipping",
			zap.String("tx_hash", txHash))
		return false, nil
	}

	res, err := r.reconcileWithRetry(ctx, transfer.ConfirmObservation(txHash, outcome, details))
	if err != nil {
		if errors.Is(err, ErrDetailsUnrecoverable) {
			return false, err
		}
		r.markDegraded(txHash)
		metrics.DegradedSuccess.Inc()
		r.logger.Warn("Ledger write exhausted retries after on-chain completion",
			zap.String("tx_hash", txHash),
			zap.String("outcome", string(outcome)),
			zap.Error(err))
		return false, fmt.Errorf("%w: %w", ErrDegradedSuccess, err)
	}

	r.clearDegraded(txHash)
	return res.Applied, nil
}

// Degraded reports whether the last confirmation attempt for txHash landed
// on-chain but never made it into the ledger. The flag is process-local,
// like the dedup guard: it exists so reads can warn, and it clears as soon
// as any reconcile for the hash succeeds.
func (r *Reconciler) Degraded(txHash string) bool {
	r.degradedMu.Lock()
	defer r.degradedMu.Unlock()
	_, ok := r.degraded[txHash]
	return ok
}

func (r *Reconciler) markDegraded(txHash string) {
	r.degradedMu.Lock()
	defer r.degradedMu.Unlock()
	r.degraded[txHash] = struct{}{}
}

func (r *Reconciler) clearDegraded(txHash string) {
	r.degradedMu.Lock()
	defer r.degradedMu.Unlock()
	delete(r.degraded, txHash)
}

// reconcileWithRetry retries only the ledger store round-trips, never chain
// waiting. Observation-shape errors are permanent.
func (r *Reconciler) reconcileWithRetry(ctx context.Context, obs transfer.Observation) (res *Result, err error) {
	err = r.policy.Do(ctx, func() error {
		var opErr error
		res, opErr = r.Reconcile(ctx, obs)
		if opErr == nil {
			return nil
		}
		if errors.Is(opErr, ErrEmptyTxHash) || errors.Is(opErr, ErrDetailsUnrecoverable) {
			return retry.Permanent(opErr)
		}
		return opErr
	})
	return res, err
}

// trackReceipt waits out the confirmation and reconciles the outcome. On
// timeout the record stays pending for the sweep to resolve.
func (r *Reconciler) trackReceipt(txHash string, details transfer.Details) {
	ctx := context.Background()

	outcome, err := r.adapter.WaitForReceipt(ctx, txHash)
	if err != nil {
		if errors.Is(err, chain.ErrReceiptTimeout) {
			metrics.ReceiptTimeouts.Inc()
			r.logger.Warn("Receipt not observed in window; leaving record pending",
				zap.String("tx_hash", txHash))
			return
		}
		r.logger.Error("Receipt wait failed",
			zap.String("tx_hash", txHash),
			zap.Error(err))
		return
	}

	if _, err := r.HandleConfirmation(ctx, txHash, outcome, &details); err != nil {
		if errors.Is(err, ErrDegradedSuccess) {
			// Already logged and flagged for the read side; nothing
			// on-chain to roll back.
			return
		}
		r.logger.Error("Confirmation reconcile failed",
			zap.String("tx_hash", txHash),
			zap.Error(err))
	}
}

// Stop waits for in-flight receipt tracking and stops background loops.
func (r *Reconciler) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
	r.wg.Wait()
}

// toBaseUnits converts a human-readable token amount to chain base units.
func toBaseUnits(amount decimal.Decimal, decimals int32) *big.Int {
	return amount.Shift(decimals).BigInt()
}
