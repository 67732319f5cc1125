package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ReconcileApplied counts state-changing reconcile writes by kind
	ReconcileApplied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payflow_reconcile_applied_total",
			Help: "Total number of reconcile operations that changed stored state",
		},
		[]string{"kind"},
	)

	// DuplicateObservations counts observations resolved as no-ops
	DuplicateObservations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "payflow_duplicate_observations_total",
			Help: "Total number of observations that matched already-stored state",
		},
	)

	// DedupSkips counts confirmations skipped by the in-process guard
	DedupSkips = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "payflow_dedup_skips_total",
			Help: "Total number of confirmation deliveries skipped as in-flight duplicates",
		},
	)

	// DegradedSuccess counts confirmed transfers whose ledger write failed
	DegradedSuccess = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "payflow_degraded_success_total",
			Help: "Total number of on-chain successes with exhausted ledger write retries",
		},
	)

	// ReceiptTimeouts counts receipt waits that expired without a result
	ReceiptTimeouts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "payflow_receipt_timeouts_total",
			Help: "Total number of receipt polls that timed out",
		},
	)

	// PendingTransfers tracks stale pending records seen by the last sweep
	PendingTransfers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "payflow_stale_pending_transfers",
			Help: "Number of stale pending transfers found by the last sweep pass",
		},
	)

	// SweepResolved counts stale pending records the sweep drove to terminal
	SweepResolved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "payflow_sweep_resolved_total",
			Help: "Total number of stale pending transfers resolved by the sweep",
		},
	)

	// TransfersSubmitted counts on-chain submissions by token
	TransfersSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payflow_transfers_submitted_total",
			Help: "Total number of transfers submitted on-chain",
		},
		[]string{"token"},
	)

	// BindAttempts counts wallet binding attempts by result
	BindAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payflow_wallet_bind_attempts_total",
			Help: "Total number of wallet binding attempts",
		},
		[]string{"result"},
	)
)
