// Package transferstore persists transfer records and preferred wallets.
// All mutations go through conditional writes so concurrent observers of the
// same transaction converge on a single row regardless of arrival order.
package transferstore

import (
	"context"
	"errors"
	"time"

	"github.com/payflow-labs/payflow/pkg/transfer"
	"github.com/payflow-labs/payflow/pkg/wallet"
)

var (
	// ErrNotFound is returned when a lookup finds no matching record.
	ErrNotFound = errors.New("transfer record not found")

	// ErrConflict is returned when a conditional insert finds the tx hash
	// already recorded. Callers treat it as success: the row exists.
	ErrConflict = errors.New("transfer record already exists for tx hash")
)

// Store defines the narrow ledger contract the reconciler depends on.
type Store interface {
	// FindByTxHash returns the record for a tx hash, or ErrNotFound.
	FindByTxHash(ctx context.Context, txHash string) (*transfer.Record, error)

	// CreatePending inserts a new pending record keyed by txHash. Returns
	// ErrConflict when a record for the hash already exists; the insert is
	// a no-op in that case.
	CreatePending(ctx context.Context, details transfer.Details, txHash string) (*transfer.Record, error)

	// CreateTerminal inserts a record directly in a terminal state. Used
	// when a confirmation is observed before any submit-time write landed.
	// Same conflict semantics as CreatePending.
	CreateTerminal(ctx context.Context, details transfer.Details, txHash string, outcome transfer.Outcome) (*transfer.Record, error)

	// MarkTerminal transitions a pending record to the terminal state for
	// the outcome, stamping confirmed_at. Returns false without error when
	// the record is already terminal (duplicate observation), ErrNotFound
	// when no record exists for the hash.
	MarkTerminal(ctx context.Context, txHash string, outcome transfer.Outcome) (bool, error)

	// ListPendingOlderThan returns pending records created at least age ago,
	// oldest first, capped at limit. Feed for the confirmation sweep.
	ListPendingOlderThan(ctx context.Context, age time.Duration, limit int) ([]*transfer.Record, error)

	// ListByAddress returns the most recent transfers sent from or received
	// by the address.
	ListByAddress(ctx context.Context, address string, limit int) ([]*transfer.Record, error)

	WalletStore
}

// WalletStore defines preferred receiving wallet persistence.
type WalletStore interface {
	// UpsertPreferredWallet writes the receiving address for a (user, chain)
	// pair, replacing any previous address for the same pair.
	UpsertPreferredWallet(ctx context.Context, pw *wallet.PreferredWallet) error

	// GetPreferredWallet returns the wallet for a (user, chain) pair, or
	// ErrNotFound.
	GetPreferredWallet(ctx context.Context, userID string, chainID int64) (*wallet.PreferredWallet, error)
}
