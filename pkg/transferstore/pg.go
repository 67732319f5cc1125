package transferstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/payflow-labs/payflow/pkg/transfer"
	"github.com/payflow-labs/payflow/pkg/wallet"
)

type pgStore struct {
	db *bun.DB
}

// NewStore creates a new postgres implementation of the transfer store
func NewStore(db *bun.DB) Store {
	return &pgStore{db: db}
}

// isUniqueViolation reports whether err is a Postgres unique_violation.
func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	return errors.As(err, &pgErr) && pgErr.Field('C') == "23505"
}

func (s *pgStore) FindByTxHash(ctx context.Context, txHash string) (*transfer.Record, error) {
	dao := new(TransferDao)
	err := s.db.NewSelect().
		Model(dao).
		Where("tx_hash = ?", txHash).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find transfer by tx hash: %w", err)
	}
	return toTransfer(dao), nil
}

func (s *pgStore) CreatePending(ctx context.Context, details transfer.Details, txHash string) (*transfer.Record, error) {
	return s.create(ctx, details, txHash, transfer.StatusPending, nil)
}

func (s *pgStore) CreateTerminal(ctx context.Context, details transfer.Details, txHash string, outcome transfer.Outcome) (*transfer.Record, error) {
	now := time.Now().UTC()
	return s.create(ctx, details, txHash, outcome.Status(), &now)
}

// create inserts a record guarded by the tx_hash unique index. The conflict
// clause makes concurrent inserts for the same hash converge on one row; the
// loser observes zero affected rows and gets ErrConflict.
func (s *pgStore) create(
	ctx context.Context,
	details transfer.Details,
	txHash string,
	status transfer.Status,
	confirmedAt *time.Time,
) (*transfer.Record, error) {
	rec := &transfer.Record{
		ID:               uuid.NewString(),
		TxHash:           txHash,
		SenderAddress:    details.SenderAddress,
		RecipientAddress: details.RecipientAddress,
		SenderUserID:     details.SenderUserID,
		RecipientUserID:  details.RecipientUserID,
		Amount:           details.Amount,
		TokenSymbol:      details.TokenSymbol,
		TokenAddress:     details.TokenAddress,
		ChainID:          details.ChainID,
		Status:           status,
		CreatedAt:        time.Now().UTC(),
		ConfirmedAt:      confirmedAt,
	}

	q := s.db.NewInsert().Model(toTransferDao(rec))
	if txHash != "" {
		q = q.On("CONFLICT (tx_hash) WHERE tx_hash <> '' DO NOTHING")
	}

	res, err := q.Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("failed to create transfer record: %w", err)
	}

	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil, ErrConflict
	}
	return rec, nil
}

func (s *pgStore) MarkTerminal(ctx context.Context, txHash string, outcome transfer.Outcome) (bool, error) {
	res, err := s.db.NewUpdate().
		Model((*TransferDao)(nil)).
		Set("status = ?", string(outcome.Status())).
		Set("confirmed_at = NOW()").
		Where("tx_hash = ?", txHash).
		Where("status = ?", string(transfer.StatusPending)).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to mark transfer terminal: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected > 0 {
		return true, nil
	}

	// Zero rows: either the record is already terminal (fine, duplicate
	// observation) or it does not exist at all.
	exists, err := s.db.NewSelect().
		Model((*TransferDao)(nil)).
		Where("tx_hash = ?", txHash).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check transfer exists: %w", err)
	}
	if !exists {
		return false, ErrNotFound
	}
	return false, nil
}

func (s *pgStore) ListPendingOlderThan(ctx context.Context, age time.Duration, limit int) ([]*transfer.Record, error) {
	var daos []TransferDao
	err := s.db.NewSelect().
		Model(&daos).
		Where("status = ?", string(transfer.StatusPending)).
		Where("tx_hash <> ''").
		Where("created_at <= ?", time.Now().UTC().Add(-age)).
		Order("created_at ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending transfers: %w", err)
	}

	records := make([]*transfer.Record, len(daos))
	for i := range daos {
		records[i] = toTransfer(&daos[i])
	}
	return records, nil
}

func (s *pgStore) ListByAddress(ctx context.Context, address string, limit int) ([]*transfer.Record, error) {
	var daos []TransferDao
	err := s.db.NewSelect().
		Model(&daos).
		Where("sender_address = ? OR recipient_address = ?", address, address).
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list transfers by address: %w", err)
	}

	records := make([]*transfer.Record, len(daos))
	for i := range daos {
		records[i] = toTransfer(&daos[i])
	}
	return records, nil
}

func (s *pgStore) UpsertPreferredWallet(ctx context.Context, pw *wallet.PreferredWallet) error {
	dao := &PreferredWalletDao{
		UserID:           pw.UserID,
		ChainID:          pw.ChainID,
		ReceivingAddress: pw.ReceivingAddress,
		UpdatedAt:        time.Now().UTC(),
	}

	_, err := s.db.NewInsert().
		Model(dao).
		On("CONFLICT (user_id, chain_id) DO UPDATE").
		Set("receiving_address = EXCLUDED.receiving_address").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to upsert preferred wallet: %w", err)
	}
	return nil
}

func (s *pgStore) GetPreferredWallet(ctx context.Context, userID string, chainID int64) (*wallet.PreferredWallet, error) {
	dao := new(PreferredWalletDao)
	err := s.db.NewSelect().
		Model(dao).
		Where("user_id = ?", userID).
		Where("chain_id = ?", chainID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get preferred wallet: %w", err)
	}
	return toWallet(dao), nil
}
