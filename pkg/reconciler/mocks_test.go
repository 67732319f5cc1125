package reconciler

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/payflow-labs/payflow/pkg/chain"
	"github.com/payflow-labs/payflow/pkg/transfer"
	"github.com/payflow-labs/payflow/pkg/transferstore"
)

// MockLedgerStore is a mock implementation of LedgerStore
type MockLedgerStore struct {
	FindByTxHashFunc         func(ctx context.Context, txHash string) (*transfer.Record, error)
	CreatePendingFunc        func(ctx context.Context, details transfer.Details, txHash string) (*transfer.Record, error)
	CreateTerminalFunc       func(ctx context.Context, details transfer.Details, txHash string, outcome transfer.Outcome) (*transfer.Record, error)
	MarkTerminalFunc         func(ctx context.Context, txHash string, outcome transfer.Outcome) (bool, error)
	ListPendingOlderThanFunc func(ctx context.Context, age time.Duration, limit int) ([]*transfer.Record, error)
}

func (m *MockLedgerStore) FindByTxHash(ctx context.Context, txHash string) (*transfer.Record, error) {
	if m.FindByTxHashFunc != nil {
		return m.FindByTxHashFunc(ctx, txHash)
	}
	return nil, transferstore.ErrNotFound
}

func (m *MockLedgerStore) CreatePending(ctx context.Context, details transfer.Details, txHash string) (*transfer.Record, error) {
	if m.CreatePendingFunc != nil {
		return m.CreatePendingFunc(ctx, details, txHash)
	}
	return recordFromDetails(details, txHash, transfer.StatusPending), nil
}

func (m *MockLedgerStore) CreateTerminal(ctx context.Context, details transfer.Details, txHash string, outcome transfer.Outcome) (*transfer.Record, error) {
	if m.CreateTerminalFunc != nil {
		return m.CreateTerminalFunc(ctx, details, txHash, outcome)
	}
	return recordFromDetails(details, txHash, outcome.Status()), nil
}

func (m *MockLedgerStore) MarkTerminal(ctx context.Context, txHash string, outcome transfer.Outcome) (bool, error) {
	if m.MarkTerminalFunc != nil {
		return m.MarkTerminalFunc(ctx, txHash, outcome)
	}
	return false, nil
}

func (m *MockLedgerStore) ListPendingOlderThan(ctx context.Context, age time.Duration, limit int) ([]*transfer.Record, error) {
	if m.ListPendingOlderThanFunc != nil {
		return m.ListPendingOlderThanFunc(ctx, age, limit)
	}
	return nil, nil
}

// MockAdapter is a mock implementation of chain.Adapter
type MockAdapter struct {
	SubmitTransferFunc     func(ctx context.Context, ins chain.Instruction) (string, error)
	ActiveChainIDFunc      func(ctx context.Context) (int64, error)
	RequestChainSwitchFunc func(ctx context.Context, chainID int64) (chain.SwitchResult, error)
	GasPriceFunc           func(ctx context.Context) (*big.Int, error)
	WaitForReceiptFunc     func(ctx context.Context, txHash string) (transfer.Outcome, error)
}

func (m *MockAdapter) SubmitTransfer(ctx context.Context, ins chain.Instruction) (string, error) {
	if m.SubmitTransferFunc != nil {
		return m.SubmitTransferFunc(ctx, ins)
	}
	return "", nil
}

func (m *MockAdapter) ActiveChainID(ctx context.Context) (int64, error) {
	if m.ActiveChainIDFunc != nil {
		return m.ActiveChainIDFunc(ctx)
	}
	return 0, nil
}

func (m *MockAdapter) RequestChainSwitch(ctx context.Context, chainID int64) (chain.SwitchResult, error) {
	if m.RequestChainSwitchFunc != nil {
		return m.RequestChainSwitchFunc(ctx, chainID)
	}
	return chain.SwitchOK, nil
}

func (m *MockAdapter) GasPrice(ctx context.Context) (*big.Int, error) {
	if m.GasPriceFunc != nil {
		return m.GasPriceFunc(ctx)
	}
	return big.NewInt(1), nil
}

func (m *MockAdapter) WaitForReceipt(ctx context.Context, txHash string) (transfer.Outcome, error) {
	if m.WaitForReceiptFunc != nil {
		return m.WaitForReceiptFunc(ctx, txHash)
	}
	return transfer.OutcomeConfirmed, nil
}

// memStore is an in-memory LedgerStore with the same conditional-write
// semantics as the Postgres store. Used for interleaving tests where real
// create/update races matter.
type memStore struct {
	mu      sync.Mutex
	records map[string]*transfer.Record
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string]*transfer.Record)}
}

func (s *memStore) FindByTxHash(_ context.Context, txHash string) (*transfer.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[txHash]
	if !ok {
		return nil, transferstore.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (s *memStore) CreatePending(_ context.Context, details transfer.Details, txHash string) (*transfer.Record, error) {
	return s.create(details, txHash, transfer.StatusPending)
}

func (s *memStore) CreateTerminal(_ context.Context, details transfer.Details, txHash string, outcome transfer.Outcome) (*transfer.Record, error) {
	return s.create(details, txHash, outcome.Status())
}

func (s *memStore) create(details transfer.Details, txHash string, status transfer.Status) (*transfer.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[txHash]; exists {
		return nil, transferstore.ErrConflict
	}
	rec := recordFromDetails(details, txHash, status)
	s.records[txHash] = rec
	cp := *rec
	return &cp, nil
}

func (s *memStore) MarkTerminal(_ context.Context, txHash string, outcome transfer.Outcome) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[txHash]
	if !ok {
		return false, transferstore.ErrNotFound
	}
	if rec.Status.Terminal() {
		return false, nil
	}
	rec.Status = outcome.Status()
	now := time.Now()
	rec.ConfirmedAt = &now
	return true, nil
}

func (s *memStore) ListPendingOlderThan(_ context.Context, age time.Duration, limit int) ([]*transfer.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := time.Now().Add(-age)
	var out []*transfer.Record
	for _, rec := range s.records {
		if rec.Status == transfer.StatusPending && rec.CreatedAt.Before(cutoff) {
			cp := *rec
			out = append(out, &cp)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func recordFromDetails(details transfer.Details, txHash string, status transfer.Status) *transfer.Record {
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
		CreatedAt:        time.Now(),
	}
	if status.Terminal() {
		now := time.Now()
		rec.ConfirmedAt = &now
	}
	return rec
}
