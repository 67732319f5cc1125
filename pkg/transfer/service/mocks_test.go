package service

import (
	"context"

	"github.com/payflow-labs/payflow/pkg/reconciler"
	"github.com/payflow-labs/payflow/pkg/transfer"
	"github.com/payflow-labs/payflow/pkg/transferstore"
	"github.com/payflow-labs/payflow/pkg/wallet"
)

// MockSubmitter is a mock implementation of Submitter
type MockSubmitter struct {
	SubmitAndReconcileFunc func(ctx context.Context, req reconciler.SubmitRequest) (*reconciler.SubmitResult, error)
	DegradedFunc           func(txHash string) bool
}

func (m *MockSubmitter) SubmitAndReconcile(ctx context.Context, req reconciler.SubmitRequest) (*reconciler.SubmitResult, error) {
	if m.SubmitAndReconcileFunc != nil {
		return m.SubmitAndReconcileFunc(ctx, req)
	}
	return &reconciler.SubmitResult{TxHash: "0xmock", InitialStatus: transfer.StatusPending}, nil
}

func (m *MockSubmitter) Degraded(txHash string) bool {
	if m.DegradedFunc != nil {
		return m.DegradedFunc(txHash)
	}
	return false
}

// MockReadStore is a mock implementation of ReadStore
type MockReadStore struct {
	FindByTxHashFunc  func(ctx context.Context, txHash string) (*transfer.Record, error)
	ListByAddressFunc func(ctx context.Context, address string, limit int) ([]*transfer.Record, error)
}

func (m *MockReadStore) FindByTxHash(ctx context.Context, txHash string) (*transfer.Record, error) {
	if m.FindByTxHashFunc != nil {
		return m.FindByTxHashFunc(ctx, txHash)
	}
	return nil, transferstore.ErrNotFound
}

func (m *MockReadStore) ListByAddress(ctx context.Context, address string, limit int) ([]*transfer.Record, error) {
	if m.ListByAddressFunc != nil {
		return m.ListByAddressFunc(ctx, address, limit)
	}
	return nil, nil
}

// MockWalletDirectory is a mock implementation of WalletDirectory
type MockWalletDirectory struct {
	GetPreferredWalletFunc func(ctx context.Context, userID string, chainID int64) (*wallet.PreferredWallet, error)
}

func (m *MockWalletDirectory) GetPreferredWallet(ctx context.Context, userID string, chainID int64) (*wallet.PreferredWallet, error) {
	if m.GetPreferredWalletFunc != nil {
		return m.GetPreferredWalletFunc(ctx, userID, chainID)
	}
	return nil, transferstore.ErrNotFound
}
