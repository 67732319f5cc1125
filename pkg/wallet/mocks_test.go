package wallet

import (
	"context"
	"errors"

	"github.com/payflow-labs/payflow/pkg/chain"
)

// MockSigner is a mock implementation of Signer
type MockSigner struct {
	ConnectedFunc          func(ctx context.Context) (bool, error)
	RequestConnectionFunc  func(ctx context.Context) error
	ActiveChainIDFunc      func(ctx context.Context) (int64, error)
	RequestChainSwitchFunc func(ctx context.Context, chainID int64) (chain.SwitchResult, error)
}

func (m *MockSigner) Connected(ctx context.Context) (bool, error) {
	if m.ConnectedFunc != nil {
		return m.ConnectedFunc(ctx)
	}
	return true, nil
}

func (m *MockSigner) RequestConnection(ctx context.Context) error {
	if m.RequestConnectionFunc != nil {
		return m.RequestConnectionFunc(ctx)
	}
	return nil
}

func (m *MockSigner) ActiveChainID(ctx context.Context) (int64, error) {
	if m.ActiveChainIDFunc != nil {
		return m.ActiveChainIDFunc(ctx)
	}
	return 1, nil
}

func (m *MockSigner) RequestChainSwitch(ctx context.Context, chainID int64) (chain.SwitchResult, error) {
	if m.RequestChainSwitchFunc != nil {
		return m.RequestChainSwitchFunc(ctx, chainID)
	}
	return chain.SwitchOK, nil
}

// MockBindingStore is a mock implementation of BindingStore
type MockBindingStore struct {
	UpsertPreferredWalletFunc func(ctx context.Context, pw *PreferredWallet) error
	GetPreferredWalletFunc    func(ctx context.Context, userID string, chainID int64) (*PreferredWallet, error)

	Upserts []PreferredWallet
}

func (m *MockBindingStore) UpsertPreferredWallet(ctx context.Context, pw *PreferredWallet) error {
	if m.UpsertPreferredWalletFunc != nil {
		return m.UpsertPreferredWalletFunc(ctx, pw)
	}
	m.Upserts = append(m.Upserts, *pw)
	return nil
}

func (m *MockBindingStore) GetPreferredWallet(ctx context.Context, userID string, chainID int64) (*PreferredWallet, error) {
	if m.GetPreferredWalletFunc != nil {
		return m.GetPreferredWalletFunc(ctx, userID, chainID)
	}
	return nil, errors.New("preferred wallet not found")
}
