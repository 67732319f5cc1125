package wallet

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/payflow-labs/payflow/pkg/chain"
)

const testAddress = "0x9aBc000000000000000000000000000000000001"

func TestBind_NotConnected_RequestsConnectionAndReturnsPending(t *testing.T) {
	requested := false
	signer := &MockSigner{
		ConnectedFunc: func(ctx context.Context) (bool, error) { return false, nil },
		RequestConnectionFunc: func(ctx context.Context) error {
			requested = true
			return nil
		},
	}
	store := &MockBindingStore{}
	v := NewVerifier(signer, store, zap.NewNop())

	_, err := v.Bind(context.Background(), "user-1", 1, testAddress)
	if !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
	if !requested {
		t.Error("expected a connection request to be issued")
	}
	if len(store.Upserts) != 0 {
		t.Error("nothing may be persisted before the signer connects")
	}
	if v.State() != StateDisconnected {
		t.Errorf("expected state disconnected, got %s", v.State())
	}
}

func TestBind_AlreadyOnTargetChain_Persists(t *testing.T) {
	signer := &MockSigner{
		ActiveChainIDFunc: func(ctx context.Context) (int64, error) { return 56, nil },
	}
	store := &MockBindingStore{}
	v := NewVerifier(signer, store, zap.NewNop())

	pw, err := v.Bind(context.Background(), "user-1", 56, testAddress)
	if err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	if pw.ChainID != 56 || pw.UserID != "user-1" {
		t.Errorf("unexpected binding %+v", pw)
	}
	if want := common.HexToAddress(testAddress).Hex(); pw.ReceivingAddress != want {
		t.Errorf("expected checksummed address %s, got %s", want, pw.ReceivingAddress)
	}
	if v.State() != StateVerified {
		t.Errorf("expected state verified, got %s", v.State())
	}
}

func TestBind_SwitchRejected(t *testing.T) {
	signer := &MockSigner{
		ActiveChainIDFunc: func(ctx context.Context) (int64, error) { return 1, nil },
		RequestChainSwitchFunc: func(ctx context.Context, chainID int64) (chain.SwitchResult, error) {
			return chain.SwitchRejected, nil
		},
	}
	store := &MockBindingStore{}
	v := NewVerifier(signer, store, zap.NewNop())

	_, err := v.Bind(context.Background(), "user-1", 56, testAddress)
	if !errors.Is(err, ErrSignerRejected) {
		t.Fatalf("expected ErrSignerRejected, got %v", err)
	}
	if len(store.Upserts) != 0 {
		t.Error("rejected switch must not persist a binding")
	}
}

func TestBind_SwitchUnsupported(t *testing.T) {
	signer := &MockSigner{
		ActiveChainIDFunc: func(ctx context.Context) (int64, error) { return 1, nil },
		RequestChainSwitchFunc: func(ctx context.Context, chainID int64) (chain.SwitchResult, error) {
			return chain.SwitchUnsupported, nil
		},
	}
	store := &MockBindingStore{}
	v := NewVerifier(signer, store, zap.NewNop())

	_, err := v.Bind(context.Background(), "user-1", 999, testAddress)
	if !errors.Is(err, ErrUnsupportedNetwork) {
		t.Fatalf("expected ErrUnsupportedNetwork, got %v", err)
	}
	if len(store.Upserts) != 0 {
		t.Error("unsupported network must not persist a binding")
	}
}

func TestBind_SwitchLies_ChainMismatchIsHardStop(t *testing.T) {
	// The wallet reports a successful switch but stays on chain 1.
	signer := &MockSigner{
		ActiveChainIDFunc: func(ctx context.Context) (int64, error) { return 1, nil },
		RequestChainSwitchFunc: func(ctx context.Context, chainID int64) (chain.SwitchResult, error) {
			return chain.SwitchOK, nil
		},
	}
	store := &MockBindingStore{}
	v := NewVerifier(signer, store, zap.NewNop())

	_, err := v.Bind(context.Background(), "user-1", 56, testAddress)
	if !errors.Is(err, ErrChainMismatchAfterSwitch) {
		t.Fatalf("expected ErrChainMismatchAfterSwitch, got %v", err)
	}
	if len(store.Upserts) != 0 {
		t.Error("mismatched chain must not persist a binding")
	}
	if v.State() == StateVerified {
		t.Error("verifier must not reach verified state on mismatch")
	}
}

func TestBind_SwitchThenVerifiedReRead_Persists(t *testing.T) {
	// First read shows chain 1, the read after the switch shows the target.
	reads := []int64{1, 56}
	signer := &MockSigner{
		ActiveChainIDFunc: func(ctx context.Context) (int64, error) {
			id := reads[0]
			if len(reads) > 1 {
				reads = reads[1:]
			}
			return id, nil
		},
	}
	store := &MockBindingStore{}
	v := NewVerifier(signer, store, zap.NewNop())

	pw, err := v.Bind(context.Background(), "user-1", 56, testAddress)
	if err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	if pw.ChainID != 56 {
		t.Errorf("expected binding on chain 56, got %d", pw.ChainID)
	}
	if len(store.Upserts) != 1 {
		t.Fatalf("expected exactly one upsert, got %d", len(store.Upserts))
	}
}

func TestBind_InvalidAddress(t *testing.T) {
	store := &MockBindingStore{}
	v := NewVerifier(&MockSigner{}, store, zap.NewNop())

	_, err := v.Bind(context.Background(), "user-1", 1, "not-an-address")
	if !errors.Is(err, ErrInvalidAddress) {
		t.Fatalf("expected ErrInvalidAddress, got %v", err)
	}
	if len(store.Upserts) != 0 {
		t.Error("malformed address must not persist a binding")
	}
}

func TestBind_RepeatBind_UpsertsSameRow(t *testing.T) {
	signer := &MockSigner{
		ActiveChainIDFunc: func(ctx context.Context) (int64, error) { return 1, nil },
	}
	store := &MockBindingStore{}
	v := NewVerifier(signer, store, zap.NewNop())

	for i := 0; i < 2; i++ {
		if _, err := v.Bind(context.Background(), "user-1", 1, testAddress); err != nil {
			t.Fatalf("bind %d failed: %v", i, err)
		}
	}
	if len(store.Upserts) != 2 {
		t.Fatalf("expected two upserts, got %d", len(store.Upserts))
	}
	if store.Upserts[0].UserID != store.Upserts[1].UserID ||
		store.Upserts[0].ChainID != store.Upserts[1].ChainID ||
		store.Upserts[0].ReceivingAddress != store.Upserts[1].ReceivingAddress {
		t.Error("repeat bind must target the same row")
	}
}
