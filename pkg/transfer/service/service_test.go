package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	apperrors "github.com/payflow-labs/payflow/pkg/app/errors"
	"github.com/payflow-labs/payflow/pkg/reconciler"
	"github.com/payflow-labs/payflow/pkg/transfer"
	"github.com/payflow-labs/payflow/pkg/wallet"
)

const (
	senderAddr    = "0x1111111111111111111111111111111111111111"
	recipientAddr = "0x2222222222222222222222222222222222222222"
	tokenAddr     = "0x3333333333333333333333333333333333333333"
)

func validRequest() *transfer.SubmitTransferRequest {
	return &transfer.SubmitTransferRequest{
		SenderAddress:    senderAddr,
		RecipientAddress: recipientAddr,
		Amount:           "2.5",
		TokenSymbol:      "USDC",
		TokenAddress:     tokenAddr,
		ChainID:          1,
		TokenDecimals:    6,
	}
}

func TestSubmit_PassesDetailsToReconciler(t *testing.T) {
	var got reconciler.SubmitRequest
	submitter := &MockSubmitter{
		SubmitAndReconcileFunc: func(ctx context.Context, req reconciler.SubmitRequest) (*reconciler.SubmitResult, error) {
			got = req
			return &reconciler.SubmitResult{TxHash: "0xabc", InitialStatus: transfer.StatusPending}, nil
		},
	}
	svc := NewService(submitter, &MockReadStore{}, &MockWalletDirectory{}, zap.NewNop())

	resp, err := svc.Submit(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if resp.TxHash != "0xabc" || resp.Status != "pending" {
		t.Errorf("unexpected response %+v", resp)
	}
	if !got.Details.Amount.Equal(decimal.RequireFromString("2.5")) {
		t.Errorf("expected amount 2.5, got %s", got.Details.Amount)
	}
	if got.TokenDecimals != 6 {
		t.Errorf("expected 6 decimals, got %d", got.TokenDecimals)
	}
	if got.Details.ChainID != 1 {
		t.Errorf("expected chain 1, got %d", got.Details.ChainID)
	}
}

func TestSubmit_ValidationFailures(t *testing.T) {
	svc := NewService(&MockSubmitter{}, &MockReadStore{}, &MockWalletDirectory{}, zap.NewNop())

	cases := map[string]func(*transfer.SubmitTransferRequest){
		"missing sender":      func(r *transfer.SubmitTransferRequest) { r.SenderAddress = "" },
		"bad sender":          func(r *transfer.SubmitTransferRequest) { r.SenderAddress = "nope" },
		"no recipient at all": func(r *transfer.SubmitTransferRequest) { r.RecipientAddress = "" },
		"missing amount":      func(r *transfer.SubmitTransferRequest) { r.Amount = "" },
		"zero chain":          func(r *transfer.SubmitTransferRequest) { r.ChainID = 0 },
	}
	for name, mutate := range cases {
		req := validRequest()
		mutate(req)
		_, err := svc.Submit(context.Background(), req)
		if !apperrors.Is(err, apperrors.CategoryDataError) {
			t.Errorf("%s: expected data error, got %v", name, err)
		}
	}
}

func TestSubmit_NonPositiveAmountRejected(t *testing.T) {
	svc := NewService(&MockSubmitter{}, &MockReadStore{}, &MockWalletDirectory{}, zap.NewNop())

	for _, amount := range []string{"0", "-1", "abc"} {
		req := validRequest()
		req.Amount = amount
		_, err := svc.Submit(context.Background(), req)
		if !apperrors.Is(err, apperrors.CategoryDataError) {
			t.Errorf("amount %q: expected data error, got %v", amount, err)
		}
	}
}

func TestSubmit_ResolvesRecipientFromBoundWallet(t *testing.T) {
	wallets := &MockWalletDirectory{
		GetPreferredWalletFunc: func(ctx context.Context, userID string, chainID int64) (*wallet.PreferredWallet, error) {
			if userID != "user-2" || chainID != 1 {
				t.Errorf("unexpected lookup (%s, %d)", userID, chainID)
			}
			return &wallet.PreferredWallet{
				UserID:           userID,
				ChainID:          chainID,
				ReceivingAddress: recipientAddr,
				UpdatedAt:        time.Now(),
			}, nil
		},
	}
	var got reconciler.SubmitRequest
	submitter := &MockSubmitter{
		SubmitAndReconcileFunc: func(ctx context.Context, req reconciler.SubmitRequest) (*reconciler.SubmitResult, error) {
			got = req
			return &reconciler.SubmitResult{TxHash: "0xdef", InitialStatus: transfer.StatusPending}, nil
		},
	}
	svc := NewService(submitter, &MockReadStore{}, wallets, zap.NewNop())

	req := validRequest()
	req.RecipientAddress = ""
	req.RecipientUserID = "user-2"
	if _, err := svc.Submit(context.Background(), req); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if got.Details.RecipientAddress != recipientAddr {
		t.Errorf("expected resolved address %s, got %s", recipientAddr, got.Details.RecipientAddress)
	}
	if got.Details.RecipientUserID == nil || *got.Details.RecipientUserID != "user-2" {
		t.Error("expected recipient user id to be carried on the details")
	}
}

func TestSubmit_RecipientWithoutBinding(t *testing.T) {
	svc := NewService(&MockSubmitter{}, &MockReadStore{}, &MockWalletDirectory{}, zap.NewNop())

	req := validRequest()
	req.RecipientAddress = ""
	req.RecipientUserID = "user-without-wallet"
	_, err := svc.Submit(context.Background(), req)
	if !apperrors.Is(err, apperrors.CategoryResourceNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestGetByTxHash_NotFound(t *testing.T) {
	svc := NewService(&MockSubmitter{}, &MockReadStore{}, &MockWalletDirectory{}, zap.NewNop())

	_, err := svc.GetByTxHash(context.Background(), "0xmissing")
	if !apperrors.Is(err, apperrors.CategoryResourceNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestGetByTxHash_ReturnsView(t *testing.T) {
	now := time.Now()
	store := &MockReadStore{
		FindByTxHashFunc: func(ctx context.Context, txHash string) (*transfer.Record, error) {
			return &transfer.Record{
				ID:               "rec-1",
				TxHash:           txHash,
				SenderAddress:    senderAddr,
				RecipientAddress: recipientAddr,
				Amount:           decimal.RequireFromString("2.5"),
				TokenSymbol:      "USDC",
				TokenAddress:     tokenAddr,
				ChainID:          1,
				Status:           transfer.StatusConfirmed,
				CreatedAt:        now,
				ConfirmedAt:      &now,
			}, nil
		},
	}
	svc := NewService(&MockSubmitter{}, store, &MockWalletDirectory{}, zap.NewNop())

	view, err := svc.GetByTxHash(context.Background(), "0xabc")
	if err != nil {
		t.Fatalf("GetByTxHash failed: %v", err)
	}
	if view.Status != "confirmed" || view.Amount != "2.5" || view.TxHash != "0xabc" {
		t.Errorf("unexpected view %+v", view)
	}
	if view.Warning != "" {
		t.Errorf("expected no warning on a converged record, got %q", view.Warning)
	}
}

func TestGetByTxHash_DegradedRecordingCarriesWarning(t *testing.T) {
	store := &MockReadStore{
		FindByTxHashFunc: func(ctx context.Context, txHash string) (*transfer.Record, error) {
			return &transfer.Record{
				ID:               "rec-2",
				TxHash:           txHash,
				SenderAddress:    senderAddr,
				RecipientAddress: recipientAddr,
				Amount:           decimal.RequireFromString("2.5"),
				TokenSymbol:      "USDC",
				TokenAddress:     tokenAddr,
				ChainID:          1,
				Status:           transfer.StatusPending,
				CreatedAt:        time.Now(),
			}, nil
		},
	}
	submitter := &MockSubmitter{
		DegradedFunc: func(txHash string) bool { return txHash == "0xbehind" },
	}
	svc := NewService(submitter, store, &MockWalletDirectory{}, zap.NewNop())

	// The chain confirmed this transfer but the status write never landed:
	// the caller must see the warning, not a silently stale pending.
	view, err := svc.GetByTxHash(context.Background(), "0xbehind")
	if err != nil {
		t.Fatalf("GetByTxHash failed: %v", err)
	}
	if view.Status != "pending" {
		t.Errorf("expected stored status pending, got %s", view.Status)
	}
	if view.Warning != transfer.WarningRecordingDegraded {
		t.Errorf("expected degraded warning, got %q", view.Warning)
	}

	// A record that is not flagged reads clean.
	view, err = svc.GetByTxHash(context.Background(), "0xclean")
	if err != nil {
		t.Fatalf("GetByTxHash failed: %v", err)
	}
	if view.Warning != "" {
		t.Errorf("expected no warning for unflagged hash, got %q", view.Warning)
	}
}

func TestListByAddress_InvalidAddress(t *testing.T) {
	svc := NewService(&MockSubmitter{}, &MockReadStore{}, &MockWalletDirectory{}, zap.NewNop())

	_, err := svc.ListByAddress(context.Background(), "not-an-address", 10)
	if !apperrors.Is(err, apperrors.CategoryDataError) {
		t.Fatalf("expected data error, got %v", err)
	}
}

func TestListByAddress_CapsLimit(t *testing.T) {
	var gotLimit int
	store := &MockReadStore{
		ListByAddressFunc: func(ctx context.Context, address string, limit int) ([]*transfer.Record, error) {
			gotLimit = limit
			return nil, nil
		},
	}
	svc := NewService(&MockSubmitter{}, store, &MockWalletDirectory{}, zap.NewNop())

	for _, requested := range []int{0, -5, 500} {
		if _, err := svc.ListByAddress(context.Background(), senderAddr, requested); err != nil {
			t.Fatalf("ListByAddress failed: %v", err)
		}
		if gotLimit != DefaultListLimit {
			t.Errorf("requested %d: expected limit %d, got %d", requested, DefaultListLimit, gotLimit)
		}
	}
}
