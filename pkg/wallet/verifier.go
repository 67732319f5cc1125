package wallet

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/payflow-labs/payflow/internal/metrics"
	"github.com/payflow-labs/payflow/pkg/chain"
)

var (
	// ErrNotConnected is the pending result of a bind attempt made before
	// the signer session exists. A connection request has been issued; the
	// caller re-invokes Bind after the wallet connects.
	ErrNotConnected = errors.New("signer not connected, connection requested")

	// ErrSignerRejected means the user declined the network switch prompt.
	ErrSignerRejected = errors.New("network switch rejected by signer")

	// ErrUnsupportedNetwork means the connected wallet cannot switch to or
	// add the requested chain.
	ErrUnsupportedNetwork = errors.New("network not supported by connected wallet")

	// ErrChainMismatchAfterSwitch means the switch call reported success
	// but an independent re-read still showed the prior network. The bind
	// attempt is dead; the user restarts the whole flow.
	ErrChainMismatchAfterSwitch = errors.New("active chain does not match target after switch")

	// ErrInvalidAddress means the candidate receiving address is not a
	// well-formed address for the chain family.
	ErrInvalidAddress = errors.New("candidate address is not a valid address")
)

// Signer is the connected wallet session the verifier drives. It mirrors a
// browser wallet provider: the switch call's own success signal is not
// trusted, only ActiveChainID is.
type Signer interface {
	Connected(ctx context.Context) (bool, error)
	RequestConnection(ctx context.Context) error
	ActiveChainID(ctx context.Context) (int64, error)
	RequestChainSwitch(ctx context.Context, chainID int64) (chain.SwitchResult, error)
}

// BindingStore persists verified wallet bindings.
type BindingStore interface {
	UpsertPreferredWallet(ctx context.Context, pw *PreferredWallet) error
	GetPreferredWallet(ctx context.Context, userID string, chainID int64) (*PreferredWallet, error)
}

// BindState is the verifier's position in the verification pipeline.
type BindState string

const (
	StateDisconnected BindState = "disconnected"
	StateConnected    BindState = "connected"
	StateSwitching    BindState = "switching"
	StateVerified     BindState = "verified"
)

// Verifier persists a user's preferred receiving wallet only after
// independently confirming the signer is on the claimed network. A binding
// recorded under the wrong chain routes future payments to the right address
// on the wrong network, which has no on-chain recovery; the re-read after a
// reportedly successful switch is what closes that hole.
type Verifier struct {
	signer Signer
	store  BindingStore
	logger *zap.Logger

	mu    sync.Mutex
	state BindState
}

// NewVerifier creates a new Verifier
func NewVerifier(signer Signer, store BindingStore, logger *zap.Logger) *Verifier {
	return &Verifier{
		signer: signer,
		store:  store,
		logger: logger,
		state:  StateDisconnected,
	}
}

// State returns the verifier's current pipeline position.
func (v *Verifier) State() BindState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

func (v *Verifier) setState(s BindState) {
	v.mu.Lock()
	v.state = s
	v.mu.Unlock()
}

// Bind verifies the signer's network and upserts the preferred wallet for
// (userID, targetChainID). Safe to call repeatedly: a repeat bind for the
// same triple re-verifies and re-upserts the same row.
//
// The store write sits behind the full pipeline: every early return leaves
// the verifier short of StateVerified and nothing persisted.
func (v *Verifier) Bind(ctx context.Context, userID string, targetChainID int64, candidateAddress string) (*PreferredWallet, error) {
	connected, err := v.signer.Connected(ctx)
	if err != nil {
		return nil, fmt.Errorf("check signer connection: %w", err)
	}
	if !connected {
		v.setState(StateDisconnected)
		metrics.BindAttempts.WithLabelValues("not_connected").Inc()
		if err := v.signer.RequestConnection(ctx); err != nil {
			return nil, fmt.Errorf("request signer connection: %w", err)
		}
		// Pending result: the caller re-invokes after the wallet connects.
		return nil, ErrNotConnected
	}
	v.setState(StateConnected)

	active, err := v.signer.ActiveChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("read active chain: %w", err)
	}

	if active != targetChainID {
		v.setState(StateSwitching)
		result, err := v.signer.RequestChainSwitch(ctx, targetChainID)
		if err != nil {
			return nil, fmt.Errorf("request chain switch: %w", err)
		}
		switch result {
		case chain.SwitchRejected:
			v.setState(StateConnected)
			metrics.BindAttempts.WithLabelValues("rejected").Inc()
			return nil, ErrSignerRejected
		case chain.SwitchUnsupported:
			v.setState(StateConnected)
			metrics.BindAttempts.WithLabelValues("unsupported").Inc()
			return nil, ErrUnsupportedNetwork
		}

		// The switch reported success. Wallets have been observed to say
		// so while staying on the prior network, so re-read before
		// trusting it. A mismatch here is a hard stop, not a retry.
		active, err = v.signer.ActiveChainID(ctx)
		if err != nil {
			return nil, fmt.Errorf("re-read active chain: %w", err)
		}
		if active != targetChainID {
			v.setState(StateConnected)
			metrics.BindAttempts.WithLabelValues("chain_mismatch").Inc()
			v.logger.Warn("Switch reported success but chain unchanged",
				zap.Int64("target_chain_id", targetChainID),
				zap.Int64("active_chain_id", active))
			return nil, ErrChainMismatchAfterSwitch
		}
	}

	if !common.IsHexAddress(candidateAddress) {
		metrics.BindAttempts.WithLabelValues("invalid_address").Inc()
		return nil, fmt.Errorf("%w: %s", ErrInvalidAddress, candidateAddress)
	}
	v.setState(StateVerified)

	pw := &PreferredWallet{
		UserID:           userID,
		ChainID:          targetChainID,
		ReceivingAddress: common.HexToAddress(candidateAddress).Hex(),
		UpdatedAt:        time.Now(),
	}
	if err := v.store.UpsertPreferredWallet(ctx, pw); err != nil {
		return nil, fmt.Errorf("upsert preferred wallet: %w", err)
	}

	metrics.BindAttempts.WithLabelValues("verified").Inc()
	v.logger.Info("Preferred wallet bound",
		zap.String("user_id", userID),
		zap.Int64("chain_id", targetChainID),
		zap.String("address", pw.ReceivingAddress))
	return pw, nil
}

// Preferred returns the stored binding for (userID, chainID).
func (v *Verifier) Preferred(ctx context.Context, userID string, chainID int64) (*PreferredWallet, error) {
	return v.store.GetPreferredWallet(ctx, userID, chainID)
}
