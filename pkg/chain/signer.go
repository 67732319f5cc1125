package chain

import (
	"context"
)

// SignerSession adapts an Adapter to the signer session the binding verifier
// drives. For a server-side deployment the "wallet" is the configured RPC
// account, so connectivity is the RPC endpoint being reachable.
type SignerSession struct {
	adapter Adapter
}

// NewSignerSession creates a signer session over the chain adapter.
func NewSignerSession(adapter Adapter) *SignerSession {
	return &SignerSession{adapter: adapter}
}

// Connected reports whether the provider answers chain identity queries.
func (s *SignerSession) Connected(ctx context.Context) (bool, error) {
	if _, err := s.adapter.ActiveChainID(ctx); err != nil {
		return false, nil
	}
	return true, nil
}

// RequestConnection is a no-op for an RPC-backed session; the next Bind
// attempt re-checks reachability.
func (s *SignerSession) RequestConnection(ctx context.Context) error {
	return nil
}

func (s *SignerSession) ActiveChainID(ctx context.Context) (int64, error) {
	return s.adapter.ActiveChainID(ctx)
}

func (s *SignerSession) RequestChainSwitch(ctx context.Context, chainID int64) (SwitchResult, error) {
	return s.adapter.RequestChainSwitch(ctx, chainID)
}
