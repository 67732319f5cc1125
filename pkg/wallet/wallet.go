// Package wallet holds the preferred receiving wallet domain model and the
// chain-binding verifier that guards its persistence.
package wallet

import "time"

// PreferredWallet is the receiving address a user registered for a chain.
// At most one row exists per (UserID, ChainID); re-binding updates it.
type PreferredWallet struct {
	UserID           string
	ChainID          int64
	ReceivingAddress string
	UpdatedAt        time.Time
}
