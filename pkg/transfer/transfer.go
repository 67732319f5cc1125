// Package transfer defines the domain model for wallet-to-wallet token
// transfers tracked by the off-chain ledger.
package transfer

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status represents the current state of a tracked transfer
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether the status is final. A terminal record is never
// transitioned again.
func (s Status) Terminal() bool {
	return s == StatusConfirmed || s == StatusFailed
}

// Outcome is the result of an on-chain confirmation observation
type Outcome string

const (
	OutcomeConfirmed Outcome = "confirmed"
	OutcomeFailed    Outcome = "failed"
)

// Status returns the terminal status matching the outcome.
func (o Outcome) Status() Status {
	if o == OutcomeConfirmed {
		return StatusConfirmed
	}
	return StatusFailed
}

// Record represents one attempted on-chain transfer tracked off-chain.
// At most one record exists per non-empty TxHash.
type Record struct {
	ID               string
	TxHash           string
	SenderAddress    string
	RecipientAddress string
	SenderUserID     *string
	RecipientUserID  *string
	Amount           decimal.Decimal
	TokenSymbol      string
	TokenAddress     string
	ChainID          int64
	Status           Status
	CreatedAt        time.Time
	ConfirmedAt      *time.Time
}

// Details carries the submit-time transfer parameters known before the chain
// reports anything back.
type Details struct {
	SenderAddress    string
	RecipientAddress string
	SenderUserID     *string
	RecipientUserID  *string
	Amount           decimal.Decimal
	TokenSymbol      string
	TokenAddress     string
	ChainID          int64
}

// Observation is a single input to the reconciler: either a submit-time
// sighting (Details set) or a confirmation-time sighting (Outcome set).
// A confirmation observation may also carry Details when they are recoverable
// from the submission context, which lets the reconciler create a record
// directly in a terminal state if the submit-time write never landed.
type Observation struct {
	TxHash  string
	Details *Details
	Outcome *Outcome
}

// SubmitObservation builds a submit-time observation.
func SubmitObservation(txHash string, details Details) Observation {
	return Observation{TxHash: txHash, Details: &details}
}

// ConfirmObservation builds a confirmation-time observation. Details may be
// nil when nothing about the transfer is recoverable.
func ConfirmObservation(txHash string, outcome Outcome, details *Details) Observation {
	return Observation{TxHash: txHash, Outcome: &outcome, Details: details}
}
