package wallet

import "time"

// Bind result statuses exposed to callers.
const (
	BindStatusVerified          = "verified"
	BindStatusPendingConnection = "pending_connection"
)

// BindRequest registers a receiving address for a user on a chain. The
// message and signature are an EIP-191 proof that the caller controls the
// address being bound.
type BindRequest struct {
	UserID    string `json:"user_id" validate:"required"`
	ChainID   int64  `json:"chain_id" validate:"required,gt=0"`
	Address   string `json:"address" validate:"required,eth_addr"`
	Message   string `json:"message" validate:"required"`
	Signature string `json:"signature" validate:"required"`
}

// BindResponse reports the outcome of a bind attempt. Status is verified
// when the binding persisted, or pending_connection when the signer must
// first connect and the caller should retry.
type BindResponse struct {
	Status  string       `json:"status"`
	Reason  string       `json:"reason,omitzero"`
	Binding *BindingView `json:"binding,omitzero"`
}

// BindingView is the read-side representation of a preferred wallet.
type BindingView struct {
	UserID           string    `json:"user_id"`
	ChainID          int64     `json:"chain_id"`
	ReceivingAddress string    `json:"receiving_address"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// NewBindingView converts a stored binding to its API representation.
func NewBindingView(pw *PreferredWallet) *BindingView {
	return &BindingView{
		UserID:           pw.UserID,
		ChainID:          pw.ChainID,
		ReceivingAddress: pw.ReceivingAddress,
		UpdatedAt:        pw.UpdatedAt,
	}
}
