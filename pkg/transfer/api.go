package transfer

import "time"

// SubmitTransferRequest is the payload for submitting a wallet-to-wallet
// transfer. The recipient is either an explicit address or a registered user
// whose preferred wallet for the chain is resolved server-side.
type SubmitTransferRequest struct {
	SenderAddress    string `json:"sender_address" validate:"required,eth_addr"`
	RecipientAddress string `json:"recipient_address,omitzero" validate:"omitempty,eth_addr"`
	RecipientUserID  string `json:"recipient_user_id,omitzero" validate:"required_without=RecipientAddress"`
	Amount           string `json:"amount" validate:"required"`
	TokenSymbol      string `json:"token_symbol" validate:"required"`
	TokenAddress     string `json:"token_address" validate:"required,eth_addr"`
	ChainID          int64  `json:"chain_id" validate:"required,gt=0"`
	TokenDecimals    int32  `json:"token_decimals,omitzero" validate:"gte=0,lte=36"`
}

// SubmitTransferResponse is returned as soon as the chain assigned a tx
// hash; the status is provisional and converges asynchronously.
type SubmitTransferResponse struct {
	TxHash string `json:"tx_hash"`
	Status string `json:"status"`
}

// WarningRecordingDegraded is surfaced on a view whose transfer completed
// on-chain but whose stored status is still catching up after failed ledger
// writes. The payment itself is not in doubt.
const WarningRecordingDegraded = "payment sent, status recording failed"

// TransferView is the read-side representation of a transfer record.
type TransferView struct {
	ID               string     `json:"id"`
	TxHash           string     `json:"tx_hash,omitzero"`
	SenderAddress    string     `json:"sender_address"`
	RecipientAddress string     `json:"recipient_address"`
	Amount           string     `json:"amount"`
	TokenSymbol      string     `json:"token_symbol"`
	TokenAddress     string     `json:"token_address"`
	ChainID          int64      `json:"chain_id"`
	Status           string     `json:"status"`
	Warning          string     `json:"warning,omitzero"`
	CreatedAt        time.Time  `json:"created_at"`
	ConfirmedAt      *time.Time `json:"confirmed_at,omitzero"`
}

// NewView converts a stored record to its API representation.
func NewView(rec *Record) *TransferView {
	return &TransferView{
		ID:               rec.ID,
		TxHash:           rec.TxHash,
		SenderAddress:    rec.SenderAddress,
		RecipientAddress: rec.RecipientAddress,
		Amount:           rec.Amount.String(),
		TokenSymbol:      rec.TokenSymbol,
		TokenAddress:     rec.TokenAddress,
		ChainID:          rec.ChainID,
		Status:           string(rec.Status),
		CreatedAt:        rec.CreatedAt,
		ConfirmedAt:      rec.ConfirmedAt,
	}
}
