package transferstore

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	"github.com/payflow-labs/payflow/pkg/transfer"
	"github.com/payflow-labs/payflow/pkg/wallet"
)

// TransferDao is a data access object that maps directly to the 'transfers' table in PostgreSQL.
type TransferDao struct {
	bun.BaseModel    `bun:"table:transfers,alias:t"`
	ID               string     `bun:"id,pk,type:uuid"`
	TxHash           string     `bun:"tx_hash,notnull,default:'',type:varchar(66)"`
	SenderAddress    string     `bun:"sender_address,notnull,type:varchar(42)"`
	RecipientAddress string     `bun:"recipient_address,notnull,type:varchar(42)"`
	SenderUserID     *string    `bun:"sender_user_id,type:varchar(64)"`
	RecipientUserID  *string    `bun:"recipient_user_id,type:varchar(64)"`
	Amount           string     `bun:"amount,notnull,type:numeric(38,18)"`
	TokenSymbol      string     `bun:"token_symbol,notnull,type:varchar(16)"`
	TokenAddress     string     `bun:"token_address,notnull,type:varchar(42)"`
	ChainID          int64      `bun:"chain_id,notnull"`
	Status           string     `bun:"status,notnull,default:'pending',type:varchar(16)"`
	CreatedAt        time.Time  `bun:"created_at,nullzero,default:current_timestamp"`
	ConfirmedAt      *time.Time `bun:"confirmed_at"`
}

// PreferredWalletDao is a data access object that maps directly to the 'preferred_wallets' table in PostgreSQL.
type PreferredWalletDao struct {
	bun.BaseModel    `bun:"table:preferred_wallets,alias:pw"`
	UserID           string    `bun:"user_id,pk,type:varchar(64)"`
	ChainID          int64     `bun:"chain_id,pk"`
	ReceivingAddress string    `bun:"receiving_address,notnull,type:varchar(42)"`
	UpdatedAt        time.Time `bun:"updated_at,nullzero,default:current_timestamp"`
}

// toTransferDao converts a transfer.Record to TransferDao.
func toTransferDao(rec *transfer.Record) *TransferDao {
	return &TransferDao{
		ID:               rec.ID,
		TxHash:           rec.TxHash,
		SenderAddress:    rec.SenderAddress,
		RecipientAddress: rec.RecipientAddress,
		SenderUserID:     rec.SenderUserID,
		RecipientUserID:  rec.RecipientUserID,
		Amount:           rec.Amount.String(),
		TokenSymbol:      rec.TokenSymbol,
		TokenAddress:     rec.TokenAddress,
		ChainID:          rec.ChainID,
		Status:           string(rec.Status),
		CreatedAt:        rec.CreatedAt,
		ConfirmedAt:      rec.ConfirmedAt,
	}
}

// toTransfer converts a TransferDao to transfer.Record.
func toTransfer(dao *TransferDao) *transfer.Record {
	amount, err := decimal.NewFromString(dao.Amount)
	if err != nil {
		amount = decimal.Zero
	}
	return &transfer.Record{
		ID:               dao.ID,
		TxHash:           dao.TxHash,
		SenderAddress:    dao.SenderAddress,
		RecipientAddress: dao.RecipientAddress,
		SenderUserID:     dao.SenderUserID,
		RecipientUserID:  dao.RecipientUserID,
		Amount:           amount,
		TokenSymbol:      dao.TokenSymbol,
		TokenAddress:     dao.TokenAddress,
		ChainID:          dao.ChainID,
		Status:           transfer.Status(dao.Status),
		CreatedAt:        dao.CreatedAt,
		ConfirmedAt:      dao.ConfirmedAt,
	}
}

// toWallet converts a PreferredWalletDao to wallet.PreferredWallet.
func toWallet(dao *PreferredWalletDao) *wallet.PreferredWallet {
	return &wallet.PreferredWallet{
		UserID:           dao.UserID,
		ChainID:          dao.ChainID,
		ReceivingAddress: dao.ReceivingAddress,
		UpdatedAt:        dao.UpdatedAt,
	}
}
