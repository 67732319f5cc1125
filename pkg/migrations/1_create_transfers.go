package migrations

import (
	"context"
	"log"

	"github.com/uptrace/bun"

	mghelper "github.com/payflow-labs/payflow/pkg/pgutil/migrations"
	"github.com/payflow-labs/payflow/pkg/transferstore"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		log.Println("creating transfers table...")
		if err := mghelper.CreateSchema(ctx, db, &transferstore.TransferDao{}); err != nil {
			return err
		}
		// Uniqueness applies only to rows with a chain-assigned hash; rows
		// awaiting one keep the empty-string default and may repeat.
		_, err := db.ExecContext(ctx,
			"CREATE UNIQUE INDEX IF NOT EXISTS transfers_tx_hash_uq ON transfers (tx_hash) WHERE tx_hash <> ''")
		if err != nil {
			return err
		}
		return mghelper.CreateModelIndexes(ctx, db, &transferstore.TransferDao{},
			"status", "sender_address", "recipient_address", "created_at")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping transfers table...")
		return mghelper.DropTables(ctx, db, &transferstore.TransferDao{})
	})
}
