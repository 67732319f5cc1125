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
		log.Println("creating preferred_wallets table...")
		if err := mghelper.CreateSchema(ctx, db, &transferstore.PreferredWalletDao{}); err != nil {
			return err
		}
		return mghelper.CreateModelIndexes(ctx, db, &transferstore.PreferredWalletDao{},
			"receiving_address")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping preferred_wallets table...")
		return mghelper.DropTables(ctx, db, &transferstore.PreferredWalletDao{})
	})
}
