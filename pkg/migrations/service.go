// Package migrations holds all the migrations for the payment database
package migrations

import (
	"github.com/uptrace/bun/migrate"
)

// Migrations is the collection of all migrations for the payment database
var Migrations = migrate.NewMigrations()
