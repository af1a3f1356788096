package main

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Amanroy9658/collegerp/storage/database"
)

// mockable
var (
	migrateUpFunc   = func(db *sqlx.DB) error { return database.Migrate(db) }
	migrateDownFunc = func(db *sqlx.DB) error { return database.Rollback(db) }
)

func (cli *commandLine) migrate(direction string) error {
	switch direction {
	case "up":
		return migrateUpFunc(cli.db)
	case "down":
		return migrateDownFunc(cli.db)
	default:
		return fmt.Errorf("%q: no such command", direction)
	}
}
