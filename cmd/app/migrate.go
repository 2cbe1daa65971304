// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package main

import (
	"context"
	"database/sql"
	"fmt"

	"codeberg.org/walletsurance/nominee/internal/database"
	"github.com/urfave/cli/v3"
)

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Manage the database schema",
		Commands: []*cli.Command{
			{
				Name:   "up",
				Usage:  "Apply all pending migrations",
				Action: migrateAction(database.RunMigrations),
			},
			{
				Name:   "down",
				Usage:  "Roll back the last migration",
				Action: migrateAction(database.MigrateDown),
			},
			{
				Name:   "reset",
				Usage:  "Roll back all migrations",
				Action: migrateAction(database.MigrateReset),
			},
			{
				Name:   "status",
				Usage:  "Print the current schema version",
				Action: migrateAction(func(*sql.DB) error { return nil }),
			},
		},
	}
}

// migrateAction runs fn against the configured database and reports the
// resulting schema version.
func migrateAction(fn func(*sql.DB) error) cli.ActionFunc {
	return func(_ context.Context, cmd *cli.Command) error {
		db, err := database.Connect(cmd.String("database-dsn"))
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer func() {
			_ = db.Close()
		}()

		if err := fn(db.DB); err != nil {
			return err
		}

		version, err := database.MigrationVersion(db.DB)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.Root().Writer, "schema version %d\n", version)
		return err
	}
}
