// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"codeberg.org/oliverandrich/godfactor/internal/config"
	"codeberg.org/oliverandrich/godfactor/internal/database"
	"codeberg.org/oliverandrich/godfactor/internal/server"
	"github.com/urfave/cli/v3"
	"github.com/vinovest/sqlx"
)

// Version information (set via ldflags during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	cmd := &cli.Command{
		Name:    "godfactor",
		Usage:   "Start the GodFactor API server",
		Version: fmt.Sprintf("%s (built %s)", Version, BuildTime),
		Flags:   config.Flags(),
		Action:  server.Run,
		Commands: []*cli.Command{
			migrateCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

// migrateCommand manages the schema. Every subcommand prints the resulting
// schema version.
func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Manage the database schema",
		Commands: []*cli.Command{
			{
				Name:  "up",
				Usage: "Apply all pending migrations",
				Action: withDB(func(db *sqlx.DB) error {
					return database.RunMigrations(db.DB)
				}),
			},
			{
				Name:  "down",
				Usage: "Roll back the last migration",
				Action: withDB(func(db *sqlx.DB) error {
					return database.MigrateDown(db.DB)
				}),
			},
			{
				Name:  "reset",
				Usage: "Roll back all migrations",
				Action: withDB(func(db *sqlx.DB) error {
					return database.MigrateReset(db.DB)
				}),
			},
			{
				Name:   "status",
				Usage:  "Print the current schema version",
				Action: withDB(func(*sqlx.DB) error { return nil }),
			},
		},
	}
}

func withDB(fn func(db *sqlx.DB) error) cli.ActionFunc {
	return func(_ context.Context, cmd *cli.Command) error {
		cfg := config.NewFromCLI(cmd)

		db, err := database.Connect(cfg.Database.DSN)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close() //nolint:errcheck // best effort on exit

		if err := fn(db); err != nil {
			return err
		}

		version, err := database.MigrationVersion(db.DB)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.Root().Writer, "schema version %d\n", version)
		return nil
	}
}
