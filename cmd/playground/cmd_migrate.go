package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/elee1766/playground/src/storage"
)

// MigrateCmd manages database migrations
type MigrateCmd struct {
	Up     MigrateUpCmd     `cmd:"" default:"1" help:"Run pending migrations"`
	Status MigrateStatusCmd `cmd:"" help:"Show migration status"`
}

// MigrateUpCmd runs pending migrations
type MigrateUpCmd struct{}

// Run executes the migrate up command
func (c *MigrateUpCmd) Run(ctx context.Context, cli *CLI) error {
	db, err := cli.openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	fmt.Printf("Database ready: %s (schema version %d)\n", db.Path(), storage.LatestVersion())
	return nil
}

// MigrateStatusCmd shows migration status
type MigrateStatusCmd struct{}

// Run executes the migrate status command
func (c *MigrateStatusCmd) Run(ctx context.Context, cli *CLI) error {
	db, err := cli.openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	applied, err := db.Migrations(ctx)
	if err != nil {
		return err
	}
	printMigrations(os.Stdout, db.Path(), applied)
	return nil
}

// openDB opens the configured database, which applies pending migrations.
func (cli *CLI) openDB() (*storage.DB, error) {
	cfg, err := cli.loadConfig()
	if err != nil {
		return nil, err
	}
	db, err := storage.Open(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func printMigrations(w io.Writer, path string, applied []storage.AppliedMigration) {
	fmt.Fprintf(w, "Database: %s\n", path)
	fmt.Fprintf(w, "Applied %d of %d migrations\n\n", len(applied), storage.LatestVersion())

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	defer tw.Flush()
	fmt.Fprintln(tw, "Version\tApplied At")
	fmt.Fprintln(tw, "-------\t----------")
	for _, m := range applied {
		fmt.Fprintf(tw, "%d\t%s\n", m.Version, m.AppliedAt)
	}
}
