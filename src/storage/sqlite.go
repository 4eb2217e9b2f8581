// Package storage keeps client-side state in a local sqlite database.
package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/georgysavva/scany/v2/sqlscan"
	_ "modernc.org/sqlite"
)

//go:embed migrations/sqlite/001_client_state.sql
var clientStateSchema string

//go:embed migrations/sqlite/002_outbox.sql
var outboxSchema string

type migration struct {
	version int
	name    string
	sql     string
}

var migrations = []migration{
	{1, "client_state", extractUpMigration(clientStateSchema)},
	{2, "outbox", extractUpMigration(outboxSchema)},
}

type DB struct {
	path string
	db   *sql.DB
}

// Open opens the database at path, creating parent directories, and applies
// pending migrations. ":memory:" is accepted for tests.
func Open(path string) (*DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// sqlite allows one writer; a single connection also keeps :memory: shared
	db.SetMaxOpenConns(1)

	store := &DB{path: path, db: db}

	// Run migrations
	if err := store.runMigrations(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

func (d *DB) DB() *sql.DB {
	return d.db
}

func (d *DB) Path() string {
	return d.path
}

func (d *DB) Close() error {
	return d.db.Close()
}

// AppliedMigration is one row of schema_migrations.
type AppliedMigration struct {
	Version   int    `db:"version"`
	AppliedAt string `db:"applied_at"`
}

// Migrations lists applied schema versions.
func (d *DB) Migrations(ctx context.Context) ([]AppliedMigration, error) {
	var out []AppliedMigration
	query := `SELECT version, CAST(applied_at AS TEXT) AS applied_at FROM schema_migrations ORDER BY version`
	if err := sqlscan.Select(ctx, d.db, &out, query); err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}
	return out, nil
}

// LatestVersion returns the newest schema version this build knows.
func LatestVersion() int {
	return migrations[len(migrations)-1].version
}

// runMigrations runs database migrations
func (d *DB) runMigrations(ctx context.Context) error {
	// Create migrations table if it doesn't exist
	createMigrationsTable := `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`

	if _, err := d.db.ExecContext(ctx, createMigrationsTable); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := d.Migrations(ctx)
	if err != nil {
		return err
	}
	appliedVersions := make([]int, 0, len(applied))
	for _, m := range applied {
		appliedVersions = append(appliedVersions, m.Version)
	}

	// Apply pending migrations
	for _, m := range migrations {
		if slices.Contains(appliedVersions, m.version) {
			continue
		}
		if err := d.apply(ctx, m); err != nil {
			return err
		}
	}

	return nil
}

func (d *DB) apply(ctx context.Context, m migration) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, m.sql); err != nil {
		return fmt.Errorf("failed to execute migration %d (%s): %w", m.version, m.name, err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (?)", m.version); err != nil {
		return fmt.Errorf("failed to record migration %d: %w", m.version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %d: %w", m.version, err)
	}
	return nil
}

// extractUpMigration extracts the UP migration from goose format
func extractUpMigration(content string) string {
	lines := strings.Split(content, "\n")
	var upMigration []string
	inUp := false
	inStatement := false

	for _, line := range lines {
		if strings.Contains(line, "-- +goose Up") {
			inUp = true
			continue
		}
		if strings.Contains(line, "-- +goose Down") {
			break
		}
		if strings.Contains(line, "-- +goose StatementBegin") {
			inStatement = true
			continue
		}
		if strings.Contains(line, "-- +goose StatementEnd") {
			inStatement = false
			continue
		}
		if inUp && inStatement {
			upMigration = append(upMigration, line)
		}
	}

	return strings.Join(upMigration, "\n")
}
