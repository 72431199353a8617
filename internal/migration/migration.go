package migration

import (
	"context"

	"gobasket/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner creates the mining run schema. Statements stick to the
// subset of SQL shared by PostgreSQL and SQLite.
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in order. Every step is idempotent.
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createMiningRunsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create mining_runs table")
	}

	if err := r.createMiningItemsetsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create mining_itemsets table")
	}

	if err := r.createMiningRulesTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create mining_rules table")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}

	return nil
}

func (r *MigrationRunner) createMiningRunsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS mining_runs (
			id VARCHAR(64) PRIMARY KEY,
			dataset TEXT NOT NULL,
			fingerprint VARCHAR(64) NOT NULL,
			dimension VARCHAR(255) NOT NULL,
			min_support DOUBLE PRECISION NOT NULL,
			min_confidence DOUBLE PRECISION NOT NULL,
			transactions INTEGER NOT NULL,
			itemset_count INTEGER NOT NULL DEFAULT 0,
			rule_count INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL
		)
	`)
	return err
}

func (r *MigrationRunner) createMiningItemsetsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS mining_itemsets (
			run_id VARCHAR(64) NOT NULL REFERENCES mining_runs(id) ON DELETE CASCADE,
			ordinal INTEGER NOT NULL,
			items TEXT NOT NULL,
			item_count INTEGER NOT NULL,
			frequency INTEGER NOT NULL,
			support DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (run_id, ordinal)
		)
	`)
	return err
}

// Conviction is stored finite; conviction_infinite marks rules with confidence 1.
func (r *MigrationRunner) createMiningRulesTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS mining_rules (
			run_id VARCHAR(64) NOT NULL REFERENCES mining_runs(id) ON DELETE CASCADE,
			ordinal INTEGER NOT NULL,
			antecedent TEXT NOT NULL,
			consequent TEXT NOT NULL,
			antecedent_support DOUBLE PRECISION NOT NULL,
			consequent_support DOUBLE PRECISION NOT NULL,
			support DOUBLE PRECISION NOT NULL,
			confidence DOUBLE PRECISION NOT NULL,
			lift DOUBLE PRECISION NOT NULL,
			leverage DOUBLE PRECISION NOT NULL,
			conviction DOUBLE PRECISION NOT NULL,
			conviction_infinite BOOLEAN NOT NULL DEFAULT FALSE,
			PRIMARY KEY (run_id, ordinal)
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_mining_runs_created_at ON mining_runs(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_mining_runs_fingerprint ON mining_runs(fingerprint, dimension)`,
	}
	for _, stmt := range indexes {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
