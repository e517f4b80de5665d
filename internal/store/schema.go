package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
)

//go:embed schema.sql
var sqliteSchemaSQL string

//go:embed schema_postgres.sql
var postgresSchemaSQL string

// schemaVersion is the current schema version. Bump this when the schema changes.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

type dialect struct {
	name           string
	schema         string
	tableExists    string
	numberedParams bool
}

var (
	sqliteDialect = dialect{
		name:        "sqlite",
		schema:      sqliteSchemaSQL,
		tableExists: "SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name=?",
	}
	postgresDialect = dialect{
		name:           "postgres",
		schema:         postgresSchemaSQL,
		tableExists:    "SELECT COUNT(1) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = ?",
		numberedParams: true,
	}
)

func (s *Store) initSchema(ctx context.Context) error {
	// A battle database created by the collection scripts has the battle
	// tables but no schema_version; it is upgraded in place.
	var tableExists int
	err := s.db.QueryRowContext(ctx, s.rebind(s.dialect.tableExists), "schema_version").Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	err = s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d",
			ErrSchemaMismatch, version, schemaVersion)
	}

	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, s.dialect.schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	if _, err := tx.ExecContext(ctx, s.rebind("INSERT INTO schema_version (version) VALUES (?)"), schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// SchemaVersion returns the version recorded in the database.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ensureContext(ctx), "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return version, nil
}
