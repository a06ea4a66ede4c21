package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/mod/semver"

	"github.com/roach88/drawseq/internal/ir"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - Initial journal schema
const currentSchemaVersion = 1

// ErrIncompatible is returned by Open for a journal written with a wire
// version of a different major version, or with a newer schema.
var ErrIncompatible = errors.New("incompatible journal")

// ErrBatchExists is reported by a Journal when the (session, seq) it tried
// to record is already present.
var ErrBatchExists = errors.New("batch already journaled")

// Store is a SQLite-backed batch journal.
// Uses SQLite with WAL mode for concurrent read access.
type Store struct {
	db          *sql.DB
	wireVersion string
}

// Open creates or opens a journal at the given path.
// Applies required pragmas and the schema automatically.
//
// This function is idempotent - safe to call multiple times.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	version, err := checkWireVersion(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, wireVersion: version}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer using Store methods when available.
func (s *Store) DB() *sql.DB {
	return s.db
}

// WireVersion returns the wire version the journal was created with.
func (s *Store) WireVersion() string {
	return s.wireVersion
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and stamps user_version.
func applySchema(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("%w: schema version %d is newer than %d", ErrIncompatible, version, currentSchemaVersion)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// checkWireVersion records ir.WireVersion in a new journal, or checks that
// an existing journal shares its major version.
func checkWireVersion(db *sql.DB) (string, error) {
	if _, err := db.Exec(`
		INSERT INTO meta (key, value) VALUES ('wire_version', ?)
		ON CONFLICT(key) DO NOTHING
	`, ir.WireVersion); err != nil {
		return "", fmt.Errorf("record wire version: %w", err)
	}

	var stored string
	if err := db.QueryRow(`SELECT value FROM meta WHERE key = 'wire_version'`).Scan(&stored); err != nil {
		return "", fmt.Errorf("read wire version: %w", err)
	}
	if !semver.IsValid(stored) {
		return "", fmt.Errorf("%w: invalid wire version %q", ErrIncompatible, stored)
	}
	if semver.Major(stored) != semver.Major(ir.WireVersion) {
		return "", fmt.Errorf("%w: journal wire version %s, engine speaks %s", ErrIncompatible, stored, ir.WireVersion)
	}
	return stored, nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}

// Query executes a query and returns the resulting rows.
// Callers are responsible for closing the returned rows.
func (s *Store) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, query, args...)
}
