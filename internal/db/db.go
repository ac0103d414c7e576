package db

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	sqlite "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// busyTimeoutMS bounds how long a writer waits on a locked database before
// failing instead of hanging. Post-commit hooks from different repos can race
// on the same file.
const busyTimeoutMS = 5000

// requiredColumns is the shape an existing commits table must have. Extra
// columns are tolerated.
var requiredColumns = []string{
	"commit_hash",
	"timestamp",
	"repo_path",
	"commit_message",
	"author_name",
	"author_email",
	"branch_name",
	"files_changed",
	"created_at",
}

// SchemaError reports a pre-existing commits table with an incompatible shape.
type SchemaError struct {
	Path           string
	MissingColumns []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("database %s has an incompatible commits table: missing columns %s",
		e.Path, strings.Join(e.MissingColumns, ", "))
}

// Open opens (creating if absent) the database at dbPath and ensures the
// schema is in place. The parent directory is created on first use.
func Open(dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	database, err := sql.Open("sqlite3", dbPath+fmt.Sprintf("?_busy_timeout=%d&_journal_mode=WAL", busyTimeoutMS))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection per process; concurrency is between processes, not
	// within one.
	database.SetMaxOpenConns(1)

	if err := checkSchema(database, dbPath); err != nil {
		database.Close()
		return nil, err
	}

	if err := runMigrations(database); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return database, nil
}

// checkSchema verifies that any pre-existing commits table carries the
// columns we write. A database without the table is fine, migrations will
// create it.
func checkSchema(database *sql.DB, dbPath string) error {
	var name string
	err := database.QueryRow(
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'commits'",
	).Scan(&name)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to inspect database: %w", err)
	}

	rows, err := database.Query("PRAGMA table_info(commits)")
	if err != nil {
		return fmt.Errorf("failed to inspect commits table: %w", err)
	}
	defer rows.Close()

	existing := make(map[string]bool)
	for rows.Next() {
		var (
			cid        int
			colName    string
			colType    string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &colName, &colType, &notNull, &defaultVal, &pk); err != nil {
			return fmt.Errorf("failed to inspect commits table: %w", err)
		}
		existing[colName] = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to inspect commits table: %w", err)
	}

	var missing []string
	for _, col := range requiredColumns {
		if !existing[col] {
			missing = append(missing, col)
		}
	}

	if len(missing) > 0 {
		sort.Strings(missing)
		return &SchemaError{Path: dbPath, MissingColumns: missing}
	}

	return nil
}

// runMigrations runs all pending migrations. Post-commit hooks from
// different repos can open a fresh database at the same time; the loser of
// that race sees the winner's in-progress version row (dirty) or a held
// write lock, so those errors are retried until the winner finishes.
func runMigrations(database *sql.DB) error {
	deadline := time.Now().Add(busyTimeoutMS * time.Millisecond)

	for {
		err := migrateUp(database)
		if err == nil {
			return nil
		}
		if !retryableMigrationError(err) || time.Now().After(deadline) {
			return err
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func migrateUp(database *sql.DB) error {
	driver, err := sqlite3.WithInstance(database, &sqlite3.Config{})
	if err != nil {
		return err
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return err
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}

	return nil
}

func retryableMigrationError(err error) bool {
	var dirty migrate.ErrDirty
	if errors.As(err, &dirty) {
		return true
	}

	var sqliteErr sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite.ErrBusy || sqliteErr.Code == sqlite.ErrLocked
	}

	// Lock errors surfaced by the migrate driver lose their type
	return strings.Contains(err.Error(), "database is locked") ||
		strings.Contains(err.Error(), "table is locked")
}
