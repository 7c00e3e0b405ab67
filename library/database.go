package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Database is the SQLite-backed SessionStore. The token lives in a single
// row of the session table keyed by SessionSlot.
type Database struct {
	db *sql.DB

	setTokenStmt   *sql.Stmt
	getTokenStmt   *sql.Stmt
	clearTokenStmt *sql.Stmt
}

// NewDatabase opens (or creates) the SQLite database at dbPath, applies schema
// migrations, and prepares common statements.
func NewDatabase(dbPath string) (*Database, error) {
	// Ensure directory exists so first-run succeeds.
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	database := &Database{db: db}
	if err := database.prepareStatements(); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

// Close releases prepared statements and closes the DB.
func (d *Database) Close() error {
	for _, stmt := range []*sql.Stmt{d.setTokenStmt, d.getTokenStmt, d.clearTokenStmt} {
		if stmt != nil {
			stmt.Close()
		}
	}
	return d.db.Close()
}

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 1

func applyMigrations(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("enable WAL: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return err
	}

	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS session (
            slot TEXT PRIMARY KEY,
            token TEXT NOT NULL,
            updated_at DATETIME NOT NULL
        );`,
		`INSERT INTO meta(key,value) VALUES('schema_version',?)
            ON CONFLICT(key) DO UPDATE SET value=excluded.value;`,
	}

	for i, stmt := range stmts {
		var args []any
		if i == len(stmts)-1 {
			args = append(args, schemaVersion)
		}
		if _, err := tx.Exec(stmt, args...); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}

	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Prepared statements
// ---------------------------------------------------------------------------

func (d *Database) prepareStatements() error {
	var err error
	if d.setTokenStmt, err = d.db.Prepare(`INSERT INTO session(slot,token,updated_at) VALUES(?,?,?)
        ON CONFLICT(slot) DO UPDATE SET token=excluded.token, updated_at=excluded.updated_at`); err != nil {
		return err
	}
	if d.getTokenStmt, err = d.db.Prepare(`SELECT token FROM session WHERE slot=?`); err != nil {
		return err
	}
	if d.clearTokenStmt, err = d.db.Prepare(`DELETE FROM session WHERE slot=?`); err != nil {
		return err
	}
	return nil
}

// ---------------------------------------------------------------------------
// SessionStore
// ---------------------------------------------------------------------------

// SetToken overwrites the stored token. An empty token clears the slot.
func (d *Database) SetToken(ctx context.Context, token string) error {
	if token == "" {
		return d.ClearToken(ctx)
	}
	if _, err := d.setTokenStmt.ExecContext(ctx, SessionSlot, token, time.Now().UTC()); err != nil {
		return &StorageError{Op: "write", Err: err}
	}
	return nil
}

func (d *Database) GetToken(ctx context.Context) (string, error) {
	var token string
	err := d.getTokenStmt.QueryRowContext(ctx, SessionSlot).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && token == "") {
		return "", ErrNoToken
	}
	if err != nil {
		return "", &StorageError{Op: "read", Err: err}
	}
	return token, nil
}

func (d *Database) ClearToken(ctx context.Context) error {
	if _, err := d.clearTokenStmt.ExecContext(ctx, SessionSlot); err != nil {
		return &StorageError{Op: "clear", Err: err}
	}
	return nil
}

// UpdatedAt reports when the token was last written. The zero time means
// the slot is empty.
func (d *Database) UpdatedAt(ctx context.Context) (time.Time, error) {
	var ts time.Time
	err := d.db.QueryRowContext(ctx, `SELECT updated_at FROM session WHERE slot=?`, SessionSlot).Scan(&ts)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, &StorageError{Op: "read", Err: err}
	}
	return ts, nil
}
