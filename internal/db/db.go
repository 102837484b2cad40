package db

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/tgienger/apolo/internal/models"
	"github.com/tgienger/apolo/internal/realtime"
)

//go:embed schema.sql
var schema string

var (
	// ErrNotFound is returned when a row does not exist
	ErrNotFound = errors.New("not found")
	// ErrAlreadyMember is returned when a user joins a project twice
	ErrAlreadyMember = models.ErrAlreadyMember
)

// DB wraps the database connection. Every write is published on the hub so
// subscribers see the change as a row event.
type DB struct {
	*sql.DB
	hub *realtime.Hub
}

// Open opens (creating if needed) the database at path and initializes the
// schema. A nil hub gets a private one.
func Open(path string, hub *realtime.Hub) (*DB, error) {
	if path == "" {
		return nil, errors.New("database path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	if hub == nil {
		hub = realtime.New(0)
	}
	return &DB{DB: conn, hub: hub}, nil
}

// Hub returns the change feed writes are published on
func (db *DB) Hub() *realtime.Hub {
	return db.hub
}

// Subscribe listens for row changes on table
func (db *DB) Subscribe(table string, filter realtime.Filter, fn func(realtime.Event)) func() {
	return db.hub.Subscribe(table, filter, fn)
}

func (db *DB) publish(table string, op realtime.Op, id string, cols map[string]string) {
	db.hub.Publish(realtime.Event{Table: table, Op: op, ID: id, Columns: cols, At: time.Now()})
}

// GetSetting retrieves a setting value by key
func (db *DB) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// SetSetting sets a setting value
func (db *DB) SetSetting(ctx context.Context, key, value string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// inTx runs fn inside a transaction, rolling back when it fails
func (db *DB) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func affected(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func isPrimaryKeyViolation(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func now() time.Time {
	return time.Now().UTC()
}
