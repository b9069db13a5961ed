// Package localstore persists the client's deck and session credential in
// a local SQLite file, one opaque payload per storage key.
package localstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // registers the sqlite driver
)

const (
	deckKey  = "srs_deck"
	tokenKey = "session_token"
)

const schema = `
CREATE TABLE IF NOT EXISTS user_data (
	data_key   TEXT PRIMARY KEY,
	data_value BLOB NOT NULL,
	updated_at TIMESTAMP NOT NULL
);`

// DB wraps the local SQLite database. It implements the deck store's
// persistence port and caches the bearer credential for remote calls.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the database at the given path and ensures the
// schema exists.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening local store: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("connecting to local store: %w", err)
	}

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("applying local store schema: %w", err)
	}

	return &DB{conn: conn}, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// LoadDeck returns the persisted deck payload, or nil when nothing has been
// stored yet.
func (db *DB) LoadDeck(ctx context.Context) ([]byte, error) {
	return db.load(ctx, deckKey)
}

// SaveDeck replaces the persisted deck payload.
func (db *DB) SaveDeck(ctx context.Context, data []byte) error {
	return db.save(ctx, deckKey, data)
}

// Token returns the cached session credential, or "" when signed out.
func (db *DB) Token(ctx context.Context) (string, error) {
	data, err := db.load(ctx, tokenKey)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// SaveToken caches the session credential obtained at sign-in.
func (db *DB) SaveToken(ctx context.Context, token string) error {
	return db.save(ctx, tokenKey, []byte(token))
}

// ClearToken drops the cached credential. Deck data is untouched.
func (db *DB) ClearToken(ctx context.Context) error {
	_, err := db.conn.ExecContext(ctx,
		`DELETE FROM user_data WHERE data_key = ?`, tokenKey)
	if err != nil {
		return fmt.Errorf("clearing credential: %w", err)
	}
	return nil
}

func (db *DB) load(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := db.conn.QueryRowContext(ctx,
		`SELECT data_value FROM user_data WHERE data_key = ?`, key).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading %s: %w", key, err)
	}
	return data, nil
}

func (db *DB) save(ctx context.Context, key string, data []byte) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO user_data (data_key, data_value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(data_key) DO UPDATE SET
			data_value = excluded.data_value,
			updated_at = excluded.updated_at`,
		key, data, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("saving %s: %w", key, err)
	}
	return nil
}
