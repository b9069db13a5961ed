package repository

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"

	_ "github.com/jackc/pgx/v5/stdlib"
)

var (
	pgOnce sync.Once
	pgDB   *sqlx.DB
	pgErr  error
)

const testSchema = `
CREATE TABLE IF NOT EXISTS users (
    id            UUID PRIMARY KEY,
    username      TEXT UNIQUE NOT NULL,
    password_hash TEXT NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL,
    updated_at    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS user_data (
    user_id    UUID NOT NULL,
    data_key   TEXT NOT NULL,
    data_json  JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (user_id, data_key)
);
`

func pgEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// setupTestDB connects once per test binary and skips the calling test when
// no database is reachable, so the suite stays green on machines without
// the compose stack running.
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	pgOnce.Do(func() {
		dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
			pgEnv("DB_USER", "sentsei_user"),
			pgEnv("DB_PASSWORD", "secret"),
			pgEnv("DB_HOST", "localhost"),
			pgEnv("DB_PORT", "5432"),
			pgEnv("DB_NAME", "sentsei_db"),
		)

		pgDB, pgErr = sqlx.Connect("pgx", dsn)
		if pgErr != nil {
			return
		}
		_, pgErr = pgDB.ExecContext(context.Background(), testSchema)
	})

	if pgErr != nil {
		t.Skipf("Skipping integration test (Postgres unavailable): %v", pgErr)
	}
	return pgDB
}
