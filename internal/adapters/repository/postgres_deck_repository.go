package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/comitanigiacomo/sentsei-srs-engine/internal/core/domain"
	"github.com/jmoiron/sqlx"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const deckDataKey = "srs_deck"

// PostgresDeckRepository stores one serialized deck per user as a single
// JSON blob row, mirroring the single-storage-key model the clients use
// locally.
type PostgresDeckRepository struct {
	db *sqlx.DB
}

func NewPostgresDeckRepository(db *sqlx.DB) *PostgresDeckRepository {
	return &PostgresDeckRepository{db: db}
}

func (r *PostgresDeckRepository) GetDeck(ctx context.Context, userID string) (domain.Deck, error) {
	query := `
        SELECT data_json FROM user_data
        WHERE user_id = $1 AND data_key = $2`

	var payload []byte
	err := r.db.QueryRowContext(ctx, query, userID, deckDataKey).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Deck{}, nil
		}
		return nil, fmt.Errorf("deck query error: %w", err)
	}

	// Malformed entries in a stored payload are dropped, never surfaced.
	return domain.DecodeDeck(payload), nil
}

func (r *PostgresDeckRepository) SaveDeck(ctx context.Context, userID string, deck domain.Deck) error {
	payload, err := domain.EncodeDeck(deck)
	if err != nil {
		return fmt.Errorf("failed to encode deck: %w", err)
	}

	query := `
        INSERT INTO user_data (user_id, data_key, data_json, updated_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (user_id, data_key) DO UPDATE SET
            data_json = EXCLUDED.data_json,
            updated_at = EXCLUDED.updated_at`

	if _, err := r.db.ExecContext(ctx, query, userID, deckDataKey, payload, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to upsert deck: %w", err)
	}
	return nil
}
