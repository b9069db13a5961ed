package domain

import (
	"context"
	"errors"
)

var (
	ErrItemNotFound = errors.New("deck item not found")
	ErrDeckTooLarge = errors.New("deck payload too large")
)

// MaxDeckBytes caps the serialized size of one user's deck.
const MaxDeckBytes = 1_000_000

type UserRepository interface {
	// Create persists a new user account.
	Create(ctx context.Context, user *User) error

	// GetByUsername retrieves a user by their (lowercased) username.
	GetByUsername(ctx context.Context, username string) (*User, error)

	// GetByID retrieves a user by their unique identifier.
	GetByID(ctx context.Context, id string) (*User, error)
}

// DeckRepository stores one deck per user as a single replaceable unit,
// mirroring the single-storage-key model the clients use locally.
type DeckRepository interface {
	// GetDeck returns the user's deck, or an empty deck when none is stored.
	GetDeck(ctx context.Context, userID string) (Deck, error)

	// SaveDeck replaces the user's stored deck in full.
	SaveDeck(ctx context.Context, userID string, deck Deck) error
}
