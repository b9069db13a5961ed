package repository

import (
	"context"
	"sync"

	"github.com/comitanigiacomo/sentsei-srs-engine/internal/core/domain"
)

type InMemoryDeckRepository struct {
	store map[string]domain.Deck

	mu sync.RWMutex
}

func NewInMemoryDeckRepository() *InMemoryDeckRepository {
	return &InMemoryDeckRepository{
		store: make(map[string]domain.Deck),
	}
}

func (r *InMemoryDeckRepository) GetDeck(ctx context.Context, userID string) (domain.Deck, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	deck, ok := r.store[userID]
	if !ok {
		return domain.Deck{}, nil
	}
	return deck.Clone(), nil
}

func (r *InMemoryDeckRepository) SaveDeck(ctx context.Context, userID string, deck domain.Deck) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.store[userID] = deck.Clone()
	return nil
}

type InMemoryUserRepository struct {
	store map[string]*domain.User

	mu sync.RWMutex
}

func NewInMemoryUserRepository() *InMemoryUserRepository {
	return &InMemoryUserRepository{
		store: make(map[string]*domain.User),
	}
}

func (r *InMemoryUserRepository) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.store {
		if existing.Username == user.Username {
			return domain.ErrUsernameAlreadyExists
		}
	}
	r.store[user.ID] = user
	return nil
}

func (r *InMemoryUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.store {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *InMemoryUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.store[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}
