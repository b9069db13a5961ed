package repository

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/comitanigiacomo/sentsei-srs-engine/internal/core/domain"
	"github.com/redis/go-redis/v9"
)

var _ domain.DeckRepository = (*CachedDeckRepository)(nil)

// CachedDeckRepository is a read-through redis decorator over another deck
// repository. Cache failures degrade to the underlying store.
type CachedDeckRepository struct {
	next  domain.DeckRepository
	cache *redis.Client
}

func NewCachedDeckRepository(next domain.DeckRepository, cache *redis.Client) *CachedDeckRepository {
	return &CachedDeckRepository{
		next:  next,
		cache: cache,
	}
}

func (r *CachedDeckRepository) cacheKey(userID string) string {
	return fmt.Sprintf("deck:%s", userID)
}

func (r *CachedDeckRepository) invalidate(ctx context.Context, userID string) {
	if err := r.cache.Del(ctx, r.cacheKey(userID)).Err(); err != nil {
		log.Printf("[CACHE] Failed to invalidate deck for user %s: %v", userID, err)
	}
}

func (r *CachedDeckRepository) GetDeck(ctx context.Context, userID string) (domain.Deck, error) {
	key := r.cacheKey(userID)

	val, err := r.cache.Get(ctx, key).Result()
	if err == nil {
		// The cached payload goes through the same lenient decode as
		// persisted state; an empty result may just mean an empty deck.
		return domain.DecodeDeck([]byte(val)), nil
	} else if err != redis.Nil {
		log.Printf("[CACHE] Redis read error: %v", err)
	}

	deck, err := r.next.GetDeck(ctx, userID)
	if err != nil {
		return nil, err
	}

	if data, err := domain.EncodeDeck(deck); err == nil {
		if setErr := r.cache.Set(ctx, key, data, 30*time.Minute).Err(); setErr != nil {
			log.Printf("[CACHE] Redis set error: %v", setErr)
		}
	}

	return deck, nil
}

func (r *CachedDeckRepository) SaveDeck(ctx context.Context, userID string, deck domain.Deck) error {
	if err := r.next.SaveDeck(ctx, userID, deck); err != nil {
		return err
	}
	r.invalidate(ctx, userID)
	return nil
}
