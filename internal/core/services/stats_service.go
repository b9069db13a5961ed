package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/comitanigiacomo/sentsei-srs-engine/internal/core/domain"
)

// StatsCache is a read-through cache of per-user deck statistics. A miss is
// (nil, nil), not an error.
type StatsCache interface {
	GetDeckStats(ctx context.Context, userID string) (*domain.DeckStats, error)
	SetDeckStats(ctx context.Context, userID string, stats domain.DeckStats) error
}

type StatsService struct {
	deckRepo domain.DeckRepository
	cache    StatsCache
}

// NewStatsService creates the stats service. The cache may be nil, in which
// case stats are computed from the stored deck on every call.
func NewStatsService(deckRepo domain.DeckRepository, cache StatsCache) *StatsService {
	return &StatsService{
		deckRepo: deckRepo,
		cache:    cache,
	}
}

func (s *StatsService) GetDeckStats(ctx context.Context, userID string) (*domain.DeckStats, error) {
	if s.cache != nil {
		cached, err := s.cache.GetDeckStats(ctx, userID)
		if err != nil {
			log.Printf("Stats cache read failed for user %s: %v", userID, err)
		} else if cached != nil {
			return cached, nil
		}
	}

	deck, err := s.deckRepo.GetDeck(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("stats service: fetching deck: %w", err)
	}

	stats := domain.ComputeDeckStats(deck, time.Now().UTC())

	if s.cache != nil {
		if err := s.cache.SetDeckStats(ctx, userID, stats); err != nil {
			log.Printf("Stats cache write failed for user %s: %v", userID, err)
		}
	}
	return &stats, nil
}
