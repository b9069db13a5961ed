package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/comitanigiacomo/sentsei-srs-engine/internal/adapters/repository"
	"github.com/comitanigiacomo/sentsei-srs-engine/internal/core/domain"
	"github.com/comitanigiacomo/sentsei-srs-engine/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStatsCache struct {
	stored  map[string]domain.DeckStats
	getErr  error
	setErr  error
	gets    int
	sets    int
	missAll bool
}

func newFakeStatsCache() *fakeStatsCache {
	return &fakeStatsCache{stored: make(map[string]domain.DeckStats)}
}

func (c *fakeStatsCache) GetDeckStats(ctx context.Context, userID string) (*domain.DeckStats, error) {
	c.gets++
	if c.getErr != nil {
		return nil, c.getErr
	}
	if c.missAll {
		return nil, nil
	}
	stats, ok := c.stored[userID]
	if !ok {
		return nil, nil
	}
	return &stats, nil
}

func (c *fakeStatsCache) SetDeckStats(ctx context.Context, userID string, stats domain.DeckStats) error {
	c.sets++
	if c.setErr != nil {
		return c.setErr
	}
	c.stored[userID] = stats
	return nil
}

func seedDeck(t *testing.T, repo domain.DeckRepository, userID string, items ...*domain.DeckItem) {
	t.Helper()
	require.NoError(t, repo.SaveDeck(context.Background(), userID, items))
}

func TestStatsService_ComputesFromStoredDeck(t *testing.T) {
	repo := repository.NewInMemoryDeckRepository()

	overdue := newDeckItem(t, "猫", "ja")
	overdue.NextReview = time.Now().Add(-time.Hour)
	overdue.ReviewCount = 3
	upcoming := newDeckItem(t, "犬", "ja")
	upcoming.NextReview = time.Now().Add(100 * 24 * time.Hour)
	seedDeck(t, repo, "user-1", overdue, upcoming)

	svc := services.NewStatsService(repo, nil)
	stats, err := svc.GetDeckStats(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalItems)
	assert.Equal(t, 1, stats.DueNow)
	assert.Equal(t, 3, stats.TotalReviews)
	assert.InDelta(t, 2.5, stats.AvgEaseFactor, 0.001)
}

func TestStatsService_CacheHitSkipsRepository(t *testing.T) {
	repo := repository.NewInMemoryDeckRepository()
	cache := newFakeStatsCache()
	cache.stored["user-1"] = domain.DeckStats{TotalItems: 42}

	svc := services.NewStatsService(repo, cache)
	stats, err := svc.GetDeckStats(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Equal(t, 42, stats.TotalItems)
	assert.Zero(t, cache.sets)
}

func TestStatsService_CacheMissPrimesCache(t *testing.T) {
	repo := repository.NewInMemoryDeckRepository()
	seedDeck(t, repo, "user-1", newDeckItem(t, "猫", "ja"))
	cache := newFakeStatsCache()

	svc := services.NewStatsService(repo, cache)
	stats, err := svc.GetDeckStats(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalItems)
	assert.Equal(t, 1, cache.sets)
	assert.Equal(t, 1, cache.stored["user-1"].TotalItems)
}

func TestStatsService_CacheFailuresDegradeToCompute(t *testing.T) {
	repo := repository.NewInMemoryDeckRepository()
	seedDeck(t, repo, "user-1", newDeckItem(t, "猫", "ja"))
	cache := newFakeStatsCache()
	cache.getErr = errors.New("redis down")
	cache.setErr = errors.New("redis down")

	svc := services.NewStatsService(repo, cache)
	stats, err := svc.GetDeckStats(context.Background(), "user-1")

	require.NoError(t, err, "cache trouble must never surface")
	assert.Equal(t, 1, stats.TotalItems)
}
