package workers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/comitanigiacomo/sentsei-srs-engine/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDeckRepo struct {
	decks map[string]domain.Deck
	err   error
}

func (r *stubDeckRepo) GetDeck(ctx context.Context, userID string) (domain.Deck, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.decks[userID], nil
}

type stubStatsCache struct {
	mu     sync.Mutex
	stored map[string]domain.DeckStats
	err    error
}

func newStubStatsCache() *stubStatsCache {
	return &stubStatsCache{stored: make(map[string]domain.DeckStats)}
}

func (c *stubStatsCache) SetDeckStats(ctx context.Context, userID string, stats domain.DeckStats) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.stored[userID] = stats
	return nil
}

func (c *stubStatsCache) get(userID string) (domain.DeckStats, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	stats, ok := c.stored[userID]
	return stats, ok
}

func workerItem(t *testing.T, sentence string, due bool) *domain.DeckItem {
	t.Helper()
	item, err := domain.NewDeckItem(sentence, "translation", "ja", "", time.Now().Add(-48*time.Hour))
	require.NoError(t, err)
	if !due {
		item.NextReview = time.Now().Add(72 * time.Hour)
	}
	return item
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestStatsWorker_RecomputesAndCaches(t *testing.T) {
	repo := &stubDeckRepo{decks: map[string]domain.Deck{
		"user-1": {
			workerItem(t, "due", true),
			workerItem(t, "later", false),
		},
	}}
	cache := newStubStatsCache()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	worker := NewStatsWorker(repo, cache)
	worker.Start(ctx)
	worker.Enqueue("user-1")

	waitFor(t, func() bool {
		_, ok := cache.get("user-1")
		return ok
	})

	stats, _ := cache.get("user-1")
	assert.Equal(t, 2, stats.TotalItems)
	assert.Equal(t, 1, stats.DueNow)
}

func TestStatsWorker_RepoErrorLeavesCacheCold(t *testing.T) {
	repo := &stubDeckRepo{err: errors.New("db down")}
	cache := newStubStatsCache()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	worker := NewStatsWorker(repo, cache)
	worker.Start(ctx)
	worker.Enqueue("user-1")

	time.Sleep(100 * time.Millisecond)
	_, ok := cache.get("user-1")
	assert.False(t, ok)
}

func TestStatsWorker_EnqueueNeverBlocks(t *testing.T) {
	// Worker not started: the buffered queue fills up and further jobs
	// are dropped instead of blocking the caller.
	worker := NewStatsWorker(&stubDeckRepo{}, newStubStatsCache())

	done := make(chan struct{})
	go func() {
		for i := 0; i < 500; i++ {
			worker.Enqueue("user-1")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Enqueue blocked on a full queue")
	}
}
