package workers

import (
	"context"
	"log"
	"time"

	"github.com/comitanigiacomo/sentsei-srs-engine/internal/core/domain"
)

type DeckRepository interface {
	GetDeck(ctx context.Context, userID string) (domain.Deck, error)
}

type StatsCache interface {
	SetDeckStats(ctx context.Context, userID string, stats domain.DeckStats) error
}

type StatsJob struct {
	UserID string
}

// StatsWorker recomputes a user's deck statistics in the background after
// every deck write and primes the cache with the result, so stats reads
// stay off the hot path.
type StatsWorker struct {
	deckRepo DeckRepository
	cache    StatsCache
	jobs     chan StatsJob
}

func NewStatsWorker(deckRepo DeckRepository, cache StatsCache) *StatsWorker {
	return &StatsWorker{
		deckRepo: deckRepo,
		cache:    cache,
		jobs:     make(chan StatsJob, 100),
	}
}

func (w *StatsWorker) Start(ctx context.Context) {
	go func() {
		log.Println("Stats Worker started in background...")
		for {
			select {
			case job := <-w.jobs:
				w.processJob(ctx, job)
			case <-ctx.Done():
				log.Println("Stats Worker shutting down...")
				return
			}
		}
	}()
}

func (w *StatsWorker) Enqueue(userID string) {
	select {
	case w.jobs <- StatsJob{UserID: userID}:
	default:
		log.Printf("Stats Worker queue full! Dropping job for user %s", userID)
	}
}

func (w *StatsWorker) processJob(ctx context.Context, job StatsJob) {
	deck, err := w.deckRepo.GetDeck(ctx, job.UserID)
	if err != nil {
		log.Printf("Worker Error fetching deck for %s: %v", job.UserID, err)
		return
	}

	stats := domain.ComputeDeckStats(deck, time.Now().UTC())

	if err := w.cache.SetDeckStats(ctx, job.UserID, stats); err != nil {
		log.Printf("Worker Failed to cache stats for %s: %v", job.UserID, err)
		return
	}
	log.Printf("Stats refreshed for %s: %d items, %d due", job.UserID, stats.TotalItems, stats.DueNow)
}
