package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/comitanigiacomo/sentsei-srs-engine/internal/core/domain"
	"github.com/redis/go-redis/v9"
)

const statsTTL = 30 * time.Minute

// StatsCache holds precomputed per-user deck statistics in redis.
type StatsCache struct {
	rdb *redis.Client
}

func NewStatsCache(rdb *redis.Client) *StatsCache {
	return &StatsCache{rdb: rdb}
}

func (c *StatsCache) key(userID string) string {
	return fmt.Sprintf("deck_stats:%s", userID)
}

// GetDeckStats returns the cached stats for the user, or (nil, nil) on a
// miss. Corrupted entries are dropped and treated as a miss.
func (c *StatsCache) GetDeckStats(ctx context.Context, userID string) (*domain.DeckStats, error) {
	val, err := c.rdb.Get(ctx, c.key(userID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var stats domain.DeckStats
	if err := json.Unmarshal([]byte(val), &stats); err != nil {
		log.Printf("[CACHE] Corrupted stats for user %s, cleaning up key", userID)
		c.rdb.Del(ctx, c.key(userID))
		return nil, nil
	}
	return &stats, nil
}

func (c *StatsCache) SetDeckStats(ctx context.Context, userID string, stats domain.DeckStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.key(userID), data, statsTTL).Err()
}
