package domain

import "time"

// DueSoonHorizon is how far ahead an item may be scheduled and still count
// as "due soon" in deck statistics.
const DueSoonHorizon = 24 * time.Hour

type DeckStats struct {
	TotalItems      int     `json:"total_items"`
	DueNow          int     `json:"due_now"`
	DueSoon         int     `json:"due_soon"`
	TotalReviews    int     `json:"total_reviews"`
	AvgEaseFactor   float64 `json:"avg_ease_factor"`
	AvgIntervalDays float64 `json:"avg_interval_days"`
}

// ComputeDeckStats aggregates review-scheduling statistics over a deck.
func ComputeDeckStats(deck Deck, now time.Time) DeckStats {
	stats := DeckStats{TotalItems: len(deck)}
	if len(deck) == 0 {
		return stats
	}

	var efSum, intervalDaysSum float64
	for _, item := range deck {
		if !now.Before(item.NextReview) {
			stats.DueNow++
		} else if item.NextReview.Sub(now) <= DueSoonHorizon {
			stats.DueSoon++
		}
		stats.TotalReviews += item.ReviewCount
		efSum += item.EaseFactor
		intervalDaysSum += item.Interval.Hours() / 24
	}

	stats.AvgEaseFactor = efSum / float64(len(deck))
	stats.AvgIntervalDays = intervalDaysSum / float64(len(deck))
	return stats
}
