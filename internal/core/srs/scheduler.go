// Package srs implements the ease-factor interval scheduler that decides
// when a deck item comes up for review again.
package srs

import (
	"math"
	"time"

	"github.com/comitanigiacomo/sentsei-srs-engine/internal/core/domain"
)

const (
	// FirstInterval is used after the first successful review and after
	// every failed one.
	FirstInterval = 24 * time.Hour

	// SecondInterval is the calibration interval after the second
	// consecutive success, before ease-factor growth takes over.
	SecondInterval = 3 * 24 * time.Hour

	easeBonus   = 0.1
	easePenalty = 0.2
)

// Grade applies one review outcome to an item in place.
//
// The first two successes use fixed next-day and three-day intervals; from
// the third success on the interval grows by the item's ease factor. A miss
// resets the consecutive-correct counter and the interval, and lowers the
// ease factor toward its floor.
func Grade(item *domain.DeckItem, correct bool, now time.Time) {
	if correct {
		switch {
		case item.ReviewCount == 0:
			item.Interval = FirstInterval
		case item.ReviewCount == 1:
			item.Interval = SecondInterval
		default:
			item.Interval = time.Duration(math.Round(float64(item.Interval) * item.EaseFactor))
		}
		item.EaseFactor += easeBonus
		item.ReviewCount++
	} else {
		item.Interval = FirstInterval
		item.ReviewCount = 0
		item.EaseFactor = math.Max(domain.MinEaseFactor, item.EaseFactor-easePenalty)
	}

	item.NextReview = now.UTC().Add(item.Interval)
}

// IsDue reports whether the item's next review time has passed.
func IsDue(item *domain.DeckItem, now time.Time) bool {
	return !now.Before(item.NextReview)
}

// DueItems returns the items due for review at the given time.
func DueItems(deck domain.Deck, now time.Time) domain.Deck {
	var due domain.Deck
	for _, item := range deck {
		if IsDue(item, now) {
			due = append(due, item)
		}
	}
	return due
}

// NextDue returns the earliest next-review time across the deck. The second
// return is false when the deck is empty.
func NextDue(deck domain.Deck) (time.Time, bool) {
	if len(deck) == 0 {
		return time.Time{}, false
	}

	earliest := deck[0].NextReview
	for _, item := range deck[1:] {
		if item.NextReview.Before(earliest) {
			earliest = item.NextReview
		}
	}
	return earliest, true
}
