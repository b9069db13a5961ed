// Package reconcile keeps the local deck and the server-held copy
// converging across devices via a heuristic "most progressed wins" merge.
package reconcile

import (
	"github.com/comitanigiacomo/sentsei-srs-engine/internal/core/domain"
)

// Merge combines the local deck with a server snapshot into one converged
// deck. The result is seeded from the server copy; local-only identities are
// appended. When both replicas hold the same identity the winner is decided
// by a deterministic total order: higher reviewCount, then later nextReview,
// then later addedAt, and finally the local candidate. Merge is idempotent:
// merging the result with the same server snapshot changes nothing.
func Merge(local, server domain.Deck) domain.Deck {
	merged := server.Clone()

	for _, item := range local {
		idx := merged.Index(item.Key())
		if idx < 0 {
			merged = append(merged, item.Clone())
			continue
		}
		if wins(item, merged[idx]) {
			merged[idx] = item.Clone()
		}
	}
	return merged
}

// wins reports whether the incoming (local) candidate beats the existing
// (server) one. Ties at every level resolve toward the incoming item.
func wins(incoming, existing *domain.DeckItem) bool {
	if incoming.ReviewCount != existing.ReviewCount {
		return incoming.ReviewCount > existing.ReviewCount
	}
	if !incoming.NextReview.Equal(existing.NextReview) {
		return incoming.NextReview.After(existing.NextReview)
	}
	if !incoming.AddedAt.Equal(existing.AddedAt) {
		return incoming.AddedAt.After(existing.AddedAt)
	}
	return true
}
