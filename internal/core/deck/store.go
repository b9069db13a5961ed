// Package deck owns the locally persisted deck. All mutations go through
// the Store, which persists the full deck and notifies subscribers after
// every committed change.
package deck

import (
	"context"
	"sync"
	"time"

	"github.com/comitanigiacomo/sentsei-srs-engine/internal/core/domain"
	"github.com/comitanigiacomo/sentsei-srs-engine/internal/core/srs"
)

// Persistence is the storage port behind the Store: one opaque payload
// under one storage key.
type Persistence interface {
	// LoadDeck returns the raw persisted payload, or nil when nothing has
	// been stored yet.
	LoadDeck(ctx context.Context) ([]byte, error)

	// SaveDeck replaces the persisted payload.
	SaveDeck(ctx context.Context, data []byte) error
}

// Subscriber is invoked synchronously, in registration order, with a
// snapshot of the deck after every persisted mutation.
type Subscriber func(deck domain.Deck)

type Store struct {
	persistence Persistence

	mu    sync.RWMutex
	items domain.Deck
	subs  []Subscriber
}

// Open loads the persisted deck into a new Store. Malformed entries in the
// payload are dropped and a corrupt payload yields an empty deck; only a
// storage-level read failure is surfaced.
func Open(ctx context.Context, p Persistence) (*Store, error) {
	data, err := p.LoadDeck(ctx)
	if err != nil {
		return nil, err
	}

	return &Store{
		persistence: p,
		items:       domain.DecodeDeck(data),
	}, nil
}

func (s *Store) Subscribe(fn Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// Items returns a snapshot of the deck.
func (s *Store) Items() domain.Deck {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items.Clone()
}

func (s *Store) Find(sentence, lang string) (*domain.DeckItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items.Find(sentence, lang)
	if !ok {
		return nil, false
	}
	return item.Clone(), true
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// DueCount returns how many items are due at the given time, for badge
// rendering.
func (s *Store) DueCount(now time.Time) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(srs.DueItems(s.items, now))
}

// Add inserts the item unless one with the same identity already exists;
// a duplicate add is a no-op that neither persists nor notifies. It
// reports whether the item was inserted.
func (s *Store) Add(ctx context.Context, item *domain.DeckItem) (bool, error) {
	if err := item.Validate(); err != nil {
		return false, err
	}

	s.mu.Lock()
	if s.items.Index(item.Key()) >= 0 {
		s.mu.Unlock()
		return false, nil
	}
	next := append(s.items.Clone(), item.Clone())
	if err := s.commit(ctx, next); err != nil {
		return false, err
	}
	return true, nil
}

// Remove deletes the item with the given identity and reports whether a
// removal occurred. Persistence and notification happen only on success.
func (s *Store) Remove(ctx context.Context, sentence, lang string) (bool, error) {
	s.mu.Lock()
	idx := s.items.Index(domain.ItemKey{Sentence: sentence, Lang: lang})
	if idx < 0 {
		s.mu.Unlock()
		return false, nil
	}
	next := s.items.Clone()
	next = append(next[:idx], next[idx+1:]...)
	if err := s.commit(ctx, next); err != nil {
		return false, err
	}
	return true, nil
}

// Update replaces the stored item that shares the given item's identity,
// typically after grading.
func (s *Store) Update(ctx context.Context, item *domain.DeckItem) error {
	if err := item.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	idx := s.items.Index(item.Key())
	if idx < 0 {
		s.mu.Unlock()
		return domain.ErrItemNotFound
	}
	next := s.items.Clone()
	next[idx] = item.Clone()
	return s.commit(ctx, next)
}

// Replace swaps in a whole new deck, used when a reconciled merge result
// becomes the new local truth.
func (s *Store) Replace(ctx context.Context, deck domain.Deck) error {
	for _, item := range deck {
		if err := item.Validate(); err != nil {
			return err
		}
	}

	s.mu.Lock()
	return s.commit(ctx, deck.Clone())
}

// commit persists the candidate deck, then makes it the in-memory state
// and notifies subscribers; on failure the in-memory deck is untouched, so
// memory never runs ahead of disk. It must be entered with the write lock
// held and releases it itself, so that the synchronous subscriber
// callbacks run outside the lock and may read the store freely.
func (s *Store) commit(ctx context.Context, next domain.Deck) error {
	data, err := domain.EncodeDeck(next)
	if err != nil {
		s.mu.Unlock()
		return err
	}

	if err := s.persistence.SaveDeck(ctx, data); err != nil {
		s.mu.Unlock()
		return err
	}

	s.items = next
	snapshot := next.Clone()
	subs := make([]Subscriber, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
	return nil
}
