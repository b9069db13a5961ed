package services

import (
	"context"
	"fmt"
	"time"

	"github.com/comitanigiacomo/sentsei-srs-engine/internal/core/domain"
)

// DeckChangeNotifier is told whenever a user's stored deck changes, so
// derived data (cached statistics) can be recomputed off the request path.
type DeckChangeNotifier interface {
	Enqueue(userID string)
}

// DeckService owns the server-held deck copies, one per user, stored and
// replaced as whole units.
type DeckService struct {
	repo     domain.DeckRepository
	notifier DeckChangeNotifier
}

func NewDeckService(repo domain.DeckRepository, notifier DeckChangeNotifier) *DeckService {
	return &DeckService{
		repo:     repo,
		notifier: notifier,
	}
}

func (s *DeckService) GetDeck(ctx context.Context, userID string) (domain.Deck, error) {
	deck, err := s.repo.GetDeck(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("deck service: fetching deck: %w", err)
	}
	if deck == nil {
		deck = domain.Deck{}
	}
	return deck, nil
}

// ReplaceDeck overwrites the user's stored deck in full.
func (s *DeckService) ReplaceDeck(ctx context.Context, userID string, deck domain.Deck) (int, error) {
	if err := s.save(ctx, userID, deck); err != nil {
		return 0, err
	}
	return len(deck), nil
}

// AddItem upserts one item by identity: a new identity is appended, an
// existing one is overwritten. It reports whether the item was newly added
// and the resulting deck size.
func (s *DeckService) AddItem(ctx context.Context, userID string, item *domain.DeckItem) (bool, int, error) {
	if err := item.Validate(); err != nil {
		return false, 0, err
	}

	deck, err := s.GetDeck(ctx, userID)
	if err != nil {
		return false, 0, err
	}

	added := false
	if idx := deck.Index(item.Key()); idx >= 0 {
		deck[idx] = item.Clone()
	} else {
		deck = append(deck, item.Clone())
		added = true
	}

	if err := s.save(ctx, userID, deck); err != nil {
		return false, 0, err
	}
	return added, len(deck), nil
}

// RemoveItem deletes one item by identity and reports whether a removal
// occurred and the resulting deck size.
func (s *DeckService) RemoveItem(ctx context.Context, userID, sentence, lang string) (bool, int, error) {
	deck, err := s.GetDeck(ctx, userID)
	if err != nil {
		return false, 0, err
	}

	idx := deck.Index(domain.ItemKey{Sentence: sentence, Lang: lang})
	if idx < 0 {
		return false, len(deck), nil
	}
	deck = append(deck[:idx], deck[idx+1:]...)

	if err := s.save(ctx, userID, deck); err != nil {
		return false, 0, err
	}
	return true, len(deck), nil
}

// ReviewInput carries one grading event: the item's identity plus the four
// scheduling fields the client computed.
type ReviewInput struct {
	Sentence    string
	Lang        string
	Interval    time.Duration
	EaseFactor  float64
	NextReview  time.Time
	ReviewCount int
}

// RecordReview overwrites the scheduling fields of one stored item. A
// grading for an identity the server has never seen is an error, not an
// implicit insert.
func (s *DeckService) RecordReview(ctx context.Context, userID string, input ReviewInput) error {
	deck, err := s.GetDeck(ctx, userID)
	if err != nil {
		return err
	}

	target, ok := deck.Find(input.Sentence, input.Lang)
	if !ok {
		return domain.ErrItemNotFound
	}

	target.Interval = input.Interval
	target.EaseFactor = input.EaseFactor
	target.NextReview = input.NextReview
	target.ReviewCount = input.ReviewCount

	// A grading that breaks the item invariants is rejected outright:
	// storing it would make the lenient read path drop the item on every
	// subsequent decode.
	if err := target.Validate(); err != nil {
		return err
	}

	return s.save(ctx, userID, deck)
}

func (s *DeckService) save(ctx context.Context, userID string, deck domain.Deck) error {
	payload, err := domain.EncodeDeck(deck)
	if err != nil {
		return fmt.Errorf("deck service: encoding deck: %w", err)
	}
	if len(payload) > domain.MaxDeckBytes {
		return domain.ErrDeckTooLarge
	}

	if err := s.repo.SaveDeck(ctx, userID, deck); err != nil {
		return fmt.Errorf("deck service: saving deck: %w", err)
	}

	if s.notifier != nil {
		s.notifier.Enqueue(userID)
	}
	return nil
}
