package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

var (
	ErrSentenceEmpty       = errors.New("sentence cannot be empty")
	ErrTranslationEmpty    = errors.New("translation cannot be empty")
	ErrLangEmpty           = errors.New("language code cannot be empty")
	ErrInvalidInterval     = errors.New("interval must be positive")
	ErrInvalidEaseFactor   = errors.New("ease factor below minimum")
	ErrNegativeReviewCount = errors.New("review count cannot be negative")
)

const (
	// MinEaseFactor is the floor below which an item's ease factor never drops.
	MinEaseFactor = 1.3

	// DefaultEaseFactor is assigned to newly learned items.
	DefaultEaseFactor = 2.5

	// InitialInterval is the first review interval for a new item.
	InitialInterval = 24 * time.Hour
)

// DeckItem is one learned sentence/translation pair tracked for review.
type DeckItem struct {
	Sentence      string
	Translation   string
	Lang          string
	Pronunciation string
	AddedAt       time.Time
	NextReview    time.Time
	Interval      time.Duration
	EaseFactor    float64
	ReviewCount   int
}

// ItemKey identifies a deck item. A deck never holds two items with the
// same key.
type ItemKey struct {
	Sentence string
	Lang     string
}

func NewDeckItem(sentence, translation, lang, pronunciation string, now time.Time) (*DeckItem, error) {
	sentence = strings.TrimSpace(sentence)
	translation = strings.TrimSpace(translation)
	lang = strings.TrimSpace(lang)

	if sentence == "" {
		return nil, ErrSentenceEmpty
	}
	if translation == "" {
		return nil, ErrTranslationEmpty
	}
	if lang == "" {
		return nil, ErrLangEmpty
	}

	now = now.UTC()
	return &DeckItem{
		Sentence:      sentence,
		Translation:   translation,
		Lang:          lang,
		Pronunciation: strings.TrimSpace(pronunciation),
		AddedAt:       now,
		NextReview:    now.Add(InitialInterval),
		Interval:      InitialInterval,
		EaseFactor:    DefaultEaseFactor,
		ReviewCount:   0,
	}, nil
}

func (i *DeckItem) Key() ItemKey {
	return ItemKey{Sentence: i.Sentence, Lang: i.Lang}
}

func (i *DeckItem) Clone() *DeckItem {
	clone := *i
	return &clone
}

func (i *DeckItem) Validate() error {
	if strings.TrimSpace(i.Sentence) == "" {
		return ErrSentenceEmpty
	}
	if strings.TrimSpace(i.Translation) == "" {
		return ErrTranslationEmpty
	}
	if strings.TrimSpace(i.Lang) == "" {
		return ErrLangEmpty
	}
	if i.Interval <= 0 {
		return ErrInvalidInterval
	}
	if i.EaseFactor < MinEaseFactor {
		return ErrInvalidEaseFactor
	}
	if i.ReviewCount < 0 {
		return ErrNegativeReviewCount
	}
	return nil
}

// deckItemJSON is the wire form shared with the deck API: timestamps are
// epoch milliseconds and the interval is a millisecond count.
type deckItemJSON struct {
	Sentence      string  `json:"sentence"`
	Translation   string  `json:"translation"`
	Lang          string  `json:"lang"`
	Pronunciation string  `json:"pronunciation,omitempty"`
	AddedAt       float64 `json:"addedAt"`
	NextReview    float64 `json:"nextReview"`
	Interval      float64 `json:"interval"`
	EaseFactor    float64 `json:"easeFactor"`
	ReviewCount   int     `json:"reviewCount"`
}

func (i DeckItem) MarshalJSON() ([]byte, error) {
	return json.Marshal(deckItemJSON{
		Sentence:      i.Sentence,
		Translation:   i.Translation,
		Lang:          i.Lang,
		Pronunciation: i.Pronunciation,
		AddedAt:       float64(i.AddedAt.UnixMilli()),
		NextReview:    float64(i.NextReview.UnixMilli()),
		Interval:      float64(i.Interval.Milliseconds()),
		EaseFactor:    i.EaseFactor,
		ReviewCount:   i.ReviewCount,
	})
}

func (i *DeckItem) UnmarshalJSON(data []byte) error {
	var wire deckItemJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	i.Sentence = wire.Sentence
	i.Translation = wire.Translation
	i.Lang = wire.Lang
	i.Pronunciation = wire.Pronunciation
	i.AddedAt = time.UnixMilli(int64(wire.AddedAt)).UTC()
	i.NextReview = time.UnixMilli(int64(wire.NextReview)).UTC()
	i.Interval = time.Duration(wire.Interval) * time.Millisecond
	i.EaseFactor = wire.EaseFactor
	i.ReviewCount = wire.ReviewCount
	return nil
}
