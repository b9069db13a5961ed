package domain

import (
	"encoding/json"
)

// Deck is the set of items a user is reviewing. It is kept as an ordered
// slice for stable persistence, but identity keys are unique within it.
type Deck []*DeckItem

func (d Deck) Clone() Deck {
	if d == nil {
		return nil
	}
	clone := make(Deck, len(d))
	for i, item := range d {
		clone[i] = item.Clone()
	}
	return clone
}

// Find returns the item with the given identity, if present.
func (d Deck) Find(sentence, lang string) (*DeckItem, bool) {
	for _, item := range d {
		if item.Sentence == sentence && item.Lang == lang {
			return item, true
		}
	}
	return nil, false
}

// Index returns the position of the item with the given key, or -1.
func (d Deck) Index(key ItemKey) int {
	for i, item := range d {
		if item.Key() == key {
			return i
		}
	}
	return -1
}

// EncodeDeck serializes a deck to its JSON wire form.
func EncodeDeck(deck Deck) ([]byte, error) {
	if deck == nil {
		deck = Deck{}
	}
	return json.Marshal(deck)
}

// DecodeDeck parses a persisted deck payload. Entries that are not
// well-formed item objects are silently dropped; a payload that is not a
// JSON array at all yields an empty deck. It never fails: a replica whose
// storage has been corrupted degrades to an empty deck rather than an
// error, and duplicate identities keep only the first occurrence.
func DecodeDeck(data []byte) Deck {
	if len(data) == 0 {
		return Deck{}
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Deck{}
	}

	deck := make(Deck, 0, len(raw))
	seen := make(map[ItemKey]bool, len(raw))
	for _, entry := range raw {
		var item DeckItem
		if err := json.Unmarshal(entry, &item); err != nil {
			continue
		}
		if err := item.Validate(); err != nil {
			continue
		}
		if seen[item.Key()] {
			continue
		}
		seen[item.Key()] = true
		deck = append(deck, &item)
	}
	return deck
}
