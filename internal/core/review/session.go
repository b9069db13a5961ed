// Package review drives interactive review sessions over the deck: one
// question at a time in single mode, a capped shuffled queue in batch mode.
package review

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/comitanigiacomo/sentsei-srs-engine/internal/core/domain"
	"github.com/comitanigiacomo/sentsei-srs-engine/internal/core/srs"
)

var (
	ErrNoActiveQuestion = errors.New("no question is being presented")
	ErrInvalidChoice    = errors.New("choice index out of range")
)

type State int

const (
	StateIdle State = iota
	StatePresenting
	StateAnswered
	StateComplete
	StateSummary
)

type Mode int

const (
	ModeSingle Mode = iota
	ModeBatch
)

// Direction determines which side of the pair is shown as the prompt.
type Direction int

const (
	// AskTranslation shows the source sentence and asks for its translation.
	AskTranslation Direction = iota
	// AskSentence shows the translation and asks for the source sentence.
	AskSentence
)

const (
	// BatchSize caps how many due items one batch session draws.
	BatchSize = 10

	maxDistractors = 3
)

type Question struct {
	Item      *domain.DeckItem
	Direction Direction
	Prompt    string
	Choices   []string

	correct int
}

// Outcome describes one answered question. Exactly one grading has been
// committed by the time an Outcome is returned.
type Outcome struct {
	Correct       bool
	CorrectIndex  int
	CorrectAnswer string
	Elapsed       time.Duration
}

type Summary struct {
	Total       int
	Correct     int
	Accuracy    int
	AverageTime time.Duration
	BestStreak  int
	Grade       string
}

// Store is what the session needs from the deck store.
type Store interface {
	Items() domain.Deck
	Update(ctx context.Context, item *domain.DeckItem) error
}

// Mirror receives committed gradings for opportunistic remote sync. It
// must never fail the caller.
type Mirror interface {
	MirrorReview(ctx context.Context, item *domain.DeckItem)
}

// Session is a single-owner state machine; starting a new question always
// replaces the previous one, so at most one question is ever in flight.
type Session struct {
	store  Store
	mirror Mirror
	rng    *rand.Rand
	now    func() time.Time

	state   State
	mode    Mode
	queue   domain.Deck
	current *Question

	cardStart  time.Time
	answered   int
	correct    int
	streak     int
	bestStreak int
	totalTime  time.Duration

	emptyDeck bool
	nextDueIn time.Duration
}

// NewSession creates an idle session. The mirror may be nil for offline
// review; rng and now are injectable so sessions replay deterministically
// under test, and default to the usual sources when nil.
func NewSession(store Store, mirror Mirror, rng *rand.Rand, now func() time.Time) *Session {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if now == nil {
		now = time.Now
	}
	return &Session{
		store:  store,
		mirror: mirror,
		rng:    rng,
		now:    now,
		state:  StateIdle,
	}
}

func (s *Session) State() State { return s.state }
func (s *Session) Mode() Mode   { return s.mode }

// Question returns the question being presented, or nil.
func (s *Session) Question() *Question {
	if s.state != StatePresenting && s.state != StateAnswered {
		return nil
	}
	return s.current
}

// StartSingle begins a single-item session. With nothing due it goes
// straight to Complete; see EmptyDeck and NextDueIn for what to display.
func (s *Session) StartSingle(ctx context.Context) State {
	s.reset()
	s.mode = ModeSingle

	due := srs.DueItems(s.store.Items(), s.now())
	if len(due) == 0 {
		return s.complete()
	}
	return s.present(due[s.rng.Intn(len(due))])
}

// StartBatch begins a batch session over at most BatchSize shuffled due
// items.
func (s *Session) StartBatch(ctx context.Context) State {
	s.reset()
	s.mode = ModeBatch

	due := srs.DueItems(s.store.Items(), s.now())
	if len(due) == 0 {
		return s.complete()
	}

	s.rng.Shuffle(len(due), func(i, j int) { due[i], due[j] = due[j], due[i] })
	if len(due) > BatchSize {
		due = due[:BatchSize]
	}
	s.queue = due[1:]
	return s.present(due[0])
}

// Answer commits the user's single choice: choices lock, the target item
// is graded exactly once, and the grading is persisted and mirrored.
func (s *Session) Answer(ctx context.Context, choice int) (*Outcome, error) {
	if s.state != StatePresenting || s.current == nil {
		return nil, ErrNoActiveQuestion
	}
	if choice < 0 || choice >= len(s.current.Choices) {
		return nil, ErrInvalidChoice
	}

	s.state = StateAnswered
	now := s.now()
	elapsed := now.Sub(s.cardStart)
	correct := choice == s.current.correct

	s.answered++
	s.totalTime += elapsed
	if correct {
		s.correct++
		s.streak++
		if s.streak > s.bestStreak {
			s.bestStreak = s.streak
		}
	} else {
		s.streak = 0
	}

	item := s.current.Item
	srs.Grade(item, correct, now)
	if err := s.store.Update(ctx, item); err != nil {
		return nil, err
	}
	if s.mirror != nil {
		s.mirror.MirrorReview(ctx, item)
	}

	return &Outcome{
		Correct:       correct,
		CorrectIndex:  s.current.correct,
		CorrectAnswer: s.current.Choices[s.current.correct],
		Elapsed:       elapsed,
	}, nil
}

// Next advances past an answered question: to the next due item, to
// Complete when nothing is due anymore, or to Summary at the end of a
// batch queue. Called in any other state it changes nothing.
func (s *Session) Next(ctx context.Context) State {
	if s.state != StateAnswered {
		return s.state
	}

	if s.mode == ModeBatch {
		if len(s.queue) == 0 {
			s.current = nil
			s.state = StateSummary
			return s.state
		}
		next := s.queue[0]
		s.queue = s.queue[1:]
		return s.present(next)
	}

	due := srs.DueItems(s.store.Items(), s.now())
	if len(due) == 0 {
		return s.complete()
	}
	return s.present(due[s.rng.Intn(len(due))])
}

// Summary reports batch results once the queue is exhausted.
func (s *Session) Summary() *Summary {
	if s.state != StateSummary {
		return nil
	}

	accuracy := 0
	avg := time.Duration(0)
	if s.answered > 0 {
		accuracy = int(math.Round(100 * float64(s.correct) / float64(s.answered)))
		avg = s.totalTime / time.Duration(s.answered)
	}

	return &Summary{
		Total:       s.answered,
		Correct:     s.correct,
		Accuracy:    accuracy,
		AverageTime: avg,
		BestStreak:  s.bestStreak,
		Grade:       gradeBand(accuracy),
	}
}

// EmptyDeck reports, in the Complete state, whether the deck has no items
// at all (as opposed to none currently due).
func (s *Session) EmptyDeck() bool { return s.emptyDeck }

// NextDueIn reports, in the Complete state, how long until the earliest
// upcoming review.
func (s *Session) NextDueIn() time.Duration { return s.nextDueIn }

// Exit abandons the session from any state. An unanswered question is
// discarded without grading; gradings already committed stay committed.
func (s *Session) Exit() {
	s.reset()
}

func (s *Session) reset() {
	s.state = StateIdle
	s.queue = nil
	s.current = nil
	s.answered = 0
	s.correct = 0
	s.streak = 0
	s.bestStreak = 0
	s.totalTime = 0
	s.emptyDeck = false
	s.nextDueIn = 0
}

func (s *Session) complete() State {
	s.current = nil
	s.state = StateComplete

	deck := s.store.Items()
	if next, ok := srs.NextDue(deck); ok {
		s.nextDueIn = next.Sub(s.now())
	} else {
		s.emptyDeck = true
	}
	return s.state
}

func (s *Session) present(item *domain.DeckItem) State {
	direction := AskTranslation
	if s.rng.Intn(2) == 1 {
		direction = AskSentence
	}

	answer := func(i *domain.DeckItem) string {
		if direction == AskTranslation {
			return i.Translation
		}
		return i.Sentence
	}

	// Distractors come from other items in the same target language,
	// sampled without replacement.
	var candidates domain.Deck
	for _, other := range s.store.Items() {
		if other.Key() != item.Key() && other.Lang == item.Lang {
			candidates = append(candidates, other)
		}
	}
	s.rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	if len(candidates) > maxDistractors {
		candidates = candidates[:maxDistractors]
	}

	choices := make([]string, 0, len(candidates)+1)
	choices = append(choices, answer(item))
	for _, c := range candidates {
		choices = append(choices, answer(c))
	}
	correct := 0
	s.rng.Shuffle(len(choices), func(i, j int) {
		choices[i], choices[j] = choices[j], choices[i]
		switch correct {
		case i:
			correct = j
		case j:
			correct = i
		}
	})

	prompt := item.Sentence
	if direction == AskSentence {
		prompt = item.Translation
	}

	s.current = &Question{
		Item:      item,
		Direction: direction,
		Prompt:    prompt,
		Choices:   choices,
		correct:   correct,
	}
	s.cardStart = s.now()
	s.state = StatePresenting
	return s.state
}

func gradeBand(accuracy int) string {
	switch {
	case accuracy == 100:
		return "Perfect"
	case accuracy >= 80:
		return "Great"
	case accuracy >= 60:
		return "Good"
	case accuracy >= 40:
		return "Keep going"
	default:
		return "Needs practice"
	}
}
