package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/comitanigiacomo/sentsei-srs-engine/internal/core/domain"
)

var (
	// ErrNoCredential is returned by remote operations when no session
	// credential is cached; callers treat the operation as a silent no-op.
	ErrNoCredential = errors.New("no cached credential")

	// ErrUnauthorized is returned when the server rejects the cached
	// credential.
	ErrUnauthorized = errors.New("credential rejected by server")
)

// RemoteDeck is the server-side deck mirror consumed by the engine. Every
// method requires a valid credential and returns ErrNoCredential or
// ErrUnauthorized when that is not the case.
type RemoteDeck interface {
	FetchDeck(ctx context.Context) (domain.Deck, error)
	ReplaceDeck(ctx context.Context, deck domain.Deck) error
	CreateItem(ctx context.Context, item *domain.DeckItem) error
	DeleteItem(ctx context.Context, sentence, lang string) error
	PushReview(ctx context.Context, item *domain.DeckItem) error
}

// DeckStore is what the engine needs from the local deck store.
type DeckStore interface {
	Items() domain.Deck
	Replace(ctx context.Context, deck domain.Deck) error
}

// Credentials gives the engine access to the cached session credential so
// it can drop it when the server rejects it.
type Credentials interface {
	ClearToken(ctx context.Context) error
}

// Engine mirrors local deck mutations to the server and runs the sign-in
// merge. Local state is authoritative: a failed remote write never blocks
// or rolls back the mutation that triggered it. Mirrors run in the
// background so a slow or unreachable server never stalls the caller; use
// Wait before shutdown to let in-flight pushes settle.
type Engine struct {
	store  DeckStore
	remote RemoteDeck
	creds  Credentials

	mirrors sync.WaitGroup
}

func NewEngine(store DeckStore, remote RemoteDeck, creds Credentials) *Engine {
	return &Engine{
		store:  store,
		remote: remote,
		creds:  creds,
	}
}

// SignIn pulls the server deck, merges it with the local one and republishes
// the result both locally and remotely (read-repair). A failed or rejected
// pull never touches local deck state; a rejected credential is cleared from
// the cache and nothing else. The returned error reports why the sync was
// skipped, for logging only.
func (e *Engine) SignIn(ctx context.Context) error {
	remote, err := e.remote.FetchDeck(ctx)
	if err != nil {
		if errors.Is(err, ErrNoCredential) {
			return err
		}
		if errors.Is(err, ErrUnauthorized) {
			if clearErr := e.creds.ClearToken(ctx); clearErr != nil {
				log.Printf("Sync: failed to clear rejected credential: %v", clearErr)
			}
			return err
		}
		return fmt.Errorf("deck pull failed, staying local: %w", err)
	}

	merged := Merge(e.store.Items(), remote)
	if err := e.store.Replace(ctx, merged); err != nil {
		return fmt.Errorf("replacing local deck with merge result: %w", err)
	}

	if err := e.remote.ReplaceDeck(ctx, merged); err != nil {
		log.Printf("Sync: merged deck push failed, will retry on next trigger: %v", err)
	}
	return nil
}

// MirrorReview pushes one committed grading to the server in the background.
func (e *Engine) MirrorReview(ctx context.Context, item *domain.DeckItem) {
	e.dispatch(ctx, "review push", func() error {
		return e.remote.PushReview(ctx, item)
	})
}

// MirrorAdd pushes one newly added item to the server in the background.
func (e *Engine) MirrorAdd(ctx context.Context, item *domain.DeckItem) {
	e.dispatch(ctx, "item create", func() error {
		return e.remote.CreateItem(ctx, item)
	})
}

// MirrorRemove pushes one removal to the server in the background.
func (e *Engine) MirrorRemove(ctx context.Context, sentence, lang string) {
	e.dispatch(ctx, "item delete", func() error {
		return e.remote.DeleteItem(ctx, sentence, lang)
	})
}

// Wait blocks until every dispatched mirror has finished.
func (e *Engine) Wait() {
	e.mirrors.Wait()
}

func (e *Engine) dispatch(ctx context.Context, op string, push func() error) {
	e.mirrors.Add(1)
	go func() {
		defer e.mirrors.Done()
		if err := push(); err != nil {
			e.recover(ctx, err, op)
		}
	}()
}

// recover handles a failed fine-grained remote write: a missing credential
// makes the whole mirror a no-op, a rejected one is cleared, and anything
// else falls back to a full-deck replacement so the server still converges
// to local truth.
func (e *Engine) recover(ctx context.Context, cause error, op string) {
	if errors.Is(cause, ErrNoCredential) {
		return
	}
	if errors.Is(cause, ErrUnauthorized) {
		if err := e.creds.ClearToken(ctx); err != nil {
			log.Printf("Sync: failed to clear rejected credential: %v", err)
		}
		return
	}

	log.Printf("Sync: %s failed (%v), falling back to full deck push", op, cause)
	if err := e.remote.ReplaceDeck(ctx, e.store.Items()); err != nil {
		log.Printf("Sync: fallback deck push failed, will retry on next trigger: %v", err)
	}
}
