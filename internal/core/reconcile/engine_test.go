package reconcile_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/comitanigiacomo/sentsei-srs-engine/internal/core/domain"
	"github.com/comitanigiacomo/sentsei-srs-engine/internal/core/reconcile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRemote struct {
	deck     domain.Deck
	fetchErr error

	replaceErr error
	replaced   []domain.Deck

	createErr error
	created   []*domain.DeckItem

	deleteErr error
	deleted   []domain.ItemKey

	reviewErr error
	reviewed  []*domain.DeckItem
}

func (r *fakeRemote) FetchDeck(ctx context.Context) (domain.Deck, error) {
	if r.fetchErr != nil {
		return nil, r.fetchErr
	}
	return r.deck.Clone(), nil
}

func (r *fakeRemote) ReplaceDeck(ctx context.Context, deck domain.Deck) error {
	if r.replaceErr != nil {
		return r.replaceErr
	}
	r.replaced = append(r.replaced, deck.Clone())
	return nil
}

func (r *fakeRemote) CreateItem(ctx context.Context, item *domain.DeckItem) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.created = append(r.created, item.Clone())
	return nil
}

func (r *fakeRemote) DeleteItem(ctx context.Context, sentence, lang string) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	r.deleted = append(r.deleted, domain.ItemKey{Sentence: sentence, Lang: lang})
	return nil
}

func (r *fakeRemote) PushReview(ctx context.Context, item *domain.DeckItem) error {
	if r.reviewErr != nil {
		return r.reviewErr
	}
	r.reviewed = append(r.reviewed, item.Clone())
	return nil
}

type fakeStore struct {
	items    domain.Deck
	replaced int
}

func (s *fakeStore) Items() domain.Deck { return s.items.Clone() }

func (s *fakeStore) Replace(ctx context.Context, deck domain.Deck) error {
	s.items = deck.Clone()
	s.replaced++
	return nil
}

type fakeCreds struct {
	cleared int
}

func (c *fakeCreds) ClearToken(ctx context.Context) error {
	c.cleared++
	return nil
}

func engineItem(t *testing.T, sentence string, reviewCount int) *domain.DeckItem {
	t.Helper()
	it, err := domain.NewDeckItem(sentence, "translation", "ja",
		"", time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	it.ReviewCount = reviewCount
	return it
}

func TestSignIn_MergesAndReadRepairs(t *testing.T) {
	store := &fakeStore{items: domain.Deck{
		engineItem(t, "X", 3),
		engineItem(t, "Y", 0),
	}}
	remote := &fakeRemote{deck: domain.Deck{
		engineItem(t, "X", 1),
		engineItem(t, "Z", 2),
	}}
	creds := &fakeCreds{}
	engine := reconcile.NewEngine(store, remote, creds)

	err := engine.SignIn(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, store.replaced)
	assert.Len(t, store.items, 3)
	x, ok := store.items.Find("X", "ja")
	require.True(t, ok)
	assert.Equal(t, 3, x.ReviewCount)

	// The merge result is pushed back as a full replacement.
	require.Len(t, remote.replaced, 1)
	assert.Equal(t, store.items, remote.replaced[0])
	assert.Zero(t, creds.cleared)
}

func TestSignIn_FetchFailureLeavesLocalUntouched(t *testing.T) {
	store := &fakeStore{items: domain.Deck{engineItem(t, "X", 3)}}
	remote := &fakeRemote{fetchErr: errors.New("connection refused")}
	engine := reconcile.NewEngine(store, remote, &fakeCreds{})

	err := engine.SignIn(context.Background())

	assert.Error(t, err)
	assert.Zero(t, store.replaced)
	assert.Empty(t, remote.replaced)
}

func TestSignIn_UnauthorizedClearsOnlyCredential(t *testing.T) {
	store := &fakeStore{items: domain.Deck{engineItem(t, "X", 3)}}
	remote := &fakeRemote{fetchErr: reconcile.ErrUnauthorized}
	creds := &fakeCreds{}
	engine := reconcile.NewEngine(store, remote, creds)

	err := engine.SignIn(context.Background())

	assert.ErrorIs(t, err, reconcile.ErrUnauthorized)
	assert.Equal(t, 1, creds.cleared)
	assert.Zero(t, store.replaced, "deck data must survive a credential rejection")
	assert.Len(t, store.items, 1)
}

func TestSignIn_NoCredentialIsANoOp(t *testing.T) {
	store := &fakeStore{}
	remote := &fakeRemote{fetchErr: reconcile.ErrNoCredential}
	creds := &fakeCreds{}
	engine := reconcile.NewEngine(store, remote, creds)

	err := engine.SignIn(context.Background())

	assert.ErrorIs(t, err, reconcile.ErrNoCredential)
	assert.Zero(t, creds.cleared)
	assert.Zero(t, store.replaced)
}

func TestSignIn_PushFailureStillRepublishesLocally(t *testing.T) {
	store := &fakeStore{items: domain.Deck{engineItem(t, "X", 3)}}
	remote := &fakeRemote{
		deck:       domain.Deck{engineItem(t, "Z", 1)},
		replaceErr: errors.New("500"),
	}
	engine := reconcile.NewEngine(store, remote, &fakeCreds{})

	err := engine.SignIn(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, store.replaced)
	assert.Len(t, store.items, 2)
}

func TestMirrorReview_Success(t *testing.T) {
	remote := &fakeRemote{}
	engine := reconcile.NewEngine(&fakeStore{}, remote, &fakeCreds{})

	engine.MirrorReview(context.Background(), engineItem(t, "X", 1))
	engine.Wait()

	assert.Len(t, remote.reviewed, 1)
	assert.Empty(t, remote.replaced)
}

// gatedRemote stalls review pushes until released, standing in for a slow
// or unreachable server.
type gatedRemote struct {
	fakeRemote
	release chan struct{}
}

func (r *gatedRemote) PushReview(ctx context.Context, item *domain.DeckItem) error {
	<-r.release
	return r.fakeRemote.PushReview(ctx, item)
}

func TestMirrorReview_DoesNotBlockOnSlowRemote(t *testing.T) {
	remote := &gatedRemote{release: make(chan struct{})}
	engine := reconcile.NewEngine(&fakeStore{}, remote, &fakeCreds{})

	// Returns immediately even though the push is stalled; the session must
	// never wait on the network between cards.
	engine.MirrorReview(context.Background(), engineItem(t, "X", 1))
	assert.Empty(t, remote.reviewed)

	close(remote.release)
	engine.Wait()
	assert.Len(t, remote.reviewed, 1)
}

func TestMirrorReview_FailureFallsBackToFullPush(t *testing.T) {
	store := &fakeStore{items: domain.Deck{engineItem(t, "X", 1), engineItem(t, "Y", 0)}}
	remote := &fakeRemote{reviewErr: errors.New("404")}
	engine := reconcile.NewEngine(store, remote, &fakeCreds{})

	engine.MirrorReview(context.Background(), engineItem(t, "X", 1))
	engine.Wait()

	require.Len(t, remote.replaced, 1)
	assert.Equal(t, store.items, remote.replaced[0])
}

func TestMirrorAdd_FailureFallsBackToFullPush(t *testing.T) {
	store := &fakeStore{items: domain.Deck{engineItem(t, "X", 0)}}
	remote := &fakeRemote{createErr: errors.New("502")}
	engine := reconcile.NewEngine(store, remote, &fakeCreds{})

	engine.MirrorAdd(context.Background(), engineItem(t, "X", 0))
	engine.Wait()

	assert.Len(t, remote.replaced, 1)
}

func TestMirrorRemove_FailureFallsBackToFullPush(t *testing.T) {
	store := &fakeStore{}
	remote := &fakeRemote{deleteErr: errors.New("503")}
	engine := reconcile.NewEngine(store, remote, &fakeCreds{})

	engine.MirrorRemove(context.Background(), "X", "ja")
	engine.Wait()

	assert.Len(t, remote.replaced, 1)
}

func TestMirror_NoCredentialSkipsFallback(t *testing.T) {
	remote := &fakeRemote{
		reviewErr: reconcile.ErrNoCredential,
		createErr: reconcile.ErrNoCredential,
		deleteErr: reconcile.ErrNoCredential,
	}
	creds := &fakeCreds{}
	engine := reconcile.NewEngine(&fakeStore{}, remote, creds)
	ctx := context.Background()

	engine.MirrorReview(ctx, engineItem(t, "X", 1))
	engine.MirrorAdd(ctx, engineItem(t, "Y", 0))
	engine.MirrorRemove(ctx, "Z", "ja")
	engine.Wait()

	assert.Empty(t, remote.replaced)
	assert.Zero(t, creds.cleared)
}

func TestMirror_UnauthorizedClearsCredentialWithoutFallback(t *testing.T) {
	remote := &fakeRemote{reviewErr: reconcile.ErrUnauthorized}
	creds := &fakeCreds{}
	engine := reconcile.NewEngine(&fakeStore{}, remote, creds)

	engine.MirrorReview(context.Background(), engineItem(t, "X", 1))
	engine.Wait()

	assert.Equal(t, 1, creds.cleared)
	assert.Empty(t, remote.replaced)
}
