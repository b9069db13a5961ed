package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/comitanigiacomo/sentsei-srs-engine/internal/core/domain"
	"github.com/comitanigiacomo/sentsei-srs-engine/internal/core/reconcile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticToken string

func (s staticToken) Token(ctx context.Context) (string, error) {
	return string(s), nil
}

func testItem(t *testing.T) *domain.DeckItem {
	t.Helper()
	item, err := domain.NewDeckItem("猫", "cat", "ja", "neko",
		time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return item
}

func TestFetchDeck(t *testing.T) {
	item := testItem(t)
	payload, err := domain.EncodeDeck(domain.Deck{item})
	require.NoError(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/srs/deck", r.URL.Path)
		assert.Equal(t, "Bearer token-abc", r.Header.Get("Authorization"))
		w.Write(payload)
	}))
	defer server.Close()

	client := NewClient(server.URL, staticToken("token-abc"))
	deck, err := client.FetchDeck(context.Background())

	require.NoError(t, err)
	require.Len(t, deck, 1)
	assert.Equal(t, item.Key(), deck[0].Key())
	assert.Equal(t, item.NextReview, deck[0].NextReview)
}

func TestFetchDeck_MalformedEntriesAreDropped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`["garbage", {"sentence":"猫","translation":"cat","lang":"ja","addedAt":1767614400000,"nextReview":1767700800000,"interval":86400000,"easeFactor":2.5,"reviewCount":0}]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, staticToken("t"))
	deck, err := client.FetchDeck(context.Background())

	require.NoError(t, err)
	assert.Len(t, deck, 1)
}

func TestReplaceDeck(t *testing.T) {
	var got domain.Deck
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/v1/srs/deck", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"ok":true,"count":1}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, staticToken("t"))
	err := client.ReplaceDeck(context.Background(), domain.Deck{testItem(t)})

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "猫", got[0].Sentence)
}

func TestDeleteItem_SendsIdentityAsQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/v1/srs/item", r.URL.Path)
		assert.Equal(t, "こんにちは 世界", r.URL.Query().Get("sentence"))
		assert.Equal(t, "ja", r.URL.Query().Get("lang"))
		w.Write([]byte(`{"ok":true,"removed":true,"count":0}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, staticToken("t"))
	err := client.DeleteItem(context.Background(), "こんにちは 世界", "ja")

	assert.NoError(t, err)
}

func TestPushReview_WireFormat(t *testing.T) {
	var got map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/srs/review", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	item := testItem(t)
	item.ReviewCount = 2
	item.Interval = 3 * 24 * time.Hour

	client := NewClient(server.URL, staticToken("t"))
	require.NoError(t, client.PushReview(context.Background(), item))

	assert.Equal(t, "猫", got["sentence"])
	assert.Equal(t, "ja", got["lang"])
	assert.Equal(t, float64(3*24*time.Hour/time.Millisecond), got["interval"])
	assert.Equal(t, float64(2), got["reviewCount"])
}

func TestDo_NoCredential(t *testing.T) {
	client := NewClient("http://localhost:0", staticToken(""))

	_, err := client.FetchDeck(context.Background())

	assert.ErrorIs(t, err, reconcile.ErrNoCredential)
}

func TestDo_UnauthorizedMapsToSentinel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(server.URL, staticToken("stale"))

	_, err := client.FetchDeck(context.Background())
	assert.ErrorIs(t, err, reconcile.ErrUnauthorized)

	err = client.PushReview(context.Background(), testItem(t))
	assert.ErrorIs(t, err, reconcile.ErrUnauthorized)
}

func TestDo_NonSuccessStatusIsAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, staticToken("t"))

	err := client.ReplaceDeck(context.Background(), nil)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, reconcile.ErrUnauthorized)
}
