// Package remote implements the server-side deck mirror over HTTP.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/comitanigiacomo/sentsei-srs-engine/internal/core/domain"
	"github.com/comitanigiacomo/sentsei-srs-engine/internal/core/reconcile"
)

const requestTimeout = 10 * time.Second

// TokenSource supplies the cached bearer credential. An empty token means
// the user is signed out and every remote call becomes a no-op.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Client talks to the deck API with a bearer credential and per-request
// timeouts. It implements reconcile.RemoteDeck.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
}

func NewClient(baseURL string, tokens TokenSource) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// FetchDeck retrieves the full server-held deck.
func (c *Client) FetchDeck(ctx context.Context) (domain.Deck, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/v1/srs/deck", nil)
	if err != nil {
		return nil, err
	}
	// Malformed entries degrade to an empty or partial deck, never an error.
	return domain.DecodeDeck(body), nil
}

// ReplaceDeck overwrites the server-held deck with the given one.
func (c *Client) ReplaceDeck(ctx context.Context, deck domain.Deck) error {
	payload, err := domain.EncodeDeck(deck)
	if err != nil {
		return fmt.Errorf("encoding deck: %w", err)
	}
	_, err = c.do(ctx, http.MethodPut, "/api/v1/srs/deck", payload)
	return err
}

// CreateItem adds or updates one item on the server.
func (c *Client) CreateItem(ctx context.Context, item *domain.DeckItem) error {
	payload, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encoding item: %w", err)
	}
	_, err = c.do(ctx, http.MethodPost, "/api/v1/srs/item", payload)
	return err
}

// DeleteItem removes one item from the server by identity.
func (c *Client) DeleteItem(ctx context.Context, sentence, lang string) error {
	query := url.Values{}
	query.Set("sentence", sentence)
	query.Set("lang", lang)

	_, err := c.do(ctx, http.MethodDelete, "/api/v1/srs/item?"+query.Encode(), nil)
	return err
}

// PushReview submits one grading event: identity plus the updated
// scheduling fields, in the millisecond wire format.
func (c *Client) PushReview(ctx context.Context, item *domain.DeckItem) error {
	payload, err := json.Marshal(map[string]interface{}{
		"sentence":    item.Sentence,
		"lang":        item.Lang,
		"interval":    float64(item.Interval.Milliseconds()),
		"easeFactor":  item.EaseFactor,
		"nextReview":  float64(item.NextReview.UnixMilli()),
		"reviewCount": item.ReviewCount,
	})
	if err != nil {
		return fmt.Errorf("encoding review: %w", err)
	}
	_, err = c.do(ctx, http.MethodPost, "/api/v1/srs/review", payload)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading credential: %w", err)
	}
	if token == "" {
		return nil, reconcile.ErrNoCredential
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, reconcile.ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return body, nil
}
