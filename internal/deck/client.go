package deck

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"penguin/internal/game"
)

// Client talks to the shuffled-deck service. Every call hits the service;
// nothing is cached, because draw order is owned by the deck, not by us.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client for a deck-of-cards style API rooted at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type deckResponse struct {
	Success bool   `json:"success"`
	DeckID  string `json:"deck_id"`
	Error   string `json:"error"`
}

type drawResponse struct {
	Success bool      `json:"success"`
	Cards   []rawCard `json:"cards"`
	Error   string    `json:"error"`
}

// rawCard is a card as the service reports it, face value still a label.
type rawCard struct {
	Code  string `json:"code"`
	Suit  string `json:"suit"`
	Value string `json:"value"`
}

// NewDeck asks the service for a freshly shuffled deck and returns its id.
func (c *Client) NewDeck(ctx context.Context) (string, error) {
	var resp deckResponse
	if err := c.get(ctx, "/new/shuffle", &resp); err != nil {
		return "", fmt.Errorf("create deck: %w", err)
	}
	if !resp.Success || resp.DeckID == "" {
		return "", fmt.Errorf("create deck: service error: %s", resp.Error)
	}
	return resp.DeckID, nil
}

// Draw takes count cards off the deck. A failed or short draw triggers one
// reshuffle and a second attempt; if that still comes up short the deck is
// exhausted.
func (c *Client) Draw(ctx context.Context, deckID string, count int) ([]game.Card, error) {
	resp, err := c.tryDraw(ctx, deckID, count)
	if err != nil {
		return nil, err
	}
	if short(resp, count) {
		if err := c.shuffle(ctx, deckID); err != nil {
			return nil, err
		}
		resp, err = c.tryDraw(ctx, deckID, count)
		if err != nil {
			return nil, err
		}
		if short(resp, count) {
			return nil, fmt.Errorf("draw %d from deck %s: %w", count, deckID, game.ErrDeckExhausted)
		}
	}

	cards := make([]game.Card, len(resp.Cards))
	for i, raw := range resp.Cards {
		v, err := faceValue(raw.Value)
		if err != nil {
			return nil, fmt.Errorf("deck %s: %w", deckID, err)
		}
		cards[i] = game.Card{Code: raw.Code, Suit: game.Suit(raw.Suit), Value: v}
	}
	return cards, nil
}

func (c *Client) tryDraw(ctx context.Context, deckID string, count int) (*drawResponse, error) {
	var resp drawResponse
	path := fmt.Sprintf("/%s/draw/?count=%d", deckID, count)
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("draw from deck %s: %w", deckID, err)
	}
	return &resp, nil
}

func (c *Client) shuffle(ctx context.Context, deckID string) error {
	var resp deckResponse
	if err := c.post(ctx, "/"+deckID+"/shuffle/", &resp); err != nil {
		return fmt.Errorf("shuffle deck %s: %w", deckID, err)
	}
	return nil
}

// short reports whether the draw should be treated as deck exhaustion.
func short(resp *drawResponse, count int) bool {
	return !resp.Success || len(resp.Cards) < count || strings.Contains(resp.Error, "Not enough cards")
}

var faceValues = map[string]int{
	"ACE":   1,
	"JACK":  11,
	"QUEEN": 12,
	"KING":  13,
}

// faceValue normalizes the service's face label to 1..13.
func faceValue(label string) (int, error) {
	if v, ok := faceValues[label]; ok {
		return v, nil
	}
	v, err := strconv.Atoi(label)
	if err != nil || v < 1 || v > 13 {
		return 0, fmt.Errorf("%w: unknown card value %q", game.ErrValidation, label)
	}
	return v, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("%s %s: status %d", req.Method, req.URL.Path, res.StatusCode)
	}
	return json.NewDecoder(res.Body).Decode(out)
}
