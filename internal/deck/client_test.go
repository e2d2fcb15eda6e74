package deck

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"penguin/internal/game"
)

// fakeSource scripts the deck service: each call to the draw endpoint pops
// the next canned response.
type fakeSource struct {
	mu       sync.Mutex
	draws    []string
	shuffles int
}

func (f *fakeSource) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /new/shuffle", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success":true,"deck_id":"testdeck","shuffled":true,"remaining":52}`)
	})
	mux.HandleFunc("GET /{deck}/draw/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if len(f.draws) == 0 {
			http.Error(w, "no scripted draw", http.StatusInternalServerError)
			return
		}
		resp := f.draws[0]
		f.draws = f.draws[1:]
		fmt.Fprint(w, resp)
	})
	mux.HandleFunc("POST /{deck}/shuffle/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.shuffles++
		f.mu.Unlock()
		fmt.Fprint(w, `{"success":true,"deck_id":"testdeck"}`)
	})
	return mux
}

func newTestClient(t *testing.T, draws ...string) (*Client, *fakeSource) {
	t.Helper()
	src := &fakeSource{draws: draws}
	ts := httptest.NewServer(src.handler())
	t.Cleanup(ts.Close)
	return NewClient(ts.URL), src
}

func TestNewDeck(t *testing.T) {
	c, _ := newTestClient(t)
	id, err := c.NewDeck(context.Background())
	if err != nil {
		t.Fatalf("new deck: %v", err)
	}
	if id != "testdeck" {
		t.Fatalf("expected testdeck, got %s", id)
	}
}

func TestDrawNormalizesFaces(t *testing.T) {
	c, _ := newTestClient(t,
		`{"success":true,"cards":[
			{"code":"KH","suit":"HEARTS","value":"KING"},
			{"code":"AS","suit":"SPADES","value":"ACE"},
			{"code":"7D","suit":"DIAMONDS","value":"7"}
		]}`,
	)
	cards, err := c.Draw(context.Background(), "testdeck", 3)
	if err != nil {
		t.Fatalf("draw: %v", err)
	}
	want := []game.Card{
		{Code: "KH", Suit: game.Hearts, Value: 13},
		{Code: "AS", Suit: game.Spades, Value: 1},
		{Code: "7D", Suit: game.Diamonds, Value: 7},
	}
	for i, c := range cards {
		if c != want[i] {
			t.Fatalf("card %d: expected %+v, got %+v", i, want[i], c)
		}
	}
}

func TestDrawReshufflesOnShortDraw(t *testing.T) {
	c, src := newTestClient(t,
		`{"success":false,"cards":[],"error":"Not enough cards remaining to draw 1 additional"}`,
		`{"success":true,"cards":[{"code":"QC","suit":"CLUBS","value":"QUEEN"}]}`,
	)
	cards, err := c.Draw(context.Background(), "testdeck", 1)
	if err != nil {
		t.Fatalf("draw after reshuffle: %v", err)
	}
	if src.shuffles != 1 {
		t.Fatalf("expected 1 shuffle, got %d", src.shuffles)
	}
	if len(cards) != 1 || cards[0].Value != 12 {
		t.Fatalf("unexpected cards: %+v", cards)
	}
	if cards[0].Value < 1 || cards[0].Value > 13 {
		t.Fatalf("card value out of range: %d", cards[0].Value)
	}
}

func TestDrawExhaustedAfterRetry(t *testing.T) {
	c, src := newTestClient(t,
		`{"success":false,"cards":[],"error":"Not enough cards remaining to draw 1 additional"}`,
		`{"success":false,"cards":[],"error":"Not enough cards remaining to draw 1 additional"}`,
	)
	_, err := c.Draw(context.Background(), "testdeck", 1)
	if !errors.Is(err, game.ErrDeckExhausted) {
		t.Fatalf("expected ErrDeckExhausted, got %v", err)
	}
	if src.shuffles != 1 {
		t.Fatalf("expected exactly 1 reshuffle, got %d", src.shuffles)
	}
}

func TestDrawShortCountTriggersRetry(t *testing.T) {
	// A "successful" draw with fewer cards than asked still counts as
	// exhaustion.
	c, src := newTestClient(t,
		`{"success":true,"cards":[{"code":"2H","suit":"HEARTS","value":"2"}]}`,
		`{"success":true,"cards":[
			{"code":"2H","suit":"HEARTS","value":"2"},
			{"code":"3H","suit":"HEARTS","value":"3"}
		]}`,
	)
	cards, err := c.Draw(context.Background(), "testdeck", 2)
	if err != nil {
		t.Fatalf("draw: %v", err)
	}
	if src.shuffles != 1 {
		t.Fatalf("expected 1 shuffle, got %d", src.shuffles)
	}
	if len(cards) != 2 {
		t.Fatalf("expected 2 cards, got %d", len(cards))
	}
}

func TestDrawRejectsUnknownLabel(t *testing.T) {
	c, _ := newTestClient(t,
		`{"success":true,"cards":[{"code":"J1","suit":"HEARTS","value":"JOKER"}]}`,
	)
	_, err := c.Draw(context.Background(), "testdeck", 1)
	if !errors.Is(err, game.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
