package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"nhooyr.io/websocket"

	"penguin/internal/deck"
	"penguin/internal/engine"
	"penguin/internal/storage"
)

// --- Test environment ---

type testEnv struct {
	ts    *httptest.Server
	store *storage.Store
}

// fakeCardSource deals an endless cycle of cards so API flows never run dry.
func fakeCardSource() http.Handler {
	labels := []struct{ code, suit, value string }{
		{"5H", "HEARTS", "5"},
		{"KS", "SPADES", "KING"},
		{"9D", "DIAMONDS", "9"},
		{"2C", "CLUBS", "2"},
		{"JH", "HEARTS", "JACK"},
		{"7S", "SPADES", "7"},
		{"AD", "DIAMONDS", "ACE"},
		{"QC", "CLUBS", "QUEEN"},
	}
	var mu sync.Mutex
	next := 0

	mux := http.NewServeMux()
	mux.HandleFunc("GET /new/shuffle", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success":true,"deck_id":"apideck","shuffled":true,"remaining":52}`)
	})
	mux.HandleFunc("GET /{deck}/draw/", func(w http.ResponseWriter, r *http.Request) {
		count := 1
		fmt.Sscanf(r.URL.Query().Get("count"), "%d", &count)
		mu.Lock()
		cards := make([]map[string]string, count)
		for i := range cards {
			c := labels[next%len(labels)]
			next++
			cards[i] = map[string]string{"code": c.code, "suit": c.suit, "value": c.value}
		}
		mu.Unlock()
		json.NewEncoder(w).Encode(map[string]any{"success": true, "cards": cards})
	})
	mux.HandleFunc("POST /{deck}/shuffle/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success":true,"deck_id":"apideck"}`)
	})
	return mux
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store, err := storage.New(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	deckTS := httptest.NewServer(fakeCardSource())
	t.Cleanup(deckTS.Close)

	eng := engine.New(store, deck.NewClient(deckTS.URL))
	ts := httptest.NewServer(New(eng, store))
	t.Cleanup(ts.Close)

	return &testEnv{ts: ts, store: store}
}

// --- Context helpers ---

func timeoutCtx(t *testing.T) (context.Context, context.CancelFunc) {
	t.Helper()
	return context.WithTimeout(context.Background(), 5*time.Second)
}

// --- REST API helpers ---

// postJSON posts a body and returns the status code and decoded response.
func postJSON(t *testing.T, url string, body any) (int, map[string]any) {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	defer resp.Body.Close()
	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp.StatusCode, decoded
}

func createGameViaAPI(t *testing.T, env *testEnv, playerID, alias string, maxPlayers int) string {
	t.Helper()
	status, resp := postJSON(t, env.ts.URL+"/api/games", map[string]any{
		"playerId":   playerID,
		"name":       playerID,
		"age":        30,
		"alias":      alias,
		"maxPlayers": maxPlayers,
	})
	if status != http.StatusCreated {
		t.Fatalf("create game: expected 201, got %d (%v)", status, resp)
	}
	id, _ := resp["id"].(string)
	if id == "" {
		t.Fatalf("create game: missing id in %v", resp)
	}
	return id
}

func joinViaAPI(t *testing.T, env *testEnv, gameID, playerID string, age int) {
	t.Helper()
	status, resp := postJSON(t, env.ts.URL+"/api/games/"+gameID+"/join", map[string]any{
		"playerId": playerID,
		"name":     playerID,
		"age":      age,
	})
	if status != http.StatusOK {
		t.Fatalf("join game: expected 200, got %d (%v)", status, resp)
	}
}

func startViaAPI(t *testing.T, env *testEnv, gameID string) {
	t.Helper()
	status, resp := postJSON(t, env.ts.URL+"/api/games/"+gameID+"/start", map[string]any{})
	if status != http.StatusOK {
		t.Fatalf("start game: expected 200, got %d (%v)", status, resp)
	}
}

// --- WebSocket helpers ---

func wsURL(env *testEnv, path string) string {
	return strings.Replace(env.ts.URL, "http://", "ws://", 1) + path
}

func wsDial(t *testing.T, ctx context.Context, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("ws dial %s: %v", url, err)
	}
	return conn
}

func wsReadJSON(t *testing.T, ctx context.Context, conn *websocket.Conn, out any) {
	t.Helper()
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("ws read: %v", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		t.Fatalf("ws unmarshal %s: %v", data, err)
	}
}
