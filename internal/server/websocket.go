package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"nhooyr.io/websocket"
)

// handleGameStream pushes one full game snapshot per committed transaction to
// the subscriber until it disconnects. The stream is push-only; incoming
// messages are discarded.
func (s *Server) handleGameStream(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.store.Get(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // allow any origin for dev
	})
	if err != nil {
		log.Printf("websocket accept: %v", err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	updates, cancel := s.store.Watch(id)
	defer cancel()

	// CloseRead fails the context as soon as the client goes away.
	ctx := conn.CloseRead(r.Context())

	current, err := s.store.Get(ctx, id)
	if err != nil {
		return
	}
	if err := writeWS(ctx, conn, current); err != nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-updates:
			if !ok {
				return
			}
			if err := writeWS(ctx, conn, snap); err != nil {
				return
			}
		}
	}
}

// handleLobbyStream pushes the waiting-games list on connect and again after
// every commit that touches a waiting game.
func (s *Server) handleLobbyStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		log.Printf("websocket accept: %v", err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	updates, cancel := s.store.WatchLobby()
	defer cancel()

	ctx := conn.CloseRead(r.Context())

	entries, err := s.store.ListWaiting(ctx)
	if err != nil {
		log.Printf("lobby stream: %v", err)
		return
	}
	if err := writeWS(ctx, conn, entries); err != nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case entries, ok := <-updates:
			if !ok {
				return
			}
			if err := writeWS(ctx, conn, entries); err != nil {
				return
			}
		}
	}
}

func writeWS(ctx context.Context, conn *websocket.Conn, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, data)
}
