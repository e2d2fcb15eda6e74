package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"penguin/internal/engine"
	"penguin/internal/game"
	"penguin/internal/storage"
)

// Server exposes the game actions and the live streams over HTTP.
type Server struct {
	mux    *http.ServeMux
	engine *engine.Engine
	store  *storage.Store
}

// New creates a server with all routes.
func New(eng *engine.Engine, store *storage.Store) *Server {
	s := &Server{
		mux:    http.NewServeMux(),
		engine: eng,
		store:  store,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /api/games", s.handleCreateGame)
	s.mux.HandleFunc("GET /api/games", s.handleListGames)
	s.mux.HandleFunc("GET /api/games/{id}", s.handleGetGame)
	s.mux.HandleFunc("POST /api/games/{id}/join", s.handleJoin)
	s.mux.HandleFunc("POST /api/games/{id}/start", s.handleStart)
	s.mux.HandleFunc("POST /api/games/{id}/defense", s.handleChangeDefense)
	s.mux.HandleFunc("POST /api/games/{id}/attack", s.handleAttack)
	s.mux.HandleFunc("POST /api/games/{id}/guard", s.handleGuard)
	s.mux.HandleFunc("GET /api/games/{id}/ws", s.handleGameStream)
	s.mux.HandleFunc("GET /api/lobby/ws", s.handleLobbyStream)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

type playerRequest struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Age      int    `json:"age"`
}

func (p *playerRequest) info() engine.PlayerInfo {
	return engine.PlayerInfo{ID: strings.TrimSpace(p.PlayerID), Name: strings.TrimSpace(p.Name), Age: p.Age}
}

type createGameRequest struct {
	playerRequest
	Alias      string `json:"alias"`
	MaxPlayers int    `json:"maxPlayers"`
}

type createGameResponse struct {
	ID string `json:"id"`
}

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	id, err := s.engine.CreateGame(r.Context(), req.info(), strings.TrimSpace(req.Alias), req.MaxPlayers)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, createGameResponse{ID: id})
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.ListWaiting(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []storage.LobbyEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	g, err := s.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req playerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := s.engine.JoinGame(r.Context(), r.PathValue("id"), req.info()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "joined"})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.StartGame(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "started"})
}

type targetRequest struct {
	PlayerID string `json:"playerId"`
	TargetID string `json:"targetId"`
}

func (s *Server) handleChangeDefense(w http.ResponseWriter, r *http.Request) {
	var req targetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := s.engine.ChangeDefense(r.Context(), r.PathValue("id"), req.PlayerID, req.TargetID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAttack(w http.ResponseWriter, r *http.Request) {
	var req targetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := s.engine.AttackPlayer(r.Context(), r.PathValue("id"), req.PlayerID, req.TargetID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGuard(w http.ResponseWriter, r *http.Request) {
	var req playerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := s.engine.GuardCard(r.Context(), r.PathValue("id"), strings.TrimSpace(req.PlayerID)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps the domain error taxonomy onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, game.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, game.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, game.ErrRoomFull), errors.Is(err, game.ErrInvalidState):
		status = http.StatusConflict
	case errors.Is(err, game.ErrDeckExhausted):
		status = http.StatusBadGateway
	case errors.Is(err, game.ErrConflict):
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
