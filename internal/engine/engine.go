package engine

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"penguin/internal/game"
)

const (
	minHealth     = 18
	maxHealth     = 26
	minPlayers    = 2
	maxPlayersCap = 4
)

// Repository is the transactional access the engine needs to game documents.
// Update must rerun mutate against a fresh snapshot whenever a concurrent
// writer commits first, so every transition is computed from current state.
type Repository interface {
	Get(ctx context.Context, id string) (*game.Game, error)
	Create(ctx context.Context, g *game.Game) error
	Update(ctx context.Context, id string, mutate func(*game.Game) error) (*game.Game, error)
}

// Dealer supplies shuffled decks and card draws. Draw reshuffles once
// internally before reporting exhaustion.
type Dealer interface {
	NewDeck(ctx context.Context) (string, error)
	Draw(ctx context.Context, deckID string, count int) ([]game.Card, error)
}

// PlayerInfo identifies the player issuing a create or join.
type PlayerInfo struct {
	ID   string
	Name string
	Age  int
}

// Engine applies the card-combat rules as atomic transitions on stored games.
// It holds no game state of its own; every operation re-reads the document
// inside a store transaction.
type Engine struct {
	repo Repository
	deck Dealer
	roll func() int // starting health, uniform in [minHealth, maxHealth]
}

// New creates an engine over the given store and dealer.
func New(repo Repository, deck Dealer) *Engine {
	return &Engine{
		repo: repo,
		deck: deck,
		roll: func() int { return minHealth + rand.IntN(maxHealth-minHealth+1) },
	}
}

// CreateGame allocates a deck, seats the host with a drawn defense and rolled
// health, and stores the new game in the waiting state. Returns the game id.
func (e *Engine) CreateGame(ctx context.Context, host PlayerInfo, alias string, maxPlayers int) (string, error) {
	if maxPlayers < minPlayers || maxPlayers > maxPlayersCap {
		return "", fmt.Errorf("%w: maxPlayers must be between %d and %d",
			game.ErrValidation, minPlayers, maxPlayersCap)
	}
	if host.ID == "" {
		return "", fmt.Errorf("%w: host id required", game.ErrValidation)
	}
	deckID, err := e.deck.NewDeck(ctx)
	if err != nil {
		return "", err
	}
	p, err := e.seatPlayer(ctx, deckID, host)
	if err != nil {
		return "", err
	}
	now := time.Now().UTC()
	g := &game.Game{
		ID:           uuid.NewString(),
		HostID:       host.ID,
		Alias:        alias,
		Status:       game.StatusWaiting,
		Players:      []game.Player{p},
		TurnIndex:    0,
		DeckID:       deckID,
		MaxPlayers:   maxPlayers,
		CreatedAt:    now,
		LastActionAt: now,
	}
	if err := e.repo.Create(ctx, g); err != nil {
		return "", err
	}
	return g.ID, nil
}

// JoinGame appends a player to a waiting game, preserving arrival order.
func (e *Engine) JoinGame(ctx context.Context, gameID string, info PlayerInfo) error {
	if info.ID == "" {
		return fmt.Errorf("%w: player id required", game.ErrValidation)
	}
	_, err := e.repo.Update(ctx, gameID, func(g *game.Game) error {
		if g.Status != game.StatusWaiting {
			return fmt.Errorf("%w: game is %s, not accepting players", game.ErrInvalidState, g.Status)
		}
		if len(g.Players) >= g.MaxPlayers {
			return fmt.Errorf("%w: game seats %d players", game.ErrRoomFull, g.MaxPlayers)
		}
		if g.Player(info.ID) != nil {
			return fmt.Errorf("%w: player %s already joined", game.ErrValidation, info.ID)
		}
		p, err := e.seatPlayer(ctx, g.DeckID, info)
		if err != nil {
			return err
		}
		g.Players = append(g.Players, p)
		g.LastActionAt = time.Now().UTC()
		return nil
	})
	return err
}

// StartGame flips a waiting game to started and hands the first turn to the
// weakest seat: lowest health, then lowest defense value, then highest age.
func (e *Engine) StartGame(ctx context.Context, gameID string) error {
	_, err := e.repo.Update(ctx, gameID, func(g *game.Game) error {
		if g.Status != game.StatusWaiting {
			return fmt.Errorf("%w: game is %s", game.ErrInvalidState, g.Status)
		}
		if len(g.Players) < minPlayers {
			return fmt.Errorf("%w: need at least %d players, have %d",
				game.ErrInvalidState, minPlayers, len(g.Players))
		}
		g.Status = game.StatusStarted
		g.TurnIndex = firstTurnIndex(g.Players)
		g.LastActionAt = time.Now().UTC()
		return nil
	})
	return err
}

// seatPlayer draws an initial defense card and rolls starting health.
func (e *Engine) seatPlayer(ctx context.Context, deckID string, info PlayerInfo) (game.Player, error) {
	cards, err := e.deck.Draw(ctx, deckID, 1)
	if err != nil {
		return game.Player{}, err
	}
	return game.Player{
		ID:      info.ID,
		Name:    info.Name,
		Age:     info.Age,
		Health:  e.roll(),
		Defense: cards[0],
	}, nil
}
