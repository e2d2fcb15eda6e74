package storage

import (
	"context"
	"log"
	"sync"

	"penguin/internal/game"
)

// notifier fans committed snapshots out to subscribers. Delivery is
// latest-wins: a slow subscriber's oldest pending snapshot is dropped rather
// than blocking the committing writer.
type notifier struct {
	mu     sync.Mutex
	nextID int
	games  map[string]map[int]chan *game.Game
	lobby  map[int]chan []LobbyEntry
}

func newNotifier() *notifier {
	return &notifier{
		games: make(map[string]map[int]chan *game.Game),
		lobby: make(map[int]chan []LobbyEntry),
	}
}

// Watch streams one snapshot per committed transaction on the given game.
// The returned cancel releases the subscription and closes the channel;
// it is safe to call more than once.
func (s *Store) Watch(gameID string) (<-chan *game.Game, func()) {
	n := s.notifier
	n.mu.Lock()
	defer n.mu.Unlock()
	id := n.nextID
	n.nextID++
	ch := make(chan *game.Game, 8)
	if n.games[gameID] == nil {
		n.games[gameID] = make(map[int]chan *game.Game)
	}
	n.games[gameID][id] = ch

	cancel := func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		sub, ok := n.games[gameID][id]
		if !ok {
			return
		}
		delete(n.games[gameID], id)
		if len(n.games[gameID]) == 0 {
			delete(n.games, gameID)
		}
		close(sub)
	}
	return ch, cancel
}

// WatchLobby streams the waiting-games list, re-sent after every commit that
// touches a waiting game.
func (s *Store) WatchLobby() (<-chan []LobbyEntry, func()) {
	n := s.notifier
	n.mu.Lock()
	defer n.mu.Unlock()
	id := n.nextID
	n.nextID++
	ch := make(chan []LobbyEntry, 8)
	n.lobby[id] = ch

	cancel := func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		sub, ok := n.lobby[id]
		if !ok {
			return
		}
		delete(n.lobby, id)
		close(sub)
	}
	return ch, cancel
}

func (s *Store) publish(g *game.Game) {
	n := s.notifier
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, ch := range n.games[g.ID] {
		offer(ch, g.Clone())
	}
}

func (s *Store) publishLobby(ctx context.Context) {
	entries, err := s.ListWaiting(ctx)
	if err != nil {
		log.Printf("lobby refresh: %v", err)
		return
	}
	n := s.notifier
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, ch := range n.lobby {
		offer(ch, entries)
	}
}

// offer delivers without blocking: when the buffer is full, the oldest
// pending value is dropped in favor of the new one.
func offer[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
