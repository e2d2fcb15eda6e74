package game

import "time"

// Suit of a playing card, as reported by the deck service.
type Suit string

const (
	Spades   Suit = "SPADES"
	Hearts   Suit = "HEARTS"
	Diamonds Suit = "DIAMONDS"
	Clubs    Suit = "CLUBS"
)

func (s Suit) Valid() bool {
	switch s {
	case Spades, Hearts, Diamonds, Clubs:
		return true
	}
	return false
}

// Card is one drawn playing card. Value is the numeric face value:
// ACE=1, numeric cards their face number, JACK=11, QUEEN=12, KING=13.
// Cards are immutable once drawn.
type Card struct {
	Code  string `json:"code"`
	Suit  Suit   `json:"suit"`
	Value int    `json:"value"`
}

// Player is one seat in a game. A player is eliminated when Health drops to
// zero or below; eliminated players stay in the roster so turn indexes remain
// stable. SavedCard present means the player must attack on their next turn.
type Player struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Age       int    `json:"age"`
	Health    int    `json:"health"`
	Defense   Card   `json:"defense"`
	SavedCard *Card  `json:"savedCard,omitempty"`
}

func (p *Player) Alive() bool { return p.Health > 0 }

// Status is the game lifecycle. Transitions are monotone:
// waiting -> started -> finished.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusStarted  Status = "started"
	StatusFinished Status = "finished"
)

func (s Status) Valid() bool {
	switch s {
	case StatusWaiting, StatusStarted, StatusFinished:
		return true
	}
	return false
}

// Game is the persisted aggregate. All mutation goes through store
// transactions; nothing holds a long-lived mutable reference to one of these.
type Game struct {
	ID            string    `json:"id"`
	HostID        string    `json:"hostId"`
	Alias         string    `json:"alias"`
	Status        Status    `json:"status"`
	Players       []Player  `json:"players"`
	TurnIndex     int       `json:"turnIndex"`
	DeckID        string    `json:"deckId"`
	MaxPlayers    int       `json:"maxPlayers"`
	LastActionMsg string    `json:"lastActionMsg,omitempty"`
	TurnDone      bool      `json:"turnDone,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	LastActionAt  time.Time `json:"lastActionAt"`
}

// Player returns the roster entry with the given id, or nil.
func (g *Game) Player(id string) *Player {
	for i := range g.Players {
		if g.Players[i].ID == id {
			return &g.Players[i]
		}
	}
	return nil
}

// Current returns the player holding the turn.
func (g *Game) Current() *Player {
	return &g.Players[g.TurnIndex]
}

// AliveCount returns the number of players with positive health.
func (g *Game) AliveCount() int {
	n := 0
	for i := range g.Players {
		if g.Players[i].Alive() {
			n++
		}
	}
	return n
}

// Clone returns a deep copy, so published snapshots cannot alias a document
// still being mutated.
func (g *Game) Clone() *Game {
	c := *g
	c.Players = make([]Player, len(g.Players))
	copy(c.Players, g.Players)
	for i := range c.Players {
		if sc := c.Players[i].SavedCard; sc != nil {
			dup := *sc
			c.Players[i].SavedCard = &dup
		}
	}
	return &c
}
