package game

import "fmt"

// Validate checks the structural invariants of a game document. The store
// runs it on every read and before every write, so a malformed document is
// rejected instead of being partially interpreted.
func (g *Game) Validate() error {
	if g.ID == "" {
		return fmt.Errorf("%w: missing game id", ErrValidation)
	}
	if g.HostID == "" {
		return fmt.Errorf("%w: missing host id", ErrValidation)
	}
	if g.DeckID == "" {
		return fmt.Errorf("%w: missing deck id", ErrValidation)
	}
	if !g.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, g.Status)
	}
	if g.MaxPlayers < 2 || g.MaxPlayers > 4 {
		return fmt.Errorf("%w: maxPlayers %d out of range", ErrValidation, g.MaxPlayers)
	}
	if len(g.Players) < 1 || len(g.Players) > g.MaxPlayers {
		return fmt.Errorf("%w: %d players with maxPlayers %d", ErrValidation, len(g.Players), g.MaxPlayers)
	}
	if g.TurnIndex < 0 || g.TurnIndex >= len(g.Players) {
		return fmt.Errorf("%w: turnIndex %d out of range", ErrValidation, g.TurnIndex)
	}
	for i := range g.Players {
		p := &g.Players[i]
		if p.ID == "" {
			return fmt.Errorf("%w: player %d missing id", ErrValidation, i)
		}
		if err := p.Defense.validate(); err != nil {
			return fmt.Errorf("player %s defense: %w", p.ID, err)
		}
		if p.SavedCard != nil {
			if err := p.SavedCard.validate(); err != nil {
				return fmt.Errorf("player %s saved card: %w", p.ID, err)
			}
		}
	}
	return nil
}

func (c *Card) validate() error {
	if !c.Suit.Valid() {
		return fmt.Errorf("%w: unknown suit %q", ErrValidation, c.Suit)
	}
	if c.Value < 1 || c.Value > 13 {
		return fmt.Errorf("%w: card value %d out of range", ErrValidation, c.Value)
	}
	return nil
}
