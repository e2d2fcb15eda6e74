package engine

import (
	"context"
	"fmt"

	"penguin/internal/game"
)

// AdvanceTurn moves the turn pointer to the next living player, or finishes
// the game when at most one is left standing. It runs as its own transaction
// immediately after every turn-consuming action. It is idempotent: the
// pointer only steps forward when the preceding action marked the turn done,
// so rerunning it (after a crash between the two commits, or redundantly)
// changes nothing beyond the pure dead-player skip.
func (e *Engine) AdvanceTurn(ctx context.Context, gameID string) error {
	_, err := e.repo.Update(ctx, gameID, advanceTurn)
	return err
}

func advanceTurn(g *game.Game) error {
	if g.Status == game.StatusFinished {
		return nil
	}
	if g.Status != game.StatusStarted {
		return fmt.Errorf("%w: game is %s", game.ErrInvalidState, g.Status)
	}
	if g.AliveCount() <= 1 {
		g.Status = game.StatusFinished
		g.TurnDone = false
		return nil
	}
	n := len(g.Players)
	next := g.TurnIndex
	if g.TurnDone {
		next = (next + 1) % n
		g.TurnDone = false
	}
	// At least two players are alive, so this cannot cycle forever.
	for g.Players[next].Health <= 0 {
		next = (next + 1) % n
	}
	g.TurnIndex = next
	return nil
}

// firstTurnIndex picks the opening turn-holder: lowest health, ties broken by
// lowest defense value, then by highest age.
func firstTurnIndex(players []game.Player) int {
	best := 0
	for i := 1; i < len(players); i++ {
		if weaker(&players[i], &players[best]) {
			best = i
		}
	}
	return best
}

func weaker(a, b *game.Player) bool {
	if a.Health != b.Health {
		return a.Health < b.Health
	}
	if a.Defense.Value != b.Defense.Value {
		return a.Defense.Value < b.Defense.Value
	}
	return a.Age > b.Age
}
