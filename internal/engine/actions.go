package engine

import (
	"context"
	"fmt"
	"log"
	"time"

	"penguin/internal/game"
)

// currentActor validates that the caller holds the turn in a started game.
func currentActor(g *game.Game, actorID string) (*game.Player, error) {
	if g.Status != game.StatusStarted {
		return nil, fmt.Errorf("%w: game is %s", game.ErrInvalidState, g.Status)
	}
	actor := g.Current()
	if actor.ID != actorID {
		return nil, fmt.Errorf("%w: it is %s's turn", game.ErrInvalidState, actor.Name)
	}
	return actor, nil
}

// livingTarget resolves targetID against the roster and rejects the dead.
func livingTarget(g *game.Game, targetID string) (*game.Player, error) {
	target := g.Player(targetID)
	if target == nil {
		return nil, fmt.Errorf("%w: player %s", game.ErrNotFound, targetID)
	}
	if !target.Alive() {
		return nil, fmt.Errorf("%w: %s is eliminated", game.ErrInvalidState, target.Name)
	}
	return target, nil
}

// ChangeDefense re-arms the target's defense with a freshly drawn card. The
// target may be the actor or any other living player.
func (e *Engine) ChangeDefense(ctx context.Context, gameID, actorID, targetID string) error {
	_, err := e.repo.Update(ctx, gameID, func(g *game.Game) error {
		actor, err := currentActor(g, actorID)
		if err != nil {
			return err
		}
		if actor.SavedCard != nil {
			return fmt.Errorf("%w: %s banked a card and must attack", game.ErrInvalidState, actor.Name)
		}
		target, err := livingTarget(g, targetID)
		if err != nil {
			return err
		}
		cards, err := e.deck.Draw(ctx, g.DeckID, 1)
		if err != nil {
			return err
		}
		target.Defense = cards[0]
		if actor.ID == target.ID {
			g.LastActionMsg = fmt.Sprintf("%s put up a new defense!", actor.Name)
		} else {
			g.LastActionMsg = fmt.Sprintf("%s changed %s's defense!", actor.Name, target.Name)
		}
		g.TurnDone = true
		g.LastActionAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		return err
	}
	return e.finishTurn(ctx, gameID)
}

// AttackPlayer resolves an attack with the actor's banked card (if any) plus
// one fresh draw against the target's defense. Damage lands only when the
// attack total reaches the defense value; the banked card is spent either way.
func (e *Engine) AttackPlayer(ctx context.Context, gameID, actorID, targetID string) error {
	_, err := e.repo.Update(ctx, gameID, func(g *game.Game) error {
		actor, err := currentActor(g, actorID)
		if err != nil {
			return err
		}
		if targetID == actorID {
			return fmt.Errorf("%w: cannot attack yourself", game.ErrValidation)
		}
		target, err := livingTarget(g, targetID)
		if err != nil {
			return err
		}

		attack := 0
		if actor.SavedCard != nil {
			attack = actor.SavedCard.Value
		}
		cards, err := e.deck.Draw(ctx, g.DeckID, 1)
		if err != nil {
			return err
		}
		attack += cards[0].Value

		if defense := target.Defense.Value; attack < defense {
			g.LastActionMsg = fmt.Sprintf("%s attacked %s and missed!", actor.Name, target.Name)
		} else {
			damage := attack - defense
			target.Health -= damage
			newDefense, err := e.deck.Draw(ctx, g.DeckID, 1)
			if err != nil {
				return err
			}
			target.Defense = newDefense[0]
			g.LastActionMsg = fmt.Sprintf("%s attacked %s for %d damage!", actor.Name, target.Name, damage)
		}
		actor.SavedCard = nil
		g.TurnDone = true
		g.LastActionAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		return err
	}
	return e.finishTurn(ctx, gameID)
}

// GuardCard banks a drawn card for the actor's next turn, committing them to
// an attack.
func (e *Engine) GuardCard(ctx context.Context, gameID, actorID string) error {
	_, err := e.repo.Update(ctx, gameID, func(g *game.Game) error {
		actor, err := currentActor(g, actorID)
		if err != nil {
			return err
		}
		if actor.SavedCard != nil {
			return fmt.Errorf("%w: %s already banked a card and must attack", game.ErrInvalidState, actor.Name)
		}
		cards, err := e.deck.Draw(ctx, g.DeckID, 1)
		if err != nil {
			return err
		}
		saved := cards[0]
		actor.SavedCard = &saved
		g.LastActionMsg = fmt.Sprintf("%s banked a card for next turn!", actor.Name)
		g.TurnDone = true
		g.LastActionAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		return err
	}
	return e.finishTurn(ctx, gameID)
}

// finishTurn runs the follow-up advance commit. The action itself is already
// committed; a failed advance is logged and surfaced so the caller can retry
// it, never rolled back.
func (e *Engine) finishTurn(ctx context.Context, gameID string) error {
	if err := e.AdvanceTurn(ctx, gameID); err != nil {
		log.Printf("game %s: advance turn after action: %v", gameID, err)
		return err
	}
	return nil
}
