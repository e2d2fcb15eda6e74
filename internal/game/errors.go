package game

import "errors"

// Error taxonomy surfaced by the engine and its collaborators. Errors are
// wrapped with context via fmt.Errorf("%w") and matched with errors.Is.
var (
	// ErrNotFound means a game or player id did not resolve.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState means the action is not legal in the game's current state.
	ErrInvalidState = errors.New("invalid state")
	// ErrRoomFull means the game already seats its maximum of players.
	ErrRoomFull = errors.New("room is full")
	// ErrValidation means a parameter or stored document failed validation.
	ErrValidation = errors.New("validation failed")
	// ErrDeckExhausted means the card source could not supply cards even
	// after a reshuffle.
	ErrDeckExhausted = errors.New("deck exhausted")
	// ErrConflict means a write conflict persisted past the retry budget.
	ErrConflict = errors.New("write conflict")
)
