package game

import "errors"

var (
	// ErrInvalidLocation is returned for coordinates outside the board.
	ErrInvalidLocation = errors.New("invalid location")
	// ErrIllegalMove is returned when a move captures nothing or the target is occupied.
	ErrIllegalMove = errors.New("illegal move")
	// ErrNotYourTurn is returned when the local side may not act.
	ErrNotYourTurn = errors.New("not your turn")
	// ErrGameOver is returned for moves attempted after the match ended.
	ErrGameOver = errors.New("game is over")
	// ErrNoLegalMove is returned when a computer turn is requested with nothing to play.
	ErrNoLegalMove = errors.New("no legal move")
	// ErrSessionClosed is returned once the session owner has stopped.
	ErrSessionClosed = errors.New("session closed")
	// ErrConnected is returned by NewGame while a peer is attached.
	ErrConnected = errors.New("cannot start a new game while connected")
)
