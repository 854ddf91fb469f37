// Package game sequences Reversi turns and runs a match, locally against the
// computer or against a remote peer.
package game

import (
	"fmt"
	"math/rand"
	"time"

	"termversi/engine"
	"termversi/types"
)

// Controller applies single turns to a GameState and keeps its derived
// fields current. It does not skip a side that cannot move; the caller
// decides who plays next. A Controller is not safe for concurrent use.
type Controller struct {
	state types.GameState
	rng   *rand.Rand
}

// NewController returns a controller on the opening position with Dark to
// move. rng drives computer tie-breaks; nil seeds one from the clock.
func NewController(rng *rand.Rand) *Controller {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	c := &Controller{rng: rng}
	c.Reset()
	return c
}

// State returns a copy of the current game state.
func (c *Controller) State() types.GameState {
	return c.state
}

// Snapshot returns an immutable copy of the board.
func (c *Controller) Snapshot() types.Snapshot {
	return types.NewSnapshot(c.state.Board)
}

// Reset starts a fresh match.
func (c *Controller) Reset() {
	c.Restore(types.NewSnapshot(types.NewBoard()), types.FirstPlayer)
}

// Restore replaces the board wholesale and recomputes scores and the move
// count for toMove.
func (c *Controller) Restore(s types.Snapshot, toMove types.Cell) {
	c.state.Board = s.Board()
	c.SetCurrentPlayer(toMove)
	c.UpdateScore()
}

// SetCurrentPlayer hands the turn to color and recounts its legal moves.
func (c *Controller) SetCurrentPlayer(color types.Cell) {
	if !color.IsColor() {
		color = types.FirstPlayer
	}
	c.state.CurrentPlayer = color
	c.UpdateValidMoveCount(color)
}

// IsLegal reports whether color may play at (row, col) on the current board.
func (c *Controller) IsLegal(row, col int, color types.Cell) bool {
	return engine.IsLegal(&c.state.Board, row, col, color)
}

// HumanTurn plays color at (row, col) and passes the turn to the opponent
// unconditionally. Off-board coordinates and illegal targets are rejected
// without touching the state.
func (c *Controller) HumanTurn(row, col int, color types.Cell) (types.Snapshot, error) {
	if !types.InBounds(row, col) {
		return c.Snapshot(), fmt.Errorf("%w: (%d,%d)", ErrInvalidLocation, row, col)
	}
	if !c.IsLegal(row, col, color) {
		return c.Snapshot(), fmt.Errorf("%w: %s at %s", ErrIllegalMove, color, types.Pos{Row: row, Col: col})
	}
	c.play(row, col, color)
	return c.Snapshot(), nil
}

// ComputerTurn plays the greedy move for color. It fails with
// ErrNoLegalMove, leaving the state unchanged, when color cannot move.
func (c *Controller) ComputerTurn(color types.Cell) (types.Move, types.Snapshot, error) {
	pos, ok := engine.SelectComputerMove(&c.state.Board, color, c.rng)
	if !ok {
		return types.Move{}, c.Snapshot(), fmt.Errorf("%w for %s", ErrNoLegalMove, color)
	}
	c.play(pos.Row, pos.Col, color)
	return types.Move{Row: pos.Row, Col: pos.Col, Color: color}, c.Snapshot(), nil
}

func (c *Controller) play(row, col int, color types.Cell) {
	engine.ApplyMove(&c.state.Board, row, col, color)
	c.UpdateScore()
	c.SetCurrentPlayer(color.Opponent())
}

// UpdateValidMoveCount recounts the legal moves for color and stores the
// result.
func (c *Controller) UpdateValidMoveCount(color types.Cell) int {
	c.state.ValidMoveCount = engine.CountLegalMoves(&c.state.Board, color)
	return c.state.ValidMoveCount
}

// UpdateScore recounts both colors from the board.
func (c *Controller) UpdateScore() {
	c.state.DarkScore = c.state.Board.Count(types.Dark)
	c.state.LightScore = c.state.Board.Count(types.Light)
}

// IsGameOver reports whether the board is full or neither side can move.
// The opponent is only consulted when the current player is stuck, and its
// count is not stored.
func (c *Controller) IsGameOver() bool {
	if c.state.Board.Full() {
		return true
	}
	if c.UpdateValidMoveCount(c.state.CurrentPlayer) > 0 {
		return false
	}
	return engine.CountLegalMoves(&c.state.Board, c.state.CurrentPlayer.Opponent()) == 0
}
