// Package engine implements the Reversi move rules: legality, captures and
// greedy move selection for the computer player.
package engine

import (
	"math/rand"

	"termversi/types"
)

// Direction is a unit step on the board.
type Direction struct {
	DRow int
	DCol int
}

// Directions lists the eight unit vectors a capture can run along.
var Directions = [8]Direction{
	{0, 1}, {0, -1}, {1, 0}, {-1, 0},
	{1, 1}, {-1, 1}, {-1, -1}, {1, -1},
}

// Candidate is a legal destination and the number of discs it would flip.
type Candidate struct {
	Row      int
	Col      int
	Captures int
}

// Pos returns the candidate's coordinates.
func (c Candidate) Pos() types.Pos {
	return types.Pos{Row: c.Row, Col: c.Col}
}

// run returns the length of the opposite-color run starting next to
// (row, col) in direction d, or 0 when the run is empty or is not closed
// by a disc of color.
func run(b *types.Board, row, col int, d Direction, color types.Cell) int {
	opp := color.Opponent()
	n := 0
	r, c := row+d.DRow, col+d.DCol
	for types.InBounds(r, c) {
		switch b[r][c] {
		case opp:
			n++
		case color:
			return n
		default:
			return 0
		}
		r += d.DRow
		c += d.DCol
	}
	return 0
}

// IsLegal reports whether color may play at (row, col). Off-board and
// occupied targets are never legal.
func IsLegal(b *types.Board, row, col int, color types.Cell) bool {
	if !types.InBounds(row, col) || !color.IsColor() {
		return false
	}
	if b[row][col] != types.Empty {
		return false
	}
	for _, d := range Directions {
		if run(b, row, col, d, color) > 0 {
			return true
		}
	}
	return false
}

// Captures returns how many discs a move at (row, col) would flip, or 0
// when the move is illegal. The board is not modified.
func Captures(b *types.Board, row, col int, color types.Cell) int {
	if !IsLegal(b, row, col, color) {
		return 0
	}
	total := 0
	for _, d := range Directions {
		total += run(b, row, col, d, color)
	}
	return total
}

// ApplyMove places color at (row, col) and flips every closed run in each
// direction. It returns the number of discs flipped. An illegal move
// leaves the board untouched and returns 0.
func ApplyMove(b *types.Board, row, col int, color types.Cell) int {
	if !IsLegal(b, row, col, color) {
		return 0
	}
	b[row][col] = color
	total := 0
	for _, d := range Directions {
		n := run(b, row, col, d, color)
		r, c := row, col
		for i := 0; i < n; i++ {
			r += d.DRow
			c += d.DCol
			b[r][c] = color
		}
		total += n
	}
	return total
}

// LegalMoves scans all 64 cells and returns every legal destination for
// color with its capture count, in row-major order.
func LegalMoves(b *types.Board, color types.Cell) []Candidate {
	var moves []Candidate
	for row := 0; row < types.Size; row++ {
		for col := 0; col < types.Size; col++ {
			if n := Captures(b, row, col, color); n > 0 {
				moves = append(moves, Candidate{Row: row, Col: col, Captures: n})
			}
		}
	}
	return moves
}

// CountLegalMoves returns len(LegalMoves(b, color)).
func CountLegalMoves(b *types.Board, color types.Cell) int {
	n := 0
	for row := 0; row < types.Size; row++ {
		for col := 0; col < types.Size; col++ {
			if IsLegal(b, row, col, color) {
				n++
			}
		}
	}
	return n
}

// SelectComputerMove picks the legal move with the most captures. Ties are
// broken uniformly at random among all moves sharing the maximum, using rng.
// ok is false when color has no legal move.
func SelectComputerMove(b *types.Board, color types.Cell, rng *rand.Rand) (pos types.Pos, ok bool) {
	moves := LegalMoves(b, color)
	if len(moves) == 0 {
		return types.Pos{}, false
	}

	best := 0
	for _, m := range moves {
		if m.Captures > best {
			best = m.Captures
		}
	}

	var top []Candidate
	for _, m := range moves {
		if m.Captures == best {
			top = append(top, m)
		}
	}

	pick := top[0]
	if len(top) > 1 {
		pick = top[rng.Intn(len(top))]
	}
	return pick.Pos(), true
}
