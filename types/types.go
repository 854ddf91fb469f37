// Package types contains shared data structures for termversi.
package types

import (
	"fmt"
	"strings"
)

// Size is the number of rows and columns on a Reversi board.
const Size = 8

// Cell is the content of a single square: Empty, Dark or Light.
// Dark and Light double as player colors.
type Cell int8

const (
	Empty Cell = 0
	Dark  Cell = 1
	Light Cell = 2
)

// FirstPlayer is the color that opens a fresh match.
const FirstPlayer = Dark

// Opponent returns the other color. Empty has no opponent.
func (c Cell) Opponent() Cell {
	switch c {
	case Dark:
		return Light
	case Light:
		return Dark
	}
	return Empty
}

// Valid reports whether c is one of the three cell values.
func (c Cell) Valid() bool {
	return c == Empty || c == Dark || c == Light
}

// IsColor reports whether c is a player color.
func (c Cell) IsColor() bool {
	return c == Dark || c == Light
}

func (c Cell) String() string {
	switch c {
	case Empty:
		return "empty"
	case Dark:
		return "dark"
	case Light:
		return "light"
	}
	return fmt.Sprintf("cell(%d)", int8(c))
}

// ParseColor converts "dark"/"d"/"black"/"b" and "light"/"l"/"white"/"w" to a color.
func ParseColor(s string) (Cell, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dark", "d", "black", "b":
		return Dark, nil
	case "light", "l", "white", "w":
		return Light, nil
	}
	return Empty, fmt.Errorf("unknown color %q", s)
}

// Board is the 8x8 grid, indexed as Board[row][col].
type Board [Size][Size]Cell

// NewBoard returns the opening position: Light on (3,3) and (4,4),
// Dark on (3,4) and (4,3).
func NewBoard() Board {
	var b Board
	mid := Size / 2
	b[mid-1][mid-1], b[mid][mid] = Light, Light
	b[mid-1][mid], b[mid][mid-1] = Dark, Dark
	return b
}

// InBounds reports whether (row, col) lies on the board.
func InBounds(row, col int) bool {
	return row >= 0 && row < Size && col >= 0 && col < Size
}

// At returns the cell at (row, col), or Empty when off the board.
func (b *Board) At(row, col int) Cell {
	if !InBounds(row, col) {
		return Empty
	}
	return b[row][col]
}

// Set writes v at (row, col). Off-board writes are ignored.
func (b *Board) Set(row, col int, v Cell) {
	if InBounds(row, col) {
		b[row][col] = v
	}
}

// Count returns how many cells hold v.
func (b *Board) Count(v Cell) int {
	n := 0
	for row := range b {
		for col := range b[row] {
			if b[row][col] == v {
				n++
			}
		}
	}
	return n
}

// Full reports whether no Empty cells remain.
func (b *Board) Full() bool {
	return b.Count(Empty) == 0
}

// String renders the board one row per line using '.', 'D' and 'L'.
func (b Board) String() string {
	var sb strings.Builder
	for row := range b {
		for col := range b[row] {
			sb.WriteByte(cellRune(b[row][col]))
		}
		if row < Size-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// ParseBoard builds a board from Size rows of Size characters in the
// String format. Whitespace inside a row is ignored.
func ParseBoard(rows ...string) (Board, error) {
	var b Board
	if len(rows) != Size {
		return b, fmt.Errorf("board needs %d rows, got %d", Size, len(rows))
	}
	for r, line := range rows {
		line = strings.Join(strings.Fields(line), "")
		if len(line) != Size {
			return b, fmt.Errorf("row %d needs %d cells, got %d", r, Size, len(line))
		}
		for c := 0; c < Size; c++ {
			switch line[c] {
			case '.':
				b[r][c] = Empty
			case 'D', 'd':
				b[r][c] = Dark
			case 'L', 'l':
				b[r][c] = Light
			default:
				return b, fmt.Errorf("row %d col %d: invalid cell %q", r, c, line[c])
			}
		}
	}
	return b, nil
}

func cellRune(c Cell) byte {
	switch c {
	case Dark:
		return 'D'
	case Light:
		return 'L'
	}
	return '.'
}

// Snapshot is an immutable copy of a board at a point in time. It is the
// only thing exchanged with a remote peer and written to the save file.
type Snapshot struct {
	board Board
}

// NewSnapshot copies b into a snapshot.
func NewSnapshot(b Board) Snapshot {
	return Snapshot{board: b}
}

// Board returns a copy of the snapshot's grid.
func (s Snapshot) Board() Board {
	return s.board
}

// At returns the cell at (row, col).
func (s Snapshot) At(row, col int) Cell {
	return s.board.At(row, col)
}

func (s Snapshot) String() string {
	return s.board.String()
}

// GameState is the board plus the values derived from it.
// DarkScore and LightScore always equal the disc counts, and
// ValidMoveCount is the number of legal moves for CurrentPlayer.
type GameState struct {
	Board          Board
	CurrentPlayer  Cell
	DarkScore      int
	LightScore     int
	ValidMoveCount int
}

// Score returns the disc count for color.
func (g *GameState) Score(color Cell) int {
	if color == Dark {
		return g.DarkScore
	}
	return g.LightScore
}

// Move is a single placement.
type Move struct {
	Row   int
	Col   int
	Color Cell
}

// Pos returns the move's coordinates.
func (m Move) Pos() Pos {
	return Pos{Row: m.Row, Col: m.Col}
}
