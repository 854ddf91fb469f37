package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Board notation:
// - Columns: a-h (left to right)
// - Rows: 1-8 (from bottom of board)
// - Example: d3, e6
//
// Internal coordinate system:
// - Row: 0-7 (top to bottom)
// - Col: 0-7 (left to right)
// - Example: (5, 3) for d3

// Pos is a board position.
type Pos struct {
	Row int
	Col int
}

// Valid reports whether the position lies on the board.
func (p Pos) Valid() bool {
	return InBounds(p.Row, p.Col)
}

// String converts the position to board notation: (0,0) -> a8, (7,7) -> h1.
func (p Pos) String() string {
	if !p.Valid() {
		return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
	}
	return fmt.Sprintf("%c%d", 'a'+rune(p.Col), Size-p.Row)
}

// ParsePos converts board notation back to a position.
// d3 -> (5,3), a8 -> (0,0).
func ParsePos(s string) (Pos, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if len(s) < 2 {
		return Pos{}, fmt.Errorf("invalid position: %q", s)
	}

	col := int(s[0] - 'a')
	if col < 0 || col >= Size {
		return Pos{}, fmt.Errorf("invalid column in position: %q", s)
	}

	n, err := strconv.Atoi(s[1:])
	if err != nil || n < 1 || n > Size {
		return Pos{}, fmt.Errorf("invalid row in position: %q", s)
	}

	return Pos{Row: Size - n, Col: col}, nil
}
