// Package ui provides custom controls for tview to play Reversi in the terminal.
package ui

import (
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"termversi/config"
	"termversi/engine"
	"termversi/game"
	"termversi/types"
)

// Actions is what the board asks of a running match.
type Actions interface {
	Play(row, col int) error
	PlayComputer() error
	NewGame() error
}

// labelWidth is the space left of the grid for row numbers.
const labelWidth = 3

type BoardUI struct {
	Box    *tview.Box
	View   game.View
	cfg    *config.Config
	panel  *StatusPanel
	act    Actions
	selRow int
	selCol int
	styles []tcell.Color

	mu      sync.Mutex
	pending *game.View
}

func NewBoard(c *config.Config, panel *StatusPanel) *BoardUI {
	board := &BoardUI{
		Box:    tview.NewBox(),
		View:   game.View{State: types.GameState{Board: types.NewBoard(), CurrentPlayer: types.FirstPlayer}},
		panel:  panel,
		selRow: -1,
		selCol: -1,
	}
	board.SetConfig(c)
	board.Box.SetDrawFunc(func(screen tcell.Screen, x int, y int, width int, height int) (int, int, int, int) {
		var hints types.Board
		if board.cfg.Theme.ShowLegalMoves && board.View.MayAct {
			for _, m := range engine.LegalMoves(&board.View.State.Board, board.View.LocalColor) {
				hints[m.Row][m.Col] = board.View.LocalColor
			}
		}

		for row := 0; row < types.Size; row++ {
			for col := 0; col < types.Size; col++ {
				bg := board.styles[0]
				if board.cfg.Theme.CheckeredBoard && (row+col)%2 == 1 {
					bg = board.styles[1]
				}
				fg := board.styles[4]
				r := board.cfg.Theme.Symbols.Empty

				switch board.View.State.Board[row][col] {
				case types.Dark:
					fg, r = board.styles[2], board.cfg.Theme.Symbols.DarkDisc
				case types.Light:
					fg, r = board.styles[3], board.cfg.Theme.Symbols.LightDisc
				default:
					if hints[row][col] != types.Empty {
						r = board.cfg.Theme.Symbols.Hint
					}
				}

				if row == board.selRow && col == board.selCol {
					if board.cfg.Theme.DrawCursorBackground {
						bg = board.styles[6]
					} else if r == board.cfg.Theme.Symbols.Empty {
						r = '+'
					}
				}
				drawCell(screen, tcell.StyleDefault.Background(bg).Foreground(fg), r, row, col, x+labelWidth, y)
			}
		}
		board.drawCoordinates(screen, x, y)
		return x, y, types.Size*2 + labelWidth, types.Size + 1
	})
	return board
}

// Attach connects the board to a running session.
func (g *BoardUI) Attach(a Actions) {
	g.act = a
}

// SetView replaces the displayed frame. Call it on the UI goroutine.
func (g *BoardUI) SetView(v game.View) {
	g.View = v
	if v.Over {
		g.ResetSelection()
	}
	if g.panel != nil {
		g.panel.SetView(v)
	}
}

// Publish records v as the newest frame. It may be called from any
// goroutine; Flush applies it on the UI goroutine.
func (g *BoardUI) Publish(v game.View) {
	g.mu.Lock()
	g.pending = &v
	g.mu.Unlock()
}

// Flush applies the newest published frame, if any. Frames published
// before it are dropped.
func (g *BoardUI) Flush() {
	g.mu.Lock()
	v := g.pending
	g.pending = nil
	g.mu.Unlock()
	if v != nil {
		g.SetView(*v)
	}
}

func (g *BoardUI) SetConfig(c *config.Config) {
	g.styles = []tcell.Color{
		tcell.PaletteColor(c.Theme.Colors.BoardColor),    // 0
		tcell.PaletteColor(c.Theme.Colors.BoardColorAlt), // 1
		tcell.PaletteColor(c.Theme.Colors.DarkColor),     // 2
		tcell.PaletteColor(c.Theme.Colors.LightColor),    // 3
		tcell.PaletteColor(c.Theme.Colors.HintColor),     // 4
		tcell.PaletteColor(c.Theme.Colors.CursorColorFG), // 5
		tcell.PaletteColor(c.Theme.Colors.CursorColorBG), // 6
		tcell.PaletteColor(c.Theme.Colors.LabelColor),    // 7
	}
	g.cfg = c
}

func (g *BoardUI) SelectedTile() *types.Pos {
	if g.selRow == -1 && g.selCol == -1 {
		return nil
	}
	return &types.Pos{Row: g.selRow, Col: g.selCol}
}

func (g *BoardUI) MoveSelection(dRow, dCol int) {
	if g.View.Over {
		g.ResetSelection()
		return
	}
	if g.SelectedTile() == nil {
		g.selRow, g.selCol = types.Size/2-1, types.Size/2-1
		return
	}
	if !types.InBounds(g.selRow+dRow, g.selCol+dCol) {
		return
	}
	g.selRow += dRow
	g.selCol += dCol
}

func (g *BoardUI) ResetSelection() {
	g.selRow = -1
	g.selCol = -1
}

// PlaySelected plays the local color on the cursor cell.
func (g *BoardUI) PlaySelected() {
	sel := g.SelectedTile()
	if sel == nil || g.act == nil {
		return
	}
	g.report(g.act.Play(sel.Row, sel.Col))
}

// PlayComputer asks the computer to move for the local side.
func (g *BoardUI) PlayComputer() {
	if g.act == nil {
		return
	}
	g.report(g.act.PlayComputer())
}

// NewGame restarts the match.
func (g *BoardUI) NewGame() {
	if g.act == nil {
		return
	}
	g.ResetSelection()
	g.report(g.act.NewGame())
}

func (g *BoardUI) report(err error) {
	if g.panel != nil {
		g.panel.SetError(err)
	}
}

// InputHandler handles the board's key bindings and passes the rest on.
func (g *BoardUI) InputHandler(event *tcell.EventKey) *tcell.EventKey {
	switch event.Key() {
	case tcell.KeyUp:
		g.MoveSelection(-1, 0)
	case tcell.KeyDown:
		g.MoveSelection(1, 0)
	case tcell.KeyLeft:
		g.MoveSelection(0, -1)
	case tcell.KeyRight:
		g.MoveSelection(0, 1)
	case tcell.KeyEnter:
		g.PlaySelected()
	case tcell.KeyRune:
		switch event.Rune() {
		case 'h':
			g.MoveSelection(0, -1)
		case 'j':
			g.MoveSelection(1, 0)
		case 'k':
			g.MoveSelection(-1, 0)
		case 'l':
			g.MoveSelection(0, 1)
		case ' ':
			g.PlaySelected()
		case 'a':
			g.PlayComputer()
		case 'n':
			g.NewGame()
		default:
			return event
		}
	default:
		return event
	}
	return nil
}

// drawCell draws one square, 2 characters wide.
func drawCell(s tcell.Screen, c tcell.Style, r rune, row, col, l, t int) {
	s.SetContent(l+col*2, t+row, r, nil, c)
	s.SetContent(l+col*2+1, t+row, ' ', nil, c)
}

func (g *BoardUI) drawCoordinates(s tcell.Screen, x, y int) {
	hCoord := 'a'
	if g.cfg.Theme.FullWidthLetters {
		hCoord = 'ａ'
	}

	style := tcell.StyleDefault.Foreground(g.styles[7])
	highlight := tcell.StyleDefault.Background(g.styles[6]).Foreground(g.styles[5])

	for col := 0; col < types.Size; col++ {
		st := style
		if col == g.selCol {
			st = highlight
		}
		s.SetContent(x+labelWidth+col*2, y+types.Size, hCoord+rune(col), nil, st)
		s.SetContent(x+labelWidth+col*2+1, y+types.Size, ' ', nil, st)
	}

	for row := 0; row < types.Size; row++ {
		st := style
		if row == g.selRow {
			st = highlight
		}
		s.SetContent(x+1, y+row, rune('0'+types.Size-row), nil, st)
	}
}
