package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rivo/tview"

	"termversi/game"
	"termversi/types"
)

// StatusPanel displays the score, whose turn it is and the key bindings
// alongside the board.
type StatusPanel struct {
	box  *tview.TextView
	view game.View
	err  error
}

// NewStatusPanel creates a new status panel.
func NewStatusPanel() *StatusPanel {
	panel := &StatusPanel{
		box: tview.NewTextView(),
	}

	panel.box.SetDynamicColors(true)
	panel.box.SetBorder(false)
	panel.box.SetTextAlign(tview.AlignLeft)

	return panel
}

// Box returns the underlying tview component.
func (p *StatusPanel) Box() *tview.TextView {
	return p.box
}

// SetView updates the panel with the current frame and clears any error.
func (p *StatusPanel) SetView(v game.View) {
	p.view = v
	p.err = nil
	p.refresh()
}

// SetError shows the result of the last action. nil clears it.
func (p *StatusPanel) SetError(err error) {
	p.err = err
	p.refresh()
}

// Text returns the panel contents without color tags.
func (p *StatusPanel) Text() string {
	return p.box.GetText(true)
}

func (p *StatusPanel) refresh() {
	p.box.SetText(statusText(p.view, p.err))
}

func discName(c types.Cell) string {
	switch c {
	case types.Dark:
		return "Dark"
	case types.Light:
		return "Light"
	}
	return "-"
}

func statusText(v game.View, err error) string {
	var b strings.Builder
	st := v.State

	b.WriteString("[white::b]Score[-:-:-]\n")
	b.WriteString("[dimgray]──────────────────────[-:-:-]\n")
	fmt.Fprintf(&b, "[white]Dark:[-:-:-]  %2d\n", st.DarkScore)
	fmt.Fprintf(&b, "[white]Light:[-:-:-] %2d\n", st.LightScore)
	fmt.Fprintf(&b, "[white]You:[-:-:-]   %s\n", discName(v.LocalColor))

	b.WriteString("\n[white::b]Match[-:-:-]\n")
	b.WriteString("[dimgray]──────────────────────[-:-:-]\n")
	switch v.Mode {
	case game.ModeLocal:
		b.WriteString("vs computer\n")
	default:
		conn := "[red]offline[-]"
		if v.Connected {
			conn = "[green]connected[-]"
		}
		fmt.Fprintf(&b, "%s · %s\n", v.Mode, conn)
	}

	switch {
	case v.Over:
		b.WriteString(finalLine(st.DarkScore, st.LightScore) + "\n")
	case v.MayAct:
		fmt.Fprintf(&b, "[yellow]Your move[-] (%d legal)\n", st.ValidMoveCount)
	case v.Mode.Networked() && v.Connected:
		b.WriteString("Waiting for opponent\n")
	case v.Mode.Networked():
		b.WriteString("Waiting for connection\n")
	default:
		b.WriteString("Thinking...\n")
	}

	if v.Message != "" {
		fmt.Fprintf(&b, "[dimgray]%s[-]\n", tview.Escape(v.Message))
	}
	if err != nil {
		fmt.Fprintf(&b, "[red]%s[-]\n", tview.Escape(errorText(err)))
	}

	b.WriteString("\n[dimgray]hjkl/↑↓←→ move  ⏎ play\na computer move\nn new game  q quit[-]")
	return b.String()
}

func errorText(err error) string {
	switch {
	case errors.Is(err, game.ErrIllegalMove):
		return "Illegal move"
	case errors.Is(err, game.ErrNotYourTurn):
		return "Not your turn"
	case errors.Is(err, game.ErrGameOver):
		return "Game is over"
	case errors.Is(err, game.ErrConnected):
		return "Disconnect before starting a new game"
	}
	return err.Error()
}

// finalLine announces the result.
func finalLine(dark, light int) string {
	switch {
	case dark > light:
		return fmt.Sprintf("Dark wins %d-%d", dark, light)
	case light > dark:
		return fmt.Sprintf("Light wins %d-%d", light, dark)
	}
	return fmt.Sprintf("Draw %d-%d", dark, light)
}

// CreateGameLayout creates the main game layout with board and side panel.
func CreateGameLayout(board *BoardUI, panel *StatusPanel) *tview.Flex {
	boardRow := tview.NewFlex().SetDirection(tview.FlexColumn)
	boardRow.AddItem(nil, 2, 0, false)
	boardRow.AddItem(board.Box, types.Size*2+labelWidth+2, 0, true)
	boardRow.AddItem(panel.Box(), 0, 1, false)

	mainFlex := tview.NewFlex().SetDirection(tview.FlexRow)
	mainFlex.AddItem(nil, 1, 0, false)
	mainFlex.AddItem(boardRow, 0, 1, true)

	return mainFlex
}

// CreateCenteredForm creates a centered form container for the setup screen.
func CreateCenteredForm(form tview.Primitive, maxWidth int) *tview.Flex {
	centered := tview.NewFlex().SetDirection(tview.FlexColumn)
	centered.AddItem(nil, 0, 1, false)
	centered.AddItem(form, maxWidth, 0, true)
	centered.AddItem(nil, 0, 1, false)

	return centered
}
