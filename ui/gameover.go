package ui

import (
	"fmt"

	"github.com/rivo/tview"
)

// NewGameOverModal announces the final score. done receives true when the
// player asks for another game.
func NewGameOverModal(dark, light int, done func(again bool)) *tview.Modal {
	modal := tview.NewModal().
		SetText(fmt.Sprintf("Game over\n\n%s", finalLine(dark, light))).
		AddButtons([]string{"New Game", "Close"}).
		SetDoneFunc(func(buttonIndex int, buttonLabel string) {
			done(buttonIndex == 0)
		})
	modal.SetBackgroundColor(MenuColors.ModalBG)
	modal.SetButtonBackgroundColor(MenuColors.ButtonBG)
	modal.SetButtonTextColor(MenuColors.ButtonText)
	return modal
}
