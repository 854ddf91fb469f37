package ui

import "github.com/gdamore/tcell/v2"

// MenuColors defines the palette for the setup form and dialogs.
var MenuColors = struct {
	Border     tcell.Color
	Title      tcell.Color
	Label      tcell.Color
	Hint       tcell.Color
	ButtonBG   tcell.Color
	ButtonText tcell.Color
	ModalBG    tcell.Color
}{
	Border:     tcell.PaletteColor(65),  // muted green
	Title:      tcell.PaletteColor(255), // bright white
	Label:      tcell.PaletteColor(250), // light gray
	Hint:       tcell.PaletteColor(245), // dim gray
	ButtonBG:   tcell.PaletteColor(28),  // board green
	ButtonText: tcell.PaletteColor(255),
	ModalBG:    tcell.PaletteColor(236), // dark gray
}
