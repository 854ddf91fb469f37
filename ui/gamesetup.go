package ui

import (
	"net"
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"termversi/config"
	"termversi/game"
	"termversi/types"
)

// GameSetupUI provides a form for configuring a new game.
type GameSetupUI struct {
	form     *tview.Form
	flex     *tview.Flex
	onStart  func(game.GameConfig)
	onCancel func()

	cfg game.GameConfig
}

// NewGameSetup creates a new game setup form seeded from the config defaults.
func NewGameSetup(defaults *config.Config, onStart func(game.GameConfig), onCancel func()) *GameSetupUI {
	computer, _ := defaults.Game.Computer()
	setup := &GameSetupUI{
		onStart:  onStart,
		onCancel: onCancel,
		cfg: game.GameConfig{
			Mode:       game.ModeLocal,
			LocalColor: defaults.Game.LocalColor(),
			Address:    defaults.Network.Address(),
			Seed:       defaults.Game.Seed,
		},
	}
	if computer {
		setup.cfg.LocalPlayer = game.Computer
	}

	modes := []string{"Local (vs computer)", "Host a network game", "Join a network game"}
	colors := []string{"Dark (play first)", "Light (play second)"}
	players := []string{"Human", "Computer"}

	colorIndex := 0
	if setup.cfg.LocalColor == types.Light {
		colorIndex = 1
	}

	host, port, err := net.SplitHostPort(setup.cfg.Address)
	if err != nil {
		host, port = defaults.Network.Host, strconv.Itoa(defaults.Network.Port)
	}

	form := tview.NewForm()

	form.AddDropDown("Mode", modes, 0, func(option string, index int) {
		setup.cfg.Mode = game.Mode(index)
	})

	form.AddDropDown("Your Color", colors, colorIndex, func(option string, index int) {
		setup.cfg.LocalColor = types.Dark
		if index == 1 {
			setup.cfg.LocalColor = types.Light
		}
	})

	form.AddDropDown("Network Player", players, int(setup.cfg.LocalPlayer), func(option string, index int) {
		setup.cfg.LocalPlayer = game.Player(index)
	})

	form.AddInputField("Host", host, 24, nil, func(text string) {
		host = strings.TrimSpace(text)
	})

	form.AddInputField("Port", port, 8, func(text string, lastChar rune) bool {
		return lastChar >= '0' && lastChar <= '9'
	}, func(text string) {
		port = strings.TrimSpace(text)
	})

	form.AddButton("Start Game", func() {
		cfg := setup.cfg
		cfg.Address = net.JoinHostPort(host, port)
		onStart(cfg)
	})

	form.AddButton("Quit", func() {
		onCancel()
	})

	form.SetBorder(true)
	form.SetTitle(" New Game ")
	form.SetTitleAlign(tview.AlignCenter)
	form.SetBorderColor(MenuColors.Border)
	form.SetTitleColor(MenuColors.Title)
	form.SetLabelColor(MenuColors.Label)
	form.SetButtonBackgroundColor(MenuColors.ButtonBG)
	form.SetButtonTextColor(MenuColors.ButtonText)

	helpText := tview.NewTextView().
		SetText("Tab/Shift+Tab: navigate fields  |  Arrow keys: change dropdown  |  Enter: confirm  |  Ctrl+Q: quit").
		SetTextAlign(tview.AlignCenter)
	helpText.SetTextColor(MenuColors.Hint)

	flex := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(form, 0, 1, true).
		AddItem(helpText, 1, 0, false)

	setup.form = form
	setup.flex = flex
	return setup
}

// Form returns the flex container with form and help text.
func (s *GameSetupUI) Form() *tview.Flex {
	return s.flex
}

// Config returns the choices made so far, without the address fields.
func (s *GameSetupUI) Config() game.GameConfig {
	return s.cfg
}

// SetInputCapture sets the input capture function for the form.
func (s *GameSetupUI) SetInputCapture(capture func(event *tcell.EventKey) *tcell.EventKey) {
	s.form.SetInputCapture(capture)
}
