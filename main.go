// termversi is a terminal application to play Reversi against the computer
// or against another player over TCP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"

	"termversi/config"
	"termversi/game"
	"termversi/logging"
	"termversi/peer"
	"termversi/snapshot"
	"termversi/types"
	"termversi/ui"
)

// Version is set at build time via ldflags
var Version = "dev"

// Command-line flags
var (
	flagHost       = flag.Bool("host", false, "Host a network game and wait for a peer")
	flagJoin       = flag.String("join", "", "Join a network game at host:port")
	flagPort       = flag.Int("port", 0, "Port to listen on when hosting")
	flagColor      = flag.String("color", "", "Your color in a local game (dark or light)")
	flagComputer   = flag.Bool("computer", false, "Let the computer play your side of a network game")
	flagSeed       = flag.Int64("seed", 0, "Random seed for computer tie-breaks")
	flagSave       = flag.String("save", "", "Save file path")
	flagQuickStart = flag.Bool("play", false, "Start game immediately with defaults")
	flagVersion    = flag.Bool("version", false, "Print version and exit")
)

var app *tview.Application
var rootPage *tview.Pages
var gameBoard *ui.BoardUI
var gamePanel *ui.StatusPanel
var cfg *config.Config
var logger *zap.Logger

// stopMatch cancels the running session and its connection, if any.
var stopMatch context.CancelFunc = func() {}

func main() {
	flag.Parse()

	if *flagVersion {
		fmt.Printf("termversi %s\n", Version)
		return
	}

	var err error
	cfg, err = config.InitConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logPath, err := cfg.LogPath()
	if err != nil {
		logPath = ""
	}
	logger, err = logging.New(logPath, cfg.Debug)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()
	logger.Info("starting termversi", zap.String("version", Version))

	quickStart := *flagQuickStart || *flagHost || *flagJoin != "" || *flagColor != "" || *flagComputer

	app = tview.NewApplication()
	rootPage = tview.NewPages()
	rootPage.SetBorder(true).SetTitle(" ● termversi ")

	gamePanel = ui.NewStatusPanel()
	gameBoard = ui.NewBoard(cfg, gamePanel)
	gameFrame := ui.CreateGameLayout(gameBoard, gamePanel)

	gameBoard.Box.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyRune && event.Rune() == 'q' {
			if gameBoard.SelectedTile() != nil {
				gameBoard.ResetSelection()
			} else {
				stopMatch()
				rootPage.SwitchToPage("setup")
			}
			return nil
		}
		return gameBoard.InputHandler(event)
	})

	setupUI := ui.NewGameSetup(cfg,
		func(gameCfg game.GameConfig) {
			rememberSetup(gameCfg)
			startGame(gameCfg)
		},
		func() {
			app.Stop()
		},
	)

	setupUI.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyCtrlQ {
			app.Stop()
			return nil
		}
		return event
	})

	rootPage.AddPage("setup", ui.CreateCenteredForm(setupUI.Form(), 60), true, !quickStart)
	rootPage.AddPage("gameview", gameFrame, true, quickStart)

	if quickStart {
		gameCfg, err := buildGameConfigFromFlags()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		startGame(gameCfg)
	}

	if err := app.SetRoot(rootPage, true).Run(); err != nil {
		logger.Error("ui stopped", zap.Error(err))
	}
	stopMatch()
}

// startGame starts a session with the given configuration and, for network
// modes, connects it to the peer in the background.
func startGame(gameCfg game.GameConfig) {
	stopMatch()

	savePath, err := saveFilePath()
	if err != nil {
		showError(fmt.Errorf("locate save file: %w", err))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	stopMatch = cancel

	session := game.NewSession(gameCfg, snapshot.NewStore(savePath), game.Hooks{
		Render: func(v game.View) {
			gameBoard.Publish(v)
			// Spawn goroutine to avoid deadlock when called from the UI goroutine
			go func() {
				app.QueueUpdateDraw(gameBoard.Flush)
			}()
		},
		GameOver: func(dark, light int) {
			go func() {
				app.QueueUpdateDraw(func() {
					showGameOver(dark, light)
				})
			}()
		},
	}, logger)
	gameBoard.Attach(session)
	gameBoard.ResetSelection()

	go session.Run(ctx)

	switch session.Config().Mode {
	case game.ModeHost:
		go hostGame(ctx, session)
	case game.ModeJoin:
		go joinGame(ctx, session)
	}

	rootPage.SwitchToPage("gameview")
}

// saveFilePath returns the -save flag when given. It is never written back
// to config.json.
func saveFilePath() (string, error) {
	if *flagSave != "" {
		return *flagSave, nil
	}
	return cfg.SavePath()
}

// rememberSetup keeps the setup form's choices as next run's defaults.
func rememberSetup(gameCfg game.GameConfig) {
	err := cfg.Remember(gameCfg.LocalColor, gameCfg.LocalPlayer == game.Computer, gameCfg.Address)
	if err == nil {
		err = cfg.Save()
	}
	if err != nil {
		logger.Warn("could not save setup defaults", zap.Error(err))
	}
}

func hostGame(ctx context.Context, session *game.Session) {
	ln, err := peer.Listen(session.Config().Address, logger)
	if err != nil {
		reportError(err)
		return
	}
	defer ln.Close()

	conn, err := ln.Accept(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			reportError(err)
		}
		return
	}
	ln.Close()
	serve(ctx, session, conn)
}

func joinGame(ctx context.Context, session *game.Session) {
	conn, err := peer.Dial(ctx, session.Config().Address, logger)
	if err != nil {
		reportError(err)
		return
	}
	serve(ctx, session, conn)
}

func serve(ctx context.Context, session *game.Session, conn *peer.Conn) {
	err := session.Serve(ctx, conn)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, game.ErrSessionClosed) {
		logger.Warn("match connection ended", zap.String("conn", conn.ID()), zap.Error(err))
	}
}

func reportError(err error) {
	logger.Warn("network setup failed", zap.Error(err))
	go func() {
		app.QueueUpdateDraw(func() {
			gamePanel.SetError(err)
		})
	}()
}

func showGameOver(dark, light int) {
	modal := ui.NewGameOverModal(dark, light, func(again bool) {
		rootPage.RemovePage("gameover")
		if again {
			gameBoard.NewGame()
		}
		app.SetFocus(gameBoard.Box)
	})
	rootPage.AddPage("gameover", modal, true, true)
}

func showError(err error) {
	modal := tview.NewModal().
		SetText(fmt.Sprintf("Failed to start game:\n%s", err.Error())).
		AddButtons([]string{"OK"}).
		SetDoneFunc(func(buttonIndex int, buttonLabel string) {
			rootPage.RemovePage("error")
		})
	rootPage.AddPage("error", modal, true, true)
}

// buildGameConfigFromFlags creates a GameConfig from the config defaults and
// command-line flags.
func buildGameConfigFromFlags() (game.GameConfig, error) {
	gameCfg := game.GameConfig{
		Mode:       game.ModeLocal,
		LocalColor: cfg.Game.LocalColor(),
		Address:    cfg.Network.Address(),
		Seed:       cfg.Game.Seed,
	}
	if computer, _ := cfg.Game.Computer(); computer || *flagComputer {
		gameCfg.LocalPlayer = game.Computer
	}

	if *flagColor != "" {
		c, err := types.ParseColor(*flagColor)
		if err != nil {
			return gameCfg, err
		}
		gameCfg.LocalColor = c
	}

	switch {
	case *flagHost && *flagJoin != "":
		return gameCfg, errors.New("-host and -join are mutually exclusive")
	case *flagHost:
		gameCfg.Mode = game.ModeHost
		port := cfg.Network.Port
		if *flagPort > 0 {
			port = *flagPort
		}
		gameCfg.Address = ":" + strconv.Itoa(port)
	case *flagJoin != "":
		gameCfg.Mode = game.ModeJoin
		gameCfg.Address = *flagJoin
	}

	if *flagSeed != 0 {
		gameCfg.Seed = *flagSeed
	}
	return gameCfg, nil
}
