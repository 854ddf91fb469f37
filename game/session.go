package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"termversi/logging"
	"termversi/types"
)

// Store persists the board between runs.
type Store interface {
	Save(types.Snapshot) error
	Load() (types.Snapshot, bool, error)
	Delete() error
}

// Link carries snapshots to and from a remote peer.
type Link interface {
	Send(types.Snapshot) error
	Receive(ctx context.Context, handle func(types.Snapshot)) error
	Close() error
}

// View is what the UI needs to draw one frame.
type View struct {
	State      types.GameState
	LocalColor types.Cell
	Mode       Mode
	MayAct     bool // the local side may originate a move now
	Connected  bool
	Over       bool
	Message    string
}

// Hooks are called on the session goroutine after each state change.
// They must not call back into the session synchronously.
type Hooks struct {
	Render   func(View)
	GameOver func(dark, light int)
}

type command struct {
	fn     func() error
	result chan error // nil for fire-and-forget posts
}

// Session owns a match. All mutation happens on the goroutine running Run;
// every exported method hands its work to that goroutine and waits.
type Session struct {
	cfg   GameConfig
	ctrl  *Controller
	store Store
	hooks Hooks
	log   *zap.Logger

	cmds chan command
	done chan struct{}

	// Owned by the Run goroutine.
	link    Link
	mayAct  bool
	over    bool
	message string
}

// NewSession prepares a match. store and log may be nil.
func NewSession(cfg GameConfig, store Store, hooks Hooks, log *zap.Logger) *Session {
	cfg = cfg.Normalize()
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	log = logging.OrNop(log).With(zap.Stringer("mode", cfg.Mode), zap.Stringer("color", cfg.LocalColor))
	return &Session{
		cfg:   cfg,
		ctrl:  NewController(rand.New(rand.NewSource(seed))),
		store: store,
		hooks: hooks,
		log:   log,
		cmds:  make(chan command, 16),
		done:  make(chan struct{}),
	}
}

// Config returns the normalized configuration.
func (s *Session) Config() GameConfig {
	return s.cfg
}

// Done is closed once Run has returned.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Run restores any saved board, starts the match and processes commands
// until ctx is cancelled.
func (s *Session) Run(ctx context.Context) error {
	defer close(s.done)

	s.restore()
	s.start()
	s.render()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case c := <-s.cmds:
			err := c.fn()
			if c.result != nil {
				c.result <- err
			}
		}
	}
}

func (s *Session) do(fn func() error) error {
	c := command{fn: fn, result: make(chan error, 1)}
	select {
	case s.cmds <- c:
	case <-s.done:
		return ErrSessionClosed
	}
	select {
	case err := <-c.result:
		return err
	case <-s.done:
		return ErrSessionClosed
	}
}

func (s *Session) post(fn func()) {
	select {
	case s.cmds <- command{fn: func() error { fn(); return nil }}:
	case <-s.done:
	}
}

// View returns the current frame.
func (s *Session) View() (View, error) {
	var v View
	err := s.do(func() error {
		v = s.view()
		return nil
	})
	return v, err
}

// Play places the local color at (row, col).
func (s *Session) Play(row, col int) error {
	return s.do(func() error {
		if err := s.ready(); err != nil {
			return err
		}
		snap, err := s.ctrl.HumanTurn(row, col, s.cfg.LocalColor)
		if err != nil {
			s.log.Debug("move rejected", zap.Int("row", row), zap.Int("col", col), zap.Error(err))
			return err
		}
		s.log.Info("move played",
			zap.Stringer("pos", types.Pos{Row: row, Col: col}),
			zap.Stringer("by", s.cfg.LocalColor))
		s.message = ""
		s.afterLocalMove(snap)
		s.render()
		return nil
	})
}

// PlayComputer lets the computer choose the local side's move.
func (s *Session) PlayComputer() error {
	return s.do(func() error {
		if err := s.ready(); err != nil {
			return err
		}
		mv, snap, err := s.ctrl.ComputerTurn(s.cfg.LocalColor)
		if err != nil {
			return err
		}
		s.log.Info("computer played for local side", zap.Stringer("pos", mv.Pos()))
		s.message = fmt.Sprintf("computer played %s", mv.Pos())
		s.afterLocalMove(snap)
		s.render()
		return nil
	})
}

// NewGame discards the current match. It is refused while a peer is
// attached.
func (s *Session) NewGame() error {
	return s.do(func() error {
		if s.link != nil {
			return ErrConnected
		}
		s.ctrl.Reset()
		s.over = false
		s.message = "new game"
		s.forget()
		s.log.Info("new game")
		s.start()
		s.render()
		return nil
	})
}

// Serve attaches link and runs its receive loop until the connection ends
// or ctx is cancelled. The board stays as it was when the link drops.
func (s *Session) Serve(ctx context.Context, link Link) error {
	err := s.do(func() error {
		if !s.cfg.Mode.Networked() {
			return fmt.Errorf("cannot attach a peer in %s mode", s.cfg.Mode)
		}
		if s.link != nil {
			return ErrConnected
		}
		s.link = link
		s.message = "connected"
		s.log.Info("peer attached")
		if s.cfg.Mode == ModeHost && !s.over {
			s.takeTurn()
		}
		s.render()
		return nil
	})
	if err != nil {
		return err
	}

	err = link.Receive(ctx, func(snap types.Snapshot) {
		s.post(func() { s.receive(snap) })
	})
	link.Close()
	s.post(func() { s.detach(link, err) })
	return err
}

func (s *Session) ready() error {
	if s.over {
		return ErrGameOver
	}
	if !s.mayAct {
		return ErrNotYourTurn
	}
	return nil
}

func (s *Session) restore() {
	if s.store == nil {
		return
	}
	snap, ok, err := s.store.Load()
	if err != nil {
		s.log.Warn("could not load saved game", zap.Error(err))
		return
	}
	if !ok {
		return
	}
	toMove := s.cfg.LocalColor
	if s.cfg.Mode.Networked() {
		toMove = types.FirstPlayer
	}
	s.ctrl.Restore(snap, toMove)
	s.message = "resumed saved game"
	s.log.Info("resumed saved game",
		zap.Int("dark", s.ctrl.State().DarkScore),
		zap.Int("light", s.ctrl.State().LightScore))
}

func (s *Session) start() {
	if s.cfg.Mode.Networked() {
		s.mayAct = false
		if s.link == nil && s.message == "" {
			s.message = "waiting for peer"
		}
		return
	}
	s.advanceLocal()
}

// advanceLocal plays the computer until the human can move or the game
// ends, passing for whichever side has no legal move.
func (s *Session) advanceLocal() {
	s.mayAct = false
	for !s.checkOver() {
		st := s.ctrl.State()
		if st.ValidMoveCount == 0 {
			s.message = fmt.Sprintf("%s has no legal move and passes", st.CurrentPlayer)
			s.log.Info("pass", zap.Stringer("by", st.CurrentPlayer))
			s.ctrl.SetCurrentPlayer(st.CurrentPlayer.Opponent())
			continue
		}
		if st.CurrentPlayer == s.cfg.LocalColor {
			s.mayAct = true
			return
		}
		mv, snap, err := s.ctrl.ComputerTurn(st.CurrentPlayer)
		if err != nil {
			s.log.Error("computer turn failed", zap.Error(err))
			return
		}
		s.log.Info("computer played", zap.Stringer("pos", mv.Pos()), zap.Stringer("by", mv.Color))
		s.persist(snap)
		s.render()
	}
}

// afterLocalMove hands the turn on. In local play the frame after the
// local move is rendered before the computer replies.
func (s *Session) afterLocalMove(snap types.Snapshot) {
	s.mayAct = false
	s.persist(snap)
	if !s.cfg.Mode.Networked() {
		s.render()
		s.advanceLocal()
		return
	}
	s.send(snap)
	s.checkOver()
}

// takeTurn runs when the turn reaches the local side of a networked match.
func (s *Session) takeTurn() {
	s.mayAct = false
	s.ctrl.SetCurrentPlayer(s.cfg.LocalColor)
	if s.checkOver() {
		return
	}
	if s.ctrl.State().ValidMoveCount == 0 {
		s.message = "no legal move, passing"
		s.log.Info("pass", zap.Stringer("by", s.cfg.LocalColor))
		s.ctrl.SetCurrentPlayer(s.cfg.LocalColor.Opponent())
		s.send(s.ctrl.Snapshot())
		return
	}
	if s.cfg.LocalPlayer == Computer {
		mv, snap, err := s.ctrl.ComputerTurn(s.cfg.LocalColor)
		if err != nil {
			s.log.Error("computer turn failed", zap.Error(err))
			return
		}
		s.log.Info("computer played", zap.Stringer("pos", mv.Pos()), zap.Stringer("by", mv.Color))
		s.afterLocalMove(snap)
		return
	}
	s.mayAct = true
}

func (s *Session) receive(snap types.Snapshot) {
	if s.over {
		s.log.Debug("ignoring snapshot after game over")
		return
	}
	s.ctrl.Restore(snap, s.cfg.LocalColor)
	s.persist(snap)
	s.message = ""
	s.takeTurn()
	s.render()
}

func (s *Session) send(snap types.Snapshot) {
	if s.link == nil {
		return
	}
	if err := s.link.Send(snap); err != nil {
		s.log.Warn("send failed", zap.Error(err))
		s.message = "connection lost"
		s.link.Close()
	}
}

func (s *Session) detach(link Link, err error) {
	if s.link != link {
		return
	}
	s.link = nil
	s.mayAct = false
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		s.message = "disconnected"
		s.log.Info("peer detached")
	default:
		s.message = "connection lost"
		s.log.Warn("peer connection lost", zap.Error(err))
	}
	s.render()
}

// checkOver ends the match once neither side can move. It reports whether
// the match is over.
func (s *Session) checkOver() bool {
	if s.over {
		return true
	}
	if !s.ctrl.IsGameOver() {
		return false
	}
	s.over = true
	s.mayAct = false
	st := s.ctrl.State()
	s.message = "game over"
	s.log.Info("game over", zap.Int("dark", st.DarkScore), zap.Int("light", st.LightScore))
	s.forget()
	if s.hooks.GameOver != nil {
		s.hooks.GameOver(st.DarkScore, st.LightScore)
	}
	return true
}

func (s *Session) persist(snap types.Snapshot) {
	if s.store == nil {
		return
	}
	if err := s.store.Save(snap); err != nil {
		s.log.Warn("could not save game", zap.Error(err))
	}
}

func (s *Session) forget() {
	if s.store == nil {
		return
	}
	if err := s.store.Delete(); err != nil {
		s.log.Warn("could not delete saved game", zap.Error(err))
	}
}

func (s *Session) view() View {
	return View{
		State:      s.ctrl.State(),
		LocalColor: s.cfg.LocalColor,
		Mode:       s.cfg.Mode,
		MayAct:     s.mayAct && !s.over,
		Connected:  s.link != nil,
		Over:       s.over,
		Message:    s.message,
	}
}

func (s *Session) render() {
	if s.hooks.Render != nil {
		s.hooks.Render(s.view())
	}
}
