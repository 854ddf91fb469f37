package game

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"termversi/engine"
	"termversi/peer"
	"termversi/types"
)

type memStore struct {
	mu      sync.Mutex
	snap    types.Snapshot
	ok      bool
	saves   int
	deletes int
}

func (m *memStore) Save(s types.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap, m.ok = s, true
	m.saves++
	return nil
}

func (m *memStore) Load() (types.Snapshot, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap, m.ok, nil
}

func (m *memStore) Delete() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap, m.ok = types.Snapshot{}, false
	m.deletes++
	return nil
}

func (m *memStore) saved() (types.Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap, m.ok
}

type failingStore struct{}

func (failingStore) Save(types.Snapshot) error { return errors.New("disk full") }
func (failingStore) Load() (types.Snapshot, bool, error) {
	return types.Snapshot{}, false, errors.New("unreadable")
}
func (failingStore) Delete() error { return errors.New("read-only") }

type recorder struct {
	mu     sync.Mutex
	frames []View
	final  [][2]int
}

func (r *recorder) hooks() Hooks {
	return Hooks{
		Render: func(v View) {
			r.mu.Lock()
			r.frames = append(r.frames, v)
			r.mu.Unlock()
		},
		GameOver: func(dark, light int) {
			r.mu.Lock()
			r.final = append(r.final, [2]int{dark, light})
			r.mu.Unlock()
		},
	}
}

func (r *recorder) rendered() []View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]View(nil), r.frames...)
}

func (r *recorder) results() [][2]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][2]int(nil), r.final...)
}

func startSession(t *testing.T, cfg GameConfig, store Store, rec *recorder) *Session {
	t.Helper()
	if rec == nil {
		rec = &recorder{}
	}
	s := NewSession(cfg, store, rec.hooks(), zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	go s.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-s.Done()
	})
	return s
}

func view(t *testing.T, s *Session) View {
	t.Helper()
	v, err := s.View()
	require.NoError(t, err)
	return v
}

func waitView(t *testing.T, s *Session, cond func(View) bool) View {
	t.Helper()
	var last View
	require.Eventually(t, func() bool {
		v, err := s.View()
		if err != nil {
			return false
		}
		last = v
		return cond(v)
	}, 5*time.Second, 5*time.Millisecond)
	return last
}

func localConfig(color types.Cell, seed int64) GameConfig {
	cfg := DefaultConfig()
	cfg.LocalColor = color
	cfg.Seed = seed
	return cfg
}

func TestSessionLocalHumanThenComputer(t *testing.T) {
	store := &memStore{}
	s := startSession(t, localConfig(types.Dark, 1), store, nil)

	v := view(t, s)
	assert.True(t, v.MayAct)
	assert.Equal(t, types.Dark, v.State.CurrentPlayer)
	assert.Equal(t, 4, v.State.ValidMoveCount)

	require.NoError(t, s.Play(2, 3))

	v = view(t, s)
	assert.True(t, v.MayAct)
	assert.Equal(t, types.Dark, v.State.CurrentPlayer)
	assert.Equal(t, 6, v.State.DarkScore+v.State.LightScore, "computer replied")

	saved, ok := store.saved()
	require.True(t, ok)
	assert.Equal(t, v.State.Board, saved.Board())
}

func TestSessionRendersEachLocalTurn(t *testing.T) {
	rec := &recorder{}
	s := startSession(t, localConfig(types.Dark, 1), nil, rec)
	view(t, s)
	before := len(rec.rendered())

	require.NoError(t, s.Play(2, 3))

	frames := rec.rendered()[before:]
	require.Len(t, frames, 3)

	human := frames[0]
	assert.Equal(t, types.Light, human.State.CurrentPlayer)
	assert.Equal(t, 4, human.State.DarkScore)
	assert.Equal(t, 1, human.State.LightScore)
	assert.False(t, human.MayAct)

	reply := frames[1]
	assert.Equal(t, types.Dark, reply.State.CurrentPlayer)
	assert.Equal(t, 6, reply.State.DarkScore+reply.State.LightScore)
	assert.False(t, reply.MayAct)

	assert.True(t, frames[2].MayAct)
	assert.Equal(t, reply.State, frames[2].State)
}

func TestSessionComputerOpensForLightHuman(t *testing.T) {
	s := startSession(t, localConfig(types.Light, 2), &memStore{}, nil)

	v := view(t, s)
	assert.True(t, v.MayAct)
	assert.Equal(t, types.Light, v.State.CurrentPlayer)
	assert.Equal(t, 4, v.State.DarkScore)
	assert.Equal(t, 1, v.State.LightScore)
}

func TestSessionRejectsBadMoves(t *testing.T) {
	s := startSession(t, localConfig(types.Dark, 1), nil, nil)
	before := view(t, s)

	assert.True(t, errors.Is(s.Play(9, 9), ErrInvalidLocation))
	assert.True(t, errors.Is(s.Play(0, 0), ErrIllegalMove))
	assert.True(t, errors.Is(s.Play(3, 3), ErrIllegalMove))

	assert.Equal(t, before.State, view(t, s).State)
}

func TestSessionPlayComputer(t *testing.T) {
	s := startSession(t, localConfig(types.Dark, 4), nil, nil)

	require.NoError(t, s.PlayComputer())

	v := view(t, s)
	assert.Equal(t, 6, v.State.DarkScore+v.State.LightScore)
	assert.Equal(t, types.Dark, v.State.CurrentPlayer)
}

func TestSessionPassThenGameOver(t *testing.T) {
	// Dark (human) cannot move. Light takes (0,2) and Dark has no discs left.
	b, err := types.ParseBoard(
		"LD......",
		"........",
		"........",
		"........",
		"........",
		"........",
		"........",
		"........",
	)
	require.NoError(t, err)
	store := &memStore{}
	require.NoError(t, store.Save(types.NewSnapshot(b)))
	rec := &recorder{}

	s := startSession(t, localConfig(types.Dark, 1), store, rec)

	v := view(t, s)
	assert.True(t, v.Over)
	assert.False(t, v.MayAct)
	assert.Equal(t, 3, v.State.LightScore)
	assert.Equal(t, [][2]int{{0, 3}}, rec.results())

	_, ok := store.saved()
	assert.False(t, ok, "save file removed at game over")

	assert.True(t, errors.Is(s.Play(2, 3), ErrGameOver))
}

func TestSessionResumesSavedGame(t *testing.T) {
	b := types.NewBoard()
	engine.ApplyMove(&b, 2, 3, types.Dark)
	engine.ApplyMove(&b, 2, 2, types.Light)
	store := &memStore{}
	require.NoError(t, store.Save(types.NewSnapshot(b)))

	s := startSession(t, localConfig(types.Dark, 1), store, nil)

	v := view(t, s)
	assert.Equal(t, b, v.State.Board)
	assert.Equal(t, types.Dark, v.State.CurrentPlayer)
	assert.Equal(t, "resumed saved game", v.Message)
}

func TestSessionNewGameClearsSave(t *testing.T) {
	store := &memStore{}
	s := startSession(t, localConfig(types.Dark, 1), store, nil)
	require.NoError(t, s.Play(2, 3))

	require.NoError(t, s.NewGame())

	v := view(t, s)
	assert.Equal(t, types.NewBoard(), v.State.Board)
	assert.True(t, v.MayAct)
	_, ok := store.saved()
	assert.False(t, ok)
}

func TestSessionPersistenceFailureIsNotFatal(t *testing.T) {
	s := startSession(t, localConfig(types.Dark, 1), failingStore{}, nil)

	require.NoError(t, s.Play(2, 3))
	assert.True(t, view(t, s).MayAct)
}

func TestSessionClosed(t *testing.T) {
	s := NewSession(localConfig(types.Dark, 1), nil, Hooks{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go s.Run(ctx)
	cancel()
	<-s.Done()

	assert.True(t, errors.Is(s.Play(2, 3), ErrSessionClosed))
}

func networkPair(t *testing.T, hostPlayer, joinPlayer Player) (host, join *Session, hostRec, joinRec *recorder) {
	t.Helper()
	return networkPairFrom(t, hostPlayer, joinPlayer, &memStore{}, &memStore{})
}

// networkPairFrom connects a host and a joiner that resume from the given stores.
func networkPairFrom(t *testing.T, hostPlayer, joinPlayer Player, hostStore, joinStore Store) (host, join *Session, hostRec, joinRec *recorder) {
	t.Helper()
	log := zaptest.NewLogger(t)
	a, b := net.Pipe()
	hc, jc := peer.NewConn(a, peer.RoleHost, log), peer.NewConn(b, peer.RolePeer, log)

	hostRec, joinRec = &recorder{}, &recorder{}
	host = startSession(t, GameConfig{Mode: ModeHost, LocalPlayer: hostPlayer, Seed: 11}, hostStore, hostRec)
	join = startSession(t, GameConfig{Mode: ModeJoin, LocalPlayer: joinPlayer, Seed: 12}, joinStore, joinRec)

	ctx, cancel := context.WithCancel(context.Background())
	he, je := make(chan error, 1), make(chan error, 1)
	go func() { je <- join.Serve(ctx, jc) }()
	go func() { he <- host.Serve(ctx, hc) }()
	t.Cleanup(func() {
		cancel()
		<-he
		<-je
	})
	return host, join, hostRec, joinRec
}

func TestNetworkColorsAndGate(t *testing.T) {
	host, join, _, _ := networkPair(t, Human, Human)

	hv := waitView(t, host, func(v View) bool { return v.Connected && v.MayAct })
	assert.Equal(t, types.Dark, hv.LocalColor)

	jv := waitView(t, join, func(v View) bool { return v.Connected })
	assert.Equal(t, types.Light, jv.LocalColor)
	assert.False(t, jv.MayAct)
	assert.True(t, errors.Is(join.Play(2, 2), ErrNotYourTurn))

	require.NoError(t, host.Play(2, 3))
	assert.True(t, errors.Is(host.Play(2, 2), ErrNotYourTurn), "gate closes after sending")

	jv = waitView(t, join, func(v View) bool { return v.MayAct })
	assert.Equal(t, types.Dark, jv.State.Board[3][3])
	assert.Equal(t, 4, jv.State.DarkScore)
	assert.Equal(t, 1, jv.State.LightScore)
	assert.Equal(t, 3, jv.State.ValidMoveCount)

	require.NoError(t, join.Play(2, 2))
	hv = waitView(t, host, func(v View) bool { return v.MayAct })
	assert.Equal(t, types.Light, hv.State.Board[2][2])

	assert.True(t, errors.Is(host.NewGame(), ErrConnected))
}

func TestNetworkComputerAutoReply(t *testing.T) {
	host, join, _, _ := networkPair(t, Human, Computer)

	waitView(t, host, func(v View) bool { return v.Connected && v.MayAct })
	require.NoError(t, host.Play(2, 3))

	hv := waitView(t, host, func(v View) bool { return v.MayAct })
	assert.Equal(t, 6, hv.State.DarkScore+hv.State.LightScore)

	jv := view(t, join)
	assert.Equal(t, hv.State.Board, jv.State.Board)
	assert.False(t, jv.MayAct)
}

func TestNetworkComputersPlayToTheEnd(t *testing.T) {
	host, join, hostRec, joinRec := networkPair(t, Computer, Computer)

	hv := waitView(t, host, func(v View) bool { return v.Over })
	jv := waitView(t, join, func(v View) bool { return v.Over })

	assert.Equal(t, hv.State.Board, jv.State.Board)
	require.Len(t, hostRec.results(), 1)
	assert.Equal(t, hostRec.results(), joinRec.results())
	final := hostRec.results()[0]
	assert.Equal(t, hv.State.DarkScore, final[0])
	assert.Equal(t, hv.State.LightScore, final[1])
}

func TestNetworkPassEchoesBoard(t *testing.T) {
	// Dark (host) has no move; Light can take (0,2).
	b, err := types.ParseBoard(
		"LD......",
		"........",
		"........",
		"........",
		"........",
		"........",
		"........",
		"........",
	)
	require.NoError(t, err)
	hostStore, joinStore := &memStore{}, &memStore{}
	require.NoError(t, hostStore.Save(types.NewSnapshot(b)))
	require.NoError(t, joinStore.Save(types.NewSnapshot(b)))

	host, join, hostRec, joinRec := networkPairFrom(t, Human, Human, hostStore, joinStore)

	jv := waitView(t, join, func(v View) bool { return v.MayAct })
	assert.Equal(t, b, jv.State.Board, "pass sends the board unchanged")
	assert.Equal(t, types.Light, jv.State.CurrentPlayer)
	assert.Equal(t, 1, jv.State.ValidMoveCount)

	hv := view(t, host)
	assert.False(t, hv.MayAct)
	assert.False(t, hv.Over)
	assert.Equal(t, "no legal move, passing", hv.Message)

	require.NoError(t, join.Play(0, 2))

	hv = waitView(t, host, func(v View) bool { return v.Over })
	assert.Equal(t, 0, hv.State.DarkScore)
	assert.Equal(t, 3, hv.State.LightScore)
	assert.True(t, view(t, join).Over)

	assert.Equal(t, [][2]int{{0, 3}}, hostRec.results())
	assert.Equal(t, [][2]int{{0, 3}}, joinRec.results())
	_, ok := hostStore.saved()
	assert.False(t, ok, "save file removed at game over")
}

func TestNetworkConnectionLoss(t *testing.T) {
	log := zaptest.NewLogger(t)
	a, b := net.Pipe()
	hc := peer.NewConn(a, peer.RoleHost, log)

	host := startSession(t, GameConfig{Mode: ModeHost, Seed: 1}, nil, nil)
	errc := make(chan error, 1)
	go func() { errc <- host.Serve(context.Background(), hc) }()

	waitView(t, host, func(v View) bool { return v.Connected && v.MayAct })
	b.Close()

	select {
	case err := <-errc:
		assert.True(t, errors.Is(err, peer.ErrConnection), "got %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return")
	}

	v := waitView(t, host, func(v View) bool { return !v.Connected })
	assert.False(t, v.MayAct)
	assert.False(t, v.Over)
	assert.Equal(t, "connection lost", v.Message)
	assert.Equal(t, types.NewBoard(), v.State.Board, "last board stays visible")
	assert.True(t, errors.Is(host.Play(2, 3), ErrNotYourTurn))
}

func TestServeRefusedLocally(t *testing.T) {
	s := startSession(t, localConfig(types.Dark, 1), nil, nil)
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()
	err := s.Serve(context.Background(), peer.NewConn(a, peer.RoleHost, nil))
	assert.Error(t, err)
}
