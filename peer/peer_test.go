package peer

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"termversi/engine"
	"termversi/types"
)

func pipePair(t *testing.T) (*Conn, *Conn) {
	a, b := net.Pipe()
	log := zaptest.NewLogger(t)
	host, guest := NewConn(a, RoleHost, log), NewConn(b, RolePeer, log)
	t.Cleanup(func() {
		host.Close()
		guest.Close()
	})
	return host, guest
}

// receiveInto runs c's receive loop until the test ends.
func receiveInto(t *testing.T, ctx context.Context, c *Conn) (<-chan types.Snapshot, <-chan error) {
	got := make(chan types.Snapshot, 8)
	done := make(chan error, 1)
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		done <- c.Receive(ctx, func(s types.Snapshot) { got <- s })
	}()
	t.Cleanup(func() {
		c.Close()
		<-finished
	})
	return got, done
}

func TestSendReceiveInOrder(t *testing.T) {
	host, guest := pipePair(t)
	got, _ := receiveInto(t, context.Background(), guest)

	b := types.NewBoard()
	first := types.NewSnapshot(b)
	engine.ApplyMove(&b, 2, 3, types.Dark)
	second := types.NewSnapshot(b)

	require.NoError(t, host.Send(first))
	require.NoError(t, host.Send(second))

	for _, want := range []types.Snapshot{first, second} {
		select {
		case s := <-got:
			assert.Equal(t, want, s)
		case <-time.After(2 * time.Second):
			t.Fatal("snapshot not delivered")
		}
	}
}

func TestReceiveEndsOnRemoteClose(t *testing.T) {
	host, guest := pipePair(t)
	_, done := receiveInto(t, context.Background(), guest)

	host.Close()

	select {
	case err := <-done:
		assert.True(t, errors.Is(err, ErrConnection), "got %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("receive loop did not stop")
	}
}

func TestReceiveEndsOnCancel(t *testing.T) {
	_, guest := pipePair(t)
	ctx, cancel := context.WithCancel(context.Background())
	_, done := receiveInto(t, ctx, guest)

	cancel()

	select {
	case err := <-done:
		assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("receive loop did not stop")
	}
	assert.True(t, errors.Is(guest.Send(types.NewSnapshot(types.NewBoard())), ErrConnection))
}

func TestReceiveRejectsGarbage(t *testing.T) {
	a, b := net.Pipe()
	guest := NewConn(b, RolePeer, zaptest.NewLogger(t))
	defer guest.Close()
	_, done := receiveInto(t, context.Background(), guest)

	go func() {
		bad := make([]byte, 65)
		bad[0] = 9
		a.Write(bad)
	}()

	select {
	case err := <-done:
		assert.True(t, errors.Is(err, ErrConnection))
	case <-time.After(2 * time.Second):
		t.Fatal("receive loop did not stop")
	}
	a.Close()
}

func TestListenDial(t *testing.T) {
	log := zaptest.NewLogger(t)
	ln, err := Listen("127.0.0.1:0", log)
	require.NoError(t, err)
	defer ln.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	accepted := make(chan *Conn, 1)
	go func() {
		c, err := ln.Accept(ctx)
		if err == nil {
			accepted <- c
		}
		close(accepted)
	}()

	guest, err := Dial(ctx, ln.Addr().String(), log)
	require.NoError(t, err)
	defer guest.Close()

	host, ok := <-accepted
	require.True(t, ok)
	defer host.Close()

	assert.Equal(t, RoleHost, host.Role())
	assert.Equal(t, RolePeer, guest.Role())
	assert.NotEqual(t, host.ID(), guest.ID())

	got, _ := receiveInto(t, ctx, host)
	snap := types.NewSnapshot(types.NewBoard())
	require.NoError(t, guest.Send(snap))
	select {
	case s := <-got:
		assert.Equal(t, snap, s)
	case <-ctx.Done():
		t.Fatal("snapshot not delivered")
	}
}

func TestAcceptCancelled(t *testing.T) {
	ln, err := Listen("127.0.0.1:0", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = ln.Accept(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestDialFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err = Dial(ctx, addr, nil)
	assert.True(t, errors.Is(err, ErrConnection))
}
