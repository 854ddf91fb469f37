// Package peer exchanges board snapshots with one remote process over TCP.
//
// Both roles speak the same stream of fixed-size snapshot records once the
// connection is up. The package has no notion of turns: every record read is
// handed to the caller, and every Send writes one record without waiting
// for an answer.
package peer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"termversi/logging"
	"termversi/snapshot"
	"termversi/types"
)

// ErrConnection wraps every transport failure. It is fatal to the
// connection it came from.
var ErrConnection = errors.New("connection failure")

// Role says which side opened the connection.
type Role int

const (
	RoleHost Role = iota // accepted the connection
	RolePeer             // dialed the host
)

func (r Role) String() string {
	if r == RoleHost {
		return "host"
	}
	return "peer"
}

// Conn is one established connection.
type Conn struct {
	id   string
	role Role
	conn net.Conn
	log  *zap.Logger

	sendMu    sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// NewConn wraps an established transport. log may be nil.
func NewConn(c net.Conn, role Role, log *zap.Logger) *Conn {
	id := uuid.NewString()
	return &Conn{
		id:   id,
		role: role,
		conn: c,
		log: logging.OrNop(log).With(
			zap.String("conn", id),
			zap.Stringer("role", role),
		),
	}
}

// ID returns the connection's session identifier, used for log correlation.
func (c *Conn) ID() string { return c.id }

// Role returns which side this process plays.
func (c *Conn) Role() Role { return c.role }

// RemoteAddr returns the remote endpoint.
func (c *Conn) RemoteAddr() string {
	if a := c.conn.RemoteAddr(); a != nil {
		return a.String()
	}
	return ""
}

// Send writes one snapshot. It returns once the record is handed to the
// transport; delivery is not acknowledged.
func (c *Conn) Send(s types.Snapshot) error {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if err := snapshot.Write(c.conn, s); err != nil {
		c.log.Warn("send failed", zap.Error(err))
		return fmt.Errorf("%w: send: %v", ErrConnection, err)
	}
	c.log.Debug("snapshot sent")
	return nil
}

// Receive reads snapshots until the transport fails or ctx is cancelled,
// calling handle for each one in arrival order. Cancelling ctx closes the
// connection. The returned error wraps ErrConnection, or is ctx.Err() after
// cancellation.
func (c *Conn) Receive(ctx context.Context, handle func(types.Snapshot)) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-gctx.Done()
		c.Close()
		return nil
	})

	g.Go(func() error {
		for {
			s, err := snapshot.Read(c.conn)
			if err != nil {
				return fmt.Errorf("%w: receive: %v", ErrConnection, err)
			}
			c.log.Debug("snapshot received")
			handle(s)
		}
	})

	err := g.Wait()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	c.log.Info("receive loop ended", zap.Error(err))
	return err
}

// Close shuts the transport down. It is safe to call more than once.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

// Listener accepts the single remote peer for a hosted match.
type Listener struct {
	ln  net.Listener
	log *zap.Logger
}

// Listen opens a TCP listener on addr.
func Listen(addr string, log *zap.Logger) (*Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: listen on %s: %v", ErrConnection, addr, err)
	}
	log = logging.OrNop(log)
	log.Info("listening", zap.Stringer("addr", ln.Addr()))
	return &Listener{ln: ln, log: log}, nil
}

// Addr returns the bound address.
func (l *Listener) Addr() net.Addr {
	return l.ln.Addr()
}

// Accept waits for one peer. Cancelling ctx closes the listener.
func (l *Listener) Accept(ctx context.Context) (*Conn, error) {
	type result struct {
		conn net.Conn
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		c, err := l.ln.Accept()
		ch <- result{c, err}
	}()

	select {
	case <-ctx.Done():
		l.ln.Close()
		if r := <-ch; r.conn != nil {
			r.conn.Close()
		}
		return nil, ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return nil, fmt.Errorf("%w: accept: %v", ErrConnection, r.err)
		}
		c := NewConn(r.conn, RoleHost, l.log)
		c.log.Info("peer connected", zap.String("remote", c.RemoteAddr()))
		return c, nil
	}
}

// Close stops listening.
func (l *Listener) Close() error {
	return l.ln.Close()
}

// Dial connects to a host.
func Dial(ctx context.Context, addr string, log *zap.Logger) (*Conn, error) {
	var d net.Dialer
	nc, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrConnection, addr, err)
	}
	c := NewConn(nc, RolePeer, log)
	c.log.Info("connected to host", zap.String("remote", c.RemoteAddr()))
	return c, nil
}
