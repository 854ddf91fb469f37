package game

import (
	"fmt"

	"termversi/types"
)

// Mode selects who the local player faces.
type Mode int

const (
	ModeLocal Mode = iota // human vs computer in one process
	ModeHost              // accept one remote peer
	ModeJoin              // dial a remote host
)

func (m Mode) String() string {
	switch m {
	case ModeLocal:
		return "local"
	case ModeHost:
		return "host"
	case ModeJoin:
		return "join"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// Networked reports whether the mode talks to a remote peer.
func (m Mode) Networked() bool {
	return m == ModeHost || m == ModeJoin
}

// Player selects who makes the local side's moves.
type Player int

const (
	Human Player = iota
	Computer
)

func (p Player) String() string {
	if p == Computer {
		return "computer"
	}
	return "human"
}

// GameConfig holds configuration for starting a new session.
type GameConfig struct {
	Mode        Mode
	LocalColor  types.Cell // color the local side plays; forced by Mode when networked
	LocalPlayer Player     // only meaningful when networked
	Address     string     // host:port to listen on or dial
	Seed        int64      // tie-break seed; 0 means time-based
}

// DefaultConfig returns a local match with the human playing Dark.
func DefaultConfig() GameConfig {
	return GameConfig{
		Mode:        ModeLocal,
		LocalColor:  types.Dark,
		LocalPlayer: Human,
		Address:     "localhost:8086",
	}
}

// Normalize fixes the local color for networked modes: the host plays Dark
// and the joining side plays Light.
func (c GameConfig) Normalize() GameConfig {
	switch c.Mode {
	case ModeHost:
		c.LocalColor = types.Dark
	case ModeJoin:
		c.LocalColor = types.Light
	}
	if !c.LocalColor.IsColor() {
		c.LocalColor = types.Dark
	}
	if c.Mode == ModeLocal {
		c.LocalPlayer = Human
	}
	return c
}
