package config

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/adrg/xdg"

	"termversi/types"
)

var (
	cfgFile  = "termversi/config.json"
	saveFile = "termversi/save_game.dat"
	logFile  = "termversi/termversi.log"
)

type InvalidConfig struct {
	err string
}

func (e *InvalidConfig) Error() string {
	return fmt.Sprintf("Config error: %s", e.err)
}

type ConfigColors struct {
	BoardColor    int `json:"board"`
	BoardColorAlt int `json:"board_alt"`
	DarkColor     int `json:"dark"`
	LightColor    int `json:"light"`
	HintColor     int `json:"hint"`
	CursorColorFG int `json:"cursor_fg"`
	CursorColorBG int `json:"cursor_bg"`
	LabelColor    int `json:"label"`
}

type ConfigSymbols struct {
	DarkDisc  rune `json:"dark"`
	LightDisc rune `json:"light"`
	Empty     rune `json:"empty"`
	Hint      rune `json:"hint"`
}

type Theme struct {
	DrawCursorBackground bool          `json:"draw_cursor_bg"`
	CheckeredBoard       bool          `json:"checkered_board"`
	ShowLegalMoves       bool          `json:"show_legal_moves"`
	FullWidthLetters     bool          `json:"fullwidth_letters"`
	Colors               ConfigColors  `json:"colors"`
	Symbols              ConfigSymbols `json:"symbols"`
}

// GameDefaults seeds the setup form and the command-line flags.
type GameDefaults struct {
	Color  string `json:"color"`   // "dark" or "light"
	PlayAs string `json:"play_as"` // "human" or "computer", networked games only
	Seed   int64  `json:"seed"`    // 0 picks a time-based seed
}

type NetworkConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

type Config struct {
	Theme    Theme         `json:"theme"`
	Game     GameDefaults  `json:"game"`
	Network  NetworkConfig `json:"network"`
	SaveFile string        `json:"save_file,omitempty"`
	LogFile  string        `json:"log_file,omitempty"`
	Debug    bool          `json:"debug"`
}

func InitConfig() (*Config, error) {
	absPath, err := xdg.SearchConfigFile(cfgFile)
	if err != nil {
		absPath = ""
	}
	return LoadFile(absPath)
}

// LoadFile reads the config at path over the defaults. An empty or missing
// path yields the defaults.
func LoadFile(path string) (*Config, error) {
	config := DefaultConfig
	if path != "" {
		if err := readCfgFile(path, &config); err != nil {
			return nil, err
		}
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) Validate() error {
	for _, r := range []rune{c.Theme.Symbols.DarkDisc, c.Theme.Symbols.LightDisc, c.Theme.Symbols.Empty, c.Theme.Symbols.Hint} {
		if r < 32 || (r >= 127 && r <= 159) {
			return &InvalidConfig{"Unicode characters 1-31 and 127-159 are not allowed"}
		}
	}
	colors := c.Theme.Colors
	for _, v := range []int{colors.BoardColor, colors.BoardColorAlt, colors.DarkColor, colors.LightColor,
		colors.HintColor, colors.CursorColorFG, colors.CursorColorBG, colors.LabelColor} {
		if v < 0 || v > 255 {
			return &InvalidConfig{fmt.Sprintf("color %d is outside the 256-color palette", v)}
		}
	}
	if _, err := types.ParseColor(c.Game.Color); err != nil {
		return &InvalidConfig{err.Error()}
	}
	if _, err := c.Game.Computer(); err != nil {
		return &InvalidConfig{err.Error()}
	}
	if c.Network.Port < 1 || c.Network.Port > 65535 {
		return &InvalidConfig{fmt.Sprintf("port %d out of range", c.Network.Port)}
	}
	return nil
}

// LocalColor returns the configured disc color.
func (g GameDefaults) LocalColor() types.Cell {
	c, err := types.ParseColor(g.Color)
	if err != nil {
		return types.Dark
	}
	return c
}

// Computer reports whether the local side is played by the computer.
func (g GameDefaults) Computer() (bool, error) {
	switch strings.ToLower(strings.TrimSpace(g.PlayAs)) {
	case "", "human":
		return false, nil
	case "computer", "ai":
		return true, nil
	}
	return false, fmt.Errorf("unknown player %q", g.PlayAs)
}

// Address joins host and port.
func (n NetworkConfig) Address() string {
	return fmt.Sprintf("%s:%d", n.Host, n.Port)
}

// SavePath returns the save file location, defaulting to the XDG data dir.
func (c *Config) SavePath() (string, error) {
	if c.SaveFile != "" {
		return c.SaveFile, nil
	}
	return xdg.DataFile(saveFile)
}

// LogPath returns the log file location, defaulting to the XDG state dir.
func (c *Config) LogPath() (string, error) {
	if c.LogFile != "" {
		return c.LogFile, nil
	}
	return xdg.StateFile(logFile)
}

// Remember stores the choices made in the setup form as the defaults for
// the next run. An empty host in address keeps the configured host.
func (c *Config) Remember(color types.Cell, computer bool, address string) error {
	host, portText, err := net.SplitHostPort(address)
	if err != nil {
		return &InvalidConfig{err.Error()}
	}
	port, err := strconv.Atoi(portText)
	if err != nil || port < 1 || port > 65535 {
		return &InvalidConfig{fmt.Sprintf("port %q out of range", portText)}
	}
	if color != types.Dark && color != types.Light {
		return &InvalidConfig{fmt.Sprintf("cannot play as %s", color)}
	}

	c.Game.Color = color.String()
	c.Game.PlayAs = "human"
	if computer {
		c.Game.PlayAs = "computer"
	}
	if host != "" {
		c.Network.Host = host
	}
	c.Network.Port = port
	return nil
}

// Save writes the config to the user's XDG config dir.
func (c *Config) Save() error {
	absPath, err := xdg.ConfigFile(cfgFile)
	if err != nil {
		return err
	}
	return c.WriteFile(absPath)
}

// WriteFile writes the config to path as indented JSON.
func (c *Config) WriteFile(path string) error {
	return saveCfgFile(path, c, 0664)
}

func saveCfgFile(filePath string, a interface{}, perm fs.FileMode) error {
	jsonData, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return err
	}
	return os.WriteFile(filePath, jsonData, perm)
}

func readCfgFile(filePath string, a interface{}) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, a); err != nil {
		return &InvalidConfig{fmt.Sprintf("%s: %v", filePath, err)}
	}
	return nil
}
