package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// colorNameMap maps user-friendly color names to ANSI 16-color values
var colorNameMap = map[string]string{
	// Standard colors (0-7)
	"black":   "0",
	"red":     "1",
	"green":   "2",
	"yellow":  "3",
	"blue":    "4",
	"magenta": "5",
	"cyan":    "6",
	"white":   "7",
	// Bright colors (8-15)
	"bright-black":   "8",
	"gray":           "8", // alias for bright-black
	"bright-red":     "9",
	"bright-green":   "10",
	"bright-yellow":  "11",
	"bright-blue":    "12",
	"bright-magenta": "13",
	"bright-cyan":    "14",
	"bright-white":   "15",
}

// resolveColorValue converts color names to ANSI 16-color numbers and
// passes ANSI numbers, 256-color codes and hex colors through unchanged.
func resolveColorValue(colorInput string) string {
	if colorInput == "" {
		return colorInput
	}
	if ansiValue, exists := colorNameMap[strings.ToLower(colorInput)]; exists {
		return ansiValue
	}
	return colorInput
}

type ColorScheme struct {
	OpenColor      string `toml:"open"`
	DoneColor      string `toml:"done"`
	CancelledColor string `toml:"cancelled"`
	DateColor      string `toml:"date"`
	OverdueColor   string `toml:"overdue"`
	TodayColor     string `toml:"today"`
	HeadingColor   string `toml:"heading"`
}

// Folders name the vault directories periodic notes live in, relative to
// the vault root.
type Folders struct {
	Daily   string `toml:"daily"`
	Weekly  string `toml:"weekly"`
	Monthly string `toml:"monthly"`
}

type Rewrite struct {
	// Strict refuses to rewrite a document that changed since it was read.
	Strict bool `toml:"strict"`
}

type Git struct {
	AutoCommit bool `toml:"auto_commit"`
	Push       bool `toml:"push"`
}

type Web struct {
	Addr string `toml:"addr"`
}

type Config struct {
	Vault     string      `toml:"vault"`
	Timezone  string      `toml:"timezone"`
	EDITOR    string      `toml:"editor"`
	ColorMode string      `toml:"color_mode"` // "light", "dark", or empty for dark
	Folders   Folders     `toml:"folders"`
	Rewrite   Rewrite     `toml:"rewrite"`
	Git       Git         `toml:"git"`
	Web       Web         `toml:"web"`
	Colors    ColorScheme `toml:"colors"`

	location *time.Location
}

// Path returns the location of the config file.
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "kaal", "config.toml"), nil
}

// Load reads the config file if present, then applies environment
// overrides and defaults.
func Load() (*Config, error) {
	configPath, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFile(configPath)
}

// LoadFile is Load with an explicit config file. A missing file is not an
// error.
func LoadFile(configPath string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(configPath); err == nil {
		if _, err := toml.DecodeFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Environment variables override the config file
	if v := os.Getenv("KAAL_VAULT"); v != "" {
		cfg.Vault = v
	}
	if v := os.Getenv("KAAL_TIMEZONE"); v != "" {
		cfg.Timezone = v
	}
	if v := os.Getenv("KAAL_COLOR_MODE"); v != "" {
		cfg.ColorMode = v
	}
	if v := os.Getenv("EDITOR"); v != "" {
		cfg.EDITOR = v
	}

	cfg.Vault = expandEnv(cfg.Vault)
	cfg.EDITOR = expandEnv(cfg.EDITOR)

	// Set defaults
	if cfg.EDITOR == "" {
		cfg.EDITOR = "vim"
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "Local"
	}
	if cfg.Folders.Daily == "" {
		cfg.Folders.Daily = "journal/daily"
	}
	if cfg.Folders.Weekly == "" {
		cfg.Folders.Weekly = "journal/weekly"
	}
	if cfg.Folders.Monthly == "" {
		cfg.Folders.Monthly = "journal/monthly"
	}
	if cfg.Web.Addr == "" {
		cfg.Web.Addr = "127.0.0.1:8765"
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}
	cfg.location = loc

	cfg.initializeColors()

	return cfg, nil
}

func expandEnv(s string) string {
	if s == "" {
		return s
	}
	if strings.HasPrefix(s, "~/") {
		home, _ := os.UserHomeDir()
		s = filepath.Join(home, s[2:])
	}
	if strings.Contains(s, "$HOME") {
		home, _ := os.UserHomeDir()
		s = strings.ReplaceAll(s, "$HOME", home)
	}
	return os.ExpandEnv(s)
}

// Location returns the time zone dates are read in.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.Local
	}
	return c.location
}

// Override replaces the vault and time zone with non-empty values, as
// given on the command line.
func (c *Config) Override(vault, timezone string) error {
	if vault != "" {
		c.Vault = expandEnv(vault)
	}
	if timezone != "" {
		loc, err := time.LoadLocation(timezone)
		if err != nil {
			return fmt.Errorf("invalid timezone %q: %w", timezone, err)
		}
		c.Timezone = timezone
		c.location = loc
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Vault == "" {
		return fmt.Errorf("vault not set. Please create ~/.config/kaal/config.toml with:\nvault = \"/path/to/notes\"\nor set KAAL_VAULT")
	}
	info, err := os.Stat(c.Vault)
	if err != nil {
		return fmt.Errorf("vault %s: %w", c.Vault, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("vault %s is not a directory", c.Vault)
	}
	return nil
}

// initializeColors fills unset colors from the light or dark palette and
// resolves color names.
func (c *Config) initializeColors() {
	lightMode := ColorScheme{
		OpenColor:      "0", // Black
		DoneColor:      "8", // Bright black (faded)
		CancelledColor: "8",
		DateColor:      "4", // Blue
		OverdueColor:   "1", // Red
		TodayColor:     "3", // Yellow
		HeadingColor:   "5", // Magenta
	}
	darkMode := ColorScheme{
		OpenColor:      "15", // White
		DoneColor:      "8",  // Bright black (faded)
		CancelledColor: "8",
		DateColor:      "12", // Light blue
		OverdueColor:   "9",  // Bright red
		TodayColor:     "11", // Yellow
		HeadingColor:   "6",  // Cyan
	}

	defaults := darkMode
	if strings.ToLower(c.ColorMode) == "light" {
		defaults = lightMode
	}

	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
		*v = resolveColorValue(*v)
	}
	fill(&c.Colors.OpenColor, defaults.OpenColor)
	fill(&c.Colors.DoneColor, defaults.DoneColor)
	fill(&c.Colors.CancelledColor, defaults.CancelledColor)
	fill(&c.Colors.DateColor, defaults.DateColor)
	fill(&c.Colors.OverdueColor, defaults.OverdueColor)
	fill(&c.Colors.TodayColor, defaults.TodayColor)
	fill(&c.Colors.HeadingColor, defaults.HeadingColor)
}
