// Package config handles configuration loading from files, .env, defaults, and environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/javiermolinar/meetin/internal/slotgrid"
	"github.com/javiermolinar/meetin/internal/timeofday"
)

// Config holds the application configuration.
type Config struct {
	Booking BookingConfig `toml:"booking"`
	Storage StorageConfig `toml:"storage"`
	API     APIConfig     `toml:"api"`
	Server  ServerConfig  `toml:"server"`
	UI      UIConfig      `toml:"ui"`
	Log     LogConfig     `toml:"log"`
}

// BookingConfig holds slot grid and booking defaults.
type BookingConfig struct {
	Granularity  int      `toml:"granularity"`   // slot width in minutes
	MaxGridEnd   string   `toml:"max_grid_end"`  // "" for no cap, "20:00" for the legacy cap
	UserID       string   `toml:"user_id"`       // recorded on new bookings
	DefaultOpen  string   `toml:"default_open"`  // e.g., "08:00", used by "room add"
	DefaultClose string   `toml:"default_close"` // e.g., "18:00"
	Workdays     []string `toml:"workdays"`      // searched by "next", e.g., ["monday", "tuesday", ...]
}

// StorageConfig holds database settings.
type StorageConfig struct {
	DBPath string `toml:"db_path"`
}

// APIConfig holds settings for a remote booking service.
type APIConfig struct {
	BaseURL string `toml:"base_url"` // empty means use the local database
	Timeout string `toml:"timeout"`  // Go duration, e.g., "10s"
}

// ServerConfig holds settings for "meetin serve".
type ServerConfig struct {
	Addr           string   `toml:"addr"`
	AllowedOrigins []string `toml:"allowed_origins"` // extra websocket origins, e.g., ["https://rooms.example.com"] or ["*"]
}

// UIConfig holds TUI settings.
type UIConfig struct {
	Theme string `toml:"theme"` // "mocha", "latte"
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // json or console
	Path   string `toml:"path"`   // empty means stderr
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Booking: BookingConfig{
			Granularity:  slotgrid.DefaultGranularity,
			MaxGridEnd:   "", // No cap
			UserID:       defaultUserID(),
			DefaultOpen:  "08:00",
			DefaultClose: "18:00",
			Workdays:     []string{"monday", "tuesday", "wednesday", "thursday", "friday"},
		},
		Storage: StorageConfig{
			DBPath: defaultDBPath(),
		},
		API: APIConfig{
			Timeout: "10s",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		UI: UIConfig{
			Theme: "mocha",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

func defaultUserID() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "anonymous"
}

// defaultDBPath returns the default database path.
func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "meetin.db"
	}
	return filepath.Join(home, ".local", "share", "meetin", "meetin.db")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(home, ".config", "meetin", "config.toml")
}

// Load loads configuration from the default path, merging with defaults and env vars.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigPath())
}

// LoadFrom loads configuration from the specified path.
// It starts with defaults, overlays file config if it exists, loads a .env
// file from the working directory if present, then applies env overrides.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	// Try to load from file (not an error if it doesn't exist)
	if err := loadFromFile(path, cfg); err != nil {
		return nil, err
	}

	if err := LoadDotEnv(".env"); err != nil {
		return nil, err
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	// Expand paths
	cfg.Storage.DBPath = expandPath(cfg.Storage.DBPath)
	cfg.Log.Path = expandPath(cfg.Log.Path)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// loadFromFile loads config from a file if it exists.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // File doesn't exist, use defaults
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// LoadDotEnv loads variables from a .env file into the process environment.
// Variables already set are kept. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Environment variables take precedence over file config.
func applyEnvOverrides(cfg *Config) error {
	// Booking overrides
	if v := os.Getenv("MEETIN_GRANULARITY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MEETIN_GRANULARITY must be a number of minutes, got %q", v)
		}
		cfg.Booking.Granularity = n
	}
	if v, ok := os.LookupEnv("MEETIN_MAX_GRID_END"); ok {
		cfg.Booking.MaxGridEnd = v // empty clears the cap
	}
	if v := os.Getenv("MEETIN_USER_ID"); v != "" {
		cfg.Booking.UserID = v
	}
	if v := os.Getenv("MEETIN_DEFAULT_OPEN"); v != "" {
		cfg.Booking.DefaultOpen = v
	}
	if v := os.Getenv("MEETIN_DEFAULT_CLOSE"); v != "" {
		cfg.Booking.DefaultClose = v
	}
	if v := os.Getenv("MEETIN_WORKDAYS"); v != "" {
		cfg.Booking.Workdays = strings.Split(v, ",")
	}

	// Storage overrides
	if v := os.Getenv("MEETIN_DB_PATH"); v != "" {
		cfg.Storage.DBPath = v
	}

	// API overrides
	if v := os.Getenv("MEETIN_API_BASE_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("MEETIN_API_TIMEOUT"); v != "" {
		cfg.API.Timeout = v
	}

	// Server overrides
	if v := os.Getenv("MEETIN_SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v, ok := os.LookupEnv("MEETIN_SERVER_ALLOWED_ORIGINS"); ok {
		cfg.Server.AllowedOrigins = nil // empty means same host only
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.Server.AllowedOrigins = append(cfg.Server.AllowedOrigins, o)
			}
		}
	}

	// UI overrides
	if v := os.Getenv("MEETIN_UI_THEME"); v != "" {
		cfg.UI.Theme = v
	}

	// Log overrides
	if v := os.Getenv("MEETIN_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("MEETIN_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("MEETIN_LOG_PATH"); v != "" {
		cfg.Log.Path = v
	}
	return nil
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Booking.Granularity <= 0 || c.Booking.Granularity > 240 {
		return fmt.Errorf("granularity must be between 1 and 240 minutes, got %d", c.Booking.Granularity)
	}
	if c.Booking.MaxGridEnd != "" {
		if err := validateTime(c.Booking.MaxGridEnd, "max_grid_end"); err != nil {
			return err
		}
	}
	if err := validateTime(c.Booking.DefaultOpen, "default_open"); err != nil {
		return err
	}
	if err := validateTime(c.Booking.DefaultClose, "default_close"); err != nil {
		return err
	}
	if c.Booking.DefaultOpen >= c.Booking.DefaultClose {
		return errors.New("default_open must be before default_close")
	}
	if len(c.Booking.Workdays) == 0 {
		return errors.New("at least one workday must be configured")
	}
	for _, day := range c.Booking.Workdays {
		if !isValidWeekday(day) {
			return fmt.Errorf("invalid workday: %s", day)
		}
	}
	if strings.TrimSpace(c.Booking.UserID) == "" {
		return errors.New("user_id must be set")
	}

	if c.Storage.DBPath == "" {
		return errors.New("db_path must be set")
	}

	if c.API.BaseURL != "" {
		u, err := url.Parse(c.API.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("base_url must be an http or https URL, got %q", c.API.BaseURL)
		}
	}
	if d, err := time.ParseDuration(c.API.Timeout); err != nil || d <= 0 {
		return fmt.Errorf("timeout must be a positive duration, got %q", c.API.Timeout)
	}

	if c.Server.Addr == "" {
		return errors.New("server addr must be set")
	}
	for _, o := range c.Server.AllowedOrigins {
		if o == "*" {
			continue
		}
		u, err := url.Parse(o)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("allowed origin must be a scheme and host or \"*\", got %q", o)
		}
	}
	if c.UI.Theme == "" {
		return errors.New("theme must be set")
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log format: %s", c.Log.Format)
	}
	return nil
}

// validateTime checks if a time string is in HH:MM format.
func validateTime(t, field string) error {
	if len(t) != 5 || t[2] != ':' {
		return fmt.Errorf("%s must be in HH:MM format, got %q", field, t)
	}
	if _, err := timeofday.ToCanonical(timeofday.HHMM(t)); err != nil {
		return fmt.Errorf("%s must be in HH:MM format, got %q", field, t)
	}
	return nil
}

var validWeekdays = map[string]bool{
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true,
	"friday": true, "saturday": true, "sunday": true,
}

func isValidWeekday(day string) bool {
	return validWeekdays[strings.ToLower(strings.TrimSpace(day))]
}

// GridOptions returns the slot grid options for the configured granularity and cap.
func (c *Config) GridOptions() slotgrid.Options {
	opts := slotgrid.Options{Granularity: c.Booking.Granularity}
	if c.Booking.MaxGridEnd != "" {
		if m, err := timeofday.ToCanonical(timeofday.HHMM(c.Booking.MaxGridEnd)); err == nil {
			opts = opts.WithMaxGridEnd(m)
		}
	}
	return opts
}

// APITimeout returns the per-request timeout for the remote service.
func (c *Config) APITimeout() time.Duration {
	d, err := time.ParseDuration(c.API.Timeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// IsRemote returns true if bookings are served by a remote API.
func (c *Config) IsRemote() bool {
	return c.API.BaseURL != ""
}

// Save writes the configuration to the default path.
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigPath())
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
