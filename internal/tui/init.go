// Package tui provides the interactive day view for booking meeting rooms.
package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/javiermolinar/meetin/internal/booking"
	"github.com/javiermolinar/meetin/internal/config"
	"github.com/javiermolinar/meetin/internal/db"
	"github.com/javiermolinar/meetin/internal/slotgrid"
	"github.com/javiermolinar/meetin/internal/tui/commands"
)

// EventSource streams booking changes of a room, e.g. the REST client.
type EventSource = commands.EventSource

// Options configures a TUI session.
type Options struct {
	Debug  bool
	Grid   slotgrid.Options
	Events EventSource // nil disables live updates
	Now    func() time.Time
}

// InitState tracks whether startup initialization is required.
type InitState struct {
	NeedsInit     bool
	ConfigMissing bool
	DBMissing     bool
	ConfigPath    string
	DBPath        string
}

// DetectInitState checks for missing config or database files.
func DetectInitState(cfg *config.Config) (InitState, error) {
	state := InitState{
		ConfigPath: config.DefaultConfigPath(),
		DBPath:     cfg.Storage.DBPath,
	}

	configMissing, err := pathMissing(state.ConfigPath)
	if err != nil {
		return InitState{}, fmt.Errorf("checking config path: %w", err)
	}
	dbMissing, err := pathMissing(state.DBPath)
	if err != nil {
		return InitState{}, fmt.Errorf("checking db path: %w", err)
	}

	state.ConfigMissing = configMissing
	state.DBMissing = dbMissing
	state.NeedsInit = configMissing || dbMissing
	return state, nil
}

func pathMissing(path string) (bool, error) {
	if path == "" {
		return true, nil
	}
	_, err := os.Stat(path)
	if err == nil {
		return false, nil
	}
	if os.IsNotExist(err) {
		return true, nil
	}
	return false, err
}

func openRepo(dbPath string) (booking.Repository, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("db path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	repo, err := db.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("initializing database: %w", err)
	}
	return repo, nil
}

// initializeStorage writes a default config and opens the local database
// when the session started without them.
func initializeStorage(repo booking.Repository, cfg *config.Config, state InitState) (booking.Repository, string, error) {
	var notice string
	if state.ConfigMissing {
		if err := cfg.SaveTo(state.ConfigPath); err != nil {
			return nil, "", fmt.Errorf("saving config: %w", err)
		}
		notice = "Wrote default config to " + state.ConfigPath
	}
	if repo != nil {
		return repo, notice, nil
	}
	repo, err := openRepo(state.DBPath)
	if err != nil {
		return nil, "", err
	}
	if state.DBMissing {
		notice = "Created database " + state.DBPath
	}
	return repo, notice, nil
}

// Run starts the TUI.
func Run(repo booking.Repository, cfg *config.Config) error {
	return RunWithDebug(repo, cfg, Options{})
}

// RunWithDebug starts the TUI with optional debug logging.
func RunWithDebug(repo booking.Repository, cfg *config.Config, opts Options) error {
	if err := InitDebugLogger(opts.Debug); err != nil {
		return err
	}
	defer CloseDebugLogger()

	initialRepo := repo
	state, err := DetectInitState(cfg)
	if err != nil {
		return err
	}
	if cfg.IsRemote() {
		state.ConfigMissing = false
	}
	repo, notice, err := initializeStorage(repo, cfg, state)
	if err != nil {
		return err
	}

	model := New(repo, cfg, opts)
	if notice != "" {
		model.setStatus(notice, false)
	}
	p := tea.NewProgram(model, tea.WithAltScreen())
	finalModel, err := p.Run()
	if m, ok := finalModel.(Model); ok {
		m.stopWatch()
	}
	if initialRepo == nil {
		_ = repo.Close()
	}
	return err
}
