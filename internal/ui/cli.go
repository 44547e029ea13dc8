package ui

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/javiermolinar/meetin/internal/api"
	"github.com/javiermolinar/meetin/internal/booking"
	"github.com/javiermolinar/meetin/internal/config"
	"github.com/javiermolinar/meetin/internal/db"
	"github.com/javiermolinar/meetin/internal/dateutil"
	"github.com/javiermolinar/meetin/internal/logging"
	"github.com/javiermolinar/meetin/internal/slotgrid"
	"github.com/javiermolinar/meetin/internal/tui"
)

var (
	// Version is set at build time
	Version = "dev"
	// Commit is set at build time
	Commit = "none"
)

// App holds the CLI application state.
type App struct {
	repo   booking.Repository
	config *config.Config
	root   *cobra.Command
	log    *zap.Logger
	now    func() time.Time

	debug     bool   // Enable debug logging
	remote    string // overrides api.base_url
	legacyCap bool   // cap every grid at 20:00
}

// NewApp creates a new CLI application with the given repository and config.
// A nil repo is opened on first use from the config.
func NewApp(repo booking.Repository, cfg *config.Config) *App {
	a := &App{repo: repo, config: cfg, log: logging.Nop(), now: time.Now}

	a.root = &cobra.Command{
		Use:   "meetin",
		Short: "Book meeting rooms from the terminal",
		Long: `Meetin shows the free slots of a meeting room for a day and books
a contiguous run of them.

Without a subcommand it opens the interactive day view.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// The TUI writes its own debug file.
			if !a.debug || cmd == a.root {
				return nil
			}
			cfg := a.config.Log
			cfg.Level = "debug"
			logger, err := logging.New(cfg)
			if err != nil {
				return err
			}
			a.log = logger
			return nil
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := a.ensureRepo(); err != nil {
				return err
			}
			return tui.RunWithDebug(a.repo, a.config, tui.Options{
				Debug:  a.debug,
				Grid:   a.gridOptions(),
				Events: a.eventSource(),
			})
		},
	}

	// Add global flags
	a.root.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug logging (logs to temp file)")
	a.root.PersistentFlags().StringVar(&a.remote, "remote", "", "Base URL of a meetin server (default from config)")
	a.root.PersistentFlags().BoolVar(&a.legacyCap, "legacy-cap", false, "Hide slots ending after 20:00")

	a.root.AddCommand(a.versionCmd())
	a.root.AddCommand(a.configCmd())
	a.root.AddCommand(a.roomCmd())
	a.root.AddCommand(a.slotsCmd())
	a.root.AddCommand(a.bookCmd())
	a.root.AddCommand(a.listCmd())
	a.root.AddCommand(a.cancelCmd())
	a.root.AddCommand(a.weekCmd())
	a.root.AddCommand(a.nextCmd())
	a.root.AddCommand(a.serveCmd())

	return a
}

func (a *App) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "meetin %s (commit: %s)\n", Version, Commit)
		},
	}
}

// Execute runs the CLI application.
func (a *App) Execute() error {
	return a.root.Execute()
}

// Close releases the repository if one was opened.
func (a *App) Close() error {
	if a.repo == nil {
		return nil
	}
	return a.repo.Close()
}

// ensureRepo opens the remote client or the local database on first use.
func (a *App) ensureRepo() error {
	if a.repo != nil {
		return nil
	}

	if a.remote != "" {
		a.config.API.BaseURL = a.remote
	}
	if a.config.IsRemote() {
		client, err := api.New(a.config.API.BaseURL, a.config.APITimeout(), api.WithLogger(a.log))
		if err != nil {
			return err
		}
		a.repo = client
		return nil
	}

	repo, err := db.New(a.config.Storage.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	a.repo = repo
	return nil
}

func (a *App) gridOptions() slotgrid.Options {
	opts := a.config.GridOptions()
	if a.legacyCap {
		opts = opts.WithMaxGridEnd(slotgrid.LegacyMaxGridEnd)
	}
	return opts
}

// eventSource returns the remote client when bookings are served over the API.
func (a *App) eventSource() tui.EventSource {
	if c, ok := a.repo.(*api.Client); ok {
		return c
	}
	return nil
}

// parseDay resolves a day flag ("", "today", "tomorrow", "monday",
// "2025-12-02") to local midnight.
func (a *App) parseDay(s string) (time.Time, error) {
	d, err := dateutil.ParseDay(s, a.now())
	if err != nil {
		return time.Time{}, err
	}
	return localMidnight(d), nil
}

// parseBookingDay is parseDay for new bookings: days before today are
// rejected with dateutil.ErrDateInPast.
func (a *App) parseBookingDay(s string) (time.Time, error) {
	d, err := dateutil.ParseRelativeDate(s, a.now())
	if err != nil {
		return time.Time{}, err
	}
	return localMidnight(d), nil
}

// parseRange resolves --start/--end flags. Empty bounds default to today
// and to the start day.
func (a *App) parseRange(start, end string) (time.Time, time.Time, error) {
	r, err := dateutil.NewDateRange(start, end, a.now())
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return localMidnight(r.Start), localMidnight(r.End), nil
}

func localMidnight(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.Local)
}
