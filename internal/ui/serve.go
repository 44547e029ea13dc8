package ui

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/meetin/internal/logging"
	"github.com/javiermolinar/meetin/internal/server"
)

func (a *App) serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the booking REST API",
		Long: `Serve rooms, bookings and slot grids over HTTP from the local database.

Clients connect with 'meetin --remote=http://host:port'. Each room also
streams booking changes at /api/rooms/:id/events over a websocket.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			if a.remote != "" || a.config.IsRemote() {
				return errors.New("serve needs the local database; unset --remote and api.base_url")
			}
			if err := a.ensureRepo(); err != nil {
				return err
			}
			if addr == "" {
				addr = a.config.Server.Addr
			}

			logger := a.log
			if !a.debug {
				l, err := logging.New(a.config.Log)
				if err != nil {
					return err
				}
				logger = l
			}
			defer func() { _ = logger.Sync() }()

			srv := server.New(a.repo, logger, server.Options{
				Grid:           a.gridOptions(),
				Now:            a.now,
				AllowedOrigins: a.config.Server.AllowedOrigins,
			})

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start(addr)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutting down: %w", err)
			}
			return <-errCh
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	return cmd
}
