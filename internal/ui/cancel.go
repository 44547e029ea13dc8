package ui

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (a *App) cancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel [booking-id]",
		Short: "Cancel a booking",
		Long: `Cancel a booking by its ID. The slots become free again.

Example:
  meetin cancel 3f2a9c1e-8d4b-4c55-9a61-0b7e2f1d6c3a`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.ensureRepo(); err != nil {
				return err
			}

			ctx := context.Background()
			b, err := a.repo.GetBooking(ctx, args[0])
			if err != nil {
				return err
			}
			if b.IsCancelled() {
				fmt.Fprintf(cmd.OutOrStdout(), "Booking %s is already cancelled\n", shortID(b.ID))
				return nil
			}
			if err := a.repo.CancelBooking(ctx, b.ID); err != nil {
				return fmt.Errorf("cancelling booking: %w", err)
			}
			a.log.Info("booking cancelled", zap.String("id", b.ID))

			fmt.Fprintf(cmd.OutOrStdout(), "Cancelled booking %s: %s %s\n",
				shortID(b.ID), b.Date.Format("2006-01-02"), b.Title)
			return nil
		},
	}
}
