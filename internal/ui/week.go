package ui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/meetin/internal/booking"
)

func (a *App) weekCmd() *cobra.Command {
	var (
		roomRef string
		date    string
		verbose bool
		noColor bool
	)

	cmd := &cobra.Command{
		Use:   "week",
		Short: "Show a room's bookings and occupancy for a week",
		Long: `Display Monday through Sunday of the ISO week containing --date
for one room, with the booked share of its open hours.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if noColor {
				DisableColor()
			}
			if err := a.ensureRepo(); err != nil {
				return err
			}

			ctx := context.Background()
			room, err := booking.FindRoom(ctx, a.repo, roomRef)
			if err != nil {
				return err
			}
			day, err := a.parseDay(date)
			if err != nil {
				return err
			}

			empty := booking.NewWeek(room.ID, day, nil)
			bookings, err := a.repo.ListBookings(ctx, room.ID, empty.StartDate, empty.EndDate())
			if err != nil {
				return fmt.Errorf("fetching bookings: %w", err)
			}
			week := booking.NewWeek(room.ID, day, bookings)

			out := cmd.OutOrStdout()
			header := fmt.Sprintf("%s  WEEK: %s - %s", room.Name,
				week.StartDate.Format("Mon Jan 2"), week.EndDate().Format("Mon Jan 2, 2006"))
			fmt.Fprintf(out, "\n  %s\n", formatHeader(header))
			fmt.Fprintln(out, strings.Repeat("─", 74))

			opts := PrintOpts{Verbose: verbose}
			printWeekTable(out, week, opts, opts.CalcMaxDescWidth(40))

			stats := week.Stats(room)
			fmt.Fprintln(out, strings.Repeat("─", 74))
			PrintWeekStats(out, stats)
			fmt.Fprintf(out, "  Occupancy: %s\n\n", OccupancyBar(stats.BookedMinutes, stats.OpenMinutes, 20))
			return nil
		},
	}

	cmd.Flags().StringVar(&roomRef, "room", "", "Room name or ID (required)")
	cmd.Flags().StringVar(&date, "date", "", "Any day of the week (default: today)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show full titles")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable color output")
	_ = cmd.MarkFlagRequired("room")
	return cmd
}

func printWeekTable(w io.Writer, week *booking.Week, opts PrintOpts, maxDescWidth int) {
	for i, day := range week.Days {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "  %s\n", formatHeader(day.Date.Format("Mon Jan 2")))
		bookings := day.Bookings()
		if len(bookings) == 0 {
			fmt.Fprintln(w, formatPast("    free all day"))
			continue
		}
		for _, b := range bookings {
			PrintBookingRow(w, b, opts, maxDescWidth)
		}
	}
}
