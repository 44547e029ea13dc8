package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/meetin/internal/booking"
	"github.com/javiermolinar/meetin/internal/slotgrid"
)

// roomDay is one room's annotated grid for a day.
type roomDay struct {
	room     *booking.Room
	day      time.Time
	bookings []*booking.Booking
	slots    []slotgrid.Slot
}

// loadDay resolves the room, fetches its bookings for the day and annotates
// the grid against them and the current time.
func (a *App) loadDay(ctx context.Context, roomRef string, day time.Time) (*roomDay, error) {
	room, err := booking.FindRoom(ctx, a.repo, roomRef)
	if err != nil {
		return nil, err
	}
	grid, err := slotgrid.ForRoom(room, a.gridOptions())
	if err != nil {
		return nil, err
	}
	bookings, err := a.repo.ListBookings(ctx, room.ID, day, day)
	if err != nil {
		return nil, fmt.Errorf("fetching bookings: %w", err)
	}

	return &roomDay{
		room:     room,
		day:      day,
		bookings: bookings,
		slots: slotgrid.Annotate(grid, bookings, day, slotgrid.AnnotateOptions{
			Now: slotgrid.CutoffAt(a.now()),
		}),
	}, nil
}

func (d *roomDay) titles() map[string]string {
	m := make(map[string]string, len(d.bookings))
	for _, b := range d.bookings {
		m[b.ID] = b.Title
	}
	return m
}

func (a *App) slotsCmd() *cobra.Command {
	var (
		roomRef string
		date    string
		compact bool
		noColor bool
	)

	cmd := &cobra.Command{
		Use:   "slots",
		Short: "Show a room's slots for a day",
		Long: `Display the slot grid of a room for one day.

Free slots are marked '-', booked slots 'X' and slots that already
started '.'.`,
		Example: `  meetin slots --room=Orion
  meetin slots --room=Orion --date=tomorrow --compact`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if noColor {
				DisableColor()
			}
			if err := a.ensureRepo(); err != nil {
				return err
			}

			day, err := a.parseDay(date)
			if err != nil {
				return err
			}
			d, err := a.loadDay(context.Background(), roomRef, day)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if compact {
				fmt.Fprintln(out, slotgrid.Pattern(d.slots))
				return nil
			}

			fmt.Fprintf(out, "=== %s  %s  %s ===\n\n",
				formatHeader(d.room.Name), d.day.Format("Monday, January 2, 2006"), d.room.Hours())
			if len(d.slots) == 0 {
				fmt.Fprintln(out, "No slots fit the room's open window.")
				return nil
			}

			titles := d.titles()
			for _, s := range d.slots {
				PrintSlotRow(out, s, titles[s.OccupyingBookingID])
			}

			stats := booking.NewDay(d.room.ID, d.day, d.bookings).Stats(d.room)
			fmt.Fprintln(out)
			PrintDayStats(out, stats)
			fmt.Fprintf(out, "Free: %s\n", FormatRuns(slotgrid.NewIndex(d.slots).FreeRuns()))
			fmt.Fprintf(out, "Occupancy: %s\n", OccupancyBar(stats.BookedMinutes, stats.OpenMinutes, 20))
			return nil
		},
	}

	cmd.Flags().StringVar(&roomRef, "room", "", "Room name or ID (required)")
	cmd.Flags().StringVar(&date, "date", "", "Day: YYYY-MM-DD, today, tomorrow, monday... (default: today)")
	cmd.Flags().BoolVar(&compact, "compact", false, "Print one character per slot")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable color output")
	_ = cmd.MarkFlagRequired("room")

	return cmd
}
