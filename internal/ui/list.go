package ui

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/meetin/internal/booking"
	"github.com/javiermolinar/meetin/internal/dateutil"
)

func (a *App) listCmd() *cobra.Command {
	var (
		roomRef   string
		user      string
		mine      bool
		startDate string
		endDate   string
		verbose   bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List bookings in a date range",
		Long: `List bookings within a date range.

If no dates are specified, lists today's bookings.
If only --start is specified, lists bookings for that single day.
Without --room or --user, bookings of every room are listed.`,
		Example: `  meetin list
  meetin list --room=Orion --start=2025-12-01 --end=2025-12-05
  meetin list --mine --end=friday`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.ensureRepo(); err != nil {
				return err
			}
			from, to, err := a.parseRange(startDate, endDate)
			if err != nil {
				return err
			}
			if mine {
				user = a.config.Booking.UserID
			}

			ctx := context.Background()
			rooms, err := a.repo.ListRooms(ctx)
			if err != nil {
				return fmt.Errorf("listing rooms: %w", err)
			}
			names := make(map[string]string, len(rooms))
			for _, r := range rooms {
				names[r.ID] = r.Name
			}

			bookings, err := a.collectBookings(ctx, rooms, roomRef, user, from, to)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(bookings) == 0 {
				fmt.Fprintln(out, "No bookings found in the specified date range.")
				return nil
			}

			opts := PrintOpts{Verbose: verbose, ShowRoom: roomRef == "", RoomNames: names}
			maxDescWidth := opts.CalcMaxDescWidth(32)

			// Print bookings grouped by date
			var currentDate string
			for _, b := range bookings {
				date := b.Date.Format("2006-01-02")
				if date != currentDate {
					if currentDate != "" {
						fmt.Fprintln(out)
					}
					fmt.Fprintf(out, "=== %s ===\n", formatHeader(b.Date.Format("Mon 2006-01-02")))
					currentDate = date
				}
				PrintBookingRow(out, b, opts, maxDescWidth)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&roomRef, "room", "", "Only this room (name or ID)")
	cmd.Flags().StringVar(&user, "user", "", "Only bookings made by this user")
	cmd.Flags().BoolVar(&mine, "mine", false, "Only bookings made by the configured user")
	cmd.Flags().StringVar(&startDate, "start", "", "Start date (defaults to today)")
	cmd.Flags().StringVar(&endDate, "end", "", "End date (defaults to start date)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show full titles")
	cmd.MarkFlagsMutuallyExclusive("user", "mine")

	return cmd
}

// collectBookings fetches bookings for one room, one user, or every room,
// sorted by date and start time.
func (a *App) collectBookings(ctx context.Context, rooms []*booking.Room, roomRef, user string, from, to time.Time) ([]*booking.Booking, error) {
	var all []*booking.Booking
	switch {
	case user != "":
		list, err := a.repo.ListUserBookings(ctx, user, from, to)
		if err != nil {
			return nil, fmt.Errorf("listing bookings: %w", err)
		}
		all = list
		if roomRef != "" {
			room, err := booking.FindRoom(ctx, a.repo, roomRef)
			if err != nil {
				return nil, err
			}
			all = slices.DeleteFunc(all, func(b *booking.Booking) bool { return b.RoomID != room.ID })
		}
	case roomRef != "":
		room, err := booking.FindRoom(ctx, a.repo, roomRef)
		if err != nil {
			return nil, err
		}
		if all, err = a.repo.ListBookings(ctx, room.ID, from, to); err != nil {
			return nil, fmt.Errorf("listing bookings: %w", err)
		}
	default:
		for _, r := range rooms {
			list, err := a.repo.ListBookings(ctx, r.ID, from, to)
			if err != nil {
				return nil, fmt.Errorf("listing bookings for %s: %w", r.Name, err)
			}
			all = append(all, list...)
		}
	}

	slices.SortStableFunc(all, func(x, y *booking.Booking) int {
		if c := dateutil.CompareDays(x.Date, y.Date); c != 0 {
			return c
		}
		return x.StartMinutes - y.StartMinutes
	})
	return all, nil
}
