package ui

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/javiermolinar/meetin/internal/booking"
	"github.com/javiermolinar/meetin/internal/request"
	"github.com/javiermolinar/meetin/internal/selection"
	"github.com/javiermolinar/meetin/internal/slotgrid"
	"github.com/javiermolinar/meetin/internal/timeofday"
)

// Errors returned while turning --start/--end into a selection.
var (
	ErrNotOnGrid      = errors.New("time is not on a slot boundary")
	ErrRangeTruncated = errors.New("requested range is not entirely free")
)

func (a *App) bookCmd() *cobra.Command {
	var (
		roomRef     string
		date        string
		start       string
		end         string
		title       string
		description string
		user        string
		partial     bool
	)

	cmd := &cobra.Command{
		Use:   "book",
		Short: "Book a room for a contiguous run of slots",
		Long: `Book a room from --start to --end on one day.

Both times must fall on slot boundaries. The run is checked against the
room's bookings again right before submitting. With --partial a range
that runs into a booked or past slot is shortened to its free prefix
instead of failing.`,
		Example: `  meetin book --room=Orion --start=09:00 --end=10:30 --title="Planning"
  meetin book --room=Orion --date=tomorrow --start=14 --end=15.5 --title="Review"`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.ensureRepo(); err != nil {
				return err
			}
			if user == "" {
				user = a.config.Booking.UserID
			}

			day, err := a.parseBookingDay(date)
			if err != nil {
				return err
			}
			ctx := context.Background()
			d, err := a.loadDay(ctx, roomRef, day)
			if err != nil {
				return err
			}

			m, err := selectRange(d.slots, start, end)
			if errors.Is(err, ErrRangeTruncated) && partial {
				s, e, _ := m.Range()
				fmt.Fprintln(cmd.OutOrStdout(), formatWarn(fmt.Sprintf("Shortened to %s", timeofday.Label(s, e))))
				err = nil
			}
			if err != nil {
				return err
			}
			if err := m.Release(); err != nil {
				return err
			}

			// Re-read occupancy so a booking made since loadDay is caught.
			fresh, err := a.repo.ListBookings(ctx, d.room.ID, d.day, d.day)
			if err != nil {
				return fmt.Errorf("refreshing bookings: %w", err)
			}
			req, err := request.BuildFromMachine(m, request.Input{
				Fresh:       fresh,
				Room:        d.room,
				Day:         d.day,
				Title:       title,
				Description: description,
				UserID:      user,
			})
			if errors.Is(err, request.ErrSlotNoLongerAvailable) {
				return fmt.Errorf("%w; run 'meetin slots --room=%s' to see the current grid", err, d.room.Name)
			}
			if err != nil {
				return err
			}

			b, err := a.repo.CreateBooking(ctx, req)
			if err != nil {
				return fmt.Errorf("creating booking: %w", err)
			}
			a.log.Info("booking created", zap.String("id", b.ID), zap.String("room", d.room.Name))

			fmt.Fprintf(cmd.OutOrStdout(), "Booked %s: %s in %s\n", shortID(b.ID), req.Summary(), d.room.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&roomRef, "room", "", "Room name or ID (required)")
	cmd.Flags().StringVar(&date, "date", "", "Day: YYYY-MM-DD, today, tomorrow, monday... (default: today)")
	cmd.Flags().StringVar(&start, "start", "", "Start time (HH:MM or hours, required)")
	cmd.Flags().StringVar(&end, "end", "", "End time (HH:MM or hours, required)")
	cmd.Flags().StringVar(&title, "title", "", "Meeting title (required)")
	cmd.Flags().StringVar(&description, "description", "", "Meeting description")
	cmd.Flags().StringVar(&user, "user", "", "User ID recorded on the booking (default from config)")
	cmd.Flags().BoolVar(&partial, "partial", false, "Book the free prefix if the range runs into a busy slot")

	_ = cmd.MarkFlagRequired("room")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

// selectRange drives a selection from the slot starting at start to the slot
// ending at end, the way a pointer drag would. The machine is left Selecting.
// ErrRangeTruncated is returned with the machine holding the free prefix.
func selectRange(slots []slotgrid.Slot, start, end string) (*selection.Machine, error) {
	startMin, err := timeofday.ParseCanonical(start)
	if err != nil {
		return nil, fmt.Errorf("start time: %w", err)
	}
	endMin, err := timeofday.ParseCanonicalEnd(end)
	if err != nil {
		return nil, fmt.Errorf("end time: %w", err)
	}
	if endMin <= startMin {
		return nil, booking.ErrEndBeforeStart
	}

	idx := slotgrid.NewIndex(slots)
	first, ok := idx.SlotAt(startMin)
	if !ok || slots[first].StartMinutes != startMin {
		return nil, fmt.Errorf("%w: %s", ErrNotOnGrid, timeofday.Format(startMin))
	}
	last, ok := idx.SlotAt(endMin - 1)
	if !ok || slots[last].EndMinutes != endMin {
		return nil, fmt.Errorf("%w: %s", ErrNotOnGrid, timeofday.FormatEnd(endMin))
	}

	m := selection.New(slots)
	if err := m.Begin(first); err != nil {
		return nil, fmt.Errorf("%s: %w", slots[first].Label(), err)
	}
	if err := m.Extend(last); err != nil {
		return nil, err
	}
	if m.Truncated() {
		s, e, _ := m.Range()
		return m, fmt.Errorf("%w: only %s is free", ErrRangeTruncated, timeofday.Label(s, e))
	}
	return m, nil
}
