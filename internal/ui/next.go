package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/meetin/internal/booking"
	"github.com/javiermolinar/meetin/internal/scheduler"
	"github.com/javiermolinar/meetin/internal/timeofday"
)

func (a *App) nextCmd() *cobra.Command {
	var (
		roomRef  string
		duration time.Duration
		days     int
	)

	cmd := &cobra.Command{
		Use:   "next",
		Short: "Find the next free time in a room",
		Long: `Search the room's grid from now on, one configured workday at a time,
for the earliest free run long enough for a meeting. The result is rounded
up to whole slots.`,
		Example: `  meetin next --room=Orion
  meetin next --room=Orion --duration=1h30m --days=30`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.ensureRepo(); err != nil {
				return err
			}

			ctx := context.Background()
			room, err := booking.FindRoom(ctx, a.repo, roomRef)
			if err != nil {
				return err
			}
			s, err := scheduler.New(a.repo, a.gridOptions(), a.config.Booking.Workdays)
			if err != nil {
				return err
			}

			sug, err := s.Next(ctx, room, a.now(), int(duration.Minutes()), days)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s %s (%s)\n", room.Name, sug.Day.Format("Mon 2006-01-02"),
				formatFree(sug.Label()), timeofday.DurationLabel(sug.EndMinutes-sug.StartMinutes))
			if sug.Run.EndMinutes > sug.EndMinutes {
				fmt.Fprintf(out, "Free until %s\n", timeofday.FormatEnd(sug.Run.EndMinutes))
			}
			fmt.Fprintf(out, "\n  meetin book --room=%s --date=%s --start=%s --end=%s --title=...\n",
				room.Name, sug.Day.Format("2006-01-02"),
				timeofday.Format(sug.StartMinutes), timeofday.FormatEnd(sug.EndMinutes))
			return nil
		},
	}

	cmd.Flags().StringVar(&roomRef, "room", "", "Room name or ID (required)")
	cmd.Flags().DurationVar(&duration, "duration", 30*time.Minute, "Meeting length, e.g. 45m or 1h30m")
	cmd.Flags().IntVar(&days, "days", scheduler.DefaultHorizon, "How many days ahead to search")
	_ = cmd.MarkFlagRequired("room")

	return cmd
}
