package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/meetin/internal/booking"
)

func (a *App) roomCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "room",
		Short: "Manage meeting rooms",
	}
	cmd.AddCommand(a.roomAddCmd())
	cmd.AddCommand(a.roomListCmd())
	cmd.AddCommand(a.roomActiveCmd("enable", true))
	cmd.AddCommand(a.roomActiveCmd("disable", false))
	return cmd
}

func (a *App) roomAddCmd() *cobra.Command {
	var (
		open        string
		closeAt     string
		capacity    int
		amenities   []string
		description string
	)

	cmd := &cobra.Command{
		Use:   "add [name]",
		Short: "Add a meeting room",
		Long: `Add a room with its daily open window.

Times accept "HH:MM", hour fractions like "9.5", or ISO datetimes.
A close time of "24:00" keeps the room open until midnight.`,
		Example: `  meetin room add Orion --open=08:00 --close=18:00 --capacity=8 --amenity=tv --amenity=whiteboard`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.ensureRepo(); err != nil {
				return err
			}
			if open == "" {
				open = a.config.Booking.DefaultOpen
			}
			if closeAt == "" {
				closeAt = a.config.Booking.DefaultClose
			}

			room, err := booking.NewRoom(args[0], open, closeAt)
			if err != nil {
				return err
			}
			room.Capacity = capacity
			room.Amenities = amenities
			room.Description = strings.TrimSpace(description)

			if err := a.repo.CreateRoom(context.Background(), room); err != nil {
				return fmt.Errorf("creating room: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created room %s (%s) open %s\n", room.Name, shortID(room.ID), room.Hours())
			return nil
		},
	}

	cmd.Flags().StringVar(&open, "open", "", "Opening time (default from config)")
	cmd.Flags().StringVar(&closeAt, "close", "", "Closing time (default from config)")
	cmd.Flags().IntVar(&capacity, "capacity", 0, "Number of seats")
	cmd.Flags().StringSliceVar(&amenities, "amenity", nil, "Amenity, repeatable")
	cmd.Flags().StringVar(&description, "description", "", "Free-form description")

	return cmd
}

func (a *App) roomListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List meeting rooms",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.ensureRepo(); err != nil {
				return err
			}
			rooms, err := a.repo.ListRooms(context.Background())
			if err != nil {
				return fmt.Errorf("listing rooms: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(rooms) == 0 {
				fmt.Fprintln(out, "No rooms yet. Add one with 'meetin room add'.")
				return nil
			}
			for _, r := range rooms {
				line := fmt.Sprintf("  %-16s %s  %s  seats %-3d %s",
					truncate(r.Name, 16), shortID(r.ID), r.Hours(), r.Capacity, strings.Join(r.Amenities, ", "))
				if !r.Active {
					line = formatPast(line + "  (disabled)")
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
}

func (a *App) roomActiveCmd(use string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [room]",
		Short: strings.ToUpper(use[:1]) + use[1:] + " bookings for a room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.ensureRepo(); err != nil {
				return err
			}
			ctx := context.Background()
			room, err := booking.FindRoom(ctx, a.repo, args[0])
			if err != nil {
				return err
			}
			if err := a.repo.SetRoomActive(ctx, room.ID, active); err != nil {
				return fmt.Errorf("updating room: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Room %s %sd\n", room.Name, use)
			return nil
		},
	}
}
