package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

func newHabitCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "habit",
		Short: "Manage habits and their streaks",
	}

	var desc string
	add := &cobra.Command{
		Use:   "add NAME",
		Short: "Create a habit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.habits.Create(cmd.Context(), args[0], desc)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created habit %d %s\n", h.ID, titleStyle.Render(h.Name))
			return nil
		},
	}
	add.Flags().StringVar(&desc, "desc", "", "description")

	var date string
	done := &cobra.Command{
		Use:   "done ID",
		Short: "Mark a habit done for a day (today by default)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			day, err := a.resolveDay(date)
			if err != nil {
				return err
			}
			res, err := a.habits.Complete(cmd.Context(), id, day)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %s, streak %d (best %d)\n",
				res.Habit.Name, positiveStyle.Render(string(res.Outcome)), res.Habit.CurrentStreak, res.Habit.LongestStreak)
			for _, u := range res.Unlocked {
				fmt.Fprintf(out, "Achievement unlocked: %s\n", titleStyle.Render(u.Title))
			}
			return nil
		},
	}
	done.Flags().StringVar(&date, "date", "", "day as YYYY-MM-DD (default: today)")

	var archived bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List habits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			habits, err := a.habits.List(cmd.Context(), archived)
			if err != nil {
				return err
			}
			t := newTable("ID", "NAME", "STREAK", "BEST", "TOTAL", "LAST")
			for _, h := range habits {
				name := h.Name
				if h.Archived {
					name += labelStyle.Render(" (archived)")
				}
				t.add(strconv.FormatInt(h.ID, 10), name, strconv.Itoa(h.CurrentStreak),
					strconv.Itoa(h.LongestStreak), strconv.Itoa(h.TotalCompletions), optionalDate(h.LastCompleted))
			}
			t.render(cmd.OutOrStdout())
			return nil
		},
	}
	list.Flags().BoolVar(&archived, "archived", false, "include archived habits")

	achievements := &cobra.Command{
		Use:   "achievements ID",
		Short: "List a habit's unlocked achievements",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			unlocked, err := a.habits.Achievements(cmd.Context(), id)
			if err != nil {
				return err
			}
			t := newTable("CODE", "TITLE", "UNLOCKED")
			for _, u := range unlocked {
				t.add(u.Code, u.Title, u.UnlockedAt.Local().Format("2006-01-02 15:04"))
			}
			t.render(cmd.OutOrStdout())
			return nil
		},
	}

	archive := &cobra.Command{
		Use:   "archive ID",
		Short: "Archive a habit, keeping its history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.habits.Archive(cmd.Context(), id, true); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Archived habit %d\n", id)
			return nil
		},
	}

	cmd.AddCommand(add, done, list, achievements, archive)
	return cmd
}

func newFocusCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "focus",
		Short: "Run timed focus sessions",
	}

	var habitID int64
	var planned int
	start := &cobra.Command{
		Use:   "start LABEL",
		Short: "Start a focus session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var habit *int64
			if habitID > 0 {
				habit = &habitID
			}
			s, err := a.focus.Start(cmd.Context(), args[0], habit, planned)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Started session %d at %s\n", s.ID, s.StartedAt.Local().Format("15:04"))
			return nil
		},
	}
	start.Flags().Int64Var(&habitID, "habit", 0, "habit completed when the plan is reached")
	start.Flags().IntVar(&planned, "planned", 0, "planned length in minutes")

	stop := &cobra.Command{
		Use:   "stop ID",
		Short: "Stop a running session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			res, err := a.focus.Stop(cmd.Context(), id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Session %d lasted %s\n", id, (time.Duration(res.Session.Minutes()) * time.Minute).String())
			if res.Completion != nil {
				fmt.Fprintf(out, "%s: %s\n", res.Completion.Habit.Name, positiveStyle.Render(string(res.Completion.Outcome)))
			}
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List running sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sessions, err := a.focus.Running(cmd.Context())
			if err != nil {
				return err
			}
			t := newTable("ID", "LABEL", "STARTED", "PLANNED", "HABIT")
			for _, s := range sessions {
				t.add(strconv.FormatInt(s.ID, 10), s.Label, s.StartedAt.Local().Format("2006-01-02 15:04"),
					fmt.Sprintf("%dm", s.PlannedMinutes), optionalID(s.HabitID))
			}
			t.render(cmd.OutOrStdout())
			return nil
		},
	}

	cmd.AddCommand(start, stop, list)
	return cmd
}
