package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/goodtune/sessiontimer/internal/storage"
	"github.com/goodtune/sessiontimer/internal/tracker"
	"github.com/spf13/cobra"
)

var (
	historyLimit int
	editCategory string
	editStart    string
	editEnd      string
)

var startCmd = &cobra.Command{
	Use:   "start CATEGORY_ID",
	Short: "Start timing a category",
	Args:  cobra.ExactArgs(1),
	RunE:  runStart,
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running session",
	Args:  cobra.NoArgs,
	RunE:  runStop,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the running session",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent completed sessions, newest first",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

var editCmd = &cobra.Command{
	Use:   "edit SESSION_ID",
	Short: "Change a session's category or times",
	Long: `Change a completed session's category, start and end. Times are local
wall-clock values (YYYY-MM-DDTHH:MM) in the configured display timezone.
Omitted flags keep the session's current value.`,
	Example: `  sessiontimer edit 3f2c... --start 2025-03-12T09:00 --end 2025-03-12T10:30`,
	Args:    cobra.ExactArgs(1),
	RunE:    runEdit,
}

var deleteCmd = &cobra.Command{
	Use:     "delete SESSION_ID",
	Aliases: []string{"rm"},
	Short:   "Delete a completed session",
	Args:    cobra.ExactArgs(1),
	RunE:    runDelete,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 0, "Number of sessions to show (default from display.recent_limit)")
	editCmd.Flags().StringVar(&editCategory, "category", "", "Category ID")
	editCmd.Flags().StringVar(&editStart, "start", "", "Start time (YYYY-MM-DDTHH:MM)")
	editCmd.Flags().StringVar(&editEnd, "end", "", "End time (YYYY-MM-DDTHH:MM)")

	rootCmd.AddCommand(startCmd, stopCmd, statusCmd, historyCmd, editCmd, deleteCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	a, err := openApp(false, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	session, err := a.tracker.StartSession(cmd.Context(), args[0])
	if err != nil {
		if errors.Is(err, tracker.ErrActiveSession) {
			return fmt.Errorf("%w; stop it first with: sessiontimer stop", err)
		}
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Started %s at %s\n", session.CategoryName, localTime(session.StartTime, a))
	return nil
}

func runStop(cmd *cobra.Command, args []string) error {
	a, err := openApp(false, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	session, err := a.tracker.StopSession(cmd.Context())
	if err != nil {
		return err
	}
	if session == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "Cleared a running timer that had no matching session")
		return nil
	}

	d, _ := session.Duration()
	fmt.Fprintf(cmd.OutOrStdout(), "Stopped %s after %s\n", session.CategoryName, tracker.FormatLong(d))
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := openApp(false, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	active := a.tracker.ActiveSession(ctx)
	if active == nil {
		color.New(color.Faint).Fprintln(cmd.OutOrStdout(), "No session running")
		return nil
	}

	elapsed, _ := a.tracker.Elapsed(ctx)
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen, color.Bold)
	bold.Fprint(cmd.OutOrStdout(), active.CategoryName)
	fmt.Fprint(cmd.OutOrStdout(), "  ")
	green.Fprintln(cmd.OutOrStdout(), tracker.FormatShort(elapsed))
	fmt.Fprintf(cmd.OutOrStdout(), "started %s\n", localTime(active.StartTime, a))
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	a, err := openApp(false, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	limit := historyLimit
	if limit <= 0 {
		limit = a.cfg.Display.RecentLimit
	}

	sessions := a.tracker.RecentSessions(cmd.Context(), limit)
	if len(sessions) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No completed sessions")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCATEGORY\tSTART\tEND\tDURATION")
	for _, s := range sessions {
		end := ""
		if s.EndTime != nil {
			end = localTime(*s.EndTime, a)
		}
		d, _ := s.Duration()
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			s.ID, s.CategoryName, localTime(s.StartTime, a), end, tracker.FormatShort(d))
	}
	return w.Flush()
}

func runEdit(cmd *cobra.Command, args []string) error {
	a, err := openApp(false, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	session, ok := findSession(a.tracker.Sessions(ctx), args[0])
	if !ok {
		return fmt.Errorf("%w: %s", tracker.ErrSessionNotFound, args[0])
	}
	if session.Open() {
		return tracker.ErrSessionRunning
	}

	// Omitted flags keep the stored value at full precision
	categoryID := session.CategoryID
	if cmd.Flags().Changed("category") {
		categoryID = editCategory
	}

	start, err := session.Start()
	if err != nil {
		return fmt.Errorf("start: %w", err)
	}
	if cmd.Flags().Changed("start") {
		if start, err = tracker.ParseLocalInput(editStart, a.location); err != nil {
			return fmt.Errorf("start: %w", err)
		}
	}

	end, _, err := session.End()
	if err != nil {
		return fmt.Errorf("end: %w", err)
	}
	if cmd.Flags().Changed("end") {
		if end, err = tracker.ParseLocalInput(editEnd, a.location); err != nil {
			return fmt.Errorf("end: %w", err)
		}
	}

	if err := a.tracker.EditSessionCategory(ctx, session.ID, categoryID, start, end); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Updated session %s (%s)\n", session.ID, tracker.FormatLong(end.Sub(start)))
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	a, err := openApp(false, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.tracker.DeleteSession(cmd.Context(), args[0]); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Deleted session %s\n", args[0])
	return nil
}

func findSession(sessions []storage.Session, id string) (storage.Session, bool) {
	for _, s := range sessions {
		if s.ID == id {
			return s, true
		}
	}
	return storage.Session{}, false
}

// localTime renders a stored instant in the display timezone.
func localTime(iso string, a *app) string {
	t, err := storage.ParseInstant(iso)
	if err != nil {
		return iso
	}
	return t.In(a.location).Format("2006-01-02 15:04")
}
