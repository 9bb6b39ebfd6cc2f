package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/goodtune/sessiontimer/internal/tracker"
	"github.com/spf13/cobra"
)

var statsRange string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show time per category",
	Long: `Show the total time tracked per category for a range: all, week (since
Monday), month or year. Unknown ranges fall back to all.`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().StringVarP(&statsRange, "range", "r", "", "Range to report (all, week, month, year)")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	a, err := openApp(false, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	token := statsRange
	if token == "" {
		token = a.cfg.Display.DefaultRange
	}
	rng := tracker.ParseRange(token)

	stats := a.tracker.Stats(cmd.Context(), rng)
	totals := stats.Totals

	cyan := color.New(color.FgCyan, color.Bold)
	bold := color.New(color.Bold)
	faint := color.New(color.Faint)

	cyan.Fprintf(cmd.OutOrStdout(), "[%s]", rng)
	if rng != tracker.RangeAll {
		faint.Fprintf(cmd.OutOrStdout(), " since %s", stats.Start.Format("Mon 2006-01-02"))
	}
	fmt.Fprintln(cmd.OutOrStdout())

	if len(totals) == 0 {
		faint.Fprintln(cmd.OutOrStdout(), "No sessions in this range")
		return nil
	}

	width := 0
	for _, c := range totals {
		if len(c.CategoryName) > width {
			width = len(c.CategoryName)
		}
	}

	for _, c := range totals {
		share := stats.Share(c)
		bar := strings.Repeat("█", int(share*20+0.5))
		fmt.Fprintf(cmd.OutOrStdout(), "  %-*s  %5.1f%%  ", width, c.CategoryName, share*100)
		color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "%-20s", bar)
		fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", tracker.FormatLong(c.Total))
	}
	bold.Fprintf(cmd.OutOrStdout(), "  %-*s  %s\n", width+30, "Total", tracker.FormatLong(stats.Total))
	return nil
}
