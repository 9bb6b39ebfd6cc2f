package main

import (
	"io"

	"github.com/goodtune/sessiontimer/internal/stopwatch"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Show a live stopwatch for the running session",
	Args:  cobra.NoArgs,
	RunE:  runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	// Log output would tear the full-screen view
	a, err := openApp(false, io.Discard)
	if err != nil {
		return err
	}
	defer a.Close()

	return stopwatch.Run(cmd.Context(), a.tracker)
}
