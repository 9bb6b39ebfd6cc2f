package main

import (
	"fmt"
	"os"

	"github.com/goodtune/sessiontimer/internal/tracker"
	"github.com/spf13/cobra"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write all data to a JSON file",
	Long: fmt.Sprintf(`Write categories, sessions and the running timer to a JSON document.
Use --output - to write to stdout. Defaults to %s.`, tracker.ExportFilename),
	Args: cobra.NoArgs,
	RunE: runExport,
}

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Replace all data with an exported JSON file",
	Long: `Replace categories, sessions and the running timer with the contents of
an exported document. Use - to read from stdin. A file that is not a JSON
object leaves existing data untouched.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", tracker.ExportFilename, "Output file, or - for stdout")
	rootCmd.AddCommand(exportCmd, importCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	a, err := openApp(false, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	doc := a.tracker.ExportAll(cmd.Context())

	if exportOutput == "-" {
		return doc.Encode(cmd.OutOrStdout())
	}

	f, err := os.Create(exportOutput)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	if err := doc.Encode(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d categories and %d sessions to %s\n",
		len(doc.Categories), len(doc.Sessions), exportOutput)
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	a, err := openApp(true, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	r := cmd.InOrStdin()
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open import file: %w", err)
		}
		defer f.Close()
		r = f
	}

	ctx := cmd.Context()
	if err := a.tracker.ImportAll(ctx, r); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d categories and %d sessions\n",
		len(a.tracker.Categories(ctx)), len(a.tracker.Sessions(ctx)))
	return nil
}
