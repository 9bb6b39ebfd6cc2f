package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var categoryCmd = &cobra.Command{
	Use:     "category",
	Aliases: []string{"categories"},
	Short:   "Manage categories",
}

var categoryAddCmd = &cobra.Command{
	Use:     "add NAME",
	Short:   "Create a category",
	Example: `  sessiontimer category add "Deep work"`,
	Args:    cobra.MinimumNArgs(1),
	RunE:    runCategoryAdd,
}

var categoryListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List categories in creation order",
	Args:    cobra.NoArgs,
	RunE:    runCategoryList,
}

func init() {
	categoryCmd.AddCommand(categoryAddCmd, categoryListCmd)
	rootCmd.AddCommand(categoryCmd)
}

func runCategoryAdd(cmd *cobra.Command, args []string) error {
	a, err := openApp(false, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	category, err := a.tracker.AddCategory(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created category %q (%s)\n", category.Name, category.ID)
	return nil
}

func runCategoryList(cmd *cobra.Command, args []string) error {
	a, err := openApp(false, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	categories := a.tracker.Categories(cmd.Context())
	if len(categories) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No categories yet. Create one with: sessiontimer category add NAME")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME")
	for _, c := range categories {
		fmt.Fprintf(w, "%s\t%s\n", c.ID, c.Name)
	}
	return w.Flush()
}
