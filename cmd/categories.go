package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tablelens/internal/profile"
	"github.com/KaramelBytes/tablelens/internal/utils"
)

var (
	catColumn string
	catTopN   int
	catJSON   bool
)

var categoriesCmd = &cobra.Command{
	Use:   "categories <file>",
	Short: "Show the most frequent values of a categorical column",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := loadDataset(cmd, args[0])
		if err != nil {
			return err
		}
		n := initialState().TopN
		if cmd.Flags().Changed("top") {
			n = catTopN
		}
		counts, err := profile.TopValues(ds, catColumn, n)
		if err != nil {
			return err
		}
		column := catColumn
		if column == "" {
			column = profile.CategoricalColumns(ds)[0]
		}

		out := cmd.OutOrStdout()
		if catJSON {
			b, err := utils.PrettyJSON(counts)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
			return nil
		}
		fmt.Fprintf(out, "Column: %s (categorical: %s)\n", column, strings.Join(profile.CategoricalColumns(ds), ", "))
		width := 0
		for _, c := range counts {
			if len(c.Value) > width {
				width = len(c.Value)
			}
		}
		for _, c := range counts {
			fmt.Fprintf(out, "  %-*s  %d\n", width, c.Value, c.Count)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(categoriesCmd)
	categoriesCmd.Flags().StringVarP(&catColumn, "column", "c", "", "categorical column (default: first categorical column)")
	categoriesCmd.Flags().IntVar(&catTopN, "top", profile.DefaultTopN, "number of values to show")
	categoriesCmd.Flags().BoolVar(&catJSON, "json", false, "emit value counts as JSON")
}
