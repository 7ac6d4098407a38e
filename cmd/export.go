package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tablelens/internal/export"
)

var expOutputPath string

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export the whole table as a JSON array of row objects",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := loadDataset(cmd, args[0])
		if err != nil {
			return err
		}
		if expOutputPath == "-" {
			return export.WriteJSON(cmd.OutOrStdout(), ds)
		}
		if err := export.WriteFile(expOutputPath, ds); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported %d rows to %s\n", ds.Rows(), expOutputPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&expOutputPath, "output", "o", export.FileName, "output path, or - for stdout")
}
