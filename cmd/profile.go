package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tablelens/internal/profile"
	"github.com/KaramelBytes/tablelens/internal/utils"
)

var (
	profOutputPath string
	profJSON       bool
	profHeadRows   int
)

var profileCmd = &cobra.Command{
	Use:   "profile <file>",
	Short: "Profile a CSV/XLSX file: shape, types, statistics, missing values, correlations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := loadDataset(cmd, args[0])
		if err != nil {
			return err
		}
		head := initialState().HeadRows
		if cmd.Flags().Changed("head") {
			head = profHeadRows
		}
		rep := profile.New(ds).Report(head)

		var out []byte
		if profJSON {
			if out, err = utils.PrettyJSON(rep); err != nil {
				return err
			}
		} else {
			out = []byte(rep.Markdown())
		}

		// --output path, or stdout
		if profOutputPath != "" {
			if err := utils.SafeWriteFile(profOutputPath, out); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote profile to %s\n", profOutputPath)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.Flags().StringVarP(&profOutputPath, "output", "o", "", "optional path to write the profile")
	profileCmd.Flags().BoolVar(&profJSON, "json", false, "emit the profile as JSON instead of Markdown")
	profileCmd.Flags().IntVar(&profHeadRows, "head", 5, "number of preview rows")
}
