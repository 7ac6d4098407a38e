package cmd

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tablelens/internal/chart"
	"github.com/KaramelBytes/tablelens/internal/profile"
	"github.com/KaramelBytes/tablelens/internal/render"
	"github.com/KaramelBytes/tablelens/internal/session"
	"github.com/KaramelBytes/tablelens/internal/utils"
)

var (
	chKind     string
	chCategory string
	chValue    string
	chAgg      string
	chColumn   string
	chBins     int
	chGroup    string
	chX        string
	chY        string
	chColor    string
	chPNG      string
	chWidth    int
	chHeight   int

	hmMissing bool
	hmOutput  string
)

var chartCmd = &cobra.Command{
	Use:   "chart <file>",
	Short: "Configure a chart and print its JSON spec or render a PNG",
	Long: `Configure one of the chart kinds (bar, pie, histogram, box, line, scatter)
from column selections. Unset columns default to the first eligible column.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := loadDataset(cmd, args[0])
		if err != nil {
			return err
		}
		kind, err := chart.ParseKind(chKind)
		if err != nil {
			return err
		}
		params := map[string]string{
			"category": chCategory,
			"value":    chValue,
			"agg":      chAgg,
			"column":   chColumn,
			"group":    chGroup,
			"x":        chX,
			"y":        chY,
			"color":    chColor,
		}
		if cmd.Flags().Changed("bins") {
			params["bins"] = fmt.Sprint(chBins)
		}
		sel, err := chart.SelectionFromParams(kind, func(k string) string { return params[k] })
		if err != nil {
			return err
		}
		st := initialState()
		st.Chart = sel
		spec, err := chart.Configure(ds, st.ChartSelection())
		if err != nil {
			return err
		}

		if chPNG != "" {
			var buf bytes.Buffer
			if err := render.PNG(&buf, spec, render.Size{Width: chWidth, Height: chHeight}); err != nil {
				return err
			}
			if err := utils.SafeWriteFile(chPNG, buf.Bytes()); err != nil {
				return fmt.Errorf("write png: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s to %s\n", kind.Label(), chPNG)
			return nil
		}
		b, err := utils.PrettyJSON(spec)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(b))
		return nil
	},
}

var heatmapCmd = &cobra.Command{
	Use:   "heatmap <file>",
	Short: "Print the correlation heatmap (or, with --missing, the missing-value heatmap)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := loadDataset(cmd, args[0])
		if err != nil {
			return err
		}
		p := profile.New(ds)
		var v any
		if hmMissing {
			mv := session.MissingView{Report: p.MissingReport()}
			if len(mv.Report) == 0 {
				mv.Message = session.NoMissingMessage
			} else {
				mv.Heatmap = chart.MissingHeatmap(p.MissingMask())
			}
			v = mv
		} else {
			hm, err := chart.CorrelationHeatmap(p.CorrelationMatrix())
			if err != nil {
				return err
			}
			v = hm
		}
		b, err := utils.PrettyJSON(v)
		if err != nil {
			return err
		}
		if hmOutput != "" {
			if err := utils.SafeWriteFile(hmOutput, b); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote heatmap to %s\n", hmOutput)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(b))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chartCmd)
	chartCmd.Flags().StringVarP(&chKind, "kind", "k", string(chart.KindBar), "chart kind: bar|pie|histogram|box|line|scatter")
	chartCmd.Flags().StringVar(&chCategory, "category", "", "bar/pie: category column")
	chartCmd.Flags().StringVar(&chValue, "value", "", "bar/pie/box: numeric value column")
	chartCmd.Flags().StringVar(&chAgg, "agg", "", "bar/pie: count|sum|mean|median (default count)")
	chartCmd.Flags().StringVar(&chColumn, "column", "", "histogram: numeric column")
	chartCmd.Flags().IntVar(&chBins, "bins", 0, "histogram: number of bins (default from config)")
	chartCmd.Flags().StringVar(&chGroup, "group", "", "box: grouping column")
	chartCmd.Flags().StringVar(&chX, "x", "", "line/scatter: x column")
	chartCmd.Flags().StringVar(&chY, "y", "", "line/scatter: y column")
	chartCmd.Flags().StringVar(&chColor, "color", "", "scatter: colour column")
	chartCmd.Flags().StringVar(&chPNG, "png", "", "render the chart to this PNG path instead of printing JSON")
	chartCmd.Flags().IntVar(&chWidth, "width", render.DefaultWidth, "PNG width in pixels")
	chartCmd.Flags().IntVar(&chHeight, "height", render.DefaultHeight, "PNG height in pixels")

	rootCmd.AddCommand(heatmapCmd)
	heatmapCmd.Flags().BoolVar(&hmMissing, "missing", false, "show missing values instead of correlations")
	heatmapCmd.Flags().StringVarP(&hmOutput, "output", "o", "", "optional path to write the heatmap JSON")
}
