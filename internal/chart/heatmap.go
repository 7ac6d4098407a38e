package chart

import (
	"strconv"

	"github.com/KaramelBytes/tablelens/internal/dataset"
	"github.com/KaramelBytes/tablelens/internal/profile"
	"github.com/KaramelBytes/tablelens/internal/utils"
)

// CorrelationHeatmap lays out a correlation matrix with a diverging scale and
// the coefficients printed in each cell.
func CorrelationHeatmap(m profile.CorrMatrix) (*HeatmapSpec, error) {
	if m.Empty() {
		return nil, &dataset.NoEligibleColumnsError{Op: "correlation heatmap", Want: []dataset.Kind{dataset.KindNumeric}}
	}
	z := make([][]utils.Float, len(m.Values))
	for i, row := range m.Values {
		z[i] = utils.Floats(row)
	}
	return &HeatmapSpec{
		Header: Header{
			Type:  KindCorrelationHeatmap,
			Title: "Correlation Matrix",
			Style: Style{ColorScale: "RdBu_r", TextAuto: true},
		},
		X: append([]string(nil), m.Columns...),
		Y: append([]string(nil), m.Columns...),
		Z: z,
	}, nil
}

// MissingHeatmap shows null cells as 1 and present cells as 0, one row per
// dataset row. Row labels are hidden.
func MissingHeatmap(mask profile.MissingMask) *HeatmapSpec {
	y := make([]string, mask.Rows())
	z := make([][]utils.Float, mask.Rows())
	for i, row := range mask.Cells {
		y[i] = strconv.Itoa(i)
		z[i] = make([]utils.Float, len(row))
		for j, missing := range row {
			if missing {
				z[i][j] = 1
			}
		}
	}
	return &HeatmapSpec{
		Header: Header{
			Type:  KindMissingHeatmap,
			Title: "Missing Values Heatmap",
			Style: Style{ColorScale: "Reds", ShowColorBar: boolPtr(false), ShowYTickLabels: boolPtr(false)},
		},
		X: append([]string{}, mask.Columns...),
		Y: y,
		Z: z,
	}
}
