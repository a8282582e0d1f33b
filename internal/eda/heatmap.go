package eda

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// coolwarm endpoints and midpoint
var heatColors = []string{"#3b4cc0", "#f7f7f7", "#b40426"}

// WriteCorrelationHTML renders m as an interactive heatmap page.
func WriteCorrelationHTML(w io.Writer, m *CorrMatrix) error {
	if m == nil || len(m.Columns) < 2 {
		return ErrTooFewNumeric
	}
	side := strconv.Itoa(240+60*len(m.Columns)) + "px"
	hm := charts.NewHeatMap()
	// Render resets the x axis data to whatever SetXAxis stored
	hm.SetXAxis(m.Columns)
	hm.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Correlation Matrix", Width: side, Height: side}),
		charts.WithTitleOpts(opts.Title{Title: "Correlation Matrix"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Data: m.Columns}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: m.Columns}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Min:     -1,
			Max:     1,
			InRange: &opts.VisualMapInRange{Color: heatColors},
		}),
	)
	data := make([]opts.HeatMapData, 0, len(m.Columns)*len(m.Columns))
	for i := range m.Columns {
		for j := range m.Columns {
			var v interface{} = "-"
			if r := m.Values[i][j]; !math.IsNaN(r) {
				v = math.Round(r*100) / 100
			}
			data = append(data, opts.HeatMapData{Value: [3]interface{}{j, i, v}})
		}
	}
	hm.AddSeries("pearson r", data)
	if err := hm.Render(w); err != nil {
		return fmt.Errorf("render heatmap: %w", err)
	}
	return nil
}
