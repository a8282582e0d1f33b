package eda

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"

	"github.com/KaramelBytes/framekit-cli/internal/frame"
	"github.com/KaramelBytes/framekit-cli/internal/utils"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// DefaultBins is the histogram bin count when none is given.
const DefaultBins = 30

// ErrNothingToPlot is returned when no column has values to draw.
var ErrNothingToPlot = errors.New("no numeric values to plot")

// Bin is one equal-width histogram bucket. Hi is exclusive except for the last bin.
type Bin struct {
	Lo    float64 `json:"lo"`
	Hi    float64 `json:"hi"`
	Count int     `json:"count"`
}

// Histogram buckets values into equal-width bins spanning [min, max].
// A constant series is centred in a unit-wide range.
func Histogram(values []float64, bins int) []Bin {
	if len(values) == 0 {
		return nil
	}
	if bins <= 0 {
		bins = DefaultBins
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	width := (hi - lo) / float64(bins)
	out := make([]Bin, bins)
	for i := range out {
		out[i].Lo = lo + float64(i)*width
		out[i].Hi = lo + float64(i+1)*width
	}
	out[bins-1].Hi = hi
	for _, v := range values {
		idx := int((v - lo) / width)
		if idx >= bins {
			idx = bins - 1
		}
		if idx < 0 {
			idx = 0
		}
		out[idx].Count++
	}
	return out
}

// WriteHistogramPNG renders a histogram of values as a PNG bar chart.
func WriteHistogramPNG(w io.Writer, name string, values []float64, bins int) error {
	hist := Histogram(values, bins)
	if len(hist) == 0 {
		return ErrNothingToPlot
	}
	maxCount := 1
	bars := make([]chart.Value, len(hist))
	step := len(hist)/6 + 1
	for i, b := range hist {
		if b.Count > maxCount {
			maxCount = b.Count
		}
		label := ""
		if i%step == 0 || i == len(hist)-1 {
			label = fmt.Sprintf("%.3g", (b.Lo+b.Hi)/2)
		}
		bars[i] = chart.Value{
			Value: float64(b.Count),
			Label: label,
			Style: chart.Style{
				FillColor:   drawing.ColorFromHex("4c72b0"),
				StrokeColor: chart.ColorBlack,
				StrokeWidth: 1,
			},
		}
	}
	graph := chart.BarChart{
		Title:      "Distribution of " + name,
		Width:      len(hist)*30 + 160,
		Height:     480,
		BarWidth:   24,
		BarSpacing: 6,
		Background: chart.Style{
			Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 30},
		},
		YAxis: chart.YAxis{
			Name: "Frequency",
			Range: &chart.ContinuousRange{
				Min: 0,
				Max: float64(maxCount),
			},
		},
		XAxis: chart.Style{TextRotationDegrees: 45, FontSize: 9},
		Bars:  bars,
	}
	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render histogram %s: %w", name, err)
	}
	return nil
}

// PlotNumericDist writes one histogram PNG per column into dir and returns
// the written paths. With no cols every numeric column is plotted; columns
// without present values are skipped.
func PlotNumericDist(t *frame.Table, cols []string, dir string, bins int) ([]string, error) {
	arts, err := plotDist(t, cols, dir, bins)
	paths := make([]string, len(arts))
	for i, a := range arts {
		paths[i] = a.Path
	}
	return paths, err
}

func plotDist(t *frame.Table, cols []string, dir string, bins int) ([]Artifact, error) {
	targets, err := numericTargets(t, cols)
	if err != nil {
		return nil, err
	}
	var arts []Artifact
	used := map[string]int{}
	for _, c := range targets {
		vals := c.Floats()
		if len(vals) == 0 {
			continue
		}
		var buf bytes.Buffer
		if err := WriteHistogramPNG(&buf, c.Name, vals, bins); err != nil {
			return arts, err
		}
		base := "dist_" + utils.Slug(c.Name)
		if n := used[base]; n > 0 {
			used[base] = n + 1
			base = fmt.Sprintf("%s_%d", base, n+1)
		} else {
			used[base] = 1
		}
		p := filepath.Join(dir, base+".png")
		if err := utils.SafeWriteFile(p, buf.Bytes()); err != nil {
			return arts, err
		}
		arts = append(arts, Artifact{Kind: "histogram", Path: p, Column: c.Name})
	}
	if len(arts) == 0 {
		return nil, ErrNothingToPlot
	}
	return arts, nil
}

func numericTargets(t *frame.Table, names []string) ([]*frame.Column, error) {
	if len(names) == 0 {
		return t.NumericColumns(), nil
	}
	out := make([]*frame.Column, 0, len(names))
	for _, n := range names {
		c, ok := t.Column(n)
		if !ok {
			return nil, fmt.Errorf("%w: %q", frame.ErrUnknownColumn, n)
		}
		if c.Kind != frame.KindNumeric {
			return nil, fmt.Errorf("column %q is %s, not numeric", n, c.Kind)
		}
		out = append(out, c)
	}
	return out, nil
}
