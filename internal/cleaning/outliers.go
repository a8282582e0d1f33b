package cleaning

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/framekit-cli/internal/frame"
)

// OutlierMode selects what HandleOutliers does with out-of-bounds values.
type OutlierMode string

const (
	// OutlierFilter removes rows holding an outlier in any considered column.
	OutlierFilter OutlierMode = "filter"
	// OutlierClip replaces outliers with the nearest bound.
	OutlierClip OutlierMode = "clip"
)

// DefaultIQRMultiplier is the fence width used when K is unset.
const DefaultIQRMultiplier = 1.5

// ParseOutlierMode accepts "filter" (alias "iqr") and "clip".
func ParseOutlierMode(s string) (OutlierMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "filter", "iqr":
		return OutlierFilter, nil
	case "clip":
		return OutlierClip, nil
	}
	return "", fmt.Errorf("%w: %q (use filter|clip)", ErrInvalidMode, s)
}

// OutlierOptions configures HandleOutliers.
type OutlierOptions struct {
	Mode OutlierMode
	// K is the IQR multiplier; values <= 0 mean DefaultIQRMultiplier.
	K float64
	// Columns limits the pass to the named numeric columns. Empty means all numeric columns.
	Columns []string
}

// Bounds are the IQR fences of one column.
type Bounds struct {
	Column string
	Q1     float64
	Q3     float64
	IQR    float64
	Lower  float64
	Upper  float64
}

// Contains reports whether x lies within the fences, inclusive.
func (b Bounds) Contains(x float64) bool { return x >= b.Lower && x <= b.Upper }

// ComputeBounds derives fences from the present values of c. ok is false when
// c has none.
//
// Quartiles are nearest-rank order statistics, so both lie inside the fences
// and survive a clip unchanged. Clipping again yields the same fences.
func ComputeBounds(c *frame.Column, k float64) (Bounds, bool) {
	vals := c.Floats()
	if len(vals) == 0 {
		return Bounds{}, false
	}
	if k <= 0 {
		k = DefaultIQRMultiplier
	}
	sorted := frame.Sorted(vals)
	q1 := frame.NearestRank(sorted, 0.25)
	q3 := frame.NearestRank(sorted, 0.75)
	iqr := q3 - q1
	return Bounds{
		Column: c.Name,
		Q1:     q1,
		Q3:     q3,
		IQR:    iqr,
		Lower:  q1 - k*iqr,
		Upper:  q3 + k*iqr,
	}, true
}

// HandleOutliers applies IQR fences to numeric columns. Bounds for every
// column are computed on the input before any change. Missing cells are never
// outliers.
//
// When no numeric column is in scope it returns a copy of t together with
// ErrNoNumericColumns; callers may treat that as a no-op.
func HandleOutliers(t *frame.Table, opt OutlierOptions) (*frame.Table, []Step, error) {
	mode := opt.Mode
	if mode == "" {
		mode = OutlierFilter
	}
	if mode != OutlierFilter && mode != OutlierClip {
		return nil, nil, fmt.Errorf("%w: %q", ErrInvalidMode, opt.Mode)
	}
	cols, err := outlierColumns(t, opt.Columns)
	if err != nil {
		return nil, nil, err
	}
	if len(cols) == 0 {
		return t.Clone(), nil, ErrNoNumericColumns
	}

	bounds := make([]Bounds, 0, len(cols))
	byCol := make([]*frame.Column, 0, len(cols))
	for _, c := range cols {
		b, ok := ComputeBounds(c, opt.K)
		if !ok {
			continue
		}
		bounds = append(bounds, b)
		byCol = append(byCol, c)
	}

	if mode == OutlierClip {
		return clipOutliers(t, byCol, bounds)
	}
	return filterOutliers(t, byCol, bounds)
}

func outlierColumns(t *frame.Table, names []string) ([]*frame.Column, error) {
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
			return nil, columnErr(n, fmt.Errorf("%w: outlier handling needs a numeric column, got %s", ErrKindMismatch, c.Kind))
		}
		out = append(out, c)
	}
	return out, nil
}

func filterOutliers(t *frame.Table, cols []*frame.Column, bounds []Bounds) (*frame.Table, []Step, error) {
	flagged := make([]bool, t.Rows())
	steps := make([]Step, 0, len(cols)+1)
	for i, c := range cols {
		b := bounds[i]
		n := 0
		for r := 0; r < c.Len(); r++ {
			if v := c.At(r); v.Valid && !b.Contains(v.Num) {
				flagged[r] = true
				n++
			}
		}
		if n > 0 {
			steps = append(steps, Step{Op: OpFilterOutliers, Column: c.Name, Rows: n, Detail: fmt.Sprintf("%d outside [%s, %s]", n, frame.FormatFloat(b.Lower), frame.FormatFloat(b.Upper))})
		}
	}
	keep := make([]int, 0, t.Rows())
	for r, bad := range flagged {
		if !bad {
			keep = append(keep, r)
		}
	}
	removed := t.Rows() - len(keep)
	if removed > 0 {
		steps = append(steps, Step{Op: OpDropRows, Rows: removed, Detail: fmt.Sprintf("removed %d outlier rows", removed)})
	}
	return t.Take(keep), steps, nil
}

func clipOutliers(t *frame.Table, cols []*frame.Column, bounds []Bounds) (*frame.Table, []Step, error) {
	out := t.Clone()
	var steps []Step
	for i, c := range cols {
		b := bounds[i]
		n := 0
		clipped := c.Map(func(v frame.Value) frame.Value {
			if !v.Valid {
				return v
			}
			switch {
			case v.Num < b.Lower:
				n++
				return frame.Num(b.Lower)
			case v.Num > b.Upper:
				n++
				return frame.Num(b.Upper)
			}
			return v
		})
		if n == 0 {
			continue
		}
		var err error
		if out, err = out.Replace(clipped); err != nil {
			return nil, nil, err
		}
		steps = append(steps, Step{Op: OpClipOutliers, Column: c.Name, Rows: n, Detail: fmt.Sprintf("%d clipped to [%s, %s]", n, frame.FormatFloat(b.Lower), frame.FormatFloat(b.Upper))})
	}
	return out, steps, nil
}
