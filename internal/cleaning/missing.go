package cleaning

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/KaramelBytes/framekit-cli/internal/frame"
)

// ResolveMissing applies d to every column holding missing cells and returns
// the resolved table with one Step per change. The input is not modified.
//
// A column with no present values cannot be filled by mean, median or mode.
// Such columns are dropped instead, and the Step carries ErrEmptyColumn in Err.
func ResolveMissing(t *frame.Table, d Directive) (*frame.Table, []Step, error) {
	if err := d.validate(); err != nil {
		return nil, nil, err
	}
	threshold := d.threshold()
	var (
		steps []Step
		drop  []string
		out   = t
	)
	for _, c := range t.Columns() {
		missing := c.MissingCount()
		if missing == 0 {
			continue
		}
		if raw, ok := d.FillValues[c.Name]; ok {
			filled, err := fillConstant(c, raw)
			if err != nil {
				return nil, nil, err
			}
			if out, err = out.Replace(filled); err != nil {
				return nil, nil, err
			}
			steps = append(steps, Step{Op: OpFill, Column: c.Name, Rows: missing, Detail: fmt.Sprintf("value=%s", raw)})
			continue
		}

		switch plan := planFor(c, d.Strategy, threshold); plan {
		case StrategyFill, StrategyDropRows:
			// handled by FillValues above / after the column pass
		case StrategyDrop:
			drop = append(drop, c.Name)
			detail := fmt.Sprintf("%d missing", missing)
			if d.Strategy == StrategyAuto {
				detail = fmt.Sprintf("missing ratio %.2f > %.2f", c.MissingRatio(), threshold)
			}
			steps = append(steps, Step{Op: OpDropColumn, Column: c.Name, Detail: detail})
		default:
			fill, label, err := fillValue(c, plan, d.Constant)
			if err != nil {
				if errors.Is(err, ErrEmptyColumn) {
					drop = append(drop, c.Name)
					steps = append(steps, recovered(Step{Op: OpDropColumn, Column: c.Name, Detail: fmt.Sprintf("%s fill impossible", plan)}, err))
					continue
				}
				return nil, nil, columnErr(c.Name, err)
			}
			if out, err = out.Replace(fillMissing(c, fill)); err != nil {
				return nil, nil, err
			}
			steps = append(steps, Step{Op: OpFill, Column: c.Name, Rows: missing, Detail: fmt.Sprintf("%s=%s", label, fill.Text)})
		}
	}
	if len(drop) > 0 {
		out = out.Drop(drop...)
	}
	if d.Strategy == StrategyDropRows {
		var removed int
		out, removed = dropIncompleteRows(out)
		if removed > 0 {
			steps = append(steps, Step{Op: OpDropRows, Rows: removed, Detail: fmt.Sprintf("removed %d rows with missing cells", removed)})
		}
	}
	if out == t {
		out = t.Clone()
	}
	return out, steps, nil
}

// planFor resolves auto to a concrete strategy for c.
func planFor(c *frame.Column, s Strategy, threshold float64) Strategy {
	if s != StrategyAuto {
		return s
	}
	if c.MissingRatio() > threshold {
		return StrategyDrop
	}
	if c.Kind == frame.KindNumeric {
		return StrategyMedian
	}
	return StrategyMode
}

// fillValue computes the replacement for missing cells of c under s.
func fillValue(c *frame.Column, s Strategy, constant string) (frame.Value, string, error) {
	switch s {
	case StrategyMean, StrategyMedian:
		if c.Kind != frame.KindNumeric {
			return frame.Value{}, "", fmt.Errorf("%w: %s needs a numeric column, got %s", ErrKindMismatch, s, c.Kind)
		}
		var (
			v  float64
			ok bool
		)
		if s == StrategyMean {
			v, ok = frame.Mean(c.Floats())
		} else {
			v, ok = frame.Median(c.Floats())
		}
		if !ok {
			return frame.Value{}, "", ErrEmptyColumn
		}
		return frame.Num(v), string(s), nil
	case StrategyMode:
		m, _, ok := frame.Mode(c)
		if !ok {
			return frame.Value{}, "", ErrEmptyColumn
		}
		return m, "mode", nil
	case StrategyConstant:
		v, err := constantFor(c, constant)
		return v, "constant", err
	}
	return frame.Value{}, "", fmt.Errorf("%w: %q", ErrInvalidStrategy, s)
}

// constantFor parses raw for c's kind. Numeric columns only accept numbers.
func constantFor(c *frame.Column, raw string) (frame.Value, error) {
	if c.Kind != frame.KindNumeric {
		return frame.Str(raw), nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return frame.Value{}, fmt.Errorf("%w: constant %q is not numeric", ErrKindMismatch, raw)
	}
	return frame.Num(f), nil
}

func fillConstant(c *frame.Column, raw string) (*frame.Column, error) {
	v, err := constantFor(c, raw)
	if err != nil {
		return nil, columnErr(c.Name, err)
	}
	return fillMissing(c, v), nil
}

func fillMissing(c *frame.Column, fill frame.Value) *frame.Column {
	return c.Map(func(v frame.Value) frame.Value {
		if v.Valid {
			return v
		}
		return fill
	})
}

// dropIncompleteRows keeps rows where every cell is present.
func dropIncompleteRows(t *frame.Table) (*frame.Table, int) {
	keep := make([]int, 0, t.Rows())
	for i := 0; i < t.Rows(); i++ {
		complete := true
		for _, v := range t.Row(i) {
			if !v.Valid {
				complete = false
				break
			}
		}
		if complete {
			keep = append(keep, i)
		}
	}
	return t.Take(keep), t.Rows() - len(keep)
}
