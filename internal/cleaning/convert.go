package cleaning

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/KaramelBytes/framekit-cli/internal/frame"
)

// ConvertTypes casts columns per mapping (column -> target type). Supported
// targets: int (and int8..int64), float (float32, float64), str (string,
// object), category and bool. Columns not in the table are ignored.
//
// Integer conversion rejects missing cells and fractional values.
func ConvertTypes(t *frame.Table, mapping map[string]string) (*frame.Table, []Step, error) {
	out := t
	var steps []Step
	for _, c := range t.Columns() {
		target, ok := mapping[c.Name]
		if !ok {
			continue
		}
		conv, err := convertColumn(c, target)
		if err != nil {
			return nil, nil, columnErr(c.Name, err)
		}
		if out, err = out.Replace(conv); err != nil {
			return nil, nil, err
		}
		steps = append(steps, Step{Op: OpConvert, Column: c.Name, Detail: fmt.Sprintf("%s -> %s", c.Kind, target)})
	}
	if out == t {
		out = t.Clone()
	}
	return out, steps, nil
}

func convertColumn(c *frame.Column, target string) (*frame.Column, error) {
	tt := strings.ToLower(strings.TrimSpace(target))
	switch {
	case strings.HasPrefix(tt, "int"):
		return mapCells(c, frame.KindNumeric, func(v frame.Value) (frame.Value, error) {
			if !v.Valid {
				return v, fmt.Errorf("%w: cannot convert missing value to %s", ErrInvalidConversion, tt)
			}
			if n, err := strconv.ParseInt(strings.TrimSpace(v.Text), 10, 64); err == nil {
				return frame.Int(n), nil
			}
			f, err := toFloat(v)
			if err != nil {
				return v, err
			}
			if f != math.Trunc(f) {
				return v, fmt.Errorf("%w: %s is not an integer", ErrInvalidConversion, v.Text)
			}
			return frame.Num(f), nil
		})
	case strings.HasPrefix(tt, "float"):
		return mapCells(c, frame.KindNumeric, func(v frame.Value) (frame.Value, error) {
			if !v.Valid {
				return v, nil
			}
			f, err := toFloat(v)
			if err != nil {
				return v, err
			}
			return frame.Num(f), nil
		})
	case tt == "str" || tt == "string" || tt == "object" || tt == "category":
		return mapCells(c, frame.KindCategorical, func(v frame.Value) (frame.Value, error) {
			if !v.Valid {
				return v, nil
			}
			return frame.Str(v.Text), nil
		})
	case tt == "bool":
		return mapCells(c, frame.KindOther, func(v frame.Value) (frame.Value, error) {
			if !v.Valid {
				return v, nil
			}
			b, err := toBool(v)
			if err != nil {
				return v, err
			}
			return frame.Str(strconv.FormatBool(b)), nil
		})
	}
	return nil, fmt.Errorf("%w: unsupported target type %q", ErrInvalidConversion, target)
}

func mapCells(c *frame.Column, kind frame.Kind, fn func(frame.Value) (frame.Value, error)) (*frame.Column, error) {
	vals := c.Values()
	for i, v := range vals {
		nv, err := fn(v)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		vals[i] = nv
	}
	return frame.NewColumn(c.Name, kind, vals), nil
}

func toFloat(v frame.Value) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v.Text), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not numeric", ErrInvalidConversion, v.Text)
	}
	return f, nil
}

func toBool(v frame.Value) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v.Text)) {
	case "1", "1.0", "true", "t", "yes", "y":
		return true, nil
	case "0", "0.0", "false", "f", "no", "n":
		return false, nil
	}
	return false, fmt.Errorf("%w: %q is not a boolean", ErrInvalidConversion, v.Text)
}
