package cleaning

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/framekit-cli/internal/frame"
)

// DropDuplicates keeps the first occurrence of each row, comparing only the
// subset columns when given. Missing cells compare equal to each other.
func DropDuplicates(t *frame.Table, subset []string) (*frame.Table, []Step, error) {
	cols := t.Columns()
	if len(subset) > 0 {
		cols = cols[:0:0]
		for _, n := range subset {
			c, ok := t.Column(n)
			if !ok {
				return nil, nil, fmt.Errorf("%w: %q", frame.ErrUnknownColumn, n)
			}
			cols = append(cols, c)
		}
	}
	seen := make(map[string]struct{}, t.Rows())
	keep := make([]int, 0, t.Rows())
	var key strings.Builder
	for r := 0; r < t.Rows(); r++ {
		key.Reset()
		for _, c := range cols {
			v := c.At(r)
			if v.Valid {
				key.WriteByte('v')
				if c.Kind == frame.KindNumeric {
					key.WriteString(frame.NumberKey(v))
				} else {
					key.WriteString(v.Text)
				}
			} else {
				key.WriteByte('-')
			}
			key.WriteByte(0x1f)
		}
		k := key.String()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keep = append(keep, r)
	}
	removed := t.Rows() - len(keep)
	if removed == 0 {
		return t.Clone(), nil, nil
	}
	detail := fmt.Sprintf("removed %d duplicate rows", removed)
	if len(subset) > 0 {
		detail += " (subset " + strings.Join(subset, ", ") + ")"
	}
	return t.Take(keep), []Step{{Op: OpDropDuplicates, Rows: removed, Detail: detail}}, nil
}
