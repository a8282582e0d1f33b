package cleaning

import (
	"errors"
	"testing"

	"github.com/KaramelBytes/framekit-cli/internal/frame"
)

func nums(vals ...interface{}) []frame.Value {
	out := make([]frame.Value, len(vals))
	for i, v := range vals {
		switch x := v.(type) {
		case nil:
			out[i] = frame.Null()
		case int:
			out[i] = frame.Num(float64(x))
		case float64:
			out[i] = frame.Num(x)
		}
	}
	return out
}

func strs(vals ...string) []frame.Value {
	out := make([]frame.Value, len(vals))
	for i, v := range vals {
		if v == "" {
			out[i] = frame.Null()
			continue
		}
		out[i] = frame.Str(v)
	}
	return out
}

func people() *frame.Table {
	return frame.MustNew("people",
		frame.NewColumn("age", frame.KindNumeric, nums(20, 21, nil, 200, 22)),
		frame.NewColumn("city", frame.KindCategorical, strs("NY", "NY", "LA", "", "NY")),
	)
}

func TestAutoFillsCategoricalWithMode(t *testing.T) {
	tab := frame.MustNew("t", frame.NewColumn("city", frame.KindCategorical, strs("NY", "NY", "LA", "")))
	out, steps, err := ResolveMissing(tab, DefaultDirective())
	if err != nil {
		t.Fatalf("ResolveMissing: %v", err)
	}
	city, _ := out.Column("city")
	if v := city.At(3); !v.Valid || v.Text != "NY" {
		t.Fatalf("city[3] = %#v, want NY", v)
	}
	if len(steps) != 1 || steps[0].Op != OpFill || steps[0].Column != "city" {
		t.Fatalf("steps = %+v", steps)
	}
	if orig, _ := tab.Column("city"); orig.At(3).Valid {
		t.Fatalf("input was modified")
	}
}

func TestAutoFillsNumericWithMedian(t *testing.T) {
	out, _, err := ResolveMissing(people(), DefaultDirective())
	if err != nil {
		t.Fatalf("ResolveMissing: %v", err)
	}
	age, _ := out.Column("age")
	if v := age.At(2); !v.Valid || v.Num != 21.5 {
		t.Fatalf("age[2] = %#v, want 21.5", v)
	}
	city, _ := out.Column("city")
	if city.At(3).Text != "NY" {
		t.Fatalf("city[3] = %#v", city.At(3))
	}
}

func TestAutoDropsSparseColumn(t *testing.T) {
	tab := frame.MustNew("t",
		frame.NewColumn("id", frame.KindNumeric, nums(1, 2, 3, 4, 5)),
		frame.NewColumn("cabin", frame.KindCategorical, strs("C85", "", "", "", "")),
	)
	out, steps, err := ResolveMissing(tab, DefaultDirective())
	if err != nil {
		t.Fatalf("ResolveMissing: %v", err)
	}
	if _, ok := out.Column("cabin"); ok {
		t.Fatalf("cabin (ratio 0.8) should be dropped: %v", out.Names())
	}
	if out.Rows() != 5 {
		t.Fatalf("rows = %d, want 5", out.Rows())
	}
	if len(steps) != 1 || steps[0].Op != OpDropColumn {
		t.Fatalf("steps = %+v", steps)
	}
}

func TestAutoThresholdIsExclusive(t *testing.T) {
	tab := frame.MustNew("t", frame.NewColumn("x", frame.KindNumeric, nums(1, nil)))
	out, _, err := ResolveMissing(tab, Directive{Strategy: StrategyAuto, DropThreshold: 0.5})
	if err != nil {
		t.Fatalf("ResolveMissing: %v", err)
	}
	x, ok := out.Column("x")
	if !ok || x.At(1).Num != 1 {
		t.Fatalf("ratio 0.5 should be filled, not dropped: %v", out.Names())
	}
}

func TestExplicitStrategies(t *testing.T) {
	cases := []struct {
		name string
		d    Directive
		want float64
	}{
		{"mean", Directive{Strategy: StrategyMean}, (20 + 21 + 200 + 22) / 4.0},
		{"median", Directive{Strategy: StrategyMedian}, 21.5},
		{"constant", Directive{Strategy: StrategyConstant, Constant: "0"}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tab := frame.MustNew("t", frame.NewColumn("age", frame.KindNumeric, nums(20, 21, nil, 200, 22)))
			out, _, err := ResolveMissing(tab, tc.d)
			if err != nil {
				t.Fatalf("ResolveMissing: %v", err)
			}
			age, _ := out.Column("age")
			if age.MissingCount() != 0 || age.At(2).Num != tc.want {
				t.Fatalf("age[2] = %v, want %v", age.At(2), tc.want)
			}
		})
	}
}

func TestDropRemovesColumnsWithMissing(t *testing.T) {
	out, _, err := ResolveMissing(people(), Directive{Strategy: StrategyDrop})
	if err != nil {
		t.Fatalf("ResolveMissing: %v", err)
	}
	if out.Width() != 0 || out.Rows() != 0 {
		t.Fatalf("shape = %dx%d, want empty", out.Rows(), out.Width())
	}
}

func TestDropRowsRemovesIncompleteRows(t *testing.T) {
	out, steps, err := ResolveMissing(people(), Directive{Strategy: StrategyDropRows})
	if err != nil {
		t.Fatalf("ResolveMissing: %v", err)
	}
	if out.Rows() != 3 || out.Width() != 2 {
		t.Fatalf("shape = %dx%d, want 3x2", out.Rows(), out.Width())
	}
	if last := steps[len(steps)-1]; last.Op != OpDropRows || last.Rows != 2 {
		t.Fatalf("steps = %+v", steps)
	}
}

func TestFillValuesOverrideStrategy(t *testing.T) {
	d := Directive{Strategy: StrategyMedian, FillValues: map[string]string{"city": "Unknown", "ghost": "x"}}
	tab := people().Drop("age")
	out, _, err := ResolveMissing(tab, d)
	if err != nil {
		t.Fatalf("ResolveMissing: %v", err)
	}
	city, _ := out.Column("city")
	if city.At(3).Text != "Unknown" {
		t.Fatalf("city[3] = %#v", city.At(3))
	}
}

func TestEmptyColumnIsDroppedWithRecordedReason(t *testing.T) {
	tab := frame.MustNew("t",
		frame.NewColumn("a", frame.KindNumeric, nums(1, 2)),
		frame.NewColumn("blank", frame.KindNumeric, nums(nil, nil)),
	)
	out, steps, err := ResolveMissing(tab, Directive{Strategy: StrategyMedian})
	if err != nil {
		t.Fatalf("ResolveMissing: %v", err)
	}
	if _, ok := out.Column("blank"); ok {
		t.Fatalf("blank column kept")
	}
	if len(steps) != 1 || !errors.Is(steps[0].Err, ErrEmptyColumn) || steps[0].Reason == "" {
		t.Fatalf("steps = %+v", steps)
	}
}

func TestInvalidStrategy(t *testing.T) {
	if _, _, err := ResolveMissing(people(), Directive{Strategy: "interpolate"}); !errors.Is(err, ErrInvalidStrategy) {
		t.Fatalf("err = %v, want ErrInvalidStrategy", err)
	}
	if _, err := ParseStrategy("bogus"); !errors.Is(err, ErrInvalidStrategy) {
		t.Fatalf("parse err = %v", err)
	}
	if _, _, err := ResolveMissing(people(), Directive{Strategy: StrategyConstant}); !errors.Is(err, ErrInvalidStrategy) {
		t.Fatalf("constant without value: %v", err)
	}
	if _, _, err := ResolveMissing(people(), Directive{Strategy: StrategyFill}); !errors.Is(err, ErrInvalidStrategy) {
		t.Fatalf("fill without values: %v", err)
	}
	if _, _, err := ResolveMissing(people(), Directive{Strategy: StrategyFill, FillValues: map[string]string{}}); !errors.Is(err, ErrInvalidStrategy) {
		t.Fatalf("fill with empty map: %v", err)
	}
}

func TestMeanOnCategoricalFails(t *testing.T) {
	_, _, err := ResolveMissing(people(), Directive{Strategy: StrategyMean})
	var ce *ColumnError
	if !errors.As(err, &ce) || ce.Column != "city" || !errors.Is(err, ErrKindMismatch) {
		t.Fatalf("err = %v, want kind mismatch on city", err)
	}
}

func TestNonNumericConstantForNumericColumn(t *testing.T) {
	tab := frame.MustNew("t", frame.NewColumn("age", frame.KindNumeric, nums(1, nil)))
	_, _, err := ResolveMissing(tab, Directive{Strategy: StrategyConstant, Constant: "unknown"})
	if !errors.Is(err, ErrKindMismatch) {
		t.Fatalf("err = %v, want ErrKindMismatch", err)
	}
}

func TestParseStrategyAliases(t *testing.T) {
	for in, want := range map[string]Strategy{
		"":            StrategyAuto,
		"fill_median": StrategyMedian,
		"Drop-Column": StrategyDrop,
		"dropna":      StrategyDropRows,
		"mode":        StrategyMode,
	} {
		got, err := ParseStrategy(in)
		if err != nil || got != want {
			t.Fatalf("ParseStrategy(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
}
