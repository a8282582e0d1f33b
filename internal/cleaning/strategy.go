package cleaning

import (
	"fmt"
	"strings"
)

// Strategy names a missing-value policy.
type Strategy string

const (
	// StrategyAuto drops columns above the missing threshold, fills numeric
	// columns with the median and everything else with the mode.
	StrategyAuto Strategy = "auto"
	// StrategyDrop drops every column that holds a missing cell.
	StrategyDrop Strategy = "drop"
	// StrategyDropRows removes every row that holds a missing cell.
	StrategyDropRows Strategy = "drop-rows"
	StrategyMean     Strategy = "mean"
	StrategyMedian   Strategy = "median"
	StrategyMode     Strategy = "mode"
	// StrategyConstant fills with Directive.Constant.
	StrategyConstant Strategy = "constant"
	// StrategyFill only applies Directive.FillValues.
	StrategyFill Strategy = "fill"
)

// DefaultDropThreshold is the missing ratio above which auto drops a column.
const DefaultDropThreshold = 0.5

// Strategies lists accepted strategy names.
func Strategies() []Strategy {
	return []Strategy{StrategyAuto, StrategyDrop, StrategyDropRows, StrategyMean, StrategyMedian, StrategyMode, StrategyConstant, StrategyFill}
}

// ParseStrategy accepts the canonical names plus a few spellings used in recipes
// ("drop-column", "fill-median", "dropna").
func ParseStrategy(s string) (Strategy, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.ReplaceAll(v, "_", "-")
	v = strings.TrimPrefix(v, "fill-")
	switch v {
	case "", "auto":
		return StrategyAuto, nil
	case "drop", "drop-column", "drop-columns":
		return StrategyDrop, nil
	case "drop-rows", "dropna":
		return StrategyDropRows, nil
	case "mean":
		return StrategyMean, nil
	case "median":
		return StrategyMedian, nil
	case "mode":
		return StrategyMode, nil
	case "constant":
		return StrategyConstant, nil
	case "fill":
		return StrategyFill, nil
	}
	return "", fmt.Errorf("%w: %q (use auto|drop|drop-rows|mean|median|mode|constant|fill)", ErrInvalidStrategy, s)
}

// Directive configures one ResolveMissing call.
type Directive struct {
	Strategy Strategy
	// Constant is the fill value for StrategyConstant.
	Constant string
	// FillValues overrides the strategy for the named columns. Unknown names are ignored.
	FillValues map[string]string
	// DropThreshold applies to StrategyAuto; values <= 0 mean DefaultDropThreshold.
	DropThreshold float64
}

// DefaultDirective returns the auto directive with the default threshold.
func DefaultDirective() Directive {
	return Directive{Strategy: StrategyAuto, DropThreshold: DefaultDropThreshold}
}

func (d Directive) validate() error {
	switch d.Strategy {
	case StrategyAuto, StrategyDrop, StrategyDropRows, StrategyMean, StrategyMedian, StrategyMode:
	case StrategyFill:
		if len(d.FillValues) == 0 {
			return fmt.Errorf("%w: fill strategy requires per-column fill values", ErrInvalidStrategy)
		}
	case StrategyConstant:
		if d.Constant == "" {
			return fmt.Errorf("%w: constant strategy requires a fill value", ErrInvalidStrategy)
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStrategy, d.Strategy)
	}
	if d.DropThreshold > 1 {
		return fmt.Errorf("%w: drop threshold %.2f outside [0, 1]", ErrInvalidStrategy, d.DropThreshold)
	}
	return nil
}

func (d Directive) threshold() float64 {
	if d.DropThreshold <= 0 {
		return DefaultDropThreshold
	}
	return d.DropThreshold
}
