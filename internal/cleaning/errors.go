package cleaning

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidStrategy indicates an unsupported missing-value strategy.
	ErrInvalidStrategy = errors.New("invalid missing-value strategy")
	// ErrInvalidMode indicates an unsupported outlier mode.
	ErrInvalidMode = errors.New("invalid outlier mode")
	// ErrEmptyColumn indicates a column has no present values to compute a fill from.
	// ResolveMissing recovers by dropping the column and recording a Step.
	ErrEmptyColumn = errors.New("column has no non-missing values")
	// ErrNoNumericColumns is non-fatal: HandleOutliers returns the input unchanged alongside it.
	ErrNoNumericColumns = errors.New("no numeric columns")
	// ErrKindMismatch indicates an operation that does not apply to the column's kind.
	ErrKindMismatch = errors.New("column kind mismatch")
	// ErrInvalidConversion indicates a value could not be cast to the requested type.
	ErrInvalidConversion = errors.New("invalid type conversion")
)

// ColumnError scopes a failure to a single column.
type ColumnError struct {
	Column string
	Err    error
}

func (e *ColumnError) Error() string {
	if e == nil {
		return "column error"
	}
	return fmt.Sprintf("column %q: %v", e.Column, e.Err)
}

func (e *ColumnError) Unwrap() error { return e.Err }

func columnErr(col string, err error) error {
	return &ColumnError{Column: col, Err: err}
}
