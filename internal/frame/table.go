package frame

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind is the declared type of a column.
type Kind int

const (
	// KindOther covers booleans, timestamps and anything that is neither numeric nor categorical.
	KindOther Kind = iota
	KindNumeric
	KindCategorical
)

func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindCategorical:
		return "categorical"
	default:
		return "other"
	}
}

var (
	// ErrRaggedTable is returned when columns differ in length.
	ErrRaggedTable = errors.New("columns have unequal lengths")
	// ErrDuplicateColumn is returned when two columns share a name.
	ErrDuplicateColumn = errors.New("duplicate column name")
	// ErrUnknownColumn is returned when a referenced column does not exist.
	ErrUnknownColumn = errors.New("unknown column")
)

// Value is a single cell. The zero Value is missing.
type Value struct {
	Text  string
	Num   float64
	Valid bool
}

// Null returns a missing cell.
func Null() Value { return Value{} }

// Num returns a present numeric cell.
func Num(f float64) Value {
	return Value{Text: FormatFloat(f), Num: f, Valid: true}
}

// Int returns a present numeric cell holding n exactly.
func Int(n int64) Value {
	return Value{Text: strconv.FormatInt(n, 10), Num: float64(n), Valid: true}
}

// Str returns a present text cell.
func Str(s string) Value { return Value{Text: s, Valid: true} }

// FormatFloat renders f without trailing zeros.
func FormatFloat(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

// NumberKey is the canonical spelling of a numeric cell: "1" and "1.0"
// share a key, while integers past float64 precision keep every digit.
func NumberKey(v Value) string {
	if n, err := strconv.ParseInt(strings.TrimSpace(v.Text), 10, 64); err == nil {
		return strconv.FormatInt(n, 10)
	}
	return FormatFloat(v.Num)
}

// key identifies a present cell of c for counting and deduplication.
func (c *Column) key(v Value) string {
	if c.Kind == KindNumeric {
		return NumberKey(v)
	}
	return v.Text
}

// Column is a named, typed sequence of cells. Columns are treated as
// immutable once attached to a Table.
type Column struct {
	Name   string
	Kind   Kind
	values []Value
}

// NewColumn copies values into a new column.
func NewColumn(name string, kind Kind, values []Value) *Column {
	cp := make([]Value, len(values))
	copy(cp, values)
	return &Column{Name: name, Kind: kind, values: cp}
}

// Len returns the number of cells.
func (c *Column) Len() int { return len(c.values) }

// At returns the i-th cell.
func (c *Column) At(i int) Value { return c.values[i] }

// Values returns a copy of the cells.
func (c *Column) Values() []Value {
	cp := make([]Value, len(c.values))
	copy(cp, c.values)
	return cp
}

// MissingCount returns the number of missing cells.
func (c *Column) MissingCount() int {
	n := 0
	for _, v := range c.values {
		if !v.Valid {
			n++
		}
	}
	return n
}

// MissingRatio is MissingCount/Len, or 0 for an empty column.
func (c *Column) MissingRatio() float64 {
	if len(c.values) == 0 {
		return 0
	}
	return float64(c.MissingCount()) / float64(len(c.values))
}

// Floats returns the present numeric values in row order.
func (c *Column) Floats() []float64 {
	out := make([]float64, 0, len(c.values))
	for _, v := range c.values {
		if v.Valid {
			out = append(out, v.Num)
		}
	}
	return out
}

// Texts returns the text of present cells in row order.
func (c *Column) Texts() []string {
	out := make([]string, 0, len(c.values))
	for _, v := range c.values {
		if v.Valid {
			out = append(out, v.Text)
		}
	}
	return out
}

// Integral reports whether every present value is a whole number that
// fits an int64 without loss.
func (c *Column) Integral() bool {
	for _, v := range c.values {
		if v.Valid && (v.Num != math.Trunc(v.Num) || math.Abs(v.Num) > 1<<53) {
			return false
		}
	}
	return true
}

// Map returns a new column with fn applied to every cell.
func (c *Column) Map(fn func(Value) Value) *Column {
	out := make([]Value, len(c.values))
	for i, v := range c.values {
		out[i] = fn(v)
	}
	return &Column{Name: c.Name, Kind: c.Kind, values: out}
}

// Table is an ordered set of equally long columns.
type Table struct {
	Name string
	cols []*Column
	rows int
}

// New builds a table, checking lengths and name uniqueness.
func New(name string, cols ...*Column) (*Table, error) {
	t := &Table{Name: name, cols: make([]*Column, 0, len(cols))}
	seen := make(map[string]struct{}, len(cols))
	for i, c := range cols {
		if c == nil {
			return nil, fmt.Errorf("column %d is nil", i)
		}
		if _, ok := seen[c.Name]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, c.Name)
		}
		seen[c.Name] = struct{}{}
		if i == 0 {
			t.rows = c.Len()
		} else if c.Len() != t.rows {
			return nil, fmt.Errorf("%w: %q has %d cells, want %d", ErrRaggedTable, c.Name, c.Len(), t.rows)
		}
		t.cols = append(t.cols, c)
	}
	return t, nil
}

// MustNew is New for fixtures; it panics on error.
func MustNew(name string, cols ...*Column) *Table {
	t, err := New(name, cols...)
	if err != nil {
		panic(err)
	}
	return t
}

// Rows returns the row count.
func (t *Table) Rows() int { return t.rows }

// Width returns the column count.
func (t *Table) Width() int { return len(t.cols) }

// Columns returns the columns in order. The slice is a copy; the columns are shared.
func (t *Table) Columns() []*Column {
	cp := make([]*Column, len(t.cols))
	copy(cp, t.cols)
	return cp
}

// Names returns column names in order.
func (t *Table) Names() []string {
	out := make([]string, len(t.cols))
	for i, c := range t.cols {
		out[i] = c.Name
	}
	return out
}

// Column looks a column up by name.
func (t *Table) Column(name string) (*Column, bool) {
	for _, c := range t.cols {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// NumericColumns returns the numeric columns in order.
func (t *Table) NumericColumns() []*Column {
	var out []*Column
	for _, c := range t.cols {
		if c.Kind == KindNumeric {
			out = append(out, c)
		}
	}
	return out
}

// Replace returns a new table with the named column swapped for c.
func (t *Table) Replace(c *Column) (*Table, error) {
	if c.Len() != t.rows && len(t.cols) > 0 {
		return nil, fmt.Errorf("%w: %q has %d cells, want %d", ErrRaggedTable, c.Name, c.Len(), t.rows)
	}
	cols := t.Columns()
	for i, old := range cols {
		if old.Name == c.Name {
			cols[i] = c
			return &Table{Name: t.Name, cols: cols, rows: t.rows}, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, c.Name)
}

// Drop returns a new table without the named columns. Unknown names are ignored.
func (t *Table) Drop(names ...string) *Table {
	skip := make(map[string]struct{}, len(names))
	for _, n := range names {
		skip[n] = struct{}{}
	}
	cols := make([]*Column, 0, len(t.cols))
	for _, c := range t.cols {
		if _, ok := skip[c.Name]; !ok {
			cols = append(cols, c)
		}
	}
	rows := t.rows
	if len(cols) == 0 {
		rows = 0
	}
	return &Table{Name: t.Name, cols: cols, rows: rows}
}

// Select returns a new table holding only the named columns, in the given order.
func (t *Table) Select(names ...string) (*Table, error) {
	cols := make([]*Column, 0, len(names))
	for _, n := range names {
		c, ok := t.Column(n)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, n)
		}
		cols = append(cols, c)
	}
	return New(t.Name, cols...)
}

// Rename returns a new table with columns renamed per mapping (old -> new).
func (t *Table) Rename(mapping map[string]string) (*Table, error) {
	cols := make([]*Column, len(t.cols))
	for i, c := range t.cols {
		name := c.Name
		if to, ok := mapping[name]; ok {
			name = to
		}
		cols[i] = &Column{Name: name, Kind: c.Kind, values: c.values}
	}
	return New(t.Name, cols...)
}

// Take returns a new table holding the given rows, in the given order.
func (t *Table) Take(rows []int) *Table {
	cols := make([]*Column, len(t.cols))
	for i, c := range t.cols {
		vals := make([]Value, len(rows))
		for j, r := range rows {
			vals[j] = c.values[r]
		}
		cols[i] = &Column{Name: c.Name, Kind: c.Kind, values: vals}
	}
	return &Table{Name: t.Name, cols: cols, rows: len(rows)}
}

// Row returns the cells of row i in column order.
func (t *Table) Row(i int) []Value {
	out := make([]Value, len(t.cols))
	for j, c := range t.cols {
		out[j] = c.values[i]
	}
	return out
}

// Records renders the table as text rows with a header; missing cells are empty.
func (t *Table) Records() [][]string {
	out := make([][]string, 0, t.rows+1)
	out = append(out, t.Names())
	for i := 0; i < t.rows; i++ {
		rec := make([]string, len(t.cols))
		for j, c := range t.cols {
			if v := c.values[i]; v.Valid {
				rec[j] = v.Text
			}
		}
		out = append(out, rec)
	}
	return out
}

// Clone returns a table sharing no mutable state with t.
func (t *Table) Clone() *Table {
	cols := make([]*Column, len(t.cols))
	for i, c := range t.cols {
		cols[i] = NewColumn(c.Name, c.Kind, c.values)
	}
	return &Table{Name: t.Name, cols: cols, rows: t.rows}
}
