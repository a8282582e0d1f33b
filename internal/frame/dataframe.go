package frame

import (
	"fmt"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// MissingTokens are the cell spellings treated as missing on load.
var MissingTokens = []string{"", "NA", "N/A", "NaN", "nan", "null", "NULL", "None", "<nil>"}

func isMissingToken(s string) bool {
	for _, tok := range MissingTokens {
		if s == tok {
			return true
		}
	}
	return false
}

// FromRecords builds a table from a header row followed by data rows.
// Type detection is delegated to gota; short rows are padded with missing
// cells and rows wider than the header are rejected. Numeric cells keep
// their source text so integers beyond float64 precision are written back
// digit for digit.
func FromRecords(name string, records [][]string) (*Table, error) {
	if len(records) == 0 || len(records[0]) == 0 {
		return &Table{Name: name}, nil
	}
	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.TrimSpace(h)
		if header[i] == "" {
			header[i] = fmt.Sprintf("column_%d", i+1)
		}
	}
	ncol := len(header)
	rows := make([][]string, 0, len(records))
	rows = append(rows, header)
	for i, rec := range records[1:] {
		if len(rec) > ncol {
			return nil, fmt.Errorf("row %d has %d fields, header has %d", i+1, len(rec), ncol)
		}
		row := make([]string, ncol)
		for j := 0; j < len(rec); j++ {
			// gota's type detection only skips "" and "NaN"
			if cell := strings.TrimSpace(rec[j]); !isMissingToken(cell) {
				row[j] = cell
			}
		}
		rows = append(rows, row)
	}
	if len(rows) == 1 {
		// header only: nothing for gota to detect
		cols := make([]*Column, ncol)
		for i, h := range header {
			cols[i] = &Column{Name: h, Kind: KindCategorical}
		}
		return New(name, cols...)
	}
	df := dataframe.LoadRecords(rows,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.NaNValues(MissingTokens),
	)
	t, err := FromDataFrame(name, df)
	if err != nil {
		return nil, err
	}
	keepSourceText(t, rows[1:])
	return t, nil
}

// keepSourceText replaces the float-formatted text of numeric cells with the
// cell as it was read. rows are in column order, without the header.
func keepSourceText(t *Table, rows [][]string) {
	for j, c := range t.cols {
		if c.Kind != KindNumeric {
			continue
		}
		for i := range c.values {
			if c.values[i].Valid && rows[i][j] != "" {
				c.values[i].Text = rows[i][j]
			}
		}
	}
}

// FromDataFrame converts a gota DataFrame into a Table.
func FromDataFrame(name string, df dataframe.DataFrame) (*Table, error) {
	if df.Err != nil {
		return nil, fmt.Errorf("dataframe: %w", df.Err)
	}
	names := df.Names()
	types := df.Types()
	cols := make([]*Column, len(names))
	for i, n := range names {
		s := df.Col(n)
		if s.Err != nil {
			return nil, fmt.Errorf("column %q: %w", n, s.Err)
		}
		kind := kindOfSeries(types[i])
		vals := make([]Value, s.Len())
		for j := range vals {
			e := s.Elem(j)
			if e.IsNA() {
				continue
			}
			if kind == KindNumeric {
				vals[j] = Num(e.Float())
			} else {
				vals[j] = Str(e.String())
			}
		}
		c := &Column{Name: n, Kind: kind, values: vals}
		if kind == KindCategorical && temporal(c) {
			c.Kind = KindOther
		}
		cols[i] = c
	}
	return New(name, cols...)
}

func kindOfSeries(t series.Type) Kind {
	switch t {
	case series.Int, series.Float:
		return KindNumeric
	case series.String:
		return KindCategorical
	default:
		return KindOther
	}
}

func temporal(c *Column) bool {
	n := 0
	for _, v := range c.values {
		if !v.Valid {
			continue
		}
		if _, ok := parseTimeMaybe(v.Text); !ok {
			return false
		}
		n++
	}
	return n > 0
}
