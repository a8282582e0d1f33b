package eda

import (
	"encoding/json"
	"errors"
	"math"
	"sort"

	"github.com/KaramelBytes/framekit-cli/internal/frame"
)

// ErrTooFewNumeric is returned when a correlation needs two numeric columns.
var ErrTooFewNumeric = errors.New("need at least two numeric columns")

// CorrMatrix holds a symmetric Pearson correlation matrix across numeric
// columns. Undefined entries (fewer than two shared observations, or zero
// variance) are NaN.
type CorrMatrix struct {
	Columns []string
	Values  [][]float64 // row-major, Values[i][j]
}

// PairCorr is a simple correlation pair summary.
type PairCorr struct {
	A string  `json:"a"`
	B string  `json:"b"`
	R float64 `json:"r"`
}

// exact pairwise accumulators over rows where both cells are present
type pairAcc struct {
	n     float64
	sumX  float64
	sumY  float64
	sumXX float64
	sumYY float64
	sumXY float64
}

func (pa *pairAcc) add(x, y float64) {
	pa.n++
	pa.sumX += x
	pa.sumY += y
	pa.sumXX += x * x
	pa.sumYY += y * y
	pa.sumXY += x * y
}

func (pa *pairAcc) r() float64 {
	if pa.n < 2 {
		return math.NaN()
	}
	denom := math.Sqrt((pa.n*pa.sumXX - pa.sumX*pa.sumX) * (pa.n*pa.sumYY - pa.sumY*pa.sumY))
	if denom == 0 || math.IsNaN(denom) {
		return math.NaN()
	}
	r := (pa.n*pa.sumXY - pa.sumX*pa.sumY) / denom
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	return r
}

// Correlate computes pairwise-complete Pearson correlations of the numeric
// columns of t.
func Correlate(t *frame.Table) (*CorrMatrix, error) {
	cols := t.NumericColumns()
	if len(cols) < 2 {
		return nil, ErrTooFewNumeric
	}
	n := len(cols)
	m := &CorrMatrix{Columns: make([]string, n), Values: make([][]float64, n)}
	for i, c := range cols {
		m.Columns[i] = c.Name
		m.Values[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			var pa pairAcc
			for r := 0; r < t.Rows(); r++ {
				x, y := cols[i].At(r), cols[j].At(r)
				if x.Valid && y.Valid {
					pa.add(x.Num, y.Num)
				}
			}
			v := pa.r()
			if i == j && !math.IsNaN(v) {
				v = 1
			}
			m.Values[i][j] = v
			m.Values[j][i] = v
		}
	}
	return m, nil
}

// At returns the correlation between two named columns.
func (m *CorrMatrix) At(a, b string) (float64, bool) {
	i, j := m.index(a), m.index(b)
	if i < 0 || j < 0 {
		return 0, false
	}
	return m.Values[i][j], true
}

func (m *CorrMatrix) index(name string) int {
	for i, c := range m.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// TopPairs returns up to n off-diagonal pairs ordered by |r| descending.
func (m *CorrMatrix) TopPairs(n int) []PairCorr {
	var pairs []PairCorr
	for i := 1; i < len(m.Columns); i++ {
		for j := 0; j < i; j++ {
			r := m.Values[i][j]
			if math.IsNaN(r) {
				continue
			}
			pairs = append(pairs, PairCorr{A: m.Columns[j], B: m.Columns[i], R: r})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		ai, aj := math.Abs(pairs[i].R), math.Abs(pairs[j].R)
		if ai == aj {
			return pairs[i].A+pairs[i].B < pairs[j].A+pairs[j].B
		}
		return ai > aj
	})
	if n > 0 && len(pairs) > n {
		pairs = pairs[:n]
	}
	return pairs
}

// MarshalJSON writes undefined entries as null.
func (m *CorrMatrix) MarshalJSON() ([]byte, error) {
	vals := make([][]*float64, len(m.Values))
	for i, row := range m.Values {
		vals[i] = make([]*float64, len(row))
		for j := range row {
			if !math.IsNaN(row[j]) {
				vals[i][j] = &row[j]
			}
		}
	}
	return json.Marshal(struct {
		Columns []string     `json:"columns"`
		Values  [][]*float64 `json:"values"`
	}{m.Columns, vals})
}
