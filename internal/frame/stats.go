package frame

import (
	"math"
	"sort"
)

// Quantile returns the q-quantile of sorted values using linear
// interpolation between closest ranks.
func Quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// NearestRank returns the q-quantile of sorted values as an order statistic:
// the value at rank ceil(q*n). The result is always a sample value.
func NearestRank(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	rank := int(math.Ceil(q * float64(n)))
	if rank < 1 {
		rank = 1
	}
	if rank > n {
		rank = n
	}
	return sorted[rank-1]
}

// Sorted returns a sorted copy of vals.
func Sorted(vals []float64) []float64 {
	cp := make([]float64, len(vals))
	copy(cp, vals)
	sort.Float64s(cp)
	return cp
}

// Mean returns the arithmetic mean; ok is false for no values.
func Mean(vals []float64) (mean float64, ok bool) {
	if len(vals) == 0 {
		return 0, false
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals)), true
}

// Median returns the 0.5 quantile; ok is false for no values.
func Median(vals []float64) (median float64, ok bool) {
	if len(vals) == 0 {
		return 0, false
	}
	return Quantile(Sorted(vals), 0.5), true
}

// StdDev returns the sample standard deviation (n-1), 0 for fewer than two values.
func StdDev(vals []float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	// Welford
	var n int
	var mean, m2 float64
	for _, x := range vals {
		n++
		delta := x - mean
		mean += delta / float64(n)
		m2 += delta * (x - mean)
	}
	return math.Sqrt(m2 / float64(n-1))
}

// Mode returns the most frequent present cell of c. Ties go to the value
// whose first occurrence comes earliest. ok is false when c has no present cells.
func Mode(c *Column) (mode Value, count int, ok bool) {
	counts := make(map[string]int)
	first := make(map[string]Value)
	var order []string
	for _, v := range c.values {
		if !v.Valid {
			continue
		}
		key := c.key(v)
		if _, seen := first[key]; !seen {
			first[key] = v
			order = append(order, key)
		}
		counts[key]++
	}
	if len(order) == 0 {
		return Value{}, 0, false
	}
	best := order[0]
	for _, k := range order[1:] {
		if counts[k] > counts[best] {
			best = k
		}
	}
	return first[best], counts[best], true
}

// Unique returns the number of distinct present values.
func Unique(c *Column) int {
	seen := make(map[string]struct{})
	for _, v := range c.values {
		if v.Valid {
			seen[c.key(v)] = struct{}{}
		}
	}
	return len(seen)
}

// Profile captures the per-column figures cleaning decisions rely on.
type Profile struct {
	Name         string
	Kind         Kind
	Rows         int
	Missing      int
	MissingRatio float64
	// Numeric only; zero otherwise.
	Count  int
	Mean   float64
	Std    float64
	Min    float64
	Q1     float64
	Median float64
	Q3     float64
	Max    float64
	IQR    float64
}

// ProfileColumn derives a Profile from c.
func ProfileColumn(c *Column) Profile {
	p := Profile{
		Name:         c.Name,
		Kind:         c.Kind,
		Rows:         c.Len(),
		Missing:      c.MissingCount(),
		MissingRatio: c.MissingRatio(),
	}
	if c.Kind != KindNumeric {
		return p
	}
	vals := c.Floats()
	p.Count = len(vals)
	if p.Count == 0 {
		return p
	}
	sorted := Sorted(vals)
	p.Mean, _ = Mean(vals)
	p.Std = StdDev(vals)
	p.Min = sorted[0]
	p.Max = sorted[len(sorted)-1]
	p.Q1 = Quantile(sorted, 0.25)
	p.Median = Quantile(sorted, 0.5)
	p.Q3 = Quantile(sorted, 0.75)
	p.IQR = p.Q3 - p.Q1
	return p
}
