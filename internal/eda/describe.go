package eda

import (
	"fmt"
	"sort"
	"strings"

	"github.com/KaramelBytes/framekit-cli/internal/frame"
	"github.com/jedib0t/go-pretty/v6/table"
)

// NumericStats is the describe() row of one numeric column.
type NumericStats struct {
	Column string  `json:"column"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
}

// CategoricalStats is the describe() row of one categorical column.
type CategoricalStats struct {
	Column string `json:"column"`
	Count  int    `json:"count"`
	Unique int    `json:"unique"`
	Top    string `json:"top"`
	Freq   int    `json:"freq"`
}

// MissingCount is the number of missing cells in a column.
type MissingCount struct {
	Column string `json:"column"`
	Count  int    `json:"count"`
}

// KindCount is the number of columns of a kind.
type KindCount struct {
	Kind  string `json:"kind"`
	Count int    `json:"count"`
}

// Summary is the basic statistics of a table.
type Summary struct {
	Name        string             `json:"name"`
	Rows        int                `json:"rows"`
	Cols        int                `json:"cols"`
	Numeric     []NumericStats     `json:"numeric"`
	Categorical []CategoricalStats `json:"categorical"`
	Missing     []MissingCount     `json:"missing"`
	Kinds       []KindCount        `json:"kinds"`
}

// Describe computes the Summary of t.
func Describe(t *frame.Table) *Summary {
	s := &Summary{Name: t.Name, Rows: t.Rows(), Cols: t.Width()}
	kinds := map[frame.Kind]int{}
	for _, c := range t.Columns() {
		kinds[c.Kind]++
		s.Missing = append(s.Missing, MissingCount{Column: c.Name, Count: c.MissingCount()})
		switch c.Kind {
		case frame.KindNumeric:
			p := frame.ProfileColumn(c)
			s.Numeric = append(s.Numeric, NumericStats{
				Column: c.Name, Count: p.Count, Mean: p.Mean, Std: p.Std,
				Min: p.Min, Q1: p.Q1, Median: p.Median, Q3: p.Q3, Max: p.Max,
			})
		case frame.KindCategorical:
			cs := CategoricalStats{Column: c.Name, Count: c.Len() - c.MissingCount(), Unique: frame.Unique(c)}
			if top, n, ok := frame.Mode(c); ok {
				cs.Top, cs.Freq = top.Text, n
			}
			s.Categorical = append(s.Categorical, cs)
		}
	}
	for k, n := range kinds {
		s.Kinds = append(s.Kinds, KindCount{Kind: k.String(), Count: n})
	}
	sort.Slice(s.Kinds, func(i, j int) bool {
		if s.Kinds[i].Count == s.Kinds[j].Count {
			return s.Kinds[i].Kind < s.Kinds[j].Kind
		}
		return s.Kinds[i].Count > s.Kinds[j].Count
	})
	return s
}

// TotalMissing sums missing cells over all columns.
func (s *Summary) TotalMissing() int {
	n := 0
	for _, m := range s.Missing {
		n += m.Count
	}
	return n
}

func (s *Summary) writers() []table.Writer {
	var out []table.Writer
	if len(s.Numeric) > 0 {
		tw := table.NewWriter()
		tw.SetTitle("Numeric columns")
		tw.AppendHeader(table.Row{"Column", "Count", "Mean", "Std", "Min", "25%", "50%", "75%", "Max"})
		for _, n := range s.Numeric {
			tw.AppendRow(table.Row{n.Column, n.Count, num(n.Mean), num(n.Std), num(n.Min), num(n.Q1), num(n.Median), num(n.Q3), num(n.Max)})
		}
		out = append(out, tw)
	}
	if len(s.Categorical) > 0 {
		tw := table.NewWriter()
		tw.SetTitle("Categorical columns")
		tw.AppendHeader(table.Row{"Column", "Count", "Unique", "Top", "Freq"})
		for _, c := range s.Categorical {
			tw.AppendRow(table.Row{c.Column, c.Count, c.Unique, c.Top, c.Freq})
		}
		out = append(out, tw)
	}
	tw := table.NewWriter()
	tw.SetTitle("Missing values")
	tw.AppendHeader(table.Row{"Column", "Missing", "Ratio"})
	for _, m := range s.Missing {
		ratio := 0.0
		if s.Rows > 0 {
			ratio = float64(m.Count) / float64(s.Rows)
		}
		tw.AppendRow(table.Row{m.Column, m.Count, fmt.Sprintf("%.1f%%", ratio*100)})
	}
	tw.AppendFooter(table.Row{"Total", s.TotalMissing(), ""})
	out = append(out, tw)
	return out
}

func (s *Summary) header() string {
	kinds := make([]string, len(s.Kinds))
	for i, k := range s.Kinds {
		kinds[i] = fmt.Sprintf("%s=%d", k.Kind, k.Count)
	}
	return fmt.Sprintf("%s: %d rows x %d columns (%s)", s.Name, s.Rows, s.Cols, strings.Join(kinds, ", "))
}

// Table renders the summary for a terminal.
func (s *Summary) Table() string {
	var b strings.Builder
	b.WriteString(s.header())
	b.WriteString("\n")
	for _, tw := range s.writers() {
		tw.SetStyle(table.StyleLight)
		b.WriteString("\n")
		b.WriteString(tw.Render())
		b.WriteString("\n")
	}
	return b.String()
}

// Markdown renders the summary as GitHub-flavored Markdown.
func (s *Summary) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Summary\n\n%s\n", s.header())
	for _, tw := range s.writers() {
		b.WriteString("\n")
		b.WriteString(tw.RenderMarkdown())
		b.WriteString("\n")
	}
	return b.String()
}

func num(f float64) string { return fmt.Sprintf("%.4g", f) }
