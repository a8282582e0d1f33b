package eda

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/KaramelBytes/framekit-cli/internal/frame"
	"github.com/KaramelBytes/framekit-cli/internal/utils"
)

// Artifact is a file produced by an analysis run.
type Artifact struct {
	Kind   string `json:"kind"` // summary|histogram|correlation|report
	Path   string `json:"path"`
	Column string `json:"column,omitempty"`
}

// Report collects everything one analysis run produced, in production order.
type Report struct {
	Source      string      `json:"source"`
	GeneratedAt time.Time   `json:"generated_at"`
	Summary     *Summary    `json:"summary"`
	Correlation *CorrMatrix `json:"correlation,omitempty"`
	TopPairs    []PairCorr  `json:"top_pairs,omitempty"`
	Artifacts   []Artifact  `json:"artifacts"`
	Warnings    []string    `json:"warnings,omitempty"`
}

// Options controls Analyze.
type Options struct {
	OutDir string
	// Columns limits histograms to the named numeric columns.
	Columns     []string
	Bins        int
	Plots       bool
	Correlation bool
}

// Analyze describes t and writes the requested artifacts under opt.OutDir.
// Missing prerequisites for a plot (no numeric columns, fewer than two for
// a correlation) become warnings rather than errors.
func Analyze(t *frame.Table, opt Options, log *slog.Logger) (*Report, error) {
	if log == nil {
		log = slog.Default()
	}
	rep := &Report{Source: t.Name, GeneratedAt: time.Now(), Summary: Describe(t)}

	md := filepath.Join(opt.OutDir, "summary.md")
	if err := utils.SafeWriteFile(md, []byte(rep.Summary.Markdown())); err != nil {
		return nil, err
	}
	rep.add(Artifact{Kind: "summary", Path: md})

	if opt.Plots {
		arts, err := plotDist(t, opt.Columns, opt.OutDir, opt.Bins)
		switch {
		case errors.Is(err, ErrNothingToPlot):
			rep.warn(log, "histograms skipped: %v", err)
		case err != nil:
			return nil, err
		}
		for _, a := range arts {
			rep.add(a)
		}
	}

	if opt.Correlation {
		m, err := Correlate(t)
		switch {
		case errors.Is(err, ErrTooFewNumeric):
			rep.warn(log, "correlation skipped: %v", err)
		case err != nil:
			return nil, err
		default:
			rep.Correlation = m
			rep.TopPairs = m.TopPairs(10)
			var buf bytes.Buffer
			if err := WriteCorrelationHTML(&buf, m); err != nil {
				return nil, err
			}
			p := filepath.Join(opt.OutDir, "correlation.html")
			if err := utils.SafeWriteFile(p, buf.Bytes()); err != nil {
				return nil, err
			}
			rep.add(Artifact{Kind: "correlation", Path: p})
		}
	}
	log.Info("analysis complete", "source", t.Name, "artifacts", len(rep.Artifacts), "warnings", len(rep.Warnings))
	return rep, nil
}

func (r *Report) add(a Artifact) { r.Artifacts = append(r.Artifacts, a) }

func (r *Report) warn(log *slog.Logger, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.Warnings = append(r.Warnings, msg)
	log.Warn(msg)
}

// Save writes the report as JSON and records it as an artifact.
func (r *Report) Save(path string) error {
	r.add(Artifact{Kind: "report", Path: path})
	b, err := utils.PrettyJSON(r)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(path, b)
}
