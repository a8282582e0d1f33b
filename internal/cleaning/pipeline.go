package cleaning

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/KaramelBytes/framekit-cli/internal/frame"
)

// Pipeline runs a Recipe in a fixed order: missing values, duplicates,
// outliers, type conversion.
type Pipeline struct {
	Recipe Recipe
	Logger *slog.Logger
}

// NewPipeline returns a pipeline for r. A nil logger discards output.
func NewPipeline(r Recipe, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = discardLogger()
	}
	return &Pipeline{Recipe: r, Logger: logger}
}

// Run cleans t and returns the result with its history. t is not modified.
func (p *Pipeline) Run(t *frame.Table) (*frame.Table, *History, error) {
	log := p.Logger
	if log == nil {
		log = discardLogger()
	}
	log = log.With("source", t.Name)
	h := NewHistory(t)
	log.Info("cleaning started", "run_id", h.RunID, "rows", t.Rows(), "cols", t.Width())

	cur := t
	record := func(stage string, steps []Step) {
		h.Add(steps...)
		for _, s := range steps {
			if s.Err != nil {
				log.Warn("recovered", "stage", stage, "column", s.Column, "error", s.Err)
				continue
			}
			log.Debug("step", "stage", stage, "op", s.Op, "column", s.Column, "detail", s.Detail)
		}
	}

	if m := p.Recipe.Missing; m != nil {
		d, err := m.Directive()
		if err != nil {
			return nil, nil, err
		}
		next, steps, err := ResolveMissing(cur, d)
		if err != nil {
			return nil, nil, fmt.Errorf("missing values: %w", err)
		}
		cur = next
		record("missing", steps)
	}
	if dup := p.Recipe.Duplicates; dup != nil {
		next, steps, err := DropDuplicates(cur, dup.Subset)
		if err != nil {
			return nil, nil, fmt.Errorf("duplicates: %w", err)
		}
		cur = next
		record("duplicates", steps)
	}
	if o := p.Recipe.Outliers; o != nil {
		opt, err := o.Options()
		if err != nil {
			return nil, nil, err
		}
		next, steps, err := HandleOutliers(cur, opt)
		switch {
		case errors.Is(err, ErrNoNumericColumns):
			log.Warn("outlier pass skipped", "error", err)
		case err != nil:
			return nil, nil, fmt.Errorf("outliers: %w", err)
		}
		cur = next
		record("outliers", steps)
	}
	if len(p.Recipe.Convert) > 0 {
		next, steps, err := ConvertTypes(cur, p.Recipe.Convert)
		if err != nil {
			return nil, nil, fmt.Errorf("convert: %w", err)
		}
		cur = next
		record("convert", steps)
	}
	if cur == t {
		cur = t.Clone()
	}
	h.Finish(cur)
	log.Info("cleaning finished", "run_id", h.RunID, "rows", cur.Rows(), "cols", cur.Width(), "steps", len(h.Steps))
	return cur, h, nil
}

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }
