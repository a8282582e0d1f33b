package cleaning

import (
	"fmt"
	"strings"
	"time"

	"github.com/KaramelBytes/framekit-cli/internal/frame"
	"github.com/KaramelBytes/framekit-cli/internal/utils"
	"github.com/google/uuid"
)

// Op identifies the kind of change a Step made.
type Op string

const (
	OpDropColumn     Op = "drop_column"
	OpFill           Op = "fill"
	OpDropRows       Op = "drop_rows"
	OpFilterOutliers Op = "filter_outliers"
	OpClipOutliers   Op = "clip_outliers"
	OpDropDuplicates Op = "drop_duplicates"
	OpConvert        Op = "convert"
)

// Step records one change made to a table.
type Step struct {
	Op     Op     `json:"op"`
	Column string `json:"column,omitempty"`
	Detail string `json:"detail"`
	// Rows is the number of rows removed or cells changed, depending on Op.
	Rows int `json:"rows,omitempty"`
	// Err is set when the step is a documented recovery (e.g. ErrEmptyColumn).
	Err    error  `json:"-"`
	Reason string `json:"reason,omitempty"`
}

func (s Step) String() string {
	var b strings.Builder
	b.WriteString(string(s.Op))
	if s.Column != "" {
		fmt.Fprintf(&b, " [%s]", s.Column)
	}
	if s.Detail != "" {
		b.WriteString(": ")
		b.WriteString(s.Detail)
	}
	if s.Reason != "" {
		fmt.Fprintf(&b, " (%s)", s.Reason)
	}
	return b.String()
}

func recovered(s Step, err error) Step {
	s.Err = err
	s.Reason = err.Error()
	return s
}

// Shape is a rows x columns pair.
type Shape struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

func shapeOf(t *frame.Table) Shape { return Shape{Rows: t.Rows(), Cols: t.Width()} }

// History is the audit trail of one cleaning run.
type History struct {
	RunID      string    `json:"run_id"`
	Source     string    `json:"source"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Before     Shape     `json:"before"`
	After      Shape     `json:"after"`
	Steps      []Step    `json:"steps"`
}

// NewHistory starts a history for t.
func NewHistory(t *frame.Table) *History {
	return &History{
		RunID:     uuid.NewString(),
		Source:    t.Name,
		StartedAt: time.Now(),
		Before:    shapeOf(t),
	}
}

// Add appends steps.
func (h *History) Add(steps ...Step) { h.Steps = append(h.Steps, steps...) }

// Finish stamps the final shape.
func (h *History) Finish(t *frame.Table) {
	h.FinishedAt = time.Now()
	h.After = shapeOf(t)
}

// Lines renders one human-readable line per step.
func (h *History) Lines() []string {
	out := make([]string, len(h.Steps))
	for i, s := range h.Steps {
		out[i] = s.String()
	}
	return out
}

// Save writes the history as indented JSON.
func (h *History) Save(path string) error {
	b, err := utils.PrettyJSON(h)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(path, b)
}
