package cleaning

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/framekit-cli/internal/frame"
)

func TestDropDuplicates(t *testing.T) {
	tab := frame.MustNew("t",
		frame.NewColumn("id", frame.KindNumeric, nums(1, 1, 2, 2)),
		frame.NewColumn("v", frame.KindCategorical, strs("a", "a", "", "")),
		frame.NewColumn("w", frame.KindCategorical, strs("x", "y", "z", "z")),
	)
	out, steps, err := DropDuplicates(tab, nil)
	if err != nil {
		t.Fatalf("DropDuplicates: %v", err)
	}
	if out.Rows() != 3 || len(steps) != 1 || steps[0].Rows != 1 {
		t.Fatalf("rows = %d steps = %+v", out.Rows(), steps)
	}
	out, _, err = DropDuplicates(tab, []string{"id"})
	if err != nil {
		t.Fatalf("subset: %v", err)
	}
	w, _ := out.Column("w")
	if out.Rows() != 2 || w.At(0).Text != "x" || w.At(1).Text != "z" {
		t.Fatalf("subset kept %v", w.Texts())
	}
	if _, _, err := DropDuplicates(tab, []string{"nope"}); !errors.Is(err, frame.ErrUnknownColumn) {
		t.Fatalf("err = %v", err)
	}
}

func TestNumericKeysKeepLargeIntegersApart(t *testing.T) {
	ids := []frame.Value{
		{Text: "9007199254740992", Num: 9007199254740992, Valid: true},
		{Text: "9007199254740993", Num: 9007199254740992, Valid: true},
		{Text: "1.0", Num: 1, Valid: true},
		{Text: "1", Num: 1, Valid: true},
	}
	tab := frame.MustNew("t", frame.NewColumn("id", frame.KindNumeric, ids))
	out, _, err := DropDuplicates(tab, nil)
	if err != nil {
		t.Fatalf("DropDuplicates: %v", err)
	}
	id, _ := out.Column("id")
	if got := strings.Join(id.Texts(), ","); got != "9007199254740992,9007199254740993,1.0" {
		t.Fatalf("kept %s", got)
	}

	conv, _, err := ConvertTypes(frame.MustNew("t",
		frame.NewColumn("id", frame.KindCategorical, strs("1234567890123456789", "2.0")),
	), map[string]string{"id": "int64"})
	if err != nil {
		t.Fatalf("ConvertTypes: %v", err)
	}
	id, _ = conv.Column("id")
	if got := strings.Join(id.Texts(), ","); got != "1234567890123456789,2" {
		t.Fatalf("int64 texts = %s", got)
	}
}

func TestConvertTypes(t *testing.T) {
	tab := frame.MustNew("t",
		frame.NewColumn("survived", frame.KindCategorical, strs("0", "1", "1")),
		frame.NewColumn("fare", frame.KindCategorical, strs("7.25", "", "8")),
		frame.NewColumn("pclass", frame.KindNumeric, nums(3, 1, 2)),
		frame.NewColumn("alone", frame.KindNumeric, nums(1, 0, 1)),
	)
	out, steps, err := ConvertTypes(tab, map[string]string{
		"survived": "int8",
		"fare":     "float64",
		"pclass":   "category",
		"alone":    "bool",
		"ghost":    "int",
	})
	if err != nil {
		t.Fatalf("ConvertTypes: %v", err)
	}
	if len(steps) != 4 {
		t.Fatalf("steps = %+v", steps)
	}
	s, _ := out.Column("survived")
	if s.Kind != frame.KindNumeric || s.At(2).Num != 1 {
		t.Fatalf("survived = %#v", s)
	}
	f, _ := out.Column("fare")
	if f.Kind != frame.KindNumeric || f.At(0).Num != 7.25 || f.At(1).Valid {
		t.Fatalf("fare = %#v", f)
	}
	p, _ := out.Column("pclass")
	if p.Kind != frame.KindCategorical || p.At(0).Text != "3" {
		t.Fatalf("pclass = %#v", p)
	}
	a, _ := out.Column("alone")
	if a.Kind != frame.KindOther || a.At(1).Text != "false" {
		t.Fatalf("alone = %#v", a)
	}

	if _, _, err := ConvertTypes(tab, map[string]string{"fare": "int"}); !errors.Is(err, ErrInvalidConversion) {
		t.Fatalf("int with missing: %v", err)
	}
	if _, _, err := ConvertTypes(tab, map[string]string{"fare": "complex128"}); !errors.Is(err, ErrInvalidConversion) {
		t.Fatalf("unsupported target: %v", err)
	}
}

const titanicRecipe = `
missing:
  strategy: auto
  fill_values:
    Embarked: S
duplicates:
  subset: [PassengerId]
outliers:
  mode: clip
convert:
  Survived: int
`

func TestParseRecipe(t *testing.T) {
	r, err := ParseRecipe([]byte(titanicRecipe))
	if err != nil {
		t.Fatalf("ParseRecipe: %v", err)
	}
	if r.Missing == nil || r.Missing.FillValues["Embarked"] != "S" || r.Outliers.Mode != "clip" {
		t.Fatalf("recipe = %+v", r)
	}
	if _, err := ParseRecipe([]byte("missing:\n  strategy: guess\n")); !errors.Is(err, ErrInvalidStrategy) {
		t.Fatalf("bad strategy: %v", err)
	}
	if _, err := ParseRecipe([]byte("outliers:\n  mode: trim\n")); !errors.Is(err, ErrInvalidMode) {
		t.Fatalf("bad mode: %v", err)
	}
	if _, err := ParseRecipe([]byte("missing:\n  strategy: auto\n  drop_threshold: 2\n")); err == nil {
		t.Fatalf("threshold > 1 accepted")
	}
	if _, err := ParseRecipe([]byte("missing:\n  stratgy: auto\n")); err == nil {
		t.Fatalf("unknown key accepted")
	}
	empty, err := ParseRecipe(nil)
	if err != nil || empty.Missing != nil {
		t.Fatalf("empty recipe = %+v, %v", empty, err)
	}
}

func TestPipelineRun(t *testing.T) {
	records := [][]string{
		{"PassengerId", "Survived", "Age", "Embarked", "Cabin"},
		{"1", "0", "22", "S", ""},
		{"2", "1", "38", "C", "C85"},
		{"3", "1", "", "", ""},
		{"4", "1", "35", "S", ""},
		{"4", "1", "35", "S", ""},
		{"5", "0", "80", "Q", ""},
	}
	tab, err := frame.FromRecords("titanic.csv", records)
	if err != nil {
		t.Fatalf("FromRecords: %v", err)
	}
	r, err := ParseRecipe([]byte(titanicRecipe))
	if err != nil {
		t.Fatalf("ParseRecipe: %v", err)
	}
	var logs bytes.Buffer
	p := NewPipeline(*r, slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug})))
	out, h, err := p.Run(tab)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, ok := out.Column("Cabin"); ok {
		t.Fatalf("Cabin should be dropped: %v", out.Names())
	}
	if out.Rows() != 5 {
		t.Fatalf("rows = %d, want 5", out.Rows())
	}
	emb, _ := out.Column("Embarked")
	if emb.At(2).Text != "S" {
		t.Fatalf("Embarked[2] = %#v", emb.At(2))
	}
	if h.Before.Rows != 6 || h.After.Rows != 5 || h.After.Cols != 4 || h.RunID == "" {
		t.Fatalf("history = %+v", h)
	}
	if !strings.Contains(logs.String(), "cleaning finished") {
		t.Fatalf("logs = %s", logs.String())
	}

	path := filepath.Join(t.TempDir(), "history.json")
	if err := h.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	b, _ := os.ReadFile(path)
	var back History
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("history json: %v", err)
	}
	if back.RunID != h.RunID || len(back.Steps) != len(h.Steps) {
		t.Fatalf("history round trip = %+v", back)
	}
}

func TestPipelineToleratesNoNumericColumns(t *testing.T) {
	tab := frame.MustNew("t", frame.NewColumn("city", frame.KindCategorical, strs("NY", "")))
	p := NewPipeline(Recipe{Outliers: &OutlierSection{Mode: "filter"}, Missing: &MissingSection{Strategy: "mode"}}, nil)
	out, h, err := p.Run(tab)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Rows() != 2 || len(h.Lines()) != 1 {
		t.Fatalf("rows = %d lines = %v", out.Rows(), h.Lines())
	}
}
