package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	cfgpkg "github.com/KaramelBytes/framekit-cli/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// resetFlags restores every flag in the tree to its default so that values
// and Changed state do not leak between invocations.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func execute(args ...string) error {
	resetFlags(rootCmd)
	cfg = nil
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

// runCmd is a helper to execute the root command with args.
func runCmd(t *testing.T, args ...string) {
	t.Helper()
	if err := execute(args...); err != nil {
		t.Fatalf("command %v failed: %v", args, err)
	}
}

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func writeFixture(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return strings.Split(strings.TrimRight(string(b), "\n"), "\n")
}

func TestCLI_CleanDefaults(t *testing.T) {
	home := isolate(t)
	in := writeFixture(t, home, "people.csv", "name,age,city\na,20,NY\nb,21,NY\nc,,LA\nd,200,\ne,22,NY\n")
	out := filepath.Join(home, "out", "people_clean.csv")

	runCmd(t, "clean", in, "-o", out, "-q")

	// age: median 21.5 fills c; city: mode NY fills d; then d (200) is filtered
	want := []string{"name,age,city", "a,20,NY", "b,21,NY", "c,21.5,LA", "e,22,NY"}
	got := readLines(t, out)
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("cleaned csv:\n%s\nwant:\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}

	b, err := os.ReadFile(filepath.Join(home, "out", "people_clean.history.json"))
	if err != nil {
		t.Fatalf("history not written: %v", err)
	}
	var h struct {
		RunID  string `json:"run_id"`
		Before struct{ Rows, Cols int }
		After  struct{ Rows, Cols int }
		Steps  []struct {
			Op     string `json:"op"`
			Column string `json:"column"`
		} `json:"steps"`
	}
	if err := json.Unmarshal(b, &h); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if h.RunID == "" || h.Before.Rows != 5 || h.After.Rows != 4 {
		t.Fatalf("history = %+v", h)
	}
	ops := map[string]bool{}
	for _, s := range h.Steps {
		ops[s.Op+":"+s.Column] = true
	}
	for _, want := range []string{"fill:age", "fill:city", "filter_outliers:age"} {
		if !ops[want] {
			t.Fatalf("history missing %s: %+v", want, h.Steps)
		}
	}
}

func TestCLI_CleanRecipeClipAndDedupe(t *testing.T) {
	home := isolate(t)
	rows := []string{"id,x"}
	for i, x := range []string{"10", "11", "12", "13", "14", "15", "16", "17", "100"} {
		rows = append(rows, strings.Join([]string{string(rune('1' + i)), x}, ","))
	}
	rows = append(rows, "9,100", "0,-50")
	in := writeFixture(t, home, "x.csv", strings.Join(rows, "\n")+"\n")
	recipe := writeFixture(t, home, "recipe.yaml", "outliers:\n  mode: clip\n  columns: [x]\n")
	out := filepath.Join(home, "x_clean.csv")

	runCmd(t, "clean", in, "--recipe", recipe, "--dedupe", "-o", out, "-q")

	got := readLines(t, out)
	if len(got) != 11 {
		t.Fatalf("expected header + 10 rows, got %d: %v", len(got), got)
	}
	if got[9] != "9,23.5" || got[10] != "0,3.5" {
		t.Fatalf("clipped rows = %v", got[9:])
	}
}

func TestCLI_CleanFlagsOverrideAndWriteJSONL(t *testing.T) {
	home := isolate(t)
	in := writeFixture(t, home, "p.csv", "name,score\na,1\nb,\nc,3\n")
	out := filepath.Join(home, "p.jsonl")

	runCmd(t, "clean", in, "--strategy", "constant", "--constant", "0", "--no-outliers", "--convert", "score=int", "-o", out, "-q")

	got := readLines(t, out)
	want := []string{`{"name":"a","score":1}`, `{"name":"b","score":0}`, `{"name":"c","score":3}`}
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Fatalf("jsonl = %v", got)
	}
}

func TestCLI_CleanRejectsInvalidStrategy(t *testing.T) {
	home := isolate(t)
	in := writeFixture(t, home, "p.csv", "a\n1\n")
	if err := execute("clean", in, "--strategy", "guess", "-o", filepath.Join(home, "o.csv")); err == nil {
		t.Fatalf("expected error for unknown strategy")
	}
	if err := execute("clean", in, "--outlier-mode", "trim", "-o", filepath.Join(home, "o.csv")); err == nil {
		t.Fatalf("expected error for unknown outlier mode")
	}
	if err := execute("clean", in, "--strategy", "fill", "-o", filepath.Join(home, "o.csv")); err == nil {
		t.Fatalf("expected error for fill without --fill values")
	}
	if _, err := os.Stat(filepath.Join(home, "o.csv")); !os.IsNotExist(err) {
		t.Fatalf("output written despite error: %v", err)
	}
}

func TestCLI_EDAWritesArtifacts(t *testing.T) {
	home := isolate(t)
	in := writeFixture(t, home, "m.csv", "height,weight,team\n150,50,red\n160,58,blue\n170,66,red\n180,80,blue\n175,,red\n")
	outDir := filepath.Join(home, "eda")

	runCmd(t, "eda", in, "--out", outDir, "--bins", "4")

	for _, name := range []string{"summary.md", "dist_height.png", "dist_weight.png", "correlation.html", "report.json"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Fatalf("missing artifact %s: %v", name, err)
		}
	}
	b, err := os.ReadFile(filepath.Join(outDir, "report.json"))
	if err != nil {
		t.Fatal(err)
	}
	var rep struct {
		Source   string `json:"source"`
		TopPairs []struct {
			A, B string
			R    float64
		} `json:"top_pairs"`
		Artifacts []struct{ Kind, Path string } `json:"artifacts"`
	}
	if err := json.Unmarshal(b, &rep); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if rep.Source != in || len(rep.TopPairs) != 1 || rep.TopPairs[0].R < 0.9 {
		t.Fatalf("report = %+v", rep)
	}
	if last := rep.Artifacts[len(rep.Artifacts)-1]; last.Kind != "report" {
		t.Fatalf("last artifact = %+v", last)
	}
}

func TestCLI_EDANoPlotsNoCorr(t *testing.T) {
	home := isolate(t)
	in := writeFixture(t, home, "m.csv", "a,b\n1,x\n2,y\n")
	outDir := filepath.Join(home, "eda")

	runCmd(t, "eda", in, "--out", outDir, "--no-plots", "--no-corr")

	entries, err := os.ReadDir(outDir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	if strings.Join(names, ",") != "report.json,summary.md" {
		t.Fatalf("artifacts = %v", names)
	}
}

func TestCLI_ConvertRoundTripAndFinetune(t *testing.T) {
	home := isolate(t)
	in := writeFixture(t, home, "qa.csv", "question,answer,n\nWhat is 2+2?,4,1\nCapital of France?,Paris,2\n")
	jsonl := filepath.Join(home, "qa.jsonl")
	back := filepath.Join(home, "qa_back.csv")
	ft := filepath.Join(home, "train.jsonl")

	runCmd(t, "convert", "csv2jsonl", in, "-o", jsonl)
	if got := readLines(t, jsonl); got[0] != `{"question":"What is 2+2?","answer":"4","n":1}` {
		t.Fatalf("jsonl[0] = %s", got[0])
	}
	// answer is numeric in row 1 only; it stays a string column
	runCmd(t, "convert", "jsonl2csv", jsonl, "-o", back, "--columns", "n,question")
	if got := readLines(t, back); strings.Join(got, "|") != "n,question|1,What is 2+2?|2,Capital of France?" {
		t.Fatalf("csv = %v", got)
	}

	runCmd(t, "convert", "finetune", in, "--map", "question=instruction", "--map", "answer=output", "-o", ft)
	got := readLines(t, ft)
	if len(got) != 2 || got[1] != `{"instruction":"Capital of France?","input":"","output":"Paris"}` {
		t.Fatalf("finetune = %v", got)
	}

	if err := execute("convert", "finetune", in, "--map", "question=instruction", "-o", ft); err == nil {
		t.Fatalf("expected error when output mapping is missing")
	}
}

func TestCLI_ConfigSet(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(home, "cfg.yaml")

	runCmd(t, "--config", path, "config", "set", "outlier_mode", "clip")
	runCmd(t, "--config", path, "config", "set", "delimiter", "tab")
	runCmd(t, "--config", path, "config", "set", "missing_strategy", "fill_median")

	c, err := cfgpkg.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.OutlierMode != "clip" || c.DelimiterRune() != '\t' || c.MissingStrategy != "fill_median" {
		t.Fatalf("config = %+v", c)
	}
	if err := execute("--config", path, "config", "set", "outlier_mode", "trim"); err == nil {
		t.Fatalf("expected validation error")
	}
	if err := execute("--config", path, "config", "set", "api_key", "x"); err == nil {
		t.Fatalf("expected unknown key error")
	}
}
