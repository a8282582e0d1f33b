package cmd

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/framekit-cli/internal/cleaning"
	"github.com/KaramelBytes/framekit-cli/internal/convert"
	"github.com/KaramelBytes/framekit-cli/internal/frame"
	"github.com/KaramelBytes/framekit-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	clnInput       inputFlags
	clnRecipe      string
	clnStrategy    string
	clnThreshold   float64
	clnConstant    string
	clnFill        []string
	clnOutlierMode string
	clnK           float64
	clnColumns     []string
	clnNoOutliers  bool
	clnDedupe      bool
	clnSubset      []string
	clnConvert     []string
	clnOutput      string
	clnHistory     string
	clnQuiet       bool
)

var cleanCmd = &cobra.Command{
	Use:   "clean <file>",
	Short: "Resolve missing values, drop duplicates and handle IQR outliers",
	Long: `Clean a CSV/TSV, JSONL or XLSX file and write the result as CSV (or JSONL
when --output ends in .jsonl). A JSON history of every step is written next to
the output.

Steps run in order: missing values, duplicates, outliers, type conversion.
Settings come from --recipe (YAML) when given; explicit flags override it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		recipe, err := buildRecipe(cmd)
		if err != nil {
			return err
		}
		opt, err := clnInput.options()
		if err != nil {
			return err
		}
		t, err := frame.LoadFile(path, opt)
		if err != nil {
			return err
		}

		out, h, err := cleaning.NewPipeline(*recipe, logger).Run(t)
		if err != nil {
			return err
		}
		h.Source = path

		outPath := clnOutput
		if outPath == "" {
			outPath = filepath.Join(settings().OutputDir, stem(path)+"_clean.csv")
		}
		if err := writeTable(outPath, out, opt); err != nil {
			return err
		}
		histPath := clnHistory
		if histPath == "" {
			histPath = strings.TrimSuffix(outPath, filepath.Ext(outPath)) + ".history.json"
		}
		if err := h.Save(histPath); err != nil {
			return fmt.Errorf("write history: %w", err)
		}

		if !clnQuiet {
			for _, line := range h.Lines() {
				fmt.Printf("  - %s\n", line)
			}
		}
		fmt.Printf("✓ Cleaned %s: %d×%d -> %d×%d (%d steps)\n", filepath.Base(path), h.Before.Rows, h.Before.Cols, h.After.Rows, h.After.Cols, len(h.Steps))
		fmt.Printf("✓ Wrote %s\n", outPath)
		fmt.Printf("✓ Wrote history to %s\n", histPath)
		return nil
	},
}

// buildRecipe starts from --recipe (or config defaults) and applies the
// flags the user set explicitly.
func buildRecipe(cmd *cobra.Command) (*cleaning.Recipe, error) {
	f := cmd.Flags()
	s := settings()
	var r *cleaning.Recipe
	if clnRecipe != "" {
		loaded, err := cleaning.LoadRecipe(clnRecipe)
		if err != nil {
			return nil, err
		}
		r = loaded
	} else {
		r = &cleaning.Recipe{
			Missing:  &cleaning.MissingSection{Strategy: s.MissingStrategy, DropThreshold: s.DropThreshold},
			Outliers: &cleaning.OutlierSection{Mode: s.OutlierMode, K: s.OutlierK},
		}
	}

	if f.Changed("strategy") || f.Changed("threshold") || f.Changed("constant") || f.Changed("fill") {
		if r.Missing == nil {
			r.Missing = &cleaning.MissingSection{Strategy: s.MissingStrategy, DropThreshold: s.DropThreshold}
		}
		if f.Changed("strategy") {
			r.Missing.Strategy = clnStrategy
		}
		if f.Changed("threshold") {
			r.Missing.DropThreshold = clnThreshold
		}
		if f.Changed("constant") {
			r.Missing.Constant = clnConstant
		}
		fills, err := parsePairs("fill", clnFill)
		if err != nil {
			return nil, err
		}
		if len(fills) > 0 {
			if r.Missing.FillValues == nil {
				r.Missing.FillValues = map[string]string{}
			}
			for k, v := range fills {
				r.Missing.FillValues[k] = v
			}
		}
	}

	if clnNoOutliers {
		r.Outliers = nil
	} else if f.Changed("outlier-mode") || f.Changed("k") || f.Changed("columns") {
		if r.Outliers == nil {
			r.Outliers = &cleaning.OutlierSection{Mode: s.OutlierMode, K: s.OutlierK}
		}
		if f.Changed("outlier-mode") {
			r.Outliers.Mode = clnOutlierMode
		}
		if f.Changed("k") {
			r.Outliers.K = clnK
		}
		if f.Changed("columns") {
			r.Outliers.Columns = clnColumns
		}
	}

	if clnDedupe || f.Changed("subset") {
		r.Duplicates = &cleaning.DuplicateSection{Subset: clnSubset}
	}

	conv, err := parsePairs("convert", clnConvert)
	if err != nil {
		return nil, err
	}
	if len(conv) > 0 {
		if r.Convert == nil {
			r.Convert = map[string]string{}
		}
		for k, v := range conv {
			r.Convert[k] = v
		}
	}

	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// writeTable writes CSV, or JSON Lines when path ends in .jsonl.
func writeTable(path string, t *frame.Table, opt frame.LoadOptions) error {
	if strings.EqualFold(filepath.Ext(path), ".jsonl") {
		var buf bytes.Buffer
		if err := convert.WriteJSONL(&buf, t, opt.Encoding); err != nil {
			return err
		}
		return utils.SafeWriteFile(path, buf.Bytes())
	}
	return frame.WriteCSVFile(path, t, frame.WriteOptions{Delimiter: opt.Delimiter, Encoding: opt.Encoding})
}

// stem returns the base name without compression and format extensions.
func stem(path string) string {
	base := filepath.Base(path)
	for _, ext := range []string{".gz", ".lz4"} {
		if strings.HasSuffix(strings.ToLower(base), ext) {
			base = base[:len(base)-len(ext)]
		}
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	f := cleanCmd.Flags()
	clnInput.register(f)
	f.StringVar(&clnRecipe, "recipe", "", "YAML cleaning recipe")
	f.StringVar(&clnStrategy, "strategy", "auto", "missing-value strategy: auto|drop|drop-rows|mean|median|mode|constant")
	f.Float64Var(&clnThreshold, "threshold", 0.5, "auto: drop columns whose missing ratio exceeds this")
	f.StringVar(&clnConstant, "constant", "", "value used by --strategy constant")
	f.StringArrayVar(&clnFill, "fill", nil, "per-column fill value as column=value (repeatable)")
	f.StringVar(&clnOutlierMode, "outlier-mode", "filter", "IQR outlier handling: filter|clip")
	f.Float64Var(&clnK, "k", 1.5, "IQR multiplier")
	f.StringSliceVar(&clnColumns, "columns", nil, "numeric columns to check for outliers (default all)")
	f.BoolVar(&clnNoOutliers, "no-outliers", false, "skip outlier handling")
	f.BoolVar(&clnDedupe, "dedupe", false, "drop duplicate rows, keeping the first")
	f.StringSliceVar(&clnSubset, "subset", nil, "columns that identify a duplicate (implies --dedupe)")
	f.StringArrayVar(&clnConvert, "convert", nil, "type conversion as column=int|float|str|category|bool (repeatable)")
	f.StringVarP(&clnOutput, "output", "o", "", "output path (default <output_dir>/<name>_clean.csv)")
	f.StringVar(&clnHistory, "history", "", "history JSON path (default next to the output)")
	f.BoolVarP(&clnQuiet, "quiet", "q", false, "do not list individual steps")
}
