package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/KaramelBytes/framekit-cli/internal/eda"
	"github.com/KaramelBytes/framekit-cli/internal/frame"
	"github.com/spf13/cobra"
)

var (
	edaInput    inputFlags
	edaOutDir   string
	edaBins     int
	edaColumns  []string
	edaNoPlots  bool
	edaNoCorr   bool
	edaMarkdown bool
)

var edaCmd = &cobra.Command{
	Use:   "eda <file>",
	Short: "Summarize a dataset and plot distributions and correlations",
	Long: `Describe every column of a CSV/TSV, JSONL or XLSX file and write
summary.md, one histogram PNG per numeric column, correlation.html and
report.json into the output directory.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		opt, err := edaInput.options()
		if err != nil {
			return err
		}
		t, err := frame.LoadFile(path, opt)
		if err != nil {
			return err
		}

		s := settings()
		outDir := edaOutDir
		if outDir == "" {
			outDir = filepath.Join(s.OutputDir, stem(path)+"_eda")
		}
		bins := s.HistogramBins
		if cmd.Flags().Changed("bins") {
			if edaBins <= 0 {
				return fmt.Errorf("invalid --bins: %d", edaBins)
			}
			bins = edaBins
		}

		rep, err := eda.Analyze(t, eda.Options{
			OutDir:      outDir,
			Columns:     edaColumns,
			Bins:        bins,
			Plots:       !edaNoPlots,
			Correlation: !edaNoCorr,
		}, logger)
		if err != nil {
			return err
		}
		rep.Source = path
		reportPath := filepath.Join(outDir, "report.json")
		if err := rep.Save(reportPath); err != nil {
			return fmt.Errorf("write report: %w", err)
		}

		if edaMarkdown {
			fmt.Println(rep.Summary.Markdown())
		} else {
			fmt.Println(rep.Summary.Table())
		}
		if len(rep.TopPairs) > 0 {
			fmt.Println("Top correlations:")
			for _, p := range rep.TopPairs {
				fmt.Printf("  %s ~ %s: %.3f\n", p.A, p.B, p.R)
			}
		}
		for _, w := range rep.Warnings {
			fmt.Fprintf(os.Stderr, "⚠ Warning: %s\n", w)
		}
		fmt.Printf("✓ Wrote %d artifacts to %s\n", len(rep.Artifacts), outDir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(edaCmd)
	f := edaCmd.Flags()
	edaInput.register(f)
	f.StringVarP(&edaOutDir, "out", "o", "", "output directory (default <output_dir>/<name>_eda)")
	f.IntVar(&edaBins, "bins", 30, "histogram bins (default from config)")
	f.StringSliceVar(&edaColumns, "columns", nil, "numeric columns to plot (default all)")
	f.BoolVar(&edaNoPlots, "no-plots", false, "skip histogram PNGs")
	f.BoolVar(&edaNoCorr, "no-corr", false, "skip the correlation matrix and heatmap")
	f.BoolVar(&edaMarkdown, "markdown", false, "print the summary as Markdown")
}
