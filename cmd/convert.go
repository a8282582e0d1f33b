package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/KaramelBytes/framekit-cli/internal/convert"
	"github.com/spf13/cobra"
)

var (
	cnvOutput    string
	cnvColumns   []string
	cnvEncoding  string
	cnvDelimiter string
	cnvSheet     string
	cnvMap       []string
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert between CSV and JSON Lines",
}

var csvToJSONLCmd = &cobra.Command{
	Use:   "csv2jsonl <file>",
	Short: "Write one JSON object per CSV row",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opt, err := convertOptions()
		if err != nil {
			return err
		}
		out := outputFor(args[0], ".jsonl")
		n, err := convert.CSVToJSONL(args[0], out, opt)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Wrote %d records to %s\n", n, out)
		return nil
	},
}

var jsonlToCSVCmd = &cobra.Command{
	Use:   "jsonl2csv <file>",
	Short: "Flatten JSON Lines into a CSV",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opt, err := convertOptions()
		if err != nil {
			return err
		}
		out := outputFor(args[0], ".csv")
		n, err := convert.JSONLToCSV(args[0], out, opt)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Wrote %d rows to %s\n", n, out)
		return nil
	},
}

var finetuneCmd = &cobra.Command{
	Use:   "finetune <file>",
	Short: "Write instruction/input/output JSON Lines for fine-tuning",
	Long: `Map source columns onto instruction, input and output fields:

  framekit convert finetune qa.csv --map question=instruction --map answer=output

instruction and output are required; input defaults to an empty string.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mapping, err := parsePairs("map", cnvMap)
		if err != nil {
			return err
		}
		opt, err := convertOptions()
		if err != nil {
			return err
		}
		out := cnvOutput
		if out == "" {
			out = filepath.Join(settings().OutputDir, stem(args[0])+"_finetune.jsonl")
		}
		stats, err := convert.FormatForFinetune(args[0], out, mapping, opt)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Wrote %d records to %s\n", stats.Records, out)
		fmt.Printf("  tokens (est.): instruction=%d input=%d output=%d total=%d\n",
			stats.Tokens[convert.FieldInstruction], stats.Tokens[convert.FieldInput], stats.Tokens[convert.FieldOutput], stats.TotalTokens)
		if stats.EmptyInput > 0 {
			fmt.Printf("  %d records have an empty input\n", stats.EmptyInput)
		}
		return nil
	},
}

func convertOptions() (convert.Options, error) {
	s := settings()
	opt := convert.Options{Columns: cnvColumns, Encoding: s.Encoding, Delimiter: s.DelimiterRune(), Sheet: cnvSheet}
	if cnvEncoding != "" {
		opt.Encoding = cnvEncoding
	}
	if cnvDelimiter != "" {
		d, err := parseDelimiter(cnvDelimiter)
		if err != nil {
			return opt, err
		}
		opt.Delimiter = d
	}
	return opt, nil
}

func outputFor(in, ext string) string {
	if cnvOutput != "" {
		return cnvOutput
	}
	return filepath.Join(settings().OutputDir, stem(in)+ext)
}

func init() {
	rootCmd.AddCommand(convertCmd)
	for _, c := range []*cobra.Command{csvToJSONLCmd, jsonlToCSVCmd, finetuneCmd} {
		convertCmd.AddCommand(c)
		c.Flags().StringVarP(&cnvOutput, "output", "o", "", "output path (default <output_dir>/<name> with the new extension)")
		c.Flags().StringVar(&cnvEncoding, "encoding", "", "text encoding for input and output (default from config)")
		c.Flags().StringVar(&cnvDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | '|' | 'tab'")
		c.Flags().StringVar(&cnvSheet, "sheet-name", "", "XLSX: sheet name to read")
	}
	csvToJSONLCmd.Flags().StringSliceVar(&cnvColumns, "columns", nil, "columns to export, in order (default all)")
	jsonlToCSVCmd.Flags().StringSliceVar(&cnvColumns, "columns", nil, "columns to export, in order (default all)")
	finetuneCmd.Flags().StringArrayVar(&cnvMap, "map", nil, "column=instruction|input|output (repeatable)")
}
