package cmd

import (
	"fmt"
	"strconv"

	cfgpkg "github.com/KaramelBytes/framekit-cli/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set framekit configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			fmt.Println("No config loaded")
			return nil
		}
		fmt.Printf("missing_strategy: %s\n", cfg.MissingStrategy)
		fmt.Printf("drop_threshold: %.3f\n", cfg.DropThreshold)
		fmt.Printf("outlier_mode: %s\n", cfg.OutlierMode)
		fmt.Printf("outlier_k: %.3f\n", cfg.OutlierK)
		fmt.Printf("histogram_bins: %d\n", cfg.HistogramBins)
		fmt.Printf("output_dir: %s\n", cfg.OutputDir)
		fmt.Printf("encoding: %s\n", cfg.Encoding)
		if cfg.Delimiter != "" {
			fmt.Printf("delimiter: %q\n", cfg.Delimiter)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		switch key {
		case "missing_strategy":
			cfg.MissingStrategy = val
		case "drop_threshold":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return fmt.Errorf("invalid float for drop_threshold: %w", err)
			}
			cfg.DropThreshold = f
		case "outlier_mode":
			cfg.OutlierMode = val
		case "outlier_k":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return fmt.Errorf("invalid float for outlier_k: %w", err)
			}
			cfg.OutlierK = f
		case "histogram_bins":
			i, err := strconv.Atoi(val)
			if err != nil {
				return fmt.Errorf("invalid int for histogram_bins: %w", err)
			}
			cfg.HistogramBins = i
		case "output_dir":
			cfg.OutputDir = val
		case "encoding":
			cfg.Encoding = val
		case "delimiter":
			if val == "tab" {
				val = "\t"
			}
			cfg.Delimiter = val
		default:
			return fmt.Errorf("unknown key: %s (valid: %v)", key, cfgpkg.Keys)
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Println("Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
