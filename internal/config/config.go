package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/framekit-cli/internal/cleaning"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// Cleaning defaults
	MissingStrategy string  `mapstructure:"missing_strategy" yaml:"missing_strategy" validate:"required,strategy"`
	DropThreshold   float64 `mapstructure:"drop_threshold" yaml:"drop_threshold" validate:"gt=0,lte=1"`
	OutlierMode     string  `mapstructure:"outlier_mode" yaml:"outlier_mode" validate:"required,outlier_mode"`
	OutlierK        float64 `mapstructure:"outlier_k" yaml:"outlier_k" validate:"gt=0"`

	// EDA
	HistogramBins int `mapstructure:"histogram_bins" yaml:"histogram_bins" validate:"gte=1,lte=500"`

	// I/O
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`
	Encoding  string `mapstructure:"encoding" yaml:"encoding"`
	// Delimiter is a single character; empty means sniff on read and comma on write.
	Delimiter string `mapstructure:"delimiter" yaml:"delimiter" validate:"omitempty,len=1"`
}

// Keys lists the settable configuration keys in display order.
var Keys = []string{"missing_strategy", "drop_threshold", "outlier_mode", "outlier_k", "histogram_bins", "output_dir", "encoding", "delimiter"}

const dirName = ".framekit"

var validate = newValidator()

// newValidator registers the strategy and outlier_mode tags, which accept
// exactly what the cleaning parsers accept.
func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("strategy", func(fl validator.FieldLevel) bool {
		_, err := cleaning.ParseStrategy(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("outlier_mode", func(fl validator.FieldLevel) bool {
		_, err := cleaning.ParseOutlierMode(fl.Field().String())
		return err == nil
	})
	return v
}

// Validate checks field constraints.
func (c *Global) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %s", keyOf(fe.Field()), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// keyOf maps a struct field name to its config key.
func keyOf(field string) string {
	var b strings.Builder
	for i, r := range field {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// DelimiterRune returns the configured delimiter, or 0.
func (c *Global) DelimiterRune() rune {
	for _, r := range c.Delimiter {
		return r
	}
	return 0
}

// Dir returns ~/.framekit.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, dirName), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.framekit/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		path = filepath.Join(dir, "config.yaml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. A .env file in the working
// directory is loaded first and never overrides variables already set.
func Load(cfgFile string) (*Global, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("FRAMEKIT")
	v.AutomaticEnv()

	v.SetDefault("missing_strategy", "auto")
	v.SetDefault("drop_threshold", 0.5)
	v.SetDefault("outlier_mode", "filter")
	v.SetDefault("outlier_k", 1.5)
	v.SetDefault("histogram_bins", 30)
	v.SetDefault("output_dir", "")
	v.SetDefault("encoding", "utf-8")
	v.SetDefault("delimiter", "")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.OutputDir == "" {
		c.OutputDir = "."
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}
