package cleaning

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Recipe is a declarative cleaning plan, usually read from YAML:
//
//	missing:
//	  strategy: auto
//	  drop_threshold: 0.5
//	  fill_values: {Embarked: S}
//	duplicates:
//	  subset: [PassengerId]
//	outliers:
//	  mode: clip
//	  k: 1.5
//	convert:
//	  Survived: int
//
// Absent sections are skipped.
type Recipe struct {
	Missing    *MissingSection   `yaml:"missing,omitempty"`
	Duplicates *DuplicateSection `yaml:"duplicates,omitempty"`
	Outliers   *OutlierSection   `yaml:"outliers,omitempty"`
	Convert    map[string]string `yaml:"convert,omitempty" validate:"omitempty,dive,keys,required,endkeys,required"`
}

type MissingSection struct {
	Strategy      string            `yaml:"strategy" validate:"required"`
	Constant      string            `yaml:"constant,omitempty"`
	FillValues    map[string]string `yaml:"fill_values,omitempty"`
	DropThreshold float64           `yaml:"drop_threshold,omitempty" validate:"gte=0,lte=1"`
}

type DuplicateSection struct {
	Subset []string `yaml:"subset,omitempty" validate:"omitempty,dive,required"`
}

type OutlierSection struct {
	Mode    string   `yaml:"mode" validate:"required"`
	K       float64  `yaml:"k,omitempty" validate:"gte=0"`
	Columns []string `yaml:"columns,omitempty" validate:"omitempty,dive,required"`
}

var validate = validator.New()

// ParseRecipe decodes and validates a YAML recipe. Unknown keys are rejected.
func ParseRecipe(data []byte) (*Recipe, error) {
	var r Recipe
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&r); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse recipe: %w", err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// LoadRecipe reads a recipe file.
func LoadRecipe(path string) (*Recipe, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read recipe: %w", err)
	}
	return ParseRecipe(b)
}

// Validate checks field constraints, then that strategy and mode names parse.
func (r *Recipe) Validate() error {
	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid recipe: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid recipe: %w", err)
	}
	if r.Missing != nil {
		if _, err := r.Missing.Directive(); err != nil {
			return err
		}
	}
	if r.Outliers != nil {
		if _, err := r.Outliers.Options(); err != nil {
			return err
		}
	}
	return nil
}

// Directive converts the section into a ResolveMissing directive.
func (m *MissingSection) Directive() (Directive, error) {
	s, err := ParseStrategy(m.Strategy)
	if err != nil {
		return Directive{}, err
	}
	d := Directive{Strategy: s, Constant: m.Constant, FillValues: m.FillValues, DropThreshold: m.DropThreshold}
	return d, d.validate()
}

// Options converts the section into HandleOutliers options.
func (o *OutlierSection) Options() (OutlierOptions, error) {
	mode, err := ParseOutlierMode(o.Mode)
	if err != nil {
		return OutlierOptions{}, err
	}
	return OutlierOptions{Mode: mode, K: o.K, Columns: o.Columns}, nil
}
