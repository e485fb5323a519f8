package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

const (
	StepNumeric = "numeric"
	StepOneHot  = "onehot"

	HandleUnknownIgnore = "ignore"
	HandleUnknownError  = "error"
)

// TransformStep encodes one column. Numeric steps impute and standardize,
// one-hot steps expand a category into len(Categories) indicator slots.
type TransformStep struct {
	Column        string   `json:"column"`
	Kind          string   `json:"kind"`
	Impute        any      `json:"impute,omitempty"`
	Mean          float64  `json:"mean,omitempty"`
	Scale         float64  `json:"scale,omitempty"`
	Categories    []string `json:"categories,omitempty"`
	HandleUnknown string   `json:"handle_unknown,omitempty"`
}

// Preprocessor turns a FeatureRecord into the classifier's feature vector
// using parameters fixed at fit time.
type Preprocessor struct {
	Columns []string        `json:"columns"`
	Steps   []TransformStep `json:"steps"`

	index map[string]int
}

// LoadPreprocessor reads and validates a preprocessor artifact.
func LoadPreprocessor(path string) (*Preprocessor, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p Preprocessor
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("decode preprocessor: %w", err)
	}
	if err := p.init(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Preprocessor) init() error {
	expected := ExpectedColumns()
	if len(p.Columns) != len(expected) {
		return fmt.Errorf("preprocessor fitted on %d columns, expected %d", len(p.Columns), len(expected))
	}
	p.index = make(map[string]int, len(p.Columns))
	for i, name := range p.Columns {
		if name != expected[i] {
			return fmt.Errorf("preprocessor column %d is %q, expected %q", i, name, expected[i])
		}
		p.index[name] = i
	}
	if len(p.Steps) == 0 {
		return errors.New("preprocessor has no steps")
	}
	for i := range p.Steps {
		step := &p.Steps[i]
		if _, ok := p.index[step.Column]; !ok {
			return fmt.Errorf("step %d references unknown column %q", i, step.Column)
		}
		switch step.Kind {
		case StepNumeric:
			if step.Impute != nil {
				if _, ok := step.Impute.(float64); !ok {
					return fmt.Errorf("step %q: numeric impute must be a number", step.Column)
				}
			}
			if step.Scale == 0 {
				step.Scale = 1
			}
		case StepOneHot:
			if len(step.Categories) == 0 {
				return fmt.Errorf("step %q: no categories", step.Column)
			}
			if step.Impute != nil {
				if _, ok := step.Impute.(string); !ok {
					return fmt.Errorf("step %q: categorical impute must be a string", step.Column)
				}
			}
			if step.HandleUnknown == "" {
				step.HandleUnknown = HandleUnknownError
			}
			if step.HandleUnknown != HandleUnknownIgnore && step.HandleUnknown != HandleUnknownError {
				return fmt.Errorf("step %q: invalid handle_unknown %q", step.Column, step.HandleUnknown)
			}
		default:
			return fmt.Errorf("step %q: unsupported kind %q", step.Column, step.Kind)
		}
	}
	return nil
}

// Width is the length of the vector Transform produces.
func (p *Preprocessor) Width() int {
	width := 0
	for _, step := range p.Steps {
		if step.Kind == StepOneHot {
			width += len(step.Categories)
		} else {
			width++
		}
	}
	return width
}

// Transform encodes the record. It never mutates the preprocessor, so one
// instance can serve concurrent callers.
func (p *Preprocessor) Transform(rec FeatureRecord) ([]float64, error) {
	row := rec.Row()
	vector := make([]float64, 0, p.Width())
	for _, step := range p.Steps {
		value := row[p.index[step.Column]]
		var err error
		switch step.Kind {
		case StepNumeric:
			vector, err = step.numeric(vector, value)
		case StepOneHot:
			vector, err = step.oneHot(vector, value)
		}
		if err != nil {
			return nil, err
		}
	}
	return vector, nil
}

func (s TransformStep) numeric(vector []float64, value any) ([]float64, error) {
	if value == nil {
		if s.Impute == nil {
			return nil, fmt.Errorf("column %q: input contains NaN and no imputation was fitted", s.Column)
		}
		value = s.Impute
	}
	v, ok := value.(float64)
	if !ok {
		return nil, fmt.Errorf("column %q: could not convert %v to float", s.Column, value)
	}
	return append(vector, (v-s.Mean)/s.Scale), nil
}

func (s TransformStep) oneHot(vector []float64, value any) ([]float64, error) {
	start := len(vector)
	for range s.Categories {
		vector = append(vector, 0)
	}
	if value == nil {
		if s.Impute == nil {
			if s.HandleUnknown == HandleUnknownIgnore {
				return vector, nil
			}
			return nil, fmt.Errorf("column %q: input contains NaN", s.Column)
		}
		value = s.Impute
	}
	category, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("column %q: expected a category, got %v", s.Column, value)
	}
	for i, c := range s.Categories {
		if c == category {
			vector[start+i] = 1
			return vector, nil
		}
	}
	if s.HandleUnknown == HandleUnknownIgnore {
		return vector, nil
	}
	return nil, fmt.Errorf("column %q: found unknown category %q during transform", s.Column, category)
}
