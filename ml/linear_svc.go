package ml

import (
	"errors"
	"fmt"
)

// LinearSVC is a fitted linear support vector classifier.
type LinearSVC struct {
	Coef      []float64 `json:"coef"`
	Intercept float64   `json:"intercept"`
	Classes   []int     `json:"classes"`
}

func (m *LinearSVC) validate() error {
	if len(m.Coef) == 0 {
		return errors.New("linear_svc: empty coefficients")
	}
	if len(m.Classes) == 0 {
		m.Classes = []int{0, 1}
	}
	if len(m.Classes) != 2 {
		return fmt.Errorf("linear_svc: expected 2 classes, got %d", len(m.Classes))
	}
	return nil
}

func (m *LinearSVC) Kind() string { return KindLinearSVC }

// Predict returns Classes[1] when the decision function is positive.
func (m *LinearSVC) Predict(features []float64) (int, error) {
	score, err := m.Decision(features)
	if err != nil {
		return 0, err
	}
	if score > 0 {
		return m.Classes[1], nil
	}
	return m.Classes[0], nil
}

// Decision is the signed distance w·x + b.
func (m *LinearSVC) Decision(features []float64) (float64, error) {
	if len(features) != len(m.Coef) {
		return 0, fmt.Errorf("X has %d features, but the classifier is expecting %d features as input", len(features), len(m.Coef))
	}
	score := m.Intercept
	for i, w := range m.Coef {
		score += w * features[i]
	}
	return score, nil
}
