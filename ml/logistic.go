package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
)

// LogisticRegression is a linear binary classifier exported as named
// coefficients plus an intercept.
type LogisticRegression struct {
	columns      []string
	coefficients []float64
	intercept    float64
	threshold    float64
}

type logisticArtifact struct {
	Columns      []string  `json:"columns"`
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
	Threshold    float64   `json:"threshold,omitempty"`
}

func NewLogisticRegression(columns []string, coefficients []float64, intercept float64) (*LogisticRegression, error) {
	lr := &LogisticRegression{
		columns:      columns,
		coefficients: coefficients,
		intercept:    intercept,
		threshold:    0.5,
	}
	if err := lr.check(); err != nil {
		return nil, err
	}
	return lr, nil
}

func (lr *LogisticRegression) Columns() []string {
	return append([]string(nil), lr.columns...)
}

func (lr *LogisticRegression) Predict(row []float64) (int, error) {
	probs, err := lr.PredictProbability(row)
	if err != nil {
		return 0, err
	}
	if probs[1] >= lr.threshold {
		return 1, nil
	}
	return 0, nil
}

func (lr *LogisticRegression) PredictProbability(row []float64) ([]float64, error) {
	if len(lr.coefficients) == 0 {
		return nil, errors.New("model not loaded")
	}
	if len(row) != len(lr.coefficients) {
		return nil, fmt.Errorf("expected %d features, got %d", len(lr.coefficients), len(row))
	}
	z := lr.intercept
	for i, w := range lr.coefficients {
		z += w * row[i]
	}
	p := 1 / (1 + math.Exp(-z))
	return []float64{1 - p, p}, nil
}

func (lr *LogisticRegression) Save(path string) error {
	if len(lr.coefficients) == 0 {
		return errors.New("model not loaded")
	}
	payload, err := json.Marshal(logisticArtifact{
		Columns:      lr.columns,
		Coefficients: lr.coefficients,
		Intercept:    lr.intercept,
		Threshold:    lr.threshold,
	})
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o600)
}

func (lr *LogisticRegression) Load(path string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var artifact logisticArtifact
	if err := json.Unmarshal(payload, &artifact); err != nil {
		return fmt.Errorf("decode logistic regression: %w", err)
	}
	lr.columns = artifact.Columns
	lr.coefficients = artifact.Coefficients
	lr.intercept = artifact.Intercept
	lr.threshold = artifact.Threshold
	if lr.threshold == 0 {
		lr.threshold = 0.5
	}
	return lr.check()
}

func (lr *LogisticRegression) check() error {
	if len(lr.coefficients) == 0 {
		return errors.New("logistic regression has no coefficients")
	}
	if len(lr.columns) > 0 && len(lr.columns) != len(lr.coefficients) {
		return fmt.Errorf("%d columns but %d coefficients", len(lr.columns), len(lr.coefficients))
	}
	if lr.threshold <= 0 || lr.threshold >= 1 {
		return fmt.Errorf("threshold %v outside (0,1)", lr.threshold)
	}
	return nil
}
