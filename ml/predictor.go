package ml

import (
	"errors"
	"fmt"
	"math"
)

// ErrModelUnavailable is returned when no classifier is loaded.
var ErrModelUnavailable = errors.New("model unavailable")

const (
	LabelLowRisk  = 0
	LabelHighRisk = 1
)

// PredictionResult is the outcome of one prediction. Probability is the
// probability of LabelHighRisk.
type PredictionResult struct {
	Label       int     `json:"label"`
	Probability float64 `json:"probability"`
}

func (r PredictionResult) RiskLevel() string {
	return RiskLevel(r.Label)
}

// RiskLevel names a label as "high" or "low".
func RiskLevel(label int) string {
	if label == LabelHighRisk {
		return "high"
	}
	return "low"
}

// Predict runs clf on the single row held by vector.
func Predict(vector FeatureVector, clf Classifier) (PredictionResult, error) {
	if clf == nil {
		return PredictionResult{}, ErrModelUnavailable
	}

	label, err := clf.Predict(vector.Values)
	if err != nil {
		return PredictionResult{}, fmt.Errorf("predict: %w", err)
	}
	if label != LabelLowRisk && label != LabelHighRisk {
		return PredictionResult{}, fmt.Errorf("predict: label %d is not binary", label)
	}

	probs, err := clf.PredictProbability(vector.Values)
	if err != nil {
		return PredictionResult{}, fmt.Errorf("predict probability: %w", err)
	}
	if len(probs) < 2 {
		return PredictionResult{}, fmt.Errorf("predict probability: expected 2 classes, got %d", len(probs))
	}
	p := probs[LabelHighRisk]
	if math.IsNaN(p) || p < 0 || p > 1 {
		return PredictionResult{}, fmt.Errorf("predict probability: %v outside [0,1]", p)
	}

	return PredictionResult{Label: label, Probability: p}, nil
}
