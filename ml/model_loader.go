package ml

import (
	"errors"
	"fmt"
	"os"
)

const (
	ModelDecisionTree       = "decision_tree"
	ModelLogisticRegression = "logistic_regression"
)

var (
	ErrArtifactNotFound = errors.New("model artifact not found")
	ErrUnsupportedModel = errors.New("unsupported model type")
)

// LoadModel reads the artifact at path. A missing file yields
// ErrArtifactNotFound and a nil classifier.
func LoadModel(modelType, path string) (Classifier, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, path)
		}
		return nil, fmt.Errorf("stat model artifact: %w", err)
	}

	switch modelType {
	case ModelDecisionTree:
		model := &DecisionTree{}
		if err := model.Load(path); err != nil {
			return nil, err
		}
		return model, nil
	case ModelLogisticRegression:
		model := &LogisticRegression{}
		if err := model.Load(path); err != nil {
			return nil, err
		}
		return model, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedModel, modelType)
	}
}
