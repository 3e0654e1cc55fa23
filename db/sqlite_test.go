package db

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"cerebrocare/ml"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "cerebrocare-db")
	if err != nil {
		panic(err)
	}
	if err := InitDB(filepath.Join(dir, "test.db")); err != nil {
		panic(err)
	}

	code := m.Run()

	Close()
	os.RemoveAll(dir)
	os.Exit(code)
}

func TestSaveAndQueryAssessments(t *testing.T) {
	vector := ml.Reindex(map[string]float64{"age": 67, "hypertension": 1}, ml.DefaultSchema())

	if err := SaveAssessment("req-1", ml.ModelDecisionTree, vector, ml.PredictionResult{Label: 0, Probability: 0.2}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := SaveAssessment("req-2", ml.ModelDecisionTree, vector, ml.PredictionResult{Label: 1, Probability: 0.8}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assessments, err := RecentAssessments(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(assessments) != 1 {
		t.Fatalf("expected 1 assessment, got %d", len(assessments))
	}
	latest := assessments[0]
	if latest.RequestID != "req-2" || latest.Label != 1 || latest.Probability != 0.8 {
		t.Fatalf("unexpected assessment: %+v", latest)
	}
	if latest.Features["age"] != 67 || len(latest.Features) != len(ml.DefaultSchema()) {
		t.Fatalf("unexpected features: %v", latest.Features)
	}
}

func TestSaveAssessmentRequiresRequestID(t *testing.T) {
	err := SaveAssessment("", ml.ModelDecisionTree, ml.FeatureVector{}, ml.PredictionResult{})
	if err == nil {
		t.Fatal("expected error for empty request id")
	}
}

func TestNotInitialized(t *testing.T) {
	saved := database
	database = nil
	defer func() { database = saved }()

	if Enabled() {
		t.Fatal("expected disabled database")
	}
	if _, err := RecentAssessments(10); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
}
