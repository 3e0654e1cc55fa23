package ml

// Classifier is a loaded binary classifier. Implementations are read-only
// after loading and safe for concurrent use.
type Classifier interface {
	Predict(row []float64) (int, error)
	PredictProbability(row []float64) ([]float64, error)
}

// ColumnProvider is implemented by artifacts that carry the column list
// they were trained on.
type ColumnProvider interface {
	Columns() []string
}
