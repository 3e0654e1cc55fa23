package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"cerebrocare/ml"
)

var database *sql.DB

var ErrNotInitialized = errors.New("database not initialized")

// InitDB opens the SQLite database at path and creates the schema.
func InitDB(path string) error {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return err
	}

	query := `
    CREATE TABLE IF NOT EXISTS assessments (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        request_id TEXT NOT NULL,
        model_type VARCHAR(50),
        predicted_label INTEGER NOT NULL,
        probability REAL NOT NULL,
        features TEXT,
        created_at DATETIME NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_assessments_created_at ON assessments(created_at);
    `

	if _, err := conn.Exec(query); err != nil {
		conn.Close()
		return err
	}
	database = conn
	return nil
}

// Enabled reports whether InitDB has succeeded.
func Enabled() bool {
	return database != nil
}

func Close() error {
	if database == nil {
		return nil
	}
	err := database.Close()
	database = nil
	return err
}

type Assessment struct {
	RequestID   string             `json:"request_id"`
	ModelType   string             `json:"model_type"`
	Label       int                `json:"label"`
	Probability float64            `json:"probability"`
	Features    map[string]float64 `json:"features,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

// SaveAssessment stores one prediction together with the vector it was
// made from.
func SaveAssessment(requestID, modelType string, vector ml.FeatureVector, result ml.PredictionResult) error {
	if database == nil {
		return ErrNotInitialized
	}
	if requestID == "" {
		return errors.New("request id required")
	}
	features, err := json.Marshal(vector.Map())
	if err != nil {
		return err
	}
	_, err = database.Exec(`
        INSERT INTO assessments (
            request_id, model_type, predicted_label, probability, features, created_at
        ) VALUES (?, ?, ?, ?, ?, ?)
    `, requestID, modelType, result.Label, result.Probability, string(features), time.Now().UTC())
	return err
}

// RecentAssessments returns up to limit assessments, newest first.
func RecentAssessments(limit int) ([]Assessment, error) {
	if database == nil {
		return nil, ErrNotInitialized
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := database.Query(`
        SELECT request_id, model_type, predicted_label, probability, features, created_at
        FROM assessments
        ORDER BY created_at DESC, id DESC
        LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assessments := make([]Assessment, 0)
	for rows.Next() {
		var a Assessment
		var modelType, features sql.NullString
		if err := rows.Scan(&a.RequestID, &modelType, &a.Label, &a.Probability, &features, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.ModelType = modelType.String
		if features.Valid && features.String != "" {
			if err := json.Unmarshal([]byte(features.String), &a.Features); err != nil {
				return nil, err
			}
		}
		assessments = append(assessments, a)
	}
	return assessments, rows.Err()
}
