package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"strconv"

	"cerebrocare/ml"
	"cerebrocare/patient"
)

func main() {
	modelType := flag.String("model_type", ml.ModelDecisionTree, "decision_tree or logistic_regression")
	modelPath := flag.String("model_path", "./models/best_model.json", "model artifact path")
	age := flag.Float64("age", 0, "age in years (0-120)")
	gender := flag.String("gender", string(patient.GenderMale), "Male or Female")
	hypertension := flag.String("hypertension", "No", "Yes or No")
	heartDisease := flag.String("heart_disease", "No", "Yes or No")
	everMarried := flag.String("ever_married", "No", "Yes or No")
	workType := flag.String("work_type", string(patient.WorkPrivate), "Private, Self-employed, Never_worked, children or Govt_job")
	residence := flag.String("residence_type", string(patient.ResidenceUrban), "Urban or Rural")
	smoking := flag.String("smoking_status", string(patient.SmokingNever), "formerly_smoked, never_smoked, smokes or Unknown")
	glucose := flag.Float64("avg_glucose_level", 0, "average glucose level")
	bmi := flag.Float64("bmi", 0, "body mass index")
	flag.Parse()

	attrs, err := patient.FromForm(map[string][]string{
		"age":               {strconv.FormatFloat(*age, 'f', -1, 64)},
		"gender":            {*gender},
		"hypertension":      {*hypertension},
		"heart_disease":     {*heartDisease},
		"ever_married":      {*everMarried},
		"work_type":         {*workType},
		"residence_type":    {*residence},
		"smoking_status":    {*smoking},
		"avg_glucose_level": {strconv.FormatFloat(*glucose, 'f', -1, 64)},
		"bmi":               {strconv.FormatFloat(*bmi, 'f', -1, 64)},
	})
	if err != nil {
		log.Fatalf("invalid input: %v", err)
	}

	model, err := ml.LoadModel(*modelType, *modelPath)
	if err != nil {
		log.Fatalf("failed to load model: %v", err)
	}

	schema := ml.DefaultSchema()
	if cp, ok := model.(ml.ColumnProvider); ok && len(cp.Columns()) > 0 {
		schema = cp.Columns()
	}
	vector := ml.Vectorize(attrs, schema)

	result, err := ml.Predict(vector, model)
	if err != nil {
		log.Fatalf("prediction failed: %v", err)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(map[string]interface{}{
		"label":       result.Label,
		"probability": result.Probability,
		"risk_level":  result.RiskLevel(),
		"features":    vector.Map(),
	}); err != nil {
		log.Fatalf("failed to write result: %v", err)
	}
}
