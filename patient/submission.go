package patient

// Submission is a record as it arrives over JSON. Pointer fields tell an
// omitted value apart from a zero one.
type Submission struct {
	Age             *float64       `json:"age"`
	Hypertension    *bool          `json:"hypertension"`
	HeartDisease    *bool          `json:"heart_disease"`
	EverMarried     *bool          `json:"ever_married"`
	ResidenceType   *ResidenceType `json:"residence_type"`
	BMI             *float64       `json:"bmi"`
	Gender          *Gender        `json:"gender"`
	WorkType        *WorkType      `json:"work_type"`
	SmokingStatus   *SmokingStatus `json:"smoking_status"`
	AvgGlucoseLevel *float64       `json:"avg_glucose_level"`
}

// Attributes rejects omitted or null fields, then validates the rest.
func (s Submission) Attributes() (Attributes, error) {
	verr := &ValidationError{}
	var a Attributes

	a.Age = required(verr, "age", s.Age)
	a.Hypertension = required(verr, "hypertension", s.Hypertension)
	a.HeartDisease = required(verr, "heart_disease", s.HeartDisease)
	a.EverMarried = required(verr, "ever_married", s.EverMarried)
	a.ResidenceType = required(verr, "residence_type", s.ResidenceType)
	a.BMI = required(verr, "bmi", s.BMI)
	a.Gender = required(verr, "gender", s.Gender)
	a.WorkType = required(verr, "work_type", s.WorkType)
	a.SmokingStatus = required(verr, "smoking_status", s.SmokingStatus)
	a.AvgGlucoseLevel = required(verr, "avg_glucose_level", s.AvgGlucoseLevel)

	if len(verr.Fields) > 0 {
		return Attributes{}, verr
	}
	if err := Validate(a); err != nil {
		return Attributes{}, err
	}
	return a, nil
}

func required[T any](verr *ValidationError, field string, v *T) T {
	if v == nil {
		verr.add(field, "is required")
		var zero T
		return zero
	}
	return *v
}
