// Package patient describes the attributes collected by the assessment form.
package patient

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
)

type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
)

type WorkType string

const (
	WorkPrivate      WorkType = "Private"
	WorkSelfEmployed WorkType = "Self-employed"
	WorkNeverWorked  WorkType = "Never_worked"
	WorkChildren     WorkType = "children"
	WorkGovtJob      WorkType = "Govt_job"
)

type ResidenceType string

const (
	ResidenceUrban ResidenceType = "Urban"
	ResidenceRural ResidenceType = "Rural"
)

type SmokingStatus string

const (
	SmokingFormerly SmokingStatus = "formerly_smoked"
	SmokingNever    SmokingStatus = "never_smoked"
	SmokingSmokes   SmokingStatus = "smokes"
	SmokingUnknown  SmokingStatus = "Unknown"
)

// MaxAge is the upper bound accepted for Age.
const MaxAge = 120

var ErrInvalidInput = errors.New("invalid patient attributes")

// Attributes is one patient record as submitted by the form.
type Attributes struct {
	Age             float64       `json:"age"`
	Hypertension    bool          `json:"hypertension"`
	HeartDisease    bool          `json:"heart_disease"`
	EverMarried     bool          `json:"ever_married"`
	ResidenceType   ResidenceType `json:"residence_type"`
	BMI             float64       `json:"bmi"`
	Gender          Gender        `json:"gender"`
	WorkType        WorkType      `json:"work_type"`
	SmokingStatus   SmokingStatus `json:"smoking_status"`
	AvgGlucoseLevel float64       `json:"avg_glucose_level"`
}

// FieldError describes a single rejected field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every rejected field of a record.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return fmt.Sprintf("%s: %s", ErrInvalidInput, strings.Join(parts, "; "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

func (e *ValidationError) add(field, format string, args ...interface{}) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// Validate rejects out-of-range numbers and unknown enum values. It does not
// reject reference categories such as Govt_job or Unknown.
func Validate(a Attributes) error {
	verr := &ValidationError{}

	checkNumber(verr, "age", a.Age)
	if a.Age > MaxAge {
		verr.add("age", "must be at most %d", MaxAge)
	}
	checkNumber(verr, "bmi", a.BMI)
	checkNumber(verr, "avg_glucose_level", a.AvgGlucoseLevel)

	if !contains(Genders(), a.Gender) {
		verr.add("gender", "unknown value %q", a.Gender)
	}
	if !contains(WorkTypes(), a.WorkType) {
		verr.add("work_type", "unknown value %q", a.WorkType)
	}
	if !contains(ResidenceTypes(), a.ResidenceType) {
		verr.add("residence_type", "unknown value %q", a.ResidenceType)
	}
	if !contains(SmokingStatuses(), a.SmokingStatus) {
		verr.add("smoking_status", "unknown value %q", a.SmokingStatus)
	}

	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

func checkNumber(verr *ValidationError, field string, v float64) {
	switch {
	case math.IsNaN(v) || math.IsInf(v, 0):
		verr.add(field, "must be a finite number")
	case v < 0:
		verr.add(field, "must be non-negative")
	}
}

// ParseYesNo accepts Yes/No as shown on the form, plus true/false and 1/0.
func ParseYesNo(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("expected Yes or No, got %q", s)
}

// FromForm builds Attributes from submitted form values and validates them.
func FromForm(values url.Values) (Attributes, error) {
	verr := &ValidationError{}
	var a Attributes

	a.Age = parseNumber(verr, values, "age")
	a.BMI = parseNumber(verr, values, "bmi")
	a.AvgGlucoseLevel = parseNumber(verr, values, "avg_glucose_level")
	a.Hypertension = parseBool(verr, values, "hypertension")
	a.HeartDisease = parseBool(verr, values, "heart_disease")
	a.EverMarried = parseBool(verr, values, "ever_married")

	a.Gender = Gender(strings.TrimSpace(values.Get("gender")))
	a.WorkType = WorkType(strings.TrimSpace(values.Get("work_type")))
	a.ResidenceType = ResidenceType(strings.TrimSpace(values.Get("residence_type")))
	a.SmokingStatus = SmokingStatus(strings.TrimSpace(values.Get("smoking_status")))

	if len(verr.Fields) > 0 {
		return Attributes{}, verr
	}
	if err := Validate(a); err != nil {
		return Attributes{}, err
	}
	return a, nil
}

func parseNumber(verr *ValidationError, values url.Values, field string) float64 {
	raw := strings.TrimSpace(values.Get(field))
	if raw == "" {
		verr.add(field, "is required")
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		verr.add(field, "must be a number")
		return 0
	}
	return v
}

func parseBool(verr *ValidationError, values url.Values, field string) bool {
	raw := values.Get(field)
	if strings.TrimSpace(raw) == "" {
		verr.add(field, "is required")
		return false
	}
	v, err := ParseYesNo(raw)
	if err != nil {
		verr.add(field, "%v", err)
	}
	return v
}

func Genders() []Gender { return []Gender{GenderMale, GenderFemale} }

func WorkTypes() []WorkType {
	return []WorkType{WorkPrivate, WorkSelfEmployed, WorkNeverWorked, WorkChildren, WorkGovtJob}
}

func ResidenceTypes() []ResidenceType { return []ResidenceType{ResidenceUrban, ResidenceRural} }

func SmokingStatuses() []SmokingStatus {
	return []SmokingStatus{SmokingFormerly, SmokingNever, SmokingSmokes, SmokingUnknown}
}

func contains[T comparable](list []T, v T) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
