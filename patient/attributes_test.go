package patient

import (
	"errors"
	"math"
	"net/url"
	"testing"
)

func validAttributes() Attributes {
	return Attributes{
		Age:             30,
		Gender:          GenderMale,
		EverMarried:     true,
		ResidenceType:   ResidenceUrban,
		BMI:             25,
		SmokingStatus:   SmokingNever,
		WorkType:        WorkPrivate,
		AvgGlucoseLevel: 90,
	}
}

func TestValidateAcceptsReferenceCategories(t *testing.T) {
	a := validAttributes()
	a.WorkType = WorkGovtJob
	a.SmokingStatus = SmokingUnknown
	if err := Validate(a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRejectsOutOfRange(t *testing.T) {
	cases := map[string]func(*Attributes){
		"age":               func(a *Attributes) { a.Age = 121 },
		"bmi":               func(a *Attributes) { a.BMI = -1 },
		"avg_glucose_level": func(a *Attributes) { a.AvgGlucoseLevel = math.NaN() },
		"gender":            func(a *Attributes) { a.Gender = "Other" },
		"work_type":         func(a *Attributes) { a.WorkType = "Freelance" },
		"residence_type":    func(a *Attributes) { a.ResidenceType = "" },
		"smoking_status":    func(a *Attributes) { a.SmokingStatus = "vapes" },
	}
	for field, mutate := range cases {
		t.Run(field, func(t *testing.T) {
			a := validAttributes()
			mutate(&a)
			err := Validate(a)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) || verr.Fields[0].Field != field {
				t.Fatalf("expected error on %s, got %v", field, err)
			}
		})
	}
}

func TestParseYesNo(t *testing.T) {
	for _, s := range []string{"Yes", "yes", "true", "1"} {
		if v, err := ParseYesNo(s); err != nil || !v {
			t.Fatalf("expected %q to be true", s)
		}
	}
	for _, s := range []string{"No", " no ", "false", "0"} {
		if v, err := ParseYesNo(s); err != nil || v {
			t.Fatalf("expected %q to be false", s)
		}
	}
	if _, err := ParseYesNo("maybe"); err == nil {
		t.Fatal("expected error for maybe")
	}
}

func TestFromForm(t *testing.T) {
	values := url.Values{
		"age":               {"30"},
		"hypertension":      {"No"},
		"heart_disease":     {"No"},
		"ever_married":      {"Yes"},
		"residence_type":    {"Urban"},
		"bmi":               {"25.0"},
		"gender":            {"Male"},
		"work_type":         {"Private"},
		"smoking_status":    {"never_smoked"},
		"avg_glucose_level": {"90.0"},
	}
	a, err := FromForm(values)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a != validAttributes() {
		t.Fatalf("unexpected attributes: %+v", a)
	}

	values.Set("age", "abc")
	values.Del("bmi")
	_, err = FromForm(values)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(verr.Fields) != 2 {
		t.Fatalf("expected 2 field errors, got %+v", verr.Fields)
	}
}
