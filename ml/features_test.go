package ml

import (
	"reflect"
	"strings"
	"testing"

	"cerebrocare/patient"
)

func exampleAttributes() patient.Attributes {
	return patient.Attributes{
		Age:             30,
		Gender:          patient.GenderMale,
		EverMarried:     true,
		ResidenceType:   patient.ResidenceUrban,
		BMI:             25.0,
		Hypertension:    false,
		HeartDisease:    false,
		SmokingStatus:   patient.SmokingNever,
		WorkType:        patient.WorkPrivate,
		AvgGlucoseLevel: 90.0,
	}
}

func TestVectorizeExample(t *testing.T) {
	schema := DefaultSchema()
	vector := Vectorize(exampleAttributes(), schema)

	if vector.Len() != 15 {
		t.Fatalf("expected 15 slots, got %d", vector.Len())
	}
	if !reflect.DeepEqual(vector.Columns, []string(schema)) {
		t.Fatalf("columns out of order: %v", vector.Columns)
	}

	want := []float64{30, 0, 0, 1, 90, 25, 1, 0, 1, 0, 0, 1, 0, 1, 0}
	if !reflect.DeepEqual(vector.Values, want) {
		t.Fatalf("unexpected vector:\n got %v\nwant %v", vector.Values, want)
	}
}

func TestVectorizeReferenceCategories(t *testing.T) {
	a := exampleAttributes()
	a.WorkType = patient.WorkGovtJob
	a.SmokingStatus = patient.SmokingUnknown
	a.Gender = patient.GenderFemale
	a.ResidenceType = patient.ResidenceRural

	vector := Vectorize(a, DefaultSchema())
	// indicator slots start at gender_Male
	for i, column := range vector.Columns[6:] {
		if v := vector.Values[6+i]; v != 0 {
			t.Fatalf("expected %s to be 0, got %v", column, v)
		}
	}
}

func TestVectorizeIdempotent(t *testing.T) {
	a := exampleAttributes()
	first := Vectorize(a, DefaultSchema())
	second := Vectorize(a, DefaultSchema())
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("vectors differ: %v vs %v", first, second)
	}
}

func TestVectorizeOneHotExclusive(t *testing.T) {
	prefixes := []string{GenderPrefix, WorkTypePrefix, ResidencePrefix, SmokingPrefix}
	for _, g := range patient.Genders() {
		for _, w := range patient.WorkTypes() {
			for _, r := range patient.ResidenceTypes() {
				for _, s := range patient.SmokingStatuses() {
					a := exampleAttributes()
					a.Gender, a.WorkType, a.ResidenceType, a.SmokingStatus = g, w, r, s
					vector := Vectorize(a, DefaultSchema())
					if vector.Len() != len(DefaultSchema()) {
						t.Fatalf("unexpected length %d", vector.Len())
					}
					for _, prefix := range prefixes {
						hot := 0.0
						for i, c := range vector.Columns {
							if strings.HasPrefix(c, prefix) {
								hot += vector.Values[i]
							}
						}
						if hot > 1 {
							t.Fatalf("%s has %v hot slots for %+v", prefix, hot, a)
						}
					}
				}
			}
		}
	}
}

func TestReindexToleratesDrift(t *testing.T) {
	schema := Schema{"bmi", "age", "new_column"}
	vector := Reindex(map[string]float64{"age": 40, "bmi": 22, "extra": 9}, schema)

	want := []float64{22, 40, 0}
	if !reflect.DeepEqual(vector.Values, want) {
		t.Fatalf("unexpected vector: %v", vector.Values)
	}
	if _, ok := vector.Get("extra"); ok {
		t.Fatal("expected extra to be dropped")
	}
}

func TestReferenceCategories(t *testing.T) {
	refs := ReferenceCategories(DefaultSchema())
	if !reflect.DeepEqual(refs[WorkTypePrefix], []string{"Govt_job"}) {
		t.Fatalf("unexpected work type references: %v", refs[WorkTypePrefix])
	}
	if !reflect.DeepEqual(refs[SmokingPrefix], []string{"Unknown"}) {
		t.Fatalf("unexpected smoking references: %v", refs[SmokingPrefix])
	}
	if !reflect.DeepEqual(refs[GenderPrefix], []string{"Female"}) {
		t.Fatalf("unexpected gender references: %v", refs[GenderPrefix])
	}
}
