package ml

import (
	"cerebrocare/patient"
)

// Schema is the ordered list of columns a classifier was trained on.
type Schema []string

// FeatureVector is one encoded row aligned to a Schema.
type FeatureVector struct {
	Columns []string  `json:"columns"`
	Values  []float64 `json:"values"`
}

// Len returns the number of slots.
func (v FeatureVector) Len() int {
	return len(v.Values)
}

// Get returns the value of a named slot.
func (v FeatureVector) Get(column string) (float64, bool) {
	for i, c := range v.Columns {
		if c == column {
			return v.Values[i], true
		}
	}
	return 0, false
}

// Map returns the vector as column -> value.
func (v FeatureVector) Map() map[string]float64 {
	m := make(map[string]float64, len(v.Columns))
	for i, c := range v.Columns {
		m[c] = v.Values[i]
	}
	return m
}

// Indicator prefixes used when one-hot encoding categorical fields.
const (
	GenderPrefix    = "gender_"
	WorkTypePrefix  = "work_type_"
	ResidencePrefix = "Residence_type_"
	SmokingPrefix   = "smoking_status_"
)

// DefaultSchema is the column order of the shipped stroke model, used when
// neither the config nor the artifact names its own columns.
func DefaultSchema() Schema {
	return Schema{
		"age",
		"hypertension",
		"heart_disease",
		"ever_married",
		"avg_glucose_level",
		"bmi",
		"gender_Male",
		"work_type_Never_worked",
		"work_type_Private",
		"work_type_Self-employed",
		"work_type_children",
		"Residence_type_Urban",
		"smoking_status_formerly_smoked",
		"smoking_status_never_smoked",
		"smoking_status_smokes",
	}
}

// Encode maps attributes to named values, one indicator per categorical
// field. Whether an indicator survives depends on the schema it is
// reindexed against.
func Encode(a patient.Attributes) map[string]float64 {
	values := map[string]float64{
		"age":               a.Age,
		"hypertension":      boolValue(a.Hypertension),
		"heart_disease":     boolValue(a.HeartDisease),
		"ever_married":      boolValue(a.EverMarried),
		"avg_glucose_level": a.AvgGlucoseLevel,
		"bmi":               a.BMI,
	}
	values[GenderPrefix+string(a.Gender)] = 1
	values[WorkTypePrefix+string(a.WorkType)] = 1
	values[ResidencePrefix+string(a.ResidenceType)] = 1
	values[SmokingPrefix+string(a.SmokingStatus)] = 1
	return values
}

// Vectorize encodes a and aligns the result to schema.
func Vectorize(a patient.Attributes, schema Schema) FeatureVector {
	return Reindex(Encode(a), schema)
}

// Reindex lays values out in schema order. Missing columns are zero and
// keys outside the schema are dropped.
func Reindex(values map[string]float64, schema Schema) FeatureVector {
	vector := FeatureVector{
		Columns: append([]string(nil), schema...),
		Values:  make([]float64, len(schema)),
	}
	for i, column := range schema {
		vector.Values[i] = values[column]
	}
	return vector
}

// ReferenceCategories lists, per categorical prefix, the encoded keys of
// values with no slot in schema. Those values encode to all zeros.
func ReferenceCategories(schema Schema) map[string][]string {
	inSchema := make(map[string]bool, len(schema))
	for _, c := range schema {
		inSchema[c] = true
	}

	candidates := map[string][]string{}
	for _, g := range patient.Genders() {
		candidates[GenderPrefix] = append(candidates[GenderPrefix], string(g))
	}
	for _, w := range patient.WorkTypes() {
		candidates[WorkTypePrefix] = append(candidates[WorkTypePrefix], string(w))
	}
	for _, r := range patient.ResidenceTypes() {
		candidates[ResidencePrefix] = append(candidates[ResidencePrefix], string(r))
	}
	for _, s := range patient.SmokingStatuses() {
		candidates[SmokingPrefix] = append(candidates[SmokingPrefix], string(s))
	}

	refs := make(map[string][]string, len(candidates))
	for prefix, values := range candidates {
		for _, v := range values {
			if !inSchema[prefix+v] {
				refs[prefix] = append(refs[prefix], v)
			}
		}
	}
	return refs
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
