package domain

// NutrientValue is a single parsed nutrition entry
type NutrientValue struct {
	Value *float64 `json:"value"`
	Unit  string   `json:"unit,omitempty"`
}

// Nutrition maps source-specific nutrient keys to parsed values.
// PerServing keeps the "values per ..." annotation when the source has one.
type Nutrition struct {
	Values     map[string]NutrientValue `json:"values,omitempty"`
	PerServing string                   `json:"perServing,omitempty"`
}

// Lookup returns the numeric value stored under key, if any
func (n Nutrition) Lookup(key string) (float64, bool) {
	v, ok := n.Values[key]
	if !ok || v.Value == nil {
		return 0, false
	}
	return *v.Value, true
}

// Empty reports whether no nutrient values were parsed
func (n Nutrition) Empty() bool {
	return len(n.Values) == 0
}
