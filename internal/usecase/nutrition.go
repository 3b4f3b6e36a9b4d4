package usecase

import (
	"strings"

	"github.com/grocerygrid/backend/internal/domain"
	"github.com/tidwall/gjson"
)

// Keys (folded) carrying the "values per ..." annotation instead of a nutrient
var perServingKeys = map[string]bool{
	"per_serving":       true,
	"perserving":        true,
	"vyzivove udaje na": true,
	"serving_size":      true,
	"serving size":      true,
}

// normalizeNutrition parses a nutrition object. Entries may be plain numbers,
// {value, unit} objects or decorated strings.
func normalizeNutrition(r gjson.Result) domain.Nutrition {
	if !r.IsObject() {
		return domain.Nutrition{}
	}

	// Already-normalized shape: {"values": {...}, "perServing": "..."}.
	// Flat siblings next to "values" are merged in.
	n := domain.Nutrition{}
	nested := r.Get("values")
	if nested.IsObject() {
		n = normalizeNutrition(nested)
	}

	r.ForEach(func(key, entry gjson.Result) bool {
		name := strings.TrimSpace(key.String())
		if name == "" || (name == "values" && nested.IsObject()) {
			return true
		}

		if perServingKeys[FoldText(name)] {
			if entry.Type == gjson.String || entry.Type == gjson.Number {
				n.PerServing = strings.TrimSpace(entry.String())
			}
			return true
		}

		if n.Values == nil {
			n.Values = make(map[string]domain.NutrientValue)
		}
		n.Values[name] = parseNutrientEntry(entry)
		return true
	})

	return n
}

func parseNutrientEntry(entry gjson.Result) domain.NutrientValue {
	switch {
	case entry.Type == gjson.Number:
		return domain.NutrientValue{Value: finite(entry.Float())}

	case entry.Type == gjson.String:
		v, unit := ParseNutrientValue(entry.Str)
		return domain.NutrientValue{Value: v, Unit: unit}

	case entry.IsObject():
		nv := parseNutrientEntry(entry.Get("value"))
		if unit := strings.TrimSpace(entry.Get("unit").String()); unit != "" {
			nv.Unit = unit
		}
		return nv
	}

	return domain.NutrientValue{}
}
