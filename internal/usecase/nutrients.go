package usecase

import (
	"strings"

	"github.com/grocerygrid/backend/internal/domain"
)

// Logical nutrient identifiers
const (
	NutrientEnergyKJ      = "energy_kj"
	NutrientEnergyKcal    = "energy_kcal"
	NutrientProtein       = "protein"
	NutrientFat           = "fat"
	NutrientSaturatedFat  = "saturated_fat"
	NutrientCarbohydrates = "carbohydrates"
	NutrientSugar         = "sugar"
	NutrientFiber         = "fiber"
	NutrientSalt          = "salt"
	NutrientSodium        = "sodium"
)

// nutrientAliases lists, per logical nutrient, the key spellings used by the
// different exports. The first present alias wins.
var nutrientAliases = map[string][]string{
	NutrientEnergyKJ:      {"energy_kj", "Energetická hodnota kJ", "Energetická hodnota (kJ)", "Energy kJ"},
	NutrientEnergyKcal:    {"energy_kcal", "Energetická hodnota kcal", "Energetická hodnota (kcal)", "Energy kcal", "Energy"},
	NutrientProtein:       {"protein", "Bílkoviny", "Bílkoviny (g)", "Protein"},
	NutrientFat:           {"fat", "Tuky", "Tuky (g)", "Fat"},
	NutrientSaturatedFat:  {"saturated_fat", "z toho nasycené mastné kyseliny", "Saturated fat"},
	NutrientCarbohydrates: {"carbohydrates", "Sacharidy", "Sacharidy (g)", "Carbohydrates"},
	NutrientSugar:         {"sugar", "sugars", "z toho cukry", "z toho cukry (g)", "Sugar"},
	NutrientFiber:         {"fiber", "fibre", "Vláknina", "Vláknina (g)", "Fiber"},
	NutrientSalt:          {"salt", "Sůl", "Sůl (g)", "Salt"},
	NutrientSodium:        {"sodium", "Sodík", "Sodík (mg)", "Sodium"},
}

// aliasIndex maps a normalized alias back to its logical nutrient
var aliasIndex = buildAliasIndex()

func buildAliasIndex() map[string]string {
	index := make(map[string]string)
	for nutrient, aliases := range nutrientAliases {
		index[nutrientKey(nutrient)] = nutrient
		for _, alias := range aliases {
			index[nutrientKey(alias)] = nutrient
		}
	}
	return index
}

// nutrientKey normalizes a nutrient key for comparison
func nutrientKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// NutrientAliases returns the candidate keys for a requested nutrient.
// Known nutrients (by logical id or any alias) expand to the full alias list;
// unknown keys resolve to themselves.
func NutrientAliases(key string) []string {
	if nutrient, ok := aliasIndex[nutrientKey(key)]; ok {
		return nutrientAliases[nutrient]
	}
	return []string{key}
}

// ResolveNutrient finds the value of a nutrient on a product using the
// alias table. The first alias present with a numeric value wins.
func ResolveNutrient(p *domain.Product, key string) (float64, bool) {
	if p.Nutrition.Empty() {
		return 0, false
	}

	// Exact key first, this is the common case for canonical exports
	if v, ok := p.Nutrition.Lookup(key); ok {
		return v, true
	}

	present := make(map[string]string, len(p.Nutrition.Values))
	for k := range p.Nutrition.Values {
		present[nutrientKey(k)] = k
	}

	for _, alias := range NutrientAliases(key) {
		if original, ok := present[nutrientKey(alias)]; ok {
			if v, ok := p.Nutrition.Lookup(original); ok {
				return v, true
			}
		}
	}

	return 0, false
}
