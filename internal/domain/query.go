package domain

// DefaultPageSize is the number of products shown per page
const DefaultPageSize = 48

// AllSources selects every configured source in a load
const AllSources = "all"

// FilterConfig is the immutable filter configuration for one query.
// All fields are optional; active predicates are combined with AND.
type FilterConfig struct {
	Category            string             `json:"category,omitempty"`
	PriceMin            float64            `json:"priceMin,omitempty"`
	PriceMax            float64            `json:"priceMax,omitempty"`
	SaleOnly            bool               `json:"saleOnly,omitempty"`
	SearchTerms         []string           `json:"searchTerms,omitempty"`
	ExcludeAllergens    []string           `json:"excludeAllergens,omitempty"`
	RequireAllergenFree []string           `json:"requireAllergenFree,omitempty"`
	ExcludeIngredients  []string           `json:"excludeIngredients,omitempty"`
	NutritionMin        map[string]float64 `json:"nutritionMin,omitempty"`
	NutritionMax        map[string]float64 `json:"nutritionMax,omitempty"`
}

// SortMode selects the ordering of a query result
type SortMode string

const (
	SortNone         SortMode = ""
	SortPriceAsc     SortMode = "price-asc"
	SortPriceDesc    SortMode = "price-desc"
	SortNameAsc      SortMode = "name-asc"
	SortNameDesc     SortMode = "name-desc"
	SortNutrientAsc  SortMode = "nutrient-asc"
	SortNutrientDesc SortMode = "nutrient-desc"
)

// Valid reports whether m is a known sort mode
func (m SortMode) Valid() bool {
	switch m {
	case SortNone, SortPriceAsc, SortPriceDesc, SortNameAsc, SortNameDesc, SortNutrientAsc, SortNutrientDesc:
		return true
	}
	return false
}

// SortKey is the single active ordering. Nutrient is only used by the
// nutrient modes.
type SortKey struct {
	Mode     SortMode `json:"mode"`
	Nutrient string   `json:"nutrient,omitempty"`
}

// QueryResult is one page of a filtered, sorted collection
type QueryResult struct {
	Items     []Product `json:"items"`
	Total     int       `json:"total"`
	Page      int       `json:"page"`
	PageCount int       `json:"pageCount"`
	PageSize  int       `json:"pageSize"`
}

// CatalogOptions lists the values available to the filter controls
type CatalogOptions struct {
	Categories []string `json:"categories"`
	Allergens  []string `json:"allergens"`
	Nutrients  []string `json:"nutrients"`
}

// LoadResult summarizes a load operation
type LoadResult struct {
	Source   string   `json:"source"`
	Count    int      `json:"count"`
	Warnings []string `json:"warnings,omitempty"`
}
