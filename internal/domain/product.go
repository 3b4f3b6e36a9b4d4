package domain

// DefaultCategory is assigned to products whose source carries no category
const DefaultCategory = "Other"

// DefaultName is used when a record carries no usable name
const DefaultName = "Untitled"

// Product is the canonical, normalized representation of one catalog entry.
// Products are created once per load and never mutated afterwards.
type Product struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	Category             string    `json:"category"`
	Brand                string    `json:"brand,omitempty"`
	ImageURL             string    `json:"imageUrl,omitempty"`
	Price                *float64  `json:"price"`
	OriginalPrice        *float64  `json:"originalPrice"`
	PricePerUnit         *float64  `json:"pricePerUnit"`
	OriginalPricePerUnit *float64  `json:"originalPricePerUnit"`
	UnitCode             string    `json:"unitCode,omitempty"`
	Source               string    `json:"source"`
	ProductURL           string    `json:"productUrl,omitempty"`
	GTIN                 string    `json:"gtin,omitempty"`
	Allergens            Allergens `json:"allergens"`
	Ingredients          string    `json:"ingredients,omitempty"`
	Nutrition            Nutrition `json:"nutrition"`
	SaleRequirement      string    `json:"saleRequirement,omitempty"`
}

// OnSale reports whether the product carries a distinct sale price or a
// promotional condition
func (p *Product) OnSale() bool {
	return p.OriginalPrice != nil || p.SaleRequirement != ""
}

// Allergens holds the three allergen buckets of a product
type Allergens struct {
	Contains   []string `json:"contains"`
	MayContain []string `json:"may_contain"`
	FreeFrom   []string `json:"free_from"`
}

// Terms returns the allergen terms that describe what the product may carry:
// contains followed by may_contain. FreeFrom is deliberately left out.
func (a Allergens) Terms() []string {
	terms := make([]string, 0, len(a.Contains)+len(a.MayContain))
	terms = append(terms, a.Contains...)
	terms = append(terms, a.MayContain...)
	return terms
}

// Empty reports whether all buckets are empty
func (a Allergens) Empty() bool {
	return len(a.Contains) == 0 && len(a.MayContain) == 0 && len(a.FreeFrom) == 0
}
