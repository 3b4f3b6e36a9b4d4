package usecase

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/grocerygrid/backend/internal/domain"
	"github.com/tidwall/gjson"
)

// RawRecord is one schema-less product entry as found in a source document.
// It never travels past the normalizer.
type RawRecord struct {
	doc gjson.Result
}

// ParseRecord wraps a single JSON object as a RawRecord
func ParseRecord(raw string) RawRecord {
	return RawRecord{doc: gjson.Parse(raw)}
}

// get returns the first path that exists and is not null
func (r RawRecord) get(paths ...string) gjson.Result {
	for _, path := range paths {
		if v := r.doc.Get(path); v.Exists() && v.Type != gjson.Null {
			return v
		}
	}
	return gjson.Result{}
}

// str returns the first non-blank string (or number rendered as string)
func (r RawRecord) str(paths ...string) string {
	for _, path := range paths {
		v := r.doc.Get(path)
		if v.Type != gjson.String && v.Type != gjson.Number {
			continue
		}
		if s := strings.TrimSpace(v.String()); s != "" {
			return s
		}
	}
	return ""
}

// number returns the first path that parses to a finite number
func (r RawRecord) number(paths ...string) *float64 {
	for _, path := range paths {
		if n := numberFrom(r.doc.Get(path)); n != nil {
			return n
		}
	}
	return nil
}

// has reports whether any of the paths is present with a non-null value
func (r RawRecord) has(paths ...string) bool {
	return r.get(paths...).Exists()
}

// Field names seen across the exports, in priority order
var (
	idFields          = []string{"id", "sku", "product_id", "productId", "gtin", "ean", "code", "node.id"}
	nameFields        = []string{"item_name", "name", "title", "displayName", "product_name", "node.title"}
	categoryFields    = []string{"product_category", "category", "categoryName"}
	sourceFields      = []string{"source", "retailer", "store"}
	brandFields       = []string{"brand", "manufacturer", "supplier"}
	imageFields       = []string{"image_url", "imageUrl", "image", "thumbnail", "images.0", "defaultImageUrl", "node.defaultImageUrl"}
	urlFields         = []string{"product_url", "productUrl", "url", "link"}
	gtinFields        = []string{"gtin", "ean", "barcode"}
	unitFields        = []string{"unit_code", "unitCode", "unit"}
	saleReqFields     = []string{"sale_requirement", "saleRequirement"}
	ingredientFields  = []string{"ingredients", "ingredients_text"}
	allergenFields    = []string{"allergens", "allergies"}
	nutritionFields   = []string{"nutrition", "nutrients", "nutrition_facts"}
	salePriceFields   = []string{"sale_price", "salePrice"}
	originalFields    = []string{"original_price", "originalPrice", "list_price", "regular_price"}
	genericPriceField = []string{"price", "unit_price", "price_including_tax", "price_gross"}
	currentPPUFields  = []string{"sale_ppu", "salePpu", "price_per_unit", "pricePerUnit", "ppu"}
	originalPPUFields = []string{"original_ppu", "originalPpu", "originalPricePerUnit"}
)

// unitConversions maps long unit names to the short codes used in the UI
var unitConversions = map[string]string{
	"kilogram": "kg",
	"pieces":   "pcs",
	"kus":      "pcs",
}

// retailerURL describes how to build a product page link for a retailer
// whose exports do not carry one
type retailerURL struct {
	match    string
	template string
	idPaths  []string
}

var retailerURLs = []retailerURL{
	{
		match:    "tesco",
		template: "https://nakup.itesco.cz/groceries/cs-CZ/products/%s",
		idPaths: []string{
			"data.category.results.0.node.id",
			"results.0.node.id",
			"node.id",
			"id",
			"productId",
			"tpnc",
			"sellers.results.0.id",
			"node.sellers.results.0.id",
		},
	},
	{
		match:    "billa",
		template: "https://shop.billa.cz/produkt/%s",
		idPaths:  []string{"slug", "node.slug", "product_slug"},
	},
}

// identityNamespace scopes the name-based ids derived for records without one
var identityNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://grocerygrid/products"))

// Normalize converts a raw record into a canonical Product. It never fails:
// missing or malformed fields fall back to documented defaults.
func Normalize(raw RawRecord) domain.Product {
	return NormalizeFromSource(raw, "")
}

// NormalizeFromSource is Normalize with the label of the source the record
// was loaded from, used when the record does not name its source.
func NormalizeFromSource(raw RawRecord, sourceLabel string) domain.Product {
	p := domain.Product{
		Name:            raw.str(nameFields...),
		Category:        raw.str(categoryFields...),
		Source:          raw.str(sourceFields...),
		Brand:           raw.str(brandFields...),
		ImageURL:        raw.str(imageFields...),
		GTIN:            raw.str(gtinFields...),
		UnitCode:        normalizeUnitCode(raw.str(unitFields...)),
		SaleRequirement: raw.str(saleReqFields...),
		Ingredients:     ingredientsText(raw.get(ingredientFields...)),
		Allergens:       normalizeAllergens(raw.get(allergenFields...)),
		Nutrition:       normalizeNutrition(raw.get(nutritionFields...)),
	}

	if p.Name == "" {
		p.Name = domain.DefaultName
	}
	if p.Category == "" {
		p.Category = domain.DefaultCategory
	}
	if p.Source == "" {
		p.Source = sourceLabel
	}

	p.Price, p.OriginalPrice = resolvePrices(raw)
	p.PricePerUnit, p.OriginalPricePerUnit = resolveUnitPrices(raw)
	p.ProductURL = deriveProductURL(raw, p.Source)
	p.ID = identity(raw, p)

	return p
}

// resolvePrices returns the effective price and the original price to show
// next to it. The original price is only returned when it differs from the
// effective one.
func resolvePrices(raw RawRecord) (price, original *float64) {
	sale := raw.number(salePriceFields...)
	original = raw.number(originalFields...)
	generic := raw.number(genericPriceField...)

	// Exports that carry both an original and a generic price use the
	// generic one as the current price
	if sale == nil && original != nil {
		sale = generic
	}

	switch {
	case sale != nil:
		price = sale
	case original != nil:
		price = original
	default:
		price = generic
	}

	if original == nil || price == nil || *original == *price {
		return price, nil
	}
	return price, original
}

func resolveUnitPrices(raw RawRecord) (current, original *float64) {
	current = raw.number(currentPPUFields...)
	original = raw.number(originalPPUFields...)

	if current == nil {
		current = original
	}
	if original == nil || current == nil || *original == *current {
		return current, nil
	}
	return current, original
}

// deriveProductURL returns the explicit URL of the record or builds one from
// a retailer template when the record carries a usable identifier
func deriveProductURL(raw RawRecord, source string) string {
	if explicit := raw.str(urlFields...); explicit != "" {
		return explicit
	}

	folded := FoldText(source)
	if folded == "" {
		return ""
	}

	for _, retailer := range retailerURLs {
		if !strings.Contains(folded, retailer.match) {
			continue
		}
		if id := raw.str(retailer.idPaths...); id != "" {
			return fmt.Sprintf(retailer.template, url.PathEscape(id))
		}
		return ""
	}

	return ""
}

// identity returns the explicit id of the record, or a stable name-based
// UUID over source, name and URL
func identity(raw RawRecord, p domain.Product) string {
	if id := raw.str(idFields...); id != "" {
		return id
	}
	key := strings.Join([]string{p.Source, p.Name, p.ProductURL}, "|")
	return uuid.NewSHA1(identityNamespace, []byte(key)).String()
}

func normalizeUnitCode(code string) string {
	if code == "" {
		return ""
	}
	if short, ok := unitConversions[strings.ToLower(code)]; ok {
		return short
	}
	return code
}

// ingredientsText accepts free text or a list of ingredient strings
func ingredientsText(r gjson.Result) string {
	switch {
	case r.Type == gjson.String:
		return strings.TrimSpace(r.Str)
	case r.IsArray():
		parts := make([]string, 0, len(r.Array()))
		for _, item := range r.Array() {
			if s := strings.TrimSpace(item.String()); s != "" && item.Type == gjson.String {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	}
	return ""
}
