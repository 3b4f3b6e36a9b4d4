package usecase

import (
	"cmp"
	"math"
	"slices"
	"strings"
	"sync"

	"github.com/grocerygrid/backend/internal/domain"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// catalogLanguage drives name collation; the exports are Czech
var catalogLanguage = language.Czech

// compiledFilter is a FilterConfig with its terms prepared for matching
type compiledFilter struct {
	category            string
	priceMin, priceMax  float64
	hasMin, hasMax      bool
	saleOnly            bool
	searchTerms         []string
	excludeAllergens    []string
	requireAllergenFree []string
	excludeIngredients  []string
	nutritionMin        map[string]float64
	nutritionMax        map[string]float64
}

func compileFilter(f domain.FilterConfig) compiledFilter {
	c := compiledFilter{
		category:            f.Category,
		saleOnly:            f.SaleOnly,
		searchTerms:         foldAll(f.SearchTerms),
		excludeAllergens:    lowerAll(f.ExcludeAllergens),
		requireAllergenFree: lowerAll(f.RequireAllergenFree),
		excludeIngredients:  foldAll(f.ExcludeIngredients),
		nutritionMin:        f.NutritionMin,
		nutritionMax:        f.NutritionMax,
	}
	c.priceMin, c.hasMin = activeBound(f.PriceMin)
	c.priceMax, c.hasMax = activeBound(f.PriceMax)
	return c
}

// activeBound treats zero and non-finite price bounds as unset
func activeBound(v float64) (float64, bool) {
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func (c *compiledFilter) match(p *domain.Product) bool {
	if c.category != "" && p.Category != c.category {
		return false
	}

	// Price bounds only apply when the price is known
	if p.Price != nil {
		if c.hasMin && *p.Price < c.priceMin {
			return false
		}
		if c.hasMax && *p.Price > c.priceMax {
			return false
		}
	}

	if c.saleOnly && !p.OnSale() {
		return false
	}

	if len(c.searchTerms) > 0 {
		name := FoldText(p.Name)
		for _, term := range c.searchTerms {
			if !strings.Contains(name, term) {
				return false
			}
		}
	}

	if len(c.excludeAllergens) > 0 || len(c.requireAllergenFree) > 0 {
		terms := lowerAll(p.Allergens.Terms())
		if containsAny(terms, c.excludeAllergens) || containsAny(terms, c.requireAllergenFree) {
			return false
		}
	}

	if len(c.excludeIngredients) > 0 && p.Ingredients != "" {
		ingredients := FoldText(p.Ingredients)
		for _, term := range c.excludeIngredients {
			if strings.Contains(ingredients, term) {
				return false
			}
		}
	}

	// Nutrition bounds are strict: a missing value fails an active bound
	for key, lo := range c.nutritionMin {
		v, ok := ResolveNutrient(p, key)
		if !ok || v < lo {
			return false
		}
	}
	for key, hi := range c.nutritionMax {
		v, ok := ResolveNutrient(p, key)
		if !ok || v > hi {
			return false
		}
	}

	return true
}

// containsAny reports whether any haystack term contains any needle
func containsAny(haystack, needles []string) bool {
	for _, h := range haystack {
		for _, n := range needles {
			if strings.Contains(h, n) {
				return true
			}
		}
	}
	return false
}

// ApplyFilters returns the products matching every active predicate of the
// filter, ordered by the sort key. The input slice is not modified and ties
// keep their input order.
func ApplyFilters(products []domain.Product, filter domain.FilterConfig, sortKey domain.SortKey) []domain.Product {
	cf := compileFilter(filter)

	out := make([]domain.Product, 0, len(products))
	for i := range products {
		if cf.match(&products[i]) {
			out = append(out, products[i])
		}
	}

	sortProducts(out, sortKey)
	return out
}

// sortEntry pairs a product with its precomputed sort value
type sortEntry struct {
	product domain.Product
	value   float64
	known   bool
}

func sortProducts(products []domain.Product, key domain.SortKey) {
	switch key.Mode {
	case domain.SortPriceAsc, domain.SortPriceDesc:
		desc := key.Mode == domain.SortPriceDesc
		sortByValue(products, desc, func(p *domain.Product) (float64, bool) {
			if p.Price != nil {
				return *p.Price, true
			}
			// Unknown prices go to the end in both directions
			if desc {
				return math.Inf(-1), true
			}
			return math.Inf(1), true
		})

	case domain.SortNutrientAsc, domain.SortNutrientDesc:
		if key.Nutrient == "" {
			return
		}
		sortByValue(products, key.Mode == domain.SortNutrientDesc, func(p *domain.Product) (float64, bool) {
			return ResolveNutrient(p, key.Nutrient)
		})

	case domain.SortNameAsc, domain.SortNameDesc:
		collator := collate.New(catalogLanguage, collate.IgnoreCase)
		desc := key.Mode == domain.SortNameDesc
		slices.SortStableFunc(products, func(a, b domain.Product) int {
			if desc {
				return collator.CompareString(b.Name, a.Name)
			}
			return collator.CompareString(a.Name, b.Name)
		})
	}
}

// sortByValue stable-sorts by a numeric key; products without a value
// always sort after those with one
func sortByValue(products []domain.Product, desc bool, value func(*domain.Product) (float64, bool)) {
	entries := make([]sortEntry, len(products))
	for i := range products {
		v, ok := value(&products[i])
		entries[i] = sortEntry{product: products[i], value: v, known: ok}
	}

	slices.SortStableFunc(entries, func(a, b sortEntry) int {
		switch {
		case a.known && !b.known:
			return -1
		case !a.known && b.known:
			return 1
		case !a.known && !b.known:
			return 0
		case desc:
			return cmp.Compare(b.value, a.value)
		default:
			return cmp.Compare(a.value, b.value)
		}
	})

	for i := range entries {
		products[i] = entries[i].product
	}
}

// PageCount returns the number of pages for total items, at least 1
func PageCount(total, pageSize int) int {
	if pageSize <= 0 {
		pageSize = domain.DefaultPageSize
	}
	if total <= 0 {
		return 1
	}
	return (total + pageSize - 1) / pageSize
}

// Paginate returns the slice of items shown on page (1-based). The page is
// clamped into the valid range.
func Paginate(items []domain.Product, page, pageSize int) []domain.Product {
	if pageSize <= 0 {
		pageSize = domain.DefaultPageSize
	}
	page = clampPage(page, PageCount(len(items), pageSize))

	start := (page - 1) * pageSize
	if start >= len(items) {
		return []domain.Product{}
	}
	end := min(start+pageSize, len(items))
	return items[start:end]
}

func clampPage(page, pages int) int {
	if page < 1 {
		return 1
	}
	if page > pages {
		return pages
	}
	return page
}

// QueryEngine holds the current product collection together with the active
// filter, sort and page. The collection is replaced wholesale on every load.
type QueryEngine struct {
	mu       sync.RWMutex
	products []domain.Product
	byID     map[string]int
	filter   domain.FilterConfig
	sortKey  domain.SortKey
	view     []domain.Product
	page     int
	pageSize int
}

// NewQueryEngine creates an empty engine with the given page size
func NewQueryEngine(pageSize int) *QueryEngine {
	if pageSize <= 0 {
		pageSize = domain.DefaultPageSize
	}
	return &QueryEngine{
		byID:     make(map[string]int),
		view:     []domain.Product{},
		page:     1,
		pageSize: pageSize,
	}
}

// Replace swaps in a new collection and reapplies the active filter and sort
func (e *QueryEngine) Replace(products []domain.Product) {
	collection := slices.Clone(products)
	byID := make(map[string]int, len(collection))
	for i, p := range collection {
		if _, dup := byID[p.ID]; !dup {
			byID[p.ID] = i
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.products = collection
	e.byID = byID
	e.view = ApplyFilters(e.products, e.filter, e.sortKey)
	e.page = 1
}

// Apply sets the active filter and sort, recomputes the view and resets
// the current page to 1
func (e *QueryEngine) Apply(filter domain.FilterConfig, sortKey domain.SortKey) domain.QueryResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.filter = filter
	e.sortKey = sortKey
	e.view = ApplyFilters(e.products, filter, sortKey)
	e.page = 1

	return e.resultLocked()
}

// Query applies filter and sort and moves to page in one step
func (e *QueryEngine) Query(filter domain.FilterConfig, sortKey domain.SortKey, page int) domain.QueryResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.filter = filter
	e.sortKey = sortKey
	e.view = ApplyFilters(e.products, filter, sortKey)
	e.page = clampPage(page, PageCount(len(e.view), e.pageSize))

	return e.resultLocked()
}

// SetPage moves to page, clamped into the valid range
func (e *QueryEngine) SetPage(page int) domain.QueryResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.page = clampPage(page, PageCount(len(e.view), e.pageSize))
	return e.resultLocked()
}

// Result returns the current page of the current view
func (e *QueryEngine) Result() domain.QueryResult {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.resultLocked()
}

func (e *QueryEngine) resultLocked() domain.QueryResult {
	items := Paginate(e.view, e.page, e.pageSize)
	return domain.QueryResult{
		Items:     slices.Clone(items),
		Total:     len(e.view),
		Page:      e.page,
		PageCount: PageCount(len(e.view), e.pageSize),
		PageSize:  e.pageSize,
	}
}

// Product returns the product with the given id from the current collection
func (e *QueryEngine) Product(id string) (domain.Product, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	i, ok := e.byID[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return e.products[i], nil
}

// Len returns the size of the current collection
func (e *QueryEngine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.products)
}

// Categories returns the sorted distinct categories of the collection
func (e *QueryEngine) Categories() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return distinctSorted(e.products, func(p *domain.Product, add func(string)) {
		if p.Category == "" {
			add(domain.DefaultCategory)
			return
		}
		add(p.Category)
	})
}

// AllergenTerms returns the sorted distinct allergen terms over all buckets
func (e *QueryEngine) AllergenTerms() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return distinctSorted(e.products, func(p *domain.Product, add func(string)) {
		for _, bucket := range [][]string{p.Allergens.Contains, p.Allergens.MayContain, p.Allergens.FreeFrom} {
			for _, term := range bucket {
				add(term)
			}
		}
	})
}

// NutritionKeys returns the sorted distinct nutrition keys of the collection
func (e *QueryEngine) NutritionKeys() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return distinctSorted(e.products, func(p *domain.Product, add func(string)) {
		for key := range p.Nutrition.Values {
			add(key)
		}
	})
}

// Options bundles the discovery projections for the filter controls
func (e *QueryEngine) Options() domain.CatalogOptions {
	return domain.CatalogOptions{
		Categories: e.Categories(),
		Allergens:  e.AllergenTerms(),
		Nutrients:  e.NutritionKeys(),
	}
}

func distinctSorted(products []domain.Product, each func(*domain.Product, func(string))) []string {
	seen := make(map[string]bool)
	out := []string{}
	add := func(s string) {
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		out = append(out, s)
	}

	for i := range products {
		each(&products[i], add)
	}

	collator := collate.New(catalogLanguage)
	collator.SortStrings(out)
	return out
}
