package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/grocerygrid/backend/internal/app"
	"github.com/grocerygrid/backend/internal/domain"
	"github.com/grocerygrid/backend/internal/usecase"
	"github.com/spf13/cobra"
)

// queryOptions holds the flags of the query command
type queryOptions struct {
	search             string
	category           string
	priceMin           float64
	priceMax           float64
	saleOnly           bool
	excludeAllergens   []string
	allergenFree       []string
	excludeIngredients []string
	nutritionMin       map[string]string
	nutritionMax       map[string]string
	sort               string
	nutrient           string
	page               int
}

var queryFlags queryOptions

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Filter, sort and page the catalog",
	Example: `  catalogctl query --search mleko --sort price-asc
  catalogctl query -s billa --exclude-allergen lepek --nutrition-min protein=5`,
	RunE: runQuery,
}

func init() {
	f := queryCmd.Flags()
	f.StringVarP(&queryFlags.search, "search", "q", "", "free-text name search (diacritics ignored)")
	f.StringVar(&queryFlags.category, "category", "", "exact category")
	f.Float64Var(&queryFlags.priceMin, "min-price", 0, "minimum price (0 = unset)")
	f.Float64Var(&queryFlags.priceMax, "max-price", 0, "maximum price (0 = unset)")
	f.BoolVar(&queryFlags.saleOnly, "sale", false, "only products on sale")
	f.StringSliceVar(&queryFlags.excludeAllergens, "exclude-allergen", nil, "exclude products containing the allergen")
	f.StringSliceVar(&queryFlags.allergenFree, "allergen-free", nil, "require products free of the allergen")
	f.StringSliceVar(&queryFlags.excludeIngredients, "exclude-ingredient", nil, "exclude products whose ingredients mention the term")
	f.StringToStringVar(&queryFlags.nutritionMin, "nutrition-min", nil, "minimum nutrient values, e.g. protein=5")
	f.StringToStringVar(&queryFlags.nutritionMax, "nutrition-max", nil, "maximum nutrient values, e.g. sugar=10")
	f.StringVar(&queryFlags.sort, "sort", "", "price-asc|price-desc|name-asc|name-desc|nutrient-asc|nutrient-desc")
	f.StringVar(&queryFlags.nutrient, "nutrient", "", "nutrient for the nutrient sorts")
	f.IntVarP(&queryFlags.page, "page", "p", 1, "page number")
}

func runQuery(cmd *cobra.Command, args []string) error {
	filter, sortKey, err := queryFlags.build()
	if err != nil {
		return err
	}

	catalog, err := loadCatalog(cmd.Context())
	if err != nil {
		return err
	}
	defer catalog.Close()

	result := catalog.Service.Engine().Query(filter, sortKey, queryFlags.page)

	if jsonFlag {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	renderProducts(os.Stdout, result)
	return nil
}

func (o *queryOptions) build() (domain.FilterConfig, domain.SortKey, error) {
	mode := domain.SortMode(strings.TrimSpace(o.sort))
	if !mode.Valid() {
		return domain.FilterConfig{}, domain.SortKey{}, fmt.Errorf("%w: unknown sort %q", domain.ErrInvalidRequest, o.sort)
	}
	if (mode == domain.SortNutrientAsc || mode == domain.SortNutrientDesc) && o.nutrient == "" {
		return domain.FilterConfig{}, domain.SortKey{}, fmt.Errorf("%w: --nutrient is required for %s", domain.ErrInvalidRequest, mode)
	}

	nutritionMin, err := parseBounds(o.nutritionMin)
	if err != nil {
		return domain.FilterConfig{}, domain.SortKey{}, err
	}
	nutritionMax, err := parseBounds(o.nutritionMax)
	if err != nil {
		return domain.FilterConfig{}, domain.SortKey{}, err
	}

	filter := domain.FilterConfig{
		Category:            o.category,
		PriceMin:            o.priceMin,
		PriceMax:            o.priceMax,
		SaleOnly:            o.saleOnly,
		SearchTerms:         usecase.SearchTerms(o.search),
		ExcludeAllergens:    o.excludeAllergens,
		RequireAllergenFree: o.allergenFree,
		ExcludeIngredients:  o.excludeIngredients,
		NutritionMin:        nutritionMin,
		NutritionMax:        nutritionMax,
	}

	return filter, domain.SortKey{Mode: mode, Nutrient: o.nutrient}, nil
}

// parseBounds parses nutrient=value pairs; values may use a decimal comma
func parseBounds(in map[string]string) (map[string]float64, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make(map[string]float64, len(in))
	for key, raw := range in {
		v := usecase.ParseNumber(raw)
		if v == nil {
			return nil, fmt.Errorf("%w: nutrient bound %s=%q is not a number", domain.ErrInvalidRequest, key, raw)
		}
		out[key] = *v
	}
	return out, nil
}

// loadCatalog builds the catalog from configuration and loads the selected source
func loadCatalog(ctx context.Context) (*app.Catalog, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	catalog, err := app.NewCatalog(ctx, loadedConfig, logger)
	if err != nil {
		return nil, err
	}

	result, err := catalog.Service.Load(ctx, sourceFlag)
	if err != nil {
		catalog.Close()
		return nil, err
	}

	warn := color.New(color.FgYellow)
	for _, w := range result.Warnings {
		warn.Fprintf(os.Stderr, "warning: %s\n", w)
	}

	return catalog, nil
}
