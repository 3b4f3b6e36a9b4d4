package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/grocerygrid/backend/internal/domain"
	"github.com/grocerygrid/backend/internal/usecase"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	catalog *usecase.CatalogService
}

// NewHandler creates a new HTTP handler. catalog may be nil, in which case
// catalog endpoints respond with 503.
func NewHandler(catalog *usecase.CatalogService) *Handler {
	return &Handler{catalog: catalog}
}

// LoadRequest selects the source to load; empty or "all" loads every source
type LoadRequest struct {
	Source string `json:"source"`
}

// FilterRequest is the wire form of domain.FilterConfig. Numeric bounds
// accept JSON numbers or locale strings such as "24,90".
type FilterRequest struct {
	Category            string         `json:"category"`
	PriceMin            any            `json:"priceMin"`
	PriceMax            any            `json:"priceMax"`
	SaleOnly            bool           `json:"saleOnly"`
	Search              string         `json:"search"`
	SearchTerms         []string       `json:"searchTerms"`
	ExcludeAllergens    []string       `json:"excludeAllergens"`
	RequireAllergenFree []string       `json:"requireAllergenFree"`
	ExcludeIngredients  []string       `json:"excludeIngredients"`
	NutritionMin        map[string]any `json:"nutritionMin"`
	NutritionMax        map[string]any `json:"nutritionMax"`
}

// QueryRequest applies a filter and sort and selects a page
type QueryRequest struct {
	Filter   FilterRequest `json:"filter"`
	Sort     string        `json:"sort"`
	Nutrient string        `json:"nutrient"`
	Page     int           `json:"page"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	response := gin.H{
		"status":  "healthy",
		"service": "grocerygrid-backend",
		"version": "1.0.0",
	}
	if h.catalog != nil {
		response["products"] = h.catalog.Engine().Len()
	}
	c.JSON(http.StatusOK, response)
}

// ListSources returns the configured data sources
func (h *Handler) ListSources(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"sources": h.catalog.Sources(),
		"all":     domain.AllSources,
	})
}

// LoadCatalog replaces the catalog with the products of the selected source
func (h *Handler) LoadCatalog(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	var req LoadRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	result, err := h.catalog.Load(c.Request.Context(), req.Source)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// QueryCatalog filters, sorts and pages the loaded catalog
func (h *Handler) QueryCatalog(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	var req QueryRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	filter, sortKey, err := req.toDomain()
	if err != nil {
		h.respondError(c, err)
		return
	}

	page := req.Page
	if page == 0 {
		page = 1
	}

	c.JSON(http.StatusOK, h.catalog.Engine().Query(filter, sortKey, page))
}

// GetOptions returns the values available to the filter controls
func (h *Handler) GetOptions(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	c.JSON(http.StatusOK, h.catalog.Engine().Options())
}

// GetProduct returns one product of the current collection
func (h *Handler) GetProduct(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	product, err := h.catalog.Engine().Product(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

func (h *Handler) ready(c *gin.Context) bool {
	if h.catalog == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "catalog not configured"})
		return false
	}
	return true
}

// respondError maps domain errors to HTTP status codes
func (h *Handler) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrSourceNotFound), errors.Is(err, domain.ErrProductNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrSourceFetchFailed), errors.Is(err, domain.ErrInvalidDocument):
		status = http.StatusBadGateway
	case errors.Is(err, domain.ErrNoSources):
		status = http.StatusServiceUnavailable
	}

	c.Error(err)
	c.JSON(status, gin.H{"error": err.Error()})
}

// bindOptionalJSON decodes the request body when there is one
func bindOptionalJSON(c *gin.Context, obj any) error {
	if c.Request.Body == nil || c.Request.Body == http.NoBody {
		return nil
	}
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func invalidRequest(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{domain.ErrInvalidRequest}, args...)...)
}

func (r *QueryRequest) toDomain() (domain.FilterConfig, domain.SortKey, error) {
	mode := domain.SortMode(strings.TrimSpace(r.Sort))
	if !mode.Valid() {
		return domain.FilterConfig{}, domain.SortKey{}, invalidRequest("unknown sort %q", r.Sort)
	}
	if r.Page < 0 {
		return domain.FilterConfig{}, domain.SortKey{}, invalidRequest("page must not be negative")
	}

	f := r.Filter
	terms := usecase.SearchTerms(f.Search)
	for _, entry := range f.SearchTerms {
		terms = append(terms, usecase.SearchTerms(entry)...)
	}

	filter := domain.FilterConfig{
		Category:            f.Category,
		PriceMin:            looseNumber(f.PriceMin),
		PriceMax:            looseNumber(f.PriceMax),
		SaleOnly:            f.SaleOnly,
		SearchTerms:         terms,
		ExcludeAllergens:    f.ExcludeAllergens,
		RequireAllergenFree: f.RequireAllergenFree,
		ExcludeIngredients:  f.ExcludeIngredients,
		NutritionMin:        looseBounds(f.NutritionMin),
		NutritionMax:        looseBounds(f.NutritionMax),
	}

	return filter, domain.SortKey{Mode: mode, Nutrient: strings.TrimSpace(r.Nutrient)}, nil
}

// looseNumber reads a JSON number or numeric string; anything else is 0 (unset)
func looseNumber(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case string:
		if parsed := usecase.ParseNumber(n); parsed != nil {
			return *parsed
		}
	}
	return 0
}

// looseBounds converts nutrition bounds, dropping entries that are not numeric
func looseBounds(in map[string]any) map[string]float64 {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]float64, len(in))
	for key, v := range in {
		switch n := v.(type) {
		case float64:
			out[key] = n
		case string:
			if parsed := usecase.ParseNumber(n); parsed != nil {
				out[key] = *parsed
			}
		}
	}
	return out
}
