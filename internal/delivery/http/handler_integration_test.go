package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/grocerygrid/backend/config"
	"github.com/grocerygrid/backend/internal/domain"
	"github.com/grocerygrid/backend/internal/infrastructure/cache"
	"github.com/grocerygrid/backend/internal/usecase"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMain sets up test environment before running tests
func TestMain(m *testing.M) {
	// Set Gin to test mode once for all tests
	gin.SetMode(gin.TestMode)

	os.Exit(m.Run())
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:           "8080",
			Environment:    "test",
			AllowedOrigins: []string{"http://localhost:*"},
		},
		Catalog: config.CatalogConfig{PageSize: 2},
		Cache:   config.CacheConfig{Type: "memory"},
	}
}

// setupTestRouter creates a test router without a catalog service
func setupTestRouter() *gin.Engine {
	return SetupRouter(testConfig(), NewHandler(nil), zerolog.Nop())
}

// mockFetcher is a mock implementation of domain.SourceFetcher
type mockFetcher struct {
	documents map[string]string
}

func (m *mockFetcher) Fetch(ctx context.Context, src domain.Source) ([]byte, error) {
	doc, ok := m.documents[src.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %s: status 503", domain.ErrSourceFetchFailed, src.Name)
	}
	return []byte(doc), nil
}

const (
	tescoDocument = `{"products":[
		{"id":"t1","name":"Mléko polotučné","category":"Mléčné výrobky","sale_price":"19,90 Kč","original_price":"24,90 Kč",
		 "allergens":["Mléko"],"nutrition":{"Bílkoviny":"3,4 g"}},
		{"id":"t2","name":"Chléb","category":"Pečivo","price":"32,90",
		 "allergens":{"contains":["Lepek"],"may_contain":[],"free_from":[]},"nutrition":{"protein":8.1}}
	]}`
	billaDocument = `[
		{"sku":"b1","title":"Mleko trvanlivé","category":"Mléčné výrobky","price":14.5,"slug":"mleko-trvanlive",
		 "nutrition":{"protein":{"value":"5","unit":"g"}}}
	]`
)

// setupTestRouterWithService creates a test router backed by a real catalog
// service over an in-memory cache and a mock fetcher
func setupTestRouterWithService(t *testing.T, documents map[string]string) (*gin.Engine, *usecase.CatalogService) {
	t.Helper()

	memCache := cache.NewMemoryCache()
	t.Cleanup(func() { memCache.Close() })

	cfg := testConfig()
	svc := usecase.NewCatalogService(
		memCache,
		&mockFetcher{documents: documents},
		usecase.NewQueryEngine(cfg.Catalog.PageSize),
		usecase.CatalogServiceConfig{Sources: []domain.Source{
			{Name: "tesco", Label: "Tesco", URL: "tesco_products.json"},
			{Name: "billa", Label: "Billa", URL: "billa_products.json"},
		}},
		zerolog.Nop(),
	)

	return SetupRouter(cfg, NewHandler(svc), zerolog.Nop()), svc
}

func doJSON(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func productIDs(items []domain.Product) []string {
	out := make([]string, len(items))
	for i, p := range items {
		out[i] = p.ID
	}
	return out
}

// TestHealthCheckEndpoint tests the health check endpoint
func TestHealthCheckEndpoint(t *testing.T) {
	t.Run("returns healthy status", func(t *testing.T) {
		w := doJSON(setupTestRouter(), "GET", "/health", "")
		require.Equal(t, http.StatusOK, w.Code)

		response := decodeBody[map[string]any](t, w)
		assert.Equal(t, "healthy", response["status"])
		assert.Equal(t, "grocerygrid-backend", response["service"])
		assert.NotEmpty(t, response["version"])
	})

	t.Run("reports product count with a catalog", func(t *testing.T) {
		router, _ := setupTestRouterWithService(t, map[string]string{"tesco": tescoDocument})
		doJSON(router, "POST", "/api/v1/catalog/load", `{"source":"tesco"}`)

		response := decodeBody[map[string]any](t, doJSON(router, "GET", "/health", ""))
		assert.EqualValues(t, 2, response["products"])
	})

	t.Run("accepts GET requests only", func(t *testing.T) {
		router := setupTestRouter()
		for _, method := range []string{"POST", "PUT", "DELETE", "PATCH"} {
			w := doJSON(router, method, "/health", "")
			assert.Equal(t, http.StatusNotFound, w.Code, method)
		}
	})
}

func TestCatalogEndpoints_NotConfigured(t *testing.T) {
	router := setupTestRouter()

	endpoints := []struct {
		method string
		path   string
	}{
		{"GET", "/api/v1/catalog/sources"},
		{"POST", "/api/v1/catalog/load"},
		{"POST", "/api/v1/catalog/query"},
		{"GET", "/api/v1/catalog/options"},
		{"GET", "/api/v1/catalog/products/1"},
	}

	for _, endpoint := range endpoints {
		t.Run(endpoint.method+" "+endpoint.path, func(t *testing.T) {
			w := doJSON(router, endpoint.method, endpoint.path, "")
			assert.Equal(t, http.StatusServiceUnavailable, w.Code)
			assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))

			response := decodeBody[map[string]any](t, w)
			assert.Contains(t, response["error"], "not configured")
		})
	}
}

func TestListSources(t *testing.T) {
	router, _ := setupTestRouterWithService(t, nil)

	w := doJSON(router, "GET", "/api/v1/catalog/sources", "")
	require.Equal(t, http.StatusOK, w.Code)

	response := decodeBody[struct {
		Sources []domain.Source `json:"sources"`
		All     string          `json:"all"`
	}](t, w)
	require.Len(t, response.Sources, 2)
	assert.Equal(t, "tesco", response.Sources[0].Name)
	assert.Equal(t, "Billa", response.Sources[1].Label)
	assert.Equal(t, "all", response.All)
}

func TestLoadCatalog(t *testing.T) {
	t.Run("loads every source by default", func(t *testing.T) {
		router, svc := setupTestRouterWithService(t, map[string]string{"tesco": tescoDocument, "billa": billaDocument})

		w := doJSON(router, "POST", "/api/v1/catalog/load", "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		result := decodeBody[domain.LoadResult](t, w)
		assert.Equal(t, "all", result.Source)
		assert.Equal(t, 3, result.Count)
		assert.Empty(t, result.Warnings)
		assert.Equal(t, 3, svc.Engine().Len())
	})

	t.Run("partial failure is reported as a warning", func(t *testing.T) {
		router, _ := setupTestRouterWithService(t, map[string]string{"tesco": tescoDocument})

		w := doJSON(router, "POST", "/api/v1/catalog/load", `{"source":"all"}`)
		require.Equal(t, http.StatusOK, w.Code)

		result := decodeBody[domain.LoadResult](t, w)
		assert.Equal(t, 2, result.Count)
		require.Len(t, result.Warnings, 1)
		assert.Contains(t, result.Warnings[0], "billa")
	})

	t.Run("single source failure returns 502 and empties the catalog", func(t *testing.T) {
		router, svc := setupTestRouterWithService(t, map[string]string{"tesco": tescoDocument})
		doJSON(router, "POST", "/api/v1/catalog/load", `{"source":"tesco"}`)
		require.Equal(t, 2, svc.Engine().Len())

		w := doJSON(router, "POST", "/api/v1/catalog/load", `{"source":"billa"}`)
		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Equal(t, 0, svc.Engine().Len())
	})

	t.Run("unknown source returns 404", func(t *testing.T) {
		router, _ := setupTestRouterWithService(t, nil)

		w := doJSON(router, "POST", "/api/v1/catalog/load", `{"source":"lidl"}`)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("malformed body returns 400", func(t *testing.T) {
		router, _ := setupTestRouterWithService(t, nil)

		w := doJSON(router, "POST", "/api/v1/catalog/load", `{"source":`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestQueryCatalog(t *testing.T) {
	router, _ := setupTestRouterWithService(t, map[string]string{"tesco": tescoDocument, "billa": billaDocument})
	require.Equal(t, http.StatusOK, doJSON(router, "POST", "/api/v1/catalog/load", `{"source":"all"}`).Code)

	tests := []struct {
		name          string
		body          string
		wantIDs       []string
		wantTotal     int
		wantPage      int
		wantPageCount int
	}{
		{
			name:          "empty query returns the first page",
			body:          `{}`,
			wantIDs:       []string{"t1", "t2"},
			wantTotal:     3,
			wantPage:      1,
			wantPageCount: 2,
		},
		{
			name:          "second page",
			body:          `{"page": 2}`,
			wantIDs:       []string{"b1"},
			wantTotal:     3,
			wantPage:      2,
			wantPageCount: 2,
		},
		{
			name:          "page beyond the end is clamped",
			body:          `{"page": 9}`,
			wantIDs:       []string{"b1"},
			wantTotal:     3,
			wantPage:      2,
			wantPageCount: 2,
		},
		{
			name:          "free text search folds diacritics",
			body:          `{"filter": {"search": "MLÉKO"}, "sort": "price-asc"}`,
			wantIDs:       []string{"b1", "t1"},
			wantTotal:     2,
			wantPage:      1,
			wantPageCount: 1,
		},
		{
			name:          "multi-word search term matches each word",
			body:          `{"filter": {"searchTerms": ["trvanlivé MLEKO"]}}`,
			wantIDs:       []string{"b1"},
			wantTotal:     1,
			wantPage:      1,
			wantPageCount: 1,
		},
		{
			name:          "search terms combine with free text",
			body:          `{"filter": {"search": "mléko", "searchTerms": ["polotučné"]}}`,
			wantIDs:       []string{"t1"},
			wantTotal:     1,
			wantPage:      1,
			wantPageCount: 1,
		},
		{
			name:          "string price bound",
			body:          `{"filter": {"priceMax": "20,00"}, "sort": "price-desc"}`,
			wantIDs:       []string{"t1", "b1"},
			wantTotal:     2,
			wantPage:      1,
			wantPageCount: 1,
		},
		{
			name:          "string nutrition bound is strict",
			body:          `{"filter": {"nutritionMin": {"protein": "5"}}}`,
			wantIDs:       []string{"t2", "b1"},
			wantTotal:     2,
			wantPage:      1,
			wantPageCount: 1,
		},
		{
			name:          "allergen exclusion",
			body:          `{"filter": {"excludeAllergens": ["lepek"]}}`,
			wantIDs:       []string{"t1", "b1"},
			wantTotal:     2,
			wantPage:      1,
			wantPageCount: 1,
		},
		{
			name:          "sale only",
			body:          `{"filter": {"saleOnly": true}}`,
			wantIDs:       []string{"t1"},
			wantTotal:     1,
			wantPage:      1,
			wantPageCount: 1,
		},
		{
			name:          "nutrient sort",
			body:          `{"sort": "nutrient-desc", "nutrient": "Bílkoviny"}`,
			wantIDs:       []string{"t2", "b1"},
			wantTotal:     3,
			wantPage:      1,
			wantPageCount: 2,
		},
		{
			name:          "no match",
			body:          `{"filter": {"category": "Maso"}}`,
			wantIDs:       []string{},
			wantTotal:     0,
			wantPage:      1,
			wantPageCount: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(router, "POST", "/api/v1/catalog/query", tt.body)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			result := decodeBody[domain.QueryResult](t, w)
			assert.Equal(t, tt.wantIDs, productIDs(result.Items))
			assert.Equal(t, tt.wantTotal, result.Total)
			assert.Equal(t, tt.wantPage, result.Page)
			assert.Equal(t, tt.wantPageCount, result.PageCount)
			assert.Equal(t, 2, result.PageSize)
		})
	}

	t.Run("unknown sort returns 400", func(t *testing.T) {
		w := doJSON(router, "POST", "/api/v1/catalog/query", `{"sort": "random"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("negative page returns 400", func(t *testing.T) {
		w := doJSON(router, "POST", "/api/v1/catalog/query", `{"page": -1}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGetOptions(t *testing.T) {
	router, _ := setupTestRouterWithService(t, map[string]string{"tesco": tescoDocument, "billa": billaDocument})
	doJSON(router, "POST", "/api/v1/catalog/load", `{"source":"all"}`)

	w := doJSON(router, "GET", "/api/v1/catalog/options", "")
	require.Equal(t, http.StatusOK, w.Code)

	opts := decodeBody[domain.CatalogOptions](t, w)
	assert.Equal(t, []string{"Mléčné výrobky", "Pečivo"}, opts.Categories)
	assert.Equal(t, []string{"Lepek", "Mléko"}, opts.Allergens)
	assert.Equal(t, []string{"Bílkoviny", "protein"}, opts.Nutrients)
}

func TestGetProduct(t *testing.T) {
	router, _ := setupTestRouterWithService(t, map[string]string{"tesco": tescoDocument, "billa": billaDocument})
	doJSON(router, "POST", "/api/v1/catalog/load", `{"source":"all"}`)

	t.Run("returns the normalized product", func(t *testing.T) {
		w := doJSON(router, "GET", "/api/v1/catalog/products/b1", "")
		require.Equal(t, http.StatusOK, w.Code)

		p := decodeBody[domain.Product](t, w)
		assert.Equal(t, "Mleko trvanlivé", p.Name)
		assert.Equal(t, "Billa", p.Source)
		assert.Equal(t, "https://shop.billa.cz/produkt/mleko-trvanlive", p.ProductURL)
		require.NotNil(t, p.Price)
		assert.Equal(t, 14.5, *p.Price)
	})

	t.Run("unknown id returns 404", func(t *testing.T) {
		w := doJSON(router, "GET", "/api/v1/catalog/products/nope", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

// TestCORSIntegration tests CORS headers work end-to-end with full router
func TestCORSIntegration(t *testing.T) {
	router := setupTestRouter()

	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

// TestRecoveryMiddleware tests panic recovery
func TestRecoveryMiddleware(t *testing.T) {
	router := setupTestRouter()
	router.GET("/panic", func(c *gin.Context) {
		panic("test panic")
	})

	w := doJSON(router, "GET", "/panic", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

// TestAPIVersioning tests that API v1 routes are correctly versioned
func TestAPIVersioning(t *testing.T) {
	router := setupTestRouter()

	for _, path := range []string{"/api/catalog/options", "/catalog/options", "/api/v2/catalog/options"} {
		w := doJSON(router, "GET", path, "")
		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}
}
