package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/grocerygrid/backend/internal/domain"
	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	m.Run()
}

func price(v float64) *float64 { return &v }

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "-", formatPrice(nil))
	assert.Equal(t, "24,90", formatPrice(price(24.9)))
	assert.Equal(t, "1290,00", formatPrice(price(1290)))
}

func TestWriteTable_AlignsWideRunes(t *testing.T) {
	var buf bytes.Buffer
	writeTable(&buf, []string{"NAME", "PRICE"}, [][]string{
		{"Mléko", "24,90"},
		{"Čokoláda hořká", "39,90"},
	}, nil)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)

	// the PRICE column starts at the same display offset on every line
	offset := runewidth.StringWidth("Čokoláda hořká") + 2
	for i, want := range []string{"PRICE", "24,90", "39,90"} {
		idx := strings.Index(lines[i], want)
		require.GreaterOrEqual(t, idx, 0, lines[i])
		assert.Equal(t, offset, runewidth.StringWidth(lines[i][:idx]), lines[i])
	}
	assert.True(t, strings.HasSuffix(lines[1], "24,90"))
	assert.True(t, strings.HasSuffix(lines[2], "39,90"))
}

func TestWriteTable_StyleReceivesPaddedCell(t *testing.T) {
	var buf bytes.Buffer
	var seen []string
	writeTable(&buf, []string{"A", "B"}, [][]string{{"x", "yy"}, {"long", "z"}}, func(row, col int, cell string) string {
		if col == 0 {
			seen = append(seen, cell)
		}
		return cell
	})

	assert.Equal(t, []string{"x   ", "long"}, seen)
}

func TestRenderProducts(t *testing.T) {
	t.Run("empty result", func(t *testing.T) {
		var buf bytes.Buffer
		renderProducts(&buf, domain.QueryResult{Page: 1, PageCount: 1})
		assert.Equal(t, "No products match the filter.\n", buf.String())
	})

	t.Run("page with sale product", func(t *testing.T) {
		var buf bytes.Buffer
		renderProducts(&buf, domain.QueryResult{
			Items: []domain.Product{
				{ID: "1", Name: "Mlíko", Category: "Mléčné výrobky", Price: price(19.9), OriginalPrice: price(24.9), Source: "tesco"},
				{ID: "2", Name: "Rohlík", Category: "Pečivo", Source: "billa"},
			},
			Total:     3,
			Page:      1,
			PageCount: 2,
			PageSize:  2,
		})

		out := buf.String()
		assert.Contains(t, out, "Mlíko")
		assert.Contains(t, out, "19,90")
		assert.Contains(t, out, "24,90")
		assert.Contains(t, out, "page 1/2, 3 products")
	})

	t.Run("long names are truncated", func(t *testing.T) {
		var buf bytes.Buffer
		name := strings.Repeat("Žitný chléb ", 10)
		renderProducts(&buf, domain.QueryResult{
			Items: []domain.Product{{ID: "1", Name: name, Category: "Pečivo", Source: "albert"}},
			Total: 1, Page: 1, PageCount: 1, PageSize: 48,
		})

		assert.NotContains(t, buf.String(), name)
		assert.Contains(t, buf.String(), "…")
	})
}

func TestQueryOptionsBuild(t *testing.T) {
	t.Run("valid flags", func(t *testing.T) {
		o := queryOptions{
			search:       "Mléko  polotučné",
			sort:         "nutrient-desc",
			nutrient:     "protein",
			nutritionMin: map[string]string{"protein": "3,5"},
		}
		filter, key, err := o.build()
		require.NoError(t, err)
		assert.Equal(t, domain.SortKey{Mode: domain.SortNutrientDesc, Nutrient: "protein"}, key)
		assert.Len(t, filter.SearchTerms, 2)
		assert.InDelta(t, 3.5, filter.NutritionMin["protein"], 1e-9)
	})

	t.Run("unknown sort", func(t *testing.T) {
		_, _, err := (&queryOptions{sort: "cheapest"}).build()
		assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	})

	t.Run("nutrient sort without nutrient", func(t *testing.T) {
		_, _, err := (&queryOptions{sort: "nutrient-asc"}).build()
		assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	})

	t.Run("non-numeric bound", func(t *testing.T) {
		_, _, err := (&queryOptions{nutritionMax: map[string]string{"sugar": "lots"}}).build()
		assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	})
}
