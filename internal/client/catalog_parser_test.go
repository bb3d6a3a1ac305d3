package client

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBaseURL = "https://tienda.example.com"

func loadFixture(t *testing.T, name string) *goquery.Document {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return parseHTML(t, string(data))
}

func parseHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestExtractProductsFromCards(t *testing.T) {
	parser := NewCatalogParser(testBaseURL, DefaultLayout())

	products, total := parser.ExtractProducts(loadFixture(t, "listing_page1.html"))

	assert.Equal(t, 3, total)
	require.Len(t, products, 2)

	first := products[0]
	assert.Equal(t, 102, first.ID)
	assert.Equal(t, "Anillo Acero Quirúrgico", first.Name)
	assert.Equal(t, "AN-316L", first.Code)
	assert.True(t, first.Price.Equal(decimal.RequireFromString("1234.56")), "price %s", first.Price)
	assert.Equal(t, testBaseURL+"/web/image/product.template/102/image_256", first.ImageURL)
	assert.Equal(t, testBaseURL+"/shop/anillo-acero-quirurgico-102", first.ProductURL)
	assert.Equal(t, 7, first.QtyAvailable)
	assert.Empty(t, first.CategoryIDs)

	second := products[1]
	assert.Equal(t, 101, second.ID)
	assert.Equal(t, UnnamedProduct, second.Name)
	assert.Equal(t, "", second.Code)
	assert.True(t, second.Price.Equal(decimal.RequireFromString("25")), "price %s", second.Price)
	assert.Equal(t, "https://cdn.example.com/web/image/101", second.ImageURL)
	assert.Equal(t, 12, second.QtyAvailable)
}

func TestExtractProductsFallsBackToCartForms(t *testing.T) {
	parser := NewCatalogParser(testBaseURL, DefaultLayout())

	products, total := parser.ExtractProducts(loadFixture(t, "listing_form.html"))

	assert.Equal(t, 0, total)
	require.Len(t, products, 1)
	assert.Equal(t, 55, products[0].ID)
	assert.Equal(t, "Arete Gota", products[0].Name)
	assert.True(t, products[0].Price.Equal(decimal.RequireFromString("9.90")))
	assert.Equal(t, 0, products[0].QtyAvailable)
}

func TestExtractProductsNilAndEmptyDocuments(t *testing.T) {
	parser := NewCatalogParser(testBaseURL, DefaultLayout())

	products, total := parser.ExtractProducts(nil)
	assert.Empty(t, products)
	assert.Zero(t, total)

	products, total = parser.ExtractProducts(parseHTML(t, "<html><body><p>No hay productos</p></body></html>"))
	assert.Empty(t, products)
	assert.Zero(t, total)
}

func TestExtractProductsUsesLayoutOrder(t *testing.T) {
	layout := DefaultLayout()
	layout.ProductContainers = SelectorChain{".theme-tile"}
	parser := NewCatalogParser(testBaseURL, layout)

	doc := parseHTML(t, `<div class="theme-tile"><a href="/shop/x-7">X</a><h5>Tile</h5></div>
		<div class="oe_product"><a href="/shop/y-8">Y</a></div>`)
	products, _ := parser.ExtractProducts(doc)

	require.Len(t, products, 1)
	assert.Equal(t, 7, products[0].ID)
	assert.Equal(t, "Tile", products[0].Name)
}

func TestReadPaginationExplicitNext(t *testing.T) {
	parser := NewCatalogParser(testBaseURL, DefaultLayout())

	nav := parser.ReadPagination(loadFixture(t, "listing_page1.html"))

	assert.Equal(t, testBaseURL+"/shop/category/anillos-14/page/2", nav.NextURL)
	assert.Equal(t, 1, nav.CurrentPage)
	assert.Equal(t, 2, nav.MaxPage)
}

func TestReadPaginationWithoutNextLink(t *testing.T) {
	parser := NewCatalogParser(testBaseURL, DefaultLayout())

	nav := parser.ReadPagination(loadFixture(t, "listing_form.html"))

	assert.Empty(t, nav.NextURL)
	assert.Equal(t, 2, nav.CurrentPage)
	assert.Equal(t, 3, nav.MaxPage)
}

func TestReadPaginationIgnoresDisabledNext(t *testing.T) {
	parser := NewCatalogParser(testBaseURL, DefaultLayout())

	doc := parseHTML(t, `<ul class="pagination"><li class="page-item disabled"><a class="page-link" rel="next" href="/shop?page=9">»</a></li></ul>`)
	nav := parser.ReadPagination(doc)

	assert.Empty(t, nav.NextURL)
}

func TestCategoryLinksPreferSidebar(t *testing.T) {
	parser := NewCatalogParser(testBaseURL, DefaultLayout())

	links := parser.CategoryLinks(loadFixture(t, "shop_menu.html"))

	require.Len(t, links, 3)
	assert.Equal(t, CategoryLink{ID: 3, Name: "Acero", URL: testBaseURL + "/shop/category/acero-3"}, links[0])
	assert.Equal(t, 14, links[1].ID)
	assert.Equal(t, "Anillos", links[1].Name)
	assert.Equal(t, 13, links[2].ID)
}

func TestCategoryLinksGenericFallback(t *testing.T) {
	parser := NewCatalogParser(testBaseURL, DefaultLayout())

	links := parser.CategoryLinks(parseHTML(t, `<div><a href="/shop/category/plata-5">Plata</a></div>`))

	require.Len(t, links, 1)
	assert.Equal(t, 5, links[0].ID)
}

func TestBreadcrumbParent(t *testing.T) {
	parser := NewCatalogParser(testBaseURL, DefaultLayout())

	parent, ok := parser.BreadcrumbParent(loadFixture(t, "category_child.html"))
	require.True(t, ok)
	assert.Equal(t, 3, parent.ID)
	assert.Equal(t, "Acero", parent.Name)
	assert.Equal(t, testBaseURL+"/shop/category/acero-3", parent.URL)

	_, ok = parser.BreadcrumbParent(loadFixture(t, "category_root.html"))
	assert.False(t, ok)

	_, ok = parser.BreadcrumbParent(nil)
	assert.False(t, ok)
}

func TestParsePrice(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"minor units", "1234", "12.34"},
		{"currency and separators", "$ 1,234.56", "1234.56"},
		{"small amount", "5", "0.05"},
		{"empty", "", "0"},
		{"no digits", "Consultar", "0"},
		{"overflow", strings.Repeat("9", 40), "0"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParsePrice(tc.input)
			assert.True(t, got.Equal(decimal.RequireFromString(tc.expected)), "ParsePrice(%q) = %s", tc.input, got)
		})
	}
}

func TestParseQuantity(t *testing.T) {
	assert.Equal(t, 12, ParseQuantity("Disponibles: 12"))
	assert.Equal(t, 1234, ParseQuantity("1,234 unidades"))
	assert.Equal(t, 12, ParseQuantity("12.00"))
	assert.Equal(t, 0, ParseQuantity("Agotado"))
}

func TestProductAndCategoryIDs(t *testing.T) {
	id, ok := ProductID("/shop/anillo-316l-101")
	assert.True(t, ok)
	assert.Equal(t, 101, id)

	id, ok = ProductID("https://tienda.example.com/shop/product/77")
	assert.True(t, ok)
	assert.Equal(t, 77, id)

	_, ok = ProductID("/shop/category/anillos-14")
	assert.False(t, ok)

	_, ok = ProductID("/shop/cart/update")
	assert.False(t, ok)

	id, ok = CategoryID("/shop/category/acero-anillos-14/page/2")
	assert.True(t, ok)
	assert.Equal(t, 14, id)

	id, ok = CategoryID("/shop/category/21")
	assert.True(t, ok)
	assert.Equal(t, 21, id)

	_, ok = CategoryID("/shop/category/sin-id")
	assert.False(t, ok)
}

func TestPageNumberHelpers(t *testing.T) {
	assert.Equal(t, 3, PageNumberFromURL("/shop/category/aretes-13?page=3"))
	assert.Equal(t, 2, PageNumberFromURL("/shop/category/anillos-14/page/2"))
	assert.Equal(t, 0, PageNumberFromURL("/shop/category/anillos-14"))

	assert.Equal(t, "https://t.example.com/shop/category/a-1?page=2", WithPage("https://t.example.com/shop/category/a-1", 2))
	assert.Equal(t, "https://t.example.com/shop?order=name&page=4", WithPage("https://t.example.com/shop?order=name&page=3", 4))
}
