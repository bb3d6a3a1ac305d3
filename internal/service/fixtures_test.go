package service

import (
	"fmt"
	"strings"

	"catalogmirror/scraper/internal/client"
	"catalogmirror/scraper/internal/client/clienttest"
	"catalogmirror/scraper/internal/config"
	"catalogmirror/scraper/internal/hierarchy"
)

const base = "https://tienda.example.com"

func testParser() *client.CatalogParser {
	return client.NewCatalogParser(base, client.DefaultLayout())
}

func card(id int, name, price string) string {
	return fmt.Sprintf(`<div class="oe_product">
		<a href="/shop/item-%d"><img src="/web/image/product.template/%d/image_256"/></a>
		<h6 class="oe_product_name">%s</h6>
		<span class="oe_currency_value">%s</span>
	</div>`, id, id, name, price)
}

func listing(cards []string, extra string) string {
	return `<html><body><div id="products_grid">` + strings.Join(cards, "\n") + `</div>` + extra + `</body></html>`
}

func nextLink(href string) string {
	return `<ul class="pagination"><li class="page-item"><a class="page-link" rel="next" href="` + href + `">Siguiente</a></li></ul>`
}

func pageLinks(active int, pages ...int) string {
	html := `<ul class="pagination">`
	for _, p := range pages {
		class := "page-item"
		if p == active {
			class += " active"
		}
		html += fmt.Sprintf(`<li class="%s"><a class="page-link" href="#">%d</a></li>`, class, p)
	}
	return html + `</ul>`
}

// steelCatalog is one root (Acero) with two children sharing product 101.
func steelCatalog() []config.StaticRootCategory {
	return []config.StaticRootCategory{{
		ID:   3,
		Name: "Acero",
		Slug: "acero-3",
		Children: []config.StaticChildCategory{
			{ID: 14, Name: "Anillos", Slug: "anillos-14"},
			{ID: 13, Name: "Aretes", Slug: "aretes-13"},
		},
	}}
}

func steelResolver() hierarchy.Resolver {
	return hierarchy.NewStaticResolver(steelCatalog())
}

func steelSession() *clienttest.FakeSession {
	s := clienttest.NewFakeSession(base)
	s.AddPage("/shop", `<html><body>ok</body></html>`)
	s.AddPage("/shop/category/anillos-14", listing([]string{
		card(101, "Anillo liso", "2500"),
		card(102, "Anillo doble", "1,234.56"),
	}, ""))
	s.AddPage("/shop/category/aretes-13", listing([]string{
		card(101, "Anillo liso", "2500"),
	}, ""))
	s.AddResource("/web/image/product.template/101/image_256", []byte("png-101"), "image/png")
	s.AddResource("/web/image/product.template/102/image_256", []byte("jpg-102"), "image/jpeg")
	return s
}
