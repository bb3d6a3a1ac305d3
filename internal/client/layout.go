package client

// Layout lists the structural selectors used to read a storefront theme. Every chain is tried
// in order, so supporting a new theme means adding selectors here rather than touching parsers.
type Layout struct {
	ProductContainers SelectorChain
	ProductLinks      SelectorChain
	ProductNames      SelectorChain
	Prices            AttrChain
	Codes             AttrChain
	Images            AttrChain
	Quantities        AttrChain
	ResultCounts      AttrChain

	NextLinks   SelectorChain
	ActivePages SelectorChain
	PageLinks   SelectorChain

	CategoryLinks   SelectorChain
	BreadcrumbItems SelectorChain
}

// DefaultLayout covers the stock Odoo eCommerce themes.
func DefaultLayout() Layout {
	return Layout{
		ProductContainers: SelectorChain{
			".oe_product",
			".o_wsale_product_grid_wrapper .card",
			".oe_product_cart",
			`[itemtype*="Product"]`,
			`form[action*="/shop/cart/update"]`,
			".o_wsale_products_grid_table_wrapper form",
		},
		ProductLinks: SelectorChain{
			`a[href*="/shop/product/"]`,
			`a[href*="/shop/"]`,
		},
		ProductNames: SelectorChain{
			".oe_product_name",
			"h5",
			"h6",
			".card-title",
			`[itemprop="name"]`,
		},
		Prices: AttrChain{
			{Selector: ".oe_currency_value"},
			{Selector: ".product_price .oe_price"},
			{Selector: `[itemprop="price"]`},
			{Selector: `[itemprop="price"]`, Attr: "content"},
		},
		Codes: AttrChain{
			{Selector: ".oe_product_code"},
			{Selector: ".product_code"},
			{Selector: `[itemprop="sku"]`},
			{Selector: "small"},
		},
		Images: AttrChain{
			{Selector: `img[src*="/web/image"]`, Attr: "src"},
			{Selector: `img[data-src*="/web/image"]`, Attr: "data-src"},
		},
		Quantities: AttrChain{
			{Selector: "[data-qty-available]", Attr: "data-qty-available"},
			{Selector: "[data-available-qty]", Attr: "data-available-qty"},
			{Selector: "[data-free-qty]", Attr: "data-free-qty"},
			{Selector: ".o_qty_available"},
			{Selector: `[itemprop="inventoryLevel"]`},
			{Selector: ".availability_messages"},
		},
		ResultCounts: AttrChain{
			{Selector: "[data-products-count]", Attr: "data-products-count"},
			{Selector: ".o_wsale_products_count"},
			{Selector: ".oe_search_found"},
			{Selector: ".o_search_found"},
		},
		NextLinks: SelectorChain{
			`a.page-link[rel="next"]`,
			`a[rel="next"]`,
			`link[rel="next"]`,
			".pagination .next a",
			`a[aria-label="Next"]`,
			`a[aria-label="Siguiente"]`,
		},
		ActivePages: SelectorChain{
			".pagination .active .page-link",
			".pagination li.active a",
			".pagination li.active span",
			".pagination .active",
		},
		PageLinks: SelectorChain{
			".pagination a.page-link",
			".pagination a",
		},
		CategoryLinks: SelectorChain{
			`aside a[href*="/shop/category/"], .o_wsale_categories a[href*="/shop/category/"], #products_grid_before a[href*="/shop/category/"]`,
			`nav a[href*="/shop/category/"], .navbar a[href*="/shop/category/"]`,
			`a[href*="/shop/category/"]`,
		},
		BreadcrumbItems: SelectorChain{
			"ol.breadcrumb > li",
			".breadcrumb .breadcrumb-item",
			`nav[aria-label="breadcrumb"] li`,
			".breadcrumb a",
			`nav[aria-label="breadcrumb"] a`,
		},
	}
}
