package client

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"catalogmirror/scraper/internal/domain"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// UnnamedProduct is used when no title element can be found in a product container.
const UnnamedProduct = "Sin nombre"

var (
	productIDRegex         = regexp.MustCompile(`/shop(?:/product)?/[^?#]*?-(\d+)(?:[/?#]|$)`)
	productIDFallbackRegex = regexp.MustCompile(`/shop(?:/product)?/(\d+)(?:[/?#]|$)`)
	categoryIDRegex        = regexp.MustCompile(`/shop/category/[^?#]*?-(\d+)(?:[/?#]|$)`)
	categoryIDFallback     = regexp.MustCompile(`/shop/category/(\d+)(?:[/?#]|$)`)
	nonShopProductPath     = regexp.MustCompile(`/shop/(?:category|cart|checkout|payment|confirmation|wishlist|page|address)(?:[/?#]|$)`)
	skuRegex               = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9-]{0,31}$`)
	firstIntegerRegex      = regexp.MustCompile(`\d[\d.,]*`)
	pagePathRegex          = regexp.MustCompile(`/page/(\d+)(?:[/?#]|$)`)
)

// CategoryLink is a category reference found in menu or breadcrumb markup.
type CategoryLink struct {
	ID   int
	Name string
	URL  string
}

// PageNav is what a listing page says about its own pagination.
type PageNav struct {
	NextURL     string
	CurrentPage int
	MaxPage     int
}

// CatalogParser reads storefront documents using a Layout.
type CatalogParser struct {
	baseURL *url.URL
	layout  Layout
}

// NewCatalogParser returns a parser resolving relative links against baseURL.
func NewCatalogParser(baseURL string, layout Layout) *CatalogParser {
	base, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
	if err != nil {
		log.Warnf("Invalid base URL %q for parser: %v", baseURL, err)
		base = nil
	}
	return &CatalogParser{
		baseURL: base,
		layout:  layout,
	}
}

// ExtractProducts returns the products on a listing page and the item total the page reports (0 if absent).
func (p *CatalogParser) ExtractProducts(doc *goquery.Document) ([]domain.Product, int) {
	if doc == nil {
		return nil, 0
	}

	containers := p.layout.ProductContainers.Find(doc.Selection)
	products := make([]domain.Product, 0, containers.Length())
	seen := make(map[int]struct{}, containers.Length())

	containers.Each(func(i int, card *goquery.Selection) {
		product, err := p.parseContainer(card)
		if err != nil {
			log.Debugf("Skipping product container %d: %v", i, err)
			return
		}
		if _, dup := seen[product.ID]; dup {
			return
		}
		seen[product.ID] = struct{}{}
		products = append(products, product)
	})

	total := p.ReportedTotal(doc)
	log.Debugf("Extracted %d products from page (reported total %d)", len(products), total)
	return products, total
}

func (p *CatalogParser) parseContainer(card *goquery.Selection) (product domain.Product, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while parsing container: %v", r)
		}
	}()

	href := p.productHref(card)
	if href == "" {
		return product, fmt.Errorf("no product link")
	}

	id, ok := ProductID(href)
	if !ok {
		return product, fmt.Errorf("no product id in %q", href)
	}

	name := p.layout.ProductNames.FirstText(card)
	if name == "" {
		name = UnnamedProduct
	}

	return domain.Product{
		ID:           id,
		Name:         name,
		Code:         p.productCode(card),
		Price:        ParsePrice(p.layout.Prices.First(card)),
		ImageURL:     ResolveURL(p.baseURL, p.layout.Images.First(card)),
		ProductURL:   ResolveURL(p.baseURL, href),
		QtyAvailable: ParseQuantity(p.layout.Quantities.First(card)),
		CategoryIDs:  []int{},
	}, nil
}

func (p *CatalogParser) productHref(card *goquery.Selection) string {
	links := p.layout.ProductLinks.FindMatching(card, func(s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		return isProductHref(href)
	})
	if href, ok := links.First().Attr("href"); ok {
		return strings.TrimSpace(href)
	}

	if href, ok := card.Closest("a").Attr("href"); ok && isProductHref(href) {
		return strings.TrimSpace(href)
	}
	return ""
}

func (p *CatalogParser) productCode(card *goquery.Selection) string {
	for _, candidate := range p.layout.Codes.Values(card) {
		if skuRegex.MatchString(candidate) && strings.ContainsAny(candidate, "0123456789") {
			return candidate
		}
	}
	return ""
}

// ReportedTotal reads the item count a "results" indicator shows, or 0.
func (p *CatalogParser) ReportedTotal(doc *goquery.Document) int {
	if doc == nil {
		return 0
	}
	for _, v := range p.layout.ResultCounts.Values(doc.Selection) {
		if n := ParseQuantity(v); n > 0 {
			return n
		}
	}
	return 0
}

// ReadPagination returns the explicit next link and the page numbers visible in pagination controls.
func (p *CatalogParser) ReadPagination(doc *goquery.Document) PageNav {
	var nav PageNav
	if doc == nil {
		return nav
	}

	next := p.layout.NextLinks.FindMatching(doc.Selection, func(s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		return href != "" && href != "#" && !strings.HasPrefix(href, "javascript:") &&
			s.Closest(".disabled").Length() == 0
	})
	if href, ok := next.First().Attr("href"); ok {
		nav.NextURL = ResolveURL(p.baseURL, href)
	}

	if active := p.layout.ActivePages.FirstText(doc.Selection); active != "" {
		nav.CurrentPage = ParseQuantity(active)
	}

	p.layout.PageLinks.Find(doc.Selection).Each(func(_ int, s *goquery.Selection) {
		if n, err := strconv.Atoi(CollapseSpace(s.Text())); err == nil && n > nav.MaxPage {
			nav.MaxPage = n
		}
		if href, ok := s.Attr("href"); ok {
			if n := PageNumberFromURL(href); n > nav.MaxPage {
				nav.MaxPage = n
			}
		}
	})
	if nav.CurrentPage > nav.MaxPage {
		nav.MaxPage = nav.CurrentPage
	}

	return nav
}

// CategoryLinks enumerates category links from the menu markup, first occurrence of an id wins.
func (p *CatalogParser) CategoryLinks(doc *goquery.Document) []CategoryLink {
	if doc == nil {
		return nil
	}

	var links []CategoryLink
	seen := make(map[int]struct{})

	p.layout.CategoryLinks.Find(doc.Selection).Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		name := CollapseSpace(a.Text())
		id, ok := CategoryID(href)
		if !ok || name == "" {
			return
		}
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}
		links = append(links, CategoryLink{
			ID:   id,
			Name: name,
			URL:  ResolveURL(p.baseURL, href),
		})
	})

	log.Debugf("Found %d category links", len(links))
	return links
}

// BreadcrumbParent reads a category page's breadcrumb and returns the nearest ancestor category,
// skipping the first (home) and last (current) entries.
func (p *CatalogParser) BreadcrumbParent(doc *goquery.Document) (CategoryLink, bool) {
	if doc == nil {
		return CategoryLink{}, false
	}

	items := p.layout.BreadcrumbItems.Find(doc.Selection)
	if items.Length() <= 2 {
		return CategoryLink{}, false
	}

	var parent CategoryLink
	found := false
	items.Slice(1, items.Length()-1).Each(func(_ int, item *goquery.Selection) {
		link := item
		if !item.Is("a") {
			link = item.Find("a").First()
		}
		href, ok := link.Attr("href")
		if !ok {
			return
		}
		id, ok := CategoryID(href)
		if !ok {
			return
		}
		parent = CategoryLink{
			ID:   id,
			Name: CollapseSpace(link.Text()),
			URL:  ResolveURL(p.baseURL, href),
		}
		found = true
	})

	return parent, found
}

// ProductID extracts the numeric product id from the trailing number of a product URL.
func ProductID(href string) (int, bool) {
	if !isProductHref(href) {
		return 0, false
	}
	return trailingID(href, productIDRegex, productIDFallbackRegex)
}

// CategoryID extracts the numeric category id from a /shop/category/ URL.
func CategoryID(href string) (int, bool) {
	return trailingID(href, categoryIDRegex, categoryIDFallback)
}

func trailingID(href string, patterns ...*regexp.Regexp) (int, bool) {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(href); len(m) > 1 {
			id, err := strconv.Atoi(m[1])
			if err == nil {
				return id, true
			}
		}
	}
	return 0, false
}

func isProductHref(href string) bool {
	href = strings.TrimSpace(href)
	return strings.Contains(href, "/shop/") && !nonShopProductPath.MatchString(href)
}

// ParsePrice normalizes a rendered price. Everything but digits and separators is stripped, the
// separators are dropped, and the remaining integer is read as minor units (divided by 100).
// Unparseable input yields zero.
func ParsePrice(text string) decimal.Decimal {
	var digits strings.Builder
	for _, r := range text {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return decimal.Zero
	}
	raw, err := strconv.ParseInt(digits.String(), 10, 64)
	if err != nil || raw < 0 {
		return decimal.Zero
	}
	return decimal.New(raw, -2)
}

// ParseQuantity returns the first non-negative integer in text, ignoring thousands separators, or 0.
func ParseQuantity(text string) int {
	m := firstIntegerRegex.FindString(text)
	if m == "" {
		return 0
	}
	if i := strings.IndexAny(m, ".,"); i >= 0 && len(m)-i-1 != 3 {
		// a decimal part such as "12.00" rather than a thousands separator
		m = m[:i]
	}
	m = strings.NewReplacer(".", "", ",", "").Replace(m)
	n, err := strconv.Atoi(m)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// PageNumberFromURL reads a page number from a "page" query parameter or a /page/N path segment.
func PageNumberFromURL(raw string) int {
	u, err := url.Parse(raw)
	if err != nil {
		return 0
	}
	if v := u.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	if m := pagePathRegex.FindStringSubmatch(u.Path); len(m) > 1 {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n
		}
	}
	return 0
}

// WithPage returns listingURL with its "page" query parameter set to page.
func WithPage(listingURL string, page int) string {
	u, err := url.Parse(listingURL)
	if err != nil {
		return ""
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String()
}
