package service

import (
	"context"

	"catalogmirror/scraper/internal/client"
	"catalogmirror/scraper/internal/domain"
	"catalogmirror/scraper/internal/metrics"

	log "github.com/sirupsen/logrus"
)

// Paginator walks every page of one category listing.
type Paginator struct {
	parser          *client.CatalogParser
	maxPages        int
	maxForcedProbes int
}

func NewPaginator(parser *client.CatalogParser, maxPages, maxForcedProbes int) *Paginator {
	if maxPages <= 0 {
		maxPages = 100
	}
	if maxForcedProbes < 0 {
		maxForcedProbes = 0
	}
	return &Paginator{
		parser:          parser,
		maxPages:        maxPages,
		maxForcedProbes: maxForcedProbes,
	}
}

// Collect returns the products of the listing at startURL, deduplicated by id, in page order.
func (p *Paginator) Collect(ctx context.Context, session client.Session, startURL string) []domain.Product {
	var (
		products      []domain.Product
		seen          = make(map[int]struct{})
		visited       = make(map[string]struct{})
		reportedTotal int
		forcedProbes  int
		synthesized   bool
		current       = startURL
	)

	for page := 1; ; page++ {
		if page > p.maxPages {
			log.Warnf("⚠️ Page limit %d reached for %s, keeping %d products", p.maxPages, startURL, len(products))
			break
		}
		if ctx.Err() != nil {
			log.Warnf("⚠️ Listing %s interrupted: %v", startURL, ctx.Err())
			break
		}
		if _, ok := visited[current]; ok {
			log.Debugf("Page %s already visited, listing done", current)
			break
		}
		visited[current] = struct{}{}

		log.Debugf("📄 Page %d: %s", page, current)
		doc := session.FetchDocument(ctx, current)
		found, total := p.parser.ExtractProducts(doc)

		if synthesized && len(found) == 0 {
			log.Debugf("Probe %s returned no products, listing exhausted", current)
			break
		}

		added := 0
		for _, product := range found {
			if _, ok := seen[product.ID]; ok {
				continue
			}
			seen[product.ID] = struct{}{}
			products = append(products, product)
			added++
		}
		metrics.ObserveProducts(added)

		if reportedTotal == 0 && total > 0 {
			reportedTotal = total
		}
		if reportedTotal > 0 && len(products) >= reportedTotal {
			log.Debugf("Reported total %d reached for %s", reportedTotal, startURL)
			break
		}

		nav := p.parser.ReadPagination(doc)
		if nav.NextURL != "" {
			current = nav.NextURL
			synthesized = false
			continue
		}

		pageNumber := nav.CurrentPage
		if pageNumber == 0 {
			pageNumber = client.PageNumberFromURL(current)
		}
		if pageNumber == 0 {
			pageNumber = page
		}

		switch {
		case nav.MaxPage > pageNumber:
			current = client.WithPage(startURL, pageNumber+1)
			synthesized = true
		case doc != nil && len(found) == 0 && forcedProbes < p.maxForcedProbes:
			forcedProbes++
			current = client.WithPage(startURL, pageNumber+1)
			synthesized = true
		default:
			return products
		}
		if current == "" {
			break
		}
	}

	return products
}
