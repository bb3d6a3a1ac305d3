// Package hierarchy resolves the two-level storefront category tree.
package hierarchy

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"catalogmirror/scraper/internal/client"
	"catalogmirror/scraper/internal/config"
	"catalogmirror/scraper/internal/domain"

	log "github.com/sirupsen/logrus"
)

// ErrNoCategories is returned when the resolver finds nothing to crawl.
var ErrNoCategories = errors.New("no categories found")

// Resolver produces the category tree for one sync run.
type Resolver interface {
	Resolve(ctx context.Context, session client.Session) (domain.CategoryTree, error)
}

// New selects the strategy named in cfg.
func New(cfg config.HierarchyConfig, parser *client.CatalogParser) (Resolver, error) {
	switch cfg.Strategy {
	case config.StrategyStatic:
		return NewStaticResolver(cfg.Static), nil
	case config.StrategyScraped, "":
		return NewScrapedResolver(parser), nil
	default:
		return nil, fmt.Errorf("unknown hierarchy strategy %q", cfg.Strategy)
	}
}

type staticResolver struct {
	roots []config.StaticRootCategory
}

// NewStaticResolver serves a hand-curated table of roots and children.
func NewStaticResolver(roots []config.StaticRootCategory) Resolver {
	return &staticResolver{roots: roots}
}

func (r *staticResolver) Resolve(_ context.Context, session client.Session) (domain.CategoryTree, error) {
	tree := domain.NewCategoryTree()

	for _, root := range r.roots {
		if !tree.AddRoot(domain.Category{
			ID:   root.ID,
			Name: root.Name,
			URL:  categoryURL(session, root.ID, root.Slug),
		}) {
			log.Warnf("⚠️ Duplicate static category id %d (%s) ignored", root.ID, root.Name)
			continue
		}

		for _, child := range root.Children {
			if !tree.AddChild(root.ID, domain.Category{
				ID:   child.ID,
				Name: child.Name,
				URL:  categoryURL(session, child.ID, child.Slug),
			}) {
				log.Warnf("⚠️ Duplicate static category id %d (%s) ignored", child.ID, child.Name)
			}
		}
	}

	if len(tree.All) == 0 {
		return tree, ErrNoCategories
	}

	log.Infof("📂 Static hierarchy: %d root categories, %d total", len(tree.Roots), len(tree.All))
	return tree, nil
}

func categoryURL(session client.Session, id int, slug string) string {
	slug = strings.Trim(slug, "/ ")
	if slug == "" {
		slug = strconv.Itoa(id)
	}
	return session.Resolve("/shop/category/" + slug)
}

type scrapedResolver struct {
	parser *client.CatalogParser
}

// NewScrapedResolver discovers categories from the shop menu and each category's breadcrumb.
func NewScrapedResolver(parser *client.CatalogParser) Resolver {
	return &scrapedResolver{parser: parser}
}

func (r *scrapedResolver) Resolve(ctx context.Context, session client.Session) (domain.CategoryTree, error) {
	tree := domain.NewCategoryTree()

	log.Info("🔄 Discovering categories...")
	doc := session.FetchDocument(ctx, session.ShopURL())
	if doc == nil {
		return tree, fmt.Errorf("shop page %s unavailable: %w", session.ShopURL(), ErrNoCategories)
	}

	links := r.parser.CategoryLinks(doc)
	if len(links) == 0 {
		return tree, ErrNoCategories
	}
	log.Infof("Found %d categories in shop menu", len(links))

	known := make(map[int]client.CategoryLink, len(links))
	for _, link := range links {
		known[link.ID] = link
	}

	parents := make(map[int]client.CategoryLink)
	for _, link := range links {
		if err := ctx.Err(); err != nil {
			return tree, fmt.Errorf("resolving hierarchy: %w", err)
		}
		catDoc := session.FetchDocument(ctx, link.URL)
		if catDoc == nil {
			log.Warnf("⚠️ Category page %s unavailable, treating %q as a root", link.URL, link.Name)
			continue
		}
		parent, ok := r.parser.BreadcrumbParent(catDoc)
		if !ok || parent.ID == link.ID {
			continue
		}
		if _, seen := known[parent.ID]; !seen {
			known[parent.ID] = parent
		}
		parents[link.ID] = parent
	}

	rootOf := func(id int) int {
		visited := map[int]bool{id: true}
		cur := id
		for {
			p, ok := parents[cur]
			if !ok || visited[p.ID] {
				return cur
			}
			visited[p.ID] = true
			cur = p.ID
		}
	}

	toCategory := func(link client.CategoryLink) domain.Category {
		return domain.Category{ID: link.ID, Name: link.Name, URL: link.URL}
	}

	for _, link := range links {
		root := rootOf(link.ID)
		tree.AddRoot(toCategory(known[root]))
	}

	for _, link := range links {
		root := rootOf(link.ID)
		if root == link.ID {
			continue
		}
		if direct := parents[link.ID]; direct.ID != root {
			log.Debugf("Category %d nested below %d, attaching to root %d", link.ID, direct.ID, root)
		}
		tree.AddChild(root, toCategory(link))
	}

	log.Infof("📂 Scraped hierarchy: %d root categories, %d total", len(tree.Roots), len(tree.All))
	return tree, nil
}
