package service

import (
	"context"
	"time"

	"catalogmirror/scraper/internal/client"
	"catalogmirror/scraper/internal/domain"
	"catalogmirror/scraper/internal/hierarchy"

	log "github.com/sirupsen/logrus"
)

// ImageCache localizes product images. Implemented by imagecache.Cache.
type ImageCache interface {
	EnsureLocal(ctx context.Context, session client.Session, imageURL string, productID int) string
}

// MergeProduct folds one sighting of incoming under categoryIDs into stored and returns the result.
// stored is nil when the id has not been seen in this run.
func MergeProduct(stored *domain.Product, incoming domain.Product, categoryIDs ...int) domain.Product {
	var merged domain.Product
	if stored == nil {
		merged = incoming
		merged.CategoryIDs = append([]int{}, incoming.CategoryIDs...)
	} else {
		merged = *stored
		merged.CategoryIDs = append([]int{}, stored.CategoryIDs...)
	}
	merged.AddCategories(categoryIDs...)
	return merged
}

// accumulator holds the products registry of a single build.
type accumulator struct {
	order      []int
	products   map[int]domain.Product
	byCategory map[int][]int
}

func newAccumulator() *accumulator {
	return &accumulator{
		products:   make(map[int]domain.Product),
		byCategory: make(map[int][]int),
	}
}

// track registers a crawled category so it is listed even when it yields no products.
func (a *accumulator) track(categoryID int) {
	if _, ok := a.byCategory[categoryID]; !ok {
		a.byCategory[categoryID] = []int{}
	}
}

func (a *accumulator) seen(id int) bool {
	_, ok := a.products[id]
	return ok
}

// add records that product was listed under categoryID. It reports whether the id is new to this run.
func (a *accumulator) add(categoryID int, product domain.Product, categoryIDs ...int) bool {
	stored, ok := a.products[product.ID]
	var merged domain.Product
	if ok {
		merged = MergeProduct(&stored, product, categoryIDs...)
	} else {
		merged = MergeProduct(nil, product, categoryIDs...)
		a.order = append(a.order, product.ID)
	}
	a.products[product.ID] = merged

	for _, id := range a.byCategory[categoryID] {
		if id == product.ID {
			return !ok
		}
	}
	a.byCategory[categoryID] = append(a.byCategory[categoryID], product.ID)
	return !ok
}

func (a *accumulator) snapshot(tree domain.CategoryTree) domain.Snapshot {
	snapshot := domain.EmptySnapshot()
	snapshot.Categories = tree

	snapshot.Products = make([]domain.Product, 0, len(a.order))
	for _, id := range a.order {
		snapshot.Products = append(snapshot.Products, a.products[id])
	}
	for categoryID, ids := range a.byCategory {
		list := make([]domain.Product, 0, len(ids))
		for _, id := range ids {
			list = append(list, a.products[id])
		}
		snapshot.ProductsByCategory[categoryID] = list
	}
	return snapshot
}

// CatalogBuilder turns a category tree into a complete snapshot.
type CatalogBuilder struct {
	resolver       hierarchy.Resolver
	paginator      *Paginator
	images         ImageCache
	includeRootIDs bool
	categoryDelay  time.Duration
	now            func() time.Time
}

func NewCatalogBuilder(
	resolver hierarchy.Resolver,
	paginator *Paginator,
	images ImageCache,
	includeRootIDs bool,
	categoryDelay time.Duration,
) *CatalogBuilder {
	return &CatalogBuilder{
		resolver:       resolver,
		paginator:      paginator,
		images:         images,
		includeRootIDs: includeRootIDs,
		categoryDelay:  categoryDelay,
		now:            time.Now,
	}
}

// Build resolves the hierarchy and crawls every child category in order.
func (b *CatalogBuilder) Build(ctx context.Context, session client.Session) (domain.Snapshot, error) {
	tree, err := b.resolver.Resolve(ctx, session)
	if err != nil {
		return domain.Snapshot{}, err
	}

	children := tree.ChildCategories()
	log.Infof("🗂️ %d root categories, %d child categories to crawl", len(tree.Roots), len(children))

	acc := newAccumulator()
	for i, category := range children {
		if i > 0 {
			if err := b.pause(ctx); err != nil {
				return domain.Snapshot{}, err
			}
		}
		if err := ctx.Err(); err != nil {
			return domain.Snapshot{}, err
		}
		acc.track(category.ID)

		categoryIDs := []int{category.ID}
		if b.includeRootIDs && category.ParentID != nil {
			categoryIDs = append(categoryIDs, *category.ParentID)
		}

		products := b.paginator.Collect(ctx, session, category.URL)
		log.Infof("🔄 [%d/%d] %s: %d products", i+1, len(children), category.Name, len(products))

		for _, product := range products {
			if !acc.seen(product.ID) && b.images != nil {
				product.ImageURL = b.images.EnsureLocal(ctx, session, product.ImageURL, product.ID)
			}
			acc.add(category.ID, product, categoryIDs...)
		}
	}

	snapshot := acc.snapshot(tree)
	snapshot.SortProducts()
	snapshot.ComputeStats()
	syncedAt := b.now()
	snapshot.LastSync = &syncedAt
	return snapshot, nil
}

// pause waits categoryDelay after a category crawl has finished.
func (b *CatalogBuilder) pause(ctx context.Context) error {
	if b.categoryDelay <= 0 {
		return nil
	}
	timer := time.NewTimer(b.categoryDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
