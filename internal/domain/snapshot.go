package domain

import (
	"sort"
	"time"
)

// Stats summarizes a snapshot.
type Stats struct {
	TotalProducts     int `json:"total_products"`
	TotalCategories   int `json:"total_categories"`
	RootCategoryCount int `json:"root_category_count"`
}

// Snapshot is the complete result of one sync run, as persisted and served to readers.
type Snapshot struct {
	LastSync           *time.Time        `json:"last_sync"`
	Categories         CategoryTree      `json:"categories"`
	Products           []Product         `json:"products"`
	ProductsByCategory map[int][]Product `json:"products_by_category"`
	Stats              Stats             `json:"stats"`
}

// EmptySnapshot is what readers get when nothing has been synced yet.
func EmptySnapshot() Snapshot {
	return Snapshot{
		Categories:         NewCategoryTree(),
		Products:           []Product{},
		ProductsByCategory: map[int][]Product{},
	}
}

// Normalize substitutes defaults for every missing collection so consumers never nil-check.
func (s *Snapshot) Normalize() {
	if s.Categories.Roots == nil {
		s.Categories.Roots = []Category{}
	}
	if s.Categories.Children == nil {
		s.Categories.Children = map[int][]Category{}
	}
	if s.Categories.All == nil {
		s.Categories.All = map[int]Category{}
	}
	if s.Products == nil {
		s.Products = []Product{}
	}
	if s.ProductsByCategory == nil {
		s.ProductsByCategory = map[int][]Product{}
	}
	for i := range s.Products {
		if s.Products[i].CategoryIDs == nil {
			s.Products[i].CategoryIDs = []int{}
		}
	}
}

// ComputeStats recalculates Stats from the current collections.
func (s *Snapshot) ComputeStats() {
	s.Stats = Stats{
		TotalProducts:     len(s.Products),
		TotalCategories:   len(s.Categories.All),
		RootCategoryCount: len(s.Categories.Roots),
	}
}

// SortProducts orders Products by id, newest (highest) first.
func (s *Snapshot) SortProducts() {
	sort.SliceStable(s.Products, func(i, j int) bool {
		return s.Products[i].ID > s.Products[j].ID
	})
}

// Product looks a product up by id.
func (s *Snapshot) Product(id int) (Product, bool) {
	for _, p := range s.Products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}
