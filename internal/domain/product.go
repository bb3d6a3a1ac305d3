package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Prices are written as JSON numbers.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// Product is one storefront item. CategoryIDs is a set kept sorted ascending.
type Product struct {
	ID           int             `json:"id"`
	Name         string          `json:"name"`
	Code         string          `json:"code"`
	Price        decimal.Decimal `json:"price"`
	ImageURL     string          `json:"image_url"`
	ProductURL   string          `json:"product_url"`
	QtyAvailable int             `json:"qty_available"`
	CategoryIDs  []int           `json:"category_ids"`
}

// AddCategories unions ids into the product's category set.
func (p *Product) AddCategories(ids ...int) {
	for _, id := range ids {
		if !p.HasCategory(id) {
			p.CategoryIDs = append(p.CategoryIDs, id)
		}
	}
	sort.Ints(p.CategoryIDs)
}

// HasCategory reports whether id is in the category set.
func (p *Product) HasCategory(id int) bool {
	for _, existing := range p.CategoryIDs {
		if existing == id {
			return true
		}
	}
	return false
}
