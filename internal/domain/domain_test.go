package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryTreeFirstOccurrenceWins(t *testing.T) {
	tree := NewCategoryTree()

	assert.True(t, tree.AddRoot(Category{ID: 3, Name: "Acero"}))
	assert.False(t, tree.AddRoot(Category{ID: 3, Name: "Duplicado"}))
	assert.True(t, tree.AddChild(3, Category{ID: 14, Name: "Anillos"}))
	assert.False(t, tree.AddChild(3, Category{ID: 14, Name: "Otra vez"}))
	assert.False(t, tree.AddChild(99, Category{ID: 15, Name: "Huérfana"}), "parent must exist")
	assert.False(t, tree.AddChild(14, Category{ID: 16, Name: "Nieta"}), "parent must be a root")

	require.Len(t, tree.Roots, 1)
	assert.Equal(t, "Acero", tree.Roots[0].Name)
	assert.Len(t, tree.All, 2)

	child := tree.All[14]
	require.NotNil(t, child.ParentID)
	require.NotNil(t, child.ParentName)
	assert.Equal(t, 3, *child.ParentID)
	assert.Equal(t, "Acero", *child.ParentName)
	assert.False(t, child.IsRoot())
}

func TestAddRootClearsParent(t *testing.T) {
	tree := NewCategoryTree()
	pid := 1
	tree.AddRoot(Category{ID: 3, ParentID: &pid})
	assert.True(t, tree.All[3].IsRoot())
}

func TestChildCategoriesFollowRootOrder(t *testing.T) {
	tree := NewCategoryTree()
	tree.AddRoot(Category{ID: 4, Name: "Plata"})
	tree.AddRoot(Category{ID: 3, Name: "Acero"})
	tree.AddChild(3, Category{ID: 14})
	tree.AddChild(4, Category{ID: 40})
	tree.AddChild(3, Category{ID: 13})

	var ids []int
	for _, c := range tree.ChildCategories() {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []int{40, 14, 13}, ids)
}

func TestProductAddCategoriesIsSortedSet(t *testing.T) {
	p := Product{ID: 1}
	p.AddCategories(14, 3)
	p.AddCategories(13, 3, 14)

	assert.Equal(t, []int{3, 13, 14}, p.CategoryIDs)
	assert.True(t, p.HasCategory(13))
	assert.False(t, p.HasCategory(99))
}

func TestSnapshotHelpers(t *testing.T) {
	var s Snapshot
	s.Normalize()
	assert.NotNil(t, s.Products)
	assert.NotNil(t, s.ProductsByCategory)
	assert.NotNil(t, s.Categories.All)

	s.Categories.AddRoot(Category{ID: 3})
	s.Categories.AddChild(3, Category{ID: 14})
	s.Products = []Product{{ID: 5}, {ID: 101}, {ID: 42}}
	s.SortProducts()
	s.ComputeStats()

	assert.Equal(t, 101, s.Products[0].ID)
	assert.Equal(t, 5, s.Products[2].ID)
	assert.Equal(t, Stats{TotalProducts: 3, TotalCategories: 2, RootCategoryCount: 1}, s.Stats)

	p, ok := s.Product(42)
	assert.True(t, ok)
	assert.Equal(t, 42, p.ID)
	_, ok = s.Product(7)
	assert.False(t, ok)
}

func TestProductPriceIsJSONNumber(t *testing.T) {
	raw, err := json.Marshal(Product{ID: 1, Price: decimal.RequireFromString("1234.56")})
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"price":1234.56`)

	var quoted Product
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"price":"25.50"}`), &quoted))
	assert.True(t, decimal.RequireFromString("25.5").Equal(quoted.Price), "older quoted prices still load")
}
