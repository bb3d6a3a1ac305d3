package domain

// Category is one node of the two-level storefront category tree.
type Category struct {
	ID         int     `json:"id"`
	Name       string  `json:"name"`
	URL        string  `json:"url"`
	ParentID   *int    `json:"parent_id"`
	ParentName *string `json:"parent_name"`
}

// IsRoot reports whether the category has no parent.
func (c Category) IsRoot() bool {
	return c.ParentID == nil
}

// CategoryTree holds the resolved hierarchy. Roots and Children keep discovery order.
type CategoryTree struct {
	Roots    []Category         `json:"roots"`
	Children map[int][]Category `json:"children"`
	All      map[int]Category   `json:"all"`
}

// NewCategoryTree returns an empty tree with initialized maps.
func NewCategoryTree() CategoryTree {
	return CategoryTree{
		Roots:    []Category{},
		Children: map[int][]Category{},
		All:      map[int]Category{},
	}
}

// AddRoot registers a root category. Duplicate ids are ignored (first occurrence wins).
func (t *CategoryTree) AddRoot(c Category) bool {
	if _, exists := t.All[c.ID]; exists {
		return false
	}
	c.ParentID = nil
	c.ParentName = nil
	t.Roots = append(t.Roots, c)
	t.All[c.ID] = c
	return true
}

// AddChild registers c under the root with id parentID. The root must already exist.
func (t *CategoryTree) AddChild(parentID int, c Category) bool {
	if _, exists := t.All[c.ID]; exists {
		return false
	}
	parent, ok := t.All[parentID]
	if !ok || !parent.IsRoot() {
		return false
	}
	pid := parentID
	pname := parent.Name
	c.ParentID = &pid
	c.ParentName = &pname
	t.Children[parentID] = append(t.Children[parentID], c)
	t.All[c.ID] = c
	return true
}

// ChildCategories returns every child category in root order, then discovery order.
func (t CategoryTree) ChildCategories() []Category {
	var out []Category
	for _, root := range t.Roots {
		out = append(out, t.Children[root.ID]...)
	}
	return out
}
