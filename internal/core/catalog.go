package core

// Catalog holds the configured category set with O(1) lookup by key.
// The first configured category acts as the implicit default.
type Catalog struct {
	ordered []Category
	byKey   map[string]Category
}

// DefaultCategory is the synthetic fallback used when configuration
// supplies no categories at all. The catalog is guaranteed non-empty.
var DefaultCategory = Category{
	Key:   "default",
	Label: "Pembayaran",
	Sheet: "Transaksi",
}

// NewCatalog builds a catalog from the configured categories, preserving
// order. Entries with an empty key are dropped; an empty label falls back
// to the key. When nothing valid remains the catalog contains only
// DefaultCategory.
func NewCatalog(categories []Category) *Catalog {
	c := &Catalog{byKey: make(map[string]Category, len(categories))}
	for _, cat := range categories {
		if cat.Key == "" {
			continue
		}
		if cat.Label == "" {
			cat.Label = cat.Key
		}
		if cat.Sheet == "" {
			cat.Sheet = DefaultCategory.Sheet
		}
		if _, dup := c.byKey[cat.Key]; dup {
			continue
		}
		c.byKey[cat.Key] = cat
		c.ordered = append(c.ordered, cat)
	}
	if len(c.ordered) == 0 {
		c.byKey[DefaultCategory.Key] = DefaultCategory
		c.ordered = append(c.ordered, DefaultCategory)
	}
	return c
}

// Resolve returns the category for key, or the first configured category
// when the key is unknown or empty.
func (c *Catalog) Resolve(key string) Category {
	if cat, ok := c.byKey[key]; ok {
		return cat
	}
	return c.ordered[0]
}

// Has reports whether key names a configured category.
func (c *Catalog) Has(key string) bool {
	_, ok := c.byKey[key]
	return ok
}

// Categories returns the configured categories in order.
func (c *Catalog) Categories() []Category {
	out := make([]Category, len(c.ordered))
	copy(out, c.ordered)
	return out
}
