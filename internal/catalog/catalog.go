// Package catalog loads the equipment price list: one row per consumable with
// its unit cost and a per-scheme unit reimbursement.
package catalog

import (
	"fmt"

	"github.com/mrsinham/ircost/internal/tables"
	"github.com/shopspring/decimal"
)

// Item is one catalog row. Items are immutable once loaded.
type Item struct {
	Name          string
	Cost          decimal.Decimal
	Reimbursement map[tables.SchemeID]decimal.Decimal
}

// ReimbursementFor returns the unit reimbursement under a scheme.
func (it Item) ReimbursementFor(id tables.SchemeID) (decimal.Decimal, bool) {
	r, ok := it.Reimbursement[id]
	return r, ok
}

// Catalog is the loaded equipment list in file order.
type Catalog struct {
	items []Item
	index map[string]int
}

// New builds a catalog from items, rejecting duplicate names.
func New(items []Item) (*Catalog, error) {
	c := &Catalog{
		items: make([]Item, 0, len(items)),
		index: make(map[string]int, len(items)),
	}
	for _, it := range items {
		key := tables.NormalizeName(it.Name)
		if key == "" {
			return nil, fmt.Errorf("equipment name is required")
		}
		if _, dup := c.index[key]; dup {
			return nil, fmt.Errorf("duplicate equipment %q", it.Name)
		}
		c.index[key] = len(c.items)
		c.items = append(c.items, it)
	}
	return c, nil
}

// Items returns the items in file order. The slice must not be modified.
func (c *Catalog) Items() []Item { return c.items }

// Len returns the number of items.
func (c *Catalog) Len() int { return len(c.items) }

// Names returns item names in file order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.items))
	for i, it := range c.items {
		names[i] = it.Name
	}
	return names
}

// Lookup finds an item by name. Matching ignores case and surrounding spaces.
func (c *Catalog) Lookup(name string) (Item, bool) {
	i, ok := c.index[tables.NormalizeName(name)]
	if !ok {
		return Item{}, false
	}
	return c.items[i], true
}
