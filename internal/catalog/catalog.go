// Package catalog loads the static item reference data. A Catalog is built
// once at startup and never mutated; everything it hands out is a copy or an
// immutable value.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/mesh-intelligence/indexkeeper/pkg/types"
)

// Catalog load errors.
var (
	ErrDuplicateID = errors.New("duplicate item id")
	ErrInvalidID   = errors.New("item id must be positive")
)

// rawItem is one value of the catalog document, keyed by item name.
type rawItem struct {
	ID        int      `json:"id"`
	Rarity    string   `json:"rarity"`
	Value     float64  `json:"wert"`
	Image     string   `json:"image"`
	FixedSets []string `json:"fixed_sets"`
}

// Catalog is the read-only set of known items.
type Catalog struct {
	items []types.Item
	byID  map[int]int
	names NameIndex
}

// Load reads a catalog document from path.
func Load(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes a catalog document: a JSON object mapping item name to
// {id, rarity, wert, image, fixed_sets}. Items are ordered by value, then
// name.
func Parse(r io.Reader) (*Catalog, error) {
	var doc map[string]rawItem
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}

	items := make([]types.Item, 0, len(doc))
	for name, raw := range doc {
		item := types.Item{
			ID:     raw.ID,
			Name:   name,
			Rarity: types.RarityTier(raw.Rarity).OrDefault(),
			Value:  raw.Value,
			Image:  raw.Image,
		}
		for _, s := range raw.FixedSets {
			item.FixedSets = append(item.FixedSets, types.SetTag(s))
		}
		items = append(items, item)
	}
	return New(items)
}

// New builds a catalog from items. Ids must be positive and unique.
func New(items []types.Item) (*Catalog, error) {
	c := &Catalog{
		items: slices.Clone(items),
		byID:  make(map[int]int, len(items)),
		names: make(NameIndex, len(items)),
	}
	slices.SortFunc(c.items, func(a, b types.Item) int {
		switch {
		case a.Value < b.Value:
			return -1
		case a.Value > b.Value:
			return 1
		}
		return strings.Compare(a.Name, b.Name)
	})
	for i, it := range c.items {
		if it.ID <= 0 {
			return nil, fmt.Errorf("%w: %q has id %d", ErrInvalidID, it.Name, it.ID)
		}
		if _, dup := c.byID[it.ID]; dup {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateID, it.ID)
		}
		c.byID[it.ID] = i
		c.names[it.Name] = it.ID
	}
	return c, nil
}

// Items returns the items in display order. The slice is a copy.
func (c *Catalog) Items() []types.Item {
	return slices.Clone(c.items)
}

// Len returns the number of items.
func (c *Catalog) Len() int { return len(c.items) }

// ByID returns the item with id.
func (c *Catalog) ByID(id int) (types.Item, bool) {
	i, ok := c.byID[id]
	if !ok {
		return types.Item{}, false
	}
	return c.items[i], true
}

// NameIndex returns the name to id lookup used by legacy migration.
func (c *Catalog) NameIndex() NameIndex {
	return c.names
}

// NameIndex maps an item name to its id. It is computed once from a catalog
// and only read afterwards.
type NameIndex map[string]int

// Resolve returns the id for name.
func (n NameIndex) Resolve(name string) (int, bool) {
	id, ok := n[name]
	return id, ok
}
