// Package membership decides which catalog items are listed under each
// variant tab. Decisions depend only on an item's fixed sets and the tab,
// never on what the user has collected.
package membership

import (
	"strings"

	"github.com/mesh-intelligence/indexkeeper/pkg/types"
)

// Belongs reports whether item is listed under tab. Tabs other than Candy,
// Lava and Galaxy list every item. The set tabs are cumulative:
// Candy ⊆ Lava ⊆ Galaxy.
func Belongs(item types.Item, tab types.Variant) bool {
	switch tab {
	case types.VariantCandy:
		return item.InSet(types.VariantCandy)
	case types.VariantLava:
		return item.InSet(types.VariantCandy) || item.InSet(types.VariantLava)
	case types.VariantGalaxy:
		return item.InSet(types.VariantCandy) || item.InSet(types.VariantLava) || item.InSet(types.VariantGalaxy)
	default:
		return true
	}
}

// View returns the items listed under tab whose name contains search,
// case-insensitively, in input order. An empty search matches everything.
func View(items []types.Item, tab types.Variant, search string) []types.Item {
	needle := strings.ToLower(search)
	var out []types.Item
	for _, it := range items {
		if !Belongs(it, tab) {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(it.Name), needle) {
			continue
		}
		out = append(out, it)
	}
	return out
}

// Progress counts the items listed under tab and how many of them have tab
// marked in entry. Search filtering does not apply.
func Progress(items []types.Item, entry types.CollectionEntry, tab types.Variant) (collected, total int) {
	for _, it := range items {
		if !Belongs(it, tab) {
			continue
		}
		total++
		if entry.Has(types.ItemKey(it.ID), tab) {
			collected++
		}
	}
	return collected, total
}
