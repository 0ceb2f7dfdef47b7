// Package report renders the plain-text item lists users paste into trade
// chats: what they still need for a tab, what they already have, and what
// they can give away.
package report

import (
	"fmt"
	"strings"

	"github.com/mesh-intelligence/indexkeeper/internal/membership"
	"github.com/mesh-intelligence/indexkeeper/pkg/types"
)

// Kind selects which list to render.
type Kind string

const (
	KindMissing Kind = "missing" // listed under the tab, not in the index
	KindIndex   Kind = "index"   // in the index for the tab
	KindTrading Kind = "trading" // offered for the tab
)

// Kinds lists the valid report kinds.
var Kinds = []Kind{KindMissing, KindIndex, KindTrading}

// emptyLine is printed in place of the list when nothing matches.
const emptyLine = "No items found."

// ParseKind returns the kind named s.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown report kind %q", s)
}

func title(kind Kind, tab types.Variant) string {
	t := strings.ToUpper(string(tab))
	switch kind {
	case KindMissing:
		return fmt.Sprintf("🚀 **NEEDED FOR %s INDEX** 🚀", t)
	case KindIndex:
		return fmt.Sprintf("✅ **IN MY %s INDEX** ✅", t)
	default:
		return fmt.Sprintf("💰 **CAN GIVE FOR %s INDEX** 💰", t)
	}
}

// Render builds the list of kind for tab over items, which should already
// be filtered to what the user is looking at (see membership.View).
func Render(kind Kind, tab types.Variant, items []types.Item, state types.CollectionState) string {
	var b strings.Builder
	b.WriteString(title(kind, tab))
	b.WriteString("\n\n")

	n := 0
	for _, it := range items {
		if !membership.Belongs(it, tab) || !include(kind, tab, it, state) {
			continue
		}
		fmt.Fprintf(&b, "• **%s** (%s)\n", it.Name, it.Rarity.OrDefault())
		n++
	}
	if n == 0 {
		b.WriteString(emptyLine)
	}
	return b.String()
}

func include(kind Kind, tab types.Variant, it types.Item, state types.CollectionState) bool {
	key := types.ItemKey(it.ID)
	switch kind {
	case KindMissing:
		return !state.Index.Has(key, tab)
	case KindIndex:
		return state.Index.Has(key, tab)
	default:
		return state.Trading.Has(key, tab)
	}
}
