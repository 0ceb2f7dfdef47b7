// Package migrate converts persisted collection entries from the legacy
// name-keyed form to the current id-keyed form. The conversion is one-way:
// nothing here produces name-keyed data.
//
// Keys that are already item ids survive a legacy migration and share their
// set with any name that resolves to the same id. Only name keys that no
// longer resolve are dropped.
package migrate

import (
	"github.com/mesh-intelligence/indexkeeper/pkg/types"
)

// Schema identifies the shape of a persisted entry.
type Schema int

const (
	// SchemaCurrent entries are keyed by decimal item id.
	SchemaCurrent Schema = iota
	// SchemaLegacy entries have at least one key that is not an item id,
	// normally an item name.
	SchemaLegacy
)

func (s Schema) String() string {
	if s == SchemaLegacy {
		return "legacy"
	}
	return "current"
}

// NameResolver maps an item name to its id. catalog.NameIndex implements it.
type NameResolver interface {
	Resolve(name string) (int, bool)
}

// Detect reports SchemaCurrent when every key of raw is an item id.
func Detect(raw types.CollectionEntry) Schema {
	for k := range raw {
		if !types.IsItemKey(k) {
			return SchemaLegacy
		}
	}
	return SchemaCurrent
}

// Migrate returns raw in current form along with the schema it was detected
// as. Current input is returned as is. For legacy input every name key is
// resolved through names and its variants are written under the id; names
// that no longer resolve are dropped. Keys already in id form are kept.
// When a name and an id key land on the same item their sets are merged.
func Migrate(raw types.CollectionEntry, names NameResolver) (types.CollectionEntry, Schema) {
	if Detect(raw) == SchemaCurrent {
		return raw, SchemaCurrent
	}
	out := make(types.CollectionEntry, len(raw))
	for k, variants := range raw {
		key := k
		if !types.IsItemKey(k) {
			id, ok := names.Resolve(k)
			if !ok {
				continue
			}
			key = types.ItemKey(id)
		}
		out[key] = append(out[key], variants...)
	}
	return out.Normalize(), SchemaLegacy
}
