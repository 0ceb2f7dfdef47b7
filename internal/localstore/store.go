// Package localstore keeps a device's collection state: one document per
// (owner, mode) pair, rewritten in full on every change. Documents written
// by older clients keyed items by name; Load migrates them to id keys once
// and persists the result.
//
// Independent clients sharing the same storage are not coordinated. When two
// of them persist the same (owner, mode) the later write wins and the earlier
// one is lost.
package localstore

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/mesh-intelligence/indexkeeper/internal/logger"
	"github.com/mesh-intelligence/indexkeeper/internal/migrate"
	"github.com/mesh-intelligence/indexkeeper/pkg/types"
)

// AnonymousOwner is the owner key used when no identity is available.
const AnonymousOwner = ""

// Store reads and writes collection entries through a KV.
type Store struct {
	kv    KV
	names migrate.NameResolver
	log   *logger.Logger
}

// New returns a Store. names is the catalog lookup used to migrate legacy
// documents; log may be nil.
func New(kv KV, names migrate.NameResolver, log *logger.Logger) *Store {
	return &Store{kv: kv, names: names, log: logger.OrNop(log)}
}

// StorageKey returns the KV key for (ownerKey, mode): the bare mode name for
// the anonymous owner, "<mode>_<ownerKey>" otherwise.
func StorageKey(ownerKey string, mode types.Mode) string {
	if ownerKey == AnonymousOwner {
		return string(mode)
	}
	return string(mode) + "_" + ownerKey
}

// Load returns the entry stored for (ownerKey, mode), or an empty entry when
// nothing is stored. A legacy name-keyed document is migrated and the
// migrated form is persisted before Load returns.
func (s *Store) Load(ownerKey string, mode types.Mode) (types.CollectionEntry, error) {
	key := StorageKey(ownerKey, mode)
	data, ok, err := s.kv.Get(key)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", key, err)
	}
	if !ok {
		return types.CollectionEntry{}, nil
	}

	var raw types.CollectionEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrFormat, key, err)
	}
	if raw == nil {
		raw = types.CollectionEntry{}
	}

	entry, schema := migrate.Migrate(raw, s.names)
	if schema == migrate.SchemaLegacy {
		if err := s.Persist(ownerKey, mode, entry); err != nil {
			return nil, fmt.Errorf("persisting migrated %s: %w", key, err)
		}
		s.log.Info("migrated legacy collection entry",
			"key", key, "legacy_keys", len(raw), "kept", len(entry))
	}
	return entry, nil
}

// Persist replaces the stored document for (ownerKey, mode) with entry.
func (s *Store) Persist(ownerKey string, mode types.Mode, entry types.CollectionEntry) error {
	data, err := json.Marshal(entry.Normalize())
	if err != nil {
		return fmt.Errorf("encoding entry: %w", err)
	}
	key := StorageKey(ownerKey, mode)
	if err := s.kv.Put(key, data); err != nil {
		return fmt.Errorf("persisting %s: %w", key, err)
	}
	return nil
}

// LoadState loads both modes for ownerKey.
func (s *Store) LoadState(ownerKey string) (types.CollectionState, error) {
	index, err := s.Load(ownerKey, types.ModeIndex)
	if err != nil {
		return types.CollectionState{}, err
	}
	trading, err := s.Load(ownerKey, types.ModeTrading)
	if err != nil {
		return types.CollectionState{}, err
	}
	return types.CollectionState{Index: index, Trading: trading}, nil
}

// Replace overwrites both modes for ownerKey with state. Nothing is merged.
func (s *Store) Replace(ownerKey string, state types.CollectionState) error {
	if err := s.Persist(ownerKey, types.ModeIndex, state.Index); err != nil {
		return err
	}
	return s.Persist(ownerKey, types.ModeTrading, state.Trading)
}

// Toggle returns a copy of entry with variant added to the item's set if it
// was absent, or removed if it was present. A set emptied by the toggle is
// dropped, so toggling twice restores the original entry. entry is not
// modified.
func Toggle(entry types.CollectionEntry, itemID int, variant types.Variant) types.CollectionEntry {
	out := entry.Clone()
	if out == nil {
		out = types.CollectionEntry{}
	}
	key := types.ItemKey(itemID)
	set := out[key]
	if slices.Contains(set, variant) {
		set = slices.DeleteFunc(set, func(v types.Variant) bool { return v == variant })
	} else {
		set = append(set, variant)
	}
	set = types.NormalizeSet(set)
	if len(set) == 0 {
		delete(out, key)
		return out
	}
	out[key] = set
	return out
}
