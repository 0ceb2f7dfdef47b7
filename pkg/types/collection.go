package types

import (
	"regexp"
	"slices"
	"strconv"
)

// Mode selects which of the two parallel entries a mutation applies to.
type Mode string

// Collection modes.
const (
	ModeIndex   Mode = "index"   // owned
	ModeTrading Mode = "trading" // offerable
)

// Modes lists both modes in storage order.
var Modes = []Mode{ModeIndex, ModeTrading}

// ParseMode accepts "index" or "trading" and returns ErrUnknownMode otherwise.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeIndex, ModeTrading:
		return Mode(s), nil
	}
	return "", ErrUnknownMode
}

var itemKeyPattern = regexp.MustCompile(`^\d+$`)

// IsItemKey reports whether key is in the current numeric-id form.
func IsItemKey(key string) bool {
	return itemKeyPattern.MatchString(key)
}

// ItemKey returns the entry key for an item id.
func ItemKey(id int) string {
	return strconv.Itoa(id)
}

// CollectionEntry maps an item key to the variants collected or held for
// that item under one mode. Sets carry no duplicates; order is irrelevant.
type CollectionEntry map[string][]Variant

// Has reports whether the entry marks variant v for the item key.
func (e CollectionEntry) Has(key string, v Variant) bool {
	return slices.Contains(e[key], v)
}

// Clone returns a deep copy of e. The clone of a nil entry is nil.
func (e CollectionEntry) Clone() CollectionEntry {
	if e == nil {
		return nil
	}
	out := make(CollectionEntry, len(e))
	for k, vs := range e {
		out[k] = slices.Clone(vs)
	}
	return out
}

// Normalize returns a copy with every set deduplicated and sorted
// canonically, and with empty sets removed. A nil entry normalises to an
// empty, non-nil entry.
func (e CollectionEntry) Normalize() CollectionEntry {
	out := make(CollectionEntry, len(e))
	for k, vs := range e {
		set := NormalizeSet(vs)
		if len(set) == 0 {
			continue
		}
		out[k] = set
	}
	return out
}

// Equal compares two entries as maps of sets. Absent keys and empty sets are
// equivalent.
func (e CollectionEntry) Equal(other CollectionEntry) bool {
	a, b := e.Normalize(), other.Normalize()
	if len(a) != len(b) {
		return false
	}
	for k, vs := range a {
		if !slices.Equal(vs, b[k]) {
			return false
		}
	}
	return true
}

// NormalizeSet returns a sorted, deduplicated copy of vs, or nil when vs is
// empty.
func NormalizeSet(vs []Variant) []Variant {
	if len(vs) == 0 {
		return nil
	}
	set := slices.Clone(vs)
	slices.SortFunc(set, compareVariants)
	return slices.Compact(set)
}

// CollectionState is the pair of entries held for one owner.
type CollectionState struct {
	Index   CollectionEntry `json:"index"`
	Trading CollectionEntry `json:"trading"`
}

// Entry returns the entry for mode.
func (s CollectionState) Entry(mode Mode) CollectionEntry {
	if mode == ModeTrading {
		return s.Trading
	}
	return s.Index
}

// Equal compares both entries with CollectionEntry.Equal.
func (s CollectionState) Equal(other CollectionState) bool {
	return s.Index.Equal(other.Index) && s.Trading.Equal(other.Trading)
}
