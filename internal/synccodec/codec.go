// Package synccodec serialises a full collection state for manual transfer
// between devices. The document is {"index": {...}, "trading": {...}}, each
// side mapping an item key to an array of variant names.
package synccodec

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/mesh-intelligence/indexkeeper/pkg/types"
)

// Snapshot field names.
const (
	fieldIndex   = "index"
	fieldTrading = "trading"
)

// Export renders index and trading as an indented snapshot document. Sets
// are normalised and keys sorted, so equal states export identically.
func Export(index, trading types.CollectionEntry) ([]byte, error) {
	doc := struct {
		Index   types.CollectionEntry `json:"index"`
		Trading types.CollectionEntry `json:"trading"`
	}{
		Index:   index.Normalize(),
		Trading: trading.Normalize(),
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// Import parses a snapshot document. It fails with types.ErrFormat unless the
// text is a JSON object whose index and trading fields are both objects
// mapping keys to arrays of strings. Other top-level fields are ignored.
func Import(text []byte) (types.CollectionState, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(text, &top); err != nil {
		return types.CollectionState{}, fmt.Errorf("%w: not a JSON object: %v", types.ErrFormat, err)
	}
	if top == nil {
		return types.CollectionState{}, fmt.Errorf("%w: not a JSON object", types.ErrFormat)
	}

	index, err := entryField(top, fieldIndex)
	if err != nil {
		return types.CollectionState{}, err
	}
	trading, err := entryField(top, fieldTrading)
	if err != nil {
		return types.CollectionState{}, err
	}
	return types.CollectionState{Index: index, Trading: trading}, nil
}

// entryField validates one side of the snapshot. Every value must be an
// array whose elements are all strings; null anywhere is rejected.
func entryField(top map[string]json.RawMessage, name string) (types.CollectionEntry, error) {
	raw, ok := top[name]
	if !ok {
		return nil, fmt.Errorf("%w: missing %q", types.ErrFormat, name)
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return nil, fmt.Errorf("%w: %q must be an object", types.ErrFormat, name)
	}

	entry := make(types.CollectionEntry, len(obj))
	for key, val := range obj {
		var elems []json.RawMessage
		if err := json.Unmarshal(val, &elems); err != nil || elems == nil {
			return nil, fmt.Errorf("%w: %s[%q] must be an array", types.ErrFormat, name, key)
		}
		variants := make([]types.Variant, 0, len(elems))
		for i, el := range elems {
			var s string
			if bytes.Equal(bytes.TrimSpace(el), []byte("null")) || json.Unmarshal(el, &s) != nil {
				return nil, fmt.Errorf("%w: %s[%q][%d] must be a string", types.ErrFormat, name, key, i)
			}
			variants = append(variants, types.Variant(s))
		}
		if set := types.NormalizeSet(variants); len(set) > 0 {
			entry[key] = set
		}
	}
	return entry, nil
}
