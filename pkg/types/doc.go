// Package types defines the collection-state model shared by the local store,
// the sync codec, the record store and the share client: catalog items,
// variants, collection entries, user records, configuration, and the standard
// error values every layer wraps.
package types
