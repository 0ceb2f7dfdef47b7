package types

import (
	"fmt"
	"strings"
	"time"
)

// Placeholders stored when a share omits the display fields.
const (
	DefaultDisplayName = "Unknown"
	DefaultAvatarRef   = "default"
)

// UserRecord is the server-side snapshot for one owner. A write replaces the
// whole record; UpdatedAt strictly increases with every accepted write.
type UserRecord struct {
	OwnerID      string          `json:"ownerId"`
	DisplayName  string          `json:"displayName"`
	AvatarRef    string          `json:"avatarRef"`
	IndexEntry   CollectionEntry `json:"indexEntry"`
	TradingEntry CollectionEntry `json:"tradingEntry"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// ShareRequest is the write payload accepted by the record store. Nil
// entries mean the field was absent.
type ShareRequest struct {
	OwnerID      string          `json:"ownerId"`
	DisplayName  string          `json:"displayName,omitempty"`
	AvatarRef    string          `json:"avatarRef,omitempty"`
	IndexEntry   CollectionEntry `json:"indexEntry"`
	TradingEntry CollectionEntry `json:"tradingEntry"`
}

// Validate returns ErrValidation naming the first missing required field.
// An owner id must be non-blank and carry no surrounding whitespace, so the
// id a record is stored under is exactly the id it is read back by.
func (r ShareRequest) Validate() error {
	switch {
	case strings.TrimSpace(r.OwnerID) == "":
		return fmt.Errorf("%w: ownerId is required", ErrValidation)
	case strings.TrimSpace(r.OwnerID) != r.OwnerID:
		return fmt.Errorf("%w: ownerId has surrounding whitespace", ErrValidation)
	case r.IndexEntry == nil:
		return fmt.Errorf("%w: indexEntry is required", ErrValidation)
	case r.TradingEntry == nil:
		return fmt.Errorf("%w: tradingEntry is required", ErrValidation)
	}
	return nil
}

// WithDefaults fills the display fields with placeholders when empty.
func (r ShareRequest) WithDefaults() ShareRequest {
	if r.DisplayName == "" {
		r.DisplayName = DefaultDisplayName
	}
	if r.AvatarRef == "" {
		r.AvatarRef = DefaultAvatarRef
	}
	return r
}
