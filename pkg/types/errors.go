package types

import "errors"

// Collection-state errors. Callers wrap these with context and test with
// errors.Is.
var (
	// ErrFormat marks malformed import text or persisted data of the wrong shape.
	ErrFormat = errors.New("malformed collection data")
	// ErrValidation marks a share request missing a required field.
	ErrValidation = errors.New("invalid share request")
	// ErrNotFound marks a lookup by owner id with no record.
	ErrNotFound = errors.New("record not found")
	// ErrTransport marks a network or storage failure surfaced opaquely.
	ErrTransport = errors.New("transport failure")
)

// Parse errors for user-supplied names.
var (
	ErrUnknownVariant = errors.New("unknown variant")
	ErrUnknownMode    = errors.New("unknown mode")
	ErrUnknownItem    = errors.New("unknown item")
)
