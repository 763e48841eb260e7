package models

import "errors"

// Resolution error taxonomy
// Components wrap the underlying cause, callers match with errors.Is
var (
	// ErrInvalidInput means the input did not normalize to exactly 8 digits
	ErrInvalidInput = errors.New("invalid postal code")

	// ErrNotFound means the code is well formed but has no address upstream
	ErrNotFound = errors.New("postal code not found")

	// ErrTransport means the upstream service was unreachable or returned malformed data
	ErrTransport = errors.New("address service unavailable")

	// ErrStorage means the record store failed
	ErrStorage = errors.New("storage failure")
)
