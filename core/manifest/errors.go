package manifest

import "errors"

var (
	// ErrVersionMismatch means a persisted document was written by a different format
	// version. Callers rebuild from scratch; documents are never migrated.
	ErrVersionMismatch = errors.New("manifest version mismatch")

	// ErrFormat means a persisted document is structurally invalid.
	ErrFormat = errors.New("invalid manifest format")

	// ErrPrecondition means a collaborator broke its contract, for example an
	// unchanged observation for a path the manifest has never seen.
	ErrPrecondition = errors.New("manifest precondition violated")

	// ErrUnavailable means no persisted document could be read. It is treated as
	// "no prior manifest".
	ErrUnavailable = errors.New("manifest unavailable")
)
