// Package manifest maintains an incrementally updated index of test items
// discovered in a source tree.
//
// The index is keyed by content hash so that unchanged files are never parsed
// again. A Store holds one TypeIndex per item kind plus a table mapping every
// known path to its (hash, kind) FileRecord.
//
// # Reconciliation
//
// Store.Update consumes a Tree of observations. Each observation either
// carries a SourceFile whose items are re-extracted when its hash changed, or
// declares the path unchanged. Paths that were indexed before but are not
// observed are deleted. The whole pass is planned before anything is
// written, so a failing extraction leaves the store untouched.
//
// # Comparison tests
//
// Reftests are split into roots (scheduled tests) and nodes (references cited
// by other reftests). Whenever the reference graph may have changed, the
// partition is recomputed over every comparison item seen in the pass and both
// comparison indices are replaced wholesale. See ResolveReferences.
//
// # Serialization
//
// Documents are JSON objects with "version", "url_base", "paths" and "items".
// Per-kind items are nested objects keyed by path segment. They are held in
// serialized form after loading and only turned into Item values when a path
// is materialized; iteration materializes everything.
//
// # Concurrency
//
// A Store must not be mutated concurrently. Queries may run concurrently with
// each other while no Update is in progress.
package manifest
