// Package persist stores manifest documents and caches loaded stores.
//
// # Backends
//
// A Backend holds exactly one serialized document:
//
//   - FileBackend: a local file, replaced atomically; Lock takes a gofrs/flock
//     lock on a sibling ".lock" file for single-writer updates.
//   - ObjectBackend: an object in a MinIO/S3 bucket.
//   - DatabaseBackend: a row of the manifest_documents table via GORM.
//
// Load, Write and LoadOrNew work against any backend. LoadOrNew turns a
// missing, outdated or corrupt document into an empty store to rebuild.
//
// # Cache
//
// Cache reuses loaded stores per backend location for a configurable TTL and
// collapses concurrent loads with singleflight. It is an explicit value owned
// by the caller.
package persist
