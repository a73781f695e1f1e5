// Package integrity provides health checks for the manifest and its storage.
//
// # Checks Provided
//
//   - Manifest: Verifies the store invariants (one kind per path, a file record
//     for every indexed path, matching record kinds).
//   - Storage: Checks that the bucket exists and holds the manifest document.
//   - Schema: Validates that the manifest_documents table has the expected columns and types.
//
// # HTTP Endpoints
//
//   - GET /integrity : Runs all checks.
//   - GET /integrity/manifest : Runs the manifest check.
//   - GET /integrity/storage : Runs the storage check (supports ?fix=true).
//   - GET /integrity/schema : Runs the schema check.
package integrity
