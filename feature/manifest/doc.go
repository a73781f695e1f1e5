// Package manifest exposes the test manifest as a feature.
//
// Service ties the pieces together: it loads the stored document through the
// load cache, walks the tests root, updates the store and writes it back when
// something changed. Updates hold the backend lock when the backend offers
// one, and queries never run while an update is in progress.
//
// # Routes
//
//   - GET  /manifest            summary
//   - POST /manifest/update     load and update
//   - GET  /manifest/types      entries by kind
//   - GET  /manifest/paths      indexed paths by kind
//   - GET  /manifest/path/*     items of one file
//   - GET  /manifest/dir/*      entries below a directory
//   - GET  /manifest/reference  comparison item by URL
//   - GET  /manifest/skip       skip verdicts
package manifest
