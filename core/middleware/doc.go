// Package middleware groups the Fiber middleware shared by all features.
//
// Subpackages:
//   - rayid: tags each request with an X-Ray-ID, reusing the caller's id when
//     present, so log lines of one request can be correlated.
//   - auth: rejects requests without the configured X-API-Key. An empty key
//     turns the check off.
//
// Register rayid first; auth goes after the public routes (swagger) and
// before the features.
package middleware
