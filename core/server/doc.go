// Package server holds the HTTP server configuration.
//
// While the start command handles the server startup, this package defines
// the configuration structure for the listen port and the API key.
//
// # Usage
//
// This package is primarily used by the core/config package to embed server
// settings and by the start command to build the listen address.
package server
