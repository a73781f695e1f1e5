// Package logger builds the zap logger used across the service.
//
// New accepts a Config with a level (debug, info, warn, error) and an
// encoding. "console" is meant for terminals; "json" is the default. Debug
// level uses zap's development settings.
//
// When File is set, entries are also written as JSON to that file, which
// lumberjack rotates by size (MaxSizeMB) and prunes by count and age.
//
// WithRayID returns a child logger carrying the request's ray id:
//
//	l := logger.WithRayID(log, c)
//	l.Error("Manifest update failed", zap.Error(err))
package logger
