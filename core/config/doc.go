// Package config provides configuration management for the test manifest service.
//
// It utilizes Viper for loading configuration from an optional
// test-manifest.yaml, an optional .env file and environment variables.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Server: HTTP server settings (port, API key)
//   - Manifest: tests root, URL base, persistence backend and caches
//   - Database: MySQL or SQLite connection details for the database backend
//   - Storage: S3/MinIO credentials and bucket for the object backend
//   - Log: Logging level, format and optional rotated file
//
// Environment variables map to nested keys by replacing dots with
// underscores, e.g. MANIFEST_TESTS_ROOT sets manifest.tests_root. The YAML
// file uses the same nested keys and is overridden by the environment.
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Manifest.TestsRoot)
package config
