// Package database handles database connections and schema inspection.
//
// It wraps GORM to open MySQL or sqlite connections from the application's
// configuration. The manifest database backend stores documents through it.
//
// # Connect
//
// Connect opens the configured driver, tunes the connection pool and pings
// the database before returning.
//
// # Schema Inspection
//
// GetTableColumns and MissingColumns report the live columns of a table so the
// integrity check can compare the manifest_documents table against its model.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//
//	missing, err := database.MissingColumns(db, "manifest_documents", []string{"name", "content"})
package database
