package manifest

import "time"

// Backend names accepted by Config.Backend.
const (
	BackendFile     = "file"
	BackendObject   = "object"
	BackendDatabase = "database"
)

// Config holds configuration for building and persisting the manifest.
type Config struct {
	// TestsRoot is the directory tree the manifest describes.
	TestsRoot string `mapstructure:"tests_root" default:"."`
	// URLBase is prefixed to every test URL.
	URLBase string `mapstructure:"url_base" default:"/"`
	// Backend selects where the document is persisted (file, object, database).
	Backend string `mapstructure:"backend" default:"file"`
	// Path is the document location for the file backend.
	Path string `mapstructure:"path" default:"MANIFEST.json"`
	// Object is the object name for the object backend.
	Object string `mapstructure:"object" default:"manifest/MANIFEST.json"`
	// Name is the document key for the database backend.
	Name string `mapstructure:"name" default:"default"`
	// MtimeCache is the file holding cached file mtimes. Empty disables it.
	MtimeCache string `mapstructure:"mtime_cache" default:""`
	// SkipFile is a YAML file of include/exclude patterns used by queries and the walker.
	SkipFile string `mapstructure:"skip_file" default:""`
	// CacheTTLSeconds is how long a loaded manifest is reused. Zero disables reuse.
	CacheTTLSeconds int `mapstructure:"cache_ttl_seconds" default:"0"`
	// Workers is the number of concurrent file hashers.
	Workers int `mapstructure:"workers" default:"8"`
}

// CacheTTL returns CacheTTLSeconds as a duration.
func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// IsValidBackend reports whether the configured backend is known.
func (c Config) IsValidBackend() bool {
	switch c.Backend {
	case BackendFile, BackendObject, BackendDatabase:
		return true
	default:
		return false
	}
}
