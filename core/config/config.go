package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"reflect"
	"strings"

	"test-manifest/core/database"
	"test-manifest/core/logger"
	"test-manifest/core/manifest"
	"test-manifest/core/server"
	"test-manifest/core/storage"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// FileName is the optional YAML config file looked up next to .env.
const FileName = "test-manifest.yaml"

// Config holds all configuration for the application.
// Each section is owned by the package that consumes it.
type Config struct {
	// Server holds configuration for the HTTP server.
	Server server.Config `mapstructure:"server"`
	// Manifest holds configuration for building and persisting the manifest.
	Manifest manifest.Config `mapstructure:"manifest"`
	// Storage holds configuration for the object storage (e.g., S3, Minio).
	Storage storage.Config `mapstructure:"storage"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Database holds configuration for the database connection.
	Database database.Config `mapstructure:"database"`
}

// LoadConfig loads configuration from the directory path. Sources, lowest
// precedence first: struct defaults, test-manifest.yaml, then .env and the
// process environment.
func LoadConfig(path string) (*Config, error) {
	// .env only fills the environment; a missing file is fine.
	_ = godotenv.Overload(filepath.Join(path, ".env"))

	v := viper.New()
	bindValues(v, Config{}, "")

	v.SetConfigFile(filepath.Join(path, FileName))
	if err := v.ReadInConfig(); err != nil && !isNotExist(err) {
		return nil, fmt.Errorf("failed to read %s: %w", FileName, err)
	}

	// SERVER_PORT -> server.port
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	if !config.Manifest.IsValidBackend() {
		return nil, fmt.Errorf("unsupported manifest backend: %s", config.Manifest.Backend)
	}

	return &config, nil
}

// isNotExist reports whether err means the config file is absent. SetConfigFile
// surfaces the raw os error rather than viper.ConfigFileNotFoundError.
func isNotExist(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
}

// bindValues walks the struct and registers every mapstructure key with its
// 'default' tag so AutomaticEnv can resolve it.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		// Registered even when empty, otherwise the env lookup never happens.
		v.SetDefault(key, field.Tag.Get("default"))
	}
}
