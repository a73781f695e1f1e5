package cmd

import (
	"fmt"

	"test-manifest/core/config"
	"test-manifest/core/database"
	"test-manifest/core/logger"
	mf "test-manifest/core/manifest"
	"test-manifest/core/persist"
	"test-manifest/core/storage"
	manifestfeature "test-manifest/feature/manifest"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// runtime bundles the dependencies shared by every command.
type runtime struct {
	cfg      *config.Config
	logger   *zap.Logger
	client   storage.Client
	db       *gorm.DB
	manifest *manifestfeature.Service
}

// newRuntime loads configuration and builds the manifest service. The
// database is connected when the manifest lives there or when withDB is set;
// in the latter case a failed connection only logs a warning.
func newRuntime(withDB bool, override func(*mf.Config)) (*runtime, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if override != nil {
		override(&cfg.Manifest)
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	rt := &runtime{cfg: cfg, logger: logg}

	rt.client, err = storage.NewClient(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	needDB := cfg.Manifest.Backend == mf.BackendDatabase
	if needDB || withDB {
		conn, err := database.Connect(cfg.Database)
		switch {
		case err != nil && needDB:
			return nil, fmt.Errorf("database connection required: %w", err)
		case err != nil:
			logg.Warn("Optional database connection failed", zap.Error(err))
		default:
			rt.db = conn
			logg.Info("Connected to database", zap.String("driver", cfg.Database.Driver))
		}
	}

	backend, err := manifestfeature.NewBackend(cfg.Manifest, rt.client, cfg.Storage.Bucket, rt.db)
	if err != nil {
		return nil, err
	}
	rt.manifest = manifestfeature.NewService(cfg.Manifest, backend, persist.NewCache(cfg.Manifest.CacheTTL()), logg)
	return rt, nil
}
