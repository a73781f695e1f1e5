package cmd

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"test-manifest/core/loader"
	"test-manifest/core/logger"
	mf "test-manifest/core/manifest"
	"test-manifest/core/middleware/auth"
	"test-manifest/core/middleware/rayid"

	"test-manifest/feature/integrity"
	manifestfeature "test-manifest/feature/manifest"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "test-manifest/docs/swagger"
)

// @title Test Manifest API
// @version 1.0
// @description API for building and querying the test manifest.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the test manifest server",
	Long:  `Starts the HTTP server and initializes all enabled features.`,
	Run: func(cmd *cobra.Command, args []string) {
		// 1. Configuration, logger, storage, optional database and manifest service
		rt, err := newRuntime(true, nil)
		if err != nil {
			log.Fatalf("Failed to initialize: %v", err)
		}
		logg := rt.logger
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		// 2. Initialize Fiber App
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
		})

		// 3. Initialize Feature Loader
		mgr := loader.NewManager()
		mgr.Register(manifestfeature.NewFeature(rt.manifest))
		mgr.Register(integrity.NewFeature(integrity.Options{
			Verifier: rt.manifest,
			Location: rt.manifest.Location(),
			Client:   rt.client,
			Bucket:   rt.cfg.Storage.Bucket,
			Object:   objectName(rt),
			DB:       rt.db,
			Logger:   logg,
		}))

		// Middleware Registration
		// 1. RayID (Must be first to trace everything)
		app.Use(rayid.New())

		// 2. Request logging with the ray id attached
		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		// 3. Swagger Documentation (Public)
		app.Get("/swagger/*", swagger.HandlerDefault)

		// 4. Auth protects everything registered after it
		app.Use(auth.New(auth.Config{ApiKey: rt.cfg.Server.ApiKey}))
		if !rt.cfg.Server.AuthEnabled() {
			logg.Warn("API key is empty, authentication is disabled")
		}

		// 5. Load Features
		if err := mgr.LoadAll(app); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}

		// 6. Start Server
		go func() {
			logg.Info("Starting server",
				zap.String("port", rt.cfg.Server.Port),
				zap.String("manifest", rt.manifest.Location()),
			)
			if err := app.Listen(rt.cfg.Server.Address()); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// 7. Graceful Shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		_ = app.Shutdown()
	},
}

// objectName is the object the storage check requires, set only when the
// manifest is kept in object storage.
func objectName(rt *runtime) string {
	if rt.cfg.Manifest.Backend == mf.BackendObject {
		return rt.cfg.Manifest.Object
	}
	return ""
}

func init() {
	RootCmd.AddCommand(startCmd)
}
