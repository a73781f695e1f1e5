package integrity

import (
	"test-manifest/core/logger"
	"test-manifest/feature/integrity/checks"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for integrity checks.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	// Force import for Swagger
	var _ = checks.SchemaReport{}
	return &Handler{service: service}
}

// RegisterRoutes registers the integrity routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/integrity")
	group.Get("/", h.HandleIntegrityCheck)
	group.Get("/manifest", h.HandleManifestCheck)
	group.Get("/storage", h.HandleStorageCheck)
	group.Get("/schema", h.HandleSchemaCheck)
}

// HandleIntegrityCheck triggers all integrity checks.
// @Summary Run All Integrity Checks
// @Description Performs all available integrity checks (Manifest, Storage, Schema).
// @Tags integrity
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{} "Combined Report"
// @Router /integrity [get]
func (h *Handler) HandleIntegrityCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	l.Info("Triggering all integrity checks")

	ctx := c.Context()
	report := make(map[string]interface{})

	if mReport, err := h.service.CheckManifest(ctx); err != nil {
		report["manifest"] = map[string]interface{}{"status": "error", "error": err.Error()}
	} else {
		report["manifest"] = mReport
	}

	if sReport, err := h.service.CheckStorage(ctx); err != nil {
		report["storage"] = map[string]interface{}{"status": "error", "error": err.Error()}
	} else {
		report["storage"] = sReport
	}

	if dbReport, err := h.service.CheckSchema(); err != nil {
		report["schema"] = map[string]interface{}{"status": "error", "error": err.Error()}
	} else {
		report["schema"] = dbReport
	}

	return c.JSON(report)
}

// HandleManifestCheck verifies the manifest store.
// @Summary Check Manifest
// @Description Reports paths indexed under several kinds, entries without a file record and records whose kind disagrees with the index.
// @Tags integrity
// @Accept json
// @Produce json
// @Success 200 {object} ManifestReport "Manifest Report"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /integrity/manifest [get]
func (h *Handler) HandleManifestCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	report, err := h.service.CheckManifest(c.Context())
	if err != nil {
		l.Error("Manifest check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if !report.Matched {
		l.Warn("Manifest problems detected", zap.Int("problems", len(report.Problems)))
	}
	return c.JSON(report)
}

// HandleStorageCheck checks and optionally fixes the object store.
// @Summary Check Storage
// @Description Checks that the bucket exists and holds the manifest document. Optionally creates the bucket.
// @Tags integrity
// @Accept json
// @Produce json
// @Param fix query boolean false "Create the bucket when missing"
// @Success 200 {object} map[string]interface{} "Storage Report"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /integrity/storage [get]
func (h *Handler) HandleStorageCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	fix := c.Query("fix") == "true"

	report, err := h.service.CheckStorage(c.Context())
	if err != nil {
		l.Error("Storage check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	if !report.BucketExists && fix {
		l.Info("Attempting to create bucket", zap.String("bucket", report.Bucket))
		if err := h.service.FixStorage(c.Context()); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":   "Failed to create bucket",
				"details": err.Error(),
			})
		}
		return c.JSON(fiber.Map{
			"status": "fixed",
			"bucket": report.Bucket,
		})
	}

	return c.JSON(fiber.Map{
		"status": "checked",
		"report": report,
	})
}

// HandleSchemaCheck checks the manifest documents table.
// @Summary Check Schema
// @Description Checks that the manifest_documents table matches the expected columns.
// @Tags integrity
// @Accept json
// @Produce json
// @Success 200 {object} checks.SchemaReport "Schema Check Report"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /integrity/schema [get]
func (h *Handler) HandleSchemaCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	l.Info("Starting schema check")

	report, err := h.service.CheckSchema()
	if err != nil {
		l.Error("Schema check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(report)
}
