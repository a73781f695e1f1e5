package manifest

import (
	"errors"
	"strings"

	"test-manifest/core/logger"
	mf "test-manifest/core/manifest"
	"test-manifest/core/skiptrie"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for the manifest.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the manifest routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/manifest")
	group.Get("/", h.HandleSummary)
	group.Post("/update", h.HandleUpdate)
	group.Get("/types", h.HandleTypes)
	group.Get("/paths", h.HandlePaths)
	group.Get("/path/*", h.HandlePath)
	group.Get("/dir/*", h.HandleDir)
	group.Get("/reference", h.HandleReference)
	group.Get("/skip", h.HandleSkip)
}

// HandleSummary reports the current manifest.
// @Summary Manifest Summary
// @Description Returns the manifest location, url base, file count and the number of indexed paths per kind.
// @Tags manifest
// @Produce json
// @Success 200 {object} Summary
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /manifest [get]
func (h *Handler) HandleSummary(c *fiber.Ctx) error {
	summary, err := h.service.Summary(c.Context())
	if err != nil {
		return h.fail(c, "Manifest summary failed", err)
	}
	return c.JSON(summary)
}

// HandleUpdate brings the manifest up to date with the tests root.
// @Summary Update Manifest
// @Description Walks the tests root, updates the manifest and persists it when it changed.
// @Tags manifest
// @Produce json
// @Param rebuild query boolean false "Ignore the stored manifest and rebuild"
// @Param write query boolean false "Persist the result (default true)"
// @Success 200 {object} UpdateResult
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /manifest/update [post]
func (h *Handler) HandleUpdate(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	l.Info("Triggering manifest update")

	opts := UpdateOptions{
		Rebuild: c.QueryBool("rebuild", false),
		NoWrite: !c.QueryBool("write", true),
	}
	_, result, err := h.service.LoadAndUpdate(c.Context(), opts)
	if err != nil {
		return h.fail(c, "Manifest update failed", err)
	}
	return c.JSON(result)
}

// HandleTypes lists entries by kind.
// @Summary Entries By Kind
// @Description Returns every (kind, path, items) entry of the given kinds, or of all kinds.
// @Tags manifest
// @Produce json
// @Param kind query string false "Comma separated kinds"
// @Success 200 {array} manifest.Entry
// @Failure 400 {object} map[string]string "Unknown kind"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /manifest/types [get]
func (h *Handler) HandleTypes(c *fiber.Ctx) error {
	entries, err := h.service.Types(c.Context(), parseKinds(c.Query("kind"))...)
	if err != nil {
		return h.fail(c, "Manifest type query failed", err)
	}
	return c.JSON(nonNil(entries))
}

// HandlePaths lists indexed paths by kind.
// @Summary Paths By Kind
// @Description Returns the distinct paths indexed under the given kinds without materializing items.
// @Tags manifest
// @Produce json
// @Param kind query string false "Comma separated kinds"
// @Success 200 {array} string
// @Failure 400 {object} map[string]string "Unknown kind"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /manifest/paths [get]
func (h *Handler) HandlePaths(c *fiber.Ctx) error {
	paths, err := h.service.Paths(c.Context(), parseKinds(c.Query("kind"))...)
	if err != nil {
		return h.fail(c, "Manifest paths query failed", err)
	}
	return c.JSON(nonNil(paths))
}

// HandlePath returns the items of one file.
// @Summary Items At Path
// @Description Returns the items recorded for a file relative to the tests root.
// @Tags manifest
// @Produce json
// @Param path path string true "File path"
// @Success 200 {array} manifest.Item
// @Failure 404 {object} map[string]string "Not Found"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /manifest/path/{path} [get]
func (h *Handler) HandlePath(c *fiber.Ctx) error {
	items, err := h.service.ItemsAt(c.Context(), mf.ParsePath(c.Params("*")))
	if err != nil {
		return h.fail(c, "Manifest path query failed", err)
	}
	if len(items) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "path not in manifest"})
	}
	return c.JSON(items)
}

// HandleDir returns every entry below a directory.
// @Summary Entries Below Directory
// @Description Returns every (kind, path, items) entry whose path lies below the directory.
// @Tags manifest
// @Produce json
// @Param dir path string true "Directory path"
// @Success 200 {array} manifest.Entry
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /manifest/dir/{dir} [get]
func (h *Handler) HandleDir(c *fiber.Ctx) error {
	entries, err := h.service.Dir(c.Context(), mf.ParsePath(c.Params("*")))
	if err != nil {
		return h.fail(c, "Manifest dir query failed", err)
	}
	return c.JSON(nonNil(entries))
}

// HandleReference resolves a comparison URL.
// @Summary Resolve Reference
// @Description Returns the reftest or reftest node item served at the URL.
// @Tags manifest
// @Produce json
// @Param url query string true "Test URL"
// @Success 200 {object} manifest.Item
// @Failure 400 {object} map[string]string "Missing url"
// @Failure 404 {object} map[string]string "Not Found"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /manifest/reference [get]
func (h *Handler) HandleReference(c *fiber.Ctx) error {
	u := c.Query("url")
	if u == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "url is required"})
	}
	item, found, err := h.service.Reference(c.Context(), u)
	if err != nil {
		return h.fail(c, "Reference lookup failed", err)
	}
	if !found {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "reference not in manifest"})
	}
	return c.JSON(item)
}

// HandleSkip evaluates the skip configuration.
// @Summary Skip Verdict
// @Description Reports whether a path, a whole directory or a test URL is skipped by the configured skip file.
// @Tags manifest
// @Produce json
// @Param path query string false "Path relative to the tests root"
// @Param url query string false "Test URL"
// @Param entire query boolean false "Require the whole subtree below path to be skipped"
// @Success 200 {object} SkipVerdict
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /manifest/skip [get]
func (h *Handler) HandleSkip(c *fiber.Ctx) error {
	var (
		verdict SkipVerdict
		err     error
	)
	switch {
	case c.Query("url") != "":
		verdict, err = h.service.IsSkippedURL(c.Query("url"))
	case c.Query("path") != "":
		verdict, err = h.service.IsSkippedPath(c.Query("path"), c.QueryBool("entire", false))
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "path or url is required"})
	}
	if err != nil {
		return h.fail(c, "Skip check failed", err)
	}
	return c.JSON(verdict)
}

// fail logs err and maps it to a status code.
func (h *Handler) fail(c *fiber.Ctx, msg string, err error) error {
	status := statusFor(err)
	l := logger.WithRayID(h.service.logger, c)
	if status >= fiber.StatusInternalServerError {
		l.Error(msg, zap.Error(err))
	} else {
		l.Warn(msg, zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, mf.ErrPrecondition), errors.Is(err, skiptrie.ErrPrecondition):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// parseKinds splits a comma separated kind list. Unknown names are kept so
// the store rejects them.
func parseKinds(raw string) []mf.Kind {
	var kinds []mf.Kind
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			kinds = append(kinds, mf.Kind(part))
		}
	}
	return kinds
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
