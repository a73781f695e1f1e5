package rayid

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestApp() *fiber.App {
	app := fiber.New()
	app.Use(New())
	app.Get("/", func(c *fiber.Ctx) error {
		id, _ := c.Locals(LocalKey).(string)
		return c.SendString(id)
	})
	return app
}

func TestRayID_Generated(t *testing.T) {
	resp, err := setupTestApp().Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, err)

	id := resp.Header.Get(HeaderName)
	_, parseErr := uuid.Parse(id)
	assert.NoError(t, parseErr)
}

func TestRayID_Propagated(t *testing.T) {
	req := httptest.NewRequest(fiber.MethodGet, "/", nil)
	req.Header.Set(HeaderName, "upstream-id")

	resp, err := setupTestApp().Test(req)
	require.NoError(t, err)
	assert.Equal(t, "upstream-id", resp.Header.Get(HeaderName))
}
