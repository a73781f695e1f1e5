package manifest

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestApp(t *testing.T) (*fiber.App, *fixture) {
	t.Helper()
	f := newFixture(t)
	app := fiber.New()
	feature := NewFeature(f.service)
	require.NoError(t, feature.Load(app))
	return app, f
}

func doRequest(t *testing.T, app *fiber.App, method, target string) (int, []byte) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(method, target, nil), 5000)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestHandleUpdateAndSummary(t *testing.T) {
	app, _ := setupTestApp(t)

	status, body := doRequest(t, app, fiber.MethodPost, "/manifest/update")
	require.Equal(t, fiber.StatusOK, status)
	var result UpdateResult
	require.NoError(t, json.Unmarshal(body, &result))
	assert.True(t, result.Changed)
	assert.True(t, result.Written)

	status, body = doRequest(t, app, fiber.MethodPost, "/manifest/update?write=false")
	require.Equal(t, fiber.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &result))
	assert.False(t, result.Changed)

	status, body = doRequest(t, app, fiber.MethodGet, "/manifest")
	require.Equal(t, fiber.StatusOK, status)
	var summary Summary
	require.NoError(t, json.Unmarshal(body, &summary))
	assert.Equal(t, 4, summary.Files)
	assert.Equal(t, "/", summary.URLBase)
}

func TestHandleQueries(t *testing.T) {
	app, f := setupTestApp(t)
	_, _, err := f.service.LoadAndUpdate(t.Context(), UpdateOptions{})
	require.NoError(t, err)

	tests := []struct {
		name   string
		target string
		status int
		want   string
	}{
		{"TypesAll", "/manifest/types", fiber.StatusOK, `"path":"css/a.html"`},
		{"TypesFiltered", "/manifest/types?kind=reftest", fiber.StatusOK, `"path":"css/r.html"`},
		{"TypesUnknown", "/manifest/types?kind=bogus", fiber.StatusBadRequest, `unknown kind`},
		{"Paths", "/manifest/paths?kind=support,testharness", fiber.StatusOK, `["css/a.html","css/ref.html","skip.yaml"]`},
		{"Path", "/manifest/path/css/a.html", fiber.StatusOK, `"url":"/css/a.html"`},
		{"PathMissing", "/manifest/path/css/nope.html", fiber.StatusNotFound, `path not in manifest`},
		{"Dir", "/manifest/dir/css", fiber.StatusOK, `"path":"css/ref.html"`},
		{"DirEmpty", "/manifest/dir/nope", fiber.StatusOK, `[]`},
		{"Reference", "/manifest/reference?url=/css/r.html", fiber.StatusOK, `"type":"reftest"`},
		{"ReferenceMissing", "/manifest/reference?url=/css/a.html", fiber.StatusNotFound, `reference not in manifest`},
		{"ReferenceNoURL", "/manifest/reference", fiber.StatusBadRequest, `url is required`},
		{"SkipPath", "/manifest/skip?path=css/skipped/x.html", fiber.StatusOK, `"skipped":true`},
		{"SkipEntire", "/manifest/skip?path=css&entire=true", fiber.StatusOK, `"skipped":false`},
		{"SkipURL", "/manifest/skip?url=/css/a.html", fiber.StatusOK, `"skipped":false`},
		{"SkipBadURL", "/manifest/skip?url=css/a.html", fiber.StatusBadRequest, `does not start with /`},
		{"SkipNothing", "/manifest/skip", fiber.StatusBadRequest, `path or url is required`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := doRequest(t, app, fiber.MethodGet, tt.target)
			assert.Equal(t, tt.status, status)
			assert.Contains(t, string(body), tt.want)
		})
	}
}

func TestFeature(t *testing.T) {
	f := newFixture(t)
	feature := NewFeature(f.service)

	assert.Equal(t, "manifest", feature.Name())
	assert.True(t, feature.IsEnabled())
	assert.Same(t, f.service, feature.Service())
	assert.False(t, NewFeature(nil).IsEnabled())
}
