package loader

import (
	"errors"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFeature struct {
	name    string
	enabled bool
	err     error
	loaded  *[]string
}

func (f fakeFeature) Name() string    { return f.name }
func (f fakeFeature) IsEnabled() bool { return f.enabled }
func (f fakeFeature) Load(fiber.Router) error {
	*f.loaded = append(*f.loaded, f.name)
	return f.err
}

func TestManager_LoadAll(t *testing.T) {
	var loaded []string
	mgr := NewManager()
	mgr.Register(fakeFeature{name: "manifest", enabled: true, loaded: &loaded})
	mgr.Register(fakeFeature{name: "disabled", enabled: false, loaded: &loaded})
	mgr.Register(fakeFeature{name: "integrity", enabled: true, loaded: &loaded})

	require.NoError(t, mgr.LoadAll(fiber.New()))
	assert.Equal(t, []string{"manifest", "integrity"}, loaded)
	assert.Len(t, mgr.Features(), 3)
}

func TestManager_LoadAllStopsOnError(t *testing.T) {
	var loaded []string
	boom := errors.New("boom")
	mgr := NewManager()
	mgr.Register(fakeFeature{name: "broken", enabled: true, err: boom, loaded: &loaded})
	mgr.Register(fakeFeature{name: "after", enabled: true, loaded: &loaded})

	err := mgr.LoadAll(fiber.New())
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "broken")
	assert.Equal(t, []string{"broken"}, loaded)
}
