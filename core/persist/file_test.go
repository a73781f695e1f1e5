package persist

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"test-manifest/core/manifest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleStore(t *testing.T, urlBase string) *manifest.Store {
	t.Helper()
	s := manifest.New(urlBase)
	p := manifest.ParsePath("a/b.html")
	_, err := s.Update(manifest.Observations{{
		Path:      p,
		Recompute: true,
		File: staticFile{
			hash:  "abc",
			kind:  manifest.KindTestharness,
			items: []manifest.Item{manifest.NewTest(manifest.KindTestharness, p, "/a/b.html")},
		},
	}})
	require.NoError(t, err)
	return s
}

type staticFile struct {
	hash  string
	kind  manifest.Kind
	items []manifest.Item
}

func (f staticFile) Hash() string { return f.hash }

func (f staticFile) ManifestItems() (manifest.Kind, []manifest.Item, error) {
	return f.kind, f.items, nil
}

func TestFileBackend_RoundTrip(t *testing.T) {
	ctx := context.Background()
	b := NewFileBackend(filepath.Join(t.TempDir(), "nested", "MANIFEST.json"))

	_, err := Load(ctx, b)
	assert.ErrorIs(t, err, manifest.ErrUnavailable)

	s := sampleStore(t, "/")
	require.NoError(t, Write(ctx, b, s))

	loaded, err := Load(ctx, b)
	require.NoError(t, err)
	assert.True(t, loaded.HasFile(manifest.ParsePath("a/b.html")))

	data, err := os.ReadFile(b.Path)
	require.NoError(t, err)
	want, err := s.ToDocument()
	require.NoError(t, err)
	assert.Equal(t, string(want), string(data))

	entries, err := os.ReadDir(filepath.Dir(b.Path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestFileBackend_Lock(t *testing.T) {
	var b Locker = NewFileBackend(filepath.Join(t.TempDir(), "MANIFEST.json"))

	unlock, err := b.Lock(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_, err = b.Lock(ctx)
	assert.Error(t, err)

	unlock()

	unlock, err = b.Lock(context.Background())
	require.NoError(t, err)
	unlock()
}

func TestLoadOrNew(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	write := func(t *testing.T, name, content string) *FileBackend {
		t.Helper()
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return NewFileBackend(path)
	}

	t.Run("Missing", func(t *testing.T) {
		s, err := LoadOrNew(ctx, NewFileBackend(filepath.Join(dir, "none.json")), "/", nil)
		require.NoError(t, err)
		assert.Zero(t, s.Len())
	})

	t.Run("OldVersion", func(t *testing.T) {
		b := write(t, "old.json", `{"version": 5, "paths": {"x": ["h", "manual"]}, "items": {}}`)
		s, err := LoadOrNew(ctx, b, "/", nil)
		require.NoError(t, err)
		assert.Zero(t, s.Len())
	})

	t.Run("Corrupt", func(t *testing.T) {
		b := write(t, "corrupt.json", `{"version": 7, "paths": `)
		s, err := LoadOrNew(ctx, b, "/", nil)
		require.NoError(t, err)
		assert.Zero(t, s.Len())
	})

	t.Run("URLBaseMismatch", func(t *testing.T) {
		b := NewFileBackend(filepath.Join(dir, "base.json"))
		require.NoError(t, Write(ctx, b, sampleStore(t, "/old/")))

		s, err := LoadOrNew(ctx, b, "/new/", nil)
		require.NoError(t, err)
		assert.Zero(t, s.Len())
		assert.Equal(t, "/new/", s.URLBase())
	})

	t.Run("Valid", func(t *testing.T) {
		b := NewFileBackend(filepath.Join(dir, "valid.json"))
		require.NoError(t, Write(ctx, b, sampleStore(t, "/")))

		s, err := LoadOrNew(ctx, b, "/", nil)
		require.NoError(t, err)
		assert.Equal(t, 1, s.Len())
	})
}
