package sourcetree

import (
	"os"
	"path/filepath"
	"testing"

	"test-manifest/core/manifest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		full := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
}

const testharnessPage = `<!doctype html>
<meta name="timeout" content="long">
<script src="/resources/testharness.js"></script>
<script src="/resources/testharnessreport.js"></script>
<script src="/resources/testdriver.js"></script>
`

const reftestPage = `<!doctype html>
<link rel="match" href="ref.html">
<link rel="mismatch" href="/common/blank.html">
<meta name="viewport-size" content="800x600">
<meta name="dpi" content="2">
`

func TestSourceFile_Classification(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"css/a.html":                       testharnessPage,
		"css/plain.html":                   "<p>no harness</p>",
		"css/r.html":                       reftestPage,
		"css/x-manual.html":                "",
		"css/x-stub.html":                  "",
		"css/x-visual.svg":                 "",
		"css/resources/helper.html":        testharnessPage,
		"css/_hidden.html":                 testharnessPage,
		"tools/lint.py":                    "",
		"css/style.css":                    "",
		"webdriver/tests/test_click.py":    "",
		"webdriver/tests/support/x.py":     "",
		"conformance-checkers/html/a.html": "",
	})

	tests := []struct {
		path string
		kind manifest.Kind
	}{
		{"css/a.html", manifest.KindTestharness},
		{"css/plain.html", manifest.KindSupport},
		{"css/r.html", manifest.KindReftest},
		{"css/x-manual.html", manifest.KindManual},
		{"css/x-stub.html", manifest.KindStub},
		{"css/x-visual.svg", manifest.KindVisual},
		{"css/resources/helper.html", manifest.KindSupport},
		{"css/_hidden.html", manifest.KindSupport},
		{"tools/lint.py", manifest.KindSupport},
		{"css/style.css", manifest.KindSupport},
		{"webdriver/tests/test_click.py", manifest.KindWdspec},
		{"webdriver/tests/support/x.py", manifest.KindSupport},
		{"conformance-checkers/html/a.html", manifest.KindConformanceChecker},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			f := NewSourceFile(root, manifest.ParsePath(tt.path), "/", "hash")
			kind, items, err := f.ManifestItems()
			require.NoError(t, err)
			assert.Equal(t, tt.kind, kind)
			require.NotEmpty(t, items)
			for _, item := range items {
				assert.Equal(t, tt.kind, item.Kind())
				assert.Equal(t, tt.path, item.Path().String())
			}
		})
	}
}

func TestSourceFile_TestharnessMetadata(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"dom/a.html": testharnessPage})

	_, items, err := NewSourceFile(root, manifest.ParsePath("dom/a.html"), "/base", "h").ManifestItems()
	require.NoError(t, err)
	require.Len(t, items, 1)

	u, ok := items[0].URL()
	require.True(t, ok)
	assert.Equal(t, "/base/dom/a.html", u)
	assert.Equal(t, "long", items[0].Timeout())
	assert.True(t, items[0].Testdriver())
}

func TestSourceFile_ReftestMetadata(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"css/r.html": reftestPage})

	kind, items, err := NewSourceFile(root, manifest.ParsePath("css/r.html"), "/", "h").ManifestItems()
	require.NoError(t, err)
	assert.Equal(t, manifest.KindReftest, kind)
	require.Len(t, items, 1)

	assert.Equal(t, []manifest.Reference{
		{URL: "/css/ref.html", Relation: manifest.RelationMatch},
		{URL: "/common/blank.html", Relation: manifest.RelationMismatch},
	}, items[0].References())
	assert.Equal(t, "800x600", items[0].ViewportSize())
	assert.Equal(t, "2", items[0].DPI())
}

func TestSourceFile_MultiGlobalScripts(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"fetch/a.any.js":    "// META: timeout=long\n// META: global=window,jsshell\ntest(() => {});\n",
		"fetch/b.window.js": "test(() => {});\n",
		"fetch/c.worker.js": "test(() => {});\n",
		"fetch/helper.js":   "",
	})

	urls := func(path string) (manifest.Kind, []string) {
		kind, items, err := NewSourceFile(root, manifest.ParsePath(path), "/", "h").ManifestItems()
		require.NoError(t, err)
		var out []string
		for _, item := range items {
			if u, ok := item.URL(); ok {
				out = append(out, u)
			}
		}
		return kind, out
	}

	kind, got := urls("fetch/a.any.js")
	assert.Equal(t, manifest.KindTestharness, kind)
	assert.Equal(t, []string{"/fetch/a.any.html", "/fetch/a.any.worker.html", "/fetch/a.any.js"}, got)

	_, got = urls("fetch/b.window.js")
	assert.Equal(t, []string{"/fetch/b.window.html"}, got)

	_, got = urls("fetch/c.worker.js")
	assert.Equal(t, []string{"/fetch/c.worker.html"}, got)

	kind, _ = urls("fetch/helper.js")
	assert.Equal(t, manifest.KindSupport, kind)
}

func TestSourceFile_ReadError(t *testing.T) {
	f := NewSourceFile(t.TempDir(), manifest.ParsePath("missing.html"), "/", "h")
	_, _, err := f.ManifestItems()
	assert.Error(t, err)
}

func TestBlobHash(t *testing.T) {
	// git hash-object of an empty file.
	assert.Equal(t, "e69de29bb2d1d6434b8b29ae775ad8c2e48c5391", BlobHash(nil))

	dir := t.TempDir()
	path := filepath.Join(dir, "hello.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello\n"), 0o644))

	got, err := HashFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ce013625030ba8dba906f756967f9e9ca394464a", got)
	assert.Equal(t, got, BlobHash([]byte("hello\n")))
}
