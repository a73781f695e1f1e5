package manifest

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const smallDocument = `{
 "items": {
  "support": {
   "a": {
    "c.js": [
     [
      null,
      {}
     ]
    ]
   }
  },
  "testharness": {
   "a": {
    "b.html": [
     [
      "/a/b.html?x=1&y=2",
      {
       "timeout": "long"
      }
     ]
    ]
   }
  }
 },
 "paths": {
  "a/b.html": [
   "h1",
   "testharness"
  ],
  "a/c.js": [
   "h2",
   "support"
  ]
 },
 "url_base": "/",
 "version": 7
}
`

func TestToDocument_Format(t *testing.T) {
	s := New("")
	p := ParsePath("a/b.html")
	_, err := s.Update(Observations{
		{Path: p, Recompute: true, File: fakeFile{
			hash:  "h1",
			kind:  KindTestharness,
			items: []Item{NewTest(KindTestharness, p, "/a/b.html?x=1&y=2", WithTimeout("long"))},
		}},
		support("a/c.js", "h2"),
	})
	require.NoError(t, err)

	data, err := s.ToDocument()
	require.NoError(t, err)
	assert.Equal(t, smallDocument, string(data))

	var buf bytes.Buffer
	_, err = s.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, smallDocument, buf.String())
}

func TestFromDocument_RoundTrip(t *testing.T) {
	s := New("/base/")
	_, err := s.Update(Observations{
		testharness("a/b.html", "h1", WithTestdriver(), WithJSShell()),
		testharness("a/deep/d.html", "h5"),
		support("a/c.js", "h2"),
		reftest("r/a.html", "h3", "/r/b.html"),
		reftest("r/b.html", "h4"),
	})
	require.NoError(t, err)

	data, err := s.ToDocument()
	require.NoError(t, err)

	loaded, err := FromDocument(data)
	require.NoError(t, err)
	assert.Equal(t, "/base/", loaded.URLBase())
	assert.Equal(t, s.Len(), loaded.Len())

	want, err := s.IterTypes()
	require.NoError(t, err)
	got, err := loaded.IterTypes()
	require.NoError(t, err)
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].Kind, got[i].Kind)
		assert.Equal(t, want[i].Path, got[i].Path)
		assert.True(t, itemsEqual(want[i].Items, got[i].Items), want[i].Path.String())
	}
}

func TestFromDocument_Lazy(t *testing.T) {
	s := New("")
	_, err := s.Update(Observations{
		testharness("a/b.html", "h1"),
		testharness("a/c.html", "h2"),
	})
	require.NoError(t, err)
	data, err := s.ToDocument()
	require.NoError(t, err)

	loaded, err := FromDocument(data)
	require.NoError(t, err)
	idx := loaded.Index(KindTestharness)
	assert.Equal(t, 2, idx.Pending())

	assert.Equal(t, []Path{ParsePath("a/b.html"), ParsePath("a/c.html")}, idx.Paths())
	assert.Equal(t, 2, idx.Pending())

	require.NoError(t, idx.Materialize(ParsePath("a/b.html")))
	assert.Equal(t, 1, idx.Pending())

	_, err = loaded.IterTypes(KindTestharness)
	require.NoError(t, err)
	assert.Zero(t, idx.Pending())
}

func TestFromDocument_KindFilter(t *testing.T) {
	s := New("")
	_, err := s.Update(Observations{
		testharness("a.html", "h1"),
		support("b.js", "h2"),
	})
	require.NoError(t, err)
	data, err := s.ToDocument()
	require.NoError(t, err)

	loaded, err := FromDocument(data, KindSupport)
	require.NoError(t, err)
	assert.True(t, loaded.Index(KindSupport).Contains(ParsePath("b.js")))
	assert.Zero(t, loaded.Index(KindTestharness).Len())
	assert.True(t, loaded.HasFile(ParsePath("a.html")))
}

func TestFromDocument_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"Syntax", `{"version": 7,`, ErrFormat},
		{"NotObject", `[]`, ErrFormat},
		{"NoVersion", `{"paths": {}, "items": {}}`, ErrVersionMismatch},
		{"OldVersion", `{"version": 6, "paths": {}, "items": {}}`, ErrVersionMismatch},
		{"StringVersion", `{"version": "7", "paths": {}, "items": {}}`, ErrVersionMismatch},
		{"PathsWithoutItems", `{"version": 7, "paths": {}}`, ErrFormat},
		{"ItemsWithoutPaths", `{"version": 7, "items": {}}`, ErrFormat},
		{"UnknownKind", `{"version": 7, "paths": {}, "items": {"crashtest": {}}}`, ErrFormat},
		{"UnknownRecordKind", `{"version": 7, "paths": {"a": ["h", "crashtest"]}, "items": {}}`, ErrFormat},
		{"BadRecord", `{"version": 7, "paths": {"a": ["h"]}, "items": {}}`, ErrFormat},
		{"LeafNotArray", `{"version": 7, "paths": {}, "items": {"manual": {"a": 1}}}`, ErrFormat},
		{"IndexNotObject", `{"version": 7, "paths": {}, "items": {"manual": []}}`, ErrFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromDocument([]byte(tt.doc))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestFromDocument_Defaults(t *testing.T) {
	s, err := FromDocument([]byte(`{"version": 7}`))
	require.NoError(t, err)
	assert.Equal(t, "/", s.URLBase())
	assert.Zero(t, s.Len())
}

func TestFromDocument_BadItemSurfacesOnRead(t *testing.T) {
	doc := `{"version": 7, "paths": {"a.html": ["h", "manual"]}, "items": {"manual": {"a.html": [["relative", {}]]}}}`

	s, err := Decode(strings.NewReader(doc))
	require.NoError(t, err)

	_, err = s.IterPath(ParsePath("a.html"))
	assert.ErrorIs(t, err, ErrFormat)
}
