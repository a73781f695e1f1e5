package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdate_NewFiles(t *testing.T) {
	s := New("")

	changed, err := s.Update(Observations{
		testharness("a/b.html", "h1"),
		support("a/c.js", "h2"),
	})
	require.NoError(t, err)
	assert.True(t, changed)

	rec, ok := s.FileRecord(ParsePath("a/b.html"))
	require.True(t, ok)
	assert.Equal(t, FileRecord{Hash: "h1", Kind: KindTestharness}, rec)

	items, err := s.IterPath(ParsePath("a/c.js"))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, KindSupport, items[0].Kind())
	assert.Empty(t, s.Verify())
}

func TestUpdate_Idempotent(t *testing.T) {
	tree := Observations{
		testharness("a/b.html", "h1", WithTimeout("long")),
		support("a/c.js", "h2"),
		reftest("r/a.html", "h3", "/r/b.html"),
		reftest("r/b.html", "h4"),
	}

	s := New("")
	_, err := s.Update(tree)
	require.NoError(t, err)
	first, err := s.ToDocument()
	require.NoError(t, err)

	loaded, err := FromDocument(first)
	require.NoError(t, err)

	calls := 0
	again := make(Observations, 0, len(tree))
	for _, obs := range tree {
		f := obs.File.(fakeFile)
		f.calls = &calls
		obs.File = f
		again = append(again, obs)
	}

	changed, err := loaded.Update(again)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Zero(t, calls, "unchanged files must not be re-extracted")

	second, err := loaded.ToDocument()
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))

	changed, err = loaded.Update(Observations{
		unchanged("a/b.html"),
		unchanged("a/c.js"),
		unchanged("r/a.html"),
		unchanged("r/b.html"),
	})
	require.NoError(t, err)
	assert.False(t, changed)

	third, err := loaded.ToDocument()
	require.NoError(t, err)
	assert.Equal(t, string(first), string(third))
}

func TestUpdate_KindChange(t *testing.T) {
	s := New("")
	_, err := s.Update(Observations{testharness("t.html", "h1")})
	require.NoError(t, err)

	p := ParsePath("t.html")
	changed, err := s.Update(Observations{{
		Path:      p,
		Recompute: true,
		File:      fakeFile{hash: "h2", kind: KindManual, items: []Item{NewTest(KindManual, p, "/t.html")}},
	}})
	require.NoError(t, err)
	assert.True(t, changed)

	assert.False(t, s.Index(KindTestharness).Contains(p))
	assert.True(t, s.Index(KindManual).Contains(p))
	rec, _ := s.FileRecord(p)
	assert.Equal(t, KindManual, rec.Kind)
	assert.Empty(t, s.Verify())
}

func TestUpdate_ComparisonToTestharness(t *testing.T) {
	s := New("")
	_, err := s.Update(Observations{
		reftest("a.html", "h1", "/b.html"),
		reftest("b.html", "h2"),
	})
	require.NoError(t, err)
	require.True(t, s.Index(KindReftestNode).Contains(ParsePath("b.html")))

	// a.html stops being a reftest, so b.html is no longer cited.
	changed, err := s.Update(Observations{
		testharness("a.html", "h3"),
		unchanged("b.html"),
	})
	require.NoError(t, err)
	assert.True(t, changed)

	assert.False(t, s.Index(KindReftest).Contains(ParsePath("a.html")))
	assert.True(t, s.Index(KindTestharness).Contains(ParsePath("a.html")))
	assert.True(t, s.Index(KindReftest).Contains(ParsePath("b.html")))
	assert.False(t, s.Index(KindReftestNode).Contains(ParsePath("b.html")))

	rec, _ := s.FileRecord(ParsePath("b.html"))
	assert.Equal(t, FileRecord{Hash: "h2", Kind: KindReftest}, rec)
	assert.Empty(t, s.Verify())
}

func TestUpdate_Deletion(t *testing.T) {
	s := New("")
	_, err := s.Update(Observations{
		testharness("keep.html", "h1"),
		testharness("gone.html", "h2"),
		reftest("ref/a.html", "h3", "/ref/b.html"),
		reftest("ref/b.html", "h4"),
	})
	require.NoError(t, err)

	changed, err := s.Update(Observations{
		unchanged("keep.html"),
		unchanged("ref/a.html"),
	})
	require.NoError(t, err)
	assert.True(t, changed)

	paths, err := s.Paths()
	require.NoError(t, err)
	assert.Equal(t, []Path{ParsePath("keep.html"), ParsePath("ref/a.html")}, paths)
	assert.False(t, s.HasFile(ParsePath("gone.html")))
	assert.False(t, s.HasFile(ParsePath("ref/b.html")))

	_, ok, err := s.GetReference("/ref/b.html")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, s.Verify())
}

func TestUpdate_DeletesEntriesWithoutRecord(t *testing.T) {
	s := New("")
	legacy := ParsePath("old/x.html")
	s.indices[KindVisual].Set(legacy, []Item{NewTest(KindVisual, legacy, "/old/x.html")})

	changed, err := s.Update(Observations{})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.False(t, s.Index(KindVisual).Contains(legacy))
}

func TestUpdate_RecordlessComparisonDeletionDropsReference(t *testing.T) {
	s := New("")
	orphan := ParsePath("old/r.html")
	s.indices[KindReftest].Set(orphan, []Item{NewReftest(orphan, "/old/r.html", nil)})

	_, found, err := s.GetReference("/old/r.html")
	require.NoError(t, err)
	require.True(t, found)

	changed, err := s.Update(Observations{})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.False(t, s.Index(KindReftest).Contains(orphan))

	_, found, err = s.GetReference("/old/r.html")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStore_IndexIsReadOnly(t *testing.T) {
	s := New("")
	view := s.Index(KindReftest)
	require.NotNil(t, view)
	_, mutable := view.(interface{ Set(Path, []Item) })
	assert.False(t, mutable)
	assert.Nil(t, s.Index(Kind("bogus")))
}

func TestUpdate_EmptyStreamOnEmptyStore(t *testing.T) {
	changed, err := New("").Update(Observations{})
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestUpdate_Preconditions(t *testing.T) {
	tests := []struct {
		name string
		tree Observations
	}{
		{"UnknownUnchangedPath", Observations{unchanged("missing.html")}},
		{"RecomputeWithoutFile", Observations{{Path: ParsePath("x.html"), Recompute: true}}},
		{"DuplicatePath", Observations{testharness("x.html", "h"), testharness("x.html", "h")}},
		{"RootPath", Observations{{Recompute: true, File: fakeFile{hash: "h", kind: KindSupport}}}},
		{"WrongItemKind", Observations{{
			Path:      ParsePath("x.html"),
			Recompute: true,
			File:      fakeFile{hash: "h", kind: KindManual, items: []Item{NewTest(KindVisual, ParsePath("x.html"), "/x.html")}},
		}}},
		{"WrongItemPath", Observations{{
			Path:      ParsePath("x.html"),
			Recompute: true,
			File:      fakeFile{hash: "h", kind: KindManual, items: []Item{NewTest(KindManual, ParsePath("y.html"), "/y.html")}},
		}}},
		{"RelativeURL", Observations{{
			Path:      ParsePath("x.html"),
			Recompute: true,
			File:      fakeFile{hash: "h", kind: KindManual, items: []Item{NewTest(KindManual, ParsePath("x.html"), "x.html")}},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New("")
			_, err := s.Update(tt.tree)
			assert.ErrorIs(t, err, ErrPrecondition)
			assert.Zero(t, s.Len())
		})
	}
}

func TestUpdate_ExtractionFailureLeavesStoreUntouched(t *testing.T) {
	s := New("")
	_, err := s.Update(Observations{testharness("a.html", "h1")})
	require.NoError(t, err)
	before, err := s.ToDocument()
	require.NoError(t, err)

	_, err = s.Update(Observations{
		testharness("a.html", "h2"),
		testharness("b.html", "h3"),
		{Path: ParsePath("c.html"), Recompute: true, File: fakeFile{hash: "h4", err: errExtract}},
	})
	require.ErrorIs(t, err, errExtract)

	after, err := s.ToDocument()
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestUpdate_ReferenceScenario(t *testing.T) {
	s := New("")
	_, err := s.Update(Observations{
		reftest("A", "a1", "/B"),
		reftest("B", "b1"),
	})
	require.NoError(t, err)

	rec, _ := s.FileRecord(ParsePath("B"))
	assert.Equal(t, KindReftestNode, rec.Kind)

	// B gains an outgoing reference to C.
	changed, err := s.Update(Observations{
		unchanged("A"),
		reftest("B", "b2", "/C"),
		reftest("C", "c1"),
	})
	require.NoError(t, err)
	assert.True(t, changed)

	assert.True(t, s.Index(KindReftest).Contains(ParsePath("A")))
	assert.True(t, s.Index(KindReftestNode).Contains(ParsePath("B")))
	assert.True(t, s.Index(KindReftestNode).Contains(ParsePath("C")))
	assert.False(t, s.Index(KindReftest).Contains(ParsePath("C")))

	for path, kind := range map[string]Kind{"A": KindReftest, "B": KindReftestNode, "C": KindReftestNode} {
		rec, ok := s.FileRecord(ParsePath(path))
		require.True(t, ok)
		assert.Equal(t, kind, rec.Kind, path)
	}

	b, ok, err := s.GetReference("/B")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, KindReftestNode, b.Kind())
	assert.Equal(t, []Reference{{URL: "/C", Relation: RelationMatch}}, b.References())
	assert.Empty(t, s.Verify())
}

func TestUpdate_ReferenceCacheRebuiltAfterLoad(t *testing.T) {
	s := New("")
	_, err := s.Update(Observations{
		reftest("A", "a1", "/B"),
		reftest("B", "b1"),
	})
	require.NoError(t, err)

	doc, err := s.ToDocument()
	require.NoError(t, err)
	loaded, err := FromDocument(doc)
	require.NoError(t, err)

	a, ok, err := loaded.GetReference("/A")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, KindReftest, a.Kind())

	_, ok, err = loaded.GetReference("/missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUpdate_TreeFunc(t *testing.T) {
	s := New("")
	changed, err := s.Update(TreeFunc(func(fn func(Observation) error) error {
		return fn(testharness("x.html", "h"))
	}))
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, s.HasFile(ParsePath("x.html")))
}
