package manifest

import "errors"

// fakeFile is a SourceFile with canned extraction results.
type fakeFile struct {
	hash  string
	kind  Kind
	items []Item
	err   error
	calls *int
}

func (f fakeFile) Hash() string { return f.hash }

func (f fakeFile) ManifestItems() (Kind, []Item, error) {
	if f.calls != nil {
		*f.calls++
	}
	return f.kind, f.items, f.err
}

var errExtract = errors.New("parse failed")

func testharness(path, hash string, opts ...Option) Observation {
	p := ParsePath(path)
	return Observation{
		Path:      p,
		Recompute: true,
		File: fakeFile{
			hash:  hash,
			kind:  KindTestharness,
			items: []Item{NewTest(KindTestharness, p, "/"+path, opts...)},
		},
	}
}

func support(path, hash string) Observation {
	p := ParsePath(path)
	return Observation{
		Path:      p,
		Recompute: true,
		File:      fakeFile{hash: hash, kind: KindSupport, items: []Item{NewSupport(p)}},
	}
}

func reftest(path, hash string, refs ...string) Observation {
	p := ParsePath(path)
	var references []Reference
	for _, r := range refs {
		references = append(references, Reference{URL: r, Relation: RelationMatch})
	}
	return Observation{
		Path:      p,
		Recompute: true,
		File: fakeFile{
			hash:  hash,
			kind:  KindReftest,
			items: []Item{NewReftest(p, "/"+path, references)},
		},
	}
}

func unchanged(path string) Observation {
	return Observation{Path: ParsePath(path)}
}
