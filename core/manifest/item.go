package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Relation operators for reftest references.
const (
	RelationMatch    = "=="
	RelationMismatch = "!="
)

// Reference is one (url, operator) pair of a comparison test.
type Reference struct {
	URL      string
	Relation string
}

// MarshalJSON encodes the reference as a [url, relation] pair.
func (r Reference) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{r.URL, r.Relation})
}

// UnmarshalJSON decodes a [url, relation] pair.
func (r *Reference) UnmarshalJSON(data []byte) error {
	var pair []string
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("reference must have 2 elements, got %d", len(pair))
	}
	r.URL, r.Relation = pair[0], pair[1]
	return nil
}

// Item is an immutable test item. Values are built by the constructors below;
// changing a reftest between root and node produces a new Item.
type Item struct {
	kind         Kind
	path         Path
	url          string
	timeout      string
	testdriver   bool
	jsshell      bool
	viewportSize string
	dpi          string
	references   []Reference
}

// Option sets kind-specific metadata on a new item.
type Option func(*Item)

// WithTimeout sets the timeout class ("long").
func WithTimeout(timeout string) Option {
	return func(i *Item) { i.timeout = timeout }
}

// WithTestdriver marks a testharness test as using testdriver.
func WithTestdriver() Option {
	return func(i *Item) { i.testdriver = true }
}

// WithJSShell marks a testharness test as runnable in a JS shell.
func WithJSShell() Option {
	return func(i *Item) { i.jsshell = true }
}

// WithViewportSize sets the reftest viewport size.
func WithViewportSize(size string) Option {
	return func(i *Item) { i.viewportSize = size }
}

// WithDPI sets the reftest DPI.
func WithDPI(dpi string) Option {
	return func(i *Item) { i.dpi = dpi }
}

// NewSupport returns a support file item. Support files have no URL.
func NewSupport(path Path) Item {
	return Item{kind: KindSupport, path: path}
}

// NewTest returns a non-comparison test item with a URL.
func NewTest(kind Kind, path Path, url string, opts ...Option) Item {
	item := Item{kind: kind, path: path, url: url}
	for _, opt := range opts {
		opt(&item)
	}
	return item
}

// NewReftest returns a root comparison test.
func NewReftest(path Path, url string, refs []Reference, opts ...Option) Item {
	item := NewTest(KindReftest, path, url, opts...)
	item.references = append([]Reference(nil), refs...)
	return item
}

// NewReftestNode returns a comparison test that is cited by another test.
func NewReftestNode(path Path, url string, refs []Reference, opts ...Option) Item {
	item := NewReftest(path, url, refs, opts...)
	item.kind = KindReftestNode
	return item
}

// Kind returns the item kind.
func (i Item) Kind() Kind { return i.kind }

// Path returns the owning path.
func (i Item) Path() Path { return i.path }

// URL returns the item URL. The second result is false for kinds without URLs.
func (i Item) URL() (string, bool) {
	if !i.kind.HasURL() {
		return "", false
	}
	return i.url, true
}

// ID identifies the item within its path: the URL, or the path for support files.
func (i Item) ID() string {
	if !i.kind.HasURL() {
		return i.path.String()
	}
	return i.url
}

// Timeout returns the declared timeout, "long" or empty for the default.
func (i Item) Timeout() string { return i.timeout }

// Testdriver reports whether the test needs testdriver automation.
func (i Item) Testdriver() bool { return i.testdriver }

// JSShell reports whether a .any.js test also runs in a bare JS shell.
func (i Item) JSShell() bool { return i.jsshell }

// ViewportSize returns the requested viewport as "WxH", or empty.
func (i Item) ViewportSize() string { return i.viewportSize }

// DPI returns the requested device pixel ratio, or empty.
func (i Item) DPI() string { return i.dpi }

// References returns a copy of the comparison references.
func (i Item) References() []Reference {
	return append([]Reference(nil), i.references...)
}

// ToNode returns the item as a reference node. Non-comparison items are returned unchanged.
func (i Item) ToNode() Item {
	if !i.kind.IsComparison() {
		return i
	}
	node := i
	node.kind = KindReftestNode
	node.references = i.References()
	return node
}

// ToRoot returns the item as a root reftest. Non-comparison items are returned unchanged.
func (i Item) ToRoot() Item {
	if !i.kind.IsComparison() {
		return i
	}
	root := i
	root.kind = KindReftest
	root.references = i.References()
	return root
}

// Equal reports whether two items are identical.
func (i Item) Equal(o Item) bool {
	if i.kind != o.kind || i.path != o.path || i.url != o.url ||
		i.timeout != o.timeout || i.testdriver != o.testdriver || i.jsshell != o.jsshell ||
		i.viewportSize != o.viewportSize || i.dpi != o.dpi ||
		len(i.references) != len(o.references) {
		return false
	}
	for n := range i.references {
		if i.references[n] != o.references[n] {
			return false
		}
	}
	return true
}

// itemView is the JSON shape used by MarshalJSON for API consumers.
type itemView struct {
	Type         Kind        `json:"type"`
	Path         string      `json:"path"`
	URL          string      `json:"url,omitempty"`
	References   []Reference `json:"references,omitempty"`
	Timeout      string      `json:"timeout,omitempty"`
	Testdriver   bool        `json:"testdriver,omitempty"`
	JSShell      bool        `json:"jsshell,omitempty"`
	ViewportSize string      `json:"viewport_size,omitempty"`
	DPI          string      `json:"dpi,omitempty"`
}

// MarshalJSON renders the item as a self-describing object.
func (i Item) MarshalJSON() ([]byte, error) {
	return json.Marshal(itemView{
		Type:         i.kind,
		Path:         i.path.String(),
		URL:          i.url,
		References:   i.references,
		Timeout:      i.timeout,
		Testdriver:   i.testdriver,
		JSShell:      i.jsshell,
		ViewportSize: i.viewportSize,
		DPI:          i.dpi,
	})
}

// itemExtras holds the optional metadata of the serialized tuple form.
// Fields are in lexical order so documents keep sorted keys.
type itemExtras struct {
	DPI          string `json:"dpi,omitempty"`
	JSShell      bool   `json:"jsshell,omitempty"`
	Testdriver   bool   `json:"testdriver,omitempty"`
	Timeout      string `json:"timeout,omitempty"`
	ViewportSize string `json:"viewport_size,omitempty"`
}

// encodeItem returns the document tuple form of an item:
// [url, extras] for URL items, [url, references, extras] for comparison items
// and [null, {}] for support files.
func encodeItem(i Item) []any {
	extras := itemExtras{
		DPI:          i.dpi,
		JSShell:      i.jsshell,
		Testdriver:   i.testdriver,
		Timeout:      i.timeout,
		ViewportSize: i.viewportSize,
	}
	switch {
	case !i.kind.HasURL():
		return []any{nil, extras}
	case i.kind.IsComparison():
		refs := make([][2]string, 0, len(i.references))
		for _, r := range i.references {
			refs = append(refs, [2]string{r.URL, r.Relation})
		}
		return []any{i.url, refs, extras}
	default:
		return []any{i.url, extras}
	}
}

// decodeItem parses one document tuple for the given kind and path.
func decodeItem(kind Kind, path Path, raw json.RawMessage) (Item, error) {
	var parts []json.RawMessage
	if err := json.Unmarshal(raw, &parts); err != nil {
		return Item{}, fmt.Errorf("%w: %s item at %s: %v", ErrFormat, kind, path, err)
	}

	want := 2
	if kind.IsComparison() {
		want = 3
	}
	if len(parts) != want {
		return Item{}, fmt.Errorf("%w: %s item at %s has %d fields, want %d", ErrFormat, kind, path, len(parts), want)
	}

	var extras itemExtras
	if err := json.Unmarshal(parts[len(parts)-1], &extras); err != nil {
		return Item{}, fmt.Errorf("%w: %s item at %s extras: %v", ErrFormat, kind, path, err)
	}
	opts := extrasOptions(extras)

	if !kind.HasURL() {
		return NewSupport(path), nil
	}

	var url string
	if err := json.Unmarshal(parts[0], &url); err != nil || url == "" || url[0] != '/' {
		return Item{}, fmt.Errorf("%w: %s item at %s has invalid url %s", ErrFormat, kind, path, parts[0])
	}

	if !kind.IsComparison() {
		return NewTest(kind, path, url, opts...), nil
	}

	var refs []Reference
	if err := json.Unmarshal(parts[1], &refs); err != nil {
		return Item{}, fmt.Errorf("%w: %s item at %s references: %v", ErrFormat, kind, path, err)
	}
	if kind == KindReftestNode {
		return NewReftestNode(path, url, refs, opts...), nil
	}
	return NewReftest(path, url, refs, opts...), nil
}

func extrasOptions(e itemExtras) []Option {
	var opts []Option
	if e.Timeout != "" {
		opts = append(opts, WithTimeout(e.Timeout))
	}
	if e.Testdriver {
		opts = append(opts, WithTestdriver())
	}
	if e.JSShell {
		opts = append(opts, WithJSShell())
	}
	if e.ViewportSize != "" {
		opts = append(opts, WithViewportSize(e.ViewportSize))
	}
	if e.DPI != "" {
		opts = append(opts, WithDPI(e.DPI))
	}
	return opts
}

// encodeItems encodes an item set as a JSON array.
func encodeItems(items []Item) (json.RawMessage, error) {
	tuples := make([]any, 0, len(items))
	for _, item := range items {
		tuples = append(tuples, encodeItem(item))
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(tuples); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// decodeItems decodes a JSON array of item tuples.
func decodeItems(kind Kind, path Path, raw json.RawMessage) ([]Item, error) {
	var tuples []json.RawMessage
	if err := json.Unmarshal(raw, &tuples); err != nil {
		return nil, fmt.Errorf("%w: %s items at %s: %v", ErrFormat, kind, path, err)
	}
	items := make([]Item, 0, len(tuples))
	for _, tuple := range tuples {
		item, err := decodeItem(kind, path, tuple)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return normalizeItems(items), nil
}

// normalizeItems returns items as a set: sorted by ID with duplicates removed.
// When two items share an ID the later one wins.
func normalizeItems(items []Item) []Item {
	if len(items) == 0 {
		return []Item{}
	}
	byID := make(map[string]Item, len(items))
	for _, item := range items {
		byID[item.ID()] = item
	}
	out := make([]Item, 0, len(byID))
	for _, item := range byID {
		out = append(out, item)
	}
	sort.Slice(out, func(a, b int) bool {
		return out[a].ID() < out[b].ID()
	})
	return out
}

// itemsEqual compares two normalized item sets.
func itemsEqual(a, b []Item) bool {
	if len(a) != len(b) {
		return false
	}
	for n := range a {
		if !a[n].Equal(b[n]) {
			return false
		}
	}
	return true
}

// compactJSON strips insignificant whitespace so raw and re-encoded leaves compare equal.
func compactJSON(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
