package manifest

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/tidwall/gjson"
)

// TypeIndex maps paths to the item set of a single kind.
//
// Entries loaded from a document stay in their serialized form until they are
// read. Get, Range and the Materialize methods decode entries on demand;
// Paths, Contains and Len never do.
type TypeIndex struct {
	kind Kind

	mu    sync.Mutex
	items map[Path][]Item
	raw   map[Path]json.RawMessage
}

// NewTypeIndex returns an empty index for kind.
func NewTypeIndex(kind Kind) *TypeIndex {
	return &TypeIndex{
		kind:  kind,
		items: make(map[Path][]Item),
		raw:   make(map[Path]json.RawMessage),
	}
}

// Kind returns the kind held by the index.
func (t *TypeIndex) Kind() Kind { return t.kind }

// Len returns the number of paths in the index.
func (t *TypeIndex) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.items) + len(t.raw)
}

// Contains reports whether p has an entry.
func (t *TypeIndex) Contains(p Path) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.items[p]; ok {
		return true
	}
	_, ok := t.raw[p]
	return ok
}

// Get returns the items at p, decoding them first if needed.
func (t *TypeIndex) Get(p Path) ([]Item, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.get(p)
}

func (t *TypeIndex) get(p Path) ([]Item, bool, error) {
	if items, ok := t.items[p]; ok {
		return items, true, nil
	}
	raw, ok := t.raw[p]
	if !ok {
		return nil, false, nil
	}
	items, err := decodeItems(t.kind, p, raw)
	if err != nil {
		return nil, true, err
	}
	delete(t.raw, p)
	t.items[p] = items
	return items, true, nil
}

// Set replaces the items at p.
func (t *TypeIndex) Set(p Path, items []Item) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.raw, p)
	t.items[p] = normalizeItems(items)
}

// Delete removes p. It reports whether an entry existed.
func (t *TypeIndex) Delete(p Path) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, inItems := t.items[p]
	_, inRaw := t.raw[p]
	delete(t.items, p)
	delete(t.raw, p)
	return inItems || inRaw
}

// Clear drops every entry.
func (t *TypeIndex) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items = make(map[Path][]Item)
	t.raw = make(map[Path]json.RawMessage)
}

// Paths returns every key in sorted order without decoding entries.
func (t *TypeIndex) Paths() []Path {
	t.mu.Lock()
	defer t.mu.Unlock()

	paths := make([]Path, 0, len(t.items)+len(t.raw))
	for p := range t.items {
		paths = append(paths, p)
	}
	for p := range t.raw {
		paths = append(paths, p)
	}
	sortPaths(paths)
	return paths
}

// Pending returns the number of entries still in serialized form.
func (t *TypeIndex) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.raw)
}

// Materialize decodes the entry at p if it is still serialized.
func (t *TypeIndex) Materialize(p Path) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, _, err := t.get(p)
	return err
}

// MaterializeAll decodes every serialized entry.
func (t *TypeIndex) MaterializeAll() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.materializeAll()
}

func (t *TypeIndex) materializeAll() error {
	for p := range t.raw {
		if _, _, err := t.get(p); err != nil {
			return err
		}
	}
	return nil
}

// Range calls fn for every entry in path order, stopping when fn returns false.
// Range materializes the whole index first.
func (t *TypeIndex) Range(fn func(p Path, items []Item) bool) error {
	t.mu.Lock()
	if err := t.materializeAll(); err != nil {
		t.mu.Unlock()
		return err
	}
	paths := make([]Path, 0, len(t.items))
	for p := range t.items {
		paths = append(paths, p)
	}
	snapshot := make(map[Path][]Item, len(t.items))
	for p, items := range t.items {
		snapshot[p] = items
	}
	t.mu.Unlock()

	sortPaths(paths)
	for _, p := range paths {
		if !fn(p, snapshot[p]) {
			break
		}
	}
	return nil
}

// setJSON loads the serialized per-kind index: nested objects keyed by path
// segment, with arrays of item tuples at the leaves. Leaves are kept raw.
func (t *TypeIndex) setJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("%w: %s index is not valid JSON", ErrFormat, t.kind)
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return fmt.Errorf("%w: %s index must be an object", ErrFormat, t.kind)
	}

	raw := make(map[Path]json.RawMessage)
	var walk func(node gjson.Result, prefix []string) error
	walk = func(node gjson.Result, prefix []string) error {
		var err error
		node.ForEach(func(key, value gjson.Result) bool {
			name := key.String()
			if name == "" || strings.Contains(name, "/") {
				err = fmt.Errorf("%w: %s index has invalid segment %q", ErrFormat, t.kind, name)
				return false
			}
			segments := append(append([]string(nil), prefix...), name)
			switch {
			case value.IsArray():
				raw[NewPath(segments...)] = json.RawMessage(value.Raw)
			case value.IsObject():
				err = walk(value, segments)
			default:
				err = fmt.Errorf("%w: %s index has unexpected value at %s", ErrFormat, t.kind, strings.Join(segments, "/"))
			}
			return err == nil
		})
		return err
	}
	if err := walk(root, nil); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.items = make(map[Path][]Item)
	t.raw = raw
	return nil
}

// toJSON builds the nested serialized form. Serialized entries that were
// never decoded are written back unchanged.
func (t *TypeIndex) toJSON() (map[string]any, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	tree := make(map[string]any)
	insert := func(p Path, leaf json.RawMessage) error {
		segments := p.Segments()
		if len(segments) == 0 {
			return fmt.Errorf("%w: %s index holds the root path", ErrFormat, t.kind)
		}
		node := tree
		for _, seg := range segments[:len(segments)-1] {
			child, ok := node[seg].(map[string]any)
			if !ok {
				if _, exists := node[seg]; exists {
					return fmt.Errorf("%w: %s index path %s collides with a file", ErrFormat, t.kind, p)
				}
				child = make(map[string]any)
				node[seg] = child
			}
			node = child
		}
		last := segments[len(segments)-1]
		if _, exists := node[last]; exists {
			return fmt.Errorf("%w: %s index path %s collides with a directory", ErrFormat, t.kind, p)
		}
		node[last] = leaf
		return nil
	}

	for p, items := range t.items {
		leaf, err := encodeItems(items)
		if err != nil {
			return nil, err
		}
		if err := insert(p, leaf); err != nil {
			return nil, err
		}
	}
	for p, leaf := range t.raw {
		compact, err := compactJSON(leaf)
		if err != nil {
			return nil, fmt.Errorf("%w: %s items at %s: %v", ErrFormat, t.kind, p, err)
		}
		if err := insert(p, compact); err != nil {
			return nil, err
		}
	}
	return tree, nil
}

func sortPaths(paths []Path) {
	sort.Slice(paths, func(i, j int) bool {
		return paths[i].String() < paths[j].String()
	})
}
