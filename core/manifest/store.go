package manifest

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// CurrentVersion is the document format version. Documents with any other
// version are rejected and rebuilt.
const CurrentVersion = 7

// DefaultURLBase is used when no url base is configured.
const DefaultURLBase = "/"

// FileRecord is the hash and kind last recorded for a path.
type FileRecord struct {
	Hash string
	Kind Kind
}

// MarshalJSON encodes the record as a [hash, kind] pair.
func (r FileRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{r.Hash, string(r.Kind)})
}

// UnmarshalJSON decodes a [hash, kind] pair.
func (r *FileRecord) UnmarshalJSON(data []byte) error {
	var pair []string
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("file record must have 2 elements, got %d", len(pair))
	}
	r.Hash, r.Kind = pair[0], Kind(pair[1])
	return nil
}

// Entry is one (kind, path, items) result of a query.
type Entry struct {
	Kind  Kind   `json:"kind"`
	Path  Path   `json:"path"`
	Items []Item `json:"items"`
}

// Store holds one TypeIndex per kind and the file record table.
//
// A Store is not safe for concurrent mutation. Queries may run concurrently
// as long as no Update is in progress.
type Store struct {
	urlBase string
	indices map[Kind]*TypeIndex
	records map[Path]FileRecord
	logger  *zap.Logger

	refMu    sync.Mutex
	refCache map[string]Item
}

// New returns an empty store. An empty urlBase selects DefaultURLBase.
func New(urlBase string) *Store {
	if urlBase == "" {
		urlBase = DefaultURLBase
	}
	indices := make(map[Kind]*TypeIndex, len(Kinds))
	for _, k := range Kinds {
		indices[k] = NewTypeIndex(k)
	}
	return &Store{
		urlBase: urlBase,
		indices: indices,
		records: make(map[Path]FileRecord),
		logger:  zap.NewNop(),
	}
}

// SetLogger sets the logger used for notices during updates.
func (s *Store) SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	s.logger = l
}

// URLBase returns the url base the store was built for.
func (s *Store) URLBase() string { return s.urlBase }

// IndexView is the read-only side of a TypeIndex. Mutation goes through
// Update so the reference cache stays in step with the comparison indices.
type IndexView interface {
	Kind() Kind
	Len() int
	Contains(p Path) bool
	Get(p Path) ([]Item, bool, error)
	Paths() []Path
	Pending() int
	Materialize(p Path) error
	MaterializeAll() error
	Range(fn func(p Path, items []Item) bool) error
}

// Index returns a read-only view of the index for kind, or nil for an
// unknown kind.
func (s *Store) Index(kind Kind) IndexView {
	idx, ok := s.indices[kind]
	if !ok {
		return nil
	}
	return indexView{idx}
}

// indexView hides the mutating methods of a TypeIndex.
type indexView struct{ t *TypeIndex }

func (v indexView) Kind() Kind { return v.t.Kind() }
func (v indexView) Len() int { return v.t.Len() }
func (v indexView) Contains(p Path) bool { return v.t.Contains(p) }
func (v indexView) Get(p Path) ([]Item, bool, error) { return v.t.Get(p) }
func (v indexView) Paths() []Path { return v.t.Paths() }
func (v indexView) Pending() int { return v.t.Pending() }
func (v indexView) Materialize(p Path) error { return v.t.Materialize(p) }
func (v indexView) MaterializeAll() error { return v.t.MaterializeAll() }
func (v indexView) Range(fn func(Path, []Item) bool) error { return v.t.Range(fn) }

// FileRecord returns the record for p.
func (s *Store) FileRecord(p Path) (FileRecord, bool) {
	r, ok := s.records[p]
	return r, ok
}

// HasFile reports whether p has a file record.
func (s *Store) HasFile(p Path) bool {
	_, ok := s.records[p]
	return ok
}

// Len returns the number of file records.
func (s *Store) Len() int { return len(s.records) }

// IterTypes returns every entry of the given kinds, ordered by kind name and
// then path. With no kinds, every kind is returned. All matched indices are
// materialized.
func (s *Store) IterTypes(kinds ...Kind) ([]Entry, error) {
	selected, err := s.selectKinds(kinds)
	if err != nil {
		return nil, err
	}

	var entries []Entry
	for _, k := range selected {
		err := s.indices[k].Range(func(p Path, items []Item) bool {
			entries = append(entries, Entry{Kind: k, Path: p, Items: items})
			return true
		})
		if err != nil {
			return nil, err
		}
	}
	return entries, nil
}

// IterPath returns every item stored at p across all kinds.
func (s *Store) IterPath(p Path) ([]Item, error) {
	var out []Item
	for _, k := range Kinds {
		items, ok, err := s.indices[k].Get(p)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, items...)
		}
	}
	return out, nil
}

// IterDir returns every entry whose path lies below dir, ordered by kind
// and then path. Only matching entries are materialized.
func (s *Store) IterDir(dir Path) ([]Entry, error) {
	var entries []Entry
	for _, k := range Kinds {
		idx := s.indices[k]
		for _, p := range idx.Paths() {
			if !p.Within(dir) {
				continue
			}
			items, ok, err := idx.Get(p)
			if err != nil {
				return nil, err
			}
			if ok {
				entries = append(entries, Entry{Kind: k, Path: p, Items: items})
			}
		}
	}
	return entries, nil
}

// Paths returns the sorted union of paths indexed under the given kinds,
// or every kind when none is given. Entries are not materialized.
func (s *Store) Paths(kinds ...Kind) ([]Path, error) {
	selected, err := s.selectKinds(kinds)
	if err != nil {
		return nil, err
	}

	seen := make(map[Path]struct{})
	for _, k := range selected {
		for _, p := range s.indices[k].Paths() {
			seen[p] = struct{}{}
		}
	}
	paths := make([]Path, 0, len(seen))
	for p := range seen {
		paths = append(paths, p)
	}
	sortPaths(paths)
	return paths, nil
}

// GetReference returns the comparison item whose URL is url.
func (s *Store) GetReference(url string) (Item, bool, error) {
	s.refMu.Lock()
	defer s.refMu.Unlock()

	if s.refCache == nil {
		cache := make(map[string]Item)
		for _, k := range []Kind{KindReftest, KindReftestNode} {
			err := s.indices[k].Range(func(_ Path, items []Item) bool {
				for _, item := range items {
					cache[item.url] = item
				}
				return true
			})
			if err != nil {
				return Item{}, false, err
			}
		}
		s.refCache = cache
	}

	item, ok := s.refCache[url]
	return item, ok, nil
}

func (s *Store) invalidateReferences() {
	s.refMu.Lock()
	s.refCache = nil
	s.refMu.Unlock()
}

func (s *Store) setReferences(byURL map[string]Item) {
	s.refMu.Lock()
	s.refCache = byURL
	s.refMu.Unlock()
}

// indexedPaths returns every path present in any index.
func (s *Store) indexedPaths() map[Path]struct{} {
	out := make(map[Path]struct{})
	for _, idx := range s.indices {
		for _, p := range idx.Paths() {
			out[p] = struct{}{}
		}
	}
	return out
}

func (s *Store) selectKinds(kinds []Kind) ([]Kind, error) {
	if len(kinds) == 0 {
		return Kinds, nil
	}
	selected := make([]Kind, 0, len(kinds))
	seen := make(map[Kind]struct{}, len(kinds))
	for _, k := range kinds {
		if !k.Valid() {
			return nil, fmt.Errorf("%w: unknown kind %q", ErrPrecondition, k)
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		selected = append(selected, k)
	}
	sort.Slice(selected, func(i, j int) bool { return selected[i] < selected[j] })
	return selected, nil
}
