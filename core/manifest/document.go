package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
)

// document is the persisted form of a Store. Fields are declared in key
// order so encoded documents have sorted keys.
type document struct {
	Items   map[string]map[string]any `json:"items"`
	Paths   map[string]FileRecord     `json:"paths"`
	URLBase string                    `json:"url_base"`
	Version int                       `json:"version"`
}

// ToDocument encodes the store as an indented JSON document with a trailing
// newline. Only non-empty kinds are written under "items".
func (s *Store) ToDocument() ([]byte, error) {
	doc := document{
		Items:   make(map[string]map[string]any),
		Paths:   make(map[string]FileRecord, len(s.records)),
		URLBase: s.urlBase,
		Version: CurrentVersion,
	}
	for p, rec := range s.records {
		doc.Paths[p.String()] = rec
	}
	for _, k := range Kinds {
		idx := s.indices[k]
		if idx.Len() == 0 {
			continue
		}
		tree, err := idx.toJSON()
		if err != nil {
			return nil, err
		}
		doc.Items[string(k)] = tree
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", " ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteTo writes the encoded document to w.
func (s *Store) WriteTo(w io.Writer) (int64, error) {
	data, err := s.ToDocument()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}

// FromDocument decodes a document. When kinds are given only those kinds are
// loaded into indices; the file record table is always loaded in full.
// Index entries stay serialized until they are read.
func FromDocument(data []byte, kinds ...Kind) (*Store, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}

	rawVersion, ok := top["version"]
	if !ok {
		return nil, fmt.Errorf("%w: no version", ErrVersionMismatch)
	}
	var version int
	if err := json.Unmarshal(rawVersion, &version); err != nil || version != CurrentVersion {
		return nil, fmt.Errorf("%w: got %s, want %d", ErrVersionMismatch, rawVersion, CurrentVersion)
	}

	urlBase := DefaultURLBase
	if raw, ok := top["url_base"]; ok {
		if err := json.Unmarshal(raw, &urlBase); err != nil {
			return nil, fmt.Errorf("%w: url_base: %v", ErrFormat, err)
		}
	}

	rawPaths, hasPaths := top["paths"]
	rawItems, hasItems := top["items"]
	if hasPaths != hasItems {
		return nil, fmt.Errorf("%w: paths and items must both be present", ErrFormat)
	}

	s := New(urlBase)
	if !hasPaths {
		return s, nil
	}

	var paths map[string]FileRecord
	if err := json.Unmarshal(rawPaths, &paths); err != nil {
		return nil, fmt.Errorf("%w: paths: %v", ErrFormat, err)
	}
	for key, rec := range paths {
		p := ParsePath(key)
		if p.IsRoot() {
			return nil, fmt.Errorf("%w: empty path in paths", ErrFormat)
		}
		if !rec.Kind.Valid() {
			return nil, fmt.Errorf("%w: %s has unknown kind %q", ErrFormat, key, rec.Kind)
		}
		s.records[p] = rec
	}

	var items map[string]json.RawMessage
	if err := json.Unmarshal(rawItems, &items); err != nil {
		return nil, fmt.Errorf("%w: items: %v", ErrFormat, err)
	}

	wanted := make(map[Kind]bool, len(kinds))
	for _, k := range kinds {
		wanted[k] = true
	}

	names := make([]string, 0, len(items))
	for name := range items {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		kind, ok := ParseKind(name)
		if !ok {
			return nil, fmt.Errorf("%w: unknown kind %q", ErrFormat, name)
		}
		if len(wanted) > 0 && !wanted[kind] {
			continue
		}
		if err := s.indices[kind].setJSON(items[name]); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Decode reads a document from r. See FromDocument.
func Decode(r io.Reader, kinds ...Kind) (*Store, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: read manifest: %v", ErrUnavailable, err)
	}
	return FromDocument(data, kinds...)
}
