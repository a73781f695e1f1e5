package manifest

import (
	"path/filepath"
	"strings"
)

// Path is a relative path held as an ordered sequence of segments.
// The zero value is the root. Paths are comparable and usable as map keys.
type Path struct {
	// key joins the segments with "/"; segments never contain "/".
	key string
}

// NewPath builds a path from individual segments. Empty segments are dropped.
func NewPath(segments ...string) Path {
	kept := make([]string, 0, len(segments))
	for _, s := range segments {
		if s != "" {
			kept = append(kept, s)
		}
	}
	return Path{key: strings.Join(kept, "/")}
}

// ParsePath parses a "/"-separated path. Empty and "." segments are dropped.
func ParsePath(s string) Path {
	parts := strings.Split(s, "/")
	kept := parts[:0]
	for _, part := range parts {
		if part == "" || part == "." {
			continue
		}
		kept = append(kept, part)
	}
	return Path{key: strings.Join(kept, "/")}
}

// FromOSPath converts a host path using the local separator.
func FromOSPath(s string) Path {
	return ParsePath(filepath.ToSlash(s))
}

// Segments returns a copy of the path segments.
func (p Path) Segments() []string {
	if p.key == "" {
		return nil
	}
	return strings.Split(p.key, "/")
}

// String returns the platform-neutral "/"-separated form.
func (p Path) String() string {
	return p.key
}

// OSPath returns the path using the host separator.
func (p Path) OSPath() string {
	return filepath.FromSlash(p.key)
}

// IsRoot reports whether the path has no segments.
func (p Path) IsRoot() bool {
	return p.key == ""
}

// Base returns the last segment.
func (p Path) Base() string {
	if i := strings.LastIndexByte(p.key, '/'); i >= 0 {
		return p.key[i+1:]
	}
	return p.key
}

// Dir returns the path without its last segment.
func (p Path) Dir() Path {
	if i := strings.LastIndexByte(p.key, '/'); i >= 0 {
		return Path{key: p.key[:i]}
	}
	return Path{}
}

// Join appends segments to the path.
func (p Path) Join(segments ...string) Path {
	return NewPath(append(p.Segments(), segments...)...)
}

// Within reports whether p lies strictly below dir.
// The root directory contains nothing, matching a "/"-terminated string prefix.
func (p Path) Within(dir Path) bool {
	if dir.key == "" {
		return false
	}
	return strings.HasPrefix(p.key, dir.key+"/")
}

// MarshalText encodes the path in its neutral form.
func (p Path) MarshalText() ([]byte, error) {
	return []byte(p.key), nil
}

// UnmarshalText decodes a neutral path.
func (p *Path) UnmarshalText(text []byte) error {
	*p = ParsePath(string(text))
	return nil
}
