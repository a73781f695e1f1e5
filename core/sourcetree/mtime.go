package sourcetree

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"test-manifest/core/manifest"
)

// fileStamp is the modification time and size recorded for a path.
type fileStamp struct {
	MtimeNs int64 `json:"mtime_ns"`
	Size    int64 `json:"size"`
}

// MtimeCache remembers file stamps between runs so unchanged files can be
// reported without hashing them again.
type MtimeCache struct {
	path string

	mu      sync.Mutex
	stamps  map[string]fileStamp
	current map[string]fileStamp
}

// LoadMtimeCache reads the cache at path. A missing or unreadable file yields
// an empty cache.
func LoadMtimeCache(path string) *MtimeCache {
	c := &MtimeCache{
		path:    path,
		stamps:  make(map[string]fileStamp),
		current: make(map[string]fileStamp),
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return c
	}
	if err := json.Unmarshal(data, &c.stamps); err != nil {
		c.stamps = make(map[string]fileStamp)
	}
	return c
}

// Unchanged reports whether info matches the stamp recorded for p, and
// records the current stamp for the next Dump.
func (c *MtimeCache) Unchanged(p manifest.Path, info fs.FileInfo) bool {
	stamp := fileStamp{MtimeNs: info.ModTime().UnixNano(), Size: info.Size()}
	key := p.String()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.current[key] = stamp
	old, ok := c.stamps[key]
	return ok && old == stamp
}

// Dump writes the stamps recorded during this run. Paths not seen in this
// run are dropped.
func (c *MtimeCache) Dump() error {
	c.mu.Lock()
	data, err := json.Marshal(c.current)
	c.mu.Unlock()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil && !errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("create mtime cache directory: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0o644); err != nil {
		return fmt.Errorf("write mtime cache: %w", err)
	}
	return nil
}
