package manifest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	mf "test-manifest/core/manifest"
	"test-manifest/core/persist"
	"test-manifest/core/skiptrie"
	"test-manifest/core/sourcetree"
	"test-manifest/core/storage"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UpdateOptions controls a LoadAndUpdate run.
type UpdateOptions struct {
	// Rebuild ignores the stored document and builds from scratch.
	Rebuild bool
	// NoWrite skips persisting the updated document.
	NoWrite bool
}

// UpdateResult summarizes a LoadAndUpdate run.
type UpdateResult struct {
	Location string        `json:"location"`
	Changed  bool          `json:"changed"`
	Written  bool          `json:"written"`
	Files    int           `json:"files"`
	Duration time.Duration `json:"duration_ns"`
}

// Summary describes the current manifest.
type Summary struct {
	Location string         `json:"location"`
	URLBase  string         `json:"url_base"`
	Version  int            `json:"version"`
	Files    int            `json:"files"`
	Kinds    map[string]int `json:"kinds"`
}

// SkipVerdict is the skip trie's answer for one path or URL.
type SkipVerdict struct {
	Target  string `json:"target"`
	Skipped bool   `json:"skipped"`
}

// Service builds, persists and queries a manifest.
type Service struct {
	cfg     mf.Config
	backend persist.Backend
	cache   *persist.Cache
	logger  *zap.Logger

	// mu serializes updates and keeps queries off a store being updated.
	mu sync.RWMutex

	skipOnce sync.Once
	skip     *skiptrie.Node
	skipErr  error
}

// NewService creates a manifest service over backend. A nil cache disables
// reuse of loaded manifests.
func NewService(cfg mf.Config, backend persist.Backend, cache *persist.Cache, logger *zap.Logger) *Service {
	if cache == nil {
		cache = persist.NewCache(0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		cfg:     cfg,
		backend: backend,
		cache:   cache,
		logger:  logger,
	}
}

// NewBackend selects the persistence backend named by cfg.Backend. The
// object backend needs client, the database backend needs db.
func NewBackend(cfg mf.Config, client storage.Client, bucket string, db *gorm.DB) (persist.Backend, error) {
	switch cfg.Backend {
	case mf.BackendFile, "":
		return persist.NewFileBackend(cfg.Path), nil
	case mf.BackendObject:
		if client == nil {
			return nil, fmt.Errorf("object backend requires a storage client")
		}
		return persist.NewObjectBackend(client, bucket, cfg.Object), nil
	case mf.BackendDatabase:
		if db == nil {
			return nil, fmt.Errorf("database backend requires a database connection")
		}
		b := persist.NewDatabaseBackend(db, cfg.Name)
		if err := b.Prepare(); err != nil {
			return nil, fmt.Errorf("prepare manifest table: %w", err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unsupported manifest backend: %s", cfg.Backend)
	}
}

// Location returns the backend location of the manifest.
func (s *Service) Location() string {
	return s.backend.Location()
}

// LoadAndUpdate loads the stored manifest, brings it up to date with the
// tests root and persists it when it changed.
func (s *Service) LoadAndUpdate(ctx context.Context, opts UpdateOptions) (*mf.Store, UpdateResult, error) {
	start := time.Now()
	key := s.backend.Location()
	result := UpdateResult{Location: key}

	s.mu.Lock()
	defer s.mu.Unlock()

	if locker, ok := s.backend.(persist.Locker); ok {
		unlock, err := locker.Lock(ctx)
		if err != nil {
			return nil, result, fmt.Errorf("lock manifest: %w", err)
		}
		defer unlock()
	}

	var store *mf.Store
	if opts.Rebuild {
		s.cache.Invalidate(key)
		store = mf.New(s.cfg.URLBase)
	} else {
		var err error
		store, err = s.cache.Get(ctx, key, s.load)
		if err != nil {
			return nil, result, err
		}
	}
	store.SetLogger(s.logger)

	skip, err := s.skipTrie()
	if err != nil {
		return nil, result, err
	}

	walker := &sourcetree.Walker{
		Root:    s.cfg.TestsRoot,
		URLBase: s.cfg.URLBase,
		Skip:    skip,
		Ignore:  s.ignoredPaths(),
		Workers: s.cfg.Workers,
		Known:   store.HasFile,
		Logger:  s.logger,
	}
	if s.cfg.MtimeCache != "" {
		walker.Mtime = sourcetree.LoadMtimeCache(s.cfg.MtimeCache)
	}

	changed, err := store.Update(mf.TreeFunc(func(fn func(mf.Observation) error) error {
		return walker.WalkContext(ctx, fn)
	}))
	if err != nil {
		return nil, result, fmt.Errorf("update manifest: %w", err)
	}
	result.Changed = changed
	result.Files = store.Len()

	if changed && !opts.NoWrite {
		if err := persist.Write(ctx, s.backend, store); err != nil {
			// The cached store was mutated in place and no longer matches the backend.
			s.cache.Invalidate(key)
			return nil, result, err
		}
		result.Written = true
	}
	s.cache.Put(key, store)

	// Unpersisted changes must be rediscovered next run, so their mtimes stay stale.
	if walker.Mtime != nil && (!changed || result.Written) {
		if err := walker.Mtime.Dump(); err != nil {
			s.logger.Warn("Failed to write mtime cache", zap.Error(err))
		}
	}

	result.Duration = time.Since(start)
	s.logger.Info("Manifest updated",
		zap.String("location", key),
		zap.Bool("changed", result.Changed),
		zap.Bool("written", result.Written),
		zap.Int("files", result.Files),
		zap.Duration("duration", result.Duration),
	)
	return store, result, nil
}

func (s *Service) load(ctx context.Context) (*mf.Store, error) {
	return persist.LoadOrNew(ctx, s.backend, s.cfg.URLBase, s.logger)
}

// ignoredPaths lists files the service itself writes below the tests root.
func (s *Service) ignoredPaths() []mf.Path {
	var out []mf.Path
	candidates := []string{s.cfg.MtimeCache}
	if _, ok := s.backend.(*persist.FileBackend); ok {
		candidates = append(candidates, s.cfg.Path, s.cfg.Path+".lock")
	}
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if p, ok := relativeTo(s.cfg.TestsRoot, c); ok {
			out = append(out, p)
		}
	}
	return out
}

func relativeTo(root, path string) (mf.Path, bool) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return mf.Path{}, false
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return mf.Path{}, false
	}
	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return mf.Path{}, false
	}
	return mf.FromOSPath(rel), true
}

func (s *Service) skipTrie() (*skiptrie.Node, error) {
	s.skipOnce.Do(func() {
		s.skip, s.skipErr = skiptrie.LoadFile(s.cfg.SkipFile)
	})
	return s.skip, s.skipErr
}

// withStore runs fn against the current manifest while no update is running.
func (s *Service) withStore(ctx context.Context, fn func(*mf.Store) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	store, err := s.cache.Get(ctx, s.backend.Location(), s.load)
	if err != nil {
		return err
	}
	return fn(store)
}

// Summary reports the size of the current manifest per kind.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	summary := Summary{
		Location: s.backend.Location(),
		Version:  mf.CurrentVersion,
		Kinds:    make(map[string]int),
	}
	err := s.withStore(ctx, func(store *mf.Store) error {
		summary.URLBase = store.URLBase()
		summary.Files = store.Len()
		for _, k := range mf.Kinds {
			if n := store.Index(k).Len(); n > 0 {
				summary.Kinds[string(k)] = n
			}
		}
		return nil
	})
	return summary, err
}

// Types returns every entry of the given kinds, or of all kinds when none
// are given.
func (s *Service) Types(ctx context.Context, kinds ...mf.Kind) ([]mf.Entry, error) {
	var entries []mf.Entry
	err := s.withStore(ctx, func(store *mf.Store) error {
		var err error
		entries, err = store.IterTypes(kinds...)
		return err
	})
	return entries, err
}

// ItemsAt returns the items recorded for a file.
func (s *Service) ItemsAt(ctx context.Context, p mf.Path) ([]mf.Item, error) {
	var items []mf.Item
	err := s.withStore(ctx, func(store *mf.Store) error {
		var err error
		items, err = store.IterPath(p)
		return err
	})
	return items, err
}

// Dir returns every entry below dir.
func (s *Service) Dir(ctx context.Context, dir mf.Path) ([]mf.Entry, error) {
	var entries []mf.Entry
	err := s.withStore(ctx, func(store *mf.Store) error {
		var err error
		entries, err = store.IterDir(dir)
		return err
	})
	return entries, err
}

// Paths returns the distinct paths indexed under the given kinds.
func (s *Service) Paths(ctx context.Context, kinds ...mf.Kind) ([]mf.Path, error) {
	var paths []mf.Path
	err := s.withStore(ctx, func(store *mf.Store) error {
		var err error
		paths, err = store.Paths(kinds...)
		return err
	})
	return paths, err
}

// Reference resolves a comparison URL to its item.
func (s *Service) Reference(ctx context.Context, url string) (mf.Item, bool, error) {
	var (
		item  mf.Item
		found bool
	)
	err := s.withStore(ctx, func(store *mf.Store) error {
		var err error
		item, found, err = store.GetReference(url)
		return err
	})
	return item, found, err
}

// Verify reports invariant violations in the current manifest.
func (s *Service) Verify(ctx context.Context) ([]mf.Problem, error) {
	var problems []mf.Problem
	err := s.withStore(ctx, func(store *mf.Store) error {
		problems = store.Verify()
		return nil
	})
	return problems, err
}

// IsSkippedPath reports whether a tests-root relative path is skipped. With
// entire set, the whole subtree below path must be skipped.
func (s *Service) IsSkippedPath(path string, entire bool) (SkipVerdict, error) {
	skip, err := s.skipTrie()
	if err != nil {
		return SkipVerdict{}, err
	}
	path = strings.Trim(path, "/")
	if entire {
		return SkipVerdict{Target: path, Skipped: skip.IsEntirelySkippedPath(path)}, nil
	}
	return SkipVerdict{Target: path, Skipped: skip.IsSkippedPath(path)}, nil
}

// IsSkippedURL reports whether a test URL is skipped.
func (s *Service) IsSkippedURL(url string) (SkipVerdict, error) {
	skip, err := s.skipTrie()
	if err != nil {
		return SkipVerdict{}, err
	}
	skipped, err := skip.IsSkippedItem(urlItem(url))
	if err != nil {
		return SkipVerdict{}, err
	}
	return SkipVerdict{Target: url, Skipped: skipped}, nil
}

// urlItem adapts a bare URL to skiptrie.URLItem.
type urlItem string

func (u urlItem) URL() (string, bool) { return string(u), true }
