package sourcetree

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"test-manifest/core/manifest"
	"test-manifest/core/skiptrie"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// vcsDirs are never walked.
var vcsDirs = map[string]bool{".git": true, ".hg": true, ".svn": true}

// Walker produces the observation stream for a tests root.
type Walker struct {
	// Root is the directory to walk.
	Root string
	// URLBase prefixes every item URL.
	URLBase string
	// Skip prunes directories it marks as entirely skipped. Optional.
	Skip *skiptrie.Node
	// Ignore lists root-relative paths that are never reported, such as the
	// manifest file itself.
	Ignore []manifest.Path
	// Workers bounds concurrent hashing. Values below 1 mean 1.
	Workers int
	// Mtime lets unchanged files skip hashing. Optional.
	Mtime *MtimeCache
	// Known reports whether the manifest already holds a path. Only known
	// paths are reported as unchanged.
	Known func(manifest.Path) bool
	// Logger receives debug notices. Optional.
	Logger *zap.Logger
}

type walkedFile struct {
	path manifest.Path
	info fs.FileInfo
}

// Walk implements manifest.Tree.
func (w *Walker) Walk(fn func(manifest.Observation) error) error {
	return w.WalkContext(context.Background(), fn)
}

// WalkContext hashes every file below Root and calls fn once per file in path
// order. Files whose mtime and size are unchanged since the last run and that
// the manifest already knows are reported with Recompute false.
func (w *Walker) WalkContext(ctx context.Context, fn func(manifest.Observation) error) error {
	logger := w.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	files, err := w.collect()
	if err != nil {
		return err
	}

	observations := make([]manifest.Observation, len(files))
	var toHash []int
	for i, f := range files {
		unchanged := w.Mtime != nil && w.Mtime.Unchanged(f.path, f.info)
		if unchanged && w.Known != nil && w.Known(f.path) {
			observations[i] = manifest.Observation{Path: f.path}
			continue
		}
		toHash = append(toHash, i)
	}

	workers := w.Workers
	if workers < 1 {
		workers = 1
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(workers)
	for _, i := range toHash {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			p := files[i].path
			hash, err := HashFile(filepath.Join(w.Root, p.OSPath()))
			if err != nil {
				return fmt.Errorf("hash %s: %w", p, err)
			}
			observations[i] = manifest.Observation{
				Path:      p,
				File:      NewSourceFile(w.Root, p, w.URLBase, hash),
				Recompute: true,
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	logger.Debug("Walked tests root",
		zap.String("root", w.Root),
		zap.Int("files", len(files)),
		zap.Int("hashed", len(toHash)),
	)

	for _, obs := range observations {
		if err := fn(obs); err != nil {
			return err
		}
	}
	return nil
}

// collect lists every regular file below Root sorted by path.
func (w *Walker) collect() ([]walkedFile, error) {
	ignored := make(map[manifest.Path]bool, len(w.Ignore))
	for _, p := range w.Ignore {
		ignored[p] = true
	}

	var files []walkedFile
	err := filepath.WalkDir(w.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(w.Root, path)
		if err != nil {
			return err
		}
		p := manifest.FromOSPath(rel)

		if d.IsDir() {
			if p.IsRoot() {
				return nil
			}
			if vcsDirs[d.Name()] {
				return filepath.SkipDir
			}
			if w.Skip != nil && w.Skip.IsEntirelySkippedPath(p.String()) {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() || ignored[p] {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		files = append(files, walkedFile{path: p, info: info})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", w.Root, err)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].path.String() < files[j].path.String()
	})
	return files, nil
}
