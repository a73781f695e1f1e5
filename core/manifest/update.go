package manifest

import (
	"fmt"

	"go.uber.org/zap"
)

// SourceFile is a file observed in the working tree.
type SourceFile interface {
	// Hash returns the content hash of the file.
	Hash() string
	// ManifestItems extracts the kind and items of the file.
	ManifestItems() (Kind, []Item, error)
}

// Observation is one entry of the tree stream. When Recompute is false the
// file is known to be unchanged and File may be nil.
type Observation struct {
	Path      Path
	File      SourceFile
	Recompute bool
}

// Tree produces the observation stream for an update.
type Tree interface {
	Walk(fn func(Observation) error) error
}

// TreeFunc adapts a function to the Tree interface.
type TreeFunc func(fn func(Observation) error) error

// Walk calls f(fn).
func (f TreeFunc) Walk(fn func(Observation) error) error { return f(fn) }

// Observations is a fixed stream of observations.
type Observations []Observation

// Walk calls fn for every observation in order.
func (o Observations) Walk(fn func(Observation) error) error {
	for _, obs := range o {
		if err := fn(obs); err != nil {
			return err
		}
	}
	return nil
}

type indexWrite struct {
	path  Path
	kind  Kind
	items []Item
}

type indexRemoval struct {
	path Path
	kind Kind
}

// updatePlan collects every mutation of one pass. Nothing is applied to the
// store until the whole stream has been consumed without error.
type updatePlan struct {
	seen     map[Path]struct{}
	staged   []StagedItem
	removals []indexRemoval
	writes   []indexWrite
	records  map[Path]FileRecord
	deleted  []Path
	changed  bool
	graph    bool
}

// Update merges the observation stream into the store and reports whether
// anything changed. Paths indexed before the pass but absent from the stream
// are removed. If the stream or an extraction fails the store is left as it was.
func (s *Store) Update(tree Tree) (bool, error) {
	plan := &updatePlan{
		seen:    make(map[Path]struct{}),
		records: make(map[Path]FileRecord),
	}

	if err := tree.Walk(func(obs Observation) error {
		return s.observe(plan, obs)
	}); err != nil {
		return false, err
	}

	s.planDeletions(plan)

	var res Resolution
	if plan.graph {
		res = ResolveReferences(plan.staged)
	}

	s.apply(plan, res)

	s.logger.Debug("Manifest updated",
		zap.Bool("changed", plan.changed),
		zap.Int("seen", len(plan.seen)),
		zap.Int("written", len(plan.records)),
		zap.Int("deleted", len(plan.deleted)),
		zap.Bool("references_resolved", plan.graph),
	)

	return plan.changed, nil
}

func (s *Store) observe(plan *updatePlan, obs Observation) error {
	p := obs.Path
	if p.IsRoot() {
		return fmt.Errorf("%w: observation without a path", ErrPrecondition)
	}
	if _, dup := plan.seen[p]; dup {
		return fmt.Errorf("%w: %s observed more than once", ErrPrecondition, p)
	}
	plan.seen[p] = struct{}{}

	old, known := s.records[p]

	if !obs.Recompute {
		if !known {
			return fmt.Errorf("%w: %s is not in the manifest and cannot be skipped", ErrPrecondition, p)
		}
		if old.Kind.IsComparison() {
			return s.stageStored(plan, p, old)
		}
		return nil
	}

	if obs.File == nil {
		return fmt.Errorf("%w: %s has no source file to recompute", ErrPrecondition, p)
	}

	hash := obs.File.Hash()
	if known && old.Hash == hash {
		if old.Kind.IsComparison() {
			return s.stageStored(plan, p, old)
		}
		return nil
	}

	// New or changed from here on.
	kind, items, err := extract(p, obs.File)
	if err != nil {
		return err
	}
	if known && kind != old.Kind {
		plan.removals = append(plan.removals, indexRemoval{path: p, kind: old.Kind})
		if old.Kind.IsComparison() {
			plan.graph = true
		}
	}

	if kind.IsComparison() {
		for _, item := range items {
			plan.staged = append(plan.staged, StagedItem{Item: item, Hash: hash})
		}
		plan.graph = true
	} else {
		plan.writes = append(plan.writes, indexWrite{path: p, kind: kind, items: items})
	}

	plan.records[p] = FileRecord{Hash: hash, Kind: kind}
	plan.changed = true
	return nil
}

// stageStored stages the stored items of an unchanged comparison path.
func (s *Store) stageStored(plan *updatePlan, p Path, rec FileRecord) error {
	items, _, err := s.indices[rec.Kind].Get(p)
	if err != nil {
		return err
	}
	for _, item := range items {
		plan.staged = append(plan.staged, StagedItem{Item: item, Hash: rec.Hash})
	}
	return nil
}

// planDeletions selects every previously known path that was not observed.
func (s *Store) planDeletions(plan *updatePlan) {
	prev := s.indexedPaths()
	for p := range s.records {
		prev[p] = struct{}{}
	}

	for p := range prev {
		if _, ok := plan.seen[p]; ok {
			continue
		}
		plan.deleted = append(plan.deleted, p)
		plan.changed = true
		if rec, ok := s.records[p]; ok && rec.Kind.IsComparison() {
			plan.graph = true
		}
	}
	sortPaths(plan.deleted)
}

func (s *Store) apply(plan *updatePlan, res Resolution) {
	for _, r := range plan.removals {
		s.indices[r.kind].Delete(r.path)
	}
	for _, w := range plan.writes {
		s.indices[w.kind].Set(w.path, w.items)
	}
	for p, rec := range plan.records {
		s.records[p] = rec
	}

	// Record-less entries are removed from every index, so a comparison index
	// can change here without a graph pass.
	comparisonTouched := false
	for _, p := range plan.deleted {
		if rec, ok := s.records[p]; ok {
			delete(s.records, p)
			s.indices[rec.Kind].Delete(p)
			continue
		}
		for k, idx := range s.indices {
			if idx.Delete(p) && k.IsComparison() {
				comparisonTouched = true
			}
		}
	}

	if !plan.graph {
		if comparisonTouched {
			s.invalidateReferences()
		}
		return
	}

	roots := s.indices[KindReftest]
	nodes := s.indices[KindReftestNode]
	roots.Clear()
	nodes.Clear()
	for p, items := range res.Roots {
		roots.Set(p, items)
	}
	for p, items := range res.References {
		nodes.Set(p, items)
	}
	for p, rec := range res.Changed {
		s.records[p] = rec
	}
	s.setReferences(res.ByURL)
}

// extract runs the extractor and checks that its output belongs to p.
func extract(p Path, file SourceFile) (Kind, []Item, error) {
	kind, items, err := file.ManifestItems()
	if err != nil {
		return "", nil, fmt.Errorf("extract %s: %w", p, err)
	}
	if !kind.Valid() {
		return "", nil, fmt.Errorf("%w: %s extracted unknown kind %q", ErrPrecondition, p, kind)
	}
	for _, item := range items {
		if item.kind != kind {
			return "", nil, fmt.Errorf("%w: %s extracted a %s item for kind %s", ErrPrecondition, p, item.kind, kind)
		}
		if item.path != p {
			return "", nil, fmt.Errorf("%w: %s extracted an item for %s", ErrPrecondition, p, item.path)
		}
		if kind.HasURL() && (item.url == "" || item.url[0] != '/') {
			return "", nil, fmt.Errorf("%w: %s extracted url %q without a leading slash", ErrPrecondition, p, item.url)
		}
	}
	return kind, items, nil
}
