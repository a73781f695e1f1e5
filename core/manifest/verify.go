package manifest

import (
	"fmt"
	"sort"
)

// Problem is one consistency violation found by Verify.
type Problem struct {
	Path    Path   `json:"path"`
	Kind    Kind   `json:"kind,omitempty"`
	Message string `json:"message"`
}

// Verify checks that every indexed path appears in exactly one index and has
// a file record of the same kind, and that every record has an index entry.
// A store loaded with a kind filter reports records for the skipped kinds.
func (s *Store) Verify() []Problem {
	var problems []Problem

	owners := make(map[Path][]Kind)
	for _, k := range Kinds {
		for _, p := range s.indices[k].Paths() {
			owners[p] = append(owners[p], k)
		}
	}

	for p, kinds := range owners {
		if len(kinds) > 1 {
			problems = append(problems, Problem{
				Path:    p,
				Message: fmt.Sprintf("indexed under %d kinds: %v", len(kinds), kinds),
			})
		}
		rec, ok := s.records[p]
		if !ok {
			problems = append(problems, Problem{Path: p, Kind: kinds[0], Message: "no file record"})
			continue
		}
		if !containsKind(kinds, rec.Kind) {
			problems = append(problems, Problem{
				Path:    p,
				Kind:    rec.Kind,
				Message: fmt.Sprintf("file record kind %s does not match index %v", rec.Kind, kinds),
			})
		}
	}

	for p, rec := range s.records {
		if _, ok := owners[p]; !ok {
			problems = append(problems, Problem{Path: p, Kind: rec.Kind, Message: "file record without index entry"})
		}
	}

	sort.Slice(problems, func(i, j int) bool {
		if problems[i].Path != problems[j].Path {
			return problems[i].Path.String() < problems[j].Path.String()
		}
		return problems[i].Message < problems[j].Message
	})
	return problems
}

func containsKind(kinds []Kind, k Kind) bool {
	for _, c := range kinds {
		if c == k {
			return true
		}
	}
	return false
}
