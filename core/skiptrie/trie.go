package skiptrie

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

var (
	// ErrConfiguration is returned by Build for malformed include/exclude entries.
	ErrConfiguration = errors.New("invalid skip configuration")

	// ErrPrecondition is returned by IsSkippedItem for URLs that are not absolute paths.
	ErrPrecondition = errors.New("precondition violated")
)

// URLItem is anything that may expose a URL. Items without a URL are never skipped.
type URLItem interface {
	URL() (string, bool)
}

// Node is a trie node holding a skip verdict and its children.
// The root node is the trie itself.
type Node struct {
	skip     bool
	children map[string]*Node
	// order keeps children in insertion order so glob matching is first-match-wins.
	order []string
	globs map[string]glob.Glob
}

type entry struct {
	path string
	skip bool
}

func newNode(skip bool) *Node {
	return &Node{skip: skip}
}

// Build constructs a trie from include and exclude path patterns.
// The empty string sets the root verdict.
func Build(include, exclude []string) (*Node, error) {
	entries := make([]entry, 0, len(include)+len(exclude))
	seen := make(map[string]bool, len(include)+len(exclude))

	for _, p := range include {
		if err := validate(p); err != nil {
			return nil, err
		}
		seen[p] = false
		entries = append(entries, entry{path: p, skip: false})
	}
	for _, p := range exclude {
		if err := validate(p); err != nil {
			return nil, err
		}
		if skip, ok := seen[p]; ok && !skip {
			return nil, fmt.Errorf("%w: %q is both included and excluded", ErrConfiguration, p)
		}
		entries = append(entries, entry{path: p, skip: true})
	}

	// Shallow entries first so deeper entries inherit their verdicts.
	sort.SliceStable(entries, func(i, j int) bool {
		return strings.Count(entries[i].path, "/") < strings.Count(entries[j].path, "/")
	})

	root := newNode(false)
	for _, e := range entries {
		if e.path == "" {
			root.skip = e.skip
			continue
		}

		node := root
		for _, component := range strings.Split(e.path, "/") {
			node = node.child(component)
		}
		node.skip = e.skip
	}

	return root, nil
}

func validate(p string) error {
	if p == "" {
		return nil
	}
	if strings.HasPrefix(p, "/") {
		return fmt.Errorf("%w: %q must be relative", ErrConfiguration, p)
	}
	for _, component := range strings.Split(p, "/") {
		if component == "" {
			return fmt.Errorf("%w: %q contains an empty segment", ErrConfiguration, p)
		}
		if isGlob(component) {
			if _, err := compilePattern(component); err != nil {
				return fmt.Errorf("%w: %q is not a valid pattern: %v", ErrConfiguration, component, err)
			}
		}
	}
	return nil
}

// child returns the named child, creating it with the current verdict if absent.
func (n *Node) child(name string) *Node {
	if n.children == nil {
		n.children = make(map[string]*Node)
	}
	if c, ok := n.children[name]; ok {
		return c
	}
	c := newNode(n.skip)
	n.children[name] = c
	n.order = append(n.order, name)
	if isGlob(name) {
		if g, err := compilePattern(name); err == nil {
			if n.globs == nil {
				n.globs = make(map[string]glob.Glob)
			}
			n.globs[name] = g
		}
	}
	return c
}

// Skip reports the node's own verdict.
func (n *Node) Skip() bool {
	return n.skip
}

// Len returns the number of direct children.
func (n *Node) Len() int {
	return len(n.children)
}

// IsSkippedPath reports whether a "/"-separated relative path is skipped.
func (n *Node) IsSkippedPath(path string) bool {
	if len(n.children) == 0 {
		return n.skip
	}

	components := strings.Split(path, "/")
	node, ok := n.walkDirs(components[:len(components)-1])
	if !ok {
		return node.skip
	}

	if hit, found := node.matchBasename(components[len(components)-1]); found {
		return hit.skip
	}
	return node.skip
}

// IsEntirelySkippedPath reports whether path and everything below it is skipped.
// It is used to prune whole directories.
func (n *Node) IsEntirelySkippedPath(path string) bool {
	node := n
	if path != "" {
		var ok bool
		node, ok = n.walkDirs(strings.Split(path, "/"))
		if !ok {
			return node.skip
		}
	}

	if !node.skip {
		return false
	}

	// Conjunction over the subtree; order does not matter.
	stack := make([]*Node, 0, len(node.children))
	for _, c := range node.children {
		stack = append(stack, c)
	}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !cur.skip {
			return false
		}
		for _, c := range cur.children {
			stack = append(stack, c)
		}
	}
	return true
}

// IsSkippedItem reports whether an item is skipped based on its URL.
// Query and fragment are considered part of the basename, most specific first.
func (n *Node) IsSkippedItem(item URLItem) (bool, error) {
	if len(n.children) == 0 {
		return n.skip, nil
	}

	rawURL, ok := item.URL()
	if !ok {
		return false, nil
	}
	if !strings.HasPrefix(rawURL, "/") {
		return false, fmt.Errorf("%w: url %q does not start with /", ErrPrecondition, rawURL)
	}

	urlPath, query, fragment := splitURL(rawURL)
	components := strings.Split(urlPath[1:], "/")

	node, found := n.walkDirs(components[:len(components)-1])
	if !found {
		return node.skip, nil
	}

	basenames := []string{components[len(components)-1]}
	if query != "" {
		basenames = append(basenames, basenames[len(basenames)-1]+"?"+query)
	}
	if fragment != "" {
		basenames = append(basenames, basenames[len(basenames)-1]+"#"+fragment)
	}

	for i := len(basenames) - 1; i >= 0; i-- {
		if hit, ok := node.matchBasename(basenames[i]); ok {
			return hit.skip, nil
		}
	}
	return node.skip, nil
}

// walkDirs follows components literally. When a component is missing it returns
// the deepest node reached and false.
func (n *Node) walkDirs(components []string) (*Node, bool) {
	node := n
	for _, component := range components {
		next, ok := node.children[component]
		if !ok {
			return node, false
		}
		node = next
	}
	return node, true
}

// matchBasename looks up an exact child first, then the first glob child that matches.
func (n *Node) matchBasename(basename string) (*Node, bool) {
	if c, ok := n.children[basename]; ok {
		return c, true
	}
	for _, key := range n.order {
		if g, ok := n.globs[key]; ok && g.Match(basename) {
			return n.children[key], true
		}
	}
	return nil, false
}

func isGlob(s string) bool {
	return strings.ContainsAny(s, "*?[")
}

// braceEscaper quotes the characters glob treats specially but shell
// wildcards take literally.
var braceEscaper = strings.NewReplacer(`\`, `\\`, "{", `\{`, "}", `\}`)

// compilePattern compiles a shell-style wildcard. With no separators, * and ?
// match any character including "/", as in query and fragment candidates.
func compilePattern(pattern string) (glob.Glob, error) {
	return glob.Compile(braceEscaper.Replace(pattern))
}

// splitURL separates path, query and fragment without decoding any of them.
func splitURL(raw string) (path, query, fragment string) {
	path = raw
	if i := strings.IndexByte(path, '#'); i >= 0 {
		fragment = path[i+1:]
		path = path[:i]
	}
	if i := strings.IndexByte(path, '?'); i >= 0 {
		query = path[i+1:]
		path = path[:i]
	}
	return path, query, fragment
}
