// Package skiptrie decides whether paths and test URLs are skipped.
//
// A trie is built once from an include list and an exclude list of
// "/"-separated path patterns and is never mutated afterwards. Every node
// carries a skip verdict; nodes created while inserting a deeper entry inherit
// the verdict their parent had at that moment, so shallow entries establish
// defaults that deeper entries refine.
//
// # Matching
//
// Directory segments are matched literally. The final segment (basename) is
// matched literally first and then against glob children in insertion order,
// the first matching glob winning. Globs use shell-style wildcards (*, ?,
// [...]) and are case-sensitive.
//
// # Usage
//
//	trie, err := skiptrie.Build([]string{"a/b"}, []string{"a"})
//	trie.IsSkippedPath("a/b/c") // false
//	trie.IsSkippedPath("a/x")   // true
package skiptrie
