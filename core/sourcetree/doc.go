// Package sourcetree turns a directory of tests into manifest observations.
//
// Walker lists the files below a tests root, hashes them in parallel with the
// git blob algorithm and reports them in path order. With an MtimeCache,
// files whose modification time and size did not change are reported without
// hashing.
//
// SourceFile classifies a file and extracts its items:
//
//   - support: files under resources/ or support/ (any depth), under tools/,
//     common/ or docs/ at the top level, names starting with "." or "_", and
//     anything that is not a test
//   - manual, stub, visual: markup files named *-manual, *-stub, *-visual
//   - wdspec: webdriver/**/test_*.py
//   - conformancechecker: markup under conformance-checkers/
//   - testharness: markup loading /resources/testharness.js, and the
//     multi-global scripts *.any.js, *.window.js and *.worker.js
//   - reftest: markup with <link rel=match> or <link rel=mismatch>
package sourcetree
