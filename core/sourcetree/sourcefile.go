package sourcetree

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"test-manifest/core/manifest"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

var (
	// supportDirs hold helpers at any depth.
	supportDirs = map[string]bool{"resources": true, "support": true}
	// topLevelSupport hold helpers only directly under the root.
	topLevelSupport = map[string]bool{"tools": true, "common": true, "docs": true}
	// markupExts are parsed for test metadata.
	markupExts = map[string]bool{".html": true, ".htm": true, ".xhtml": true, ".xht": true, ".svg": true, ".xml": true}
)

// SourceFile is a file under the tests root. Its content is read only when
// items are extracted.
type SourceFile struct {
	root    string
	path    manifest.Path
	urlBase string
	hash    string
	read    func(name string) ([]byte, error)
}

// NewSourceFile returns the file at rel below root with a precomputed hash.
func NewSourceFile(root string, rel manifest.Path, urlBase, hash string) *SourceFile {
	if urlBase == "" {
		urlBase = manifest.DefaultURLBase
	}
	if !strings.HasSuffix(urlBase, "/") {
		urlBase += "/"
	}
	return &SourceFile{root: root, path: rel, urlBase: urlBase, hash: hash, read: os.ReadFile}
}

// Path returns the path relative to the tests root.
func (f *SourceFile) Path() manifest.Path { return f.path }

// Hash returns the content hash.
func (f *SourceFile) Hash() string { return f.hash }

// URL returns the URL the file is served at.
func (f *SourceFile) URL() string {
	return f.urlBase + f.path.String()
}

// ManifestItems classifies the file and extracts its items.
func (f *SourceFile) ManifestItems() (manifest.Kind, []manifest.Item, error) {
	segments := f.path.Segments()
	if len(segments) == 0 {
		return "", nil, fmt.Errorf("%w: source file without a path", manifest.ErrPrecondition)
	}
	name := segments[len(segments)-1]
	dirs := segments[:len(segments)-1]

	if f.isSupport(name, dirs) {
		return manifest.KindSupport, []manifest.Item{manifest.NewSupport(f.path)}, nil
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	if len(dirs) > 0 && dirs[0] == "webdriver" {
		if ext == ".py" && strings.HasPrefix(name, "test_") {
			return f.single(manifest.KindWdspec, f.URL())
		}
		return f.support()
	}

	if len(dirs) > 0 && dirs[0] == "conformance-checkers" {
		if markupExts[ext] {
			return f.single(manifest.KindConformanceChecker, f.URL())
		}
		return f.support()
	}

	if ext == ".js" {
		return f.scriptItems(stem)
	}

	if !markupExts[ext] {
		return f.support()
	}

	switch {
	case strings.HasSuffix(stem, "-manual"):
		return f.single(manifest.KindManual, f.URL())
	case strings.HasSuffix(stem, "-stub"):
		return f.single(manifest.KindStub, f.URL())
	case strings.HasSuffix(stem, "-visual"):
		return f.single(manifest.KindVisual, f.URL())
	}

	data, err := f.read(filepath.Join(f.root, f.path.OSPath()))
	if err != nil {
		return "", nil, fmt.Errorf("read %s: %w", f.path, err)
	}
	meta, err := parseMarkup(data)
	if err != nil {
		return "", nil, fmt.Errorf("parse %s: %w", f.path, err)
	}

	u := f.URL()
	switch {
	case len(meta.references) > 0:
		refs, err := resolveReferences(u, meta.references)
		if err != nil {
			return "", nil, fmt.Errorf("parse %s: %w", f.path, err)
		}
		var opts []manifest.Option
		if meta.timeout != "" {
			opts = append(opts, manifest.WithTimeout(meta.timeout))
		}
		if meta.viewportSize != "" {
			opts = append(opts, manifest.WithViewportSize(meta.viewportSize))
		}
		if meta.dpi != "" {
			opts = append(opts, manifest.WithDPI(meta.dpi))
		}
		return manifest.KindReftest, []manifest.Item{manifest.NewReftest(f.path, u, refs, opts...)}, nil
	case meta.testharness:
		var opts []manifest.Option
		if meta.timeout != "" {
			opts = append(opts, manifest.WithTimeout(meta.timeout))
		}
		if meta.testdriver {
			opts = append(opts, manifest.WithTestdriver())
		}
		return f.single(manifest.KindTestharness, u, opts...)
	default:
		return f.support()
	}
}

func (f *SourceFile) isSupport(name string, dirs []string) bool {
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
		return true
	}
	if len(dirs) > 0 && topLevelSupport[dirs[0]] {
		return true
	}
	for _, d := range dirs {
		if supportDirs[d] || strings.HasPrefix(d, ".") {
			return true
		}
	}
	return false
}

func (f *SourceFile) support() (manifest.Kind, []manifest.Item, error) {
	return manifest.KindSupport, []manifest.Item{manifest.NewSupport(f.path)}, nil
}

func (f *SourceFile) single(kind manifest.Kind, u string, opts ...manifest.Option) (manifest.Kind, []manifest.Item, error) {
	return kind, []manifest.Item{manifest.NewTest(kind, f.path, u, opts...)}, nil
}

// scriptItems expands multi-global scripts into their generated test pages:
// x.any.js runs as x.any.html and x.any.worker.html, x.window.js as
// x.window.html and x.worker.js as x.worker.html.
func (f *SourceFile) scriptItems(stem string) (manifest.Kind, []manifest.Item, error) {
	variant := filepath.Ext(stem)
	if variant != ".any" && variant != ".window" && variant != ".worker" {
		return f.support()
	}

	data, err := f.read(filepath.Join(f.root, f.path.OSPath()))
	if err != nil {
		return "", nil, fmt.Errorf("read %s: %w", f.path, err)
	}
	meta := parseScriptMeta(data)

	var opts []manifest.Option
	if meta.timeout != "" {
		opts = append(opts, manifest.WithTimeout(meta.timeout))
	}

	base := strings.TrimSuffix(f.URL(), ".js")
	var urls []string
	switch variant {
	case ".any":
		urls = []string{base + ".html", base + ".worker.html"}
	default:
		urls = []string{base + ".html"}
	}

	items := make([]manifest.Item, 0, len(urls)+1)
	for _, u := range urls {
		items = append(items, manifest.NewTest(manifest.KindTestharness, f.path, u, opts...))
	}
	if variant == ".any" && meta.jsshell {
		items = append(items, manifest.NewTest(manifest.KindTestharness, f.path, base+".js", append(opts, manifest.WithJSShell())...))
	}
	return manifest.KindTestharness, items, nil
}

type markupMeta struct {
	references   []manifest.Reference
	timeout      string
	viewportSize string
	dpi          string
	testharness  bool
	testdriver   bool
}

// parseMarkup scans the tags of an HTML, SVG or XML document for test metadata.
func parseMarkup(data []byte) (markupMeta, error) {
	var meta markupMeta

	r, err := charset.NewReader(bytes.NewReader(data), "text/html")
	if err != nil {
		return meta, err
	}

	z := html.NewTokenizer(r)
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}

		name, hasAttr := z.TagName()
		tag := string(name)
		attrs := map[string]string{}
		for hasAttr {
			var k, v []byte
			k, v, hasAttr = z.TagAttr()
			attrs[string(k)] = string(v)
		}

		switch tag {
		case "link":
			for _, rel := range strings.Fields(strings.ToLower(attrs["rel"])) {
				switch rel {
				case "match":
					meta.references = append(meta.references, manifest.Reference{URL: attrs["href"], Relation: manifest.RelationMatch})
				case "mismatch":
					meta.references = append(meta.references, manifest.Reference{URL: attrs["href"], Relation: manifest.RelationMismatch})
				}
			}
		case "meta":
			content := strings.TrimSpace(attrs["content"])
			switch strings.ToLower(attrs["name"]) {
			case "timeout":
				if content == "long" {
					meta.timeout = content
				}
			case "viewport-size":
				meta.viewportSize = content
			case "dpi":
				meta.dpi = content
			}
		case "script":
			src := attrs["src"]
			switch {
			case strings.HasSuffix(src, "/resources/testharness.js"):
				meta.testharness = true
			case strings.HasSuffix(src, "/resources/testdriver.js"):
				meta.testdriver = true
			}
		}
	}

	if err := z.Err(); err != nil && !errors.Is(err, io.EOF) {
		return meta, err
	}
	return meta, nil
}

type scriptMeta struct {
	timeout string
	jsshell bool
}

// parseScriptMeta reads the leading "// META: key=value" comments of a script.
func parseScriptMeta(data []byte) scriptMeta {
	var meta scriptMeta
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		rest, ok := strings.CutPrefix(line, "// META:")
		if !ok {
			break
		}
		key, value, ok := strings.Cut(strings.TrimSpace(rest), "=")
		if !ok {
			continue
		}
		switch strings.TrimSpace(key) {
		case "timeout":
			if strings.TrimSpace(value) == "long" {
				meta.timeout = "long"
			}
		case "global":
			for _, g := range strings.Split(value, ",") {
				if strings.TrimSpace(g) == "jsshell" {
					meta.jsshell = true
				}
			}
		}
	}
	return meta
}

// resolveReferences resolves reference hrefs against the test URL.
func resolveReferences(testURL string, refs []manifest.Reference) ([]manifest.Reference, error) {
	base, err := url.Parse(testURL)
	if err != nil {
		return nil, err
	}
	out := make([]manifest.Reference, 0, len(refs))
	for _, ref := range refs {
		href, err := url.Parse(strings.TrimSpace(ref.URL))
		if err != nil {
			return nil, fmt.Errorf("reference %q: %w", ref.URL, err)
		}
		out = append(out, manifest.Reference{URL: base.ResolveReference(href).String(), Relation: ref.Relation})
	}
	return out, nil
}
