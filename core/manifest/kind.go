package manifest

// Kind identifies the type of a test item and the index it is stored in.
type Kind string

const (
	KindConformanceChecker Kind = "conformancechecker"
	KindManual             Kind = "manual"
	KindReftest            Kind = "reftest"
	KindReftestNode        Kind = "reftest_node"
	KindStub               Kind = "stub"
	KindSupport            Kind = "support"
	KindTestharness        Kind = "testharness"
	KindVisual             Kind = "visual"
	KindWdspec             Kind = "wdspec"
)

// Kinds lists every known kind sorted by name.
var Kinds = []Kind{
	KindConformanceChecker,
	KindManual,
	KindReftest,
	KindReftestNode,
	KindStub,
	KindSupport,
	KindTestharness,
	KindVisual,
	KindWdspec,
}

// ParseKind returns the kind named s.
func ParseKind(s string) (Kind, bool) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	_, ok := ParseKind(string(k))
	return ok
}

// IsComparison reports whether items of this kind take part in the reference graph.
func (k Kind) IsComparison() bool {
	return k == KindReftest || k == KindReftestNode
}

// HasURL reports whether items of this kind are addressable by URL.
func (k Kind) HasURL() bool {
	return k != KindSupport
}
