package manifest

// StagedItem is a comparison item paired with the hash of its file.
type StagedItem struct {
	Item Item
	Hash string
}

// Resolution is the partition of a staged comparison set.
type Resolution struct {
	// Roots holds uncited items as reftest variants, by path.
	Roots map[Path][]Item
	// References holds cited items as reftest_node variants, by path.
	References map[Path][]Item
	// Changed holds the file records of paths whose items switched variant.
	Changed map[Path]FileRecord
	// ByURL maps every item URL to its resolved item.
	ByURL map[string]Item
}

// ResolveReferences splits staged comparison items into roots and references.
// An item is a reference when another staged item cites its URL, whatever
// references it holds itself.
func ResolveReferences(staged []StagedItem) Resolution {
	// URL -> number of citations from items with a different URL.
	inbound := make(map[string]int)
	for _, s := range staged {
		for _, ref := range s.Item.references {
			if ref.URL == s.Item.url {
				continue
			}
			inbound[ref.URL]++
		}
	}

	res := Resolution{
		Roots:      make(map[Path][]Item),
		References: make(map[Path][]Item),
		Changed:    make(map[Path]FileRecord),
		ByURL:      make(map[string]Item, len(staged)),
	}

	for _, s := range staged {
		item := s.Item
		if inbound[item.url] > 0 {
			if item.kind != KindReftestNode {
				item = item.ToNode()
				res.Changed[item.path] = FileRecord{Hash: s.Hash, Kind: KindReftestNode}
			}
			res.References[item.path] = append(res.References[item.path], item)
		} else {
			if item.kind != KindReftest {
				item = item.ToRoot()
				res.Changed[item.path] = FileRecord{Hash: s.Hash, Kind: KindReftest}
			}
			res.Roots[item.path] = append(res.Roots[item.path], item)
		}
		res.ByURL[item.url] = item
	}

	for p, items := range res.Roots {
		res.Roots[p] = normalizeItems(items)
	}
	for p, items := range res.References {
		res.References[p] = normalizeItems(items)
	}
	return res
}
