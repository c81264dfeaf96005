package document

// DefaultMaxDepth is the search bound used when callers have no better value.
const DefaultMaxDepth = 50

// FindByKey returns every mapping reachable from root that directly owns
// key, in pre-order: a mapping is reported before its descendants are
// searched, sequences are walked in element order and mappings in key order.
//
// The root sits at depth 0 and every mapping or sequence level adds one.
// Nodes deeper than maxDepth are skipped silently.
func FindByKey(root Node, key string, maxDepth int) []*Mapping {
	var out []*Mapping
	findByKey(root, key, 0, maxDepth, &out)
	return out
}

func findByKey(n Node, key string, depth, maxDepth int, out *[]*Mapping) {
	if depth > maxDepth {
		return
	}
	switch typed := n.(type) {
	case *Mapping:
		if typed == nil {
			return
		}
		if typed.Has(key) {
			*out = append(*out, typed)
		}
		for _, k := range typed.keys {
			findByKey(typed.values[k], key, depth+1, maxDepth, out)
		}
	case Sequence:
		for _, e := range typed {
			findByKey(e, key, depth+1, maxDepth, out)
		}
	}
}
