// Package inference is a minimal stand-in for the type-inference engine
// the PIC engine consumes. It owns just enough surface for internal/pic's
// SET specializer to union an observed value's type into a property's
// (or argument/local's) type set, and for the purge path to subscribe to
// recompilation events.
package inference

import "picjit/internal/shape"

// TypeSet is an unordered set of observed value Kinds: the minimal
// per-property/per-slot type set this engine needs, enough to detect
// when a union would widen the set (which is what provokes a
// recompilation).
type TypeSet struct {
	kinds map[shape.Kind]bool
}

// NewTypeSet returns an empty set.
func NewTypeSet() *TypeSet {
	return &TypeSet{kinds: make(map[shape.Kind]bool)}
}

// Has reports whether k has ever been observed.
func (t *TypeSet) Has(k shape.Kind) bool { return t.kinds[k] }

// Empty reports whether nothing has been observed yet. The first
// observation seeds the set rather than widening it, so it never counts
// as recompilation-provoking growth.
func (t *TypeSet) Empty() bool { return len(t.kinds) == 0 }

// Union folds v's kind into the set, reporting whether the set actually
// grew. Growth is what provokes a recompilation, so SET specialization
// bails out when it sees one.
func (t *TypeSet) Union(v shape.Value) (grew bool) {
	if t.kinds[v.Kind] {
		return false
	}
	t.kinds[v.Kind] = true
	return true
}

// Kinds returns every kind observed so far, for diagnostics.
func (t *TypeSet) Kinds() []shape.Kind {
	out := make([]shape.Kind, 0, len(t.kinds))
	for k := range t.kinds {
		out = append(out, k)
	}
	return out
}
