package pic

import "picjit/internal/shape"

// UpdateBind runs the bind-name specializer: BIND resolves the *binding
// object* for a subsequent name assignment, walking the scope chain from
// the head and shape-guarding each step until reaching the expected
// binding object by pointer equality.
func UpdateBind(r *Record, acc *Access, expected *shape.Object) Status {
	if r.Disabled {
		return Uncacheable
	}
	if !r.ShouldUpdate() {
		return Uncacheable
	}

	head := acc.ScopeChain
	if head == nil || expected == nil {
		return Uncacheable
	}

	var walk []*shape.Object
	cur := head
	for cur != nil && cur != expected {
		if !cur.IsNative() {
			r.disable(ReasonUnsupportedHolder)
			return Uncacheable
		}
		walk = append(walk, cur)
		cur = cur.Proto
	}
	if cur != expected {
		return Uncacheable
	}

	primary, rest := scopeHeadAndRest(walk, expected)
	bakedHeadShape := primary.Shape.ID()
	bakedExpectedShape := expected.Shape.ID()
	steps := len(walk)

	eval := func(acc *Access) (shape.Value, bool, error) {
		if acc.ScopeChain == nil {
			return shape.Value{}, false, nil
		}
		if !walkMatchesFromHead(acc.ScopeChain, bakedHeadShape, rest, bakedExpectedShape, steps) {
			return shape.Value{}, false, nil
		}
		obj := chainHolder(acc.ScopeChain, steps)
		return shape.FromObject(obj), true, nil
	}

	return r.emitStub("bindname", primary, rest, primary == expected, bakedExpectedShape, eval)
}
