package pic

import "picjit/internal/shape"

// UpdateName runs the scope-name specializer for NAME (scope chain
// starts at acc.ScopeChain, the active frame's head) and XNAME (scope
// chain starts at an explicit scope already on the stack — the caller
// passes that scope as acc.ScopeChain either way; NAME/XNAME differ only
// in where the caller got that pointer from, not in how the specializer
// walks it).
func UpdateName(r *Record, oracle shape.Oracle, acc *Access) Status {
	if r.Disabled {
		return Uncacheable
	}
	if !r.ShouldUpdate() {
		return Uncacheable
	}

	head := acc.ScopeChain
	if head == nil {
		return Uncacheable
	}

	var walk []*shape.Object
	cur := head
	for {
		if !cur.IsNative() {
			r.disable(ReasonUnsupportedHolder)
			return Uncacheable
		}
		if _, ok := cur.Shape.Lookup(acc.Name); ok {
			break
		}
		next := oracle.GetProto(cur)
		if next == nil {
			// Scope lookup exceeded the chain: fall to the slow path
			// without disabling — a later access may resolve differently.
			return Uncacheable
		}
		walk = append(walk, cur)
		cur = next
	}
	holder := cur

	switch holder.Class {
	case shape.ClassGlobalObject:
		return r.specializeScopeLoad(walk, holder, acc.Name, acc.NextOpIsTypeof)
	case shape.ClassCallObject:
		idx, ok := holder.CallObjectSlot(acc.Name)
		if !ok {
			r.disable(ReasonUnsupportedHolder)
			return Uncacheable
		}
		return r.specializeScopeLoadSlot(walk, holder, acc.Name, idx, acc.NextOpIsTypeof)
	default:
		r.disable(ReasonUnsupportedHolder)
		return Uncacheable
	}
}

// scopeHeadAndRest splits a walk list (intervening scopes strictly
// between the head and the holder, plus the head itself as element 0 when
// non-empty) into the object the primary guard bakes against and the ids
// of the remaining steps, each checked by its own pointer compare sharing
// the primary guard's exit.
func scopeHeadAndRest(walk []*shape.Object, holder *shape.Object) (primary *shape.Object, rest []uint64) {
	if len(walk) == 0 {
		return holder, nil
	}
	rest = make([]uint64, len(walk)-1)
	for i, o := range walk[1:] {
		rest[i] = o.Shape.ID()
	}
	return walk[0], rest
}

// walkMatchesFromHead re-verifies every scope step's shape starting from
// the current head, the dispatch-semantics mirror of the codegen's
// per-step shape guards. steps is the number of enclosing-scope links
// between the head and the holder; zero means the head itself holds the
// name, so the head's own shape check doubles as the holder check.
func walkMatchesFromHead(head *shape.Object, bakedHeadShape uint64, bakedRest []uint64, bakedHolderShape uint64, steps int) bool {
	if head == nil || head.Shape.ID() != bakedHeadShape {
		return false
	}
	if steps == 0 {
		return true
	}
	cur := head.Proto
	for _, id := range bakedRest {
		if cur == nil || cur.Shape.ID() != id {
			return false
		}
		cur = cur.Proto
	}
	return cur != nil && cur.Shape.ID() == bakedHolderShape
}

func chainHolder(head *shape.Object, steps int) *shape.Object {
	cur := head
	for i := 0; i < steps; i++ {
		cur = cur.Proto
	}
	return cur
}

// specializeScopeLoad handles a global-object holder: shape-guard each
// scope step, shape-guard the holder, load its slot.
func (r *Record) specializeScopeLoad(walk []*shape.Object, holder *shape.Object, name string, typeofNext bool) Status {
	prop, _ := holder.Shape.Lookup(name)
	slot, fixed := prop.Slot, prop.Fixed
	primary, rest := scopeHeadAndRest(walk, holder)
	bakedHeadShape := primary.Shape.ID()
	bakedHolderShape := holder.Shape.ID()
	steps := len(walk)

	eval := func(acc *Access) (shape.Value, bool, error) {
		if acc.Name != name || acc.ScopeChain == nil {
			return shape.Value{}, false, nil
		}
		if !walkMatchesFromHead(acc.ScopeChain, bakedHeadShape, rest, bakedHolderShape, steps) {
			return shape.Value{}, false, nil
		}
		h := chainHolder(acc.ScopeChain, steps)
		v := h.Slot(slot, fixed)
		if typeofNext && v.IsUndefined() {
			// typeof-undefined sentinel: the bytecode dispatcher can
			// evaluate `typeof missingName` without re-resolving the
			// name or throwing.
			return shape.String("undefined"), true, nil
		}
		return v, true, nil
	}

	return r.emitStub("name", primary, rest, primary == holder, bakedHolderShape, eval)
}

// specializeScopeLoadSlot handles a call-object holder, reusing the
// reserved-slot formula the SET side uses for call objects.
func (r *Record) specializeScopeLoadSlot(walk []*shape.Object, holder *shape.Object, name string, slot int, typeofNext bool) Status {
	primary, rest := scopeHeadAndRest(walk, holder)
	bakedHeadShape := primary.Shape.ID()
	bakedHolderShape := holder.Shape.ID()
	steps := len(walk)

	eval := func(acc *Access) (shape.Value, bool, error) {
		if acc.Name != name || acc.ScopeChain == nil {
			return shape.Value{}, false, nil
		}
		if !walkMatchesFromHead(acc.ScopeChain, bakedHeadShape, rest, bakedHolderShape, steps) {
			return shape.Value{}, false, nil
		}
		h := chainHolder(acc.ScopeChain, steps)
		v := h.Slot(slot, false)
		if typeofNext && v.IsUndefined() {
			return shape.String("undefined"), true, nil
		}
		return v, true, nil
	}

	return r.emitStub("name_call", primary, rest, primary == holder, bakedHolderShape, eval)
}
