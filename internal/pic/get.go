package pic

import (
	"picjit/internal/asm"
	"picjit/internal/shape"
	"picjit/internal/stublink"
)

// UpdateGet runs the property-read specializer against one observed
// access, attempting to either specialize the record's inline path
// (first eligible hit) or append a new stub to its chain.
func UpdateGet(r *Record, oracle shape.Oracle, acc *Access) Status {
	if r.Disabled {
		return Uncacheable
	}
	if !r.ShouldUpdate() {
		return Uncacheable
	}

	recv := acc.Receiver

	// Primitive string `.length`: no shape to guard, only the value tag.
	if recv.Class != shape.ClassStringObject && recv.Primitive.IsString() && acc.Name == "length" {
		return r.commitGet(stringLengthEval(acc.Name))
	}

	// Dense/slow array `.length`, read out of the elements header.
	if (recv.Class == shape.ClassDenseArray || recv.Class == shape.ClassSlowArray) && acc.Name == "length" {
		return r.commitGet(arrayLengthEval())
	}

	// String-object wrapper `.length`: guard the wrapper's shape, unbox.
	if recv.Class == shape.ClassStringObject && acc.Name == "length" {
		bakedShape := recv.Shape.ID()
		return r.commitGet(stringObjectLengthEval(bakedShape))
	}

	// Any other property read on a string goes through the canonical
	// string prototype, which is baked into the stub.
	if recv.Class == shape.ClassStringObject || recv.Primitive.IsString() {
		if proto := oracle.GetProto(recv); proto != nil {
			if holder, prop, found := oracle.LookupProperty(proto, acc.Name); found {
				return r.specializeSlotLoad(oracle, proto, holder, prop, acc.Name)
			}
		}
		return Uncacheable
	}

	// Ordinary property lookup through the oracle.
	holder, prop, found := oracle.LookupProperty(recv, acc.Name)
	if !found {
		return Uncacheable
	}
	if !recv.IsNative() {
		r.disable(ReasonNonNativeReceiver)
		return Uncacheable
	}
	if holder != recv && !holder.IsNative() {
		r.disable(ReasonNonNativeHolder)
		return Uncacheable
	}

	// Non-default getters: reject observably side-effecting scripted
	// getters reached through a prototype (the slot address would be
	// holder-specific while the shape guard is receiver-specific),
	// otherwise route to a call-hook stub.
	if prop.Getter != shape.AccessorDefault {
		if prop.Getter == shape.AccessorScriptedSideEffecting && holder != recv {
			r.disable(ReasonUncacheableGetter)
			return Uncacheable
		}
		if !r.CanCallHook {
			r.disable(ReasonCallHookUnsupported)
			return Uncacheable
		}
		return r.specializeGetterCall(oracle, recv, holder, prop)
	}

	return r.specializeSlotLoad(oracle, recv, holder, prop, acc.Name)
}

func stringLengthEval(name string) EvalFunc {
	return func(acc *Access) (shape.Value, bool, error) {
		if !acc.Receiver.Primitive.IsString() || acc.Name != name {
			return shape.Value{}, false, nil
		}
		return shape.Int32(int32(len(acc.Receiver.Primitive.Str()))), true, nil
	}
}

func arrayLengthEval() EvalFunc {
	return func(acc *Access) (shape.Value, bool, error) {
		if acc.Receiver.Class != shape.ClassDenseArray && acc.Receiver.Class != shape.ClassSlowArray {
			return shape.Value{}, false, nil
		}
		if acc.Name != "length" {
			return shape.Value{}, false, nil
		}
		return shape.Int32(int32(acc.Receiver.Length)), true, nil
	}
}

func stringObjectLengthEval(bakedShape uint64) EvalFunc {
	return func(acc *Access) (shape.Value, bool, error) {
		recv := acc.Receiver
		if recv.Class != shape.ClassStringObject || recv.Shape.ID() != bakedShape {
			return shape.Value{}, false, nil
		}
		if acc.Name != "length" {
			return shape.Value{}, false, nil
		}
		return shape.Int32(int32(len(recv.Primitive.Str()))), true, nil
	}
}

// specializeSlotLoad shape-guards the receiver, prototype-guards each
// intervening step, shape-guards the holder if it differs from the
// receiver, then loads the property's slot.
func (r *Record) specializeSlotLoad(oracle shape.Oracle, recv, holder *shape.Object, prop *shape.Property, name string) Status {
	baked, reason, ok := ValidatePrototypeChain(recv, holder)
	if !ok {
		r.disable(reason)
		return Uncacheable
	}

	bakedRecvShape := recv.Shape.ID()
	bakedHolderShape := holder.Shape.ID()
	slot, fixed := prop.Slot, prop.Fixed
	sameObject := holder == recv

	eval := func(acc *Access) (shape.Value, bool, error) {
		if acc.Name != name {
			return shape.Value{}, false, nil
		}
		if acc.Receiver.Shape.ID() != bakedRecvShape {
			return shape.Value{}, false, nil
		}
		var h *shape.Object
		if sameObject {
			h = acc.Receiver
		} else {
			if !CheckPrototypeChain(acc.Receiver, bakedRecvShape, baked, holder) {
				return shape.Value{}, false, nil
			}
			h = oracle.GetProto(acc.Receiver)
			for i := 1; i < len(baked)+1 && h != nil; i++ {
				if h.Shape.ID() == bakedHolderShape {
					break
				}
				h = oracle.GetProto(h)
			}
			if h == nil || h.Shape.ID() != bakedHolderShape {
				return shape.Value{}, false, nil
			}
		}
		return h.Slot(slot, fixed), true, nil
	}

	// The inline fast path is specialized at most once, and only for the
	// simplest case: holder == receiver (no prototype walk) with a
	// default getter (already guaranteed by UpdateGet before this is
	// called). Every later access, even one that lands on the identical
	// shape again, falls through to emitStub because InlinePathPatched
	// is already set.
	if sameObject && !r.InlinePathPatched {
		return r.commitInlineGuard("getprop_inline", recv, eval)
	}

	return r.emitStub("getprop", recv, baked, sameObject, bakedHolderShape, eval)
}

// commitInlineGuard installs the one-shot inline specialization shared by
// GET's plain slot load and SET's in-place write: a real shape-guard
// chain, built the same way emitStub builds a stub's, so a later,
// differently-shaped access can still chain a stub in front of it.
// namePrefix is purely diagnostic.
func (r *Record) commitInlineGuard(namePrefix string, recv *shape.Object, eval EvalFunc) Status {
	pool := r.currentPool()
	b := r.Linker.NewStubBuilder(namePrefix)
	chain := b.NewGuardChain("mismatch", r.SlowLabel)
	b.EmitShapeCompare(chain, recv.Shape.ID())

	if _, err := r.Linker.Finalize(pool, b); err != nil {
		r.disable(ReasonOutOfRange)
		return Errored
	}
	r.addPool(pool)

	r.InlineEval = eval
	r.InlineGuard = chain
	r.InlinePathPatched = true
	return Cacheable
}

// specializeGetterCall emits a call-hook stub for scripted-native or
// native-op getters.
func (r *Record) specializeGetterCall(oracle shape.Oracle, recv, holder *shape.Object, prop *shape.Property) Status {
	baked, reason, ok := ValidatePrototypeChain(recv, holder)
	if !ok {
		r.disable(reason)
		return Uncacheable
	}
	bakedRecvShape := recv.Shape.ID()
	bakedHolderShape := holder.Shape.ID()
	sameObject := holder == recv
	name := prop.Name
	native := prop.Native

	eval := func(acc *Access) (shape.Value, bool, error) {
		if acc.Name != name || acc.Receiver.Shape.ID() != bakedRecvShape {
			return shape.Value{}, false, nil
		}
		if !sameObject && !CheckPrototypeChain(acc.Receiver, bakedRecvShape, baked, holder) {
			return shape.Value{}, false, nil
		}
		if native == nil {
			return shape.Value{}, true, nil
		}
		v, err := native(shape.FromObject(acc.Receiver), nil)
		return v, true, err
	}

	return r.emitStub("getprop_call", recv, baked, sameObject, bakedHolderShape, eval)
}

// commitGet installs a one-shot inline specialization for the length
// fast paths, which never chain: the site stops specializing as soon as
// one attaches.
func (r *Record) commitGet(eval EvalFunc) Status {
	if r.InlinePathPatched {
		return Uncacheable
	}
	r.InlineEval = eval
	r.InlinePathPatched = true
	r.disable(ReasonMonomorphic)
	return Cacheable
}

// emitStub finalizes one stub into the record's stub chain via the
// linker, building the matching codegen artifact alongside the eval
// closure so the two can never drift (see internal/asm's package doc).
// namePrefix is purely diagnostic (the generated IR function's name).
func (r *Record) emitStub(namePrefix string, recv *shape.Object, baked []uint64, sameObject bool, holderShapeID uint64, eval EvalFunc) Status {
	pool := r.currentPool()
	b := r.Linker.NewStubBuilder(namePrefix)

	chain := b.NewGuardChain("mismatch", r.SlowLabel)
	EmitPrototypeGuards(b, chain, recv, baked)

	var secondGuard *asm.GuardPoint
	if !sameObject {
		// The holder's own shape is checked by a distinct guard chain,
		// relinked in lockstep with the primary chain by
		// Stub.relinkMismatchTo.
		secondGuard = b.NewGuardChain("holder_mismatch", r.SlowLabel)
		b.EmitPointerCompare(secondGuard, holderShapeID, holderShapeID)
	}

	blob, err := r.Linker.Finalize(pool, b)
	if err != nil {
		r.disable(ReasonOutOfRange)
		return Errored
	}

	s := &Stub{
		Blob:        blob,
		Pool:        pool,
		Guard:       chain,
		SecondGuard: secondGuard,
		Eval:        eval,
	}
	r.prependStub(s, pool)
	return Cacheable
}

// currentPool lazily allocates this record's single executable pool; real
// PICs may span several pools as code chunks are retired and recompiled,
// but one record only ever writes into its own chunk's pool. Reusing the
// pool across stubs retains it once per reuse, so Purge's one Release per
// recorded reference (record.go's r.pools) always balances.
func (r *Record) currentPool() *stublink.Pool {
	if len(r.pools) > 0 {
		p := r.pools[len(r.pools)-1]
		p.Retain()
		return p
	}
	return r.Linker.NewPool()
}
