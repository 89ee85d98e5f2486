package pic

import (
	"picjit/internal/inference"
	"picjit/internal/shape"
)

// UpdateSet runs the property-write specializer. When the record is
// type-monitored, the value's inferred type is unioned into typeSet (the
// property's, or a call-object slot's) before any stub is considered; a
// union that triggers a recompilation bails out as Uncacheable without
// touching the PIC.
func UpdateSet(r *Record, oracle shape.Oracle, acc *Access, typeSet *inference.TypeSet, monitor *inference.RecompilationMonitor) Status {
	if r.Disabled {
		return Uncacheable
	}
	if !r.ShouldUpdate() {
		return Uncacheable
	}

	if r.TypeMonitored && typeSet != nil {
		seeding := typeSet.Empty()
		grew := typeSet.Union(acc.Value)
		if monitor != nil {
			// Seeding an empty set is not growth; only widening an
			// established set provokes a recompilation.
			monitor.Sample(acc.Name, grew && !seeding)
			if monitor.Changed() {
				return Uncacheable
			}
		}
	}

	recv := acc.Receiver
	if !recv.IsNative() {
		r.disable(ReasonNonNativeReceiver)
		return Uncacheable
	}

	// Scripted-setter on a call object (arguments/locals of a captured
	// frame).
	if recv.Class == shape.ClassCallObject {
		if idx, ok := recv.CallObjectSlot(acc.Name); ok {
			return r.specializeCallObjectStore(recv, acc.Name, idx)
		}
	}

	if prop, ok := recv.Shape.Lookup(acc.Name); ok {
		if prop.Setter != shape.SetterDefaultKind {
			r.disable(ReasonSetterAboveHolder)
			return Uncacheable
		}
		return r.specializeInPlaceStore(recv, acc.Name, prop.Slot, prop.Fixed)
	}

	// Add-property case: property missing on receiver, or exists only on
	// the prototype with a default setter. A SETNAME bytecode never
	// upgrades to add-property — strict-mode assignment to an undeclared
	// bare name requires a full check this cache cannot model, so such
	// sites are disabled outright rather than specialized.
	if acc.IsSetName {
		r.disable(ReasonStrictAddProperty)
		return Uncacheable
	}
	if holder, hprop, found := oracle.LookupProperty(recv, acc.Name); found && holder != recv {
		if hprop.Setter != shape.SetterDefaultKind {
			r.disable(ReasonSetterAboveHolder)
			return Uncacheable
		}
	}
	return r.specializeAddProperty(oracle, recv, acc.Name, acc.Value)
}

// specializeInPlaceStore handles a property that already exists on the
// receiver itself with a default setter.
func (r *Record) specializeInPlaceStore(recv *shape.Object, name string, slot int, fixed bool) Status {
	bakedShape := recv.Shape.ID()

	eval := func(acc *Access) (shape.Value, bool, error) {
		if acc.Name != name || acc.Receiver.Shape.ID() != bakedShape {
			return shape.Value{}, false, nil
		}
		acc.Receiver.SetSlot(slot, fixed, acc.Value)
		return acc.Value, true, nil
	}

	// The inline path is patched once, and only for the plain case;
	// type-monitored sites and dense-array receivers always go straight
	// to a chained stub.
	if !r.InlinePathPatched && !r.TypeMonitored && recv.Class != shape.ClassDenseArray {
		return r.commitInlineGuard("setprop_inline", recv, eval)
	}

	return r.emitStub("setprop", recv, nil, true, 0, eval)
}

// specializeAddProperty caches a write that adds a new property. It
// requires the receiver be extensible, not in dictionary mode, and every
// prototype link be native — guaranteeing no setter exists above the
// receiver. The initial (pre-transition) shape is the guard value; the
// final shape is baked into the store.
func (r *Record) specializeAddProperty(oracle shape.Oracle, recv *shape.Object, name string, v shape.Value) Status {
	if !oracle.IsExtensible(recv) {
		r.disable(ReasonNotExtensible)
		return Uncacheable
	}
	if recv.Shape.IsDictionary() {
		r.disable(ReasonDictionaryMode)
		return Uncacheable
	}
	for cur := recv.Proto; cur != nil; cur = cur.Proto {
		if !cur.IsNative() {
			r.disable(ReasonNonNativeProtoLink)
			return Uncacheable
		}
	}

	initialShape := recv.Shape
	child, slot, fixed, reallocated := recv.Shape.AddDataProperty(name)
	if reallocated {
		// A transition that reallocates dynamic slots cannot be cached:
		// the stub's store would address storage the guard cannot prove
		// exists on the next receiver of the same initial shape.
		r.disable(ReasonReallocated)
		return Uncacheable
	}

	bakedInitialShape := initialShape.ID()

	eval := func(acc *Access) (shape.Value, bool, error) {
		if acc.Name != name || acc.Receiver.Shape.ID() != bakedInitialShape {
			return shape.Value{}, false, nil
		}
		if grew := acc.Receiver.SetSlot(slot, fixed, acc.Value); grew {
			return shape.Value{}, false, nil
		}
		acc.Receiver.Shape = child
		return acc.Value, true, nil
	}

	return r.emitStub("addprop", recv, nil, true, 0, eval)
}

// specializeCallObjectStore caches a write to an argument or local slot
// of a captured frame's call object.
func (r *Record) specializeCallObjectStore(recv *shape.Object, name string, slot int) Status {
	bakedShape := recv.Shape.ID()

	eval := func(acc *Access) (shape.Value, bool, error) {
		if acc.Name != name || acc.Receiver.Shape.ID() != bakedShape {
			return shape.Value{}, false, nil
		}
		acc.Receiver.SetSlot(slot, false, acc.Value)
		return acc.Value, true, nil
	}

	return r.emitStub("setcallobj", recv, nil, true, 0, eval)
}
