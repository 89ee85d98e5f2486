package pic

import "picjit/internal/shape"

// supportsFloatISA is a compile-time stand-in for the target ISA's
// floating-point support check: without it, float-element typed arrays
// must disable the IC. Every ISA Go targets natively supports IEEE
// floats, so this is always true here; it is a named hook rather than a
// bare `true` so a future cross-compiled soft-float target has somewhere
// to plug in a real check.
const supportsFloatISA = true

// UpdateGetElem runs the indexed-read half of the element specializer:
// string-keyed reads fall back to a property-style stub that also guards
// the key, and typed arrays get a monomorphic bounds-checked load.
func UpdateGetElem(r *Record, oracle shape.Oracle, acc *Access) Status {
	if r.Disabled {
		return Uncacheable
	}
	if !r.ShouldUpdate() {
		return Uncacheable
	}

	recv := acc.Receiver
	if recv == nil {
		return Uncacheable
	}

	if acc.Key.IsString() && !isArrayIndex(acc.Key.Str()) {
		return r.specializeGetElemStringKey(oracle, recv, acc.Key.Str())
	}

	if recv.Class == shape.ClassTypedArray {
		return r.specializeGetElemTypedArray(recv)
	}

	return Uncacheable
}

// UpdateSetElem runs the indexed-write half: dense-array hole fill and
// typed-array stores, both monomorphic.
func UpdateSetElem(r *Record, acc *Access) Status {
	if r.Disabled {
		return Uncacheable
	}
	if !r.ShouldUpdate() {
		return Uncacheable
	}

	recv := acc.Receiver
	if recv == nil {
		return Uncacheable
	}

	if recv.Class == shape.ClassTypedArray {
		return r.specializeSetElemTypedArray(recv)
	}

	if recv.Class == shape.ClassDenseArray && acc.Key.IsNumber() && acc.Key.Int32() >= 0 {
		return r.specializeSetElemDenseHoleFill(recv)
	}

	return Uncacheable
}

func isArrayIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// specializeGetElemStringKey builds a GETPROP-like stub for a non-numeric
// atom key. Each such stub's dispatch checks that the key is a string
// equal to the baked atom. String-keyed stubs share the record's single
// stub chain with every other stub, and the generated code carries no
// key-type or key-identity guard; only the receiver and prototype
// guards are emitted.
func (r *Record) specializeGetElemStringKey(oracle shape.Oracle, recv *shape.Object, key string) Status {
	holder, prop, found := oracle.LookupProperty(recv, key)
	if !found {
		return Uncacheable
	}
	if !recv.IsNative() || !holder.IsNative() {
		r.disable(ReasonNonNativeHolder)
		return Uncacheable
	}
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
		// Key-type and key-identity check, repeated by every
		// string-keyed stub.
		if !acc.Key.IsString() || acc.Key.Str() != key {
			return shape.Value{}, false, nil
		}
		if acc.Receiver.Shape.ID() != bakedRecvShape {
			return shape.Value{}, false, nil
		}
		h := acc.Receiver
		if !sameObject {
			if !CheckPrototypeChain(acc.Receiver, bakedRecvShape, baked, holder) {
				return shape.Value{}, false, nil
			}
			h = chainWalkTo(acc.Receiver, bakedHolderShape)
			if h == nil {
				return shape.Value{}, false, nil
			}
		}
		return h.Slot(slot, fixed), true, nil
	}

	return r.emitStub("getelem_str", recv, baked, sameObject, bakedHolderShape, eval)
}

func chainWalkTo(start *shape.Object, targetShape uint64) *shape.Object {
	for cur := start; cur != nil; cur = cur.Proto {
		if cur.Shape.ID() == targetShape {
			return cur
		}
	}
	return nil
}

// specializeGetElemTypedArray guards the receiver's shape (which also
// guards its typed-array class), bounds-checks the key, and loads the
// element. Typed-array element stubs are monomorphic: after one attaches,
// the site stops specializing.
func (r *Record) specializeGetElemTypedArray(recv *shape.Object) Status {
	if recv.TAType.IsFloat() && !supportsFloatISA {
		r.disable(ReasonFloatUnsupported)
		return Uncacheable
	}
	bakedShape := recv.Shape.ID()
	elemType := recv.TAType

	eval := func(acc *Access) (shape.Value, bool, error) {
		if acc.Receiver.Shape.ID() != bakedShape || acc.Receiver.Class != shape.ClassTypedArray {
			return shape.Value{}, false, nil
		}
		if !acc.Key.IsNumber() {
			return shape.Value{}, false, nil
		}
		idx := int(acc.Key.Int32())
		if idx < 0 || idx >= len(acc.Receiver.TABuffer)/elemType.ByteSize() {
			return shape.Undefined(), true, nil
		}
		return acc.Receiver.LoadElement(idx, elemType), true, nil
	}

	status := r.emitStub("getelem_ta", recv, nil, true, 0, eval)
	if status == Cacheable {
		r.disable(ReasonMonomorphic)
	}
	return status
}

// specializeSetElemDenseHoleFill guards every prototype's shape (cheaper
// than testing indexed-ness per write), bounds-checks against initialized
// length and capacity, bumps initialized length (and length), and stores.
// Monomorphic: the site stops specializing after one attach.
func (r *Record) specializeSetElemDenseHoleFill(recv *shape.Object) Status {
	var protoShapes []uint64
	for cur := recv.Proto; cur != nil; cur = cur.Proto {
		if !cur.IsNative() {
			r.disable(ReasonNonNativeProtoLink)
			return Uncacheable
		}
		protoShapes = append(protoShapes, cur.Shape.ID())
	}
	bakedShape := recv.Shape.ID()

	eval := func(acc *Access) (shape.Value, bool, error) {
		obj := acc.Receiver
		if obj.Shape.ID() != bakedShape || obj.Class != shape.ClassDenseArray {
			return shape.Value{}, false, nil
		}
		p := obj.Proto
		for _, id := range protoShapes {
			if p == nil || p.Shape.ID() != id {
				return shape.Value{}, false, nil
			}
			p = p.Proto
		}
		if p != nil {
			return shape.Value{}, false, nil
		}
		if !acc.Key.IsNumber() {
			return shape.Value{}, false, nil
		}
		idx := int(acc.Key.Int32())
		if idx < 0 || idx > obj.InitLength || idx >= cap(obj.Elements) {
			return shape.Value{}, false, nil
		}
		if idx == len(obj.Elements) {
			obj.Elements = append(obj.Elements, acc.Value)
		} else {
			obj.Elements[idx] = acc.Value
		}
		if idx >= obj.InitLength {
			obj.InitLength = idx + 1
		}
		if idx >= obj.Length {
			obj.Length = idx + 1
		}
		return acc.Value, true, nil
	}

	status := r.emitStub("setelem_dense", recv, protoShapes, true, 0, eval)
	if status == Cacheable {
		r.disable(ReasonMonomorphic)
	}
	return status
}

// specializeSetElemTypedArray guards shape, bounds-checks, converts the
// value to the array's element type (including uint8-clamped saturation),
// and stores. Monomorphic, then disabled.
func (r *Record) specializeSetElemTypedArray(recv *shape.Object) Status {
	if recv.TAType.IsFloat() && !supportsFloatISA {
		r.disable(ReasonFloatUnsupported)
		return Uncacheable
	}
	bakedShape := recv.Shape.ID()
	elemType := recv.TAType

	eval := func(acc *Access) (shape.Value, bool, error) {
		obj := acc.Receiver
		if obj.Shape.ID() != bakedShape || obj.Class != shape.ClassTypedArray {
			return shape.Value{}, false, nil
		}
		if !acc.Key.IsNumber() {
			return shape.Value{}, false, nil
		}
		idx := int(acc.Key.Int32())
		if idx < 0 || idx >= len(obj.TABuffer)/elemType.ByteSize() {
			// Out-of-range typed-array writes are a silent no-op, not a
			// guard miss: the bounds check itself is the specialization.
			return acc.Value, true, nil
		}
		obj.StoreElement(idx, elemType, acc.Value)
		return acc.Value, true, nil
	}

	status := r.emitStub("setelem_ta", recv, nil, true, 0, eval)
	if status == Cacheable {
		r.disable(ReasonMonomorphic)
	}
	return status
}
