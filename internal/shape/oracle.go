package shape

import "errors"

// ErrNotExtensible is returned by PutProperty when the receiver cannot
// accept new properties.
var ErrNotExtensible = errors.New("shape: object is not extensible")

// Oracle is the interface the PIC engine consumes: everything it needs
// to know about property lookup, prototypes, and mutation, without
// depending on a concrete host-object representation. DefaultOracle
// below is the reference implementation used by tests and cmd/picbench;
// a real embedding swaps this for a binding onto the host VM's own
// object model.
type Oracle interface {
	// LookupProperty walks obj's prototype chain and returns the holder
	// (the object that actually defines `name`), its property descriptor,
	// and whether it was found at all.
	LookupProperty(obj *Object, name string) (holder *Object, prop *Property, found bool)

	GetProto(obj *Object) *Object
	IsNative(obj *Object) bool
	IsExtensible(obj *Object) bool

	// PutProperty adds or overwrites `name` on obj with value v. It
	// reports the property's final slot/fixed-ness, the shape obj had
	// *before* the call (the add-property guard value), and whether
	// dynamic storage was reallocated as a result.
	PutProperty(obj *Object, name string, v Value) (initialShape *Shape, slot int, fixed bool, reallocated bool, err error)
}

// DefaultOracle is a direct reference implementation over *Object/*Shape.
type DefaultOracle struct{}

func (DefaultOracle) LookupProperty(obj *Object, name string) (*Object, *Property, bool) {
	for cur := obj; cur != nil; cur = cur.Proto {
		if !cur.IsNative() {
			return cur, nil, false
		}
		if p, ok := cur.Shape.Lookup(name); ok {
			return cur, p, true
		}
	}
	return nil, nil, false
}

func (DefaultOracle) GetProto(obj *Object) *Object  { return obj.Proto }
func (DefaultOracle) IsNative(obj *Object) bool     { return obj.IsNative() }
func (DefaultOracle) IsExtensible(obj *Object) bool { return obj.Extensible }

func (DefaultOracle) PutProperty(obj *Object, name string, v Value) (*Shape, int, bool, bool, error) {
	if !obj.Extensible {
		return nil, 0, false, false, ErrNotExtensible
	}
	initialShape := obj.Shape
	if p, ok := obj.Shape.Lookup(name); ok {
		// Overwrite in place; no transition, no reallocation.
		obj.SetSlot(p.Slot, p.Fixed, v)
		return initialShape, p.Slot, p.Fixed, false, nil
	}
	child, slot, fixed, grew := obj.Shape.AddDataProperty(name)
	reallocated := obj.SetSlot(slot, fixed, v)
	obj.Shape = child
	return initialShape, slot, fixed, reallocated || grew, nil
}
