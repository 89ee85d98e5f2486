package shape

// Class distinguishes the object kinds the specializers must tell apart —
// native plain objects, the array family, string wrappers, scope-chain
// objects, and the handful of non-native kinds every PIC must reject.
type Class uint8

const (
	ClassPlainObject Class = iota
	ClassDenseArray
	ClassSlowArray
	ClassStringObject
	ClassCallObject
	ClassGlobalObject
	ClassWithObject
	ClassBlockObject
	ClassTypedArray
	ClassProxy
	ClassHost
)

// IsNative reports whether the class is one the oracle can reason about
// structurally; proxies and host objects are opaque and always reject
// caching.
func (c Class) IsNative() bool {
	return c != ClassProxy && c != ClassHost
}

// TAElemType is a typed array's backing native element type.
type TAElemType uint8

const (
	TAInt8 TAElemType = iota
	TAUint8
	TAUint8Clamped
	TAInt16
	TAUint16
	TAInt32
	TAUint32
	TAFloat32
	TAFloat64
)

// ByteSize is the element's width in the backing buffer.
func (t TAElemType) ByteSize() int {
	switch t {
	case TAInt8, TAUint8, TAUint8Clamped:
		return 1
	case TAInt16, TAUint16:
		return 2
	case TAInt32, TAUint32, TAFloat32:
		return 4
	case TAFloat64:
		return 8
	default:
		return 1
	}
}

func (t TAElemType) IsFloat() bool {
	return t == TAFloat32 || t == TAFloat64
}

// Object is the engine's reference runtime object: a shape pointer plus
// slot storage, a prototype link, and the handful of per-class extras
// (dense-array elements, typed-array buffer, boxed string primitive) the
// specializers branch on.
type Object struct {
	Shape            *Shape
	Class            Class
	Proto            *Object
	Extensible       bool
	UncacheableProto bool
	SingletonType    bool // not read by the PIC guard emission, which compares each link's shape id

	FixedSlots   []Value
	DynamicSlots []Value

	// Dense/slow array state.
	Elements   []Value
	InitLength int
	Length     int

	// String-object wrapper / primitive-string payload.
	Primitive Value

	// Typed array state.
	TAType   TAElemType
	TABuffer []byte

	// Call-object / global-object slot layout.
	ReservedSlots int
	NArgs         int
	IsVarSlot     map[string]bool // name -> true if it's a var (vs. an argument)
	ShortIDs      map[string]int
}

// NewPlainObject returns a fresh extensible native object on EmptyShape().
func NewPlainObject(proto *Object) *Object {
	return &Object{
		Shape:        EmptyShape(),
		Class:        ClassPlainObject,
		Proto:        proto,
		Extensible:   true,
		FixedSlots:   make([]Value, FixedSlotCapacity),
		DynamicSlots: nil,
	}
}

func (o *Object) IsNative() bool { return o.Class.IsNative() }

// Slot reads the value at a shape-described slot index.
func (o *Object) Slot(idx int, fixed bool) Value {
	if fixed {
		if idx < len(o.FixedSlots) {
			return o.FixedSlots[idx]
		}
		return Undefined()
	}
	if idx < len(o.DynamicSlots) {
		return o.DynamicSlots[idx]
	}
	return Undefined()
}

// SetSlot writes a shape-described slot, growing dynamic storage if
// needed. It reports whether the dynamic-slot backing store had to be
// reallocated (grown), which add-property caching treats as a disable
// condition.
func (o *Object) SetSlot(idx int, fixed bool, v Value) (grew bool) {
	if fixed {
		for len(o.FixedSlots) <= idx {
			o.FixedSlots = append(o.FixedSlots, Undefined())
		}
		o.FixedSlots[idx] = v
		return false
	}
	if idx >= len(o.DynamicSlots) {
		grew = true
		newSlots := make([]Value, idx+1)
		copy(newSlots, o.DynamicSlots)
		for i := len(o.DynamicSlots); i <= idx; i++ {
			newSlots[i] = Undefined()
		}
		o.DynamicSlots = newSlots
	}
	o.DynamicSlots[idx] = v
	return grew
}

// CallObjectSlot computes the reserved-slot index for an argument/local
// of a captured frame: reserved + (shortid + (isVar ? nargs : 0)).
// Arguments occupy the slots directly after the reserved ones; vars
// follow the full argument block.
func (o *Object) CallObjectSlot(name string) (idx int, ok bool) {
	shortID, ok := o.ShortIDs[name]
	if !ok {
		return 0, false
	}
	idx = o.ReservedSlots + shortID
	if o.IsVarSlot[name] {
		idx += o.NArgs
	}
	return idx, true
}
