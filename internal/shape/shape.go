package shape

import "sync/atomic"

// GetterKind classifies how a property's value is produced, mirroring
// the three GET cases the specializer must distinguish: a plain data
// slot, a scripted function, or a native (host) function.
type GetterKind uint8

const (
	AccessorDefault GetterKind = iota
	AccessorScriptedSideEffecting
	AccessorScriptedNative
	AccessorNativeOp
)

// SetterKind mirrors GetterKind for the SET side: default in-place
// store, or a scripted setter reached only on call objects.
type SetterKind uint8

const (
	SetterDefaultKind SetterKind = iota
	SetterScriptedKind
)

// NativeFunc is the callable backing AccessorScriptedNative and
// AccessorNativeOp properties. The specializer only decides whether it
// is *safe* to emit a call stub that would invoke it; the stub does the
// invoking.
type NativeFunc func(receiver Value, args []Value) (Value, error)

// Property is one entry in a Shape's layout.
type Property struct {
	Name   string
	Slot   int
	Fixed  bool
	Getter GetterKind
	Setter SetterKind
	Native NativeFunc
}

var nextShapeID uint64

// Shape is an opaque hidden-class identity: two objects with identical
// layout share the same *Shape pointer. Shapes form a tree rooted at the
// canonical empty shape: adding a property walks (or creates) a transition
// edge keyed by property name, so objects that add the same properties in
// the same order converge on the same shape, exactly as real hidden-class
// tries do.
type Shape struct {
	id          uint64
	parent      *Shape
	byName      map[string]*Property
	order       []string
	numFixed    int
	numDynamic  int
	fixedCap    int
	dictionary  bool
	transitions map[string]*Shape
}

// FixedSlotCapacity bounds how many properties live in an object's inline
// (fixed) slots before further additions spill into dynamic slots —
// mirrors the fixed-vs-dynamic slot split real engines bake into shapes.
const FixedSlotCapacity = 4

var emptyRoot = &Shape{
	id:          atomic.AddUint64(&nextShapeID, 1),
	byName:      make(map[string]*Property),
	fixedCap:    FixedSlotCapacity,
	transitions: make(map[string]*Shape),
}

// EmptyShape returns the canonical root shape with no properties, the shape
// every freshly created plain object starts from. Returning one shared root
// (rather than a fresh shape per call) is what makes separately created
// objects converge: pointer equality of shapes proves layout equality only
// because identical add sequences reach the same transition-tree node.
func EmptyShape() *Shape { return emptyRoot }

func (s *Shape) ID() uint64 { return s.id }

func (s *Shape) IsDictionary() bool { return s.dictionary }

func (s *Shape) NumFixedSlots() int   { return s.numFixed }
func (s *Shape) NumDynamicSlots() int { return s.numDynamic }

// Lookup finds a property declared directly on this shape (not walking any
// prototype chain — that is the Oracle's job, since it needs the Object to
// walk Proto links).
func (s *Shape) Lookup(name string) (*Property, bool) {
	p, ok := s.byName[name]
	return p, ok
}

func (s *Shape) Properties() []*Property {
	out := make([]*Property, 0, len(s.order))
	for _, n := range s.order {
		out = append(out, s.byName[n])
	}
	return out
}

// AddDataProperty transitions to (or reuses) a child shape that adds a
// plain data property named `name`. It reports whether the object's
// dynamic-slot backing store must grow, which disqualifies the add from
// being cached.
func (s *Shape) AddDataProperty(name string) (child *Shape, slot int, fixed bool, dynamicGrew bool) {
	if existing, ok := s.transitions[name]; ok {
		p := existing.byName[name]
		return existing, p.Slot, p.Fixed, !p.Fixed
	}
	return s.addChild(name, name, AccessorDefault, SetterDefaultKind, nil)
}

// AddAccessorProperty transitions to (or reuses) a child shape declaring
// `name` as an accessor: its value is produced by a getter hook (and,
// when setter is non-default, consumed by a setter hook) rather than a
// plain slot load. The transition is keyed apart from a data add of the
// same name, since the two describe different layouts. Accessor
// properties still reserve a slot so layout accounting stays uniform.
func (s *Shape) AddAccessorProperty(name string, getter GetterKind, setter SetterKind, native NativeFunc) *Shape {
	key := "accessor\x00" + name
	if existing, ok := s.transitions[key]; ok {
		return existing
	}
	child, _, _, _ := s.addChild(key, name, getter, setter, native)
	return child
}

func (s *Shape) addChild(key, name string, getter GetterKind, setter SetterKind, native NativeFunc) (child *Shape, slot int, fixed bool, dynamicGrew bool) {
	child = &Shape{
		id:          atomic.AddUint64(&nextShapeID, 1),
		parent:      s,
		byName:      make(map[string]*Property, len(s.byName)+1),
		order:       append(append([]string{}, s.order...), name),
		fixedCap:    s.fixedCap,
		dictionary:  s.dictionary,
		transitions: make(map[string]*Shape),
	}
	for n, p := range s.byName {
		cp := *p
		child.byName[n] = &cp
	}

	fixed = s.numFixed < s.fixedCap
	var slotIdx int
	if fixed {
		slotIdx = s.numFixed
		child.numFixed = s.numFixed + 1
		child.numDynamic = s.numDynamic
	} else {
		slotIdx = s.numDynamic
		child.numDynamic = s.numDynamic + 1
		child.numFixed = s.numFixed
		dynamicGrew = true
	}

	child.byName[name] = &Property{Name: name, Slot: slotIdx, Fixed: fixed, Getter: getter, Setter: setter, Native: native}
	s.transitions[key] = child
	return child, slotIdx, fixed, dynamicGrew
}

// ToDictionary returns a shape marked as a dictionary-mode shape: such
// objects never participate in add-property caching.
func (s *Shape) ToDictionary() *Shape {
	d := *s
	d.id = atomic.AddUint64(&nextShapeID, 1)
	d.dictionary = true
	d.transitions = make(map[string]*Shape)
	return &d
}
