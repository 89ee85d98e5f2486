// Package shape is the PIC engine's Shape/Property Oracle: a reference
// object model (shapes, prototypes, typed arrays) the specializers in
// internal/pic query and guard against. A production embedding would swap
// this for the host VM's real object representation behind the Oracle
// interface in oracle.go; this package exists so the engine is testable
// end-to-end.
package shape

import "fmt"

// Kind tags a Value the way vmregister's NaN-boxing scheme tags a uint64,
// minus the bit-packing: the PIC engine inspects tags far more often than
// it moves values through VM registers, so a plain tagged struct is the
// clearer fit here.
type Kind uint8

const (
	KindUndefined Kind = iota
	KindNull
	KindBool
	KindInt32
	KindFloat64
	KindString
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt32:
		return "int32"
	case KindFloat64:
		return "float64"
	case KindString:
		return "string"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is the uniform representation the specializers read and write.
type Value struct {
	Kind Kind
	num  float64
	str  string
	obj  *Object
}

func Undefined() Value           { return Value{Kind: KindUndefined} }
func Null() Value                { return Value{Kind: KindNull} }
func Bool(b bool) Value          { return Value{Kind: KindBool, num: boolToFloat(b)} }
func Int32(i int32) Value        { return Value{Kind: KindInt32, num: float64(i)} }
func Float64(f float64) Value    { return Value{Kind: KindFloat64, num: f} }
func String(s string) Value      { return Value{Kind: KindString, str: s} }
func FromObject(o *Object) Value { return Value{Kind: KindObject, obj: o} }

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func (v Value) IsUndefined() bool { return v.Kind == KindUndefined }
func (v Value) IsNull() bool      { return v.Kind == KindNull }
func (v Value) IsString() bool    { return v.Kind == KindString }
func (v Value) IsObject() bool    { return v.Kind == KindObject }
func (v Value) IsNumber() bool    { return v.Kind == KindInt32 || v.Kind == KindFloat64 }

func (v Value) Bool() bool      { return v.num != 0 }
func (v Value) Str() string     { return v.str }
func (v Value) Object() *Object { return v.obj }

// Int32 truncates per the typed-array store conversion rules: wrap
// modulo 2^32 the way a C-style narrowing store would. NaN and Infinity
// are not special-cased here; among the typed-array conversions in
// typedarray.go only uint8-clamped handles NaN.
func (v Value) Int32() int32 {
	switch v.Kind {
	case KindInt32:
		return int32(v.num)
	case KindFloat64:
		return int32(int64(v.num))
	case KindBool:
		return int32(v.num)
	default:
		return 0
	}
}

func (v Value) Float64() float64 {
	switch v.Kind {
	case KindInt32, KindFloat64, KindBool:
		return v.num
	default:
		return 0
	}
}

func (v Value) String() string {
	switch v.Kind {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindBool:
		return fmt.Sprintf("%v", v.Bool())
	case KindInt32:
		return fmt.Sprintf("%d", int32(v.num))
	case KindFloat64:
		return fmt.Sprintf("%g", v.num)
	case KindString:
		return v.str
	case KindObject:
		return fmt.Sprintf("[object %p]", v.obj)
	default:
		return "?"
	}
}
