package trampoline

import (
	"fmt"
	"testing"

	picerrors "picjit/internal/errors"
	"picjit/internal/pic"
	"picjit/internal/shape"
	"picjit/internal/stublink"
)

func newEntryTestRecord(kind pic.Kind) *pic.Record {
	l := stublink.NewLinker("chunk")
	slow := l.SlowLabel("slow")
	return pic.NewRecord(kind, l, slow, true)
}

func TestRuntimeGetPropWarmsThenSpecializes(t *testing.T) {
	rt := NewRuntime()
	rec := newEntryTestRecord(pic.KindGet)

	recv := shape.NewPlainObject(nil)
	rt.Oracle.PutProperty(recv, "x", shape.Int32(11))

	f := NewFrame(nil)
	f.Push(shape.FromObject(recv))
	if err := rt.GetProp(f, rec, "x"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Top().Int32() != 11 {
		t.Fatalf("expected 11, got %d", f.Top().Int32())
	}
	if rec.StubsGenerated != 0 {
		t.Fatal("the first access must not generate a stub")
	}

	f2 := NewFrame(nil)
	f2.Push(shape.FromObject(recv))
	if err := rt.GetProp(f2, rec, "x"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f2.Top().Int32() != 11 {
		t.Fatalf("expected 11 on the second access, got %d", f2.Top().Int32())
	}
	// The first specializable access to a plain own property patches the
	// inline path rather than emitting a chained stub.
	if !rec.InlinePathPatched {
		t.Fatal("expected the second access to specialize the inline path")
	}
	if rec.StubsGenerated != 0 {
		t.Fatalf("expected zero chained stubs, got %d", rec.StubsGenerated)
	}
}

func TestRuntimeSetPropAddsPropertyThenCaches(t *testing.T) {
	rt := NewRuntime()
	rec := newEntryTestRecord(pic.KindSet)

	recv := shape.NewPlainObject(nil)
	f := NewFrame(nil)
	f.Push(shape.FromObject(recv))
	f.Push(shape.Int32(5))
	if err := rt.SetProp(f, rec, "x", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if recv.Slot(0, true).Int32() != 5 {
		t.Fatalf("expected the first SET to actually store 5, got %d", recv.Slot(0, true).Int32())
	}

	recv2 := shape.NewPlainObject(nil)
	f2 := NewFrame(nil)
	f2.Push(shape.FromObject(recv2))
	f2.Push(shape.Int32(6))
	if err := rt.SetProp(f2, rec, "x", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if recv2.Slot(0, true).Int32() != 6 {
		t.Fatalf("expected the second SET to store 6, got %d", recv2.Slot(0, true).Int32())
	}
	if rec.StubsGenerated != 1 {
		t.Fatalf("expected the second SET to cache one add-property stub, got %d", rec.StubsGenerated)
	}
}

func TestRuntimeNameResolvesThroughScopeChain(t *testing.T) {
	rt := NewRuntime()
	rec := newEntryTestRecord(pic.KindName)

	global := shape.NewPlainObject(nil)
	global.Class = shape.ClassGlobalObject
	rt.Oracle.PutProperty(global, "g", shape.Int32(3))

	f := NewFrame(global)
	if err := rt.Name(f, rec, "g", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Top().Int32() != 3 {
		t.Fatalf("expected 3, got %d", f.Top().Int32())
	}
}

func TestRuntimeNameTypeofUndefinedReturnsStringSentinel(t *testing.T) {
	rt := NewRuntime()
	rec := newEntryTestRecord(pic.KindName)

	global := shape.NewPlainObject(nil)
	global.Class = shape.ClassGlobalObject

	f := NewFrame(global)
	if err := rt.Name(f, rec, "missing", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !f.Top().IsString() || f.Top().Str() != "undefined" {
		t.Fatalf("expected the string \"undefined\" sentinel under typeof, got %v", f.Top())
	}
}

func TestRuntimeBindNameFindsDeclaringScope(t *testing.T) {
	rt := NewRuntime()
	rec := newEntryTestRecord(pic.KindBind)

	global := shape.NewPlainObject(nil)
	global.Class = shape.ClassGlobalObject
	rt.Oracle.PutProperty(global, "g", shape.Int32(1))

	f := NewFrame(global)
	if err := rt.BindName(f, rec, "g"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Top().Object() != global {
		t.Fatal("expected BindName to push the object that actually declares the binding")
	}
}

func TestRuntimeGetElementOnDenseArray(t *testing.T) {
	rt := NewRuntime()
	rec := newEntryTestRecord(pic.KindGetElem)

	arr := shape.NewPlainObject(nil)
	arr.Class = shape.ClassDenseArray
	arr.Elements = []shape.Value{shape.Int32(7), shape.Int32(8)}
	arr.InitLength = 2
	arr.Length = 2

	f := NewFrame(nil)
	f.Push(shape.FromObject(arr))
	f.Push(shape.Int32(1))
	if err := rt.GetElement(f, rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Top().Int32() != 8 {
		t.Fatalf("expected 8, got %d", f.Top().Int32())
	}
}

func TestRuntimeSetElementTypedArrayOutOfBoundsIsSilentlyDropped(t *testing.T) {
	rt := NewRuntime()
	rec := newEntryTestRecord(pic.KindSetElem)

	ta := shape.NewPlainObject(nil)
	ta.Class = shape.ClassTypedArray
	ta.TAType = shape.TAInt32
	ta.TABuffer = make([]byte, 4) // room for exactly one element

	f := NewFrame(nil)
	f.Push(shape.FromObject(ta))
	f.Push(shape.Int32(5)) // out of range
	f.Push(shape.Int32(42))
	if err := rt.SetElement(f, rec); err != nil {
		t.Fatalf("expected no error for an out-of-range typed array write, got %v", err)
	}
}

func TestRuntimeGetPropSurfacesCacheErrorFromNativeGetter(t *testing.T) {
	rt := NewRuntime()
	rec := newEntryTestRecord(pic.KindGet)

	fail := false
	recv := shape.NewPlainObject(nil)
	recv.Shape = recv.Shape.AddAccessorProperty("volatile", shape.AccessorNativeOp, shape.SetterDefaultKind,
		func(receiver shape.Value, args []shape.Value) (shape.Value, error) {
			if fail {
				return shape.Value{}, fmt.Errorf("native getter failed")
			}
			return shape.Int32(9), nil
		})

	read := func() (shape.Value, error) {
		f := NewFrame(nil)
		f.Push(shape.FromObject(recv))
		if err := rt.GetProp(f, rec, "volatile"); err != nil {
			return shape.Value{}, err
		}
		return f.Top(), nil
	}

	// First access is gated, second attaches the call stub.
	for i := 0; i < 2; i++ {
		v, err := read()
		if err != nil {
			t.Fatalf("access %d: unexpected error: %v", i+1, err)
		}
		if v.Int32() != 9 {
			t.Fatalf("access %d: expected 9 from the native getter, got %v", i+1, v)
		}
	}
	if rec.StubsGenerated != 1 {
		t.Fatalf("expected one getter call stub, got %d", rec.StubsGenerated)
	}

	fail = true
	_, err := read()
	if err == nil {
		t.Fatal("a failing native getter reached through the cache must surface an error")
	}
	se, ok := err.(*picerrors.SentraError)
	if !ok {
		t.Fatalf("expected a *SentraError, got %T: %v", err, err)
	}
	if se.Type != picerrors.CacheError {
		t.Fatalf("expected a CacheError, got %q", se.Type)
	}
}
