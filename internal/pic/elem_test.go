package pic

import (
	"testing"

	"picjit/internal/shape"
)

func TestUpdateGetElemStringKeySpecializes(t *testing.T) {
	r := newTestRecord(KindGetElem)
	warmUp(r)

	var oracle shape.DefaultOracle
	recv := shape.NewPlainObject(nil)
	oracle.PutProperty(recv, "foo", shape.Int32(5))

	acc := &Access{Receiver: recv, Key: shape.String("foo")}
	status := UpdateGetElem(r, oracle, acc)
	if status != Cacheable {
		t.Fatalf("expected Cacheable, got %v", status)
	}

	v, ok, err := r.Dispatch(acc)
	if err != nil || !ok || v.Int32() != 5 {
		t.Fatalf("expected 5, got ok=%v v=%v err=%v", ok, v, err)
	}
}

func TestUpdateGetElemTypedArrayIsMonomorphic(t *testing.T) {
	r := newTestRecord(KindGetElem)
	warmUp(r)

	ta := shape.NewPlainObject(nil)
	ta.Class = shape.ClassTypedArray
	ta.TAType = shape.TAInt32
	ta.TABuffer = make([]byte, 8)
	ta.StoreElement(1, shape.TAInt32, shape.Int32(123))

	acc := &Access{Receiver: ta, Key: shape.Int32(1)}
	status := UpdateGetElem(r, shape.DefaultOracle{}, acc)
	if status != Cacheable {
		t.Fatalf("expected Cacheable, got %v", status)
	}
	if !r.Disabled {
		t.Fatal("a typed-array element stub must disable the site immediately after attaching (monomorphic)")
	}

	// Disabling only stops further specialization; the one attached stub
	// keeps serving hits.
	v, ok, err := r.Dispatch(acc)
	if err != nil || !ok {
		t.Fatalf("expected the attached stub to keep hitting after disable, ok=%v err=%v", ok, err)
	}
	if v.Int32() != 123 {
		t.Fatalf("expected 123, got %v", v)
	}
}

func TestUpdateGetElemTypedArrayOutOfBoundsReturnsUndefined(t *testing.T) {
	r := newTestRecord(KindGetElem)
	warmUp(r)

	ta := shape.NewPlainObject(nil)
	ta.Class = shape.ClassTypedArray
	ta.TAType = shape.TAInt32
	ta.TABuffer = make([]byte, 4)

	acc := &Access{Receiver: ta, Key: shape.Int32(1)}
	UpdateGetElem(r, shape.DefaultOracle{}, acc)

	v, ok, err := r.Dispatch(acc)
	if err != nil || !ok {
		t.Fatalf("expected the stub to match (bounds check is the specialization), ok=%v err=%v", ok, err)
	}
	if !v.IsUndefined() {
		t.Fatalf("expected undefined for an out-of-range typed array read, got %v", v)
	}
}

func TestUpdateSetElemDenseHoleFillAppendsAndBumpsLength(t *testing.T) {
	r := newTestRecord(KindSetElem)
	warmUp(r)

	arr := shape.NewPlainObject(nil)
	arr.Class = shape.ClassDenseArray
	arr.Elements = make([]shape.Value, 0, 4)

	acc := &Access{Receiver: arr, Key: shape.Int32(0), Value: shape.Int32(9)}
	status := UpdateSetElem(r, acc)
	if status != Cacheable {
		t.Fatalf("expected Cacheable, got %v", status)
	}
	if !r.Disabled {
		t.Fatal("dense hole-fill stubs must disable the site immediately (monomorphic)")
	}

	_, ok, err := r.Dispatch(acc)
	if err != nil || !ok {
		t.Fatalf("expected the stub to match, ok=%v err=%v", ok, err)
	}
	if arr.InitLength != 1 || arr.Length != 1 {
		t.Fatalf("expected InitLength/Length to bump to 1, got %d/%d", arr.InitLength, arr.Length)
	}
	if arr.Elements[0].Int32() != 9 {
		t.Fatalf("expected stored value 9, got %d", arr.Elements[0].Int32())
	}
}

func TestUpdateSetElemTypedArrayDropsOutOfRangeWrite(t *testing.T) {
	r := newTestRecord(KindSetElem)
	warmUp(r)

	ta := shape.NewPlainObject(nil)
	ta.Class = shape.ClassTypedArray
	ta.TAType = shape.TAUint8
	ta.TABuffer = make([]byte, 1)

	acc := &Access{Receiver: ta, Key: shape.Int32(5), Value: shape.Int32(200)}
	UpdateSetElem(r, acc)

	_, ok, err := r.Dispatch(acc)
	if err != nil || !ok {
		t.Fatalf("an out-of-range typed array write is a guard match, not a miss: ok=%v err=%v", ok, err)
	}
	if ta.TABuffer[0] != 0 {
		t.Fatalf("expected the out-of-range write to leave the buffer untouched, got %d", ta.TABuffer[0])
	}
}
