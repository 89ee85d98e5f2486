package pic

import (
	"testing"

	"picjit/internal/shape"
)

func TestUpdateNameCachesGlobalSlot(t *testing.T) {
	r := newTestRecord(KindName)
	warmUp(r)

	var oracle shape.DefaultOracle
	global := shape.NewPlainObject(nil)
	global.Class = shape.ClassGlobalObject
	oracle.PutProperty(global, "g", shape.Int32(9))

	acc := &Access{ScopeChain: global, Name: "g"}
	status := UpdateName(r, oracle, acc)
	if status != Cacheable {
		t.Fatalf("expected Cacheable, got %v", status)
	}

	v, ok, err := r.Dispatch(acc)
	if err != nil || !ok || v.Int32() != 9 {
		t.Fatalf("expected 9, got ok=%v v=%v err=%v", ok, v, err)
	}
}

func TestUpdateNameWalksBlockScopeToGlobal(t *testing.T) {
	r := newTestRecord(KindName)
	warmUp(r)

	var oracle shape.DefaultOracle
	global := shape.NewPlainObject(nil)
	global.Class = shape.ClassGlobalObject
	oracle.PutProperty(global, "g", shape.Int32(4))

	block := shape.NewPlainObject(global)
	block.Class = shape.ClassBlockObject

	acc := &Access{ScopeChain: block, Name: "g"}
	status := UpdateName(r, oracle, acc)
	if status != Cacheable {
		t.Fatalf("expected Cacheable, got %v", status)
	}

	v, ok, err := r.Dispatch(&Access{ScopeChain: block, Name: "g"})
	if err != nil || !ok || v.Int32() != 4 {
		t.Fatalf("expected 4, got ok=%v v=%v err=%v", ok, v, err)
	}
}

func TestUpdateNameTypeofUndefinedSentinel(t *testing.T) {
	r := newTestRecord(KindName)
	warmUp(r)

	var oracle shape.DefaultOracle
	global := shape.NewPlainObject(nil)
	global.Class = shape.ClassGlobalObject
	oracle.PutProperty(global, "g", shape.Undefined())

	acc := &Access{ScopeChain: global, Name: "g", NextOpIsTypeof: true}
	status := UpdateName(r, oracle, acc)
	if status != Cacheable {
		t.Fatalf("expected Cacheable, got %v", status)
	}

	v, ok, err := r.Dispatch(acc)
	if err != nil || !ok {
		t.Fatalf("expected the stub to hit, ok=%v err=%v", ok, err)
	}
	if !v.IsString() || v.Str() != "undefined" {
		t.Fatalf("expected the \"undefined\" sentinel under typeof, got %v", v)
	}
}

func TestUpdateNameCallObjectSlotFormula(t *testing.T) {
	r := newTestRecord(KindName)
	warmUp(r)

	callObj := shape.NewPlainObject(nil)
	callObj.Class = shape.ClassCallObject
	callObj.ReservedSlots = 2
	callObj.ShortIDs = map[string]int{"a": 1}
	callObj.IsVarSlot = map[string]bool{}
	// The call object's shape must declare "a" for UpdateName's scope walk
	// to stop here at all; the physical slot actually read is the one
	// CallObjectSlot computes (reserved + shortid), not this shape slot.
	callObj.Shape, _, _, _ = callObj.Shape.AddDataProperty("a")
	callObj.SetSlot(3, false, shape.Int32(77))

	acc := &Access{ScopeChain: callObj, Name: "a"}
	status := UpdateName(r, shape.DefaultOracle{}, acc)
	if status != Cacheable {
		t.Fatalf("expected Cacheable, got %v", status)
	}

	v, ok, err := r.Dispatch(acc)
	if err != nil || !ok || v.Int32() != 77 {
		t.Fatalf("expected 77, got ok=%v v=%v err=%v", ok, v, err)
	}
}
