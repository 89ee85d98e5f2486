package shape

import "testing"

func TestValuePredicates(t *testing.T) {
	if !Undefined().IsUndefined() {
		t.Fatal("Undefined() must report IsUndefined")
	}
	if !Null().IsNull() {
		t.Fatal("Null() must report IsNull")
	}
	if !String("x").IsString() {
		t.Fatal("String() must report IsString")
	}
	o := NewPlainObject(nil)
	if !FromObject(o).IsObject() {
		t.Fatal("FromObject() must report IsObject")
	}
	if !Int32(1).IsNumber() || !Float64(1.5).IsNumber() {
		t.Fatal("Int32/Float64 must both report IsNumber")
	}
}

func TestValueInt32TruncatesFloat(t *testing.T) {
	v := Float64(3.9)
	if v.Int32() != 3 {
		t.Fatalf("expected truncation toward zero, got %d", v.Int32())
	}
}

func TestValueStringFormatsEachKind(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{Undefined(), "undefined"},
		{Null(), "null"},
		{Bool(true), "true"},
		{Int32(5), "5"},
		{String("hi"), "hi"},
	}
	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("%v.String() = %q, want %q", tt.v.Kind, got, tt.want)
		}
	}
}

func TestObjectIsNativeRejectsProxyAndHost(t *testing.T) {
	o := NewPlainObject(nil)
	o.Class = ClassProxy
	if o.IsNative() {
		t.Fatal("proxy objects must never report native")
	}
	o.Class = ClassHost
	if o.IsNative() {
		t.Fatal("host objects must never report native")
	}
	o.Class = ClassPlainObject
	if !o.IsNative() {
		t.Fatal("plain objects must report native")
	}
}
