package trampoline

import (
	"testing"

	"picjit/internal/shape"
)

func TestFramePushPopTop(t *testing.T) {
	f := NewFrame(nil)
	f.Push(shape.Int32(1))
	f.Push(shape.Int32(2))

	if f.Top().Int32() != 2 {
		t.Fatalf("expected top 2, got %d", f.Top().Int32())
	}
	if v := f.Pop(); v.Int32() != 2 {
		t.Fatalf("expected popped value 2, got %d", v.Int32())
	}
	if f.Top().Int32() != 1 {
		t.Fatalf("expected top 1 after pop, got %d", f.Top().Int32())
	}
}

func TestFrameSetTopOverwritesInPlace(t *testing.T) {
	f := NewFrame(nil)
	f.Push(shape.Int32(1))
	f.SetTop(shape.Int32(42))
	if f.Top().Int32() != 42 {
		t.Fatalf("expected SetTop to overwrite the top slot, got %d", f.Top().Int32())
	}
	if len(f.Stack) != 1 {
		t.Fatalf("SetTop must not grow the stack, got len %d", len(f.Stack))
	}
}
