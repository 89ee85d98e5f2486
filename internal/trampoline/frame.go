package trampoline

import "picjit/internal/shape"

// Frame is a minimal stand-in for the containing call frame the real
// engine passes to every PIC entry point. Each entry reads the operand
// stack at fixed offsets below the site's logical top and produces its
// result in the same slot. Chunk owns the frame's PIC sites; Frame owns
// just the operand stack and scope-chain head a trampoline entry needs
// to read and write.
type Frame struct {
	Stack      []shape.Value
	ScopeChain *shape.Object
	This       *shape.Object
}

// NewFrame returns an empty frame rooted at the given scope chain head.
func NewFrame(scopeChain *shape.Object) *Frame {
	return &Frame{ScopeChain: scopeChain}
}

func (f *Frame) Push(v shape.Value) { f.Stack = append(f.Stack, v) }

func (f *Frame) Pop() shape.Value {
	n := len(f.Stack)
	v := f.Stack[n-1]
	f.Stack = f.Stack[:n-1]
	return v
}

func (f *Frame) Top() shape.Value { return f.Stack[len(f.Stack)-1] }

// SetTop overwrites the slot the operation's result is produced into.
func (f *Frame) SetTop(v shape.Value) { f.Stack[len(f.Stack)-1] = v }
