// Package asm is the PIC engine's code generator: it assembles short
// sequences of code for a stub, reports label offsets, and finalizes a
// stub into an inspectable, linkable artifact.
//
// A native inline-cache engine patches live executable machine code in
// place. This package can't safely do that from pure Go without cgo or
// runtime assembly, so it lowers each stub to a tiny LLVM IR function
// instead: one basic block per guard, ending in a conditional branch. A
// "label" is an *ir.Block pointer; "patching a branch" is calling NewBr
// again on a guard chain's shared exit block with a new target, which is
// how llir/llvm replaces a terminator. Every patch therefore goes
// through a typed operation on a named point, never a free-form byte
// write, and every stub has a real, diffable artifact (Func.LLString()).
package asm

import (
	"fmt"
	"sync/atomic"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// Label names one point in a stub's code: an LLVM basic block.
type Label = *ir.Block

// GuardPoint is a chain of one or more compares that all flow to the
// same mismatch exit. Relink retargets every compare in the chain at
// once by rewriting the single shared exit block's terminator,
// regardless of how many compares feed it.
type GuardPoint struct {
	exit *ir.Block
}

// newGuardPoint allocates the chain's shared exit block and points it at
// the initial mismatch target (the slow trampoline, or — once extra stubs
// exist — the previous chain head).
func newGuardPoint(fn *ir.Func, name string, initialMismatch Label) *GuardPoint {
	exit := fn.NewBlock(name)
	exit.NewBr(initialMismatch)
	return &GuardPoint{exit: exit}
}

// Relink repoints the guard chain's mismatch exit to a new label.
func (g *GuardPoint) Relink(newMismatch Label) {
	g.exit.NewBr(newMismatch)
}

// ExitBlock exposes the shared exit label.
func (g *GuardPoint) ExitBlock() Label { return g.exit }

// Builder assembles one stub's code. Each PIC site's specializer creates a
// fresh Builder per emitted stub (or per inline-path specialization).
type Builder struct {
	mod   *ir.Module
	fn    *ir.Func
	cur   *ir.Block
	blkID int
}

var fnCounter int64

// NewBuilder starts a new stub function named after its PIC kind, e.g.
// "getprop_stub", taking the baked receiver's shape id and a raw 64-bit
// receiver handle as parameters (the stub's only "registers").
func NewBuilder(mod *ir.Module, namePrefix string) *Builder {
	n := atomic.AddInt64(&fnCounter, 1)
	fn := mod.NewFunc(fmt.Sprintf("%s_%d", namePrefix, n), types.I1,
		ir.NewParam("shape", types.I64),
		ir.NewParam("recv", types.I64),
	)
	entry := fn.NewBlock("entry")
	return &Builder{mod: mod, fn: fn, cur: entry}
}

func (b *Builder) Func() *ir.Func { return b.fn }

// ShapeParam/ReceiverParam expose the stub's baked-in comparison inputs.
func (b *Builder) ShapeParam() value.Value    { return b.fn.Params[0] }
func (b *Builder) ReceiverParam() value.Value { return b.fn.Params[1] }

// NewLabel allocates a fresh block in this stub's function, used for the
// "hit"/rejoin target and for chained guard blocks (prototype walk steps).
// The block starts with an unreachable terminator so the function prints
// cleanly at any point; the next emitted guard (or Finalize's ret)
// overwrites it.
func (b *Builder) NewLabel(name string) Label {
	b.blkID++
	blk := b.fn.NewBlock(fmt.Sprintf("%s_%d", name, b.blkID))
	blk.NewUnreachable()
	return blk
}

// Current returns the block new instructions are appended to.
func (b *Builder) Current() Label { return b.cur }

// SetCurrent moves the insertion point, e.g. after emitting a guard's
// match-side block.
func (b *Builder) SetCurrent(l Label) { b.cur = l }

// NewGuardChain starts a new relinkable guard chain whose compares all
// exit to `initialMismatch` until the first Relink call retargets them.
func (b *Builder) NewGuardChain(name string, initialMismatch Label) *GuardPoint {
	return newGuardPoint(b.fn, name, initialMismatch)
}

// EmitShapeCompare appends `cmp shape, baked; br match, chain.exit` at the
// current block and advances the current block to the match side. It is
// meant to be called once per guard chain (the receiver shape check);
// EmitPointerCompare appends additional compares (prototype-link guards)
// into the same chain.
func (b *Builder) EmitShapeCompare(chain *GuardPoint, bakedShapeID uint64) {
	cmp := b.cur.NewICmp(enum.IPredEQ, b.ShapeParam(), constant.NewInt(types.I64, int64(bakedShapeID)))
	match := b.NewLabel("shape_ok")
	b.cur.NewCondBr(cmp, match, chain.exit)
	b.cur = match
}

// EmitPointerCompare appends a generic identity compare (baked constant
// vs. baked constant, since the oracle resolves pointers ahead of time)
// to an existing guard chain, used for prototype-chain guards and
// string-key identity guards. All such compares in one chain share the
// chain's single relinkable exit.
func (b *Builder) EmitPointerCompare(chain *GuardPoint, lhs, rhs uint64) {
	cmp := b.cur.NewICmp(enum.IPredEQ,
		constant.NewInt(types.I64, int64(lhs)),
		constant.NewInt(types.I64, int64(rhs)))
	match := b.NewLabel("proto_ok")
	b.cur.NewCondBr(cmp, match, chain.exit)
	b.cur = match
}

// EmitBoundsCompare appends an unsigned-less-than bounds check (key <
// limit), used by the element specializer for initialized-length,
// capacity, and typed-array-length checks.
func (b *Builder) EmitBoundsCompare(chain *GuardPoint, key, limit uint64) {
	cmp := b.cur.NewICmp(enum.IPredULT,
		constant.NewInt(types.I64, int64(key)),
		constant.NewInt(types.I64, int64(limit)))
	match := b.NewLabel("bounds_ok")
	b.cur.NewCondBr(cmp, match, chain.exit)
	b.cur = match
}

// Finalize seals the stub, returning "true" from the current (matched)
// block. After this call the stub's guard chains may still be relinked
// (their shared exit block), but no new instructions are appended to the
// matched path.
func (b *Builder) Finalize() *CodeBlob {
	b.cur.NewRet(constant.True)
	return &CodeBlob{Func: b.fn, Text: b.fn.LLString()}
}

// CodeBlob is the finalized, inspectable artifact for one stub (or the
// specialized inline path). Text is the stub's LLVM IR text: two stubs
// built from objects of the same shape produce identical Text modulo
// function naming, the same sense in which relocatable machine code for
// the two would be identical up to relocations.
type CodeBlob struct {
	Func *ir.Func
	Text string
}

// NewModule returns a fresh module a Linker can allocate stubs into. One
// module per compiled code chunk mirrors one executable region per chunk.
func NewModule(name string) *ir.Module {
	m := ir.NewModule()
	m.SourceFilename = name
	return m
}
