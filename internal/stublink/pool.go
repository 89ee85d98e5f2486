// Package stublink wraps internal/asm with allocation, range
// verification, patch-record bookkeeping, and ownership of executable
// pools. It is the layer internal/pic calls to turn a Builder's
// finalized code into something a PIC record can hold a handle to and
// later release.
package stublink

import (
	"errors"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"

	"picjit/internal/asm"
)

// ErrOutOfRange is returned when a finalized stub would be unreachable
// from the rest of the chunk by its own guard branches. Callers treat it
// as a disable condition, not a hard error.
var ErrOutOfRange = errors.New("stublink: stub code out of patchable range")

// maxBlocksPerStub is a stand-in for a real assembler's branch-displacement
// limit: past this many basic blocks a stub is considered unreachable from
// its chain predecessor within one relocatable unit.
const maxBlocksPerStub = 64

// Pool is one executable-memory region, refcounted across every stub
// allocated into it. ID is a stable handle a PIC record can store in
// place of a pointer.
type Pool struct {
	ID    uuid.UUID
	refs  int32
	blobs []*asm.CodeBlob
}

func newPool() *Pool {
	return &Pool{ID: uuid.New(), refs: 1}
}

// Retain increments the pool's refcount; a PIC record does this whenever
// another stub is allocated into an already-held pool.
func (p *Pool) Retain() { atomic.AddInt32(&p.refs, 1) }

// Release decrements the refcount and reports whether this was the last
// reference. On the last release the pool's code is considered unmapped.
func (p *Pool) Release() (unmapped bool) {
	return atomic.AddInt32(&p.refs, -1) == 0
}

func (p *Pool) RefCount() int32 { return atomic.LoadInt32(&p.refs) }

// Blobs returns every stub finalized into this pool, newest last.
func (p *Pool) Blobs() []*asm.CodeBlob {
	return p.blobs
}

// Linker owns one LLVM module per compiled code chunk and the pools
// allocated from it.
type Linker struct {
	mod   *ir.Module
	pools map[uuid.UUID]*Pool
}

// NewLinker creates a linker for one compiled code chunk. chunkName is
// purely diagnostic (becomes the IR module's source filename).
func NewLinker(chunkName string) *Linker {
	return &Linker{
		mod:   asm.NewModule(chunkName),
		pools: make(map[uuid.UUID]*Pool),
	}
}

// NewPool allocates a fresh executable pool owned by this linker's chunk.
func (l *Linker) NewPool() *Pool {
	p := newPool()
	l.pools[p.ID] = p
	return p
}

// Pool looks up a previously allocated pool by handle.
func (l *Linker) Pool(id uuid.UUID) (*Pool, bool) {
	p, ok := l.pools[id]
	return p, ok
}

// NewStubBuilder starts assembling a new stub into this chunk's shared
// module, tagged with the PIC kind for diagnostic naming.
func (l *Linker) NewStubBuilder(kind string) *asm.Builder {
	return asm.NewBuilder(l.mod, kind)
}

// SlowLabel returns a label standing in for this chunk's generic slow
// trampoline entry, the target every freshly created PIC record's inline
// guard starts pointed at.
func (l *Linker) SlowLabel(name string) asm.Label {
	fn := l.mod.NewFunc(name, types.I1)
	blk := fn.NewBlock("entry")
	blk.NewUnreachable()
	return blk
}

// Finalize seals a stub's code, range-checks it, and records it against
// the owning pool. On success the blob is appended to pool.blobs and
// counted toward the PIC's generated-stub total by the caller.
func (l *Linker) Finalize(pool *Pool, b *asm.Builder) (*asm.CodeBlob, error) {
	blob := b.Finalize()
	if len(blob.Func.Blocks) > maxBlocksPerStub {
		return nil, ErrOutOfRange
	}
	pool.blobs = append(pool.blobs, blob)
	return blob, nil
}

// ReleasePool drops the PIC's reference to a pool; once unmapped its
// blobs are no longer reachable from any live stub.
func (l *Linker) ReleasePool(p *Pool) {
	if p.Release() {
		delete(l.pools, p.ID)
		p.blobs = nil
	}
}
