package pic

import (
	"sync/atomic"

	"picjit/internal/asm"
	"picjit/internal/inference"
	"picjit/internal/shape"
	"picjit/internal/stublink"
)

// disabledSiteCount is the only process-wide datum the engine keeps; it
// is diagnostic only and exists so cmd/picbench can print a summary.
var disabledSiteCount int64

func DisabledSiteCount() int64 { return atomic.LoadInt64(&disabledSiteCount) }

// Options configures the PIC records of one compiled chunk. The zero
// value of any field falls back to the package default, so embedders
// only set what they mean to change.
type Options struct {
	MaxPropertyStubs int
	MaxElementStubs  int
	AllowCallHooks   bool
}

// DefaultOptions returns the per-kind caps and call-hook permission a
// chunk gets when the embedder has no opinion.
func DefaultOptions() Options {
	return Options{
		MaxPropertyStubs: MaxPropertyStubs,
		MaxElementStubs:  MaxElementStubs,
		AllowCallHooks:   true,
	}
}

// Record is the per-site PIC metadata.
type Record struct {
	Kind Kind
	opts Options

	Linker *stublink.Linker
	pools  []*stublink.Pool

	InlineEval        EvalFunc
	InlineGuard       *asm.GuardPoint // nil until the inline path is patched
	InlinePathPatched bool

	ChainHead      *Stub
	StubsGenerated int

	Hit      bool
	Disabled bool

	// disabledCallPatched is true once disable() has redirected the
	// slow-path call to a non-caching trampoline; purge only needs to
	// relink that call if it was ever touched.
	disabledCallPatched bool

	// The last stub's secondary guard, so the next stub can chain past
	// it in lockstep with the primary when it is relinked.
	lastSecondGuard *asm.GuardPoint

	// SET-only.
	TypeMonitored bool
	RHSTypes      *inference.TypeSet

	// Whether this site's calling context permits emitting a call out to
	// a scripted/native getter or setter hook.
	CanCallHook bool

	SlowLabel asm.Label // sentinel "slow trampoline" target, for patch bookkeeping

	disableReason DisableReason

	tracer func(event, detail string)
}

// NewRecord creates a freshly reached PIC record with default options.
// linker owns the executable pools this record will allocate stubs into,
// and slowLabel is a stable per-chunk label standing in for the
// slow-path trampoline.
func NewRecord(kind Kind, linker *stublink.Linker, slowLabel asm.Label, canCallHook bool) *Record {
	o := DefaultOptions()
	o.AllowCallHooks = canCallHook
	return NewRecordWithOptions(kind, linker, slowLabel, o)
}

// NewRecordWithOptions creates a record with explicit per-chunk options.
func NewRecordWithOptions(kind Kind, linker *stublink.Linker, slowLabel asm.Label, o Options) *Record {
	return &Record{
		Kind:        kind,
		opts:        o,
		Linker:      linker,
		CanCallHook: o.AllowCallHooks,
		SlowLabel:   slowLabel,
	}
}

// maxStubs resolves this record's saturation cap from its options,
// falling back to the per-kind default for unset fields.
func (r *Record) maxStubs() int {
	switch r.Kind {
	case KindGetElem, KindSetElem:
		if r.opts.MaxElementStubs > 0 {
			return r.opts.MaxElementStubs
		}
		return MaxElementStubs
	default:
		if r.opts.MaxPropertyStubs > 0 {
			return r.opts.MaxPropertyStubs
		}
		return MaxPropertyStubs
	}
}

// SetTracer installs an optional trace hook, off by default.
func (r *Record) SetTracer(fn func(event, detail string)) { r.tracer = fn }

func (r *Record) spew(event, detail string) {
	if r.tracer != nil {
		r.tracer(event, detail)
	}
}

// ShouldUpdate is the first-hit gate: the very first miss on a fresh
// site only marks it as hit and produces no stub, filtering one-shot
// sites out of specialization entirely.
func (r *Record) ShouldUpdate() bool {
	if r.Disabled {
		return false
	}
	if !r.Hit {
		r.Hit = true
		r.spew("ignored", "first hit")
		return false
	}
	return r.StubsGenerated < r.maxStubs()
}

// addPool records a newly allocated pool against this record so Purge
// can release every reference it holds.
func (r *Record) addPool(p *stublink.Pool) {
	r.pools = append(r.pools, p)
}

// prependStub links a freshly finalized stub in front of the current
// chain head (or the inline path): the previous head's mismatch branch
// (and secondary guard, if any) is relinked to the new stub's entry.
func (r *Record) prependStub(s *Stub, pool *stublink.Pool) {
	entry := s.Blob.Func.Blocks[0]

	if r.StubsGenerated == 0 {
		if r.InlineGuard != nil {
			r.InlineGuard.Relink(entry)
		}
	} else if r.ChainHead != nil {
		r.ChainHead.relinkMismatchTo(entry)
	}

	s.Prev = r.ChainHead
	r.ChainHead = s
	r.StubsGenerated++
	r.lastSecondGuard = s.SecondGuard
	r.addPool(pool)

	if r.StubsGenerated >= r.maxStubs() {
		r.disable(ReasonSaturated)
	}
}

// disable is the engine's sole way to admit permanent unsuitability at a
// site: the slow-path call target is rewritten to a non-caching
// trampoline and the record stops accepting updates. Already-attached
// stubs keep dispatching; only further specialization stops.
func (r *Record) disable(reason DisableReason) {
	if r.Disabled {
		return
	}
	r.Disabled = true
	r.disableReason = reason
	r.disabledCallPatched = true
	atomic.AddInt64(&disabledSiteCount, 1)
	r.spew("disable", string(reason))
}

func (r *Record) DisableReason() DisableReason { return r.disableReason }

// Dispatch walks the inline path then the stub chain newest-first,
// returning the first guard match. ok=false means every guard missed and
// the caller must fall through to the generic slow path (and, from
// there, attempt Update). A disabled record still dispatches whatever it
// attached before disabling — a saturated chain's final stub and the
// monomorphic element stubs stay live; disabling only stops updates.
func (r *Record) Dispatch(acc *Access) (result shape.Value, ok bool, err error) {
	if r.InlineEval != nil {
		if v, matched, ierr := r.InlineEval(acc); matched {
			return v, true, ierr
		}
	}
	for s := r.ChainHead; s != nil; s = s.Prev {
		if v, matched, serr := s.Eval(acc); matched {
			return v, true, serr
		}
	}
	return shape.Undefined(), false, nil
}
