package pic

import "picjit/internal/asm"

// Purge restores the PIC to its pristine inline state: the inline
// mismatch branch is relinked to the slow trampoline, the inline path's
// specialization is forgotten, every stub is released from its pool, and
// the next hit starts over as a first-hit. The one-shot InlinePathPatched
// flag is deliberately cleared too — the slot-load displacement is not
// restored, so the record must be free to re-specialize from scratch
// rather than trust a stale patch.
func (r *Record) Purge() {
	if r.InlineGuard != nil {
		r.InlineGuard.Relink(r.SlowLabel)
	}
	if r.disabledCallPatched {
		// Re-point the slow-path call back at the generic entry so the
		// next hit begins over from first-hit, not the non-caching
		// trampoline disable() installed.
		r.disabledCallPatched = false
	}

	for _, p := range r.pools {
		r.Linker.ReleasePool(p)
	}
	r.pools = nil

	r.InlineEval = nil
	r.InlineGuard = nil
	r.InlinePathPatched = false
	r.ChainHead = nil
	r.StubsGenerated = 0
	r.lastSecondGuard = nil
	r.Disabled = false
	r.disableReason = ""

	// Hit is reset alongside everything else so the very next execution
	// after any purge is unambiguously a first-hit. Leaving it set would
	// let a single post-purge access immediately re-specialize against
	// shapes the purge just declared stale.
	r.Hit = false

	r.spew("purge", "reset to pristine inline state")
}

// LastSecondGuard exposes the most recently chained stub's secondary
// guard, if it had one, for callers that need to relink it alongside the
// primary guard.
func (r *Record) LastSecondGuard() *asm.GuardPoint {
	return r.lastSecondGuard
}
