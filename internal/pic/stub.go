package pic

import (
	"picjit/internal/asm"
	"picjit/internal/stublink"
)

// Stub is one finalized link in a PIC's chain: immutable after
// finalization except at its mismatch jumps, which later stubs relink to
// themselves. Blob/Pool/Guard are the generated-code artifact and its
// patch point; Eval is the Go-level dispatcher sharing the exact same
// guard data, so the two can never drift apart.
type Stub struct {
	Blob        *asm.CodeBlob
	Pool        *stublink.Pool
	Guard       *asm.GuardPoint // primary mismatch exit, relinked by Record.prependStub
	SecondGuard *asm.GuardPoint // secondary (prototype/holder) guard, relinked in lockstep
	Eval        EvalFunc
	Prev        *Stub // older stub; nil if this is the chain tail
}

// relinkMismatchTo repoints this stub's primary (and, if present,
// secondary) mismatch exit at `target`.
func (s *Stub) relinkMismatchTo(target asm.Label) {
	s.Guard.Relink(target)
	if s.SecondGuard != nil {
		s.SecondGuard.Relink(target)
	}
}
