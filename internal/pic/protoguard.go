package pic

import (
	"picjit/internal/asm"
	"picjit/internal/shape"
)

// protoChain collects every object strictly between recv and holder along
// the prototype chain, nearest-first. holder itself is excluded: its own
// shape is checked by the stub's secondary guard (stub.go's SecondGuard),
// not folded into the primary chain.
func protoChain(recv, holder *shape.Object) []*shape.Object {
	var chain []*shape.Object
	for cur := recv.Proto; cur != nil && cur != holder; cur = cur.Proto {
		chain = append(chain, cur)
	}
	return chain
}

// ValidatePrototypeChain walks from recv to holder and reports whether
// every intervening link is safe to guard structurally (native, not
// marked UncacheableProto), bailing out of caching before any guard is
// emitted. baked is the ordered list of shape ids the codegen and
// runtime guard must both check.
func ValidatePrototypeChain(recv, holder *shape.Object) (baked []uint64, reason DisableReason, ok bool) {
	if !recv.IsNative() {
		return nil, ReasonNonNativeReceiver, false
	}
	if recv.UncacheableProto {
		return nil, ReasonNonNativeProtoLink, false
	}
	for _, link := range protoChain(recv, holder) {
		if !link.IsNative() {
			return nil, ReasonNonNativeProtoLink, false
		}
		if link.UncacheableProto {
			return nil, ReasonNonNativeProtoLink, false
		}
		baked = append(baked, link.Shape.ID())
	}
	if holder != recv {
		if holder == nil || !holder.IsNative() {
			return nil, ReasonNonNativeHolder, false
		}
	}
	return baked, "", true
}

// EmitPrototypeGuards lays the receiver's own shape guard plus one pointer
// compare per intervening prototype link into chain, all sharing chain's
// single relinkable mismatch exit, before control falls through to the
// holder's own guard.
func EmitPrototypeGuards(b *asm.Builder, chain *asm.GuardPoint, recv *shape.Object, baked []uint64) {
	b.EmitShapeCompare(chain, recv.Shape.ID())
	for _, id := range baked {
		b.EmitPointerCompare(chain, id, id)
	}
}

// CheckPrototypeChain is the dispatch-semantics mirror of
// EmitPrototypeGuards: it re-verifies the receiver's current shape and
// every intermediate link's current shape against what was baked at
// specialization time. Any drift means the stub is stale and control must
// fall to the next-older stub (or the slow trampoline).
func CheckPrototypeChain(recv *shape.Object, bakedRecvShape uint64, baked []uint64, holder *shape.Object) bool {
	if recv.Shape.ID() != bakedRecvShape {
		return false
	}
	links := protoChain(recv, holder)
	if len(links) != len(baked) {
		return false
	}
	for i, link := range links {
		if link.Shape.ID() != baked[i] {
			return false
		}
	}
	return true
}
