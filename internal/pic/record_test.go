package pic

import (
	"testing"

	"picjit/internal/shape"
	"picjit/internal/stublink"
)

func newTestRecord(kind Kind) *Record {
	l := stublink.NewLinker("test-chunk")
	slow := l.SlowLabel("slow_trampoline")
	return NewRecord(kind, l, slow, true)
}

func TestShouldUpdateGatesFirstHit(t *testing.T) {
	r := newTestRecord(KindGet)
	if r.ShouldUpdate() {
		t.Fatal("the first miss on a fresh PIC must not permit an update")
	}
	if !r.Hit {
		t.Fatal("the first miss must still record the record as hit")
	}
	if !r.ShouldUpdate() {
		t.Fatal("the second miss should be allowed to update")
	}
}

func TestShouldUpdateStopsAtSaturation(t *testing.T) {
	r := newTestRecord(KindGet)
	r.Hit = true
	r.StubsGenerated = r.Kind.MaxStubs()
	if r.ShouldUpdate() {
		t.Fatal("a saturated record must not permit further updates")
	}
}

func TestDisableIsIdempotentAndCountsOnce(t *testing.T) {
	r := newTestRecord(KindGet)
	before := DisabledSiteCount()
	r.disable(ReasonSaturated)
	r.disable(ReasonNonNativeReceiver)
	if r.DisableReason() != ReasonSaturated {
		t.Fatalf("disable must only take effect once, got reason %q", r.DisableReason())
	}
	if DisabledSiteCount() != before+1 {
		t.Fatalf("expected disabled-site count to grow by exactly one, got %d -> %d", before, DisabledSiteCount())
	}
}

func TestPrependStubDisablesOnSaturation(t *testing.T) {
	r := newTestRecord(KindGet)
	r.Hit = true
	for i := 0; i < r.Kind.MaxStubs(); i++ {
		pool := r.Linker.NewPool()
		b := r.Linker.NewStubBuilder("getprop")
		chain := b.NewGuardChain("mismatch", r.SlowLabel)
		b.EmitShapeCompare(chain, uint64(i))
		blob, err := r.Linker.Finalize(pool, b)
		if err != nil {
			t.Fatalf("unexpected Finalize error: %v", err)
		}
		r.prependStub(&Stub{Blob: blob, Pool: pool, Guard: chain}, pool)
	}
	if !r.Disabled {
		t.Fatal("reaching the per-kind stub cap must disable the record")
	}
	if r.DisableReason() != ReasonSaturated {
		t.Fatalf("expected ReasonSaturated, got %q", r.DisableReason())
	}
}

func TestOptionsOverrideStubCaps(t *testing.T) {
	l := stublink.NewLinker("test-chunk")
	slow := l.SlowLabel("slow_trampoline")
	r := NewRecordWithOptions(KindGet, l, slow, Options{MaxPropertyStubs: 2, AllowCallHooks: true})
	r.Hit = true
	r.StubsGenerated = 2
	if r.ShouldUpdate() {
		t.Fatal("a record at its configured cap must not permit further updates")
	}
	if NewRecord(KindGet, l, slow, false).CanCallHook {
		t.Fatal("NewRecord must carry the call-hook permission through")
	}
}

func TestDispatchWalksChainNewestFirst(t *testing.T) {
	r := newTestRecord(KindGet)
	r.Hit = true

	var order []int
	mkEval := func(id int, matches bool) EvalFunc {
		return func(acc *Access) (shape.Value, bool, error) {
			order = append(order, id)
			if !matches {
				return shape.Value{}, false, nil
			}
			return shape.Int32(int32(id)), true, nil
		}
	}

	older := &Stub{Eval: mkEval(1, false)}
	newer := &Stub{Eval: mkEval(2, true), Prev: older}
	r.ChainHead = newer
	r.StubsGenerated = 2

	v, ok, err := r.Dispatch(&Access{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected the newer stub to match")
	}
	if v.Int32() != 2 {
		t.Fatalf("expected value from the newer stub, got %d", v.Int32())
	}
	if len(order) != 1 || order[0] != 2 {
		t.Fatalf("expected only the newest stub to run when it matches, got %v", order)
	}
}

func TestDispatchFallsThroughOnAllMisses(t *testing.T) {
	r := newTestRecord(KindGet)
	r.Hit = true
	r.ChainHead = &Stub{Eval: func(acc *Access) (shape.Value, bool, error) {
		return shape.Value{}, false, nil
	}}
	_, ok, _ := r.Dispatch(&Access{})
	if ok {
		t.Fatal("a record with every stub missing must report ok=false")
	}
}

func TestPurgeResetsToFreshState(t *testing.T) {
	r := newTestRecord(KindGet)
	r.Hit = true

	var oracle shape.DefaultOracle
	recv := shape.NewPlainObject(nil)
	oracle.PutProperty(recv, "x", shape.Int32(1))
	if status := UpdateGet(r, oracle, &Access{Receiver: recv, Name: "x"}); status != Cacheable {
		t.Fatalf("expected Cacheable, got %v", status)
	}

	other := shape.NewPlainObject(nil)
	oracle.PutProperty(other, "y", shape.Int32(0))
	oracle.PutProperty(other, "x", shape.Int32(2))
	if status := UpdateGet(r, oracle, &Access{Receiver: other, Name: "x"}); status != Cacheable {
		t.Fatalf("expected Cacheable for the second shape, got %v", status)
	}

	r.Purge()

	if r.Hit {
		t.Fatal("purge must reset the first-hit gate")
	}
	if r.InlinePathPatched || r.InlineEval != nil {
		t.Fatal("purge must forget the inline specialization")
	}
	if r.StubsGenerated != 0 || r.ChainHead != nil {
		t.Fatalf("purge must drop the stub chain, got %d stubs", r.StubsGenerated)
	}
	if r.Disabled {
		t.Fatal("purge must clear the disabled state")
	}
	if _, ok, _ := r.Dispatch(&Access{Receiver: recv, Name: "x"}); ok {
		t.Fatal("no stub may be reachable after a purge")
	}
	if r.ShouldUpdate() {
		t.Fatal("the first miss after a purge must be gated exactly like a fresh record's")
	}
	if !r.Hit {
		t.Fatal("the gated first miss after a purge must re-mark the record as hit")
	}
}

func TestDispatchStillRunsStubsWhenDisabled(t *testing.T) {
	r := newTestRecord(KindGet)
	r.Hit = true
	r.ChainHead = &Stub{Eval: func(acc *Access) (shape.Value, bool, error) {
		return shape.Int32(1), true, nil
	}}
	r.disable(ReasonSaturated)
	v, ok, _ := r.Dispatch(&Access{})
	if !ok || v.Int32() != 1 {
		t.Fatal("disabling stops updates, not dispatch; an attached stub must keep hitting")
	}
	if r.ShouldUpdate() {
		t.Fatal("a disabled, saturated record must not permit further updates")
	}
}
