// cmd/picbench/main.go
package main

import (
	"fmt"
	"os"
	"time"

	"picjit/internal/gcsim"
	"picjit/internal/pic"
	"picjit/internal/shape"
	"picjit/internal/stublink"
	"picjit/internal/trampoline"
)

const VERSION = "0.1.0"

var (
	BuildDate = time.Now().Format("2006-01-02")
	GitCommit = "unknown"
)

// Command aliases mapping, modeled on the interpreter CLI's dispatch table.
var commandAliases = map[string]string{
	"s": "scenario",
	"a": "all",
	"v": "version",
}

var scenarioOrder = []string{
	"monomorphic-get",
	"polymorphic-get",
	"proto-walk",
	"set-add-property",
	"setelem-hole-fill",
	"typed-array",
	"purge-on-gc",
}

var scenarios = map[string]func() error{
	"monomorphic-get":   scenarioMonomorphicGet,
	"polymorphic-get":   scenarioPolymorphicGet,
	"proto-walk":        scenarioProtoWalk,
	"set-add-property":  scenarioSetAddProperty,
	"setelem-hole-fill": scenarioSetElemHoleFill,
	"typed-array":       scenarioTypedArray,
	"purge-on-gc":       scenarioPurgeOnGC,
}

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		showUsage()
		return
	}

	cmd := args[0]
	if alias, ok := commandAliases[cmd]; ok {
		cmd = alias
		args[0] = alias
	}

	switch cmd {
	case "--help", "-h", "help":
		showUsage()
	case "--version", "-v", "version":
		showVersion()
	case "all":
		if !runAll() {
			os.Exit(1)
		}
	case "scenario":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "picbench: scenario requires a name; try `picbench all` to list them")
			os.Exit(1)
		}
		fn, ok := scenarios[args[1]]
		if !ok {
			fmt.Fprintf(os.Stderr, "picbench: unknown scenario %q\n", args[1])
			os.Exit(1)
		}
		if err := fn(); err != nil {
			fmt.Printf("FAIL %s: %v\n", args[1], err)
			os.Exit(1)
		}
		fmt.Printf("PASS %s\n", args[1])
	default:
		fmt.Fprintf(os.Stderr, "picbench: unknown command %q\n", cmd)
		showUsage()
		os.Exit(1)
	}
}

func showUsage() {
	fmt.Println("picbench - PIC engine scenario driver")
	fmt.Println()
	fmt.Println("usage: picbench <command> [args]")
	fmt.Println()
	fmt.Println("commands:")
	fmt.Println("  all                       run every scenario")
	fmt.Println("  scenario <name>           run one named scenario")
	fmt.Println("  version                   print build info")
	fmt.Println()
	fmt.Println("scenarios:")
	for _, name := range scenarioOrder {
		fmt.Printf("  %s\n", name)
	}
}

func showVersion() {
	fmt.Printf("picbench %s (build %s, commit %s)\n", VERSION, BuildDate, GitCommit)
}

func runAll() bool {
	passed := 0
	for _, name := range scenarioOrder {
		if err := scenarios[name](); err != nil {
			fmt.Printf("FAIL %-18s %v\n", name, err)
			continue
		}
		fmt.Printf("PASS %s\n", name)
		passed++
	}
	fmt.Printf("\n%d/%d scenarios passed, %d sites disabled\n",
		passed, len(scenarioOrder), pic.DisabledSiteCount())
	return passed == len(scenarioOrder)
}

// newSite wires a fresh linker, PIC record, and oracle for one scenario,
// mirroring how internal/trampoline.Chunk attaches a record per bytecode
// site.
func newSite(kind pic.Kind) (*pic.Record, *trampoline.Runtime) {
	linker := stublink.NewLinker("picbench-chunk")
	slow := linker.SlowLabel("slow_trampoline")
	rec := pic.NewRecord(kind, linker, slow, true)
	return rec, trampoline.NewRuntime()
}

func getProp(rt *trampoline.Runtime, f *trampoline.Frame, rec *pic.Record, recv *shape.Object, name string) (shape.Value, error) {
	f.Push(shape.FromObject(recv))
	if err := rt.GetProp(f, rec, name); err != nil {
		return shape.Value{}, err
	}
	return f.Pop(), nil
}

// Two same-shape objects: the first access only marks the site hit, the
// second specializes the inline path, the third hits it with no further
// emissions.
func scenarioMonomorphicGet() error {
	rec, rt := newSite(pic.KindGet)
	f := trampoline.NewFrame(nil)

	o1 := shape.NewPlainObject(nil)
	o1.Shape, _, _, _ = o1.Shape.AddDataProperty("x")
	o1.SetSlot(0, true, shape.Int32(1))

	o2 := shape.NewPlainObject(nil)
	o2.Shape, _, _, _ = o2.Shape.AddDataProperty("x")
	o2.SetSlot(0, true, shape.Int32(2))

	if o1.Shape != o2.Shape {
		return fmt.Errorf("o1 and o2 must share a shape")
	}

	v, err := getProp(rt, f, rec, o1, "x")
	if err != nil {
		return err
	}
	if v.Int32() != 1 || !rec.Hit || rec.StubsGenerated != 0 {
		return fmt.Errorf("first access: want 1, hit, no stub; got %v hit=%v stubs=%d", v, rec.Hit, rec.StubsGenerated)
	}

	if v, err = getProp(rt, f, rec, o2, "x"); err != nil {
		return err
	}
	if v.Int32() != 2 || !rec.InlinePathPatched {
		return fmt.Errorf("second access: want 2 with inline path patched; got %v patched=%v", v, rec.InlinePathPatched)
	}

	if v, err = getProp(rt, f, rec, o1, "x"); err != nil {
		return err
	}
	if v.Int32() != 1 || rec.StubsGenerated != 0 {
		return fmt.Errorf("third access: want 1 with zero extra emissions; got %v stubs=%d", v, rec.StubsGenerated)
	}
	return nil
}

// Three differently shaped receivers at one site end up as one specialized
// inline path plus two chained stubs, each resolving its own value.
func scenarioPolymorphicGet() error {
	rec, rt := newSite(pic.KindGet)
	f := trampoline.NewFrame(nil)

	mk := func(fields []string, finalVal int32) *shape.Object {
		o := shape.NewPlainObject(nil)
		for i, name := range fields {
			var slot int
			var fixed bool
			o.Shape, slot, fixed, _ = o.Shape.AddDataProperty(name)
			if i == len(fields)-1 {
				o.SetSlot(slot, fixed, shape.Int32(finalVal))
			}
		}
		return o
	}

	// A leading warm-up access consumes the first-hit gate before the
	// three polymorphic receivers arrive, so the first of them becomes
	// the inline-patched access and the other two each chain a stub.
	warm := mk([]string{"x"}, 0)
	if _, err := getProp(rt, f, rec, warm, "x"); err != nil {
		return err
	}

	o1 := mk([]string{"x"}, 1)
	o2 := mk([]string{"y", "x"}, 2)
	o3 := mk([]string{"z", "y", "x"}, 3)

	for i, o := range []*shape.Object{o1, o2, o3} {
		v, err := getProp(rt, f, rec, o, "x")
		if err != nil {
			return err
		}
		if v.Int32() != int32(i+1) {
			return fmt.Errorf("receiver %d: want %d, got %v", i+1, i+1, v)
		}
	}
	if rec.StubsGenerated != 2 || !rec.InlinePathPatched {
		return fmt.Errorf("want inline path plus 2 chained stubs, got patched=%v stubs=%d", rec.InlinePathPatched, rec.StubsGenerated)
	}
	return nil
}

// A property held by the prototype caches with a proto guard; deleting it
// and purging sends the next read back through the slow path.
func scenarioProtoWalk() error {
	rec, rt := newSite(pic.KindGet)
	f := trampoline.NewFrame(nil)

	parent := shape.NewPlainObject(nil)
	var slot int
	var fixed bool
	parent.Shape, slot, fixed, _ = parent.Shape.AddDataProperty("f")
	parent.SetSlot(slot, fixed, shape.Int32(1))

	child := shape.NewPlainObject(parent)

	if v, err := getProp(rt, f, rec, child, "f"); err != nil {
		return err
	} else if v.Int32() != 1 || rec.StubsGenerated != 0 {
		return fmt.Errorf("first hit must resolve 1 with no stub, got %v stubs=%d", v, rec.StubsGenerated)
	}

	if v, err := getProp(rt, f, rec, child, "f"); err != nil {
		return err
	} else if v.Int32() != 1 || rec.StubsGenerated != 1 {
		return fmt.Errorf("second hit must chain a proto-walk stub, got %v stubs=%d", v, rec.StubsGenerated)
	}

	gc := gcsim.NewCollector()
	// Simulate deleting parent.f: rebind to a shape without it, then GC.
	parent.Shape = shape.EmptyShape()
	gc.Cycle()
	rec.Purge()

	v, err := getProp(rt, f, rec, child, "f")
	if err != nil {
		return err
	}
	if !v.IsUndefined() {
		return fmt.Errorf("after purge the deleted property must read undefined, got %v", v)
	}
	return nil
}

// Two adds on an empty object then a third add on an {a,b}-shaped one:
// every miss that survives the first-hit gate chains an add-property stub
// and the final shapes carry the right property counts.
func scenarioSetAddProperty() error {
	rec, rt := newSite(pic.KindSet)
	f := trampoline.NewFrame(nil)

	o := shape.NewPlainObject(nil)
	setProp := func(recv *shape.Object, name string, v int32) error {
		f.Push(shape.FromObject(recv))
		f.Push(shape.Int32(v))
		if err := rt.SetProp(f, rec, name, nil); err != nil {
			return err
		}
		f.Pop()
		return nil
	}

	if err := setProp(o, "a", 1); err != nil {
		return err
	}
	if err := setProp(o, "b", 2); err != nil {
		return err
	}

	o2 := shape.NewPlainObject(nil)
	o2.Shape, _, _, _ = o2.Shape.AddDataProperty("a")
	o2.Shape, _, _, _ = o2.Shape.AddDataProperty("b")
	if err := setProp(o2, "c", 3); err != nil {
		return err
	}

	if len(o.Shape.Properties()) != 2 {
		return fmt.Errorf("o must end with 2 properties, got %d", len(o.Shape.Properties()))
	}
	if len(o2.Shape.Properties()) != 3 {
		return fmt.Errorf("o2 must end with 3 properties, got %d", len(o2.Shape.Properties()))
	}
	if rec.StubsGenerated != 2 {
		return fmt.Errorf("want one stub per post-gate add, got %d", rec.StubsGenerated)
	}
	return nil
}

// a[i] = i for i in 0..9: the hole-fill stub attaches monomorphically
// after the gate and serves every later write.
func scenarioSetElemHoleFill() error {
	rec, rt := newSite(pic.KindSetElem)
	f := trampoline.NewFrame(nil)

	a := shape.NewPlainObject(nil)
	a.Class = shape.ClassDenseArray
	a.Elements = make([]shape.Value, 0, 16)

	for i := 0; i < 10; i++ {
		f.Push(shape.FromObject(a))
		f.Push(shape.Int32(int32(i)))
		f.Push(shape.Int32(int32(i)))
		if err := rt.SetElement(f, rec); err != nil {
			return err
		}
		f.Pop()
	}
	if a.Length != 10 {
		return fmt.Errorf("a.length must be 10, got %d", a.Length)
	}
	if rec.StubsGenerated != 1 || !rec.Disabled {
		return fmt.Errorf("hole fill must be monomorphic then disabled, got stubs=%d disabled=%v", rec.StubsGenerated, rec.Disabled)
	}
	return nil
}

// ta[0] = 300 on a Uint8Array stores 300 & 0xff; out-of-range writes are
// silently dropped.
func scenarioTypedArray() error {
	rec, rt := newSite(pic.KindSetElem)
	f := trampoline.NewFrame(nil)

	ta := shape.NewPlainObject(nil)
	ta.Class = shape.ClassTypedArray
	ta.TAType = shape.TAUint8
	ta.TABuffer = make([]byte, 4)

	f.Push(shape.FromObject(ta))
	f.Push(shape.Int32(0))
	f.Push(shape.Int32(300))
	if err := rt.SetElement(f, rec); err != nil {
		return err
	}
	f.Pop()
	if ta.TABuffer[0] != 44 {
		return fmt.Errorf("ta[0] = 300 must store 44, got %d", ta.TABuffer[0])
	}

	f.Push(shape.FromObject(ta))
	f.Push(shape.Int32(99))
	f.Push(shape.Int32(7))
	if err := rt.SetElement(f, rec); err != nil {
		return fmt.Errorf("out-of-range write must not raise, got %v", err)
	}
	f.Pop()
	for i, b := range ta.TABuffer {
		if i == 0 {
			continue
		}
		if b != 0 {
			return fmt.Errorf("out-of-range write must leave the buffer untouched, got %v", ta.TABuffer)
		}
	}
	return nil
}

// A GC cycle purges the site: the next execution is a first-hit again.
func scenarioPurgeOnGC() error {
	rec, rt := newSite(pic.KindGet)
	f := trampoline.NewFrame(nil)
	gc := gcsim.NewCollector()

	o := shape.NewPlainObject(nil)
	var slot int
	var fixed bool
	o.Shape, slot, fixed, _ = o.Shape.AddDataProperty("v")
	o.SetSlot(slot, fixed, shape.Int32(42))

	if _, err := getProp(rt, f, rec, o, "v"); err != nil {
		return err
	}
	if _, err := getProp(rt, f, rec, o, "v"); err != nil {
		return err
	}
	if !rec.InlinePathPatched {
		return fmt.Errorf("site must be specialized before the GC cycle")
	}

	gc.Cycle()
	rec.Purge()
	if rec.Hit || rec.InlinePathPatched || rec.StubsGenerated != 0 {
		return fmt.Errorf("purge must reset to first-hit state, got hit=%v patched=%v stubs=%d", rec.Hit, rec.InlinePathPatched, rec.StubsGenerated)
	}

	v, err := getProp(rt, f, rec, o, "v")
	if err != nil {
		return err
	}
	if v.Int32() != 42 || rec.StubsGenerated != 0 || rec.InlinePathPatched {
		return fmt.Errorf("the access after a purge must behave as a first-hit, got %v", v)
	}
	return nil
}
