package trampoline

import (
	"picjit/internal/gcsim"
	"picjit/internal/inference"
	"picjit/internal/pic"
)

// Watcher ties a Chunk to the external events that must purge every PIC
// it owns: the type-inference engine reporting a recompilation, a GC
// cycle that regenerated shapes, or the chunk being retired outright.
type Watcher struct {
	chunk      *Chunk
	gc         *gcsim.Collector
	monitor    *inference.RecompilationMonitor
	lastGCSeen uint64
}

// NewWatcher attaches chunk to the given collector and recompilation
// monitor. Poll should be called once per bytecode dispatch loop (or at
// whatever granularity the host interpreter considers a safe point); it
// is intentionally synchronous and cheap (two counter reads) so calling
// it on every instruction is affordable.
func NewWatcher(chunk *Chunk, gc *gcsim.Collector, monitor *inference.RecompilationMonitor) *Watcher {
	return &Watcher{chunk: chunk, gc: gc, monitor: monitor, lastGCSeen: gc.Generation()}
}

// Poll purges the chunk if a GC cycle has run or a recompilation was
// flagged since the last Poll.
func (w *Watcher) Poll() {
	if gen := w.gc.Generation(); gen != w.lastGCSeen {
		w.lastGCSeen = gen
		w.chunk.PurgeAll()
		return
	}
	if w.monitor != nil && w.monitor.Changed() {
		w.chunk.PurgeAll()
	}
}

// Retire purges and detaches every site when the chunk itself is being
// thrown away.
func (w *Watcher) Retire() {
	w.chunk.PurgeAll()
	w.chunk.Sites = make(map[int]*pic.Record)
}
