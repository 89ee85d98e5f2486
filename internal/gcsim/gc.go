// Package gcsim is a minimal stand-in for the garbage collector the PIC
// engine reacts to: all internal/trampoline needs from a real collector
// is a generation counter that bumps on every cycle, so every PIC in a
// chunk can be purged when shapes may have been regenerated.
package gcsim

import "sync/atomic"

// Collector tracks a monotonically increasing generation number. It does
// not actually move or reclaim objects — shape/object identity in this
// module is already stable Go pointers — it exists purely so
// internal/trampoline has something concrete to subscribe a purge-all
// hook to.
type Collector struct {
	generation uint64
}

// NewCollector returns a fresh collector at generation 0.
func NewCollector() *Collector { return &Collector{} }

// Cycle runs one collection cycle, bumping the generation and returning
// its new value.
func (c *Collector) Cycle() uint64 {
	return atomic.AddUint64(&c.generation, 1)
}

// Generation reports the current generation without advancing it.
func (c *Collector) Generation() uint64 {
	return atomic.LoadUint64(&c.generation)
}
