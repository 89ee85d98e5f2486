package inference

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// RecompilationMonitor tracks whether type-set unions observed across
// one compiled code chunk have provoked a recompilation, the trigger
// internal/trampoline's purge-all path watches for.
//
// Sample/Changed are split so that many PIC sites can union into shared
// property type sets while only one caller per chunk actually pays for
// recomputing whether a recompilation is warranted. singleflight
// collapses redundant concurrent Sample calls for the same key into one
// evaluation.
type RecompilationMonitor struct {
	group     singleflight.Group
	mu        sync.Mutex
	changed   bool
	sightings int
}

// NewRecompilationMonitor returns a monitor for one compiled chunk.
func NewRecompilationMonitor() *RecompilationMonitor {
	return &RecompilationMonitor{}
}

// Sample records one type-set union result (whether it grew the set) and
// recomputes the chunk's recompile-pending flag, deduping concurrent
// callers reporting the same growth within the same instant.
func (m *RecompilationMonitor) Sample(key string, grew bool) {
	m.group.Do(key, func() (interface{}, error) {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.sightings++
		if grew {
			m.changed = true
		}
		return nil, nil
	})
}

// Changed reports whether a recompilation has been provoked since the
// previous call to Changed, and clears the flag (a caller that observes true must act
// on it — purge all PICs in the chunk — exactly once).
func (m *RecompilationMonitor) Changed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.changed
	m.changed = false
	return c
}

// Sightings returns the number of unions sampled so far, for diagnostics.
func (m *RecompilationMonitor) Sightings() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sightings
}
