// Package trampoline is the PIC engine's external interface: the entry
// points a bytecode interpreter calls on a cache miss, plus minimal
// Frame/Chunk stand-ins for the interpreter, frame layout, and stack
// walker the engine otherwise treats as external collaborators.
package trampoline

import "picjit/internal/pic"

// DebugInfo stores the source location a bytecode instruction compiled
// from.
type DebugInfo struct {
	Line     int
	Column   int
	File     string
	Function string
}

// Chunk is a compiled code chunk: bytecode, constants, debug info, and
// the PIC records every {GET,SET,NAME,XNAME,BIND,GETELEM,SETELEM} site
// in it owns. Destroying a Chunk destroys every PIC record in Sites.
type Chunk struct {
	Code      []byte
	Constants []interface{}
	Debug     []DebugInfo

	Sites map[int]*pic.Record // bytecode offset -> PIC record reached there
}

func NewChunk() *Chunk {
	return &Chunk{
		Code:      []byte{},
		Constants: []interface{}{},
		Debug:     []DebugInfo{},
		Sites:     make(map[int]*pic.Record),
	}
}

func (c *Chunk) WriteOp(op OpCode) {
	c.Code = append(c.Code, byte(op))
	c.Debug = append(c.Debug, DebugInfo{})
}

func (c *Chunk) WriteOpWithDebug(op OpCode, debug DebugInfo) {
	c.Code = append(c.Code, byte(op))
	c.Debug = append(c.Debug, debug)
}

func (c *Chunk) AddConstant(val interface{}) int {
	c.Constants = append(c.Constants, val)
	return len(c.Constants) - 1
}

func (c *Chunk) GetDebugInfo(ip int) DebugInfo {
	if ip >= 0 && ip < len(c.Debug) {
		return c.Debug[ip]
	}
	return DebugInfo{}
}

// AttachSite registers a newly created PIC record at the bytecode offset
// the compiler reserved inline patch bytes at.
func (c *Chunk) AttachSite(offset int, rec *pic.Record) {
	c.Sites[offset] = rec
}

// PurgeAll resets every PIC record owned by this chunk back to its
// pristine inline state. The caller must guarantee no frame of this
// chunk's code is executing, which holds at GC safe points.
func (c *Chunk) PurgeAll() {
	for _, rec := range c.Sites {
		rec.Purge()
	}
}
