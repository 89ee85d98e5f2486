package shape

import "math"

// StoreElement converts v into t's native on-buffer representation and
// writes it at byte offset idx*t.ByteSize(), including uint8-clamped
// saturation.
func (o *Object) StoreElement(idx int, t TAElemType, v Value) {
	off := idx * t.ByteSize()
	if off+t.ByteSize() > len(o.TABuffer) {
		return
	}
	switch t {
	case TAInt8:
		o.TABuffer[off] = byte(int8(v.Int32()))
	case TAUint8:
		o.TABuffer[off] = byte(v.Int32())
	case TAUint8Clamped:
		o.TABuffer[off] = clampUint8(v.Float64())
	case TAInt16:
		putInt(o.TABuffer[off:off+2], uint64(uint16(int16(v.Int32()))), 2)
	case TAUint16:
		putInt(o.TABuffer[off:off+2], uint64(uint16(v.Int32())), 2)
	case TAInt32:
		putInt(o.TABuffer[off:off+4], uint64(uint32(v.Int32())), 4)
	case TAUint32:
		putInt(o.TABuffer[off:off+4], uint64(uint32(v.Int32())), 4)
	case TAFloat32:
		putInt(o.TABuffer[off:off+4], uint64(math.Float32bits(float32(v.Float64()))), 4)
	case TAFloat64:
		putInt(o.TABuffer[off:off+8], math.Float64bits(v.Float64()), 8)
	}
}

// LoadElement is StoreElement's inverse, reading idx out of t's native
// on-buffer representation and boxing the result.
func (o *Object) LoadElement(idx int, t TAElemType) Value {
	off := idx * t.ByteSize()
	if off+t.ByteSize() > len(o.TABuffer) {
		return Undefined()
	}
	switch t {
	case TAInt8:
		return Int32(int32(int8(o.TABuffer[off])))
	case TAUint8, TAUint8Clamped:
		return Int32(int32(o.TABuffer[off]))
	case TAInt16:
		return Int32(int32(int16(getInt(o.TABuffer[off:off+2], 2))))
	case TAUint16:
		return Int32(int32(getInt(o.TABuffer[off:off+2], 2)))
	case TAInt32:
		return Int32(int32(getInt(o.TABuffer[off:off+4], 4)))
	case TAUint32:
		return Float64(float64(uint32(getInt(o.TABuffer[off:off+4], 4))))
	case TAFloat32:
		return Float64(float64(math.Float32frombits(uint32(getInt(o.TABuffer[off:off+4], 4)))))
	case TAFloat64:
		return Float64(math.Float64frombits(getInt(o.TABuffer[off:off+8], 8)))
	default:
		return Undefined()
	}
}

func clampUint8(f float64) byte {
	if math.IsNaN(f) || f <= 0 {
		return 0
	}
	if f >= 255 {
		return 255
	}
	return byte(math.Round(f))
}

func putInt(b []byte, v uint64, n int) {
	for i := 0; i < n; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

func getInt(b []byte, n int) uint64 {
	var v uint64
	for i := 0; i < n; i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return v
}
