package x64

import (
	"encoding/binary"
)

// buffer is the append-only code buffer. Bytes before i are only rewritten by the label
// engine, at offsets it recorded itself.
type buffer struct {
	b  []byte
	i  int
	sz int
}

func newBuffer(b []byte) *buffer {
	return &buffer{b, 0, len(b)}
}

func (b *buffer) extend(length int) {
	if len(b.b)-b.i >= length {
		return
	}
	n := len(b.b) * 2
	if n < b.i+length {
		n = b.i + length
	}
	if n < 64 {
		n = 64
	}
	bb := make([]byte, n)
	copy(bb, b.b[:b.i])
	b.b = bb
}

func (b *buffer) Len() int    { return b.i }
func (b *buffer) Cap() int    { return len(b.b) }
func (b *buffer) Get() []byte { return b.b[:b.i] }
func (b *buffer) Reset()      { b.ResizeReset(b.sz) }
func (b *buffer) ResizeReset(capacity int) {
	if len(b.b) != capacity {
		b.b = make([]byte, capacity)
	}
	b.i = 0
}

func (b *buffer) Byte(v byte) {
	b.extend(1)
	b.b[b.i] = v
	b.i++
}

func (b *buffer) Byte2(v1, v2 byte) {
	b.extend(2)
	b.b[b.i], b.b[b.i+1] = v1, v2
	b.i += 2
}

func (b *buffer) Bytes(v []byte) {
	b.extend(len(v))
	copy(b.b[b.i:], v)
	b.i += len(v)
}

func (b *buffer) Int8(v int8) { b.Byte(byte(v)) }

func (b *buffer) Int16(v int16) {
	b.extend(2)
	binary.LittleEndian.PutUint16(b.b[b.i:], uint16(v))
	b.i += 2
}

func (b *buffer) Int32(v int32) {
	b.extend(4)
	binary.LittleEndian.PutUint32(b.b[b.i:], uint32(v))
	b.i += 4
}

func (b *buffer) Int64(v int64) {
	b.extend(8)
	binary.LittleEndian.PutUint64(b.b[b.i:], uint64(v))
	b.i += 8
}

func (b *buffer) Nop(length int) {
	maxNop := len(nops)
	for length > 0 {
		if length > maxNop {
			b.Bytes(nops[maxNop-1])
			length -= maxNop
		} else {
			b.Bytes(nops[length-1])
			break
		}
	}
}

// Random access, for label patching only.

func (b *buffer) at8(pos int) int8        { return int8(b.b[pos]) }
func (b *buffer) put8(pos int, v int8)    { b.b[pos] = byte(v) }
func (b *buffer) at32(pos int) int32      { return int32(binary.LittleEndian.Uint32(b.b[pos:])) }
func (b *buffer) put32(pos int, v int32)  { binary.LittleEndian.PutUint32(b.b[pos:], uint32(v)) }
func (b *buffer) inRange(pos, n int) bool { return pos >= 0 && pos+n <= b.i }

// Recommended multi-byte NOP sequences, indexed by length-1.
var nops = [...][]byte{
	{0x90},
	{0x66, 0x90},
	{0x0f, 0x1f, 0x00},
	{0x0f, 0x1f, 0x40, 0x00},
	{0x0f, 0x1f, 0x44, 0x00, 0x00},
	{0x66, 0x0f, 0x1f, 0x44, 0x00, 0x00},
	{0x0f, 0x1f, 0x80, 0x00, 0x00, 0x00, 0x00},
	{0x0f, 0x1f, 0x84, 0x00, 0x00, 0x00, 0x00, 0x00},
	{0x66, 0x0f, 0x1f, 0x84, 0x00, 0x00, 0x00, 0x00, 0x00},
}
