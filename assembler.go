package x64

import (
	"fmt"
	"sync/atomic"

	"github.com/wdamron/x64jit/internal/settings"
)

// Each assembler, and each reset of an assembler, takes a new label generation so that labels
// cannot be used outside the assembler state which created them.
var labelGen atomic.Uint32

// An assembler encodes instructions into a byte slice. Label references may be recorded before
// the label is bound; Finalize must be called once all instructions are encoded to verify that no
// reference was left unresolved.
//
// When re-using an assembler after encoding a set of instructions, the Reset method must be called beforehand.
//
// An assembler is not safe for concurrent use. Distinct assemblers share no state.
type Assembler struct {
	b      buffer
	labels []labelState
	gen    uint32
	err    error

	_labels [32]labelState
}

// Create a new Assembler for instruction encoding. Output will be encoded to buf. If the encoded output
// exceeds the length of buf, a new slice will be allocated. If buf is nil, a buffer of the configured
// default size (X64JIT_BUFFER_SIZE) is allocated.
func NewAssembler(buf []byte) *Assembler {
	if buf == nil {
		buf = make([]byte, settings.Load().BufferSize)
	}
	a := Assembler{b: *newBuffer(buf), gen: labelGen.Add(1)}
	a.labels = a._labels[:0]
	return &a
}

// Reset an assembler before encoding a new set of instructions. All existing labels will be cleared,
// the error will be cleared if one exists, and the PC will be reset to 0.
//
// If buf is not nil, the assembler's buffer will be replaced with buf; otherwise, the assembler's
// buffer will be reset and possibly resized.
func (a *Assembler) Reset(buf []byte) {
	if buf != nil {
		a.b = *newBuffer(buf)
	} else {
		a.b.Reset()
	}
	a.err = nil
	a.labels = a._labels[:0]
	a.gen = labelGen.Add(1)
}

// Get the first error which occured while encoding or finalizing instructions, since the assembler
// was last reset (or initialized, if the assembler has not been reset).
func (a *Assembler) Err() error { return a.err }

// Get the current encoded instructions. This method may be called multiple times and does not affect the
// underlying code buffer.
func (a *Assembler) Code() []byte { return a.b.Get() }

// Get the current program counter (i.e. number of bytes written to the encoding buffer).
func (a *Assembler) PC() uint32 { return uint32(a.b.i) }

// Record err as the assembler's error unless one is already recorded. Returns the recorded error.
func (a *Assembler) fail(err error) error {
	if a.err == nil {
		a.err = err
	}
	return a.err
}

func (a *Assembler) failf(format string, args ...interface{}) error {
	return a.fail(fmt.Errorf(format, args...))
}

// Align the program counter to a power-of-2 offset. Intermediate space will be filled with NOPs.
func (a *Assembler) AlignPC(pow2 uint32) {
	if a.err != nil {
		return
	}
	if pow2 == 0 || pow2&(pow2-1) != 0 {
		a.failf("%w: alignment %d is not a power of 2", ErrInvalidOperand, pow2)
		return
	}
	if rem := a.PC() & (pow2 - 1); rem != 0 {
		a.b.Nop(int(pow2 - rem))
	}
}

// Encode length bytes of NOP instructions to the encoding buffer.
func (a *Assembler) Nop(length int) {
	if a.err == nil {
		a.b.Nop(length)
	}
}

// Write raw data to the encoding buffer.
func (a *Assembler) Raw(data []byte) { a.b.Bytes(data) }

// Write a raw byte to the encoding buffer.
func (a *Assembler) RawByte(b byte) { a.b.Byte(b) }

// Write a raw 16-bit integer to the encoding buffer.
func (a *Assembler) Raw16(i int16) { a.b.Int16(i) }

// Write a raw 32-bit integer to the encoding buffer.
func (a *Assembler) Raw32(i int32) { a.b.Int32(i) }

// Write a raw 64-bit integer to the encoding buffer.
func (a *Assembler) Raw64(i int64) { a.b.Int64(i) }

// Verify that every label with recorded references has been bound, and return the first error
// which occured since the assembler was last reset. The encoded code is only valid if Finalize
// returns nil.
func (a *Assembler) Finalize() error {
	if a.err != nil {
		return a.err
	}
	for i := range a.labels {
		l := &a.labels[i]
		if !l.bound && l.pending() > 0 {
			return a.failf("%w: label %d (%d far, %d near references)", ErrLabelUnbound, i+1, l.farN, l.nearN)
		}
	}
	return nil
}
