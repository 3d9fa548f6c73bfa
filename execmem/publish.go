package execmem

import (
	"fmt"
	"sync/atomic"

	"github.com/wdamron/x64jit/disasm"
	"github.com/wdamron/x64jit/internal/log"
	"github.com/wdamron/x64jit/internal/settings"
)

// Report whether published code is listed in the debug log (X64JIT_DUMP).
var dumpListings = func() bool { return settings.Load().Dump }

// Func is published machine code. Its memory is executable and read-only until Release is called.
type Func struct {
	alloc    Allocator
	chunk    Chunk
	size     int
	released atomic.Bool
}

// Publish copies code into memory obtained from alloc and makes it executable. The chunk is first
// made writable and executable, filled, then made readable and executable, dropping write access.
//
// If any step fails, the chunk is freed and a *PublishError is returned; errors.Is reports
// ErrAllocate or ErrProtect for the failing step.
func Publish(alloc Allocator, code []byte) (*Func, error) {
	size := len(code)
	if size == 0 {
		return nil, &PublishError{Op: "allocate", Err: fmt.Errorf("%w: no code", ErrAllocate)}
	}
	c, err := alloc.Allocate(size)
	if err != nil {
		return nil, &PublishError{Op: "allocate", Size: size, Err: fmt.Errorf("%w: %w", ErrAllocate, err)}
	}
	if len(c.Mem) < size {
		err := fmt.Errorf("%w: got %d bytes", ErrAllocate, len(c.Mem))
		return nil, discard(alloc, c, &PublishError{Op: "allocate", Size: size, Err: err})
	}
	log.Debug(log.Publish, "allocated", "size", size, "chunk", len(c.Mem))

	if err := alloc.SetPermissions(c, size, PermExec|PermWrite); err != nil {
		return nil, discard(alloc, c, &PublishError{Op: "protect", Size: size, Err: fmt.Errorf("%w: %w", ErrProtect, err)})
	}
	copy(c.Mem, code)
	if err := alloc.SetPermissions(c, size, PermExec|PermRead); err != nil {
		return nil, discard(alloc, c, &PublishError{Op: "protect", Size: size, Err: fmt.Errorf("%w: %w", ErrProtect, err)})
	}

	f := &Func{alloc: alloc, chunk: c, size: size}
	log.Debug(log.Publish, "published", "size", size, "entry", fmt.Sprintf("%#x", f.Entry()))
	if dumpListings() && log.Enabled(log.LevelDebug) {
		log.Debug(log.Publish, "listing", "entry", fmt.Sprintf("%#x", f.Entry()), "code", "\n"+disasm.Listing(code))
	}
	return f, nil
}

// Free a chunk after a failed publication step and return the step's error.
func discard(alloc Allocator, c Chunk, perr *PublishError) error {
	if err := alloc.Free(c); err != nil {
		log.Warn(log.Publish, "free after failed publication", "op", perr.Op, "err", err)
	}
	log.Debug(log.Publish, "publication failed", "op", perr.Op, "err", perr.Err)
	return perr
}

// Get the published code.
func (f *Func) Code() []byte { return f.chunk.Mem[:f.size] }

// Get the size in bytes of the published code.
func (f *Func) Size() int { return f.size }

// Check if the function has been released.
func (f *Func) Released() bool { return f.released.Load() }

// Point the function variable at fnptr to the published code. fnptr must be a non-nil pointer to
// a variable of function type, and the function type must match the calling convention the code
// was assembled for:
//
//	var add func(a, b int) int
//	if err := f.Bind(&add); err != nil { ... }
//
// The function variable must not be called after the Func is released.
//
// Bind fails with ErrNotExecutable if the allocator reports that its chunks cannot be executed.
func (f *Func) Bind(fnptr any) error {
	if f.Released() {
		return ErrReleased
	}
	if e, ok := f.alloc.(executable); ok && !e.Executable() {
		return ErrNotExecutable
	}
	return makeFunc(fnptr, f.chunk.Mem)
}

// Release the memory backing the function. A Func may only be released once.
func (f *Func) Release() error {
	if !f.released.CompareAndSwap(false, true) {
		return ErrReleased
	}
	if err := f.alloc.Free(f.chunk); err != nil {
		return &PublishError{Op: "free", Size: f.size, Err: fmt.Errorf("%w: %w", ErrFree, err)}
	}
	log.Debug(log.Publish, "released", "size", f.size)
	return nil
}
