// Package execmem publishes assembled machine code as callable Go functions.
//
// Code is published under a write-xor-execute discipline: a chunk is made writable, filled, and
// then made executable and read-only before a Func is returned. A Func which fails any step of
// publication is never returned; its chunk is freed and a *PublishError describes the failure.
package execmem

import (
	"errors"
	"fmt"
	"strings"
)

// Perm is a set of page permissions.
type Perm uint8

const (
	PermRead Perm = 1 << iota
	PermWrite
	PermExec
)

func (p Perm) String() string {
	var sb strings.Builder
	for _, f := range [...]struct {
		p Perm
		c byte
	}{{PermRead, 'r'}, {PermWrite, 'w'}, {PermExec, 'x'}} {
		if p&f.p != 0 {
			sb.WriteByte(f.c)
		} else {
			sb.WriteByte('-')
		}
	}
	return sb.String()
}

// Chunk is a region of memory obtained from an Allocator.
type Chunk struct {
	Mem []byte
}

// Allocator provides memory whose permissions may be changed. Implementations must be safe for
// concurrent use if functions are published concurrently.
type Allocator interface {
	// Allocate a chunk of at least size bytes.
	Allocate(size int) (Chunk, error)
	// Set the permissions of the first size bytes of a chunk (rounded up as required).
	SetPermissions(c Chunk, size int, p Perm) error
	// Release a chunk, regardless of its current permissions.
	Free(c Chunk) error
}

// An allocator may implement executable to report whether its chunks can be executed at all.
// Allocators which do not implement it are trusted to grant PermExec.
type executable interface {
	Executable() bool
}

var (
	ErrAllocate = errors.New("execmem: allocation failed")
	ErrProtect  = errors.New("execmem: permission change failed")
	ErrFree     = errors.New("execmem: free failed")
	ErrReleased = errors.New("execmem: function was released")
	ErrNotFunc  = errors.New("execmem: destination must be a non-nil pointer to a function variable")

	ErrNotExecutable = errors.New("execmem: allocator cannot provide executable memory")
)

// PublishError describes a failed step of publication or release.
type PublishError struct {
	Op   string // allocate, protect, or free
	Size int
	Err  error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("execmem: %s (%d bytes): %v", e.Op, e.Size, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }

func roundUp(n, to int) int { return (n + to - 1) / to * to }
