//go:build unix

package execmem

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// MmapAllocator allocates page-aligned anonymous private mappings. It holds no state and is safe
// for concurrent use.
type MmapAllocator struct{}

// DefaultAllocator returns the allocator for executable code on this platform.
func DefaultAllocator() Allocator { return MmapAllocator{} }

func (MmapAllocator) Allocate(size int) (Chunk, error) {
	if size <= 0 {
		return Chunk{}, fmt.Errorf("invalid size %d", size)
	}
	mem, err := unix.Mmap(-1, 0, roundUp(size, unix.Getpagesize()), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return Chunk{}, fmt.Errorf("sys/unix.Mmap: %w", err)
	}
	return Chunk{Mem: mem}, nil
}

func (MmapAllocator) SetPermissions(c Chunk, size int, p Perm) error {
	n := roundUp(size, unix.Getpagesize())
	if size <= 0 || n > len(c.Mem) {
		return fmt.Errorf("invalid size %d for a %d-byte chunk", size, len(c.Mem))
	}
	if err := unix.Mprotect(c.Mem[:n], prot(p)); err != nil {
		return fmt.Errorf("sys/unix.Mprotect(%s): %w", p, err)
	}
	return nil
}

func (MmapAllocator) Free(c Chunk) error {
	if err := unix.Munmap(c.Mem); err != nil {
		return fmt.Errorf("sys/unix.Munmap: %w", err)
	}
	return nil
}

func (MmapAllocator) Executable() bool { return true }

func prot(p Perm) int {
	prot := unix.PROT_NONE
	if p&PermRead != 0 {
		prot |= unix.PROT_READ
	}
	if p&PermWrite != 0 {
		prot |= unix.PROT_WRITE
	}
	if p&PermExec != 0 {
		prot |= unix.PROT_EXEC
	}
	return prot
}
