//go:build !unix

package execmem

// DefaultAllocator returns the allocator for executable code on this platform. Executable
// mappings are not supported here; published code may be inspected but not invoked.
func DefaultAllocator() Allocator { return HeapAllocator{} }
