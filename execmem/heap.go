package execmem

// HeapAllocator allocates chunks from the Go heap. Permission changes are ignored, so
// code published with a HeapAllocator cannot be bound to a function. It is useful for inspecting the
// published bytes on platforms without executable mappings.
type HeapAllocator struct{}

func (HeapAllocator) Allocate(size int) (Chunk, error) {
	return Chunk{Mem: make([]byte, size)}, nil
}

func (HeapAllocator) SetPermissions(Chunk, int, Perm) error { return nil }

func (HeapAllocator) Free(Chunk) error { return nil }

// Heap memory is never executable; binding a function to it fails with ErrNotExecutable.
func (HeapAllocator) Executable() bool { return false }
