package execmem

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wdamron/x64jit/internal/log"
)

var errInjected = errors.New("injected")

// recordingAllocator serves heap chunks and records every call. A non-zero failPerm makes the
// matching SetPermissions call fail.
type recordingAllocator struct {
	failAlloc bool
	failPerm  Perm
	failFree  bool
	short     bool

	perms []Perm
	freed int
	last  []byte
}

func (r *recordingAllocator) Allocate(size int) (Chunk, error) {
	if r.failAlloc {
		return Chunk{}, errInjected
	}
	if r.short {
		size--
	}
	r.last = make([]byte, size)
	return Chunk{Mem: r.last}, nil
}

func (r *recordingAllocator) SetPermissions(c Chunk, size int, p Perm) error {
	r.perms = append(r.perms, p)
	if r.failPerm != 0 && p == r.failPerm {
		return errInjected
	}
	return nil
}

func (r *recordingAllocator) Free(c Chunk) error {
	r.freed++
	if r.failFree {
		return errInjected
	}
	return nil
}

var ret999 = []byte{0xb8, 0xe7, 0x03, 0x00, 0x00, 0xc3}

func TestPublishPermissionSequence(t *testing.T) {
	alloc := &recordingAllocator{}
	f, err := Publish(alloc, ret999)
	require.NoError(t, err)
	assert.Equal(t, []Perm{PermExec | PermWrite, PermExec | PermRead}, alloc.perms)
	assert.Equal(t, ret999, f.Code())
	assert.Equal(t, len(ret999), f.Size())
	assert.Equal(t, 0, alloc.freed)

	require.NoError(t, f.Release())
	assert.Equal(t, 1, alloc.freed)
	assert.True(t, f.Released())
	assert.ErrorIs(t, f.Release(), ErrReleased)
	assert.Equal(t, 1, alloc.freed)

	var fn func() int
	assert.ErrorIs(t, f.Bind(&fn), ErrReleased)
}

func TestPublishFailures(t *testing.T) {
	for _, tc := range []struct {
		name  string
		alloc *recordingAllocator
		op    string
		is    error
		freed int
	}{
		{"allocate", &recordingAllocator{failAlloc: true}, "allocate", ErrAllocate, 0},
		{"short chunk", &recordingAllocator{short: true}, "allocate", ErrAllocate, 1},
		{"make writable", &recordingAllocator{failPerm: PermExec | PermWrite}, "protect", ErrProtect, 1},
		{"make executable", &recordingAllocator{failPerm: PermExec | PermRead}, "protect", ErrProtect, 1},
		{"free fails too", &recordingAllocator{failPerm: PermExec | PermRead, failFree: true}, "protect", ErrProtect, 1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			f, err := Publish(tc.alloc, ret999)
			require.Error(t, err)
			assert.Nil(t, f)

			var perr *PublishError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tc.op, perr.Op)
			assert.Equal(t, len(ret999), perr.Size)
			assert.ErrorIs(t, err, tc.is)
			assert.Equal(t, tc.freed, tc.alloc.freed)
		})
	}
}

func TestPublishUnderlyingError(t *testing.T) {
	_, err := Publish(&recordingAllocator{failPerm: PermExec | PermWrite}, ret999)
	assert.ErrorIs(t, err, errInjected)
}

func TestPublishEmpty(t *testing.T) {
	alloc := &recordingAllocator{}
	_, err := Publish(alloc, nil)
	assert.ErrorIs(t, err, ErrAllocate)
	assert.Nil(t, alloc.last)
}

func TestReleaseFreeError(t *testing.T) {
	alloc := &recordingAllocator{}
	f, err := Publish(alloc, ret999)
	require.NoError(t, err)

	alloc.failFree = true
	err = f.Release()
	assert.ErrorIs(t, err, ErrFree)
	assert.ErrorIs(t, err, errInjected)
	assert.ErrorIs(t, f.Release(), ErrReleased)
}

func TestBindRejectsNonFunc(t *testing.T) {
	f, err := Publish(&recordingAllocator{}, ret999)
	require.NoError(t, err)
	defer f.Release()

	var n int
	var fn func() int
	assert.ErrorIs(t, f.Bind(nil), ErrNotFunc)
	assert.ErrorIs(t, f.Bind(fn), ErrNotFunc)
	assert.ErrorIs(t, f.Bind(&n), ErrNotFunc)
	assert.ErrorIs(t, f.Bind((*func() int)(nil)), ErrNotFunc)
	assert.NoError(t, f.Bind(&fn))
	assert.NotNil(t, fn)
}

func TestBindHeapNotExecutable(t *testing.T) {
	f, err := Publish(HeapAllocator{}, ret999)
	require.NoError(t, err)
	defer f.Release()
	assert.Equal(t, ret999, f.Code())

	var fn func() int
	assert.ErrorIs(t, f.Bind(&fn), ErrNotExecutable)
	assert.Nil(t, fn)
}

func TestPublishDumpsListing(t *testing.T) {
	prevLogger, prevDump := log.Root(), dumpListings
	t.Cleanup(func() {
		log.SetDefault(prevLogger)
		dumpListings = prevDump
	})
	var buf bytes.Buffer
	log.SetDefault(slog.New(log.NewHandler(&buf, log.LevelDebug)))

	dumpListings = func() bool { return false }
	f, err := Publish(&recordingAllocator{}, ret999)
	require.NoError(t, err)
	require.NoError(t, f.Release())
	assert.Contains(t, buf.String(), "published")
	assert.NotContains(t, buf.String(), "listing")

	buf.Reset()
	dumpListings = func() bool { return true }
	f, err = Publish(&recordingAllocator{}, ret999)
	require.NoError(t, err)
	require.NoError(t, f.Release())
	assert.Contains(t, buf.String(), "msg=listing")
	assert.Contains(t, buf.String(), "mov eax, 0x3e7")
	assert.Contains(t, buf.String(), "module=execmem")
}

func TestPermString(t *testing.T) {
	assert.Equal(t, "r-x", (PermRead | PermExec).String())
	assert.Equal(t, "-wx", (PermWrite | PermExec).String())
	assert.Equal(t, "---", Perm(0).String())
}
