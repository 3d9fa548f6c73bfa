package x64

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemForms(t *testing.T) {
	for _, tc := range []struct {
		m      Mem
		form   MemForm
		str    string
		dispSz int
		sib    bool
	}{
		{BaseDisp(RAX, 0), MemBaseDisp, "[rax]", 0, false},
		{BaseDisp(RBX, 8), MemBaseDisp, "[rbx+0x8]", 1, false},
		{BaseDisp(RBX, -128), MemBaseDisp, "[rbx-0x80]", 1, false},
		{BaseDisp(RBX, 128), MemBaseDisp, "[rbx+0x80]", 4, false},
		{BaseDisp(RBP, 0), MemBaseDisp, "[rbp]", 1, false},
		{BaseDisp(R13, 0), MemBaseDisp, "[r13]", 1, false},
		{BaseDisp(RSP, 0), MemBaseDisp, "[rsp]", 0, true},
		{BaseDisp(R12, 0x1000), MemBaseDisp, "[r12+0x1000]", 4, true},
		{BaseIndexDisp(RAX, RCX, 4, 0), MemBaseIndexDisp, "[rax+rcx*4]", 0, true},
		{BaseIndexDisp(RBP, R12, 8, 0), MemBaseIndexDisp, "[rbp+r12*8]", 1, true},
		{BaseIndexDisp(R13, RAX, 1, -8), MemBaseIndexDisp, "[r13+rax*1-0x8]", 1, true},
		{IndexDisp(RDX, 2, 0), MemIndexDisp, "[rdx*2]", 4, true},
		{RIPDisp(-16), MemRIPDisp, "[rip-0x10]", 4, false},
	} {
		require.NoError(t, tc.m.Err(), tc.str)
		assert.Equal(t, tc.form, tc.m.Form(), tc.str)
		assert.Equal(t, tc.str, tc.m.String())
		assert.Equal(t, tc.dispSz, tc.m.DispSize(), tc.str)
		assert.Equal(t, tc.sib, tc.m.HasSIB(), tc.str)
	}
}

// DispSize and HasSIB account for every addressing byte after the opcode: ModRM, then SIB and
// displacement when present.
func TestMemAddressingBytes(t *testing.T) {
	asm := NewAssembler(nil)
	for _, m := range []Mem{
		BaseDisp(RAX, 0),
		BaseDisp(R13, 0),
		BaseDisp(RSP, 0x100),
		BaseIndexDisp(RBX, R9, 2, 1),
		IndexDisp(RCX, 8, 0),
		RIPDisp(0),
	} {
		asm.Reset(nil)
		require.NoError(t, asm.RM(MOV, W32, RAX, m))
		prefixLen := 0
		if m.rex != 0 {
			prefixLen = 1
		}
		n := 1 + m.DispSize()
		if m.HasSIB() {
			n++
		}
		assert.Equal(t, len(asm.Code())-1-prefixLen, n, "%s", m)
	}
}

func TestMemErrors(t *testing.T) {
	assert.ErrorIs(t, Mem{}.Err(), ErrInvalidOperand)
	assert.Equal(t, MemInvalid, Mem{}.Form())
	assert.Equal(t, "[?]", Mem{}.String())
	assert.ErrorIs(t, BaseDisp(Reg(20), 0).Err(), ErrInvalidOperand)
	assert.ErrorIs(t, BaseIndexDisp(RAX, RSP, 1, 0).Err(), ErrIndexSP)
	assert.ErrorIs(t, BaseIndexDisp(RAX, RCX, 0, 0).Err(), ErrInvalidScale)
	assert.ErrorIs(t, IndexDisp(RAX, 16, 0).Err(), ErrInvalidScale)
	assert.ErrorIs(t, IndexDisp(RSP, 1, 0).Err(), ErrIndexSP)

	// R12 is a valid index; only RSP's encoding means "no index"
	assert.NoError(t, BaseIndexDisp(RAX, R12, 1, 0).Err())
	assert.Equal(t, int32(-4), BaseDisp(RAX, -4).Disp())
}
