package x64

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/arch/x86/x86asm"
)

// Expected encodings are checked against the x86asm decoder, and hard-coded byte sequences
// against the Intel SDM opcode tables.

// Decode the assembler's output as exactly one instruction and compare its Intel syntax.
func expectIntel(t *testing.T, asm *Assembler, expect string) {
	t.Helper()
	code := asm.Code()
	decoded, err := x86asm.Decode(code, 64)
	require.NoError(t, err, "encoded inst = %#x", code)
	assert.Equal(t, len(code), decoded.Len, "trailing bytes in %#x", code)
	assert.Equal(t, expect, x86asm.IntelSyntax(decoded, 0, nil), "encoded inst = %#x", code)
}

func expectHex(t *testing.T, asm *Assembler, expect string) {
	t.Helper()
	assert.Equal(t, expect, fmt.Sprintf("%x", asm.Code()))
}

func TestInstName(t *testing.T) {
	assert.Equal(t, "ADC", ADC.Name())
	assert.Equal(t, "MOV", MOV.String())
	assert.Equal(t, "CVTTSD2SI", CVTTSD2SI.Name())
	assert.Equal(t, "IMUL", IMUL1.Name())
	assert.Equal(t, "INVALID", Inst(0).Name())
	assert.Equal(t, "INVALID", numInsts.Name())
	for inst := ADD; inst < numInsts; inst++ {
		assert.NotEqual(t, kindNone, inst.enc().kind, "inst %d has no encoding", inst)
	}
}

func TestEncodeInt(t *testing.T) {
	asm := NewAssembler(make([]byte, 64))
	for _, tc := range []struct {
		expect string
		emit   func() error
	}{
		{"mov rax, r13", func() error { return asm.RR(MOV, W64, RAX, R13) }},
		{"mov ax, bx", func() error { return asm.RR(MOV, W16, RAX, RBX) }},
		{"mov al, bl", func() error { return asm.RR(MOV, W8, RAX, RBX) }},
		{"add eax, ebx", func() error { return asm.RR(ADD, W32, RAX, RBX) }},
		{"add rax, rbx", func() error { return asm.RR(ADD, W64, RAX, RBX) }},
		{"xor sil, dil", func() error { return asm.RR(XOR, W8, RSI, RDI) }},
		{"sub r8d, r15d", func() error { return asm.RR(SUB, W32, R8, R15) }},
		{"cmp rax, rbx", func() error { return asm.RR(CMP, W64, RAX, RBX) }},
		{"test rax, rax", func() error { return asm.RR(TEST, W64, RAX, RAX) }},
		{"imul rax, rbx", func() error { return asm.RR(IMUL, W64, RAX, RBX) }},
		{"adc rdx, rcx", func() error { return asm.RR(ADC, W64, RDX, RCX) }},
		{"sbb ecx, edx", func() error { return asm.RR(SBB, W32, RCX, RDX) }},
		{"and r9, r10", func() error { return asm.RR(AND, W64, R9, R10) }},
		{"or bp, si", func() error { return asm.RR(OR, W16, RBP, RSI) }},

		{"mov rax, qword ptr [rbx]", func() error { return asm.RM(MOV, W64, RAX, BaseDisp(RBX, 0)) }},
		{"mov qword ptr [rax], rbx", func() error { return asm.MR(MOV, W64, BaseDisp(RAX, 0), RBX) }},
		{"mov qword ptr [r13], rbx", func() error { return asm.MR(MOV, W64, BaseDisp(R13, 0), RBX) }},
		{"mov rax, qword ptr [rbp]", func() error { return asm.RM(MOV, W64, RAX, BaseDisp(RBP, 0)) }},
		{"mov rax, qword ptr [r12]", func() error { return asm.RM(MOV, W64, RAX, BaseDisp(R12, 0)) }},
		{"mov rax, qword ptr [rsp+0x8]", func() error { return asm.RM(MOV, W64, RAX, BaseDisp(RSP, 8)) }},
		{"mov eax, dword ptr [rbx-0x8]", func() error { return asm.RM(MOV, W32, RAX, BaseDisp(RBX, -8)) }},
		{"mov rax, qword ptr [rbx+0x1000]", func() error { return asm.RM(MOV, W64, RAX, BaseDisp(RBX, 0x1000)) }},
		{"mov rax, qword ptr [rbx+r15*1]", func() error { return asm.RM(MOV, W64, RAX, BaseIndexDisp(RBX, R15, 1, 0)) }},
		{"mov rax, qword ptr [rbx+r15*2+0x8]", func() error { return asm.RM(MOV, W64, RAX, BaseIndexDisp(RBX, R15, 2, 8)) }},
		{"mov rax, qword ptr [r13+rcx*4]", func() error { return asm.RM(MOV, W64, RAX, BaseIndexDisp(R13, RCX, 4, 0)) }},
		{"mov rax, qword ptr [rcx*8+0x10]", func() error { return asm.RM(MOV, W64, RAX, IndexDisp(RCX, 8, 0x10)) }},
		{"lea rax, ptr [rbx+r15*2+0x8]", func() error { return asm.RM(LEA, W64, RAX, BaseIndexDisp(RBX, R15, 2, 8)) }},
		{"lea rax, ptr [rip+0x10]", func() error { return asm.RM(LEA, W64, RAX, RIPDisp(16)) }},
		{"add rax, qword ptr [rdi+0x8]", func() error { return asm.RM(ADD, W64, RAX, BaseDisp(RDI, 8)) }},
		{"sub qword ptr [rdi+0x8], r9", func() error { return asm.MR(SUB, W64, BaseDisp(RDI, 8), R9) }},
		{"mov byte ptr [rax], sil", func() error { return asm.MR(MOV, W8, BaseDisp(RAX, 0), RSI) }},
		{"imul ecx, dword ptr [rax]", func() error { return asm.RM(IMUL, W32, RCX, BaseDisp(RAX, 0)) }},

		{"mov al, 0x1", func() error { return asm.RI(MOV, W8, RAX, 1) }},
		{"mov ax, 0x1", func() error { return asm.RI(MOV, W16, RAX, 1) }},
		{"mov r9d, 0x5", func() error { return asm.RI(MOV, W32, R9, 5) }},
		{"mov rax, -0x1", func() error { return asm.RI(MOV, W64, RAX, -1) }},
		{"mov rax, 0x7fffffffffffffff", func() error { return asm.MovImm64(RAX, 0x7fffffffffffffff) }},
		{"add rax, 0x1", func() error { return asm.RI(ADD, W64, RAX, 1) }},
		{"add rax, 0x3e8", func() error { return asm.RI(ADD, W64, RAX, 1000) }},
		{"sub rsp, 0x8", func() error { return asm.RI(SUB, W64, RSP, 8) }},
		{"cmp al, 0x5", func() error { return asm.RI(CMP, W8, RAX, 5) }},
		{"and ecx, -0x10", func() error { return asm.RI(AND, W32, RCX, -16) }},
		{"test eax, 0x100", func() error { return asm.RI(TEST, W32, RAX, 0x100) }},
		{"imul rax, rax, 0xa", func() error { return asm.RI(IMUL, W64, RAX, 10) }},
		{"imul rax, rbx, 0xa", func() error { return asm.RRI(IMUL, W64, RAX, RBX, 10) }},
		{"imul eax, dword ptr [rbx], 0x1000", func() error { return asm.RMI(IMUL, W32, RAX, BaseDisp(RBX, 0), 0x1000) }},
		{"add qword ptr [rax], 0x1", func() error { return asm.MI(ADD, W64, BaseDisp(RAX, 0), 1) }},
		{"mov dword ptr [rbx+0x4], 0x7", func() error { return asm.MI(MOV, W32, BaseDisp(RBX, 4), 7) }},
		{"mov byte ptr [rbx], 0x7f", func() error { return asm.MI(MOV, W8, BaseDisp(RBX, 0), 0x7f) }},
		{"cmp word ptr [rbx], 0x1234", func() error { return asm.MI(CMP, W16, BaseDisp(RBX, 0), 0x1234) }},

		{"neg rax", func() error { return asm.R(NEG, W64, RAX) }},
		{"not r10d", func() error { return asm.R(NOT, W32, R10) }},
		{"idiv rcx", func() error { return asm.R(IDIV, W64, RCX) }},
		{"div rcx", func() error { return asm.R(DIV, W64, RCX) }},
		{"mul rbx", func() error { return asm.R(MUL, W64, RBX) }},
		{"imul rbx", func() error { return asm.R(IMUL1, W64, RBX) }},
		{"inc edx", func() error { return asm.R(INC, W32, RDX) }},
		{"dec r12", func() error { return asm.R(DEC, W64, R12) }},
		{"not byte ptr [rax]", func() error { return asm.M(NOT, W8, BaseDisp(RAX, 0)) }},
		{"inc qword ptr [rsp+0x10]", func() error { return asm.M(INC, W64, BaseDisp(RSP, 0x10)) }},

		{"shl rax, 0x1", func() error { return asm.Shift(SHL, W64, RAX, 1) }},
		{"sar edx, 0x3", func() error { return asm.Shift(SAR, W32, RDX, 3) }},
		{"shr r11, 0x3f", func() error { return asm.Shift(SHR, W64, R11, 63) }},
		{"rol r8, cl", func() error { return asm.ShiftCL(ROL, W64, R8) }},
		{"ror bl, cl", func() error { return asm.ShiftCL(ROR, W8, RBX) }},
		{"rcl dword ptr [rax], 0x1", func() error { return asm.ShiftM(RCL, W32, BaseDisp(RAX, 0), 1) }},
		{"rcr qword ptr [rax], 0x2", func() error { return asm.ShiftM(RCR, W64, BaseDisp(RAX, 0), 2) }},
		{"shl word ptr [rax], cl", func() error { return asm.ShiftMCL(SHL, W16, BaseDisp(RAX, 0)) }},

		{"movsx rax, cl", func() error { return asm.Movsx(W64, RAX, W8, RCX) }},
		{"movsx eax, bx", func() error { return asm.Movsx(W32, RAX, W16, RBX) }},
		{"movsxd rax, ecx", func() error { return asm.Movsx(W64, RAX, W32, RCX) }},
		{"movzx eax, sil", func() error { return asm.Movzx(W32, RAX, W8, RSI) }},
		{"movzx r8d, r9b", func() error { return asm.Movzx(W32, R8, W8, R9) }},
		{"movzx rax, cx", func() error { return asm.Movzx(W64, RAX, W16, RCX) }},
		{"mov eax, ecx", func() error { return asm.Movzx(W64, RAX, W32, RCX) }},
		{"movzx eax, word ptr [rbx]", func() error { return asm.MovzxM(W32, RAX, W16, BaseDisp(RBX, 0)) }},
		{"movsx rax, byte ptr [rbx+0x1]", func() error { return asm.MovsxM(W64, RAX, W8, BaseDisp(RBX, 1)) }},
		{"movsxd rax, dword ptr [rbx]", func() error { return asm.MovsxM(W64, RAX, W32, BaseDisp(RBX, 0)) }},
		{"cwd", func() error { return asm.SignExtendAcc(W16) }},
		{"cdq", func() error { return asm.SignExtendAcc(W32) }},
		{"cqo", func() error { return asm.SignExtendAcc(W64) }},

		{"setz al", func() error { return asm.Setcc(CCEq, RAX) }},
		{"setl sil", func() error { return asm.Setcc(CCSignedLT, RSI) }},
		{"setnbe r9b", func() error { return asm.Setcc(CCUnsignedGT, R9) }},
		{"setb byte ptr [rax]", func() error { return asm.SetccM(CCB, BaseDisp(RAX, 0)) }},
		{"cmovnz rax, rbx", func() error { return asm.Cmov(CCNeq, W64, RAX, RBX) }},
		{"cmovl ecx, dword ptr [rdx]", func() error { return asm.CmovM(CCL, W32, RCX, BaseDisp(RDX, 0)) }},
	} {
		asm.Reset(nil)
		require.NoError(t, tc.emit(), tc.expect)
		expectIntel(t, asm, tc.expect)
	}
}

func TestEncodeSSE(t *testing.T) {
	asm := NewAssembler(make([]byte, 64))
	for _, tc := range []struct {
		expect string
		emit   func() error
	}{
		{"addsd xmm0, xmm1", func() error { return asm.XX(ADDSD, X0, X1) }},
		{"subss xmm2, xmm3", func() error { return asm.XX(SUBSS, X2, X3) }},
		{"mulpd xmm4, xmm5", func() error { return asm.XX(MULPD, X4, X5) }},
		{"divps xmm6, xmm7", func() error { return asm.XX(DIVPS, X6, X7) }},
		{"sqrtsd xmm9, xmm10", func() error { return asm.XX(SQRTSD, X9, X10) }},
		{"pxor xmm1, xmm2", func() error { return asm.XX(PXOR, X1, X2) }},
		{"xorps xmm0, xmm0", func() error { return asm.XX(XORPS, X0, X0) }},
		{"movaps xmm8, xmm1", func() error { return asm.XX(MOVAPS, X8, X1) }},
		{"ucomisd xmm0, xmm1", func() error { return asm.XX(UCOMISD, X0, X1) }},
		{"comiss xmm0, xmm15", func() error { return asm.XX(COMISS, X0, X15) }},
		{"cvtsd2ss xmm0, xmm1", func() error { return asm.XX(CVTSD2SS, X0, X1) }},
		{"movsd xmm0, qword ptr [rax]", func() error { return asm.XM(MOVSD, X0, BaseDisp(RAX, 0)) }},
		{"addsd xmm1, qword ptr [rip+0x20]", func() error { return asm.XM(ADDSD, X1, RIPDisp(0x20)) }},
		{"movsd qword ptr [rax+0x8], xmm15", func() error { return asm.MX(MOVSD, BaseDisp(RAX, 8), X15) }},
		{"cvtsi2sd xmm0, rax", func() error { return asm.XR(CVTSI2SD, W64, X0, RAX) }},
		{"cvtsi2ss xmm3, r8d", func() error { return asm.XR(CVTSI2SS, W32, X3, R8) }},
		{"cvttsd2si eax, xmm1", func() error { return asm.RX(CVTTSD2SI, W32, RAX, X1) }},
		{"cvttsd2si r12, xmm9", func() error { return asm.RX(CVTTSD2SI, W64, R12, X9) }},
		{"cvtsd2si rax, qword ptr [rbx]", func() error { return asm.RXM(CVTSD2SI, W64, RAX, BaseDisp(RBX, 0)) }},
		{"movq xmm0, rax", func() error { return asm.XR(MOVQ, W64, X0, RAX) }},
		{"movd eax, xmm1", func() error { return asm.RX(MOVD, W32, RAX, X1) }},
		{"movq r10, xmm11", func() error { return asm.RX(MOVQ, W64, R10, X11) }},
	} {
		asm.Reset(nil)
		require.NoError(t, tc.emit(), tc.expect)
		expectIntel(t, asm, tc.expect)
	}

	// cmpsd with a predicate is rendered as cmpsd_xmm by x86asm; check the bytes instead
	asm.Reset(nil)
	require.NoError(t, asm.XXI(CMPSD, X0, X1, 1))
	expectHex(t, asm, "f20fc2c101")
	asm.Reset(nil)
	require.NoError(t, asm.XXI(CMPPS, X9, X2, 4))
	expectHex(t, asm, "440fc2ca04")
}

func TestEncodeFlow(t *testing.T) {
	asm := NewAssembler(make([]byte, 64))
	for _, tc := range []struct {
		expect string
		emit   func() error
	}{
		{"ret", asm.Ret},
		{"mfence", asm.Mfence},
		{"lfence", asm.Lfence},
		{"sfence", asm.Sfence},
		{"ud2", asm.Ud2},
		{"int3", asm.Int3},
		{"call r11", func() error { return asm.CallR(R11) }},
		{"call qword ptr [rax+0x8]", func() error { return asm.CallM(BaseDisp(RAX, 8)) }},
		{"jmp rax", func() error { return asm.JmpR(RAX) }},
		{"jmp qword ptr [rax]", func() error { return asm.JmpM(BaseDisp(RAX, 0)) }},
		{"push r12", func() error { return asm.Push(R12) }},
		{"pop rbx", func() error { return asm.Pop(RBX) }},
		{"push 0x1", func() error { return asm.PushImm(1) }},
		{"push 0x12345", func() error { return asm.PushImm(0x12345) }},
		{"push qword ptr [rax]", func() error { return asm.PushM(BaseDisp(RAX, 0)) }},
		{"pop qword ptr [r8+0x8]", func() error { return asm.PopM(BaseDisp(R8, 8)) }},
	} {
		asm.Reset(nil)
		require.NoError(t, tc.emit(), tc.expect)
		expectIntel(t, asm, tc.expect)
	}
}

func TestREX(t *testing.T) {
	asm := NewAssembler(nil)
	for _, tc := range []struct {
		hex  string
		emit func() error
	}{
		// no REX for 32-bit operations on low registers
		{"01d8", func() error { return asm.RR(ADD, W32, RAX, RBX) }},
		{"4801d8", func() error { return asm.RR(ADD, W64, RAX, RBX) }},
		// byte operands 0-3 need no REX; 4-7 need an empty REX to avoid AH-BH
		{"88d8", func() error { return asm.RR(MOV, W8, RAX, RBX) }},
		{"4088c4", func() error { return asm.RR(MOV, W8, RSP, RAX) }},
		{"4088e8", func() error { return asm.RR(MOV, W8, RAX, RBP) }},
		{"4188c0", func() error { return asm.RR(MOV, W8, R8, RAX) }},
		{"40b601", func() error { return asm.RI(MOV, W8, RSI, 1) }},
		{"400fb6c7", func() error { return asm.Movzx(W32, RAX, W8, RDI) }},
		{"0fb6c3", func() error { return asm.Movzx(W32, RAX, W8, RBX) }},
		{"400f94c5", func() error { return asm.Setcc(CCEq, RBP) }},
		// 66 precedes REX
		{"664189c0", func() error { return asm.RR(MOV, W16, R8, RAX) }},
		// mandatory SSE prefixes precede REX
		{"f2440f58c1", func() error { return asm.XX(ADDSD, X8, X1) }},
		{"66480f6ec0", func() error { return asm.XR(MOVQ, W64, X0, RAX) }},
		// RIP-relative addressing needs no REX by itself
		{"8b0510000000", func() error { return asm.RM(MOV, W32, RAX, RIPDisp(16)) }},
		// REX.X and REX.B from the memory operand
		{"4a8b04c3", func() error { return asm.RM(MOV, W64, RAX, BaseIndexDisp(RBX, R8, 8, 0)) }},
		{"498b0424", func() error { return asm.RM(MOV, W64, RAX, BaseDisp(R12, 0)) }},
		{"498b4500", func() error { return asm.RM(MOV, W64, RAX, BaseDisp(R13, 0)) }},
		{"48b8efcdab8967452301", func() error { return asm.MovImm64(RAX, 0x0123456789abcdef) }},
		{"49bb0000000000000000", func() error { return asm.MovImm64(R11, 0) }},
		{"4154", func() error { return asm.Push(R12) }},
		{"41ffd3", func() error { return asm.CallR(R11) }},
	} {
		asm.Reset(nil)
		require.NoError(t, tc.emit(), tc.hex)
		expectHex(t, asm, tc.hex)
	}
}

func TestImmediateForms(t *testing.T) {
	asm := NewAssembler(nil)
	for _, tc := range []struct {
		hex  string
		emit func() error
	}{
		// immediates fitting 8 bits use the sign-extended 0x83 form
		{"4883c07f", func() error { return asm.RI(ADD, W64, RAX, 127) }},
		{"4883c080", func() error { return asm.RI(ADD, W64, RAX, -128) }},
		{"4881c080000000", func() error { return asm.RI(ADD, W64, RAX, 128) }},
		{"6683c001", func() error { return asm.RI(ADD, W16, RAX, 1) }},
		{"6681c03412", func() error { return asm.RI(ADD, W16, RAX, 0x1234) }},
		{"80c0ff", func() error { return asm.RI(ADD, W8, RAX, 0xff) }},
		{"83f805", func() error { return asm.RI(CMP, W32, RAX, 5) }},
		{"48c7c0ffffffff", func() error { return asm.RI(MOV, W64, RAX, -1) }},
		{"b8e7030000", func() error { return asm.RI(MOV, W32, RAX, 999) }},
		{"486bc30a", func() error { return asm.RRI(IMUL, W64, RAX, RBX, 10) }},
		{"4869c3e8030000", func() error { return asm.RRI(IMUL, W64, RAX, RBX, 1000) }},
		{"48d1e0", func() error { return asm.Shift(SHL, W64, RAX, 1) }},
		{"48c1e002", func() error { return asm.Shift(SHL, W64, RAX, 2) }},
		{"48d3e0", func() error { return asm.ShiftCL(SHL, W64, RAX) }},
		{"6a01", func() error { return asm.PushImm(1) }},
		{"6880000000", func() error { return asm.PushImm(128) }},
	} {
		asm.Reset(nil)
		require.NoError(t, tc.emit(), tc.hex)
		expectHex(t, asm, tc.hex)
	}
}

func TestContractErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		err  error
		emit func(a *Assembler) error
	}{
		{"width", ErrInvalidWidth, func(a *Assembler) error { return a.RR(MOV, Width(12), RAX, RBX) }},
		{"register", ErrInvalidOperand, func(a *Assembler) error { return a.RR(MOV, W64, Reg(16), RBX) }},
		{"xmm register", ErrInvalidOperand, func(a *Assembler) error { return a.XX(ADDSD, XReg(16), X0) }},
		{"no reg-reg LEA", ErrNoMatch, func(a *Assembler) error { return a.RR(LEA, W64, RAX, RBX) }},
		{"no 8-bit LEA", ErrNoMatch, func(a *Assembler) error { return a.RM(LEA, W8, RAX, BaseDisp(RBX, 0)) }},
		{"shift of non-shift inst", ErrNoMatch, func(a *Assembler) error { return a.Shift(ADD, W64, RAX, 1) }},
		{"no unary MOV", ErrNoMatch, func(a *Assembler) error { return a.R(MOV, W64, RAX) }},
		{"no 8-bit IMUL", ErrNoMatch, func(a *Assembler) error { return a.RR(IMUL, W8, RAX, RBX) }},
		{"unknown inst", ErrNoMatch, func(a *Assembler) error { return a.RR(Inst(0), W64, RAX, RBX) }},
		{"SSE as integer", ErrNoMatch, func(a *Assembler) error { return a.RR(ADDSD, W64, RAX, RBX) }},
		{"integer as SSE", ErrNoMatch, func(a *Assembler) error { return a.XX(ADD, X0, X1) }},
		{"CMPSD without predicate", ErrNoMatch, func(a *Assembler) error { return a.XX(CMPSD, X0, X1) }},
		{"store without store form", ErrNoMatch, func(a *Assembler) error { return a.MX(ADDSD, BaseDisp(RAX, 0), X0) }},
		{"scale", ErrInvalidScale, func(a *Assembler) error { return a.RM(MOV, W64, RAX, BaseIndexDisp(RBX, RCX, 3, 0)) }},
		{"index RSP", ErrIndexSP, func(a *Assembler) error { return a.RM(MOV, W64, RAX, BaseIndexDisp(RBX, RSP, 1, 0)) }},
		{"index-only RSP", ErrIndexSP, func(a *Assembler) error { return a.RM(MOV, W64, RAX, IndexDisp(RSP, 2, 0)) }},
		{"zero Mem", ErrInvalidOperand, func(a *Assembler) error { return a.MR(MOV, W64, Mem{}, RAX) }},
		{"imm8 overflow", ErrInvalidOperand, func(a *Assembler) error { return a.RI(MOV, W8, RAX, 256) }},
		{"imm16 overflow", ErrInvalidOperand, func(a *Assembler) error { return a.MI(ADD, W16, BaseDisp(RAX, 0), -40000) }},
		{"extend to byte", ErrInvalidWidth, func(a *Assembler) error { return a.Movsx(W8, RAX, W8, RBX) }},
		{"extend narrower", ErrInvalidWidth, func(a *Assembler) error { return a.Movzx(W16, RAX, W32, RBX) }},
		{"8-bit CMOV", ErrInvalidWidth, func(a *Assembler) error { return a.Cmov(CCEq, W8, RAX, RBX) }},
		{"8-bit CQO", ErrInvalidWidth, func(a *Assembler) error { return a.SignExtendAcc(W8) }},
		{"condition", ErrInvalidOperand, func(a *Assembler) error { return a.Setcc(ConditionCode(16), RAX) }},
		{"MOVD width", ErrInvalidWidth, func(a *Assembler) error { return a.XR(MOVD, W64, X0, RAX) }},
		{"MOVQ width", ErrInvalidWidth, func(a *Assembler) error { return a.RX(MOVQ, W32, RAX, X0) }},
		{"16-bit conversion", ErrInvalidWidth, func(a *Assembler) error { return a.XR(CVTSI2SD, W16, X0, RAX) }},
		{"unknown label", ErrUnknownLabel, func(a *Assembler) error { return a.Jmp(Label{}) }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			a := NewAssembler(nil)
			err := tc.emit(a)
			require.ErrorIs(t, err, tc.err)
			assert.Equal(t, 0, len(a.Code()), "encoded %#x", a.Code())
			assert.Equal(t, err, a.Err())
		})
	}
}

func TestStickyError(t *testing.T) {
	asm := NewAssembler(nil)
	require.NoError(t, asm.RR(MOV, W64, RAX, RBX))
	err := asm.RR(MOV, Width(3), RAX, RBX)
	require.ErrorIs(t, err, ErrInvalidWidth)

	// later calls encode nothing and report the first error
	assert.Equal(t, err, asm.RR(ADD, W64, RAX, RBX))
	assert.Equal(t, err, asm.Ret())
	assert.Equal(t, err, asm.Bind(asm.NewLabel()))
	assert.Equal(t, err, asm.Finalize())
	asm.Nop(4)
	asm.AlignPC(16)
	assert.Equal(t, 3, len(asm.Code()))

	asm.Reset(nil)
	assert.NoError(t, asm.Err())
	assert.NoError(t, asm.Ret())
	assert.Equal(t, []byte{0xc3}, asm.Code())
}

func TestBufferGrowth(t *testing.T) {
	asm := NewAssembler(make([]byte, 0))
	for i := 0; i < 100; i++ {
		require.NoError(t, asm.MovImm64(Reg(i%16), int64(i)))
	}
	assert.Equal(t, uint32(1000), asm.PC())
	insts := decodeAll(t, asm.Code())
	require.Len(t, insts, 100)
	assert.Equal(t, "mov r15, 0x5f", x86asm.IntelSyntax(insts[95], 0, nil))
}

func TestAlignPC(t *testing.T) {
	asm := NewAssembler(make([]byte, 256))
	asm.RR(MOV, W64, RAX, RBX)
	asm.AlignPC(16)
	require.NoError(t, asm.Err())
	require.Len(t, asm.Code(), 16)

	insts := decodeAll(t, asm.Code())
	assert.Equal(t, "mov rax, rbx", x86asm.IntelSyntax(insts[0], 0, nil))
	for _, inst := range insts[1:] {
		assert.Equal(t, x86asm.NOP, inst.Op)
	}

	// already aligned
	asm.AlignPC(16)
	assert.Len(t, asm.Code(), 16)
	asm.AlignPC(1)
	assert.Len(t, asm.Code(), 16)

	asm.AlignPC(12)
	assert.ErrorIs(t, asm.Err(), ErrInvalidOperand)
}

func TestNop(t *testing.T) {
	for n := 1; n <= 32; n++ {
		asm := NewAssembler(nil)
		asm.Nop(n)
		require.Len(t, asm.Code(), n)
		for _, inst := range decodeAll(t, asm.Code()) {
			assert.Equal(t, x86asm.NOP, inst.Op, "nop(%d)", n)
		}
	}
}

func TestRaw(t *testing.T) {
	asm := NewAssembler(nil)
	asm.RawByte(0x90)
	asm.Raw16(0x0102)
	asm.Raw32(0x03040506)
	asm.Raw64(0x0708090a0b0c0d0e)
	asm.Raw([]byte{0xc3})
	expectHex(t, asm, "900201060504030e0d0c0b0a090807c3")
}

func decodeAll(t *testing.T, code []byte) []x86asm.Inst {
	t.Helper()
	var insts []x86asm.Inst
	for off := 0; off < len(code); {
		inst, err := x86asm.Decode(code[off:], 64)
		require.NoError(t, err, "offset %d in %#x", off, code)
		insts = append(insts, inst)
		off += inst.Len
	}
	return insts
}
