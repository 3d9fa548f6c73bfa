package x64

// Inst represents a symbolic operation.
type Inst uint8

// Integer operations. ADD through CMP share the 0x80/0x81/0x83 immediate opcodes and are
// distinguished by the ModRM.reg subcode, which equals their offset from ADD.
const (
	ADD Inst = iota + 1
	OR
	ADC
	SBB
	AND
	SUB
	XOR
	CMP

	MOV
	TEST
	LEA
	IMUL // two/three-operand signed multiply (IMUL r, r/m [, imm])

	NOT
	NEG
	MUL   // unsigned multiply of the accumulator (RDX:RAX = RAX * r/m)
	IMUL1 // signed multiply of the accumulator (RDX:RAX = RAX * r/m)
	DIV
	IDIV
	INC
	DEC

	ROL
	ROR
	RCL
	RCR
	SHL
	SHR
	SAR

	// SSE moves
	MOVSD
	MOVSS
	MOVAPD
	MOVAPS
	MOVUPD
	MOVUPS

	// SSE arithmetic
	ADDSD
	ADDSS
	ADDPD
	ADDPS
	SUBSD
	SUBSS
	SUBPD
	SUBPS
	MULSD
	MULSS
	MULPD
	MULPS
	DIVSD
	DIVSS
	DIVPD
	DIVPS
	MINSD
	MINSS
	MAXSD
	MAXSS
	SQRTSD
	SQRTSS
	SQRTPD
	SQRTPS

	// SSE logic
	ANDPD
	ANDPS
	ANDNPD
	ANDNPS
	ORPD
	ORPS
	XORPD
	XORPS
	PXOR

	// SSE compare
	UCOMISD
	UCOMISS
	COMISD
	COMISS
	CMPSD
	CMPSS
	CMPPD
	CMPPS

	// SSE conversions
	CVTSD2SS
	CVTSS2SD
	CVTSI2SD
	CVTSI2SS
	CVTTSD2SI
	CVTTSS2SI
	CVTSD2SI
	CVTSS2SI
	MOVD
	MOVQ

	numInsts
)

type encKind uint8

const (
	kindNone       encKind = iota
	kindArith              // 00-3f /r, 80/81/83 /ext
	kindMov                // 88-8b /r, c6/c7 /0, b0/b8+r
	kindTest               // 84/85 /r, f6/f7 /0
	kindLea                // 8d /r
	kindImul               // 0f af /r, 69/6b /r
	kindUnary              // f6/f7 /ext
	kindIncDec             // fe/ff /ext
	kindShift              // d0-d3 /ext, c0/c1 /ext
	kindSSE                // [pfx] 0f op /r, xmm <- xmm/m
	kindSSEFromGPR         // [pfx] [REX.W] 0f op /r, xmm <- r/m
	kindSSEToGPR           // [pfx] [REX.W] 0f op /r, r <- xmm/m
	kindMovGPR             // 66 [REX.W] 0f 6e/7e
)

type enc struct {
	name  string
	kind  encKind
	ext   uint8 // ModRM.reg opcode extension
	pfx   byte  // mandatory prefix
	op    byte  // second opcode byte after 0x0f (SSE)
	store byte  // store opcode for SSE moves (xmm -> m), 0 if none
	imm8  bool  // takes an 8-bit predicate immediate
}

var encs = [numInsts]enc{
	ADD: {name: "ADD", kind: kindArith, ext: 0},
	OR:  {name: "OR", kind: kindArith, ext: 1},
	ADC: {name: "ADC", kind: kindArith, ext: 2},
	SBB: {name: "SBB", kind: kindArith, ext: 3},
	AND: {name: "AND", kind: kindArith, ext: 4},
	SUB: {name: "SUB", kind: kindArith, ext: 5},
	XOR: {name: "XOR", kind: kindArith, ext: 6},
	CMP: {name: "CMP", kind: kindArith, ext: 7},

	MOV:  {name: "MOV", kind: kindMov},
	TEST: {name: "TEST", kind: kindTest},
	LEA:  {name: "LEA", kind: kindLea},
	IMUL: {name: "IMUL", kind: kindImul},

	NOT:   {name: "NOT", kind: kindUnary, ext: 2},
	NEG:   {name: "NEG", kind: kindUnary, ext: 3},
	MUL:   {name: "MUL", kind: kindUnary, ext: 4},
	IMUL1: {name: "IMUL", kind: kindUnary, ext: 5},
	DIV:   {name: "DIV", kind: kindUnary, ext: 6},
	IDIV:  {name: "IDIV", kind: kindUnary, ext: 7},
	INC:   {name: "INC", kind: kindIncDec, ext: 0},
	DEC:   {name: "DEC", kind: kindIncDec, ext: 1},

	ROL: {name: "ROL", kind: kindShift, ext: 0},
	ROR: {name: "ROR", kind: kindShift, ext: 1},
	RCL: {name: "RCL", kind: kindShift, ext: 2},
	RCR: {name: "RCR", kind: kindShift, ext: 3},
	SHL: {name: "SHL", kind: kindShift, ext: 4},
	SHR: {name: "SHR", kind: kindShift, ext: 5},
	SAR: {name: "SAR", kind: kindShift, ext: 7},

	MOVSD:  {name: "MOVSD", kind: kindSSE, pfx: 0xf2, op: 0x10, store: 0x11},
	MOVSS:  {name: "MOVSS", kind: kindSSE, pfx: 0xf3, op: 0x10, store: 0x11},
	MOVAPD: {name: "MOVAPD", kind: kindSSE, pfx: 0x66, op: 0x28, store: 0x29},
	MOVAPS: {name: "MOVAPS", kind: kindSSE, op: 0x28, store: 0x29},
	MOVUPD: {name: "MOVUPD", kind: kindSSE, pfx: 0x66, op: 0x10, store: 0x11},
	MOVUPS: {name: "MOVUPS", kind: kindSSE, op: 0x10, store: 0x11},

	ADDSD:  {name: "ADDSD", kind: kindSSE, pfx: 0xf2, op: 0x58},
	ADDSS:  {name: "ADDSS", kind: kindSSE, pfx: 0xf3, op: 0x58},
	ADDPD:  {name: "ADDPD", kind: kindSSE, pfx: 0x66, op: 0x58},
	ADDPS:  {name: "ADDPS", kind: kindSSE, op: 0x58},
	SUBSD:  {name: "SUBSD", kind: kindSSE, pfx: 0xf2, op: 0x5c},
	SUBSS:  {name: "SUBSS", kind: kindSSE, pfx: 0xf3, op: 0x5c},
	SUBPD:  {name: "SUBPD", kind: kindSSE, pfx: 0x66, op: 0x5c},
	SUBPS:  {name: "SUBPS", kind: kindSSE, op: 0x5c},
	MULSD:  {name: "MULSD", kind: kindSSE, pfx: 0xf2, op: 0x59},
	MULSS:  {name: "MULSS", kind: kindSSE, pfx: 0xf3, op: 0x59},
	MULPD:  {name: "MULPD", kind: kindSSE, pfx: 0x66, op: 0x59},
	MULPS:  {name: "MULPS", kind: kindSSE, op: 0x59},
	DIVSD:  {name: "DIVSD", kind: kindSSE, pfx: 0xf2, op: 0x5e},
	DIVSS:  {name: "DIVSS", kind: kindSSE, pfx: 0xf3, op: 0x5e},
	DIVPD:  {name: "DIVPD", kind: kindSSE, pfx: 0x66, op: 0x5e},
	DIVPS:  {name: "DIVPS", kind: kindSSE, op: 0x5e},
	MINSD:  {name: "MINSD", kind: kindSSE, pfx: 0xf2, op: 0x5d},
	MINSS:  {name: "MINSS", kind: kindSSE, pfx: 0xf3, op: 0x5d},
	MAXSD:  {name: "MAXSD", kind: kindSSE, pfx: 0xf2, op: 0x5f},
	MAXSS:  {name: "MAXSS", kind: kindSSE, pfx: 0xf3, op: 0x5f},
	SQRTSD: {name: "SQRTSD", kind: kindSSE, pfx: 0xf2, op: 0x51},
	SQRTSS: {name: "SQRTSS", kind: kindSSE, pfx: 0xf3, op: 0x51},
	SQRTPD: {name: "SQRTPD", kind: kindSSE, pfx: 0x66, op: 0x51},
	SQRTPS: {name: "SQRTPS", kind: kindSSE, op: 0x51},

	ANDPD:  {name: "ANDPD", kind: kindSSE, pfx: 0x66, op: 0x54},
	ANDPS:  {name: "ANDPS", kind: kindSSE, op: 0x54},
	ANDNPD: {name: "ANDNPD", kind: kindSSE, pfx: 0x66, op: 0x55},
	ANDNPS: {name: "ANDNPS", kind: kindSSE, op: 0x55},
	ORPD:   {name: "ORPD", kind: kindSSE, pfx: 0x66, op: 0x56},
	ORPS:   {name: "ORPS", kind: kindSSE, op: 0x56},
	XORPD:  {name: "XORPD", kind: kindSSE, pfx: 0x66, op: 0x57},
	XORPS:  {name: "XORPS", kind: kindSSE, op: 0x57},
	PXOR:   {name: "PXOR", kind: kindSSE, pfx: 0x66, op: 0xef},

	UCOMISD: {name: "UCOMISD", kind: kindSSE, pfx: 0x66, op: 0x2e},
	UCOMISS: {name: "UCOMISS", kind: kindSSE, op: 0x2e},
	COMISD:  {name: "COMISD", kind: kindSSE, pfx: 0x66, op: 0x2f},
	COMISS:  {name: "COMISS", kind: kindSSE, op: 0x2f},
	CMPSD:   {name: "CMPSD", kind: kindSSE, pfx: 0xf2, op: 0xc2, imm8: true},
	CMPSS:   {name: "CMPSS", kind: kindSSE, pfx: 0xf3, op: 0xc2, imm8: true},
	CMPPD:   {name: "CMPPD", kind: kindSSE, pfx: 0x66, op: 0xc2, imm8: true},
	CMPPS:   {name: "CMPPS", kind: kindSSE, op: 0xc2, imm8: true},

	CVTSD2SS:  {name: "CVTSD2SS", kind: kindSSE, pfx: 0xf2, op: 0x5a},
	CVTSS2SD:  {name: "CVTSS2SD", kind: kindSSE, pfx: 0xf3, op: 0x5a},
	CVTSI2SD:  {name: "CVTSI2SD", kind: kindSSEFromGPR, pfx: 0xf2, op: 0x2a},
	CVTSI2SS:  {name: "CVTSI2SS", kind: kindSSEFromGPR, pfx: 0xf3, op: 0x2a},
	CVTTSD2SI: {name: "CVTTSD2SI", kind: kindSSEToGPR, pfx: 0xf2, op: 0x2c},
	CVTTSS2SI: {name: "CVTTSS2SI", kind: kindSSEToGPR, pfx: 0xf3, op: 0x2c},
	CVTSD2SI:  {name: "CVTSD2SI", kind: kindSSEToGPR, pfx: 0xf2, op: 0x2d},
	CVTSS2SI:  {name: "CVTSS2SI", kind: kindSSEToGPR, pfx: 0xf3, op: 0x2d},
	MOVD:      {name: "MOVD", kind: kindMovGPR, pfx: 0x66, op: 0x6e, store: 0x7e},
	MOVQ:      {name: "MOVQ", kind: kindMovGPR, pfx: 0x66, op: 0x6e, store: 0x7e},
}

func (inst Inst) enc() *enc {
	if inst == 0 || inst >= numInsts {
		return &encs[0]
	}
	return &encs[inst]
}

// Get the name of the instruction mnemonic.
func (inst Inst) Name() string {
	if e := inst.enc(); e.kind != kindNone {
		return e.name
	}
	return "INVALID"
}

func (inst Inst) String() string { return inst.Name() }
