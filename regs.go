package x64

import "fmt"

// Reg is a general-purpose register, identified by its 4-bit architectural number.
//
// The low 3 bits are encoded in ModRM/SIB fields or in the opcode; the high bit is
// carried by one of the REX extension bits.
type Reg uint8

// General-purpose registers
const (
	RAX Reg = iota
	RCX
	RDX
	RBX
	RSP
	RBP
	RSI
	RDI
	R8
	R9
	R10
	R11
	R12
	R13
	R14
	R15
)

// Get the 4-bit architectural number of the register.
func (r Reg) Num() uint8 { return uint8(r) & 0xf }

// Get the low 3 bits of the register number, as encoded in ModRM/SIB fields.
func (r Reg) Lo3() uint8 { return uint8(r) & 7 }

// Get the high bit of the register number, as folded into a REX extension bit.
func (r Reg) Hi1() uint8 { return (uint8(r) >> 3) & 1 }

// Check if the register is numbered 8 or higher.
func (r Reg) IsExtended() bool { return r > 7 && r <= R15 }

// Check if the low byte of the register is addressable without a REX prefix (AL, CL, DL, BL).
func (r Reg) IsLegacyByte() bool { return r <= RBX }

// Check if the register number is in range.
func (r Reg) Valid() bool { return r <= R15 }

var regNames = [4][16]string{
	{"al", "cl", "dl", "bl", "spl", "bpl", "sil", "dil", "r8b", "r9b", "r10b", "r11b", "r12b", "r13b", "r14b", "r15b"},
	{"ax", "cx", "dx", "bx", "sp", "bp", "si", "di", "r8w", "r9w", "r10w", "r11w", "r12w", "r13w", "r14w", "r15w"},
	{"eax", "ecx", "edx", "ebx", "esp", "ebp", "esi", "edi", "r8d", "r9d", "r10d", "r11d", "r12d", "r13d", "r14d", "r15d"},
	{"rax", "rcx", "rdx", "rbx", "rsp", "rbp", "rsi", "rdi", "r8", "r9", "r10", "r11", "r12", "r13", "r14", "r15"},
}

// Get the Intel-syntax name of the register when accessed with the given width.
func (r Reg) Name(w Width) string {
	if !r.Valid() || !w.Valid() {
		return fmt.Sprintf("reg(%d)", uint8(r))
	}
	return regNames[w.index()][r]
}

func (r Reg) String() string { return r.Name(W64) }

// XReg is an SSE register (XMM0-XMM15).
type XReg uint8

// SSE registers
const (
	X0 XReg = iota
	X1
	X2
	X3
	X4
	X5
	X6
	X7
	X8
	X9
	X10
	X11
	X12
	X13
	X14
	X15
)

func (x XReg) Num() uint8       { return uint8(x) & 0xf }
func (x XReg) Lo3() uint8       { return uint8(x) & 7 }
func (x XReg) Hi1() uint8       { return (uint8(x) >> 3) & 1 }
func (x XReg) IsExtended() bool { return x > 7 && x <= X15 }
func (x XReg) Valid() bool      { return x <= X15 }

func (x XReg) String() string {
	if !x.Valid() {
		return fmt.Sprintf("xreg(%d)", uint8(x))
	}
	return fmt.Sprintf("xmm%d", uint8(x))
}
