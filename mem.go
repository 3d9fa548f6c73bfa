package x64

import (
	"fmt"
	"strings"
)

const (
	modNoDisp uint8 = 0
	modDisp8  uint8 = 1
	modDisp32 uint8 = 2
	modDirect uint8 = 3

	rmSIB    uint8 = 4 // r/m = 100: a SIB byte follows
	rmRIPRel uint8 = 5 // r/m = 101 with mod = 00: RIP-relative disp32
	sibNoIdx uint8 = 4 // SIB.index = 100 (without REX.X): no index
	sibNoBas uint8 = 5 // SIB.base = 101 with mod = 00: no base, disp32 follows
)

// MemForm identifies which addressing form built a memory operand.
type MemForm uint8

const (
	MemInvalid MemForm = iota
	MemBaseDisp
	MemBaseIndexDisp
	MemIndexDisp
	MemRIPDisp
)

// Mem is a memory operand, reduced at construction to the ModRM/SIB/displacement bytes it
// encodes to. The zero value is not a valid operand; use BaseDisp, BaseIndexDisp, IndexDisp,
// or RIPDisp.
//
// A Mem built from invalid arguments carries the error, which is returned by the first
// instruction that uses it.
type Mem struct {
	disp   int32
	form   MemForm
	modrm  byte // mod<<6 | rm; the reg field is filled in by the encoder
	sib    byte
	hasSIB bool
	dispSz uint8 // 0, 1, or 4
	rex    byte  // REX.X and REX.B bits
	base   Reg
	index  Reg
	scale  uint8
	err    error
}

func scaleBits(scale uint8) (uint8, bool) {
	switch scale {
	case 1:
		return 0, true
	case 2:
		return 1, true
	case 4:
		return 2, true
	case 8:
		return 3, true
	}
	return 0, false
}

// Select the mod field and displacement size for an operand with a base register. A base
// with low bits 101 (RBP, R13) cannot use mod = 00 since that slot means RIP-relative (in
// ModRM) or no-base (in SIB), so a zero displacement is encoded as an explicit disp8.
func baseMod(base Reg, disp int32) (mod, dispSz uint8) {
	switch {
	case disp == 0 && base.Lo3() != 5:
		return modNoDisp, 0
	case isInt8(int64(disp)):
		return modDisp8, 1
	}
	return modDisp32, 4
}

// Memory operand [base+disp].
func BaseDisp(base Reg, disp int32) Mem {
	m := Mem{form: MemBaseDisp, disp: disp, base: base, scale: 1}
	if !base.Valid() {
		m.err = fmt.Errorf("%w: base register %d", ErrInvalidOperand, uint8(base))
		return m
	}
	mod, sz := baseMod(base, disp)
	m.dispSz = sz
	m.rex = base.Hi1()
	if base.Lo3() == rmSIB {
		// RSP and R12 in the r/m field mean "SIB follows"
		m.modrm = mod<<6 | rmSIB
		m.sib = sibNoIdx<<3 | rmSIB
		m.hasSIB = true
	} else {
		m.modrm = mod<<6 | base.Lo3()
	}
	return m
}

// Memory operand [base+index*scale+disp]. index must not be RSP.
func BaseIndexDisp(base, index Reg, scale uint8, disp int32) Mem {
	m := Mem{form: MemBaseIndexDisp, disp: disp, base: base, index: index, scale: scale}
	ss, ok := scaleBits(scale)
	switch {
	case !base.Valid() || !index.Valid():
		m.err = fmt.Errorf("%w: base %d, index %d", ErrInvalidOperand, uint8(base), uint8(index))
		return m
	case !ok:
		m.err = fmt.Errorf("%w: got %d", ErrInvalidScale, scale)
		return m
	case index == RSP:
		m.err = ErrIndexSP
		return m
	}
	mod, sz := baseMod(base, disp)
	m.dispSz = sz
	m.modrm = mod<<6 | rmSIB
	m.sib = ss<<6 | index.Lo3()<<3 | base.Lo3()
	m.hasSIB = true
	m.rex = index.Hi1()<<1 | base.Hi1()
	return m
}

// Memory operand [index*scale+disp] without a base register. The displacement is always
// encoded with 32 bits. index must not be RSP.
func IndexDisp(index Reg, scale uint8, disp int32) Mem {
	m := Mem{form: MemIndexDisp, disp: disp, index: index, scale: scale}
	ss, ok := scaleBits(scale)
	switch {
	case !index.Valid():
		m.err = fmt.Errorf("%w: index %d", ErrInvalidOperand, uint8(index))
		return m
	case !ok:
		m.err = fmt.Errorf("%w: got %d", ErrInvalidScale, scale)
		return m
	case index == RSP:
		m.err = ErrIndexSP
		return m
	}
	m.dispSz = 4
	m.modrm = modNoDisp<<6 | rmSIB
	m.sib = ss<<6 | index.Lo3()<<3 | sibNoBas
	m.hasSIB = true
	m.rex = index.Hi1() << 1
	return m
}

// Memory operand [rip+disp]. The displacement is relative to the end of the instruction and
// is always encoded with 32 bits.
func RIPDisp(disp int32) Mem {
	return Mem{
		form:   MemRIPDisp,
		disp:   disp,
		modrm:  modNoDisp<<6 | rmRIPRel,
		dispSz: 4,
		scale:  1,
	}
}

// Get the addressing form which built the operand.
func (m Mem) Form() MemForm { return m.form }

// Get the displacement of the operand.
func (m Mem) Disp() int32 { return m.disp }

// Get the number of displacement bytes the operand encodes to (0, 1, or 4).
func (m Mem) DispSize() int { return int(m.dispSz) }

// Check if the operand encodes a SIB byte.
func (m Mem) HasSIB() bool { return m.hasSIB }

// Get the error recorded while building the operand, if any.
func (m Mem) Err() error {
	if m.err == nil && m.form == MemInvalid {
		return fmt.Errorf("%w: uninitialized memory operand", ErrInvalidOperand)
	}
	return m.err
}

func (m Mem) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	switch m.form {
	case MemBaseDisp:
		sb.WriteString(m.base.Name(W64))
	case MemBaseIndexDisp:
		fmt.Fprintf(&sb, "%s+%s*%d", m.base.Name(W64), m.index.Name(W64), m.scale)
	case MemIndexDisp:
		fmt.Fprintf(&sb, "%s*%d", m.index.Name(W64), m.scale)
	case MemRIPDisp:
		sb.WriteString("rip")
	default:
		sb.WriteString("?")
	}
	switch {
	case m.disp > 0:
		fmt.Fprintf(&sb, "+%#x", m.disp)
	case m.disp < 0:
		fmt.Fprintf(&sb, "-%#x", -int64(m.disp))
	}
	sb.WriteByte(']')
	return sb.String()
}
