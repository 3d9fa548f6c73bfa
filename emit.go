package x64

import "fmt"

const (
	rexBase byte = 0x40
	rexW    byte = 8 // 64-bit operand size
	rexR    byte = 4 // extension of the ModR/M reg field
	rexX    byte = 2 // extension of the SIB index field
	rexB    byte = 1 // extension of the ModR/M r/m field, SIB base field, or opcode reg field

	prefOpSize byte = 0x66
)

// insn describes one ModRM-addressed instruction.
type insn struct {
	w       Width
	pfx     byte // mandatory prefix (0x66, 0xf2, 0xf3), emitted after the operand-size override
	rexW    bool // force REX.W independent of w
	op      [3]byte
	oplen   uint8
	reg     uint8 // ModRM.reg: a 4-bit register number or a 3-bit opcode extension
	regByte bool  // reg names a byte register
	rm      uint8 // direct r/m register number, if mem is nil
	rmByte  bool  // rm names a byte register
	mem     *Mem
}

func (in *insn) opcode(ops ...byte) *insn {
	in.oplen = uint8(copy(in.op[:], ops))
	return in
}

// Check if the REX prefix is needed, and compute its extension bits.
//
// A byte operand naming registers 4-15 needs a REX prefix even when no extension bit is set,
// since without REX the numbers 4-7 select AH, CH, DH, and BH.
func (in *insn) rex() (rex byte, needed bool) {
	if in.w == W64 || in.rexW {
		rex |= rexW
	}
	rex |= (in.reg >> 3 & 1) << 2
	force := in.regByte && in.reg >= 4
	if in.mem != nil {
		rex |= in.mem.rex
	} else {
		rex |= in.rm >> 3 & 1
		force = force || (in.rmByte && in.rm >= 4)
	}
	return rex, rex != 0 || force
}

// Encode a ModRM-addressed instruction: [66] [mandatory prefix] [REX] opcode ModRM [SIB] [disp].
// Immediates are appended by the caller.
func (a *Assembler) encode(in *insn) {
	buf := &a.b
	if in.w == W16 {
		buf.Byte(prefOpSize)
	}
	if in.pfx != 0 {
		buf.Byte(in.pfx)
	}
	if rex, ok := in.rex(); ok {
		buf.Byte(rexBase | rex)
	}
	buf.Bytes(in.op[:in.oplen])

	if in.mem == nil {
		emitModRM(buf, modDirect, in.reg, in.rm)
		return
	}
	m := in.mem
	buf.Byte(m.modrm | (in.reg&7)<<3)
	if m.hasSIB {
		buf.Byte(m.sib)
	}
	switch m.dispSz {
	case 1:
		buf.Int8(int8(m.disp))
	case 4:
		buf.Int32(m.disp)
	}
}

func emitModRM(buf *buffer, mode, reg, rm uint8) {
	buf.Byte(mode<<6 | (reg&7)<<3 | rm&7)
}

// Encode an instruction with the register in the low 3 bits of the opcode.
func (a *Assembler) encodeO(w Width, op byte, r Reg, byteReg bool) {
	buf := &a.b
	if w == W16 {
		buf.Byte(prefOpSize)
	}
	rex := r.Hi1()
	if w == W64 {
		rex |= rexW
	}
	if rex != 0 || (byteReg && r >= RSP) {
		buf.Byte(rexBase | rex)
	}
	buf.Byte(op + r.Lo3())
}

// Append an immediate sized for the operand width. 64-bit operations take a sign-extended
// 32-bit immediate.
func (a *Assembler) imm(w Width, v Imm) {
	switch w {
	case W8:
		a.b.Int8(int8(v))
	case W16:
		a.b.Int16(int16(v))
	default:
		a.b.Int32(int32(v))
	}
}

// Operand checks. Each records a contract error and returns false on failure.

func (a *Assembler) checkWidth(w Width) bool {
	if !w.Valid() {
		a.failf("%w: %d", ErrInvalidWidth, w)
		return false
	}
	return true
}

func (a *Assembler) checkRegs(regs ...Reg) bool {
	for _, r := range regs {
		if !r.Valid() {
			a.failf("%w: register %d", ErrInvalidOperand, uint8(r))
			return false
		}
	}
	return true
}

func (a *Assembler) checkXRegs(regs ...XReg) bool {
	for _, r := range regs {
		if !r.Valid() {
			a.failf("%w: register xmm%d", ErrInvalidOperand, uint8(r))
			return false
		}
	}
	return true
}

func (a *Assembler) checkMem(m *Mem) bool {
	if err := m.Err(); err != nil {
		a.fail(err)
		return false
	}
	return true
}

// Immediates for 8 and 16-bit operations must fit the operand, either signed or unsigned.
func (a *Assembler) checkImm(w Width, v Imm) bool {
	ok := true
	switch w {
	case W8:
		ok = v >= -1<<7 && v <= 1<<8-1
	case W16:
		ok = v >= -1<<15 && v <= 1<<16-1
	}
	if !ok {
		a.failf("%w: immediate %d does not fit %d bits", ErrInvalidOperand, v, w)
	}
	return ok
}

func (a *Assembler) noMatch(inst Inst, form string) error {
	return a.fail(fmt.Errorf("%w: %s %s", ErrNoMatch, inst.Name(), form))
}
