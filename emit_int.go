package x64

// Select the byte-sized or full-sized variant of an opcode.
func byteOp(w Width, op8, op byte) byte {
	if w == W8 {
		return op8
	}
	return op
}

func (a *Assembler) begin(w Width, regs ...Reg) bool {
	return a.err == nil && a.checkWidth(w) && a.checkRegs(regs...)
}

// Encode inst with a register destination and register source to the encoding buffer.
//
// Supported: ADD, OR, ADC, SBB, AND, SUB, XOR, CMP, MOV, TEST, IMUL.
func (a *Assembler) RR(inst Inst, w Width, dst, src Reg) error {
	if !a.begin(w, dst, src) {
		return a.err
	}
	e := inst.enc()
	in := insn{w: w, reg: src.Num(), rm: dst.Num(), regByte: w == W8, rmByte: w == W8}
	switch e.kind {
	case kindArith:
		in.opcode(e.ext<<3 | byteOp(w, 0x00, 0x01))
	case kindMov:
		in.opcode(byteOp(w, 0x88, 0x89))
	case kindTest:
		in.opcode(byteOp(w, 0x84, 0x85))
	case kindImul:
		if w == W8 {
			return a.noMatch(inst, "r8, r8")
		}
		in.reg, in.rm = dst.Num(), src.Num()
		in.opcode(0x0f, 0xaf)
	default:
		return a.noMatch(inst, "reg, reg")
	}
	a.encode(&in)
	return nil
}

// Encode inst with a register destination and memory source to the encoding buffer.
//
// Supported: ADD, OR, ADC, SBB, AND, SUB, XOR, CMP, MOV, TEST, LEA, IMUL.
func (a *Assembler) RM(inst Inst, w Width, dst Reg, src Mem) error {
	if !a.begin(w, dst) || !a.checkMem(&src) {
		return a.err
	}
	e := inst.enc()
	in := insn{w: w, reg: dst.Num(), regByte: w == W8, mem: &src}
	switch e.kind {
	case kindArith:
		in.opcode(e.ext<<3 | byteOp(w, 0x02, 0x03))
	case kindMov:
		in.opcode(byteOp(w, 0x8a, 0x8b))
	case kindTest:
		in.opcode(byteOp(w, 0x84, 0x85))
	case kindLea:
		if w == W8 {
			return a.noMatch(inst, "r8, m")
		}
		in.opcode(0x8d)
	case kindImul:
		if w == W8 {
			return a.noMatch(inst, "r8, m8")
		}
		in.opcode(0x0f, 0xaf)
	default:
		return a.noMatch(inst, "reg, mem")
	}
	a.encode(&in)
	return nil
}

// Encode inst with a memory destination and register source to the encoding buffer.
//
// Supported: ADD, OR, ADC, SBB, AND, SUB, XOR, CMP, MOV, TEST.
func (a *Assembler) MR(inst Inst, w Width, dst Mem, src Reg) error {
	if !a.begin(w, src) || !a.checkMem(&dst) {
		return a.err
	}
	e := inst.enc()
	in := insn{w: w, reg: src.Num(), regByte: w == W8, mem: &dst}
	switch e.kind {
	case kindArith:
		in.opcode(e.ext<<3 | byteOp(w, 0x00, 0x01))
	case kindMov:
		in.opcode(byteOp(w, 0x88, 0x89))
	case kindTest:
		in.opcode(byteOp(w, 0x84, 0x85))
	default:
		return a.noMatch(inst, "mem, reg")
	}
	a.encode(&in)
	return nil
}

// Encode inst with a register destination and immediate to the encoding buffer. 64-bit operations
// sign-extend the immediate; use MovImm64 to load a full 64-bit value.
//
// Supported: ADD, OR, ADC, SBB, AND, SUB, XOR, CMP, MOV, TEST, IMUL.
func (a *Assembler) RI(inst Inst, w Width, dst Reg, imm Imm) error {
	if !a.begin(w, dst) || !a.checkImm(w, imm) {
		return a.err
	}
	e := inst.enc()
	switch e.kind {
	case kindArith:
		in := insn{w: w, rm: dst.Num(), rmByte: w == W8}
		a.arithImm(&in, e.ext, imm)
	case kindMov:
		if w == W64 {
			// C7 /0 id sign-extends; B8+r would take a full 8-byte immediate
			in := insn{w: w, rm: dst.Num()}
			a.encode(in.opcode(0xc7))
			a.b.Int32(int32(imm))
			return nil
		}
		a.encodeO(w, byteOp(w, 0xb0, 0xb8), dst, w == W8)
		a.imm(w, imm)
	case kindTest:
		in := insn{w: w, rm: dst.Num(), rmByte: w == W8}
		a.encode(in.opcode(byteOp(w, 0xf6, 0xf7)))
		a.imm(w, imm)
	case kindImul:
		return a.RRI(inst, w, dst, dst, imm)
	default:
		return a.noMatch(inst, "reg, imm")
	}
	return nil
}

// Encode inst with a memory destination and immediate to the encoding buffer.
//
// Supported: ADD, OR, ADC, SBB, AND, SUB, XOR, CMP, MOV, TEST.
func (a *Assembler) MI(inst Inst, w Width, dst Mem, imm Imm) error {
	if !a.begin(w) || !a.checkMem(&dst) || !a.checkImm(w, imm) {
		return a.err
	}
	e := inst.enc()
	in := insn{w: w, mem: &dst}
	switch e.kind {
	case kindArith:
		a.arithImm(&in, e.ext, imm)
	case kindMov:
		a.encode(in.opcode(byteOp(w, 0xc6, 0xc7)))
		a.imm(w, imm)
	case kindTest:
		a.encode(in.opcode(byteOp(w, 0xf6, 0xf7)))
		a.imm(w, imm)
	default:
		return a.noMatch(inst, "mem, imm")
	}
	return nil
}

// The arithmetic family shares one immediate opcode; the operation is selected by the ModRM.reg
// subcode. Immediates fitting 8 bits use the sign-extended 0x83 form.
func (a *Assembler) arithImm(in *insn, ext uint8, imm Imm) {
	in.reg = ext
	switch {
	case in.w == W8:
		a.encode(in.opcode(0x80))
		a.b.Int8(int8(imm))
	case imm.IsInt8():
		a.encode(in.opcode(0x83))
		a.b.Int8(int8(imm))
	default:
		a.encode(in.opcode(0x81))
		a.imm(in.w, imm)
	}
}

// Encode a three-operand signed multiply (dst = src * imm) to the encoding buffer. Only IMUL is supported.
func (a *Assembler) RRI(inst Inst, w Width, dst, src Reg, imm Imm) error {
	if !a.begin(w, dst, src) || !a.checkImm(w, imm) {
		return a.err
	}
	if inst.enc().kind != kindImul || w == W8 {
		return a.noMatch(inst, "reg, reg, imm")
	}
	in := insn{w: w, reg: dst.Num(), rm: src.Num()}
	a.imulImm(&in, imm)
	return nil
}

// Encode a three-operand signed multiply (dst = [src] * imm) to the encoding buffer. Only IMUL is supported.
func (a *Assembler) RMI(inst Inst, w Width, dst Reg, src Mem, imm Imm) error {
	if !a.begin(w, dst) || !a.checkMem(&src) || !a.checkImm(w, imm) {
		return a.err
	}
	if inst.enc().kind != kindImul || w == W8 {
		return a.noMatch(inst, "reg, mem, imm")
	}
	in := insn{w: w, reg: dst.Num(), mem: &src}
	a.imulImm(&in, imm)
	return nil
}

func (a *Assembler) imulImm(in *insn, imm Imm) {
	if imm.IsInt8() {
		a.encode(in.opcode(0x6b))
		a.b.Int8(int8(imm))
		return
	}
	a.encode(in.opcode(0x69))
	a.imm(in.w, imm)
}

func unaryOp(e *enc, w Width) (byte, bool) {
	switch e.kind {
	case kindUnary:
		return byteOp(w, 0xf6, 0xf7), true
	case kindIncDec:
		return byteOp(w, 0xfe, 0xff), true
	}
	return 0, false
}

// Encode a single-operand instruction on a register to the encoding buffer.
//
// Supported: NOT, NEG, MUL, IMUL1, DIV, IDIV, INC, DEC. MUL, IMUL1, DIV, and IDIV operate on
// RDX:RAX (AH:AL for 8-bit operations) implicitly.
func (a *Assembler) R(inst Inst, w Width, r Reg) error {
	if !a.begin(w, r) {
		return a.err
	}
	e := inst.enc()
	op, ok := unaryOp(e, w)
	if !ok {
		return a.noMatch(inst, "reg")
	}
	in := insn{w: w, reg: e.ext, rm: r.Num(), rmByte: w == W8}
	a.encode(in.opcode(op))
	return nil
}

// Encode a single-operand instruction on a memory operand to the encoding buffer.
//
// Supported: NOT, NEG, MUL, IMUL1, DIV, IDIV, INC, DEC.
func (a *Assembler) M(inst Inst, w Width, m Mem) error {
	if !a.begin(w) || !a.checkMem(&m) {
		return a.err
	}
	e := inst.enc()
	op, ok := unaryOp(e, w)
	if !ok {
		return a.noMatch(inst, "mem")
	}
	in := insn{w: w, reg: e.ext, mem: &m}
	a.encode(in.opcode(op))
	return nil
}

func (a *Assembler) shift(inst Inst, in *insn, n uint8, byCL bool) error {
	e := inst.enc()
	if e.kind != kindShift {
		return a.noMatch(inst, "shift")
	}
	in.reg = e.ext
	switch {
	case byCL:
		a.encode(in.opcode(byteOp(in.w, 0xd2, 0xd3)))
	case n == 1:
		a.encode(in.opcode(byteOp(in.w, 0xd0, 0xd1)))
	default:
		a.encode(in.opcode(byteOp(in.w, 0xc0, 0xc1)))
		a.b.Byte(n)
	}
	return nil
}

// Encode a shift or rotate of a register by a constant count to the encoding buffer. A count of
// 1 uses the dedicated shift-by-one opcode.
//
// Supported: ROL, ROR, RCL, RCR, SHL, SHR, SAR.
func (a *Assembler) Shift(inst Inst, w Width, dst Reg, n uint8) error {
	if !a.begin(w, dst) {
		return a.err
	}
	in := insn{w: w, rm: dst.Num(), rmByte: w == W8}
	return a.shift(inst, &in, n, false)
}

// Encode a shift or rotate of a register by CL to the encoding buffer.
func (a *Assembler) ShiftCL(inst Inst, w Width, dst Reg) error {
	if !a.begin(w, dst) {
		return a.err
	}
	in := insn{w: w, rm: dst.Num(), rmByte: w == W8}
	return a.shift(inst, &in, 0, true)
}

// Encode a shift or rotate of a memory operand by a constant count to the encoding buffer.
func (a *Assembler) ShiftM(inst Inst, w Width, dst Mem, n uint8) error {
	if !a.begin(w) || !a.checkMem(&dst) {
		return a.err
	}
	in := insn{w: w, mem: &dst}
	return a.shift(inst, &in, n, false)
}

// Encode a shift or rotate of a memory operand by CL to the encoding buffer.
func (a *Assembler) ShiftMCL(inst Inst, w Width, dst Mem) error {
	if !a.begin(w) || !a.checkMem(&dst) {
		return a.err
	}
	in := insn{w: w, mem: &dst}
	return a.shift(inst, &in, 0, true)
}

// Extension source widths must be narrower than the destination, and the destination at least 16 bits.
func (a *Assembler) checkExtend(dw, sw Width) bool {
	if !a.checkWidth(dw) || !a.checkWidth(sw) {
		return false
	}
	if dw == W8 || sw >= dw {
		a.failf("%w: cannot extend %d bits to %d bits", ErrInvalidWidth, sw, dw)
		return false
	}
	return true
}

func (a *Assembler) extend(signed bool, dw Width, dst Reg, sw Width, in *insn) {
	in.w = dw
	in.reg = dst.Num()
	switch {
	case sw == W8 && signed:
		in.opcode(0x0f, 0xbe)
	case sw == W8:
		in.opcode(0x0f, 0xb6)
	case sw == W16 && signed:
		in.opcode(0x0f, 0xbf)
	case sw == W16:
		in.opcode(0x0f, 0xb7)
	case signed:
		// MOVSXD r64, r/m32
		in.opcode(0x63)
	default:
		// writing a 32-bit register zero-extends into the upper half
		in.w = W32
		in.opcode(0x8b)
	}
	a.encode(in)
}

// Encode a sign extension from a sw-bit register to a dw-bit register to the encoding buffer.
// Byte sources 4-15 (SPL, BPL, SIL, DIL, R8B-R15B) are addressed with a REX prefix.
func (a *Assembler) Movsx(dw Width, dst Reg, sw Width, src Reg) error {
	if !a.begin(W64, dst, src) || !a.checkExtend(dw, sw) {
		return a.err
	}
	in := insn{rm: src.Num(), rmByte: sw == W8}
	a.extend(true, dw, dst, sw, &in)
	return nil
}

// Encode a zero extension from a sw-bit register to a dw-bit register to the encoding buffer.
// A 32-bit source is extended with a 32-bit MOV, which clears the upper half of dst.
func (a *Assembler) Movzx(dw Width, dst Reg, sw Width, src Reg) error {
	if !a.begin(W64, dst, src) || !a.checkExtend(dw, sw) {
		return a.err
	}
	in := insn{rm: src.Num(), rmByte: sw == W8}
	a.extend(false, dw, dst, sw, &in)
	return nil
}

// Encode a sign extension from a sw-bit memory operand to a dw-bit register to the encoding buffer.
func (a *Assembler) MovsxM(dw Width, dst Reg, sw Width, src Mem) error {
	if !a.begin(W64, dst) || !a.checkMem(&src) || !a.checkExtend(dw, sw) {
		return a.err
	}
	in := insn{mem: &src}
	a.extend(true, dw, dst, sw, &in)
	return nil
}

// Encode a zero extension from a sw-bit memory operand to a dw-bit register to the encoding buffer.
func (a *Assembler) MovzxM(dw Width, dst Reg, sw Width, src Mem) error {
	if !a.begin(W64, dst) || !a.checkMem(&src) || !a.checkExtend(dw, sw) {
		return a.err
	}
	in := insn{mem: &src}
	a.extend(false, dw, dst, sw, &in)
	return nil
}

// Encode a sign extension of the accumulator into RDX (CWD, CDQ, or CQO), as needed before IDIV.
func (a *Assembler) SignExtendAcc(w Width) error {
	if !a.begin(w) {
		return a.err
	}
	switch w {
	case W8:
		return a.failf("%w: accumulator sign extension needs at least 16 bits", ErrInvalidWidth)
	case W16:
		a.b.Byte2(prefOpSize, 0x99)
	case W32:
		a.b.Byte(0x99)
	case W64:
		a.b.Byte2(rexBase|rexW, 0x99)
	}
	return nil
}

// Encode a load of a full 64-bit immediate into a register (MOV r64, imm64) to the encoding buffer.
// The encoding is always 10 bytes, so the immediate may be patched in place.
func (a *Assembler) MovImm64(dst Reg, v int64) error {
	if !a.begin(W64, dst) {
		return a.err
	}
	a.encodeO(W64, 0xb8, dst, false)
	a.b.Int64(v)
	return nil
}

// Encode a conditional byte-set of a register (SETcc r8) to the encoding buffer.
func (a *Assembler) Setcc(cc ConditionCode, dst Reg) error {
	if !a.begin(W8, dst) || !a.checkCond(cc) {
		return a.err
	}
	in := insn{rm: dst.Num(), rmByte: true}
	a.encode(in.opcode(0x0f, 0x90|byte(cc)))
	return nil
}

// Encode a conditional byte-set of a memory operand (SETcc m8) to the encoding buffer.
func (a *Assembler) SetccM(cc ConditionCode, dst Mem) error {
	if a.err != nil || !a.checkMem(&dst) || !a.checkCond(cc) {
		return a.err
	}
	in := insn{mem: &dst}
	a.encode(in.opcode(0x0f, 0x90|byte(cc)))
	return nil
}

// Encode a conditional move between registers (CMOVcc) to the encoding buffer.
func (a *Assembler) Cmov(cc ConditionCode, w Width, dst, src Reg) error {
	if !a.begin(w, dst, src) || !a.checkCond(cc) {
		return a.err
	}
	if w == W8 {
		return a.failf("%w: CMOVcc has no 8-bit form", ErrInvalidWidth)
	}
	in := insn{w: w, reg: dst.Num(), rm: src.Num()}
	a.encode(in.opcode(0x0f, 0x40|byte(cc)))
	return nil
}

// Encode a conditional move from a memory operand (CMOVcc) to the encoding buffer.
func (a *Assembler) CmovM(cc ConditionCode, w Width, dst Reg, src Mem) error {
	if !a.begin(w, dst) || !a.checkMem(&src) || !a.checkCond(cc) {
		return a.err
	}
	if w == W8 {
		return a.failf("%w: CMOVcc has no 8-bit form", ErrInvalidWidth)
	}
	in := insn{w: w, reg: dst.Num(), mem: &src}
	a.encode(in.opcode(0x0f, 0x40|byte(cc)))
	return nil
}
