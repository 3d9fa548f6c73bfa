package x64

// Encode a call to a label (CALL rel32) to the encoding buffer.
func (a *Assembler) Call(l Label) error { return a.branch(l, false, 0xe8) }

// Encode an indirect call through a register (CALL r64) to the encoding buffer.
func (a *Assembler) CallR(r Reg) error { return a.indirectR(2, r) }

// Encode an indirect call through a memory operand (CALL m64) to the encoding buffer.
func (a *Assembler) CallM(m Mem) error { return a.indirectM(0xff, 2, m) }

// Encode a jump to a label with a 4-byte displacement (JMP rel32) to the encoding buffer.
func (a *Assembler) Jmp(l Label) error { return a.branch(l, false, 0xe9) }

// Encode a jump to a label with a 1-byte displacement (JMP rel8) to the encoding buffer. If the
// label is bound out of range, Bind fails with ErrNearOutOfRange.
func (a *Assembler) JmpNear(l Label) error { return a.branch(l, true, 0xeb) }

// Encode an indirect jump through a register (JMP r64) to the encoding buffer.
func (a *Assembler) JmpR(r Reg) error { return a.indirectR(4, r) }

// Encode an indirect jump through a memory operand (JMP m64) to the encoding buffer.
func (a *Assembler) JmpM(m Mem) error { return a.indirectM(0xff, 4, m) }

// Encode a conditional jump to a label with a 4-byte displacement (Jcc rel32) to the encoding buffer.
func (a *Assembler) Jcc(cc ConditionCode, l Label) error {
	if a.err != nil || !a.checkCond(cc) {
		return a.err
	}
	return a.branch(l, false, 0x0f, 0x80|byte(cc))
}

// Encode a conditional jump to a label with a 1-byte displacement (Jcc rel8) to the encoding buffer.
func (a *Assembler) JccNear(cc ConditionCode, l Label) error {
	if a.err != nil || !a.checkCond(cc) {
		return a.err
	}
	return a.branch(l, true, 0x70|byte(cc))
}

// Encode a load of a label's address (LEA r64, [rip+rel32]) to the encoding buffer.
func (a *Assembler) LeaLabel(dst Reg, l Label) error {
	if !a.begin(W64, dst) {
		return a.err
	}
	return a.branch(l, false, rexBase|rexW|dst.Hi1()<<2, 0x8d, modNoDisp<<6|dst.Lo3()<<3|rmRIPRel)
}

// Encode ops followed by a reference to l. Nothing is left in the buffer if the reference fails.
func (a *Assembler) branch(l Label, near bool, ops ...byte) error {
	if a.err != nil {
		return a.err
	}
	s := a.label(l)
	if s == nil {
		return a.err
	}
	start := a.b.i
	a.b.Bytes(ops)
	if near {
		a.refNear(s)
	} else {
		a.refFar(s)
	}
	if a.err != nil {
		a.b.i = start
	}
	return a.err
}

// Encode a near return (RET) to the encoding buffer.
func (a *Assembler) Ret() error { return a.op1(0xc3) }

// Encode a breakpoint trap (INT3) to the encoding buffer.
func (a *Assembler) Int3() error { return a.op1(0xcc) }

// Encode an undefined-instruction trap (UD2) to the encoding buffer.
func (a *Assembler) Ud2() error { return a.op2(0x0f, 0x0b) }

// Encode a full memory fence (MFENCE) to the encoding buffer.
func (a *Assembler) Mfence() error { return a.op3(0x0f, 0xae, 0xf0) }

// Encode a load fence (LFENCE) to the encoding buffer.
func (a *Assembler) Lfence() error { return a.op3(0x0f, 0xae, 0xe8) }

// Encode a store fence (SFENCE) to the encoding buffer.
func (a *Assembler) Sfence() error { return a.op3(0x0f, 0xae, 0xf8) }

// Encode a push of a 64-bit register (PUSH r64) to the encoding buffer.
func (a *Assembler) Push(r Reg) error {
	if !a.begin(W64, r) {
		return a.err
	}
	a.encodeO(W32, 0x50, r, false)
	return nil
}

// Encode a pop into a 64-bit register (POP r64) to the encoding buffer.
func (a *Assembler) Pop(r Reg) error {
	if !a.begin(W64, r) {
		return a.err
	}
	a.encodeO(W32, 0x58, r, false)
	return nil
}

// Encode a push of a sign-extended immediate (PUSH imm8/imm32) to the encoding buffer.
func (a *Assembler) PushImm(imm Imm) error {
	if a.err != nil {
		return a.err
	}
	if imm.IsInt8() {
		a.b.Byte2(0x6a, byte(int8(imm)))
		return nil
	}
	a.b.Byte(0x68)
	a.b.Int32(int32(imm))
	return nil
}

// Encode a push of a 64-bit memory operand (PUSH m64) to the encoding buffer.
func (a *Assembler) PushM(m Mem) error { return a.indirectM(0xff, 6, m) }

// Encode a pop into a 64-bit memory operand (POP m64) to the encoding buffer.
func (a *Assembler) PopM(m Mem) error { return a.indirectM(0x8f, 0, m) }

// Near branches and stack operations default to 64-bit operands and take no REX.W.
func (a *Assembler) indirectR(ext uint8, r Reg) error {
	if !a.begin(W64, r) {
		return a.err
	}
	in := insn{w: W32, reg: ext, rm: r.Num()}
	a.encode(in.opcode(0xff))
	return nil
}

func (a *Assembler) indirectM(op byte, ext uint8, m Mem) error {
	if a.err != nil || !a.checkMem(&m) {
		return a.err
	}
	in := insn{w: W32, reg: ext, mem: &m}
	a.encode(in.opcode(op))
	return nil
}

func (a *Assembler) op1(op byte) error {
	if a.err == nil {
		a.b.Byte(op)
	}
	return a.err
}

func (a *Assembler) op2(op1, op2 byte) error {
	if a.err == nil {
		a.b.Byte2(op1, op2)
	}
	return a.err
}

func (a *Assembler) op3(op1, op2, op3 byte) error {
	if a.err == nil {
		a.b.Byte2(op1, op2)
		a.b.Byte(op3)
	}
	return a.err
}
