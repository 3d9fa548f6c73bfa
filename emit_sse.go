package x64

// SSE instructions are encoded as [mandatory prefix] [REX] 0f op ModRM. The operand width of
// the XMM operands is implied by the opcode; only GPR operands of conversions and moves take a
// width, which selects REX.W.

func (a *Assembler) sseEnc(inst Inst, kinds ...encKind) (*enc, bool) {
	e := inst.enc()
	for _, k := range kinds {
		if e.kind == k {
			return e, true
		}
	}
	return e, false
}

func sseInsn(e *enc, op byte) insn {
	in := insn{w: W32, pfx: e.pfx}
	in.opcode(0x0f, op)
	return in
}

// GPR operands of SSE conversions and moves are 32 or 64 bits. MOVD moves 32 bits and MOVQ
// moves 64 bits.
func (a *Assembler) checkGPRWidth(inst Inst, w Width) bool {
	ok := w == W32 || w == W64
	switch inst {
	case MOVD:
		ok = w == W32
	case MOVQ:
		ok = w == W64
	}
	if !ok {
		a.failf("%w: %s with a %d-bit register", ErrInvalidWidth, inst.Name(), w)
	}
	return ok
}

// Encode inst with XMM destination and source registers to the encoding buffer.
//
// Supported: moves, arithmetic, logic, compares (except CMPxx), and CVTSD2SS/CVTSS2SD.
func (a *Assembler) XX(inst Inst, dst, src XReg) error {
	if a.err != nil || !a.checkXRegs(dst, src) {
		return a.err
	}
	e, ok := a.sseEnc(inst, kindSSE)
	if !ok || e.imm8 {
		return a.noMatch(inst, "xmm, xmm")
	}
	in := sseInsn(e, e.op)
	in.reg, in.rm = dst.Num(), src.Num()
	a.encode(&in)
	return nil
}

// Encode inst with an XMM destination and memory source to the encoding buffer.
func (a *Assembler) XM(inst Inst, dst XReg, src Mem) error {
	if a.err != nil || !a.checkXRegs(dst) || !a.checkMem(&src) {
		return a.err
	}
	e, ok := a.sseEnc(inst, kindSSE)
	if !ok || e.imm8 {
		return a.noMatch(inst, "xmm, mem")
	}
	in := sseInsn(e, e.op)
	in.reg, in.mem = dst.Num(), &src
	a.encode(&in)
	return nil
}

// Encode a store of an XMM register to memory to the encoding buffer.
//
// Supported: MOVSD, MOVSS, MOVAPD, MOVAPS, MOVUPD, MOVUPS, MOVD, MOVQ.
func (a *Assembler) MX(inst Inst, dst Mem, src XReg) error {
	if a.err != nil || !a.checkXRegs(src) || !a.checkMem(&dst) {
		return a.err
	}
	e, ok := a.sseEnc(inst, kindSSE, kindMovGPR)
	if !ok || e.store == 0 {
		return a.noMatch(inst, "mem, xmm")
	}
	in := sseInsn(e, e.store)
	in.rexW = inst == MOVQ
	in.reg, in.mem = src.Num(), &dst
	a.encode(&in)
	return nil
}

// Encode inst with XMM operands and an 8-bit predicate immediate to the encoding buffer.
//
// Supported: CMPSD, CMPSS, CMPPD, CMPPS.
func (a *Assembler) XXI(inst Inst, dst, src XReg, imm uint8) error {
	if a.err != nil || !a.checkXRegs(dst, src) {
		return a.err
	}
	e, ok := a.sseEnc(inst, kindSSE)
	if !ok || !e.imm8 {
		return a.noMatch(inst, "xmm, xmm, imm8")
	}
	in := sseInsn(e, e.op)
	in.reg, in.rm = dst.Num(), src.Num()
	a.encode(&in)
	a.b.Byte(imm)
	return nil
}

// Encode inst with an XMM destination, memory source, and 8-bit predicate immediate to the encoding buffer.
func (a *Assembler) XMI(inst Inst, dst XReg, src Mem, imm uint8) error {
	if a.err != nil || !a.checkXRegs(dst) || !a.checkMem(&src) {
		return a.err
	}
	e, ok := a.sseEnc(inst, kindSSE)
	if !ok || !e.imm8 {
		return a.noMatch(inst, "xmm, mem, imm8")
	}
	in := sseInsn(e, e.op)
	in.reg, in.mem = dst.Num(), &src
	a.encode(&in)
	a.b.Byte(imm)
	return nil
}

// Encode inst with an XMM destination and general-purpose source register to the encoding buffer.
//
// Supported: CVTSI2SD, CVTSI2SS, MOVD, MOVQ.
func (a *Assembler) XR(inst Inst, w Width, dst XReg, src Reg) error {
	if a.err != nil || !a.checkXRegs(dst) || !a.checkRegs(src) || !a.checkGPRWidth(inst, w) {
		return a.err
	}
	e, ok := a.sseEnc(inst, kindSSEFromGPR, kindMovGPR)
	if !ok {
		return a.noMatch(inst, "xmm, reg")
	}
	in := sseInsn(e, e.op)
	in.rexW = w == W64
	in.reg, in.rm = dst.Num(), src.Num()
	a.encode(&in)
	return nil
}

// Encode inst with an XMM destination and w-bit integer memory source to the encoding buffer.
func (a *Assembler) XRM(inst Inst, w Width, dst XReg, src Mem) error {
	if a.err != nil || !a.checkXRegs(dst) || !a.checkMem(&src) || !a.checkGPRWidth(inst, w) {
		return a.err
	}
	e, ok := a.sseEnc(inst, kindSSEFromGPR, kindMovGPR)
	if !ok {
		return a.noMatch(inst, "xmm, m")
	}
	in := sseInsn(e, e.op)
	in.rexW = w == W64
	in.reg, in.mem = dst.Num(), &src
	a.encode(&in)
	return nil
}

// Encode inst with a general-purpose destination and XMM source register to the encoding buffer.
//
// Supported: CVTTSD2SI, CVTTSS2SI, CVTSD2SI, CVTSS2SI, MOVD, MOVQ.
func (a *Assembler) RX(inst Inst, w Width, dst Reg, src XReg) error {
	if a.err != nil || !a.checkRegs(dst) || !a.checkXRegs(src) || !a.checkGPRWidth(inst, w) {
		return a.err
	}
	e, ok := a.sseEnc(inst, kindSSEToGPR, kindMovGPR)
	if !ok {
		return a.noMatch(inst, "reg, xmm")
	}
	var in insn
	if e.kind == kindMovGPR {
		// 66 0f 7e stores the XMM register (ModRM.reg) to r/m
		in = sseInsn(e, e.store)
		in.reg, in.rm = src.Num(), dst.Num()
	} else {
		in = sseInsn(e, e.op)
		in.reg, in.rm = dst.Num(), src.Num()
	}
	in.rexW = w == W64
	a.encode(&in)
	return nil
}

// Encode a conversion to a general-purpose destination from a memory source to the encoding buffer.
//
// Supported: CVTTSD2SI, CVTTSS2SI, CVTSD2SI, CVTSS2SI.
func (a *Assembler) RXM(inst Inst, w Width, dst Reg, src Mem) error {
	if a.err != nil || !a.checkRegs(dst) || !a.checkMem(&src) || !a.checkGPRWidth(inst, w) {
		return a.err
	}
	e, ok := a.sseEnc(inst, kindSSEToGPR)
	if !ok {
		return a.noMatch(inst, "reg, m")
	}
	in := sseInsn(e, e.op)
	in.rexW = w == W64
	in.reg, in.mem = dst.Num(), &src
	a.encode(&in)
	return nil
}
