// package x64 provides an x86-64 instruction encoder for emitting code at runtime.
//
// An Assembler appends instructions to a code buffer. Operands are registers (Reg, XReg),
// memory operands (Mem, built with BaseDisp, BaseIndexDisp, IndexDisp, or RIPDisp), and
// immediates (Imm). Each operand form has its own method (RR, RM, MR, RI, MI, XX, ...), and
// the operand width is passed explicitly.
//
// Branches may target labels which are bound later. Every reference to a label is resolved when
// the label is bound, and Finalize reports labels which were referenced but never bound.
//
// The first contract violation (an invalid width, a register out of range, an instruction with
// no encoding for the given operands, ...) is recorded by the assembler and returned by every
// later call until Reset.
//
// usage example:
//
//	package example
//
//	import (
//		"github.com/wdamron/x64jit"
//		"github.com/wdamron/x64jit/execmem"
//	)
//
//	// Arguments arrive in RAX and RBX and the result is returned in RAX, following Go's
//	// register-based calling convention on amd64.
//	func CompileMaxFunc() (func(a, b int) int, *execmem.Func, error) {
//		asm := x64.NewAssembler(nil)
//		done := asm.NewLabel()
//
//		asm.RR(x64.CMP, x64.W64, x64.RAX, x64.RBX)
//		asm.JccNear(x64.CCSignedGTE, done)
//		asm.RR(x64.MOV, x64.W64, x64.RAX, x64.RBX)
//		asm.Bind(done)
//		asm.Ret()
//		if err := asm.Finalize(); err != nil {
//			return nil, nil, err
//		}
//
//		fn, err := execmem.Publish(execmem.DefaultAllocator(), asm.Code())
//		if err != nil {
//			return nil, nil, err
//		}
//		var max func(a, b int) int
//		if err := fn.Bind(&max); err != nil {
//			fn.Release()
//			return nil, nil, err
//		}
//		// fn must not be released while max may still be called
//		return max, fn, nil
//	}
package x64
