// Package disasm decodes x86-64 machine code with golang.org/x/arch/x86/x86asm.
//
// It is used to check the output of the x64 assembler against an independent decoder, and to
// render listings of published code for tracing:
//
//	asm := x64.NewAssembler(nil)
//	asm.RI(x64.MOV, x64.W32, x64.RAX, 999)
//	asm.Ret()
//	fmt.Print(disasm.Listing(asm.Code()))
//
// prints
//
//	0x0000: b8 e7 03 00 00   mov eax, 0x3e7
//	0x0005: c3               ret
//
// Some instructions encoded by the x64 package may be rendered differently by x86asm; listings
// fall back to a "db" line for bytes which cannot be decoded.
package disasm
