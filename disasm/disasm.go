package disasm

import (
	"fmt"
	"strings"

	"golang.org/x/arch/x86/x86asm"
)

// Line is one decoded instruction.
type Line struct {
	Offset int
	Bytes  []byte
	Inst   x86asm.Inst
}

// Get the instruction in Intel syntax. Branch targets are rendered relative to the end of the
// instruction (".+0x4").
func (l Line) Intel() string {
	return x86asm.IntelSyntax(l.Inst, 0, nil)
}

func (l Line) String() string {
	hex := make([]string, len(l.Bytes))
	for i, b := range l.Bytes {
		hex[i] = fmt.Sprintf("%02x", b)
	}
	return fmt.Sprintf("0x%04x: %-16s %s", l.Offset, strings.Join(hex, " "), l.Intel())
}

// Decode instructions from code in order until while returns false or the code is exhausted.
// Decoding stops at the first invalid instruction, which is returned as an error along with its
// offset.
func Decode(code []byte, while func(Line) bool) error {
	for off := 0; off < len(code); {
		inst, err := x86asm.Decode(code[off:], 64)
		if err != nil {
			return fmt.Errorf("disasm: offset %#x: %w", off, err)
		}
		if !while(Line{Offset: off, Bytes: code[off : off+inst.Len], Inst: inst}) {
			return nil
		}
		off += inst.Len
	}
	return nil
}

// Decode all instructions in code and render each in Intel syntax.
func Intel(code []byte) ([]string, error) {
	var out []string
	err := Decode(code, func(l Line) bool {
		out = append(out, l.Intel())
		return true
	})
	return out, err
}

// Render a listing of code, one instruction per line. Undecodable bytes are listed one at a time
// as data.
func Listing(code []byte) string {
	var sb strings.Builder
	for off := 0; off < len(code); {
		inst, err := x86asm.Decode(code[off:], 64)
		if err != nil {
			fmt.Fprintf(&sb, "0x%04x: db 0x%02x\n", off, code[off])
			off++
			continue
		}
		sb.WriteString(Line{Offset: off, Bytes: code[off : off+inst.Len], Inst: inst}.String())
		sb.WriteByte('\n')
		off += inst.Len
	}
	return sb.String()
}
