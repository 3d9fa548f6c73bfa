package x64

// Width is the operand size of an instruction in bits. Only W8, W16, W32 and W64 are valid.
type Width uint8

const (
	W8  Width = 8
	W16 Width = 16
	W32 Width = 32
	W64 Width = 64
)

// Check if the width is one of W8, W16, W32, or W64.
func (w Width) Valid() bool { return w == W8 || w == W16 || w == W32 || w == W64 }

// Get the width in bytes.
func (w Width) Bytes() int { return int(w) / 8 }

func (w Width) index() int {
	switch w {
	case W8:
		return 0
	case W16:
		return 1
	case W32:
		return 2
	}
	return 3
}

// Imm is a 32-bit immediate argument. 64-bit operations sign-extend it; MovImm64 accepts a full
// 64-bit value.
type Imm int32

// Check if the immediate can be encoded as a sign-extended 8-bit value.
func (i Imm) IsInt8() bool { return i >= -128 && i <= 127 }

func isInt8(v int64) bool  { return v >= -128 && v <= 127 }
func isInt32(v int64) bool { return v >= -1<<31 && v <= 1<<31-1 }
