package x64

import "errors"

// Contract errors. These are caller bugs; the Assembler records the first one and refuses to
// encode anything else until it is reset.
var (
	ErrInvalidWidth      = errors.New("x64: invalid operand width")
	ErrInvalidOperand    = errors.New("x64: invalid operand")
	ErrNoMatch           = errors.New("x64: instruction has no encoding for these operands")
	ErrInvalidScale      = errors.New("x64: scale must be 1, 2, 4, or 8")
	ErrIndexSP           = errors.New("x64: RSP cannot be used as an index register")
	ErrLabelRebound      = errors.New("x64: label is already bound")
	ErrLabelUnbound      = errors.New("x64: label has pending references but was never bound")
	ErrUnknownLabel      = errors.New("x64: label does not belong to this assembler")
	ErrNearOutOfRange    = errors.New("x64: near label displacement exceeds 8-bit range")
	ErrFarOutOfRange     = errors.New("x64: label displacement exceeds 32-bit range")
	ErrLabelChainCorrupt = errors.New("x64: label reference chain is corrupt")
)
