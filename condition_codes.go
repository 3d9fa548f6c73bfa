package x64

// ConditionCode is the 4-bit condition field of Jcc, SETcc, and CMOVcc.
type ConditionCode byte

const (
	CCO  ConditionCode = 0x0 // overflow
	CCNO ConditionCode = 0x1
	CCB  ConditionCode = 0x2 // below (CF=1)
	CCAE ConditionCode = 0x3
	CCE  ConditionCode = 0x4 // equal (ZF=1)
	CCNE ConditionCode = 0x5
	CCBE ConditionCode = 0x6
	CCA  ConditionCode = 0x7
	CCS  ConditionCode = 0x8 // sign
	CCNS ConditionCode = 0x9
	CCP  ConditionCode = 0xA // parity even
	CCNP ConditionCode = 0xB
	CCL  ConditionCode = 0xC // less (SF!=OF)
	CCGE ConditionCode = 0xD
	CCLE ConditionCode = 0xE
	CCG  ConditionCode = 0xF
)

// Comparison aliases.
const (
	CCUnsignedLT  = CCB
	CCUnsignedGTE = CCAE
	CCEq          = CCE
	CCNeq         = CCNE
	CCUnsignedLTE = CCBE
	CCUnsignedGT  = CCA
	CCSignedLT    = CCL
	CCSignedGTE   = CCGE
	CCSignedLTE   = CCLE
	CCSignedGT    = CCG
)

var ccNames = [16]string{"O", "NO", "B", "AE", "E", "NE", "BE", "A", "S", "NS", "P", "NP", "L", "GE", "LE", "G"}

// Check if the condition code is in the range 0-15.
func (cc ConditionCode) Valid() bool { return cc < 16 }

// Get the inverse condition. Conditions are paired so the inverse differs only in the low bit.
func (cc ConditionCode) Invert() ConditionCode { return cc ^ 1 }

func (cc ConditionCode) String() string {
	if !cc.Valid() {
		return "CC?"
	}
	return ccNames[cc]
}

// Invert a condition code.
func Invcc(cc ConditionCode) ConditionCode { return cc.Invert() }

func (a *Assembler) checkCond(cc ConditionCode) bool {
	if !cc.Valid() {
		a.failf("%w: condition code %d", ErrInvalidOperand, uint8(cc))
		return false
	}
	return true
}
