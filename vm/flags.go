package vm

import "strings"

// Flags holds the condition flags set by arithmetic and compare
// instructions. Bitwise and shift instructions set Z and N and clear
// C and V.
type Flags struct {
	Z bool // result was zero
	N bool // result was negative (sign bit set)
	C bool // unsigned carry or borrow
	V bool // signed overflow
}

// Reset clears all flags.
func (fl *Flags) Reset() {
	*fl = Flags{}
}

// String renders the flags as "ZNCV" with cleared flags dashed.
func (fl Flags) String() string {
	var sb strings.Builder
	set := []struct {
		on bool
		ch byte
	}{{fl.Z, 'Z'}, {fl.N, 'N'}, {fl.C, 'C'}, {fl.V, 'V'}}
	for _, s := range set {
		if s.on {
			sb.WriteByte(s.ch)
		} else {
			sb.WriteByte('-')
		}
	}
	return sb.String()
}
