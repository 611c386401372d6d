package isa

import (
	"errors"

	"github.com/trivm/trivm/translate"
)

var f = translate.From

var (
	// ErrTruncated means the byte stream ended inside an instruction.
	ErrTruncated = errors.New(f("truncated instruction"))
)

// ErrBadOpcode is an opcode byte outside the instruction catalogue.
type ErrBadOpcode byte

// Error returns the error string.
func (e ErrBadOpcode) Error() string {
	return f("invalid opcode %#02x", byte(e))
}

// ErrBadRegister is a register operand outside the register file.
type ErrBadRegister byte

// Error returns the error string.
func (e ErrBadRegister) Error() string {
	return f("invalid register %d", byte(e))
}
