package asm

import (
	"errors"

	"github.com/trivm/trivm/translate"
)

var f = translate.From

var (
	// ErrUnterminatedString is a string literal with no closing quote
	// before the end of the line.
	ErrUnterminatedString = errors.New(f("unterminated string literal"))

	// ErrUnterminatedExpr is a $( expression with no closing parenthesis.
	ErrUnterminatedExpr = errors.New(f("unterminated $( expression"))

	// ErrOutOfRegisters means the program names more variables than the
	// register file can hold.
	ErrOutOfRegisters = errors.New(f("out of registers"))

	// ErrProgramTooLarge means code and data cannot fit in memory
	// alongside the reserved stack area.
	ErrProgramTooLarge = errors.New(f("program too large"))
)

// ErrBadCharacter is a character the lexer cannot start a token with.
type ErrBadCharacter rune

// Error returns the error string.
func (e ErrBadCharacter) Error() string {
	return f("unexpected character %q", rune(e))
}

// ErrBadNumber is a malformed integer literal.
type ErrBadNumber string

// Error returns the error string.
func (e ErrBadNumber) Error() string {
	return f("malformed number %q", string(e))
}

// ErrBadEscape is an unknown escape sequence in a string literal.
type ErrBadEscape rune

// Error returns the error string.
func (e ErrBadEscape) Error() string {
	return f("unknown escape \\%c", rune(e))
}

// ErrImmediateRange is an immediate outside the machine word's signed
// and unsigned ranges.
type ErrImmediateRange int64

// Error returns the error string.
func (e ErrImmediateRange) Error() string {
	return f("immediate %d does not fit in a word", int64(e))
}

// ErrDuplicateLabel is a label defined more than once.
type ErrDuplicateLabel string

// Error returns the error string.
func (e ErrDuplicateLabel) Error() string {
	return f("duplicate label %q", string(e))
}

// ErrUndefinedLabel is a jump or call target no label defines.
type ErrUndefinedLabel string

// Error returns the error string.
func (e ErrUndefinedLabel) Error() string {
	return f("undefined label %q", string(e))
}

// LexError wraps a tokenization failure with its source position.
type LexError struct {
	Pos Position
	Err error
}

// Error returns the error string.
func (e LexError) Error() string {
	return f("%v: %v", e.Pos, e.Err)
}

// Unwrap returns the underlying error.
func (e LexError) Unwrap() error {
	return e.Err
}

// ParseError is a grammar violation on one source line.
type ParseError struct {
	Line int
	Err  error
}

// Error returns the error string.
func (e ParseError) Error() string {
	return f("line %d: %v", e.Line, e.Err)
}

// Unwrap returns the underlying error.
func (e ParseError) Unwrap() error {
	return e.Err
}

// SemanticError is a program that parses but cannot be encoded.
type SemanticError struct {
	Line int
	Err  error
}

// Error returns the error string.
func (e SemanticError) Error() string {
	if e.Line == 0 {
		return e.Err.Error()
	}
	return f("line %d: %v", e.Line, e.Err)
}

// Unwrap returns the underlying error.
func (e SemanticError) Unwrap() error {
	return e.Err
}
