package vm

import (
	"errors"

	"github.com/trivm/trivm/translate"
)

var f = translate.From

var (
	// ErrDivideByZero is a div or mod with a zero divisor.
	ErrDivideByZero = errors.New(f("division by zero"))

	// ErrStackOverflow means a push would overwrite the code or data
	// segment.
	ErrStackOverflow = errors.New(f("stack overflow"))

	// ErrStackUnderflow is a pop or peek on an empty stack.
	ErrStackUnderflow = errors.New(f("stack underflow"))

	// ErrRecursionLimit means a call exceeded the maximum call depth.
	ErrRecursionLimit = errors.New(f("call depth limit exceeded"))

	// ErrUnknownSyscall is a syscall with an unassigned service id.
	ErrUnknownSyscall = errors.New(f("unknown syscall"))

	// ErrStepLimit means the step budget was exhausted before the
	// program halted.
	ErrStepLimit = errors.New(f("step limit exceeded"))

	// ErrNotRunning is a step on a halted or faulted machine.
	ErrNotRunning = errors.New(f("machine is not running"))

	// ErrImageTooLarge means the image's segments do not fit in memory
	// alongside the reserved stack area.
	ErrImageTooLarge = errors.New(f("image does not fit in memory"))

	// ErrHeapExhausted means an allocation cannot fit between the heap
	// break and the stack pointer.
	ErrHeapExhausted = errors.New(f("out of heap memory"))
)

// ErrBadAlloc is an allocation request with an unusable size.
type ErrBadAlloc uint32

// Error returns the error string.
func (e ErrBadAlloc) Error() string {
	return f("cannot allocate %d bytes", uint32(e))
}

// ErrBadFree is a free of an address no live allocation starts at.
type ErrBadFree uint32

// Error returns the error string.
func (e ErrBadFree) Error() string {
	return f("invalid free of %#06x", uint32(e))
}

// ErrMemory is an access outside addressable memory.
type ErrMemory struct {
	Addr  uint32
	Width int
}

// Error returns the error string.
func (e ErrMemory) Error() string {
	return f("memory access out of bounds at %#06x (%d bytes)", e.Addr, e.Width)
}

// ErrDecode is a malformed instruction in the code segment.
type ErrDecode struct {
	PC  uint16
	Err error
}

// Error returns the error string.
func (e ErrDecode) Error() string {
	return f("cannot decode instruction at %#04x: %v", e.PC, e.Err)
}

// Unwrap returns the underlying decode error.
func (e ErrDecode) Unwrap() error {
	return e.Err
}

// Fault records the runtime error that stopped the machine and the
// address of the faulting instruction.
type Fault struct {
	PC  uint16
	Err error
}

// Error returns the error string.
func (e Fault) Error() string {
	return f("fault at %#04x: %v", e.PC, e.Err)
}

// Unwrap returns the underlying runtime error.
func (e Fault) Unwrap() error {
	return e.Err
}
