package isa

// System call service identifiers, carried in the syscall instruction's
// immediate operand.
const (
	SYS_PRINT_INT = 1 // print the argument register as a signed decimal
	SYS_READ_INT  = 2 // read a decimal integer into the argument register
	SYS_PRINT_STR = 3 // print the data-segment string the register points at
	SYS_HALT      = 4 // halt with the register value as exit status
	SYS_ALLOC     = 5 // allocate the register's value in bytes, address back into it
	SYS_FREE      = 6 // release the heap block the register points at
	SYS_DEBUG     = 7 // print the register and flags in diagnostic form
)
