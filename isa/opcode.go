package isa

import (
	"fmt"
)

// Register is a general-purpose register index (0..REG_COUNT-1).
type Register uint8

const (
	REG_COUNT = 16 // Number of general-purpose registers.
)

// Valid returns true if the register index is within the register file.
func (r Register) Valid() bool {
	return r < REG_COUNT
}

// String returns the assembly name of the register.
func (r Register) String() string {
	return fmt.Sprintf("@r%d", uint8(r))
}

// Opcode selects an instruction's behavior.
type Opcode uint8

// Opcode byte values, grouped by function. These values are the binary
// contract between the code generator and the execution engine; the image
// header carries VERSION so that a future table revision cannot be
// misdecoded against an old image.
const (
	// Control
	OP_HALT = Opcode(0x00)
	OP_NOP  = Opcode(0x01)

	// Data movement
	OP_LOAD_IMM = Opcode(0x10)
	OP_MOVE     = Opcode(0x11)
	OP_SWAP     = Opcode(0x12)

	// Arithmetic
	OP_ADD = Opcode(0x20)
	OP_SUB = Opcode(0x21)
	OP_MUL = Opcode(0x22)
	OP_DIV = Opcode(0x23)
	OP_MOD = Opcode(0x24)

	// Compound assignment
	OP_ADD_ASSIGN = Opcode(0x30)
	OP_SUB_ASSIGN = Opcode(0x31)
	OP_MUL_ASSIGN = Opcode(0x32)
	OP_DIV_ASSIGN = Opcode(0x33)

	// Bitwise
	OP_AND = Opcode(0x40)
	OP_OR  = Opcode(0x41)
	OP_XOR = Opcode(0x42)
	OP_NOT = Opcode(0x43)
	OP_SHL = Opcode(0x44)
	OP_SHR = Opcode(0x45)

	// Stack
	OP_PUSH = Opcode(0x50)
	OP_POP  = Opcode(0x51)
	OP_PEEK = Opcode(0x52)

	// Memory
	OP_LOAD          = Opcode(0x60)
	OP_STORE         = Opcode(0x61)
	OP_LOAD_INDEXED  = Opcode(0x62)
	OP_STORE_INDEXED = Opcode(0x63)

	// Control flow
	OP_JUMP          = Opcode(0x70)
	OP_JUMP_IF_ZERO  = Opcode(0x71)
	OP_JUMP_IF_NZERO = Opcode(0x72)
	OP_JUMP_IF_GT    = Opcode(0x73)
	OP_JUMP_IF_LT    = Opcode(0x74)
	OP_JUMP_IF_GE    = Opcode(0x75)
	OP_JUMP_IF_LE    = Opcode(0x76)
	OP_JUMP_IF_EQ    = Opcode(0x77)
	OP_JUMP_IF_NE    = Opcode(0x78)
	OP_COMPARE       = Opcode(0x79)
	OP_JUMP_IF_ABOVE = Opcode(0x7A)
	OP_JUMP_IF_BELOW = Opcode(0x7B)
	OP_JUMP_IF_AE    = Opcode(0x7C)
	OP_JUMP_IF_BE    = Opcode(0x7D)

	// Functions
	OP_CALL   = Opcode(0x80)
	OP_RETURN = Opcode(0x81)

	// System
	OP_SYSCALL = Opcode(0x99)
)

// OperandKind tags one encoded operand slot.
type OperandKind int

const (
	KIND_REG  = OperandKind(iota) // 1 byte, register index 0..15
	KIND_IMM                      // 3 bytes, little-endian machine word
	KIND_ADDR                     // 2 bytes, little-endian address 0..65535
)

// Width returns the encoded width of the operand kind in bytes.
func (k OperandKind) Width() int {
	switch k {
	case KIND_REG:
		return 1
	case KIND_IMM:
		return 3
	case KIND_ADDR:
		return 2
	}
	return 0
}

// shape describes one opcode's mnemonic and operand layout.
type shape struct {
	name     string
	operands []OperandKind
}

var shapes = map[Opcode]shape{
	OP_HALT: {"halt", nil},
	OP_NOP:  {"nop", nil},

	OP_LOAD_IMM: {"loadimm", []OperandKind{KIND_REG, KIND_IMM}},
	OP_MOVE:     {"move", []OperandKind{KIND_REG, KIND_REG}},
	OP_SWAP:     {"swap", []OperandKind{KIND_REG, KIND_REG}},

	OP_ADD: {"add", []OperandKind{KIND_REG, KIND_REG, KIND_REG}},
	OP_SUB: {"sub", []OperandKind{KIND_REG, KIND_REG, KIND_REG}},
	OP_MUL: {"mul", []OperandKind{KIND_REG, KIND_REG, KIND_REG}},
	OP_DIV: {"div", []OperandKind{KIND_REG, KIND_REG, KIND_REG}},
	OP_MOD: {"mod", []OperandKind{KIND_REG, KIND_REG, KIND_REG}},

	OP_ADD_ASSIGN: {"addassign", []OperandKind{KIND_REG, KIND_REG}},
	OP_SUB_ASSIGN: {"subassign", []OperandKind{KIND_REG, KIND_REG}},
	OP_MUL_ASSIGN: {"mulassign", []OperandKind{KIND_REG, KIND_REG}},
	OP_DIV_ASSIGN: {"divassign", []OperandKind{KIND_REG, KIND_REG}},

	OP_AND: {"and", []OperandKind{KIND_REG, KIND_REG, KIND_REG}},
	OP_OR:  {"or", []OperandKind{KIND_REG, KIND_REG, KIND_REG}},
	OP_XOR: {"xor", []OperandKind{KIND_REG, KIND_REG, KIND_REG}},
	OP_NOT: {"not", []OperandKind{KIND_REG, KIND_REG}},
	OP_SHL: {"shl", []OperandKind{KIND_REG, KIND_REG, KIND_REG}},
	OP_SHR: {"shr", []OperandKind{KIND_REG, KIND_REG, KIND_REG}},

	OP_PUSH: {"push", []OperandKind{KIND_REG}},
	OP_POP:  {"pop", []OperandKind{KIND_REG}},
	OP_PEEK: {"peek", []OperandKind{KIND_REG}},

	OP_LOAD:          {"load", []OperandKind{KIND_REG, KIND_REG}},
	OP_STORE:         {"store", []OperandKind{KIND_REG, KIND_REG}},
	OP_LOAD_INDEXED:  {"loadx", []OperandKind{KIND_REG, KIND_REG, KIND_REG}},
	OP_STORE_INDEXED: {"storex", []OperandKind{KIND_REG, KIND_REG, KIND_REG}},

	OP_JUMP:          {"jump", []OperandKind{KIND_ADDR}},
	OP_JUMP_IF_ZERO:  {"jz", []OperandKind{KIND_ADDR}},
	OP_JUMP_IF_NZERO: {"jnz", []OperandKind{KIND_ADDR}},
	OP_JUMP_IF_GT:    {"jgt", []OperandKind{KIND_ADDR}},
	OP_JUMP_IF_LT:    {"jlt", []OperandKind{KIND_ADDR}},
	OP_JUMP_IF_GE:    {"jge", []OperandKind{KIND_ADDR}},
	OP_JUMP_IF_LE:    {"jle", []OperandKind{KIND_ADDR}},
	OP_JUMP_IF_EQ:    {"jeq", []OperandKind{KIND_ADDR}},
	OP_JUMP_IF_NE:    {"jne", []OperandKind{KIND_ADDR}},
	OP_COMPARE:       {"cmp", []OperandKind{KIND_REG, KIND_REG}},
	OP_JUMP_IF_ABOVE: {"ja", []OperandKind{KIND_ADDR}},
	OP_JUMP_IF_BELOW: {"jb", []OperandKind{KIND_ADDR}},
	OP_JUMP_IF_AE:    {"jae", []OperandKind{KIND_ADDR}},
	OP_JUMP_IF_BE:    {"jbe", []OperandKind{KIND_ADDR}},

	OP_CALL:   {"call", []OperandKind{KIND_ADDR}},
	OP_RETURN: {"return", nil},

	OP_SYSCALL: {"syscall", []OperandKind{KIND_IMM, KIND_REG}},
}

// Valid returns true if the opcode is part of the catalogue.
func (op Opcode) Valid() bool {
	_, ok := shapes[op]
	return ok
}

// Operands returns the encoded operand layout for the opcode.
func (op Opcode) Operands() []OperandKind {
	return shapes[op].operands
}

// Width returns the total encoded width of an instruction with this opcode,
// including the opcode byte itself.
func (op Opcode) Width() int {
	width := 1
	for _, kind := range shapes[op].operands {
		width += kind.Width()
	}
	return width
}

// String returns the mnemonic of the opcode.
func (op Opcode) String() string {
	sh, ok := shapes[op]
	if !ok {
		return fmt.Sprintf("op(%#02x)", uint8(op))
	}
	return sh.name
}
