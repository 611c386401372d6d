package isa

import (
	"fmt"
	"strings"
)

// Machine word parameters. All registers and memory words hold 24-bit
// values; arithmetic wraps into WORD_MASK.
const (
	WORD_BITS = 24
	WORD_MASK = uint32(1<<WORD_BITS) - 1
	SIGN_BIT  = uint32(1 << (WORD_BITS - 1))
)

// Instruction is one decoded machine instruction. Operand fields beyond
// the opcode's shape are zero and ignored by Encode.
type Instruction struct {
	Op   Opcode
	A    Register // first register operand
	B    Register // second register operand
	C    Register // third register operand
	Imm  uint32   // 24-bit immediate
	Addr uint16   // code address operand
}

// MakeHalt returns a halt instruction.
func MakeHalt() Instruction {
	return Instruction{Op: OP_HALT}
}

// MakeNop returns a nop instruction.
func MakeNop() Instruction {
	return Instruction{Op: OP_NOP}
}

// MakeLoadImm returns an instruction that loads imm into register a.
func MakeLoadImm(a Register, imm uint32) Instruction {
	return Instruction{Op: OP_LOAD_IMM, A: a, Imm: imm & WORD_MASK}
}

// MakeReg2 returns a two-register instruction (move, swap, cmp, ...).
func MakeReg2(op Opcode, a, b Register) Instruction {
	return Instruction{Op: op, A: a, B: b}
}

// MakeReg3 returns a three-register instruction (add, shl, loadx, ...).
func MakeReg3(op Opcode, a, b, c Register) Instruction {
	return Instruction{Op: op, A: a, B: b, C: c}
}

// MakeReg1 returns a single-register instruction (push, pop, peek).
func MakeReg1(op Opcode, a Register) Instruction {
	return Instruction{Op: op, A: a}
}

// MakeJump returns a jump-family or call instruction targeting addr.
func MakeJump(op Opcode, addr uint16) Instruction {
	return Instruction{Op: op, Addr: addr}
}

// MakeSyscall returns a syscall instruction with service id and argument
// register a.
func MakeSyscall(id uint32, a Register) Instruction {
	return Instruction{Op: OP_SYSCALL, Imm: id & WORD_MASK, A: a}
}

// Width returns the encoded width of the instruction in bytes.
func (ins Instruction) Width() int {
	return ins.Op.Width()
}

// String renders the instruction in assembly listing form.
func (ins Instruction) String() string {
	var sb strings.Builder
	sb.WriteString(ins.Op.String())
	regs := []Register{ins.A, ins.B, ins.C}
	reg := 0
	for i, kind := range ins.Op.Operands() {
		if i == 0 {
			sb.WriteByte(' ')
		} else {
			sb.WriteString(", ")
		}
		switch kind {
		case KIND_REG:
			sb.WriteString(regs[reg].String())
			reg++
		case KIND_IMM:
			fmt.Fprintf(&sb, "%d", ins.Imm)
		case KIND_ADDR:
			fmt.Fprintf(&sb, "%#04x", ins.Addr)
		}
	}
	return sb.String()
}
