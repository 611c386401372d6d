package vm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/trivm/trivm/isa"
)

// System call service identifiers, re-exported from the instruction set.
const (
	SYS_PRINT_INT = isa.SYS_PRINT_INT
	SYS_READ_INT  = isa.SYS_READ_INT
	SYS_PRINT_STR = isa.SYS_PRINT_STR
	SYS_HALT      = isa.SYS_HALT
	SYS_ALLOC     = isa.SYS_ALLOC
	SYS_FREE      = isa.SYS_FREE
	SYS_DEBUG     = isa.SYS_DEBUG
)

// Console is the machine's I/O surface. A zero Console reads nothing and
// discards output.
type Console struct {
	Input  io.Reader
	Output io.Writer

	scanner *bufio.Scanner
}

// ReadInt reads one line from the input and parses it as a decimal
// integer. Values are truncated into the 24-bit word.
func (c *Console) ReadInt() (value uint32, err error) {
	if c.Input == nil {
		return 0, io.EOF
	}
	if c.scanner == nil {
		c.scanner = bufio.NewScanner(c.Input)
	}
	if !c.scanner.Scan() {
		if err = c.scanner.Err(); err != nil {
			return 0, err
		}
		return 0, io.EOF
	}

	text := strings.TrimSpace(c.scanner.Text())
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, errors.New(f("not a number: %q", text))
	}
	return uint32(n) & isa.WORD_MASK, nil
}

// PrintInt writes the signed decimal form of a machine word followed by
// a newline.
func (c *Console) PrintInt(value uint32) error {
	if c.Output == nil {
		return nil
	}
	_, err := fmt.Fprintln(c.Output, SignExtend(value))
	return err
}

// Print writes raw bytes to the output.
func (c *Console) Print(buf []byte) error {
	if c.Output == nil {
		return nil
	}
	_, err := c.Output.Write(buf)
	return err
}

// SignExtend interprets a machine word as a signed 24-bit integer.
func SignExtend(value uint32) int32 {
	value &= isa.WORD_MASK
	if value&isa.SIGN_BIT != 0 {
		return int32(value | ^isa.WORD_MASK)
	}
	return int32(value)
}

// syscall dispatches one system call. The service id comes from the
// instruction's immediate operand and reg is the argument register.
func (cpu *Cpu) syscall(id uint32, reg isa.Register) error {
	switch id {
	case SYS_PRINT_INT:
		return cpu.Console.PrintInt(cpu.Reg[reg])

	case SYS_READ_INT:
		value, err := cpu.Console.ReadInt()
		if err != nil {
			return err
		}
		cpu.Reg[reg] = value
		return nil

	case SYS_PRINT_STR:
		// The register holds a data-segment offset to a string with a
		// two-byte little-endian length prefix.
		addr := cpu.dataBase + cpu.Reg[reg]
		lo, err := cpu.Mem.ReadByte(addr)
		if err != nil {
			return err
		}
		hi, err := cpu.Mem.ReadByte(addr + 1)
		if err != nil {
			return err
		}
		length := uint32(lo) | uint32(hi)<<8
		buf, err := cpu.Mem.ReadBytes(addr+2, length)
		if err != nil {
			return err
		}
		return cpu.Console.Print(buf)

	case SYS_HALT:
		cpu.State = STATE_HALTED
		cpu.HaltCode = cpu.Reg[reg]
		return nil

	case SYS_ALLOC:
		addr, err := cpu.Heap.Alloc(cpu.Reg[reg], cpu.SP)
		if err != nil {
			return err
		}
		cpu.Reg[reg] = addr
		return nil

	case SYS_FREE:
		return cpu.Heap.Free(cpu.Reg[reg])

	case SYS_DEBUG:
		line := fmt.Sprintf("%v = %#06x (%d) flags=%v\n",
			reg, cpu.Reg[reg], SignExtend(cpu.Reg[reg]), cpu.Flags)
		return cpu.Console.Print([]byte(line))
	}

	return fmt.Errorf("%w: %d", ErrUnknownSyscall, id)
}
