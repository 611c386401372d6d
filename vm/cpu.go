package vm

import (
	"log"

	"github.com/trivm/trivm/image"
	"github.com/trivm/trivm/isa"
)

const (
	// MAX_STACK_DEPTH is the default call depth limit.
	MAX_STACK_DEPTH = 1024
)

// State is the machine's execution state.
type State int

const (
	STATE_RUNNING = State(iota)
	STATE_HALTED
	STATE_FAULTED
)

var stateNames = map[State]string{
	STATE_RUNNING: "running",
	STATE_HALTED:  "halted",
	STATE_FAULTED: "faulted",
}

// String returns the state name.
func (s State) String() string {
	return stateNames[s]
}

// Cpu is one machine instance. Load an image with LoadImage, then drive
// it with Run or Step.
type Cpu struct {
	Verbose bool

	Mem     Memory
	Reg     [isa.REG_COUNT]uint32
	Flags   Flags
	PC      uint16
	SP      uint32
	Depth   int
	State   State
	Console Console
	Heap    Heap

	// HaltCode is the program's exit status once State is STATE_HALTED.
	HaltCode uint32

	// MaxDepth limits call nesting. Zero means MAX_STACK_DEPTH.
	MaxDepth int

	// StepLimit aborts runaway programs. Zero means no limit.
	StepLimit uint64
	Steps     uint64

	// LastFault holds the fault that stopped the machine, if any.
	LastFault *Fault

	codeLen  uint32
	dataBase uint32
	dataLen  uint32
}

// New returns a machine with no image loaded.
func New() *Cpu {
	return &Cpu{State: STATE_HALTED}
}

// LoadImage copies the image into memory and resets the machine: code at
// the bottom, data straight after it, stack pointer at the top, and the
// program counter at the image's entry address.
func (cpu *Cpu) LoadImage(img *image.Image) error {
	cpu.codeLen = uint32(len(img.Code))
	cpu.dataBase = cpu.codeLen
	cpu.dataLen = uint32(len(img.Data))

	if cpu.codeLen+cpu.dataLen > MEMORY_SIZE-cpu.depthLimit()*WORD_SIZE {
		return ErrImageTooLarge
	}

	cpu.Mem.Reset()
	if err := cpu.Mem.WriteBytes(0, img.Code); err != nil {
		return err
	}
	if err := cpu.Mem.WriteBytes(cpu.dataBase, img.Data); err != nil {
		return err
	}

	cpu.Reg = [isa.REG_COUNT]uint32{}
	cpu.Flags.Reset()
	cpu.Heap.Reset(cpu.segEnd())
	cpu.PC = img.Entry
	cpu.SP = MEMORY_SIZE
	cpu.Depth = 0
	cpu.State = STATE_RUNNING
	cpu.HaltCode = 0
	cpu.Steps = 0
	cpu.LastFault = nil
	return nil
}

func (cpu *Cpu) depthLimit() uint32 {
	if cpu.MaxDepth > 0 {
		return uint32(cpu.MaxDepth)
	}
	return MAX_STACK_DEPTH
}

// segEnd returns the first byte above the data segment; the stack must
// not descend past it.
func (cpu *Cpu) segEnd() uint32 {
	return cpu.codeLen + cpu.dataLen
}

// fault stops the machine and records the error against the address of
// the faulting instruction.
func (cpu *Cpu) fault(pc uint16, err error) error {
	cpu.State = STATE_FAULTED
	cpu.LastFault = &Fault{PC: pc, Err: err}
	return *cpu.LastFault
}

// Run steps the machine until it halts or faults. It returns nil on a
// clean halt; the program's exit status is left in HaltCode.
func (cpu *Cpu) Run() error {
	for cpu.State == STATE_RUNNING {
		if err := cpu.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Step fetches, decodes and executes one instruction.
func (cpu *Cpu) Step() error {
	if cpu.State != STATE_RUNNING {
		return ErrNotRunning
	}

	pc := cpu.PC
	if cpu.StepLimit > 0 && cpu.Steps >= cpu.StepLimit {
		return cpu.fault(pc, ErrStepLimit)
	}
	cpu.Steps++

	if uint32(pc) >= cpu.codeLen {
		return cpu.fault(pc, ErrMemory{Addr: uint32(pc), Width: 1})
	}

	ins, width, err := isa.Decode(cpu.Mem[pc:cpu.codeLen])
	if err != nil {
		return cpu.fault(pc, ErrDecode{PC: pc, Err: err})
	}

	if cpu.Verbose {
		log.Printf("%#04x: %v", pc, ins)
	}

	cpu.PC = pc + uint16(width)
	if err := cpu.execute(ins); err != nil {
		return cpu.fault(pc, err)
	}
	return nil
}

func (cpu *Cpu) execute(ins isa.Instruction) error {
	switch ins.Op {
	case isa.OP_HALT:
		cpu.State = STATE_HALTED
		cpu.HaltCode = 0

	case isa.OP_NOP:

	case isa.OP_LOAD_IMM:
		cpu.Reg[ins.A] = ins.Imm & isa.WORD_MASK

	case isa.OP_MOVE:
		cpu.Reg[ins.A] = cpu.Reg[ins.B]

	case isa.OP_SWAP:
		cpu.Reg[ins.A], cpu.Reg[ins.B] = cpu.Reg[ins.B], cpu.Reg[ins.A]

	case isa.OP_ADD:
		cpu.Reg[ins.A] = cpu.add(cpu.Reg[ins.B], cpu.Reg[ins.C])
	case isa.OP_SUB:
		cpu.Reg[ins.A] = cpu.sub(cpu.Reg[ins.B], cpu.Reg[ins.C])
	case isa.OP_MUL:
		cpu.Reg[ins.A] = cpu.mul(cpu.Reg[ins.B], cpu.Reg[ins.C])
	case isa.OP_DIV:
		value, err := cpu.div(cpu.Reg[ins.B], cpu.Reg[ins.C])
		if err != nil {
			return err
		}
		cpu.Reg[ins.A] = value
	case isa.OP_MOD:
		value, err := cpu.mod(cpu.Reg[ins.B], cpu.Reg[ins.C])
		if err != nil {
			return err
		}
		cpu.Reg[ins.A] = value

	case isa.OP_ADD_ASSIGN:
		cpu.Reg[ins.A] = cpu.add(cpu.Reg[ins.A], cpu.Reg[ins.B])
	case isa.OP_SUB_ASSIGN:
		cpu.Reg[ins.A] = cpu.sub(cpu.Reg[ins.A], cpu.Reg[ins.B])
	case isa.OP_MUL_ASSIGN:
		cpu.Reg[ins.A] = cpu.mul(cpu.Reg[ins.A], cpu.Reg[ins.B])
	case isa.OP_DIV_ASSIGN:
		value, err := cpu.div(cpu.Reg[ins.A], cpu.Reg[ins.B])
		if err != nil {
			return err
		}
		cpu.Reg[ins.A] = value

	case isa.OP_AND:
		cpu.Reg[ins.A] = cpu.logic(cpu.Reg[ins.B] & cpu.Reg[ins.C])
	case isa.OP_OR:
		cpu.Reg[ins.A] = cpu.logic(cpu.Reg[ins.B] | cpu.Reg[ins.C])
	case isa.OP_XOR:
		cpu.Reg[ins.A] = cpu.logic(cpu.Reg[ins.B] ^ cpu.Reg[ins.C])
	case isa.OP_NOT:
		cpu.Reg[ins.A] = cpu.logic(^cpu.Reg[ins.B])
	case isa.OP_SHL:
		cpu.Reg[ins.A] = cpu.logic(shift(cpu.Reg[ins.B], cpu.Reg[ins.C], true))
	case isa.OP_SHR:
		cpu.Reg[ins.A] = cpu.logic(shift(cpu.Reg[ins.B], cpu.Reg[ins.C], false))

	case isa.OP_PUSH:
		return cpu.push(cpu.Reg[ins.A])
	case isa.OP_POP:
		value, err := cpu.pop()
		if err != nil {
			return err
		}
		cpu.Reg[ins.A] = value
	case isa.OP_PEEK:
		value, err := cpu.peek()
		if err != nil {
			return err
		}
		cpu.Reg[ins.A] = value

	case isa.OP_LOAD:
		value, err := cpu.Mem.ReadWord(cpu.Reg[ins.B])
		if err != nil {
			return err
		}
		cpu.Reg[ins.A] = value
	case isa.OP_STORE:
		return cpu.Mem.WriteWord(cpu.Reg[ins.A], cpu.Reg[ins.B])
	case isa.OP_LOAD_INDEXED:
		value, err := cpu.Mem.ReadWord(indexed(cpu.Reg[ins.B], cpu.Reg[ins.C]))
		if err != nil {
			return err
		}
		cpu.Reg[ins.A] = value
	case isa.OP_STORE_INDEXED:
		return cpu.Mem.WriteWord(indexed(cpu.Reg[ins.A], cpu.Reg[ins.B]), cpu.Reg[ins.C])

	case isa.OP_JUMP:
		cpu.PC = ins.Addr
	case isa.OP_JUMP_IF_ZERO:
		cpu.branch(ins.Addr, cpu.Flags.Z)
	case isa.OP_JUMP_IF_NZERO:
		cpu.branch(ins.Addr, !cpu.Flags.Z)
	case isa.OP_JUMP_IF_EQ:
		cpu.branch(ins.Addr, cpu.Flags.Z)
	case isa.OP_JUMP_IF_NE:
		cpu.branch(ins.Addr, !cpu.Flags.Z)
	case isa.OP_JUMP_IF_LT:
		cpu.branch(ins.Addr, cpu.Flags.N != cpu.Flags.V)
	case isa.OP_JUMP_IF_GE:
		cpu.branch(ins.Addr, cpu.Flags.N == cpu.Flags.V)
	case isa.OP_JUMP_IF_GT:
		cpu.branch(ins.Addr, !cpu.Flags.Z && cpu.Flags.N == cpu.Flags.V)
	case isa.OP_JUMP_IF_LE:
		cpu.branch(ins.Addr, cpu.Flags.Z || cpu.Flags.N != cpu.Flags.V)
	case isa.OP_JUMP_IF_BELOW:
		cpu.branch(ins.Addr, cpu.Flags.C)
	case isa.OP_JUMP_IF_AE:
		cpu.branch(ins.Addr, !cpu.Flags.C)
	case isa.OP_JUMP_IF_ABOVE:
		cpu.branch(ins.Addr, !cpu.Flags.C && !cpu.Flags.Z)
	case isa.OP_JUMP_IF_BE:
		cpu.branch(ins.Addr, cpu.Flags.C || cpu.Flags.Z)

	case isa.OP_COMPARE:
		cpu.sub(cpu.Reg[ins.A], cpu.Reg[ins.B])

	case isa.OP_CALL:
		if cpu.Depth >= int(cpu.depthLimit()) {
			return ErrRecursionLimit
		}
		if err := cpu.push(uint32(cpu.PC)); err != nil {
			return err
		}
		cpu.Depth++
		cpu.PC = ins.Addr

	case isa.OP_RETURN:
		// A return with no call in flight must not consume data words
		// from the stack.
		if cpu.Depth == 0 {
			return ErrStackUnderflow
		}
		value, err := cpu.pop()
		if err != nil {
			return err
		}
		cpu.PC = uint16(value)
		cpu.Depth--

	case isa.OP_SYSCALL:
		return cpu.syscall(ins.Imm, ins.A)
	}

	return nil
}

func (cpu *Cpu) branch(addr uint16, taken bool) {
	if taken {
		cpu.PC = addr
	}
}

// setArith records all four flags for an arithmetic result.
func (cpu *Cpu) setArith(result uint32, carry, overflow bool) uint32 {
	result &= isa.WORD_MASK
	cpu.Flags.Z = result == 0
	cpu.Flags.N = result&isa.SIGN_BIT != 0
	cpu.Flags.C = carry
	cpu.Flags.V = overflow
	return result
}

// logic records Z and N for a bitwise result and clears C and V.
func (cpu *Cpu) logic(result uint32) uint32 {
	return cpu.setArith(result, false, false)
}

func (cpu *Cpu) add(a, b uint32) uint32 {
	sum := a + b
	carry := sum > isa.WORD_MASK
	overflow := (^(a ^ b) & (a ^ sum) & isa.SIGN_BIT) != 0
	return cpu.setArith(sum, carry, overflow)
}

func (cpu *Cpu) sub(a, b uint32) uint32 {
	diff := a - b
	borrow := a < b
	overflow := ((a ^ b) & (a ^ diff) & isa.SIGN_BIT) != 0
	return cpu.setArith(diff, borrow, overflow)
}

func (cpu *Cpu) mul(a, b uint32) uint32 {
	product := uint64(a) * uint64(b)
	wide := product > uint64(isa.WORD_MASK)
	return cpu.setArith(uint32(product), wide, wide)
}

func (cpu *Cpu) div(a, b uint32) (value uint32, err error) {
	if b == 0 {
		return 0, ErrDivideByZero
	}
	return cpu.setArith(a/b, false, false), nil
}

func (cpu *Cpu) mod(a, b uint32) (value uint32, err error) {
	if b == 0 {
		return 0, ErrDivideByZero
	}
	return cpu.setArith(a%b, false, false), nil
}

// shift moves by the low five bits of the count; shifting a 24-bit word
// by 24 or more always yields zero.
func shift(a, count uint32, left bool) uint32 {
	count &= 0x1F
	if count >= isa.WORD_BITS {
		return 0
	}
	if left {
		return a << count
	}
	return (a & isa.WORD_MASK) >> count
}

// indexed computes a word-indexed effective address.
func indexed(base, index uint32) uint32 {
	return base + index*WORD_SIZE
}

func (cpu *Cpu) push(value uint32) error {
	if cpu.SP < cpu.Heap.End()+WORD_SIZE {
		return ErrStackOverflow
	}
	cpu.SP -= WORD_SIZE
	return cpu.Mem.WriteWord(cpu.SP, value)
}

func (cpu *Cpu) pop() (value uint32, err error) {
	if cpu.SP >= MEMORY_SIZE {
		return 0, ErrStackUnderflow
	}
	value, err = cpu.Mem.ReadWord(cpu.SP)
	if err != nil {
		return 0, err
	}
	cpu.SP += WORD_SIZE
	return value, nil
}

func (cpu *Cpu) peek() (value uint32, err error) {
	if cpu.SP >= MEMORY_SIZE {
		return 0, ErrStackUnderflow
	}
	return cpu.Mem.ReadWord(cpu.SP)
}
