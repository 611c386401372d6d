package asm

import (
	"errors"
	"strconv"
	"strings"

	"github.com/trivm/trivm/image"
	"github.com/trivm/trivm/isa"
	"github.com/trivm/trivm/vm"
)

// slot is one lowered instruction awaiting its final code offset. A
// non-empty label marks an address operand to patch once all label
// offsets are known.
type slot struct {
	ins   isa.Instruction
	label string
	off   uint16
	line  int
}

// Generator lowers statements to machine code in two passes: the first
// assigns registers, lowers every statement and records label offsets,
// the second resolves jump targets and emits the binary image.
type Generator struct {
	slots  []slot
	labels map[string]int // label name -> slot index
	data   []byte

	vars  map[string]isa.Register
	used  [isa.REG_COUNT]bool
	temps []isa.Register
}

// NewGenerator returns an empty code generator.
func NewGenerator() *Generator {
	return &Generator{
		labels: map[string]int{},
		vars:   map[string]isa.Register{},
	}
}

// Assemble compiles source text into an executable image.
func Assemble(src string) (*image.Image, error) {
	stmts, err := Parse(src)
	if err != nil {
		return nil, err
	}
	return NewGenerator().Generate(stmts)
}

// Generate lowers the statement list into an image. Execution starts at
// the label "main" when the program defines one, otherwise at the first
// instruction.
func (g *Generator) Generate(stmts []Stmt) (*image.Image, error) {
	if err := g.bindNamedRegisters(stmts); err != nil {
		return nil, err
	}

	for _, stmt := range stmts {
		if err := g.lower(stmt); err != nil {
			return nil, err
		}
	}

	// Assign code offsets now that every slot has a fixed width.
	off := 0
	for i := range g.slots {
		g.slots[i].off = uint16(off)
		off += g.slots[i].ins.Width()
	}

	if off+len(g.data) > vm.MEMORY_SIZE-vm.MAX_STACK_DEPTH*vm.WORD_SIZE {
		return nil, SemanticError{Err: ErrProgramTooLarge}
	}

	img := &image.Image{Data: g.data}
	for _, s := range g.slots {
		if s.label != "" {
			target, ok := g.labels[s.label]
			if !ok {
				return nil, SemanticError{Line: s.line, Err: ErrUndefinedLabel(s.label)}
			}
			s.ins.Addr = g.offsetOf(target)
		}
		img.Code = s.ins.Encode(img.Code)
	}

	if main, ok := g.labels["main"]; ok {
		img.Entry = g.offsetOf(main)
	}
	return img, nil
}

// offsetOf returns the code offset of a slot index; an index one past
// the last slot means the end of the code segment.
func (g *Generator) offsetOf(index int) uint16 {
	if index >= len(g.slots) {
		var end uint16
		for _, s := range g.slots {
			end = s.off + uint16(s.ins.Width())
		}
		return end
	}
	return g.slots[index].off
}

// namedRegister recognizes the r0..r15 names that bind directly to a
// register instead of going through allocation.
func namedRegister(name string) (reg isa.Register, ok bool) {
	if len(name) < 2 || name[0] != 'r' {
		return 0, false
	}
	n, err := strconv.Atoi(name[1:])
	if err != nil || n < 0 || n >= isa.REG_COUNT || strings.HasPrefix(name[1:], "0") && n != 0 {
		return 0, false
	}
	return isa.Register(n), true
}

// bindNamedRegisters walks the program once so explicit register names
// claim their registers before any variable is allocated.
func (g *Generator) bindNamedRegisters(stmts []Stmt) error {
	for _, stmt := range stmts {
		for _, name := range varNames(stmt) {
			if reg, ok := namedRegister(name); ok {
				g.vars[name] = reg
				g.used[reg] = true
			}
		}
	}
	return nil
}

// varNames lists every variable a statement touches.
func varNames(stmt Stmt) []string {
	add := func(names []string, ops ...Operand) []string {
		for _, op := range ops {
			if !op.Immediate {
				names = append(names, op.Name)
			}
		}
		return names
	}

	switch s := stmt.(type) {
	case LoadImm:
		return []string{s.Dst}
	case LoadString:
		return []string{s.Dst}
	case Move:
		return []string{s.Dst, s.Src}
	case Swap:
		return []string{s.A, s.B}
	case BinOp:
		return add([]string{s.Dst}, s.Left, s.Right)
	case UnaryNot:
		return add([]string{s.Dst}, s.Src)
	case Compound:
		return add([]string{s.Dst}, s.Src)
	case Push:
		return []string{s.Src}
	case Pop:
		return []string{s.Dst}
	case Peek:
		return []string{s.Dst}
	case Load:
		names := []string{s.Dst, s.Ptr}
		if s.Index != "" {
			names = append(names, s.Index)
		}
		return names
	case Store:
		names := []string{s.Ptr, s.Src}
		if s.Index != "" {
			names = append(names, s.Index)
		}
		return names
	case If:
		return add(nil, s.Left, s.Right)
	case Print:
		if !s.Str {
			return []string{s.Src}
		}
	case Read:
		return []string{s.Dst}
	case Exit:
		return []string{s.Src}
	case Alloc:
		return add([]string{s.Dst}, s.Size)
	case Free:
		return []string{s.Src}
	case Debug:
		return []string{s.Src}
	case Syscall:
		return []string{s.Arg}
	}
	return nil
}

// register returns the register bound to a variable, allocating the
// lowest free register on first use.
func (g *Generator) register(lineNo int, name string) (reg isa.Register, err error) {
	if reg, ok := g.vars[name]; ok {
		return reg, nil
	}
	for n := 0; n < isa.REG_COUNT; n++ {
		if !g.used[n] {
			g.used[n] = true
			g.vars[name] = isa.Register(n)
			return isa.Register(n), nil
		}
	}
	return 0, SemanticError{Line: lineNo, Err: ErrOutOfRegisters}
}

// temp returns the n'th scratch register, allocated from the top of the
// register file. Scratches hold immediate operands for the two-register
// and three-register instruction forms.
func (g *Generator) temp(lineNo, n int) (reg isa.Register, err error) {
	for len(g.temps) <= n {
		found := false
		for r := isa.REG_COUNT - 1; r >= 0; r-- {
			if !g.used[r] {
				g.used[r] = true
				g.temps = append(g.temps, isa.Register(r))
				found = true
				break
			}
		}
		if !found {
			return 0, SemanticError{Line: lineNo, Err: ErrOutOfRegisters}
		}
	}
	return g.temps[n], nil
}

func (g *Generator) emit(lineNo int, ins isa.Instruction) {
	g.slots = append(g.slots, slot{ins: ins, line: lineNo})
}

func (g *Generator) emitJump(lineNo int, ins isa.Instruction, label string) {
	g.slots = append(g.slots, slot{ins: ins, label: label, line: lineNo})
}

// operandReg materializes an operand into a register. Immediates are
// loaded into scratch register n first.
func (g *Generator) operandReg(lineNo int, op Operand, n int) (reg isa.Register, err error) {
	if !op.Immediate {
		return g.register(lineNo, op.Name)
	}
	reg, err = g.temp(lineNo, n)
	if err != nil {
		return 0, err
	}
	g.emit(lineNo, isa.MakeLoadImm(reg, op.Imm))
	return reg, nil
}

// addString appends a length-prefixed string to the data segment and
// returns its offset.
func (g *Generator) addString(text string) uint32 {
	off := uint32(len(g.data))
	g.data = append(g.data, byte(len(text)), byte(len(text)>>8))
	g.data = append(g.data, text...)
	return off
}

var binOpcodes = map[TokenType]isa.Opcode{
	TOKEN_PLUS:    isa.OP_ADD,
	TOKEN_MINUS:   isa.OP_SUB,
	TOKEN_STAR:    isa.OP_MUL,
	TOKEN_SLASH:   isa.OP_DIV,
	TOKEN_PERCENT: isa.OP_MOD,
	TOKEN_AMP:     isa.OP_AND,
	TOKEN_PIPE:    isa.OP_OR,
	TOKEN_CARET:   isa.OP_XOR,
	TOKEN_SHL:     isa.OP_SHL,
	TOKEN_SHR:     isa.OP_SHR,
}

var compoundOpcodes = map[TokenType]isa.Opcode{
	TOKEN_PLUS_ASSIGN:  isa.OP_ADD_ASSIGN,
	TOKEN_MINUS_ASSIGN: isa.OP_SUB_ASSIGN,
	TOKEN_STAR_ASSIGN:  isa.OP_MUL_ASSIGN,
	TOKEN_SLASH_ASSIGN: isa.OP_DIV_ASSIGN,
}

var compareOpcodes = map[TokenType]isa.Opcode{
	TOKEN_EQ:   isa.OP_JUMP_IF_EQ,
	TOKEN_NE:   isa.OP_JUMP_IF_NE,
	TOKEN_LT:   isa.OP_JUMP_IF_LT,
	TOKEN_GT:   isa.OP_JUMP_IF_GT,
	TOKEN_LE:   isa.OP_JUMP_IF_LE,
	TOKEN_GE:   isa.OP_JUMP_IF_GE,
	TOKEN_LT_U: isa.OP_JUMP_IF_BELOW,
	TOKEN_GT_U: isa.OP_JUMP_IF_ABOVE,
	TOKEN_LE_U: isa.OP_JUMP_IF_BE,
	TOKEN_GE_U: isa.OP_JUMP_IF_AE,
}

func (g *Generator) lower(stmt Stmt) error {
	lineNo := stmt.stmtLine()

	switch s := stmt.(type) {
	case Label:
		if _, dup := g.labels[s.Name]; dup {
			return SemanticError{Line: lineNo, Err: ErrDuplicateLabel(s.Name)}
		}
		g.labels[s.Name] = len(g.slots)

	case LoadImm:
		dst, err := g.register(lineNo, s.Dst)
		if err != nil {
			return err
		}
		g.emit(lineNo, isa.MakeLoadImm(dst, s.Imm))

	case LoadString:
		dst, err := g.register(lineNo, s.Dst)
		if err != nil {
			return err
		}
		g.emit(lineNo, isa.MakeLoadImm(dst, g.addString(s.Text)))

	case Move:
		dst, err := g.register(lineNo, s.Dst)
		if err != nil {
			return err
		}
		src, err := g.register(lineNo, s.Src)
		if err != nil {
			return err
		}
		g.emit(lineNo, isa.MakeReg2(isa.OP_MOVE, dst, src))

	case Swap:
		a, err := g.register(lineNo, s.A)
		if err != nil {
			return err
		}
		b, err := g.register(lineNo, s.B)
		if err != nil {
			return err
		}
		g.emit(lineNo, isa.MakeReg2(isa.OP_SWAP, a, b))

	case BinOp:
		dst, err := g.register(lineNo, s.Dst)
		if err != nil {
			return err
		}
		left, err := g.operandReg(lineNo, s.Left, 0)
		if err != nil {
			return err
		}
		right, err := g.operandReg(lineNo, s.Right, 1)
		if err != nil {
			return err
		}
		g.emit(lineNo, isa.MakeReg3(binOpcodes[s.Op], dst, left, right))

	case UnaryNot:
		dst, err := g.register(lineNo, s.Dst)
		if err != nil {
			return err
		}
		src, err := g.operandReg(lineNo, s.Src, 0)
		if err != nil {
			return err
		}
		g.emit(lineNo, isa.MakeReg2(isa.OP_NOT, dst, src))

	case Compound:
		dst, err := g.register(lineNo, s.Dst)
		if err != nil {
			return err
		}
		src, err := g.operandReg(lineNo, s.Src, 0)
		if err != nil {
			return err
		}
		g.emit(lineNo, isa.MakeReg2(compoundOpcodes[s.Op], dst, src))

	case Push:
		src, err := g.register(lineNo, s.Src)
		if err != nil {
			return err
		}
		g.emit(lineNo, isa.MakeReg1(isa.OP_PUSH, src))

	case Pop:
		dst, err := g.register(lineNo, s.Dst)
		if err != nil {
			return err
		}
		g.emit(lineNo, isa.MakeReg1(isa.OP_POP, dst))

	case Peek:
		dst, err := g.register(lineNo, s.Dst)
		if err != nil {
			return err
		}
		g.emit(lineNo, isa.MakeReg1(isa.OP_PEEK, dst))

	case Load:
		dst, err := g.register(lineNo, s.Dst)
		if err != nil {
			return err
		}
		ptr, err := g.register(lineNo, s.Ptr)
		if err != nil {
			return err
		}
		if s.Index == "" {
			g.emit(lineNo, isa.MakeReg2(isa.OP_LOAD, dst, ptr))
			break
		}
		index, err := g.register(lineNo, s.Index)
		if err != nil {
			return err
		}
		g.emit(lineNo, isa.MakeReg3(isa.OP_LOAD_INDEXED, dst, ptr, index))

	case Store:
		ptr, err := g.register(lineNo, s.Ptr)
		if err != nil {
			return err
		}
		src, err := g.register(lineNo, s.Src)
		if err != nil {
			return err
		}
		if s.Index == "" {
			g.emit(lineNo, isa.MakeReg2(isa.OP_STORE, ptr, src))
			break
		}
		index, err := g.register(lineNo, s.Index)
		if err != nil {
			return err
		}
		g.emit(lineNo, isa.MakeReg3(isa.OP_STORE_INDEXED, ptr, index, src))

	case Goto:
		g.emitJump(lineNo, isa.MakeJump(isa.OP_JUMP, 0), s.Target)

	case If:
		left, err := g.operandReg(lineNo, s.Left, 0)
		if err != nil {
			return err
		}
		right, err := g.operandReg(lineNo, s.Right, 1)
		if err != nil {
			return err
		}
		g.emit(lineNo, isa.MakeReg2(isa.OP_COMPARE, left, right))
		g.emitJump(lineNo, isa.MakeJump(compareOpcodes[s.Cmp], 0), s.Target)

	case Call:
		g.emitJump(lineNo, isa.MakeJump(isa.OP_CALL, 0), s.Target)

	case Return:
		g.emit(lineNo, isa.Instruction{Op: isa.OP_RETURN})

	case Print:
		if s.Str {
			reg, err := g.temp(lineNo, 0)
			if err != nil {
				return err
			}
			g.emit(lineNo, isa.MakeLoadImm(reg, g.addString(s.Text)))
			g.emit(lineNo, isa.MakeSyscall(isa.SYS_PRINT_STR, reg))
			break
		}
		src, err := g.register(lineNo, s.Src)
		if err != nil {
			return err
		}
		g.emit(lineNo, isa.MakeSyscall(isa.SYS_PRINT_INT, src))

	case Read:
		dst, err := g.register(lineNo, s.Dst)
		if err != nil {
			return err
		}
		g.emit(lineNo, isa.MakeSyscall(isa.SYS_READ_INT, dst))

	case Exit:
		src, err := g.register(lineNo, s.Src)
		if err != nil {
			return err
		}
		g.emit(lineNo, isa.MakeSyscall(isa.SYS_HALT, src))

	case Alloc:
		// The allocation syscall takes the size in its argument register
		// and leaves the block address there.
		dst, err := g.register(lineNo, s.Dst)
		if err != nil {
			return err
		}
		if s.Size.Immediate {
			g.emit(lineNo, isa.MakeLoadImm(dst, s.Size.Imm))
		} else if size, err := g.register(lineNo, s.Size.Name); err != nil {
			return err
		} else if size != dst {
			g.emit(lineNo, isa.MakeReg2(isa.OP_MOVE, dst, size))
		}
		g.emit(lineNo, isa.MakeSyscall(isa.SYS_ALLOC, dst))

	case Free:
		src, err := g.register(lineNo, s.Src)
		if err != nil {
			return err
		}
		g.emit(lineNo, isa.MakeSyscall(isa.SYS_FREE, src))

	case Debug:
		src, err := g.register(lineNo, s.Src)
		if err != nil {
			return err
		}
		g.emit(lineNo, isa.MakeSyscall(isa.SYS_DEBUG, src))

	case Syscall:
		arg, err := g.register(lineNo, s.Arg)
		if err != nil {
			return err
		}
		g.emit(lineNo, isa.MakeSyscall(s.ID, arg))

	case Halt:
		g.emit(lineNo, isa.MakeHalt())

	case Nop:
		g.emit(lineNo, isa.MakeNop())

	default:
		return SemanticError{Line: lineNo, Err: errors.New(f("cannot lower statement"))}
	}

	return nil
}
