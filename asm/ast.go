package asm

// Operand is either a named register variable or an immediate value.
type Operand struct {
	Name      string // variable name when not immediate
	Imm       uint32
	Immediate bool
}

// Stmt is one parsed source statement.
type Stmt interface {
	stmtLine() int
}

type line struct {
	Line int
}

func (l line) stmtLine() int { return l.Line }

// Label defines a jump target.
type Label struct {
	line
	Name string
}

// LoadImm assigns an immediate to a variable.
type LoadImm struct {
	line
	Dst string
	Imm uint32
}

// LoadString places a string in the data segment and assigns its offset
// to a variable.
type LoadString struct {
	line
	Dst  string
	Text string
}

// Move copies one variable into another.
type Move struct {
	line
	Dst string
	Src string
}

// Swap exchanges two variables.
type Swap struct {
	line
	A string
	B string
}

// BinOp assigns the result of a two-operand expression.
type BinOp struct {
	line
	Dst   string
	Op    TokenType // TOKEN_PLUS .. TOKEN_SHR
	Left  Operand
	Right Operand
}

// UnaryNot assigns the bitwise complement of an operand.
type UnaryNot struct {
	line
	Dst string
	Src Operand
}

// Compound is an in-place update such as += or /=.
type Compound struct {
	line
	Dst string
	Op  TokenType // TOKEN_PLUS_ASSIGN .. TOKEN_SLASH_ASSIGN
	Src Operand
}

// Push pushes a variable onto the stack.
type Push struct {
	line
	Src string
}

// Pop pops the stack into a variable.
type Pop struct {
	line
	Dst string
}

// Peek copies the top of stack into a variable without popping.
type Peek struct {
	line
	Dst string
}

// Load reads memory through a pointer variable, optionally indexed:
// dst := [ptr] or dst := [ptr + index].
type Load struct {
	line
	Dst   string
	Ptr   string
	Index string // empty when not indexed
}

// Store writes a variable through a pointer, optionally indexed:
// [ptr] := src or [ptr + index] := src.
type Store struct {
	line
	Ptr   string
	Index string // empty when not indexed
	Src   string
}

// Goto is an unconditional jump.
type Goto struct {
	line
	Target string
}

// If compares two operands and jumps when the condition holds.
type If struct {
	line
	Left   Operand
	Cmp    TokenType // TOKEN_EQ .. TOKEN_GE_U
	Right  Operand
	Target string
}

// Call invokes a labeled subroutine.
type Call struct {
	line
	Target string
}

// Return returns from a subroutine.
type Return struct {
	line
}

// Print writes a variable as a decimal number, or a string literal.
type Print struct {
	line
	Src  string
	Text string // used when Src is empty
	Str  bool   // Text is valid
}

// Read reads a decimal number from the console into a variable.
type Read struct {
	line
	Dst string
}

// Exit halts the machine with a variable as the exit status.
type Exit struct {
	line
	Src string
}

// Alloc reserves a heap block of Size bytes and assigns its address:
// dst := alloc <size>.
type Alloc struct {
	line
	Dst  string
	Size Operand
}

// Free releases a heap block through a pointer variable.
type Free struct {
	line
	Src string
}

// Debug prints a variable and the flags in diagnostic form.
type Debug struct {
	line
	Src string
}

// Syscall invokes a raw system call with a service id and an argument
// variable.
type Syscall struct {
	line
	ID  uint32
	Arg string
}

// Halt stops the machine with exit status zero.
type Halt struct {
	line
}

// Nop does nothing.
type Nop struct {
	line
}
