package asm

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trivm/trivm/image"
	"github.com/trivm/trivm/isa"
	"github.com/trivm/trivm/vm"
)

// execute assembles src and runs it, returning the machine and console
// output.
func execute(t *testing.T, src, input string) (*vm.Cpu, string) {
	t.Helper()

	img, err := Assemble(src)
	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	cpu := vm.New()
	cpu.StepLimit = 1000000
	cpu.Console.Input = strings.NewReader(input)
	cpu.Console.Output = &out
	if err := cpu.LoadImage(img); err != nil {
		t.Fatal(err)
	}
	if err := cpu.Run(); err != nil {
		t.Fatal(err)
	}
	return cpu, out.String()
}

func TestMultiply(t *testing.T) {
	assert := assert.New(t)

	_, out := execute(t, `
		@r0 := 6
		@r1 := 7
		@r2 := @r0 * @r1
		print @r2
		halt
	`, "")
	assert.Equal("42\n", out)
}

func TestForwardLabel(t *testing.T) {
	assert := assert.New(t)

	cpu, out := execute(t, `
		@x := 1
		goto done
		@x := 2
		done:
		print @x
		halt
	`, "")
	assert.Equal("1\n", out)
	assert.Equal(vm.STATE_HALTED, cpu.State)
}

func TestLoop(t *testing.T) {
	assert := assert.New(t)

	// Sum 1..10.
	_, out := execute(t, `
		@sum := 0
		@i := 1
		loop:
		if @i > 10 goto done
		@sum += @i
		@i += 1
		goto loop
		done:
		print @sum
		halt
	`, "")
	assert.Equal("55\n", out)
}

func TestSubroutine(t *testing.T) {
	assert := assert.New(t)

	_, out := execute(t, `
		main:
		@x := 20
		call double
		call double
		print @x
		halt

		double:
		@x := @x * 2
		return
	`, "")
	assert.Equal("80\n", out)
}

func TestEntryLabel(t *testing.T) {
	assert := assert.New(t)

	// Execution starts at main, skipping the subroutine before it.
	_, out := execute(t, `
		emit:
		print @x
		return

		main:
		@x := 5
		call emit
		halt
	`, "")
	assert.Equal("5\n", out)
}

func TestReadWrite(t *testing.T) {
	assert := assert.New(t)

	_, out := execute(t, `
		read @a
		read @b
		@c := @a + @b
		print @c
		halt
	`, "40\n2\n")
	assert.Equal("42\n", out)
}

func TestStrings(t *testing.T) {
	assert := assert.New(t)

	_, out := execute(t, `
		print "hello, "
		@s := "world\n"
		syscall 3, @s
		halt
	`, "")
	assert.Equal("hello, world\n", out)
}

func TestExitStatus(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := execute(t, `
		@code := 3
		exit @code
	`, "")
	assert.Equal(vm.STATE_HALTED, cpu.State)
	assert.Equal(uint32(3), cpu.HaltCode)
}

func TestMemoryRoundTrip(t *testing.T) {
	assert := assert.New(t)

	_, out := execute(t, `
		.equ BUFFER 0x4000
		@p := BUFFER
		@v := 41
		[@p] := @v
		@w := [@p]
		@w += 1
		print @w
		halt
	`, "")
	assert.Equal("42\n", out)
}

func TestIndexedMemory(t *testing.T) {
	assert := assert.New(t)

	_, out := execute(t, `
		@p := 0x4000
		@i := 0
		fill:
		if @i >= 5 goto sum
		[@p + @i] := @i
		@i += 1
		goto fill

		sum:
		@total := 0
		@i := 0
		next:
		if @i >= 5 goto done
		@v := [@p + @i]
		@total += @v
		@i += 1
		goto next

		done:
		print @total
		halt
	`, "")
	assert.Equal("10\n", out)
}

func TestStackStatements(t *testing.T) {
	assert := assert.New(t)

	_, out := execute(t, `
		@a := 1
		@b := 2
		push @a
		push @b
		pop @a
		pop @b
		print @a
		print @b
		halt
	`, "")
	assert.Equal("2\n1\n", out)
}

func TestSwapAndNot(t *testing.T) {
	assert := assert.New(t)

	_, out := execute(t, `
		@a := 0
		@b := 1
		swap @a, @b
		print @a
		@c := ~@a
		@c := @c & 0xFF
		print @c
		halt
	`, "")
	assert.Equal("1\n254\n", out)
}

func TestExplicitRegisters(t *testing.T) {
	assert := assert.New(t)

	// Named variables must not collide with registers claimed by name.
	img, err := Assemble(`
		@r0 := 1
		@x := 2
		@r1 := 3
		halt
	`)
	assert.NoError(err)

	ins, width, err := isa.Decode(img.Code)
	assert.NoError(err)
	assert.Equal(isa.MakeLoadImm(0, 1), ins)

	ins, w2, err := isa.Decode(img.Code[width:])
	assert.NoError(err)
	assert.NotEqual(isa.Register(0), ins.A)
	assert.NotEqual(isa.Register(1), ins.A)

	ins, _, err = isa.Decode(img.Code[width+w2:])
	assert.NoError(err)
	assert.Equal(isa.MakeLoadImm(1, 3), ins)
}

func TestLabelAtEnd(t *testing.T) {
	assert := assert.New(t)

	// A trailing label resolves to the end of the code segment; jumping
	// there runs off the code, which is reported as a fault, but the
	// assembler itself accepts it.
	img, err := Assemble(`
		goto end
		end:
	`)
	assert.NoError(err)

	ins, _, err := isa.Decode(img.Code)
	assert.NoError(err)
	assert.Equal(uint16(len(img.Code)), ins.Addr)
}

func TestOutOfRegisters(t *testing.T) {
	assert := assert.New(t)

	var sb strings.Builder
	for i := 0; i < 20; i++ {
		sb.WriteString("@v")
		sb.WriteByte(byte('a' + i))
		sb.WriteString(" := 1\n")
	}

	_, err := Assemble(sb.String())
	assert.ErrorIs(err, ErrOutOfRegisters)
	var semErr SemanticError
	assert.ErrorAs(err, &semErr)
}

func TestUndefinedLabel(t *testing.T) {
	assert := assert.New(t)

	_, err := Assemble("goto nowhere")
	assert.ErrorIs(err, ErrUndefinedLabel("nowhere"))
}

func TestDuplicateLabel(t *testing.T) {
	assert := assert.New(t)

	_, err := Assemble("a:\na:\n")
	assert.ErrorIs(err, ErrDuplicateLabel("a"))
}

func TestDivideByZeroFault(t *testing.T) {
	assert := assert.New(t)

	img, err := Assemble(`
		@x := 1
		@y := 0
		@z := @x / @y
		halt
	`)
	assert.NoError(err)

	cpu := vm.New()
	assert.NoError(cpu.LoadImage(img))
	assert.ErrorIs(cpu.Run(), vm.ErrDivideByZero)
	assert.Equal(vm.STATE_FAULTED, cpu.State)
}

func TestImageRoundTrip(t *testing.T) {
	assert := assert.New(t)

	img, err := Assemble(`
		@r0 := 6
		@r1 := 7
		@r2 := @r0 * @r1
		print @r2
		halt
	`)
	assert.NoError(err)

	var buf bytes.Buffer
	assert.NoError(img.Encode(&buf))
	loaded, err := image.Decode(&buf)
	assert.NoError(err)
	assert.Equal(img, loaded)

	var out bytes.Buffer
	cpu := vm.New()
	cpu.Console.Output = &out
	assert.NoError(cpu.LoadImage(loaded))
	assert.NoError(cpu.Run())
	assert.Equal("42\n", out.String())
}

func TestStoreAtLoadForms(t *testing.T) {
	assert := assert.New(t)

	_, out := execute(t, `
		.equ BUFFER 0x4000
		@p := BUFFER
		@v := 41
		store @v at @p
		@w := load @p
		@w += 1
		print @w
		halt
	`, "")
	assert.Equal("42\n", out)
}

func TestIndexedNameForms(t *testing.T) {
	assert := assert.New(t)

	_, out := execute(t, `
		@buf := 0x4000
		@i := 0
		fill:
		if @i >= 4 goto sum
		@buf[@i] := @i
		@i += 1
		goto fill

		sum:
		@total := 0
		@i := 0
		next:
		if @i >= 4 goto done
		@v := @buf[@i]
		@total += @v
		@i += 1
		goto next

		done:
		print @total
		halt
	`, "")
	assert.Equal("6\n", out)
}

func TestPopPeekExpressionForms(t *testing.T) {
	assert := assert.New(t)

	_, out := execute(t, `
		@a := 7
		push @a
		@b := peek
		@c := pop
		@d := @b + @c
		print @d
		halt
	`, "")
	assert.Equal("14\n", out)
}

func TestSwapOperatorForm(t *testing.T) {
	assert := assert.New(t)

	_, out := execute(t, `
		@a := 1
		@b := 2
		@a <=> @b
		print @a
		print @b
		halt
	`, "")
	assert.Equal("2\n1\n", out)
}

func TestUnsignedBranch(t *testing.T) {
	assert := assert.New(t)

	// -1 is the largest unsigned word, so the unsigned compare must not
	// take the branch the signed one takes.
	_, out := execute(t, `
		@a := -1
		@b := 1
		if @a < @b goto signed
		print "?"
		halt
		signed:
		if @a < @b unsigned goto wrapped
		print "max\n"
		halt
		wrapped:
		print "less\n"
		halt
	`, "")
	assert.Equal("max\n", out)
}

func TestHeapProgram(t *testing.T) {
	assert := assert.New(t)

	_, out := execute(t, `
		@p := alloc 6
		@v := 7
		store @v at @p
		@q := @p + 3
		@w := 9
		store @w at @q
		@a := load @p
		@b := load @q
		@c := @a + @b
		print @c
		free @p
		halt
	`, "")
	assert.Equal("16\n", out)
}

func TestDebugStatement(t *testing.T) {
	assert := assert.New(t)

	_, out := execute(t, `
		@r3 := 42
		debug @r3
		halt
	`, "")
	assert.Equal("@r3 = 0x00002a (42) flags=----\n", out)
}

func TestAssembleIdempotent(t *testing.T) {
	assert := assert.New(t)

	src := `
		start:
		@i := 0
		loop:
		@i += 1
		if @i < 3 goto loop
		call start2
		halt
		start2:
		return
	`
	a, err := Assemble(src)
	assert.NoError(err)
	b, err := Assemble(src)
	assert.NoError(err)
	assert.Equal(a, b)
}
