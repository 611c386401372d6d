package isa

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeDecode(t *testing.T) {
	assert := assert.New(t)

	instructions := []Instruction{
		MakeHalt(),
		MakeNop(),
		MakeLoadImm(3, 0xABCDEF),
		MakeReg2(OP_MOVE, 1, 2),
		MakeReg2(OP_SWAP, 14, 15),
		MakeReg3(OP_ADD, 0, 1, 2),
		MakeReg3(OP_SHR, 7, 8, 9),
		MakeReg2(OP_NOT, 4, 5),
		MakeReg1(OP_PUSH, 6),
		MakeReg1(OP_POP, 6),
		MakeReg2(OP_LOAD, 10, 11),
		MakeReg3(OP_STORE_INDEXED, 1, 2, 3),
		MakeJump(OP_JUMP, 0x1234),
		MakeJump(OP_JUMP_IF_ABOVE, 0xFFFF),
		MakeJump(OP_CALL, 0x0007),
		MakeReg2(OP_COMPARE, 0, 15),
		Instruction{Op: OP_RETURN},
		MakeSyscall(3, 2),
	}

	for _, want := range instructions {
		buf := want.Encode(nil)
		assert.Equal(want.Width(), len(buf), want.String())

		got, width, err := Decode(buf)
		assert.NoError(err, want.String())
		assert.Equal(len(buf), width, want.String())
		assert.Equal(want, got, want.String())
	}
}

func TestDecodeTrailing(t *testing.T) {
	assert := assert.New(t)

	// Decode reads exactly one instruction and reports its width.
	buf := MakeLoadImm(0, 42).Encode(nil)
	buf = MakeHalt().Encode(buf)

	ins, width, err := Decode(buf)
	assert.NoError(err)
	assert.Equal(MakeLoadImm(0, 42), ins)

	ins, _, err = Decode(buf[width:])
	assert.NoError(err)
	assert.Equal(MakeHalt(), ins)
}

func TestDecodeErrors(t *testing.T) {
	assert := assert.New(t)

	_, _, err := Decode(nil)
	assert.ErrorIs(err, ErrTruncated)

	_, _, err = Decode([]byte{byte(OP_LOAD_IMM), 0, 1})
	assert.ErrorIs(err, ErrTruncated)

	_, _, err = Decode([]byte{0xFE})
	assert.Equal(ErrBadOpcode(0xFE), err)

	_, _, err = Decode([]byte{byte(OP_MOVE), 16, 0})
	assert.Equal(ErrBadRegister(16), err)
}

func TestImmediateMasked(t *testing.T) {
	assert := assert.New(t)

	ins := MakeLoadImm(0, 0xFF123456)
	assert.Equal(uint32(0x123456), ins.Imm)

	buf := ins.Encode(nil)
	got, _, err := Decode(buf)
	assert.NoError(err)
	assert.Equal(uint32(0x123456), got.Imm)
}

func TestString(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("halt", MakeHalt().String())
	assert.Equal("loadimm @r3, 99", MakeLoadImm(3, 99).String())
	assert.Equal("add @r0, @r1, @r2", MakeReg3(OP_ADD, 0, 1, 2).String())
	assert.Equal("jump 0x1234", MakeJump(OP_JUMP, 0x1234).String())
	assert.Equal("syscall 1, @r0", MakeSyscall(1, 0).String())
}
