package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemoryWords(t *testing.T) {
	assert := assert.New(t)

	var mem Memory
	assert.NoError(mem.WriteWord(0, 0xABCDEF))

	value, err := mem.ReadWord(0)
	assert.NoError(err)
	assert.Equal(uint32(0xABCDEF), value)

	// Little-endian byte order.
	assert.Equal(byte(0xEF), mem[0])
	assert.Equal(byte(0xCD), mem[1])
	assert.Equal(byte(0xAB), mem[2])

	// Words above 24 bits are masked on write.
	assert.NoError(mem.WriteWord(3, 0xFF000001))
	value, err = mem.ReadWord(3)
	assert.NoError(err)
	assert.Equal(uint32(1), value)
}

func TestMemoryBounds(t *testing.T) {
	assert := assert.New(t)

	var mem Memory

	_, err := mem.ReadWord(MEMORY_SIZE - 2)
	assert.Equal(ErrMemory{Addr: MEMORY_SIZE - 2, Width: WORD_SIZE}, err)

	assert.Error(mem.WriteWord(MEMORY_SIZE-1, 1))
	assert.Error(mem.WriteByte(MEMORY_SIZE, 1))

	_, err = mem.ReadBytes(MEMORY_SIZE-1, 2)
	assert.Error(err)

	// The last full word is addressable.
	assert.NoError(mem.WriteWord(MEMORY_SIZE-WORD_SIZE, 7))

	// Address arithmetic near the top of uint32 must not wrap past the
	// bounds check.
	_, err = mem.ReadWord(0xFFFFFFFE)
	assert.Error(err)
}

func TestFlagsString(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("----", Flags{}.String())
	assert.Equal("ZNCV", Flags{Z: true, N: true, C: true, V: true}.String())
	assert.Equal("Z--V", Flags{Z: true, V: true}.String())
}
