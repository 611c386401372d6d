package vm

import "github.com/trivm/trivm/isa"

const (
	MEMORY_SIZE = 65536 // bytes of addressable memory
	WORD_SIZE   = 3     // bytes per machine word
)

// Memory is the unified byte-addressable store. Code lives at the bottom,
// the data segment follows it, and the stack grows down from the top.
type Memory [MEMORY_SIZE]byte

// ReadByte returns the byte at addr.
func (m *Memory) ReadByte(addr uint32) (value byte, err error) {
	if addr >= MEMORY_SIZE {
		return 0, ErrMemory{Addr: addr, Width: 1}
	}
	return m[addr], nil
}

// WriteByte stores value at addr.
func (m *Memory) WriteByte(addr uint32, value byte) error {
	if addr >= MEMORY_SIZE {
		return ErrMemory{Addr: addr, Width: 1}
	}
	m[addr] = value
	return nil
}

// ReadWord returns the little-endian machine word at addr.
func (m *Memory) ReadWord(addr uint32) (value uint32, err error) {
	if addr+WORD_SIZE > MEMORY_SIZE || addr+WORD_SIZE < addr {
		return 0, ErrMemory{Addr: addr, Width: WORD_SIZE}
	}
	value = uint32(m[addr]) | uint32(m[addr+1])<<8 | uint32(m[addr+2])<<16
	return value, nil
}

// WriteWord stores the low 24 bits of value at addr, little-endian.
func (m *Memory) WriteWord(addr, value uint32) error {
	if addr+WORD_SIZE > MEMORY_SIZE || addr+WORD_SIZE < addr {
		return ErrMemory{Addr: addr, Width: WORD_SIZE}
	}
	value &= isa.WORD_MASK
	m[addr] = byte(value)
	m[addr+1] = byte(value >> 8)
	m[addr+2] = byte(value >> 16)
	return nil
}

// ReadBytes returns n bytes starting at addr.
func (m *Memory) ReadBytes(addr, n uint32) (value []byte, err error) {
	if addr+n > MEMORY_SIZE || addr+n < addr {
		return nil, ErrMemory{Addr: addr, Width: int(n)}
	}
	return m[addr : addr+n], nil
}

// WriteBytes copies buf into memory starting at addr.
func (m *Memory) WriteBytes(addr uint32, buf []byte) error {
	n := uint32(len(buf))
	if addr+n > MEMORY_SIZE || addr+n < addr {
		return ErrMemory{Addr: addr, Width: len(buf)}
	}
	copy(m[addr:], buf)
	return nil
}

// Reset zeroes all of memory.
func (m *Memory) Reset() {
	*m = Memory{}
}
