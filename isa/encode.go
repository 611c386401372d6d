package isa

// Encode appends the instruction's binary form to buf and returns the
// extended slice. The layout is the opcode byte followed by the operands
// in shape order; immediates are 3 bytes little-endian, addresses 2 bytes
// little-endian.
func (ins Instruction) Encode(buf []byte) []byte {
	buf = append(buf, byte(ins.Op))
	regs := []Register{ins.A, ins.B, ins.C}
	reg := 0
	for _, kind := range ins.Op.Operands() {
		switch kind {
		case KIND_REG:
			buf = append(buf, byte(regs[reg]))
			reg++
		case KIND_IMM:
			imm := ins.Imm & WORD_MASK
			buf = append(buf, byte(imm), byte(imm>>8), byte(imm>>16))
		case KIND_ADDR:
			buf = append(buf, byte(ins.Addr), byte(ins.Addr>>8))
		}
	}
	return buf
}

// Decode reads one instruction from the start of buf. It returns the
// instruction and its encoded width. The possible errors are ErrBadOpcode,
// ErrBadRegister and ErrTruncated.
func Decode(buf []byte) (ins Instruction, width int, err error) {
	if len(buf) == 0 {
		return ins, 0, ErrTruncated
	}

	ins.Op = Opcode(buf[0])
	if !ins.Op.Valid() {
		return Instruction{}, 0, ErrBadOpcode(buf[0])
	}

	width = ins.Op.Width()
	if len(buf) < width {
		return Instruction{}, 0, ErrTruncated
	}

	regs := []*Register{&ins.A, &ins.B, &ins.C}
	reg := 0
	at := 1
	for _, kind := range ins.Op.Operands() {
		switch kind {
		case KIND_REG:
			r := Register(buf[at])
			if !r.Valid() {
				return Instruction{}, 0, ErrBadRegister(buf[at])
			}
			*regs[reg] = r
			reg++
		case KIND_IMM:
			ins.Imm = uint32(buf[at]) | uint32(buf[at+1])<<8 | uint32(buf[at+2])<<16
		case KIND_ADDR:
			ins.Addr = uint16(buf[at]) | uint16(buf[at+1])<<8
		}
		at += kind.Width()
	}

	return ins, width, nil
}
