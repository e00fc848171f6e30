package insts

// Raw format encoders. Register numbers are masked to 5 bits and
// immediates are truncated to the width of their field.

// EncodeR encodes an R-type instruction.
func EncodeR(opcode Opcode, rd, funct3, rs1, rs2, funct7 uint8) uint32 {
	return uint32(funct7&0x7F)<<25 | uint32(rs2&0x1F)<<20 | uint32(rs1&0x1F)<<15 |
		uint32(funct3&0x7)<<12 | uint32(rd&0x1F)<<7 | uint32(opcode&0x7F)
}

// EncodeI encodes an I-type instruction with a 12-bit immediate.
func EncodeI(opcode Opcode, rd, funct3, rs1 uint8, imm int32) uint32 {
	return (uint32(imm)&0xFFF)<<20 | uint32(rs1&0x1F)<<15 |
		uint32(funct3&0x7)<<12 | uint32(rd&0x1F)<<7 | uint32(opcode&0x7F)
}

// EncodeS encodes an S-type (store) instruction.
func EncodeS(funct3, rs1, rs2 uint8, imm int32) uint32 {
	u := uint32(imm)
	return ((u>>5)&0x7F)<<25 | uint32(rs2&0x1F)<<20 | uint32(rs1&0x1F)<<15 |
		uint32(funct3&0x7)<<12 | (u&0x1F)<<7 | uint32(OpcodeStore)
}

// EncodeB encodes a B-type (branch) instruction. The offset is in bytes.
func EncodeB(funct3, rs1, rs2 uint8, offset int32) uint32 {
	u := uint32(offset)
	return ((u>>12)&0x1)<<31 | ((u>>5)&0x3F)<<25 | uint32(rs2&0x1F)<<20 |
		uint32(rs1&0x1F)<<15 | uint32(funct3&0x7)<<12 |
		((u>>1)&0xF)<<8 | ((u>>11)&0x1)<<7 | uint32(OpcodeBranch)
}

// EncodeU encodes a U-type instruction. imm20 is the upper 20 bits.
func EncodeU(opcode Opcode, rd uint8, imm20 uint32) uint32 {
	return (imm20&0xFFFFF)<<12 | uint32(rd&0x1F)<<7 | uint32(opcode&0x7F)
}

// EncodeJ encodes a JAL instruction. The offset is in bytes.
func EncodeJ(rd uint8, offset int32) uint32 {
	u := uint32(offset)
	return ((u>>20)&0x1)<<31 | ((u>>1)&0x3FF)<<21 | ((u>>11)&0x1)<<20 |
		((u>>12)&0xFF)<<12 | uint32(rd&0x1F)<<7 | uint32(OpcodeJAL)
}

// Convenience encoders for common instructions.

// EncodeADD encodes add rd, rs1, rs2.
func EncodeADD(rd, rs1, rs2 uint8) uint32 { return EncodeR(OpcodeRType, rd, 0b000, rs1, rs2, 0) }

// EncodeSUB encodes sub rd, rs1, rs2.
func EncodeSUB(rd, rs1, rs2 uint8) uint32 {
	return EncodeR(OpcodeRType, rd, 0b000, rs1, rs2, funct7Alt)
}

// EncodeADDI encodes addi rd, rs1, imm.
func EncodeADDI(rd, rs1 uint8, imm int32) uint32 { return EncodeI(OpcodeIALU, rd, 0b000, rs1, imm) }

// EncodeSLLI encodes slli rd, rs1, shamt with the given funct7.
// A funct7 other than 0000000 makes the instruction illegal.
func EncodeSLLI(rd, rs1, shamt, funct7 uint8) uint32 {
	return EncodeR(OpcodeIALU, rd, 0b001, rs1, shamt, funct7)
}

// EncodeSRLI encodes srli (funct7 0000000) or srai (funct7 0100000).
func EncodeSRLI(rd, rs1, shamt, funct7 uint8) uint32 {
	return EncodeR(OpcodeIALU, rd, 0b101, rs1, shamt, funct7)
}

// EncodeLW encodes lw rd, imm(rs1).
func EncodeLW(rd, rs1 uint8, imm int32) uint32 { return EncodeI(OpcodeLoad, rd, 0b010, rs1, imm) }

// EncodeLoad encodes a load with the given funct3 (width/sign).
func EncodeLoad(funct3, rd, rs1 uint8, imm int32) uint32 {
	return EncodeI(OpcodeLoad, rd, funct3, rs1, imm)
}

// EncodeSW encodes sw rs2, imm(rs1).
func EncodeSW(rs2, rs1 uint8, imm int32) uint32 { return EncodeS(0b010, rs1, rs2, imm) }

// EncodeBEQ encodes beq rs1, rs2, offset.
func EncodeBEQ(rs1, rs2 uint8, offset int32) uint32 { return EncodeB(0b000, rs1, rs2, offset) }

// EncodeBNE encodes bne rs1, rs2, offset.
func EncodeBNE(rs1, rs2 uint8, offset int32) uint32 { return EncodeB(0b001, rs1, rs2, offset) }

// EncodeJAL encodes jal rd, offset.
func EncodeJAL(rd uint8, offset int32) uint32 { return EncodeJ(rd, offset) }

// EncodeJALR encodes jalr rd, imm(rs1).
func EncodeJALR(rd, rs1 uint8, imm int32) uint32 { return EncodeI(OpcodeJALR, rd, 0b000, rs1, imm) }

// EncodeLUI encodes lui rd, imm20.
func EncodeLUI(rd uint8, imm20 uint32) uint32 { return EncodeU(OpcodeLUI, rd, imm20) }

// EncodeAUIPC encodes auipc rd, imm20.
func EncodeAUIPC(rd uint8, imm20 uint32) uint32 { return EncodeU(OpcodeAUIPC, rd, imm20) }

// NOP is addi x0, x0, 0.
const NOP uint32 = 0x00000013

// Halt is jal x0, 0: a jump to itself, used to park the core.
const Halt uint32 = 0x0000006F
