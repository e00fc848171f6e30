// Package insts provides RV32I instruction definitions, decoding and the
// control unit that turns instruction fields into datapath control signals.
//
// This package implements decoding of RV32I machine code into structured
// instruction representations. It supports:
//   - Loads and stores: LB, LH, LW, LBU, LHU, SB, SH, SW
//   - Register/immediate ALU operations: ADD(I), SUB, SLL(I), SLT(I), SLTU/SLTIU,
//     XOR(I), SRL(I), SRA(I), OR(I), AND(I)
//   - Control transfer: BEQ, BNE, BLT, BGE, BLTU, BGEU, JAL, JALR
//   - Upper immediates: LUI, AUIPC
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst := decoder.Decode(0x00802903) // lw x18, 8(x0)
//	ctrl := insts.NewControlUnit().Decode(inst.Opcode, inst.Funct3, inst.Funct7)
//	fmt.Printf("%v reg_write=%v imm=%d\n", inst, ctrl.RegWrite, int32(inst.Imm(ctrl.ImmSource)))
package insts
