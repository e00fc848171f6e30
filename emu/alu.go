// Package emu provides the functional units of the RV32I core: ALU,
// load/store lane logic, register file, memory and the memory-mapped bus.
package emu

import "github.com/sarchlab/rv32core/insts"

// ALUResult is the output of one ALU evaluation.
type ALUResult struct {
	Result  uint32
	Zero    bool // Result == 0
	LastBit bool // Result & 1
}

// ALU implements the RV32I arithmetic and logic operations. It is purely
// combinational and holds no state.
type ALU struct{}

// NewALU creates a new ALU.
func NewALU() *ALU {
	return &ALU{}
}

// Execute evaluates the operation selected by ctrl on src1 and src2.
// Codes without a mapping produce 0.
func (a *ALU) Execute(ctrl insts.ALUControl, src1, src2 uint32) ALUResult {
	var result uint32

	switch ctrl {
	case insts.ALUAdd:
		result = src1 + src2
	case insts.ALUSub:
		result = src1 - src2
	case insts.ALUAnd:
		result = src1 & src2
	case insts.ALUOr:
		result = src1 | src2
	case insts.ALUSll:
		result = src1 << (src2 & 0x1F)
	case insts.ALUSlt:
		result = boolToWord(int32(src1) < int32(src2))
	case insts.ALUSrl:
		result = src1 >> (src2 & 0x1F)
	case insts.ALUSltu:
		result = boolToWord(src1 < src2)
	case insts.ALUXor:
		result = src1 ^ src2
	case insts.ALUSra:
		result = uint32(int32(src1) >> (src2 & 0x1F))
	default:
		result = 0
	}

	return ALUResult{
		Result:  result,
		Zero:    result == 0,
		LastBit: result&1 == 1,
	}
}

func boolToWord(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
