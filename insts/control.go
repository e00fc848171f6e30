package insts

// ALUControl is the 4-bit internal code selecting the ALU function.
// It is decoupled from the ISA encoding.
type ALUControl uint8

// ALU control codes.
const (
	ALUAdd  ALUControl = 0b0000
	ALUSub  ALUControl = 0b0001
	ALUAnd  ALUControl = 0b0010
	ALUOr   ALUControl = 0b0011
	ALUSll  ALUControl = 0b0100
	ALUSlt  ALUControl = 0b0101
	ALUSrl  ALUControl = 0b0110
	ALUSltu ALUControl = 0b0111
	ALUXor  ALUControl = 0b1000
	ALUSra  ALUControl = 0b1001

	// ALUNone has no mapping; the ALU produces 0 for it.
	ALUNone ALUControl = 0b1111
)

// WriteBackSource selects the value written to the destination register.
type WriteBackSource uint8

// Write-back sources.
const (
	WriteBackALU       WriteBackSource = 0b00 // ALU result
	WriteBackMemory    WriteBackSource = 0b01 // memory read
	WriteBackLink      WriteBackSource = 0b10 // PC + 4
	WriteBackSecondAdd WriteBackSource = 0b11 // second adder (AUIPC/LUI)
)

// SecondAddSource selects the base operand of the second adder, which
// computes branch/jump targets and AUIPC/LUI results.
type SecondAddSource uint8

// Second adder bases.
const (
	SecondAddPC   SecondAddSource = 0b00
	SecondAddZero SecondAddSource = 0b01
	SecondAddRs1  SecondAddSource = 0b10
)

const (
	funct7Base uint8 = 0b0000000
	funct7Alt  uint8 = 0b0100000
)

// ControlWord holds the control signals derived from one instruction.
// It is never mutated after decode.
type ControlWord struct {
	ALUControl      ALUControl
	ImmSource       ImmSource
	MemWrite        bool
	RegWrite        bool
	ALUSource       bool // true: second ALU operand is the immediate
	WriteBackSource WriteBackSource
	Branch          bool
	Jump            bool
	SecondAddSource SecondAddSource
}

// ControlUnit decodes opcode/funct3/funct7 into a ControlWord.
type ControlUnit struct{}

// NewControlUnit creates a new control unit.
func NewControlUnit() *ControlUnit {
	return &ControlUnit{}
}

// Decode returns the control word for the given instruction fields.
// Opcodes outside RV32I yield an all-disabled control word.
func (c *ControlUnit) Decode(opcode Opcode, funct3, funct7 uint8) ControlWord {
	funct3 &= 0x7
	funct7 &= 0x7F

	switch opcode {
	case OpcodeLoad:
		return ControlWord{
			ALUControl:      ALUAdd,
			ImmSource:       ImmI,
			RegWrite:        true,
			ALUSource:       true,
			WriteBackSource: WriteBackMemory,
		}

	case OpcodeStore:
		return ControlWord{
			ALUControl: ALUAdd,
			ImmSource:  ImmS,
			MemWrite:   true,
			ALUSource:  true,
		}

	case OpcodeRType:
		return ControlWord{
			ALUControl:      aluControlFor(opcode, funct3, funct7),
			RegWrite:        LegalFunct7(opcode, funct3, funct7),
			WriteBackSource: WriteBackALU,
		}

	case OpcodeIALU:
		return ControlWord{
			ALUControl:      aluControlFor(opcode, funct3, funct7),
			ImmSource:       ImmI,
			RegWrite:        LegalFunct7(opcode, funct3, funct7),
			ALUSource:       true,
			WriteBackSource: WriteBackALU,
		}

	case OpcodeBranch:
		return ControlWord{
			ALUControl: branchALUControl(funct3),
			ImmSource:  ImmB,
			Branch:     true,
		}

	case OpcodeJAL:
		return ControlWord{
			ALUControl:      ALUAdd,
			ImmSource:       ImmJ,
			RegWrite:        true,
			WriteBackSource: WriteBackLink,
			Jump:            true,
			SecondAddSource: SecondAddPC,
		}

	case OpcodeJALR:
		return ControlWord{
			ALUControl:      ALUAdd,
			ImmSource:       ImmI,
			RegWrite:        true,
			ALUSource:       true,
			WriteBackSource: WriteBackLink,
			Jump:            true,
			SecondAddSource: SecondAddRs1,
		}

	case OpcodeAUIPC:
		return ControlWord{
			ALUControl:      ALUAdd,
			ImmSource:       ImmU,
			RegWrite:        true,
			WriteBackSource: WriteBackSecondAdd,
			SecondAddSource: SecondAddPC,
		}

	case OpcodeLUI:
		return ControlWord{
			ALUControl:      ALUAdd,
			ImmSource:       ImmU,
			RegWrite:        true,
			WriteBackSource: WriteBackSecondAdd,
			SecondAddSource: SecondAddZero,
		}

	default:
		return ControlWord{ALUControl: ALUNone}
	}
}

// LegalFunct7 reports whether funct7 is a legal encoding for the
// operation. Only shift immediates and R-type operations constrain funct7:
// SLLI and the non-ADD/SUB, non-SRL/SRA R-type ops need 0000000, while
// SRLI/SRAI, ADD/SUB and SRL/SRA accept 0000000 or 0100000.
func LegalFunct7(opcode Opcode, funct3, funct7 uint8) bool {
	switch opcode {
	case OpcodeIALU:
		switch funct3 {
		case 0b001:
			return funct7 == funct7Base
		case 0b101:
			return funct7 == funct7Base || funct7 == funct7Alt
		default:
			return true
		}
	case OpcodeRType:
		if funct7 == funct7Base {
			return true
		}
		return funct7 == funct7Alt && (funct3 == 0b000 || funct3 == 0b101)
	default:
		return true
	}
}

// aluControlFor maps R-type and I-ALU funct3/funct7 to an ALU code.
// SUB only exists for R-type; ADDI ignores funct7 since those bits are
// part of its immediate.
func aluControlFor(opcode Opcode, funct3, funct7 uint8) ALUControl {
	alt := funct7&0b0100000 != 0

	switch funct3 {
	case 0b000:
		if opcode == OpcodeRType && alt {
			return ALUSub
		}
		return ALUAdd
	case 0b001:
		return ALUSll
	case 0b010:
		return ALUSlt
	case 0b011:
		return ALUSltu
	case 0b100:
		return ALUXor
	case 0b101:
		if alt {
			return ALUSra
		}
		return ALUSrl
	case 0b110:
		return ALUOr
	default:
		return ALUAnd
	}
}

func branchALUControl(funct3 uint8) ALUControl {
	switch funct3 {
	case 0b000, 0b001:
		return ALUSub
	case 0b100, 0b101:
		return ALUSlt
	case 0b110, 0b111:
		return ALUSltu
	default:
		return ALUNone
	}
}

// BranchConditionMet evaluates a branch condition from the ALU flags.
// BEQ/BNE test the zero flag of a subtraction; the others test the last
// bit of a set-less-than. Reserved funct3 values never branch.
func BranchConditionMet(funct3 uint8, zero, lastBit bool) bool {
	switch funct3 & 0x7 {
	case 0b000: // BEQ
		return zero
	case 0b001: // BNE
		return !zero
	case 0b100, 0b110: // BLT, BLTU
		return lastBit
	case 0b101, 0b111: // BGE, BGEU
		return !lastBit
	default:
		return false
	}
}

// PCSource returns jump | (branch & condition_met).
func (c ControlWord) PCSource(funct3 uint8, zero, lastBit bool) bool {
	return c.Jump || (c.Branch && BranchConditionMet(funct3, zero, lastBit))
}

// IsLoad reports whether the instruction reads data memory.
func (c ControlWord) IsLoad() bool {
	return c.WriteBackSource == WriteBackMemory && c.RegWrite && !c.MemWrite
}
