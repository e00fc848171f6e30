package insts

import "fmt"

// Opcode is the 7-bit major opcode in bits [6:0] of an instruction.
type Opcode uint8

// RV32I opcode classes.
const (
	OpcodeLoad   Opcode = 0b0000011
	OpcodeStore  Opcode = 0b0100011
	OpcodeRType  Opcode = 0b0110011
	OpcodeIALU   Opcode = 0b0010011
	OpcodeBranch Opcode = 0b1100011
	OpcodeJAL    Opcode = 0b1101111
	OpcodeJALR   Opcode = 0b1100111
	OpcodeAUIPC  Opcode = 0b0010111
	OpcodeLUI    Opcode = 0b0110111
)

// ImmSource selects which immediate encoding is extracted from the word.
type ImmSource uint8

// Immediate formats, numbered as the imm_source control field.
const (
	ImmI ImmSource = 0b000
	ImmS ImmSource = 0b001
	ImmB ImmSource = 0b010
	ImmJ ImmSource = 0b011
	ImmU ImmSource = 0b100
)

// Instruction represents a decoded RV32I instruction.
// It is immutable once fetched.
type Instruction struct {
	Word   uint32 // Raw instruction word
	Opcode Opcode // bits [6:0]
	Rd     uint8  // bits [11:7]
	Funct3 uint8  // bits [14:12]
	Rs1    uint8  // bits [19:15]
	Rs2    uint8  // bits [24:20]
	Funct7 uint8  // bits [31:25]
}

// Decoder decodes RV32I machine code into instructions.
type Decoder struct{}

// NewDecoder creates a new RV32I instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode splits a 32-bit instruction word into its fields.
// Every word decodes; whether it means anything is up to the control unit.
func (d *Decoder) Decode(word uint32) *Instruction {
	return &Instruction{
		Word:   word,
		Opcode: Opcode(word & 0x7F),
		Rd:     uint8((word >> 7) & 0x1F),
		Funct3: uint8((word >> 12) & 0x7),
		Rs1:    uint8((word >> 15) & 0x1F),
		Rs2:    uint8((word >> 20) & 0x1F),
		Funct7: uint8((word >> 25) & 0x7F),
	}
}

// Imm returns the sign-extended immediate for the given format.
// Unknown formats yield 0.
func (i *Instruction) Imm(src ImmSource) uint32 {
	w := i.Word
	switch src {
	case ImmI:
		return uint32(int32(w) >> 20)
	case ImmS:
		return uint32(int32(w)>>25)<<5 | (w>>7)&0x1F
	case ImmB:
		return uint32(int32(w)>>31)<<12 |
			((w>>7)&0x1)<<11 |
			((w>>25)&0x3F)<<5 |
			((w>>8)&0xF)<<1
	case ImmJ:
		return uint32(int32(w)>>31)<<20 |
			((w>>12)&0xFF)<<12 |
			((w>>20)&0x1)<<11 |
			((w>>21)&0x3FF)<<1
	case ImmU:
		return w & 0xFFFFF000
	default:
		return 0
	}
}

// Mnemonic returns the assembly mnemonic of the instruction, or "unknown".
// Shift and R-type operations with an illegal funct7 are reported with a
// trailing "?" since the core executes them without effect.
func (i *Instruction) Mnemonic() string {
	switch i.Opcode {
	case OpcodeLoad:
		return lookup(loadMnemonics, i.Funct3)
	case OpcodeStore:
		return lookup(storeMnemonics, i.Funct3)
	case OpcodeBranch:
		return lookup(branchMnemonics, i.Funct3)
	case OpcodeIALU:
		name := lookup(immMnemonics, i.Funct3)
		if i.Funct3 == 0b101 && i.Funct7 == funct7Alt {
			name = "srai"
		}
		if !LegalFunct7(i.Opcode, i.Funct3, i.Funct7) {
			name += "?"
		}
		return name
	case OpcodeRType:
		name := lookup(regMnemonics, i.Funct3)
		if i.Funct7 == funct7Alt {
			switch i.Funct3 {
			case 0b000:
				name = "sub"
			case 0b101:
				name = "sra"
			}
		}
		if !LegalFunct7(i.Opcode, i.Funct3, i.Funct7) {
			name += "?"
		}
		return name
	case OpcodeJAL:
		return "jal"
	case OpcodeJALR:
		return "jalr"
	case OpcodeAUIPC:
		return "auipc"
	case OpcodeLUI:
		return "lui"
	default:
		return "unknown"
	}
}

// String returns a disassembly of the instruction.
func (i *Instruction) String() string {
	m := i.Mnemonic()
	switch i.Opcode {
	case OpcodeLoad:
		return fmt.Sprintf("%s x%d, %d(x%d)", m, i.Rd, int32(i.Imm(ImmI)), i.Rs1)
	case OpcodeStore:
		return fmt.Sprintf("%s x%d, %d(x%d)", m, i.Rs2, int32(i.Imm(ImmS)), i.Rs1)
	case OpcodeBranch:
		return fmt.Sprintf("%s x%d, x%d, %d", m, i.Rs1, i.Rs2, int32(i.Imm(ImmB)))
	case OpcodeIALU:
		if i.Funct3 == 0b001 || i.Funct3 == 0b101 {
			return fmt.Sprintf("%s x%d, x%d, %d", m, i.Rd, i.Rs1, i.Rs2)
		}
		return fmt.Sprintf("%s x%d, x%d, %d", m, i.Rd, i.Rs1, int32(i.Imm(ImmI)))
	case OpcodeRType:
		return fmt.Sprintf("%s x%d, x%d, x%d", m, i.Rd, i.Rs1, i.Rs2)
	case OpcodeJAL:
		return fmt.Sprintf("%s x%d, %d", m, i.Rd, int32(i.Imm(ImmJ)))
	case OpcodeJALR:
		return fmt.Sprintf("%s x%d, %d(x%d)", m, i.Rd, int32(i.Imm(ImmI)), i.Rs1)
	case OpcodeAUIPC, OpcodeLUI:
		return fmt.Sprintf("%s x%d, 0x%x", m, i.Rd, i.Imm(ImmU)>>12)
	default:
		return fmt.Sprintf("unknown 0x%08x", i.Word)
	}
}

var (
	loadMnemonics   = map[uint8]string{0: "lb", 1: "lh", 2: "lw", 4: "lbu", 5: "lhu"}
	storeMnemonics  = map[uint8]string{0: "sb", 1: "sh", 2: "sw"}
	branchMnemonics = map[uint8]string{0: "beq", 1: "bne", 4: "blt", 5: "bge", 6: "bltu", 7: "bgeu"}
	immMnemonics    = map[uint8]string{
		0: "addi", 1: "slli", 2: "slti", 3: "sltiu", 4: "xori", 5: "srli", 6: "ori", 7: "andi",
	}
	regMnemonics = map[uint8]string{
		0: "add", 1: "sll", 2: "slt", 3: "sltu", 4: "xor", 5: "srl", 6: "or", 7: "and",
	}
)

func lookup(table map[uint8]string, funct3 uint8) string {
	if name, ok := table[funct3]; ok {
		return name
	}
	return "unknown"
}
