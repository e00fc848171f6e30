package emu

import "github.com/sarchlab/rv32core/insts"

// ProgramCounter is the synchronous 32-bit PC register. It resets to 0.
type ProgramCounter struct {
	pc uint32
}

// PC returns the current program counter.
func (p *ProgramCounter) PC() uint32 {
	return p.pc
}

// Set forces the program counter, e.g. to an ELF entry point.
func (p *ProgramCounter) Set(pc uint32) {
	p.pc = pc
}

// Next computes pc_next: target when pcSource is set, PC+4 otherwise.
func (p *ProgramCounter) Next(pcSource bool, target uint32) uint32 {
	if pcSource {
		return target
	}
	return p.pc + 4
}

// Latch stores pc_next on the clock edge.
func (p *ProgramCounter) Latch(next uint32) {
	p.pc = next
}

// Reset returns the PC to 0.
func (p *ProgramCounter) Reset() {
	p.pc = 0
}

// SelectSecondAddBase picks the base operand of the second adder.
func SelectSecondAddBase(src insts.SecondAddSource, pc, rs1 uint32) uint32 {
	switch src {
	case insts.SecondAddZero:
		return 0
	case insts.SecondAddRs1:
		return rs1
	default:
		return pc
	}
}

// SecondAdder computes base + imm modulo 2^32. It produces branch and
// jump targets as well as AUIPC and LUI results.
func SecondAdder(base, imm uint32) uint32 {
	return base + imm
}
