package emu

import (
	"errors"
	"fmt"

	"github.com/sarchlab/rv32core/insts"
)

// ErrInstructionLimit is returned by Run when the instruction limit is hit
// before the program halts.
var ErrInstructionLimit = errors.New("max instructions reached")

// StepResult represents the result of executing a single instruction.
type StepResult struct {
	// Halted is true if the instruction jumped to itself.
	Halted bool

	// Err is set if an error occurred during execution.
	Err error
}

// Emulator executes RV32I instructions functionally, one instruction per
// step, with register writes visible immediately. It has no pipeline and
// serves as the reference for the timing model.
type Emulator struct {
	regFile *RegFile
	pc      ProgramCounter
	imem    Bus
	dmem    Bus
	decoder *insts.Decoder
	control *insts.ControlUnit
	alu     *ALU

	instructionCount uint64
	maxInstructions  uint64 // 0 means no limit
}

// EmulatorOption is a functional option for configuring the Emulator.
type EmulatorOption func(*Emulator)

// WithMaxInstructions sets the maximum number of instructions to execute.
// A value of 0 means no limit.
func WithMaxInstructions(max uint64) EmulatorOption {
	return func(e *Emulator) {
		e.maxInstructions = max
	}
}

// WithEntry sets the initial program counter.
func WithEntry(pc uint32) EmulatorOption {
	return func(e *Emulator) {
		e.pc.Set(pc)
	}
}

// NewEmulator creates an emulator fetching from imem and accessing data
// through dmem.
func NewEmulator(imem, dmem Bus, opts ...EmulatorOption) *Emulator {
	e := &Emulator{
		regFile: &RegFile{},
		imem:    imem,
		dmem:    dmem,
		decoder: insts.NewDecoder(),
		control: insts.NewControlUnit(),
		alu:     NewALU(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// RegFile returns the emulator's register file.
func (e *Emulator) RegFile() *RegFile {
	return e.regFile
}

// PC returns the address of the next instruction.
func (e *Emulator) PC() uint32 {
	return e.pc.PC()
}

// InstructionCount returns the number of instructions executed.
func (e *Emulator) InstructionCount() uint64 {
	return e.instructionCount
}

// Reset clears registers, PC and counters. Memory is left untouched.
func (e *Emulator) Reset() {
	e.regFile.Reset()
	e.pc.Reset()
	e.instructionCount = 0
}

// Step executes a single instruction.
func (e *Emulator) Step() StepResult {
	if e.maxInstructions > 0 && e.instructionCount >= e.maxInstructions {
		return StepResult{Err: ErrInstructionLimit}
	}

	pc := e.pc.PC()
	word := e.imem.Access(BusRequest{Enable: true, Address: pc})
	inst := e.decoder.Decode(word)
	ctrl := e.control.Decode(inst.Opcode, inst.Funct3, inst.Funct7)

	next := e.execute(inst, ctrl, pc)
	e.pc.Latch(next)
	e.instructionCount++

	return StepResult{Halted: next == pc}
}

// Run executes instructions until the program halts or the instruction
// limit is reached.
func (e *Emulator) Run() error {
	for {
		result := e.Step()
		if result.Err != nil {
			return fmt.Errorf("emulation stopped at PC=0x%08X: %w", e.pc.PC(), result.Err)
		}
		if result.Halted {
			return nil
		}
	}
}

// execute applies the architectural effect of one instruction and
// returns the next PC.
func (e *Emulator) execute(inst *insts.Instruction, ctrl insts.ControlWord, pc uint32) uint32 {
	rs1 := e.regFile.Read(inst.Rs1)
	rs2 := e.regFile.Read(inst.Rs2)
	imm := inst.Imm(ctrl.ImmSource)

	src2 := rs2
	if ctrl.ALUSource {
		src2 = imm
	}
	alu := e.alu.Execute(ctrl.ALUControl, rs1, src2)
	target := SecondAdder(SelectSecondAddBase(ctrl.SecondAddSource, pc, rs1), imm)

	switch {
	case ctrl.MemWrite:
		mask, data := EncodeStore(inst.Funct3, uint8(alu.Result&0x3), rs2)
		e.dmem.Access(BusRequest{
			Enable:          true,
			Address:         alu.Result,
			ByteWriteEnable: mask,
			WriteData:       data,
		})

	case ctrl.IsLoad():
		mask, _ := EncodeStore(inst.Funct3, uint8(alu.Result&0x3), 0)
		raw := e.dmem.Access(BusRequest{Enable: true, Address: alu.Result})
		value, valid := ReadLoad(inst.Funct3, mask, raw)
		e.regFile.Write(inst.Rd, value, valid)

	default:
		var value uint32
		switch ctrl.WriteBackSource {
		case insts.WriteBackLink:
			value = pc + 4
		case insts.WriteBackSecondAdd:
			value = target
		default:
			value = alu.Result
		}
		e.regFile.Write(inst.Rd, value, ctrl.RegWrite)
	}

	return e.pc.Next(ctrl.PCSource(inst.Funct3, alu.Zero, alu.LastBit), target)
}
