package pipeline

import (
	"github.com/sarchlab/rv32core/emu"
	"github.com/sarchlab/rv32core/insts"
)

// FetchStage handles instruction fetch from the instruction bus. Fetch is
// combinational: the word at PC is available in the same cycle.
type FetchStage struct {
	imem    emu.Bus
	decoder *insts.Decoder
}

// NewFetchStage creates a new fetch stage.
func NewFetchStage(imem emu.Bus) *FetchStage {
	return &FetchStage{
		imem:    imem,
		decoder: insts.NewDecoder(),
	}
}

// Fetch reads and splits the instruction at the given PC.
func (s *FetchStage) Fetch(pc uint32) *insts.Instruction {
	word := s.imem.Access(emu.BusRequest{Enable: true, Address: pc})
	return s.decoder.Decode(word)
}

// DecodeStage derives control signals and reads source operands.
type DecodeStage struct {
	control    *insts.ControlUnit
	forwarding *ForwardingUnit
}

// NewDecodeStage creates a new decode stage reading through forwarding.
func NewDecodeStage(forwarding *ForwardingUnit) *DecodeStage {
	return &DecodeStage{
		control:    insts.NewControlUnit(),
		forwarding: forwarding,
	}
}

// DecodeResult holds the result of the decode stage.
type DecodeResult struct {
	Control  insts.ControlWord
	Imm      uint32
	Rs1Value uint32
	Rs2Value uint32

	// Forwarded operands, for statistics.
	ForwardRs1 ForwardSource
	ForwardRs2 ForwardSource
}

// Decode produces the control word and operand values of inst.
func (s *DecodeStage) Decode(
	inst *insts.Instruction,
	regFile *emu.RegFile,
	wb *WritebackStage,
) DecodeResult {
	ctrl := s.control.Decode(inst.Opcode, inst.Funct3, inst.Funct7)
	fwd := s.forwarding.DetectForwarding(inst.Rs1, inst.Rs2, wb)

	return DecodeResult{
		Control:    ctrl,
		Imm:        inst.Imm(ctrl.ImmSource),
		Rs1Value:   s.forwarding.GetForwardedValue(fwd.ForwardRs1, regFile.Read(inst.Rs1), wb),
		Rs2Value:   s.forwarding.GetForwardedValue(fwd.ForwardRs2, regFile.Read(inst.Rs2), wb),
		ForwardRs1: fwd.ForwardRs1,
		ForwardRs2: fwd.ForwardRs2,
	}
}

// ExecuteStage handles ALU operations, address calculation and the
// branch/jump target.
type ExecuteStage struct {
	alu *emu.ALU
}

// NewExecuteStage creates a new execute stage.
func NewExecuteStage() *ExecuteStage {
	return &ExecuteStage{alu: emu.NewALU()}
}

// ExecuteResult holds the result of the execute stage.
type ExecuteResult struct {
	ALU emu.ALUResult

	// Target is the second adder output: branch/jump target, or the
	// AUIPC/LUI result.
	Target uint32

	// PCSource selects Target as the next PC.
	PCSource bool
}

// Execute evaluates the ALU and second adder for one instruction.
func (s *ExecuteStage) Execute(inst *insts.Instruction, pc uint32, dec DecodeResult) ExecuteResult {
	ctrl := dec.Control

	src2 := dec.Rs2Value
	if ctrl.ALUSource {
		src2 = dec.Imm
	}

	alu := s.alu.Execute(ctrl.ALUControl, dec.Rs1Value, src2)
	base := emu.SelectSecondAddBase(ctrl.SecondAddSource, pc, dec.Rs1Value)

	return ExecuteResult{
		ALU:      alu,
		Target:   emu.SecondAdder(base, dec.Imm),
		PCSource: ctrl.PCSource(inst.Funct3, alu.Zero, alu.LastBit),
	}
}

// MemoryStage builds the data bus request of loads and stores.
type MemoryStage struct{}

// NewMemoryStage creates a new memory stage.
func NewMemoryStage() *MemoryStage {
	return &MemoryStage{}
}

// Prepare returns the bus request and the lane mask for the access.
// Stores assert the mask only when MemWrite is set; loads keep the mask
// for the reader and issue a plain read.
func (s *MemoryStage) Prepare(
	inst *insts.Instruction,
	ctrl insts.ControlWord,
	addr, storeData uint32,
) (emu.BusRequest, uint8) {
	mask, word := emu.EncodeStore(inst.Funct3, uint8(addr&0x3), storeData)

	switch {
	case ctrl.MemWrite:
		return emu.BusRequest{
			Enable:          true,
			Address:         addr,
			ByteWriteEnable: mask,
			WriteData:       word,
		}, mask
	case ctrl.IsLoad():
		return emu.BusRequest{Enable: true, Address: addr}, mask
	default:
		return emu.BusRequest{}, mask
	}
}

// WritebackStage holds the writeback pipeline register and commits it to
// the register file.
type WritebackStage struct {
	reg WBRegister
}

// NewWritebackStage creates an empty writeback stage.
func NewWritebackStage() *WritebackStage {
	return &WritebackStage{}
}

// Register returns the writeback pipeline register.
func (s *WritebackStage) Register() *WBRegister {
	return &s.reg
}

// Record returns the pending record and whether one is present.
func (s *WritebackStage) Record() (WritebackRecord, bool) {
	return s.reg.Record, s.reg.Valid
}

// Data returns the value that will be written: the ALU/link/immediate
// result, or for loads the memory word decoded by the reader.
func (s *WritebackStage) Data() uint32 {
	if !s.reg.Valid {
		return 0
	}

	rec := s.reg.Record
	if !rec.IsMemRead {
		return rec.Data
	}

	value, _ := emu.ReadLoad(rec.Funct3, rec.ByteEnableMask, s.reg.MemData)
	return value
}

// Enable reports whether the pending record will update the register
// file: reg_write set and, for loads, the access valid.
func (s *WritebackStage) Enable() bool {
	if !s.reg.Valid || !s.reg.Record.RegWrite {
		return false
	}

	rec := s.reg.Record
	if !rec.IsMemRead {
		return true
	}

	_, valid := emu.ReadLoad(rec.Funct3, rec.ByteEnableMask, s.reg.MemData)
	return valid
}

// Commit applies the pending record to the register file.
func (s *WritebackStage) Commit(regFile *emu.RegFile) {
	regFile.Write(s.reg.Record.DestReg, s.Data(), s.Enable())
}

// Latch replaces the pipeline register with the record computed in the
// cycle that just ended.
func (s *WritebackStage) Latch(pc uint32, inst *insts.Instruction, rec WritebackRecord, memData uint32) {
	s.reg = WBRegister{
		Valid:   true,
		PC:      pc,
		Inst:    inst,
		Record:  rec,
		MemData: memData,
	}
}

// Flush empties the pipeline register.
func (s *WritebackStage) Flush() {
	s.reg.Clear()
}
