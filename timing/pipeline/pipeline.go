package pipeline

import (
	"github.com/ethereum/go-ethereum/log"

	"github.com/sarchlab/rv32core/emu"
	"github.com/sarchlab/rv32core/insts"
)

// Statistics holds datapath performance statistics.
type Statistics struct {
	// Cycles is the total number of clock edges simulated.
	Cycles uint64
	// Instructions is the number of instructions executed.
	Instructions uint64
	// RegisterWrites is the number of register file updates committed.
	RegisterWrites uint64
	// Forwards is the number of operands taken from the writeback register.
	Forwards uint64
	// Loads and Stores count data memory accesses.
	Loads  uint64
	Stores uint64
	// BranchesTaken counts taken branches and jumps.
	BranchesTaken uint64
	// Suppressed counts instructions neutralized by an illegal funct7 or a
	// misaligned access.
	Suppressed uint64
}

// CPI returns the cycles per instruction.
func (s Statistics) CPI() float64 {
	if s.Instructions == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Instructions)
}

// CycleState is the combinational state of the datapath during one cycle.
type CycleState struct {
	PC          uint32
	Instruction *insts.Instruction
	Control     insts.ControlWord
	Decode      DecodeResult
	Execute     ExecuteResult

	// MemRequest is issued on the data bus at the end of the cycle.
	MemRequest emu.BusRequest

	// NextWriteback is the record this instruction will leave in the
	// writeback register.
	NextWriteback WritebackRecord

	// PCNext is the PC latched on the next edge.
	PCNext uint32
}

// DatapathOption is a functional option for configuring the Datapath.
type DatapathOption func(*Datapath)

// WithLogger sets the logger used for per-instruction trace output.
func WithLogger(logger log.Logger) DatapathOption {
	return func(d *Datapath) {
		d.logger = logger
	}
}

// WithTracer records every writeback record to t.
func WithTracer(t *Tracer) DatapathOption {
	return func(d *Datapath) {
		d.tracer = t
	}
}

// WithEntry sets the PC the datapath starts from after reset.
func WithEntry(pc uint32) DatapathOption {
	return func(d *Datapath) {
		d.entry = pc
		d.pc.Set(pc)
	}
}

// Datapath is the single-issue RV32I core. Each instruction executes in
// one cycle; its result sits in the writeback register for the next cycle
// and reaches the register file on the edge after that. The register read
// ports forward from the writeback register, so the core never stalls.
//
// Evaluate computes the combinational outputs of the current cycle; Tick
// applies the rising clock edge.
type Datapath struct {
	regFile *emu.RegFile
	pc      emu.ProgramCounter
	entry   uint32
	dmem    emu.Bus

	fetchStage     *FetchStage
	decodeStage    *DecodeStage
	executeStage   *ExecuteStage
	memoryStage    *MemoryStage
	writebackStage *WritebackStage

	stats  Statistics
	logger log.Logger
	tracer *Tracer
}

// NewDatapath creates a datapath fetching from imem and accessing data
// through dmem. Instruction and data memories are separate.
func NewDatapath(imem, dmem emu.Bus, opts ...DatapathOption) *Datapath {
	d := &Datapath{
		regFile:        &emu.RegFile{},
		dmem:           dmem,
		fetchStage:     NewFetchStage(imem),
		decodeStage:    NewDecodeStage(NewForwardingUnit()),
		executeStage:   NewExecuteStage(),
		memoryStage:    NewMemoryStage(),
		writebackStage: NewWritebackStage(),
		logger:         log.Root(),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// RegFile returns the register file.
func (d *Datapath) RegFile() *emu.RegFile {
	return d.regFile
}

// PC returns the address of the instruction in the current cycle.
func (d *Datapath) PC() uint32 {
	return d.pc.PC()
}

// Stats returns the statistics collected so far.
func (d *Datapath) Stats() Statistics {
	return d.stats
}

// WritebackStage returns the writeback stage.
func (d *Datapath) WritebackStage() *WritebackStage {
	return d.writebackStage
}

// Evaluate computes and returns the combinational state of the current
// cycle. It has no side effects and may be called repeatedly.
func (d *Datapath) Evaluate() CycleState {
	pc := d.pc.PC()
	inst := d.fetchStage.Fetch(pc)
	dec := d.decodeStage.Decode(inst, d.regFile, d.writebackStage)
	ctrl := dec.Control
	exe := d.executeStage.Execute(inst, pc, dec)
	req, mask := d.memoryStage.Prepare(inst, ctrl, exe.ALU.Result, dec.Rs2Value)

	return CycleState{
		PC:          pc,
		Instruction: inst,
		Control:     ctrl,
		Decode:      dec,
		Execute:     exe,
		MemRequest:  req,
		NextWriteback: WritebackRecord{
			Data:           writebackValue(ctrl, pc, exe),
			DestReg:        inst.Rd,
			ByteEnableMask: mask,
			Funct3:         inst.Funct3,
			RegWrite:       ctrl.RegWrite,
			IsMemRead:      ctrl.IsLoad(),
		},
		PCNext: d.pc.Next(exe.PCSource, exe.Target),
	}
}

func writebackValue(ctrl insts.ControlWord, pc uint32, exe ExecuteResult) uint32 {
	switch ctrl.WriteBackSource {
	case insts.WriteBackLink:
		return pc + 4
	case insts.WriteBackSecondAdd:
		return exe.Target
	default:
		// ALU result; for loads this is the address.
		return exe.ALU.Result
	}
}

// Tick applies one rising clock edge: the writeback register is committed
// to the register file, the data bus request is performed, the current
// instruction's record is latched into the writeback register, and the
// PC advances.
func (d *Datapath) Tick() {
	cur := d.Evaluate()

	if d.writebackStage.Enable() {
		d.stats.RegisterWrites++
	}
	d.writebackStage.Commit(d.regFile)

	var memData uint32
	if cur.MemRequest.Enable {
		memData = d.dmem.Access(cur.MemRequest)
	}

	d.writebackStage.Latch(cur.PC, cur.Instruction, cur.NextWriteback, memData)
	d.pc.Latch(cur.PCNext)

	d.collectStats(cur)
	d.trace(cur)
}

func (d *Datapath) collectStats(cur CycleState) {
	d.stats.Cycles++
	d.stats.Instructions++

	rs1Used, rs2Used := operandsUsed(cur.Instruction.Opcode)
	if rs1Used && cur.Decode.ForwardRs1 == ForwardFromWB {
		d.stats.Forwards++
	}
	if rs2Used && cur.Decode.ForwardRs2 == ForwardFromWB {
		d.stats.Forwards++
	}
	if cur.Execute.PCSource {
		d.stats.BranchesTaken++
	}

	ctrl := cur.Control
	rec := cur.NextWriteback
	switch {
	case ctrl.MemWrite:
		d.stats.Stores++
		if cur.MemRequest.ByteWriteEnable == emu.MaskNone {
			d.stats.Suppressed++
		}
	case ctrl.IsLoad():
		d.stats.Loads++
		if rec.ByteEnableMask == emu.MaskNone {
			d.stats.Suppressed++
		}
	case !ctrl.RegWrite && !insts.LegalFunct7(cur.Instruction.Opcode, cur.Instruction.Funct3, cur.Instruction.Funct7):
		d.stats.Suppressed++
	}
}

// operandsUsed reports which register operands an opcode consumes. The
// read ports forward both fields unconditionally; only consumed operands
// count as forwards.
func operandsUsed(op insts.Opcode) (rs1, rs2 bool) {
	switch op {
	case insts.OpcodeRType, insts.OpcodeStore, insts.OpcodeBranch:
		return true, true
	case insts.OpcodeLoad, insts.OpcodeIALU, insts.OpcodeJALR:
		return true, false
	default:
		return false, false
	}
}

func (d *Datapath) trace(cur CycleState) {
	d.logger.Trace("Executed instruction",
		"cycle", d.stats.Cycles,
		"pc", HexU32(cur.PC),
		"inst", cur.Instruction,
		"next_pc", HexU32(cur.PCNext))

	if d.tracer != nil {
		d.tracer.Record(d.stats.Cycles, cur)
	}
}

// Drain commits the pending writeback to the register file and empties
// the writeback register without advancing the PC or fetching.
func (d *Datapath) Drain() {
	if d.writebackStage.Enable() {
		d.stats.RegisterWrites++
	}
	d.writebackStage.Commit(d.regFile)
	d.writebackStage.Flush()
}

// RunCycles applies n clock edges.
func (d *Datapath) RunCycles(n uint64) {
	for i := uint64(0); i < n; i++ {
		d.Tick()
	}
}

// Reset clears the PC, the writeback register, the register file and the
// statistics. Memory is never cleared.
func (d *Datapath) Reset() {
	d.pc.Set(d.entry)
	d.regFile.Reset()
	d.writebackStage.Flush()
	d.stats = Statistics{}
}

// ReadRegister returns the architectural value of a register as the read
// ports see it this cycle, including the forwarded pending writeback.
func (d *Datapath) ReadRegister(addr uint8) uint32 {
	if addr == 0 {
		return 0
	}

	rec, ok := d.writebackStage.Record()
	if ok && rec.DestReg == addr && d.writebackStage.Enable() {
		return d.writebackStage.Data()
	}

	return d.regFile.Read(addr)
}

// Instruction returns the raw word of the instruction in the current cycle.
func (d *Datapath) Instruction() uint32 {
	return d.Evaluate().Instruction.Word
}

// NextWriteback returns the record computed for the current instruction.
func (d *Datapath) NextWriteback() WritebackRecord {
	return d.Evaluate().NextWriteback
}

// Writeback returns the record in the writeback register.
func (d *Datapath) Writeback() WritebackRecord {
	rec, _ := d.writebackStage.Record()
	return rec
}

// WritebackData returns the value the writeback register will commit.
func (d *Datapath) WritebackData() uint32 {
	return d.writebackStage.Data()
}

// WritebackEnable reports whether the writeback register will commit.
func (d *Datapath) WritebackEnable() bool {
	return d.writebackStage.Enable()
}

// PCNext returns the PC that the next edge will latch.
func (d *Datapath) PCNext() uint32 {
	return d.Evaluate().PCNext
}

// Control returns the control word of the current instruction.
func (d *Datapath) Control() insts.ControlWord {
	return d.Evaluate().Control
}
