// Package pipeline provides the cycle-accurate RV32I datapath model: a
// single-issue core whose results pass through a one-cycle writeback
// register with forwarding to the register read ports.
package pipeline

import "github.com/sarchlab/rv32core/insts"

// Bit layout of a packed WritebackRecord.
const (
	wbDataBits      = 32
	wbDestShift     = 32
	wbMaskShift     = 37
	wbFunct3Shift   = 41
	wbRegWriteShift = 44
	wbMemReadShift  = 45

	// WritebackRecordBits is the width of a packed WritebackRecord.
	WritebackRecordBits = 46
)

// WritebackRecord is one pending register-file update.
type WritebackRecord struct {
	// Data is the result to write. For loads it is the effective address;
	// the loaded value is decoded from the latched memory word.
	Data uint32

	DestReg        uint8
	ByteEnableMask uint8
	Funct3         uint8
	RegWrite       bool
	IsMemRead      bool
}

// Pack encodes the record into its 46-bit wire form.
func (r WritebackRecord) Pack() uint64 {
	v := uint64(r.Data) |
		uint64(r.DestReg&0x1F)<<wbDestShift |
		uint64(r.ByteEnableMask&0xF)<<wbMaskShift |
		uint64(r.Funct3&0x7)<<wbFunct3Shift

	if r.RegWrite {
		v |= 1 << wbRegWriteShift
	}
	if r.IsMemRead {
		v |= 1 << wbMemReadShift
	}

	return v
}

// UnpackWriteback decodes a packed record. Bits above bit 45 are ignored.
func UnpackWriteback(v uint64) WritebackRecord {
	return WritebackRecord{
		Data:           uint32(v & (1<<wbDataBits - 1)),
		DestReg:        uint8(v>>wbDestShift) & 0x1F,
		ByteEnableMask: uint8(v>>wbMaskShift) & 0xF,
		Funct3:         uint8(v>>wbFunct3Shift) & 0x7,
		RegWrite:       (v>>wbRegWriteShift)&1 == 1,
		IsMemRead:      (v>>wbMemReadShift)&1 == 1,
	}
}

// WBRegister is the pipeline register in front of the register file
// write port.
type WBRegister struct {
	// Valid indicates if this pipeline register contains valid data.
	Valid bool

	// PC is the program counter of the producing instruction.
	PC uint32

	// Inst is the producing instruction.
	Inst *insts.Instruction

	// Record is the pending update.
	Record WritebackRecord

	// MemData is the raw memory word read by a load on the edge that
	// latched this register.
	MemData uint32
}

// Clear resets the register to empty state.
func (r *WBRegister) Clear() {
	r.Valid = false
	r.PC = 0
	r.Inst = nil
	r.Record = WritebackRecord{}
	r.MemData = 0
}
