package pipeline

// ForwardSource indicates where an operand value comes from.
type ForwardSource int

const (
	// ForwardNone means no forwarding needed - use register file value.
	ForwardNone ForwardSource = iota
	// ForwardFromWB means forward from the writeback pipeline register.
	ForwardFromWB
)

// ForwardingResult contains forwarding decisions for both source operands.
type ForwardingResult struct {
	// ForwardRs1 specifies the forwarding source for rs1.
	ForwardRs1 ForwardSource
	// ForwardRs2 specifies the forwarding source for rs2 (also store data).
	ForwardRs2 ForwardSource
}

// ForwardingUnit bypasses the pending writeback to the register read
// ports, so a result is usable by the very next instruction without a
// stall. There is only one in-flight result, so no other hazards exist.
type ForwardingUnit struct{}

// NewForwardingUnit creates a new forwarding unit.
func NewForwardingUnit() *ForwardingUnit {
	return &ForwardingUnit{}
}

// DetectForwarding determines if rs1 and rs2 must be taken from the
// writeback register.
func (f *ForwardingUnit) DetectForwarding(rs1, rs2 uint8, wb *WritebackStage) ForwardingResult {
	return ForwardingResult{
		ForwardRs1: f.detectForwardForReg(rs1, wb),
		ForwardRs2: f.detectForwardForReg(rs2, wb),
	}
}

func (f *ForwardingUnit) detectForwardForReg(reg uint8, wb *WritebackStage) ForwardSource {
	// x0 always reads as 0, no need to forward
	if reg == 0 {
		return ForwardNone
	}

	rec, ok := wb.Record()
	if ok && rec.DestReg == reg && wb.Enable() {
		return ForwardFromWB
	}

	return ForwardNone
}

// GetForwardedValue returns the value to use based on forwarding decision.
func (f *ForwardingUnit) GetForwardedValue(
	forward ForwardSource,
	originalValue uint32,
	wb *WritebackStage,
) uint32 {
	if forward == ForwardFromWB {
		return wb.Data()
	}
	return originalValue
}
