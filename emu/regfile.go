package emu

// RegFile represents the RV32I integer register file: 32 registers of
// 32 bits with x0 hardwired to zero.
type RegFile struct {
	// X holds x0-x31. X[0] is never written.
	X [32]uint32
}

// Read returns the value of a register. Register 0 and addresses outside
// the file read as 0.
func (r *RegFile) Read(addr uint8) uint32 {
	if addr == 0 || addr >= 32 {
		return 0
	}
	return r.X[addr]
}

// Write updates a register when enable is set. Writes to x0 are accepted
// and discarded.
func (r *RegFile) Write(addr uint8, data uint32, enable bool) {
	if !enable || addr == 0 || addr >= 32 {
		return
	}
	r.X[addr] = data
}

// Reset clears every register.
func (r *RegFile) Reset() {
	r.X = [32]uint32{}
}
