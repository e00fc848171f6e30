package emu

import "io"

// UART register offsets from the device base.
const (
	UARTTxData uint32 = 0x0 // write lane 0 to transmit a byte
	UARTStatus uint32 = 0x4 // bit 0: transmitter ready

	// UARTSpan is the size of the UART register window.
	UARTSpan uint32 = 0x8
)

// UART is a transmit-only serial port. Transmission completes
// immediately, so the transmitter always reports ready.
type UART struct {
	base uint32
	out  io.Writer
	sent []byte
}

// NewUART creates a UART mapped at base. Transmitted bytes are written to
// out when it is not nil.
func NewUART(base uint32, out io.Writer) *UART {
	return &UART{base: base, out: out}
}

// Sent returns every byte transmitted so far.
func (u *UART) Sent() []byte {
	return u.sent
}

// Access serves a bus transaction on the UART registers.
func (u *UART) Access(req BusRequest) uint32 {
	if !req.Enable {
		return 0
	}

	switch (req.Address - u.base) &^ 0x3 {
	case UARTTxData:
		if req.ByteWriteEnable&0x1 != 0 {
			u.transmit(uint8(req.WriteData))
		}
		return 0
	case UARTStatus:
		return 1
	default:
		return 0
	}
}

func (u *UART) transmit(b byte) {
	u.sent = append(u.sent, b)
	if u.out != nil {
		// Output errors do not stall the transmitter.
		_, _ = u.out.Write([]byte{b})
	}
}
