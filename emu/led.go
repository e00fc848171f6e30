package emu

// LEDCount is the number of output lines driven by the LED register.
const LEDCount = 7

// LEDSpan is the size of the address range decoded to the LED device.
const LEDSpan uint32 = 0x1000

// LED is a single-byte memory-mapped register whose low 7 bits drive
// the LED outputs.
type LED struct {
	value    uint8
	onChange func(outputs uint8)
}

// NewLED creates an LED device. onChange, if not nil, is called whenever
// the output lines change.
func NewLED(onChange func(outputs uint8)) *LED {
	return &LED{onChange: onChange}
}

// Outputs returns the state of the 7 output lines.
func (l *LED) Outputs() uint8 {
	return l.value & (1<<LEDCount - 1)
}

// Value returns the full register byte.
func (l *LED) Value() uint8 {
	return l.value
}

// Access reads or writes the register through byte lane 0. Every word in
// the device range aliases the same register.
func (l *LED) Access(req BusRequest) uint32 {
	if !req.Enable {
		return 0
	}

	old := uint32(l.value)
	if req.ByteWriteEnable&0x1 == 0 {
		return old
	}

	before := l.Outputs()
	l.value = uint8(req.WriteData)
	if l.onChange != nil && l.Outputs() != before {
		l.onChange(l.Outputs())
	}

	return old
}
