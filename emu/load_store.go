package emu

// Access widths, taken from funct3[1:0].
const (
	widthByte uint8 = 0b00
	widthHalf uint8 = 0b01
	widthWord uint8 = 0b10
)

// Byte-enable masks.
const (
	MaskNone uint8 = 0b0000
	MaskWord uint8 = 0b1111
	MaskLow  uint8 = 0b0011
	MaskHigh uint8 = 0b1100
)

// EncodeStore computes the byte-lane mask and lane-aligned write word for
// an access of the width selected by funct3 at an address whose low two
// bits are addrLow2. Data is truncated to the access width before it is
// shifted into its lanes. Misaligned accesses yield MaskNone. Loads use the
// same mask to tell the reader which lanes they read.
func EncodeStore(funct3, addrLow2 uint8, data uint32) (mask uint8, word uint32) {
	offset := addrLow2 & 0x3

	switch funct3 & 0x3 {
	case widthWord:
		if offset != 0 {
			return MaskNone, data
		}
		return MaskWord, data
	case widthHalf:
		half := data & 0xFFFF
		switch offset {
		case 0:
			return MaskLow, half
		case 2:
			return MaskHigh, half << 16
		default:
			return MaskNone, data
		}
	case widthByte:
		return 1 << offset, (data & 0xFF) << (8 * uint32(offset))
	default:
		return MaskNone, data
	}
}

// ReadLoad extracts the value of a load from the raw memory word using the
// lane mask that was active for the access. Signed loads (LB, LH)
// sign-extend; LBU and LHU zero-extend. A zero mask means the access was
// misaligned and the result is invalid.
func ReadLoad(funct3, mask uint8, word uint32) (value uint32, valid bool) {
	mask &= 0xF
	valid = mask != MaskNone

	switch funct3 & 0x7 {
	case 0b010: // LW
		return word, valid
	case 0b001: // LH
		return uint32(int32(int16(selectHalf(mask, word)))), valid
	case 0b101: // LHU
		return uint32(selectHalf(mask, word)), valid
	case 0b000: // LB
		return uint32(int32(int8(selectByte(mask, word)))), valid
	case 0b100: // LBU
		return uint32(selectByte(mask, word)), valid
	default:
		return 0, false
	}
}

func selectHalf(mask uint8, word uint32) uint16 {
	switch mask {
	case MaskHigh:
		return uint16(word >> 16)
	case MaskLow:
		return uint16(word)
	default:
		return 0
	}
}

func selectByte(mask uint8, word uint32) uint8 {
	switch mask {
	case 0b1000:
		return uint8(word >> 24)
	case 0b0100:
		return uint8(word >> 16)
	case 0b0010:
		return uint8(word >> 8)
	case 0b0001:
		return uint8(word)
	default:
		return 0
	}
}

// MergeLanes overwrites the lanes of old selected by mask with the
// corresponding lanes of data.
func MergeLanes(old, data uint32, mask uint8) uint32 {
	for lane := 0; lane < 4; lane++ {
		if mask&(1<<lane) == 0 {
			continue
		}
		shift := uint(lane * 8)
		old = old&^(0xFF<<shift) | data&(0xFF<<shift)
	}
	return old
}
