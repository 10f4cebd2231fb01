package hal

import "fmt"

type RegAddress uint8

func (obj RegAddress) ToByte() byte {
	return byte(obj)
}

// BitField describes a contiguous bit range [LSB, MSB] inside one byte wide register
type BitField struct {
	Reg RegAddress
	MSB uint8
	LSB uint8
}

// Validate rejects ranges outside 0..7 and inverted ranges
func (obj BitField) Validate() error {
	if obj.MSB > 7 || obj.LSB > 7 || obj.LSB > obj.MSB {
		return fmt.Errorf("%w: register 0x%02X bits %d..%d", ErrInvalidBitRange, obj.Reg.ToByte(), obj.MSB, obj.LSB)
	}
	return nil
}

// Mask returns a byte with exactly the bits [LSB, MSB] set.
// Field must be valid.
func (obj BitField) Mask() uint8 {
	// shifts are done on uint to keep msb+1 == 8 and lsb == 0 from wrapping
	above := uint(0xFF) << (obj.MSB + 1)
	below := uint(0xFF) >> (8 - obj.LSB)
	return ^uint8((above | below) & 0xFF)
}

// Extract returns the field bits of raw, right aligned
func (obj BitField) Extract(raw uint8) uint8 {
	return (raw & obj.Mask()) >> obj.LSB
}

// Merge places value (right aligned) into the field bits of current and keeps every other bit
func (obj BitField) Merge(current uint8, value uint8) uint8 {
	mask := obj.Mask()
	return (current &^ mask) | ((value << obj.LSB) & mask)
}
