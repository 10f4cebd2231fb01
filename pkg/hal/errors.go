package hal

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidBitRange         = errors.New("invalid bit range")
	ErrWriteVerificationFailed = errors.New("register write verification failed")
	ErrATCommandFailed         = errors.New("module responded with ERROR")
	ErrATTimeout               = errors.New("module response timeout")
	ErrWrongInterface          = errors.New("operation not supported by the active module interface")
	ErrLineNotConfigured       = errors.New("GPIO line not configured")
	ErrInterruptTimeout        = errors.New("interrupt wait timeout")
)

// WriteVerificationError holds the register state seen when a masked write did not read back in time.
// The write itself did happen, the register is left in an unconfirmed state.
type WriteVerificationError struct {
	Field   BitField
	Value   uint8 // requested field value, right aligned
	Current uint8 // register value before the write
	Mask    uint8
	New     uint8 // register value that was written
	Read    uint8 // last value read back
}

func (e *WriteVerificationError) Error() string {
	return fmt.Sprintf("%s: address 0x%02X, bits %d..%d, value 0b%08b, current 0b%08b, mask 0b%08b, new 0b%08b, read 0b%08b",
		ErrWriteVerificationFailed, e.Field.Reg.ToByte(), e.Field.MSB, e.Field.LSB, e.Value, e.Current, e.Mask, e.New, e.Read)
}

func (e *WriteVerificationError) Unwrap() error {
	return ErrWriteVerificationFailed
}
