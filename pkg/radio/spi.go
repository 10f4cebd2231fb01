package radio

import (
	"fmt"
	"time"

	"github.com/mbalug7/go-radio-module/pkg/hal"
)

// RegisterBus reads and writes module registers over SPI.
// Every call is one chip select gated transaction, the bus is owned only while it lasts.
type RegisterBus struct {
	bus          hal.SPIBus
	cs           hal.OutputLine
	settings     hal.SPISettings
	readCommand  byte
	writeCommand byte
	debug        hal.DebugSink
	clock        hal.Clock
}

var _ hal.RegisterAccess = (*RegisterBus)(nil)

// GetRegValue returns bits [lsb, msb] of the register, right aligned
func (obj *RegisterBus) GetRegValue(reg hal.RegAddress, msb uint8, lsb uint8) (uint8, error) {
	field := hal.BitField{Reg: reg, MSB: msb, LSB: lsb}
	err := field.Validate()
	if err != nil {
		return 0, err
	}
	raw, err := obj.ReadRegister(reg)
	if err != nil {
		return 0, err
	}
	return field.Extract(raw), nil
}

// SetRegValue writes value (right aligned) into bits [lsb, msb] and keeps other register bits.
// Register is read back until it holds the written value or checkInterval elapses.
// Some registers need time to process the change (e.g. SX127X_REG_OP_MODE).
func (obj *RegisterBus) SetRegValue(reg hal.RegAddress, value uint8, msb uint8, lsb uint8, checkInterval time.Duration) error {
	field := hal.BitField{Reg: reg, MSB: msb, LSB: lsb}
	err := field.Validate()
	if err != nil {
		return err
	}

	currentValue, err := obj.ReadRegister(reg)
	if err != nil {
		return err
	}
	newValue := field.Merge(currentValue, value)
	err = obj.WriteRegister(reg, newValue)
	if err != nil {
		return err
	}

	// spin until the interval elapses, settling time not the number of reads is what matters
	var readValue uint8
	start := obj.clock.Now()
	for {
		readValue, err = obj.ReadRegister(reg)
		if err != nil {
			return err
		}
		if readValue == newValue {
			return nil
		}
		if obj.clock.Now().Sub(start) >= checkInterval {
			break
		}
	}

	verr := &hal.WriteVerificationError{
		Field:   field,
		Value:   value,
		Current: currentValue,
		Mask:    field.Mask(),
		New:     newValue,
		Read:    readValue,
	}
	obj.debug.Printf("address:\t0x%02X", reg.ToByte())
	obj.debug.Printf("bits:\t\t%d %d", msb, lsb)
	obj.debug.Printf("value:\t\t0b%b", value)
	obj.debug.Printf("current:\t0b%b", currentValue)
	obj.debug.Printf("mask:\t\t0b%b", verr.Mask)
	obj.debug.Printf("new:\t\t0b%b", newValue)
	obj.debug.Printf("read:\t\t0b%b", readValue)
	return verr
}

func (obj *RegisterBus) ReadRegister(reg hal.RegAddress) (uint8, error) {
	resp := make([]byte, 1)
	err := obj.transfer(obj.readCommand, reg, nil, resp)
	if err != nil {
		return 0, err
	}
	return resp[0], nil
}

func (obj *RegisterBus) WriteRegister(reg hal.RegAddress, data uint8) error {
	return obj.transfer(obj.writeCommand, reg, []byte{data}, nil)
}

// ReadRegisterBurst reads numBytes consecutive registers starting at reg
func (obj *RegisterBus) ReadRegisterBurst(reg hal.RegAddress, numBytes int) ([]byte, error) {
	if numBytes < 0 {
		return nil, fmt.Errorf("invalid burst length %d", numBytes)
	}
	data := make([]byte, numBytes)
	err := obj.transfer(obj.readCommand, reg, nil, data)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// WriteRegisterBurst writes data to consecutive registers starting at reg, nothing is verified
func (obj *RegisterBus) WriteRegisterBurst(reg hal.RegAddress, data []byte) error {
	return obj.transfer(obj.writeCommand, reg, data, nil)
}

// transfer runs one transaction. Write transactions send dataOut, read transactions fill dataIn.
func (obj *RegisterBus) transfer(cmd byte, reg hal.RegAddress, dataOut []byte, dataIn []byte) (err error) {
	err = obj.bus.BeginTransaction(obj.settings)
	if err != nil {
		return fmt.Errorf("failed to begin SPI transaction: %w", err)
	}
	defer func() {
		endErr := obj.bus.EndTransaction()
		if endErr != nil && err == nil {
			err = fmt.Errorf("failed to end SPI transaction: %w", endErr)
		}
	}()

	// chip select is active low
	err = obj.cs.SetValue(0)
	if err != nil {
		return fmt.Errorf("failed to assert chip select: %w", err)
	}
	defer func() {
		csErr := obj.cs.SetValue(1)
		if csErr != nil && err == nil {
			err = fmt.Errorf("failed to release chip select: %w", csErr)
		}
	}()

	_, err = obj.bus.Transfer(reg.ToByte() | cmd)
	if err != nil {
		return fmt.Errorf("failed to send register address 0x%02X: %w", reg.ToByte(), err)
	}

	if dataOut != nil {
		for n, b := range dataOut {
			_, err = obj.bus.Transfer(b)
			if err != nil {
				return fmt.Errorf("failed to write byte %d to register 0x%02X: %w", n, reg.ToByte(), err)
			}
		}
		return nil
	}
	for n := range dataIn {
		dataIn[n], err = obj.bus.Transfer(0x00)
		if err != nil {
			return fmt.Errorf("failed to read byte %d from register 0x%02X: %w", n, reg.ToByte(), err)
		}
	}
	return nil
}
