//go:build pico

package pico

import (
	"fmt"
	"sync"

	"machine"

	"github.com/mbalug7/go-radio-module/pkg/hal"
)

// Pin adapts machine.Pin to hal.OutputLine and hal.InputLine
type Pin struct {
	machine.Pin
}

// NewOutputPin configures pin as output with initial high level, chip select idles high
func NewOutputPin(pin machine.Pin) Pin {
	pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	pin.High()
	return Pin{pin}
}

func NewInputPin(pin machine.Pin) Pin {
	pin.Configure(machine.PinConfig{Mode: machine.PinInput})
	return Pin{pin}
}

func (obj Pin) SetValue(value int) error {
	obj.Set(value != 0)
	return nil
}

func (obj Pin) Value() (int, error) {
	if obj.Get() {
		return 1, nil
	}
	return 0, nil
}

// SPIBus hardware SPI, chip select is a separate Pin
type SPIBus struct {
	spi      *machine.SPI
	config   machine.SPIConfig
	settings hal.SPISettings
	muBus    sync.Mutex // held for the whole transaction
}

// NewSPIBus sck, sdo, sdi are bus pins
func NewSPIBus(spi *machine.SPI, sck machine.Pin, sdo machine.Pin, sdi machine.Pin, settings hal.SPISettings) *SPIBus {
	return &SPIBus{
		spi: spi,
		config: machine.SPIConfig{
			SCK: sck,
			SDO: sdo,
			SDI: sdi,
		},
		settings: settings,
	}
}

func (obj *SPIBus) Begin() error {
	return obj.configure(obj.settings)
}

func (obj *SPIBus) End() error {
	return nil
}

func (obj *SPIBus) configure(settings hal.SPISettings) error {
	obj.config.Frequency = settings.Frequency
	obj.config.Mode = settings.Mode
	obj.config.LSBFirst = settings.BitOrder == hal.LSBFirst
	err := obj.spi.Configure(obj.config)
	if err != nil {
		return fmt.Errorf("failed to configure SPI: %w", err)
	}
	obj.settings = settings
	return nil
}

// BeginTransaction locks the bus and reconfigures it if settings changed since the last transaction
func (obj *SPIBus) BeginTransaction(settings hal.SPISettings) error {
	obj.muBus.Lock()
	if settings == obj.settings {
		return nil
	}
	err := obj.configure(settings)
	if err != nil {
		obj.muBus.Unlock()
		return err
	}
	return nil
}

func (obj *SPIBus) EndTransaction() error {
	obj.muBus.Unlock()
	return nil
}

func (obj *SPIBus) Transfer(b byte) (byte, error) {
	return obj.spi.Transfer(b)
}

// SerialPort UART with the hardware receive ring buffer
type SerialPort struct {
	uart *machine.UART
	tx   machine.Pin
	rx   machine.Pin
}

func NewSerialPort(uart *machine.UART, tx machine.Pin, rx machine.Pin) *SerialPort {
	return &SerialPort{uart: uart, tx: tx, rx: rx}
}

func (obj *SerialPort) Begin(baudRate int) error {
	err := obj.uart.Configure(machine.UARTConfig{
		BaudRate: uint32(baudRate),
		TX:       obj.tx,
		RX:       obj.rx,
	})
	if err != nil {
		return fmt.Errorf("failed to configure UART: %w", err)
	}
	obj.uart.Buffer.Clear()
	return nil
}

func (obj *SerialPort) Available() int {
	return obj.uart.Buffered()
}

func (obj *SerialPort) ReadByte() (byte, error) {
	return obj.uart.ReadByte()
}

func (obj *SerialPort) Write(p []byte) (int, error) {
	return obj.uart.Write(p)
}

func (obj *SerialPort) Close() error {
	return nil
}
