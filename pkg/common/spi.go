package common

import (
	"fmt"
	"sync"

	"github.com/mbalug7/go-radio-module/pkg/hal"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// SPIBus is a Linux spidev bus. Chip select is driven through GPIO by the radio module,
// so the port is connected with NoCS.
type SPIBus struct {
	name     string
	settings hal.SPISettings
	port     spi.PortCloser
	conn     spi.Conn
	muBus    sync.Mutex // held for the whole transaction
	muState  sync.Mutex // inTx protection mutex
	inTx     bool
}

// NewSPIBus creates bus handler, name is a spireg name like "/dev/spidev0.0" or "SPI0.0", empty name picks the first bus
func NewSPIBus(name string, settings hal.SPISettings) *SPIBus {
	return &SPIBus{
		name:     name,
		settings: settings,
	}
}

func (obj *SPIBus) Begin() error {
	_, err := host.Init()
	if err != nil {
		return fmt.Errorf("failed to initialize periph host drivers: %w", err)
	}
	obj.port, err = spireg.Open(obj.name)
	if err != nil {
		return fmt.Errorf("failed to open SPI port %q: %w", obj.name, err)
	}
	obj.conn, err = obj.port.Connect(physic.Frequency(obj.settings.Frequency)*physic.Hertz, spiMode(obj.settings), 8)
	if err != nil {
		obj.port.Close()
		obj.port = nil
		return fmt.Errorf("failed to connect to SPI port %q: %w", obj.name, err)
	}
	return nil
}

func (obj *SPIBus) End() error {
	if obj.port == nil {
		return nil
	}
	err := obj.port.Close()
	obj.port = nil
	obj.conn = nil
	if err != nil {
		return fmt.Errorf("failed to close SPI port: %w", err)
	}
	return nil
}

// BeginTransaction locks the bus. The connection is configured once in Begin so settings must match it.
func (obj *SPIBus) BeginTransaction(settings hal.SPISettings) error {
	if settings != obj.settings {
		return fmt.Errorf("SPI bus configured with %+v, transaction requested %+v", obj.settings, settings)
	}
	obj.muBus.Lock()
	obj.muState.Lock()
	obj.inTx = true
	obj.muState.Unlock()
	return nil
}

func (obj *SPIBus) EndTransaction() error {
	obj.muState.Lock()
	if !obj.inTx {
		obj.muState.Unlock()
		return fmt.Errorf("no SPI transaction in progress")
	}
	obj.inTx = false
	obj.muState.Unlock()
	obj.muBus.Unlock()
	return nil
}

func (obj *SPIBus) Transfer(b byte) (byte, error) {
	if obj.conn == nil {
		return 0, fmt.Errorf("SPI port %q is not connected", obj.name)
	}
	r := make([]byte, 1)
	err := obj.conn.Tx([]byte{b}, r)
	if err != nil {
		return 0, fmt.Errorf("failed to transfer byte: %w", err)
	}
	return r[0], nil
}

func spiMode(settings hal.SPISettings) spi.Mode {
	mode := spi.Mode(settings.Mode&0x03) | spi.NoCS
	if settings.BitOrder == hal.LSBFirst {
		mode |= spi.LSBFirst
	}
	return mode
}
