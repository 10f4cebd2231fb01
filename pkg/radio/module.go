package radio

import (
	"fmt"

	"github.com/mbalug7/go-radio-module/pkg/hal"
)

type Interface int

const (
	InterfaceSPI Interface = iota
	InterfaceUART
)

func (i Interface) String() string {
	switch i {
	case InterfaceSPI:
		return "spi"
	case InterfaceUART:
		return "uart"
	}
	return fmt.Sprintf("interface(%d)", int(i))
}

// GPIOSelect selects which DIO interrupt lines are used by the module
type GPIOSelect int

const (
	IntNone GPIOSelect = iota
	Int0
	Int1
	IntBoth
)

// Module is a handle for one physical radio module. Interface is chosen on construction and
// can't be changed later.
type Module struct {
	iface     Interface
	cfg       config
	spi       hal.SPIBus
	cs        hal.OutputLine
	port      hal.SerialPort
	gpio      GPIOSelect
	registers *RegisterBus
	at        *LineProtocol
}

// NewSPI creates a module that is reachable over SPI bus, cs is the chip select line driven by the module
func NewSPI(bus hal.SPIBus, cs hal.OutputLine, opts ...Option) *Module {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	m := &Module{
		iface: InterfaceSPI,
		cfg:   cfg,
		spi:   bus,
		cs:    cs,
	}
	m.registers = &RegisterBus{
		bus:          bus,
		cs:           cs,
		settings:     cfg.settings,
		readCommand:  cfg.readCommand,
		writeCommand: cfg.writeCommand,
		debug:        cfg.debug,
		clock:        cfg.clock,
	}
	return m
}

// NewUART creates a module that is driven by AT commands over a serial port
func NewUART(port hal.SerialPort, opts ...Option) *Module {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	m := &Module{
		iface: InterfaceUART,
		cfg:   cfg,
		port:  port,
	}
	m.at = &LineProtocol{
		port:     port,
		lineFeed: cfg.lineFeed,
		timeout:  cfg.atTimeout,
		debug:    cfg.debug,
		clock:    cfg.clock,
	}
	return m
}

func (obj *Module) Interface() Interface {
	return obj.iface
}

// Init starts the bus and checks that the selected interrupt lines are wired
func (obj *Module) Init(gpio GPIOSelect) error {
	switch gpio {
	case IntNone:
	case Int0, Int1:
		if obj.cfg.dio[gpio-Int0] == nil {
			return fmt.Errorf("failed to select DIO%d: %w", gpio-Int0, hal.ErrLineNotConfigured)
		}
	case IntBoth:
		for i, line := range obj.cfg.dio {
			if line == nil {
				return fmt.Errorf("failed to select DIO%d: %w", i, hal.ErrLineNotConfigured)
			}
		}
	default:
		return fmt.Errorf("unsupported GPIO selection: %d", gpio)
	}

	switch obj.iface {
	case InterfaceSPI:
		// chip select is active low, release it before the bus starts clocking
		err := obj.cs.SetValue(1)
		if err != nil {
			return fmt.Errorf("failed to release chip select: %w", err)
		}
		err = obj.spi.Begin()
		if err != nil {
			return fmt.Errorf("failed to start SPI bus: %w", err)
		}
	case InterfaceUART:
		err := obj.port.Begin(obj.cfg.baudRate)
		if err != nil {
			return fmt.Errorf("failed to open serial port at %d baud: %w", obj.cfg.baudRate, err)
		}
	}
	obj.gpio = gpio
	return nil
}

// Term releases the bus
func (obj *Module) Term() error {
	switch obj.iface {
	case InterfaceSPI:
		err := obj.spi.End()
		if err != nil {
			return fmt.Errorf("failed to stop SPI bus: %w", err)
		}
	case InterfaceUART:
		err := obj.port.Close()
		if err != nil {
			return fmt.Errorf("failed to close serial port: %w", err)
		}
	}
	return nil
}

// Registers returns register engine, available only on SPI modules
func (obj *Module) Registers() (*RegisterBus, error) {
	if obj.iface != InterfaceSPI {
		return nil, fmt.Errorf("registers on %s module: %w", obj.iface, hal.ErrWrongInterface)
	}
	return obj.registers, nil
}

// AT returns AT command engine, available only on UART modules
func (obj *Module) AT() (*LineProtocol, error) {
	if obj.iface != InterfaceUART {
		return nil, fmt.Errorf("AT commands on %s module: %w", obj.iface, hal.ErrWrongInterface)
	}
	return obj.at, nil
}

// DIO returns interrupt line n if it was selected in Init
func (obj *Module) DIO(n int) (hal.InputLine, error) {
	if n < 0 || n > 1 {
		return nil, fmt.Errorf("DIO%d doesn't exist", n)
	}
	selected := obj.gpio == IntBoth || (n == 0 && obj.gpio == Int0) || (n == 1 && obj.gpio == Int1)
	if !selected || obj.cfg.dio[n] == nil {
		return nil, fmt.Errorf("DIO%d: %w", n, hal.ErrLineNotConfigured)
	}
	return obj.cfg.dio[n], nil
}
