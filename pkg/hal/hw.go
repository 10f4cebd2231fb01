package hal

import (
	"io"
	"log"
	"time"
)

type BitOrder int

const (
	MSBFirst BitOrder = iota
	LSBFirst
)

// SPISettings are applied to every register transaction
type SPISettings struct {
	Frequency uint32 // Hz
	Mode      uint8  // 0-3, CPOL/CPHA
	BitOrder  BitOrder
}

// DefaultSPISettings 2 MHz, mode 0, MSB first
var DefaultSPISettings = SPISettings{Frequency: 2000000, Mode: 0, BitOrder: MSBFirst}

// SPIBus is a shared byte bus. BeginTransaction must give the caller exclusive ownership of the bus
// until EndTransaction is called.
type SPIBus interface {
	Begin() error
	End() error
	BeginTransaction(settings SPISettings) error
	EndTransaction() error
	Transfer(b byte) (byte, error)
}

// OutputLine is a GPIO output, chip select for example
type OutputLine interface {
	SetValue(value int) error
}

// InputLine is a GPIO input, DIO interrupt lines for example
type InputLine interface {
	Value() (int, error)
}

// SerialPort is a byte stream with a receive FIFO
type SerialPort interface {
	Begin(baudRate int) error
	Available() int
	ReadByte() (byte, error)
	Write(p []byte) (int, error)
	Close() error
}

// DebugSink receives diagnostic output, *log.Logger satisfies it
type DebugSink interface {
	Printf(format string, v ...any)
}

// NoDebug discards everything
var NoDebug DebugSink = log.New(io.Discard, "", 0)

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// SystemClock reads the monotonic system clock
var SystemClock Clock = systemClock{}
