package radio

import (
	"time"

	"github.com/mbalug7/go-radio-module/pkg/hal"
)

const (
	// SPIReadCommand and SPIWriteCommand are OR'd into the register address
	SPIReadCommand  byte = 0x00
	SPIWriteCommand byte = 0x80

	DefaultBaudRate      = 9600
	DefaultLineFeed      = "\r\n"
	DefaultATTimeout     = 1 * time.Second
	DefaultCheckInterval = 2 * time.Millisecond
)

type config struct {
	settings     hal.SPISettings
	readCommand  byte
	writeCommand byte
	baudRate     int
	lineFeed     string
	atTimeout    time.Duration
	debug        hal.DebugSink
	clock        hal.Clock
	dio          [2]hal.InputLine
}

func defaultConfig() config {
	return config{
		settings:     hal.DefaultSPISettings,
		readCommand:  SPIReadCommand,
		writeCommand: SPIWriteCommand,
		baudRate:     DefaultBaudRate,
		lineFeed:     DefaultLineFeed,
		atTimeout:    DefaultATTimeout,
		debug:        hal.NoDebug,
		clock:        hal.SystemClock,
	}
}

// Option is a functional option for configuring the Module
type Option func(*config)

// WithSettings sets SPI transaction settings
func WithSettings(settings hal.SPISettings) Option {
	return func(c *config) {
		c.settings = settings
	}
}

// WithCommands sets read and write access bits merged into the register address.
// Some chips use the MSB as a read flag instead of a write flag.
func WithCommands(read byte, write byte) Option {
	return func(c *config) {
		c.readCommand = read
		c.writeCommand = write
	}
}

func WithBaudRate(baudRate int) Option {
	return func(c *config) {
		c.baudRate = baudRate
	}
}

// WithLineFeed sets the AT command terminator
func WithLineFeed(lineFeed string) Option {
	return func(c *config) {
		c.lineFeed = lineFeed
	}
}

// WithATTimeout sets how long ATGetResponse waits for OK or ERROR
func WithATTimeout(timeout time.Duration) Option {
	return func(c *config) {
		c.atTimeout = timeout
	}
}

// WithDebug sets debug sink, nil disables debug output
//
// Example:
//
//	m := radio.NewUART(port, radio.WithDebug(log.New(os.Stderr, "radio: ", 0)))
func WithDebug(sink hal.DebugSink) Option {
	return func(c *config) {
		if sink == nil {
			sink = hal.NoDebug
		}
		c.debug = sink
	}
}

// WithClock sets the clock used for timeouts, nil selects hal.SystemClock
func WithClock(clock hal.Clock) Option {
	return func(c *config) {
		if clock == nil {
			clock = hal.SystemClock
		}
		c.clock = clock
	}
}

// WithDIO attaches interrupt lines, nil for a line that is not wired
func WithDIO(int0 hal.InputLine, int1 hal.InputLine) Option {
	return func(c *config) {
		c.dio = [2]hal.InputLine{int0, int1}
	}
}
