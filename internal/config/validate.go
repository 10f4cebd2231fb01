// internal/config/validate.go
package config

import (
	"fmt"
)

const (
	InterfaceSPI  = "spi"
	InterfaceUART = "uart"
)

// Validate checks configuration correctness.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is empty")
	}

	switch cfg.Interface {
	case InterfaceSPI:
		if cfg.SPI.Mode > 3 {
			return fmt.Errorf("spi: mode %d is out of range 0-3", cfg.SPI.Mode)
		}
		if cfg.SPI.CheckIntervalUs < 0 {
			return fmt.Errorf("spi: check_interval_us must not be negative")
		}
		if cfg.SPI.ReadCommand != nil && cfg.SPI.WriteCommand != nil && *cfg.SPI.ReadCommand == *cfg.SPI.WriteCommand {
			return fmt.Errorf("spi: read_command and write_command must differ")
		}
		if cfg.GPIO.Chip == "" {
			return fmt.Errorf("gpio: chip is required for spi interface")
		}
		if cfg.GPIO.CS < 0 {
			return fmt.Errorf("gpio: cs line offset must not be negative")
		}

	case InterfaceUART:
		if cfg.UART.Port == "" {
			return fmt.Errorf("uart: port is required")
		}
		if cfg.UART.Baud < 0 {
			return fmt.Errorf("uart: baud must not be negative")
		}
		switch cfg.UART.Parity {
		case "", "N", "O", "E":
		default:
			return fmt.Errorf("uart: unsupported parity %q", cfg.UART.Parity)
		}
		if cfg.UART.TimeoutMs < 0 {
			return fmt.Errorf("uart: timeout_ms must not be negative")
		}

	default:
		return fmt.Errorf("interface must be %q or %q, got %q", InterfaceSPI, InterfaceUART, cfg.Interface)
	}

	for i, dio := range []*int{cfg.GPIO.DIO0, cfg.GPIO.DIO1} {
		name := fmt.Sprintf("dio%d", i)
		if dio == nil {
			continue
		}
		if cfg.GPIO.Chip == "" {
			return fmt.Errorf("gpio: %s requires chip", name)
		}
		if *dio < 0 {
			return fmt.Errorf("gpio: %s line offset must not be negative", name)
		}
		if cfg.Interface == InterfaceSPI && *dio == cfg.GPIO.CS {
			return fmt.Errorf("gpio: %s uses the cs line %d", name, cfg.GPIO.CS)
		}
	}
	if cfg.GPIO.DIO0 != nil && cfg.GPIO.DIO1 != nil && *cfg.GPIO.DIO0 == *cfg.GPIO.DIO1 {
		return fmt.Errorf("gpio: dio0 and dio1 use the same line %d", *cfg.GPIO.DIO0)
	}
	return nil
}
