// internal/config/normalize.go
package config

const (
	defaultSPIFrequencyHz  = 2000000
	defaultCheckIntervalUs = 2000
	defaultBaud            = 9600
	defaultParity          = "N"
	defaultLineFeed        = "\r\n"
	defaultTimeoutMs       = 1000
)

// Normalize fills defaults.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.SPI.FrequencyHz == 0 {
		cfg.SPI.FrequencyHz = defaultSPIFrequencyHz
	}
	if cfg.SPI.CheckIntervalUs == 0 {
		cfg.SPI.CheckIntervalUs = defaultCheckIntervalUs
	}

	if cfg.UART.Baud == 0 {
		cfg.UART.Baud = defaultBaud
	}
	if cfg.UART.Parity == "" {
		cfg.UART.Parity = defaultParity
	}
	if cfg.UART.LineFeed == "" {
		cfg.UART.LineFeed = defaultLineFeed
	}
	if cfg.UART.TimeoutMs == 0 {
		cfg.UART.TimeoutMs = defaultTimeoutMs
	}
}
