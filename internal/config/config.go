// internal/config/config.go
package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Interface string     `yaml:"interface"` // "spi" or "uart"
	SPI       SPIConfig  `yaml:"spi"`
	UART      UARTConfig `yaml:"uart"`
	GPIO      GPIOConfig `yaml:"gpio"`
	Debug     bool       `yaml:"debug"`
}

// ---- SPI ----

type SPIConfig struct {
	Device          string `yaml:"device"` // spireg name, e.g. /dev/spidev0.0
	FrequencyHz     uint32 `yaml:"frequency_hz"`
	Mode            uint8  `yaml:"mode"`
	LSBFirst        bool   `yaml:"lsb_first"`
	ReadCommand     *uint8 `yaml:"read_command"`
	WriteCommand    *uint8 `yaml:"write_command"`
	CheckIntervalUs int    `yaml:"check_interval_us"`
}

// ---- UART ----

type UARTConfig struct {
	Port      string `yaml:"port"`
	Baud      int    `yaml:"baud"`
	Parity    string `yaml:"parity"` // N, O, E
	LineFeed  string `yaml:"line_feed"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// ---- GPIO ----

type GPIOConfig struct {
	Chip string `yaml:"chip"`
	CS   int    `yaml:"cs"`
	DIO0 *int   `yaml:"dio0"` // optional
	DIO1 *int   `yaml:"dio1"` // optional
}

// Load reads, validates and normalizes the config file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML config. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	Normalize(cfg)
	return cfg, nil
}
