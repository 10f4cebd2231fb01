package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/mbalug7/go-radio-module/internal/config"
	"github.com/mbalug7/go-radio-module/pkg/common"
	"github.com/mbalug7/go-radio-module/pkg/hal"
	"github.com/mbalug7/go-radio-module/pkg/radio"
	"github.com/tarm/serial"
)

var serialParityMap = map[string]serial.Parity{
	"N": serial.ParityNone,
	"O": serial.ParityOdd,
	"E": serial.ParityEven,
}

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-config radio.yaml] <command> [args]\n\n%s\n", os.Args[0], commandsHelp)
	flag.PrintDefaults()
}

func main() {
	cfgPath := flag.String("config", "radio.yaml", "module configuration file")
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	err = execute(cfg, flag.Args())
	if err != nil {
		log.Fatal(err)
	}
}

func execute(cfg *config.Config, args []string) (err error) {
	// create GPIO lines, chip select is needed only for SPI modules
	var lines *common.Lines
	if cfg.GPIO.Chip != "" {
		cs := -1
		if cfg.Interface == config.InterfaceSPI {
			cs = cfg.GPIO.CS
		}
		lines, err = common.NewLines(cfg.GPIO.Chip, cs, lineOffset(cfg.GPIO.DIO0), lineOffset(cfg.GPIO.DIO1))
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := lines.Close(); closeErr != nil {
				log.Printf("failed to close GPIO lines: %s", closeErr)
			}
		}()
	}

	module := newModule(cfg, lines)
	err = module.Init(gpioSelect(cfg))
	if err != nil {
		return fmt.Errorf("failed to init %s module: %w", module.Interface(), err)
	}
	defer func() {
		if termErr := module.Term(); termErr != nil {
			log.Printf("failed to terminate module: %s", termErr)
		}
	}()

	var waiter interruptWaiter
	if lines != nil {
		waiter = lines
	}
	cmd := &commands{
		module:        module,
		interrupts:    waiter,
		checkInterval: time.Duration(cfg.SPI.CheckIntervalUs) * time.Microsecond,
		out:           os.Stdout,
	}
	err = cmd.run(args)
	if err != nil {
		return fmt.Errorf("%s failed: %w", args[0], err)
	}
	return nil
}

func newModule(cfg *config.Config, lines *common.Lines) *radio.Module {
	var debug hal.DebugSink
	if cfg.Debug {
		debug = log.New(os.Stderr, "debug: ", log.Lmicroseconds)
	}
	opts := []radio.Option{radio.WithDebug(debug)}
	if lines != nil {
		opts = append(opts, radio.WithDIO(lines.DIO(0), lines.DIO(1)))
	}

	if cfg.Interface == config.InterfaceUART {
		opts = append(opts,
			radio.WithBaudRate(cfg.UART.Baud),
			radio.WithLineFeed(cfg.UART.LineFeed),
			radio.WithATTimeout(time.Duration(cfg.UART.TimeoutMs)*time.Millisecond),
		)
		return radio.NewUART(common.NewSerialPort(cfg.UART.Port, serialParityMap[cfg.UART.Parity]), opts...)
	}

	settings := hal.SPISettings{
		Frequency: cfg.SPI.FrequencyHz,
		Mode:      cfg.SPI.Mode,
		BitOrder:  hal.MSBFirst,
	}
	if cfg.SPI.LSBFirst {
		settings.BitOrder = hal.LSBFirst
	}
	read, write := radio.SPIReadCommand, radio.SPIWriteCommand
	if cfg.SPI.ReadCommand != nil {
		read = *cfg.SPI.ReadCommand
	}
	if cfg.SPI.WriteCommand != nil {
		write = *cfg.SPI.WriteCommand
	}
	opts = append(opts, radio.WithSettings(settings), radio.WithCommands(read, write))
	return radio.NewSPI(common.NewSPIBus(cfg.SPI.Device, settings), lines.ChipSelect(), opts...)
}

func lineOffset(offset *int) int {
	if offset == nil {
		return -1
	}
	return *offset
}

func gpioSelect(cfg *config.Config) radio.GPIOSelect {
	switch {
	case cfg.GPIO.DIO0 != nil && cfg.GPIO.DIO1 != nil:
		return radio.IntBoth
	case cfg.GPIO.DIO0 != nil:
		return radio.Int0
	case cfg.GPIO.DIO1 != nil:
		return radio.Int1
	}
	return radio.IntNone
}
