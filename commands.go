package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/mbalug7/go-radio-module/internal/console"
	"github.com/mbalug7/go-radio-module/pkg/hal"
	"github.com/mbalug7/go-radio-module/pkg/radio"
)

const commandsHelp = `commands:
  get ADDR MSB LSB          read register bits MSB..LSB (spi)
  set ADDR VALUE MSB LSB    write register bits MSB..LSB and verify (spi)
  read ADDR [N]             read N registers starting at ADDR (spi)
  write ADDR BYTE...        write registers starting at ADDR, not verified (spi)
  at COMMAND...             send AT command (uart)
  console                   interactive AT prompt (uart)
  wait DIO TIMEOUT          wait for rising edge on DIO0 or DIO1, e.g. wait 0 2s

numbers accept 0x, 0b and 0o prefixes`

type interruptWaiter interface {
	WaitRising(n int, timeout time.Duration) error
}

type commands struct {
	module        *radio.Module
	interrupts    interruptWaiter
	checkInterval time.Duration
	out           io.Writer
}

func (obj *commands) run(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("no command given")
	}
	name, args := args[0], args[1:]
	switch name {
	case "get", "set", "read", "write":
		regs, err := obj.module.Registers()
		if err != nil {
			return err
		}
		return obj.runRegister(regs, name, args)
	case "at", "console":
		at, err := obj.module.AT()
		if err != nil {
			return err
		}
		if name == "console" {
			c, err := console.New(at)
			if err != nil {
				return err
			}
			c.Run()
			return nil
		}
		if len(args) == 0 {
			return fmt.Errorf("usage: at COMMAND")
		}
		err = at.ATSendCommand(strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Fprintln(obj.out, "OK")
		return nil
	case "wait":
		return obj.runWait(args)
	}
	return fmt.Errorf("unknown command %q", name)
}

func (obj *commands) runRegister(regs hal.RegisterAccess, name string, args []string) error {
	switch name {
	case "get":
		n, err := parseBytes(args, 3, 3)
		if err != nil {
			return fmt.Errorf("usage: get ADDR MSB LSB: %w", err)
		}
		value, err := regs.GetRegValue(hal.RegAddress(n[0]), n[1], n[2])
		if err != nil {
			return err
		}
		fmt.Fprintf(obj.out, "0x%02X [%d:%d] = 0x%02X (0b%b)\n", n[0], n[1], n[2], value, value)
	case "set":
		n, err := parseBytes(args, 4, 4)
		if err != nil {
			return fmt.Errorf("usage: set ADDR VALUE MSB LSB: %w", err)
		}
		return regs.SetRegValue(hal.RegAddress(n[0]), n[1], n[2], n[3], obj.checkInterval)
	case "read":
		n, err := parseBytes(args, 1, 2)
		if err != nil {
			return fmt.Errorf("usage: read ADDR [N]: %w", err)
		}
		count := 1
		if len(n) == 2 {
			count = int(n[1])
		}
		data, err := regs.ReadRegisterBurst(hal.RegAddress(n[0]), count)
		if err != nil {
			return err
		}
		for i, b := range data {
			fmt.Fprintf(obj.out, "0x%02X: 0x%02X\n", int(n[0])+i, b)
		}
	case "write":
		n, err := parseBytes(args, 2, 256)
		if err != nil {
			return fmt.Errorf("usage: write ADDR BYTE...: %w", err)
		}
		if len(n) == 2 {
			return regs.WriteRegister(hal.RegAddress(n[0]), n[1])
		}
		return regs.WriteRegisterBurst(hal.RegAddress(n[0]), n[1:])
	}
	return nil
}

func (obj *commands) runWait(args []string) error {
	if obj.interrupts == nil {
		return fmt.Errorf("no DIO lines configured: %w", hal.ErrLineNotConfigured)
	}
	if len(args) != 2 {
		return fmt.Errorf("usage: wait DIO TIMEOUT")
	}
	dio, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid DIO number %q", args[0])
	}
	timeout, err := time.ParseDuration(args[1])
	if err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	// only lines selected on init can be waited on
	_, err = obj.module.DIO(dio)
	if err != nil {
		return err
	}
	err = obj.interrupts.WaitRising(dio, timeout)
	if err != nil {
		return err
	}
	fmt.Fprintf(obj.out, "DIO%d high\n", dio)
	return nil
}

func parseBytes(args []string, minArgs int, maxArgs int) ([]uint8, error) {
	if len(args) < minArgs || len(args) > maxArgs {
		return nil, fmt.Errorf("expected %d to %d arguments, got %d", minArgs, maxArgs, len(args))
	}
	out := make([]uint8, len(args))
	for i, arg := range args {
		v, err := strconv.ParseUint(arg, 0, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid byte %q", arg)
		}
		out[i] = uint8(v)
	}
	return out, nil
}
