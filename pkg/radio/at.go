package radio

import (
	"bytes"
	"fmt"
	"time"

	"github.com/mbalug7/go-radio-module/pkg/hal"
)

var (
	responseOK    = []byte("OK")
	responseError = []byte("ERROR")
)

// LineProtocol exchanges AT commands with the module.
// Only one command can be outstanding, callers serialize their own exchanges.
type LineProtocol struct {
	port     hal.SerialPort
	lineFeed string
	timeout  time.Duration
	debug    hal.DebugSink
	clock    hal.Clock
}

var _ hal.CommandChannel = (*LineProtocol)(nil)

// ATEmptyBuffer drops everything that is waiting in the receive buffer
func (obj *LineProtocol) ATEmptyBuffer() error {
	for obj.port.Available() > 0 {
		_, err := obj.port.ReadByte()
		if err != nil {
			return fmt.Errorf("failed to empty receive buffer: %w", err)
		}
	}
	return nil
}

// ATSendCommand sends cmd terminated with line feed and waits for OK or ERROR
func (obj *LineProtocol) ATSendCommand(cmd string) error {
	err := obj.ATEmptyBuffer()
	if err != nil {
		return err
	}
	_, err = obj.port.Write([]byte(cmd + obj.lineFeed))
	if err != nil {
		return fmt.Errorf("failed to send command %q: %w", cmd, err)
	}
	return obj.ATGetResponse()
}

func (obj *LineProtocol) ATSendCommandf(format string, args ...any) error {
	return obj.ATSendCommand(fmt.Sprintf(format, args...))
}

// ATSendData sends raw bytes terminated with line feed and waits for OK or ERROR
func (obj *LineProtocol) ATSendData(data []byte) error {
	err := obj.ATEmptyBuffer()
	if err != nil {
		return err
	}
	_, err = obj.port.Write(data)
	if err != nil {
		return fmt.Errorf("failed to send %d data bytes: %w", len(data), err)
	}
	_, err = obj.port.Write([]byte(obj.lineFeed))
	if err != nil {
		return fmt.Errorf("failed to send line feed: %w", err)
	}
	return obj.ATGetResponse()
}

// ATGetResponse collects module output until it contains OK (nil), ERROR (ErrATCommandFailed)
// or the timeout elapses (ErrATTimeout). Keywords are matched anywhere in the collected data.
func (obj *LineProtocol) ATGetResponse() error {
	var data []byte

	start := obj.clock.Now()
	for obj.clock.Now().Sub(start) < obj.timeout {
		drained := len(data)
		for obj.port.Available() > 0 {
			c, err := obj.port.ReadByte()
			if err != nil {
				obj.mirror(data[drained:])
				return fmt.Errorf("failed to read response: %w", err)
			}
			data = append(data, c)
		}
		obj.mirror(data[drained:])

		if bytes.Contains(data, responseOK) {
			return nil
		} else if bytes.Contains(data, responseError) {
			return hal.ErrATCommandFailed
		}
	}
	return fmt.Errorf("%w after %s", hal.ErrATTimeout, obj.timeout)
}

// mirror writes received bytes to the debug sink
func (obj *LineProtocol) mirror(chunk []byte) {
	if len(chunk) > 0 {
		obj.debug.Printf("%s", chunk)
	}
}
