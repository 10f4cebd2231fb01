package common

import (
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/tarm/serial"
)

// pollInterval is the serial read timeout. Reader goroutine wakes up at least this often to check for Close.
const pollInterval = 50 * time.Millisecond

// SerialPort is a tarm serial port with a receive FIFO filled by a background reader,
// so the module can poll how many bytes are waiting like on a microcontroller UART
type SerialPort struct {
	tty      string
	parity   serial.Parity
	stream   *serial.Port
	muRx     sync.Mutex // rx buffer protection mutex
	rx       []byte
	readErr  error
	done     chan struct{}
	readerWg sync.WaitGroup
}

func NewSerialPort(ttyName string, parity serial.Parity) *SerialPort {
	return &SerialPort{
		tty:    ttyName,
		parity: parity,
	}
}

// Begin opens the port, an already open port is closed and reopened with the new baud rate
func (obj *SerialPort) Begin(baudRate int) error {
	if obj.stream != nil {
		err := obj.stream.Flush()
		if err != nil {
			return fmt.Errorf("failed to flush serial stream: %w", err)
		}
		err = obj.Close()
		if err != nil {
			return err
		}
	}

	config := &serial.Config{
		Name:        obj.tty,
		Baud:        baudRate,
		Size:        8,
		ReadTimeout: pollInterval,
		Parity:      obj.parity,
	}
	stream, err := serial.OpenPort(config)
	if err != nil {
		return fmt.Errorf("failed to open serial port, err: %w", err)
	}
	obj.stream = stream
	obj.start(stream)
	return nil
}

func (obj *SerialPort) start(r io.Reader) {
	obj.muRx.Lock()
	obj.rx = nil
	obj.readErr = nil
	obj.muRx.Unlock()
	obj.done = make(chan struct{})
	obj.readerWg.Add(1)
	go obj.readLoop(r, obj.done)
}

func (obj *SerialPort) readLoop(r io.Reader, done chan struct{}) {
	defer obj.readerWg.Done()
	buf := make([]byte, 512)
	for {
		select {
		case <-done:
			return
		default:
		}
		n, err := r.Read(buf)
		if n > 0 {
			obj.muRx.Lock()
			obj.rx = append(obj.rx, buf[:n]...)
			obj.muRx.Unlock()
		}
		if err != nil {
			// read timeout without data is reported as EOF
			if errors.Is(err, io.EOF) {
				continue
			}
			select {
			case <-done:
				return
			default:
			}
			log.Printf("serial %s receive failed: %s", obj.tty, err)
			obj.muRx.Lock()
			obj.readErr = err
			obj.muRx.Unlock()
			return
		}
	}
}

// Available returns number of received bytes that are not read yet.
// After a receive failure an empty FIFO reports one byte, so the next ReadByte returns the error.
func (obj *SerialPort) Available() int {
	obj.muRx.Lock()
	defer obj.muRx.Unlock()
	if len(obj.rx) == 0 && obj.readErr != nil {
		return 1
	}
	return len(obj.rx)
}

func (obj *SerialPort) ReadByte() (byte, error) {
	obj.muRx.Lock()
	defer obj.muRx.Unlock()
	if len(obj.rx) == 0 {
		if obj.readErr != nil {
			return 0, fmt.Errorf("failed to receive data: %w", obj.readErr)
		}
		return 0, io.EOF
	}
	c := obj.rx[0]
	obj.rx = obj.rx[1:]
	return c, nil
}

func (obj *SerialPort) Write(p []byte) (int, error) {
	if obj.stream == nil {
		return 0, fmt.Errorf("serial port %s is not open", obj.tty)
	}
	n, err := obj.stream.Write(p)
	if err != nil {
		return n, fmt.Errorf("failed to send data, err: %w", err)
	}
	return n, nil
}

// Close stops the reader and closes the port
func (obj *SerialPort) Close() error {
	if obj.stream == nil {
		return nil
	}
	close(obj.done)
	err := obj.stream.Close()
	obj.readerWg.Wait()
	obj.stream = nil
	if err != nil {
		return fmt.Errorf("failed to close serial stream: %w", err)
	}
	return nil
}
