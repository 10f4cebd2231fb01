package common

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/mazen160/go-random"
	"github.com/mbalug7/go-radio-module/pkg/hal"
	"github.com/warthog618/gpiod"
)

// Lines holds GPIO lines used by the radio module: chip select and up to two DIO interrupt lines
type Lines struct {
	chip      *gpiod.Chip
	CSLine    *gpiod.Line    // chip select, active low
	DIOLines  [2]*gpiod.Line // DIO0, DIO1 interrupt inputs
	dioOffset [2]int
	muWaiters sync.Mutex             // waiters map protection mutex
	waiters   map[string]*edgeWaiter // holds channels that wait for rising DIO edge
}

type edgeWaiter struct {
	dio  int
	done chan struct{}
}

// NewLines requests chip select line as output and DIO lines as rising edge inputs.
// Negative pin means that the line is not wired.
func NewLines(gpioChip string, csPin int, dio0Pin int, dio1Pin int) (*Lines, error) {
	lines := &Lines{
		dioOffset: [2]int{dio0Pin, dio1Pin},
		waiters:   make(map[string]*edgeWaiter),
	}
	var err error
	lines.chip, err = gpiod.NewChip(gpioChip, gpiod.WithConsumer("radio-module"))
	if err != nil {
		return nil, fmt.Errorf("failed to create GPIO chip: %w", err)
	}

	if csPin >= 0 {
		lines.CSLine, err = lines.chip.RequestLine(csPin, gpiod.AsOutput(1))
		if err != nil {
			lines.Close()
			return nil, fmt.Errorf("failed to request CS GPIO line: %w", err)
		}
	}

	for i, pin := range lines.dioOffset {
		if pin < 0 {
			continue
		}
		lines.DIOLines[i], err = lines.chip.RequestLine(pin, gpiod.WithEventHandler(lines.onDIORiseEvent), gpiod.WithRisingEdge)
		if err != nil {
			lines.Close()
			return nil, fmt.Errorf("failed to request DIO%d GPIO line: %w", i, err)
		}
	}
	return lines, nil
}

// ChipSelect returns chip select line, nil if not requested
func (obj *Lines) ChipSelect() hal.OutputLine {
	if obj.CSLine == nil {
		return nil
	}
	return obj.CSLine
}

// DIO returns interrupt line n, nil if it is not wired
func (obj *Lines) DIO(n int) hal.InputLine {
	if n < 0 || n >= len(obj.DIOLines) || obj.DIOLines[n] == nil {
		return nil
	}
	return obj.DIOLines[n]
}

// Close releases every line and the chip, the first failure is returned
func (obj *Lines) Close() error {
	var items []namedCloser
	for i, line := range obj.DIOLines {
		if line != nil {
			items = append(items, namedCloser{name: fmt.Sprintf("DIO%d line", i), c: line})
		}
	}
	if obj.CSLine != nil {
		items = append(items, namedCloser{name: "CS line", c: obj.CSLine})
	}
	if obj.chip != nil {
		items = append(items, namedCloser{name: "GPIO chip", c: obj.chip})
	}
	return closeAll(items)
}

type namedCloser struct {
	name string
	c    io.Closer
}

// closeAll closes every item even after a failure
func closeAll(items []namedCloser) error {
	var firstErr error
	for _, item := range items {
		err := item.c.Close()
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close %s: %w", item.name, err)
		}
	}
	return firstErr
}

// WaitRising blocks until DIO n is high or rises, or timeout elapses
func (obj *Lines) WaitRising(n int, timeout time.Duration) error {
	line := obj.DIO(n)
	if line == nil {
		return fmt.Errorf("DIO%d: %w", n, hal.ErrLineNotConfigured)
	}
	return obj.waitRising(n, line, timeout)
}

// waitRising registers the waiter before sampling the line so an edge between the two is not lost
func (obj *Lines) waitRising(n int, line hal.InputLine, timeout time.Duration) error {
	id, w, err := obj.addWaiter(n)
	if err != nil {
		return err
	}
	val, err := line.Value()
	if err != nil {
		obj.removeWaiter(id)
		return fmt.Errorf("failed to get DIO%d line value: %w", n, err)
	}
	if val == 1 {
		obj.removeWaiter(id)
		return nil
	}
	return obj.awaitEdge(id, w, timeout)
}

func (obj *Lines) addWaiter(n int) (string, *edgeWaiter, error) {
	id, err := random.String(16)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate random id: %w", err)
	}
	w := &edgeWaiter{dio: n, done: make(chan struct{}, 1)}
	obj.muWaiters.Lock()
	obj.waiters[id] = w
	obj.muWaiters.Unlock()
	return id, w, nil
}

func (obj *Lines) removeWaiter(id string) {
	obj.muWaiters.Lock()
	delete(obj.waiters, id)
	obj.muWaiters.Unlock()
}

func (obj *Lines) awaitEdge(id string, w *edgeWaiter, timeout time.Duration) error {
	select {
	case <-time.After(timeout):
		obj.removeWaiter(id)
		return fmt.Errorf("DIO%d after %s: %w", w.dio, timeout, hal.ErrInterruptTimeout)
	case <-w.done:
		return nil
	}
}

func (obj *Lines) onDIORiseEvent(evt gpiod.LineEvent) {
	for i, offset := range obj.dioOffset {
		if offset >= 0 && offset == evt.Offset {
			obj.notifyWaiters(i)
		}
	}
}

func (obj *Lines) notifyWaiters(n int) {
	obj.muWaiters.Lock()
	defer obj.muWaiters.Unlock()
	for id, w := range obj.waiters {
		if w.dio != n {
			continue
		}
		w.done <- struct{}{}
		delete(obj.waiters, id)
	}
}
