package common

import (
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warthog618/gpiod"
	"periph.io/x/conn/v3/spi"

	"github.com/mbalug7/go-radio-module/pkg/hal"
	"github.com/mbalug7/go-radio-module/pkg/radio"
)

func TestSPIMode(t *testing.T) {
	assert.Equal(t, spi.Mode0|spi.NoCS, spiMode(hal.SPISettings{Mode: 0}))
	assert.Equal(t, spi.Mode3|spi.NoCS, spiMode(hal.SPISettings{Mode: 3}))
	assert.Equal(t, spi.Mode1|spi.NoCS|spi.LSBFirst, spiMode(hal.SPISettings{Mode: 1, BitOrder: hal.LSBFirst}))
}

func TestSPIBus_TransactionOwnership(t *testing.T) {
	bus := NewSPIBus("", hal.DefaultSPISettings)

	require.Error(t, bus.EndTransaction())
	require.Error(t, bus.BeginTransaction(hal.SPISettings{Frequency: 1}))

	require.NoError(t, bus.BeginTransaction(hal.DefaultSPISettings))

	acquired := make(chan struct{})
	go func() {
		_ = bus.BeginTransaction(hal.DefaultSPISettings)
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second transaction started while the bus was owned")
	case <-time.After(20 * time.Millisecond):
	}

	require.NoError(t, bus.EndTransaction())
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second transaction never started")
	}
	require.NoError(t, bus.EndTransaction())

	_, err := bus.Transfer(0x00)
	assert.Error(t, err)
}

func newTestLines() *Lines {
	return &Lines{
		dioOffset: [2]int{17, -1},
		waiters:   make(map[string]*edgeWaiter),
	}
}

// dioLine is a DIO input, onRead runs while the level is sampled
type dioLine struct {
	value  int
	onRead func()
}

func (l *dioLine) Value() (int, error) {
	if l.onRead != nil {
		l.onRead()
	}
	return l.value, nil
}

func TestLines_WaitRisingEdge(t *testing.T) {
	lines := newTestLines()

	go func() {
		time.Sleep(10 * time.Millisecond)
		lines.onDIORiseEvent(gpiod.LineEvent{Offset: 17})
	}()

	require.NoError(t, lines.waitRising(0, &dioLine{}, time.Second))
	assert.Empty(t, lines.waiters)
}

func TestLines_WaitRisingAlreadyHigh(t *testing.T) {
	lines := newTestLines()

	require.NoError(t, lines.waitRising(0, &dioLine{value: 1}, time.Second))
	assert.Empty(t, lines.waiters)
}

func TestLines_WaitRisingEdgeWhileSampling(t *testing.T) {
	lines := newTestLines()
	line := &dioLine{}
	line.onRead = func() {
		lines.onDIORiseEvent(gpiod.LineEvent{Offset: 17})
	}

	require.NoError(t, lines.waitRising(0, line, 50*time.Millisecond))
	assert.Empty(t, lines.waiters)
}

func TestLines_WaitRisingTimeout(t *testing.T) {
	lines := newTestLines()

	err := lines.waitRising(0, &dioLine{}, 10*time.Millisecond)
	assert.ErrorIs(t, err, hal.ErrInterruptTimeout)
	assert.Empty(t, lines.waiters)

	// late edge with no waiters must not block
	lines.onDIORiseEvent(gpiod.LineEvent{Offset: 17})
}

type fakeCloser struct {
	err    error
	closed bool
}

func (c *fakeCloser) Close() error {
	c.closed = true
	return c.err
}

func TestCloseAll_ClosesEverythingAfterFailure(t *testing.T) {
	dioErr := errors.New("busy")
	dio := &fakeCloser{err: dioErr}
	cs := &fakeCloser{err: errors.New("also busy")}
	chip := &fakeCloser{}

	err := closeAll([]namedCloser{{name: "DIO0 line", c: dio}, {name: "CS line", c: cs}, {name: "GPIO chip", c: chip}})
	assert.ErrorIs(t, err, dioErr)
	assert.True(t, dio.closed)
	assert.True(t, cs.closed)
	assert.True(t, chip.closed)

	assert.NoError(t, closeAll(nil))
}

func TestLines_NotConfigured(t *testing.T) {
	lines := newTestLines()

	assert.Nil(t, lines.DIO(1))
	assert.Nil(t, lines.ChipSelect())
	assert.ErrorIs(t, lines.WaitRising(1, time.Millisecond), hal.ErrLineNotConfigured)
}

// chunkReader returns queued chunks, then EOF like a timed out serial read
type chunkReader struct {
	mu     sync.Mutex
	chunks [][]byte
	err    error
}

func (r *chunkReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.chunks) == 0 {
		if r.err != nil {
			return 0, r.err
		}
		time.Sleep(time.Millisecond)
		return 0, io.EOF
	}
	n := copy(p, r.chunks[0])
	r.chunks = r.chunks[1:]
	return n, nil
}

func TestSerialPort_ReceiveFIFO(t *testing.T) {
	port := NewSerialPort("test", 0)
	r := &chunkReader{chunks: [][]byte{[]byte("+OK"), []byte("\r\n")}}
	port.start(r)
	defer func() {
		close(port.done)
		port.readerWg.Wait()
	}()

	require.Eventually(t, func() bool { return port.Available() == 5 }, time.Second, time.Millisecond)

	var got []byte
	for port.Available() > 0 {
		c, err := port.ReadByte()
		require.NoError(t, err)
		got = append(got, c)
	}
	assert.Equal(t, "+OK\r\n", string(got))

	_, err := port.ReadByte()
	assert.ErrorIs(t, err, io.EOF)
}

func TestSerialPort_ReadError(t *testing.T) {
	port := NewSerialPort("test", 0)
	readErr := errors.New("device unplugged")
	port.start(&chunkReader{err: readErr})
	port.readerWg.Wait()

	assert.Equal(t, 1, port.Available())
	_, err := port.ReadByte()
	assert.ErrorIs(t, err, readErr)
}

func TestSerialPort_ReadErrorReachesATExchange(t *testing.T) {
	port := NewSerialPort("test", 0)
	readErr := errors.New("device unplugged")
	port.start(&chunkReader{err: readErr})
	port.readerWg.Wait()

	m := radio.NewUART(port, radio.WithATTimeout(time.Second))
	at, err := m.AT()
	require.NoError(t, err)

	start := time.Now()
	err = at.ATGetResponse()
	assert.ErrorIs(t, err, readErr)
	assert.NotErrorIs(t, err, hal.ErrATTimeout)
	assert.Less(t, time.Since(start), 500*time.Millisecond)

	err = at.ATEmptyBuffer()
	assert.ErrorIs(t, err, readErr)
}

func TestSerialPort_NotOpen(t *testing.T) {
	port := NewSerialPort("test", 0)
	_, err := port.Write([]byte("AT\r\n"))
	assert.Error(t, err)
	assert.NoError(t, port.Close())
}
