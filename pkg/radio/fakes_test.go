package radio

import (
	"errors"
	"fmt"
	"time"

	"github.com/mbalug7/go-radio-module/pkg/hal"
)

// frame is one chip select gated exchange seen by fakeBus
type frame struct {
	mosi []byte
}

// fakeBus simulates a register based chip. It is also the chip select line.
type fakeBus struct {
	regs [256]byte

	stuck        map[byte]bool // writes to these registers are never reflected
	lag          map[byte]int  // reads that still return the old value after a write
	pending      map[byte]byte
	pendingReads map[byte]int

	begun        bool
	inTx         bool
	csLow        bool
	begins, ends int
	reads        int
	writes       int
	frames       []frame
	failTransfer int // fail the n-th transfer of a frame, 0 disables

	addr    byte
	write   bool
	payload int
}

func newFakeBus() *fakeBus {
	return &fakeBus{
		stuck:        make(map[byte]bool),
		lag:          make(map[byte]int),
		pending:      make(map[byte]byte),
		pendingReads: make(map[byte]int),
		csLow:        false,
	}
}

func (b *fakeBus) Begin() error {
	b.begun = true
	return nil
}

func (b *fakeBus) End() error {
	b.begun = false
	return nil
}

func (b *fakeBus) BeginTransaction(_ hal.SPISettings) error {
	if b.inTx {
		return errors.New("transaction already in progress")
	}
	b.inTx = true
	b.begins++
	return nil
}

func (b *fakeBus) EndTransaction() error {
	b.inTx = false
	b.ends++
	return nil
}

func (b *fakeBus) SetValue(value int) error {
	if value == 0 {
		if !b.inTx {
			return errors.New("chip select asserted outside of a transaction")
		}
		b.csLow = true
		b.frames = append(b.frames, frame{})
		return nil
	}
	if b.csLow {
		if b.write {
			b.writes++
		} else {
			b.reads++
		}
	}
	b.csLow = false
	return nil
}

func (b *fakeBus) Transfer(out byte) (byte, error) {
	if !b.csLow {
		return 0, errors.New("transfer without chip select")
	}
	f := &b.frames[len(b.frames)-1]
	f.mosi = append(f.mosi, out)
	if b.failTransfer > 0 && len(f.mosi) == b.failTransfer {
		return 0, fmt.Errorf("transfer %d failed", b.failTransfer)
	}
	if len(f.mosi) == 1 {
		b.addr = out &^ SPIWriteCommand
		b.write = out&SPIWriteCommand != 0
		b.payload = 0
		return 0, nil
	}
	reg := b.addr + byte(b.payload)
	b.payload++
	if b.write {
		b.store(reg, out)
		return 0, nil
	}
	return b.load(reg), nil
}

func (b *fakeBus) store(reg byte, value byte) {
	if b.stuck[reg] {
		return
	}
	if n := b.lag[reg]; n > 0 {
		b.pending[reg] = value
		b.pendingReads[reg] = n
		return
	}
	b.regs[reg] = value
}

func (b *fakeBus) load(reg byte) byte {
	if n, ok := b.pendingReads[reg]; ok {
		if n > 0 {
			b.pendingReads[reg] = n - 1
			return b.regs[reg]
		}
		b.regs[reg] = b.pending[reg]
		delete(b.pendingReads, reg)
		delete(b.pending, reg)
	}
	return b.regs[reg]
}

func (b *fakeBus) transactions() int {
	return b.begins
}

// fakeClock moves forward by step every time it is read
type fakeClock struct {
	now  time.Time
	step time.Duration
}

func newFakeClock(step time.Duration) *fakeClock {
	return &fakeClock{now: time.Unix(0, 0), step: step}
}

func (c *fakeClock) Now() time.Time {
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

// fakePort is a scripted serial port. Every write that ends with the line feed queues the next reply.
// With chunk set, replies arrive chunk bytes at a time and Available reports an empty FIFO between arrivals.
type fakePort struct {
	rx       []byte
	incoming []byte
	tx       []byte
	replies  []string
	lineFeed string
	chunk    int
	arrived  bool
	begunAt  int
	closed   bool
	readErr  error
	writeErr error
}

func newFakePort(replies ...string) *fakePort {
	return &fakePort{replies: replies, lineFeed: DefaultLineFeed}
}

func (p *fakePort) Begin(baudRate int) error {
	p.begunAt = baudRate
	return nil
}

func (p *fakePort) Available() int {
	if len(p.rx) > 0 || len(p.incoming) == 0 {
		return len(p.rx)
	}
	if p.arrived {
		p.arrived = false
		return 0
	}
	n := p.chunk
	if n > len(p.incoming) {
		n = len(p.incoming)
	}
	p.rx = append(p.rx, p.incoming[:n]...)
	p.incoming = p.incoming[n:]
	p.arrived = true
	return len(p.rx)
}

func (p *fakePort) ReadByte() (byte, error) {
	if p.readErr != nil {
		return 0, p.readErr
	}
	if len(p.rx) == 0 {
		return 0, errors.New("read from empty buffer")
	}
	c := p.rx[0]
	p.rx = p.rx[1:]
	return c, nil
}

func (p *fakePort) Write(data []byte) (int, error) {
	if p.writeErr != nil {
		return 0, p.writeErr
	}
	p.tx = append(p.tx, data...)
	if len(p.replies) > 0 && len(p.tx) >= len(p.lineFeed) && string(p.tx[len(p.tx)-len(p.lineFeed):]) == p.lineFeed {
		if p.chunk > 0 {
			p.incoming = append(p.incoming, p.replies[0]...)
		} else {
			p.rx = append(p.rx, p.replies[0]...)
		}
		p.replies = p.replies[1:]
	}
	return len(data), nil
}

func (p *fakePort) Close() error {
	p.closed = true
	return nil
}

// recordingSink keeps debug output
type recordingSink struct {
	lines []string
}

func (s *recordingSink) Printf(format string, v ...any) {
	s.lines = append(s.lines, fmt.Sprintf(format, v...))
}
