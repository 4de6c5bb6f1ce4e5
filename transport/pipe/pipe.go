// Package pipe provides a synchronous in-memory transport. It exists for
// tests: deadlines run off an injected clock, so timeout behavior can be
// driven deterministically with a mock.
package pipe

import (
	"sync"
	"time"

	"rawserve/transport"

	"github.com/benbjohnson/clock"
)

type Addr struct{ Name string }

var _ transport.Addr = Addr{}

func (a Addr) String() string { return a.Name }

type halfConn struct {
	data chan []byte // bytes travelling towards this half.
	ack  chan int    // how many bytes the peer consumed.

	closed chan struct{}
	once   sync.Once

	writeMu sync.Mutex

	readDL  *deadLine
	writeDL *deadLine

	peer *halfConn
	addr Addr
}

var _ transport.Conn = (*halfConn)(nil)

// New creates both ends of an unbuffered duplex connection.
// A Write rendezvouses with the peer's Read, like net.Pipe.
func New(name1, name2 string, clk clock.Clock) (c1, c2 *halfConn) {
	c1 = newHalf(name1, clk)
	c2 = newHalf(name2, clk)
	c1.peer, c2.peer = c2, c1
	return c1, c2
}

func newHalf(name string, clk clock.Clock) *halfConn {
	return &halfConn{
		data:    make(chan []byte),
		ack:     make(chan int),
		closed:  make(chan struct{}),
		readDL:  newDeadLine(clk),
		writeDL: newDeadLine(clk),
		addr:    Addr{Name: name},
	}
}

func (c *halfConn) LocalAddr() transport.Addr  { return c.addr }
func (c *halfConn) RemoteAddr() transport.Addr { return c.peer.addr }

func (c *halfConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *halfConn) Read(p []byte) (int, error) {
	if err := c.checkLive(c.readDL); err != nil {
		return 0, err
	}

	select {
	case b := <-c.data:
		n := copy(p, b)
		c.peer.ack <- n
		return n, nil
	case <-c.closed:
		return 0, transport.ErrConnClosed
	case <-c.peer.closed:
		return 0, transport.ErrConnClosed
	case <-c.readDL.expired():
		return 0, transport.ErrDeadLineExceeded
	}
}

func (c *halfConn) Write(p []byte) (int, error) {
	if err := c.checkLive(c.writeDL); err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, nil
	}

	// Writes from concurrent goroutines must not interleave.
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	total := 0
	for len(p) > 0 {
		select {
		case c.peer.data <- p:
			n := <-c.ack
			p = p[n:]
			total += n
		case <-c.closed:
			return total, transport.ErrConnClosed
		case <-c.peer.closed:
			return total, transport.ErrConnClosed
		case <-c.writeDL.expired():
			return total, transport.ErrDeadLineExceeded
		}
	}

	return total, nil
}

func (c *halfConn) SetReadDeadLine(t time.Time)  { c.readDL.set(t) }
func (c *halfConn) SetWriteDeadLine(t time.Time) { c.writeDL.set(t) }

func (c *halfConn) checkLive(dl *deadLine) error {
	switch {
	case fired(c.closed), fired(c.peer.closed):
		return transport.ErrConnClosed
	case fired(dl.expired()):
		return transport.ErrDeadLineExceeded
	}
	return nil
}

// deadLine turns an absolute time into a channel that closes when the
// clock passes it. Resetting replaces the channel.
type deadLine struct {
	clk clock.Clock

	mu    sync.Mutex
	timer *clock.Timer
	done  chan struct{}
}

func newDeadLine(clk clock.Clock) *deadLine {
	return &deadLine{clk: clk, done: make(chan struct{})}
}

func (d *deadLine) set(t time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if fired(d.done) {
		d.done = make(chan struct{})
	}

	if t.IsZero() {
		return
	}

	done := d.done
	d.timer = d.clk.AfterFunc(d.clk.Until(t), func() { close(done) })
}

func (d *deadLine) expired() <-chan struct{} {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.done
}

func fired(c <-chan struct{}) bool {
	select {
	case <-c:
		return true
	default:
		return false
	}
}
