package pipe

import (
	"context"
	"sync"

	"rawserve/transport"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

var ErrAddrUnreachable = errors.New("no listener on address")

// Transport tracks pipe listeners by name so tests can dial them.
type Transport struct {
	clk clock.Clock

	mu        sync.Mutex
	listeners map[string]*Listener
}

func NewTransport(clk clock.Clock) *Transport {
	return &Transport{
		clk:       clk,
		listeners: make(map[string]*Listener),
	}
}

var _ transport.ConnDialer = (*Transport)(nil)

func (t *Transport) Listen(addr Addr) (*Listener, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.listeners[addr.Name]; ok {
		return nil, errors.Errorf("address already in use: %s", addr.Name)
	}

	l := &Listener{
		addr:      addr,
		transport: t,
		incoming:  make(chan *halfConn),
		closed:    make(chan struct{}),
	}
	t.listeners[addr.Name] = l

	return l, nil
}

func (t *Transport) Dial(ctx context.Context, addr transport.Addr) (transport.Conn, error) {
	t.mu.Lock()
	l, ok := t.listeners[addr.String()]
	t.mu.Unlock()

	if !ok {
		return nil, ErrAddrUnreachable
	}

	local, remote := New("dialer", addr.String(), t.clk)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-l.closed:
		return nil, transport.ErrConnListenerClosed
	case l.incoming <- remote:
	}

	return local, nil
}

type Listener struct {
	addr      Addr
	transport *Transport

	incoming chan *halfConn
	closed   chan struct{}
	once     sync.Once
}

var _ transport.ConnListener = (*Listener)(nil)

func (l *Listener) Accept(ctx context.Context) (transport.Conn, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-l.closed:
		return nil, transport.ErrConnListenerClosed
	case conn := <-l.incoming:
		return conn, nil
	}
}

func (l *Listener) Close() error {
	l.once.Do(func() {
		close(l.closed)

		l.transport.mu.Lock()
		delete(l.transport.listeners, l.addr.Name)
		l.transport.mu.Unlock()
	})
	return nil
}
