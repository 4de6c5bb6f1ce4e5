// Package tcp adapts the operating system's TCP sockets to the
// [transport.Conn] and [transport.ConnListener] interfaces.
package tcp

import (
	"context"
	"io"
	"net"
	"os"
	"strconv"
	"time"

	"rawserve/transport"

	"github.com/pkg/errors"
)

type Addr struct{ inner net.Addr }

var _ transport.Addr = Addr{}

func (a Addr) String() string {
	if a.inner == nil {
		return ""
	}
	return a.inner.String()
}

// Listen binds port on all interfaces. A bind failure is not recoverable
// and is returned to the caller as-is.
func Listen(port uint16) (*Listener, error) {
	nl, err := net.Listen("tcp", ":"+strconv.FormatUint(uint64(port), 10))
	if err != nil {
		return nil, errors.Wrapf(err, "binding port %d", port)
	}

	return &Listener{nl: nl}, nil
}

type Listener struct{ nl net.Listener }

var _ transport.ConnListener = (*Listener)(nil)

func (l *Listener) Addr() transport.Addr { return Addr{inner: l.nl.Addr()} }

func (l *Listener) Accept(ctx context.Context) (transport.Conn, error) {
	type result struct {
		conn net.Conn
		err  error
	}

	// Buffered so the accept goroutine never outlives this call
	// even when ctx wins the race.
	ch := make(chan result, 1)
	go func() {
		conn, err := l.nl.Accept()
		ch <- result{conn, err}
	}()

	select {
	case <-ctx.Done():
		// Unblock the pending accept. The listener is only ever
		// cancelled on shutdown, so tearing it down here is fine.
		_ = l.nl.Close()
		if r := <-ch; r.conn != nil {
			_ = r.conn.Close()
		}
		return nil, ctx.Err()
	case r := <-ch:
		if r.err != nil {
			if errors.Is(r.err, net.ErrClosed) {
				return nil, transport.ErrConnListenerClosed
			}
			return nil, errors.Wrap(r.err, "accepting connection")
		}
		return &conn{nc: r.conn}, nil
	}
}

func (l *Listener) Close() error {
	if err := l.nl.Close(); err != nil {
		if errors.Is(err, net.ErrClosed) {
			return transport.ErrConnListenerClosed
		}
		return err
	}
	return nil
}

type conn struct{ nc net.Conn }

var _ transport.Conn = (*conn)(nil)

func (c *conn) Read(p []byte) (int, error) {
	n, err := c.nc.Read(p)
	return n, mapErr(err)
}

func (c *conn) Write(p []byte) (int, error) {
	n, err := c.nc.Write(p)
	return n, mapErr(err)
}

func (c *conn) Close() error { return mapErr(c.nc.Close()) }

func (c *conn) LocalAddr() transport.Addr  { return Addr{inner: c.nc.LocalAddr()} }
func (c *conn) RemoteAddr() transport.Addr { return Addr{inner: c.nc.RemoteAddr()} }

func (c *conn) SetReadDeadLine(t time.Time)  { _ = c.nc.SetReadDeadline(t) }
func (c *conn) SetWriteDeadLine(t time.Time) { _ = c.nc.SetWriteDeadline(t) }

// mapErr translates net errors into the transport sentinels.
// io.EOF passes through untouched: the reading layers key off it.
func mapErr(err error) error {
	switch {
	case err == nil, err == io.EOF:
		return err
	case errors.Is(err, os.ErrDeadlineExceeded):
		return transport.ErrDeadLineExceeded
	case errors.Is(err, net.ErrClosed):
		return transport.ErrConnClosed
	}
	return err
}
