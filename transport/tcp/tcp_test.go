package tcp

import (
	"context"
	"net"
	"testing"
	"time"

	"rawserve/transport"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// listenLoopback binds an ephemeral port and returns the listener together
// with a dialable loopback address.
func listenLoopback(t *testing.T) (*Listener, string) {
	t.Helper()

	l, err := Listen(0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })

	_, port, err := net.SplitHostPort(l.Addr().String())
	require.NoError(t, err)

	return l, net.JoinHostPort("127.0.0.1", port)
}

func TestListenAcceptRoundTrip(t *testing.T) {
	l, addr := listenLoopback(t)

	accepted := make(chan transport.Conn)
	go func() {
		conn, err := l.Accept(context.Background())
		require.NoError(t, err)
		accepted <- conn
	}()

	client, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer client.Close()

	server := <-accepted
	defer server.Close()

	_, err = client.Write([]byte("hello"))
	require.NoError(t, err)

	buf := make([]byte, 5)
	n, err := server.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), buf[:n])

	_, err = server.Write([]byte("world"))
	require.NoError(t, err)

	n, err = client.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte("world"), buf[:n])
}

func TestAcceptContextCancel(t *testing.T) {
	l, _ := listenLoopback(t)

	ctx, cancel := context.WithCancel(context.Background())

	errs := make(chan error)
	go func() {
		_, err := l.Accept(ctx)
		errs <- err
	}()

	cancel()
	assert.ErrorIs(t, <-errs, context.Canceled)
}

func TestAcceptAfterClose(t *testing.T) {
	l, _ := listenLoopback(t)
	require.NoError(t, l.Close())

	_, err := l.Accept(context.Background())
	assert.ErrorIs(t, err, transport.ErrConnListenerClosed)
}

func TestCloseTwice(t *testing.T) {
	l, _ := listenLoopback(t)

	require.NoError(t, l.Close())
	assert.ErrorIs(t, l.Close(), transport.ErrConnListenerClosed)
}

func TestReadDeadlineMapsSentinel(t *testing.T) {
	l, addr := listenLoopback(t)

	accepted := make(chan transport.Conn)
	go func() {
		conn, err := l.Accept(context.Background())
		require.NoError(t, err)
		accepted <- conn
	}()

	client, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer client.Close()

	server := <-accepted
	defer server.Close()

	server.SetReadDeadLine(time.Now().Add(-time.Second))

	_, err = server.Read(make([]byte, 1))
	assert.ErrorIs(t, err, transport.ErrDeadLineExceeded)
}

func TestReadAfterCloseMapsSentinel(t *testing.T) {
	l, addr := listenLoopback(t)

	accepted := make(chan transport.Conn)
	go func() {
		conn, err := l.Accept(context.Background())
		require.NoError(t, err)
		accepted <- conn
	}()

	client, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer client.Close()

	server := <-accepted
	require.NoError(t, server.Close())

	_, err = server.Read(make([]byte, 1))
	assert.ErrorIs(t, err, transport.ErrConnClosed)
}
