//go:build linux

package tcpstream

import (
	"context"
	"net"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func sockopt(t *testing.T, conn net.Conn, level, opt int) int {
	t.Helper()

	tcp, ok := conn.(*net.TCPConn)
	require.True(t, ok, "expected *net.TCPConn, got %T", conn)

	raw, err := tcp.SyscallConn()
	require.NoError(t, err)

	var (
		value  int
		optErr error
	)
	err = raw.Control(func(fd uintptr) {
		value, optErr = unix.GetsockoptInt(int(fd), level, opt)
	})
	require.NoError(t, err)
	require.NoError(t, optErr)
	return value
}

func TestConfigure_RealSocketOptions(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go acceptAndHold(ln)

	factory := New(
		WithSendBufferSize(8192),
		WithReceiveBufferSize(8192),
		WithSocketConfigurator(func(c SocketConn) error {
			if err := c.(*net.TCPConn).SetKeepAlive(true); err != nil {
				return err
			}
			return c.SetNoDelay(false)
		}),
	)

	port := uint16(ln.Addr().(*net.TCPAddr).Port)
	stream, err := factory.CreateStream(context.Background(), AddrTarget(netip.MustParseAddr("127.0.0.1"), port))
	require.NoError(t, err)
	defer stream.Close()

	// The kernel doubles the requested size for bookkeeping overhead.
	assert.GreaterOrEqual(t, sockopt(t, stream.Conn, unix.SOL_SOCKET, unix.SO_SNDBUF), 8192)
	assert.GreaterOrEqual(t, sockopt(t, stream.Conn, unix.SOL_SOCKET, unix.SO_RCVBUF), 8192)
	assert.Equal(t, 1, sockopt(t, stream.Conn, unix.SOL_SOCKET, unix.SO_KEEPALIVE))
	assert.Equal(t, 0, sockopt(t, stream.Conn, unix.IPPROTO_TCP, unix.TCP_NODELAY))
}

func TestConfigure_RealSocketDefaults(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go acceptAndHold(ln)

	stream, err := New().DialContext(context.Background(), "tcp", ln.Addr().String())
	require.NoError(t, err)
	defer stream.Close()

	assert.Equal(t, 1, sockopt(t, stream.(*Stream).Conn, unix.IPPROTO_TCP, unix.TCP_NODELAY))
}
