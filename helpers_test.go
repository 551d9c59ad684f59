package tcpstream

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"sync"
	"sync/atomic"
	"time"
)

// fakeSocket is an in-memory SocketConn that records how it was configured.
type fakeSocket struct {
	net.Conn
	peer net.Conn

	mu       sync.Mutex
	ops      []string
	noDelay  bool
	readBuf  int
	writeBuf int

	closed atomic.Bool
}

func newFakeSocket() *fakeSocket {
	c, peer := net.Pipe()
	return &fakeSocket{Conn: c, peer: peer}
}

func (s *fakeSocket) record(op string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = append(s.ops, op)
}

func (s *fakeSocket) SetNoDelay(noDelay bool) error {
	s.record("nodelay")
	s.mu.Lock()
	defer s.mu.Unlock()
	s.noDelay = noDelay
	return nil
}

func (s *fakeSocket) SetReadBuffer(n int) error {
	s.record("rcvbuf")
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readBuf = n
	return nil
}

func (s *fakeSocket) SetWriteBuffer(n int) error {
	s.record("sndbuf")
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeBuf = n
	return nil
}

func (s *fakeSocket) Close() error {
	s.closed.Store(true)
	_ = s.peer.Close()
	return s.Conn.Close()
}

func (s *fakeSocket) operations() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.ops...)
}

// fakeConnector hands out fakeSockets according to behave and remembers
// every address it was asked to connect to.
type fakeConnector struct {
	behave func(ctx context.Context, addr netip.AddrPort) (net.Conn, error)

	mu       sync.Mutex
	calls    []netip.AddrPort
	networks []string
	sockets  []*fakeSocket
}

func (c *fakeConnector) Connect(ctx context.Context, network string, addr netip.AddrPort) (net.Conn, error) {
	c.mu.Lock()
	c.calls = append(c.calls, addr)
	c.networks = append(c.networks, network)
	c.mu.Unlock()

	conn, err := c.behave(ctx, addr)
	if s, ok := conn.(*fakeSocket); ok {
		c.mu.Lock()
		c.sockets = append(c.sockets, s)
		c.mu.Unlock()
	}
	return conn, err
}

func (c *fakeConnector) attempts() []netip.AddrPort {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]netip.AddrPort(nil), c.calls...)
}

func (c *fakeConnector) connected() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sockets)
}

func (c *fakeConnector) openSockets() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	open := 0
	for _, s := range c.sockets {
		if !s.closed.Load() {
			open++
		}
	}
	return open
}

// connectAfter succeeds after delay, or fails early if ctx is aborted.
func connectAfter(delay time.Duration) func(ctx context.Context, addr netip.AddrPort) (net.Conn, error) {
	return func(ctx context.Context, addr netip.AddrPort) (net.Conn, error) {
		select {
		case <-time.After(delay):
			return newFakeSocket(), nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// connectIgnoringAbort succeeds after delay no matter what ctx does, like a
// handshake that completes before the abort reaches it.
func connectIgnoringAbort(delay time.Duration) func(ctx context.Context, addr netip.AddrPort) (net.Conn, error) {
	return func(ctx context.Context, addr netip.AddrPort) (net.Conn, error) {
		time.Sleep(delay)
		return newFakeSocket(), nil
	}
}

var (
	errRefused = errors.New("connection refused")
	testAddr   = netip.MustParseAddrPort("10.0.0.1:27017")
)

// mockNameResolver returns a fixed answer after an optional delay.
type mockNameResolver struct {
	addrs []netip.Addr
	err   error
	delay time.Duration

	calls atomic.Int32
}

func (m *mockNameResolver) LookupNetIP(ctx context.Context, network, host string) ([]netip.Addr, error) {
	m.calls.Add(1)
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return m.addrs, m.err
}

// mockLogger for testing
type mockLogger struct {
	mu   sync.Mutex
	logs []string
}

func (m *mockLogger) Debug(msg string, fields ...Field) {
	m.append("DEBUG: " + msg)
}

func (m *mockLogger) Info(msg string, fields ...Field) {
	m.append("INFO: " + msg)
}

func (m *mockLogger) Error(msg string, err error, fields ...Field) {
	logMsg := "ERROR: " + msg
	if err != nil {
		logMsg += " (" + err.Error() + ")"
	}
	m.append(logMsg)
}

func (m *mockLogger) append(line string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, line)
}

func (m *mockLogger) lines() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.logs...)
}

func mustAddrs(ss ...string) []netip.Addr {
	addrs := make([]netip.Addr, 0, len(ss))
	for _, s := range ss {
		addrs = append(addrs, netip.MustParseAddr(s))
	}
	return addrs
}
