package tcpstream

import (
	"context"
	"net"
	"net/netip"
)

// Connector is the transport connect primitive: it establishes one
// connection to one concrete address.
//
// The context passed to Connect is the attempt's abort handle. When the
// attempt loses its race the context is cancelled, and the implementation
// must give up the in-flight handshake (net.Dialer closes the socket). A
// connection returned after that point is closed by the caller.
type Connector interface {
	Connect(ctx context.Context, network string, addr netip.AddrPort) (net.Conn, error)
}

// ConnectorFunc adapts an ordinary function to a Connector.
type ConnectorFunc func(ctx context.Context, network string, addr netip.AddrPort) (net.Conn, error)

// Connect implements Connector.
func (f ConnectorFunc) Connect(ctx context.Context, network string, addr netip.AddrPort) (net.Conn, error) {
	return f(ctx, network, addr)
}

// dialConnector connects with a net.Dialer. The dialer carries no timeout of
// its own; the race owns the deadline.
type dialConnector struct {
	dialer *net.Dialer
}

func (c *dialConnector) Connect(ctx context.Context, network string, addr netip.AddrPort) (net.Conn, error) {
	return c.dialer.DialContext(ctx, network, addr.String())
}
