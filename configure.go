package tcpstream

import (
	"errors"
	"fmt"
	"net"
	"time"
)

var errNotSocket = errors.New("connection does not expose socket options")

// Stream is a connected, configured duplex byte stream. Read and Write apply
// the configured timeouts as fresh deadlines on every call.
//
// The caller owns the Stream and must Close it.
type Stream struct {
	net.Conn

	readTimeout  time.Duration
	writeTimeout time.Duration
}

// ReadTimeout returns the per-Read timeout, zero when unset.
func (s *Stream) ReadTimeout() time.Duration { return s.readTimeout }

// WriteTimeout returns the per-Write timeout, zero when unset.
func (s *Stream) WriteTimeout() time.Duration { return s.writeTimeout }

// Read implements io.Reader with the read timeout.
func (s *Stream) Read(p []byte) (int, error) {
	if s.readTimeout > 0 {
		if err := s.Conn.SetReadDeadline(time.Now().Add(s.readTimeout)); err != nil {
			return 0, err
		}
	}
	return s.Conn.Read(p)
}

// Write implements io.Writer with the write timeout.
func (s *Stream) Write(p []byte) (int, error) {
	if s.writeTimeout > 0 {
		if err := s.Conn.SetWriteDeadline(time.Now().Add(s.writeTimeout)); err != nil {
			return 0, err
		}
	}
	return s.Conn.Write(p)
}

// configure applies settings to a freshly connected socket: no-delay, buffer
// sizes, then the caller's configurator, then the stream timeouts. It does
// not close conn on failure.
func configure(conn net.Conn, settings Settings) (*Stream, error) {
	sock, ok := conn.(SocketConn)
	if !ok {
		return nil, fmt.Errorf("%w: %T", errNotSocket, conn)
	}

	if err := sock.SetNoDelay(true); err != nil {
		return nil, fmt.Errorf("set no-delay: %w", err)
	}
	if err := sock.SetWriteBuffer(settings.SendBufferSize); err != nil {
		return nil, fmt.Errorf("set send buffer to %d: %w", settings.SendBufferSize, err)
	}
	if err := sock.SetReadBuffer(settings.ReceiveBufferSize); err != nil {
		return nil, fmt.Errorf("set receive buffer to %d: %w", settings.ReceiveBufferSize, err)
	}

	if settings.SocketConfigurator != nil {
		if err := settings.SocketConfigurator(sock); err != nil {
			return nil, fmt.Errorf("socket configurator: %w", err)
		}
	}

	return &Stream{
		Conn:         conn,
		readTimeout:  settings.ReadTimeout,
		writeTimeout: settings.WriteTimeout,
	}, nil
}
