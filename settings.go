// Copyright 2025 Bruno Schaatsbergen. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tcpstream

import (
	"fmt"
	"net"
	"time"
)

// InfiniteTimeout disables the connect deadline. Only the caller's context
// can then abort an attempt.
const InfiniteTimeout time.Duration = -1

const (
	defaultConnectTimeout = 30 * time.Second
	defaultBufferSize     = 64 * 1024
)

// SocketConn is the view of a freshly connected socket handed to the
// configurator. *net.TCPConn implements it.
type SocketConn interface {
	net.Conn
	SetNoDelay(noDelay bool) error
	SetReadBuffer(bytes int) error
	SetWriteBuffer(bytes int) error
}

// Settings control how a single stream is connected and configured.
type Settings struct {
	// ConnectTimeout bounds each connection attempt, and the name lookup
	// before the first one. Either InfiniteTimeout or a positive duration.
	ConnectTimeout time.Duration

	// ReadTimeout and WriteTimeout are applied to every Read and Write on
	// the returned stream. Zero keeps the transport default (no deadline).
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	SendBufferSize    int
	ReceiveBufferSize int

	// AddressFamily is used only for candidates that do not carry a family.
	AddressFamily Family

	// SocketConfigurator runs after the defaults have been applied, so it can
	// override them. It must only touch the socket it is given.
	SocketConfigurator func(SocketConn) error
}

// DefaultSettings returns the settings used by New when no option overrides
// them.
func DefaultSettings() Settings {
	return Settings{
		ConnectTimeout:    defaultConnectTimeout,
		SendBufferSize:    defaultBufferSize,
		ReceiveBufferSize: defaultBufferSize,
	}
}

// Validate checks the settings invariants.
func (s Settings) Validate() error {
	if s.ConnectTimeout != InfiniteTimeout && s.ConnectTimeout <= 0 {
		return fmt.Errorf("%w: connect timeout must be positive or InfiniteTimeout, got %s", ErrInvalidSettings, s.ConnectTimeout)
	}
	if s.ReadTimeout < 0 {
		return fmt.Errorf("%w: negative read timeout %s", ErrInvalidSettings, s.ReadTimeout)
	}
	if s.WriteTimeout < 0 {
		return fmt.Errorf("%w: negative write timeout %s", ErrInvalidSettings, s.WriteTimeout)
	}
	if s.SendBufferSize <= 0 {
		return fmt.Errorf("%w: send buffer size must be positive, got %d", ErrInvalidSettings, s.SendBufferSize)
	}
	if s.ReceiveBufferSize <= 0 {
		return fmt.Errorf("%w: receive buffer size must be positive, got %d", ErrInvalidSettings, s.ReceiveBufferSize)
	}
	return nil
}
