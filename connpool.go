// Copyright 2025 Bruno Schaatsbergen. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tcpstream

import (
	"net"
	"sync"
)

// udpConnPool keeps idle UDP sockets to a single name server for reuse.
//
// Sockets are created lazily. Put keeps at most size idle sockets and closes
// the rest; a socket that saw an error must be closed by the caller instead
// of being put back.
type udpConnPool struct {
	// addr is the name server these sockets are connected to, e.g. "1.1.1.1:53"
	addr string

	// idle holds sockets waiting for their next query. Its capacity is the
	// only limit on how many we keep around; sockets in use are not counted.
	idle chan *net.UDPConn

	// mu guards closed, and is held across the send in put so that close
	// never races a put into an already closed channel
	mu     sync.Mutex
	closed bool
}

func newUDPConnPool(addr string, size int) *udpConnPool {
	if size <= 0 {
		size = 4 // enough for the A and AAAA queries of two concurrent lookups
	}
	return &udpConnPool{
		addr: addr,
		idle: make(chan *net.UDPConn, size),
	}
}

func (p *udpConnPool) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// get returns an idle socket or dials a new one.
func (p *udpConnPool) get() (*net.UDPConn, error) {
	if p.isClosed() {
		return nil, net.ErrClosed
	}

	// Non-blocking receive: reuse an idle socket when there is one, otherwise
	// dial a fresh one right away instead of waiting for a put.
	select {
	case conn := <-p.idle:
		// A nil here means close drained the channel under us.
		if conn != nil {
			return conn, nil
		}
	default:
	}

	// Nothing idle, either on a cold start or because every socket is busy.
	// We don't cap the number of sockets in flight; put trims the excess.
	raddr, err := net.ResolveUDPAddr("udp", p.addr)
	if err != nil {
		return nil, err
	}
	return net.DialUDP("udp", nil, raddr)
}

// put hands a healthy socket back to the pool.
func (p *udpConnPool) put(conn *net.UDPConn) {
	if conn == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		_ = conn.Close()
		return
	}

	select {
	case p.idle <- conn:
	default:
		// The pool is full. More sockets than the pool holds were dialed
		// during a burst, and now they come back. Closing the extras keeps
		// the pool from growing without bound; it shrinks back to its size
		// as the burst drains.
		_ = conn.Close()
	}
}

// close closes every idle socket. Sockets checked out at that point are
// closed when they are put back.
func (p *udpConnPool) close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	close(p.idle)

	for conn := range p.idle {
		if conn != nil {
			_ = conn.Close()
		}
	}
	return nil
}
