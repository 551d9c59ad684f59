// Copyright 2025 Bruno Schaatsbergen. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tcpstream

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"time"

	"github.com/miekg/dns"
	"go.uber.org/multierr"
)

// errNoSuchHost is returned when a name server answers NXDOMAIN.
var errNoSuchHost = errors.New("no such host")

// defaultDNSTTL is used when an answer carries no address records.
const defaultDNSTTL = 300 * time.Second

// nameServer queries a single DNS server over UDP.
type nameServer struct {
	addr    string
	timeout time.Duration
	pool    *udpConnPool
}

func newNameServer(addr string, timeout time.Duration, poolSize int) *nameServer {
	// Let callers write "8.8.8.8" instead of "8.8.8.8:53".
	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort(addr, "53")
	}
	return &nameServer{
		addr:    addr,
		timeout: timeout,
		pool:    newUDPConnPool(addr, poolSize),
	}
}

// query asks the server for the qtype records of host and returns the
// addresses in answer order along with the smallest TTL seen. A successful
// answer without address records yields an empty slice and no error.
func (s *nameServer) query(ctx context.Context, host string, qtype uint16) ([]netip.Addr, uint32, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(host), qtype)
	msg.RecursionDesired = true

	conn, err := s.pool.get()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get connection: %w", err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(s.timeout))
	}

	// A blocked read does not observe ctx, so expire the socket deadline
	// when ctx is done. The socket is then discarded below.
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	dnsConn := &dns.Conn{Conn: conn}
	if err := dnsConn.WriteMsg(msg); err != nil {
		_ = conn.Close()
		return nil, 0, fmt.Errorf("query failed: %w", err)
	}

	var response *dns.Msg
	for {
		response, err = dnsConn.ReadMsg()
		if err != nil {
			_ = conn.Close()
			return nil, 0, fmt.Errorf("query failed: %w", err)
		}
		// A pooled socket can still have answers queued for an earlier query
		// that gave up before the server replied. Those carry the old
		// message ID, so we drop them and keep reading until ours arrives or
		// the deadline fires. Without this a reused socket could hand us
		// another host's addresses.
		if response.Id == msg.Id {
			break
		}
	}

	// stop reports false when ctx already expired the deadline on this
	// socket; such a socket would fail its next read, so it is not reused.
	if stop() {
		s.pool.put(conn)
	} else {
		_ = conn.Close()
	}

	switch response.Rcode {
	case dns.RcodeSuccess:
	case dns.RcodeNameError:
		return nil, 0, fmt.Errorf("%s: %w", host, errNoSuchHost)
	default:
		return nil, 0, fmt.Errorf("dns error: %s", dns.RcodeToString[response.Rcode])
	}

	var (
		addrs  []netip.Addr
		minTTL = uint32(defaultDNSTTL / time.Second)
	)
	for _, ans := range response.Answer {
		var ip net.IP
		switch rr := ans.(type) {
		case *dns.A:
			ip = rr.A
		case *dns.AAAA:
			ip = rr.AAAA
		default:
			// CNAME chains are followed by the recursive server.
			continue
		}

		addr, ok := netip.AddrFromSlice(ip)
		if !ok {
			continue
		}
		if rr := ans.Header(); rr.Ttl < minTTL {
			minTTL = rr.Ttl
		}
		addrs = append(addrs, addr.Unmap())
	}

	return addrs, minTTL, nil
}

// dnsResolver is a NameResolver that bypasses the system resolver and asks
// the configured servers directly. Servers are tried in order until one
// answers; A and AAAA are queried concurrently and returned A first.
type dnsResolver struct {
	servers []*nameServer
	logger  Logger
}

func newDNSResolver(addrs []string, timeout time.Duration, poolSize int, logger Logger) *dnsResolver {
	r := &dnsResolver{logger: logger}
	for _, addr := range addrs {
		r.servers = append(r.servers, newNameServer(addr, timeout, poolSize))
	}
	return r
}

// LookupNetIP implements NameResolver. network is "ip", "ip4" or "ip6".
func (r *dnsResolver) LookupNetIP(ctx context.Context, network, host string) ([]netip.Addr, error) {
	var qtypes []uint16
	switch network {
	case "ip4":
		qtypes = []uint16{dns.TypeA}
	case "ip6":
		qtypes = []uint16{dns.TypeAAAA}
	default:
		qtypes = []uint16{dns.TypeA, dns.TypeAAAA}
	}
	addrs, _, err := r.lookup(ctx, host, qtypes)
	return addrs, err
}

func (r *dnsResolver) lookupNetIPTTL(ctx context.Context, host string) ([]netip.Addr, time.Duration, error) {
	return r.lookup(ctx, host, []uint16{dns.TypeA, dns.TypeAAAA})
}

func (r *dnsResolver) lookup(ctx context.Context, host string, qtypes []uint16) ([]netip.Addr, time.Duration, error) {
	type result struct {
		addrs []netip.Addr
		ttl   uint32
		err   error
	}

	// One slot per query type keeps the answer order stable no matter which
	// query finishes first.
	results := make([]chan result, len(qtypes))
	for i, qtype := range qtypes {
		results[i] = make(chan result, 1)
		go func(ch chan<- result, qt uint16) {
			addrs, ttl, err := r.queryServers(ctx, host, qt)
			ch <- result{addrs: addrs, ttl: ttl, err: err}
		}(results[i], qtype)
	}

	var (
		addrs     []netip.Addr
		errs      error
		succeeded bool
		minTTL    = uint32(defaultDNSTTL / time.Second)
	)
	for i, ch := range results {
		res := <-ch
		if res.err != nil {
			// A host with A records but no AAAA records is still resolvable.
			r.logger.Debug("query type failed",
				Field{"type", dns.TypeToString[qtypes[i]]},
				Field{"error", res.err.Error()})
			errs = multierr.Append(errs, res.err)
			continue
		}
		succeeded = true
		if len(res.addrs) > 0 && res.ttl < minTTL {
			minTTL = res.ttl
		}
		addrs = append(addrs, res.addrs...)
	}

	// An empty answer only counts when every query type answered; if one of
	// them failed the host may well have records we could not see.
	if !succeeded || (len(addrs) == 0 && errs != nil) {
		return nil, 0, errs
	}
	return addrs, time.Duration(minTTL) * time.Second, nil
}

// queryServers tries each server in order and returns the first answer.
func (r *dnsResolver) queryServers(ctx context.Context, host string, qtype uint16) ([]netip.Addr, uint32, error) {
	if len(r.servers) == 0 {
		return nil, 0, errors.New("no name servers configured")
	}

	var lastErr error
	for _, s := range r.servers {
		addrs, ttl, err := s.query(ctx, host, qtype)
		if err == nil {
			return addrs, ttl, nil
		}

		lastErr = err
		r.logger.Debug("name server failed, trying next",
			Field{"server", s.addr},
			Field{"type", dns.TypeToString[qtype]},
			Field{"error", err.Error()})

		if ctx.Err() != nil {
			break
		}
	}
	return nil, 0, lastErr
}

func (r *dnsResolver) close() error {
	var err error
	for _, s := range r.servers {
		err = multierr.Append(err, s.pool.close())
	}
	return err
}
