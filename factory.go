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
	"time"

	"github.com/benbjohnson/clock"
)

// Factory creates configured TCP streams.
//
// A Factory is safe for concurrent use. Each call resolves its target, tries
// the candidates in order and returns the first one that connects.
type Factory struct {
	// settings apply to every stream this factory creates
	settings Settings

	// names resolves logical hosts (net.DefaultResolver unless overridden)
	names NameResolver

	// nameServers, dnsTimeout and poolSize configure the DNS-server resolver
	// that replaces names when WithNameServers is used
	nameServers []string
	dnsTimeout  time.Duration
	poolSize    int
	dns         *dnsResolver

	// cache stores resolved addresses (disabled by default)
	cache *addrCache

	resolver  *addressResolver
	connector Connector
	logger    Logger
	metrics   *metrics
	clock     clock.Clock
}

// Result is delivered by CreateStreamAsync. Exactly one of Stream and Err is
// set.
type Result struct {
	Stream *Stream
	Err    error
}

// New creates a new Factory with the given options.
//
// Default configuration:
//
//   - Connect timeout: 30 seconds per attempt
//   - Read/write timeouts: none
//   - Send/receive buffers: 64 KiB
//   - Name resolution: net.DefaultResolver
//   - Cache: disabled (can be enabled via WithCache)
//   - Logger: no-op (no logging)
//
// Example:
//
//	factory := New(
//	    WithConnectTimeout(5 * time.Second),
//	    WithNameServers("8.8.8.8", "1.1.1.1"),
//	    WithCache(1000, 1*time.Second, 5*time.Minute),
//	)
func New(opts ...Option) *Factory {
	f := &Factory{
		settings:   DefaultSettings(),
		names:      net.DefaultResolver,
		dnsTimeout: 2 * time.Second,
		poolSize:   4,
		cache:      newAddrCache(0, 0, 0),
		connector:  &dialConnector{dialer: &net.Dialer{}},
		logger:     noopLogger{},
		metrics:    newMetrics(),
		clock:      clock.New(),
	}

	for _, opt := range opts {
		opt(f)
	}

	if len(f.nameServers) > 0 {
		f.dns = newDNSResolver(f.nameServers, f.dnsTimeout, f.poolSize, f.logger)
		f.names = f.dns
	}

	f.resolver = &addressResolver{
		names:  f.names,
		cache:  f.cache,
		logger: f.logger,
	}

	return f
}

// Settings returns the settings applied to every stream.
func (f *Factory) Settings() Settings { return f.settings }

// CreateStream connects to target and returns the configured stream.
//
// ctx is the cancellation signal for the whole call. The error is one of
// *ResolutionError, ErrNoAddressesResolved, *AllAddressesFailedError,
// *ConnectTimeoutError, *CancelledError, *SocketConfigurationError,
// ErrInvalidSettings, or ErrInvalidTarget.
func (f *Factory) CreateStream(ctx context.Context, target Target) (*Stream, error) {
	return f.createStream(ctx, target, FamilyUnspecified)
}

// CreateStreamAsync runs CreateStream on its own goroutine and delivers the
// single result on the returned channel. The caller must receive it and close
// the stream when one is returned.
func (f *Factory) CreateStreamAsync(ctx context.Context, target Target) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		stream, err := f.CreateStream(ctx, target)
		ch <- Result{Stream: stream, Err: err}
	}()
	return ch
}

// DialContext implements the net.Dialer.DialContext signature, so the factory
// can back an http.Transport, a gRPC client, or any code that accepts a
// custom dialer. network must be "tcp", "tcp4" or "tcp6"; the latter two only
// try candidates of that family.
//
//	client := &http.Client{
//	    Transport: &http.Transport{
//	        DialContext: factory.DialContext,
//	    },
//	}
func (f *Factory) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	var only Family
	switch network {
	case "tcp":
	case "tcp4":
		only = FamilyIPv4
	case "tcp6":
		only = FamilyIPv6
	default:
		return nil, fmt.Errorf("unsupported network %q", network)
	}

	target, err := ParseTarget(address)
	if err != nil {
		return nil, err
	}

	stream, err := f.createStream(ctx, target, only)
	if err != nil {
		return nil, err
	}
	return stream, nil
}

// Close releases the idle sockets held for DNS queries. Streams already
// returned are not affected.
func (f *Factory) Close() error {
	if f.dns == nil {
		return nil
	}
	return f.dns.close()
}

func (f *Factory) createStream(ctx context.Context, target Target, only Family) (*Stream, error) {
	if err := f.settings.Validate(); err != nil {
		return nil, err
	}
	if err := target.validate(); err != nil {
		return nil, err
	}

	candidates, err := f.resolve(ctx, target)
	if err != nil {
		return nil, err
	}
	if only != FamilyUnspecified {
		candidates = filterFamily(candidates, only)
	}

	out := attemptAll(ctx, target.String(), candidates, f.attempt, f.logger)
	if out.Kind != Connected {
		return nil, out.Err
	}

	stream, err := configure(out.Conn, f.settings)
	if err != nil {
		f.logger.Error("socket configuration failed", err,
			Field{"candidate", out.Candidate.String()})
		f.release(out.Conn)
		return nil, &SocketConfigurationError{Address: out.Candidate.String(), Err: err}
	}

	// The caller owns the socket from here on.
	f.metrics.handles.Dec()
	return stream, nil
}

// resolve produces the candidate list. Literal targets resolve without
// suspending; logical hosts race the lookup against ctx and the connect
// timeout.
func (f *Factory) resolve(ctx context.Context, target Target) ([]Candidate, error) {
	if target.IsLiteral() {
		return f.resolver.resolve(ctx, target)
	}

	candidates, kind, err := race(ctx, f.clock, f.metrics, f.settings.ConnectTimeout,
		func(lookupCtx context.Context) ([]Candidate, error) {
			return f.resolver.resolve(lookupCtx, target)
		},
		func([]Candidate) {})

	switch kind {
	case Connected:
		return candidates, nil
	case Failed:
		return nil, err
	case Cancelled:
		f.logger.Debug("resolution cancelled", Field{"host", target.Host()})
		return nil, &CancelledError{Address: target.String(), Cause: err}
	default:
		f.logger.Debug("resolution timed out",
			Field{"host", target.Host()},
			Field{"timeout", f.settings.ConnectTimeout})
		return nil, &ConnectTimeoutError{Address: target.String(), Deadline: f.settings.ConnectTimeout}
	}
}

// attempt connects to one candidate under the race.
func (f *Factory) attempt(ctx context.Context, c Candidate) Outcome {
	network := c.network(f.settings.AddressFamily)

	conn, kind, err := race(ctx, f.clock, f.metrics, f.settings.ConnectTimeout,
		func(attemptCtx context.Context) (net.Conn, error) {
			conn, err := f.connector.Connect(attemptCtx, network, c.Addr)
			if err != nil {
				return nil, err
			}
			if conn == nil {
				return nil, errors.New("connector returned no connection")
			}
			f.metrics.handles.Inc()
			return conn, nil
		},
		func(conn net.Conn) {
			f.logger.Debug("discarding connection completed after settlement",
				Field{"candidate", c.String()})
			f.release(conn)
		})

	f.metrics.observe(kind)

	out := Outcome{Kind: kind, Candidate: c}
	switch kind {
	case Connected:
		out.Conn = conn
	case Failed:
		out.Err = err
	case Cancelled:
		out.Err = &CancelledError{Address: c.String(), Cause: err}
	case TimedOut:
		out.Err = &ConnectTimeoutError{Address: c.String(), Deadline: f.settings.ConnectTimeout}
	}
	return out
}

// release closes a socket the factory still owns.
func (f *Factory) release(conn net.Conn) {
	_ = conn.Close()
	f.metrics.handles.Dec()
}

func filterFamily(candidates []Candidate, family Family) []Candidate {
	filtered := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Family == family {
			filtered = append(filtered, c)
		}
	}
	return filtered
}
