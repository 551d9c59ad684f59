package tcpstream

import (
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
)

// Option is a function that configures a Factory.
type Option func(*Factory)

// WithSettings replaces all connection settings at once.
//
// Example:
//
//	s := DefaultSettings()
//	s.ConnectTimeout = 5 * time.Second
//	factory := New(WithSettings(s))
func WithSettings(s Settings) Option {
	return func(f *Factory) {
		f.settings = s
	}
}

// WithConnectTimeout sets the per-attempt connect deadline. It restarts for
// every candidate, and also bounds the name lookup of a logical host.
//
// Use InfiniteTimeout to rely on the caller's context alone. Default is 30
// seconds.
func WithConnectTimeout(d time.Duration) Option {
	return func(f *Factory) {
		f.settings.ConnectTimeout = d
	}
}

// WithReadTimeout sets the timeout applied to every Read on the returned
// stream. Zero (the default) leaves reads without a deadline.
func WithReadTimeout(d time.Duration) Option {
	return func(f *Factory) {
		f.settings.ReadTimeout = d
	}
}

// WithWriteTimeout sets the timeout applied to every Write on the returned
// stream. Zero (the default) leaves writes without a deadline.
func WithWriteTimeout(d time.Duration) Option {
	return func(f *Factory) {
		f.settings.WriteTimeout = d
	}
}

// WithSendBufferSize sets SO_SNDBUF on connected sockets. Default is 64 KiB.
func WithSendBufferSize(n int) Option {
	return func(f *Factory) {
		f.settings.SendBufferSize = n
	}
}

// WithReceiveBufferSize sets SO_RCVBUF on connected sockets. Default is 64 KiB.
func WithReceiveBufferSize(n int) Option {
	return func(f *Factory) {
		f.settings.ReceiveBufferSize = n
	}
}

// WithAddressFamily sets the family used for candidates that do not carry
// one of their own.
func WithAddressFamily(family Family) Option {
	return func(f *Factory) {
		f.settings.AddressFamily = family
	}
}

// WithSocketConfigurator installs a callback that runs on every connected
// socket after the defaults (no-delay, buffer sizes) have been applied.
// Returning an error fails the call with a *SocketConfigurationError.
//
// Example:
//
//	factory := New(
//	    WithSocketConfigurator(func(c SocketConn) error {
//	        return c.(*net.TCPConn).SetKeepAlive(true)
//	    }),
//	)
func WithSocketConfigurator(fn func(SocketConn) error) Option {
	return func(f *Factory) {
		f.settings.SocketConfigurator = fn
	}
}

// WithNameResolver sets the name-resolution service used for logical hosts.
// Default is net.DefaultResolver.
func WithNameResolver(r NameResolver) Option {
	return func(f *Factory) {
		f.names = r
	}
}

// WithNameServers resolves logical hosts by querying the given DNS servers
// directly instead of the system resolver. Servers are tried in order.
//
// Each address can be an IP with or without port ("8.8.8.8:53", "8.8.8.8");
// port 53 is assumed when missing.
func WithNameServers(addrs ...string) Option {
	return func(f *Factory) {
		f.nameServers = append(f.nameServers, addrs...)
	}
}

// WithDNSTimeout sets the per-query timeout used by WithNameServers when the
// context carries no deadline. Default is 2 seconds.
func WithDNSTimeout(d time.Duration) Option {
	return func(f *Factory) {
		f.dnsTimeout = d
	}
}

// WithConnPoolSize sets the number of idle UDP sockets kept per name server.
// Default is 4.
func WithConnPoolSize(size int) Option {
	return func(f *Factory) {
		if size > 0 {
			f.poolSize = size
		}
	}
}

// WithCache enables caching of resolved addresses.
//
// Parameters:
//   - size: Maximum number of hostnames to cache (LRU eviction when full)
//   - minTTL: Minimum lifetime of an entry
//   - maxTTL: Maximum lifetime of an entry, and the lifetime of answers that
//     carry no TTL (such as those of the system resolver)
//
// Example:
//
//	factory := New(WithCache(1000, time.Second, 5*time.Minute))
func WithCache(size int, minTTL, maxTTL time.Duration) Option {
	return func(f *Factory) {
		f.cache = newAddrCache(size, minTTL, maxTTL)
	}
}

// WithConnector replaces the transport connect primitive. Default is a
// net.Dialer.
func WithConnector(c Connector) Option {
	return func(f *Factory) {
		f.connector = c
	}
}

// WithLogger sets a custom logger. Default discards all messages.
func WithLogger(l Logger) Option {
	return func(f *Factory) {
		f.logger = l
	}
}

// WithMetrics registers the factory's gauges and counters with reg. It
// panics if they are already registered, like prometheus.MustRegister.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(f *Factory) {
		reg.MustRegister(f.metrics.collectors()...)
	}
}

// WithClock sets the clock that drives connect deadlines. Tests use
// clock.NewMock to expire deadlines deterministically.
func WithClock(c clock.Clock) Option {
	return func(f *Factory) {
		f.clock = c
	}
}
