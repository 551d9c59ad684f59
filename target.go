// Copyright 2025 Bruno Schaatsbergen. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tcpstream

import (
	"fmt"
	"net"
	"net/netip"
	"strconv"
)

// Family is the address family of a candidate address.
type Family int

const (
	// FamilyUnspecified lets the dialer pick the family from the address.
	FamilyUnspecified Family = iota
	// FamilyIPv4 dials over IPv4 ("tcp4").
	FamilyIPv4
	// FamilyIPv6 dials over IPv6 ("tcp6").
	FamilyIPv6
)

// String returns the family name.
func (f Family) String() string {
	switch f {
	case FamilyIPv4:
		return "ipv4"
	case FamilyIPv6:
		return "ipv6"
	default:
		return "unspecified"
	}
}

// network maps the family to the network name understood by net.Dialer.
func (f Family) network() string {
	switch f {
	case FamilyIPv4:
		return "tcp4"
	case FamilyIPv6:
		return "tcp6"
	default:
		return "tcp"
	}
}

// familyOf derives the family of a concrete address. IPv4-mapped IPv6
// addresses count as IPv4.
func familyOf(addr netip.Addr) Family {
	switch {
	case !addr.IsValid():
		return FamilyUnspecified
	case addr.Is4() || addr.Is4In6():
		return FamilyIPv4
	default:
		return FamilyIPv6
	}
}

// Target is the endpoint a stream is requested for: either a logical host
// that must be resolved, or a literal address that is already concrete.
//
// A Target is immutable once constructed.
type Target struct {
	host string
	addr netip.Addr
	port uint16
}

// HostTarget returns a logical target that is resolved before dialing.
func HostTarget(host string, port uint16) Target {
	return Target{host: host, port: port}
}

// AddrTarget returns a literal target. Resolving it never suspends.
//
// addr must be valid; a Target built from the zero netip.Addr has neither a
// host nor an address and is rejected by CreateStream.
func AddrTarget(addr netip.Addr, port uint16) Target {
	return Target{addr: addr, port: port}
}

// ParseTarget parses "host:port". IP literals produce an AddrTarget, anything
// else a HostTarget.
func ParseTarget(hostport string) (Target, error) {
	host, portStr, err := net.SplitHostPort(hostport)
	if err != nil {
		return Target{}, fmt.Errorf("invalid address %q: %w", hostport, err)
	}

	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return Target{}, fmt.Errorf("invalid port in %q: %w", hostport, err)
	}

	if addr, err := netip.ParseAddr(host); err == nil {
		return AddrTarget(addr, uint16(port)), nil
	}
	if host == "" {
		return Target{}, fmt.Errorf("invalid address %q: missing host", hostport)
	}
	return HostTarget(host, uint16(port)), nil
}

func (t Target) validate() error {
	if !t.IsLiteral() && t.host == "" {
		return fmt.Errorf("%w: no host or address in %q", ErrInvalidTarget, t.String())
	}
	return nil
}

// IsLiteral reports whether the target is already a concrete address.
func (t Target) IsLiteral() bool { return t.addr.IsValid() }

// Host returns the logical host name, or the literal address as a string.
func (t Target) Host() string {
	if t.IsLiteral() {
		return t.addr.String()
	}
	return t.host
}

// Port returns the target port.
func (t Target) Port() uint16 { return t.port }

// String returns the target in host:port form.
func (t Target) String() string {
	return net.JoinHostPort(t.Host(), strconv.Itoa(int(t.port)))
}

// Candidate is one concrete address produced by resolving a Target.
type Candidate struct {
	Addr   netip.AddrPort
	Family Family
}

// newCandidate unmaps IPv4-mapped IPv6 addresses, so the system resolver
// and the DNS-server resolver produce identical candidates.
func newCandidate(addr netip.Addr, port uint16) Candidate {
	addr = addr.Unmap()
	return Candidate{
		Addr:   netip.AddrPortFrom(addr, port),
		Family: familyOf(addr),
	}
}

// String returns the candidate address in host:port form.
func (c Candidate) String() string { return c.Addr.String() }

// network picks the dial network for the candidate, falling back to the
// configured family only when the candidate does not carry one.
func (c Candidate) network(fallback Family) string {
	if c.Family != FamilyUnspecified {
		return c.Family.network()
	}
	return fallback.network()
}
