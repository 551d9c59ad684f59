package tcpstream

import (
	"context"
	"net/netip"
	"time"
)

// NameResolver is the name-resolution service a Factory consults for logical
// hosts. *net.Resolver implements it, and so does the DNS-server resolver
// configured with WithNameServers.
type NameResolver interface {
	// LookupNetIP returns the addresses of host in the service's own order.
	// An empty slice with a nil error is a valid answer.
	LookupNetIP(ctx context.Context, network, host string) ([]netip.Addr, error)
}

// ttlResolver is implemented by resolvers that know how long their answer
// stays valid. Others are cached for the cache's maximum TTL.
type ttlResolver interface {
	lookupNetIPTTL(ctx context.Context, host string) ([]netip.Addr, time.Duration, error)
}

// addressResolver turns a Target into its ordered candidate list.
//
// It never reorders, deduplicates or filters what the name service returns;
// the family of each candidate is sorted out when it is dialed.
type addressResolver struct {
	names  NameResolver
	cache  *addrCache
	logger Logger
}

func (r *addressResolver) resolve(ctx context.Context, t Target) ([]Candidate, error) {
	// Literal addresses never touch the name service or the cache, so
	// resolving them cannot block.
	if t.IsLiteral() {
		return []Candidate{newCandidate(t.addr, t.port)}, nil
	}

	addrs, err := r.lookup(ctx, t.host)
	if err != nil {
		return nil, &ResolutionError{Host: t.host, Err: err}
	}

	// Keep the name service's order and any duplicates. Ordering is how
	// operators express preference (and how round-robin DNS spreads load),
	// so sorting here would silently override them.
	candidates := make([]Candidate, 0, len(addrs))
	for _, addr := range addrs {
		candidates = append(candidates, newCandidate(addr, t.port))
	}

	r.logger.Debug("resolved host",
		Field{"host", t.host},
		Field{"candidates", len(candidates)})

	return candidates, nil
}

func (r *addressResolver) lookup(ctx context.Context, host string) ([]netip.Addr, error) {
	if cached := r.cache.get(host); cached != nil {
		r.logger.Debug("address cache hit",
			Field{"host", host},
			Field{"addrs", len(cached)})
		return cached, nil
	}

	var (
		addrs []netip.Addr
		ttl   = r.cache.maxTTL
		err   error
	)
	// Resolvers that see the wire answer (the DNS-server resolver) report a
	// real TTL. For everything else, net.Resolver included, we only know the
	// answer was fresh, so it lives for the cache's maximum TTL.
	if tr, ok := r.names.(ttlResolver); ok {
		addrs, ttl, err = tr.lookupNetIPTTL(ctx, host)
	} else {
		addrs, err = r.names.LookupNetIP(ctx, "ip", host)
	}
	if err != nil {
		return nil, err
	}

	r.cache.set(host, addrs, ttl)
	return addrs, nil
}
