// Copyright 2025 Bruno Schaatsbergen. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tcpstream

import (
	"net/netip"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// addrCacheEntry holds the resolved addresses of one host until the answer's
// TTL runs out.
type addrCacheEntry struct {
	addrs     []netip.Addr
	expiresAt time.Time
}

func (e *addrCacheEntry) isExpired() bool {
	return time.Now().After(e.expiresAt)
}

// addrCache is an LRU of resolved addresses keyed by host name. Entries
// expire after the lookup TTL, clamped between minTTL and maxTTL.
//
// Empty answers are never cached, so a host that gains records is picked up
// on the next call.
type addrCache struct {
	entries *lru.LRU[string, *addrCacheEntry]
	mu      sync.RWMutex
	enabled bool

	minTTL time.Duration
	maxTTL time.Duration
}

func newAddrCache(size int, minTTL, maxTTL time.Duration) *addrCache {
	if size <= 0 {
		return &addrCache{enabled: false}
	}

	return &addrCache{
		entries: lru.NewLRU[string, *addrCacheEntry](size, nil, maxTTL),
		enabled: true,
		minTTL:  minTTL,
		maxTTL:  maxTTL,
	}
}

// get returns a copy of the cached addresses for host, or nil on a miss.
func (c *addrCache) get(host string) []netip.Addr {
	if !c.enabled {
		return nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	// The LRU only knows maxTTL, so entries with a shorter clamped TTL are
	// checked against their own expiry here.
	entry, ok := c.entries.Get(host)
	if !ok || entry.isExpired() {
		return nil
	}

	// Hand out a copy; callers build candidate lists from it and must not be
	// able to reorder what later hits see.
	addrs := make([]netip.Addr, len(entry.addrs))
	copy(addrs, entry.addrs)
	return addrs
}

func (c *addrCache) set(host string, addrs []netip.Addr, ttl time.Duration) {
	if !c.enabled || len(addrs) == 0 {
		return
	}

	// Clamp the TTL. A floor stops records with TTL 0 or 1 from churning the
	// cache on every call, and a ceiling makes sure we go back to the name
	// service every so often even when it hands out day-long TTLs. Answers
	// from the system resolver carry no TTL at all and arrive here as maxTTL.
	if ttl < c.minTTL {
		ttl = c.minTTL
	}
	if ttl > c.maxTTL {
		ttl = c.maxTTL
	}

	stored := make([]netip.Addr, len(addrs))
	copy(stored, addrs)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Add(host, &addrCacheEntry{
		addrs:     stored,
		expiresAt: time.Now().Add(ttl),
	})
}
