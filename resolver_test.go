package tcpstream

import (
	"context"
	"errors"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResolver(names NameResolver, cache *addrCache) *addressResolver {
	if cache == nil {
		cache = newAddrCache(0, 0, 0)
	}
	return &addressResolver{names: names, cache: cache, logger: noopLogger{}}
}

func TestResolve_LiteralSkipsNameService(t *testing.T) {
	names := &mockNameResolver{addrs: mustAddrs("192.0.2.1")}
	r := newTestResolver(names, nil)

	got, err := r.resolve(context.Background(), AddrTarget(netip.MustParseAddr("2001:db8::1"), 443))

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "[2001:db8::1]:443", got[0].String())
	assert.Equal(t, FamilyIPv6, got[0].Family)
	assert.Zero(t, names.calls.Load())
}

func TestResolve_PreservesOrderAndDuplicates(t *testing.T) {
	names := &mockNameResolver{addrs: mustAddrs("10.0.0.2", "2001:db8::2", "10.0.0.1", "10.0.0.2")}
	r := newTestResolver(names, nil)

	got, err := r.resolve(context.Background(), HostTarget("db.internal", 27017))

	require.NoError(t, err)
	assert.Equal(t, candidates(
		"10.0.0.2:27017",
		"[2001:db8::2]:27017",
		"10.0.0.1:27017",
		"10.0.0.2:27017",
	), got)
}

func TestResolve_UnmapsIPv4MappedAddresses(t *testing.T) {
	names := &mockNameResolver{addrs: mustAddrs("::ffff:127.0.0.1", "::1")}
	r := newTestResolver(names, nil)

	got, err := r.resolve(context.Background(), HostTarget("localhost", 80))

	require.NoError(t, err)
	assert.Equal(t, candidates("127.0.0.1:80", "[::1]:80"), got)
	assert.Equal(t, FamilyIPv4, got[0].Family)
}

func TestResolve_EmptyAnswerIsNotAnError(t *testing.T) {
	r := newTestResolver(&mockNameResolver{}, nil)

	got, err := r.resolve(context.Background(), HostTarget("empty.internal", 80))

	assert.NoError(t, err)
	assert.Empty(t, got)
}

func TestResolve_LookupFailure(t *testing.T) {
	errServFail := errors.New("server misbehaving")
	r := newTestResolver(&mockNameResolver{err: errServFail}, nil)

	got, err := r.resolve(context.Background(), HostTarget("broken.internal", 80))

	assert.Nil(t, got)
	var resErr *ResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, "broken.internal", resErr.Host)
	assert.ErrorIs(t, err, errServFail)
}

func TestResolve_CacheHit(t *testing.T) {
	names := &mockNameResolver{addrs: mustAddrs("10.0.0.1", "10.0.0.2")}
	r := newTestResolver(names, newAddrCache(10, time.Second, time.Minute))
	target := HostTarget("db.internal", 27017)

	first, err := r.resolve(context.Background(), target)
	require.NoError(t, err)
	second, err := r.resolve(context.Background(), target)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), names.calls.Load())
}

func TestResolve_EmptyAnswerIsNotCached(t *testing.T) {
	names := &mockNameResolver{}
	r := newTestResolver(names, newAddrCache(10, time.Second, time.Minute))
	target := HostTarget("empty.internal", 80)

	_, err := r.resolve(context.Background(), target)
	require.NoError(t, err)
	_, err = r.resolve(context.Background(), target)
	require.NoError(t, err)

	assert.Equal(t, int32(2), names.calls.Load())
}

func TestAddrCache_ReturnsCopies(t *testing.T) {
	c := newAddrCache(10, time.Second, time.Minute)
	c.set("db.internal", mustAddrs("10.0.0.1"), 30*time.Second)

	got := c.get("db.internal")
	require.Len(t, got, 1)
	got[0] = netip.MustParseAddr("10.9.9.9")

	assert.Equal(t, mustAddrs("10.0.0.1"), c.get("db.internal"))
}

func TestAddrCache_ClampsTTL(t *testing.T) {
	c := newAddrCache(10, 50*time.Millisecond, time.Minute)

	// A zero TTL is raised to the minimum, so the entry survives briefly.
	c.set("db.internal", mustAddrs("10.0.0.1"), 0)
	assert.NotNil(t, c.get("db.internal"))

	assert.Eventually(t, func() bool {
		return c.get("db.internal") == nil
	}, time.Second, 10*time.Millisecond)
}

func TestAddrCache_Disabled(t *testing.T) {
	c := newAddrCache(0, 0, 0)
	c.set("db.internal", mustAddrs("10.0.0.1"), time.Minute)

	assert.Nil(t, c.get("db.internal"))
}

func TestAddrCache_CapsTTL(t *testing.T) {
	c := newAddrCache(10, 0, 50*time.Millisecond)

	// A day-long TTL is cut down to the maximum.
	c.set("db.internal", mustAddrs("10.0.0.1"), 24*time.Hour)
	assert.NotNil(t, c.get("db.internal"))

	assert.Eventually(t, func() bool {
		return c.get("db.internal") == nil
	}, time.Second, 10*time.Millisecond)
}
