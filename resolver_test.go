package netdial

import (
	"context"
	"errors"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/require"
)

type staticResolver struct {
	addrs []netip.Addr
	err   error
}

func (r *staticResolver) LookupAddrs(context.Context, string) ([]netip.Addr, error) {
	return r.addrs, r.err
}

func TestFilterAddrs(t *testing.T) {
	v4 := netip.MustParseAddr("192.0.2.1")
	v4lo := netip.MustParseAddr("127.0.0.1")
	v6 := netip.MustParseAddr("2001:db8::1")
	v6lo := netip.MustParseAddr("::1")
	mapped := netip.MustParseAddr("::ffff:192.0.2.7")

	addrs := []netip.Addr{v4, v4lo, v6, v6lo, mapped}

	require.Equal(t, addrs, filterAddrs(addrs))
	require.Equal(t, []netip.Addr{v4, v4lo, mapped}, filterAddrs(addrs, IPv4Only))
	require.Equal(t, []netip.Addr{v6, v6lo}, filterAddrs(addrs, IPv6Only))
	require.Equal(t, []netip.Addr{v4, v6, mapped}, filterAddrs(addrs, ExcludeLoopback))
	require.Equal(t, []netip.Addr{v4, mapped}, filterAddrs(addrs, IPv4Only, ExcludeLoopback))
	require.Empty(t, filterAddrs(addrs, IPv4Only, IPv6Only))
}

func TestResolveAddrsLiteral(t *testing.T) {
	// neither the resolver nor the filters may be consulted for a literal.
	d := &Dialer{
		resolver: &staticResolver{err: errors.New("lookup must not run")},
		filters:  []AddrFilter{func(netip.Addr) bool { return false }},
	}

	addrs, err := d.resolveAddrs(context.Background(), "192.0.2.1")
	require.NoError(t, err)
	require.Equal(t, []netip.Addr{netip.MustParseAddr("192.0.2.1")}, addrs)

	addrs, err = d.resolveAddrs(context.Background(), "2001:db8::1")
	require.NoError(t, err)
	require.Equal(t, []netip.Addr{netip.MustParseAddr("2001:db8::1")}, addrs)
}

func TestResolveAddrsLookupFailure(t *testing.T) {
	lookupErr := errors.New("host not found")
	d := &Dialer{resolver: &staticResolver{err: lookupErr}}

	_, err := d.resolveAddrs(context.Background(), "example.com")
	var re *ResolveError
	require.ErrorAs(t, err, &re)
	require.Equal(t, "example.com", re.Host)
	require.ErrorIs(t, err, lookupErr)
}

func TestResolveAddrsEmpty(t *testing.T) {
	d := &Dialer{resolver: &staticResolver{}}

	_, err := d.resolveAddrs(context.Background(), "example.com")
	require.ErrorIs(t, err, ErrNoAddresses)
}

func TestResolveAddrsAllFiltered(t *testing.T) {
	d := &Dialer{
		resolver: &staticResolver{addrs: []netip.Addr{netip.MustParseAddr("2001:db8::1")}},
		filters:  []AddrFilter{IPv4Only},
	}

	_, err := d.resolveAddrs(context.Background(), "example.com")
	require.ErrorIs(t, err, ErrNoAddresses)
	var re *ResolveError
	require.ErrorAs(t, err, &re)
	require.Equal(t, "example.com", re.Host)
}

func TestResolveAddrsKeepsOrder(t *testing.T) {
	want := []netip.Addr{
		netip.MustParseAddr("192.0.2.3"),
		netip.MustParseAddr("192.0.2.1"),
		netip.MustParseAddr("192.0.2.2"),
	}
	d := &Dialer{resolver: &staticResolver{addrs: want}}

	addrs, err := d.resolveAddrs(context.Background(), "example.com")
	require.NoError(t, err)
	require.Equal(t, want, addrs)
}
