package netdial

import (
	"context"
	"fmt"
	"net"
	"net/netip"
)

// Resolver turns a host name into the ordered list of candidate addresses
// the dialer will attempt. The order is the resolver's preference order;
// the dialer never reorders or deduplicates it.
type Resolver interface {
	LookupAddrs(ctx context.Context, host string) ([]netip.Addr, error)
}

// AddrFilter reports whether a resolved candidate should be attempted.
type AddrFilter func(netip.Addr) bool

// IPv4Only keeps only IPv4 candidates.
func IPv4Only(a netip.Addr) bool {
	return a.Is4() || a.Is4In6()
}

// IPv6Only keeps only IPv6 candidates.
func IPv6Only(a netip.Addr) bool {
	return a.Is6() && !a.Is4In6()
}

// ExcludeLoopback drops loopback candidates.
func ExcludeLoopback(a netip.Addr) bool {
	return !a.IsLoopback()
}

// filterAddrs applies all filters to addrs, returning the candidates that
// pass every one of them. Relative order is preserved.
func filterAddrs(addrs []netip.Addr, filters ...AddrFilter) []netip.Addr {
	if len(filters) == 0 {
		return addrs
	}
	kept := make([]netip.Addr, 0, len(addrs))
outer:
	for _, a := range addrs {
		for _, f := range filters {
			if !f(a) {
				continue outer
			}
		}
		kept = append(kept, a)
	}
	return kept
}

// ResolveError is returned when a host yields no candidates, either because
// the lookup itself failed or because nothing survived the address filters.
type ResolveError struct {
	Host  string
	Cause error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("failed to resolve %s: %s", e.Host, e.Cause)
}

func (e *ResolveError) Unwrap() error {
	return e.Cause
}

var _ error = (*ResolveError)(nil)

// netResolver resolves hosts through the standard library resolver.
type netResolver struct {
	res *net.Resolver
}

var _ Resolver = (*netResolver)(nil)

// NewNetResolver returns a Resolver backed by the given standard library
// resolver, or net.DefaultResolver when nil.
func NewNetResolver(r *net.Resolver) Resolver {
	if r == nil {
		r = net.DefaultResolver
	}
	return &netResolver{res: r}
}

func (r *netResolver) LookupAddrs(ctx context.Context, host string) ([]netip.Addr, error) {
	return r.res.LookupNetIP(ctx, "ip", host)
}

// resolveAddrs produces the candidate list for one dial. Hosts that already
// are address literals skip resolution (and the filters) entirely.
func (d *Dialer) resolveAddrs(ctx context.Context, host string) ([]netip.Addr, error) {
	if a, err := netip.ParseAddr(host); err == nil {
		return []netip.Addr{a}, nil
	}

	addrs, err := d.resolver.LookupAddrs(ctx, host)
	if err != nil {
		return nil, &ResolveError{Host: host, Cause: err}
	}
	addrs = filterAddrs(addrs, d.filters...)
	if len(addrs) == 0 {
		return nil, &ResolveError{Host: host, Cause: ErrNoAddresses}
	}
	return addrs, nil
}
