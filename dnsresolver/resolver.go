// Package dnsresolver provides a netdial.Resolver that queries a specific
// DNS server instead of the system resolver, for split-horizon setups and
// tests that need full control over resolution.
package dnsresolver

import (
	"context"
	"fmt"
	"net/netip"
	"time"

	logging "github.com/ipfs/go-log/v2"
	"github.com/miekg/dns"
	"go.uber.org/multierr"

	netdial "github.com/netdial/go-netdial"
)

var log = logging.Logger("netdial/dns")

// Resolver looks up A and AAAA records against one upstream server. Answer
// order within a record family follows the server's response order; the
// families are concatenated IPv4-first unless PreferIPv6 is set.
type Resolver struct {
	server  string
	client  *dns.Client
	prefer6 bool
}

var _ netdial.Resolver = (*Resolver)(nil)

type Option func(*Resolver) error

// WithTimeout bounds each DNS exchange (default: 5s).
func WithTimeout(t time.Duration) Option {
	return func(r *Resolver) error {
		if t <= 0 {
			return fmt.Errorf("exchange timeout must be positive")
		}
		r.client.Timeout = t
		return nil
	}
}

// WithTCP exchanges queries over TCP instead of UDP.
func WithTCP() Option {
	return func(r *Resolver) error {
		r.client.Net = "tcp"
		return nil
	}
}

// PreferIPv6 orders AAAA answers ahead of A answers.
func PreferIPv6() Option {
	return func(r *Resolver) error {
		r.prefer6 = true
		return nil
	}
}

// New builds a Resolver querying the DNS server at addr (host:port).
func New(addr string, opts ...Option) (*Resolver, error) {
	r := &Resolver{
		server: addr,
		client: &dns.Client{Timeout: 5 * time.Second},
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// LookupAddrs implements netdial.Resolver. A family whose query fails is
// skipped as long as the other one produced addresses; the lookup fails
// only when neither family yields a candidate.
func (r *Resolver) LookupAddrs(ctx context.Context, host string) ([]netip.Addr, error) {
	fqdn := dns.Fqdn(host)

	qtypes := []uint16{dns.TypeA, dns.TypeAAAA}
	if r.prefer6 {
		qtypes = []uint16{dns.TypeAAAA, dns.TypeA}
	}

	var addrs []netip.Addr
	var merr error
	for _, qtype := range qtypes {
		found, err := r.query(ctx, fqdn, qtype)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Debugf("lookup %s: %s query failed: %s", host, dns.TypeToString[qtype], err)
			merr = multierr.Append(merr, err)
			continue
		}
		addrs = append(addrs, found...)
	}
	if len(addrs) == 0 {
		if merr != nil {
			return nil, merr
		}
		return nil, fmt.Errorf("no address records for %s", host)
	}
	return addrs, nil
}

func (r *Resolver) query(ctx context.Context, fqdn string, qtype uint16) ([]netip.Addr, error) {
	m := new(dns.Msg)
	m.SetQuestion(fqdn, qtype)

	// ExchangeContext honors context deadlines but not bare cancellation,
	// so race it against ctx. An abandoned exchange ends on its own once
	// the client timeout elapses.
	type exchanged struct {
		resp *dns.Msg
		err  error
	}
	ch := make(chan exchanged, 1)
	go func() {
		resp, _, err := r.client.ExchangeContext(ctx, m, r.server)
		ch <- exchanged{resp, err}
	}()

	var resp *dns.Msg
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case ex := <-ch:
		if ex.err != nil {
			return nil, ex.err
		}
		resp = ex.resp
	}
	if resp.Rcode != dns.RcodeSuccess {
		return nil, fmt.Errorf("%s query for %s: %s", dns.TypeToString[qtype], fqdn, dns.RcodeToString[resp.Rcode])
	}

	var addrs []netip.Addr
	for _, rr := range resp.Answer {
		switch rec := rr.(type) {
		case *dns.A:
			if a, ok := netip.AddrFromSlice(rec.A); ok {
				addrs = append(addrs, a.Unmap())
			}
		case *dns.AAAA:
			if a, ok := netip.AddrFromSlice(rec.AAAA); ok {
				addrs = append(addrs, a)
			}
		}
	}
	return addrs, nil
}
