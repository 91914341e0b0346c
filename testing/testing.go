package testing

import (
	"context"
	"net"
	"net/netip"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	netdial "github.com/netdial/go-netdial"
)

type config struct {
	timeout   time.Duration
	clk       clock.Clock
	resolver  netdial.Resolver
	connector netdial.Connector
	backoff   *netdial.Backoff
	filters   []netdial.AddrFilter
}

// Option is an option that can be passed when constructing a test dialer.
type Option func(*testing.T, *config)

// OptTimeout overrides the dial timeout of the test dialer.
func OptTimeout(d time.Duration) Option {
	return func(_ *testing.T, c *config) {
		c.timeout = d
	}
}

// OptClock installs the given clock, usually a mock, on the test dialer.
func OptClock(clk clock.Clock) Option {
	return func(_ *testing.T, c *config) {
		c.clk = clk
	}
}

// OptResolver configures the given resolver on the test dialer.
func OptResolver(r netdial.Resolver) Option {
	return func(_ *testing.T, c *config) {
		c.resolver = r
	}
}

// OptConnector configures the given connector on the test dialer.
func OptConnector(conn netdial.Connector) Option {
	return func(_ *testing.T, c *config) {
		c.connector = conn
	}
}

// OptBackoff enables backoff tracking on the test dialer.
func OptBackoff(b *netdial.Backoff) Option {
	return func(_ *testing.T, c *config) {
		c.backoff = b
	}
}

// OptAddrFilters configures resolver result filters on the test dialer.
func OptAddrFilters(fs ...netdial.AddrFilter) Option {
	return func(_ *testing.T, c *config) {
		c.filters = append(c.filters, fs...)
	}
}

// GenDialer generates a new test dialer.
func GenDialer(t *testing.T, opts ...Option) *netdial.Dialer {
	cfg := config{timeout: 5 * time.Second}
	for _, o := range opts {
		o(t, &cfg)
	}

	dopts := []netdial.Option{netdial.WithTimeout(cfg.timeout)}
	if cfg.clk != nil {
		dopts = append(dopts, netdial.WithClock(cfg.clk))
	}
	if cfg.resolver != nil {
		dopts = append(dopts, netdial.WithResolver(cfg.resolver))
	}
	if cfg.connector != nil {
		dopts = append(dopts, netdial.WithConnector(cfg.connector))
	}
	if cfg.backoff != nil {
		dopts = append(dopts, netdial.WithBackoff(cfg.backoff))
	}
	if len(cfg.filters) > 0 {
		dopts = append(dopts, netdial.WithAddrFilters(cfg.filters...))
	}

	d, err := netdial.NewDialer(dopts...)
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

// AcceptingServer starts a loopback TCP listener that accepts connections
// until the test ends, and returns its address.
func AcceptingServer(t *testing.T) netip.AddrPort {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	var (
		mu    sync.Mutex
		conns []net.Conn
	)
	t.Cleanup(func() {
		l.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, c := range conns {
			c.Close()
		}
	})

	go func() {
		for {
			c, err := l.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, c)
			mu.Unlock()
		}
	}()

	return l.Addr().(*net.TCPAddr).AddrPort()
}

// RefusingAddr returns a loopback address with nothing listening on it.
// The port is obtained by binding a listener and immediately closing it,
// so connection attempts are refused rather than blackholed.
func RefusingAddr(t *testing.T) netip.AddrPort {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ap := l.Addr().(*net.TCPAddr).AddrPort()
	require.NoError(t, l.Close())
	return ap
}

// StaticResolver resolves every host to a fixed address list.
type StaticResolver struct {
	Addrs []netip.Addr
	Err   error
}

var _ netdial.Resolver = (*StaticResolver)(nil)

func (r *StaticResolver) LookupAddrs(context.Context, string) ([]netip.Addr, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	return r.Addrs, nil
}

// BlockingConnector parks every connect attempt until its context is
// cancelled. If Started is set, the address of each attempt is sent on it
// before parking.
type BlockingConnector struct {
	Started chan netip.AddrPort
}

var _ netdial.Connector = (*BlockingConnector)(nil)

func (c *BlockingConnector) Connect(ctx context.Context, raddr netip.AddrPort) (net.Conn, error) {
	if c.Started != nil {
		c.Started <- raddr
	}
	<-ctx.Done()
	return nil, ctx.Err()
}
