package netdial

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"

	"golang.org/x/net/proxy"
)

// ProxyConnector tunnels connects through a SOCKS5 proxy. The proxy, not
// the local host, performs the connect to the target, so candidate
// failures surface as proxy replies rather than local socket errors.
type ProxyConnector struct {
	dialer proxy.ContextDialer
}

var _ Connector = (*ProxyConnector)(nil)

// NewProxyConnector builds a ProxyConnector for the SOCKS5 proxy at addr
// (host:port). forward carries the connection to the proxy itself; nil
// dials it directly.
func NewProxyConnector(addr string, auth *proxy.Auth, forward proxy.Dialer) (*ProxyConnector, error) {
	if forward == nil {
		forward = proxy.Direct
	}
	pd, err := proxy.SOCKS5("tcp", addr, auth, forward)
	if err != nil {
		return nil, fmt.Errorf("failed to construct proxy dialer: %w", err)
	}
	cd, ok := pd.(proxy.ContextDialer)
	if !ok {
		return nil, errors.New("proxy dialer does not support contexts")
	}
	return &ProxyConnector{dialer: cd}, nil
}

func (c *ProxyConnector) Connect(ctx context.Context, raddr netip.AddrPort) (net.Conn, error) {
	if !raddr.Addr().IsValid() {
		return nil, &net.AddrError{Err: "invalid address", Addr: raddr.String()}
	}
	return c.dialer.DialContext(ctx, "tcp", raddr.String())
}
