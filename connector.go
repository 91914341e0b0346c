package netdial

import (
	"context"
	"net"
	"net/netip"
)

// Connector establishes a stream connection to a single, already-resolved
// address. Implementations never return a connection alongside an error and
// never leave a socket open on a failure path.
type Connector interface {
	Connect(ctx context.Context, raddr netip.AddrPort) (net.Conn, error)
}

// NetConnector is the default Connector. It delegates to net.Dialer, whose
// in-flight connects park on the runtime poller and unblock the moment the
// context fires.
type NetConnector struct {
	// LocalAddr, when set, binds the outbound socket before connecting.
	LocalAddr *net.TCPAddr
}

var _ Connector = (*NetConnector)(nil)

func (c *NetConnector) Connect(ctx context.Context, raddr netip.AddrPort) (net.Conn, error) {
	if !raddr.Addr().IsValid() {
		return nil, &net.AddrError{Err: "invalid address", Addr: raddr.String()}
	}
	var nd net.Dialer
	if c.LocalAddr != nil {
		nd.LocalAddr = c.LocalAddr
	}
	if ctx.Done() == nil {
		// nothing can ever cancel this dial; skip the interrupt plumbing.
		return nd.Dial("tcp", raddr.String())
	}
	return nd.DialContext(ctx, "tcp", raddr.String())
}
