//go:build !unix

package netdial

import (
	"context"
	"net"
	"net/netip"
	"time"
)

// RawConnector is not implemented on this platform; every Connect fails
// with ErrReadinessUnsupported. Use NetConnector instead.
type RawConnector struct {
	LocalAddr    *net.TCPAddr
	PollInterval time.Duration
}

var _ Connector = (*RawConnector)(nil)

func (c *RawConnector) Connect(ctx context.Context, raddr netip.AddrPort) (net.Conn, error) {
	return nil, ErrReadinessUnsupported
}
