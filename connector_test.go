package netdial

import (
	"context"
	"net"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/require"
)

// acceptingListener starts a loopback listener that accepts until the test
// ends and returns its address. The root package cannot use the testing
// subpackage without an import cycle, so it carries its own tiny helper.
func acceptingListener(t *testing.T) netip.AddrPort {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })

	go func() {
		for {
			c, err := l.Accept()
			if err != nil {
				return
			}
			c.Close()
		}
	}()

	return l.Addr().(*net.TCPAddr).AddrPort()
}

func TestNetConnectorConnect(t *testing.T) {
	raddr := acceptingListener(t)
	c := &NetConnector{}

	// background context: the uninterruptible path.
	conn, err := c.Connect(context.Background(), raddr)
	require.NoError(t, err)
	require.Equal(t, raddr.String(), conn.RemoteAddr().String())
	require.NoError(t, conn.Close())

	// cancellable context: the interruptible path.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	conn, err = c.Connect(ctx, raddr)
	require.NoError(t, err)
	require.NoError(t, conn.Close())
}

func TestNetConnectorLocalAddr(t *testing.T) {
	raddr := acceptingListener(t)
	c := &NetConnector{LocalAddr: &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1)}}

	conn, err := c.Connect(context.Background(), raddr)
	require.NoError(t, err)
	defer conn.Close()
	require.Equal(t, "127.0.0.1", conn.LocalAddr().(*net.TCPAddr).IP.String())
}

func TestNetConnectorInvalidAddr(t *testing.T) {
	c := &NetConnector{}
	_, err := c.Connect(context.Background(), netip.AddrPort{})
	var ae *net.AddrError
	require.ErrorAs(t, err, &ae)
}

func TestNetConnectorCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := &NetConnector{}
	_, err := c.Connect(ctx, netip.MustParseAddrPort("192.0.2.1:80"))
	require.ErrorIs(t, err, context.Canceled)
}

func TestNetConnectorRefused(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	raddr := l.Addr().(*net.TCPAddr).AddrPort()
	require.NoError(t, l.Close())

	c := &NetConnector{}
	_, err = c.Connect(context.Background(), raddr)
	require.Error(t, err)
}
