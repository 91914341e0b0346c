//go:build unix

package netdial

import (
	"context"
	"net"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/require"

	"golang.org/x/sys/unix"
)

func TestRawConnectorConnect(t *testing.T) {
	raddr := acceptingListener(t)
	c := &RawConnector{}

	// background context: blocking connect, no completion race.
	conn, err := c.Connect(context.Background(), raddr)
	require.NoError(t, err)
	require.Equal(t, raddr.String(), conn.RemoteAddr().String())
	require.NoError(t, conn.Close())

	// cancellable context: non-blocking connect finalized by polling.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	conn, err = c.Connect(ctx, raddr)
	require.NoError(t, err)
	require.Equal(t, raddr.String(), conn.RemoteAddr().String())
	require.NoError(t, conn.Close())
}

func TestRawConnectorRefused(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	raddr := l.Addr().(*net.TCPAddr).AddrPort()
	require.NoError(t, l.Close())

	c := &RawConnector{}

	_, err = c.Connect(context.Background(), raddr)
	require.ErrorIs(t, err, unix.ECONNREFUSED)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_, err = c.Connect(ctx, raddr)
	require.ErrorIs(t, err, unix.ECONNREFUSED)
}

func TestRawConnectorLocalBind(t *testing.T) {
	raddr := acceptingListener(t)
	c := &RawConnector{LocalAddr: &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1)}}

	conn, err := c.Connect(context.Background(), raddr)
	require.NoError(t, err)
	defer conn.Close()
	require.Equal(t, "127.0.0.1", conn.LocalAddr().(*net.TCPAddr).IP.String())
}

func TestRawConnectorFamilyMismatch(t *testing.T) {
	raddr := acceptingListener(t)
	c := &RawConnector{LocalAddr: &net.TCPAddr{IP: net.ParseIP("2001:db8::1")}}

	_, err := c.Connect(context.Background(), raddr)
	var ae *net.AddrError
	require.ErrorAs(t, err, &ae)
}

func TestRawConnectorPreCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := &RawConnector{}
	_, err := c.Connect(ctx, netip.MustParseAddrPort("192.0.2.1:80"))
	require.ErrorIs(t, err, context.Canceled)
}

func TestRawConnectorInvalidAddr(t *testing.T) {
	c := &RawConnector{}
	_, err := c.Connect(context.Background(), netip.AddrPort{})
	var ae *net.AddrError
	require.ErrorAs(t, err, &ae)
}

func TestConnSockaddr(t *testing.T) {
	sa4 := connSockaddr(netip.MustParseAddrPort("192.0.2.1:80"))
	require.Equal(t, &unix.SockaddrInet4{Port: 80, Addr: [4]byte{192, 0, 2, 1}}, sa4)

	// v4-mapped addresses connect through AF_INET
	mapped := connSockaddr(netip.MustParseAddrPort("[::ffff:192.0.2.1]:80"))
	require.Equal(t, sa4, mapped)

	sa6 := connSockaddr(netip.MustParseAddrPort("[2001:db8::1]:443"))
	require.IsType(t, &unix.SockaddrInet6{}, sa6)
	require.Equal(t, 443, sa6.(*unix.SockaddrInet6).Port)
}
