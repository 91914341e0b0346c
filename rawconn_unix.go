//go:build unix

package netdial

import (
	"context"
	"net"
	"net/netip"
	"os"
	"strconv"
	"time"

	"golang.org/x/sys/unix"
)

// RawConnector dials with an explicitly-managed socket: a non-blocking
// connect raced against the context through interval-bounded readiness
// polls. NetConnector is the default; this variant exists for callers that
// cannot rely on the runtime's poller-integrated connect.
type RawConnector struct {
	// LocalAddr, when set, binds the outbound socket before connecting.
	LocalAddr *net.TCPAddr

	// PollInterval bounds one readiness wait slice. Zero means
	// DefaultPollInterval.
	PollInterval time.Duration
}

var _ Connector = (*RawConnector)(nil)

func (c *RawConnector) Connect(ctx context.Context, raddr netip.AddrPort) (net.Conn, error) {
	if err := ctxCause(ctx); err != nil {
		return nil, err
	}
	if !raddr.Addr().IsValid() {
		return nil, &net.AddrError{Err: "invalid address", Addr: raddr.String()}
	}

	fd, err := c.socket(raddr.Addr())
	if err != nil {
		return nil, err
	}
	if err := c.connect(ctx, fd, raddr); err != nil {
		unix.Close(fd)
		return nil, err
	}

	f := os.NewFile(uintptr(fd), raddr.String())
	defer f.Close()
	conn, err := net.FileConn(f)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// socket creates a non-blocking stream socket for the candidate's address
// family and applies the local bind, closing the descriptor on any failure.
func (c *RawConnector) socket(addr netip.Addr) (int, error) {
	family := unix.AF_INET
	if IPv6Only(addr) {
		family = unix.AF_INET6
	}
	fd, err := unix.Socket(family, unix.SOCK_STREAM, unix.IPPROTO_TCP)
	if err != nil {
		return -1, os.NewSyscallError("socket", err)
	}
	unix.CloseOnExec(fd)
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return -1, os.NewSyscallError("setnonblock", err)
	}
	if c.LocalAddr != nil {
		lsa, err := bindSockaddr(family, c.LocalAddr)
		if err != nil {
			unix.Close(fd)
			return -1, err
		}
		if err := unix.Bind(fd, lsa); err != nil {
			unix.Close(fd)
			return -1, os.NewSyscallError("bind", err)
		}
	}
	return fd, nil
}

func (c *RawConnector) connect(ctx context.Context, fd int, raddr netip.AddrPort) error {
	rsa := connSockaddr(raddr)

	if ctx.Done() == nil {
		// nothing can ever cancel this dial; connect in blocking mode with
		// no completion race at all.
		if err := unix.SetNonblock(fd, false); err != nil {
			return os.NewSyscallError("setnonblock", err)
		}
		switch err := unix.Connect(fd, rsa); err {
		case nil, unix.EISCONN:
			return nil
		case unix.EINTR:
			// the connect keeps going in the background; pick it up below.
		default:
			return os.NewSyscallError("connect", err)
		}
		return c.waitConnected(ctx, fd)
	}

	switch err := unix.Connect(fd, rsa); err {
	case nil, unix.EISCONN:
		return nil
	case unix.EINPROGRESS, unix.EINTR:
	default:
		return os.NewSyscallError("connect", err)
	}
	return c.waitConnected(ctx, fd)
}

// waitConnected blocks until the in-flight connect resolves or ctx fires,
// then finalizes the attempt from SO_ERROR.
func (c *RawConnector) waitConnected(ctx context.Context, fd int) error {
	for {
		if err := waitFD(ctx, fd, Writable, c.PollInterval); err != nil {
			return err
		}
		nerr, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ERROR)
		if err != nil {
			return os.NewSyscallError("getsockopt", err)
		}
		switch errno := unix.Errno(nerr); errno {
		case 0, unix.EISCONN:
			if _, err := unix.Getpeername(fd); err != nil {
				// writable with a clean SO_ERROR but no peer: the kernel
				// gave up without saying why.
				return ErrUnsupportedFamily
			}
			return nil
		case unix.EINPROGRESS, unix.EALREADY, unix.EINTR:
			// still in flight
		default:
			return os.NewSyscallError("connect", errno)
		}
	}
}

func connSockaddr(ap netip.AddrPort) unix.Sockaddr {
	addr := ap.Addr()
	if IPv4Only(addr) {
		return &unix.SockaddrInet4{Port: int(ap.Port()), Addr: addr.Unmap().As4()}
	}
	sa := &unix.SockaddrInet6{Port: int(ap.Port()), Addr: addr.As16()}
	if zone := addr.Zone(); zone != "" {
		sa.ZoneId = zoneID(zone)
	}
	return sa
}

func bindSockaddr(family int, laddr *net.TCPAddr) (unix.Sockaddr, error) {
	if len(laddr.IP) == 0 {
		// port-only bind on the unspecified address of the right family
		if family == unix.AF_INET6 {
			return &unix.SockaddrInet6{Port: laddr.Port}, nil
		}
		return &unix.SockaddrInet4{Port: laddr.Port}, nil
	}
	ap, ok := netip.AddrFromSlice(laddr.IP)
	if !ok {
		return nil, &net.AddrError{Err: "invalid local address", Addr: laddr.String()}
	}
	ap = ap.Unmap()
	if family == unix.AF_INET6 {
		if !IPv6Only(ap) {
			return nil, &net.AddrError{Err: "local address family mismatch", Addr: laddr.String()}
		}
		sa := &unix.SockaddrInet6{Port: laddr.Port, Addr: ap.As16()}
		if laddr.Zone != "" {
			sa.ZoneId = zoneID(laddr.Zone)
		}
		return sa, nil
	}
	if !IPv4Only(ap) {
		return nil, &net.AddrError{Err: "local address family mismatch", Addr: laddr.String()}
	}
	return &unix.SockaddrInet4{Port: laddr.Port, Addr: ap.As4()}, nil
}

func zoneID(zone string) uint32 {
	if ifi, err := net.InterfaceByName(zone); err == nil {
		return uint32(ifi.Index)
	}
	if n, err := strconv.Atoi(zone); err == nil {
		return uint32(n)
	}
	log.Warnf("unknown IPv6 zone %q, connecting without a scope", zone)
	return 0
}
