package netdial

import (
	"context"
	"net"
	"net/netip"
)

// dialSerial attempts the candidate addresses one at a time, in resolver
// order, until one connects. The context is consulted before every attempt
// and re-checked after it, so a cancellation observed at a checkpoint wins
// over whatever the attempt produced: candidates after the checkpoint are
// never tried, and a socket that finished connecting in the same instant is
// closed rather than returned.
func (d *Dialer) dialSerial(ctx context.Context, host string, addrs []netip.Addr, port uint16) (net.Conn, error) {
	if len(addrs) == 0 {
		return nil, &ResolveError{Host: host, Cause: ErrNoAddresses}
	}

	dialErr := &DialError{Host: host}
	for i, addr := range addrs {
		if err := ctxCause(ctx); err != nil {
			log.Debugf("dial to %s aborted with %d candidates left: %s", host, len(addrs)-i, err)
			return nil, err
		}

		raddr := netip.AddrPortFrom(addr, port)
		d.metrics.observeAttempt()
		conn, err := d.connector.Connect(ctx, raddr)
		if err == nil {
			if cerr := ctxCause(ctx); cerr != nil {
				// connected and cancelled in the same instant; the caller
				// already gave up, so the socket must not survive.
				conn.Close()
				return nil, cerr
			}
			return conn, nil
		}
		if cerr := ctxCause(ctx); cerr != nil {
			return nil, cerr
		}
		log.Debugf("dial attempt to %s failed: %s", raddr, err)
		dialErr.recordErr(raddr, err)
	}
	return nil, dialErr
}
