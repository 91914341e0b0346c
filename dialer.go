package netdial

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"golang.org/x/sync/semaphore"
)

// Dialer establishes outbound stream connections. It resolves a host into
// an ordered candidate list, attempts the candidates sequentially through
// its Connector, and layers cancellation, the dial deadline and optional
// endpoint backoff over every attempt. The zero-option Dialer returned by
// NewDialer is ready to use.
type Dialer struct {
	resolver  Resolver
	connector Connector
	filters   []AddrFilter
	laddr     *net.TCPAddr
	timeout   time.Duration
	clock     clock.Clock
	backoff   *Backoff
	metrics   *dialMetrics
	sem       *semaphore.Weighted

	useBackoff bool

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewDialer constructs a Dialer.
func NewDialer(opts ...Option) (*Dialer, error) {
	d := &Dialer{
		timeout: DialTimeout,
		clock:   clock.New(),
	}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}
	if d.connector == nil {
		d.connector = &NetConnector{LocalAddr: d.laddr}
	} else if d.laddr != nil {
		return nil, errors.New("WithLocalAddr applies to the default connector only")
	}
	if d.resolver == nil {
		d.resolver = NewNetResolver(nil)
	}
	if d.backoff == nil && d.useBackoff {
		d.backoff = NewBackoff(d.clock)
	}
	d.ctx, d.cancel = context.WithCancel(context.Background())
	return d, nil
}

// Close releases the dialer. In-flight dials abort with ErrDialerClosed and
// subsequent dials fail immediately.
func (d *Dialer) Close() error {
	d.closeOnce.Do(d.cancel)
	return nil
}

// Dial connects to host:port using the background context. With no timeout
// configured either, the dial runs on the uninterruptible fast path.
func (d *Dialer) Dial(host string, port uint16) (net.Conn, error) {
	return d.DialContext(context.Background(), host, port)
}

// DialContext connects to host:port, attempting every resolved candidate
// address in order until one succeeds. It returns the connected socket, or
// an error telling apart cancellation (ctx's error), the dial timeout
// (ErrDialTimeout), resolution failure (*ResolveError) and attempt
// exhaustion (*DialError, whose cause is the last candidate's failure).
func (d *Dialer) DialContext(ctx context.Context, host string, port uint16) (net.Conn, error) {
	if err := ctxCause(ctx); err != nil {
		// a caller that already cancelled never reaches the network.
		return nil, err
	}
	select {
	case <-d.ctx.Done():
		return nil, ErrDialerClosed
	default:
	}

	started := d.clock.Now()
	if d.backoff != nil && d.backoff.Backoff(host, port) {
		log.Debugf("dial to %s:%d rejected, endpoint is backing off", host, port)
		d.metrics.observeDial(ErrDialBackoff, d.clock.Since(started))
		return nil, ErrDialBackoff
	}

	ctx, release := d.dialCtx(ctx)
	defer release()
	ctx, releaseTimer := withDeadline(ctx, d.clock, d.timeout)
	defer releaseTimer()

	conn, err := d.dialAddrs(ctx, host, port)
	d.metrics.observeDial(err, d.clock.Since(started))

	if d.backoff != nil {
		switch {
		case err == nil:
			d.backoff.Clear(host, port)
		case isBackoffWorthy(err):
			d.backoff.AddBackoff(host, port)
		}
	}
	if err != nil {
		log.Debugw("dial failed", "host", host, "port", port, "error", err)
		return nil, err
	}
	return conn, nil
}

// DialAddr connects to a single pre-resolved address; resolution and the
// address filters are skipped.
func (d *Dialer) DialAddr(ctx context.Context, raddr netip.AddrPort) (net.Conn, error) {
	return d.DialContext(ctx, raddr.Addr().String(), raddr.Port())
}

// DialAsync starts the dial on a background goroutine and immediately
// returns a Request handle for awaiting, inspecting or cancelling it. When
// the dialer has a concurrency limit, the request reports StatusBlocked
// while it waits for a slot.
func (d *Dialer) DialAsync(ctx context.Context, host string, port uint16) *Request {
	req := NewRequest(ctx, host, port)
	go func() {
		if d.sem != nil {
			req.setStatus(StatusBlocked)
			if err := d.sem.Acquire(req.Context(), 1); err != nil {
				if cerr := ctxCause(req.Context()); cerr != nil {
					err = cerr
				}
				req.Complete(nil, err)
				return
			}
			defer d.sem.Release(1)
			req.setStatus(StatusInflight)
		}
		req.Complete(d.DialContext(req.Context(), host, port))
	}()
	return req
}

// dialAddrs resolves the host and hands the candidates to the serial
// engine. A resolution failure that raced a cancellation reports the
// cancellation, not the lookup error.
func (d *Dialer) dialAddrs(ctx context.Context, host string, port uint16) (net.Conn, error) {
	addrs, err := d.resolveAddrs(ctx, host)
	if err != nil {
		if cerr := ctxCause(ctx); cerr != nil {
			return nil, cerr
		}
		return nil, err
	}
	return d.dialSerial(ctx, host, addrs, port)
}

// dialCtx derives the per-dial context: cancelled by the caller or by the
// dialer closing, whichever comes first.
func (d *Dialer) dialCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	dctx, cancel := context.WithCancelCause(ctx)
	stop := context.AfterFunc(d.ctx, func() { cancel(ErrDialerClosed) })
	return dctx, func() {
		stop()
		cancel(nil)
	}
}

// isBackoffWorthy reports whether a dial failure indicts the endpoint
// itself. Cancellations are the caller's doing and resolution failures
// never reached the endpoint, so neither counts against it.
func isBackoffWorthy(err error) bool {
	return errors.Is(err, ErrAllDialsFailed) || errors.Is(err, ErrDialTimeout)
}
