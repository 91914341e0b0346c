package netdial

import (
	"context"
	"errors"
	"time"

	"github.com/benbjohnson/clock"
)

// DialTimeout is the timeout applied to dials unless overridden with
// WithTimeout. A zero or negative timeout disables the deadline guard.
var DialTimeout = 15 * time.Second

// withDeadline layers a dial deadline onto ctx. The returned context is
// cancelled by the caller's ctx or by the timer, whichever fires first; the
// timer records ErrDialTimeout as the cancellation cause so the two sources
// remain distinguishable after the fact. The release function stops the
// timer and must be called on every exit path.
func withDeadline(ctx context.Context, clk clock.Clock, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}
	dctx, cancel := context.WithCancelCause(ctx)
	timer := clk.AfterFunc(timeout, func() {
		cancel(ErrDialTimeout)
	})
	return dctx, func() {
		timer.Stop()
		cancel(nil)
	}
}

// ctxCause maps a fired context to the dial outcome it stands for:
// ErrDialTimeout when the deadline guard fired, ErrDialerClosed when the
// dialer shut down, the plain context error otherwise. Returns nil while
// the context is still live.
func ctxCause(ctx context.Context) error {
	if ctx.Err() == nil {
		return nil
	}
	cause := context.Cause(ctx)
	switch {
	case errors.Is(cause, ErrDialTimeout):
		return ErrDialTimeout
	case errors.Is(cause, ErrDialerClosed):
		return ErrDialerClosed
	}
	return ctx.Err()
}
