package netdial

import (
	"errors"
	"net"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/semaphore"
)

type Option func(*Dialer) error

// WithResolver injects a custom Resolver, replacing the standard library
// resolver.
func WithResolver(r Resolver) Option {
	return func(d *Dialer) error {
		if r == nil {
			return errors.New("resolver must not be nil")
		}
		d.resolver = r
		return nil
	}
}

// WithConnector injects a custom Connector, replacing the default
// NetConnector.
func WithConnector(c Connector) Option {
	return func(d *Dialer) error {
		if c == nil {
			return errors.New("connector must not be nil")
		}
		d.connector = c
		return nil
	}
}

// WithLocalAddr binds outbound sockets to laddr. It configures the default
// connector; combining it with WithConnector is a configuration error.
func WithLocalAddr(laddr *net.TCPAddr) Option {
	return func(d *Dialer) error {
		d.laddr = laddr
		return nil
	}
}

// WithTimeout sets the dial timeout, overriding DialTimeout. Zero or
// negative disables the deadline guard entirely, leaving cancellation to
// the caller's context alone.
func WithTimeout(t time.Duration) Option {
	return func(d *Dialer) error {
		d.timeout = t
		return nil
	}
}

// WithAddrFilters drops resolved candidates that fail any of the given
// filters. Filters do not apply to address literals.
func WithAddrFilters(filters ...AddrFilter) Option {
	return func(d *Dialer) error {
		d.filters = append(d.filters, filters...)
		return nil
	}
}

// WithBackoff makes dials to endpoints that recently failed outright fail
// fast with ErrDialBackoff. Passing a non-nil Backoff shares its records
// across dialers; nil gives this dialer a fresh one.
func WithBackoff(b *Backoff) Option {
	return func(d *Dialer) error {
		d.backoff = b
		d.useBackoff = true
		return nil
	}
}

// WithClock injects the clock driving the deadline guard and backoff.
// Tests use this to substitute a mock clock.
func WithClock(clk clock.Clock) Option {
	return func(d *Dialer) error {
		if clk == nil {
			return errors.New("clock must not be nil")
		}
		d.clock = clk
		return nil
	}
}

// WithDialConcurrency bounds how many DialAsync requests may run at once;
// excess requests wait in StatusBlocked. Zero or negative n is a
// configuration error; omit the option for unbounded concurrency.
func WithDialConcurrency(n int) Option {
	return func(d *Dialer) error {
		if n <= 0 {
			return errors.New("dial concurrency must be positive")
		}
		d.sem = semaphore.NewWeighted(int64(n))
		return nil
	}
}

// WithMetrics registers dial metrics with reg, or with the default
// prometheus registerer when nil.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(d *Dialer) error {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		m, err := newDialMetrics(reg)
		if err != nil {
			return err
		}
		d.metrics = m
		return nil
	}
}
