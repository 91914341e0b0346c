package netdial

import (
	"context"
	"fmt"
	"net"
	"sync"
)

// Status represents the status of a Request. It is a bit array where each
// possible status is represented by a bit, to enable efficient mask
// evaluation.
type Status uint32

const (
	// StatusInflight indicates that a request is currently making progress.
	StatusInflight Status = 1 << iota
	// StatusBlocked indicates that a request is waiting its turn, as a
	// result of the dialer's concurrency limit.
	StatusBlocked
	// StatusCompleting indicates that a request has completed and its
	// callbacks are currently firing.
	StatusCompleting
	// StatusComplete indicates that a request has fully completed.
	StatusComplete
)

// Assert panics if the current status does not adhere to the specified bit mask.
func (s *Status) Assert(mask Status) {
	if *s&mask == 0 {
		panic(fmt.Sprintf("illegal state %s; mask: %b", s, mask))
	}
}

func (s Status) String() string {
	switch s {
	case StatusInflight:
		return "Status(Inflight)"
	case StatusBlocked:
		return "Status(Blocked)"
	case StatusCompleting:
		return "Status(Completing)"
	case StatusComplete:
		return "Status(Complete)"
	default:
		return fmt.Sprintf("Status(%d)", s)
	}
}

// internCallbackNames interns callback names, via the internedCallbackName function.
var (
	internMu            sync.Mutex
	internCallbackNames = make(map[string]string)
)

// internedCallbackName retrieves the interned string corresponding to this callback name.
func internedCallbackName(name string) string {
	internMu.Lock()
	defer internMu.Unlock()

	if n, ok := internCallbackNames[name]; ok {
		return n
	}
	internCallbackNames[name] = name
	return name
}

// contextHolder is a mixin that adds context tracking and mutation capabilities to another struct.
type contextHolder struct {
	clk     sync.RWMutex
	ctx     context.Context
	cancels []context.CancelFunc
}

// UpdateContext updates the context and cancel functions atomically.
func (ch *contextHolder) UpdateContext(mutator func(orig context.Context) (context.Context, context.CancelFunc)) {
	ch.clk.Lock()
	defer ch.clk.Unlock()

	ctx, cancel := mutator(ch.ctx)
	ch.ctx = ctx
	ch.cancels = append(ch.cancels, cancel)
}

// Context returns the context in a thread-safe manner.
func (ch *contextHolder) Context() context.Context {
	ch.clk.RLock()
	defer ch.clk.RUnlock()

	return ch.ctx
}

// FireCancels invokes all cancel functions in the inverse order they were added.
func (ch *contextHolder) FireCancels() {
	ch.clk.RLock()
	defer ch.clk.RUnlock()

	for i := len(ch.cancels) - 1; i >= 0; i-- {
		ch.cancels[i]()
	}
}

type requestCallbackEntry struct {
	name string
	fn   func(*Request)
}

// Request represents a non-blocking dial of host:port, handed back to the
// caller while the connect runs on a background goroutine.
type Request struct {
	*contextHolder
	host   string
	port   uint16
	notify chan struct{} // closed when this request completes.

	lk     sync.RWMutex
	status Status

	callbacks []requestCallbackEntry

	result struct {
		conn net.Conn
		err  error
	}
}

// NewRequest creates a Request to dial host:port, derived from ctx.
func NewRequest(ctx context.Context, host string, port uint16) *Request {
	// by creating a cancellable context we control, we can stop the
	// background dial without relying on the consumer correctly cancelling
	// the passed-in context.
	var cancel context.CancelFunc
	ctx, cancel = context.WithCancel(ctx)

	return &Request{
		contextHolder: &contextHolder{ctx: ctx, cancels: []context.CancelFunc{cancel}},
		host:          host,
		port:          port,
		notify:        make(chan struct{}),
		status:        StatusInflight,
	}
}

// Host returns the host this Request is dialing.
func (r *Request) Host() string {
	return r.host
}

// Port returns the port this Request is dialing.
func (r *Request) Port() uint16 {
	return r.port
}

// Status returns the status of this request.
func (r *Request) Status() Status {
	r.lk.RLock()
	defer r.lk.RUnlock()

	return r.status
}

// Await returns a channel that will be closed once this Request completes.
func (r *Request) Await() <-chan struct{} {
	return r.notify
}

// Cancel requests cancellation of the in-flight dial. The request still
// completes through the usual path; Await to observe the final result.
func (r *Request) Cancel() {
	r.FireCancels()
}

// Complete fills in the result of this dial request. It can only be invoked
// once per request; further calls to Complete will panic.
//
// Completing a request does the following:
//  1. Saves the provided result values.
//  2. Fires callbacks in the reverse order they were added.
//  3. Fires cancel functions in the reverse order they were added.
//  4. Closes the notify channel (see Await) to signal waiters.
func (r *Request) Complete(conn net.Conn, err error) (net.Conn, error) {
	r.lk.Lock()

	r.status.Assert(StatusInflight | StatusBlocked)
	r.status = StatusCompleting

	r.result.conn, r.result.err = conn, err

	// drop the lock so that callbacks can access our fields.
	// there's no concurrency risk because the status already guards against double completes.
	r.lk.Unlock()

	for i := len(r.callbacks) - 1; i >= 0; i-- {
		cb := r.callbacks[i]
		log.Debugf("triggering request callback for %s:%d: %s", r.host, r.port, cb.name)
		cb.fn(r)
	}

	// notify anybody who's waiting on us to complete -- after the lock is released.
	defer close(r.notify)

	r.lk.Lock()
	defer r.lk.Unlock()

	r.status.Assert(StatusCompleting)
	r.status = StatusComplete

	// by cancelling our context explicitly we are not vulnerable to incorrect behaviour by
	// consumers that do not cancel the passed in context.
	r.FireCancels()

	// note: callbacks may have modified the results.
	return r.result.conn, r.result.err
}

// IsComplete returns whether this request has completed.
func (r *Request) IsComplete() bool {
	r.lk.RLock()
	defer r.lk.RUnlock()

	return r.status == StatusComplete
}

// Result returns the connection and error fields from this request.
// Both return values may be nil or incoherent unless the request has
// completed (see IsComplete).
func (r *Request) Result() (net.Conn, error) {
	r.lk.RLock()
	defer r.lk.RUnlock()

	return r.result.conn, r.result.err
}

// AddCallback adds a callback function that will be invoked when this
// request completes, either successfully or in error. Callbacks are
// executed in the inverse order they are added.
func (r *Request) AddCallback(name string, cb func(*Request)) {
	r.lk.Lock()
	defer r.lk.Unlock()

	r.status.Assert(StatusInflight | StatusBlocked)
	r.callbacks = append(r.callbacks, requestCallbackEntry{internedCallbackName(name), cb})
}

func (r *Request) setStatus(st Status) {
	r.lk.Lock()
	defer r.lk.Unlock()

	r.status = st
}
