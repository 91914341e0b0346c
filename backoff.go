package netdial

import (
	"errors"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// ErrDialBackoff is returned by the backoff code when a given endpoint has
// been dialed too frequently
var ErrDialBackoff = errors.New("dial backoff")

// BackoffBase is the base amount of time to backoff (default: 5s).
var BackoffBase = time.Second * 5

// BackoffCoef is the backoff coefficient (default: 1s).
var BackoffCoef = time.Second

// BackoffMax is the maximum backoff time (default: 5m).
var BackoffMax = time.Minute * 5

// Backoff tracks endpoints whose dials recently failed outright, so repeat
// dials can fail fast with ErrDialBackoff instead of re-running attempts
// that are overwhelmingly likely to fail again. A successful dial clears
// the endpoint's record.
//
// * It's safe to use its zero value.
// * It's thread-safe.
type Backoff struct {
	clk clock.Clock

	lock    sync.RWMutex
	entries map[string]*backoffEntry
}

type backoffEntry struct {
	tries int
	until time.Time
}

// NewBackoff creates a Backoff driven by the given clock, or the wall clock
// when nil.
func NewBackoff(clk clock.Clock) *Backoff {
	if clk == nil {
		clk = clock.New()
	}
	return &Backoff{
		clk:     clk,
		entries: make(map[string]*backoffEntry),
	}
}

func (db *Backoff) now() time.Time {
	if db.clk != nil {
		return db.clk.Now()
	}
	return time.Now()
}

func backoffKey(host string, port uint16) string {
	return net.JoinHostPort(host, strconv.Itoa(int(port)))
}

// Backoff returns whether the client should backoff from dialing the
// endpoint host:port.
func (db *Backoff) Backoff(host string, port uint16) (backoff bool) {
	db.lock.RLock()
	defer db.lock.RUnlock()

	e, found := db.entries[backoffKey(host, port)]
	return found && db.now().Before(e.until)
}

// AddBackoff records a failed dial to host:port and extends how long
// further dials to it will fail fast.
//
// Backoff is not exponential, it's quadratic and computed according to the
// following formula:
//
//	BackoffBase + BackoffCoef * PriorBackoffs^2
//
// Where PriorBackoffs is the number of previous backoffs.
func (db *Backoff) AddBackoff(host string, port uint16) {
	db.lock.Lock()
	defer db.lock.Unlock()

	if db.entries == nil {
		db.entries = make(map[string]*backoffEntry)
	}
	key := backoffKey(host, port)
	e, ok := db.entries[key]
	if !ok {
		db.entries[key] = &backoffEntry{
			tries: 1,
			until: db.now().Add(BackoffBase),
		}
		return
	}

	backoffTime := BackoffBase + BackoffCoef*time.Duration(e.tries*e.tries)
	if backoffTime > BackoffMax {
		backoffTime = BackoffMax
	}
	e.until = db.now().Add(backoffTime)
	e.tries++
}

// Clear removes a backoff record. Clients should call this after a
// successful dial.
func (db *Backoff) Clear(host string, port uint16) {
	db.lock.Lock()
	defer db.lock.Unlock()

	delete(db.entries, backoffKey(host, port))
}
