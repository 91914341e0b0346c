package netdial

import (
	"errors"
	"fmt"
	"time"
)

// Direction selects the readiness condition WaitReady blocks on.
type Direction int

const (
	// Readable waits until a read would not block.
	Readable Direction = iota
	// Writable waits until a write would not block.
	Writable
	// Errored waits until an exceptional condition is pending on the
	// socket. Error conditions also complete Readable and Writable waits.
	Errored
)

func (d Direction) String() string {
	switch d {
	case Readable:
		return "Direction(Readable)"
	case Writable:
		return "Direction(Writable)"
	case Errored:
		return "Direction(Errored)"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// DefaultPollInterval bounds how long one readiness wait slice may block
// before the context is consulted again. It caps the worst-case
// cancellation latency of a poll-based wait.
var DefaultPollInterval = 250 * time.Millisecond

// ErrReadinessUnsupported is returned on platforms without a readiness
// polling primitive.
var ErrReadinessUnsupported = errors.New("readiness polling not supported on this platform")
