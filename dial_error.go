package netdial

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strings"
)

// maxDialAttemptErrors is the maximum number of attempt errors we record
const maxDialAttemptErrors = 16

var (
	// ErrDialerClosed is returned when one attempts to dial with a closed Dialer.
	ErrDialerClosed = errors.New("dialer closed")

	// ErrDialTimeout is returned when a dial runs past the configured timeout.
	ErrDialTimeout = errors.New("dial timed out")

	// ErrNoAddresses is returned when resolution produces no usable
	// candidate addresses for the host we're trying to dial.
	ErrNoAddresses = errors.New("no addresses")

	// ErrAllDialsFailed is returned when connecting to a host has ultimately failed
	ErrAllDialsFailed = errors.New("all dials failed")

	// ErrUnsupportedFamily is the cause recorded when a connect nominally
	// completes but the socket never reaches a connected state.
	ErrUnsupportedFamily = errors.New("address family not supported")
)

// DialError is the error type returned when every attempted candidate
// address failed.
type DialError struct {
	Host     string
	Attempts []AttemptError
	Cause    error
	Skipped  int
}

func (e *DialError) Timeout() bool {
	return errors.Is(e.Cause, ErrDialTimeout) || os.IsTimeout(e.Cause)
}

func (e *DialError) recordErr(addr netip.AddrPort, err error) {
	e.Cause = err
	if len(e.Attempts) >= maxDialAttemptErrors {
		e.Skipped++
		return
	}
	e.Attempts = append(e.Attempts, AttemptError{
		Address: addr,
		Cause:   err,
	})
}

func (e *DialError) Error() string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "failed to dial %s:", e.Host)
	if e.Cause != nil {
		fmt.Fprintf(&builder, " %s", e.Cause)
	}
	for _, ae := range e.Attempts {
		fmt.Fprintf(&builder, "\n  * [%s] %s", ae.Address, ae.Cause)
	}
	if e.Skipped > 0 {
		fmt.Fprintf(&builder, "\n    ... skipping %d errors ...", e.Skipped)
	}
	return builder.String()
}

// Unwrap surfaces both the failure class and the cause of the final
// attempt, so errors.Is matches ErrAllDialsFailed as well as the last
// candidate's underlying error.
func (e *DialError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrAllDialsFailed}
	}
	return []error{ErrAllDialsFailed, e.Cause}
}

var _ error = (*DialError)(nil)

// AttemptError is the error recorded for one candidate address.
type AttemptError struct {
	Address netip.AddrPort
	Cause   error
}

func (e *AttemptError) Error() string {
	return fmt.Sprintf("failed to dial %s: %s", e.Address, e.Cause)
}

func (e *AttemptError) Unwrap() error {
	return e.Cause
}

var _ error = (*AttemptError)(nil)
