package netdial

import (
	"errors"
	"fmt"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDialErrorLastCause(t *testing.T) {
	de := &DialError{Host: "example.com"}

	errFirst := errors.New("connection refused")
	errLast := errors.New("network unreachable")
	de.recordErr(netip.MustParseAddrPort("192.0.2.1:80"), errFirst)
	de.recordErr(netip.MustParseAddrPort("192.0.2.2:80"), errLast)

	require.Len(t, de.Attempts, 2)
	require.Equal(t, errLast, de.Cause)
	require.ErrorIs(t, de, ErrAllDialsFailed)
	require.ErrorIs(t, de, errLast)
	require.NotErrorIs(t, de, errFirst)
}

func TestDialErrorAttemptCap(t *testing.T) {
	de := &DialError{Host: "example.com"}
	addr := netip.MustParseAddrPort("192.0.2.1:80")
	for i := 0; i < maxDialAttemptErrors+3; i++ {
		de.recordErr(addr, fmt.Errorf("attempt %d", i))
	}

	require.Len(t, de.Attempts, maxDialAttemptErrors)
	require.Equal(t, 3, de.Skipped)
	// the cause tracks the newest failure even past the cap.
	require.EqualError(t, de.Cause, fmt.Sprintf("attempt %d", maxDialAttemptErrors+2))
	require.Contains(t, de.Error(), "skipping 3 errors")
}

func TestDialErrorTimeout(t *testing.T) {
	de := &DialError{Host: "example.com"}
	de.recordErr(netip.MustParseAddrPort("192.0.2.1:80"), ErrDialTimeout)
	require.True(t, de.Timeout())

	de = &DialError{Host: "example.com"}
	de.recordErr(netip.MustParseAddrPort("192.0.2.1:80"), errors.New("connection refused"))
	require.False(t, de.Timeout())
}

func TestDialErrorMessage(t *testing.T) {
	de := &DialError{Host: "example.com"}
	de.recordErr(netip.MustParseAddrPort("192.0.2.1:443"), errors.New("connection refused"))

	msg := de.Error()
	require.Contains(t, msg, "failed to dial example.com")
	require.Contains(t, msg, "[192.0.2.1:443] connection refused")
}

func TestAttemptError(t *testing.T) {
	cause := errors.New("connection refused")
	ae := &AttemptError{Address: netip.MustParseAddrPort("192.0.2.1:80"), Cause: cause}

	require.ErrorIs(t, ae, cause)
	require.Equal(t, "failed to dial 192.0.2.1:80: connection refused", ae.Error())
}
