//go:build !unix

package netdial

import (
	"context"
	"syscall"
)

// WaitReady is not implemented on this platform.
func WaitReady(ctx context.Context, c syscall.Conn, dir Direction) error {
	return ErrReadinessUnsupported
}
