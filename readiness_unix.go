//go:build unix

package netdial

import (
	"context"
	"os"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// WaitReady blocks until c is ready in the given direction, the context
// fires, or an error condition surfaces on the socket. The wait happens in
// bounded slices, so a cancellation is observed within one DefaultPollInterval
// even while the socket stays idle.
func WaitReady(ctx context.Context, c syscall.Conn, dir Direction) error {
	sc, err := c.SyscallConn()
	if err != nil {
		return err
	}
	var werr error
	cerr := sc.Control(func(fd uintptr) {
		werr = waitFD(ctx, int(fd), dir, DefaultPollInterval)
	})
	if cerr != nil {
		return cerr
	}
	return werr
}

// waitFD polls fd in interval-bounded slices until it is ready or ctx fires.
// Error conditions (POLLERR, POLLHUP) count as ready; the caller's next
// operation on the socket surfaces the actual failure.
func waitFD(ctx context.Context, fd int, dir Direction, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	var events int16
	switch dir {
	case Readable:
		events = unix.POLLIN
	case Writable:
		events = unix.POLLOUT
	case Errored:
		events = unix.POLLPRI
	}
	for {
		if err := ctxCause(ctx); err != nil {
			return err
		}
		pfd := []unix.PollFd{{Fd: int32(fd), Events: events}}
		n, err := unix.Poll(pfd, int(interval.Milliseconds()))
		switch {
		case err == unix.EINTR || err == unix.EAGAIN:
			continue
		case err != nil:
			return os.NewSyscallError("poll", err)
		case n == 0:
			// slice elapsed with no events; loop to observe ctx.
			continue
		}
		if pfd[0].Revents&(events|unix.POLLERR|unix.POLLHUP) != 0 {
			return nil
		}
	}
}
