// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

//go:build unix && !linux

package poll

import (
	"errors"
	"os"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// Poller waits for read readiness using poll(2).
type Poller struct {
	fd int
}

// New registers the socket behind rc for read readiness.
func New(rc syscall.RawConn) (*Poller, error) {
	fd := -1
	err := rc.Control(func(s uintptr) {
		fd = int(s)
	})
	if err != nil {
		return nil, err
	}
	return &Poller{fd: fd}, nil
}

// Wait blocks for up to timeout and reports whether the registered
// socket is readable. An interrupted wait is reported as not ready.
func (p *Poller) Wait(timeout time.Duration) (bool, error) {
	if p.fd < 0 {
		return false, os.ErrClosed
	}

	fds := []unix.PollFd{{Fd: int32(p.fd), Events: unix.POLLIN}}
	n, err := unix.Poll(fds, timeoutMillis(timeout))
	if errors.Is(err, unix.EINTR) {
		return false, nil
	}
	if err != nil {
		return false, os.NewSyscallError("poll", err)
	}
	return n > 0 && fds[0].Revents&(unix.POLLIN|unix.POLLERR|unix.POLLHUP) != 0, nil
}

// Close unregisters the socket. The socket itself is left open.
func (p *Poller) Close() error {
	p.fd = -1
	return nil
}
