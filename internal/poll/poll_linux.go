// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package poll

import (
	"errors"
	"os"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// Poller waits for read readiness using epoll(7).
type Poller struct {
	epfd   int
	events [1]unix.EpollEvent
}

// New creates an epoll instance and registers the socket behind rc
// for level-triggered read readiness.
func New(rc syscall.RawConn) (*Poller, error) {
	fd := -1
	err := rc.Control(func(s uintptr) {
		fd = int(s)
	})
	if err != nil {
		return nil, err
	}

	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, os.NewSyscallError("epoll_create1", err)
	}

	ev := unix.EpollEvent{
		Events: unix.EPOLLIN,
		Fd:     int32(fd),
	}
	err = unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, fd, &ev)
	if err != nil {
		unix.Close(epfd)
		return nil, os.NewSyscallError("epoll_ctl", err)
	}
	return &Poller{epfd: epfd}, nil
}

// Wait blocks for up to timeout and reports whether the registered
// socket is readable. An interrupted wait is reported as not ready.
func (p *Poller) Wait(timeout time.Duration) (bool, error) {
	n, err := unix.EpollWait(p.epfd, p.events[:], timeoutMillis(timeout))
	if errors.Is(err, unix.EINTR) {
		return false, nil
	}
	if err != nil {
		return false, os.NewSyscallError("epoll_wait", err)
	}
	return n > 0, nil
}

// Close releases the epoll instance. The registered socket is left open.
func (p *Poller) Close() error {
	if p.epfd < 0 {
		return nil
	}
	err := unix.Close(p.epfd)
	p.epfd = -1
	if err != nil {
		return os.NewSyscallError("close", err)
	}
	return nil
}
