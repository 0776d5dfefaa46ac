// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

//go:build !unix

package poll

import (
	"os"
	"syscall"
	"time"
)

// Poller always reports readiness, leaving accept to block.
type Poller struct {
	closed bool
}

// New returns a Poller for platforms without a supported readiness mechanism.
func New(rc syscall.RawConn) (*Poller, error) {
	return &Poller{}, nil
}

// Wait reports the socket as ready without waiting.
func (p *Poller) Wait(timeout time.Duration) (bool, error) {
	if p.closed {
		return false, os.ErrClosed
	}
	return true, nil
}

// Close marks the Poller as closed.
func (p *Poller) Close() error {
	p.closed = true
	return nil
}
