// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package server

import (
	"bufio"
	"context"
	"log/slog"
	"net"

	"github.com/z5labs/gateway/pkg/slogfield"
)

// conn adapts an accepted net.Conn into a buffered input stream and
// an output stream which is flushed after every Write.
type conn struct {
	log    *slog.Logger
	nc     net.Conn
	r      *bufio.Reader
	w      *bufio.Writer
	closed bool
}

func newConn(log *slog.Logger, nc net.Conn) *conn {
	return &conn{
		log: log,
		nc:  nc,
		r:   bufio.NewReader(nc),
		w:   bufio.NewWriter(nc),
	}
}

// Write implements the io.Writer interface.
func (c *conn) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	if err != nil {
		return n, err
	}
	return n, c.w.Flush()
}

// finish flushes any buffered output and closes the connection.
// A failed flush is only logged. It is safe to call more than once.
func (c *conn) finish(ctx context.Context) error {
	if c.closed {
		return nil
	}
	c.closed = true

	err := c.w.Flush()
	if err != nil {
		c.log.DebugContext(ctx, "failed to flush connection", slogfield.Error(err))
	}
	return c.nc.Close()
}
