// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package server

import (
	"context"
	"fmt"
	"net"
	"strconv"
)

// Listen binds a TCP socket to host:port with address reuse enabled
// and starts listening with the platform default backlog.
func Listen(ctx context.Context, host string, port int) (*net.TCPListener, error) {
	lc := net.ListenConfig{
		Control: reuseAddr,
	}
	ln, err := lc.Listen(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return nil, err
	}

	tcpLn, ok := ln.(*net.TCPListener)
	if !ok {
		ln.Close()
		return nil, fmt.Errorf("unexpected listener type: %T", ln)
	}
	return tcpLn, nil
}
