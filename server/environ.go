// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package server

import (
	"net"
	"net/url"
	"strings"

	"github.com/z5labs/gateway"
)

// buildEnviron constructs a fresh environ for a single request.
func (s *Server) buildEnviron(c *conn, rl RequestLine) gateway.Environ {
	procEnv := s.environ()
	vars := make(map[string]any, len(procEnv)+16)
	for _, kv := range procEnv {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		vars[k] = v
	}

	vars[gateway.KeyInput] = c.r
	vars[gateway.KeyErrors] = s.errors
	vars[gateway.KeyVersion] = gateway.Version{Major: 1, Minor: 0}
	vars[gateway.KeyMultithread] = false
	vars[gateway.KeyMultiprocess] = true
	vars[gateway.KeyRunOnce] = true
	vars[gateway.KeyURLScheme] = "http"
	vars[gateway.KeyAuthentication] = s.authMarker

	path, query, _ := strings.Cut(rl.Target, "?")
	if p, err := url.PathUnescape(path); err == nil {
		path = p
	}
	vars[gateway.KeyRequestMethod] = rl.Method
	vars[gateway.KeyPathInfo] = path
	vars[gateway.KeyQueryString] = query
	vars[gateway.KeyServerProtocol] = rl.Protocol

	host, port := splitAddr(s.ln.Addr())
	vars[gateway.KeyServerName] = host
	vars[gateway.KeyServerPort] = port

	remote, _ := splitAddr(c.nc.RemoteAddr())
	vars[gateway.KeyRemoteAddr] = remote

	return gateway.NewEnviron(vars)
}

func splitAddr(addr net.Addr) (host, port string) {
	if addr == nil {
		return "", ""
	}
	host, port, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String(), ""
	}
	return host, port
}
