// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gateway

import (
	"fmt"
	"io"
	"maps"
	"slices"
)

// Environ keys set by the server for every request.
const (
	KeyInput          = "gateway.input"
	KeyErrors         = "gateway.errors"
	KeyVersion        = "gateway.version"
	KeyMultithread    = "gateway.multithread"
	KeyMultiprocess   = "gateway.multiprocess"
	KeyRunOnce        = "gateway.run_once"
	KeyURLScheme      = "gateway.url_scheme"
	KeyAuthentication = "gateway.authentication"
)

// Request metadata keys derived from the request line and connection.
const (
	KeyRequestMethod  = "REQUEST_METHOD"
	KeyPathInfo       = "PATH_INFO"
	KeyQueryString    = "QUERY_STRING"
	KeyServerProtocol = "SERVER_PROTOCOL"
	KeyServerName     = "SERVER_NAME"
	KeyServerPort     = "SERVER_PORT"
	KeyRemoteAddr     = "REMOTE_ADDR"
)

// Version is the gateway protocol version.
type Version struct {
	Major int
	Minor int
}

// String implements the [fmt.Stringer] interface.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Environ is the per-request metadata handed to an [Application].
// It has no mutators, so changes made by one Application are never
// observed by the server.
type Environ struct {
	vars map[string]any
}

// NewEnviron returns an Environ holding a copy of vars.
func NewEnviron(vars map[string]any) Environ {
	return Environ{vars: maps.Clone(vars)}
}

// With returns a copy of e with key set to value. e itself is left unchanged.
func (e Environ) With(key string, value any) Environ {
	vars := maps.Clone(e.vars)
	if vars == nil {
		vars = make(map[string]any, 1)
	}
	vars[key] = value
	return Environ{vars: vars}
}

// Lookup returns the value stored under key, if any.
func (e Environ) Lookup(key string) (any, bool) {
	v, ok := e.vars[key]
	return v, ok
}

// LookupString returns the value stored under key if it is a string.
func (e Environ) LookupString(key string) (string, bool) {
	v, ok := e.vars[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// String returns the string stored under key or an empty string.
func (e Environ) String(key string) string {
	s, _ := e.LookupString(key)
	return s
}

// Bool returns the bool stored under key or false.
func (e Environ) Bool(key string) bool {
	b, _ := e.vars[key].(bool)
	return b
}

// Input returns the request input stream.
func (e Environ) Input() io.Reader {
	r, _ := e.vars[KeyInput].(io.Reader)
	return r
}

// Errors returns the error output sink.
func (e Environ) Errors() io.Writer {
	w, _ := e.vars[KeyErrors].(io.Writer)
	return w
}

// Version returns the gateway protocol version.
func (e Environ) Version() Version {
	v, _ := e.vars[KeyVersion].(Version)
	return v
}

// Keys returns every key in e, sorted.
func (e Environ) Keys() []string {
	return slices.Sorted(maps.Keys(e.vars))
}

// Len returns the number of keys in e.
func (e Environ) Len() int {
	return len(e.vars)
}
