// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gateway

import (
	"context"
	"errors"
)

// ErrWriteBeforeStartResponse is returned by a [WriteFunc] if it is
// called before any response status and headers were registered.
var ErrWriteBeforeStartResponse = errors.New("gateway: write() before start_response()")

// Header is a single response header line.
type Header struct {
	Name  string
	Value string
}

// WriteFunc writes a chunk of the response body. The first call emits the
// registered status line and headers before the chunk.
type WriteFunc func(chunk []byte) error

// StartResponse registers the response status, e.g. "200 OK", and its ordered
// headers. No bytes are written until the returned [WriteFunc] is called.
//
// errInfo is only reported. It is not used to reject a registration made after
// the headers were already sent, which is more permissive than stricter gateway
// conventions.
type StartResponse func(status string, headers []Header, errInfo error) WriteFunc

// Application handles a single request.
type Application interface {
	Serve(ctx context.Context, env Environ, start StartResponse) (Body, error)
}

// AppFunc is a functional implementation of the [Application] interface.
type AppFunc func(context.Context, Environ, StartResponse) (Body, error)

// Serve implements the [Application] interface.
func (f AppFunc) Serve(ctx context.Context, env Environ, start StartResponse) (Body, error) {
	return f(ctx, env, start)
}
