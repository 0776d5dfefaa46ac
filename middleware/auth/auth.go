// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package auth provides middleware which rejects requests that do not
// carry the expected authentication marker.
package auth

import (
	"context"
	"crypto/subtle"
	"log/slog"

	"github.com/z5labs/gateway"
	"github.com/z5labs/gateway/pkg/noop"
	"github.com/z5labs/gateway/pkg/slogfield"
)

// ForbiddenStatus is the status written for rejected requests.
const ForbiddenStatus = "403 Forbidden"

// ForbiddenBody is the body written for rejected requests.
const ForbiddenBody = "No authentication, forbidden.\n"

type options struct {
	logHandler slog.Handler
}

// Option
type Option func(*options)

// LogHandler
func LogHandler(h slog.Handler) Option {
	return func(o *options) {
		o.logHandler = h
	}
}

type middleware struct {
	log      *slog.Logger
	expected string
	next     gateway.Application
}

// Middleware only forwards requests to next whose [gateway.KeyAuthentication]
// value equals expected. Every other request is answered with a
// 403 Forbidden and never reaches next.
func Middleware(expected string, next gateway.Application, opts ...Option) gateway.Application {
	o := &options{
		logHandler: noop.LogHandler{},
	}
	for _, opt := range opts {
		opt(o)
	}

	return &middleware{
		log:      slog.New(o.logHandler),
		expected: expected,
		next:     next,
	}
}

// Serve implements the [gateway.Application] interface.
func (m *middleware) Serve(ctx context.Context, env gateway.Environ, start gateway.StartResponse) (gateway.Body, error) {
	marker, ok := env.LookupString(gateway.KeyAuthentication)
	if ok && marker != "" && subtle.ConstantTimeCompare([]byte(marker), []byte(m.expected)) == 1 {
		return m.next.Serve(ctx, env, start)
	}

	m.log.WarnContext(
		ctx,
		"rejecting unauthenticated request",
		slogfield.String("method", env.String(gateway.KeyRequestMethod)),
		slogfield.String("path", env.String(gateway.KeyPathInfo)),
		slogfield.Bool("marker_present", ok),
	)

	start(ForbiddenStatus, []gateway.Header{{Name: "Content-Type", Value: "text/plain; charset=utf-8"}}, nil)
	return gateway.Strings(ForbiddenBody), nil
}
