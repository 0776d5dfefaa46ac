// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package auth

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/z5labs/gateway"

	"github.com/stretchr/testify/assert"
)

// recorder renders a response the same way the server would so the
// middleware can be checked without a socket.
type recorder struct {
	buf     bytes.Buffer
	status  string
	headers []gateway.Header
	sent    bool
}

func (r *recorder) start(status string, headers []gateway.Header, errInfo error) gateway.WriteFunc {
	r.status = status
	r.headers = headers
	return r.write
}

func (r *recorder) write(chunk []byte) error {
	if r.status == "" {
		return gateway.ErrWriteBeforeStartResponse
	}
	if !r.sent {
		r.sent = true
		r.buf.WriteString("HTTP/1.0 " + r.status + "\r\n")
		for _, h := range r.headers {
			r.buf.WriteString(h.Name + ": " + h.Value + "\r\n")
		}
		r.buf.WriteString("\r\n")
	}
	r.buf.Write(chunk)
	return nil
}

func (r *recorder) serve(app gateway.Application, env gateway.Environ) (string, error) {
	body, err := app.Serve(context.Background(), env, r.start)
	if err != nil {
		return "", err
	}
	for {
		chunk, err := body.Next()
		if errors.Is(err, io.EOF) {
			return r.buf.String(), nil
		}
		if err != nil {
			return "", err
		}
		err = r.write(chunk)
		if err != nil {
			return "", err
		}
	}
}

var inner = gateway.AppFunc(func(ctx context.Context, env gateway.Environ, start gateway.StartResponse) (gateway.Body, error) {
	start("200 OK", []gateway.Header{{Name: "Content-type", Value: "text/plain; charset=utf-8"}}, nil)
	return gateway.Strings("hello,world\n"), nil
})

func TestMiddleware(t *testing.T) {
	forbidden := "HTTP/1.0 403 Forbidden\r\nContent-Type: text/plain; charset=utf-8\r\n\r\nNo authentication, forbidden.\n"

	t.Run("will respond with 403 Forbidden", func(t *testing.T) {
		testCases := []struct {
			Name string
			Env  gateway.Environ
		}{
			{
				Name: "if the marker is absent",
				Env:  gateway.NewEnviron(nil),
			},
			{
				Name: "if the marker is empty",
				Env:  gateway.NewEnviron(map[string]any{gateway.KeyAuthentication: ""}),
			},
			{
				Name: "if the marker does not match",
				Env:  gateway.NewEnviron(map[string]any{gateway.KeyAuthentication: "someone-else"}),
			},
			{
				Name: "if the marker is not a string",
				Env:  gateway.NewEnviron(map[string]any{gateway.KeyAuthentication: 42}),
			},
		}

		for _, testCase := range testCases {
			t.Run(testCase.Name, func(t *testing.T) {
				invoked := false
				next := gateway.AppFunc(func(ctx context.Context, env gateway.Environ, start gateway.StartResponse) (gateway.Body, error) {
					invoked = true
					return inner(ctx, env, start)
				})

				app := Middleware("secret", next, LogHandler(slog.Default().Handler()))

				var r recorder
				resp, err := r.serve(app, testCase.Env)
				if !assert.Nil(t, err) {
					return
				}
				if !assert.Equal(t, forbidden, resp) {
					return
				}
				if !assert.False(t, invoked) {
					return
				}
			})
		}
	})

	t.Run("will forward to the next application", func(t *testing.T) {
		t.Run("if the marker matches", func(t *testing.T) {
			env := gateway.NewEnviron(map[string]any{gateway.KeyAuthentication: "secret"})

			var direct recorder
			expected, err := direct.serve(inner, env)
			if !assert.Nil(t, err) {
				return
			}

			var wrapped recorder
			resp, err := wrapped.serve(Middleware("secret", inner), env)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, expected, resp) {
				return
			}
		})

		t.Run("and return its error unchanged", func(t *testing.T) {
			serveErr := errors.New("failed to serve")
			next := gateway.AppFunc(func(ctx context.Context, env gateway.Environ, start gateway.StartResponse) (gateway.Body, error) {
				return nil, serveErr
			})
			env := gateway.NewEnviron(map[string]any{gateway.KeyAuthentication: "secret"})

			_, err := Middleware("secret", next).Serve(context.Background(), env, nil)
			if !assert.Equal(t, serveErr, err) {
				return
			}
		})
	})
}
