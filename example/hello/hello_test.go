// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

//go:build unix

package hello

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/z5labs/gateway"
	"github.com/z5labs/gateway/server"

	"github.com/stretchr/testify/assert"
	"golang.org/x/sync/errgroup"
)

func serveOnce(app gateway.Application, req string) (string, error) {
	s, err := server.New("127.0.0.1", 0, app, server.PollInterval(10*time.Millisecond))
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var resp string
	eg, egctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return s.Run(egctx)
	})
	eg.Go(func() error {
		defer cancel()

		c, err := net.DialTimeout("tcp", s.Addr().String(), time.Second)
		if err != nil {
			return err
		}
		defer c.Close()

		err = c.SetDeadline(time.Now().Add(5 * time.Second))
		if err != nil {
			return err
		}

		_, err = io.WriteString(c, req)
		if err != nil {
			return err
		}

		b, err := io.ReadAll(c)
		resp = string(b)
		return err
	})

	err = eg.Wait()
	return resp, err
}

func TestApplications(t *testing.T) {
	expected := "HTTP/1.0 200 OK\r\nContent-type: text/plain; charset=utf-8\r\n\r\nhello,world\n"

	apps := map[string]gateway.Application{
		"plain function":    Plain,
		"iterable":          Iterable,
		"callable instance": Callable{},
	}

	t.Run("will produce identical responses", func(t *testing.T) {
		for name, app := range apps {
			t.Run("if the application is a "+name, func(t *testing.T) {
				resp, err := serveOnce(app, "GET / HTTP/1.0\r\n")
				if !assert.Nil(t, err) {
					return
				}
				if !assert.Equal(t, expected, resp) {
					return
				}
			})
		}
	})
}

func TestGreeting_All(t *testing.T) {
	t.Run("will not start the response", func(t *testing.T) {
		t.Run("until the body is pulled", func(t *testing.T) {
			started := 0
			start := func(status string, headers []gateway.Header, errInfo error) gateway.WriteFunc {
				started++
				return nil
			}

			body, err := Iterable.Serve(context.Background(), gateway.NewEnviron(nil), start)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Zero(t, started) {
				return
			}

			chunk, err := body.Next()
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, "hello,world\n", string(chunk)) {
				return
			}
			if !assert.Equal(t, 1, started) {
				return
			}

			_, err = body.Next()
			if !assert.ErrorIs(t, err, io.EOF) {
				return
			}
		})
	})
}
