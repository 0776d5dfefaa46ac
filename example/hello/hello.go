// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package hello provides the same "hello,world" application written in
// each of the shapes a [gateway.Application] can take.
package hello

import (
	"context"
	"iter"

	"github.com/z5labs/gateway"
)

const (
	status   = "200 OK"
	greeting = "hello,world\n"
)

func headers() []gateway.Header {
	return []gateway.Header{
		{Name: "Content-type", Value: "text/plain; charset=utf-8"},
	}
}

// Plain is a plain function application which starts the response
// before returning its body.
var Plain = gateway.AppFunc(func(ctx context.Context, env gateway.Environ, start gateway.StartResponse) (gateway.Body, error) {
	start(status, headers(), nil)
	return gateway.Strings(greeting), nil
})

// Greeting is constructed once per request and produces its body lazily.
// The response is started on the first pull of its body.
type Greeting struct {
	env   gateway.Environ
	start gateway.StartResponse
}

// NewGreeting
func NewGreeting(env gateway.Environ, start gateway.StartResponse) *Greeting {
	return &Greeting{
		env:   env,
		start: start,
	}
}

// All returns the chunks of the greeting.
func (g *Greeting) All() iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		g.start(status, headers(), nil)
		yield([]byte(greeting), nil)
	}
}

// Iterable adapts [Greeting] into an application by constructing a new
// one for every request.
var Iterable = gateway.AppFunc(func(ctx context.Context, env gateway.Environ, start gateway.StartResponse) (gateway.Body, error) {
	return gateway.Seq(NewGreeting(env, start).All()), nil
})

// Callable is a reusable application value whose body is a generator
// which starts the response when first pulled.
type Callable struct{}

// Serve implements the [gateway.Application] interface.
func (Callable) Serve(ctx context.Context, env gateway.Environ, start gateway.StartResponse) (gateway.Body, error) {
	body := gateway.Seq(func(yield func([]byte, error) bool) {
		start(status, headers(), nil)
		yield([]byte(greeting), nil)
	})
	return body, nil
}
