// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package gateway defines the calling convention between a hand-written,
// single-connection server and the applications it hosts.
//
// An [Application] receives a read-only [Environ] describing the request and a
// [StartResponse] entry point. It registers a status and ordered headers via
// StartResponse and returns a [Body] whose chunks are streamed to the client,
// in order, after the header block.
//
// # Two-phase responses
//
// Registering a response writes nothing. The header block is emitted exactly
// once, by the first [WriteFunc] call, and every chunk after it is written
// through to the client immediately:
//
//	app := gateway.AppFunc(func(ctx context.Context, env gateway.Environ, start gateway.StartResponse) (gateway.Body, error) {
//	    start("200 OK", []gateway.Header{{Name: "Content-type", Value: "text/plain; charset=utf-8"}}, nil)
//	    return gateway.Strings("hello,world\n"), nil
//	})
//
// Writing before a response has been registered always fails with
// [ErrWriteBeforeStartResponse].
//
// # Running
//
// [Run] reads config sources, unmarshals them into a user defined config type,
// builds a [Runtime] from it and runs it.
package gateway
