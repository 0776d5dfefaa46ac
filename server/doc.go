// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package server implements a hand-written, single-connection server
// which hosts a [gateway.Application] over raw TCP.
//
// The server is strictly iterative. It waits for the listening socket to
// become readable, accepts exactly one connection, processes it to
// completion and only then waits again. While a request is being handled
// new connections queue in the OS backlog.
//
// Only the request line is read. Its bytes are decoded one rune per byte,
// so no byte value is ever rejected, and it must contain at least three
// whitespace separated fields and be no longer than [MaxRequestLineBytes].
// Anything else is dropped without a response.
//
// Responses are always HTTP/1.0 and the connection is always closed once
// the application's body has been exhausted.
//
// # Limitations
//
// There is no per-request cancellation. A slow body or a blocked write
// stalls the whole server, since nothing else is serviced in the meantime.
//
// A failure of the accept loop itself, e.g. a failed poll or accept, is
// fatal. [Server.ServeForever] returns and the server never accepts again.
package server
