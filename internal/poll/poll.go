// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package poll reports read readiness of a single registered socket.
//
// A Poller is registered exactly once against a listening socket and
// then waited on repeatedly with a bounded timeout. It exists so an
// accept loop never has to block indefinitely inside accept(2).
package poll

import "time"

// timeoutMillis converts timeout into the millisecond argument
// expected by epoll_wait(2) and poll(2). Negative timeouts block
// indefinitely and positive sub-millisecond timeouts round up to 1ms.
func timeoutMillis(timeout time.Duration) int {
	if timeout < 0 {
		return -1
	}
	ms := timeout / time.Millisecond
	if ms == 0 && timeout > 0 {
		return 1
	}
	return int(ms)
}
