// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

//go:build !unix

package server

import "syscall"

func reuseAddr(network, address string, c syscall.RawConn) error {
	return nil
}
