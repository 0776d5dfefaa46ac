// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Command gateway serves the hello application behind the
// authentication middleware.
package main

import (
	"context"
	"os"

	"github.com/z5labs/gateway/internal/cli"
)

func main() {
	err := cli.Execute(context.Background(), os.Args[1:]...)
	if err != nil {
		os.Exit(1)
	}
}
