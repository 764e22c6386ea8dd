// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// uaconsole is an interactive client console for an OPC UA style
// server, with a demo server to drive it against.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bureau-foundation/uaconsole/cmd/uaconsole/commands"
)

func main() {
	if err := run(); err != nil {
		// Commands that printed their own output return an ExitError.
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return commands.Root().Execute(ctx, os.Args[1:])
}
