// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the uaconsole command tree.
package commands

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/uaconsole/cmd/uaconsole/cli"
	"github.com/bureau-foundation/uaconsole/lib/config"
	"github.com/bureau-foundation/uaconsole/lib/version"
)

// Root returns the uaconsole command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "uaconsole",
		Description: `uaconsole: interactive client console for an OPC UA style server.

Drives a session against a server from a keyboard menu: discovery,
connect, read and write, paginated browse and history, subscriptions,
and alarm acknowledgment. "uaconsole serve" runs a demo server to
drive it against.`,
		Subcommands: []*cli.Command{
			runCommand(),
			serveCommand(),
			configCommand(),
			sealPasswordCommand(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(context.Context, []string) error {
					fmt.Printf("uaconsole %s\n", version.Full())
					return nil
				},
			},
		},
	}
}

// configFlags binds the --config flag shared by commands that load the
// configuration.
type configFlags struct {
	path string
}

func (flags *configFlags) add(flagSet *pflag.FlagSet) {
	flags.path = ""
	flagSet.StringVarP(&flags.path, "config", "c", "",
		"configuration file, YAML or JSONC (default $"+config.EnvironmentVariable+", else built-in demo settings)")
}

// load reads and validates the configuration.
func (flags *configFlags) load() (*config.Config, error) {
	cfg, err := flags.read()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// read loads the configuration without validating it.
func (flags *configFlags) read() (*config.Config, error) {
	if flags.path != "" {
		return config.LoadFile(flags.path)
	}
	return config.Load()
}
