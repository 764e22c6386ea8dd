// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/uaconsole/cmd/uaconsole/cli"
	"github.com/bureau-foundation/uaconsole/lib/config"
	"github.com/bureau-foundation/uaconsole/lib/simulator"
	"github.com/bureau-foundation/uaconsole/lib/version"
)

func serveCommand() *cli.Command {
	var (
		configuration configFlags
		socketPath    string
		historyPath   string
		logLevel      string
	)
	return &cli.Command{
		Name:    "serve",
		Summary: "Run the demo server",
		Description: `Run the demo server the console connects to.

The server publishes the demo address space: static and dynamic
scalars and arrays, a WorkOrder structure, a folder of 250 variables
for paginated browse, history variables and a history notifier backed
by a SQLite store, the Multiply method, and Boiler alarms that honor
Acknowledge and ConditionRefresh. The history store is seeded on first
use. Stop the server with SIGINT or SIGTERM.`,
		Examples: []cli.Example{
			{
				Description: "Serve on the configured socket",
				Command:     "uaconsole serve",
			},
			{
				Description: "Serve a throwaway instance",
				Command:     "uaconsole serve --socket /tmp/demo.sock --history /tmp/history.db",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("serve", pflag.ContinueOnError)
			configuration.add(flagSet)
			flagSet.StringVar(&socketPath, "socket", "", "socket to listen on (overrides connection.socket_path)")
			flagSet.StringVar(&historyPath, "history", "", "SQLite history database (overrides serve.history_path)")
			flagSet.StringVar(&logLevel, "log-level", "info", "minimum level of log records: debug, info, warn, error")
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument: %s", args[0])
			}
			cfg, err := configuration.load()
			if err != nil {
				return err
			}
			if socketPath == "" {
				socketPath = cfg.Connection.SocketPath
			}
			if historyPath == "" {
				historyPath = cfg.Serve.HistoryPath
			}
			level, err := cli.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			logger := cli.NewCommandLogger(level).With("command", "serve")

			for _, path := range []string{socketPath, historyPath} {
				if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
					return fmt.Errorf("creating directory for %s: %w", path, err)
				}
			}

			server, err := simulator.New(simulator.Config{
				SocketPath:         socketPath,
				HistoryPath:        historyPath,
				Logger:             logger,
				SimulationInterval: config.Duration(cfg.Serve.SimulationInterval),
			})
			if err != nil {
				return err
			}
			defer server.Close()

			logger.Info("uaconsole demo server", "version", version.Info())
			return server.Serve(ctx)
		},
	}
}
