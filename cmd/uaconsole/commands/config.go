// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/uaconsole/cmd/uaconsole/cli"
	"github.com/bureau-foundation/uaconsole/lib/config"
)

// redacted replaces a plain password in printed configuration.
const redacted = "<redacted>"

func configCommand() *cli.Command {
	return &cli.Command{
		Name:    "config",
		Summary: "Inspect the configuration",
		Subcommands: []*cli.Command{
			configValidateCommand(),
			configPrintCommand(),
		},
	}
}

func configValidateCommand() *cli.Command {
	var configuration configFlags
	return &cli.Command{
		Name:    "validate",
		Summary: "Check the configuration and report every problem",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("validate", pflag.ContinueOnError)
			configuration.add(flagSet)
			return flagSet
		},
		Run: func(_ context.Context, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument: %s", args[0])
			}
			cfg, err := configuration.read()
			if err != nil {
				return err
			}
			return validate(cfg, os.Stdout)
		},
	}
}

// validate prints each problem of cfg on its own line and returns an
// ExitError when there are any.
func validate(cfg *config.Config, out io.Writer) error {
	err := cfg.Validate()
	if err == nil {
		fmt.Fprintln(out, "configuration is valid")
		return nil
	}
	problems := []error{err}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		problems = joined.Unwrap()
	}
	for _, problem := range problems {
		fmt.Fprintf(out, "invalid: %v\n", problem)
	}
	return &cli.ExitError{Code: 1}
}

func configPrintCommand() *cli.Command {
	var configuration configFlags
	return &cli.Command{
		Name:    "print",
		Summary: "Print the effective configuration as YAML",
		Description: `Print the effective configuration as YAML: the defaults overlaid with
the configuration file, with variables expanded. A plain password is
redacted.`,
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("print", pflag.ContinueOnError)
			configuration.add(flagSet)
			return flagSet
		},
		Run: func(_ context.Context, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument: %s", args[0])
			}
			cfg, err := configuration.read()
			if err != nil {
				return err
			}
			return printConfig(cfg, os.Stdout)
		},
	}
}

func printConfig(cfg *config.Config, out io.Writer) error {
	printed := *cfg
	if printed.Connection.Password != "" {
		printed.Connection.Password = redacted
	}
	encoder := yaml.NewEncoder(out)
	encoder.SetIndent(2)
	if err := encoder.Encode(&printed); err != nil {
		return fmt.Errorf("encoding configuration: %w", err)
	}
	return encoder.Close()
}
