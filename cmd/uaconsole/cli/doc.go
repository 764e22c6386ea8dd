// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the command framework of the uaconsole binary.
//
// A [Command] has a name, an optional [pflag.FlagSet] factory, and
// either nested [Command.Subcommands] or a Run function. The root
// command assembled in cmd/uaconsole/commands is dispatched with
// [Command.Execute], which parses flags, routes subcommands, and prints
// help. Unknown subcommands and flags get a "did you mean" suggestion
// when an existing name is within edit distance 3.
//
// [ExitError] carries a handled non-zero exit code, and
// [NewCommandLogger] builds the structured logger commands write
// diagnostics to.
package cli
