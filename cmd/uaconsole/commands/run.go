// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/termenv"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/bureau-foundation/uaconsole/cmd/uaconsole/cli"
	"github.com/bureau-foundation/uaconsole/lib/config"
	"github.com/bureau-foundation/uaconsole/lib/consoleui"
	"github.com/bureau-foundation/uaconsole/lib/remote"
	"github.com/bureau-foundation/uaconsole/lib/session"
	"github.com/bureau-foundation/uaconsole/lib/version"
)

func runCommand() *cli.Command {
	var (
		configuration configFlags
		socketPath    string
		plain         bool
		logLevel      string
		logOutput     string
	)
	return &cli.Command{
		Name:    "run",
		Summary: "Run the interactive console",
		Description: `Run the interactive console against the server at connection.socket_path.

On a terminal the console is a full-screen UI: operation output scrolls
in the middle, retained alarms are listed above the menu of the current
mode, and each menu key runs its operation. When stdin is not a
terminal, or with --plain, keys are read one per line and the output
is printed as plain text, which makes sessions scriptable. Lines
starting with '#' are comments. The session is shut down at the end of
input.`,
		Examples: []cli.Example{
			{
				Description: "Run against the demo server",
				Command:     "uaconsole run",
			},
			{
				Description: "Connect, read, browse, and shut down from a script",
				Command:     "printf '0\\n1\\n8\\n' | uaconsole run",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("run", pflag.ContinueOnError)
			configuration.add(flagSet)
			flagSet.StringVar(&socketPath, "socket", "", "server socket (overrides connection.socket_path)")
			flagSet.BoolVar(&plain, "plain", false, "read one key per line from stdin instead of running the terminal UI")
			flagSet.StringVar(&logLevel, "log-level", "warn", "minimum level of log records: debug, info, warn, error")
			flagSet.StringVar(&logOutput, "log-output", "", "also write JSON log records at all levels to this file")
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
			if socketPath != "" {
				cfg.Connection.SocketPath = socketPath
			}
			level, err := cli.ParseLevel(logLevel)
			if err != nil {
				return err
			}

			if plain || !term.IsTerminal(int(os.Stdin.Fd())) {
				handler, closeLog, err := withLogFile(cli.NewCommandLogger(level).Handler(), logOutput)
				if err != nil {
					return err
				}
				defer closeLog()
				return runPlain(ctx, cfg, slog.New(handler), os.Stdin, os.Stdout)
			}
			return runTerminal(ctx, cfg, level, logOutput)
		},
	}
}

// runPlain drives a session with keys read from in.
func runPlain(ctx context.Context, cfg *config.Config, logger *slog.Logger, in io.Reader, out io.Writer) error {
	client := remote.NewClient(cfg.Connection.SocketPath, logger)
	controller, err := session.New(session.Config{
		Service:  client,
		Settings: cfg,
		Output:   out,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	defer controller.Wait()
	return consoleui.RunPlain(ctx, controller, in, out)
}

// runTerminal runs the full-screen console. Log records at level and
// above go to the status bar; logOutput additionally receives every
// record.
func runTerminal(ctx context.Context, cfg *config.Config, level slog.Level, logOutput string) error {
	statusBar := consoleui.NewLogHandler(level)
	handler, closeLog, err := withLogFile(statusBar, logOutput)
	if err != nil {
		return err
	}
	defer closeLog()
	logger := slog.New(handler)

	console := consoleui.NewConsole()
	client := remote.NewClient(cfg.Connection.SocketPath, logger)
	controller, err := session.New(session.Config{
		Service:  client,
		Settings: cfg,
		Output:   console,
		Logger:   logger,
		Changed:  console.Changed,
	})
	if err != nil {
		return err
	}

	model := consoleui.NewModel(ctx, consoleui.Config{
		Controller: controller,
		Console:    console,
		Title:      "uaconsole " + version.Current().Version,
		Profile:    termenv.EnvColorProfile(),
	})
	program := tea.NewProgram(model, tea.WithContext(ctx), tea.WithAltScreen(), tea.WithMouseCellMotion())
	console.SetProgram(program)
	statusBar.SetProgram(program)

	_, runErr := program.Run()

	// The program also ends on a signal; the session still has to be
	// torn down.
	if controller.Mode() != session.ModeShutdown {
		controller.HandleKey(context.WithoutCancel(ctx), "ctrl+c")
	}
	controller.Wait()

	if errors.Is(runErr, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return runErr
}

// withLogFile adds a JSON handler writing every record to path. With
// an empty path, primary is returned unchanged.
func withLogFile(primary slog.Handler, path string) (slog.Handler, func(), error) {
	if path == "" {
		return primary, func() {}, nil
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug})
	return fanoutHandler{primary, fileHandler}, func() { file.Close() }, nil
}

// fanoutHandler sends each record to every handler enabled for it.
type fanoutHandler []slog.Handler

func (handlers fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (handlers fanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, handler := range handlers {
		if handler.Enabled(ctx, record.Level) {
			errs = append(errs, handler.Handle(ctx, record.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (handlers fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	derived := make(fanoutHandler, len(handlers))
	for i, handler := range handlers {
		derived[i] = handler.WithAttrs(attrs)
	}
	return derived
}

func (handlers fanoutHandler) WithGroup(name string) slog.Handler {
	derived := make(fanoutHandler, len(handlers))
	for i, handler := range handlers {
		derived[i] = handler.WithGroup(name)
	}
	return derived
}
