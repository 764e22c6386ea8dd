// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package consoleui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/bureau-foundation/uaconsole/lib/session"
)

// RunPlain reads one key per line from in and hands it to controller,
// printing the menu of the current mode to out whenever it changes.
// Blank lines and lines starting with '#' are skipped. At the end of in
// or when ctx is done, the controller is shut down. RunPlain returns
// after the controller reached ModeShutdown.
func RunPlain(ctx context.Context, controller Controller, in io.Reader, out io.Writer) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	mode := controller.Mode()
	if err := printMenu(out, mode); err != nil {
		return err
	}
	for mode != session.ModeShutdown {
		var line string
		var ok bool
		select {
		case line, ok = <-lines:
		case <-ctx.Done():
		}
		if !ok {
			// End of input or cancellation: tear the session down on a
			// context that is still live.
			controller.HandleKey(context.WithoutCancel(ctx), "ctrl+c")
			break
		}

		keyName := strings.TrimSpace(line)
		if keyName == "" || strings.HasPrefix(keyName, "#") {
			continue
		}
		if session.ParseKey(mode, keyName).Action == session.ActionNone {
			if _, err := fmt.Fprintf(out, "Unknown key %q in %s\n", keyName, mode); err != nil {
				return err
			}
			continue
		}
		next := controller.HandleKey(ctx, keyName)
		if next != mode && next != session.ModeShutdown {
			if err := printMenu(out, next); err != nil {
				return err
			}
		}
		mode = next
	}

	select {
	case err := <-readErr:
		if err != nil {
			return fmt.Errorf("reading keys: %w", err)
		}
	default:
	}
	return nil
}

func printMenu(out io.Writer, mode session.Mode) error {
	var builder strings.Builder
	fmt.Fprintf(&builder, "-- %s --\n", mode)
	for _, item := range session.Menu(mode) {
		fmt.Fprintf(&builder, "  %-3s %s\n", item.Key, item.Label)
	}
	_, err := io.WriteString(out, builder.String())
	return err
}
