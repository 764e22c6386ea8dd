// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/uaconsole/cmd/uaconsole/cli"
	"github.com/bureau-foundation/uaconsole/lib/config"
	"github.com/bureau-foundation/uaconsole/lib/sealed"
	"github.com/bureau-foundation/uaconsole/lib/secret"
	"github.com/bureau-foundation/uaconsole/lib/simulator"
	"github.com/bureau-foundation/uaconsole/lib/testutil"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// startServer serves the demo server with the simulation disabled and
// returns its socket.
func startServer(t *testing.T) string {
	t.Helper()
	socketPath := filepath.Join(testutil.SocketDir(t), "demo.sock")
	server, err := simulator.New(simulator.Config{
		SocketPath:         socketPath,
		HistoryPath:        filepath.Join(t.TempDir(), "history.db"),
		Logger:             testLogger(),
		SimulationInterval: -1,
	})
	if err != nil {
		t.Fatalf("simulator.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Go(func() {
		if err := server.Serve(ctx); err != nil {
			t.Errorf("Serve: %v", err)
		}
	})
	t.Cleanup(func() {
		cancel()
		wg.Wait()
		server.Close()
	})

	for {
		if _, err := os.Stat(socketPath); err == nil {
			return socketPath
		}
		if t.Context().Err() != nil {
			t.Fatalf("socket %s never appeared", socketPath)
		}
		runtime.Gosched()
	}
}

func TestRunPlainScriptedSession(t *testing.T) {
	cfg := config.Default()
	cfg.Connection.SocketPath = startServer(t)
	script := strings.Join([]string{
		"# log in as john, read, and disconnect",
		"b",
		"0",
		"1",
		"0",
	}, "\n")
	var out bytes.Buffer

	if err := runPlain(t.Context(), cfg, testLogger(), strings.NewReader(script), &out); err != nil {
		t.Fatalf("runPlain: %v", err)
	}

	output := out.String()
	for _, want := range []string{
		"Using user identity john",
		"as user john",
		"Read succeeded",
		"ns=2;s=Demo.Static.Scalar.Boolean",
		"Disconnected",
		"Shutdown",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output does not contain %q:\n%s", want, output)
		}
	}
}

func TestRunPlainWithoutServer(t *testing.T) {
	cfg := config.Default()
	cfg.Connection.SocketPath = filepath.Join(t.TempDir(), "missing.sock")
	var out bytes.Buffer

	if err := runPlain(t.Context(), cfg, testLogger(), strings.NewReader("0\n"), &out); err != nil {
		t.Fatalf("runPlain: %v", err)
	}
	if !strings.Contains(out.String(), "Connect failed") {
		t.Errorf("connect failure not reported:\n%s", out.String())
	}
}

func TestValidate(t *testing.T) {
	var out bytes.Buffer
	if err := validate(config.Default(), &out); err != nil {
		t.Fatalf("validate(Default()): %v", err)
	}
	if strings.TrimSpace(out.String()) != "configuration is valid" {
		t.Errorf("output = %q", out.String())
	}

	broken := config.Default()
	broken.Connection.SocketPath = ""
	broken.Subscription.KeepAliveCount = 0
	out.Reset()
	err := validate(broken, &out)
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 1 {
		t.Fatalf("err = %v, want ExitError 1", err)
	}
	if lines := strings.Count(out.String(), "invalid: "); lines < 2 {
		t.Errorf("%d problems reported, want every problem:\n%s", lines, out.String())
	}
}

func TestPrintConfigRedactsPassword(t *testing.T) {
	var out bytes.Buffer
	if err := printConfig(config.Default(), &out); err != nil {
		t.Fatalf("printConfig: %v", err)
	}

	var printed config.Config
	if err := yaml.Unmarshal(out.Bytes(), &printed); err != nil {
		t.Fatalf("output is not YAML: %v\n%s", err, out.String())
	}
	if printed.Connection.Password != redacted {
		t.Errorf("password = %q, want %q", printed.Connection.Password, redacted)
	}
	if printed.Connection.UserName != "john" || len(printed.Nodes.History) != 4 {
		t.Errorf("printed config lost settings:\n%s", out.String())
	}
}

func TestSealPasswordGeneratesKey(t *testing.T) {
	directory := t.TempDir()
	keyPath := filepath.Join(directory, "key.txt")
	passwordPath := filepath.Join(directory, "password")
	if err := os.WriteFile(passwordPath, []byte("master\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	var out, diagnostics bytes.Buffer

	if err := sealPassword(nil, keyPath, passwordPath, &out, &diagnostics); err != nil {
		t.Fatalf("sealPassword: %v", err)
	}
	if !strings.Contains(diagnostics.String(), "recipient: age1") {
		t.Errorf("diagnostics = %q", diagnostics.String())
	}
	info, err := os.Stat(keyPath)
	if err != nil {
		t.Fatalf("identity file: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("identity file mode = %v, want 0600", info.Mode().Perm())
	}

	identity, err := secret.ReadFile(keyPath)
	if err != nil {
		t.Fatalf("reading identity: %v", err)
	}
	defer identity.Close()
	password, err := sealed.OpenPassword(strings.TrimSpace(out.String()), identity)
	if err != nil {
		t.Fatalf("OpenPassword: %v", err)
	}
	defer password.Close()
	if password.String() != "master" {
		t.Errorf("opened password = %q, want master", password.String())
	}

	// The identity file is never overwritten.
	if err := sealPassword(nil, keyPath, passwordPath, &out, &diagnostics); err == nil {
		t.Error("second --generate-key to the same path succeeded")
	}
}

func TestSealPasswordRequiresRecipient(t *testing.T) {
	var out bytes.Buffer
	if err := sealPassword(nil, "", "-", &out, &out); err == nil {
		t.Error("sealPassword without recipients succeeded")
	}
	if err := sealPassword([]string{"not-a-key"}, "", "-", &out, &out); err == nil {
		t.Error("sealPassword with an invalid recipient succeeded")
	}
}

func TestRootHasCommands(t *testing.T) {
	root := Root()
	var names []string
	for _, command := range root.Subcommands {
		names = append(names, command.Name)
	}
	want := "run serve config seal-password version"
	if got := strings.Join(names, " "); got != want {
		t.Errorf("commands = %q, want %q", got, want)
	}
}
