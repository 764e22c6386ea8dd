// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package simulator

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bureau-foundation/uaconsole/lib/clock"
	"github.com/bureau-foundation/uaconsole/lib/remote"
	"github.com/bureau-foundation/uaconsole/lib/testutil"
)

// epoch is the fake clock's start time in simulator tests.
var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// newTestServer builds a server with the simulation disabled and a
// fake clock. The server is not serving.
func newTestServer(t *testing.T) (*Server, *clock.FakeClock) {
	t.Helper()
	fake := clock.Fake(epoch)
	s, err := New(Config{
		SocketPath:         filepath.Join(testutil.SocketDir(t), "simulator.sock"),
		HistoryPath:        filepath.Join(t.TempDir(), "history.db"),
		Clock:              fake,
		Logger:             testLogger(),
		SimulationInterval: -1,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, fake
}

// openSession registers a session directly, bypassing the socket.
func openSession(t *testing.T, s *Server) *session {
	t.Helper()
	result, err := s.handleConnect(t.Context(), remote.ConnectRequest{})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	sess, ok := s.session(result.(remote.ConnectResponse).Session)
	if !ok {
		t.Fatal("connected session not registered")
	}
	return sess
}
