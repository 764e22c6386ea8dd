// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package consoleui

import (
	"fmt"
	"slices"
	"testing"
)

func TestConsoleBacklogJoinsPartialWrites(t *testing.T) {
	console := NewConsole()
	fmt.Fprint(console, "Browse succeeded, ")
	fmt.Fprintf(console, "%d references\nNode ", 3)
	fmt.Fprint(console, "i=2258\n\n")

	want := []string{"Browse succeeded, 3 references", "Node i=2258", ""}
	if got := console.Backlog(); !slices.Equal(got, want) {
		t.Errorf("backlog = %q, want %q", got, want)
	}
	if got := console.Backlog(); len(got) != 0 {
		t.Errorf("second Backlog = %q, want empty", got)
	}
}

func TestConsoleChangedWithoutProgram(t *testing.T) {
	// Nothing to notify; must not panic or block.
	NewConsole().Changed()
}
