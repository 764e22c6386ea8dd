// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package consoleui

import (
	"bytes"
	"slices"
	"strings"
	"testing"

	"github.com/bureau-foundation/uaconsole/lib/session"
)

func TestRunPlain(t *testing.T) {
	controller := &fakeController{}
	script := strings.Join([]string{
		"# connect and browse",
		"0",
		"",
		"8",
		"Q",
	}, "\n")
	var out bytes.Buffer

	if err := RunPlain(t.Context(), controller, strings.NewReader(script), &out); err != nil {
		t.Fatalf("RunPlain: %v", err)
	}
	want := []string{"0", "8", "ctrl+c"}
	if keys := controller.handled(); !slices.Equal(keys, want) {
		t.Errorf("keys = %v, want %v", keys, want)
	}
	if controller.Mode() != session.ModeShutdown {
		t.Errorf("mode = %s, want %s", controller.Mode(), session.ModeShutdown)
	}
	output := out.String()
	for _, text := range []string{
		"-- " + session.ModeDisconnected.String() + " --",
		"-- " + session.ModeConnected.String() + " --",
		`Unknown key "Q"`,
	} {
		if !strings.Contains(output, text) {
			t.Errorf("output does not contain %q:\n%s", text, output)
		}
	}
}

func TestRunPlainStopsOnShutdownKey(t *testing.T) {
	controller := &fakeController{}
	var out bytes.Buffer

	err := RunPlain(t.Context(), controller, strings.NewReader("x\n0\n"), &out)
	if err != nil {
		t.Fatalf("RunPlain: %v", err)
	}
	if keys := controller.handled(); !slices.Equal(keys, []string{"x"}) {
		t.Errorf("keys = %v, want [x]", keys)
	}
}
