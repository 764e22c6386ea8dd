// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package consoleui

import (
	"bytes"
	"sync"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
)

// outputMsg carries complete console lines to the model.
type outputMsg struct {
	lines []string
}

// refreshMsg asks the model to re-read the controller state.
type refreshMsg struct{}

// Console forwards controller output and state changes to a program.
// Use it as the controller's Output and Changed callback.
//
// Output written before SetProgram is kept and handed to the model by
// NewModel through Backlog.
type Console struct {
	program atomic.Pointer[tea.Program]

	mu      sync.Mutex
	partial []byte
	backlog []string
}

// NewConsole returns a console with no program attached.
func NewConsole() *Console {
	return &Console{}
}

// SetProgram attaches the program that receives output.
func (console *Console) SetProgram(program *tea.Program) {
	console.program.Store(program)
}

// Write splits p into lines. Complete lines are sent to the program; a
// trailing partial line waits for the rest.
func (console *Console) Write(p []byte) (int, error) {
	console.mu.Lock()
	console.partial = append(console.partial, p...)
	var lines []string
	for {
		newline := bytes.IndexByte(console.partial, '\n')
		if newline < 0 {
			break
		}
		lines = append(lines, string(console.partial[:newline]))
		console.partial = console.partial[newline+1:]
	}
	program := console.program.Load()
	if program == nil {
		console.backlog = append(console.backlog, lines...)
		lines = nil
	}
	console.mu.Unlock()

	if len(lines) > 0 {
		program.Send(outputMsg{lines: lines})
	}
	return len(p), nil
}

// Changed notifies the program that controller state changed outside a
// key press.
func (console *Console) Changed() {
	if program := console.program.Load(); program != nil {
		go program.Send(refreshMsg{})
	}
}

// Backlog returns and clears the lines written before SetProgram.
func (console *Console) Backlog() []string {
	console.mu.Lock()
	defer console.mu.Unlock()
	lines := console.backlog
	console.backlog = nil
	return lines
}
