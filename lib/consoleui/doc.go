// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package consoleui is the terminal front end of the session controller.
//
// Model is a bubbletea model: a scrolling output pane fed by the
// controller's console output, a panel of retained alarms, the menu of
// the current mode, and a status bar that shows warnings logged through
// LogHandler. Key presses are handed to the controller on a command
// goroutine so the screen keeps redrawing while a remote call is in
// flight; further menu keys are ignored until it completes.
//
// Console is the glue between the controller and a running program: it
// is the controller's Output and Changed callback, and forwards both to
// the program as messages.
//
// RunPlain drives the same controller from a line-oriented reader, one
// key per line, for scripted use and terminals without raw mode.
package consoleui
