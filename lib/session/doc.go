// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package session is the interactive state machine of the console.
//
// The machine has two layers. [Transition] is a pure function from the
// current [Mode] and a [Trigger] to the successor mode and an [Effect]
// naming the operation to run and the successors for each of its
// outcomes. [Controller] executes effects against a [remote.Service],
// reports results on its output writer, and resolves the next mode.
//
// Remote failures never escape a [Controller.Handle] call. They are
// printed and logged, and the machine falls back to the non-paginated
// successor of the operation. Local precondition violations (deleting
// monitored items without a subscription, acknowledging with no
// retained alarms) are reported as "Aborted by client." without a
// remote call and leave the mode unchanged.
//
// Notifications arrive on the subscription's delivery goroutine and
// asynchronous operations run on their own goroutines. Everything they
// share with the machine lives in one mutex-guarded container, and
// completions that arrive after the session they belong to was closed
// are discarded.
package session
