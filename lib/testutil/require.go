// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import "time"

// TB is the subset of testing.TB the helpers need.
type TB interface {
	Helper()
	Fatalf(format string, args ...any)
}

// RequireReceive returns the next value from ch. It fails the test if
// ch is closed first or nothing arrives within timeout; what describes
// the awaited value in the failure.
//
//	batch := testutil.RequireReceive(t, handler.batches, 5*time.Second, "waiting for initial data change")
func RequireReceive[T any](t TB, ch <-chan T, timeout time.Duration, what string) T {
	t.Helper()
	timer := time.NewTimer(timeout) //nolint:realclock test hang prevention
	defer timer.Stop()
	select {
	case value, ok := <-ch:
		if !ok {
			t.Fatalf("%s: channel closed", what)
		}
		return value
	case <-timer.C:
		t.Fatalf("%s: nothing received after %v", what, timeout)
	}
	var zero T
	return zero
}
