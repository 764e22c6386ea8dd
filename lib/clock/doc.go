// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source.
//
// The demo server's publish loop, its dynamic values, and the history
// time ranges the console requests all read time through a Clock. In
// production Real() delegates to the time package; tests use Fake(),
// which advances only when Advance is called:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	server := simulator.New(simulator.Config{Clock: c})
//	c.WaitForTimers(1)             // publish loop registered its ticker
//	c.Advance(100 * time.Millisecond)
package clock
