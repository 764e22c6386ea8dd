// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock is the time source of the console and the demo server.
type Clock interface {
	Now() time.Time

	// NewTicker returns a Ticker delivering ticks every d. It panics
	// if d <= 0.
	NewTicker(d time.Duration) *Ticker
}

// Ticker delivers periodic ticks on C. C holds one tick; a slow reader
// loses ticks instead of queueing them.
type Ticker struct {
	C <-chan time.Time

	stop func()
}

// Stop turns off the ticker without closing C.
func (t *Ticker) Stop() { t.stop() }
