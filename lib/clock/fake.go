// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"slices"
	"sync"
	"time"
)

// FakeClock is a Clock for tests that only moves when Advance is
// called. It is safe for concurrent use.
type FakeClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*fakeTicker
	added   *sync.Cond
}

type fakeTicker struct {
	next     time.Time
	interval time.Duration
	channel  chan time.Time
}

// Fake returns a FakeClock reading initial.
func Fake(initial time.Time) *FakeClock {
	clock := &FakeClock{now: initial}
	clock.added = sync.NewCond(&clock.mu)
	return clock
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) NewTicker(d time.Duration) *Ticker {
	if d <= 0 {
		panic("clock: NewTicker interval must be positive")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	ticker := &fakeTicker{
		next:     c.now.Add(d),
		interval: d,
		channel:  make(chan time.Time, 1),
	}
	c.tickers = append(c.tickers, ticker)
	c.added.Broadcast()
	return &Ticker{
		C: ticker.channel,
		stop: func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.tickers = slices.DeleteFunc(c.tickers, func(other *fakeTicker) bool { return other == ticker })
		},
	}
}

// Advance moves the clock forward by d. Every ticker due within the
// new time is offered one tick per elapsed interval; ticks that do not
// fit the channel buffer are dropped.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	for _, ticker := range c.tickers {
		for !ticker.next.After(c.now) {
			select {
			case ticker.channel <- c.now:
			default:
			}
			ticker.next = ticker.next.Add(ticker.interval)
		}
	}
}

// WaitForTimers blocks until at least n tickers are running. Tests call
// it before Advance so a goroutine that has not yet created its ticker
// does not miss the tick.
func (c *FakeClock) WaitForTimers(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.tickers) < n {
		c.added.Wait()
	}
}
