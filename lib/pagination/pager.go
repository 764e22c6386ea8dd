// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package pagination

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrNothingPending is returned by FetchNext when no target holds a
// token, which means the operation already reported StateDone.
var ErrNothingPending = errors.New("no continuation pending")

// Token is an opaque continuation point. It is never inspected, only
// returned to the server.
type Token []byte

// Present reports whether the server returned a token.
func (token Token) Present() bool { return len(token) > 0 }

// State is the aggregate pagination state after a fetch.
type State int

const (
	StateDone State = iota
	StateMore
)

func (state State) String() string {
	if state == StateMore {
		return "more"
	}
	return "done"
}

// Result is the outcome of a paginated request for one target.
type Result[K comparable] struct {
	Target K
	Token  Token

	// Err is set when the request failed for this target. A failed
	// target never keeps a token.
	Err error
}

// Pending is a target that still has unread data.
type Pending[K comparable] struct {
	Target K
	Token  Token
}

// Page summarizes one fetch.
type Page[K comparable] struct {
	State State

	// Pending is the number of targets still carrying a token.
	Pending int

	// Failed lists the targets whose request failed in this fetch.
	Failed []Result[K]
}

// FetchFunc re-issues a paginated request for the pending targets.
type FetchFunc[K comparable] func(ctx context.Context, pending []Pending[K]) ([]Result[K], error)

// ReleaseFunc releases server-side continuation resources.
type ReleaseFunc[K comparable] func(ctx context.Context, pending []Pending[K]) error

// Pager tracks the live continuation tokens of one operation family.
type Pager[K comparable] struct {
	mu      sync.Mutex
	pending []Pending[K]
}

// New returns an empty Pager.
func New[K comparable]() *Pager[K] {
	return &Pager[K]{}
}

// AfterFetch replaces the pending set with the targets in results that
// carry a token, and reports StateDone iff none do.
func (p *Pager[K]) AfterFetch(results []Result[K]) Page[K] {
	var page Page[K]
	var pending []Pending[K]
	for _, result := range results {
		if result.Err != nil {
			page.Failed = append(page.Failed, result)
			continue
		}
		if result.Token.Present() {
			pending = append(pending, Pending[K]{Target: result.Target, Token: result.Token})
		}
	}

	p.mu.Lock()
	p.pending = pending
	p.mu.Unlock()

	page.Pending = len(pending)
	if page.Pending > 0 {
		page.State = StateMore
	}
	return page
}

// HasMore reports whether any target holds a token.
func (p *Pager[K]) HasMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending) > 0
}

// Pending returns a copy of the pending set in fetch order.
func (p *Pager[K]) Pending() []Pending[K] {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Pending[K](nil), p.pending...)
}

// FetchNext fetches the next page for every pending target. When the
// fetch itself fails, the pending tokens are dropped and the returned
// page is done: a failed continuation cannot be retried, because the
// server may already have consumed the tokens.
func (p *Pager[K]) FetchNext(ctx context.Context, fetch FetchFunc[K]) (Page[K], error) {
	pending := p.Pending()
	if len(pending) == 0 {
		return Page[K]{State: StateDone}, ErrNothingPending
	}

	results, err := fetch(ctx, pending)
	if err != nil {
		p.Drop()
		return Page[K]{State: StateDone}, fmt.Errorf("fetching next page for %d targets: %w", len(pending), err)
	}
	return p.AfterFetch(results), nil
}

// Release releases the pending tokens on the server. The local tokens
// are dropped before the call, so the pager is empty afterwards even if
// the release fails; the error is returned for reporting only.
func (p *Pager[K]) Release(ctx context.Context, release ReleaseFunc[K]) error {
	p.mu.Lock()
	pending := p.pending
	p.pending = nil
	p.mu.Unlock()

	if len(pending) == 0 {
		return nil
	}
	if err := release(ctx, pending); err != nil {
		return fmt.Errorf("releasing %d continuation points: %w", len(pending), err)
	}
	return nil
}

// Drop forgets the pending tokens without contacting the server. Used
// when the session that issued them is gone.
func (p *Pager[K]) Drop() {
	p.mu.Lock()
	p.pending = nil
	p.mu.Unlock()
}
