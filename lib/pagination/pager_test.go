// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package pagination

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"
)

func TestBrowseStyleSingleTarget(t *testing.T) {
	pager := New[string]()

	page := pager.AfterFetch([]Result[string]{{Target: "Massfolder", Token: Token("cp-1")}})
	if page.State != StateMore || !pager.HasMore() {
		t.Fatalf("first page state = %s, HasMore = %v; want more", page.State, pager.HasMore())
	}

	var fetchedWith []Pending[string]
	page, err := pager.FetchNext(context.Background(), func(ctx context.Context, pending []Pending[string]) ([]Result[string], error) {
		fetchedWith = pending
		return []Result[string]{{Target: "Massfolder"}}, nil
	})
	if err != nil {
		t.Fatalf("FetchNext: %v", err)
	}
	if len(fetchedWith) != 1 || string(fetchedWith[0].Token) != "cp-1" {
		t.Errorf("fetch called with %v, want the stored token", fetchedWith)
	}
	if page.State != StateDone || pager.HasMore() {
		t.Errorf("after empty token: state = %s, HasMore = %v; want done", page.State, pager.HasMore())
	}

	_, err = pager.FetchNext(context.Background(), func(context.Context, []Pending[string]) ([]Result[string], error) {
		t.Fatal("fetch called with nothing pending")
		return nil, nil
	})
	if !errors.Is(err, ErrNothingPending) {
		t.Errorf("FetchNext after done: error = %v, want ErrNothingPending", err)
	}
}

func TestHistoryStyleKeepsOnlyTargetsWithTokens(t *testing.T) {
	pager := New[string]()

	page := pager.AfterFetch([]Result[string]{
		{Target: "A"},
		{Target: "B", Token: Token("b-1")},
		{Target: "C", Token: Token{}},
	})
	if page.State != StateMore || page.Pending != 1 {
		t.Fatalf("page = %+v, want more with one pending", page)
	}

	var calls [][]Pending[string]
	fetch := func(ctx context.Context, pending []Pending[string]) ([]Result[string], error) {
		calls = append(calls, pending)
		return []Result[string]{{Target: "B"}}, nil
	}
	page, err := pager.FetchNext(context.Background(), fetch)
	if err != nil {
		t.Fatalf("FetchNext: %v", err)
	}
	if len(calls) != 1 || len(calls[0]) != 1 || calls[0][0].Target != "B" {
		t.Errorf("fetch calls = %v, want exactly [B]", calls)
	}
	if page.State != StateDone {
		t.Errorf("state after B exhausted = %s, want done", page.State)
	}
}

func TestFailedTargetsAreReportedAndDropped(t *testing.T) {
	pager := New[string]()
	failure := errors.New("BadNodeIdUnknown")

	page := pager.AfterFetch([]Result[string]{
		{Target: "A", Token: Token("a-1"), Err: failure},
		{Target: "B", Token: Token("b-1")},
	})
	if len(page.Failed) != 1 || page.Failed[0].Target != "A" {
		t.Errorf("Failed = %v, want [A]", page.Failed)
	}
	pending := pager.Pending()
	if len(pending) != 1 || pending[0].Target != "B" {
		t.Errorf("Pending = %v, want [B]", pending)
	}
}

func TestFetchFailureDropsTokens(t *testing.T) {
	pager := New[string]()
	pager.AfterFetch([]Result[string]{{Target: "A", Token: Token("a-1")}})

	page, err := pager.FetchNext(context.Background(), func(context.Context, []Pending[string]) ([]Result[string], error) {
		return nil, errors.New("connection reset")
	})
	if err == nil {
		t.Fatal("FetchNext succeeded despite fetch failure")
	}
	if page.State != StateDone || pager.HasMore() {
		t.Errorf("after failure: state = %s, HasMore = %v; want done and empty", page.State, pager.HasMore())
	}
}

func TestReleaseDropsTokensEvenOnFailure(t *testing.T) {
	pager := New[string]()
	pager.AfterFetch([]Result[string]{{Target: "A", Token: Token("a-1")}, {Target: "B", Token: Token("b-1")}})

	var released []Pending[string]
	err := pager.Release(context.Background(), func(ctx context.Context, pending []Pending[string]) error {
		released = pending
		return errors.New("BadSessionIdInvalid")
	})
	if err == nil {
		t.Error("Release returned nil despite failing release call")
	}
	if len(released) != 2 {
		t.Errorf("released %d tokens, want 2", len(released))
	}
	if pager.HasMore() {
		t.Error("tokens survived a failed release")
	}

	if err := pager.Release(context.Background(), func(context.Context, []Pending[string]) error {
		t.Fatal("release called with nothing pending")
		return nil
	}); err != nil {
		t.Errorf("second Release: %v", err)
	}
}

// TestDoneReportedExactlyOnce drives randomly sized multi-target reads
// to completion and checks that done appears once, on the first fetch
// whose results carry no token.
func TestDoneReportedExactlyOnce(t *testing.T) {
	random := rand.New(rand.NewPCG(1, 2))
	for scenario := range 200 {
		remaining := map[string]int{}
		var first []Result[string]
		for target := range random.IntN(5) + 1 {
			name := fmt.Sprintf("node-%d", target)
			remaining[name] = random.IntN(4)
			first = append(first, result(name, remaining))
		}

		fetch := func(ctx context.Context, pending []Pending[string]) ([]Result[string], error) {
			var results []Result[string]
			for _, entry := range pending {
				results = append(results, result(entry.Target, remaining))
			}
			return results, nil
		}

		pager := New[string]()
		page := pager.AfterFetch(first)
		dones := 0
		for round := 0; ; round++ {
			if page.State == StateDone {
				dones++
				if pager.HasMore() {
					t.Fatalf("scenario %d: done reported with tokens pending", scenario)
				}
				break
			}
			if round > 10 {
				t.Fatalf("scenario %d: no completion after %d rounds", scenario, round)
			}
			var err error
			page, err = pager.FetchNext(context.Background(), fetch)
			if err != nil {
				t.Fatalf("scenario %d: FetchNext: %v", scenario, err)
			}
		}
		if _, err := pager.FetchNext(context.Background(), fetch); !errors.Is(err, ErrNothingPending) {
			t.Fatalf("scenario %d: fetch after done: %v", scenario, err)
		}
		if dones != 1 {
			t.Fatalf("scenario %d: done reported %d times", scenario, dones)
		}
	}
}

// result serves one page for target and returns a token while further
// pages remain.
func result(target string, remaining map[string]int) Result[string] {
	if remaining[target] == 0 {
		return Result[string]{Target: target}
	}
	remaining[target]--
	return Result[string]{Target: target, Token: Token(fmt.Sprintf("%s-%d", target, remaining[target]))}
}
