// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package alarm

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"

	"github.com/bureau-foundation/uaconsole/lib/remote"
	"github.com/bureau-foundation/uaconsole/lib/ua"
)

// fakeCaller records method calls.
type fakeCaller struct {
	mu     sync.Mutex
	calls  []remote.CallRequest
	status ua.StatusCode
	err    error
}

func (f *fakeCaller) Call(_ context.Context, request remote.CallRequest) (remote.CallResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, request)
	if f.err != nil {
		return remote.CallResult{}, f.err
	}
	return remote.CallResult{Status: f.status}, nil
}

func (f *fakeCaller) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func notification(condition string, retain bool, eventID []byte) []ua.Variant {
	fields := make([]ua.Variant, FieldCount)
	fields[FieldConditionID] = ua.NewVariant(ua.MustParseNodeID(condition))
	fields[FieldEventID] = ua.NewVariant(eventID)
	fields[FieldMessage] = ua.NewVariant(ua.LocalizedText{Text: "level high"})
	fields[FieldSeverity] = ua.NewVariant(uint16(500))
	fields[FieldSourceName] = ua.NewVariant("Boiler1")
	fields[FieldRetain] = ua.NewVariant(retain)
	fields[FieldAckedStateID] = ua.NewVariant(false)
	return fields
}

func activeCache() *Cache {
	cache := New()
	cache.Activate()
	return cache
}

func TestApplyRetainLifecycle(t *testing.T) {
	cache := activeCache()
	caller := &fakeCaller{}

	if !cache.Apply(notification("ns=2;s=A", true, []byte{0x01})) {
		t.Fatal("Apply(retain=true) rejected a well-formed notification")
	}
	if cache.Len() != 1 {
		t.Fatalf("Len = %d after retain=true, want 1", cache.Len())
	}
	if !cache.Apply(notification("ns=2;s=A", false, []byte{0x02})) {
		t.Fatal("Apply(retain=false) rejected a well-formed notification")
	}
	if cache.Len() != 0 {
		t.Fatalf("Len = %d after retain=false, want 0", cache.Len())
	}

	err := cache.AcknowledgeAll(t.Context(), caller, "ok")
	if !errors.Is(err, ErrNoAlarms) {
		t.Fatalf("AcknowledgeAll on empty cache = %v, want ErrNoAlarms", err)
	}
	err = cache.Acknowledge(t.Context(), caller, ua.MustParseNodeID("ns=2;s=A"), "ok")
	if !errors.Is(err, ErrNoAlarms) {
		t.Fatalf("Acknowledge on empty cache = %v, want ErrNoAlarms", err)
	}
	if caller.callCount() != 0 {
		t.Errorf("remote calls = %d, want 0", caller.callCount())
	}
}

func TestApplyRetainFalseForUnknownIsNoOp(t *testing.T) {
	cache := activeCache()
	cache.Apply(notification("ns=2;s=A", true, []byte{0x01}))
	cache.TakeDirty()

	cache.Apply(notification("ns=2;s=B", false, []byte{0x02}))

	if cache.Len() != 1 {
		t.Errorf("Len = %d, want 1", cache.Len())
	}
	if cache.TakeDirty() {
		t.Error("cache marked dirty by retain=false for an unknown condition")
	}
}

func TestApplyOverwrites(t *testing.T) {
	cache := activeCache()
	cache.Apply(notification("ns=2;s=A", true, []byte{0x01}))
	cache.Apply(notification("ns=2;s=A", true, []byte{0x02}))

	entries := cache.Snapshot()
	if len(entries) != 1 {
		t.Fatalf("Snapshot has %d entries, want 1", len(entries))
	}
	if got := entries[0].EventID(); len(got) != 1 || got[0] != 0x02 {
		t.Errorf("EventID = %x, want 02", got)
	}
}

func TestApplyIgnoresMalformed(t *testing.T) {
	cache := activeCache()

	short := notification("ns=2;s=A", true, nil)[:FieldRetain]
	wrongIdentity := notification("ns=2;s=A", true, nil)
	wrongIdentity[FieldConditionID] = ua.NewVariant("ns=2;s=A")
	wrongRetain := notification("ns=2;s=A", true, nil)
	wrongRetain[FieldRetain] = ua.NewVariant(int32(1))
	nullRetain := notification("ns=2;s=A", true, nil)
	nullRetain[FieldRetain] = ua.Variant{}

	for name, fields := range map[string][]ua.Variant{
		"short":          short,
		"wrong identity": wrongIdentity,
		"wrong retain":   wrongRetain,
		"null retain":    nullRetain,
	} {
		t.Run(name, func(t *testing.T) {
			if cache.Apply(fields) {
				t.Error("Apply accepted a malformed notification")
			}
			if cache.Len() != 0 {
				t.Errorf("Len = %d, want 0", cache.Len())
			}
		})
	}
}

func TestDeactivateDiscardsLateNotifications(t *testing.T) {
	cache := activeCache()
	cache.Apply(notification("ns=2;s=A", true, []byte{0x01}))

	cache.Deactivate()
	if cache.Len() != 0 {
		t.Fatalf("Len = %d after Deactivate, want 0", cache.Len())
	}
	if cache.Apply(notification("ns=2;s=B", true, []byte{0x02})) {
		t.Error("inactive cache accepted a notification")
	}
	if cache.Len() != 0 {
		t.Errorf("Len = %d, want 0", cache.Len())
	}

	cache.Activate()
	cache.Apply(notification("ns=2;s=B", true, []byte{0x02}))
	if cache.Len() != 1 {
		t.Errorf("Len = %d after reactivation, want 1", cache.Len())
	}
}

func TestLastWriteWinsSetEquality(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	for round := range 50 {
		cache := activeCache()
		last := make(map[string]bool)
		for range 200 {
			condition := fmt.Sprintf("ns=2;s=C%d", rng.IntN(8))
			retain := rng.IntN(3) != 0
			cache.Apply(notification(condition, retain, []byte{byte(round)}))
			last[condition] = retain
		}

		want := make(map[ua.NodeID]bool)
		for condition, retain := range last {
			if retain {
				want[ua.MustParseNodeID(condition)] = true
			}
		}
		entries := cache.Snapshot()
		if len(entries) != len(want) {
			t.Fatalf("round %d: %d entries, want %d", round, len(entries), len(want))
		}
		for _, entry := range entries {
			if !want[entry.ConditionID] {
				t.Fatalf("round %d: unexpected entry %s", round, entry.ConditionID)
			}
		}
	}
}

func TestSnapshotIsIndependent(t *testing.T) {
	cache := activeCache()
	cache.Apply(notification("ns=2;s=A", true, []byte{0x01}))

	entries := cache.Snapshot()
	entries[0].Fields[FieldSourceName] = ua.NewVariant("changed")

	again := cache.Snapshot()
	if got := again[0].Field(FieldSourceName).String(); got != "Boiler1" {
		t.Errorf("SourceName = %q after mutating a snapshot, want Boiler1", got)
	}
}

func TestAcknowledgeCallsMethod(t *testing.T) {
	cache := activeCache()
	caller := &fakeCaller{}
	condition := ua.MustParseNodeID("ns=2;s=A")
	cache.Apply(notification("ns=2;s=A", true, []byte{0xAB, 0xCD}))

	if err := cache.Acknowledge(t.Context(), caller, condition, "seen"); err != nil {
		t.Fatalf("Acknowledge: %v", err)
	}
	if len(caller.calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(caller.calls))
	}
	call := caller.calls[0]
	if call.ObjectID != condition {
		t.Errorf("ObjectID = %s, want %s", call.ObjectID, condition)
	}
	if call.MethodID != ua.AcknowledgeableConditionAckType {
		t.Errorf("MethodID = %s, want %s", call.MethodID, ua.AcknowledgeableConditionAckType)
	}
	if len(call.Arguments) != 2 {
		t.Fatalf("arguments = %d, want 2", len(call.Arguments))
	}
	if eventID, _ := call.Arguments[0].Bytes(); len(eventID) != 2 || eventID[0] != 0xAB {
		t.Errorf("event id argument = %x, want abcd", eventID)
	}
	if got := call.Arguments[1].String(); got != "seen" {
		t.Errorf("comment argument = %q, want seen", got)
	}
	if cache.Len() != 1 {
		t.Errorf("Len = %d after acknowledge, want 1", cache.Len())
	}
}

func TestAcknowledgeUnknownCondition(t *testing.T) {
	cache := activeCache()
	caller := &fakeCaller{}
	cache.Apply(notification("ns=2;s=A", true, []byte{0x01}))

	err := cache.Acknowledge(t.Context(), caller, ua.MustParseNodeID("ns=2;s=B"), "")
	if !errors.Is(err, ErrUnknownCondition) {
		t.Fatalf("err = %v, want ErrUnknownCondition", err)
	}
	if caller.callCount() != 0 {
		t.Errorf("remote calls = %d, want 0", caller.callCount())
	}
}

func TestAcknowledgeAllJoinsFailures(t *testing.T) {
	cache := activeCache()
	caller := &fakeCaller{status: ua.StatusBadConditionBranchAlreadyAcked}
	cache.Apply(notification("ns=2;s=A", true, []byte{0x01}))
	cache.Apply(notification("ns=2;s=B", true, []byte{0x02}))

	err := cache.AcknowledgeAll(t.Context(), caller, "")
	if err == nil {
		t.Fatal("AcknowledgeAll succeeded despite bad status")
	}
	if caller.callCount() != 2 {
		t.Errorf("calls = %d, want 2 (failures do not stop the loop)", caller.callCount())
	}
	if !strings.Contains(err.Error(), "ns=2;s=A") || !strings.Contains(err.Error(), "ns=2;s=B") {
		t.Errorf("error %q does not name both conditions", err)
	}
}

func TestConcurrentApplyAndSnapshot(t *testing.T) {
	cache := activeCache()
	var wg sync.WaitGroup
	for worker := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 100 {
				condition := fmt.Sprintf("ns=2;s=W%d-%d", worker, i%5)
				cache.Apply(notification(condition, i%2 == 0, []byte{byte(i)}))
				cache.Snapshot()
			}
		}()
	}
	wg.Wait()
	// Each worker's last write per condition was i in 95..99; i%5 maps
	// each condition to exactly one of them.
	want := 0
	for i := 95; i < 100; i++ {
		if i%2 == 0 {
			want++
		}
	}
	if got := cache.Len(); got != 4*want {
		t.Errorf("Len = %d, want %d", got, 4*want)
	}
}

func TestFilterWhereClause(t *testing.T) {
	filter := Filter("Boiler1")
	if len(filter.Select) != FieldCount {
		t.Fatalf("select clauses = %d, want %d", len(filter.Select), FieldCount)
	}
	if filter.Select[FieldConditionID].Attribute != ua.AttributeNodeID {
		t.Error("field 0 does not select the condition NodeId")
	}
	if filter.Select[FieldRetain].Path != "Retain" {
		t.Errorf("field 9 path = %q, want Retain", filter.Select[FieldRetain].Path)
	}
	if len(filter.Where) != 1 || filter.Where[0].Value.String() != "Boiler1" {
		t.Errorf("where clause = %+v", filter.Where)
	}
	if len(Filter("").Where) != 0 {
		t.Error("empty source still produced a where clause")
	}
}

func TestLine(t *testing.T) {
	cache := activeCache()
	cache.Apply(notification("ns=2;s=A", true, []byte{0xAB}))
	line := Line(0, cache.Snapshot()[0])
	want := "Alarm 0: ab - Unacknowledged - (null) - 500 - Boiler1 - level high"
	if line != want {
		t.Errorf("Line = %q, want %q", line, want)
	}
}
