// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package simulator

import (
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/bureau-foundation/uaconsole/lib/remote"
	"github.com/bureau-foundation/uaconsole/lib/ua"
)

func openTestHistory(t *testing.T) *historyStore {
	t.Helper()
	store, err := openHistory(filepath.Join(t.TempDir(), "history.db"), testLogger())
	if err != nil {
		t.Fatalf("openHistory: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleValue(offset int, value float64) ua.DataValue {
	at := epoch.Add(time.Duration(offset) * time.Second)
	return ua.DataValue{Value: ua.NewVariant(value), SourceTimestamp: at, ServerTimestamp: at}
}

func TestHistoryValuesPaginate(t *testing.T) {
	store := openTestHistory(t)
	ctx := t.Context()
	for i := range 7 {
		if err := store.recordValue(ctx, DemoHistorian1, sampleValue(i, float64(i))); err != nil {
			t.Fatalf("recordValue: %v", err)
		}
	}

	window := newHistoryWindow(time.Time{}, time.Time{}, 3)
	var pages [][]float64
	for {
		values, next, more, err := store.readValues(ctx, DemoHistorian1, window)
		if err != nil {
			t.Fatalf("readValues: %v", err)
		}
		var page []float64
		for _, value := range values {
			page = append(page, value.Value.Value.(float64))
		}
		pages = append(pages, page)
		if !more {
			break
		}
		window = next
	}

	want := [][]float64{{0, 1, 2}, {3, 4, 5}, {6}}
	if !reflect.DeepEqual(pages, want) {
		t.Errorf("pages = %v, want %v", pages, want)
	}
}

func TestHistoryValuesExactPageHasNoContinuation(t *testing.T) {
	store := openTestHistory(t)
	ctx := t.Context()
	for i := range 3 {
		store.recordValue(ctx, DemoHistorian2, sampleValue(i, float64(i)))
	}
	values, _, more, err := store.readValues(ctx, DemoHistorian2, newHistoryWindow(time.Time{}, time.Time{}, 3))
	if err != nil {
		t.Fatalf("readValues: %v", err)
	}
	if len(values) != 3 || more {
		t.Errorf("got %d values, more=%v; want 3 values and no continuation", len(values), more)
	}
}

func TestHistoryValuesTimeWindow(t *testing.T) {
	store := openTestHistory(t)
	ctx := t.Context()
	for i := range 10 {
		store.recordValue(ctx, DemoHistorian1, sampleValue(i, float64(i)))
	}
	values, _, _, err := store.readValues(ctx, DemoHistorian1, newHistoryWindow(
		epoch.Add(2*time.Second), epoch.Add(4*time.Second), 0))
	if err != nil {
		t.Fatalf("readValues: %v", err)
	}
	if len(values) != 3 || values[0].Value.Value != 2.0 || values[2].Value.Value != 4.0 {
		t.Errorf("window values = %v", values)
	}
	if !values[0].SourceTimestamp.Equal(epoch.Add(2 * time.Second)) {
		t.Errorf("source timestamp = %v", values[0].SourceTimestamp)
	}
}

func TestHistoryUpdateModes(t *testing.T) {
	store := openTestHistory(t)
	ctx := t.Context()
	store.recordValue(ctx, DemoHistoryDouble, sampleValue(0, 1))

	tests := []struct {
		name string
		mode remote.UpdateMode
		want []ua.StatusCode
	}{
		{"insert", remote.UpdateInsert, []ua.StatusCode{ua.StatusBadEntryExists, ua.StatusGood}},
		{"replace", remote.UpdateReplace, []ua.StatusCode{ua.StatusGood, ua.StatusBadNoEntryExists}},
		{"upsert", remote.UpdateUpsert, []ua.StatusCode{ua.StatusGood, ua.StatusGood}},
		{"unsupported", remote.UpdateMode(9), []ua.StatusCode{ua.StatusBadHistoryOperationUnsupported, ua.StatusBadHistoryOperationUnsupported}},
	}
	for i, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			// Offset 0 exists; each case uses a fresh second offset.
			statuses, err := store.updateValues(ctx, remote.HistoryUpdateDataRequest{
				NodeID: DemoHistoryDouble,
				Mode:   test.mode,
				Values: []ua.DataValue{sampleValue(0, 2), sampleValue(100+i, 3)},
			})
			if err != nil {
				t.Fatalf("updateValues: %v", err)
			}
			if !reflect.DeepEqual(statuses, test.want) {
				t.Errorf("statuses = %v, want %v", statuses, test.want)
			}
		})
	}

	values, _, _, err := store.readValues(ctx, DemoHistoryDouble, newHistoryWindow(time.Time{}, time.Time{}, 0))
	if err != nil {
		t.Fatalf("readValues: %v", err)
	}
	// Offset 0 was replaced with 2; insert and upsert each added one.
	if len(values) != 3 || values[0].Value.Value != 2.0 {
		t.Errorf("values after updates = %v", values)
	}
}

func TestHistoryEventsRoundTrip(t *testing.T) {
	store := openTestHistory(t)
	ctx := t.Context()
	var ids eventIDSource

	var sent []event
	for i := range 5 {
		e := event{
			eventType: DemoEventType,
			time:      epoch.Add(time.Duration(i) * time.Minute),
			fields: map[string]ua.Variant{
				pathEventID:  ua.NewVariant(ids.next("source", epoch)),
				pathSeverity: ua.NewVariant(uint16(100 * (i + 1))),
				pathMessage:  ua.NewVariant(ua.LocalizedText{Text: "event"}),
			},
		}
		sent = append(sent, e)
		if err := store.recordEvent(ctx, DemoNotifierWithHistory, e); err != nil {
			t.Fatalf("recordEvent: %v", err)
		}
	}

	first, next, more, err := store.readEvents(ctx, DemoNotifierWithHistory, newHistoryWindow(time.Time{}, time.Time{}, 4))
	if err != nil {
		t.Fatalf("readEvents: %v", err)
	}
	if len(first) != 4 || !more {
		t.Fatalf("first page: %d events, more=%v", len(first), more)
	}
	rest, _, more, err := store.readEvents(ctx, DemoNotifierWithHistory, next)
	if err != nil {
		t.Fatalf("readEvents: %v", err)
	}
	if len(rest) != 1 || more {
		t.Fatalf("second page: %d events, more=%v", len(rest), more)
	}

	received := append(first, rest...)
	for i, e := range received {
		if e.eventType != DemoEventType || !e.time.Equal(sent[i].time) {
			t.Errorf("event %d: type %v time %v", i, e.eventType, e.time)
		}
		if !e.conditionID.IsNull() {
			t.Errorf("event %d: condition id %v", i, e.conditionID)
		}
		if !reflect.DeepEqual(e.fields, sent[i].fields) {
			t.Errorf("event %d fields = %v, want %v", i, e.fields, sent[i].fields)
		}
		if !e.receivedBy(DemoNotifierWithHistory) {
			t.Errorf("event %d not attributed to its notifier", i)
		}
	}

	other, _, _, err := store.readEvents(ctx, DemoBoiler1, newHistoryWindow(time.Time{}, time.Time{}, 0))
	if err != nil || len(other) != 0 {
		t.Errorf("events of another notifier = %v, %v", other, err)
	}
}

func TestEventIDsAreUnique(t *testing.T) {
	var ids eventIDSource
	seen := make(map[string]bool)
	for range 1000 {
		id := ids.next("Boiler1", epoch)
		if len(id) != eventIDLength {
			t.Fatalf("event id length %d", len(id))
		}
		if seen[string(id)] {
			t.Fatalf("duplicate event id %x", id)
		}
		seen[string(id)] = true
	}
}
