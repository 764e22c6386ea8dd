// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package alarm

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bureau-foundation/uaconsole/lib/remote"
	"github.com/bureau-foundation/uaconsole/lib/ua"
)

var (
	// ErrNoAlarms is returned when acknowledging with an empty cache.
	ErrNoAlarms = errors.New("no alarms retained")

	// ErrUnknownCondition is returned when acknowledging a condition
	// the cache does not hold.
	ErrUnknownCondition = errors.New("condition not retained")
)

// Caller invokes methods on the server. remote.Service satisfies it.
type Caller interface {
	Call(ctx context.Context, request remote.CallRequest) (remote.CallResult, error)
}

// Entry is one retained condition.
type Entry struct {
	ConditionID ua.NodeID

	// Fields is the last snapshot, in select-clause order.
	Fields []ua.Variant
}

// Field returns field i of the snapshot, or a null variant when the
// snapshot is shorter.
func (entry Entry) Field(i int) ua.Variant {
	if i < 0 || i >= len(entry.Fields) {
		return ua.Variant{}
	}
	return entry.Fields[i]
}

// EventID returns the EventId of the snapshot.
func (entry Entry) EventID() []byte {
	eventID, _ := entry.Field(FieldEventID).Bytes()
	return eventID
}

// Cache is the set of retained conditions.
type Cache struct {
	mu      sync.Mutex
	entries map[ua.NodeID]*Entry
	order   []ua.NodeID
	dirty   bool
	active  bool
}

// New returns an empty, inactive cache. Call Activate when the alarm
// subscription is created.
func New() *Cache {
	return &Cache{entries: make(map[ua.NodeID]*Entry)}
}

// Activate starts accepting notifications.
func (c *Cache) Activate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = true
}

// Deactivate empties the cache and ignores notifications until the next
// Activate.
func (c *Cache) Deactivate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = false
	if len(c.entries) > 0 {
		c.dirty = true
	}
	c.entries = make(map[ua.NodeID]*Entry)
	c.order = nil
}

// Apply folds one notification into the cache and reports whether it
// was well-formed and accepted.
func (c *Cache) Apply(fields []ua.Variant) bool {
	if len(fields) <= FieldRetain {
		return false
	}
	conditionID, ok := fields[FieldConditionID].NodeID()
	if !ok || conditionID.IsNull() {
		return false
	}
	retain, ok := fields[FieldRetain].Bool()
	if !ok {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active {
		return false
	}

	if retain {
		snapshot := append([]ua.Variant(nil), fields...)
		if entry, exists := c.entries[conditionID]; exists {
			entry.Fields = snapshot
		} else {
			c.entries[conditionID] = &Entry{ConditionID: conditionID, Fields: snapshot}
			c.order = append(c.order, conditionID)
		}
		c.dirty = true
		return true
	}

	if _, exists := c.entries[conditionID]; exists {
		delete(c.entries, conditionID)
		for i, id := range c.order {
			if id == conditionID {
				c.order = append(c.order[:i], c.order[i+1:]...)
				break
			}
		}
		c.dirty = true
	}
	return true
}

// Snapshot returns a copy of the retained entries in insertion order.
func (c *Cache) Snapshot() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	entries := make([]Entry, 0, len(c.order))
	for _, id := range c.order {
		entry := c.entries[id]
		entries = append(entries, Entry{
			ConditionID: entry.ConditionID,
			Fields:      append([]ua.Variant(nil), entry.Fields...),
		})
	}
	return entries
}

// Len returns the number of retained conditions.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// TakeDirty reports whether the cache changed since the last call and
// resets the flag.
func (c *Cache) TakeDirty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	dirty := c.dirty
	c.dirty = false
	return dirty
}

// Acknowledge acknowledges one retained condition with comment. The
// entry stays in the cache.
func (c *Cache) Acknowledge(ctx context.Context, caller Caller, conditionID ua.NodeID, comment string) error {
	c.mu.Lock()
	empty := len(c.entries) == 0
	entry, exists := c.entries[conditionID]
	var eventID []byte
	if exists {
		eventID = append([]byte(nil), entry.EventID()...)
	}
	c.mu.Unlock()

	if empty {
		return ErrNoAlarms
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrUnknownCondition, conditionID)
	}
	return acknowledge(ctx, caller, conditionID, eventID, comment)
}

// AcknowledgeAll acknowledges every retained condition. Failures do not
// stop the remaining acknowledgments; they are joined into the returned
// error.
func (c *Cache) AcknowledgeAll(ctx context.Context, caller Caller, comment string) error {
	entries := c.Snapshot()
	if len(entries) == 0 {
		return ErrNoAlarms
	}
	var errs []error
	for _, entry := range entries {
		if err := acknowledge(ctx, caller, entry.ConditionID, entry.EventID(), comment); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func acknowledge(ctx context.Context, caller Caller, conditionID ua.NodeID, eventID []byte, comment string) error {
	result, err := caller.Call(ctx, remote.CallRequest{
		ObjectID: conditionID,
		MethodID: ua.AcknowledgeableConditionAckType,
		Arguments: []ua.Variant{
			ua.NewVariant(eventID),
			ua.NewVariant(ua.LocalizedText{Text: comment}),
		},
	})
	if err != nil {
		return fmt.Errorf("acknowledging %s: %w", conditionID, err)
	}
	if err := result.Status.Err(); err != nil {
		return fmt.Errorf("acknowledging %s: %w", conditionID, err)
	}
	return nil
}
