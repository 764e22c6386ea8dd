// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package simulator

import (
	"context"
	"log/slog"
	"math"
	"reflect"
	"sync"
	"time"

	"github.com/bureau-foundation/uaconsole/lib/clock"
	"github.com/bureau-foundation/uaconsole/lib/remote"
	"github.com/bureau-foundation/uaconsole/lib/ua"
)

// Subscription limits. Requested values outside are revised.
const (
	minPublishingInterval = 50 * time.Millisecond
	defaultKeepAliveCount = 10
	defaultQueueSize      = 1
	maxQueueSize          = 1000
)

// outboxSize is the number of messages buffered between the publish
// loop and the notification stream. When the stream falls behind,
// further messages are dropped.
const outboxSize = 64

// monitoredItem is one item of a subscription.
type monitoredItem struct {
	id   uint32
	spec remote.MonitoredItemSpec

	// Data items.
	lastReported *ua.DataValue
	values       []ua.DataValue

	// Event items.
	events []remote.EventFieldList
}

func (item *monitoredItem) isEventItem() bool { return item.spec.Event != nil }

// enqueueValue applies the item's queue size and discard policy.
func (item *monitoredItem) enqueueValue(value ua.DataValue) {
	item.values = append(item.values, value)
	if overflow := len(item.values) - int(item.spec.QueueSize); overflow > 0 {
		if item.spec.DiscardOldest {
			item.values = item.values[overflow:]
		} else {
			item.values = append(item.values[:int(item.spec.QueueSize)-1], value)
		}
	}
}

func (item *monitoredItem) enqueueEvent(fields []ua.Variant) {
	item.events = append(item.events, remote.EventFieldList{ClientHandle: item.spec.ClientHandle, Fields: fields})
	if overflow := len(item.events) - int(item.spec.QueueSize); overflow > 0 {
		item.events = item.events[overflow:]
	}
}

// changed reports whether value differs from the last reported value
// by more than the item's deadband.
func (item *monitoredItem) changed(value ua.DataValue) bool {
	last := item.lastReported
	if last == nil {
		return true
	}
	if last.Status != value.Status {
		return true
	}
	filter := item.spec.DataChange
	if filter != nil && filter.DeadbandType == remote.DeadbandAbsolute {
		previous, okPrevious := last.Value.Float64()
		current, okCurrent := value.Value.Float64()
		if okPrevious && okCurrent {
			return math.Abs(current-previous) > filter.DeadbandValue
		}
	}
	return last.Value.Type != value.Value.Type || !reflect.DeepEqual(last.Value.Value, value.Value.Value)
}

// subscription publishes the notifications of its items at the
// publishing interval.
type subscription struct {
	id      uint32
	session *session
	options remote.SubscriptionOptions
	server  *Server
	logger  *slog.Logger

	mu         sync.Mutex
	publishing bool
	items      map[uint32]*monitoredItem
	order      []uint32
	nextItemID uint32
	sequence   uint32
	idleCycles uint32
	streaming  bool

	outbox chan remote.NotificationMessage

	// deleted is closed when the subscription is deleted.
	deleted  chan struct{}
	stopOnce sync.Once
}

func reviseOptions(options remote.SubscriptionOptions) remote.SubscriptionOptions {
	if options.PublishingInterval < minPublishingInterval {
		options.PublishingInterval = minPublishingInterval
	}
	if options.KeepAliveCount == 0 {
		options.KeepAliveCount = defaultKeepAliveCount
	}
	if options.LifetimeCount < 3*options.KeepAliveCount {
		options.LifetimeCount = 3 * options.KeepAliveCount
	}
	return options
}

// run is the publish loop. It returns when the subscription is deleted
// or ctx is done.
func (sub *subscription) run(ctx context.Context, c clock.Clock) {
	ticker := c.NewTicker(sub.options.PublishingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			sub.publish(c.Now())
		case <-sub.deleted:
			return
		case <-ctx.Done():
			return
		}
	}
}

// publish runs one publishing cycle.
func (sub *subscription) publish(now time.Time) {
	sub.mu.Lock()
	defer sub.mu.Unlock()

	for _, id := range sub.order {
		item := sub.items[id]
		if item.isEventItem() {
			continue
		}
		value := sub.server.space.read(remote.ReadValueID{NodeID: item.spec.NodeID, Attribute: item.spec.Attribute}, now)
		if item.changed(value) {
			item.enqueueValue(value)
			item.lastReported = &value
		}
	}

	if !sub.publishing {
		sub.keepAliveLocked(now)
		return
	}

	message := remote.NotificationMessage{SubscriptionID: sub.id, PublishTime: now}
	for _, id := range sub.order {
		item := sub.items[id]
		for _, value := range item.values {
			message.DataChanges = append(message.DataChanges, remote.DataChange{ClientHandle: item.spec.ClientHandle, Value: value})
		}
		message.Events = append(message.Events, item.events...)
		item.values = nil
		item.events = nil
	}
	if message.IsKeepAlive() {
		sub.keepAliveLocked(now)
		return
	}
	sub.idleCycles = 0
	sub.sequence++
	message.SequenceNumber = sub.sequence
	sub.sendLocked(message)
}

// keepAliveLocked counts an idle cycle and sends a keep-alive when the
// keep-alive count is reached. Keep-alives reuse the next sequence
// number without consuming it.
func (sub *subscription) keepAliveLocked(now time.Time) {
	sub.idleCycles++
	if sub.idleCycles < sub.options.KeepAliveCount {
		return
	}
	sub.idleCycles = 0
	sub.sendLocked(remote.NotificationMessage{
		SubscriptionID: sub.id,
		SequenceNumber: sub.sequence + 1,
		PublishTime:    now,
	})
}

func (sub *subscription) sendLocked(message remote.NotificationMessage) {
	select {
	case sub.outbox <- message:
	default:
		sub.logger.Warn("notification outbox full, dropping message",
			"subscription", sub.id,
			"sequence", message.SequenceNumber,
		)
	}
}

// deliverEvent queues e on every event item watching one of its
// notifiers whose where clause it passes.
func (sub *subscription) deliverEvent(e event) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	for _, id := range sub.order {
		item := sub.items[id]
		if !item.isEventItem() || !e.receivedBy(item.spec.NodeID) {
			continue
		}
		if !sub.server.space.matches(e, item.spec.Event.Where) {
			continue
		}
		item.enqueueEvent(sub.server.space.selectFields(e, item.spec.Event.Select))
	}
}

func (sub *subscription) setPublishing(enabled bool) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	sub.publishing = enabled
}

func (sub *subscription) createItems(specs []remote.MonitoredItemSpec) []remote.MonitoredItemResult {
	sub.mu.Lock()
	defer sub.mu.Unlock()

	results := make([]remote.MonitoredItemResult, len(specs))
	for i, spec := range specs {
		results[i].ClientHandle = spec.ClientHandle
		target, ok := sub.server.space.lookup(spec.NodeID)
		if !ok {
			results[i].Status = ua.StatusBadNodeIDUnknown
			continue
		}
		if spec.Event != nil && !target.eventNotifier {
			results[i].Status = ua.StatusBadAttributeIDInvalid
			continue
		}
		if spec.Event == nil && target.class != ua.NodeClassVariable && spec.Attribute == ua.AttributeValue {
			results[i].Status = ua.StatusBadAttributeIDInvalid
			continue
		}
		if spec.QueueSize == 0 {
			spec.QueueSize = defaultQueueSize
		}
		spec.QueueSize = min(spec.QueueSize, maxQueueSize)

		sub.nextItemID++
		item := &monitoredItem{id: sub.nextItemID, spec: spec}
		sub.items[item.id] = item
		sub.order = append(sub.order, item.id)
		results[i].MonitoredItemID = item.id
	}
	return results
}

func (sub *subscription) deleteItems(ids []uint32) []ua.StatusCode {
	sub.mu.Lock()
	defer sub.mu.Unlock()

	statuses := make([]ua.StatusCode, len(ids))
	for i, id := range ids {
		if _, ok := sub.items[id]; !ok {
			statuses[i] = ua.StatusBadMonitoredItemIDInvalid
			continue
		}
		delete(sub.items, id)
		for j, candidate := range sub.order {
			if candidate == id {
				sub.order = append(sub.order[:j], sub.order[j+1:]...)
				break
			}
		}
	}
	return statuses
}

// eventItemCount is the number of event items.
func (sub *subscription) eventItemCount() int {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	count := 0
	for _, item := range sub.items {
		if item.isEventItem() {
			count++
		}
	}
	return count
}

// stop marks the subscription deleted. It is safe to call more than
// once.
func (sub *subscription) stop() {
	sub.stopOnce.Do(func() { close(sub.deleted) })
}

// claimStream marks the notification stream as attached. Only one
// stream may attach.
func (sub *subscription) claimStream() bool {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.streaming {
		return false
	}
	sub.streaming = true
	return true
}
