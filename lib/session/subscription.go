// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/bureau-foundation/uaconsole/lib/alarm"
	"github.com/bureau-foundation/uaconsole/lib/config"
	"github.com/bureau-foundation/uaconsole/lib/remote"
	"github.com/bureau-foundation/uaconsole/lib/ua"
)

// itemKind is what a monitored item reports.
type itemKind int

const (
	itemData itemKind = iota
	itemEvent
	itemAlarm
)

// monitoredItem is the client side of one monitored item.
type monitoredItem struct {
	node            ua.NodeID
	monitoredItemID uint32
	kind            itemKind
}

const (
	// dataQueueSize is the queue of plain data change items.
	dataQueueSize = 1

	// deadbandQueueSize and deadbandValue configure the deadband
	// variant: changes smaller than 1 are suppressed.
	deadbandQueueSize = 100
	deadbandValue     = 1.0

	// eventQueueSize is the queue of event and alarm items.
	eventQueueSize = 100
)

// eventFields are the fields an event item selects, in order.
var eventFields = []string{"EventId", "EventType", "Message", "Severity", "SourceName", "Time"}

func eventFilter(eventType ua.NodeID) remote.EventFilter {
	filter := remote.EventFilter{Select: make([]remote.SimpleAttributeOperand, len(eventFields))}
	for i, name := range eventFields {
		filter.Select[i] = remote.SimpleAttributeOperand{
			TypeDefinition: ua.BaseEventType,
			Path:           name,
			Attribute:      ua.AttributeValue,
		}
	}
	if !eventType.IsNull() {
		filter.Where = []remote.FilterElement{{
			Operator: remote.FilterOfType,
			Value:    ua.NewVariant(eventType),
		}}
	}
	return filter
}

func (c *Controller) subscriptionOptions() remote.SubscriptionOptions {
	settings := c.settings.Subscription
	return remote.SubscriptionOptions{
		PublishingInterval: config.Duration(settings.PublishingInterval),
		LifetimeCount:      settings.LifetimeCount,
		KeepAliveCount:     settings.KeepAliveCount,
		PublishingEnabled:  true,
	}
}

func (c *Controller) currentSubscription() remote.Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subscription
}

func (c *Controller) createSubscription(ctx context.Context) Outcome {
	if c.currentSubscription() != nil {
		return c.aborted("Subscription already created.")
	}
	if _, err := c.openSubscription(ctx); err != nil {
		return c.failed("CreateSubscription", err)
	}
	return OutcomeDone
}

// openSubscription creates the session's subscription. Its
// notifications are handled for the current session generation only.
func (c *Controller) openSubscription(ctx context.Context) (remote.Subscription, error) {
	c.mu.Lock()
	handler := &notificationHandler{controller: c, generation: c.generation}
	c.mu.Unlock()

	options := c.subscriptionOptions()
	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()
	subscription, err := c.service.CreateSubscription(requestCtx, options, handler)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.subscription = subscription
	c.publishing = true
	clear(c.items)
	c.mu.Unlock()
	c.logger.Info("subscription created",
		"subscription_id", subscription.ID(),
		"publishing_interval", options.PublishingInterval,
		"lifetime", subscriptionLifetime(options),
	)
	c.printf("Create Subscription succeeded, SubscriptionId = %d", subscription.ID())
	return subscription, nil
}

// ensureSubscription returns the session's subscription, creating it
// when there is none.
func (c *Controller) ensureSubscription(ctx context.Context) (remote.Subscription, error) {
	if subscription := c.currentSubscription(); subscription != nil {
		return subscription, nil
	}
	return c.openSubscription(ctx)
}

// modifySubscription toggles publishing.
func (c *Controller) modifySubscription(ctx context.Context) Outcome {
	subscription := c.currentSubscription()
	if subscription == nil {
		return c.aborted("Subscription has not been created.")
	}
	c.mu.Lock()
	enable := !c.publishing
	c.mu.Unlock()

	if enable {
		c.print("Enable Publishing")
	} else {
		c.print("Disable Publishing")
	}
	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()
	if err := subscription.SetPublishingEnabled(requestCtx, enable); err != nil {
		return c.failed("ModifySubscription", err)
	}
	c.mu.Lock()
	c.publishing = enable
	c.mu.Unlock()
	c.print("Modify Subscription succeeded")
	return OutcomeDone
}

func (c *Controller) deleteSubscription(ctx context.Context) Outcome {
	subscription := c.currentSubscription()
	if subscription == nil {
		return c.aborted("Subscription has not been created.")
	}
	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()
	if err := subscription.Delete(requestCtx); err != nil {
		return c.failed("DeleteSubscription", err)
	}

	c.mu.Lock()
	c.subscription = nil
	c.publishing = false
	clear(c.items)
	c.mu.Unlock()
	c.alarms.Deactivate()
	c.print("Delete Subscription succeeded")
	return OutcomeDone
}

// addMonitoredItems monitors the value of every read node. With
// deadband, changes smaller than deadbandValue are not reported.
func (c *Controller) addMonitoredItems(ctx context.Context, deadband bool) Outcome {
	nodes := c.connectedNodes().read
	interval := config.Duration(c.settings.Subscription.PublishingInterval)
	specs := make([]remote.MonitoredItemSpec, len(nodes))
	kinds := make([]itemKind, len(nodes))
	for i, id := range nodes {
		specs[i] = remote.MonitoredItemSpec{
			NodeID:           id,
			Attribute:        ua.AttributeValue,
			SamplingInterval: interval,
			QueueSize:        dataQueueSize,
			DiscardOldest:    true,
		}
		if deadband {
			specs[i].QueueSize = deadbandQueueSize
			specs[i].DataChange = &remote.DataChangeFilter{
				DeadbandType:  remote.DeadbandAbsolute,
				DeadbandValue: deadbandValue,
			}
		}
		kinds[i] = itemData
	}
	return c.createItems(ctx, specs, kinds)
}

// addEventItems monitors events of the configured type at the event
// notifier.
func (c *Controller) addEventItems(ctx context.Context) Outcome {
	nodes := c.connectedNodes()
	filter := eventFilter(nodes.eventType)
	spec := remote.MonitoredItemSpec{
		NodeID:        nodes.eventNotifier,
		Attribute:     ua.AttributeEventNotifier,
		QueueSize:     eventQueueSize,
		DiscardOldest: true,
		Event:         &filter,
	}
	return c.createItems(ctx, []remote.MonitoredItemSpec{spec}, []itemKind{itemEvent})
}

// createItems creates monitored items on the session's subscription,
// creating the subscription first when needed. Client handles are
// assigned here.
func (c *Controller) createItems(ctx context.Context, specs []remote.MonitoredItemSpec, kinds []itemKind) Outcome {
	subscription, err := c.ensureSubscription(ctx)
	if err != nil {
		return c.failed("CreateSubscription", err)
	}

	c.mu.Lock()
	for i := range specs {
		c.nextHandle++
		specs[i].ClientHandle = c.nextHandle
	}
	c.mu.Unlock()

	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()
	results, err := subscription.CreateMonitoredItems(requestCtx, specs)
	if err != nil {
		return c.failed("CreateMonitoredItems", err)
	}

	lines := []string{"Create MonitoredItems succeeded"}
	created := 0
	c.mu.Lock()
	for i, result := range results {
		if i >= len(specs) {
			break
		}
		node := specs[i].NodeID
		if result.Status.IsBad() {
			lines = append(lines, fmt.Sprintf("  [%s] Create MonitoredItem failed with %s", node, result.Status))
			continue
		}
		c.items[specs[i].ClientHandle] = &monitoredItem{
			node:            node,
			monitoredItemID: result.MonitoredItemID,
			kind:            kinds[i],
		}
		created++
		lines = append(lines, fmt.Sprintf("  [%s] Create MonitoredItem succeeded - MonitoredItemId %d - QueueSize %d",
			node, result.MonitoredItemID, specs[i].QueueSize))
	}
	c.mu.Unlock()
	c.print(lines...)

	if created == 0 && len(specs) > 0 {
		return OutcomeFailed
	}
	return OutcomeDone
}

// deleteMonitoredItems deletes the items monitoring a read node or the
// event notifier.
func (c *Controller) deleteMonitoredItems(ctx context.Context) Outcome {
	subscription := c.currentSubscription()
	if subscription == nil {
		return c.aborted("Subscription has not been created.")
	}

	nodes := c.connectedNodes()
	targets := append(slices.Clone(nodes.read), nodes.eventNotifier)
	var handles []uint32
	var ids []uint32
	c.mu.Lock()
	for handle, item := range c.items {
		if slices.Contains(targets, item.node) {
			handles = append(handles, handle)
			ids = append(ids, item.monitoredItemID)
		}
	}
	c.mu.Unlock()
	if len(ids) == 0 {
		return c.aborted("No monitored items to delete.")
	}

	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()
	statuses, err := subscription.DeleteMonitoredItems(requestCtx, ids)
	if err != nil {
		return c.failed("DeleteMonitoredItems", err)
	}

	lines := []string{"Delete MonitoredItems succeeded"}
	alarmsDeleted := false
	c.mu.Lock()
	for i, status := range statuses {
		if i >= len(handles) {
			break
		}
		item := c.items[handles[i]]
		if status.IsBad() {
			lines = append(lines, fmt.Sprintf("  [%s] Delete MonitoredItem failed with %s", item.node, status))
			continue
		}
		if item.kind == itemAlarm {
			alarmsDeleted = true
		}
		delete(c.items, handles[i])
		lines = append(lines, fmt.Sprintf("  [%s] Delete MonitoredItem succeeded", item.node))
	}
	c.mu.Unlock()
	if alarmsDeleted {
		c.alarms.Deactivate()
	}
	c.print(lines...)
	return OutcomeDone
}

// subscribeAlarms monitors the conditions of the Server object and asks
// the server to refresh them, which delivers every retained condition.
func (c *Controller) subscribeAlarms(ctx context.Context) Outcome {
	c.mu.Lock()
	for _, item := range c.items {
		if item.kind == itemAlarm {
			c.mu.Unlock()
			return c.aborted("Alarm subscription already created.")
		}
	}
	c.mu.Unlock()

	filter := alarm.Filter(c.settings.Subscription.AlarmSource)
	spec := remote.MonitoredItemSpec{
		NodeID:        ua.ServerObject,
		Attribute:     ua.AttributeEventNotifier,
		QueueSize:     eventQueueSize,
		DiscardOldest: true,
		Event:         &filter,
	}
	c.alarms.Activate()
	if outcome := c.createItems(ctx, []remote.MonitoredItemSpec{spec}, []itemKind{itemAlarm}); outcome != OutcomeDone {
		c.alarms.Deactivate()
		return outcome
	}

	subscription := c.currentSubscription()
	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()
	result, err := c.service.Call(requestCtx, remote.CallRequest{
		ObjectID:  ua.ServerObject,
		MethodID:  ua.ConditionRefreshMethod,
		Arguments: []ua.Variant{ua.NewVariant(subscription.ID())},
	})
	if err == nil {
		err = result.Status.Err()
	}
	if err != nil {
		return c.failed("ConditionRefresh", err)
	}
	c.print("ConditionRefresh succeeded")
	return OutcomeDone
}

// notificationHandler delivers the notifications of one subscription to
// the controller. Notifications of a closed session are dropped.
type notificationHandler struct {
	controller *Controller
	generation uint64
}

func (h *notificationHandler) item(clientHandle uint32) (monitoredItem, bool) {
	c := h.controller
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.currentLocked(h.generation) {
		return monitoredItem{}, false
	}
	item, ok := c.items[clientHandle]
	if !ok {
		return monitoredItem{}, false
	}
	return *item, true
}

func (h *notificationHandler) OnNotificationBatch(message remote.NotificationMessage) {
	c := h.controller
	if !message.IsKeepAlive() || !c.current(h.generation) {
		return
	}
	c.print("KeepAlive received")
	c.changed()
}

func (h *notificationHandler) OnDataChange(change remote.DataChange) {
	c := h.controller
	item, ok := h.item(change.ClientHandle)
	if !ok {
		c.logger.Debug("data change for an unknown monitored item", "client_handle", change.ClientHandle)
		return
	}
	if change.Value.Status.IsBad() {
		c.printf("[%s]: %s", item.node, change.Value.Status)
	} else {
		c.printf("[%s]: %s", item.node, change.Value.Value)
	}
	c.changed()
}

func (h *notificationHandler) OnEvent(event remote.EventFieldList) {
	c := h.controller
	item, ok := h.item(event.ClientHandle)
	if !ok {
		c.logger.Debug("event for an unknown monitored item", "client_handle", event.ClientHandle)
		return
	}

	if item.kind == itemAlarm {
		if !c.alarms.Apply(event.Fields) {
			c.logger.Warn("malformed alarm notification dropped", "fields", len(event.Fields))
			return
		}
		c.changed()
		return
	}

	message := ua.Variant{}
	if len(event.Fields) > 2 {
		message = event.Fields[2]
	}
	lines := []string{fmt.Sprintf("Event occurred: %s", message)}
	for i, name := range eventFields {
		if i < len(event.Fields) {
			lines = append(lines, fmt.Sprintf("  %s: %s", name, event.Fields[i]))
		}
	}
	c.print(lines...)
	c.changed()
}

func (h *notificationHandler) OnStatusChange(status ua.StatusCode) {
	c := h.controller
	if !c.current(h.generation) {
		return
	}
	c.logger.Warn("subscription status changed", "status", status.String())
	c.printf("Subscription status changed: %s", status)
	c.changed()
}

// subscriptionLifetime is how long publishing may stay silent before
// the server deletes the subscription.
func subscriptionLifetime(options remote.SubscriptionOptions) time.Duration {
	return options.PublishingInterval * time.Duration(options.LifetimeCount)
}
