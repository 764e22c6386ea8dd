// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package simulator

import (
	"testing"
	"time"

	"github.com/bureau-foundation/uaconsole/lib/remote"
	"github.com/bureau-foundation/uaconsole/lib/ua"
)

// newTestSubscription returns a subscription whose publish cycles the
// test drives directly.
func newTestSubscription(s *Server, options remote.SubscriptionOptions) *subscription {
	options = reviseOptions(options)
	return &subscription{
		id:         1,
		options:    options,
		server:     s,
		logger:     s.logger,
		publishing: options.PublishingEnabled,
		items:      make(map[uint32]*monitoredItem),
		outbox:     make(chan remote.NotificationMessage, outboxSize),
		deleted:    make(chan struct{}),
	}
}

// drain returns the messages queued for the stream.
func drain(sub *subscription) []remote.NotificationMessage {
	var messages []remote.NotificationMessage
	for {
		select {
		case message := <-sub.outbox:
			messages = append(messages, message)
		default:
			return messages
		}
	}
}

func TestReviseOptions(t *testing.T) {
	revised := reviseOptions(remote.SubscriptionOptions{PublishingInterval: time.Millisecond})
	if revised.PublishingInterval != minPublishingInterval {
		t.Errorf("publishing interval = %v", revised.PublishingInterval)
	}
	if revised.KeepAliveCount != defaultKeepAliveCount || revised.LifetimeCount != 3*defaultKeepAliveCount {
		t.Errorf("counts = keep-alive %d lifetime %d", revised.KeepAliveCount, revised.LifetimeCount)
	}

	kept := reviseOptions(remote.SubscriptionOptions{PublishingInterval: time.Second, KeepAliveCount: 5, LifetimeCount: 100})
	if kept.PublishingInterval != time.Second || kept.KeepAliveCount != 5 || kept.LifetimeCount != 100 {
		t.Errorf("valid options revised: %+v", kept)
	}
}

func TestKeepAliveDoesNotConsumeSequenceNumber(t *testing.T) {
	s, _ := newTestServer(t)
	sub := newTestSubscription(s, remote.SubscriptionOptions{KeepAliveCount: 3, PublishingEnabled: true})

	for i := range 2 {
		sub.publish(epoch.Add(time.Duration(i) * time.Second))
	}
	if messages := drain(sub); len(messages) != 0 {
		t.Fatalf("published %d messages before the keep-alive count", len(messages))
	}

	sub.publish(epoch.Add(3 * time.Second))
	messages := drain(sub)
	if len(messages) != 1 || !messages[0].IsKeepAlive() || messages[0].SequenceNumber != 1 {
		t.Fatalf("keep-alive = %+v", messages)
	}

	sub.createItems([]remote.MonitoredItemSpec{{NodeID: DemoStaticScalarDouble, Attribute: ua.AttributeValue, ClientHandle: 7}})
	sub.publish(epoch.Add(4 * time.Second))
	messages = drain(sub)
	if len(messages) != 1 || messages[0].IsKeepAlive() {
		t.Fatalf("data message = %+v", messages)
	}
	if messages[0].SequenceNumber != 1 {
		t.Errorf("first data message sequence = %d, want 1", messages[0].SequenceNumber)
	}
	if change := messages[0].DataChanges[0]; change.ClientHandle != 7 || change.Value.Value.Value != 0.0 {
		t.Errorf("data change = %+v", change)
	}
}

func TestDataChangesOnlyOnChange(t *testing.T) {
	s, _ := newTestServer(t)
	sub := newTestSubscription(s, remote.SubscriptionOptions{KeepAliveCount: 100, PublishingEnabled: true})
	results := sub.createItems([]remote.MonitoredItemSpec{{NodeID: DemoStaticScalarDouble, Attribute: ua.AttributeValue, ClientHandle: 1}})
	if results[0].Status != ua.StatusGood || results[0].MonitoredItemID == 0 {
		t.Fatalf("create item = %+v", results[0])
	}

	sub.publish(epoch)
	sub.publish(epoch.Add(time.Second))
	if messages := drain(sub); len(messages) != 1 {
		t.Fatalf("got %d messages for an unchanged value, want only the initial one", len(messages))
	}

	s.space.setValue(DemoStaticScalarDouble, ua.NewVariant(20.0), epoch)
	sub.publish(epoch.Add(2 * time.Second))
	messages := drain(sub)
	if len(messages) != 1 || messages[0].SequenceNumber != 2 || messages[0].DataChanges[0].Value.Value.Value != 20.0 {
		t.Errorf("change message = %+v", messages)
	}
}

func TestAbsoluteDeadband(t *testing.T) {
	s, _ := newTestServer(t)
	sub := newTestSubscription(s, remote.SubscriptionOptions{KeepAliveCount: 100, PublishingEnabled: true})
	sub.createItems([]remote.MonitoredItemSpec{{
		NodeID:     DemoStaticScalarDouble,
		Attribute:  ua.AttributeValue,
		DataChange: &remote.DataChangeFilter{DeadbandType: remote.DeadbandAbsolute, DeadbandValue: 1},
	}})
	sub.publish(epoch)
	drain(sub)

	s.space.setValue(DemoStaticScalarDouble, ua.NewVariant(0.5), epoch)
	sub.publish(epoch.Add(time.Second))
	if messages := drain(sub); len(messages) != 0 {
		t.Errorf("change within deadband published: %+v", messages)
	}

	s.space.setValue(DemoStaticScalarDouble, ua.NewVariant(1.5), epoch)
	sub.publish(epoch.Add(2 * time.Second))
	if messages := drain(sub); len(messages) != 1 {
		t.Errorf("change beyond deadband not published")
	}
}

func TestQueueKeepsNewestWhileDisabled(t *testing.T) {
	s, _ := newTestServer(t)
	sub := newTestSubscription(s, remote.SubscriptionOptions{KeepAliveCount: 100})
	sub.createItems([]remote.MonitoredItemSpec{{
		NodeID:        DemoStaticScalarDouble,
		Attribute:     ua.AttributeValue,
		QueueSize:     2,
		DiscardOldest: true,
	}})

	for i, value := range []float64{1, 2, 3} {
		s.space.setValue(DemoStaticScalarDouble, ua.NewVariant(value), epoch)
		sub.publish(epoch.Add(time.Duration(i) * time.Second))
	}
	if messages := drain(sub); len(messages) != 0 {
		t.Fatalf("disabled subscription published %d messages", len(messages))
	}

	sub.setPublishing(true)
	sub.publish(epoch.Add(5 * time.Second))
	messages := drain(sub)
	if len(messages) != 1 {
		t.Fatalf("got %d messages after enabling", len(messages))
	}
	var values []any
	for _, change := range messages[0].DataChanges {
		values = append(values, change.Value.Value.Value)
	}
	if len(values) != 2 || values[0] != 2.0 || values[1] != 3.0 {
		t.Errorf("queued values = %v, want [2 3]", values)
	}
}

func TestCreateItemValidation(t *testing.T) {
	s, _ := newTestServer(t)
	sub := newTestSubscription(s, remote.SubscriptionOptions{})
	results := sub.createItems([]remote.MonitoredItemSpec{
		{NodeID: demoID("missing"), Attribute: ua.AttributeValue},
		{NodeID: DemoFolder, Attribute: ua.AttributeValue},
		{NodeID: DemoStaticScalarDouble, Event: &remote.EventFilter{}},
		{NodeID: ua.ServerObject, Event: &remote.EventFilter{}},
	})
	want := []ua.StatusCode{ua.StatusBadNodeIDUnknown, ua.StatusBadAttributeIDInvalid, ua.StatusBadAttributeIDInvalid, ua.StatusGood}
	for i, result := range results {
		if result.Status != want[i] {
			t.Errorf("item %d status = %v, want %v", i, result.Status, want[i])
		}
	}
	if sub.eventItemCount() != 1 {
		t.Errorf("event items = %d", sub.eventItemCount())
	}

	statuses := sub.deleteItems([]uint32{results[3].MonitoredItemID, 99})
	if statuses[0] != ua.StatusGood || statuses[1] != ua.StatusBadMonitoredItemIDInvalid {
		t.Errorf("delete statuses = %v", statuses)
	}
	if sub.eventItemCount() != 0 {
		t.Error("event item not deleted")
	}
}

func TestEventItemsFilterAndSelect(t *testing.T) {
	s, _ := newTestServer(t)
	sub := newTestSubscription(s, remote.SubscriptionOptions{KeepAliveCount: 100, PublishingEnabled: true})
	sub.createItems([]remote.MonitoredItemSpec{{
		NodeID:       ua.ServerObject,
		ClientHandle: 3,
		QueueSize:    10,
		Event: &remote.EventFilter{
			Select: []remote.SimpleAttributeOperand{
				{TypeDefinition: ua.BaseEventType, Path: pathSourceName, Attribute: ua.AttributeValue},
				{TypeDefinition: ua.ConditionType, Path: pathRetain, Attribute: ua.AttributeValue},
				{TypeDefinition: ua.ConditionType, Attribute: ua.AttributeNodeID},
			},
			Where: []remote.FilterElement{{
				Operator: remote.FilterEquals,
				Operand:  remote.SimpleAttributeOperand{TypeDefinition: ua.BaseEventType, Path: pathSourceName, Attribute: ua.AttributeValue},
				Value:    ua.NewVariant("Boiler1"),
			}},
		},
	}})

	s.mu.Lock()
	boiler1 := s.conditions[DemoBoiler1LevelAlarm].event(conditionNotifiers(s.conditions[DemoBoiler1LevelAlarm]))
	boiler2 := s.conditions[DemoBoiler2LevelAlarm].event(conditionNotifiers(s.conditions[DemoBoiler2LevelAlarm]))
	s.mu.Unlock()
	sub.deliverEvent(boiler1)
	sub.deliverEvent(boiler2)
	sub.deliverEvent(s.notifierEvent(epoch, 0))

	sub.publish(epoch)
	messages := drain(sub)
	if len(messages) != 1 || len(messages[0].Events) != 1 {
		t.Fatalf("messages = %+v", messages)
	}
	fields := messages[0].Events[0].Fields
	if fields[0].Value != "Boiler1" || fields[1].Value != true {
		t.Errorf("selected fields = %v", fields)
	}
	if id, ok := fields[2].NodeID(); !ok || id != DemoBoiler1LevelAlarm {
		t.Errorf("condition identity = %v", fields[2])
	}
}

func TestOperandOfUnrelatedTypeIsNull(t *testing.T) {
	s, _ := newTestServer(t)
	fields := s.space.selectFields(s.notifierEvent(epoch, 0), []remote.SimpleAttributeOperand{
		{TypeDefinition: ua.ConditionType, Path: pathRetain, Attribute: ua.AttributeValue},
		{TypeDefinition: ua.ConditionType, Attribute: ua.AttributeNodeID},
		{TypeDefinition: ua.BaseEventType, Path: pathSeverity, Attribute: ua.AttributeValue},
	})
	if !fields[0].IsNull() || !fields[1].IsNull() {
		t.Errorf("condition fields of a plain event = %v", fields[:2])
	}
	if fields[2].Value != uint16(100) {
		t.Errorf("severity = %v", fields[2])
	}

	ofType := []remote.FilterElement{{Operator: remote.FilterOfType, Value: ua.NewVariant(DemoEventType)}}
	if !s.space.matches(s.notifierEvent(epoch, 0), ofType) {
		t.Error("OfType filter rejected its own type")
	}
	s.mu.Lock()
	alarm := s.conditions[DemoBoiler1LevelAlarm].event(nil)
	s.mu.Unlock()
	if s.space.matches(alarm, ofType) {
		t.Error("OfType filter accepted an alarm")
	}
}
