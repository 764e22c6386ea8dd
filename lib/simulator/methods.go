// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package simulator

import (
	"context"
	"time"

	"github.com/bureau-foundation/uaconsole/lib/remote"
	"github.com/bureau-foundation/uaconsole/lib/ua"
)

// bindMethods adds the method nodes of the demo namespace.
func (s *Server) bindMethods() {
	s.space.add(DemoMethod, ua.HasComponentType, &node{
		id:          DemoMethodMultiply,
		class:       ua.NodeClassMethod,
		browseName:  qualified("Multiply"),
		displayName: localized("Multiply"),
		method:      multiply,
	})
}

// multiply returns the product of two numeric arguments.
func multiply(call methodCall) ([]ua.Variant, ua.StatusCode) {
	if len(call.arguments) < 2 {
		return nil, ua.StatusBadArgumentsMissing
	}
	a, okA := call.arguments[0].Float64()
	b, okB := call.arguments[1].Float64()
	if !okA || !okB {
		return nil, ua.StatusBadInvalidArgument
	}
	return []ua.Variant{ua.NewVariant(a * b)}, ua.StatusGood
}

// conditionSeeds are the alarms of the boiler demo and their initial
// states.
var conditionSeeds = []struct {
	id         ua.NodeID
	name       string
	source     ua.NodeID
	sourceName string
	severity   uint16
	message    string
	active     bool
}{
	{DemoBoiler1LevelAlarm, "LevelAlarm", DemoBoiler1, "Boiler1", 500, "Fill level out of range", true},
	{DemoBoiler1TemperatureAlarm, "TemperatureAlarm", DemoBoiler1, "Boiler1", 700, "Temperature too high", false},
	{DemoBoiler2LevelAlarm, "LevelAlarm", DemoBoiler2, "Boiler2", 500, "Fill level out of range", true},
}

func (s *Server) createConditions(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, seed := range conditionSeeds {
		c := &condition{
			id:             seed.id,
			name:           seed.name,
			source:         seed.source,
			sourceName:     seed.sourceName,
			severity:       seed.severity,
			message:        seed.message,
			enabled:        true,
			active:         seed.active,
			acked:          !seed.active,
			time:           now,
			transitionTime: now,
		}
		c.eventID = s.eventIDs.next(c.sourceName, now)
		s.conditions[c.id] = c
		s.conditionOrder = append(s.conditionOrder, c.id)
	}
}

// conditionNotifiers are the objects whose event items see the state
// changes of c.
func conditionNotifiers(c *condition) []ua.NodeID {
	return []ua.NodeID{c.source, ua.ServerObject}
}

// call executes one method call for sess.
func (s *Server) call(ctx context.Context, sess *session, request remote.CallRequest) remote.CallResult {
	request.ObjectID = sess.resolve(request.ObjectID)
	request.MethodID = sess.resolve(request.MethodID)

	switch request.MethodID {
	case ua.AcknowledgeableConditionAckType:
		return remote.CallResult{Status: s.acknowledge(ctx, request.ObjectID, request.Arguments)}
	case ua.ConditionRefreshMethod:
		return remote.CallResult{Status: s.conditionRefresh(sess, request.ObjectID, request.Arguments)}
	}

	object, ok := s.space.lookup(request.ObjectID)
	if !ok {
		return remote.CallResult{Status: ua.StatusBadNodeIDUnknown}
	}
	method, ok := s.space.lookup(request.MethodID)
	if !ok || method.class != ua.NodeClassMethod || method.method == nil {
		return remote.CallResult{Status: ua.StatusBadMethodInvalid}
	}
	if !hasComponent(s.space, object.id, method.id) {
		return remote.CallResult{Status: ua.StatusBadMethodInvalid}
	}

	outputs, status := method.method(methodCall{session: sess, object: object.id, arguments: request.Arguments})
	return remote.CallResult{Status: status, Outputs: outputs}
}

func hasComponent(space *addressSpace, object, target ua.NodeID) bool {
	space.mu.RLock()
	defer space.mu.RUnlock()
	n, ok := space.nodes[object]
	if !ok {
		return false
	}
	for _, ref := range n.references {
		if ref.target == target && ref.referenceType == ua.HasComponentType {
			return true
		}
	}
	return false
}

// acknowledge implements the Acknowledge method of a condition. The
// arguments are the event id of the state being acknowledged and a
// comment. A successful acknowledgment is a new condition state and is
// reported as a new event.
func (s *Server) acknowledge(ctx context.Context, conditionID ua.NodeID, arguments []ua.Variant) ua.StatusCode {
	if len(arguments) < 2 {
		return ua.StatusBadArgumentsMissing
	}
	eventID, ok := arguments[0].Bytes()
	if !ok {
		return ua.StatusBadInvalidArgument
	}
	comment, ok := arguments[1].Value.(ua.LocalizedText)
	if !ok || arguments[1].Array {
		return ua.StatusBadInvalidArgument
	}

	now := s.clock.Now()
	s.mu.Lock()
	c, ok := s.conditions[conditionID]
	if !ok {
		s.mu.Unlock()
		return ua.StatusBadNodeIDUnknown
	}
	status := c.acknowledge(eventID, comment.Text)
	if status.IsBad() {
		s.mu.Unlock()
		return status
	}
	c.eventID = s.eventIDs.next(c.sourceName, now)
	c.time = now
	e := c.event(conditionNotifiers(c))
	s.mu.Unlock()

	s.logger.Info("condition acknowledged",
		"condition", conditionID.String(),
		"comment", comment.Text,
	)
	s.emitEvent(ctx, e)
	return ua.StatusGood
}

// conditionRefresh re-sends the current state of every retained
// condition to the event items of the subscription named by the first
// argument. The subscription must belong to the calling session.
func (s *Server) conditionRefresh(sess *session, object ua.NodeID, arguments []ua.Variant) ua.StatusCode {
	if object != ua.ServerObject && object != ua.ConditionType {
		return ua.StatusBadMethodInvalid
	}
	if len(arguments) < 1 {
		return ua.StatusBadArgumentsMissing
	}
	subscriptionID, ok := arguments[0].Value.(uint32)
	if !ok || arguments[0].Array {
		return ua.StatusBadInvalidArgument
	}
	sub, ok := sess.subscription(subscriptionID)
	if !ok {
		return ua.StatusBadSubscriptionIDInvalid
	}

	s.mu.Lock()
	var retained []event
	for _, id := range s.conditionOrder {
		c := s.conditions[id]
		if c.retain() {
			retained = append(retained, c.event(conditionNotifiers(c)))
		}
	}
	s.mu.Unlock()

	for _, e := range retained {
		sub.deliverEvent(e)
	}
	s.logger.Debug("condition refresh", "subscription", subscriptionID, "conditions", len(retained))
	return ua.StatusGood
}
