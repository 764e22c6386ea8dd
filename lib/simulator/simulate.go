// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package simulator

import (
	"context"
	"math"
	"time"

	"github.com/bureau-foundation/uaconsole/lib/ua"
)

// Every alarmPeriod ticks one condition toggles; every eventPeriod
// ticks the history notifier raises an event.
const (
	alarmPeriod = 5
	eventPeriod = 3
)

// simulate runs step at the simulation interval until ctx is done.
func (s *Server) simulate(ctx context.Context) {
	ticker := s.clock.NewTicker(s.config.SimulationInterval)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			s.step(ctx, now)
		case <-ctx.Done():
			return
		}
	}
}

// step advances the simulation by one tick.
func (s *Server) step(ctx context.Context, now time.Time) {
	s.mu.Lock()
	s.tick++
	tick := s.tick
	s.mu.Unlock()

	s.space.setValue(DemoDynamicScalarDouble, ua.NewVariant(dynamicDouble(tick)), now)
	array := make([]float64, 5)
	for i := range array {
		array[i] = dynamicDouble(tick + uint64(i)*7)
	}
	s.space.setValue(DemoDynamicArraysDouble, ua.NewVariant(array), now)
	s.space.setValue(DemoBoiler1FillLevel, ua.NewVariant(math.Round(500+300*math.Cos(float64(tick)/20))/10), now)

	for _, id := range []ua.NodeID{DemoHistorian1, DemoHistorian2} {
		value := ua.NewVariant(dynamicDouble(tick + uint64(id.Text[len(id.Text)-1])))
		if s.space.setValue(id, value, now) {
			s.recordValue(ctx, id, ua.DataValue{Value: value, SourceTimestamp: now, ServerTimestamp: now})
		}
	}

	if tick%eventPeriod == 0 {
		s.emitEvent(ctx, s.notifierEvent(now, int(tick/eventPeriod)+historyEventSeeds))
	}
	if tick%alarmPeriod == 0 {
		s.toggleCondition(ctx, now, int(tick/alarmPeriod)-1)
	}
}

// toggleCondition flips the active state of the n-th condition, round
// robin. Activation needs a fresh acknowledgment.
func (s *Server) toggleCondition(ctx context.Context, now time.Time, n int) {
	s.mu.Lock()
	c := s.conditions[s.conditionOrder[n%len(s.conditionOrder)]]
	c.active = !c.active
	if c.active {
		c.acked = false
		c.comment = ""
	}
	c.eventID = s.eventIDs.next(c.sourceName, now)
	c.time = now
	c.transitionTime = now
	e := c.event(conditionNotifiers(c))
	s.mu.Unlock()

	s.logger.Debug("condition toggled", "condition", c.id.String(), "active", e.fields[pathActiveStateID].Value)
	s.emitEvent(ctx, e)
}
