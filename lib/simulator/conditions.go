// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package simulator

import (
	"bytes"
	"time"

	"github.com/bureau-foundation/uaconsole/lib/ua"
)

// condition is an alarm condition instance. It is retained while it is
// enabled and either active or unacknowledged.
type condition struct {
	id         ua.NodeID
	name       string
	source     ua.NodeID
	sourceName string
	severity   uint16
	message    string

	enabled bool
	active  bool
	acked   bool
	comment string

	eventID        []byte
	time           time.Time
	transitionTime time.Time
}

func (c *condition) retain() bool {
	return c.enabled && (c.active || !c.acked)
}

func stateText(on bool, onText, offText string) ua.Variant {
	if on {
		return ua.NewVariant(ua.LocalizedText{Locale: "en", Text: onText})
	}
	return ua.NewVariant(ua.LocalizedText{Locale: "en", Text: offText})
}

// event reports the condition's current state. notifiers are the
// objects whose event items see it.
func (c *condition) event(notifiers []ua.NodeID) event {
	return event{
		eventType:   ua.AlarmConditionType,
		conditionID: c.id,
		notifiers:   notifiers,
		time:        c.time,
		fields: map[string]ua.Variant{
			pathEventID:                    ua.NewVariant(append([]byte(nil), c.eventID...)),
			pathEventType:                  ua.NewVariant(ua.AlarmConditionType),
			pathMessage:                    ua.NewVariant(ua.LocalizedText{Locale: "en", Text: c.message}),
			pathSeverity:                   ua.NewVariant(c.severity),
			pathSourceName:                 ua.NewVariant(c.sourceName),
			pathSourceNode:                 ua.NewVariant(c.source),
			pathTime:                       ua.NewVariant(c.time),
			pathReceiveTime:                ua.NewVariant(c.time),
			pathConditionName:              ua.NewVariant(c.name),
			pathConditionClassID:           ua.NewVariant(ua.NewNumericNodeID(0, 11163)),
			pathRetain:                     ua.NewVariant(c.retain()),
			pathComment:                    ua.NewVariant(ua.LocalizedText{Text: c.comment}),
			pathEnabledState:               stateText(c.enabled, "Enabled", "Disabled"),
			pathEnabledStateID:             ua.NewVariant(c.enabled),
			pathEnabledStateTransitionTime: ua.NewVariant(c.transitionTime),
			pathAckedState:                 stateText(c.acked, "Acknowledged", "Unacknowledged"),
			pathAckedStateID:               ua.NewVariant(c.acked),
			pathActiveState:                stateText(c.active, "Active", "Inactive"),
			pathActiveStateID:              ua.NewVariant(c.active),
		},
	}
}

// acknowledge applies an Acknowledge call. eventID must name the
// condition's latest state.
func (c *condition) acknowledge(eventID []byte, comment string) ua.StatusCode {
	if !c.enabled {
		return ua.StatusBadConditionDisabled
	}
	if !bytes.Equal(eventID, c.eventID) {
		return ua.StatusBadEventIDUnknown
	}
	if c.acked {
		return ua.StatusBadConditionBranchAlreadyAcked
	}
	c.acked = true
	c.comment = comment
	return ua.StatusGood
}
