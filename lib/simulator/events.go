// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package simulator

import (
	"encoding/binary"
	"reflect"
	"sync/atomic"
	"time"

	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/uaconsole/lib/remote"
	"github.com/bureau-foundation/uaconsole/lib/ua"
)

// Event field paths.
const (
	pathEventID                    = "EventId"
	pathEventType                  = "EventType"
	pathMessage                    = "Message"
	pathSeverity                   = "Severity"
	pathSourceName                 = "SourceName"
	pathSourceNode                 = "SourceNode"
	pathTime                       = "Time"
	pathReceiveTime                = "ReceiveTime"
	pathConditionName              = "ConditionName"
	pathConditionClassID           = "ConditionClassId"
	pathRetain                     = "Retain"
	pathComment                    = "Comment"
	pathEnabledState               = "EnabledState"
	pathEnabledStateID             = "EnabledState/Id"
	pathEnabledStateTransitionTime = "EnabledState/TransitionTime"
	pathAckedState                 = "AckedState"
	pathAckedStateID               = "AckedState/Id"
	pathActiveState                = "ActiveState"
	pathActiveStateID              = "ActiveState/Id"
	pathShelvingStateUnshelveTime  = "ShelvingState/UnshelveTime"
)

// event is one occurrence reported to event monitored items and, for
// historizing notifiers, stored in history.
type event struct {
	eventType ua.NodeID

	// conditionID is null for events that are not condition state
	// changes.
	conditionID ua.NodeID

	// notifiers are the objects whose event items receive the event.
	notifiers []ua.NodeID

	time   time.Time
	fields map[string]ua.Variant
}

// eventIDSource issues unique event ids: a truncated BLAKE3 digest of
// the source, the time, and a process-wide sequence number.
type eventIDSource struct {
	sequence atomic.Uint64
}

// eventIDLength is the length of issued event ids.
const eventIDLength = 16

func (source *eventIDSource) next(sourceName string, at time.Time) []byte {
	hasher := blake3.New()
	var scratch [16]byte
	binary.BigEndian.PutUint64(scratch[:8], uint64(at.UnixNano()))
	binary.BigEndian.PutUint64(scratch[8:], source.sequence.Add(1))
	hasher.Write(scratch[:])
	hasher.Write([]byte(sourceName))
	return hasher.Sum(nil)[:eventIDLength]
}

// selectFields evaluates the select clause against e. Operands that do
// not apply to the event's type yield null fields.
func (space *addressSpace) selectFields(e event, clauses []remote.SimpleAttributeOperand) []ua.Variant {
	fields := make([]ua.Variant, len(clauses))
	for i, clause := range clauses {
		fields[i] = space.operandValue(e, clause)
	}
	return fields
}

func (space *addressSpace) operandValue(e event, operand remote.SimpleAttributeOperand) ua.Variant {
	if !operand.TypeDefinition.IsNull() && !space.isSubtype(e.eventType, operand.TypeDefinition) {
		return ua.Variant{}
	}
	if operand.Path == "" {
		if operand.Attribute == ua.AttributeNodeID && !e.conditionID.IsNull() {
			return ua.NewVariant(e.conditionID)
		}
		return ua.Variant{}
	}
	return e.fields[operand.Path]
}

// matches reports whether e passes every where clause.
func (space *addressSpace) matches(e event, where []remote.FilterElement) bool {
	for _, element := range where {
		switch element.Operator {
		case remote.FilterEquals:
			field := space.operandValue(e, element.Operand)
			if field.Type != element.Value.Type || !reflect.DeepEqual(field.Value, element.Value.Value) {
				return false
			}
		case remote.FilterOfType:
			eventType, ok := element.Value.NodeID()
			if !ok || !space.isSubtype(e.eventType, eventType) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// receivedBy reports whether notifier receives e.
func (e event) receivedBy(notifier ua.NodeID) bool {
	for _, candidate := range e.notifiers {
		if candidate == notifier {
			return true
		}
	}
	return false
}
