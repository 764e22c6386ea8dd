// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package alarm

import (
	"github.com/bureau-foundation/uaconsole/lib/remote"
	"github.com/bureau-foundation/uaconsole/lib/ua"
)

// Positions of the fields in an alarm notification.
const (
	FieldConditionID = iota
	FieldEventID
	FieldEventType
	FieldMessage
	FieldSeverity
	FieldSourceName
	FieldTime
	FieldConditionName
	FieldConditionClassID
	FieldRetain
	FieldComment
	FieldEnabledState
	FieldEnabledStateID
	FieldAckedState
	FieldAckedStateID
	FieldActiveState
	FieldActiveStateID
	FieldEnabledStateTransitionTime
	FieldShelvingStateUnshelveTime

	// FieldCount is the number of selected fields.
	FieldCount
)

// fieldPaths are the browse paths selected, in field order. The
// condition identity has no path; it is the NodeId attribute of the
// condition itself.
var fieldPaths = [FieldCount]string{
	FieldConditionID:                "",
	FieldEventID:                    "EventId",
	FieldEventType:                  "EventType",
	FieldMessage:                    "Message",
	FieldSeverity:                   "Severity",
	FieldSourceName:                 "SourceName",
	FieldTime:                       "Time",
	FieldConditionName:              "ConditionName",
	FieldConditionClassID:           "ConditionClassId",
	FieldRetain:                     "Retain",
	FieldComment:                    "Comment",
	FieldEnabledState:               "EnabledState",
	FieldEnabledStateID:             "EnabledState/Id",
	FieldAckedState:                 "AckedState",
	FieldAckedStateID:               "AckedState/Id",
	FieldActiveState:                "ActiveState",
	FieldActiveStateID:              "ActiveState/Id",
	FieldEnabledStateTransitionTime: "EnabledState/TransitionTime",
	FieldShelvingStateUnshelveTime:  "ShelvingState/UnshelveTime",
}

// SelectClauses returns the select clause of an alarm event item, in
// field order.
func SelectClauses() []remote.SimpleAttributeOperand {
	clauses := make([]remote.SimpleAttributeOperand, FieldCount)
	for i, path := range fieldPaths {
		if path == "" {
			clauses[i] = remote.SimpleAttributeOperand{
				TypeDefinition: ua.ConditionType,
				Attribute:      ua.AttributeNodeID,
			}
			continue
		}
		clauses[i] = remote.SimpleAttributeOperand{
			TypeDefinition: ua.ConditionType,
			Path:           path,
			Attribute:      ua.AttributeValue,
		}
	}
	return clauses
}

// Filter returns the event filter of an alarm item. When sourceName is
// non-empty only conditions of that source are reported.
func Filter(sourceName string) remote.EventFilter {
	filter := remote.EventFilter{Select: SelectClauses()}
	if sourceName != "" {
		filter.Where = []remote.FilterElement{{
			Operator: remote.FilterEquals,
			Operand: remote.SimpleAttributeOperand{
				TypeDefinition: ua.BaseEventType,
				Path:           "SourceName",
				Attribute:      ua.AttributeValue,
			},
			Value: ua.NewVariant(sourceName),
		}}
	}
	return filter
}
