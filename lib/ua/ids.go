// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ua

// AttributeID selects which attribute of a node a read or write
// addresses.
type AttributeID uint32

const (
	AttributeNodeID        AttributeID = 1
	AttributeNodeClass     AttributeID = 2
	AttributeBrowseName    AttributeID = 3
	AttributeDisplayName   AttributeID = 4
	AttributeEventNotifier AttributeID = 12
	AttributeValue         AttributeID = 13
)

// NodeClass classifies a node.
type NodeClass uint32

const (
	NodeClassUnspecified NodeClass = 0
	NodeClassObject      NodeClass = 1
	NodeClassVariable    NodeClass = 2
	NodeClassMethod      NodeClass = 4
	NodeClassObjectType  NodeClass = 8
)

func (class NodeClass) String() string {
	switch class {
	case NodeClassObject:
		return "Object"
	case NodeClassVariable:
		return "Variable"
	case NodeClassMethod:
		return "Method"
	case NodeClassObjectType:
		return "ObjectType"
	default:
		return "Unspecified"
	}
}

// Well-known nodes of namespace 0.
var (
	ObjectsFolder                   = NewNumericNodeID(0, 85)
	ReferencesType                  = NewNumericNodeID(0, 31)
	HierarchicalReferencesType      = NewNumericNodeID(0, 33)
	OrganizesType                   = NewNumericNodeID(0, 35)
	HasComponentType                = NewNumericNodeID(0, 47)
	BaseEventType                   = NewNumericNodeID(0, 2041)
	ServerObject                    = NewNumericNodeID(0, 2253)
	ServerNamespaceArray            = NewNumericNodeID(0, 2255)
	ServerStatusCurrentTime         = NewNumericNodeID(0, 2258)
	ConditionType                   = NewNumericNodeID(0, 2782)
	AlarmConditionType              = NewNumericNodeID(0, 2915)
	ConditionRefreshMethod          = NewNumericNodeID(0, 3875)
	AcknowledgeableConditionAckType = NewNumericNodeID(0, 9111)
)
