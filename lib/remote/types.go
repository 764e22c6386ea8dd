// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package remote

import (
	"time"

	"github.com/bureau-foundation/uaconsole/lib/ua"
)

// SecurityLevel selects the endpoint a connect uses.
type SecurityLevel int

const (
	// SecurityNone picks an endpoint without message security.
	SecurityNone SecurityLevel = iota
	// SecurityBest picks the endpoint with the highest security level.
	SecurityBest
)

// ApplicationDescription describes a server found by discovery.
type ApplicationDescription struct {
	ApplicationURI  string   `cbor:"application_uri"`
	ApplicationName string   `cbor:"application_name"`
	DiscoveryURLs   []string `cbor:"discovery_urls"`
}

// Endpoint is one way of connecting to a server.
type Endpoint struct {
	URL            string `cbor:"url"`
	SecurityPolicy string `cbor:"security_policy"`
	SecurityMode   string `cbor:"security_mode"`
	SecurityLevel  byte   `cbor:"security_level"`
}

// IdentityKind selects the user identity token type.
type IdentityKind int

const (
	IdentityAnonymous IdentityKind = iota
	IdentityUserName
)

// Identity is the user a session authenticates as.
type Identity struct {
	Kind     IdentityKind `cbor:"kind"`
	UserName string       `cbor:"user_name,omitempty"`
	Password string       `cbor:"password,omitempty"`
}

// String never includes the password.
func (identity Identity) String() string {
	if identity.Kind == IdentityUserName {
		return "user " + identity.UserName
	}
	return "anonymous"
}

// ConnectRequest opens a session. When Endpoint.URL is empty the
// implementation discovers endpoints at URL and picks one by Security.
type ConnectRequest struct {
	URL      string        `cbor:"url"`
	Endpoint Endpoint      `cbor:"endpoint"`
	Security SecurityLevel `cbor:"security"`
	Identity Identity      `cbor:"identity"`
}

// ReadValueID addresses one attribute, optionally a sub-range of an
// array value.
type ReadValueID struct {
	NodeID     ua.NodeID      `cbor:"node_id"`
	Attribute  ua.AttributeID `cbor:"attribute"`
	IndexRange string         `cbor:"index_range,omitempty"`
}

// WriteValue writes one attribute, optionally a sub-range of it.
type WriteValue struct {
	NodeID     ua.NodeID      `cbor:"node_id"`
	Attribute  ua.AttributeID `cbor:"attribute"`
	IndexRange string         `cbor:"index_range,omitempty"`
	Value      ua.DataValue   `cbor:"value"`
}

// BrowseDirection filters references by direction.
type BrowseDirection int

const (
	BrowseForward BrowseDirection = iota
	BrowseInverse
	BrowseBoth
)

// BrowseRequest browses the references of one node.
type BrowseRequest struct {
	NodeID          ua.NodeID       `cbor:"node_id"`
	Direction       BrowseDirection `cbor:"direction"`
	ReferenceType   ua.NodeID       `cbor:"reference_type"`
	IncludeSubtypes bool            `cbor:"include_subtypes"`
	MaxReferences   uint32          `cbor:"max_references"`
}

// ReferenceDescription is one reference returned by a browse.
type ReferenceDescription struct {
	ReferenceType ua.NodeID        `cbor:"reference_type"`
	IsForward     bool             `cbor:"is_forward"`
	NodeID        ua.NodeID        `cbor:"node_id"`
	BrowseName    ua.QualifiedName `cbor:"browse_name"`
	DisplayName   ua.LocalizedText `cbor:"display_name"`
	NodeClass     ua.NodeClass     `cbor:"node_class"`
}

// BrowseResult is one page of references.
type BrowseResult struct {
	Status            ua.StatusCode          `cbor:"status,omitempty"`
	References        []ReferenceDescription `cbor:"references"`
	ContinuationPoint []byte                 `cbor:"continuation_point,omitempty"`
}

// BrowsePath is a start node and a chain of browse names to follow.
type BrowsePath struct {
	StartNode ua.NodeID          `cbor:"start_node"`
	Elements  []ua.QualifiedName `cbor:"elements"`
}

// BrowsePathResult lists the nodes a BrowsePath resolved to.
type BrowsePathResult struct {
	Status  ua.StatusCode `cbor:"status,omitempty"`
	Targets []ua.NodeID   `cbor:"targets"`
}

// CallRequest invokes a method on an object.
type CallRequest struct {
	ObjectID  ua.NodeID    `cbor:"object_id"`
	MethodID  ua.NodeID    `cbor:"method_id"`
	Arguments []ua.Variant `cbor:"arguments"`
}

// CallResult is the outcome of a method call.
type CallResult struct {
	Status  ua.StatusCode `cbor:"status,omitempty"`
	Outputs []ua.Variant  `cbor:"outputs"`
}

// HistoryReadValueID names one node of a history read and, for a
// continuation, its continuation point.
type HistoryReadValueID struct {
	NodeID            ua.NodeID `cbor:"node_id"`
	ContinuationPoint []byte    `cbor:"continuation_point,omitempty"`
}

// RawDetails are the query details of a raw history read. The zero
// value accompanies continuation and release requests.
type RawDetails struct {
	StartTime        time.Time `cbor:"start_time"`
	EndTime          time.Time `cbor:"end_time"`
	ValuesPerNode    uint32    `cbor:"values_per_node"`
	ReturnBounds     bool      `cbor:"return_bounds,omitempty"`
	SourceTimestamps bool      `cbor:"source_timestamps,omitempty"`
}

// HistoryReadDataRequest reads raw history of one or more nodes.
type HistoryReadDataRequest struct {
	Details RawDetails           `cbor:"details"`
	Nodes   []HistoryReadValueID `cbor:"nodes"`
	Release bool                 `cbor:"release,omitempty"`
}

// HistoryDataResult is one node's page of history values.
type HistoryDataResult struct {
	NodeID            ua.NodeID      `cbor:"node_id"`
	Status            ua.StatusCode  `cbor:"status,omitempty"`
	Values            []ua.DataValue `cbor:"values"`
	ContinuationPoint []byte         `cbor:"continuation_point,omitempty"`
}

// SimpleAttributeOperand selects one field of an event: an attribute
// of the node reached by Path (slash-separated browse names) from an
// instance of TypeDefinition. An empty Path with AttributeNodeID
// selects the identity of the condition itself.
type SimpleAttributeOperand struct {
	TypeDefinition ua.NodeID      `cbor:"type_definition"`
	Path           string         `cbor:"path"`
	Attribute      ua.AttributeID `cbor:"attribute"`
}

// FilterOperator is the operator of a FilterElement.
type FilterOperator int

const (
	// FilterEquals matches events whose Operand field equals Value.
	FilterEquals FilterOperator = iota
	// FilterOfType matches events of type Value (a NodeId) or a subtype.
	FilterOfType
)

// FilterElement is one clause of a where filter. All clauses must
// match.
type FilterElement struct {
	Operator FilterOperator         `cbor:"operator"`
	Operand  SimpleAttributeOperand `cbor:"operand"`
	Value    ua.Variant             `cbor:"value"`
}

// EventFilter selects event fields (positionally) and filters events.
type EventFilter struct {
	Select []SimpleAttributeOperand `cbor:"select"`
	Where  []FilterElement          `cbor:"where,omitempty"`
}

// EventDetails are the query details of a history event read.
type EventDetails struct {
	StartTime     time.Time   `cbor:"start_time"`
	EndTime       time.Time   `cbor:"end_time"`
	EventsPerNode uint32      `cbor:"events_per_node"`
	Filter        EventFilter `cbor:"filter"`
}

// HistoryReadEventsRequest reads historical events of one or more
// notifier nodes.
type HistoryReadEventsRequest struct {
	Details EventDetails         `cbor:"details"`
	Nodes   []HistoryReadValueID `cbor:"nodes"`
	Release bool                 `cbor:"release,omitempty"`
}

// EventFieldList is one event: the values of the selected fields in
// select-clause order.
type EventFieldList struct {
	ClientHandle uint32       `cbor:"client_handle"`
	Fields       []ua.Variant `cbor:"fields"`
}

// HistoryEventResult is one node's page of events.
type HistoryEventResult struct {
	NodeID            ua.NodeID        `cbor:"node_id"`
	Status            ua.StatusCode    `cbor:"status,omitempty"`
	Events            []EventFieldList `cbor:"events"`
	ContinuationPoint []byte           `cbor:"continuation_point,omitempty"`
}

// UpdateMode selects how HistoryUpdateData treats existing values.
type UpdateMode int

const (
	UpdateInsert UpdateMode = iota + 1
	UpdateReplace
	UpdateUpsert
)

// HistoryUpdateDataRequest inserts or replaces history values of one
// node.
type HistoryUpdateDataRequest struct {
	NodeID ua.NodeID      `cbor:"node_id"`
	Mode   UpdateMode     `cbor:"mode"`
	Values []ua.DataValue `cbor:"values"`
}

// SubscriptionOptions configure a new subscription.
type SubscriptionOptions struct {
	PublishingInterval time.Duration `cbor:"publishing_interval"`
	LifetimeCount      uint32        `cbor:"lifetime_count"`
	KeepAliveCount     uint32        `cbor:"keep_alive_count"`
	MaxNotifications   uint32        `cbor:"max_notifications,omitempty"`
	PublishingEnabled  bool          `cbor:"publishing_enabled"`
	Priority           byte          `cbor:"priority,omitempty"`
}

// DeadbandType selects how a DataChangeFilter suppresses small changes.
type DeadbandType int

const (
	DeadbandNone DeadbandType = iota
	DeadbandAbsolute
	DeadbandPercent
)

// DataChangeFilter suppresses data changes smaller than the deadband.
type DataChangeFilter struct {
	DeadbandType  DeadbandType `cbor:"deadband_type"`
	DeadbandValue float64      `cbor:"deadband_value"`
}

// MonitoredItemSpec describes one monitored item to create. Exactly one
// of DataChange and Event may be set; Event makes it an event item.
type MonitoredItemSpec struct {
	NodeID           ua.NodeID         `cbor:"node_id"`
	Attribute        ua.AttributeID    `cbor:"attribute"`
	ClientHandle     uint32            `cbor:"client_handle"`
	SamplingInterval time.Duration     `cbor:"sampling_interval"`
	QueueSize        uint32            `cbor:"queue_size"`
	DiscardOldest    bool              `cbor:"discard_oldest"`
	DataChange       *DataChangeFilter `cbor:"data_change,omitempty"`
	Event            *EventFilter      `cbor:"event,omitempty"`
}

// MonitoredItemResult is the server's answer for one created item.
type MonitoredItemResult struct {
	Status          ua.StatusCode `cbor:"status,omitempty"`
	MonitoredItemID uint32        `cbor:"monitored_item_id"`
	ClientHandle    uint32        `cbor:"client_handle"`
}

// DataChange is a new value of a monitored item.
type DataChange struct {
	ClientHandle uint32       `cbor:"client_handle"`
	Value        ua.DataValue `cbor:"value"`
}

// NotificationMessage is one publish of a subscription. A message with
// no data changes, no events, and no status change is a keep-alive.
type NotificationMessage struct {
	SubscriptionID uint32           `cbor:"subscription_id"`
	SequenceNumber uint32           `cbor:"sequence_number"`
	PublishTime    time.Time        `cbor:"publish_time"`
	DataChanges    []DataChange     `cbor:"data_changes,omitempty"`
	Events         []EventFieldList `cbor:"events,omitempty"`
	StatusChange   *ua.StatusCode   `cbor:"status_change,omitempty"`
}

// IsKeepAlive reports whether the message carries no notification data.
func (message NotificationMessage) IsKeepAlive() bool {
	return len(message.DataChanges) == 0 && len(message.Events) == 0 && message.StatusChange == nil
}
