// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package remote

import (
	"context"

	"github.com/bureau-foundation/uaconsole/lib/ua"
)

// Service is the remote server as the console sees it. Every method
// blocks until the server answers or ctx is done. An error means the
// whole call failed; per-item outcomes are reported in the results.
type Service interface {
	// FindServers lists the servers known to the discovery endpoint.
	FindServers(ctx context.Context, discoveryURL string) ([]ApplicationDescription, error)

	// GetEndpoints lists the endpoints offered at url.
	GetEndpoints(ctx context.Context, url string) ([]Endpoint, error)

	// Connect opens a session. Connecting while a session is open
	// replaces it.
	Connect(ctx context.Context, request ConnectRequest) error

	// Disconnect closes the session and deletes its subscriptions.
	Disconnect(ctx context.Context) error

	// ChangeUser re-authenticates the open session as identity.
	ChangeUser(ctx context.Context, identity Identity) error

	// Read reads attribute values, one DataValue per request entry.
	Read(ctx context.Context, nodes []ReadValueID) ([]ua.DataValue, error)

	// Write writes attribute values, one status per request entry.
	Write(ctx context.Context, values []WriteValue) ([]ua.StatusCode, error)

	// Browse returns the first page of references of a node.
	Browse(ctx context.Context, request BrowseRequest) (BrowseResult, error)

	// BrowseNext returns the page following continuationPoint.
	BrowseNext(ctx context.Context, continuationPoint []byte) (BrowseResult, error)

	// ReleaseBrowse discards the server state behind continuationPoint.
	ReleaseBrowse(ctx context.Context, continuationPoint []byte) error

	// TranslatePaths resolves browse paths to node ids.
	TranslatePaths(ctx context.Context, paths []BrowsePath) ([]BrowsePathResult, error)

	// Call invokes a method.
	Call(ctx context.Context, request CallRequest) (CallResult, error)

	// RegisterNodes returns handles the server resolves faster than the
	// original ids. Handles are valid for the current session only.
	RegisterNodes(ctx context.Context, nodes []ua.NodeID) ([]ua.NodeID, error)

	// UnregisterNodes releases handles returned by RegisterNodes.
	UnregisterNodes(ctx context.Context, nodes []ua.NodeID) error

	// HistoryReadData reads raw history values, one result per node.
	HistoryReadData(ctx context.Context, request HistoryReadDataRequest) ([]HistoryDataResult, error)

	// HistoryReadEvents reads historical events, one result per node.
	HistoryReadEvents(ctx context.Context, request HistoryReadEventsRequest) ([]HistoryEventResult, error)

	// HistoryUpdateData inserts or replaces history values.
	HistoryUpdateData(ctx context.Context, updates []HistoryUpdateDataRequest) ([]ua.StatusCode, error)

	// DataTypes returns the structure definitions of the server's
	// custom data types.
	DataTypes(ctx context.Context) ([]ua.StructureDefinition, error)

	// CreateSubscription creates a subscription whose notifications are
	// delivered to handler until the subscription is deleted or the
	// session closes.
	CreateSubscription(ctx context.Context, options SubscriptionOptions, handler NotificationHandler) (Subscription, error)
}

// Subscription is a live subscription.
type Subscription interface {
	// ID is the server-assigned subscription id.
	ID() uint32

	// SetPublishingEnabled pauses or resumes notification delivery.
	SetPublishingEnabled(ctx context.Context, enabled bool) error

	// CreateMonitoredItems adds items, one result per spec.
	CreateMonitoredItems(ctx context.Context, items []MonitoredItemSpec) ([]MonitoredItemResult, error)

	// DeleteMonitoredItems removes items by server id.
	DeleteMonitoredItems(ctx context.Context, monitoredItemIDs []uint32) ([]ua.StatusCode, error)

	// Delete deletes the subscription. No callbacks run after Delete
	// returns.
	Delete(ctx context.Context) error
}

// NotificationHandler receives the notifications of one subscription.
// Methods are called from a goroutine owned by the Service
// implementation, never concurrently with each other for the same
// subscription, and must not block for long.
//
// For each NotificationMessage, OnNotificationBatch is called first
// with the whole message (keep-alives included), then OnDataChange for
// each data change, OnEvent for each event, and OnStatusChange if the
// message carries a status change.
type NotificationHandler interface {
	OnNotificationBatch(message NotificationMessage)
	OnDataChange(change DataChange)
	OnEvent(event EventFieldList)
	OnStatusChange(status ua.StatusCode)
}

// Dispatch delivers message to handler in the documented order.
func Dispatch(handler NotificationHandler, message NotificationMessage) {
	handler.OnNotificationBatch(message)
	for _, change := range message.DataChanges {
		handler.OnDataChange(change)
	}
	for _, event := range message.Events {
		handler.OnEvent(event)
	}
	if message.StatusChange != nil {
		handler.OnStatusChange(*message.StatusChange)
	}
}
