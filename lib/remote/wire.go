// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package remote

// Socket actions. A request carries the session id in "session" (once
// connected) and the operation's typed payload in "request".
const (
	ActionFindServers          = "find_servers"
	ActionGetEndpoints         = "get_endpoints"
	ActionConnect              = "connect"
	ActionDisconnect           = "disconnect"
	ActionChangeUser           = "change_user"
	ActionRead                 = "read"
	ActionWrite                = "write"
	ActionBrowse               = "browse"
	ActionBrowseNext           = "browse_next"
	ActionReleaseBrowse        = "release_browse"
	ActionTranslatePaths       = "translate_paths"
	ActionCall                 = "call"
	ActionRegisterNodes        = "register_nodes"
	ActionUnregisterNodes      = "unregister_nodes"
	ActionHistoryReadData      = "history_read_data"
	ActionHistoryReadEvents    = "history_read_events"
	ActionHistoryUpdateData    = "history_update_data"
	ActionDataTypes            = "data_types"
	ActionCreateSubscription   = "create_subscription"
	ActionSetPublishing        = "set_publishing"
	ActionCreateMonitoredItems = "create_monitored_items"
	ActionDeleteMonitoredItems = "delete_monitored_items"
	ActionDeleteSubscription   = "delete_subscription"

	// ActionSubscriptionStream opens the notification stream of a
	// subscription.
	ActionSubscriptionStream = "subscription_stream"
)

// Request field names.
const (
	FieldSession = "session"
	FieldRequest = "request"
)

// ConnectResponse is the data of a successful connect.
type ConnectResponse struct {
	Session  string   `cbor:"session"`
	Endpoint Endpoint `cbor:"endpoint"`
}

// SubscriptionRequest addresses one subscription of the session.
type SubscriptionRequest struct {
	SubscriptionID uint32              `cbor:"subscription_id"`
	Enabled        bool                `cbor:"enabled,omitempty"`
	Items          []MonitoredItemSpec `cbor:"items,omitempty"`
	ItemIDs        []uint32            `cbor:"item_ids,omitempty"`
}

// CreateSubscriptionResponse is the data of a successful
// create_subscription.
type CreateSubscriptionResponse struct {
	SubscriptionID            uint32 `cbor:"subscription_id"`
	RevisedPublishingInterval int64  `cbor:"revised_publishing_interval"`
}

// Stream frame types.
const (
	// FrameNotification carries one NotificationMessage.
	FrameNotification = "notification"
	// FrameClosed ends the stream: the subscription was deleted.
	FrameClosed = "closed"
	// FrameError ends the stream with Message.
	FrameError = "error"
)

// StreamFrame is one CBOR value on a subscription stream.
type StreamFrame struct {
	Type         string               `cbor:"type"`
	Notification *NotificationMessage `cbor:"notification,omitempty"`
	Message      string               `cbor:"message,omitempty"`
}
