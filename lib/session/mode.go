// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

// Mode is the state of the interaction loop. Exactly one mode is
// current at any time.
type Mode int

const (
	ModeDisconnected Mode = iota

	// ModeDiscovery, ModeServersFound and ModeEndpointsFound are the
	// sub-modes of endpoint discovery.
	ModeDiscovery
	ModeServersFound
	ModeEndpointsFound

	ModeConnected

	// ModeBrowsingMore, ModeHistoryReadMore and ModeHistoryEventsMore
	// hold continuation points of an unfinished paginated request.
	ModeBrowsingMore
	ModeHistoryReadMore
	ModeHistoryEventsMore

	ModeAcknowledgingAlarms

	// ModeShutdown is terminal.
	ModeShutdown
)

var modeNames = [...]string{
	ModeDisconnected:        "disconnected",
	ModeDiscovery:           "discovery",
	ModeServersFound:        "servers-found",
	ModeEndpointsFound:      "endpoints-found",
	ModeConnected:           "connected",
	ModeBrowsingMore:        "browsing-more",
	ModeHistoryReadMore:     "history-read-more",
	ModeHistoryEventsMore:   "history-events-more",
	ModeAcknowledgingAlarms: "acknowledging-alarms",
	ModeShutdown:            "shutdown",
}

func (mode Mode) String() string {
	if mode >= 0 && int(mode) < len(modeNames) {
		return modeNames[mode]
	}
	return "unknown"
}

// Discovering reports whether mode is one of the discovery sub-modes.
func (mode Mode) Discovering() bool {
	return mode == ModeDiscovery || mode == ModeServersFound || mode == ModeEndpointsFound
}

// Action is what a trigger asks for. Its meaning depends on the mode:
// ActionSelect picks a server, an endpoint, or an alarm.
type Action int

const (
	ActionNone Action = iota
	ActionEscape
	ActionShutdown
	ActionSelect

	// Disconnected.
	ActionUseAnonymous
	ActionUseUserName
	ActionConnect
	ActionConnectSecure
	ActionStartDiscovery

	// Discovery.
	ActionFindServers
	ActionGetEndpoints

	// Connected.
	ActionDisconnect
	ActionRead
	ActionReadAsync
	ActionReadIndexRange
	ActionWrite
	ActionWriteAsync
	ActionWriteIndexRange
	ActionWriteStructure
	ActionBrowse
	ActionBrowseAsync
	ActionTranslate
	ActionCall
	ActionRegister
	ActionRegisterAsync
	ActionUnregister
	ActionHistoryRead
	ActionHistoryUpdate
	ActionHistoryEvents
	ActionCreateSubscription
	ActionModifySubscription
	ActionDeleteSubscription
	ActionAddMonitoredItems
	ActionAddDeadbandItems
	ActionAddEventItems
	ActionDeleteMonitoredItems
	ActionSubscribeAlarms
	ActionAcknowledgeAlarms
	ActionChangeUser

	// Paginated modes.
	ActionFetchNext
	ActionRelease

	// Acknowledging alarms.
	ActionAcknowledgeAll
)

// Trigger is one input to the state machine. Index is the selected
// position for ActionSelect and ignored otherwise.
type Trigger struct {
	Action Action
	Index  int
}

// Press returns a trigger without an index.
func Press(action Action) Trigger {
	return Trigger{Action: action}
}

// Select returns the trigger that picks the i-th listed entry.
func Select(i int) Trigger {
	return Trigger{Action: ActionSelect, Index: i}
}

// IndexFromKey maps '0'..'9' to 0..9 and 'a'..'z' to 10..35. Any other
// key is -1.
func IndexFromKey(key string) int {
	if len(key) != 1 {
		return -1
	}
	switch c := key[0]; {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'z':
		return int(c-'a') + 10
	}
	return -1
}

// MenuItem is one line of a mode's menu.
type MenuItem struct {
	Key    string
	Label  string
	Action Action
}

var (
	disconnectedMenu = []MenuItem{
		{"a", "Use anonymous user identity", ActionUseAnonymous},
		{"b", "Use username/password identity", ActionUseUserName},
		{"0", "Connect without security", ActionConnect},
		{"1", "Connect with best security", ActionConnectSecure},
		{"2", "Start discovery", ActionStartDiscovery},
		{"x", "Shutdown", ActionShutdown},
	}
	discoveryMenu = []MenuItem{
		{"0", "Find servers", ActionFindServers},
		{"1", "Get endpoints", ActionGetEndpoints},
		{"esc", "Back", ActionEscape},
	}
	serversFoundMenu = []MenuItem{
		{"0-z", "Get endpoints of the listed discovery URL", ActionSelect},
		{"esc", "Back", ActionEscape},
	}
	endpointsFoundMenu = []MenuItem{
		{"0-z", "Connect to the listed endpoint", ActionSelect},
		{"esc", "Back", ActionEscape},
	}
	connectedMenu = []MenuItem{
		{"0", "Disconnect", ActionDisconnect},
		{"1", "Read", ActionRead},
		{"2", "Read async", ActionReadAsync},
		{"3", "Read with index range", ActionReadIndexRange},
		{"4", "Write", ActionWrite},
		{"5", "Write async", ActionWriteAsync},
		{"6", "Write with index range", ActionWriteIndexRange},
		{"7", "Write structure", ActionWriteStructure},
		{"8", "Browse", ActionBrowse},
		{"9", "Browse async", ActionBrowseAsync},
		{"a", "Translate browse path", ActionTranslate},
		{"b", "Call method", ActionCall},
		{"c", "Register nodes", ActionRegister},
		{"d", "Register nodes async", ActionRegisterAsync},
		{"e", "Unregister nodes", ActionUnregister},
		{"f", "History read raw", ActionHistoryRead},
		{"g", "History update", ActionHistoryUpdate},
		{"h", "History read events", ActionHistoryEvents},
		{"i", "Create subscription", ActionCreateSubscription},
		{"j", "Modify subscription", ActionModifySubscription},
		{"k", "Delete subscription", ActionDeleteSubscription},
		{"l", "Add monitored items", ActionAddMonitoredItems},
		{"m", "Add monitored items with deadband and queue size", ActionAddDeadbandItems},
		{"n", "Add event monitored items", ActionAddEventItems},
		{"o", "Delete monitored items", ActionDeleteMonitoredItems},
		{"p", "Subscribe for alarms", ActionSubscribeAlarms},
		{"q", "Acknowledge alarms", ActionAcknowledgeAlarms},
		{"s", "Change user", ActionChangeUser},
	}
	continuationMenu = []MenuItem{
		{"0", "Next", ActionFetchNext},
		{"1", "Release continuation point", ActionRelease},
	}
	acknowledgeMenu = []MenuItem{
		{"0-z", "Acknowledge the listed alarm", ActionSelect},
		{"a", "Acknowledge all", ActionAcknowledgeAll},
		{"esc", "Back", ActionEscape},
	}
)

// Menu returns the menu of mode. The slice is shared and must not be
// modified.
func Menu(mode Mode) []MenuItem {
	switch mode {
	case ModeDisconnected:
		return disconnectedMenu
	case ModeDiscovery:
		return discoveryMenu
	case ModeServersFound:
		return serversFoundMenu
	case ModeEndpointsFound:
		return endpointsFoundMenu
	case ModeConnected:
		return connectedMenu
	case ModeBrowsingMore, ModeHistoryReadMore, ModeHistoryEventsMore:
		return continuationMenu
	case ModeAcknowledgingAlarms:
		return acknowledgeMenu
	}
	return nil
}

// ParseKey maps a key press to the trigger it means in mode. Keys are
// named the way terminal key events print them: "a", "0", "esc",
// "ctrl+c". Unmapped keys yield ActionNone.
//
// In the servers-found, endpoints-found and acknowledging modes, index
// keys become ActionSelect; whether the index is in range is decided
// when the trigger is handled.
func ParseKey(mode Mode, key string) Trigger {
	if key == "ctrl+c" && mode != ModeShutdown {
		return Press(ActionShutdown)
	}
	for _, item := range Menu(mode) {
		if item.Key == key {
			return Press(item.Action)
		}
	}
	switch mode {
	case ModeServersFound, ModeEndpointsFound, ModeAcknowledgingAlarms:
		if index := IndexFromKey(key); index >= 0 {
			return Select(index)
		}
	}
	return Press(ActionNone)
}
