// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

// Operation is the work an Effect asks the Controller to do.
type Operation int

const (
	OpNone Operation = iota
	OpShutdown
	OpUseAnonymous
	OpUseUserName
	OpConnect
	OpConnectSecure
	OpFindServers
	OpGetEndpoints
	OpGetEndpointsAt
	OpConnectEndpoint
	OpDisconnect
	OpChangeUser
	OpRead
	OpReadAsync
	OpReadIndexRange
	OpWrite
	OpWriteAsync
	OpWriteIndexRange
	OpWriteStructure
	OpBrowse
	OpBrowseAsync
	OpBrowseNext
	OpBrowseRelease
	OpTranslate
	OpCall
	OpRegister
	OpRegisterAsync
	OpUnregister
	OpHistoryRead
	OpHistoryReadNext
	OpHistoryReadRelease
	OpHistoryUpdate
	OpHistoryEvents
	OpHistoryEventsNext
	OpHistoryEventsRelease
	OpCreateSubscription
	OpModifySubscription
	OpDeleteSubscription
	OpAddMonitoredItems
	OpAddDeadbandItems
	OpAddEventItems
	OpDeleteMonitoredItems
	OpSubscribeAlarms
	OpEnterAcknowledge
	OpAcknowledge
	OpAcknowledgeAll
)

var operationNames = [...]string{
	OpNone:                 "none",
	OpShutdown:             "shutdown",
	OpUseAnonymous:         "use-anonymous",
	OpUseUserName:          "use-username",
	OpConnect:              "connect",
	OpConnectSecure:        "connect-secure",
	OpFindServers:          "find-servers",
	OpGetEndpoints:         "get-endpoints",
	OpGetEndpointsAt:       "get-endpoints-at",
	OpConnectEndpoint:      "connect-endpoint",
	OpDisconnect:           "disconnect",
	OpChangeUser:           "change-user",
	OpRead:                 "read",
	OpReadAsync:            "read-async",
	OpReadIndexRange:       "read-index-range",
	OpWrite:                "write",
	OpWriteAsync:           "write-async",
	OpWriteIndexRange:      "write-index-range",
	OpWriteStructure:       "write-structure",
	OpBrowse:               "browse",
	OpBrowseAsync:          "browse-async",
	OpBrowseNext:           "browse-next",
	OpBrowseRelease:        "browse-release",
	OpTranslate:            "translate",
	OpCall:                 "call",
	OpRegister:             "register",
	OpRegisterAsync:        "register-async",
	OpUnregister:           "unregister",
	OpHistoryRead:          "history-read",
	OpHistoryReadNext:      "history-read-next",
	OpHistoryReadRelease:   "history-read-release",
	OpHistoryUpdate:        "history-update",
	OpHistoryEvents:        "history-events",
	OpHistoryEventsNext:    "history-events-next",
	OpHistoryEventsRelease: "history-events-release",
	OpCreateSubscription:   "create-subscription",
	OpModifySubscription:   "modify-subscription",
	OpDeleteSubscription:   "delete-subscription",
	OpAddMonitoredItems:    "add-monitored-items",
	OpAddDeadbandItems:     "add-deadband-items",
	OpAddEventItems:        "add-event-items",
	OpDeleteMonitoredItems: "delete-monitored-items",
	OpSubscribeAlarms:      "subscribe-alarms",
	OpEnterAcknowledge:     "enter-acknowledge",
	OpAcknowledge:          "acknowledge",
	OpAcknowledgeAll:       "acknowledge-all",
}

func (op Operation) String() string {
	if op >= 0 && int(op) < len(operationNames) {
		return operationNames[op]
	}
	return "unknown"
}

// Outcome is how an operation ended.
type Outcome int

const (
	// OutcomeDone means the operation completed with nothing pending.
	OutcomeDone Outcome = iota

	// OutcomeMore means a paginated operation holds continuation
	// points.
	OutcomeMore

	// OutcomeFailed means the remote side failed. The failure was
	// reported; no continuation points are held.
	OutcomeFailed

	// OutcomeRejected means a local precondition did not hold and no
	// remote call was made.
	OutcomeRejected
)

func (outcome Outcome) String() string {
	switch outcome {
	case OutcomeDone:
		return "done"
	case OutcomeMore:
		return "more"
	case OutcomeFailed:
		return "failed"
	case OutcomeRejected:
		return "rejected"
	}
	return "unknown"
}

// Effect is the operation a transition runs and the successor mode for
// each outcome of it.
type Effect struct {
	Operation Operation

	// Index is the trigger's index, for operations that select a
	// listed entry.
	Index int

	// From is the mode the transition started in. A rejected
	// operation returns to it.
	From Mode

	Done   Mode
	More   Mode
	Failed Mode
}

// Resolve returns the mode that follows outcome.
func (effect Effect) Resolve(outcome Outcome) Mode {
	switch outcome {
	case OutcomeMore:
		return effect.More
	case OutcomeFailed:
		return effect.Failed
	case OutcomeRejected:
		return effect.From
	}
	return effect.Done
}

// edge is one row of the transition table.
type edge struct {
	operation Operation
	done      Mode
	more      Mode
	failed    Mode
}

// to is an edge whose every outcome leads to done.
func to(operation Operation, done Mode) edge {
	return edge{operation: operation, done: done, more: done, failed: done}
}

// paginated is an edge that stays in more while continuation points
// remain and falls back to done otherwise.
func paginated(operation Operation, done, more Mode) edge {
	return edge{operation: operation, done: done, more: more, failed: done}
}

func (e edge) onFailure(failed Mode) edge {
	e.failed = failed
	return e
}

// connectedEdges are the operations of the connected mode. Every one
// returns to connected except those that open a paginated mode or the
// acknowledgment menu.
var connectedEdges = map[Action]edge{
	ActionDisconnect:           to(OpDisconnect, ModeDisconnected).onFailure(ModeConnected),
	ActionChangeUser:           to(OpChangeUser, ModeConnected),
	ActionRead:                 to(OpRead, ModeConnected),
	ActionReadAsync:            to(OpReadAsync, ModeConnected),
	ActionReadIndexRange:       to(OpReadIndexRange, ModeConnected),
	ActionWrite:                to(OpWrite, ModeConnected),
	ActionWriteAsync:           to(OpWriteAsync, ModeConnected),
	ActionWriteIndexRange:      to(OpWriteIndexRange, ModeConnected),
	ActionWriteStructure:       to(OpWriteStructure, ModeConnected),
	ActionBrowse:               paginated(OpBrowse, ModeConnected, ModeBrowsingMore),
	ActionBrowseAsync:          to(OpBrowseAsync, ModeConnected),
	ActionTranslate:            to(OpTranslate, ModeConnected),
	ActionCall:                 to(OpCall, ModeConnected),
	ActionRegister:             to(OpRegister, ModeConnected),
	ActionRegisterAsync:        to(OpRegisterAsync, ModeConnected),
	ActionUnregister:           to(OpUnregister, ModeConnected),
	ActionHistoryRead:          paginated(OpHistoryRead, ModeConnected, ModeHistoryReadMore),
	ActionHistoryUpdate:        to(OpHistoryUpdate, ModeConnected),
	ActionHistoryEvents:        paginated(OpHistoryEvents, ModeConnected, ModeHistoryEventsMore),
	ActionCreateSubscription:   to(OpCreateSubscription, ModeConnected),
	ActionModifySubscription:   to(OpModifySubscription, ModeConnected),
	ActionDeleteSubscription:   to(OpDeleteSubscription, ModeConnected),
	ActionAddMonitoredItems:    to(OpAddMonitoredItems, ModeConnected),
	ActionAddDeadbandItems:     to(OpAddDeadbandItems, ModeConnected),
	ActionAddEventItems:        to(OpAddEventItems, ModeConnected),
	ActionDeleteMonitoredItems: to(OpDeleteMonitoredItems, ModeConnected),
	ActionSubscribeAlarms:      to(OpSubscribeAlarms, ModeConnected),
	ActionAcknowledgeAlarms:    to(OpEnterAcknowledge, ModeAcknowledgingAlarms).onFailure(ModeConnected),
}

var transitions = map[Mode]map[Action]edge{
	ModeDisconnected: {
		ActionUseAnonymous:   to(OpUseAnonymous, ModeDisconnected),
		ActionUseUserName:    to(OpUseUserName, ModeDisconnected),
		ActionConnect:        to(OpConnect, ModeConnected).onFailure(ModeDisconnected),
		ActionConnectSecure:  to(OpConnectSecure, ModeConnected).onFailure(ModeDisconnected),
		ActionStartDiscovery: to(OpNone, ModeDiscovery),
	},
	ModeDiscovery: {
		ActionEscape:       to(OpNone, ModeDisconnected),
		ActionFindServers:  to(OpFindServers, ModeServersFound).onFailure(ModeDiscovery),
		ActionGetEndpoints: to(OpGetEndpoints, ModeEndpointsFound).onFailure(ModeDiscovery),
	},
	ModeServersFound: {
		ActionEscape: to(OpNone, ModeDisconnected),
		ActionSelect: to(OpGetEndpointsAt, ModeEndpointsFound).onFailure(ModeServersFound),
	},
	ModeEndpointsFound: {
		ActionEscape: to(OpNone, ModeDisconnected),
		ActionSelect: to(OpConnectEndpoint, ModeConnected).onFailure(ModeDisconnected),
	},
	ModeConnected: connectedEdges,
	ModeBrowsingMore: {
		ActionFetchNext: paginated(OpBrowseNext, ModeConnected, ModeBrowsingMore),
		ActionRelease:   to(OpBrowseRelease, ModeConnected),
	},
	ModeHistoryReadMore: {
		ActionFetchNext: paginated(OpHistoryReadNext, ModeConnected, ModeHistoryReadMore),
		ActionRelease:   to(OpHistoryReadRelease, ModeConnected),
	},
	ModeHistoryEventsMore: {
		ActionFetchNext: paginated(OpHistoryEventsNext, ModeConnected, ModeHistoryEventsMore),
		ActionRelease:   to(OpHistoryEventsRelease, ModeConnected),
	},
	ModeAcknowledgingAlarms: {
		ActionEscape:         to(OpNone, ModeConnected),
		ActionSelect:         to(OpAcknowledge, ModeAcknowledgingAlarms),
		ActionAcknowledgeAll: to(OpAcknowledgeAll, ModeAcknowledgingAlarms),
	},
}

// Transition returns the successor of mode on plain completion of
// trigger, and the effect to execute. A trigger the mode does not
// recognize yields mode itself and an effect with OpNone. Shutdown is
// recognized in every mode but ModeShutdown.
func Transition(mode Mode, trigger Trigger) (Mode, Effect) {
	e, ok := transitions[mode][trigger.Action]
	if !ok && trigger.Action == ActionShutdown && mode != ModeShutdown {
		e, ok = to(OpShutdown, ModeShutdown), true
	}
	if !ok {
		e = to(OpNone, mode)
	}
	effect := Effect{
		Operation: e.operation,
		Index:     trigger.Index,
		From:      mode,
		Done:      e.done,
		More:      e.more,
		Failed:    e.failed,
	}
	return effect.Done, effect
}
