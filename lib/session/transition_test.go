// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import "testing"

func TestTransition(t *testing.T) {
	tests := []struct {
		name      string
		mode      Mode
		trigger   Trigger
		operation Operation
		done      Mode
		more      Mode
		failed    Mode
	}{
		{"connect", ModeDisconnected, Press(ActionConnect), OpConnect, ModeConnected, ModeConnected, ModeDisconnected},
		{"start discovery", ModeDisconnected, Press(ActionStartDiscovery), OpNone, ModeDiscovery, ModeDiscovery, ModeDiscovery},
		{"find servers", ModeDiscovery, Press(ActionFindServers), OpFindServers, ModeServersFound, ModeServersFound, ModeDiscovery},
		{"get endpoints", ModeDiscovery, Press(ActionGetEndpoints), OpGetEndpoints, ModeEndpointsFound, ModeEndpointsFound, ModeDiscovery},
		{"leave discovery", ModeDiscovery, Press(ActionEscape), OpNone, ModeDisconnected, ModeDisconnected, ModeDisconnected},
		{"select server", ModeServersFound, Select(3), OpGetEndpointsAt, ModeEndpointsFound, ModeEndpointsFound, ModeServersFound},
		{"select endpoint", ModeEndpointsFound, Select(0), OpConnectEndpoint, ModeConnected, ModeConnected, ModeDisconnected},
		{"disconnect", ModeConnected, Press(ActionDisconnect), OpDisconnect, ModeDisconnected, ModeDisconnected, ModeConnected},
		{"browse", ModeConnected, Press(ActionBrowse), OpBrowse, ModeConnected, ModeBrowsingMore, ModeConnected},
		{"browse next", ModeBrowsingMore, Press(ActionFetchNext), OpBrowseNext, ModeConnected, ModeBrowsingMore, ModeConnected},
		{"browse release", ModeBrowsingMore, Press(ActionRelease), OpBrowseRelease, ModeConnected, ModeConnected, ModeConnected},
		{"history read", ModeConnected, Press(ActionHistoryRead), OpHistoryRead, ModeConnected, ModeHistoryReadMore, ModeConnected},
		{"history next", ModeHistoryReadMore, Press(ActionFetchNext), OpHistoryReadNext, ModeConnected, ModeHistoryReadMore, ModeConnected},
		{"history events", ModeConnected, Press(ActionHistoryEvents), OpHistoryEvents, ModeConnected, ModeHistoryEventsMore, ModeConnected},
		{"history events release", ModeHistoryEventsMore, Press(ActionRelease), OpHistoryEventsRelease, ModeConnected, ModeConnected, ModeConnected},
		{"enter acknowledge", ModeConnected, Press(ActionAcknowledgeAlarms), OpEnterAcknowledge, ModeAcknowledgingAlarms, ModeAcknowledgingAlarms, ModeConnected},
		{"acknowledge one", ModeAcknowledgingAlarms, Select(1), OpAcknowledge, ModeAcknowledgingAlarms, ModeAcknowledgingAlarms, ModeAcknowledgingAlarms},
		{"acknowledge all", ModeAcknowledgingAlarms, Press(ActionAcknowledgeAll), OpAcknowledgeAll, ModeAcknowledgingAlarms, ModeAcknowledgingAlarms, ModeAcknowledgingAlarms},
		{"leave acknowledge", ModeAcknowledgingAlarms, Press(ActionEscape), OpNone, ModeConnected, ModeConnected, ModeConnected},
		{"shutdown while paging", ModeHistoryReadMore, Press(ActionShutdown), OpShutdown, ModeShutdown, ModeShutdown, ModeShutdown},
		{"shutdown while discovering", ModeServersFound, Press(ActionShutdown), OpShutdown, ModeShutdown, ModeShutdown, ModeShutdown},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			next, effect := Transition(test.mode, test.trigger)
			if effect.Operation != test.operation {
				t.Errorf("operation = %s, want %s", effect.Operation, test.operation)
			}
			if next != test.done {
				t.Errorf("next = %s, want %s", next, test.done)
			}
			if got := effect.Resolve(OutcomeDone); got != test.done {
				t.Errorf("done resolves to %s, want %s", got, test.done)
			}
			if got := effect.Resolve(OutcomeMore); got != test.more {
				t.Errorf("more resolves to %s, want %s", got, test.more)
			}
			if got := effect.Resolve(OutcomeFailed); got != test.failed {
				t.Errorf("failed resolves to %s, want %s", got, test.failed)
			}
			if got := effect.Resolve(OutcomeRejected); got != test.mode {
				t.Errorf("rejected resolves to %s, want %s", got, test.mode)
			}
			if effect.Index != test.trigger.Index {
				t.Errorf("index = %d, want %d", effect.Index, test.trigger.Index)
			}
		})
	}
}

func TestTransitionUnrecognizedTriggerIsIdentity(t *testing.T) {
	modes := []Mode{
		ModeDisconnected, ModeDiscovery, ModeServersFound, ModeEndpointsFound,
		ModeConnected, ModeBrowsingMore, ModeHistoryReadMore, ModeHistoryEventsMore,
		ModeAcknowledgingAlarms, ModeShutdown,
	}
	triggers := []Trigger{Press(ActionNone), Press(ActionRead), Press(ActionFetchNext), Press(ActionConnect)}
	for _, mode := range modes {
		for _, trigger := range triggers {
			if _, known := transitions[mode][trigger.Action]; known {
				continue
			}
			next, effect := Transition(mode, trigger)
			if next != mode || effect.Operation != OpNone {
				t.Errorf("Transition(%s, %d) = %s/%s, want %s/none", mode, trigger.Action, next, effect.Operation, mode)
			}
		}
	}

	next, effect := Transition(ModeShutdown, Press(ActionShutdown))
	if next != ModeShutdown || effect.Operation != OpNone {
		t.Errorf("shutdown in ModeShutdown = %s/%s, want shutdown/none", next, effect.Operation)
	}
}

func TestEveryMenuActionHasATransition(t *testing.T) {
	for mode := ModeDisconnected; mode < ModeShutdown; mode++ {
		for _, item := range Menu(mode) {
			if item.Action == ActionShutdown {
				continue
			}
			if _, ok := transitions[mode][item.Action]; !ok {
				t.Errorf("menu item %q of %s has no transition", item.Key, mode)
			}
		}
	}
}

func TestIndexFromKey(t *testing.T) {
	tests := []struct {
		key  string
		want int
	}{
		{"0", 0},
		{"9", 9},
		{"a", 10},
		{"z", 35},
		{"A", -1},
		{"esc", -1},
		{"", -1},
		{"-", -1},
	}
	for _, test := range tests {
		if got := IndexFromKey(test.key); got != test.want {
			t.Errorf("IndexFromKey(%q) = %d, want %d", test.key, got, test.want)
		}
		if test.want >= 0 && indexKey(test.want) != test.key {
			t.Errorf("indexKey(%d) = %q, want %q", test.want, indexKey(test.want), test.key)
		}
	}
}

func TestParseKey(t *testing.T) {
	tests := []struct {
		name string
		mode Mode
		key  string
		want Trigger
	}{
		{"connected menu key", ModeConnected, "8", Press(ActionBrowse)},
		{"connected letter key", ModeConnected, "q", Press(ActionAcknowledgeAlarms)},
		{"unmapped key", ModeConnected, "r", Press(ActionNone)},
		{"ctrl+c anywhere", ModeEndpointsFound, "ctrl+c", Press(ActionShutdown)},
		{"ctrl+c after shutdown", ModeShutdown, "ctrl+c", Press(ActionNone)},
		{"server index", ModeServersFound, "c", Select(12)},
		{"endpoint index", ModeEndpointsFound, "0", Select(0)},
		{"menu key wins over index", ModeAcknowledgingAlarms, "a", Press(ActionAcknowledgeAll)},
		{"alarm index", ModeAcknowledgingAlarms, "b", Select(11)},
		{"escape", ModeAcknowledgingAlarms, "esc", Press(ActionEscape)},
		{"continuation next", ModeBrowsingMore, "0", Press(ActionFetchNext)},
		{"no index outside selection", ModeBrowsingMore, "5", Press(ActionNone)},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := ParseKey(test.mode, test.key); got != test.want {
				t.Errorf("ParseKey(%s, %q) = %+v, want %+v", test.mode, test.key, got, test.want)
			}
		})
	}
}
