// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package alarm

import "fmt"

// Line formats the i-th entry of an alarm list.
func Line(i int, entry Entry) string {
	return fmt.Sprintf("Alarm %d: %s - %s - %s - %s - %s - %s",
		i,
		entry.Field(FieldEventID),
		ackedText(entry),
		entry.Field(FieldTime),
		entry.Field(FieldSeverity),
		entry.Field(FieldSourceName),
		entry.Field(FieldMessage),
	)
}

// ackedText prefers the server's display text for the acked state and
// falls back to the boolean id.
func ackedText(entry Entry) string {
	if state := entry.Field(FieldAckedState); !state.IsNull() {
		if text := state.String(); text != "" {
			return text
		}
	}
	if acked, ok := entry.Field(FieldAckedStateID).Bool(); ok {
		if acked {
			return "Acknowledged"
		}
		return "Unacknowledged"
	}
	return "(null)"
}
