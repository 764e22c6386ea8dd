// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/bureau-foundation/uaconsole/lib/alarm"
)

// acknowledgeComment is the comment sent with every acknowledgment.
const acknowledgeComment = "Acknowledged by console"

// enterAcknowledge lists the retained alarms for selection.
func (c *Controller) enterAcknowledge() Outcome {
	entries := c.alarms.Snapshot()
	if len(entries) == 0 {
		return c.aborted("No alarms to acknowledge.")
	}
	lines := make([]string, 0, len(entries)+1)
	lines = append(lines, "Select the alarm to acknowledge:")
	for i, entry := range entries {
		lines = append(lines, fmt.Sprintf("  %s: %s", indexKey(i), alarm.Line(i, entry)))
	}
	c.print(lines...)
	return OutcomeDone
}

func (c *Controller) acknowledge(ctx context.Context, index int) Outcome {
	entries := c.alarms.Snapshot()
	if len(entries) == 0 {
		return c.aborted("No alarms to acknowledge.")
	}
	if index < 0 || index >= len(entries) {
		return c.aborted(fmt.Sprintf("No alarm with index %d.", index))
	}
	entry := entries[index]

	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()
	err := c.alarms.Acknowledge(requestCtx, c.service, entry.ConditionID, acknowledgeComment)
	switch {
	case errors.Is(err, alarm.ErrNoAlarms), errors.Is(err, alarm.ErrUnknownCondition):
		// Cleared by a notification since the snapshot.
		return c.aborted(fmt.Sprintf("Alarm %d is no longer retained.", index))
	case err != nil:
		return c.failed("Acknowledge", err)
	}
	c.printf("Acknowledge succeeded for %s", entry.ConditionID)
	return OutcomeDone
}

func (c *Controller) acknowledgeAll(ctx context.Context) Outcome {
	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()
	err := c.alarms.AcknowledgeAll(requestCtx, c.service, acknowledgeComment)
	switch {
	case errors.Is(err, alarm.ErrNoAlarms):
		return c.aborted("No alarms to acknowledge.")
	case err != nil:
		return c.failed("Acknowledge all", err)
	}
	c.print("Acknowledge all succeeded")
	return OutcomeDone
}
