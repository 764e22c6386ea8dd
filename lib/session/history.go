// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/bureau-foundation/uaconsole/lib/pagination"
	"github.com/bureau-foundation/uaconsole/lib/remote"
	"github.com/bureau-foundation/uaconsole/lib/ua"
)

// valuesPerNode is the page size of history reads.
const valuesPerNode = 10

// historyEventFields are the event fields a history event read selects.
var historyEventFields = []string{"Severity", "Time", "Message"}

func historyEventFilter() remote.EventFilter {
	filter := remote.EventFilter{Select: make([]remote.SimpleAttributeOperand, len(historyEventFields))}
	for i, name := range historyEventFields {
		filter.Select[i] = remote.SimpleAttributeOperand{
			TypeDefinition: ua.BaseEventType,
			Path:           name,
			Attribute:      ua.AttributeValue,
		}
	}
	return filter
}

func historyReadIDs(ids []ua.NodeID) []remote.HistoryReadValueID {
	nodes := make([]remote.HistoryReadValueID, len(ids))
	for i, id := range ids {
		nodes[i] = remote.HistoryReadValueID{NodeID: id}
	}
	return nodes
}

func pendingReadIDs(pending []pagination.Pending[ua.NodeID]) []remote.HistoryReadValueID {
	nodes := make([]remote.HistoryReadValueID, len(pending))
	for i, target := range pending {
		nodes[i] = remote.HistoryReadValueID{NodeID: target.Target, ContinuationPoint: target.Token}
	}
	return nodes
}

// reportFailed logs the targets a page reports as failed. Their output
// lines were printed with the page.
func (c *Controller) reportFailed(operation string, page pagination.Page[ua.NodeID]) {
	for _, failed := range page.Failed {
		c.logger.Warn("history target failed", "operation", operation, "node_id", failed.Target.String(), "error", failed.Err)
	}
	if len(page.Failed) > 0 {
		c.printf("%s: %d of the requested nodes failed", operation, len(page.Failed))
	}
}

func (c *Controller) historyRead(ctx context.Context) Outcome {
	nodes := c.connectedNodes()
	now := c.clock.Now()
	request := remote.HistoryReadDataRequest{
		Details: remote.RawDetails{
			StartTime:        now.Add(-nodes.historyStart),
			EndTime:          now,
			ValuesPerNode:    valuesPerNode,
			SourceTimestamps: true,
		},
		Nodes: historyReadIDs(nodes.history),
	}

	c.history.Drop()
	results, err := c.readHistoryData(ctx, request)
	if err != nil {
		return c.failed("History read", err)
	}
	page := c.history.AfterFetch(results)
	c.reportFailed("History read", page)
	return pageOutcome(page)
}

// readHistoryData issues request and prints each node's values.
func (c *Controller) readHistoryData(ctx context.Context, request remote.HistoryReadDataRequest) ([]pagination.Result[ua.NodeID], error) {
	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()
	results, err := c.service.HistoryReadData(requestCtx, request)
	if err != nil {
		return nil, err
	}

	lines := []string{"History read succeeded"}
	pageResults := make([]pagination.Result[ua.NodeID], 0, len(results))
	for i, result := range results {
		id := result.NodeID
		if i < len(request.Nodes) {
			id = request.Nodes[i].NodeID
		}
		lines = append(lines, fmt.Sprintf("Node %s", id))
		if err := result.Status.Err(); err != nil {
			lines = append(lines, fmt.Sprintf("  History read failed with %s", result.Status))
			pageResults = append(pageResults, pagination.Result[ua.NodeID]{Target: id, Err: err})
			continue
		}
		for _, value := range result.Values {
			lines = append(lines, fmt.Sprintf("  %s: %s", ua.FormatScalar(value.SourceTimestamp), value.Value))
		}
		pageResults = append(pageResults, pagination.Result[ua.NodeID]{Target: id, Token: result.ContinuationPoint})
	}
	c.print(lines...)
	return pageResults, nil
}

// historyReadNext continues every node that still has a continuation
// point. Continuations carry empty details.
func (c *Controller) historyReadNext(ctx context.Context) Outcome {
	page, err := fetchNext(ctx, c, c.history, c.historyDataPage, c.releaseHistoryData)
	if errors.Is(err, pagination.ErrNothingPending) {
		return c.aborted("No history continuation points pending.")
	}
	if err != nil {
		return c.failed("History read", err)
	}
	c.reportFailed("History read", page)
	return pageOutcome(page)
}

func (c *Controller) historyDataPage(ctx context.Context, pending []pagination.Pending[ua.NodeID]) ([]pagination.Result[ua.NodeID], error) {
	return c.readHistoryData(ctx, remote.HistoryReadDataRequest{Nodes: pendingReadIDs(pending)})
}

func (c *Controller) historyReadRelease(ctx context.Context) Outcome {
	if err := c.history.Release(ctx, c.releaseHistoryData); err != nil {
		c.logger.Warn("releasing history continuation points failed", "error", err)
		c.printf("ReleaseContinuationPoints failed: %v", err)
		return OutcomeFailed
	}
	c.print("ReleaseContinuationPoints succeeded")
	return OutcomeDone
}

func (c *Controller) releaseHistoryData(ctx context.Context, pending []pagination.Pending[ua.NodeID]) error {
	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()
	results, err := c.service.HistoryReadData(requestCtx, remote.HistoryReadDataRequest{
		Nodes:   pendingReadIDs(pending),
		Release: true,
	})
	if err != nil {
		return err
	}
	var errs []error
	for _, result := range results {
		if err := result.Status.Err(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", result.NodeID, err))
		}
	}
	return errors.Join(errs...)
}

// historyUpdate upserts the value 0.0 at the current time into every
// history node.
func (c *Controller) historyUpdate(ctx context.Context) Outcome {
	nodes := c.connectedNodes().history
	now := c.clock.Now()
	updates := make([]remote.HistoryUpdateDataRequest, len(nodes))
	for i, id := range nodes {
		updates[i] = remote.HistoryUpdateDataRequest{
			NodeID: id,
			Mode:   remote.UpdateUpsert,
			Values: []ua.DataValue{{
				Value:           ua.NewVariant(0.0),
				SourceTimestamp: now,
				ServerTimestamp: now,
			}},
		}
	}

	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()
	statuses, err := c.service.HistoryUpdateData(requestCtx, updates)
	if err != nil {
		c.logger.Warn("operation failed", "operation", "HistoryUpdate", "error", err)
		c.printf("HistoryUpdate failed: %v", err)
		return OutcomeFailed
	}
	lines := []string{"HistoryUpdate succeeded"}
	for i, status := range statuses {
		if i < len(nodes) {
			lines = append(lines, fmt.Sprintf("  %s: %s", nodes[i], status))
		}
	}
	c.print(lines...)
	return OutcomeDone
}

func (c *Controller) historyReadEvents(ctx context.Context) Outcome {
	nodes := c.connectedNodes()
	now := c.clock.Now()
	request := remote.HistoryReadEventsRequest{
		Details: remote.EventDetails{
			StartTime:     now.Add(-nodes.historyStart),
			EndTime:       now,
			EventsPerNode: valuesPerNode,
			Filter:        historyEventFilter(),
		},
		Nodes: historyReadIDs(nodes.historyNotifiers),
	}

	c.historyEvents.Drop()
	results, err := c.readHistoryEvents(ctx, request)
	if err != nil {
		return c.failed("History Read Events", err)
	}
	page := c.historyEvents.AfterFetch(results)
	c.reportFailed("History Read Events", page)
	return pageOutcome(page)
}

// readHistoryEvents issues request and prints each notifier's events.
func (c *Controller) readHistoryEvents(ctx context.Context, request remote.HistoryReadEventsRequest) ([]pagination.Result[ua.NodeID], error) {
	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()
	results, err := c.service.HistoryReadEvents(requestCtx, request)
	if err != nil {
		return nil, err
	}

	lines := []string{"History Read Events succeeded"}
	pageResults := make([]pagination.Result[ua.NodeID], 0, len(results))
	for i, result := range results {
		id := result.NodeID
		if i < len(request.Nodes) {
			id = request.Nodes[i].NodeID
		}
		lines = append(lines, id.String())
		if err := result.Status.Err(); err != nil {
			lines = append(lines, fmt.Sprintf("  History Read Events failed with %s", result.Status))
			pageResults = append(pageResults, pagination.Result[ua.NodeID]{Target: id, Err: err})
			continue
		}
		for n, event := range result.Events {
			lines = append(lines, fmt.Sprintf("  Event %d", n))
			for j, name := range historyEventFields {
				value := ua.Variant{}
				if j < len(event.Fields) {
					value = event.Fields[j]
				}
				lines = append(lines, fmt.Sprintf("    %s: %s", name, value))
			}
		}
		pageResults = append(pageResults, pagination.Result[ua.NodeID]{Target: id, Token: result.ContinuationPoint})
	}
	c.print(lines...)
	return pageResults, nil
}

func (c *Controller) historyEventsNext(ctx context.Context) Outcome {
	page, err := fetchNext(ctx, c, c.historyEvents, c.historyEventsPage, c.releaseHistoryEvents)
	if errors.Is(err, pagination.ErrNothingPending) {
		return c.aborted("No history event continuation points pending.")
	}
	if err != nil {
		return c.failed("History Read Events", err)
	}
	c.reportFailed("History Read Events", page)
	return pageOutcome(page)
}

func (c *Controller) historyEventsPage(ctx context.Context, pending []pagination.Pending[ua.NodeID]) ([]pagination.Result[ua.NodeID], error) {
	return c.readHistoryEvents(ctx, remote.HistoryReadEventsRequest{Nodes: pendingReadIDs(pending)})
}

func (c *Controller) historyEventsRelease(ctx context.Context) Outcome {
	if err := c.historyEvents.Release(ctx, c.releaseHistoryEvents); err != nil {
		c.logger.Warn("releasing history event continuation points failed", "error", err)
		c.printf("ReleaseContinuationPoints failed: %v", err)
		return OutcomeFailed
	}
	c.print("ReleaseContinuationPoints succeeded")
	return OutcomeDone
}

func (c *Controller) releaseHistoryEvents(ctx context.Context, pending []pagination.Pending[ua.NodeID]) error {
	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()
	results, err := c.service.HistoryReadEvents(requestCtx, remote.HistoryReadEventsRequest{
		Nodes:   pendingReadIDs(pending),
		Release: true,
	})
	if err != nil {
		return err
	}
	var errs []error
	for _, result := range results {
		if err := result.Status.Err(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", result.NodeID, err))
		}
	}
	return errors.Join(errs...)
}

// releaseAll releases every pending continuation point, best effort.
func (c *Controller) releaseAll(ctx context.Context) {
	if err := c.browse.Release(ctx, c.releaseBrowse); err != nil {
		c.logger.Debug("releasing browse continuation points", "error", err)
	}
	if err := c.history.Release(ctx, c.releaseHistoryData); err != nil {
		c.logger.Debug("releasing history continuation points", "error", err)
	}
	if err := c.historyEvents.Release(ctx, c.releaseHistoryEvents); err != nil {
		c.logger.Debug("releasing history event continuation points", "error", err)
	}
}
