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

// maxReferences is the page size requested from the server.
const maxReferences = 100

func (c *Controller) browseRequest() remote.BrowseRequest {
	return remote.BrowseRequest{
		NodeID:          c.connectedNodes().browse,
		Direction:       remote.BrowseBoth,
		ReferenceType:   ua.ReferencesType,
		IncludeSubtypes: true,
		MaxReferences:   maxReferences,
	}
}

func (c *Controller) browseFirst(ctx context.Context) Outcome {
	request := c.browseRequest()
	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()
	result, err := c.service.Browse(requestCtx, request)
	if err == nil {
		err = result.Status.Err()
	}
	if err != nil {
		c.browse.Drop()
		return c.failed("Browse", err)
	}
	c.print(browseReport("Browse", result)...)
	return pageOutcome(c.browse.AfterFetch(browseResults(request.NodeID, result)))
}

// browseAsync browses on its own goroutine. When the result carries a
// continuation point and the machine is still connected to the same
// session, the completion moves it to ModeBrowsingMore; otherwise the
// continuation point is released.
func (c *Controller) browseAsync(ctx context.Context) Outcome {
	request := c.browseRequest()
	c.startAsync(ctx, func(ctx context.Context, generation uint64) {
		requestCtx, cancel := c.requestContext(ctx)
		defer cancel()
		result, err := c.service.Browse(requestCtx, request)
		if err == nil {
			err = result.Status.Err()
		}

		c.serial.Lock()
		defer c.serial.Unlock()
		if !c.current(generation) {
			c.logger.Debug("discarding browse completion of a closed session")
			return
		}
		if err != nil {
			c.failed("Browse async", err)
			return
		}
		c.print(browseReport("Browse async", result)...)
		if len(result.ContinuationPoint) == 0 {
			return
		}
		if c.Mode() != ModeConnected {
			c.print("Browse async continuation point released: another operation is in progress")
			if err := c.service.ReleaseBrowse(requestCtx, result.ContinuationPoint); err != nil {
				c.logger.Warn("releasing browse continuation point failed", "error", err)
			}
			return
		}
		if c.browse.AfterFetch(browseResults(request.NodeID, result)).State == pagination.StateMore {
			c.mu.Lock()
			c.mode = ModeBrowsingMore
			c.mu.Unlock()
		}
	})
	c.print("Browse async started")
	return OutcomeDone
}

func (c *Controller) browseNext(ctx context.Context) Outcome {
	page, err := fetchNext(ctx, c, c.browse, c.browseNextPage, c.releaseBrowse)
	if errors.Is(err, pagination.ErrNothingPending) {
		return c.aborted("No browse continuation point pending.")
	}
	if err != nil {
		return c.failed("BrowseNext", err)
	}
	return pageOutcome(page)
}

func (c *Controller) browseNextPage(ctx context.Context, pending []pagination.Pending[ua.NodeID]) ([]pagination.Result[ua.NodeID], error) {
	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()
	target := pending[0]
	result, err := c.service.BrowseNext(requestCtx, target.Token)
	if err == nil {
		err = result.Status.Err()
	}
	if err != nil {
		return nil, err
	}
	c.print(browseReport("BrowseNext", result)...)
	return browseResults(target.Target, result), nil
}

func (c *Controller) browseRelease(ctx context.Context) Outcome {
	if err := c.browse.Release(ctx, c.releaseBrowse); err != nil {
		return c.failed("ReleaseBrowseContinuationPoint", err)
	}
	c.print("ReleaseBrowseContinuationPoint succeeded")
	return OutcomeDone
}

func (c *Controller) releaseBrowse(ctx context.Context, pending []pagination.Pending[ua.NodeID]) error {
	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()
	var errs []error
	for _, target := range pending {
		errs = append(errs, c.service.ReleaseBrowse(requestCtx, target.Token))
	}
	return errors.Join(errs...)
}

func browseResults(id ua.NodeID, result remote.BrowseResult) []pagination.Result[ua.NodeID] {
	return []pagination.Result[ua.NodeID]{{Target: id, Token: result.ContinuationPoint}}
}

func browseReport(operation string, result remote.BrowseResult) []string {
	lines := []string{operation + " succeeded"}
	for i, reference := range result.References {
		lines = append(lines, fmt.Sprintf("%d:  %s", i, reference.NodeID))
	}
	return lines
}

// pageOutcome maps a page to the outcome the machine resolves.
func pageOutcome[K comparable](page pagination.Page[K]) Outcome {
	if page.State == pagination.StateMore {
		return OutcomeMore
	}
	return OutcomeDone
}

// fetchNext fetches the next page. When the fetch fails, the tokens the
// pager dropped are released on the server, best effort.
func fetchNext[K comparable](ctx context.Context, c *Controller, pager *pagination.Pager[K], fetch pagination.FetchFunc[K], release pagination.ReleaseFunc[K]) (pagination.Page[K], error) {
	pending := pager.Pending()
	page, err := pager.FetchNext(ctx, fetch)
	if err != nil && len(pending) > 0 {
		if releaseErr := release(ctx, pending); releaseErr != nil {
			c.logger.Debug("releasing continuation points after a failed fetch", "error", releaseErr)
		}
	}
	return page, err
}
