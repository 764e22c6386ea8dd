// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/bureau-foundation/uaconsole/lib/service"
	"github.com/bureau-foundation/uaconsole/lib/ua"
)

// Client implements Service over the socket protocol. The zero session
// id means no session is open; session calls then fail locally with
// ua.StatusBadServerNotConnected.
type Client struct {
	socket *service.ServiceClient
	logger *slog.Logger

	mu      sync.Mutex
	session string
}

// NewClient returns a client for the server listening on socketPath.
func NewClient(socketPath string, logger *slog.Logger) *Client {
	return &Client{
		socket: service.NewServiceClient(socketPath),
		logger: logger,
	}
}

// Session returns the id of the open session, or "".
func (c *Client) Session() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// call issues a session-less request.
func (c *Client) call(ctx context.Context, action string, request, result any) error {
	var fields map[string]any
	if request != nil {
		fields = map[string]any{FieldRequest: request}
	}
	return statusError(c.socket.Call(ctx, action, fields, result))
}

// sessionCall issues a request on the open session.
func (c *Client) sessionCall(ctx context.Context, action string, request, result any) error {
	session := c.Session()
	if session == "" {
		return fmt.Errorf("%s: %w", action, ua.StatusBadServerNotConnected)
	}
	fields := map[string]any{FieldSession: session}
	if request != nil {
		fields[FieldRequest] = request
	}
	return statusError(c.socket.Call(ctx, action, fields, result))
}

// statusError restores the status code of a server-side failure so
// callers can match it with errors.Is. The server reports a status as
// the last ": "-separated element of the error message.
func statusError(err error) error {
	var serviceErr *service.ServiceError
	if !errors.As(err, &serviceErr) {
		return err
	}
	name := serviceErr.Message
	if i := strings.LastIndex(name, ": "); i >= 0 {
		name = name[i+2:]
	}
	if status, ok := ua.StatusByName(name); ok {
		return fmt.Errorf("%w: %w", serviceErr, status)
	}
	return err
}

func (c *Client) FindServers(ctx context.Context, discoveryURL string) ([]ApplicationDescription, error) {
	var servers []ApplicationDescription
	if err := c.call(ctx, ActionFindServers, discoveryURL, &servers); err != nil {
		return nil, err
	}
	return servers, nil
}

func (c *Client) GetEndpoints(ctx context.Context, url string) ([]Endpoint, error) {
	var endpoints []Endpoint
	if err := c.call(ctx, ActionGetEndpoints, url, &endpoints); err != nil {
		return nil, err
	}
	return endpoints, nil
}

// Connect opens a session. An open session is closed first; a failure
// to close it is logged and does not stop the connect.
func (c *Client) Connect(ctx context.Context, request ConnectRequest) error {
	if c.Session() != "" {
		if err := c.Disconnect(ctx); err != nil {
			c.logger.Warn("closing previous session failed", "error", err)
		}
	}

	var response ConnectResponse
	if err := c.call(ctx, ActionConnect, request, &response); err != nil {
		return err
	}
	if response.Session == "" {
		return errors.New("connect: server returned no session id")
	}

	c.mu.Lock()
	c.session = response.Session
	c.mu.Unlock()

	c.logger.Info("session opened",
		"session", response.Session,
		"endpoint", response.Endpoint.URL,
		"security_mode", response.Endpoint.SecurityMode,
		"identity", request.Identity.String(),
	)
	return nil
}

// Disconnect closes the session. The local session id is forgotten
// even when the server call fails.
func (c *Client) Disconnect(ctx context.Context) error {
	err := c.sessionCall(ctx, ActionDisconnect, nil, nil)
	c.mu.Lock()
	c.session = ""
	c.mu.Unlock()
	return err
}

func (c *Client) ChangeUser(ctx context.Context, identity Identity) error {
	return c.sessionCall(ctx, ActionChangeUser, identity, nil)
}

func (c *Client) Read(ctx context.Context, nodes []ReadValueID) ([]ua.DataValue, error) {
	var values []ua.DataValue
	if err := c.sessionCall(ctx, ActionRead, nodes, &values); err != nil {
		return nil, err
	}
	return values, nil
}

func (c *Client) Write(ctx context.Context, values []WriteValue) ([]ua.StatusCode, error) {
	var statuses []ua.StatusCode
	if err := c.sessionCall(ctx, ActionWrite, values, &statuses); err != nil {
		return nil, err
	}
	return statuses, nil
}

func (c *Client) Browse(ctx context.Context, request BrowseRequest) (BrowseResult, error) {
	var result BrowseResult
	err := c.sessionCall(ctx, ActionBrowse, request, &result)
	return result, err
}

func (c *Client) BrowseNext(ctx context.Context, continuationPoint []byte) (BrowseResult, error) {
	var result BrowseResult
	err := c.sessionCall(ctx, ActionBrowseNext, continuationPoint, &result)
	return result, err
}

func (c *Client) ReleaseBrowse(ctx context.Context, continuationPoint []byte) error {
	return c.sessionCall(ctx, ActionReleaseBrowse, continuationPoint, nil)
}

func (c *Client) TranslatePaths(ctx context.Context, paths []BrowsePath) ([]BrowsePathResult, error) {
	var results []BrowsePathResult
	if err := c.sessionCall(ctx, ActionTranslatePaths, paths, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *Client) Call(ctx context.Context, request CallRequest) (CallResult, error) {
	var result CallResult
	err := c.sessionCall(ctx, ActionCall, request, &result)
	return result, err
}

func (c *Client) RegisterNodes(ctx context.Context, nodes []ua.NodeID) ([]ua.NodeID, error) {
	var handles []ua.NodeID
	if err := c.sessionCall(ctx, ActionRegisterNodes, nodes, &handles); err != nil {
		return nil, err
	}
	return handles, nil
}

func (c *Client) UnregisterNodes(ctx context.Context, nodes []ua.NodeID) error {
	return c.sessionCall(ctx, ActionUnregisterNodes, nodes, nil)
}

func (c *Client) HistoryReadData(ctx context.Context, request HistoryReadDataRequest) ([]HistoryDataResult, error) {
	var results []HistoryDataResult
	if err := c.sessionCall(ctx, ActionHistoryReadData, request, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *Client) HistoryReadEvents(ctx context.Context, request HistoryReadEventsRequest) ([]HistoryEventResult, error) {
	var results []HistoryEventResult
	if err := c.sessionCall(ctx, ActionHistoryReadEvents, request, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *Client) HistoryUpdateData(ctx context.Context, updates []HistoryUpdateDataRequest) ([]ua.StatusCode, error) {
	var statuses []ua.StatusCode
	if err := c.sessionCall(ctx, ActionHistoryUpdateData, updates, &statuses); err != nil {
		return nil, err
	}
	return statuses, nil
}

func (c *Client) DataTypes(ctx context.Context) ([]ua.StructureDefinition, error) {
	var definitions []ua.StructureDefinition
	if err := c.sessionCall(ctx, ActionDataTypes, nil, &definitions); err != nil {
		return nil, err
	}
	return definitions, nil
}

// CreateSubscription creates the subscription and opens its
// notification stream. If the stream cannot be opened the subscription
// is deleted again.
func (c *Client) CreateSubscription(ctx context.Context, options SubscriptionOptions, handler NotificationHandler) (Subscription, error) {
	var response CreateSubscriptionResponse
	if err := c.sessionCall(ctx, ActionCreateSubscription, options, &response); err != nil {
		return nil, err
	}

	subscription := &clientSubscription{
		client: c,
		id:     response.SubscriptionID,
		done:   make(chan struct{}),
	}

	stream, err := c.socket.Stream(ctx, ActionSubscriptionStream, map[string]any{
		FieldSession: c.Session(),
		FieldRequest: SubscriptionRequest{SubscriptionID: subscription.id},
	})
	if err != nil {
		if deleteErr := subscription.deleteRemote(ctx); deleteErr != nil {
			c.logger.Warn("deleting orphaned subscription failed",
				"subscription", subscription.id,
				"error", deleteErr,
			)
		}
		return nil, fmt.Errorf("opening notification stream: %w", err)
	}
	subscription.stream = stream

	go subscription.deliver(handler)
	return subscription, nil
}

// clientSubscription is a Subscription backed by a notification stream.
type clientSubscription struct {
	client *Client
	id     uint32
	stream *service.Stream

	// done is closed when the delivery goroutine exits.
	done chan struct{}
}

func (s *clientSubscription) ID() uint32 { return s.id }

func (s *clientSubscription) SetPublishingEnabled(ctx context.Context, enabled bool) error {
	return s.client.sessionCall(ctx, ActionSetPublishing, SubscriptionRequest{
		SubscriptionID: s.id,
		Enabled:        enabled,
	}, nil)
}

func (s *clientSubscription) CreateMonitoredItems(ctx context.Context, items []MonitoredItemSpec) ([]MonitoredItemResult, error) {
	var results []MonitoredItemResult
	err := s.client.sessionCall(ctx, ActionCreateMonitoredItems, SubscriptionRequest{
		SubscriptionID: s.id,
		Items:          items,
	}, &results)
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (s *clientSubscription) DeleteMonitoredItems(ctx context.Context, monitoredItemIDs []uint32) ([]ua.StatusCode, error) {
	var statuses []ua.StatusCode
	err := s.client.sessionCall(ctx, ActionDeleteMonitoredItems, SubscriptionRequest{
		SubscriptionID: s.id,
		ItemIDs:        monitoredItemIDs,
	}, &statuses)
	if err != nil {
		return nil, err
	}
	return statuses, nil
}

// Delete deletes the subscription on the server, closes the stream,
// and waits for the delivery goroutine. It must not be called from a
// NotificationHandler method.
func (s *clientSubscription) Delete(ctx context.Context) error {
	err := s.deleteRemote(ctx)
	s.stream.Close()
	<-s.done
	return err
}

func (s *clientSubscription) deleteRemote(ctx context.Context) error {
	return s.client.sessionCall(ctx, ActionDeleteSubscription, SubscriptionRequest{SubscriptionID: s.id}, nil)
}

// deliver decodes frames until the stream ends.
func (s *clientSubscription) deliver(handler NotificationHandler) {
	defer close(s.done)
	logger := s.client.logger.With("subscription", s.id)
	for {
		var frame StreamFrame
		if err := s.stream.Decode(&frame); err != nil {
			if !errors.Is(err, io.EOF) {
				logger.Debug("notification stream ended", "error", err)
			}
			return
		}
		switch frame.Type {
		case FrameNotification:
			if frame.Notification == nil {
				logger.Warn("notification frame without message")
				continue
			}
			Dispatch(handler, *frame.Notification)
		case FrameClosed:
			logger.Debug("subscription closed by server")
			return
		case FrameError:
			logger.Warn("notification stream failed", "error", frame.Message)
			return
		default:
			logger.Warn("unknown notification frame", "type", frame.Type)
		}
	}
}

var _ Service = (*Client)(nil)
