// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package simulator

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/bureau-foundation/uaconsole/lib/codec"
	"github.com/bureau-foundation/uaconsole/lib/remote"
	"github.com/bureau-foundation/uaconsole/lib/service"
	"github.com/bureau-foundation/uaconsole/lib/ua"
)

// Security policies offered by the endpoints.
const (
	policyNone           = "http://opcfoundation.org/UA/SecurityPolicy#None"
	policyBasic256Sha256 = "http://opcfoundation.org/UA/SecurityPolicy#Basic256Sha256"
)

// streamWriteTimeout bounds each frame write on a notification stream.
// A client that stops reading loses its stream.
const streamWriteTimeout = 10 * time.Second

// request is the decoded shape of every action: the session id and
// the action's payload.
type request[T any] struct {
	Session string `cbor:"session"`
	Request T      `cbor:"request"`
}

func decodeRequest[T any](raw []byte) (request[T], error) {
	var decoded request[T]
	if err := codec.Unmarshal(raw, &decoded); err != nil {
		return decoded, fmt.Errorf("invalid request: %w", err)
	}
	return decoded, nil
}

// sessionless adapts a handler that needs no session.
func sessionless[T any](handler func(ctx context.Context, payload T) (any, error)) service.ActionFunc {
	return func(ctx context.Context, raw []byte) (any, error) {
		decoded, err := decodeRequest[T](raw)
		if err != nil {
			return nil, err
		}
		return handler(ctx, decoded.Request)
	}
}

// withSession adapts a handler that runs on an open session. Unknown
// session ids fail with BadSessionIdInvalid.
func withSession[T any](s *Server, handler func(ctx context.Context, sess *session, payload T) (any, error)) service.ActionFunc {
	return func(ctx context.Context, raw []byte) (any, error) {
		decoded, err := decodeRequest[T](raw)
		if err != nil {
			return nil, err
		}
		sess, ok := s.session(decoded.Session)
		if !ok {
			return nil, ua.StatusBadSessionIDInvalid
		}
		return handler(ctx, sess, decoded.Request)
	}
}

func (s *Server) registerActions() {
	s.socket.Handle(remote.ActionFindServers, sessionless(s.handleFindServers))
	s.socket.Handle(remote.ActionGetEndpoints, sessionless(s.handleGetEndpoints))
	s.socket.Handle(remote.ActionConnect, sessionless(s.handleConnect))
	s.socket.Handle(remote.ActionDisconnect, withSession(s, s.handleDisconnect))
	s.socket.Handle(remote.ActionChangeUser, withSession(s, s.handleChangeUser))
	s.socket.Handle(remote.ActionRead, withSession(s, s.handleRead))
	s.socket.Handle(remote.ActionWrite, withSession(s, s.handleWrite))
	s.socket.Handle(remote.ActionBrowse, withSession(s, s.handleBrowse))
	s.socket.Handle(remote.ActionBrowseNext, withSession(s, s.handleBrowseNext))
	s.socket.Handle(remote.ActionReleaseBrowse, withSession(s, s.handleReleaseBrowse))
	s.socket.Handle(remote.ActionTranslatePaths, withSession(s, s.handleTranslatePaths))
	s.socket.Handle(remote.ActionCall, withSession(s, s.handleCall))
	s.socket.Handle(remote.ActionRegisterNodes, withSession(s, s.handleRegisterNodes))
	s.socket.Handle(remote.ActionUnregisterNodes, withSession(s, s.handleUnregisterNodes))
	s.socket.Handle(remote.ActionHistoryReadData, withSession(s, s.handleHistoryReadData))
	s.socket.Handle(remote.ActionHistoryReadEvents, withSession(s, s.handleHistoryReadEvents))
	s.socket.Handle(remote.ActionHistoryUpdateData, withSession(s, s.handleHistoryUpdateData))
	s.socket.Handle(remote.ActionDataTypes, withSession(s, s.handleDataTypes))
	s.socket.Handle(remote.ActionCreateSubscription, withSession(s, s.handleCreateSubscription))
	s.socket.Handle(remote.ActionSetPublishing, withSession(s, s.handleSetPublishing))
	s.socket.Handle(remote.ActionCreateMonitoredItems, withSession(s, s.handleCreateMonitoredItems))
	s.socket.Handle(remote.ActionDeleteMonitoredItems, withSession(s, s.handleDeleteMonitoredItems))
	s.socket.Handle(remote.ActionDeleteSubscription, withSession(s, s.handleDeleteSubscription))
	s.socket.HandleStream(remote.ActionSubscriptionStream, s.handleSubscriptionStream)
}

// endpointURL is the URL clients discover the server under.
func (s *Server) endpointURL() string {
	return "unix://" + s.config.SocketPath
}

func (s *Server) endpoints() []remote.Endpoint {
	url := s.endpointURL()
	return []remote.Endpoint{
		{URL: url, SecurityPolicy: policyNone, SecurityMode: "None", SecurityLevel: 0},
		{URL: url, SecurityPolicy: policyBasic256Sha256, SecurityMode: "Sign", SecurityLevel: 1},
		{URL: url, SecurityPolicy: policyBasic256Sha256, SecurityMode: "SignAndEncrypt", SecurityLevel: 2},
	}
}

func (s *Server) handleFindServers(ctx context.Context, discoveryURL string) (any, error) {
	return []remote.ApplicationDescription{{
		ApplicationURI:  s.config.ApplicationURI,
		ApplicationName: "UaConsole Demo Server",
		DiscoveryURLs:   []string{s.endpointURL()},
	}}, nil
}

func (s *Server) handleGetEndpoints(ctx context.Context, url string) (any, error) {
	return s.endpoints(), nil
}

// selectEndpoint returns the endpoint a connect request names, or the
// one its security level picks.
func (s *Server) selectEndpoint(connect remote.ConnectRequest) (remote.Endpoint, error) {
	endpoints := s.endpoints()
	if connect.Endpoint.URL != "" {
		for _, endpoint := range endpoints {
			if endpoint == connect.Endpoint {
				return endpoint, nil
			}
		}
		return remote.Endpoint{}, fmt.Errorf("no endpoint %s %s at %s: %w",
			connect.Endpoint.SecurityPolicy, connect.Endpoint.SecurityMode, connect.Endpoint.URL, ua.StatusBadNothingToDo)
	}
	chosen := endpoints[0]
	if connect.Security == remote.SecurityBest {
		for _, endpoint := range endpoints {
			if endpoint.SecurityLevel > chosen.SecurityLevel {
				chosen = endpoint
			}
		}
	}
	return chosen, nil
}

func (s *Server) authenticate(identity remote.Identity) error {
	switch identity.Kind {
	case remote.IdentityAnonymous:
		return nil
	case remote.IdentityUserName:
		password, ok := s.config.Users[identity.UserName]
		if !ok || password != identity.Password {
			return fmt.Errorf("user %q: %w", identity.UserName, ua.StatusBadUserAccessDenied)
		}
		return nil
	default:
		return ua.StatusBadIdentityTokenRejected
	}
}

func (s *Server) handleConnect(ctx context.Context, connect remote.ConnectRequest) (any, error) {
	endpoint, err := s.selectEndpoint(connect)
	if err != nil {
		return nil, err
	}
	if err := s.authenticate(connect.Identity); err != nil {
		return nil, err
	}

	sess := newSession(endpoint, connect.Identity)
	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	s.logger.Info("session created",
		"session", sess.id,
		"security_mode", endpoint.SecurityMode,
		"identity", connect.Identity.String(),
	)
	return remote.ConnectResponse{Session: sess.id, Endpoint: endpoint}, nil
}

func (s *Server) handleDisconnect(ctx context.Context, sess *session, _ struct{}) (any, error) {
	s.mu.Lock()
	delete(s.sessions, sess.id)
	s.closeSessionLocked(sess)
	s.mu.Unlock()
	s.logger.Info("session closed", "session", sess.id)
	return nil, nil
}

func (s *Server) handleChangeUser(ctx context.Context, sess *session, identity remote.Identity) (any, error) {
	if err := s.authenticate(identity); err != nil {
		return nil, err
	}
	sess.mu.Lock()
	sess.identity = identity
	sess.mu.Unlock()
	s.logger.Info("session user changed", "session", sess.id, "identity", identity.String())
	return nil, nil
}

func (s *Server) handleRead(ctx context.Context, sess *session, nodes []remote.ReadValueID) (any, error) {
	if len(nodes) == 0 {
		return nil, ua.StatusBadNothingToDo
	}
	now := s.clock.Now()
	values := make([]ua.DataValue, len(nodes))
	for i, node := range nodes {
		node.NodeID = sess.resolve(node.NodeID)
		values[i] = s.space.read(node, now)
	}
	return values, nil
}

func (s *Server) handleWrite(ctx context.Context, sess *session, values []remote.WriteValue) (any, error) {
	if len(values) == 0 {
		return nil, ua.StatusBadNothingToDo
	}
	now := s.clock.Now()
	statuses := make([]ua.StatusCode, len(values))
	for i, value := range values {
		value.NodeID = sess.resolve(value.NodeID)
		status, recorded := s.space.write(value, now)
		statuses[i] = status
		if recorded != nil {
			s.recordValue(ctx, value.NodeID, *recorded)
		}
	}
	return statuses, nil
}

// page splits references into the page returned now and, when more
// remain, a continuation point for the rest.
func (s *Server) page(sess *session, references []remote.ReferenceDescription, pageSize uint32) remote.BrowseResult {
	if pageSize == 0 || int(pageSize) >= len(references) {
		return remote.BrowseResult{References: references}
	}
	point := sess.saveBrowse(browseCursor{remaining: references[pageSize:], pageSize: pageSize})
	if point == nil {
		return remote.BrowseResult{Status: ua.StatusBadNoContinuationPoints}
	}
	return remote.BrowseResult{References: references[:pageSize], ContinuationPoint: point}
}

func (s *Server) handleBrowse(ctx context.Context, sess *session, browse remote.BrowseRequest) (any, error) {
	browse.NodeID = sess.resolve(browse.NodeID)
	references, status := s.space.browse(browse)
	if status.IsBad() {
		return remote.BrowseResult{Status: status}, nil
	}
	return s.page(sess, references, browse.MaxReferences), nil
}

func (s *Server) handleBrowseNext(ctx context.Context, sess *session, point []byte) (any, error) {
	cursor, ok := sess.takeBrowse(point)
	if !ok {
		return remote.BrowseResult{Status: ua.StatusBadContinuationPointInvalid}, nil
	}
	return s.page(sess, cursor.remaining, cursor.pageSize), nil
}

func (s *Server) handleReleaseBrowse(ctx context.Context, sess *session, point []byte) (any, error) {
	if _, ok := sess.takeBrowse(point); !ok {
		return nil, ua.StatusBadContinuationPointInvalid
	}
	return nil, nil
}

func (s *Server) handleTranslatePaths(ctx context.Context, sess *session, paths []remote.BrowsePath) (any, error) {
	if len(paths) == 0 {
		return nil, ua.StatusBadNothingToDo
	}
	results := make([]remote.BrowsePathResult, len(paths))
	for i, path := range paths {
		path.StartNode = sess.resolve(path.StartNode)
		results[i] = s.space.translate(path)
	}
	return results, nil
}

func (s *Server) handleCall(ctx context.Context, sess *session, call remote.CallRequest) (any, error) {
	return s.call(ctx, sess, call), nil
}

func (s *Server) handleRegisterNodes(ctx context.Context, sess *session, nodes []ua.NodeID) (any, error) {
	if len(nodes) == 0 {
		return nil, ua.StatusBadNothingToDo
	}
	handles := make([]ua.NodeID, len(nodes))
	for i, id := range nodes {
		handles[i] = sess.register(id)
	}
	return handles, nil
}

func (s *Server) handleUnregisterNodes(ctx context.Context, sess *session, handles []ua.NodeID) (any, error) {
	if len(handles) == 0 {
		return nil, ua.StatusBadNothingToDo
	}
	for _, handle := range handles {
		sess.unregister(handle)
	}
	return nil, nil
}

// historyTarget resolves the node and window of one history read
// entry: a fresh query from details, or the cursor behind the entry's
// continuation point.
func (s *Server) historyTarget(sess *session, entry remote.HistoryReadValueID, fresh func(ua.NodeID) (historyCursor, ua.StatusCode)) (historyCursor, ua.StatusCode) {
	if len(entry.ContinuationPoint) > 0 {
		cursor, ok := sess.takeHistory(entry.ContinuationPoint)
		if !ok {
			return historyCursor{}, ua.StatusBadContinuationPointInvalid
		}
		return cursor, ua.StatusGood
	}
	return fresh(sess.resolve(entry.NodeID))
}

func (s *Server) handleHistoryReadData(ctx context.Context, sess *session, read remote.HistoryReadDataRequest) (any, error) {
	if len(read.Nodes) == 0 {
		return nil, ua.StatusBadNothingToDo
	}
	results := make([]remote.HistoryDataResult, len(read.Nodes))
	for i, entry := range read.Nodes {
		results[i].NodeID = entry.NodeID
		if read.Release {
			sess.takeHistory(entry.ContinuationPoint)
			continue
		}

		cursor, status := s.historyTarget(sess, entry, func(id ua.NodeID) (historyCursor, ua.StatusCode) {
			n, ok := s.space.lookup(id)
			if !ok {
				return historyCursor{}, ua.StatusBadNodeIDUnknown
			}
			if !n.historizing {
				return historyCursor{}, ua.StatusBadHistoryOperationUnsupported
			}
			details := read.Details
			return historyCursor{node: id, window: newHistoryWindow(details.StartTime, details.EndTime, details.ValuesPerNode)}, ua.StatusGood
		})
		if status.IsBad() {
			results[i].Status = status
			continue
		}
		if results[i].NodeID.IsNull() {
			results[i].NodeID = cursor.node
		}
		if cursor.filter != nil {
			results[i].Status = ua.StatusBadContinuationPointInvalid
			continue
		}

		values, next, more, err := s.history.readValues(ctx, cursor.node, cursor.window)
		if err != nil {
			s.logger.Error("history read failed", "node", cursor.node.String(), "error", err)
			results[i].Status = ua.StatusBadUnexpectedError
			continue
		}
		results[i].Values = values
		if more {
			results[i].ContinuationPoint = sess.saveHistory(historyCursor{node: cursor.node, window: next})
			if results[i].ContinuationPoint == nil {
				results[i].Status = ua.StatusBadNoContinuationPoints
			}
		}
	}
	return results, nil
}

func (s *Server) handleHistoryReadEvents(ctx context.Context, sess *session, read remote.HistoryReadEventsRequest) (any, error) {
	if len(read.Nodes) == 0 {
		return nil, ua.StatusBadNothingToDo
	}
	results := make([]remote.HistoryEventResult, len(read.Nodes))
	for i, entry := range read.Nodes {
		results[i].NodeID = entry.NodeID
		if read.Release {
			sess.takeHistory(entry.ContinuationPoint)
			continue
		}

		cursor, status := s.historyTarget(sess, entry, func(id ua.NodeID) (historyCursor, ua.StatusCode) {
			n, ok := s.space.lookup(id)
			if !ok {
				return historyCursor{}, ua.StatusBadNodeIDUnknown
			}
			if !n.eventNotifier {
				return historyCursor{}, ua.StatusBadHistoryOperationUnsupported
			}
			details := read.Details
			filter := details.Filter
			return historyCursor{
				node:   id,
				window: newHistoryWindow(details.StartTime, details.EndTime, details.EventsPerNode),
				filter: &filter,
			}, ua.StatusGood
		})
		if status.IsBad() {
			results[i].Status = status
			continue
		}
		if results[i].NodeID.IsNull() {
			results[i].NodeID = cursor.node
		}
		if cursor.filter == nil {
			results[i].Status = ua.StatusBadContinuationPointInvalid
			continue
		}

		events, next, more, err := s.history.readEvents(ctx, cursor.node, cursor.window)
		if err != nil {
			s.logger.Error("history event read failed", "node", cursor.node.String(), "error", err)
			results[i].Status = ua.StatusBadUnexpectedError
			continue
		}
		for _, e := range events {
			if !s.space.matches(e, cursor.filter.Where) {
				continue
			}
			results[i].Events = append(results[i].Events, remote.EventFieldList{
				Fields: s.space.selectFields(e, cursor.filter.Select),
			})
		}
		if more {
			results[i].ContinuationPoint = sess.saveHistory(historyCursor{node: cursor.node, window: next, filter: cursor.filter})
			if results[i].ContinuationPoint == nil {
				results[i].Status = ua.StatusBadNoContinuationPoints
			}
		}
	}
	return results, nil
}

// handleHistoryUpdateData returns one status per update: the first bad
// status among its values, or Good.
func (s *Server) handleHistoryUpdateData(ctx context.Context, sess *session, updates []remote.HistoryUpdateDataRequest) (any, error) {
	if len(updates) == 0 {
		return nil, ua.StatusBadNothingToDo
	}
	statuses := make([]ua.StatusCode, len(updates))
	for i, update := range updates {
		update.NodeID = sess.resolve(update.NodeID)
		n, ok := s.space.lookup(update.NodeID)
		if !ok {
			statuses[i] = ua.StatusBadNodeIDUnknown
			continue
		}
		if !n.historizing {
			statuses[i] = ua.StatusBadHistoryOperationUnsupported
			continue
		}
		valueStatuses, err := s.history.updateValues(ctx, update)
		if err != nil {
			s.logger.Error("history update failed", "node", update.NodeID.String(), "error", err)
			statuses[i] = ua.StatusBadUnexpectedError
			continue
		}
		for _, status := range valueStatuses {
			if status.IsBad() {
				statuses[i] = status
				break
			}
		}
	}
	return statuses, nil
}

func (s *Server) handleDataTypes(ctx context.Context, sess *session, _ struct{}) (any, error) {
	return s.dictionary, nil
}

func (s *Server) handleCreateSubscription(ctx context.Context, sess *session, options remote.SubscriptionOptions) (any, error) {
	revised := reviseOptions(options)

	s.mu.Lock()
	s.nextSubscriptionID++
	sub := &subscription{
		id:         s.nextSubscriptionID,
		session:    sess,
		options:    revised,
		server:     s,
		logger:     s.logger,
		publishing: revised.PublishingEnabled,
		items:      make(map[uint32]*monitoredItem),
		outbox:     make(chan remote.NotificationMessage, outboxSize),
		deleted:    make(chan struct{}),
	}
	runCtx := s.runCtx
	s.mu.Unlock()

	sess.mu.Lock()
	sess.subscriptions[sub.id] = sub
	sess.mu.Unlock()

	s.publishers.Go(func() { sub.run(runCtx, s.clock) })

	s.logger.Info("subscription created",
		"session", sess.id,
		"subscription", sub.id,
		"publishing_interval", revised.PublishingInterval,
	)
	return remote.CreateSubscriptionResponse{
		SubscriptionID:            sub.id,
		RevisedPublishingInterval: int64(revised.PublishingInterval),
	}, nil
}

func (s *Server) subscriptionOf(sess *session, id uint32) (*subscription, error) {
	sub, ok := sess.subscription(id)
	if !ok {
		return nil, fmt.Errorf("subscription %d: %w", id, ua.StatusBadSubscriptionIDInvalid)
	}
	return sub, nil
}

func (s *Server) handleSetPublishing(ctx context.Context, sess *session, target remote.SubscriptionRequest) (any, error) {
	sub, err := s.subscriptionOf(sess, target.SubscriptionID)
	if err != nil {
		return nil, err
	}
	sub.setPublishing(target.Enabled)
	return nil, nil
}

func (s *Server) handleCreateMonitoredItems(ctx context.Context, sess *session, target remote.SubscriptionRequest) (any, error) {
	sub, err := s.subscriptionOf(sess, target.SubscriptionID)
	if err != nil {
		return nil, err
	}
	if len(target.Items) == 0 {
		return nil, ua.StatusBadNothingToDo
	}
	return sub.createItems(target.Items), nil
}

func (s *Server) handleDeleteMonitoredItems(ctx context.Context, sess *session, target remote.SubscriptionRequest) (any, error) {
	sub, err := s.subscriptionOf(sess, target.SubscriptionID)
	if err != nil {
		return nil, err
	}
	if len(target.ItemIDs) == 0 {
		return nil, ua.StatusBadNothingToDo
	}
	return sub.deleteItems(target.ItemIDs), nil
}

func (s *Server) handleDeleteSubscription(ctx context.Context, sess *session, target remote.SubscriptionRequest) (any, error) {
	sub, err := s.subscriptionOf(sess, target.SubscriptionID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	delete(sess.subscriptions, sub.id)
	sess.mu.Unlock()
	sub.stop()
	s.logger.Info("subscription deleted", "session", sess.id, "subscription", sub.id)
	return nil, nil
}

// handleSubscriptionStream forwards a subscription's notification
// messages until it is deleted, the server shuts down, or a write
// fails. A deleted subscription ends the stream with a closed frame.
func (s *Server) handleSubscriptionStream(ctx context.Context, raw []byte, conn net.Conn) {
	encoder := codec.NewEncoder(conn)
	fail := func(err error) {
		conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
		encoder.Encode(remote.StreamFrame{Type: remote.FrameError, Message: err.Error()})
	}

	decoded, err := decodeRequest[remote.SubscriptionRequest](raw)
	if err != nil {
		fail(err)
		return
	}
	sess, ok := s.session(decoded.Session)
	if !ok {
		fail(ua.StatusBadSessionIDInvalid)
		return
	}
	sub, err := s.subscriptionOf(sess, decoded.Request.SubscriptionID)
	if err != nil {
		fail(err)
		return
	}
	if !sub.claimStream() {
		fail(errors.New("notification stream already attached"))
		return
	}

	logger := s.logger.With("session", sess.id, "subscription", sub.id)
	logger.Debug("notification stream started")
	defer logger.Debug("notification stream ended")

	for {
		select {
		case message := <-sub.outbox:
			conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
			if err := encoder.Encode(remote.StreamFrame{Type: remote.FrameNotification, Notification: &message}); err != nil {
				logger.Debug("notification stream write error", "error", err)
				return
			}
		case <-sub.deleted:
			conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
			encoder.Encode(remote.StreamFrame{Type: remote.FrameClosed})
			return
		case <-ctx.Done():
			conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
			encoder.Encode(remote.StreamFrame{Type: remote.FrameClosed})
			return
		}
	}
}
