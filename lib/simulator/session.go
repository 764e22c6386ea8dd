// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package simulator

import (
	"sync"

	"github.com/google/uuid"

	"github.com/bureau-foundation/uaconsole/lib/remote"
	"github.com/bureau-foundation/uaconsole/lib/ua"
)

// maxContinuationPoints is how many browse or history continuation
// points a session may hold at once. Further paginated requests fail
// with BadNoContinuationPoints until some are consumed or released.
const maxContinuationPoints = 16

// browseCursor is the server state behind a browse continuation point.
type browseCursor struct {
	remaining []remote.ReferenceDescription
	pageSize  uint32
}

// historyCursor is the server state behind a history continuation
// point.
type historyCursor struct {
	node   ua.NodeID
	window historyWindow
	// filter is set for event reads.
	filter *remote.EventFilter
}

// session is one client session.
type session struct {
	id       string
	endpoint remote.Endpoint

	mu       sync.Mutex
	identity remote.Identity

	// registered maps handles returned by RegisterNodes to node ids.
	registered map[ua.NodeID]ua.NodeID

	browsePoints  map[string]browseCursor
	historyPoints map[string]historyCursor

	subscriptions map[uint32]*subscription
}

func newSession(endpoint remote.Endpoint, identity remote.Identity) *session {
	return &session{
		id:            uuid.NewString(),
		endpoint:      endpoint,
		identity:      identity,
		registered:    make(map[ua.NodeID]ua.NodeID),
		browsePoints:  make(map[string]browseCursor),
		historyPoints: make(map[string]historyCursor),
		subscriptions: make(map[uint32]*subscription),
	}
}

// resolve maps a registered handle back to its node id. Other ids
// pass through.
func (s *session) resolve(id ua.NodeID) ua.NodeID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if original, ok := s.registered[id]; ok {
		return original
	}
	return id
}

func (s *session) register(id ua.NodeID) ua.NodeID {
	s.mu.Lock()
	defer s.mu.Unlock()
	handle := ua.NodeID{Namespace: id.Namespace, Type: ua.IdentifierGUID, Text: uuid.NewString()}
	s.registered[handle] = id
	return handle
}

func (s *session) unregister(handle ua.NodeID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.registered, handle)
}

// continuationPointsLocked is the number of points the session holds.
func (s *session) continuationPointsLocked() int {
	return len(s.browsePoints) + len(s.historyPoints)
}

// saveBrowse stores the references not yet returned and returns their
// continuation point, or nil when the session holds too many.
func (s *session) saveBrowse(cursor browseCursor) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.continuationPointsLocked() >= maxContinuationPoints {
		return nil
	}
	point := uuid.New()
	s.browsePoints[string(point[:])] = cursor
	return point[:]
}

// takeBrowse removes and returns the cursor behind point.
func (s *session) takeBrowse(point []byte) (browseCursor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cursor, ok := s.browsePoints[string(point)]
	delete(s.browsePoints, string(point))
	return cursor, ok
}

func (s *session) saveHistory(cursor historyCursor) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.continuationPointsLocked() >= maxContinuationPoints {
		return nil
	}
	point := uuid.New()
	s.historyPoints[string(point[:])] = cursor
	return point[:]
}

func (s *session) takeHistory(point []byte) (historyCursor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cursor, ok := s.historyPoints[string(point)]
	delete(s.historyPoints, string(point))
	return cursor, ok
}

func (s *session) subscription(id uint32) (*subscription, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subscriptions[id]
	return sub, ok
}

// allSubscriptions returns a snapshot of the session's subscriptions.
func (s *session) allSubscriptions() []*subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	subs := make([]*subscription, 0, len(s.subscriptions))
	for _, sub := range s.subscriptions {
		subs = append(subs, sub)
	}
	return subs
}
