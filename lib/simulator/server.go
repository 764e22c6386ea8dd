// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package simulator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bureau-foundation/uaconsole/lib/clock"
	"github.com/bureau-foundation/uaconsole/lib/service"
	"github.com/bureau-foundation/uaconsole/lib/ua"
)

// Config holds the parameters of a demo server. SocketPath and
// HistoryPath are required.
type Config struct {
	// SocketPath is the Unix socket the server listens on.
	SocketPath string

	// HistoryPath is the SQLite database holding value and event
	// history. It is created and seeded on first use.
	HistoryPath string

	// Clock drives the simulation, the publish loops, and all
	// timestamps. Defaults to the real clock.
	Clock clock.Clock

	// Logger defaults to a discarding logger.
	Logger *slog.Logger

	// ApplicationURI defaults to NamespaceSimulator.
	ApplicationURI string

	// SimulationInterval is the period of the value and alarm
	// simulation. Zero means one second; a negative interval disables
	// the simulation.
	SimulationInterval time.Duration

	// Users maps user names to passwords. Nil means the single demo
	// user john with password master.
	Users map[string]string
}

// defaultUsers are the accounts of the demo server.
var defaultUsers = map[string]string{"john": "master"}

// Server is the demo server: an in-memory address space with a SQLite
// history store, served over the socket protocol.
type Server struct {
	config  Config
	clock   clock.Clock
	logger  *slog.Logger
	space   *addressSpace
	history *historyStore
	socket  *service.SocketServer

	eventIDs   eventIDSource
	dictionary []ua.StructureDefinition

	mu                 sync.Mutex
	sessions           map[string]*session
	conditions         map[ua.NodeID]*condition
	conditionOrder     []ua.NodeID
	nextSubscriptionID uint32
	tick               uint64

	// runCtx is the context of Serve. Publish loops started by
	// create_subscription run under it.
	runCtx     context.Context
	publishers sync.WaitGroup
}

// New builds the demo address space, opens (and on first use seeds)
// the history store, and registers the socket actions. The server does
// not listen until Serve is called.
func New(config Config) (*Server, error) {
	var errs []error
	if config.SocketPath == "" {
		errs = append(errs, errors.New("SocketPath is required"))
	}
	if config.HistoryPath == "" {
		errs = append(errs, errors.New("HistoryPath is required"))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("simulator: invalid config: %w", err)
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	if config.ApplicationURI == "" {
		config.ApplicationURI = NamespaceSimulator
	}
	if config.SimulationInterval == 0 {
		config.SimulationInterval = time.Second
	}
	if config.Users == nil {
		config.Users = defaultUsers
	}

	history, err := openHistory(config.HistoryPath, config.Logger)
	if err != nil {
		return nil, fmt.Errorf("simulator: %w", err)
	}

	now := config.Clock.Now()
	s := &Server{
		config:     config,
		clock:      config.Clock,
		logger:     config.Logger,
		space:      newAddressSpace(),
		history:    history,
		socket:     service.NewSocketServer(config.SocketPath, config.Logger),
		dictionary: []ua.StructureDefinition{workOrderType, workOrderStatusType},
		sessions:   make(map[string]*session),
		conditions: make(map[ua.NodeID]*condition),
		runCtx:     context.Background(),
	}
	buildStandard(s.space, Namespaces)
	buildDemo(s.space, now)
	s.bindMethods()
	s.createConditions(now)

	if err := s.seedHistory(context.Background(), now); err != nil {
		history.Close()
		return nil, fmt.Errorf("simulator: seeding history: %w", err)
	}

	s.registerActions()
	return s, nil
}

// Serve listens on the socket and runs the simulation until ctx is
// cancelled. All sessions are closed before Serve returns.
func (s *Server) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	s.runCtx = ctx
	s.mu.Unlock()

	var simulation sync.WaitGroup
	if s.config.SimulationInterval > 0 {
		simulation.Go(func() { s.simulate(ctx) })
	}

	s.logger.Info("demo server starting",
		"socket", s.config.SocketPath,
		"history", s.config.HistoryPath,
		"application_uri", s.config.ApplicationURI,
	)
	err := s.socket.Serve(ctx)
	cancel()

	s.mu.Lock()
	for id, sess := range s.sessions {
		s.closeSessionLocked(sess)
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	simulation.Wait()
	s.publishers.Wait()
	return err
}

// Close releases the history store. Call it after Serve returns.
func (s *Server) Close() error {
	return s.history.Close()
}

// SocketPath returns the socket the server listens on.
func (s *Server) SocketPath() string {
	return s.config.SocketPath
}

func (s *Server) session(id string) (*session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// closeSessionLocked stops every subscription of sess.
func (s *Server) closeSessionLocked(sess *session) {
	for _, sub := range sess.allSubscriptions() {
		sub.stop()
	}
}

// emitEvent delivers e to every subscription and records it for each
// historizing notifier.
func (s *Server) emitEvent(ctx context.Context, e event) {
	s.mu.Lock()
	var subs []*subscription
	for _, sess := range s.sessions {
		subs = append(subs, sess.allSubscriptions()...)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub.deliverEvent(e)
	}
	for _, notifier := range e.notifiers {
		if notifier != DemoNotifierWithHistory {
			continue
		}
		if err := s.history.recordEvent(ctx, notifier, e); err != nil {
			s.logger.Warn("recording event failed", "notifier", notifier.String(), "error", err)
		}
	}
}

// recordValue stores a historizing variable's new value.
func (s *Server) recordValue(ctx context.Context, id ua.NodeID, value ua.DataValue) {
	if err := s.history.recordValue(ctx, id, value); err != nil {
		s.logger.Warn("recording history value failed", "node", id.String(), "error", err)
	}
}

// historySeeds is the number of seeded values per historizing
// variable. The counts differ so paginated reads across several nodes
// finish on different rounds.
var historySeeds = []struct {
	node  ua.NodeID
	count int
	value func(i int) any
}{
	{DemoHistoryByte, 120, func(i int) any { return byte(i % 256) }},
	{DemoHistoryDouble, 120, func(i int) any { return float64(i) * 0.5 }},
	{DemoHistorian1, 60, func(i int) any { return float64(i) * 1.5 }},
	{DemoHistorian2, 30, func(i int) any { return float64(100 - i) }},
}

// historyEventSeeds is the number of seeded notifier events.
const historyEventSeeds = 25

// seedHistory fills an empty history store with one value per second
// up to now and a series of notifier events.
func (s *Server) seedHistory(ctx context.Context, now time.Time) error {
	empty, err := s.history.empty(ctx)
	if err != nil || !empty {
		return err
	}
	for _, seed := range historySeeds {
		for i := range seed.count {
			at := now.Add(-time.Duration(seed.count-i) * time.Second)
			value := ua.DataValue{Value: ua.NewVariant(seed.value(i)), SourceTimestamp: at, ServerTimestamp: at}
			if err := s.history.recordValue(ctx, seed.node, value); err != nil {
				return err
			}
		}
	}
	for i := range historyEventSeeds {
		at := now.Add(-time.Duration(historyEventSeeds-i) * 10 * time.Second)
		e := s.notifierEvent(at, i)
		if err := s.history.recordEvent(ctx, DemoNotifierWithHistory, e); err != nil {
			return err
		}
	}
	s.logger.Debug("history seeded", "nodes", len(historySeeds), "events", historyEventSeeds)
	return nil
}

// notifierEvent is the n-th event of the history notifier.
func (s *Server) notifierEvent(at time.Time, n int) event {
	const sourceName = "NotifierWithHistory"
	severity := uint16(100 + (n%9)*100)
	return event{
		eventType: DemoEventType,
		notifiers: []ua.NodeID{DemoNotifierWithHistory, ua.ServerObject},
		time:      at,
		fields: map[string]ua.Variant{
			pathEventID:     ua.NewVariant(s.eventIDs.next(sourceName, at)),
			pathEventType:   ua.NewVariant(DemoEventType),
			pathMessage:     ua.NewVariant(ua.LocalizedText{Locale: "en", Text: fmt.Sprintf("Sample event %d", n)}),
			pathSeverity:    ua.NewVariant(severity),
			pathSourceName:  ua.NewVariant(sourceName),
			pathSourceNode:  ua.NewVariant(DemoNotifierWithHistory),
			pathTime:        ua.NewVariant(at),
			pathReceiveTime: ua.NewVariant(at),
		},
	}
}
