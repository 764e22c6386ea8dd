// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/bureau-foundation/uaconsole/lib/alarm"
	"github.com/bureau-foundation/uaconsole/lib/clock"
	"github.com/bureau-foundation/uaconsole/lib/config"
	"github.com/bureau-foundation/uaconsole/lib/pagination"
	"github.com/bureau-foundation/uaconsole/lib/remote"
	"github.com/bureau-foundation/uaconsole/lib/ua"
)

// Config holds the collaborators of a Controller.
type Config struct {
	// Service is the remote server.
	Service remote.Service

	// Settings names the nodes and parameters of the operations.
	Settings *config.Config

	// Output receives the console output: operation results and
	// notifications. Writes are serialized.
	Output io.Writer

	Logger *slog.Logger

	// Clock defaults to the real clock.
	Clock clock.Clock

	// Changed, when set, is called after a notification or an
	// asynchronous completion changed the controller's state or output.
	// It is called from goroutines other than the one calling Handle
	// and must not block.
	Changed func()
}

// Controller runs the interaction loop against a remote service.
//
// Handle calls are serialized: one trigger completes before the next is
// accepted. All methods are safe for concurrent use.
type Controller struct {
	service  remote.Service
	settings *config.Config
	logger   *slog.Logger
	clock    clock.Clock
	changed  func()
	timeout  time.Duration

	// configured are the node ids relative to the settings' namespace
	// table. A connect remaps them into nodes.
	configured nodeSet

	alarms        *alarm.Cache
	browse        *pagination.Pager[ua.NodeID]
	history       *pagination.Pager[ua.NodeID]
	historyEvents *pagination.Pager[ua.NodeID]

	outputMu sync.Mutex
	output   io.Writer

	// serial serializes Handle calls and the asynchronous completions
	// that change the mode.
	serial sync.Mutex

	// async tracks goroutines of asynchronous operations; launch holds
	// the ones the current Handle call starts once the mode is set.
	async  sync.WaitGroup
	launch []func()

	mu sync.Mutex

	mode Mode

	// generation counts sessions. Asynchronous completions carry the
	// generation they started in and are discarded when it changed or
	// the session is no longer active.
	generation uint64
	active     bool

	identity      remote.Identity
	discoveryURLs []string
	endpoints     []remote.Endpoint
	nodes         nodeSet
	dictionary    ua.Dictionary
	registered    []ua.NodeID

	subscription remote.Subscription
	publishing   bool
	items        map[uint32]*monitoredItem
	nextHandle   uint32
}

// New returns a Controller in ModeDisconnected with an anonymous
// identity.
func New(cfg Config) (*Controller, error) {
	if cfg.Service == nil {
		return nil, errors.New("session: Service is required")
	}
	if cfg.Settings == nil {
		return nil, errors.New("session: Settings is required")
	}
	nodes, err := parseNodes(cfg.Settings)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	output := cfg.Output
	if output == nil {
		output = io.Discard
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.Real()
	}
	changed := cfg.Changed
	if changed == nil {
		changed = func() {}
	}

	return &Controller{
		service:       cfg.Service,
		settings:      cfg.Settings,
		logger:        logger,
		clock:         clk,
		changed:       changed,
		timeout:       config.Duration(cfg.Settings.Connection.Timeout),
		configured:    nodes,
		nodes:         nodes,
		alarms:        alarm.New(),
		browse:        pagination.New[ua.NodeID](),
		history:       pagination.New[ua.NodeID](),
		historyEvents: pagination.New[ua.NodeID](),
		output:        output,
		mode:          ModeDisconnected,
		items:         make(map[uint32]*monitoredItem),
	}, nil
}

// Mode returns the current mode.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Alarms returns a snapshot of the retained alarm conditions.
func (c *Controller) Alarms() []alarm.Entry {
	return c.alarms.Snapshot()
}

// AlarmsChanged reports whether the retained set changed since the
// last call.
func (c *Controller) AlarmsChanged() bool {
	return c.alarms.TakeDirty()
}

// Identity returns the user identity the next connect uses.
func (c *Controller) Identity() remote.Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identity
}

// HandleKey handles the trigger key means in the current mode.
func (c *Controller) HandleKey(ctx context.Context, key string) Mode {
	return c.Handle(ctx, ParseKey(c.Mode(), key))
}

// Handle applies trigger to the current mode, executes the effect, and
// returns the mode that follows. Failures are reported on the output
// and never returned.
func (c *Controller) Handle(ctx context.Context, trigger Trigger) Mode {
	c.serial.Lock()
	defer c.serial.Unlock()

	from := c.Mode()
	next, effect := Transition(from, trigger)
	if effect.Operation != OpNone {
		outcome := c.execute(ctx, effect)
		next = effect.Resolve(outcome)
		c.logger.Debug("operation finished",
			"operation", effect.Operation.String(),
			"outcome", outcome.String(),
			"from", from.String(),
			"to", next.String(),
		)
	}

	c.mu.Lock()
	c.mode = next
	c.mu.Unlock()

	for _, start := range c.launch {
		c.async.Go(start)
	}
	c.launch = nil
	return next
}

// Wait blocks until every asynchronous operation has completed.
func (c *Controller) Wait() {
	c.async.Wait()
}

func (c *Controller) execute(ctx context.Context, effect Effect) Outcome {
	switch effect.Operation {
	case OpShutdown:
		return c.shutdown(ctx)
	case OpUseAnonymous:
		return c.useAnonymous()
	case OpUseUserName:
		return c.useUserName()
	case OpConnect:
		return c.connect(ctx, remote.SecurityNone)
	case OpConnectSecure:
		return c.connect(ctx, remote.SecurityBest)
	case OpFindServers:
		return c.findServers(ctx)
	case OpGetEndpoints:
		return c.getEndpoints(ctx, c.settings.Connection.DiscoveryURL)
	case OpGetEndpointsAt:
		return c.getEndpointsAt(ctx, effect.Index)
	case OpConnectEndpoint:
		return c.connectEndpoint(ctx, effect.Index)
	case OpDisconnect:
		return c.disconnect(ctx)
	case OpChangeUser:
		return c.changeUser(ctx)
	case OpRead:
		return c.read(ctx)
	case OpReadAsync:
		return c.readAsync(ctx)
	case OpReadIndexRange:
		return c.readIndexRange(ctx)
	case OpWrite:
		return c.write(ctx)
	case OpWriteAsync:
		return c.writeAsync(ctx)
	case OpWriteIndexRange:
		return c.writeIndexRange(ctx)
	case OpWriteStructure:
		return c.writeStructure(ctx)
	case OpBrowse:
		return c.browseFirst(ctx)
	case OpBrowseAsync:
		return c.browseAsync(ctx)
	case OpBrowseNext:
		return c.browseNext(ctx)
	case OpBrowseRelease:
		return c.browseRelease(ctx)
	case OpTranslate:
		return c.translate(ctx)
	case OpCall:
		return c.call(ctx)
	case OpRegister:
		return c.register(ctx)
	case OpRegisterAsync:
		return c.registerAsync(ctx)
	case OpUnregister:
		return c.unregister(ctx)
	case OpHistoryRead:
		return c.historyRead(ctx)
	case OpHistoryReadNext:
		return c.historyReadNext(ctx)
	case OpHistoryReadRelease:
		return c.historyReadRelease(ctx)
	case OpHistoryUpdate:
		return c.historyUpdate(ctx)
	case OpHistoryEvents:
		return c.historyReadEvents(ctx)
	case OpHistoryEventsNext:
		return c.historyEventsNext(ctx)
	case OpHistoryEventsRelease:
		return c.historyEventsRelease(ctx)
	case OpCreateSubscription:
		return c.createSubscription(ctx)
	case OpModifySubscription:
		return c.modifySubscription(ctx)
	case OpDeleteSubscription:
		return c.deleteSubscription(ctx)
	case OpAddMonitoredItems:
		return c.addMonitoredItems(ctx, false)
	case OpAddDeadbandItems:
		return c.addMonitoredItems(ctx, true)
	case OpAddEventItems:
		return c.addEventItems(ctx)
	case OpDeleteMonitoredItems:
		return c.deleteMonitoredItems(ctx)
	case OpSubscribeAlarms:
		return c.subscribeAlarms(ctx)
	case OpEnterAcknowledge:
		return c.enterAcknowledge()
	case OpAcknowledge:
		return c.acknowledge(ctx, effect.Index)
	case OpAcknowledgeAll:
		return c.acknowledgeAll(ctx)
	}
	c.logger.Error("operation has no implementation", "operation", effect.Operation.String())
	return OutcomeRejected
}

// requestContext bounds one remote request by the configured timeout.
func (c *Controller) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// startAsync schedules run on its own goroutine once Handle has set the
// mode. run receives a context that outlives the Handle call and the
// session generation current at scheduling time.
func (c *Controller) startAsync(ctx context.Context, run func(ctx context.Context, generation uint64)) {
	detached := context.WithoutCancel(ctx)
	c.mu.Lock()
	generation := c.generation
	c.mu.Unlock()
	c.launch = append(c.launch, func() {
		run(detached, generation)
		c.changed()
	})
}

// currentLocked reports whether generation is the open session. The
// caller holds c.mu.
func (c *Controller) currentLocked(generation uint64) bool {
	return c.active && c.generation == generation
}

func (c *Controller) current(generation uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentLocked(generation)
}

// print writes lines to the output as one unit.
func (c *Controller) print(lines ...string) {
	c.outputMu.Lock()
	defer c.outputMu.Unlock()
	if _, err := io.WriteString(c.output, strings.Join(lines, "\n")+"\n"); err != nil {
		c.logger.Warn("writing console output failed", "error", err)
	}
}

func (c *Controller) printf(format string, args ...any) {
	c.print(fmt.Sprintf(format, args...))
}

// failed reports a remote failure of operation and returns
// OutcomeFailed.
func (c *Controller) failed(operation string, err error) Outcome {
	c.logger.Warn("operation failed", "operation", operation, "error", err)
	c.printf("%s failed with message %v", operation, err)
	return OutcomeFailed
}

// aborted reports a local precondition violation and returns
// OutcomeRejected.
func (c *Controller) aborted(reason string) Outcome {
	c.logger.Info("operation aborted", "reason", reason)
	c.printf("Aborted by client. %s", reason)
	return OutcomeRejected
}

// connectedNodes returns the remapped node ids of the open session.
func (c *Controller) connectedNodes() nodeSet {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nodes
}
