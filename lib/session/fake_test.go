// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/bureau-foundation/uaconsole/lib/config"
	"github.com/bureau-foundation/uaconsole/lib/remote"
	"github.com/bureau-foundation/uaconsole/lib/ua"
)

const demoNamespace = "http://www.unifiedautomation.com/DemoServer/"

// fakeService is a scripted remote.Service. Hooks that are nil answer
// with a plain success.
type fakeService struct {
	mu sync.Mutex

	// namespaces is the server's namespace array.
	namespaces []string

	calls []string

	disconnectErr error
	readFunc      func(ctx context.Context, nodes []remote.ReadValueID) ([]ua.DataValue, error)
	reads         [][]remote.ReadValueID

	// browsePages answers Browse and BrowseNext in order.
	browsePages   []remote.BrowseResult
	browseNexts   [][]byte
	releasedPages [][]byte

	historyFunc     func(request remote.HistoryReadDataRequest) ([]remote.HistoryDataResult, error)
	historyRequests []remote.HistoryReadDataRequest
	updates         []remote.HistoryUpdateDataRequest

	callRequests []remote.CallRequest
	registered   []ua.NodeID

	subscriptions []*fakeSubscription
}

func newFakeService() *fakeService {
	return &fakeService{
		namespaces: []string{ua.NamespaceStandard, "urn:uaconsole:other", demoNamespace},
	}
}

func (f *fakeService) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeService) callCount(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, recorded := range f.calls {
		if recorded == call {
			count++
		}
	}
	return count
}

func (f *fakeService) FindServers(_ context.Context, discoveryURL string) ([]remote.ApplicationDescription, error) {
	f.record("FindServers")
	return []remote.ApplicationDescription{{
		ApplicationName: "Demo",
		DiscoveryURLs:   []string{discoveryURL, "opc.tcp://backup:4840"},
	}}, nil
}

func (f *fakeService) GetEndpoints(_ context.Context, url string) ([]remote.Endpoint, error) {
	f.record("GetEndpoints")
	return []remote.Endpoint{{URL: url, SecurityPolicy: "None", SecurityMode: "None"}}, nil
}

func (f *fakeService) Connect(context.Context, remote.ConnectRequest) error {
	f.record("Connect")
	return nil
}

func (f *fakeService) Disconnect(context.Context) error {
	f.record("Disconnect")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.disconnectErr
}

func (f *fakeService) ChangeUser(context.Context, remote.Identity) error {
	f.record("ChangeUser")
	return nil
}

func (f *fakeService) Read(ctx context.Context, nodes []remote.ReadValueID) ([]ua.DataValue, error) {
	if len(nodes) == 1 && nodes[0].NodeID == ua.ServerNamespaceArray {
		f.mu.Lock()
		defer f.mu.Unlock()
		return []ua.DataValue{{Value: ua.NewVariant(append([]string(nil), f.namespaces...))}}, nil
	}
	f.record("Read")
	f.mu.Lock()
	f.reads = append(f.reads, nodes)
	readFunc := f.readFunc
	f.mu.Unlock()
	if readFunc != nil {
		return readFunc(ctx, nodes)
	}
	values := make([]ua.DataValue, len(nodes))
	for i := range values {
		values[i] = ua.DataValue{Value: ua.NewVariant(1.5)}
	}
	return values, nil
}

func (f *fakeService) Write(_ context.Context, values []remote.WriteValue) ([]ua.StatusCode, error) {
	f.record("Write")
	return make([]ua.StatusCode, len(values)), nil
}

func (f *fakeService) nextBrowsePage() (remote.BrowseResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.browsePages) == 0 {
		return remote.BrowseResult{}, errors.New("no browse page scripted")
	}
	page := f.browsePages[0]
	f.browsePages = f.browsePages[1:]
	return page, nil
}

func (f *fakeService) Browse(context.Context, remote.BrowseRequest) (remote.BrowseResult, error) {
	f.record("Browse")
	return f.nextBrowsePage()
}

func (f *fakeService) BrowseNext(_ context.Context, continuationPoint []byte) (remote.BrowseResult, error) {
	f.record("BrowseNext")
	f.mu.Lock()
	f.browseNexts = append(f.browseNexts, continuationPoint)
	f.mu.Unlock()
	return f.nextBrowsePage()
}

func (f *fakeService) ReleaseBrowse(_ context.Context, continuationPoint []byte) error {
	f.record("ReleaseBrowse")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.releasedPages = append(f.releasedPages, continuationPoint)
	return nil
}

func (f *fakeService) TranslatePaths(_ context.Context, paths []remote.BrowsePath) ([]remote.BrowsePathResult, error) {
	f.record("TranslatePaths")
	return make([]remote.BrowsePathResult, len(paths)), nil
}

func (f *fakeService) Call(_ context.Context, request remote.CallRequest) (remote.CallResult, error) {
	f.record("Call")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callRequests = append(f.callRequests, request)
	return remote.CallResult{}, nil
}

func (f *fakeService) RegisterNodes(_ context.Context, nodes []ua.NodeID) ([]ua.NodeID, error) {
	f.record("RegisterNodes")
	handles := make([]ua.NodeID, len(nodes))
	for i := range nodes {
		handles[i] = ua.NewNumericNodeID(2, uint32(9000+i))
	}
	f.mu.Lock()
	f.registered = handles
	f.mu.Unlock()
	return handles, nil
}

func (f *fakeService) UnregisterNodes(context.Context, []ua.NodeID) error {
	f.record("UnregisterNodes")
	return nil
}

func (f *fakeService) HistoryReadData(_ context.Context, request remote.HistoryReadDataRequest) ([]remote.HistoryDataResult, error) {
	f.record("HistoryReadData")
	f.mu.Lock()
	f.historyRequests = append(f.historyRequests, request)
	historyFunc := f.historyFunc
	f.mu.Unlock()
	if historyFunc != nil {
		return historyFunc(request)
	}
	results := make([]remote.HistoryDataResult, len(request.Nodes))
	for i, node := range request.Nodes {
		results[i] = remote.HistoryDataResult{NodeID: node.NodeID}
	}
	return results, nil
}

func (f *fakeService) HistoryReadEvents(_ context.Context, request remote.HistoryReadEventsRequest) ([]remote.HistoryEventResult, error) {
	f.record("HistoryReadEvents")
	results := make([]remote.HistoryEventResult, len(request.Nodes))
	for i, node := range request.Nodes {
		results[i] = remote.HistoryEventResult{
			NodeID: node.NodeID,
			Events: []remote.EventFieldList{{Fields: []ua.Variant{
				ua.NewVariant(uint16(300)),
				ua.NewVariant("2026-01-01"),
				ua.NewVariant(ua.LocalizedText{Text: "tank full"}),
			}}},
		}
	}
	return results, nil
}

func (f *fakeService) HistoryUpdateData(_ context.Context, updates []remote.HistoryUpdateDataRequest) ([]ua.StatusCode, error) {
	f.record("HistoryUpdateData")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, updates...)
	return make([]ua.StatusCode, len(updates)), nil
}

func (f *fakeService) DataTypes(context.Context) ([]ua.StructureDefinition, error) {
	f.record("DataTypes")
	return nil, nil
}

func (f *fakeService) CreateSubscription(_ context.Context, options remote.SubscriptionOptions, handler remote.NotificationHandler) (remote.Subscription, error) {
	f.record("CreateSubscription")
	f.mu.Lock()
	defer f.mu.Unlock()
	subscription := &fakeSubscription{
		id:      uint32(len(f.subscriptions) + 1),
		options: options,
		handler: handler,
	}
	f.subscriptions = append(f.subscriptions, subscription)
	return subscription, nil
}

func (f *fakeService) lastSubscription(t *testing.T) *fakeSubscription {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.subscriptions) == 0 {
		t.Fatal("no subscription created")
	}
	return f.subscriptions[len(f.subscriptions)-1]
}

// fakeSubscription accepts every item and hands out sequential ids.
type fakeSubscription struct {
	mu sync.Mutex

	id      uint32
	options remote.SubscriptionOptions
	handler remote.NotificationHandler

	items      []remote.MonitoredItemSpec
	nextItemID uint32
	deleted    []uint32
	publishing []bool
	closed     bool
}

func (s *fakeSubscription) ID() uint32 { return s.id }

func (s *fakeSubscription) SetPublishingEnabled(_ context.Context, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publishing = append(s.publishing, enabled)
	return nil
}

func (s *fakeSubscription) CreateMonitoredItems(_ context.Context, items []remote.MonitoredItemSpec) ([]remote.MonitoredItemResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	results := make([]remote.MonitoredItemResult, len(items))
	for i, item := range items {
		s.nextItemID++
		s.items = append(s.items, item)
		results[i] = remote.MonitoredItemResult{MonitoredItemID: s.nextItemID, ClientHandle: item.ClientHandle}
	}
	return results, nil
}

func (s *fakeSubscription) DeleteMonitoredItems(_ context.Context, ids []uint32) ([]ua.StatusCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, ids...)
	return make([]ua.StatusCode, len(ids)), nil
}

func (s *fakeSubscription) Delete(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// itemFor returns the spec of the item created on node.
func (s *fakeSubscription) itemFor(t *testing.T, node ua.NodeID) remote.MonitoredItemSpec {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.items {
		if item.NodeID == node {
			return item
		}
	}
	t.Fatalf("no monitored item on %s", node)
	return remote.MonitoredItemSpec{}
}

// syncBuffer is an io.Writer safe for the controller's goroutines.
type syncBuffer struct {
	mu     sync.Mutex
	buffer bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buffer.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buffer.String()
}

// newTestController returns a controller over service with the default
// settings, after adjust has modified them.
func newTestController(t *testing.T, service *fakeService, adjust func(*config.Config)) (*Controller, *syncBuffer) {
	t.Helper()
	settings := config.Default()
	if adjust != nil {
		adjust(settings)
	}
	output := &syncBuffer{}
	controller, err := New(Config{
		Service:  service,
		Settings: settings,
		Output:   output,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(controller.Wait)
	return controller, output
}

// connected returns a controller that has connected to service.
func connected(t *testing.T, service *fakeService, adjust func(*config.Config)) (*Controller, *syncBuffer) {
	t.Helper()
	controller, output := newTestController(t, service, adjust)
	if mode := controller.Handle(t.Context(), Press(ActionConnect)); mode != ModeConnected {
		t.Fatalf("connect: mode = %s, output:\n%s", mode, output)
	}
	return controller, output
}
