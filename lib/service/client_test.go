// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/bureau-foundation/uaconsole/lib/codec"
)

func TestClientCall(t *testing.T) {
	socketPath := testSocketPath(t)
	server := NewSocketServer(socketPath, testLogger())
	server.Handle("read", func(ctx context.Context, raw []byte) (any, error) {
		var request struct {
			Session string `cbor:"session"`
			Node    string `cbor:"node"`
		}
		codec.Unmarshal(raw, &request)
		return map[string]any{"session": request.Session, "node": request.Node, "count": 5}, nil
	})
	startServer(t, server)

	client := NewServiceClient(socketPath)
	var result struct {
		Session string `cbor:"session"`
		Node    string `cbor:"node"`
		Count   int    `cbor:"count"`
	}
	err := client.Call(t.Context(), "read", map[string]any{"session": "s1", "node": "ns=2;s=A"}, &result)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if result.Session != "s1" || result.Node != "ns=2;s=A" || result.Count != 5 {
		t.Errorf("result = %+v", result)
	}
}

func TestClientCallNilResult(t *testing.T) {
	socketPath := testSocketPath(t)
	server := NewSocketServer(socketPath, testLogger())
	server.Handle("ping", func(ctx context.Context, raw []byte) (any, error) {
		return map[string]any{"pong": true}, nil
	})
	startServer(t, server)

	if err := NewServiceClient(socketPath).Call(t.Context(), "ping", nil, nil); err != nil {
		t.Fatalf("Call with nil result: %v", err)
	}
}

func TestClientCallNoResponseData(t *testing.T) {
	socketPath := testSocketPath(t)
	server := NewSocketServer(socketPath, testLogger())
	server.Handle("noop", func(ctx context.Context, raw []byte) (any, error) {
		return nil, nil
	})
	startServer(t, server)

	var result map[string]any
	if err := NewServiceClient(socketPath).Call(t.Context(), "noop", nil, &result); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if result != nil {
		t.Errorf("result should be nil when server returns no data, got %v", result)
	}
}

func TestClientCallServiceError(t *testing.T) {
	socketPath := testSocketPath(t)
	server := NewSocketServer(socketPath, testLogger())
	server.Handle("fail", func(ctx context.Context, raw []byte) (any, error) {
		return nil, errors.New("something broke")
	})
	startServer(t, server)

	err := NewServiceClient(socketPath).Call(t.Context(), "fail", nil, nil)
	var serviceErr *ServiceError
	if !errors.As(err, &serviceErr) {
		t.Fatalf("expected *ServiceError, got %T: %v", err, err)
	}
	if serviceErr.Action != "fail" {
		t.Errorf("error action: got %q, want fail", serviceErr.Action)
	}
	if serviceErr.Message != "something broke" {
		t.Errorf("error message: got %q, want 'something broke'", serviceErr.Message)
	}
}

func TestClientStreamUnknownAction(t *testing.T) {
	socketPath := testSocketPath(t)
	server := NewSocketServer(socketPath, testLogger())
	startServer(t, server)

	_, err := NewServiceClient(socketPath).Stream(t.Context(), "subscribe", nil)
	var serviceErr *ServiceError
	if !errors.As(err, &serviceErr) {
		t.Fatalf("expected *ServiceError, got %T: %v", err, err)
	}
}

func TestClientCallConnectionRefused(t *testing.T) {
	client := NewServiceClient(testSocketPath(t))
	err := client.Call(t.Context(), "status", nil, nil)
	if err == nil {
		t.Fatal("expected error for nonexistent socket")
	}
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		t.Error("connection error should not be a ServiceError")
	}
}

func TestClientConcurrentCalls(t *testing.T) {
	socketPath := testSocketPath(t)
	server := NewSocketServer(socketPath, testLogger())
	server.Handle("echo", func(ctx context.Context, raw []byte) (any, error) {
		var request struct {
			Value int `cbor:"value"`
		}
		codec.Unmarshal(raw, &request)
		return map[string]any{"value": request.Value}, nil
	})
	startServer(t, server)

	client := NewServiceClient(socketPath)
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var result struct {
				Value int `cbor:"value"`
			}
			if err := client.Call(t.Context(), "echo", map[string]any{"value": i}, &result); err != nil {
				t.Errorf("call %d: %v", i, err)
				return
			}
			if result.Value != i {
				t.Errorf("call %d: got %d", i, result.Value)
			}
		}()
	}
	wg.Wait()
}
