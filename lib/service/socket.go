// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/bureau-foundation/uaconsole/lib/codec"
)

// ActionFunc processes a socket request for a specific action. The raw
// parameter is the full CBOR request (including the "action" field).
// The handler decodes action-specific fields from this raw message.
//
// Return a value to include in the success response, or an error for
// a failure response. If the returned value is nil, the response
// contains only {ok: true}.
type ActionFunc func(ctx context.Context, raw []byte) (any, error)

// StreamFunc serves a stream action. It is called after the ok
// envelope has been written and owns the connection until it returns.
// ctx is cancelled when the server shuts down.
type StreamFunc func(ctx context.Context, raw []byte, conn net.Conn)

// Response is the wire-format envelope for all socket protocol
// responses. Handlers return a result value (or nil) and an error;
// the server wraps these into a Response before encoding.
type Response struct {
	OK    bool             `cbor:"ok"`
	Error string           `cbor:"error,omitempty"`
	Data  codec.RawMessage `cbor:"data,omitempty"`
}

// SocketServer serves a CBOR request-response protocol on a Unix
// socket. Each request-response connection handles exactly one
// cycle; stream connections stay open while their handler runs.
//
// Actions are registered with Handle or HandleStream before calling
// Serve. Unknown actions receive an error response.
type SocketServer struct {
	socketPath string
	handlers   map[string]ActionFunc
	streams    map[string]StreamFunc
	logger     *slog.Logger

	// activeConnections tracks in-flight handlers for graceful
	// shutdown.
	activeConnections sync.WaitGroup
}

// NewSocketServer creates a server that will listen on socketPath.
func NewSocketServer(socketPath string, logger *slog.Logger) *SocketServer {
	return &SocketServer{
		socketPath: socketPath,
		handlers:   make(map[string]ActionFunc),
		streams:    make(map[string]StreamFunc),
		logger:     logger,
	}
}

// Handle registers a request-response handler. Panics if the action
// is already registered.
func (s *SocketServer) Handle(action string, handler ActionFunc) {
	s.checkDuplicate(action)
	s.handlers[action] = handler
}

// HandleStream registers a stream handler. Panics if the action is
// already registered.
func (s *SocketServer) HandleStream(action string, handler StreamFunc) {
	s.checkDuplicate(action)
	s.streams[action] = handler
}

func (s *SocketServer) checkDuplicate(action string) {
	_, request := s.handlers[action]
	_, stream := s.streams[action]
	if request || stream {
		panic(fmt.Sprintf("service.SocketServer: duplicate handler for action %q", action))
	}
}

// Serve starts accepting connections on the Unix socket and dispatches
// requests to registered handlers. Blocks until ctx is cancelled, then
// stops accepting new connections and waits for active handlers to
// complete.
//
// Any existing socket file at the configured path is removed before
// listening. The socket file is removed on return.
func (s *SocketServer) Serve(ctx context.Context) error {
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stale socket %s: %w", s.socketPath, err)
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.socketPath, err)
	}
	defer func() {
		listener.Close()
		os.Remove(s.socketPath)
	}()

	// Unblock Accept when the context is cancelled.
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	s.logger.Info("socket server listening", "path", s.socketPath)

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			if errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Error("accept failed", "error", err)
			continue
		}

		s.activeConnections.Add(1)
		go func() {
			defer s.activeConnections.Done()
			s.handleConnection(ctx, conn)
		}()
	}

	s.activeConnections.Wait()
	return nil
}

// readTimeout is how long we wait for the client to send its request.
const readTimeout = 30 * time.Second

// writeTimeout is how long we wait for a response or frame to be
// written.
const writeTimeout = 10 * time.Second

// maxRequestSize is the maximum size of a single CBOR request. The
// largest requests are history updates and writes of array values.
const maxRequestSize = 1024 * 1024

func (s *SocketServer) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(readTimeout))

	// CBOR is self-delimiting so no framing protocol is needed.
	var raw codec.RawMessage
	if err := codec.NewDecoder(io.LimitReader(conn, maxRequestSize)).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return
		}
		s.writeError(conn, fmt.Sprintf("invalid request: %v", err))
		return
	}

	var header struct {
		Action string `cbor:"action"`
	}
	if err := codec.Unmarshal(raw, &header); err != nil {
		s.writeError(conn, fmt.Sprintf("invalid request: %v", err))
		return
	}
	if header.Action == "" {
		s.writeError(conn, "missing required field: action")
		return
	}

	if stream, exists := s.streams[header.Action]; exists {
		if err := s.writeResponse(conn, Response{OK: true}); err != nil {
			s.logger.Debug("failed to accept stream", "action", header.Action, "error", err)
			return
		}
		// Streams outlive the request deadline.
		conn.SetReadDeadline(time.Time{})
		conn.SetWriteDeadline(time.Time{})
		stream(ctx, []byte(raw), conn)
		return
	}

	handler, exists := s.handlers[header.Action]
	if !exists {
		s.writeError(conn, fmt.Sprintf("unknown action %q", header.Action))
		return
	}

	result, err := handler(ctx, []byte(raw))
	if err != nil {
		s.logger.Debug("action failed",
			"action", header.Action,
			"error", err,
		)
		s.writeError(conn, err.Error())
		return
	}

	s.writeSuccess(conn, result)
}

// writeError sends a failure response: {ok: false, error: "..."}.
func (s *SocketServer) writeError(conn net.Conn, message string) {
	if err := s.writeResponse(conn, Response{OK: false, Error: message}); err != nil {
		s.logger.Debug("failed to write error response", "error", err)
	}
}

// writeSuccess sends a success response, with result marshaled into
// the "data" field when non-nil.
func (s *SocketServer) writeSuccess(conn net.Conn, result any) {
	response := Response{OK: true}
	if result != nil {
		data, err := codec.Marshal(result)
		if err != nil {
			s.writeError(conn, fmt.Sprintf("internal: marshaling response: %v", err))
			return
		}
		response.Data = data
	}
	if err := s.writeResponse(conn, response); err != nil {
		s.logger.Debug("failed to write success response", "error", err)
	}
}

func (s *SocketServer) writeResponse(conn net.Conn, response Response) error {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return codec.NewEncoder(conn).Encode(response)
}
