// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/bureau-foundation/uaconsole/lib/codec"
)

// dialTimeout covers only the connect phase of a call.
const dialTimeout = 5 * time.Second

// responseReadTimeout is how long the client waits for the server to
// send a response after writing the request. Matched to the server's
// readTimeout + writeTimeout to account for handler execution time.
const responseReadTimeout = 45 * time.Second

// maxResponseSize is the maximum size of a single CBOR response.
const maxResponseSize = 1024 * 1024

// ServiceError is returned by Call when the server responds with
// ok=false. It wraps the server's error message and the action that
// failed.
type ServiceError struct {
	Action  string
	Message string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("service error on %q: %s", e.Action, e.Message)
}

// ServiceClient sends CBOR requests to a service socket. Each Call
// opens a new connection, sends the request, reads the response, and
// closes the connection.
type ServiceClient struct {
	socketPath string
}

// NewServiceClient creates a client for the socket at socketPath. No
// connection is made until the first Call.
func NewServiceClient(socketPath string) *ServiceClient {
	return &ServiceClient{socketPath: socketPath}
}

// SocketPath returns the socket the client dials.
func (c *ServiceClient) SocketPath() string { return c.socketPath }

// Call sends a CBOR request to the service and decodes the response.
//
// The fields parameter may contain any handler-specific request
// fields; the client adds "action" automatically. Pass nil for actions
// that take no additional parameters.
//
// On success, if result is non-nil and the response contains data,
// the data is CBOR-decoded into result. On failure (ok=false), returns
// a *ServiceError. Connection and encoding errors are returned as
// plain errors.
func (c *ServiceClient) Call(ctx context.Context, action string, fields map[string]any, result any) error {
	conn, err := c.open(ctx, action, fields)
	if err != nil {
		return fmt.Errorf("calling %q on %s: %w", action, c.socketPath, err)
	}
	defer conn.Close()

	response, err := readResponse(conn)
	if err != nil {
		return fmt.Errorf("calling %q on %s: %w", action, c.socketPath, err)
	}
	if !response.OK {
		return &ServiceError{Action: action, Message: response.Error}
	}

	if result != nil && len(response.Data) > 0 {
		if err := codec.Unmarshal(response.Data, result); err != nil {
			return fmt.Errorf("decoding response data for %q: %w", action, err)
		}
	}
	return nil
}

// Stream is the client side of a stream action.
type Stream struct {
	conn    net.Conn
	decoder *codec.Decoder
}

// Stream opens a stream action and waits for the server to accept it.
// The caller reads frames with Decode and must Close the stream.
func (c *ServiceClient) Stream(ctx context.Context, action string, fields map[string]any) (*Stream, error) {
	conn, err := c.open(ctx, action, fields)
	if err != nil {
		return nil, fmt.Errorf("opening stream %q on %s: %w", action, c.socketPath, err)
	}

	decoder := codec.NewDecoder(conn)
	conn.SetReadDeadline(time.Now().Add(responseReadTimeout))
	var response Response
	if err := decoder.Decode(&response); err != nil {
		conn.Close()
		return nil, fmt.Errorf("opening stream %q on %s: reading response: %w", action, c.socketPath, err)
	}
	if !response.OK {
		conn.Close()
		return nil, &ServiceError{Action: action, Message: response.Error}
	}
	conn.SetReadDeadline(time.Time{})

	return &Stream{conn: conn, decoder: decoder}, nil
}

// Decode reads the next frame into value. It returns io.EOF when the
// server ends the stream.
func (s *Stream) Decode(value any) error {
	return s.decoder.Decode(value)
}

// Close ends the stream. A Decode blocked in another goroutine returns
// an error.
func (s *Stream) Close() error {
	return s.conn.Close()
}

// open connects and writes the request. The write side is half-closed
// so the server sees EOF after the request.
func (c *ServiceClient) open(ctx context.Context, action string, fields map[string]any) (net.Conn, error) {
	request := make(map[string]any, len(fields)+1)
	for key, value := range fields {
		request[key] = value
	}
	request["action"] = action

	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return nil, fmt.Errorf("connecting: %w", err)
	}

	if err := codec.NewEncoder(conn).Encode(request); err != nil {
		conn.Close()
		return nil, fmt.Errorf("writing request: %w", err)
	}
	if unixConn, ok := conn.(*net.UnixConn); ok {
		unixConn.CloseWrite()
	}
	return conn, nil
}

func readResponse(conn net.Conn) (*Response, error) {
	conn.SetReadDeadline(time.Now().Add(responseReadTimeout))
	var response Response
	if err := codec.NewDecoder(io.LimitReader(conn, maxResponseSize)).Decode(&response); err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return &response, nil
}
