// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package service carries the remote collaborator's request traffic
// over a Unix socket.
//
// The protocol is CBOR in both directions. A client connects, writes
// one request map whose "action" field selects the handler, and reads
// one [Response] envelope. Request-response actions (registered with
// [SocketServer.Handle]) close the connection after the envelope.
//
// Stream actions (registered with [SocketServer.HandleStream]) answer
// with an ok envelope and then keep the connection open: the handler
// writes any number of CBOR frames until it returns or the client
// disconnects. The demo server uses a stream to push subscription
// notifications; [ServiceClient.Stream] is the client side.
//
// Sessions are identified by a field in the request body, not by the
// connection, so a client may open as many connections as it has
// concurrent requests.
package service
