// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the CBOR encoding configuration shared by the
// console client and the demo server.
//
// Everything that crosses the collaborator socket (requests, responses,
// and the notification stream of a subscription) is CBOR, and so are
// the event payloads the demo server stores in its history database.
// This package holds the single encoder and decoder configuration so
// that both ends of the socket agree on the bytes. The encoder uses
// Core Deterministic Encoding (RFC 8949 §4.2) with RFC 3339 timestamps,
// so timestamps keep their sub-second precision across the socket.
//
// For buffer-oriented operations (stored payloads):
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// For stream-oriented operations (sockets):
//
//	encoder := codec.NewEncoder(conn)
//	decoder := codec.NewDecoder(conn)
//
// Wire types carry `cbor` struct tags. They are never marshaled to
// JSON, so `json` tags do not appear on them.
package codec
