// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package remote defines the contract between the console and the
// remote server it drives, and provides a socket-backed implementation
// of that contract.
//
// [Service] is the request/response surface: discovery, connection,
// attribute reads and writes, browsing, path translation, method calls,
// node registration, history access, and subscription creation.
// [Subscription] is a live subscription; the server pushes its
// notifications to the [NotificationHandler] supplied at creation, on a
// goroutine owned by the implementation.
//
// Paginated history reads take per-node continuation points in the
// request. The first request carries the query details and no points; a
// continuation carries the points and zero-valued details; a release
// carries the points with Release set. Browse has dedicated next and
// release calls.
//
// [Client] implements Service over the CBOR socket protocol served by
// package simulator. Each request is one connection. A subscription
// additionally holds one streaming connection over which the server
// writes [NotificationMessage] frames until the subscription is deleted.
package remote
