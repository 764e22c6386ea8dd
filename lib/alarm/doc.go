// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package alarm keeps the set of retained alarm conditions reported by
// an alarm subscription.
//
// The server reports a condition whenever its state changes, and sets
// the Retain field while the condition still needs attention (active,
// or inactive but unacknowledged). A [Cache] holds, per condition
// identity, the last field snapshot whose Retain field was true, and
// forgets the condition when a snapshot arrives with Retain false.
//
// Fields are positional: their order is the select clause of the event
// monitored item, built by [SelectClauses]. [Cache.Apply] reads the
// identity from field [FieldConditionID] and the retain flag from
// [FieldRetain]; a notification whose identity or flag is missing or of
// the wrong type is ignored.
//
// Acknowledging calls the condition's Acknowledge method with the
// snapshot's EventId. The cache does not remove the entry: the server
// confirms with a later notification, which may or may not clear
// Retain.
//
// A Cache is fed from the subscription's delivery goroutine while the
// console reads it, so every method takes the cache's mutex.
// [Cache.Deactivate] empties the cache when the subscription is torn
// down and makes it ignore notifications that were already in flight.
package alarm
