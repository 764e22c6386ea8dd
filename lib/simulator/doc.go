// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package simulator is the demo server the console connects to when no
// real server is at hand. It serves the remote socket protocol (see
// package remote) backed by an in-memory address space modelled on the
// well-known demo server layout: static and dynamic scalars and arrays,
// a structured WorkOrder variable, a mass folder large enough to need
// paginated browsing, a Multiply method, historizing variables and an
// event notifier with stored history, and boiler alarms that honor
// Acknowledge and ConditionRefresh.
//
// History is kept in SQLite (see package sqlitepool). Values are stored
// as CBOR; event payloads are CBOR compressed with zstd. The store is
// seeded with samples on first use so history reads page immediately.
//
// A Server is created with New, run with Serve, and released with
// Close:
//
//	server, err := simulator.New(simulator.Config{
//	    SocketPath:  "/run/uaconsole/demo.sock",
//	    HistoryPath: "/var/lib/uaconsole/history.db",
//	    Logger:      logger,
//	})
//	if err != nil {
//	    return err
//	}
//	defer server.Close()
//	return server.Serve(ctx)
package simulator
