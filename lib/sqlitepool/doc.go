// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool opens SQLite databases for the demo server's
// stores.
//
// A [Pool] wraps a zombiezen sqlitex.Pool. Every connection gets the
// same pragmas (WAL journal, NORMAL synchronous, a 5 s busy timeout,
// in-memory temp storage), and [Config.Schema] is applied once at open
// inside an immediate transaction, guarded by PRAGMA user_version so
// a database created by an older schema version is migrated and a
// current one is left alone.
//
// Callers either borrow a connection with [Pool.Take] and [Pool.Put],
// or run a function on one with [Pool.Read], or inside an immediate
// transaction with [Pool.Write]:
//
//	err := pool.Write(ctx, func(conn *sqlite.Conn) error {
//	    return sqlitex.Execute(conn, `INSERT INTO history_values ...`, &sqlitex.ExecOptions{Args: args})
//	})
package sqlitepool
