// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sqlitepool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// defaultPoolSize suits the demo server: one writer and a few readers.
const defaultPoolSize = 4

// pragmas are applied to every connection.
var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA temp_store=MEMORY",
}

// Migration upgrades a database from the previous schema version.
type Migration struct {
	// Version is the user_version after the migration.
	Version int
	Script  string
}

// Config configures Open. Path is required.
type Config struct {
	// Path is the database file, created when missing. Its directory
	// must exist. ":memory:" needs PoolSize 1, since every in-memory
	// connection is a separate database.
	Path string

	// PoolSize defaults to 4.
	PoolSize int

	Logger *slog.Logger

	// Migrations bring the schema from user_version 0 up to the last
	// Version, in order. Versions must increase. Migrations at or below
	// the database's user_version are skipped.
	Migrations []Migration
}

// Pool is a fixed-size pool of prepared SQLite connections. It is safe
// for concurrent use; a connection is not, and belongs to the goroutine
// that took it until Put.
type Pool struct {
	inner  *sqlitex.Pool
	logger *slog.Logger
	path   string
}

// Open opens the pool and migrates the schema.
func Open(cfg Config) (*Pool, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlitepool: Path is required")
	}
	for i := 1; i < len(cfg.Migrations); i++ {
		if cfg.Migrations[i].Version <= cfg.Migrations[i-1].Version {
			return nil, fmt.Errorf("sqlitepool: migration versions must increase (%d after %d)",
				cfg.Migrations[i].Version, cfg.Migrations[i-1].Version)
		}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = defaultPoolSize
	}

	inner, err := sqlitex.NewPool(cfg.Path, sqlitex.PoolOptions{
		PoolSize:    poolSize,
		PrepareConn: prepareConnection,
	})
	if err != nil {
		return nil, fmt.Errorf("sqlitepool: opening %s: %w", cfg.Path, err)
	}
	pool := &Pool{inner: inner, logger: logger, path: cfg.Path}

	version, err := pool.migrate(context.Background(), cfg.Migrations)
	if err != nil {
		inner.Close()
		return nil, fmt.Errorf("sqlitepool: migrating %s: %w", cfg.Path, err)
	}
	logger.Info("sqlite database opened", "path", cfg.Path, "pool_size", poolSize, "schema_version", version)
	return pool, nil
}

// migrate applies the pending migrations in one transaction and returns
// the resulting schema version.
func (p *Pool) migrate(ctx context.Context, migrations []Migration) (version int, err error) {
	err = p.Write(ctx, func(conn *sqlite.Conn) error {
		err := sqlitex.ExecuteTransient(conn, "PRAGMA user_version", &sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				version = stmt.ColumnInt(0)
				return nil
			},
		})
		if err != nil {
			return err
		}
		for _, migration := range migrations {
			if migration.Version <= version {
				continue
			}
			if err := sqlitex.ExecuteScript(conn, migration.Script, nil); err != nil {
				return fmt.Errorf("version %d: %w", migration.Version, err)
			}
			// PRAGMA takes no parameters; Version is an int.
			pragma := fmt.Sprintf("PRAGMA user_version=%d", migration.Version)
			if err := sqlitex.ExecuteTransient(conn, pragma, nil); err != nil {
				return fmt.Errorf("version %d: %w", migration.Version, err)
			}
			p.logger.Debug("schema migrated", "path", p.path, "from", version, "to", migration.Version)
			version = migration.Version
		}
		return nil
	})
	return version, err
}

// Take borrows a connection, blocking until one is free or ctx is done.
// Return it with Put.
func (p *Pool) Take(ctx context.Context) (*sqlite.Conn, error) {
	conn, err := p.inner.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("sqlitepool: take: %w", err)
	}
	return conn, nil
}

// Put returns a connection taken with Take. Put(nil) does nothing.
func (p *Pool) Put(conn *sqlite.Conn) {
	p.inner.Put(conn)
}

// Read runs fn on a borrowed connection.
func (p *Pool) Read(ctx context.Context, fn func(conn *sqlite.Conn) error) error {
	conn, err := p.Take(ctx)
	if err != nil {
		return err
	}
	defer p.Put(conn)
	return fn(conn)
}

// Write runs fn inside an immediate transaction, committed when fn
// returns nil and rolled back otherwise.
func (p *Pool) Write(ctx context.Context, fn func(conn *sqlite.Conn) error) (err error) {
	conn, err := p.Take(ctx)
	if err != nil {
		return err
	}
	defer p.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("sqlitepool: begin: %w", err)
	}
	defer endTransaction(&err)
	return fn(conn)
}

// Close waits for borrowed connections to come back and closes them.
func (p *Pool) Close() error {
	if err := p.inner.Close(); err != nil {
		p.logger.Error("closing sqlite database failed", "path", p.path, "error", err)
		return fmt.Errorf("sqlitepool: closing %s: %w", p.path, err)
	}
	p.logger.Info("sqlite database closed", "path", p.path)
	return nil
}

func prepareConnection(conn *sqlite.Conn) error {
	for _, pragma := range pragmas {
		if err := sqlitex.ExecuteTransient(conn, pragma, nil); err != nil {
			return fmt.Errorf("sqlitepool: %s: %w", pragma, err)
		}
	}
	return nil
}
