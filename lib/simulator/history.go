// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package simulator

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/klauspost/compress/zstd"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bureau-foundation/uaconsole/lib/codec"
	"github.com/bureau-foundation/uaconsole/lib/remote"
	"github.com/bureau-foundation/uaconsole/lib/sqlitepool"
	"github.com/bureau-foundation/uaconsole/lib/ua"
)

// historyMigrations create the history schema.
var historyMigrations = []sqlitepool.Migration{{
	Version: 1,
	Script: `
	CREATE TABLE history_values (
		node        TEXT    NOT NULL,
		source_time INTEGER NOT NULL,
		value       BLOB    NOT NULL,
		PRIMARY KEY (node, source_time)
	) WITHOUT ROWID;

	CREATE TABLE history_events (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		notifier     TEXT    NOT NULL,
		event_time   INTEGER NOT NULL,
		event_type   TEXT    NOT NULL,
		condition_id TEXT    NOT NULL,
		payload      BLOB    NOT NULL
	);
	CREATE INDEX idx_history_events_notifier ON history_events(notifier, id);
`,
}}

// Event payloads are the CBOR field map, zstd compressed. The encoder
// and decoder are safe for concurrent use.
var (
	payloadEncoder *zstd.Encoder
	payloadDecoder *zstd.Decoder
)

func init() {
	var err error
	payloadEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic(fmt.Sprintf("simulator: creating zstd encoder: %v", err))
	}
	payloadDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic(fmt.Sprintf("simulator: creating zstd decoder: %v", err))
	}
}

// historyStore persists historized values and events in SQLite.
type historyStore struct {
	pool   *sqlitepool.Pool
	logger *slog.Logger
}

func openHistory(path string, logger *slog.Logger) (*historyStore, error) {
	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:       path,
		Logger:     logger,
		Migrations: historyMigrations,
	})
	if err != nil {
		return nil, fmt.Errorf("history store: %w", err)
	}
	return &historyStore{pool: pool, logger: logger}, nil
}

func (h *historyStore) Close() error {
	return h.pool.Close()
}

// empty reports whether the store holds neither values nor events.
func (h *historyStore) empty(ctx context.Context) (bool, error) {
	empty := true
	err := h.pool.Read(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn,
			`SELECT 1 FROM history_values UNION ALL SELECT 1 FROM history_events LIMIT 1`,
			&sqlitex.ExecOptions{
				ResultFunc: func(stmt *sqlite.Stmt) error {
					empty = false
					return nil
				},
			})
	})
	if err != nil {
		return false, fmt.Errorf("history store: %w", err)
	}
	return empty, nil
}

// recordValue stores value at its source timestamp, replacing a value
// already stored at the same instant.
func (h *historyStore) recordValue(ctx context.Context, id ua.NodeID, value ua.DataValue) error {
	encoded, err := codec.Marshal(value)
	if err != nil {
		return fmt.Errorf("history store: encoding value: %w", err)
	}
	return h.pool.Write(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn,
			`INSERT OR REPLACE INTO history_values (node, source_time, value) VALUES (?, ?, ?)`,
			&sqlitex.ExecOptions{Args: []any{id.String(), value.SourceTimestamp.UnixNano(), encoded}})
	})
}

// updateValues applies one history update in a single transaction and
// returns a status per value.
func (h *historyStore) updateValues(ctx context.Context, update remote.HistoryUpdateDataRequest) ([]ua.StatusCode, error) {
	statuses := make([]ua.StatusCode, len(update.Values))
	err := h.pool.Write(ctx, func(conn *sqlite.Conn) error {
		return h.applyUpdate(conn, update, statuses)
	})
	if err != nil {
		return nil, err
	}
	return statuses, nil
}

// applyUpdate writes the values of update that its mode admits and
// fills statuses.
func (h *historyStore) applyUpdate(conn *sqlite.Conn, update remote.HistoryUpdateDataRequest, statuses []ua.StatusCode) error {
	node := update.NodeID.String()
	for i, value := range update.Values {
		if value.SourceTimestamp.IsZero() {
			statuses[i] = ua.StatusBadInvalidArgument
			continue
		}
		exists, err := h.valueExists(conn, node, value.SourceTimestamp)
		if err != nil {
			return err
		}
		switch {
		case update.Mode == remote.UpdateInsert && exists:
			statuses[i] = ua.StatusBadEntryExists
			continue
		case update.Mode == remote.UpdateReplace && !exists:
			statuses[i] = ua.StatusBadNoEntryExists
			continue
		case update.Mode < remote.UpdateInsert || update.Mode > remote.UpdateUpsert:
			statuses[i] = ua.StatusBadHistoryOperationUnsupported
			continue
		}
		encoded, err := codec.Marshal(value)
		if err != nil {
			return fmt.Errorf("history store: encoding value: %w", err)
		}
		err = sqlitex.Execute(conn,
			`INSERT OR REPLACE INTO history_values (node, source_time, value) VALUES (?, ?, ?)`,
			&sqlitex.ExecOptions{Args: []any{node, value.SourceTimestamp.UnixNano(), encoded}})
		if err != nil {
			return fmt.Errorf("history store: writing value: %w", err)
		}
	}
	return nil
}

func (h *historyStore) valueExists(conn *sqlite.Conn, node string, at time.Time) (bool, error) {
	exists := false
	err := sqlitex.Execute(conn,
		`SELECT 1 FROM history_values WHERE node = ? AND source_time = ?`,
		&sqlitex.ExecOptions{
			Args: []any{node, at.UnixNano()},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				exists = true
				return nil
			},
		})
	return exists, err
}

// historyWindow bounds a history query. after is the exclusive cursor:
// a source time in nanoseconds for values, a row id for events.
type historyWindow struct {
	start int64
	end   int64
	limit int
	after int64
}

func newHistoryWindow(start, end time.Time, limit uint32) historyWindow {
	window := historyWindow{start: math.MinInt64, end: math.MaxInt64, after: math.MinInt64, limit: int(limit)}
	if !start.IsZero() {
		window.start = start.UnixNano()
	}
	if !end.IsZero() {
		window.end = end.UnixNano()
	}
	return window
}

// sqlLimit is the row limit of one page: one more than the page size,
// so the query itself reveals whether more data follows.
func (window historyWindow) sqlLimit() int {
	if window.limit <= 0 {
		return -1
	}
	return window.limit + 1
}

// readValues returns one page of values and the cursor of the next
// page, or more=false when the window is exhausted.
func (h *historyStore) readValues(ctx context.Context, id ua.NodeID, window historyWindow) (values []ua.DataValue, next historyWindow, more bool, err error) {
	var times []int64
	err = h.pool.Read(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn,
			`SELECT source_time, value FROM history_values
			 WHERE node = ? AND source_time >= ? AND source_time <= ? AND source_time > ?
			 ORDER BY source_time LIMIT ?`,
			&sqlitex.ExecOptions{
				Args: []any{id.String(), window.start, window.end, window.after, window.sqlLimit()},
				ResultFunc: func(stmt *sqlite.Stmt) error {
					var value ua.DataValue
					encoded := make([]byte, stmt.ColumnLen(1))
					stmt.ColumnBytes(1, encoded)
					if err := codec.Unmarshal(encoded, &value); err != nil {
						return fmt.Errorf("decoding value: %w", err)
					}
					times = append(times, stmt.ColumnInt64(0))
					values = append(values, value)
					return nil
				},
			})
	})
	if err != nil {
		return nil, window, false, fmt.Errorf("history store: reading %s: %w", id, err)
	}

	if window.limit > 0 && len(values) > window.limit {
		values = values[:window.limit]
		next = window
		next.after = times[window.limit-1]
		return values, next, true, nil
	}
	return values, window, false, nil
}

// recordEvent stores e under notifier.
func (h *historyStore) recordEvent(ctx context.Context, notifier ua.NodeID, e event) error {
	encoded, err := codec.Marshal(e.fields)
	if err != nil {
		return fmt.Errorf("history store: encoding event: %w", err)
	}
	payload := payloadEncoder.EncodeAll(encoded, nil)

	return h.pool.Write(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn,
			`INSERT INTO history_events (notifier, event_time, event_type, condition_id, payload) VALUES (?, ?, ?, ?, ?)`,
			&sqlitex.ExecOptions{Args: []any{
				notifier.String(),
				e.time.UnixNano(),
				e.eventType.String(),
				e.conditionID.String(),
				payload,
			}})
	})
}

// readEvents returns one page of the events stored under notifier.
func (h *historyStore) readEvents(ctx context.Context, notifier ua.NodeID, window historyWindow) (events []event, next historyWindow, more bool, err error) {
	var ids []int64
	err = h.pool.Read(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn,
			`SELECT id, event_time, event_type, condition_id, payload FROM history_events
			 WHERE notifier = ? AND event_time >= ? AND event_time <= ? AND id > ?
			 ORDER BY id LIMIT ?`,
			&sqlitex.ExecOptions{
				Args: []any{notifier.String(), window.start, window.end, window.after, window.sqlLimit()},
				ResultFunc: func(stmt *sqlite.Stmt) error {
					e, err := decodeStoredEvent(stmt, notifier)
					if err != nil {
						return err
					}
					ids = append(ids, stmt.ColumnInt64(0))
					events = append(events, e)
					return nil
				},
			})
	})
	if err != nil {
		return nil, window, false, fmt.Errorf("history store: reading events of %s: %w", notifier, err)
	}

	if window.limit > 0 && len(events) > window.limit {
		events = events[:window.limit]
		next = window
		next.after = ids[window.limit-1]
		return events, next, true, nil
	}
	return events, window, false, nil
}

func decodeStoredEvent(stmt *sqlite.Stmt, notifier ua.NodeID) (event, error) {
	eventType, err := ua.ParseNodeID(stmt.ColumnText(2))
	if err != nil {
		return event{}, fmt.Errorf("decoding event type: %w", err)
	}
	var conditionID ua.NodeID
	if text := stmt.ColumnText(3); text != "" {
		if conditionID, err = ua.ParseNodeID(text); err != nil {
			return event{}, fmt.Errorf("decoding condition id: %w", err)
		}
	}

	compressed := make([]byte, stmt.ColumnLen(4))
	stmt.ColumnBytes(4, compressed)
	encoded, err := payloadDecoder.DecodeAll(compressed, nil)
	if err != nil {
		return event{}, fmt.Errorf("decompressing event: %w", err)
	}
	var fields map[string]ua.Variant
	if err := codec.Unmarshal(encoded, &fields); err != nil {
		return event{}, fmt.Errorf("decoding event: %w", err)
	}

	return event{
		eventType:   eventType,
		conditionID: conditionID,
		notifiers:   []ua.NodeID{notifier},
		time:        time.Unix(0, stmt.ColumnInt64(1)).UTC(),
		fields:      fields,
	}, nil
}
