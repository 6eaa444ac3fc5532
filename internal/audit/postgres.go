// Package audit persists shuffle audit events to Postgres, giving a
// certification reviewer a durable trail of every deck shuffle without
// ever storing hole cards or action history (that scope is explicitly
// out -- see the module's design notes).
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"poker-platform/pkg/rng"
)

// Store persists rng.ShuffleAuditEvent records to Postgres.
type Store struct {
	db *sql.DB
}

// NewStore wraps an open *sql.DB (dialed with the lib/pq driver) as a
// shuffle audit store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the shuffle_audit table if it does not already
// exist. Safe to call on every process start.
func (s *Store) EnsureSchema(ctx context.Context) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS shuffle_audit (
			id           BIGSERIAL PRIMARY KEY,
			table_id     TEXT NOT NULL,
			hand_number  INTEGER NOT NULL,
			seed_hash    TEXT NOT NULL,
			deck_before  JSONB NOT NULL,
			deck_after   JSONB NOT NULL,
			algorithm    TEXT NOT NULL,
			prng         TEXT NOT NULL,
			recorded_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

// Record inserts one shuffle audit event. It matches rng.AuditLogger's
// sink signature once bound with a background context via Sink.
func (s *Store) Record(ctx context.Context, event *rng.ShuffleAuditEvent) error {
	before, err := json.Marshal(event.DeckBefore)
	if err != nil {
		return fmt.Errorf("audit: marshal deck_before: %w", err)
	}
	after, err := json.Marshal(event.DeckAfter)
	if err != nil {
		return fmt.Errorf("audit: marshal deck_after: %w", err)
	}

	const query = `
		INSERT INTO shuffle_audit (table_id, hand_number, seed_hash, deck_before, deck_after, algorithm, prng)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = s.db.ExecContext(ctx, query,
		event.TableID, event.HandNumber, event.SeedHash, before, after, event.Algorithm, event.PRNG,
	)
	return err
}

// Sink adapts Record into the callback shape rng.NewAuditLogger
// expects. Errors are swallowed: a failure to persist an audit record
// must never interrupt dealing, only be surfaced out-of-band (a real
// deployment would route this through the table's logger).
func (s *Store) Sink() func(*rng.ShuffleAuditEvent) {
	return func(event *rng.ShuffleAuditEvent) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Record(ctx, event)
	}
}

// RecentByTable returns the most recent audit events for a table, most
// recent first, for operator/compliance review.
func (s *Store) RecentByTable(ctx context.Context, tableID string, limit int) ([]*rng.ShuffleAuditEvent, error) {
	const query = `
		SELECT table_id, hand_number, seed_hash, deck_before, deck_after, algorithm, prng
		FROM shuffle_audit
		WHERE table_id = $1
		ORDER BY recorded_at DESC
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, tableID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*rng.ShuffleAuditEvent
	for rows.Next() {
		var e rng.ShuffleAuditEvent
		var before, after []byte
		if err := rows.Scan(&e.TableID, &e.HandNumber, &e.SeedHash, &before, &after, &e.Algorithm, &e.PRNG); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(before, &e.DeckBefore); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(after, &e.DeckAfter); err != nil {
			return nil, err
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}
