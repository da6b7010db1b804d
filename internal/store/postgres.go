// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ghostloop Contributors

package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/ghostloop/ghostloop/internal/arena"
	"github.com/ghostloop/ghostloop/internal/timeline"
)

// poolIface abstracts pgxpool.Pool for testing with pgxmock.
type poolIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresVault implements TimelineVault and SnapshotStore on PostgreSQL.
type PostgresVault struct {
	pool     poolIface
	tickRate int
}

// NewPostgresVault creates a vault backed by a new connection pool.
func NewPostgresVault(ctx context.Context, dsn string, tickRate int) (*PostgresVault, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, oops.Code("VAULT_CONNECT_FAILED").Wrap(err)
	}
	return NewPostgresVaultWithPool(pool, tickRate), nil
}

// NewPostgresVaultWithPool creates a vault on an existing pool. Used by
// tests with pgxmock.
func NewPostgresVaultWithPool(pool poolIface, tickRate int) *PostgresVault {
	if tickRate <= 0 {
		tickRate = arena.DefaultTickRate
	}
	return &PostgresVault{pool: pool, tickRate: tickRate}
}

// Pool exposes the underlying connection pool so sibling repositories can
// share it.
func (v *PostgresVault) Pool() poolIface {
	return v.pool
}

// Close closes the connection pool.
func (v *PostgresVault) Close() {
	v.pool.Close()
}

// Ping verifies connectivity.
func (v *PostgresVault) Ping(ctx context.Context) error {
	if err := v.pool.Ping(ctx); err != nil {
		return oops.Code("VAULT_PING_FAILED").Wrap(err)
	}
	return nil
}

// Put stores a timeline, replacing any prior timeline for its key in one
// statement. The upsert is the whole-value swap the recording contract
// requires.
func (v *PostgresVault) Put(ctx context.Context, t *timeline.Timeline) error {
	payload, err := timeline.Encode(t, v.tickRate)
	if err != nil {
		return oops.Code("VAULT_ENCODE_FAILED").With("key", t.Key().String()).Wrap(err)
	}
	sum := timeline.Checksum(payload)

	_, err = v.pool.Exec(ctx,
		`INSERT INTO timelines (actor_id, arena_id, payload, checksum, recorded_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (actor_id, arena_id)
		 DO UPDATE SET payload = $3, checksum = $4, recorded_at = $5`,
		t.Key().Actor.String(), int16(t.Key().Arena), payload, sum[:], time.Now().UTC())
	if err != nil {
		return mapVaultError("put timeline", t.Key().String(), err)
	}
	return nil
}

// Get retrieves and decodes the timeline for a key.
func (v *PostgresVault) Get(ctx context.Context, key timeline.Key) (*timeline.Timeline, error) {
	var payload, checksum []byte
	err := v.pool.QueryRow(ctx,
		`SELECT payload, checksum FROM timelines WHERE actor_id = $1 AND arena_id = $2`,
		key.Actor.String(), int16(key.Arena)).Scan(&payload, &checksum)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("TIMELINE_NOT_FOUND").With("key", key.String()).Wrap(ErrNotFound)
	}
	if err != nil {
		return nil, mapVaultError("get timeline", key.String(), err)
	}
	return decodeRecord(key, payload, checksum)
}

// ByArena returns all stored timelines for an arena, ordered by actor ID.
// Corrupt entries are skipped and their keys reported separately so the
// caller can fail closed per recording.
func (v *PostgresVault) ByArena(ctx context.Context, arenaID arena.ID) ([]*timeline.Timeline, []timeline.Key, error) {
	rows, err := v.pool.Query(ctx,
		`SELECT actor_id, payload, checksum FROM timelines WHERE arena_id = $1 ORDER BY actor_id`,
		int16(arenaID))
	if err != nil {
		return nil, nil, mapVaultError("list timelines", "", err)
	}
	defer rows.Close()

	var out []*timeline.Timeline
	var corrupt []timeline.Key
	for rows.Next() {
		var actorStr string
		var payload, checksum []byte
		if err := rows.Scan(&actorStr, &payload, &checksum); err != nil {
			return nil, nil, oops.Code("VAULT_SCAN_FAILED").Wrap(err)
		}
		actor, err := ulid.Parse(actorStr)
		if err != nil {
			corrupt = append(corrupt, timeline.Key{Arena: arenaID})
			continue
		}
		key := timeline.Key{Actor: actor, Arena: arenaID}
		t, err := decodeRecord(key, payload, checksum)
		if err != nil {
			corrupt = append(corrupt, key)
			continue
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, oops.Code("VAULT_ITERATE_FAILED").Wrap(err)
	}
	return out, corrupt, nil
}

// Delete removes the timeline for a key.
func (v *PostgresVault) Delete(ctx context.Context, key timeline.Key) error {
	_, err := v.pool.Exec(ctx,
		`DELETE FROM timelines WHERE actor_id = $1 AND arena_id = $2`,
		key.Actor.String(), int16(key.Arena))
	if err != nil {
		return mapVaultError("delete timeline", key.String(), err)
	}
	return nil
}

// Save stores a snapshot, replacing any prior snapshot for its arena.
func (v *PostgresVault) Save(ctx context.Context, snap Snapshot) error {
	ids := make([]string, len(snap.ActiveRosterIDs))
	for i, id := range snap.ActiveRosterIDs {
		ids[i] = id.String()
	}
	_, err := v.pool.Exec(ctx,
		`INSERT INTO snapshots (arena_id, last_timestamp, roster_ids, roster_count)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (arena_id)
		 DO UPDATE SET last_timestamp = $2, roster_ids = $3, roster_count = $4`,
		int16(snap.Arena), snap.LastTimestamp, ids, int32(snap.ActiveRosterCount))
	if err != nil {
		return mapVaultError("save snapshot", "", err)
	}
	return nil
}

// Load retrieves the snapshot for an arena.
func (v *PostgresVault) Load(ctx context.Context, arenaID arena.ID) (Snapshot, error) {
	var ts int64
	var ids []string
	var count int32
	err := v.pool.QueryRow(ctx,
		`SELECT last_timestamp, roster_ids, roster_count FROM snapshots WHERE arena_id = $1`,
		int16(arenaID)).Scan(&ts, &ids, &count)
	if errors.Is(err, pgx.ErrNoRows) {
		return Snapshot{}, oops.Code("SNAPSHOT_NOT_FOUND").With("arena", arenaID).Wrap(ErrNotFound)
	}
	if err != nil {
		return Snapshot{}, mapVaultError("load snapshot", "", err)
	}
	return buildSnapshot(arenaID, ts, ids, count)
}

// LoadAll retrieves every stored snapshot, ordered by arena ID.
func (v *PostgresVault) LoadAll(ctx context.Context) ([]Snapshot, error) {
	rows, err := v.pool.Query(ctx,
		`SELECT arena_id, last_timestamp, roster_ids, roster_count FROM snapshots ORDER BY arena_id`)
	if err != nil {
		return nil, mapVaultError("load snapshots", "", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var arenaID int16
		var ts int64
		var ids []string
		var count int32
		if err := rows.Scan(&arenaID, &ts, &ids, &count); err != nil {
			return nil, oops.Code("VAULT_SCAN_FAILED").Wrap(err)
		}
		snap, err := buildSnapshot(arena.ID(arenaID), ts, ids, count)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("VAULT_ITERATE_FAILED").Wrap(err)
	}
	return out, nil
}

func buildSnapshot(arenaID arena.ID, ts int64, ids []string, count int32) (Snapshot, error) {
	roster := make([]ulid.ULID, 0, len(ids))
	for _, s := range ids {
		id, err := ulid.Parse(s)
		if err != nil {
			return Snapshot{}, oops.Code("SNAPSHOT_CORRUPT").With("arena", arenaID).Wrap(err)
		}
		roster = append(roster, id)
	}
	return Snapshot{
		Arena:             arenaID,
		LastTimestamp:     ts,
		ActiveRosterIDs:   roster,
		ActiveRosterCount: uint32(count),
	}, nil
}

// mapVaultError wraps database errors with vault context. A missing table
// gets a dedicated code so the CLI can point the user at `ghostloop
// migrate` instead of surfacing raw SQL state.
func mapVaultError(op, key string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UndefinedTable {
		return oops.Code("VAULT_SCHEMA_MISSING").
			With("operation", op).
			Errorf("vault schema missing, run `ghostloop migrate`: %v", err)
	}
	builder := oops.Code("VAULT_OP_FAILED").With("operation", op)
	if key != "" {
		builder = builder.With("key", key)
	}
	return builder.Wrap(err)
}
