// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ghostloop Contributors

package store

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// AliasRepository stores shell verb shortcuts. System aliases apply to every
// session; actor aliases are bound to a recorded actor and override system
// ones when both define the same shortcut.
type AliasRepository interface {
	GetSystemAliases(ctx context.Context) (map[string]string, error)
	SetSystemAlias(ctx context.Context, alias, command string) error
	DeleteSystemAlias(ctx context.Context, alias string) error

	GetActorAliases(ctx context.Context, actorID ulid.ULID) (map[string]string, error)
	SetActorAlias(ctx context.Context, actorID ulid.ULID, alias, command string) error
	DeleteActorAlias(ctx context.Context, actorID ulid.ULID, alias string) error
}

// PostgresAliasRepository implements AliasRepository on PostgreSQL.
type PostgresAliasRepository struct {
	pool poolIface
}

// NewPostgresAliasRepository creates an alias repository on an existing pool.
func NewPostgresAliasRepository(pool poolIface) *PostgresAliasRepository {
	return &PostgresAliasRepository{pool: pool}
}

// GetSystemAliases retrieves all system-wide aliases.
func (r *PostgresAliasRepository) GetSystemAliases(ctx context.Context) (map[string]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT alias, command FROM system_aliases`)
	if err != nil {
		return nil, mapVaultError("get system aliases", "", err)
	}
	defer rows.Close()
	return scanAliases(rows.Next, rows.Scan, rows.Err)
}

// SetSystemAlias creates or updates a system-wide alias.
func (r *PostgresAliasRepository) SetSystemAlias(ctx context.Context, alias, command string) error {
	if alias == "" || command == "" {
		return oops.Code("ALIAS_INVALID").
			With("alias", alias).
			Errorf("alias and command must be non-empty")
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO system_aliases (alias, command)
		 VALUES ($1, $2)
		 ON CONFLICT (alias) DO UPDATE SET command = $2`,
		alias, command)
	if err != nil {
		return mapVaultError("set system alias", alias, err)
	}
	return nil
}

// DeleteSystemAlias removes a system-wide alias. Deleting a missing alias is
// not an error.
func (r *PostgresAliasRepository) DeleteSystemAlias(ctx context.Context, alias string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM system_aliases WHERE alias = $1`, alias)
	if err != nil {
		return mapVaultError("delete system alias", alias, err)
	}
	return nil
}

// GetActorAliases retrieves all aliases bound to an actor.
func (r *PostgresAliasRepository) GetActorAliases(ctx context.Context, actorID ulid.ULID) (map[string]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT alias, command FROM actor_aliases WHERE actor_id = $1`,
		actorID.String())
	if err != nil {
		return nil, mapVaultError("get actor aliases", actorID.String(), err)
	}
	defer rows.Close()
	return scanAliases(rows.Next, rows.Scan, rows.Err)
}

// SetActorAlias creates or updates an alias bound to an actor.
func (r *PostgresAliasRepository) SetActorAlias(ctx context.Context, actorID ulid.ULID, alias, command string) error {
	if alias == "" || command == "" {
		return oops.Code("ALIAS_INVALID").
			With("alias", alias).
			With("actor", actorID.String()).
			Errorf("alias and command must be non-empty")
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO actor_aliases (actor_id, alias, command)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (actor_id, alias) DO UPDATE SET command = $3`,
		actorID.String(), alias, command)
	if err != nil {
		return mapVaultError("set actor alias", alias, err)
	}
	return nil
}

// DeleteActorAlias removes an alias bound to an actor.
func (r *PostgresAliasRepository) DeleteActorAlias(ctx context.Context, actorID ulid.ULID, alias string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM actor_aliases WHERE actor_id = $1 AND alias = $2`,
		actorID.String(), alias)
	if err != nil {
		return mapVaultError("delete actor alias", alias, err)
	}
	return nil
}

func scanAliases(next func() bool, scan func(...any) error, rowsErr func() error) (map[string]string, error) {
	aliases := make(map[string]string)
	for next() {
		var alias, command string
		if err := scan(&alias, &command); err != nil {
			return nil, oops.Code("VAULT_SCAN_FAILED").Wrap(err)
		}
		aliases[alias] = command
	}
	if err := rowsErr(); err != nil {
		return nil, oops.Code("VAULT_ITERATE_FAILED").Wrap(err)
	}
	return aliases, nil
}

// MemoryAliasRepository is an in-memory AliasRepository for tests and for
// running without a database.
type MemoryAliasRepository struct {
	system map[string]string
	actor  map[ulid.ULID]map[string]string
}

// NewMemoryAliasRepository creates an empty in-memory alias repository.
func NewMemoryAliasRepository() *MemoryAliasRepository {
	return &MemoryAliasRepository{
		system: make(map[string]string),
		actor:  make(map[ulid.ULID]map[string]string),
	}
}

func (r *MemoryAliasRepository) GetSystemAliases(_ context.Context) (map[string]string, error) {
	out := make(map[string]string, len(r.system))
	for k, v := range r.system {
		out[k] = v
	}
	return out, nil
}

func (r *MemoryAliasRepository) SetSystemAlias(_ context.Context, alias, command string) error {
	if alias == "" || command == "" {
		return oops.Code("ALIAS_INVALID").Errorf("alias and command must be non-empty")
	}
	r.system[alias] = command
	return nil
}

func (r *MemoryAliasRepository) DeleteSystemAlias(_ context.Context, alias string) error {
	delete(r.system, alias)
	return nil
}

func (r *MemoryAliasRepository) GetActorAliases(_ context.Context, actorID ulid.ULID) (map[string]string, error) {
	out := make(map[string]string, len(r.actor[actorID]))
	for k, v := range r.actor[actorID] {
		out[k] = v
	}
	return out, nil
}

func (r *MemoryAliasRepository) SetActorAlias(_ context.Context, actorID ulid.ULID, alias, command string) error {
	if alias == "" || command == "" {
		return oops.Code("ALIAS_INVALID").Errorf("alias and command must be non-empty")
	}
	if r.actor[actorID] == nil {
		r.actor[actorID] = make(map[string]string)
	}
	r.actor[actorID][alias] = command
	return nil
}

func (r *MemoryAliasRepository) DeleteActorAlias(_ context.Context, actorID ulid.ULID, alias string) error {
	delete(r.actor[actorID], alias)
	return nil
}
