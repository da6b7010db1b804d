// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ghostloop Contributors

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghostloop/ghostloop/internal/arena"
	"github.com/ghostloop/ghostloop/internal/config"
	"github.com/ghostloop/ghostloop/internal/store"
	"github.com/ghostloop/ghostloop/internal/timeline"
)

// seedVault builds an in-memory vault with two recordings and a snapshot.
func seedVault(t *testing.T) (*store.MemoryVault, ulid.ULID, ulid.ULID) {
	t.Helper()

	vault := store.NewMemoryVault(arena.DefaultTickRate)
	ctx := context.Background()

	actorA := ulid.Make()
	actorB := ulid.Make()

	tlA, err := timeline.NewBuilder(timeline.Key{Actor: actorA, Arena: 1}, 2400).
		Append(timeline.Move(arena.North, 0, 40)).
		Build()
	require.NoError(t, err)
	require.NoError(t, vault.Put(ctx, tlA))

	tlB, err := timeline.NewBuilder(timeline.Key{Actor: actorB, Arena: 2}, 2400).
		Append(timeline.Move(arena.East, 10, 50)).
		Append(timeline.Death(arena.Cell{X: 3, Y: 4}, 60)).
		Build()
	require.NoError(t, err)
	require.NoError(t, vault.Put(ctx, tlB))

	require.NoError(t, vault.Save(ctx, store.Snapshot{
		Arena:             1,
		LastTimestamp:     time.Now().UnixMilli(),
		ActiveRosterIDs:   []ulid.ULID{actorA},
		ActiveRosterCount: 1,
	}))

	return vault, actorA, actorB
}

// withStatusVault installs a fake vault factory and a config file with a
// dummy DSN, restoring both on cleanup.
func withStatusVault(t *testing.T, vault *store.MemoryVault) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path,
		[]byte("vault:\n  dsn: postgres://localhost/ghostloop\n"), 0o600))

	oldConfig := configFile
	oldFactory := statusVaultFactory
	configFile = path
	statusVaultFactory = func(context.Context, config.VaultConfig, int) (Vault, error) {
		return noCloseVault{vault}, nil
	}
	t.Cleanup(func() {
		configFile = oldConfig
		statusVaultFactory = oldFactory
	})
}

func execStatus(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(append([]string{"status"}, args...))
	err := cmd.Execute()
	return buf.String(), err
}

func TestStatusCommand_NoDSN(t *testing.T) {
	oldConfig := configFile
	configFile = ""
	t.Cleanup(func() { configFile = oldConfig })

	_, err := execStatus(t)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DSN")
}

func TestStatusCommand_Table(t *testing.T) {
	vault, actorA, actorB := seedVault(t)
	withStatusVault(t, vault)

	out, err := execStatus(t)
	require.NoError(t, err)
	assert.Contains(t, out, actorA.String())
	assert.Contains(t, out, actorB.String())
	assert.Contains(t, out, "SNAPSHOT")
}

func TestStatusCommand_ArenaFilter(t *testing.T) {
	vault, actorA, actorB := seedVault(t)
	withStatusVault(t, vault)

	out, err := execStatus(t, "--arena", "2")
	require.NoError(t, err)
	assert.NotContains(t, out, actorA.String())
	assert.Contains(t, out, actorB.String())
}

func TestStatusCommand_ActorGlob(t *testing.T) {
	vault, actorA, actorB := seedVault(t)
	withStatusVault(t, vault)

	out, err := execStatus(t, "--actor", actorA.String())
	require.NoError(t, err)
	assert.Contains(t, out, actorA.String())
	assert.NotContains(t, out, actorB.String())
}

func TestStatusCommand_JSON(t *testing.T) {
	vault, _, _ := seedVault(t)
	withStatusVault(t, vault)

	out, err := execStatus(t, "--json")
	require.NoError(t, err)

	var status VaultStatus
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	assert.Len(t, status.Timelines, 2)
	require.Len(t, status.Snapshots, 1)
	assert.Equal(t, uint8(1), status.Snapshots[0].Arena)
	assert.Equal(t, uint32(1), status.Snapshots[0].Roster)
}

func TestStatusCommand_BadGlob(t *testing.T) {
	vault, _, _ := seedVault(t)
	withStatusVault(t, vault)

	_, err := execStatus(t, "--actor", "[")
	require.Error(t, err)
}

func TestStatusCommand_ArenaOutOfRange(t *testing.T) {
	vault, _, _ := seedVault(t)
	withStatusVault(t, vault)

	_, err := execStatus(t, "--arena", "300")
	require.Error(t, err)
}
