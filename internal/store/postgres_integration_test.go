// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ghostloop Contributors

//go:build integration

package store_test

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ghostloop/ghostloop/internal/arena"
	"github.com/ghostloop/ghostloop/internal/store"
	"github.com/ghostloop/ghostloop/internal/timeline"
)

// setupPostgresVault starts a PostgreSQL container, migrates it, and opens
// a vault against it.
func setupPostgresVault() (*store.PostgresVault, func(), error) {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("ghostloop_test"),
		postgres.WithUsername("ghostloop"),
		postgres.WithPassword("ghostloop"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, nil, err
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, nil, err
	}

	migrator, err := store.NewMigrator(connStr)
	if err != nil {
		return nil, nil, err
	}
	if err := migrator.Up(); err != nil {
		return nil, nil, err
	}
	_ = migrator.Close()

	vault, err := store.NewPostgresVault(ctx, connStr, arena.DefaultTickRate)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		vault.Close()
		_ = container.Terminate(ctx)
	}
	return vault, cleanup, nil
}

var _ = Describe("PostgresVault", func() {
	var vault *store.PostgresVault
	var cleanup func()

	BeforeEach(func() {
		var err error
		vault, cleanup, err = setupPostgresVault()
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		cleanup()
	})

	record := func(key timeline.Key) *timeline.Timeline {
		tl, err := timeline.NewBuilder(key, 2400).
			Append(timeline.Move(arena.North, 0, 40)).
			Append(timeline.AbilityStart(1, arena.Cell{X: 4, Y: 4}, 12, 40)).
			Build()
		Expect(err).NotTo(HaveOccurred())
		return tl
	}

	Describe("timelines", func() {
		It("round-trips a recording", func() {
			ctx := context.Background()
			key := timeline.Key{Actor: ulid.Make(), Arena: 1}
			tl := record(key)

			Expect(vault.Put(ctx, tl)).To(Succeed())

			got, err := vault.Get(ctx, key)
			Expect(err).NotTo(HaveOccurred())
			Expect(tl.Equal(got)).To(BeTrue())
		})

		It("replaces a recording on re-put", func() {
			ctx := context.Background()
			key := timeline.Key{Actor: ulid.Make(), Arena: 1}
			Expect(vault.Put(ctx, record(key))).To(Succeed())

			replacement, err := timeline.NewBuilder(key, 2400).
				Append(timeline.Move(arena.East, 0, 20)).
				Build()
			Expect(err).NotTo(HaveOccurred())
			Expect(vault.Put(ctx, replacement)).To(Succeed())

			got, err := vault.Get(ctx, key)
			Expect(err).NotTo(HaveOccurred())
			Expect(replacement.Equal(got)).To(BeTrue())
		})

		It("lists an arena ordered by actor ID", func() {
			ctx := context.Background()
			for range 3 {
				key := timeline.Key{Actor: ulid.Make(), Arena: 2}
				Expect(vault.Put(ctx, record(key))).To(Succeed())
			}
			Expect(vault.Put(ctx, record(timeline.Key{Actor: ulid.Make(), Arena: 3}))).To(Succeed())

			got, corrupt, err := vault.ByArena(ctx, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(corrupt).To(BeEmpty())
			Expect(got).To(HaveLen(3))
			for i := 1; i < len(got); i++ {
				Expect(got[i-1].Key().Actor.Compare(got[i].Key().Actor)).To(BeNumerically("<", 0))
			}
		})

		It("deletes a recording", func() {
			ctx := context.Background()
			key := timeline.Key{Actor: ulid.Make(), Arena: 1}
			Expect(vault.Put(ctx, record(key))).To(Succeed())
			Expect(vault.Delete(ctx, key)).To(Succeed())

			_, err := vault.Get(ctx, key)
			Expect(err).To(MatchError(store.ErrNotFound))
		})
	})

	Describe("snapshots", func() {
		It("round-trips a snapshot per arena", func() {
			ctx := context.Background()
			snap := store.Snapshot{
				Arena:             1,
				LastTimestamp:     time.Now().UnixMilli(),
				ActiveRosterIDs:   []ulid.ULID{ulid.Make(), ulid.Make()},
				ActiveRosterCount: 2,
			}
			Expect(vault.Save(ctx, snap)).To(Succeed())

			got, err := vault.Load(ctx, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(snap))

			all, err := vault.LoadAll(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(1))
		})
	})

	Describe("aliases", func() {
		It("stores system and actor aliases", func() {
			ctx := context.Background()
			repo := store.NewPostgresAliasRepository(vault.Pool())
			actorID := ulid.Make()

			Expect(repo.SetSystemAlias(ctx, "n", "move north")).To(Succeed())
			Expect(repo.SetActorAlias(ctx, actorID, "rec", "start")).To(Succeed())

			system, err := repo.GetSystemAliases(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(system).To(HaveKeyWithValue("n", "move north"))

			actor, err := repo.GetActorAliases(ctx, actorID)
			Expect(err).NotTo(HaveOccurred())
			Expect(actor).To(HaveKeyWithValue("rec", "start"))
		})
	})
})
