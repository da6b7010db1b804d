// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ghostloop Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/ghostloop/ghostloop/internal/arena"
	"github.com/ghostloop/ghostloop/internal/config"
	"github.com/ghostloop/ghostloop/internal/content"
	"github.com/ghostloop/ghostloop/internal/engine"
	"github.com/ghostloop/ghostloop/internal/logging"
	"github.com/ghostloop/ghostloop/internal/observability"
	"github.com/ghostloop/ghostloop/internal/offline"
	"github.com/ghostloop/ghostloop/internal/script"
	"github.com/ghostloop/ghostloop/internal/store"
)

// NewRunCmd creates the run subcommand.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the engine and the interactive shell",
		Long: `Start the simulation engine, load ghosts from the vault, post any
pending offline reports, and read commands from standard input.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWithDeps(cmd.Context(), cmd, nil)
		},
	}

	// Flag names mirror config keys so they layer over the file.
	cmd.Flags().String("vault.dsn", "", "PostgreSQL DSN (empty = in-memory vault)")
	cmd.Flags().String("content.catalog_path", "", "content catalog path")
	cmd.Flags().String("metrics.addr", "", "metrics/health HTTP address")
	cmd.Flags().String("log.level", "", "log level (debug, info, warn, error)")
	cmd.Flags().String("log.format", "", "log format (text or json)")

	return cmd
}

// noCloseVault adapts the in-memory vault to the Vault interface.
type noCloseVault struct {
	*store.MemoryVault
}

func (noCloseVault) Close() {}

// runWithDeps starts the engine with injectable dependencies. If deps is
// nil, default implementations are used.
func runWithDeps(ctx context.Context, cmd *cobra.Command, deps *RunDeps) error {
	if deps == nil {
		deps = &RunDeps{}
	}
	if deps.VaultOpener == nil {
		deps.VaultOpener = openVault
	}
	if deps.CatalogLoader == nil {
		deps.CatalogLoader = content.Load
	}
	if deps.ObservabilityServerFactory == nil {
		deps.ObservabilityServerFactory = func(addr string, rc observability.ReadinessChecker) ObservabilityServer {
			return observability.NewServer(addr, rc)
		}
	}
	if deps.ScriptReader == nil {
		deps.ScriptReader = os.ReadFile
	}
	if deps.Input == nil {
		deps.Input = os.Stdin
	}

	cfg, err := config.Load(resolveConfigFile(), cmd.Flags())
	if err != nil {
		return err
	}

	logging.SetDefault("ghostloop", version, cfg.Log.Level, cfg.Log.Format)
	logger := slog.Default()

	catalog, err := deps.CatalogLoader(cfg.Content.CatalogPath)
	if err != nil {
		return err
	}

	var reward offline.RewardFunc
	if cfg.Offline.RewardScript != "" {
		src, readErr := deps.ScriptReader(cfg.Offline.RewardScript)
		if readErr != nil {
			return oops.Code("REWARD_SCRIPT_UNREADABLE").
				With("path", cfg.Offline.RewardScript).
				Wrap(readErr)
		}
		reward, err = offline.LuaReward(string(src))
		if err != nil {
			return err
		}
	}

	vault, aliases, err := deps.VaultOpener(ctx, cfg.Vault, cfg.Engine.TickRate)
	if err != nil {
		return err
	}
	defer vault.Close()

	cycleTicks := arena.Tick(cfg.Engine.TickRate * cfg.Engine.CycleSeconds)
	countdownTicks := arena.Tick(cfg.Engine.TickRate * cfg.Engine.CountdownSeconds)

	roster := arena.NewRoster()
	eng := engine.New(engine.Config{
		TickRate:       cfg.Engine.TickRate,
		CycleTicks:     cycleTicks,
		CountdownTicks: countdownTicks,
		CommandBuffer:  cfg.Engine.CommandBuffer,
		FeedCapacity:   cfg.Offline.FeedCapacity,
		Reward:         reward,
		JoinHealth:     100,
		ClassSlots: func(class arena.Class) ([]string, bool) {
			slots := catalog.ClassSlots(class)
			return slots, slots != nil
		},
	}, roster, catalog, vault, vault, logger)

	if err := loadArenas(ctx, eng, roster, catalog, vault, deps, cfg); err != nil {
		return err
	}

	if err := eng.RunOffline(ctx); err != nil {
		logger.Warn("offline estimation failed", "error", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var obsServer ObservabilityServer
	if cfg.Metrics.Enabled {
		obsServer = deps.ObservabilityServerFactory(cfg.Metrics.Addr, func() bool { return true })
		obsErrChan, startErr := obsServer.Start()
		if startErr != nil {
			return startErr
		}
		go monitorServerErrors(ctx, cancel, obsErrChan, "observability")
		logger.Info("observability server started", "addr", obsServer.Addr())
	}

	loop := engine.NewLoop(eng, cfg.Engine.TickRate, logger)
	loopErrChan := make(chan error, 1)
	go func() {
		loopErrChan <- loop.Run(ctx)
	}()

	shell := newShell(eng, aliases, deps.Input, cmd.OutOrStdout(), logger)
	go shell.run(ctx, cancel)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	cmd.Println("Engine started. Type 'help' for commands, 'quit' to exit.")
	logger.Info("engine ready",
		"arenas", len(catalog.Arenas),
		"tick_rate", cfg.Engine.TickRate,
		"vault", vaultKind(cfg.Vault.DSN),
	)

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig)
	case <-ctx.Done():
		logger.Info("context cancelled, shutting down")
	}
	cancel()
	<-loopErrChan

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := eng.Shutdown(shutdownCtx); err != nil {
		logger.Warn("error saving shutdown snapshots", "error", err)
	}
	if obsServer != nil {
		if err := obsServer.Stop(shutdownCtx); err != nil {
			logger.Warn("error stopping observability server", "error", err)
		}
	}

	logger.Info("shutdown complete")
	return nil
}

// openVault is the default VaultOpener: PostgreSQL when a DSN is
// configured, in-memory otherwise.
func openVault(ctx context.Context, cfg config.VaultConfig, tickRate int) (Vault, store.AliasRepository, error) {
	if cfg.DSN == "" {
		slog.Warn("no vault DSN configured, recordings will not survive restarts")
		return noCloseVault{store.NewMemoryVault(tickRate)}, store.NewMemoryAliasRepository(), nil
	}
	maxWait := time.Duration(cfg.ConnectWaitSeconds) * time.Second
	vault, err := store.OpenVault(ctx, cfg.DSN, tickRate, maxWait)
	if err != nil {
		return nil, nil, err
	}
	return vault, store.NewPostgresAliasRepository(vault.Pool()), nil
}

// loadArenas registers the catalog's arenas, compiles their boss scripts
// into the vault, and loads ghosts for each.
func loadArenas(ctx context.Context, eng *engine.Engine, roster *arena.Roster, catalog *content.Catalog, vault Vault, deps *RunDeps, cfg config.Config) error {
	defs := make([]content.ArenaDef, len(catalog.Arenas))
	copy(defs, catalog.Arenas)
	sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })

	cycleTicks := arena.Tick(cfg.Engine.TickRate * cfg.Engine.CycleSeconds)
	countdownTicks := arena.Tick(cfg.Engine.TickRate * cfg.Engine.CountdownSeconds)

	for _, def := range defs {
		ar := arena.New(arena.ID(def.ID), def.Name,
			arena.Grid{Width: def.Grid.Width, Height: def.Grid.Height},
			arena.NewClock(arena.ClockConfig{
				CycleTicks:     cycleTicks,
				CountdownTicks: countdownTicks,
			}))
		eng.AddArena(ar)

		if def.BossScript != "" {
			if err := installBoss(ctx, vault, roster, catalog, ar, deps, def, cfg.Engine.TickRate, cycleTicks); err != nil {
				return err
			}
		}
		if err := eng.LoadGhosts(ctx, arena.ID(def.ID)); err != nil {
			return err
		}
	}
	return nil
}

// bossLevel and bossHealth apply to every scripted boss; the catalog's
// boss class supplies the ability slots.
const (
	bossLevel  = 1
	bossHealth = 500
)

// installBoss compiles an arena's boss script, registers the boss on the
// roster, and stores the resulting timeline so LoadGhosts picks it up like
// any committed recording.
func installBoss(ctx context.Context, vault Vault, roster *arena.Roster, catalog *content.Catalog, ar *arena.Arena, deps *RunDeps, def content.ArenaDef, tickRate int, cycleTicks arena.Tick) error {
	src, err := deps.ScriptReader(def.BossScript)
	if err != nil {
		return oops.Code("BOSS_SCRIPT_UNREADABLE").
			With("arena", def.ID).
			With("path", def.BossScript).
			Wrap(err)
	}
	parsed, err := script.Parse(string(src))
	if err != nil {
		return oops.With("arena", def.ID).With("path", def.BossScript).Wrap(err)
	}
	boss, err := arena.NewActor(parsed.Name, arena.ClassBoss, bossLevel, bossHealth,
		catalog.ClassSlots(arena.ClassBoss))
	if err != nil {
		return oops.With("arena", def.ID).With("path", def.BossScript).Wrap(err)
	}
	if err := roster.Add(boss); err != nil {
		return oops.With("arena", def.ID).Wrap(err)
	}
	ar.BindBoss(boss.ID)
	tl, err := script.Compile(string(src), boss.ID, tickRate, cycleTicks)
	if err != nil {
		return oops.With("arena", def.ID).With("path", def.BossScript).Wrap(err)
	}
	if tl.Key().Arena != arena.ID(def.ID) {
		return oops.Code("BOSS_SCRIPT_ARENA_MISMATCH").
			With("arena", def.ID).
			With("script_arena", tl.Key().Arena).
			Errorf("boss script %s targets arena %d, assigned to arena %d",
				def.BossScript, tl.Key().Arena, def.ID)
	}
	return vault.Put(ctx, tl)
}

func vaultKind(dsn string) string {
	if dsn == "" {
		return "memory"
	}
	return "postgres"
}

// monitorServerErrors cancels the run context when a background server
// reports an error, so a dead metrics endpoint takes the process down
// instead of lingering silently.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
	}
}
