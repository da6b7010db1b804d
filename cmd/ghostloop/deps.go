// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ghostloop Contributors

package main

import (
	"context"
	"io"

	"github.com/ghostloop/ghostloop/internal/config"
	"github.com/ghostloop/ghostloop/internal/content"
	"github.com/ghostloop/ghostloop/internal/observability"
	"github.com/ghostloop/ghostloop/internal/store"
)

// RunDeps contains injectable dependencies for the run command.
// All fields with nil values will use their default implementations.
type RunDeps struct {
	// VaultOpener opens the timeline vault. Default: store.OpenVault for a
	// configured DSN, an in-memory vault otherwise.
	VaultOpener func(ctx context.Context, cfg config.VaultConfig, tickRate int) (Vault, store.AliasRepository, error)

	// CatalogLoader loads the content catalog. Default: content.Load.
	CatalogLoader func(path string) (*content.Catalog, error)

	// ObservabilityServerFactory creates an observability server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, readinessChecker observability.ReadinessChecker) ObservabilityServer

	// ScriptReader reads boss script sources. Default: os.ReadFile.
	ScriptReader func(path string) ([]byte, error)

	// Input is the shell's input stream. Default: os.Stdin.
	Input io.Reader
}

// Vault interface wraps the persistence methods the run command needs from
// store.PostgresVault and store.MemoryVault.
type Vault interface {
	store.TimelineVault
	store.SnapshotStore
	Close()
}

// ObservabilityServer interface wraps the methods used from
// observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
}
