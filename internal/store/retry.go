// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ghostloop Contributors

package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// OpenVault connects to the PostgreSQL vault, retrying with exponential
// backoff until the database answers a ping. The engine starts before the
// database in most dev setups, so a cold start should wait rather than die.
func OpenVault(ctx context.Context, dsn string, tickRate int, maxWait time.Duration) (*PostgresVault, error) {
	vault, err := NewPostgresVault(ctx, dsn, tickRate)
	if err != nil {
		return nil, err
	}

	backoff := retry.NewExponential(500 * time.Millisecond)
	backoff = retry.WithMaxDuration(maxWait, backoff)

	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if pingErr := vault.Ping(ctx); pingErr != nil {
			slog.Warn("vault not reachable yet, retrying", "error", pingErr)
			return retry.RetryableError(pingErr)
		}
		return nil
	})
	if err != nil {
		vault.Close()
		return nil, oops.Code("VAULT_UNAVAILABLE").
			With("max_wait", maxWait.String()).
			Wrap(err)
	}

	return vault, nil
}
