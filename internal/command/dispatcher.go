// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ghostloop Contributors

package command

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("ghostloop/command")

// Sink receives validated commands. The engine implements this; Enqueue
// must not block, returning a QUEUE_FULL error when saturated.
type Sink interface {
	Enqueue(cmd Command) error
}

// Dispatcher parses and routes shell input into a Sink, recording traces
// and metrics along the way.
type Dispatcher struct {
	sink   Sink
	logger *slog.Logger
}

// NewDispatcher creates a dispatcher feeding the given sink.
func NewDispatcher(sink Sink, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{sink: sink, logger: logger}
}

// DispatchLine parses one line of input and enqueues the resulting command.
// The returned error carries an oops code; callers show Dialog(err) to the
// player rather than the raw error.
func (d *Dispatcher) DispatchLine(ctx context.Context, line string) error {
	cmd, err := Parse(line)
	if err != nil {
		observeDispatch("parse", StatusNotFound, time.Now())
		return err
	}
	return d.Dispatch(ctx, cmd)
}

// Dispatch enqueues a typed command.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd Command) error {
	start := time.Now()
	_, span := tracer.Start(ctx, "command.dispatch")
	span.SetAttributes(attribute.String("command.name", cmd.Name()))
	defer span.End()

	if err := d.sink.Enqueue(cmd); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "enqueue failed")
		observeDispatch(cmd.Name(), StatusRejected, start)
		d.logger.Warn("command rejected", "command", cmd.Name(), "error", err)
		return err
	}

	observeDispatch(cmd.Name(), StatusSuccess, start)
	return nil
}
