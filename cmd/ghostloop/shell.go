// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ghostloop Contributors

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/ghostloop/ghostloop/internal/command"
	"github.com/ghostloop/ghostloop/internal/engine"
	"github.com/ghostloop/ghostloop/internal/store"
)

// shell reads player input line by line and routes it into the engine.
// A few verbs (alias management, feed, help, quit) are handled locally;
// everything else goes through the command dispatcher.
type shell struct {
	engine     *engine.Engine
	aliases    store.AliasRepository
	dispatcher *command.Dispatcher
	in         io.Reader
	out        io.Writer
	logger     *slog.Logger
}

func newShell(eng *engine.Engine, aliases store.AliasRepository, in io.Reader, out io.Writer, logger *slog.Logger) *shell {
	if logger == nil {
		logger = slog.Default()
	}
	return &shell{
		engine:     eng,
		aliases:    aliases,
		dispatcher: command.NewDispatcher(eng, logger),
		in:         in,
		out:        out,
		logger:     logger,
	}
}

// run consumes input until EOF or context cancellation. EOF cancels the
// run context so a closed stdin shuts the process down cleanly.
func (s *shell) run(ctx context.Context, cancel context.CancelFunc) {
	scanner := bufio.NewScanner(s.in)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if quit := s.handleLine(ctx, strings.TrimSpace(scanner.Text())); quit {
			cancel()
			return
		}
	}
	if err := scanner.Err(); err != nil {
		s.logger.Warn("shell input error", "error", err)
	}
	cancel()
}

// handleLine processes one input line. It returns true when the shell
// should exit.
func (s *shell) handleLine(ctx context.Context, line string) bool {
	if line == "" {
		return false
	}

	fields := strings.Fields(line)
	switch strings.ToLower(fields[0]) {
	case "quit", "exit":
		return true
	case "help":
		s.printHelp()
		return false
	case "feed":
		s.printFeed()
		return false
	case "alias":
		s.handleAlias(ctx, fields[1:])
		return false
	case "unalias":
		s.handleUnalias(ctx, fields[1:])
		return false
	}

	expanded := s.expand(ctx, fields)
	if err := s.dispatcher.DispatchLine(ctx, expanded); err != nil {
		fmt.Fprintln(s.out, command.Dialog(err))
	}
	return false
}

// expand replaces the verb with its alias expansion, if one exists. The
// controlled actor's aliases shadow system ones; expansion runs once, so
// aliases cannot recurse.
func (s *shell) expand(ctx context.Context, fields []string) string {
	verb := strings.ToLower(fields[0])

	if actorID := s.engine.CurrentActor(); !actorID.IsZero() {
		if actorAliases, err := s.aliases.GetActorAliases(ctx, actorID); err == nil {
			if expansion, ok := actorAliases[verb]; ok {
				return strings.Join(append([]string{expansion}, fields[1:]...), " ")
			}
		}
	}
	if systemAliases, err := s.aliases.GetSystemAliases(ctx); err == nil {
		if expansion, ok := systemAliases[verb]; ok {
			return strings.Join(append([]string{expansion}, fields[1:]...), " ")
		}
	}
	return strings.Join(fields, " ")
}

// handleAlias lists aliases with no arguments, otherwise defines one for
// the controlled actor (or system-wide before any actor joins).
func (s *shell) handleAlias(ctx context.Context, args []string) {
	if len(args) == 0 {
		s.printAliases(ctx)
		return
	}
	if len(args) < 2 {
		fmt.Fprintln(s.out, "Usage: alias <name> <command...>")
		return
	}

	name := strings.ToLower(args[0])
	expansion := strings.Join(args[1:], " ")

	var err error
	if actorID := s.engine.CurrentActor(); !actorID.IsZero() {
		err = s.aliases.SetActorAlias(ctx, actorID, name, expansion)
	} else {
		err = s.aliases.SetSystemAlias(ctx, name, expansion)
	}
	if err != nil {
		fmt.Fprintln(s.out, command.Dialog(err))
		return
	}
	fmt.Fprintf(s.out, "Alias %q set.\n", name)
}

func (s *shell) handleUnalias(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.out, "Usage: unalias <name>")
		return
	}

	name := strings.ToLower(args[0])
	var err error
	if actorID := s.engine.CurrentActor(); !actorID.IsZero() {
		err = s.aliases.DeleteActorAlias(ctx, actorID, name)
	} else {
		err = s.aliases.DeleteSystemAlias(ctx, name)
	}
	if err != nil {
		fmt.Fprintln(s.out, command.Dialog(err))
		return
	}
	fmt.Fprintf(s.out, "Alias %q removed.\n", name)
}

func (s *shell) printAliases(ctx context.Context) {
	system, err := s.aliases.GetSystemAliases(ctx)
	if err != nil {
		fmt.Fprintln(s.out, command.Dialog(err))
		return
	}
	for name, expansion := range system {
		fmt.Fprintf(s.out, "%s = %s\n", name, expansion)
	}
	if actorID := s.engine.CurrentActor(); !actorID.IsZero() {
		actor, err := s.aliases.GetActorAliases(ctx, actorID)
		if err != nil {
			fmt.Fprintln(s.out, command.Dialog(err))
			return
		}
		for name, expansion := range actor {
			fmt.Fprintf(s.out, "%s = %s (yours)\n", name, expansion)
		}
	}
}

func (s *shell) printFeed() {
	entries := s.engine.Feed().Entries()
	if len(entries) == 0 {
		fmt.Fprintln(s.out, "The feed is empty.")
		return
	}
	for _, e := range entries {
		fmt.Fprintf(s.out, "[%s] %s\n", e.At.Format("15:04:05"), e.Text)
	}
}

func (s *shell) printHelp() {
	fmt.Fprint(s.out, `Commands:
  join <name> <class>    join the roster
  start <actor-ulid>     start recording an actor
  stop | commit | cancel end the current recording
  move <dir>             start running (north/south/east/west)
  cast <slot> <x> <y>    start casting an ability
  release <slot>         release a held ability
  arena <id>             switch the viewed arena
  actor <ulid>           request an actor switch
  confirm <yes|no>       answer a pending switch prompt
  pause | resume [id]    pause or resume the world or one arena
  alias [name cmd...]    list or define aliases
  unalias <name>         remove an alias
  feed                   show recent notifications
  quit                   exit
`)
}
