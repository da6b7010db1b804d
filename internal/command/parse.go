// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ghostloop Contributors

package command

import (
	"strconv"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/ghostloop/ghostloop/internal/arena"
)

// Parse turns one line of shell input into a Command. The shell grammar is
// flat: a verb followed by space-separated arguments.
func Parse(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, ErrInvalidArgs("", "")
	}
	verb := strings.ToLower(fields[0])
	entry, ok := registry[verb]
	if !ok {
		return nil, ErrUnknownCommand(verb)
	}
	cmd, err := entry.parse(fields[1:])
	if err != nil {
		return nil, ErrInvalidArgs(verb, entry.usage)
	}
	return cmd, nil
}

// Usage returns the usage string for a verb, or "" if unknown.
func Usage(verb string) string {
	entry, ok := registry[strings.ToLower(verb)]
	if !ok {
		return ""
	}
	return entry.usage
}

// Verbs returns all registered verbs, for help output.
func Verbs() []string {
	verbs := make([]string, 0, len(registry))
	for v := range registry {
		verbs = append(verbs, v)
	}
	return verbs
}

func parseActorID(s string) (ulid.ULID, error) {
	return ulid.ParseStrict(strings.ToUpper(s))
}

func parseArenaID(s string) (arena.ID, error) {
	n, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, err
	}
	return arena.ID(n), nil
}

func parseSlot(s string) (uint8, error) {
	n, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, err
	}
	if n >= arena.MaxAbilitySlots {
		return 0, strconv.ErrRange
	}
	return uint8(n), nil
}

func parseCell(xs, ys string) (arena.Cell, error) {
	x, err := strconv.ParseUint(xs, 10, 16)
	if err != nil {
		return arena.Cell{}, err
	}
	y, err := strconv.ParseUint(ys, 10, 16)
	if err != nil {
		return arena.Cell{}, err
	}
	return arena.Cell{X: uint16(x), Y: uint16(y)}, nil
}
