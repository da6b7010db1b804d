// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ghostloop Contributors

package command

import (
	"errors"

	"github.com/ghostloop/ghostloop/internal/arena"
)

type registryEntry struct {
	usage string
	parse func(args []string) (Command, error)
}

var errBadArgs = errors.New("bad arguments")

var registry = map[string]registryEntry{
	"join": {
		usage: "join <name> <class>",
		parse: func(args []string) (Command, error) {
			if len(args) != 2 {
				return nil, errBadArgs
			}
			return JoinRoster{ActorName: args[0], Class: arena.Class(args[1])}, nil
		},
	},
	"start": {
		usage: "start <actor-id>",
		parse: func(args []string) (Command, error) {
			if len(args) != 1 {
				return nil, errBadArgs
			}
			id, err := parseActorID(args[0])
			if err != nil {
				return nil, err
			}
			return StartRecording{ActorID: id}, nil
		},
	},
	"stop": {
		usage: "stop",
		parse: func(args []string) (Command, error) {
			if len(args) != 0 {
				return nil, errBadArgs
			}
			return StopRecording{Reason: StopManual}, nil
		},
	},
	"commit": {
		usage: "commit",
		parse: func(args []string) (Command, error) {
			if len(args) != 0 {
				return nil, errBadArgs
			}
			return CommitRecording{}, nil
		},
	},
	"cancel": {
		usage: "cancel",
		parse: func(args []string) (Command, error) {
			if len(args) != 0 {
				return nil, errBadArgs
			}
			return CancelRecording{}, nil
		},
	},
	"arena": {
		usage: "arena <id>",
		parse: func(args []string) (Command, error) {
			if len(args) != 1 {
				return nil, errBadArgs
			}
			id, err := parseArenaID(args[0])
			if err != nil {
				return nil, err
			}
			return SwitchArena{ArenaID: id}, nil
		},
	},
	"actor": {
		usage: "actor <actor-id>",
		parse: func(args []string) (Command, error) {
			if len(args) != 1 {
				return nil, errBadArgs
			}
			id, err := parseActorID(args[0])
			if err != nil {
				return nil, err
			}
			return SwitchActor{ActorID: id}, nil
		},
	},
	"confirm": {
		usage: "confirm <yes|no>",
		parse: func(args []string) (Command, error) {
			if len(args) != 1 {
				return nil, errBadArgs
			}
			switch args[0] {
			case "yes", "y":
				return ConfirmActorSwitch{Accept: true}, nil
			case "no", "n":
				return ConfirmActorSwitch{Accept: false}, nil
			default:
				return nil, errBadArgs
			}
		},
	},
	"pause": {
		usage: "pause [arena-id]",
		parse: func(args []string) (Command, error) {
			switch len(args) {
			case 0:
				return SetPaused{Paused: true}, nil
			case 1:
				id, err := parseArenaID(args[0])
				if err != nil {
					return nil, err
				}
				return PauseArena{ArenaID: id, Paused: true}, nil
			default:
				return nil, errBadArgs
			}
		},
	},
	"resume": {
		usage: "resume [arena-id]",
		parse: func(args []string) (Command, error) {
			switch len(args) {
			case 0:
				return SetPaused{Paused: false}, nil
			case 1:
				id, err := parseArenaID(args[0])
				if err != nil {
					return nil, err
				}
				return PauseArena{ArenaID: id, Paused: false}, nil
			default:
				return nil, errBadArgs
			}
		},
	},
	"move": {
		usage: "move <north|east|south|west>",
		parse: func(args []string) (Command, error) {
			if len(args) != 1 {
				return nil, errBadArgs
			}
			dir, ok := arena.ParseDirection(args[0])
			if !ok {
				return nil, errBadArgs
			}
			return LiveMove{Dir: dir}, nil
		},
	},
	"cast": {
		usage: "cast <slot> <x> <y>",
		parse: func(args []string) (Command, error) {
			if len(args) != 3 {
				return nil, errBadArgs
			}
			slot, err := parseSlot(args[0])
			if err != nil {
				return nil, err
			}
			cell, err := parseCell(args[1], args[2])
			if err != nil {
				return nil, err
			}
			return LiveCast{Slot: slot, Target: cell}, nil
		},
	},
	"release": {
		usage: "release <slot>",
		parse: func(args []string) (Command, error) {
			if len(args) != 1 {
				return nil, errBadArgs
			}
			slot, err := parseSlot(args[0])
			if err != nil {
				return nil, err
			}
			return LiveRelease{Slot: slot}, nil
		},
	},
}
