// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ghostloop Contributors

package script

import (
	"fmt"
	"math"

	"github.com/alecthomas/participle/v2"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/ghostloop/ghostloop/internal/arena"
	"github.com/ghostloop/ghostloop/internal/timeline"
)

// parser is the singleton participle parser instance.
var parser *participle.Parser[Script]

func init() {
	var err error
	parser, err = NewParser()
	if err != nil {
		panic(fmt.Sprintf("failed to build boss script parser: %v", err))
	}
}

// Parse parses a boss script into an AST.
func Parse(src string) (*Script, error) {
	s, err := parser.ParseString("", src)
	if err != nil {
		return nil, oops.Code("SCRIPT_PARSE_FAILED").Wrap(err)
	}
	if err := validate(s); err != nil {
		return nil, oops.Code("SCRIPT_INVALID").Wrap(err)
	}
	return s, nil
}

// Compile parses a boss script and builds the boss actor's timeline through
// the ordinary builder: same structure, same queries, same codec as a
// recorded actor.
func Compile(src string, bossActor ulid.ULID, tickRate int, cycleTicks arena.Tick) (*timeline.Timeline, error) {
	s, err := Parse(src)
	if err != nil {
		return nil, err
	}
	if tickRate <= 0 {
		tickRate = arena.DefaultTickRate
	}

	b := timeline.NewBuilder(timeline.Key{Actor: bossActor, Arena: arena.ID(s.Arena)}, cycleTicks)
	for _, step := range s.Steps {
		start := toTicks(step.At, tickRate)
		switch {
		case step.Action.Move != nil:
			m := step.Action.Move
			dir, ok := arena.ParseDirection(m.Dir)
			if !ok {
				return nil, oops.Code("SCRIPT_INVALID").
					Errorf("%s: unknown direction %q", step.Pos, m.Dir)
			}
			b.Append(timeline.Move(dir, start, start+toTicks(m.For, tickRate)))
		case step.Action.Cast != nil:
			c := step.Action.Cast
			var hold arena.Tick
			if c.Hold != nil {
				hold = toTicks(*c.Hold, tickRate)
			}
			b.Append(timeline.AbilityStart(c.Slot, arena.Cell{X: c.X, Y: c.Y}, hold, start))
		case step.Action.Release != nil:
			b.Append(timeline.AbilityEnd(step.Action.Release.Slot, start))
		case step.Action.Die != nil:
			d := step.Action.Die
			b.Append(timeline.Death(arena.Cell{X: d.X, Y: d.Y}, start))
		}
	}

	t, err := b.Build()
	if err != nil {
		return nil, oops.Code("SCRIPT_INVALID").With("boss", s.Name).Wrap(err)
	}
	return t, nil
}

// validate performs post-parse checks the grammar cannot express.
func validate(s *Script) error {
	if s.Name == "" {
		return fmt.Errorf("boss name is empty")
	}
	for _, step := range s.Steps {
		if step.At < 0 {
			return fmt.Errorf("%s: negative timestamp", step.Pos)
		}
		if m := step.Action.Move; m != nil {
			if _, ok := arena.ParseDirection(m.Dir); !ok {
				return fmt.Errorf("%s: unknown direction %q", step.Pos, m.Dir)
			}
			if m.For <= 0 {
				return fmt.Errorf("%s: move duration must be positive", step.Pos)
			}
		}
		if c := step.Action.Cast; c != nil && int(c.Slot) >= arena.MaxAbilitySlots {
			return fmt.Errorf("%s: slot %d out of range", step.Pos, c.Slot)
		}
		if rel := step.Action.Release; rel != nil && int(rel.Slot) >= arena.MaxAbilitySlots {
			return fmt.Errorf("%s: slot %d out of range", step.Pos, rel.Slot)
		}
	}
	return nil
}

func toTicks(seconds float64, rate int) arena.Tick {
	return arena.Tick(math.Round(seconds * float64(rate)))
}
