// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ghostloop Contributors

// Package content loads the game catalog: ability definitions, class slot
// layouts, and arena descriptions. Catalogs are YAML files validated
// against a JSON Schema generated from these structs.
package content

import (
	"fmt"
	"os"

	"github.com/Masterminds/semver/v3"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"

	"github.com/ghostloop/ghostloop/internal/arena"
	"github.com/ghostloop/ghostloop/internal/combat"
)

// EngineVersion is the engine's save-format/content compatibility version.
// Catalogs declare a semver constraint against it.
const EngineVersion = "0.3.0"

// AbilityDef is one catalog ability.
type AbilityDef struct {
	ID     string `yaml:"id" json:"id" jsonschema:"required,minLength=1"`
	Name   string `yaml:"name" json:"name" jsonschema:"required,minLength=1"`
	Kind   string `yaml:"kind" json:"kind" jsonschema:"required,enum=strike,enum=heal,enum=guard,enum=revive"`
	Power  int    `yaml:"power" json:"power" jsonschema:"minimum=0"`
	Radius int    `yaml:"radius" json:"radius" jsonschema:"minimum=0"`
}

// ClassDef maps a class to its equipped ability slots.
type ClassDef struct {
	Name  string   `yaml:"name" json:"name" jsonschema:"required,minLength=1"`
	Slots []string `yaml:"slots" json:"slots" jsonschema:"required,maxItems=4"`
}

// GridDef is an arena's grid bounds.
type GridDef struct {
	Width  uint16 `yaml:"width" json:"width" jsonschema:"required,minimum=1"`
	Height uint16 `yaml:"height" json:"height" jsonschema:"required,minimum=1"`
}

// ArenaDef is one catalog arena.
type ArenaDef struct {
	ID         uint8   `yaml:"id" json:"id" jsonschema:"required"`
	Name       string  `yaml:"name" json:"name" jsonschema:"required,minLength=1"`
	Grid       GridDef `yaml:"grid" json:"grid" jsonschema:"required"`
	BossScript string  `yaml:"boss_script,omitempty" json:"boss_script,omitempty"`
}

// Catalog is the full content file.
type Catalog struct {
	// Engine is a semver constraint the running engine version must
	// satisfy, e.g. ">= 0.3.0, < 1.0.0".
	Engine    string       `yaml:"engine" json:"engine" jsonschema:"required,minLength=1"`
	Abilities []AbilityDef `yaml:"abilities" json:"abilities" jsonschema:"required"`
	Classes   []ClassDef   `yaml:"classes" json:"classes"`
	Arenas    []ArenaDef   `yaml:"arenas" json:"arenas" jsonschema:"required"`

	abilityIndex map[string]combat.Ability
	classIndex   map[string]ClassDef
}

// Load reads, schema-validates, and indexes a catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, oops.Code("CATALOG_READ_FAILED").With("path", path).Wrap(err)
	}
	return Parse(data)
}

// Parse validates and indexes catalog YAML.
func Parse(data []byte) (*Catalog, error) {
	if err := ValidateSchema(data); err != nil {
		return nil, oops.Code("CATALOG_INVALID").Wrap(err)
	}

	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, oops.Code("CATALOG_INVALID").Wrap(err)
	}
	if err := c.check(); err != nil {
		return nil, err
	}
	c.index()
	return &c, nil
}

// check verifies cross-references and the engine version gate.
func (c *Catalog) check() error {
	constraint, err := semver.NewConstraint(c.Engine)
	if err != nil {
		return oops.Code("CATALOG_INVALID").
			With("engine", c.Engine).
			Errorf("invalid engine constraint: %v", err)
	}
	if !constraint.Check(semver.MustParse(EngineVersion)) {
		return oops.Code("CATALOG_INCOMPATIBLE").
			With("engine_version", EngineVersion).
			With("constraint", c.Engine).
			Errorf("catalog requires engine %s, this engine is %s", c.Engine, EngineVersion)
	}

	seen := make(map[string]bool, len(c.Abilities))
	for _, a := range c.Abilities {
		if seen[a.ID] {
			return oops.Code("CATALOG_INVALID").Errorf("duplicate ability id %q", a.ID)
		}
		seen[a.ID] = true
		if _, err := parseKind(a.Kind); err != nil {
			return oops.Code("CATALOG_INVALID").With("ability", a.ID).Wrap(err)
		}
	}
	for _, cl := range c.Classes {
		if len(cl.Slots) > arena.MaxAbilitySlots {
			return oops.Code("CATALOG_INVALID").
				Errorf("class %q has %d slots, max is %d", cl.Name, len(cl.Slots), arena.MaxAbilitySlots)
		}
		for _, slot := range cl.Slots {
			if !seen[slot] {
				return oops.Code("CATALOG_INVALID").
					Errorf("class %q references unknown ability %q", cl.Name, slot)
			}
		}
	}
	arenaIDs := make(map[uint8]bool, len(c.Arenas))
	for _, a := range c.Arenas {
		if arenaIDs[a.ID] {
			return oops.Code("CATALOG_INVALID").Errorf("duplicate arena id %d", a.ID)
		}
		arenaIDs[a.ID] = true
	}
	return nil
}

func (c *Catalog) index() {
	c.abilityIndex = make(map[string]combat.Ability, len(c.Abilities))
	for _, a := range c.Abilities {
		kind, _ := parseKind(a.Kind)
		c.abilityIndex[a.ID] = combat.Ability{
			ID:     a.ID,
			Name:   a.Name,
			Kind:   kind,
			Power:  a.Power,
			Radius: a.Radius,
		}
	}
	c.classIndex = make(map[string]ClassDef, len(c.Classes))
	for _, cl := range c.Classes {
		c.classIndex[cl.Name] = cl
	}
}

// Ability implements combat.AbilityLookup.
func (c *Catalog) Ability(id string) (combat.Ability, bool) {
	a, ok := c.abilityIndex[id]
	return a, ok
}

// ClassSlots returns the equipped ability IDs for a class, or nil if the
// class is not in the catalog.
func (c *Catalog) ClassSlots(class arena.Class) []string {
	cl, ok := c.classIndex[string(class)]
	if !ok {
		return nil
	}
	return cl.Slots
}

func parseKind(s string) (combat.AbilityKind, error) {
	switch s {
	case "strike":
		return combat.AbilityStrike, nil
	case "heal":
		return combat.AbilityHeal, nil
	case "guard":
		return combat.AbilityGuard, nil
	case "revive":
		return combat.AbilityRevive, nil
	default:
		return 0, fmt.Errorf("unknown ability kind %q", s)
	}
}
