// Package character defines the character sheet model and the pure pool
// building rules that read it.
package character

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// Type classifies the sheet an actor uses.
type Type string

const (
	TypeCharacter Type = "character"
	TypeMinion    Type = "minion"
	TypeRival     Type = "rival"
	TypeNemesis   Type = "nemesis"
	TypeVehicle   Type = "vehicle"
)

// Characteristic is one of the six core characteristics, e.g. Willpower.
type Characteristic struct {
	Value int `yaml:"value"`
}

// Skill is one trained skill on the sheet. Boost, Setback, Force, Advantage
// and Success are standing modifiers added to every pool for the skill.
type Skill struct {
	Characteristic   string `yaml:"characteristic"`
	Rank             int    `yaml:"rank"`
	Boost            int    `yaml:"boost"`
	Setback          int    `yaml:"setback"`
	Force            int    `yaml:"force"`
	Advantage        int    `yaml:"advantage"`
	Success          int    `yaml:"success"`
	UseForInitiative bool   `yaml:"use_for_initiative"`
	Label            string `yaml:"label"`
}

// Character is an actor's sheet.
//
// ID is set by the persistence layer or the content file; zero values indicate
// an unsaved character.
type Character struct {
	ID              string                    `yaml:"id"`
	Name            string                    `yaml:"name"`
	Type            Type                      `yaml:"type"`
	Owners          []string                  `yaml:"owners"`
	Characteristics map[string]Characteristic `yaml:"characteristics"`
	Skills          map[string]Skill          `yaml:"skills"`

	CreatedAt time.Time `yaml:"-"`
	UpdatedAt time.Time `yaml:"-"`
}

// ErrInvalidSheet is returned for a sheet holding a negative characteristic
// or skill value.
var ErrInvalidSheet = errors.New("invalid character sheet")

// Validate checks that every characteristic and skill value is non-negative.
//
// Postcondition: Returns nil, or an error wrapping ErrInvalidSheet naming the
// first offending entry in name order.
func (c *Character) Validate() error {
	for _, name := range sortedKeys(c.Characteristics) {
		if v := c.Characteristics[name].Value; v < 0 {
			return fmt.Errorf("%w: %q characteristic %s is %d", ErrInvalidSheet, c.ID, name, v)
		}
	}
	for _, name := range sortedKeys(c.Skills) {
		s := c.Skills[name]
		for _, f := range []struct {
			field string
			v     int
		}{
			{"rank", s.Rank}, {"boost", s.Boost}, {"setback", s.Setback},
			{"force", s.Force}, {"advantage", s.Advantage}, {"success", s.Success},
		} {
			if f.v < 0 {
				return fmt.Errorf("%w: %q skill %s %s is %d", ErrInvalidSheet, c.ID, name, f.field, f.v)
			}
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsVehicle reports whether the sheet is a vehicle, which never rolls
// initiative.
func (c *Character) IsVehicle() bool { return c.Type == TypeVehicle }

// CharacteristicValue returns the value of the named characteristic, or 0 when
// the sheet lacks it.
func (c *Character) CharacteristicValue(name string) int {
	return c.Characteristics[name].Value
}

// Skill returns the named skill.
//
// Postcondition: Returns (skill, true) if present, or (zero, false) otherwise.
func (c *Character) Skill(name string) (Skill, bool) {
	s, ok := c.Skills[name]
	return s, ok
}

// Clone returns a deep copy of c. Mutating the copy's maps does not affect c.
func (c *Character) Clone() *Character {
	out := *c
	out.Owners = append([]string(nil), c.Owners...)
	out.Characteristics = make(map[string]Characteristic, len(c.Characteristics))
	for k, v := range c.Characteristics {
		out.Characteristics[k] = v
	}
	out.Skills = make(map[string]Skill, len(c.Skills))
	for k, v := range c.Skills {
		out.Skills[k] = v
	}
	return &out
}
