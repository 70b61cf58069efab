package character

import (
	"errors"
	"fmt"
	"sort"

	"github.com/cory-johannsen/holotable/internal/game/dice"
)

// Initiative skills every sheet can roll, even untrained.
const (
	SkillVigilance = "Vigilance"
	SkillCool      = "Cool"
)

// defaultCharacteristic is used when a sheet's skill omits its characteristic.
var defaultCharacteristic = map[string]string{
	SkillVigilance: "Willpower",
	SkillCool:      "Presence",
}

// ErrUnknownSkill is returned when a pool is requested for a skill the sheet
// does not have.
var ErrUnknownSkill = errors.New("unknown skill")

// SkillPool builds the dice pool for skill using the standard rule: the higher
// of characteristic and rank sets the number of ability dice, and the lower of
// the two upgrades that many of them to proficiency. The skill's boost,
// advantage and success modifiers are added. Negative values count as zero.
//
// Precondition: c must be non-nil.
// Postcondition: Returns a pool with Ability+Proficiency == max(char, rank), or
// ErrUnknownSkill when the skill is absent and not an initiative default.
func SkillPool(c *Character, skill string) (dice.Pool, error) {
	s, ok := c.Skill(skill)
	if !ok {
		if _, builtin := defaultCharacteristic[skill]; !builtin {
			return dice.Pool{}, fmt.Errorf("%w %q on %q", ErrUnknownSkill, skill, c.Name)
		}
	}
	charName := s.Characteristic
	if charName == "" {
		charName = defaultCharacteristic[skill]
	}
	value := c.CharacteristicValue(charName)

	value, rank := max(value, 0), max(s.Rank, 0)
	p := dice.Pool{
		Ability:   max(value, rank),
		Boost:     max(s.Boost, 0),
		Advantage: max(s.Advantage, 0),
		Success:   max(s.Success, 0),
	}
	p.Upgrade(min(value, rank))
	return p, nil
}

// InitiativeOption is one selectable initiative pool for a sheet.
type InitiativeOption struct {
	Skill string
	Label string
	Pool  dice.Pool
}

// InitiativeOptions lists the pools a sheet may roll initiative with: every
// skill flagged for initiative (sorted by name), then Vigilance and Cool when
// not already listed.
//
// Postcondition: The result always contains Vigilance and Cool exactly once.
func InitiativeOptions(c *Character) []InitiativeOption {
	var flagged []string
	for name, s := range c.Skills {
		if s.UseForInitiative {
			flagged = append(flagged, name)
		}
	}
	sort.Strings(flagged)

	seen := make(map[string]bool)
	var out []InitiativeOption
	add := func(name string) {
		if seen[name] {
			return
		}
		p, err := SkillPool(c, name)
		if err != nil {
			return
		}
		label := name
		if s, ok := c.Skill(name); ok && s.Label != "" {
			label = s.Label
		}
		seen[name] = true
		out = append(out, InitiativeOption{Skill: name, Label: label, Pool: p})
	}
	for _, name := range flagged {
		add(name)
	}
	add(SkillVigilance)
	add(SkillCool)
	return out
}
