package character

import (
	"errors"
	"fmt"
	"strings"
)

// ChangeMode selects how a Change combines with the sheet value.
type ChangeMode string

const (
	ModeAdd      ChangeMode = "add"
	ModeOverride ChangeMode = "override"
)

// Change is one sheet modification carried by an active effect, e.g.
// {Key: "skills.Vigilance.boost", Mode: add, Value: 1}.
type Change struct {
	Key   string     `yaml:"key"`
	Mode  ChangeMode `yaml:"mode"`
	Value int        `yaml:"value"`
}

// ErrInvalidChange is returned for a change whose key or mode is not understood.
var ErrInvalidChange = errors.New("invalid change")

// Apply applies ch to c in place. Keys take the forms
// "characteristics.<Name>.value" and "skills.<Name>.<field>" where field is one
// of rank, boost, setback, force, advantage or success. Missing entries are
// created. Results floor at zero.
//
// Postcondition: Returns nil on success or an error wrapping ErrInvalidChange.
func (c *Character) Apply(ch Change) error {
	parts := strings.Split(ch.Key, ".")
	if len(parts) != 3 {
		return fmt.Errorf("%w: key %q", ErrInvalidChange, ch.Key)
	}
	combine := func(cur int) (int, error) {
		var v int
		switch ch.Mode {
		case ModeAdd, "":
			v = cur + ch.Value
		case ModeOverride:
			v = ch.Value
		default:
			return 0, fmt.Errorf("%w: mode %q", ErrInvalidChange, ch.Mode)
		}
		if v < 0 {
			v = 0
		}
		return v, nil
	}

	switch parts[0] {
	case "characteristics":
		if parts[2] != "value" {
			return fmt.Errorf("%w: key %q", ErrInvalidChange, ch.Key)
		}
		if c.Characteristics == nil {
			c.Characteristics = make(map[string]Characteristic)
		}
		v, err := combine(c.Characteristics[parts[1]].Value)
		if err != nil {
			return err
		}
		c.Characteristics[parts[1]] = Characteristic{Value: v}
		return nil
	case "skills":
		if c.Skills == nil {
			c.Skills = make(map[string]Skill)
		}
		s := c.Skills[parts[1]]
		field, err := skillField(&s, parts[2])
		if err != nil {
			return fmt.Errorf("%w: key %q", err, ch.Key)
		}
		v, err := combine(*field)
		if err != nil {
			return err
		}
		*field = v
		c.Skills[parts[1]] = s
		return nil
	}
	return fmt.Errorf("%w: key %q", ErrInvalidChange, ch.Key)
}

func skillField(s *Skill, name string) (*int, error) {
	switch name {
	case "rank":
		return &s.Rank, nil
	case "boost":
		return &s.Boost, nil
	case "setback":
		return &s.Setback, nil
	case "force":
		return &s.Force, nil
	case "advantage":
		return &s.Advantage, nil
	case "success":
		return &s.Success, nil
	}
	return nil, ErrInvalidChange
}
