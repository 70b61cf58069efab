package effect

import (
	"fmt"

	"github.com/cory-johannsen/holotable/internal/game/character"
)

// ApplyTo returns a copy of c with the changes of every enabled effect in the
// set applied. Add changes are applied before overrides so an override always
// wins; within a mode effects apply in All() order.
//
// Precondition: c must be non-nil.
// Postcondition: c is not modified. Returns an error naming the effect whose
// change is invalid.
func (s *Set) ApplyTo(c *character.Character) (*character.Character, error) {
	out := c.Clone()
	effects := s.All()
	for _, overrides := range []bool{false, true} {
		for _, e := range effects {
			if e.Disabled {
				continue
			}
			for _, ch := range e.Changes {
				if (ch.Mode == character.ModeOverride) != overrides {
					continue
				}
				if err := out.Apply(ch); err != nil {
					return nil, fmt.Errorf("effect %q: %w", e.Label, err)
				}
			}
		}
	}
	return out, nil
}
