package effect

import (
	"fmt"
	"sort"
)

// Set tracks all effects on one actor.
// It is not safe for concurrent use; the caller must serialise access.
type Set struct {
	effects map[string]*ActiveEffect
}

// NewSet creates a Set holding effects.
func NewSet(effects ...*ActiveEffect) *Set {
	s := &Set{effects: make(map[string]*ActiveEffect, len(effects))}
	for _, e := range effects {
		s.Add(e)
	}
	return s
}

// Add stores e, replacing any effect with the same ID.
//
// Precondition: e must not be nil and e.ID must not be empty.
func (s *Set) Add(e *ActiveEffect) {
	s.effects[e.ID] = e
}

// Get returns the effect with id, or (nil, false).
func (s *Set) Get(id string) (*ActiveEffect, bool) {
	e, ok := s.effects[id]
	return e, ok
}

// Delete removes the effect with id. Deleting an absent id is a no-op.
func (s *Set) Delete(id string) {
	delete(s.effects, id)
}

// Toggle flips the effect's disabled flag.
//
// Postcondition: Returns the new Disabled value, or ErrEffectNotFound.
func (s *Set) Toggle(id string) (bool, error) {
	e, ok := s.effects[id]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrEffectNotFound, id)
	}
	e.Disabled = !e.Disabled
	return e.Disabled, nil
}

// Len returns the number of effects in the set.
func (s *Set) Len() int { return len(s.effects) }

// All returns the effects ordered by label, then ID.
// The slice is a new allocation but the effects are shared.
func (s *Set) All() []*ActiveEffect {
	out := make([]*ActiveEffect, 0, len(s.effects))
	for _, e := range s.effects {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Label != out[j].Label {
			return out[i].Label < out[j].Label
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Categories groups a set's effects for display.
type Categories struct {
	Temporary []*ActiveEffect
	Passive   []*ActiveEffect
	Inactive  []*ActiveEffect
}

// Categorize splits the effects into temporary, passive and inactive lists.
// Disabled effects are inactive whatever their duration.
func (s *Set) Categorize() Categories {
	var c Categories
	for _, e := range s.All() {
		switch e.Category() {
		case KindInactive:
			c.Inactive = append(c.Inactive, e)
		case KindTemporary:
			c.Temporary = append(c.Temporary, e)
		default:
			c.Passive = append(c.Passive, e)
		}
	}
	return c
}
