package effect

import "sort"

// TickTurn advances every enabled effect anchored at anchor by one turn
// boundary. Turn counters count every boundary; round counters only count the
// owner's own boundary, so ownTurn must be true when the turn starting or
// ending belongs to the actor holding this set. Disabled effects are paused.
//
// Postcondition: Returns the IDs of expired effects in sorted order; none of
// them remain in the set.
func (s *Set) TickTurn(anchor Anchor, ownTurn bool) []string {
	for _, e := range s.effects {
		if e.Disabled || !e.IsTemporary() || anchorOf(e) != anchor {
			continue
		}
		if e.Duration.Turns > 0 {
			e.Remaining.Turns--
		}
		if ownTurn && e.Duration.Rounds > 0 {
			e.Remaining.Rounds--
		}
	}
	return s.sweep()
}

// RecordSkillCheck counts one skill check against every enabled effect limited
// by checks.
//
// Postcondition: Returns the IDs of expired effects in sorted order.
func (s *Set) RecordSkillCheck() []string {
	for _, e := range s.effects {
		if !e.Disabled && e.Duration.Checks > 0 {
			e.Remaining.Checks--
		}
	}
	return s.sweep()
}

func (s *Set) sweep() []string {
	var expired []string
	for id, e := range s.effects {
		if e.Expired() {
			expired = append(expired, id)
			delete(s.effects, id)
		}
	}
	sort.Strings(expired)
	return expired
}

// anchorOf defaults unset anchors to the end of the turn.
func anchorOf(e *ActiveEffect) Anchor {
	if e.Duration.Anchor == "" {
		return AnchorEnd
	}
	return e.Duration.Anchor
}
