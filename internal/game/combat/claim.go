package combat

import "fmt"

// ClaimSlot gives the slot's turn this round to claimer. A previous claimer is
// freed to claim another slot; the new claimer is marked as having acted.
// Replaying the same pair leaves the session unchanged.
//
// Precondition: s must be non-nil.
// Postcondition: On success, Get(slotID).ClaimedID() == claimerID and
// Get(claimerID).HasActed(); any different previous claimer has !HasActed().
// Returns ErrCombatantNotFound if either ID is unknown.
func ClaimSlot(s *Session, slotID, claimerID string) error {
	slot := s.Get(slotID)
	if slot == nil {
		return fmt.Errorf("%w: slot %q in combat %q", ErrCombatantNotFound, slotID, s.ID)
	}
	claimer := s.Get(claimerID)
	if claimer == nil {
		return fmt.Errorf("%w: claimer %q in combat %q", ErrCombatantNotFound, claimerID, s.ID)
	}
	if prev := s.Get(slot.ClaimedID()); prev != nil {
		prev.MarkUnacted()
	}
	slot.ClaimSlot(claimer.ID)
	claimer.MarkActed()
	return nil
}

// ClaimCandidates returns the combatants u may offer for the slot: those
// sharing the slot's disposition, not yet acted this round, and held by u.
//
// Postcondition: Returns candidates in turn order, or ErrCombatantNotFound.
func ClaimCandidates(s *Session, slotID string, u User) ([]*Combatant, error) {
	slot := s.Get(slotID)
	if slot == nil {
		return nil, fmt.Errorf("%w: slot %q in combat %q", ErrCombatantNotFound, slotID, s.ID)
	}
	var out []*Combatant
	for _, c := range s.Combatants {
		if c.Disposition == slot.Disposition && !c.HasActed() && c.HasPermission(u) {
			out = append(out, c)
		}
	}
	return out, nil
}

// SlotLabel returns what the tracker shows for slot id: the claimer's name
// once claimed, or the slot's disposition while open. Hidden claimers are shown
// by disposition only.
//
// Postcondition: Returns "" when id is not in the session.
func SlotLabel(s *Session, id string) string {
	slot := s.Get(id)
	if slot == nil {
		return ""
	}
	if claimer := s.Get(slot.ClaimedID()); claimer != nil && !claimer.Hidden {
		return claimer.Name
	}
	return slot.Disposition.String()
}
