package combat

import (
	"fmt"
	"sort"
)

// Session is the plain record of one combat encounter.
// It is not safe for concurrent use; mutate it only inside Store.Commit.
type Session struct {
	ID string
	// Round is 0 before the combat starts and 1 for the first round.
	Round int
	// Turn is the index into Combatants of the active combatant.
	Turn    int
	Started bool
	// Combatants is the turn order.
	Combatants []*Combatant
}

// NewSession creates an unstarted session holding combatants in turn order.
//
// Precondition: id must be non-empty.
func NewSession(id string, combatants ...*Combatant) *Session {
	s := &Session{ID: id, Combatants: combatants}
	s.SortTurns()
	return s
}

// Get returns the combatant with the given ID, or nil.
func (s *Session) Get(id string) *Combatant {
	if id == "" {
		return nil
	}
	for _, c := range s.Combatants {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// Current returns the combatant holding the turn, or nil before the start.
func (s *Session) Current() *Combatant {
	if !s.Started || s.Turn < 0 || s.Turn >= len(s.Combatants) {
		return nil
	}
	return s.Combatants[s.Turn]
}

// Clone returns a deep copy of s.
func (s *Session) Clone() *Session {
	out := *s
	out.Combatants = make([]*Combatant, len(s.Combatants))
	for i, c := range s.Combatants {
		out.Combatants[i] = c.Clone()
	}
	return &out
}

// SortTurns orders combatants by initiative descending. Unrolled combatants
// go last; ties break by name, then ID, so the order is deterministic.
// The turn index is not moved; use Reposition to follow a combatant.
func (s *Session) SortTurns() {
	sort.SliceStable(s.Combatants, func(i, j int) bool {
		a, b := s.Combatants[i], s.Combatants[j]
		if a.HasRolled() != b.HasRolled() {
			return a.HasRolled()
		}
		if a.HasRolled() && *a.Initiative != *b.Initiative {
			return *a.Initiative > *b.Initiative
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})
}

// Reposition moves the turn pointer to the combatant with id.
//
// Postcondition: Current().ID == id when id is present and the combat started;
// otherwise the pointer is unchanged.
func (s *Session) Reposition(id string) {
	for i, c := range s.Combatants {
		if c.ID == id {
			s.Turn = i
			return
		}
	}
}

// Start begins round 1 at the top of the turn order.
func (s *Session) Start() {
	s.SortTurns()
	s.Started = true
	s.Round = 1
	s.Turn = 0
}

// NextTurn passes the turn to the next combatant, advancing the round after
// the last one.
//
// Postcondition: Returns the combatant whose turn ended and the one whose turn
// began (either may be nil in an empty or unstarted session).
func (s *Session) NextTurn() (ended, began *Combatant) {
	if !s.Started || len(s.Combatants) == 0 {
		return nil, nil
	}
	ended = s.Current()
	if s.Turn+1 >= len(s.Combatants) {
		s.NextRound()
	} else {
		s.Turn++
	}
	return ended, s.Current()
}

// NextRound advances the round, returns the turn to the top and frees every
// slot: all claims and acted flags are cleared.
//
// Postcondition: for every combatant c, c.ClaimedID() == "" and !c.HasActed().
func (s *Session) NextRound() {
	s.Round++
	s.Turn = 0
	for _, c := range s.Combatants {
		c.UnclaimSlot()
		c.MarkUnacted()
	}
}

// PreviousRound succeeds and changes nothing. Claims from a past round cannot
// be reconstructed.
func (s *Session) PreviousRound() error { return nil }

// Add inserts a copy of c and re-sorts, keeping the active combatant active.
// The caller keeps no reference into the session.
//
// Postcondition: Returns nil, or an error if c.ID is already in the session.
func (s *Session) Add(c *Combatant) error {
	if s.Get(c.ID) != nil {
		return fmt.Errorf("combatant %q already in combat %q", c.ID, s.ID)
	}
	cur := s.Current()
	s.Combatants = append(s.Combatants, c.Clone())
	s.SortTurns()
	if cur != nil {
		s.Reposition(cur.ID)
	}
	return nil
}

// Remove deletes the combatant with id and drops any claim pointing at it.
//
// Postcondition: Get(id) == nil; returns ErrCombatantNotFound if absent.
func (s *Session) Remove(id string) error {
	idx := -1
	for i, c := range s.Combatants {
		if c.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %q", ErrCombatantNotFound, id)
	}
	cur := s.Current()
	s.Combatants = append(s.Combatants[:idx], s.Combatants[idx+1:]...)
	for _, c := range s.Combatants {
		if c.ClaimedBy == id {
			c.UnclaimSlot()
		}
	}
	switch {
	case cur != nil && cur.ID != id:
		s.Reposition(cur.ID)
	case s.Turn >= len(s.Combatants):
		s.Turn = 0
	}
	return nil
}

// Duplicate adds a copy of the combatant srcID under newID, giving a group an
// extra activation slot. The copy starts unclaimed and unacted.
//
// Postcondition: Returns the new combatant, or ErrCombatantNotFound.
func (s *Session) Duplicate(srcID, newID string) (*Combatant, error) {
	src := s.Get(srcID)
	if src == nil {
		return nil, fmt.Errorf("%w: %q", ErrCombatantNotFound, srcID)
	}
	dup := src.Clone()
	dup.ID = newID
	dup.UnclaimSlot()
	dup.MarkUnacted()
	if err := s.Add(dup); err != nil {
		return nil, err
	}
	return s.Get(newID), nil
}
