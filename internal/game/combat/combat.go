// Package combat implements the combat-session record for holotable: turn
// order, round advance, initiative resolution and the turn-slot claim rules.
package combat

import (
	"errors"
	"slices"
)

// Disposition is a token's attitude towards the party. Slots are only
// claimable by combatants sharing the slot's disposition.
type Disposition int

const (
	Hostile  Disposition = -1
	Neutral  Disposition = 0
	Friendly Disposition = 1
)

// String returns the label an unclaimed slot of this disposition shows.
func (d Disposition) String() string {
	switch d {
	case Friendly:
		return "Friendly"
	case Neutral:
		return "Neutral"
	default:
		return "Hostile"
	}
}

// Role is a participant's capability level.
type Role int

const (
	RolePlayer Role = iota
	// RoleAuthority is the single elevated participant that commits shared
	// combat state.
	RoleAuthority
)

// User identifies a connected participant.
type User struct {
	ID   string
	Role Role
}

// IsAuthority reports whether u holds the authority capability.
func (u User) IsAuthority() bool { return u.Role == RoleAuthority }

var (
	// ErrCombatNotFound is returned when no session exists for an ID.
	ErrCombatNotFound = errors.New("combat not found")
	// ErrCombatExists is returned when creating a session whose ID is taken.
	ErrCombatExists = errors.New("combat already exists")
	// ErrCombatantNotFound is returned when a combatant ID is not in a session.
	ErrCombatantNotFound = errors.New("combatant not found")
	// ErrSlotNotActive is returned when picking a claim for a slot that does
	// not hold the current turn.
	ErrSlotNotActive = errors.New("slot is not the active turn")
)

// Combatant is one entry in a session's turn order.
//
// Invariant: ClaimedBy is either empty or the ID of another combatant in the
// same session.
type Combatant struct {
	ID          string
	Name        string
	CharacterID string
	Disposition Disposition
	// Initiative is nil until the combatant has rolled.
	Initiative *float64
	// ClaimedBy is the combatant that took this slot's turn this round.
	ClaimedBy string
	// Acted is true once the combatant has claimed a slot this round.
	Acted  bool
	Hidden bool
	// Owners lists the user IDs holding permission over the combatant.
	Owners []string
}

// ClaimedID returns the ID of the combatant that claimed this slot, or "".
func (c *Combatant) ClaimedID() string { return c.ClaimedBy }

// ClaimSlot records id as the claimer of this slot.
func (c *Combatant) ClaimSlot(id string) { c.ClaimedBy = id }

// UnclaimSlot clears the slot's claimer.
//
// Postcondition: ClaimedID() == "".
func (c *Combatant) UnclaimSlot() { c.ClaimedBy = "" }

// HasActed reports whether the combatant has taken a slot this round.
func (c *Combatant) HasActed() bool { return c.Acted }

// MarkActed flags the combatant as having acted this round.
func (c *Combatant) MarkActed() { c.Acted = true }

// MarkUnacted frees the combatant to claim a slot again.
func (c *Combatant) MarkUnacted() { c.Acted = false }

// HasRolled reports whether an initiative score is set.
func (c *Combatant) HasRolled() bool { return c.Initiative != nil }

// SetInitiative stores score as the combatant's initiative.
func (c *Combatant) SetInitiative(score float64) {
	v := score
	c.Initiative = &v
}

// HasPermission reports whether u may act on behalf of the combatant.
//
// Postcondition: Returns true for any authority user.
func (c *Combatant) HasPermission(u User) bool {
	return u.IsAuthority() || slices.Contains(c.Owners, u.ID)
}

// Clone returns a deep copy of c.
func (c *Combatant) Clone() *Combatant {
	out := *c
	if c.Initiative != nil {
		v := *c.Initiative
		out.Initiative = &v
	}
	out.Owners = append([]string(nil), c.Owners...)
	return &out
}
