// Package effect tracks active effects on actors: temporary modifiers with a
// duration in rounds, turns or skill checks, passive modifiers, and disabled
// ones kept for later.
package effect

import (
	"errors"

	"github.com/google/uuid"

	"github.com/cory-johannsen/holotable/internal/game/character"
)

// Kind is the category an effect is listed under.
type Kind string

const (
	KindTemporary Kind = "temporary"
	KindPassive   Kind = "passive"
	KindInactive  Kind = "inactive"
)

// Anchor selects which turn boundary advances an effect's duration.
type Anchor string

const (
	AnchorStart Anchor = "start"
	AnchorEnd   Anchor = "end"
)

// DefaultLabel and DefaultIcon are given to effects created without a template.
const (
	DefaultLabel = "New Effect"
	DefaultIcon  = "icons/svg/aura.svg"
)

// ErrEffectNotFound is returned when an effect ID is not in a Set.
var ErrEffectNotFound = errors.New("effect not found")

// Duration limits how long an effect lasts. A zero field is unlimited.
type Duration struct {
	Rounds int    `yaml:"rounds"`
	Turns  int    `yaml:"turns"`
	Checks int    `yaml:"checks"`
	Anchor Anchor `yaml:"anchor"`
}

// IsLimited reports whether any counter is set.
func (d Duration) IsLimited() bool {
	return d.Rounds > 0 || d.Turns > 0 || d.Checks > 0
}

// ActiveEffect is one effect applied to an actor.
//
// Invariant: Remaining counters are only meaningful for the limits set in
// Duration.
type ActiveEffect struct {
	ID       string
	ActorID  string
	Label    string
	Icon     string
	Origin   string
	Disabled bool
	Duration Duration
	// Remaining counts down from Duration.
	Remaining Duration
	Changes   []character.Change
}

// New creates an effect for actorID the way the sheet's "create" control does:
// a temporary effect lasts one round and an inactive one starts disabled.
//
// Postcondition: Returns an effect with a fresh ID and e.Category() == kind.
func New(kind Kind, actorID, origin string) *ActiveEffect {
	e := &ActiveEffect{
		ID:      uuid.NewString(),
		ActorID: actorID,
		Label:   DefaultLabel,
		Icon:    DefaultIcon,
		Origin:  origin,
	}
	switch kind {
	case KindTemporary:
		e.Duration = Duration{Rounds: 1, Anchor: AnchorEnd}
	case KindInactive:
		e.Disabled = true
	}
	e.Remaining = e.Duration
	return e
}

// IsTemporary reports whether the effect has any limited duration.
func (e *ActiveEffect) IsTemporary() bool { return e.Duration.IsLimited() }

// Category returns the list the effect is shown under.
func (e *ActiveEffect) Category() Kind {
	switch {
	case e.Disabled:
		return KindInactive
	case e.IsTemporary():
		return KindTemporary
	default:
		return KindPassive
	}
}

// Expired reports whether any limited counter has run out.
func (e *ActiveEffect) Expired() bool {
	d, r := e.Duration, e.Remaining
	return (d.Rounds > 0 && r.Rounds <= 0) ||
		(d.Turns > 0 && r.Turns <= 0) ||
		(d.Checks > 0 && r.Checks <= 0)
}

// Clone returns a deep copy of e.
func (e *ActiveEffect) Clone() *ActiveEffect {
	out := *e
	out.Changes = append([]character.Change(nil), e.Changes...)
	return &out
}
