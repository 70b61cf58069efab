package gameserver

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/holotable/internal/game/combat"
)

// CombatService is the authority's entry point for combat lifecycle
// operations. Every state change goes through the Store and is replicated
// after it commits.
type CombatService struct {
	store      combat.Store
	initiative *combat.InitiativeRoller
	effects    *EffectTracker
	replicator *Replicator
	logger     *zap.Logger
}

// NewCombatService creates a CombatService.
//
// Precondition: all arguments must be non-nil.
func NewCombatService(store combat.Store, initiative *combat.InitiativeRoller, effects *EffectTracker, replicator *Replicator, logger *zap.Logger) *CombatService {
	return &CombatService{store: store, initiative: initiative, effects: effects, replicator: replicator, logger: logger}
}

// Create opens a new combat holding combatants. Combatants without an ID are
// given one.
//
// Precondition: u must be the authority.
// Postcondition: Returns the created session.
func (cs *CombatService) Create(ctx context.Context, u combat.User, combatants ...*combat.Combatant) (*combat.Session, error) {
	if !u.IsAuthority() {
		return nil, ErrNotAuthority
	}
	for _, c := range combatants {
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
	}
	s := combat.NewSession(uuid.NewString(), combatants...)
	if err := cs.store.Create(ctx, s); err != nil {
		return nil, err
	}
	cs.logger.Info("combat created", zap.String("combat", s.ID), zap.Int("combatants", len(combatants)))
	cs.replicator.Publish(ctx, s)
	return s, nil
}

// AddCombatant inserts c into a running or pending combat.
//
// Precondition: u must be the authority.
func (cs *CombatService) AddCombatant(ctx context.Context, u combat.User, combatID string, c *combat.Combatant) (*combat.Session, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return cs.mutate(ctx, u, combatID, "add combatant", func(s *combat.Session) error { return s.Add(c) })
}

// RemoveCombatant deletes a combatant and any claim pointing at it.
//
// Precondition: u must be the authority.
func (cs *CombatService) RemoveCombatant(ctx context.Context, u combat.User, combatID, id string) (*combat.Session, error) {
	return cs.mutate(ctx, u, combatID, "remove combatant", func(s *combat.Session) error { return s.Remove(id) })
}

// Duplicate gives a combatant an extra activation slot.
//
// Precondition: u must be the authority.
func (cs *CombatService) Duplicate(ctx context.Context, u combat.User, combatID, srcID string) (*combat.Session, error) {
	return cs.mutate(ctx, u, combatID, "duplicate combatant", func(s *combat.Session) error {
		_, err := s.Duplicate(srcID, uuid.NewString())
		return err
	})
}

// Start begins round 1.
//
// Precondition: u must be the authority.
func (cs *CombatService) Start(ctx context.Context, u combat.User, combatID string) (*combat.Session, error) {
	return cs.mutate(ctx, u, combatID, "start", func(s *combat.Session) error {
		s.Start()
		return nil
	})
}

// NextTurn passes the turn and advances effect durations for the boundary.
//
// Precondition: u must be the authority.
// Postcondition: The effect tick runs after the turn change commits.
func (cs *CombatService) NextTurn(ctx context.Context, u combat.User, combatID string) (*combat.Session, error) {
	var ended, began *combat.Combatant
	s, err := cs.mutate(ctx, u, combatID, "next turn", func(s *combat.Session) error {
		e, b := s.NextTurn()
		if e != nil {
			ended = e.Clone()
		}
		if b != nil {
			began = b.Clone()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if _, err := cs.effects.OnTurnChange(ctx, s, ended, began); err != nil {
		return s, fmt.Errorf("advancing effects: %w", err)
	}
	return s, nil
}

// NextRound advances the round, clearing every claim.
//
// Precondition: u must be the authority.
func (cs *CombatService) NextRound(ctx context.Context, u combat.User, combatID string) (*combat.Session, error) {
	return cs.mutate(ctx, u, combatID, "next round", func(s *combat.Session) error {
		s.NextRound()
		return nil
	})
}

// Session returns the committed state of a combat. Any participant may read it.
func (cs *CombatService) Session(ctx context.Context, combatID string) (*combat.Session, error) {
	return cs.store.Load(ctx, combatID)
}

// PreviousRound is accepted and changes nothing.
//
// Precondition: u must be the authority.
func (cs *CombatService) PreviousRound(ctx context.Context, u combat.User, combatID string) (*combat.Session, error) {
	if !u.IsAuthority() {
		return nil, ErrNotAuthority
	}
	return cs.store.Load(ctx, combatID)
}

// RollInitiative rolls for ids on u's behalf and replicates the result.
// Participants may roll for combatants they own.
func (cs *CombatService) RollInitiative(ctx context.Context, u combat.User, combatID string, ids []string, opts combat.InitiativeOptions) (*combat.InitiativeOutcome, error) {
	out, err := cs.initiative.RollInitiative(ctx, u, combatID, ids, opts)
	if err != nil {
		return nil, err
	}
	if len(out.Rolls) > 0 {
		cs.replicator.Publish(ctx, out.Session)
	}
	return out, nil
}

func (cs *CombatService) mutate(ctx context.Context, u combat.User, combatID, op string, fn func(*combat.Session) error) (*combat.Session, error) {
	if !u.IsAuthority() {
		return nil, ErrNotAuthority
	}
	s, err := cs.store.Commit(ctx, combatID, fn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	cs.logger.Info("combat committed",
		zap.String("combat", combatID),
		zap.String("op", op),
		zap.Int("round", s.Round),
		zap.Int("turn", s.Turn),
	)
	cs.replicator.Publish(ctx, s)
	return s, nil
}
