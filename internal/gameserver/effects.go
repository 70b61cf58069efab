package gameserver

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/holotable/internal/game/character"
	"github.com/cory-johannsen/holotable/internal/game/combat"
	"github.com/cory-johannsen/holotable/internal/game/effect"
)

// EffectStore persists each actor's active effects.
type EffectStore interface {
	// Effects returns the actor's effects; an actor with none gets an empty set.
	Effects(ctx context.Context, actorID string) (*effect.Set, error)
	// SaveEffects replaces the actor's stored effects with set.
	SaveEffects(ctx context.Context, actorID string, set *effect.Set) error
}

// MemoryEffectStore is an in-memory EffectStore.
// All methods are safe for concurrent use.
type MemoryEffectStore struct {
	mu     sync.RWMutex
	actors map[string][]*effect.ActiveEffect
}

// NewMemoryEffectStore creates an empty MemoryEffectStore.
func NewMemoryEffectStore() *MemoryEffectStore {
	return &MemoryEffectStore{actors: make(map[string][]*effect.ActiveEffect)}
}

// Effects returns a private copy of the actor's effects.
func (m *MemoryEffectStore) Effects(_ context.Context, actorID string) (*effect.Set, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	set := effect.NewSet()
	for _, e := range m.actors[actorID] {
		set.Add(e.Clone())
	}
	return set, nil
}

// SaveEffects stores a copy of set.
func (m *MemoryEffectStore) SaveEffects(_ context.Context, actorID string, set *effect.Set) error {
	all := set.All()
	stored := make([]*effect.ActiveEffect, 0, len(all))
	for _, e := range all {
		stored = append(stored, e.Clone())
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(stored) == 0 {
		delete(m.actors, actorID)
		return nil
	}
	m.actors[actorID] = stored
	return nil
}

// EffectTracker advances effect durations as turns change and applies effects
// to character sheets.
type EffectTracker struct {
	store  EffectStore
	logger *zap.Logger
	mu     sync.Mutex
}

// NewEffectTracker creates an EffectTracker.
//
// Precondition: store and logger must be non-nil.
func NewEffectTracker(store EffectStore, logger *zap.Logger) *EffectTracker {
	return &EffectTracker{store: store, logger: logger}
}

// AddEffect attaches e to the actor.
//
// Postcondition: e.ActorID == actorID.
func (t *EffectTracker) AddEffect(ctx context.Context, actorID string, e *effect.ActiveEffect) error {
	return t.update(ctx, actorID, func(set *effect.Set) error {
		e.ActorID = actorID
		set.Add(e)
		return nil
	})
}

// ToggleEffect flips an effect between enabled and disabled.
func (t *EffectTracker) ToggleEffect(ctx context.Context, actorID, effectID string) error {
	return t.update(ctx, actorID, func(set *effect.Set) error {
		_, err := set.Toggle(effectID)
		return err
	})
}

// DeleteEffect removes an effect. Deleting an absent effect is a no-op.
func (t *EffectTracker) DeleteEffect(ctx context.Context, actorID, effectID string) error {
	return t.update(ctx, actorID, func(set *effect.Set) error {
		set.Delete(effectID)
		return nil
	})
}

// Effects returns the actor's effects grouped for display.
func (t *EffectTracker) Effects(ctx context.Context, actorID string) (effect.Categories, error) {
	set, err := t.store.Effects(ctx, actorID)
	if err != nil {
		return effect.Categories{}, err
	}
	return set.Categorize(), nil
}

func (t *EffectTracker) update(ctx context.Context, actorID string, fn func(*effect.Set) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	set, err := t.store.Effects(ctx, actorID)
	if err != nil {
		return err
	}
	if err := fn(set); err != nil {
		return err
	}
	return t.store.SaveEffects(ctx, actorID, set)
}

// OnTurnChange ticks the effects of every actor in s for the end of ended's
// turn and the start of began's turn. Either may be nil.
//
// Postcondition: Returns the expired effect IDs keyed by actor ID.
func (t *EffectTracker) OnTurnChange(ctx context.Context, s *combat.Session, ended, began *combat.Combatant) (map[string][]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	expired := make(map[string][]string)
	seen := make(map[string]bool)
	for _, c := range s.Combatants {
		actor := c.CharacterID
		if actor == "" || seen[actor] {
			continue
		}
		seen[actor] = true
		set, err := t.store.Effects(ctx, actor)
		if err != nil {
			return nil, fmt.Errorf("loading effects for %q: %w", actor, err)
		}
		if set.Len() == 0 {
			continue
		}
		var gone []string
		if ended != nil {
			gone = append(gone, set.TickTurn(effect.AnchorEnd, ended.CharacterID == actor)...)
		}
		if began != nil {
			gone = append(gone, set.TickTurn(effect.AnchorStart, began.CharacterID == actor)...)
		}
		if err := t.store.SaveEffects(ctx, actor, set); err != nil {
			return nil, fmt.Errorf("saving effects for %q: %w", actor, err)
		}
		if len(gone) > 0 {
			expired[actor] = gone
			t.logger.Info("effects expired",
				zap.String("combat", s.ID),
				zap.String("actor", actor),
				zap.Strings("effects", gone),
			)
		}
	}
	return expired, nil
}

// RecordSkillCheck counts one skill check against the actor's effects.
//
// Postcondition: Returns the IDs of effects that expired.
func (t *EffectTracker) RecordSkillCheck(ctx context.Context, actorID string) ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	set, err := t.store.Effects(ctx, actorID)
	if err != nil {
		return nil, err
	}
	gone := set.RecordSkillCheck()
	if err := t.store.SaveEffects(ctx, actorID, set); err != nil {
		return nil, err
	}
	return gone, nil
}

// Characters decorates src so every sheet it returns has the actor's enabled
// effects applied.
func (t *EffectTracker) Characters(src combat.CharacterSource) combat.CharacterSource {
	return &effectedCharacters{src: src, store: t.store}
}

type effectedCharacters struct {
	src   combat.CharacterSource
	store EffectStore
}

func (e *effectedCharacters) Character(ctx context.Context, id string) (*character.Character, error) {
	sheet, err := e.src.Character(ctx, id)
	if err != nil {
		return nil, err
	}
	set, err := e.store.Effects(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading effects for %q: %w", id, err)
	}
	return set.ApplyTo(sheet)
}
