package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/holotable/internal/game/character"
	"github.com/cory-johannsen/holotable/internal/game/effect"
)

// EffectRepository stores active effects per actor.
type EffectRepository struct {
	db *pgxpool.Pool
}

// NewEffectRepository creates an EffectRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewEffectRepository(db *pgxpool.Pool) *EffectRepository {
	return &EffectRepository{db: db}
}

// Effects returns the actor's stored effects.
//
// Postcondition: Returns an empty set for an actor with none.
func (r *EffectRepository) Effects(ctx context.Context, actorID string) (*effect.Set, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, actor_id, label, icon, origin, disabled, duration, remaining, changes
		FROM active_effects WHERE actor_id = $1`, actorID)
	if err != nil {
		return nil, fmt.Errorf("querying effects of %q: %w", actorID, err)
	}
	defer rows.Close()

	set := effect.NewSet()
	for rows.Next() {
		var e effect.ActiveEffect
		if err := rows.Scan(
			&e.ID, &e.ActorID, &e.Label, &e.Icon, &e.Origin, &e.Disabled,
			&e.Duration, &e.Remaining, &e.Changes,
		); err != nil {
			return nil, fmt.Errorf("scanning effect row: %w", err)
		}
		set.Add(&e)
	}
	return set, rows.Err()
}

// SaveEffects replaces the actor's stored effects with set in one transaction.
func (r *EffectRepository) SaveEffects(ctx context.Context, actorID string, set *effect.Set) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM active_effects WHERE actor_id = $1`, actorID); err != nil {
			return fmt.Errorf("clearing effects of %q: %w", actorID, err)
		}
		all := set.All()
		if len(all) == 0 {
			return nil
		}
		batch := &pgx.Batch{}
		for _, e := range all {
			changes := e.Changes
			if changes == nil {
				changes = []character.Change{}
			}
			batch.Queue(`
				INSERT INTO active_effects
					(id, actor_id, label, icon, origin, disabled, duration, remaining, changes)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
				e.ID, actorID, e.Label, e.Icon, e.Origin, e.Disabled, e.Duration, e.Remaining, changes,
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("inserting effects of %q: %w", actorID, err)
		}
		return nil
	})
}
