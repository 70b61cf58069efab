package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/holotable/internal/game/combat"
)

// CombatRepository is the PostgreSQL combat.Store. Commit locks the session
// row for the length of its transaction, so concurrent commits to one session
// are applied one after another.
type CombatRepository struct {
	db *pgxpool.Pool
}

// NewCombatRepository creates a CombatRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewCombatRepository(db *pgxpool.Pool) *CombatRepository {
	return &CombatRepository{db: db}
}

// Create inserts s and its combatants.
//
// Postcondition: Returns combat.ErrCombatExists when the ID is taken.
func (r *CombatRepository) Create(ctx context.Context, s *combat.Session) error {
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO combats (id, round, turn, started) VALUES ($1, $2, $3, $4)`,
			s.ID, s.Round, s.Turn, s.Started,
		); err != nil {
			return err
		}
		return insertCombatants(ctx, tx, s)
	})
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("%w: %q", combat.ErrCombatExists, s.ID)
		}
		return fmt.Errorf("inserting combat %q: %w", s.ID, err)
	}
	return nil
}

// Load reads the session and its turn order.
//
// Postcondition: Returns the session or an error wrapping combat.ErrCombatNotFound.
func (r *CombatRepository) Load(ctx context.Context, id string) (*combat.Session, error) {
	return loadSession(ctx, r.db, id, false)
}

// Commit applies mutate to the stored session inside one transaction.
//
// Postcondition: When mutate or any write fails the transaction is rolled back
// and the stored session is unchanged.
func (r *CombatRepository) Commit(ctx context.Context, id string, mutate func(*combat.Session) error) (*combat.Session, error) {
	var out *combat.Session
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		s, err := loadSession(ctx, tx, id, true)
		if err != nil {
			return err
		}
		if err := mutate(s); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`UPDATE combats SET round = $2, turn = $3, started = $4, updated_at = NOW() WHERE id = $1`,
			s.ID, s.Round, s.Turn, s.Started,
		); err != nil {
			return fmt.Errorf("updating combat %q: %w", id, err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM combatants WHERE combat_id = $1`, id); err != nil {
			return fmt.Errorf("clearing combatants of %q: %w", id, err)
		}
		if err := insertCombatants(ctx, tx, s); err != nil {
			return err
		}
		out = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes the session and its combatants.
func (r *CombatRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM combats WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting combat %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %q", combat.ErrCombatNotFound, id)
	}
	return nil
}

func loadSession(ctx context.Context, q querier, id string, forUpdate bool) (*combat.Session, error) {
	query := `SELECT id, round, turn, started FROM combats WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var s combat.Session
	if err := q.QueryRow(ctx, query, id).Scan(&s.ID, &s.Round, &s.Turn, &s.Started); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %q", combat.ErrCombatNotFound, id)
		}
		return nil, fmt.Errorf("querying combat %q: %w", id, err)
	}

	rows, err := q.Query(ctx, `
		SELECT id, name, character_id, disposition, initiative, claimed_by, acted, hidden, owners
		FROM combatants WHERE combat_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("querying combatants of %q: %w", id, err)
	}
	defer rows.Close()
	s.Combatants = make([]*combat.Combatant, 0)
	for rows.Next() {
		var (
			c           combat.Combatant
			disposition int16
		)
		if err := rows.Scan(
			&c.ID, &c.Name, &c.CharacterID, &disposition, &c.Initiative,
			&c.ClaimedBy, &c.Acted, &c.Hidden, &c.Owners,
		); err != nil {
			return nil, fmt.Errorf("scanning combatant row: %w", err)
		}
		c.Disposition = combat.Disposition(disposition)
		s.Combatants = append(s.Combatants, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &s, nil
}

func insertCombatants(ctx context.Context, tx pgx.Tx, s *combat.Session) error {
	if len(s.Combatants) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for i, c := range s.Combatants {
		owners := c.Owners
		if owners == nil {
			owners = []string{}
		}
		batch.Queue(`
			INSERT INTO combatants
				(combat_id, id, position, name, character_id, disposition, initiative, claimed_by, acted, hidden, owners)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			s.ID, c.ID, i, c.Name, c.CharacterID, int16(c.Disposition), c.Initiative,
			c.ClaimedBy, c.Acted, c.Hidden, owners,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("inserting combatants of %q: %w", s.ID, err)
	}
	return nil
}
