package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/holotable/internal/game/character"
)

// CharacterRepository stores character sheets. Characteristics and skills are
// kept as JSONB documents.
type CharacterRepository struct {
	db *pgxpool.Pool
}

// NewCharacterRepository creates a CharacterRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewCharacterRepository(db *pgxpool.Pool) *CharacterRepository {
	return &CharacterRepository{db: db}
}

const characterColumns = `id, name, type, owners, characteristics, skills, created_at, updated_at`

// Save inserts c or replaces the stored sheet with the same ID.
//
// Precondition: c.ID and c.Name must be non-empty.
// Postcondition: Returns the stored character with timestamps set, or an
// error wrapping character.ErrInvalidSheet without touching the database.
func (r *CharacterRepository) Save(ctx context.Context, c *character.Character) (*character.Character, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	typ := c.Type
	if typ == "" {
		typ = character.TypeCharacter
	}
	owners := c.Owners
	if owners == nil {
		owners = []string{}
	}
	row := r.db.QueryRow(ctx, `
		INSERT INTO characters (id, name, type, owners, characteristics, skills)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			type = EXCLUDED.type,
			owners = EXCLUDED.owners,
			characteristics = EXCLUDED.characteristics,
			skills = EXCLUDED.skills,
			updated_at = NOW()
		RETURNING `+characterColumns,
		c.ID, c.Name, string(typ), owners, nonNilMap(c.Characteristics), nonNilMap(c.Skills),
	)
	out, err := scanCharacter(row)
	if err != nil {
		return nil, fmt.Errorf("saving character %q: %w", c.ID, err)
	}
	return out, nil
}

// Character retrieves a sheet by ID.
//
// Postcondition: Returns the Character or an error wrapping
// character.ErrCharacterNotFound.
func (r *CharacterRepository) Character(ctx context.Context, id string) (*character.Character, error) {
	row := r.db.QueryRow(ctx, `SELECT `+characterColumns+` FROM characters WHERE id = $1`, id)
	c, err := scanCharacter(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %q", character.ErrCharacterNotFound, id)
		}
		return nil, fmt.Errorf("querying character %q: %w", id, err)
	}
	return c, nil
}

// List returns all sheets ordered by name.
//
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *CharacterRepository) List(ctx context.Context) ([]*character.Character, error) {
	rows, err := r.db.Query(ctx, `SELECT `+characterColumns+` FROM characters ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("listing characters: %w", err)
	}
	defer rows.Close()

	chars := make([]*character.Character, 0)
	for rows.Next() {
		c, err := scanCharacter(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning character row: %w", err)
		}
		chars = append(chars, c)
	}
	return chars, rows.Err()
}

// Delete removes a sheet.
//
// Postcondition: Returns character.ErrCharacterNotFound if nothing was deleted.
func (r *CharacterRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM characters WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting character %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %q", character.ErrCharacterNotFound, id)
	}
	return nil
}

func scanCharacter(row pgx.Row) (*character.Character, error) {
	var (
		c   character.Character
		typ string
	)
	if err := row.Scan(
		&c.ID, &c.Name, &typ, &c.Owners,
		&c.Characteristics, &c.Skills,
		&c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	c.Type = character.Type(typ)
	return &c, nil
}

func nonNilMap[V any](m map[string]V) map[string]V {
	if m == nil {
		return map[string]V{}
	}
	return m
}
