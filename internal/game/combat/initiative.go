package combat

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/holotable/internal/game/character"
	"github.com/cory-johannsen/holotable/internal/game/dice"
)

// CharacterSource resolves the sheet behind a combatant.
type CharacterSource interface {
	// Character returns the sheet, or an error wrapping
	// character.ErrCharacterNotFound.
	Character(ctx context.Context, id string) (*character.Character, error)
}

// InitiativeOptions configures one initiative request.
type InitiativeOptions struct {
	// Skill selects the pool: Vigilance (default), Cool, or any skill the
	// sheet flags for initiative.
	Skill string
	// Formula, when set, is a dice expression rolled verbatim for every
	// combatant instead of a skill pool.
	Formula string
	// Extra is added to every pool before rolling.
	Extra dice.Pool
	// KeepTurnIndex leaves the turn pointer at its index instead of following
	// the active combatant through the re-sort.
	KeepTurnIndex bool
}

// InitiativeRoll is the audit record of one combatant's roll.
type InitiativeRoll struct {
	CombatantID string
	Name        string
	Skill       string
	Pool        dice.Pool
	Result      dice.RollResult
	Score       float64
	// Private is set for hidden combatants; front ends show it to the
	// authority only.
	Private bool
}

// InitiativeOutcome is the result of RollInitiative.
type InitiativeOutcome struct {
	Session *Session
	Rolls   []InitiativeRoll
}

// InitiativeRoller resolves initiative requests against a Store.
type InitiativeRoller struct {
	store  Store
	chars  CharacterSource
	roller *dice.Roller
	logger *zap.Logger
}

// NewInitiativeRoller creates an InitiativeRoller.
//
// Precondition: all arguments must be non-nil.
func NewInitiativeRoller(store Store, chars CharacterSource, roller *dice.Roller, logger *zap.Logger) *InitiativeRoller {
	return &InitiativeRoller{store: store, chars: chars, roller: roller, logger: logger}
}

// RollInitiative rolls for every combatant in ids and commits all scores as
// one batch. Ids that resolve to no combatant, to one u holds no permission
// over, or to one without a sheet are skipped. Every roll is made before the
// commit; any roll failure aborts the request with no state change. A sheet
// lacking the requested skill is such a failure, not a skip.
// After the commit the turn order is re-sorted and, unless
// opts.KeepTurnIndex, the previously active combatant stays active.
//
// Precondition: combatID must name an existing session.
// Postcondition: Returns the committed session and one roll per updated
// combatant, or an error with the stored session unchanged.
func (r *InitiativeRoller) RollInitiative(ctx context.Context, u User, combatID string, ids []string, opts InitiativeOptions) (*InitiativeOutcome, error) {
	snapshot, err := r.store.Load(ctx, combatID)
	if err != nil {
		return nil, err
	}

	skill := opts.Skill
	if skill == "" {
		skill = character.SkillVigilance
	}
	var formula *dice.Pool
	if opts.Formula != "" {
		p, err := dice.ParseExpression(opts.Formula)
		if err != nil {
			return nil, fmt.Errorf("initiative formula: %w", err)
		}
		formula = &p
		skill = ""
	}

	var rolls []InitiativeRoll
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true

		c := snapshot.Get(id)
		if c == nil || !c.HasPermission(u) {
			r.logger.Debug("initiative: skipping combatant",
				zap.String("combat", combatID),
				zap.String("combatant", id),
				zap.String("user", u.ID),
			)
			continue
		}
		roll, ok, err := r.rollOne(ctx, c, skill, formula, opts.Extra)
		if err != nil {
			return nil, fmt.Errorf("rolling initiative for %q: %w", c.Name, err)
		}
		if ok {
			rolls = append(rolls, roll)
		}
	}

	if len(rolls) == 0 {
		return &InitiativeOutcome{Session: snapshot}, nil
	}

	committed, err := r.store.Commit(ctx, combatID, func(s *Session) error {
		var currentID string
		if cur := s.Current(); cur != nil {
			currentID = cur.ID
		}
		for _, roll := range rolls {
			if c := s.Get(roll.CombatantID); c != nil {
				c.SetInitiative(roll.Score)
			}
		}
		s.SortTurns()
		if currentID != "" && !opts.KeepTurnIndex {
			s.Reposition(currentID)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("committing initiative: %w", err)
	}

	r.logger.Info("initiative committed",
		zap.String("combat", combatID),
		zap.Int("rolled", len(rolls)),
		zap.String("skill", skill),
	)
	return &InitiativeOutcome{Session: committed, Rolls: rolls}, nil
}

// rollOne builds and rolls one combatant's pool. ok is false when the
// combatant has no sheet and must be skipped.
func (r *InitiativeRoller) rollOne(ctx context.Context, c *Combatant, skill string, formula *dice.Pool, extra dice.Pool) (InitiativeRoll, bool, error) {
	if c.CharacterID == "" {
		return InitiativeRoll{}, false, nil
	}
	sheet, err := r.chars.Character(ctx, c.CharacterID)
	if err != nil {
		if errors.Is(err, character.ErrCharacterNotFound) {
			r.logger.Debug("initiative: combatant has no sheet",
				zap.String("combatant", c.ID),
				zap.String("character", c.CharacterID),
			)
			return InitiativeRoll{}, false, nil
		}
		return InitiativeRoll{}, false, err
	}

	roll := InitiativeRoll{CombatantID: c.ID, Name: c.Name, Skill: skill, Private: c.Hidden}
	if sheet.IsVehicle() {
		roll.Result = dice.RollResult{Expression: "0"}
		return roll, true, nil
	}

	var pool dice.Pool
	if formula != nil {
		pool = *formula
	} else {
		pool, err = character.SkillPool(sheet, skill)
		if err != nil {
			return InitiativeRoll{}, false, err
		}
	}
	roll.Pool = pool.Add(extra)
	roll.Result = r.roller.RollPool(roll.Pool)
	roll.Score, err = roll.Result.InitiativeScore()
	if err != nil {
		return InitiativeRoll{}, false, err
	}
	return roll, true, nil
}
