package combat_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/holotable/internal/game/character"
	"github.com/cory-johannsen/holotable/internal/game/combat"
	"github.com/cory-johannsen/holotable/internal/game/dice"
)

// fixedSource always lands on the same face index.
type fixedSource struct{ face int }

func (f fixedSource) Intn(n int) int { return f.face % n }

// face 3 is two success on both the ability and proficiency dice.
const doubleSuccess = 3

func roster() *character.Roster {
	return character.NewRoster(
		&character.Character{
			ID: "hero", Name: "Hero", Type: character.TypeCharacter,
			Characteristics: map[string]character.Characteristic{"Willpower": {Value: 3}, "Presence": {Value: 2}},
			Skills:          map[string]character.Skill{"Vigilance": {Characteristic: "Willpower", Rank: 2}},
		},
		&character.Character{
			ID: "trooper", Name: "Trooper", Type: character.TypeMinion,
			Characteristics: map[string]character.Characteristic{"Willpower": {Value: 1}},
		},
		&character.Character{ID: "speeder", Name: "Speeder", Type: character.TypeVehicle},
	)
}

func initiativeFixture(t *testing.T, face int) (*combat.Engine, *combat.InitiativeRoller) {
	t.Helper()
	e := combat.NewEngine()
	s := combat.NewSession("c1",
		newCombatant("hero", "Hero", combat.Friendly, nil, "bob"),
		newCombatant("trooper", "Trooper", combat.Hostile, nil),
		newCombatant("speeder", "Speeder", combat.Hostile, nil),
		&combat.Combatant{ID: "ghost", Name: "Ghost", CharacterID: "missing", Disposition: combat.Hostile},
	)
	require.NoError(t, e.Create(context.Background(), s))

	logger := zaptest.NewLogger(t)
	roller := dice.NewLoggedRoller(dice.NewEvaluator(nil, fixedSource{face: face}), logger)
	return e, combat.NewInitiativeRoller(e, roster(), roller, logger)
}

var gm = combat.User{ID: "gm", Role: combat.RoleAuthority}

func TestRollInitiative_VigilancePoolAndScores(t *testing.T) {
	e, r := initiativeFixture(t, doubleSuccess)
	out, err := r.RollInitiative(context.Background(), gm, "c1", []string{"hero", "trooper", "speeder", "ghost"}, combat.InitiativeOptions{})
	require.NoError(t, err)

	require.Len(t, out.Rolls, 3, "ghost has no sheet and is skipped")
	byID := map[string]combat.InitiativeRoll{}
	for _, roll := range out.Rolls {
		byID[roll.CombatantID] = roll
	}
	assert.Equal(t, "1da+2dp", byID["hero"].Pool.RenderExpression())
	assert.InDelta(t, 6.0, byID["hero"].Score, 1e-9)
	assert.Equal(t, "1da", byID["trooper"].Pool.RenderExpression())
	assert.InDelta(t, 2.0, byID["trooper"].Score, 1e-9)
	assert.Equal(t, 0.0, byID["speeder"].Score)
	assert.Empty(t, byID["speeder"].Result.Dice, "vehicles never roll")

	assert.Equal(t, []string{"hero", "trooper", "speeder", "ghost"}, ids(out.Session))
	stored, err := e.Load(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, out.Session, stored)
	assert.False(t, stored.Get("ghost").HasRolled())
}

func TestRollInitiative_SkipsWithoutPermission(t *testing.T) {
	_, r := initiativeFixture(t, doubleSuccess)
	bob := combat.User{ID: "bob"}
	out, err := r.RollInitiative(context.Background(), bob, "c1", []string{"hero", "trooper", "hero", "nobody"}, combat.InitiativeOptions{})
	require.NoError(t, err)
	require.Len(t, out.Rolls, 1)
	assert.Equal(t, "hero", out.Rolls[0].CombatantID)
	assert.False(t, out.Session.Get("trooper").HasRolled())
}

func TestRollInitiative_NothingEligibleCommitsNothing(t *testing.T) {
	_, r := initiativeFixture(t, doubleSuccess)
	out, err := r.RollInitiative(context.Background(), combat.User{ID: "carol"}, "c1", []string{"hero"}, combat.InitiativeOptions{})
	require.NoError(t, err)
	assert.Empty(t, out.Rolls)
	assert.False(t, out.Session.Get("hero").HasRolled())
}

func TestRollInitiative_CoolAndExtraAdvantage(t *testing.T) {
	_, r := initiativeFixture(t, 0)
	out, err := r.RollInitiative(context.Background(), gm, "c1", []string{"hero"}, combat.InitiativeOptions{
		Skill: character.SkillCool,
		Extra: dice.Pool{Advantage: 2},
	})
	require.NoError(t, err)
	require.Len(t, out.Rolls, 1)
	assert.Equal(t, "2da", out.Rolls[0].Pool.RenderExpression())
	assert.InDelta(t, 0.02, out.Rolls[0].Score, 1e-9)
}

func TestRollInitiative_Formula(t *testing.T) {
	_, r := initiativeFixture(t, doubleSuccess)
	out, err := r.RollInitiative(context.Background(), gm, "c1", []string{"hero", "trooper"}, combat.InitiativeOptions{Formula: "2dp"})
	require.NoError(t, err)
	for _, roll := range out.Rolls {
		assert.Equal(t, "2dp", roll.Pool.RenderExpression())
		assert.InDelta(t, 4.0, roll.Score, 1e-9)
	}

	_, err = r.RollInitiative(context.Background(), gm, "c1", []string{"hero"}, combat.InitiativeOptions{Formula: "3x"})
	assert.ErrorIs(t, err, dice.ErrMalformedExpression)
}

func TestRollInitiative_FailureAbortsWholeBatch(t *testing.T) {
	tests := []struct {
		name string
		opts combat.InitiativeOptions
		want error
	}{
		{name: "unknown skill", opts: combat.InitiativeOptions{Skill: "Piloting"}, want: character.ErrUnknownSkill},
		{name: "advantage overflow", opts: combat.InitiativeOptions{Extra: dice.Pool{Advantage: dice.RankedAdvantageLimit}}, want: dice.ErrAdvantageOverflow},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e, r := initiativeFixture(t, 0)
			_, err := r.RollInitiative(context.Background(), gm, "c1", []string{"speeder", "hero", "trooper"}, tc.opts)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)

			stored, err := e.Load(context.Background(), "c1")
			require.NoError(t, err)
			for _, c := range stored.Combatants {
				assert.False(t, c.HasRolled(), "%s rolled despite abort", c.ID)
			}
		})
	}
}

func TestRollInitiative_ActiveCombatantFollowsResort(t *testing.T) {
	e, r := initiativeFixture(t, doubleSuccess)
	ctx := context.Background()
	_, err := e.Commit(ctx, "c1", func(s *combat.Session) error {
		s.Start()
		s.Reposition("trooper")
		return nil
	})
	require.NoError(t, err)

	out, err := r.RollInitiative(ctx, gm, "c1", []string{"hero", "trooper"}, combat.InitiativeOptions{})
	require.NoError(t, err)
	assert.Equal(t, "trooper", out.Session.Current().ID)

	out, err = r.RollInitiative(ctx, gm, "c1", []string{"speeder"}, combat.InitiativeOptions{KeepTurnIndex: true})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Session.Turn)
}

func TestRollInitiative_UnknownCombat(t *testing.T) {
	_, r := initiativeFixture(t, 0)
	_, err := r.RollInitiative(context.Background(), gm, "nope", nil, combat.InitiativeOptions{})
	assert.ErrorIs(t, err, combat.ErrCombatNotFound)
}

// failingSource reports a storage error for every lookup.
type failingSource struct{}

func (failingSource) Character(context.Context, string) (*character.Character, error) {
	return nil, errors.New("db down")
}

func TestRollInitiative_SourceErrorAborts(t *testing.T) {
	e := combat.NewEngine()
	require.NoError(t, e.Create(context.Background(), combat.NewSession("c1", newCombatant("hero", "Hero", combat.Friendly, nil))))
	roller := dice.NewLoggedRoller(dice.NewEvaluator(nil, fixedSource{}), zap.NewNop())
	r := combat.NewInitiativeRoller(e, failingSource{}, roller, zap.NewNop())

	_, err := r.RollInitiative(context.Background(), gm, "c1", []string{"hero"}, combat.InitiativeOptions{})
	assert.ErrorContains(t, err, "db down")
}
