package postgres_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/holotable/internal/game/character"
	"github.com/cory-johannsen/holotable/internal/game/combat"
	"github.com/cory-johannsen/holotable/internal/game/effect"
	"github.com/cory-johannsen/holotable/internal/storage/postgres"
	"github.com/cory-johannsen/holotable/internal/testutil"
)

func TestCharacterRepository(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewCharacterRepository(testutil.NewPool(t))

	in := &character.Character{
		ID:   "kira",
		Name: "Kira",
		Characteristics: map[string]character.Characteristic{
			"Willpower": {Value: 3},
			"Presence":  {Value: 2},
		},
		Skills: map[string]character.Skill{
			"Vigilance": {Characteristic: "Willpower", Rank: 1, Boost: 1},
		},
		Owners: []string{"alice"},
	}
	saved, err := repo.Save(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, character.TypeCharacter, saved.Type)
	assert.False(t, saved.CreatedAt.IsZero())

	got, err := repo.Character(ctx, "kira")
	require.NoError(t, err)
	assert.Equal(t, in.Characteristics, got.Characteristics)
	assert.Equal(t, in.Skills, got.Skills)
	assert.Equal(t, []string{"alice"}, got.Owners)

	in.Name = "Kira Vex"
	_, err = repo.Save(ctx, in)
	require.NoError(t, err)
	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Kira Vex", all[0].Name)

	require.NoError(t, repo.Delete(ctx, "kira"))
	_, err = repo.Character(ctx, "kira")
	assert.ErrorIs(t, err, character.ErrCharacterNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "kira"), character.ErrCharacterNotFound)
}

func TestCombatRepository(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewCombatRepository(testutil.NewPool(t))

	score := 2.0101
	s := combat.NewSession("c1",
		&combat.Combatant{ID: "a", Name: "Kira", CharacterID: "kira", Disposition: combat.Friendly, Owners: []string{"alice"}},
		&combat.Combatant{ID: "h", Name: "Trooper", Disposition: combat.Hostile, Initiative: &score, Hidden: true},
	)

	t.Run("create and load", func(t *testing.T) {
		require.NoError(t, repo.Create(ctx, s))
		assert.ErrorIs(t, repo.Create(ctx, s), combat.ErrCombatExists)

		got, err := repo.Load(ctx, "c1")
		require.NoError(t, err)
		require.Len(t, got.Combatants, 2)
		assert.Equal(t, "h", got.Combatants[0].ID, "turn order is preserved")
		assert.Equal(t, score, *got.Combatants[0].Initiative)
		assert.True(t, got.Combatants[0].Hidden)
		assert.Nil(t, got.Combatants[1].Initiative)
		assert.Equal(t, []string{"alice"}, got.Combatants[1].Owners)

		_, err = repo.Load(ctx, "missing")
		assert.ErrorIs(t, err, combat.ErrCombatNotFound)
	})

	t.Run("commit persists mutation", func(t *testing.T) {
		out, err := repo.Commit(ctx, "c1", func(s *combat.Session) error {
			s.Start()
			return combat.ClaimSlot(s, "h", "h")
		})
		require.NoError(t, err)
		assert.Equal(t, 1, out.Round)

		got, err := repo.Load(ctx, "c1")
		require.NoError(t, err)
		assert.True(t, got.Started)
		assert.Equal(t, "h", got.Get("h").ClaimedID())
		assert.True(t, got.Get("h").HasActed())
	})

	t.Run("failed mutation rolls back", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := repo.Commit(ctx, "c1", func(s *combat.Session) error {
			s.NextRound()
			return boom
		})
		assert.ErrorIs(t, err, boom)

		got, err := repo.Load(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, 1, got.Round)
		assert.Equal(t, "h", got.Get("h").ClaimedID())
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, "c1"))
		_, err := repo.Load(ctx, "c1")
		assert.ErrorIs(t, err, combat.ErrCombatNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, "c1"), combat.ErrCombatNotFound)
	})
}

func TestEffectRepository(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewEffectRepository(testutil.NewPool(t))

	empty, err := repo.Effects(ctx, "kira")
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())

	stun := effect.New(effect.KindTemporary, "kira", "item.stimpack")
	stun.ID = "e1"
	stun.Label = "Stimmed"
	stun.Changes = []character.Change{{Key: "skills.Vigilance.boost", Mode: character.ModeAdd, Value: 1}}
	aura := effect.New(effect.KindPassive, "kira", "")
	aura.ID = "e2"

	require.NoError(t, repo.SaveEffects(ctx, "kira", effect.NewSet(stun, aura)))
	got, err := repo.Effects(ctx, "kira")
	require.NoError(t, err)
	require.Equal(t, 2, got.Len())
	e1, ok := got.Get("e1")
	require.True(t, ok)
	assert.Equal(t, stun.Duration, e1.Duration)
	assert.Equal(t, stun.Remaining, e1.Remaining)
	assert.Equal(t, stun.Changes, e1.Changes)

	require.NoError(t, repo.SaveEffects(ctx, "kira", effect.NewSet(aura)))
	got, err = repo.Effects(ctx, "kira")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Len())
	_, ok = got.Get("e1")
	assert.False(t, ok, "saving replaces the actor's effects")
}
