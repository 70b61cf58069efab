package dice_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/holotable/internal/game/dice"
)

func genPool(t *rapid.T) dice.Pool {
	return dice.Pool{
		Ability:     rapid.IntRange(0, 6).Draw(t, "ability"),
		Proficiency: rapid.IntRange(0, 6).Draw(t, "proficiency"),
		Boost:       rapid.IntRange(0, 4).Draw(t, "boost"),
		Setback:     rapid.IntRange(0, 4).Draw(t, "setback"),
		Difficulty:  rapid.IntRange(0, 5).Draw(t, "difficulty"),
		Challenge:   rapid.IntRange(0, 5).Draw(t, "challenge"),
		Force:       rapid.IntRange(0, 3).Draw(t, "force"),
		Success:     rapid.IntRange(0, 3).Draw(t, "success"),
		Advantage:   rapid.IntRange(0, 3).Draw(t, "advantage"),
		Triumph:     rapid.IntRange(0, 2).Draw(t, "triumph"),
		Failure:     rapid.IntRange(0, 3).Draw(t, "failure"),
		Threat:      rapid.IntRange(0, 3).Draw(t, "threat"),
		Despair:     rapid.IntRange(0, 2).Draw(t, "despair"),
	}
}

func diceOnly(p dice.Pool) dice.Pool {
	return dice.Pool{
		Ability: p.Ability, Proficiency: p.Proficiency, Boost: p.Boost, Setback: p.Setback,
		Difficulty: p.Difficulty, Challenge: p.Challenge, Force: p.Force,
	}
}

func TestPool_Upgrade_AbilityToProficiency(t *testing.T) {
	p := dice.Pool{Ability: 3}
	p.Upgrade(2)
	assert.Equal(t, dice.Pool{Ability: 1, Proficiency: 2}, p)
	assert.Equal(t, "1da+2dp", p.RenderExpression())
}

func TestPool_Upgrade_BoostWhenNoAbility(t *testing.T) {
	p := dice.Pool{Boost: 1}
	p.Upgrade(1)
	assert.Equal(t, dice.Pool{Ability: 1}, p)
	p.Upgrade(1)
	assert.Equal(t, dice.Pool{Proficiency: 1}, p)
}

func TestPool_Upgrade_BeyondAvailability_IsNoOp(t *testing.T) {
	p := dice.Pool{Proficiency: 2}
	p.Upgrade(5)
	assert.Equal(t, dice.Pool{Proficiency: 2}, p)

	var empty dice.Pool
	empty.Downgrade(3)
	assert.True(t, empty.IsEmpty())
}

func TestPool_Downgrade(t *testing.T) {
	p := dice.Pool{Proficiency: 1, Ability: 1}
	p.Downgrade(3)
	// proficiency -> ability, then ability -> boost twice
	assert.Equal(t, dice.Pool{Boost: 2}, p)
}

func TestPool_UpgradeDowngrade_Inverse_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		orig := genPool(rt)
		n := rapid.IntRange(0, orig.Ability).Draw(rt, "n")
		p := orig
		p.Upgrade(n)
		p.Downgrade(n)
		assert.Equal(rt, orig, p)
	})
}

func TestPool_Upgrade_PreservesDiceCount_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		p := genPool(rt)
		before := p.DiceCount()
		p.Upgrade(rapid.IntRange(0, 10).Draw(rt, "up"))
		p.Downgrade(rapid.IntRange(0, 10).Draw(rt, "down"))
		assert.Equal(rt, before, p.DiceCount())
	})
}

func TestPool_DifficultyUpgrades(t *testing.T) {
	p := dice.Pool{Difficulty: 2, Setback: 1}
	p.UpgradeDifficulty(3)
	assert.Equal(t, dice.Pool{Challenge: 2, Setback: 1}, p)
	p.DowngradeDifficulty(1)
	assert.Equal(t, dice.Pool{Difficulty: 1, Challenge: 1, Setback: 1}, p)
}

func TestPool_RenderExpression_CanonicalOrder(t *testing.T) {
	p := dice.Pool{Force: 1, Challenge: 1, Difficulty: 2, Setback: 1, Boost: 1, Proficiency: 2, Ability: 1}
	assert.Equal(t, "1da+2dp+1db+1ds+2di+1dc+1df", p.RenderExpression())
	assert.Equal(t, "0", dice.Pool{}.RenderExpression())
	assert.Equal(t, "0", dice.Pool{Success: 2}.RenderExpression())
}

func TestPool_RenderParseRender_Idempotent_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		p := genPool(rt)
		expr := p.RenderExpression()
		parsed, err := dice.ParseExpression(expr)
		require.NoError(rt, err)
		assert.Equal(rt, diceOnly(p), parsed)
		assert.Equal(rt, expr, parsed.RenderExpression())
	})
}

func TestParseExpression(t *testing.T) {
	tests := []struct {
		expr string
		want dice.Pool
	}{
		{"", dice.Pool{}},
		{"0", dice.Pool{}},
		{"2dp+1da", dice.Pool{Proficiency: 2, Ability: 1}},
		{"dA + dA", dice.Pool{Ability: 2}},
		{"3ds", dice.Pool{Setback: 3}},
		{"1df+0db", dice.Pool{Force: 1}},
	}
	for _, tc := range tests {
		got, err := dice.ParseExpression(tc.expr)
		require.NoError(t, err, "expr=%q", tc.expr)
		assert.Equal(t, tc.want, got, "expr=%q", tc.expr)
	}
}

func TestParseExpression_Malformed(t *testing.T) {
	for _, expr := range []string{"2d6", "xyz", "2d", "-1da", "1da++1dp", "ad"} {
		_, err := dice.ParseExpression(expr)
		assert.ErrorIs(t, err, dice.ErrMalformedExpression, "expr=%q", expr)
	}
}

func TestMustParseExpression_Panics(t *testing.T) {
	assert.Panics(t, func() { dice.MustParseExpression("4d20") })
	assert.Equal(t, dice.Pool{Ability: 4}, dice.MustParseExpression("4da"))
}

func TestPool_Container_RoundTrip_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		p := genPool(rt)
		back, err := dice.FromContainer(p.Container())
		require.NoError(rt, err)
		assert.Equal(rt, p, back)
	})
}

func TestFromContainer(t *testing.T) {
	p, err := dice.FromContainer(dice.Container{
		"Boost":     "1",
		"setback":   "",
		"advantage": " 2 ",
	})
	require.NoError(t, err)
	assert.Equal(t, dice.Pool{Boost: 1, Advantage: 2}, p)

	_, err = dice.FromContainer(dice.Container{"boost": "two"})
	assert.ErrorIs(t, err, dice.ErrMalformedExpression)
	_, err = dice.FromContainer(dice.Container{"boost": "-1"})
	assert.ErrorIs(t, err, dice.ErrMalformedExpression)
	_, err = dice.FromContainer(dice.Container{"glory": "1"})
	assert.ErrorIs(t, err, dice.ErrMalformedExpression)
}

func TestPool_Add(t *testing.T) {
	base := dice.Pool{Ability: 2, Proficiency: 1, Advantage: 1}
	extra := dice.Pool{Boost: 1, Setback: 2, Success: 1, Threat: 1}
	assert.Equal(t, dice.Pool{
		Ability: 2, Proficiency: 1, Boost: 1, Setback: 2,
		Success: 1, Advantage: 1, Threat: 1,
	}, base.Add(extra))
	assert.Equal(t, dice.Symbols{Success: 1, Advantage: 1, Threat: 1}, base.Add(extra).Symbols())
}

func TestPool_String(t *testing.T) {
	assert.Equal(t, "2da", dice.Pool{Ability: 2}.String())
	assert.Equal(t, "2da (+1 advantage)", dice.Pool{Ability: 2, Advantage: 1}.String())
}
