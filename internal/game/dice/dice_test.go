package dice_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/holotable/internal/game/dice"
)

func genSymbols(t *rapid.T, label string) dice.Symbols {
	return dice.Symbols{
		Success:   rapid.IntRange(0, 20).Draw(t, label+"_success"),
		Advantage: rapid.IntRange(0, 20).Draw(t, label+"_advantage"),
		Triumph:   rapid.IntRange(0, 3).Draw(t, label+"_triumph"),
		Failure:   rapid.IntRange(0, 20).Draw(t, label+"_failure"),
		Threat:    rapid.IntRange(0, 20).Draw(t, label+"_threat"),
		Despair:   rapid.IntRange(0, 3).Draw(t, label+"_despair"),
		Light:     rapid.IntRange(0, 4).Draw(t, label+"_light"),
		Dark:      rapid.IntRange(0, 4).Draw(t, label+"_dark"),
	}
}

func TestSymbols_Cancel(t *testing.T) {
	raw := dice.Symbols{Success: 3, Failure: 1, Advantage: 1, Threat: 2, Triumph: 1, Despair: 1}
	net := raw.Cancel()
	assert.Equal(t, dice.Symbols{Success: 2, Threat: 1, Triumph: 1, Despair: 1}, net)
}

func TestSymbols_Cancel_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		raw := genSymbols(rt, "raw")
		net := raw.Cancel()

		assert.Equal(rt, raw.Success-raw.Failure, net.Success-net.Failure)
		assert.Equal(rt, raw.Advantage-raw.Threat, net.Advantage-net.Threat)
		assert.GreaterOrEqual(rt, net.Success, 0)
		assert.GreaterOrEqual(rt, net.Failure, 0)
		assert.GreaterOrEqual(rt, net.Advantage, 0)
		assert.GreaterOrEqual(rt, net.Threat, 0)
		assert.True(rt, net.Success == 0 || net.Failure == 0, "one of success/failure must be zero")
		assert.True(rt, net.Advantage == 0 || net.Threat == 0, "one of advantage/threat must be zero")
		// triumph, despair and force pips never cancel
		assert.Equal(rt, raw.Triumph, net.Triumph)
		assert.Equal(rt, raw.Despair, net.Despair)
		assert.Equal(rt, raw.Light, net.Light)
		assert.Equal(rt, raw.Dark, net.Dark)
	})
}

func TestSymbols_String(t *testing.T) {
	assert.Equal(t, "blank", dice.Symbols{}.String())
	assert.Equal(t, "2 success, 1 triumph", dice.Symbols{Success: 2, Triumph: 1}.String())
}

func TestRollResult_Total(t *testing.T) {
	r := dice.RollResult{Net: dice.Symbols{Success: 2, Advantage: 3}}
	assert.InDelta(t, 2.03, r.Total(), 1e-9)
}

func TestRollResult_Total_AdvantageBreaksTiesOnly(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s1 := rapid.IntRange(0, 30).Draw(rt, "s1")
		s2 := rapid.IntRange(0, 30).Draw(rt, "s2")
		a1 := rapid.IntRange(0, dice.RankedAdvantageLimit-1).Draw(rt, "a1")
		a2 := rapid.IntRange(0, dice.RankedAdvantageLimit-1).Draw(rt, "a2")
		r1 := dice.RollResult{Net: dice.Symbols{Success: s1, Advantage: a1}}
		r2 := dice.RollResult{Net: dice.Symbols{Success: s2, Advantage: a2}}

		switch {
		case s1 > s2:
			assert.Greater(rt, r1.Total(), r2.Total())
		case s1 < s2:
			assert.Less(rt, r1.Total(), r2.Total())
		case a1 > a2:
			assert.Greater(rt, r1.Total(), r2.Total())
		case a1 < a2:
			assert.Less(rt, r1.Total(), r2.Total())
		default:
			assert.Equal(rt, r1.Total(), r2.Total())
		}
	})
}

func TestRollResult_InitiativeScore_RejectsAdvantageOverflow(t *testing.T) {
	ok := dice.RollResult{Net: dice.Symbols{Success: 1, Advantage: dice.RankedAdvantageLimit - 1}}
	score, err := ok.InitiativeScore()
	require.NoError(t, err)
	assert.InDelta(t, 1.99, score, 1e-9)

	bad := dice.RollResult{Net: dice.Symbols{Success: 1, Advantage: dice.RankedAdvantageLimit}}
	_, err = bad.InitiativeScore()
	assert.ErrorIs(t, err, dice.ErrAdvantageOverflow)
}

func TestRollResult_String(t *testing.T) {
	r := dice.RollResult{Expression: "1da+2dp", Net: dice.Symbols{Success: 2, Advantage: 1}}
	assert.Equal(t, "1da+2dp → 2 success, 1 advantage = 2.01", r.String())
}

func TestKindCodes_RoundTrip(t *testing.T) {
	for _, k := range dice.Kinds {
		got, ok := dice.KindFromCode(k.Code())
		require.True(t, ok, "code for %s", k)
		assert.Equal(t, k, got)
		byName, ok := dice.KindFromName(k.String())
		require.True(t, ok)
		assert.Equal(t, k, byName)
	}
	_, ok := dice.KindFromCode("x")
	assert.False(t, ok)
}

func TestCryptoSource_Intn_InRange(t *testing.T) {
	src := dice.NewCryptoSource()
	for i := 0; i < 1000; i++ {
		v := src.Intn(12)
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 12)
	}
}

func TestCryptoSource_Intn_PanicsOnZero(t *testing.T) {
	src := dice.NewCryptoSource()
	assert.Panics(t, func() { src.Intn(0) })
}

func TestSeededSource_Deterministic(t *testing.T) {
	a := dice.NewSeededSource(42)
	b := dice.NewSeededSource(42)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Intn(8), b.Intn(8))
	}
	assert.Panics(t, func() { a.Intn(-1) })
}
