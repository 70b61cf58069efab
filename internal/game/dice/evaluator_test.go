package dice_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/holotable/internal/game/dice"
)

// sequenceSource returns its values in order, cycling when exhausted.
type sequenceSource struct {
	mu   sync.Mutex
	vals []int
	i    int
}

func (s *sequenceSource) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.vals[s.i%len(s.vals)] % n
	s.i++
	return v
}

func TestEvaluator_TriumphAndDespairDoNotCancel(t *testing.T) {
	// face 11 is triumph on the proficiency die and despair on the challenge die
	ev := dice.NewEvaluator(nil, &sequenceSource{vals: []int{11}})
	r := ev.RollPool(dice.Pool{Proficiency: 1, Challenge: 1})

	assert.Equal(t, dice.Symbols{Success: 1, Triumph: 1, Failure: 1, Despair: 1}, r.Raw)
	assert.Equal(t, dice.Symbols{Triumph: 1, Despair: 1}, r.Net)
	assert.Equal(t, 0.0, r.Total())
	require.Len(t, r.Dice, 2)
	assert.Equal(t, dice.Proficiency, r.Dice[0].Kind)
	assert.Equal(t, dice.Challenge, r.Dice[1].Kind)
}

func TestEvaluator_Roll_WithBias(t *testing.T) {
	// ability face 6 = success+advantage, difficulty face 6 = two threat
	ev := dice.NewEvaluator(nil, &sequenceSource{vals: []int{6}})
	r, err := ev.Roll("1da+1di", dice.Symbols{Success: 1, Threat: 1})
	require.NoError(t, err)

	assert.Equal(t, dice.Symbols{Success: 2, Advantage: 1, Threat: 3}, r.Raw)
	assert.Equal(t, dice.Symbols{Success: 2, Threat: 2}, r.Net)
	assert.Equal(t, dice.Symbols{Success: 1, Threat: 1}, r.Bias)
	assert.InDelta(t, 2.0, r.Total(), 1e-9)
	assert.Equal(t, "1da+1di", r.Expression)
}

func TestEvaluator_Roll_Malformed(t *testing.T) {
	ev := dice.NewEvaluator(nil, dice.NewSeededSource(1))
	_, err := ev.Roll("1d20", dice.Symbols{})
	assert.ErrorIs(t, err, dice.ErrMalformedExpression)
}

func TestEvaluator_EmptyPool_OnlyBias(t *testing.T) {
	ev := dice.NewEvaluator(nil, dice.NewSeededSource(1))
	r, err := ev.Roll("0", dice.Symbols{Advantage: 2, Threat: 3})
	require.NoError(t, err)
	assert.Empty(t, r.Dice)
	assert.Equal(t, dice.Symbols{Threat: 1}, r.Net)
}

func TestEvaluator_Property_CancellationIdentities(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		p := genPool(rt)
		seed := rapid.Int64().Draw(rt, "seed")
		r := dice.NewEvaluator(nil, dice.NewSeededSource(seed)).RollPool(p)

		assert.Len(rt, r.Dice, p.DiceCount())
		assert.Equal(rt, r.Raw.Success-r.Raw.Failure, r.Net.Success-r.Net.Failure)
		assert.Equal(rt, r.Raw.Advantage-r.Raw.Threat, r.Net.Advantage-r.Net.Threat)
		assert.True(rt, r.Net.Success == 0 || r.Net.Failure == 0)
		assert.True(rt, r.Net.Advantage == 0 || r.Net.Threat == 0)

		sum := r.Bias
		for _, d := range r.Dice {
			sum = sum.Add(d.Symbols)
		}
		assert.Equal(rt, r.Raw, sum, "raw tally must equal faces plus bias")
	})
}

func TestEvaluator_Seeded_IsReplayable(t *testing.T) {
	p := dice.Pool{Ability: 3, Proficiency: 2, Difficulty: 2, Force: 1}
	a := dice.NewEvaluator(nil, dice.NewSeededSource(7)).RollPool(p)
	b := dice.NewEvaluator(nil, dice.NewSeededSource(7)).RollPool(p)
	assert.Equal(t, a, b)
}

func TestDefaultFaceTable(t *testing.T) {
	table := dice.DefaultFaceTable()
	require.NoError(t, table.Validate())
	sides := map[dice.Kind]int{
		dice.Boost: 6, dice.Setback: 6, dice.Ability: 8, dice.Difficulty: 8,
		dice.Proficiency: 12, dice.Challenge: 12, dice.Force: 12,
	}
	for k, n := range sides {
		assert.Len(t, table[k], n, "faces for %s", k)
	}
}

func TestFaceTable_Validate_MissingKind(t *testing.T) {
	table := dice.DefaultFaceTable()
	delete(table, dice.Force)
	assert.Error(t, table.Validate())
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const allBlankTable = `
ability: [{}]
proficiency: [{triumph: 1, success: 1}]
boost: [{advantage: 1}]
setback: [{threat: 1}]
difficulty: [{failure: 1}]
challenge: [{}]
force: [{light: 2}]
`

func TestLoadFaceTable(t *testing.T) {
	table, err := dice.LoadFaceTable(writeFile(t, "faces.yaml", allBlankTable))
	require.NoError(t, err)
	assert.Equal(t, []dice.Symbols{{Triumph: 1, Success: 1}}, table[dice.Proficiency])

	r := dice.NewEvaluator(table, dice.NewCryptoSource()).RollPool(dice.Pool{Boost: 2, Setback: 1, Force: 1})
	assert.Equal(t, dice.Symbols{Advantage: 1, Light: 2}, r.Net)
}

func TestLoadFaceTable_Errors(t *testing.T) {
	_, err := dice.LoadFaceTable(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = dice.LoadFaceTable(writeFile(t, "unknown.yaml", allBlankTable+"percentile: [{}]\n"))
	assert.Error(t, err)

	_, err = dice.LoadFaceTable(writeFile(t, "partial.yaml", "ability: [{}]\n"))
	assert.Error(t, err)

	_, err = dice.LoadFaceTable(writeFile(t, "badfield.yaml", "ability: [{glory: 1}]\n"))
	assert.Error(t, err)
}

func TestRoller_LogsEveryRoll(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	roller := dice.NewLoggedRoller(dice.NewEvaluator(nil, dice.NewSeededSource(3)), zap.New(core))

	roller.RollPool(dice.Pool{Ability: 2})
	_, err := roller.RollExpr("1dp", dice.Symbols{})
	require.NoError(t, err)
	_, err = roller.RollExpr("1dz", dice.Symbols{})
	require.Error(t, err)

	entries := logs.FilterMessage("dice roll").All()
	require.Len(t, entries, 2)
	assert.Equal(t, "2da", entries[0].ContextMap()["expression"])
	assert.Equal(t, "1dp", entries[1].ContextMap()["expression"])
}
