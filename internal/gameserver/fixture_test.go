package gameserver

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/holotable/internal/game/character"
	"github.com/cory-johannsen/holotable/internal/game/combat"
	"github.com/cory-johannsen/holotable/internal/game/dice"
	"github.com/cory-johannsen/holotable/internal/relay"
)

var (
	gm    = combat.User{ID: "gm", Role: combat.RoleAuthority}
	alice = combat.User{ID: "alice"}
)

// fixedSource always lands on the same face index.
type fixedSource struct{ face int }

func (f fixedSource) Intn(n int) int { return f.face % n }

type fixture struct {
	store   *combat.Engine
	hub     *relay.Hub
	claims  *ClaimHandler
	service *CombatService
	effects *EffectTracker
	logger  *zap.Logger
}

// newFixture builds the gameserver services over an in-memory store holding
// combat "c1": two friendly slots owned by alice and one hostile slot.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zaptest.NewLogger(t)
	store := combat.NewEngine()
	init := func(v float64) *float64 { return &v }
	s := combat.NewSession("c1",
		&combat.Combatant{ID: "a", Name: "Alpha", CharacterID: "hero", Disposition: combat.Friendly, Initiative: init(3), Owners: []string{"alice"}},
		&combat.Combatant{ID: "b", Name: "Bravo", CharacterID: "sidekick", Disposition: combat.Friendly, Initiative: init(2)},
		&combat.Combatant{ID: "h", Name: "Hostile", CharacterID: "trooper", Disposition: combat.Hostile, Initiative: init(1)},
	)
	s.Start()
	require.NoError(t, store.Create(context.Background(), s))

	hub := relay.NewHub(16, logger)
	t.Cleanup(hub.Close)
	rep := NewReplicator(hub, logger)
	effects := NewEffectTracker(NewMemoryEffectStore(), logger)
	roster := character.NewRoster(
		&character.Character{ID: "hero", Name: "Hero", Characteristics: map[string]character.Characteristic{"Willpower": {Value: 2}}},
		&character.Character{ID: "sidekick", Name: "Sidekick"},
		&character.Character{ID: "trooper", Name: "Trooper", Type: character.TypeMinion},
	)
	roller := dice.NewLoggedRoller(dice.NewEvaluator(nil, fixedSource{face: 3}), logger)
	initiative := combat.NewInitiativeRoller(store, effects.Characters(roster), roller, logger)

	return &fixture{
		store:   store,
		hub:     hub,
		claims:  NewClaimHandler(store, hub, relay.TopicSystem, rep, logger),
		service: NewCombatService(store, initiative, effects, rep, logger),
		effects: effects,
		logger:  logger,
	}
}

func (f *fixture) load(t *testing.T) *combat.Session {
	t.Helper()
	s, err := f.store.Load(context.Background(), "c1")
	require.NoError(t, err)
	return s
}

// stateRecorder collects replicated snapshots.
type stateRecorder struct {
	mu     sync.Mutex
	states []relay.CombatState
}

func (r *stateRecorder) handle(_ context.Context, payload []byte) {
	cs, err := relay.DecodeCombatState(payload)
	if err != nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, cs)
}

func (r *stateRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.states)
}

func (r *stateRecorder) last() relay.CombatState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.states[len(r.states)-1]
}
