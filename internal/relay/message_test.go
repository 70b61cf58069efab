package relay_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/holotable/internal/game/combat"
	"github.com/cory-johannsen/holotable/internal/relay"
)

func TestClaimRequest_WireFormat(t *testing.T) {
	payload, err := relay.ClaimRequest{CombatID: "c1", SlotID: "s1", ClaimerID: "a1"}.Marshal()
	require.NoError(t, err)
	assert.JSONEq(t, `{"claimSlot":true,"combatId":"c1","slotId":"s1","claimerId":"a1"}`, string(payload))
}

func TestDecodeClaimRequest(t *testing.T) {
	r, err := relay.DecodeClaimRequest([]byte(`{"claimSlot":true,"combatId":"c1","slotId":"s1","claimerId":"a1"}`))
	require.NoError(t, err)
	assert.Equal(t, relay.ClaimRequest{CombatID: "c1", SlotID: "s1", ClaimerID: "a1"}, r)

	bad := map[string]string{
		"not json":       `{`,
		"flag false":     `{"claimSlot":false,"combatId":"c1","slotId":"s1","claimerId":"a1"}`,
		"flag missing":   `{"combatId":"c1","slotId":"s1","claimerId":"a1"}`,
		"flag as string": `{"claimSlot":"true","combatId":"c1","slotId":"s1","claimerId":"a1"}`,
		"missing slot":   `{"claimSlot":true,"combatId":"c1","claimerId":"a1"}`,
		"numeric id":     `{"claimSlot":true,"combatId":1,"slotId":"s1","claimerId":"a1"}`,
	}
	for name, p := range bad {
		t.Run(name, func(t *testing.T) {
			_, err := relay.DecodeClaimRequest([]byte(p))
			assert.ErrorIs(t, err, relay.ErrNotClaimRequest)
		})
	}
}

func TestClaimRequest_Property_RoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		id := rapid.StringMatching(`[a-zA-Z0-9]{1,16}`)
		in := relay.ClaimRequest{CombatID: id.Draw(rt, "combat"), SlotID: id.Draw(rt, "slot"), ClaimerID: id.Draw(rt, "claimer")}
		payload, err := in.Marshal()
		require.NoError(rt, err)
		out, err := relay.DecodeClaimRequest(payload)
		require.NoError(rt, err)
		assert.Equal(rt, in, out)
	})
}

func TestCombatState_RoundTrip(t *testing.T) {
	init := 2.01
	s := &combat.Session{
		ID: "c1", Round: 3, Turn: 1, Started: true,
		Combatants: []*combat.Combatant{
			{ID: "a", Name: "Alpha", Disposition: combat.Friendly, Initiative: &init, ClaimedBy: "b"},
			{ID: "b", Name: "Bravo", Disposition: combat.Neutral, Acted: true, Hidden: true},
			{ID: "c", Name: "Charlie", Disposition: combat.Hostile},
		},
	}
	want := relay.NewCombatState(s)
	payload, err := want.Marshal()
	require.NoError(t, err)

	got, err := relay.DecodeCombatState(payload)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Nil(t, got.Combatants[1].Initiative)
	assert.Equal(t, combat.Neutral, got.Combatants[1].Disposition)

	_, err = relay.DecodeCombatState([]byte(`{"claimSlot":true}`))
	assert.ErrorIs(t, err, relay.ErrNotCombatState)
	_, err = relay.DecodeClaimRequest(payload)
	assert.ErrorIs(t, err, relay.ErrNotClaimRequest)
}
