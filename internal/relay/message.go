package relay

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/cory-johannsen/holotable/internal/game/combat"
)

// Topics carried by the relay.
const (
	// TopicSystem carries claim requests from participants to the authority.
	TopicSystem = "system.holotable"
	// TopicCombatState carries committed session snapshots to everyone.
	TopicCombatState = "combat.state"
)

var (
	// ErrNotClaimRequest is returned when decoding a payload that is not a
	// well-formed claim request.
	ErrNotClaimRequest = errors.New("not a claim request")
	// ErrNotCombatState is returned when decoding a payload that is not a
	// combat state snapshot.
	ErrNotCombatState = errors.New("not a combat state")
)

// ClaimRequest asks the authority to give slot SlotID's turn to ClaimerID.
type ClaimRequest struct {
	CombatID  string
	SlotID    string
	ClaimerID string
}

// Marshal encodes r as {"claimSlot":true,"combatId":…,"slotId":…,"claimerId":…}.
func (r ClaimRequest) Marshal() ([]byte, error) {
	s, err := structpb.NewStruct(map[string]any{
		"claimSlot": true,
		"combatId":  r.CombatID,
		"slotId":    r.SlotID,
		"claimerId": r.ClaimerID,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding claim request: %w", err)
	}
	return protojson.Marshal(s)
}

// DecodeClaimRequest parses a claim request payload.
//
// Postcondition: Returns ErrNotClaimRequest unless claimSlot is true and all
// three IDs are non-empty strings.
func DecodeClaimRequest(payload []byte) (ClaimRequest, error) {
	var s structpb.Struct
	if err := protojson.Unmarshal(payload, &s); err != nil {
		return ClaimRequest{}, fmt.Errorf("%w: %v", ErrNotClaimRequest, err)
	}
	if !boolField(&s, "claimSlot") {
		return ClaimRequest{}, ErrNotClaimRequest
	}
	r := ClaimRequest{
		CombatID:  stringField(&s, "combatId"),
		SlotID:    stringField(&s, "slotId"),
		ClaimerID: stringField(&s, "claimerId"),
	}
	if r.CombatID == "" || r.SlotID == "" || r.ClaimerID == "" {
		return ClaimRequest{}, fmt.Errorf("%w: missing id", ErrNotClaimRequest)
	}
	return r, nil
}

// CombatantState is the replicated view of one combatant.
type CombatantState struct {
	ID          string
	Name        string
	Disposition combat.Disposition
	Initiative  *float64
	ClaimedBy   string
	Acted       bool
	Hidden      bool
}

// CombatState is a snapshot of a committed session.
type CombatState struct {
	CombatID   string
	Round      int
	Turn       int
	Started    bool
	Combatants []CombatantState
}

// NewCombatState captures s for replication.
func NewCombatState(s *combat.Session) CombatState {
	out := CombatState{
		CombatID:   s.ID,
		Round:      s.Round,
		Turn:       s.Turn,
		Started:    s.Started,
		Combatants: make([]CombatantState, 0, len(s.Combatants)),
	}
	for _, c := range s.Combatants {
		cs := CombatantState{
			ID:          c.ID,
			Name:        c.Name,
			Disposition: c.Disposition,
			ClaimedBy:   c.ClaimedBy,
			Acted:       c.Acted,
			Hidden:      c.Hidden,
		}
		if c.Initiative != nil {
			v := *c.Initiative
			cs.Initiative = &v
		}
		out.Combatants = append(out.Combatants, cs)
	}
	return out
}

// Marshal encodes the snapshot as JSON with a "combatState": true marker.
func (cs CombatState) Marshal() ([]byte, error) {
	combatants := make([]any, 0, len(cs.Combatants))
	for _, c := range cs.Combatants {
		var init any
		if c.Initiative != nil {
			init = *c.Initiative
		}
		combatants = append(combatants, map[string]any{
			"id":          c.ID,
			"name":        c.Name,
			"disposition": int(c.Disposition),
			"initiative":  init,
			"claimedBy":   c.ClaimedBy,
			"acted":       c.Acted,
			"hidden":      c.Hidden,
		})
	}
	s, err := structpb.NewStruct(map[string]any{
		"combatState": true,
		"combatId":    cs.CombatID,
		"round":       cs.Round,
		"turn":        cs.Turn,
		"started":     cs.Started,
		"combatants":  combatants,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding combat state: %w", err)
	}
	return protojson.Marshal(s)
}

// DecodeCombatState parses a snapshot payload.
func DecodeCombatState(payload []byte) (CombatState, error) {
	var s structpb.Struct
	if err := protojson.Unmarshal(payload, &s); err != nil {
		return CombatState{}, fmt.Errorf("%w: %v", ErrNotCombatState, err)
	}
	if !boolField(&s, "combatState") {
		return CombatState{}, ErrNotCombatState
	}
	out := CombatState{
		CombatID: stringField(&s, "combatId"),
		Round:    int(s.GetFields()["round"].GetNumberValue()),
		Turn:     int(s.GetFields()["turn"].GetNumberValue()),
		Started:  boolField(&s, "started"),
	}
	for _, v := range s.GetFields()["combatants"].GetListValue().GetValues() {
		c := v.GetStructValue()
		if c == nil {
			return CombatState{}, fmt.Errorf("%w: combatant is not an object", ErrNotCombatState)
		}
		cs := CombatantState{
			ID:          stringField(c, "id"),
			Name:        stringField(c, "name"),
			Disposition: combat.Disposition(int(c.GetFields()["disposition"].GetNumberValue())),
			ClaimedBy:   stringField(c, "claimedBy"),
			Acted:       boolField(c, "acted"),
			Hidden:      boolField(c, "hidden"),
		}
		if n, ok := c.GetFields()["initiative"].GetKind().(*structpb.Value_NumberValue); ok {
			v := n.NumberValue
			cs.Initiative = &v
		}
		out.Combatants = append(out.Combatants, cs)
	}
	return out, nil
}

func boolField(s *structpb.Struct, key string) bool {
	return s.GetFields()[key].GetBoolValue()
}

func stringField(s *structpb.Struct, key string) string {
	return s.GetFields()[key].GetStringValue()
}
