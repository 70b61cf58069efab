package gameserver

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/holotable/internal/game/combat"
	"github.com/cory-johannsen/holotable/internal/relay"
)

// ClaimHandler implements the turn-slot claim protocol. The authority commits
// claims directly; any other participant sends a claim request over the relay
// for the authority to apply. A request sent while no authority is listening
// is lost.
type ClaimHandler struct {
	store      combat.Store
	ch         relay.Channel
	topic      string
	replicator *Replicator
	logger     *zap.Logger
}

// NewClaimHandler creates a ClaimHandler.
//
// Precondition: all pointer arguments must be non-nil; topic must be non-empty.
func NewClaimHandler(store combat.Store, ch relay.Channel, topic string, replicator *Replicator, logger *zap.Logger) *ClaimHandler {
	return &ClaimHandler{store: store, ch: ch, topic: topic, replicator: replicator, logger: logger}
}

// RequestClaim asks for slotID's turn to be given to claimerID.
//
// Postcondition: For the authority the claim is committed and replicated
// before returning. For anyone else the request is sent and nil means only
// that it was handed to the relay.
func (h *ClaimHandler) RequestClaim(ctx context.Context, u combat.User, combatID, slotID, claimerID string) error {
	if u.IsAuthority() {
		_, err := h.commit(ctx, combatID, slotID, claimerID)
		return err
	}
	payload, err := relay.ClaimRequest{CombatID: combatID, SlotID: slotID, ClaimerID: claimerID}.Marshal()
	if err != nil {
		return err
	}
	h.logger.Debug("claim: relaying request",
		zap.String("user", u.ID),
		zap.String("combat", combatID),
		zap.String("slot", slotID),
		zap.String("claimer", claimerID),
	)
	return h.ch.Send(ctx, h.topic, payload)
}

// Listen subscribes the authority to claim requests. Payloads that are not
// claim requests are ignored.
//
// Precondition: u must be the authority.
// Postcondition: Returns the subscription, or ErrNotAuthority.
func (h *ClaimHandler) Listen(u combat.User) (relay.Subscription, error) {
	if !u.IsAuthority() {
		return nil, ErrNotAuthority
	}
	return h.ch.Subscribe(h.topic, h.handle), nil
}

func (h *ClaimHandler) handle(ctx context.Context, payload []byte) {
	req, err := relay.DecodeClaimRequest(payload)
	if err != nil {
		if !errors.Is(err, relay.ErrNotClaimRequest) {
			h.logger.Warn("claim: undecodable message", zap.Error(err))
		}
		return
	}
	if _, err := h.commit(ctx, req.CombatID, req.SlotID, req.ClaimerID); err != nil {
		h.logger.Warn("claim: request rejected",
			zap.String("combat", req.CombatID),
			zap.String("slot", req.SlotID),
			zap.String("claimer", req.ClaimerID),
			zap.Error(err),
		)
	}
}

func (h *ClaimHandler) commit(ctx context.Context, combatID, slotID, claimerID string) (*combat.Session, error) {
	s, err := h.store.Commit(ctx, combatID, func(s *combat.Session) error {
		return combat.ClaimSlot(s, slotID, claimerID)
	})
	if err != nil {
		return nil, fmt.Errorf("claiming slot %q for %q: %w", slotID, claimerID, err)
	}
	h.logger.Info("claim committed",
		zap.String("combat", combatID),
		zap.String("slot", slotID),
		zap.String("claimer", claimerID),
	)
	h.replicator.Publish(ctx, s)
	return s, nil
}

// PickResult is the outcome of Pick.
type PickResult struct {
	// Candidates are the combatants u may assign to the slot, in turn order.
	Candidates []*combat.Combatant
	// Claimed is the claimer requested automatically, or "" when the caller
	// must choose among Candidates.
	Claimed string
}

// Pick handles a participant selecting the active slot. A non-authority user
// with exactly one candidate claims it at once; otherwise the candidates are
// returned for the caller to choose from.
//
// Postcondition: Returns ErrSlotNotActive when slotID does not hold the turn.
func (h *ClaimHandler) Pick(ctx context.Context, u combat.User, combatID, slotID string) (PickResult, error) {
	s, err := h.store.Load(ctx, combatID)
	if err != nil {
		return PickResult{}, err
	}
	cur := s.Current()
	if cur == nil || cur.ID != slotID {
		return PickResult{}, fmt.Errorf("%w: %q", combat.ErrSlotNotActive, slotID)
	}
	candidates, err := combat.ClaimCandidates(s, slotID, u)
	if err != nil {
		return PickResult{}, err
	}
	res := PickResult{Candidates: candidates}
	if !u.IsAuthority() && len(candidates) == 1 {
		if err := h.RequestClaim(ctx, u, combatID, slotID, candidates[0].ID); err != nil {
			return PickResult{}, err
		}
		res.Claimed = candidates[0].ID
	}
	return res, nil
}
