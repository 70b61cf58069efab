package gameserver

import (
	"context"

	"go.uber.org/zap"

	"github.com/cory-johannsen/holotable/internal/game/combat"
	"github.com/cory-johannsen/holotable/internal/relay"
)

// Replicator publishes committed sessions to every participant.
type Replicator struct {
	ch     relay.Channel
	logger *zap.Logger
}

// NewReplicator creates a Replicator publishing on ch.
//
// Precondition: ch and logger must be non-nil.
func NewReplicator(ch relay.Channel, logger *zap.Logger) *Replicator {
	return &Replicator{ch: ch, logger: logger}
}

// Publish sends a snapshot of s on relay.TopicCombatState. Failures are logged
// and not returned; replication is best effort.
func (r *Replicator) Publish(ctx context.Context, s *combat.Session) {
	payload, err := relay.NewCombatState(s).Marshal()
	if err != nil {
		r.logger.Warn("replicate: encoding failed", zap.String("combat", s.ID), zap.Error(err))
		return
	}
	if err := r.ch.Send(ctx, relay.TopicCombatState, payload); err != nil {
		r.logger.Warn("replicate: send failed", zap.String("combat", s.ID), zap.Error(err))
	}
}
