package gateway

import (
	"context"

	"github.com/flyingdarts/x01/internal/match/engine"
)

// Broadcast pushes a projection to every listed player with a live
// connection. Delivery is best effort: a failed or missing connection is
// logged and skipped so one dead client never blocks the rest of the match.
func (h *Hub) Broadcast(_ context.Context, playerIDs []string, projection engine.MatchProjection) {
	envelope, err := newEnvelope(ActionScoreUpdate, projection)
	if err != nil {
		h.logger.Error("encode score update", "match_id", projection.MatchID, "error", err)
		return
	}
	for _, playerID := range playerIDs {
		if err := h.send(playerID, envelope); err != nil {
			h.logger.Warn("push score update",
				"match_id", projection.MatchID,
				"player_id", playerID,
				"error", err,
			)
		}
	}
}
