package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/flyingdarts/x01/internal/match/engine"
	"github.com/flyingdarts/x01/internal/match/service"
	apperrors "github.com/flyingdarts/x01/internal/platform/errors"
)

// Scorer is the scoring surface the gateway drives.
type Scorer interface {
	Submit(ctx context.Context, input service.SubmitInput) (engine.MatchProjection, error)
	Snapshot(ctx context.Context, matchID string) (engine.MatchProjection, error)
}

// Handler upgrades match connections to websockets and routes framed
// requests to the scoring service.
type Handler struct {
	scorer   Scorer
	hub      *Hub
	sessions SessionConfig
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewHandler constructs the websocket entry point.
func NewHandler(scorer Scorer, hub *Hub, sessions SessionConfig, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		scorer:   scorer,
		hub:      hub,
		sessions: sessions,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// ServeHTTP authenticates the client, upgrades the connection, replays the
// current projection, and then serves throw submissions until disconnect.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	playerID, err := h.identify(r)
	if err != nil {
		code := apperrors.CodeOf(err)
		if code == apperrors.CodeSessionTokenInvalid || code == apperrors.CodeSessionTokenExpired {
			http.Error(w, "invalid session token", http.StatusUnauthorized)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	matchID := strings.TrimSpace(r.URL.Query().Get("matchId"))
	if matchID == "" {
		http.Error(w, "matchId is required", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade", "player_id", playerID, "error", err)
		return
	}
	sess := h.hub.Register(playerID, conn)
	defer func() {
		h.hub.Unregister(playerID, sess)
		sess.close()
	}()

	h.replaySnapshot(r.Context(), sess, matchID, playerID)
	h.serveConn(r.Context(), sess, conn, playerID)
}

// identify resolves the connecting player. With session verification enabled
// the token is authoritative; otherwise the playerId query parameter is
// trusted as-is.
func (h *Handler) identify(r *http.Request) (string, error) {
	if h.sessions.Enabled() {
		token := strings.TrimSpace(r.URL.Query().Get("token"))
		if token == "" {
			token = strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
		}
		claims, err := VerifySessionToken(token, h.sessions)
		if err != nil {
			return "", err
		}
		return claims.UserID, nil
	}
	playerID := strings.TrimSpace(r.URL.Query().Get("playerId"))
	if playerID == "" {
		return "", apperrors.New(apperrors.CodePlayerEmptyID, "playerId is required")
	}
	return playerID, nil
}

// replaySnapshot sends the current projection so a connecting or
// reconnecting client never waits for the next throw to see state. A match
// that does not exist yet is skipped silently.
func (h *Handler) replaySnapshot(ctx context.Context, sess *session, matchID, playerID string) {
	projection, err := h.scorer.Snapshot(ctx, matchID)
	if err != nil {
		if apperrors.CodeOf(err) == apperrors.CodeMatchNotFound {
			return
		}
		h.logger.Warn("snapshot on connect", "match_id", matchID, "player_id", playerID, "error", err)
		return
	}
	envelope, err := newEnvelope(ActionScoreUpdate, projection)
	if err != nil {
		h.logger.Error("encode snapshot", "match_id", matchID, "error", err)
		return
	}
	if err := sess.write(envelope); err != nil {
		h.logger.Warn("send snapshot", "match_id", matchID, "player_id", playerID, "error", err)
	}
}

func (h *Handler) serveConn(ctx context.Context, sess *session, conn *websocket.Conn, playerID string) {
	for {
		var envelope Envelope
		if err := conn.ReadJSON(&envelope); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("read connection", "player_id", playerID, "error", err)
			}
			return
		}
		switch envelope.Action {
		case ActionThrow:
			h.handleThrow(ctx, sess, playerID, envelope.Payload)
		default:
			h.sendError(sess, playerID, apperrors.CodeUnknown, "unknown action")
		}
	}
}

// handleThrow submits one turn. Throws against missing or not yet active
// matches are dropped without a reply; rule violations come back as error
// frames. A successful submission needs no direct reply since the broadcast
// reaches the submitter too.
func (h *Handler) handleThrow(ctx context.Context, sess *session, playerID string, payload json.RawMessage) {
	var throwPayload ThrowPayload
	if err := json.Unmarshal(payload, &throwPayload); err != nil {
		h.sendError(sess, playerID, apperrors.CodeThrowInvalidInput, "malformed throw payload")
		return
	}

	_, err := h.scorer.Submit(ctx, service.SubmitInput{
		MatchID:  throwPayload.MatchID,
		PlayerID: playerID,
		Score:    throwPayload.Score,
	})
	if err == nil {
		return
	}
	code := apperrors.CodeOf(err)
	switch code {
	case apperrors.CodeMatchNotFound, apperrors.CodeMatchNotActive:
		h.logger.Debug("drop throw", "match_id", throwPayload.MatchID, "player_id", playerID, "code", string(code))
	default:
		h.logger.Warn("reject throw", "match_id", throwPayload.MatchID, "player_id", playerID, "error", err)
		h.sendError(sess, playerID, code, err.Error())
	}
}

func (h *Handler) sendError(sess *session, playerID string, code apperrors.Code, message string) {
	envelope, err := newEnvelope(ActionError, ErrorPayload{Code: string(code), Message: message})
	if err != nil {
		h.logger.Error("encode error frame", "error", err)
		return
	}
	if err := sess.write(envelope); err != nil {
		h.logger.Warn("send error frame", "player_id", playerID, "error", err)
	}
}
