package gateway

import "encoding/json"

// Envelope frames every message crossing the websocket in either direction.
const (
	// ActionThrow is the client request carrying one scored turn.
	ActionThrow = "throw"
	// ActionScoreUpdate is the server push carrying a fresh projection.
	ActionScoreUpdate = "score-update"
	// ActionError is the server response for a rejected request.
	ActionError = "error"
)

// Envelope is the wire frame: an action name and an action-specific payload.
type Envelope struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ThrowPayload is the client payload for ActionThrow. The player identity
// comes from the connection, never from the payload.
type ThrowPayload struct {
	MatchID string `json:"matchId"`
	Score   int    `json:"score"`
}

// ErrorPayload is the server payload for ActionError.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// newEnvelope marshals a payload into a framed message.
func newEnvelope(action string, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Action: action, Payload: raw}, nil
}
