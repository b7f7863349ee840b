package websocket

import (
	"encoding/json"

	"github.com/rocketscienceinc/tictactoe-history/internal/view"
)

const (
	actionNew    = "session:new"
	actionJoin   = "session:join"
	actionPlay   = "session:play"
	actionJump   = "session:jump"
	actionReset  = "session:reset"
	actionAI     = "session:ai"
	actionUpdate = "session:update"
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type RequestPayload struct {
	SessionID string `json:"session_id,omitempty"`
	Cell      *int   `json:"cell,omitempty"`
	Move      *int   `json:"move,omitempty"`
}

type ResponsePayload struct {
	Session *view.Snapshot `json:"session,omitempty"`
	Error   string         `json:"error,omitempty"`
}

func newMessage(action string, payload ResponsePayload) (Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}

	return Message{Action: action, Payload: raw}, nil
}
