package websocket

import (
	"encoding/json"

	"github.com/rocketscienceinc/tictactoe-history/internal/view"
)

const (
	actionState = "game:state"
	actionPlay  = "game:play"
	actionJump  = "game:jump"
	actionReset = "game:reset"

	// pushed when the session's game changed through another connection
	actionUpdate = "game:update"
	actionError = "error"
)

// Message is what a client sends over the socket.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type RequestPayload struct {
	Cell *int `json:"cell,omitempty"`
	Move *int `json:"move,omitempty"`
}

// Response answers one Message with the state after it was handled.
type Response struct {
	Action  string          `json:"action"`
	Payload ResponsePayload `json:"payload"`
}

type ResponsePayload struct {
	Game  *view.Game `json:"game,omitempty"`
	Error string     `json:"error,omitempty"`
}

func errorResponse(action, message string) Response {
	return Response{
		Action:  action,
		Payload: ResponsePayload{Error: message},
	}
}
