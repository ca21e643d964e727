package websocket

import "encoding/json"

// Message is one inbound frame: an action name plus its JSON payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type JoinPayload struct {
	RoomID string `json:"roomId"`
}

type MovePayload struct {
	RoomID string `json:"roomId"`
	Index  int    `json:"index"`
}

type RestartPayload struct {
	RoomID string `json:"roomId"`
}
