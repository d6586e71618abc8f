package websocket

import (
	"encoding/json"

	"github.com/isdelr/user-manager/internal/models"
)

// Message defines the structure for websocket messages.
type Message struct {
	Action  string      `json:"action"`
	Payload interface{} `json:"payload"`
}

// NewEventMessage encodes an audit event for the activity feed.
func NewEventMessage(event models.Event) ([]byte, error) {
	return json.Marshal(Message{Action: "event", Payload: event})
}
