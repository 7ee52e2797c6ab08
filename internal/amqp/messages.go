package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"expensetracker/internal/core"
)

// ActivityMessage carries one transaction activity event to the worker.
type ActivityMessage struct {
	Event     core.ActivityEvent `json:"event"`
	Timestamp time.Time          `json:"timestamp"`
}

func NewActivityMessage(e core.ActivityEvent) *ActivityMessage {
	return &ActivityMessage{
		Event:     e,
		Timestamp: time.Now(),
	}
}

func (m *ActivityMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ActivityMessageFromJSON decodes a message and rejects ones the worker could
// never record.
func ActivityMessageFromJSON(data []byte) (*ActivityMessage, error) {
	var msg ActivityMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Event.ID == "" {
		return nil, errors.New("activity message without event id")
	}
	if msg.Event.UserID <= 0 {
		return nil, errors.New("activity message without user id")
	}
	return &msg, nil
}
