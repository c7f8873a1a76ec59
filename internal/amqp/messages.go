package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"expensetracker/internal/core"
)

// ChangeMessage is the wire form of a core.ChangeEvent. Consumers re-read
// the store for details; the message only says what changed.
type ChangeMessage struct {
	MessageID string    `json:"message_id"`
	Op        string    `json:"op"`
	Category  string    `json:"category,omitempty"`
	From      string    `json:"from,omitempty"`
	To        string    `json:"to,omitempty"`
	RecordID  int64     `json:"record_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewChangeMessage wraps ev with a fresh message id. Events without a
// timestamp are stamped now.
func NewChangeMessage(ev core.ChangeEvent) *ChangeMessage {
	ts := ev.At
	if ts.IsZero() {
		ts = time.Now()
	}
	return &ChangeMessage{
		MessageID: uuid.NewString(),
		Op:        string(ev.Op),
		Category:  ev.Category,
		From:      ev.From,
		To:        ev.To,
		RecordID:  ev.RecordID,
		Timestamp: ts,
	}
}

// Event converts the message back into a change event.
func (m *ChangeMessage) Event() core.ChangeEvent {
	return core.ChangeEvent{
		Op:       core.ChangeOp(m.Op),
		Category: m.Category,
		From:     m.From,
		To:       m.To,
		RecordID: m.RecordID,
		At:       m.Timestamp,
	}
}

// ToJSON converts the message to JSON bytes
func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON creates a message from JSON bytes
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
