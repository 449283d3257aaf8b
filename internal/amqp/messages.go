package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Actions carried by a SupportChangedMessage.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// SupportChangedMessage announces that a support record was written.
// It only carries the id and the delivery date; consumers decide what to refresh.
type SupportChangedMessage struct {
	ID           int64     `json:"id"`
	Action       string    `json:"action"`
	DeliveryDate string    `json:"deliveryDate,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// Validate checks the action and, when present, the delivery date format.
func (m *SupportChangedMessage) Validate() error {
	switch m.Action {
	case ActionCreated, ActionUpdated, ActionDeleted:
	default:
		return fmt.Errorf("unknown action %q", m.Action)
	}
	if m.DeliveryDate != "" {
		if _, err := time.Parse(time.DateOnly, m.DeliveryDate); err != nil {
			return fmt.Errorf("invalid delivery date %q: %w", m.DeliveryDate, err)
		}
	}
	return nil
}

// Year returns the year of the delivery date, or 0 when it is unknown.
func (m *SupportChangedMessage) Year() int {
	t, err := time.Parse(time.DateOnly, m.DeliveryDate)
	if err != nil {
		return 0
	}
	return t.Year()
}

// SupportChangedMessageFromJSON decodes and validates a message body.
func SupportChangedMessageFromJSON(data []byte) (*SupportChangedMessage, error) {
	var msg SupportChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
