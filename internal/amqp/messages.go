package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"lifeledger/internal/core"
)

// EventType names a ledger mutation.
type EventType string

const (
	TransactionCreated EventType = "transaction.created"
	TransactionUpdated EventType = "transaction.updated"
	TransactionDeleted EventType = "transaction.deleted"
)

func (e EventType) Valid() bool {
	switch e {
	case TransactionCreated, TransactionUpdated, TransactionDeleted:
		return true
	}
	return false
}

// LedgerEvent is a lightweight notification about a committed mutation.
// Consumers re-read the transaction from storage when they need its fields.
type LedgerEvent struct {
	Type          EventType `json:"type"`
	TransactionID string    `json:"transaction_id"`
	UserID        string    `json:"user_id"`
	OccurredOn    core.Date `json:"occurred_on"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewLedgerEvent builds an event for t stamped with the current time.
func NewLedgerEvent(typ EventType, t core.Transaction) *LedgerEvent {
	return &LedgerEvent{
		Type:          typ,
		TransactionID: t.ID,
		UserID:        t.OwnerID,
		OccurredOn:    t.OccurredOn,
		Timestamp:     time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventFromJSON decodes and checks an event body.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var msg LedgerEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if !msg.Type.Valid() {
		return nil, fmt.Errorf("unknown event type %q", msg.Type)
	}
	if msg.TransactionID == "" || msg.UserID == "" {
		return nil, fmt.Errorf("event %s is missing identifiers", msg.Type)
	}
	return &msg, nil
}
