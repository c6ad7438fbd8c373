package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
)

type EventType string

const (
	EventCreated EventType = "transaction.created"
	EventUpdated EventType = "transaction.updated"
	EventDeleted EventType = "transaction.deleted"
)

// TransactionEvent announces a change to a stored transaction. It carries
// enough to check budgets without a lookup; consumers that need the full
// record fetch it by TransactionID.
type TransactionEvent struct {
	EventID       string    `json:"event_id"`
	Type          EventType `json:"type"`
	TransactionID int64     `json:"transaction_id"`
	Kind          core.Kind `json:"kind"`
	CategoryID    int64     `json:"category_id,omitempty"`
	AmountCents   int64     `json:"amount_cents"`
	Date          core.Date `json:"date"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewTransactionEvent stamps a fresh event ID and the current time
func NewTransactionEvent(typ EventType, t core.Transaction) *TransactionEvent {
	return &TransactionEvent{
		EventID:       uuid.NewString(),
		Type:          typ,
		TransactionID: t.ID,
		Kind:          t.Kind,
		CategoryID:    t.CategoryID,
		AmountCents:   t.Amount.Cents,
		Date:          t.Date,
		Timestamp:     time.Now().UTC(),
	}
}

func (e *TransactionEvent) Validate() error {
	if _, err := uuid.Parse(e.EventID); err != nil {
		return fmt.Errorf("invalid event id %q: %w", e.EventID, err)
	}
	switch e.Type {
	case EventCreated, EventUpdated, EventDeleted:
	default:
		return fmt.Errorf("unknown event type %q", e.Type)
	}
	if e.TransactionID <= 0 {
		return errors.New("missing transaction id")
	}
	return nil
}

func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON decodes and validates a message body
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var evt TransactionEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return nil, err
	}
	if err := evt.Validate(); err != nil {
		return nil, err
	}
	return &evt, nil
}
