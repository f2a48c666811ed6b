package amqp

import (
	"encoding/json"
	"time"

	"tally/internal/core"
)

const (
	KindAppended = "record_appended"
	KindRemoved  = "records_removed"
)

// RecordPayload is the wire form of a ledger record. Amount travels as a
// string so brokers and consumers never round it through a float.
type RecordPayload struct {
	ID       string    `json:"id"`
	Amount   string    `json:"amount"`
	Category string    `json:"category,omitempty"`
	Date     time.Time `json:"date"`
}

// ChangeMessage announces a ledger mutation. An append carries the new
// record; a removal carries how many records were dropped and the size of
// the ledger afterwards.
type ChangeMessage struct {
	Kind      string         `json:"kind"`
	Record    *RecordPayload `json:"record,omitempty"`
	Removed   int            `json:"removed,omitempty"`
	Remaining int            `json:"remaining"`
	Timestamp time.Time      `json:"timestamp"`
}

func NewAppendedMessage(rec core.Record, remaining int) *ChangeMessage {
	return &ChangeMessage{
		Kind: KindAppended,
		Record: &RecordPayload{
			ID:       rec.ID,
			Amount:   rec.Amount.String(),
			Category: rec.Category,
			Date:     rec.At,
		},
		Remaining: remaining,
		Timestamp: time.Now(),
	}
}

func NewRemovedMessage(removed, remaining int) *ChangeMessage {
	return &ChangeMessage{
		Kind:      KindRemoved,
		Removed:   removed,
		Remaining: remaining,
		Timestamp: time.Now(),
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
