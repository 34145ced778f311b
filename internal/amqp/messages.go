package amqp

import (
	"encoding/json"
	"time"
)

// Event kinds carried on the ledger exchange.
const (
	EventExpenseRecorded = "expense.recorded"
	EventExpenseDeleted  = "expense.deleted"
)

// LedgerEventMessage is a lightweight notification that an expense row
// changed. It carries only the id and event kind; the worker fetches the
// full row from the database when it needs one.
type LedgerEventMessage struct {
	Event     string    `json:"event"`
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewExpenseRecordedMessage(id int64) *LedgerEventMessage {
	return &LedgerEventMessage{
		Event:     EventExpenseRecorded,
		ID:        id,
		Timestamp: time.Now(),
	}
}

func NewExpenseDeletedMessage(id int64) *LedgerEventMessage {
	return &LedgerEventMessage{
		Event:     EventExpenseDeleted,
		ID:        id,
		Timestamp: time.Now(),
	}
}

func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
