package amqp

import (
	"encoding/json"
	"time"

	"spendtrack/internal/core"
)

// EventKind discriminates expense event messages on the export queue.
type EventKind string

const (
	// EventSaved covers both create and update; the worker re-reads the
	// record from the store, so the message only needs identifiers.
	EventSaved EventKind = "saved"
	// EventDeleted carries a snapshot: the record is already gone from the
	// store by the time the worker sees the message.
	EventDeleted EventKind = "deleted"
)

// ExpenseEvent is the wire format of one expense change notification.
type ExpenseEvent struct {
	Kind      EventKind `json:"kind"`
	ExpenseID string    `json:"expenseId"`
	OwnerID   string    `json:"ownerId"`

	// Snapshot fields, populated for deleted events only.
	Amount      float64   `json:"amount,omitempty"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	Date        time.Time `json:"date,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// NewSavedEvent builds the message published after a create or update.
func NewSavedEvent(ownerID, expenseID string) *ExpenseEvent {
	return &ExpenseEvent{
		Kind:      EventSaved,
		ExpenseID: expenseID,
		OwnerID:   ownerID,
		Timestamp: time.Now().UTC(),
	}
}

// NewDeletedEvent builds the message published after a delete, carrying the
// last known state of the expense.
func NewDeletedEvent(expense core.Expense) *ExpenseEvent {
	return &ExpenseEvent{
		Kind:        EventDeleted,
		ExpenseID:   expense.ID,
		OwnerID:     expense.UserID,
		Amount:      expense.Amount,
		Description: expense.Description,
		Category:    expense.Category,
		Date:        expense.Date,
		Timestamp:   time.Now().UTC(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ExpenseEventFromJSON creates an event from JSON bytes
func ExpenseEventFromJSON(data []byte) (*ExpenseEvent, error) {
	var ev ExpenseEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}
