package core

import "time"

type EventType string

const (
	EventTransactionCreated EventType = "transaction.created"
	EventTransactionUpdated EventType = "transaction.updated"
	EventTransactionDeleted EventType = "transaction.deleted"
	EventBillCreated        EventType = "bill.created"
	EventBillClosed         EventType = "bill.closed"
	EventBillPaid           EventType = "bill.paid"
	EventBillReverted       EventType = "bill.reverted"
	EventBillDeleted        EventType = "bill.deleted"
)

// LedgerEvent is emitted after a ledger change has been committed.
type LedgerEvent struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	UserID     string    `json:"user_id"`
	EntityID   string    `json:"entity_id"`
	AccountID  string    `json:"account_id,omitempty"`
	Amount     Money     `json:"amount"`
	OccurredAt time.Time `json:"occurred_at"`
}
