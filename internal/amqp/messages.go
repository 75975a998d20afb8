package amqp

import (
	"encoding/json"
	"time"

	"finledger/internal/core"
)

// LedgerEventMessage is the wire form of a committed ledger change. It only
// carries identifiers and the amount; consumers load the rest from the store.
type LedgerEventMessage struct {
	ID          string         `json:"id"`
	Type        core.EventType `json:"type"`
	UserID      string         `json:"user_id"`
	EntityID    string         `json:"entity_id"`
	AccountID   string         `json:"account_id,omitempty"`
	Amount      core.Money     `json:"amount"`
	OccurredAt  time.Time      `json:"occurred_at"`
	PublishedAt time.Time      `json:"published_at"`
}

// NewLedgerEventMessage wraps e for publishing.
func NewLedgerEventMessage(e core.LedgerEvent) *LedgerEventMessage {
	return &LedgerEventMessage{
		ID:          e.ID,
		Type:        e.Type,
		UserID:      e.UserID,
		EntityID:    e.EntityID,
		AccountID:   e.AccountID,
		Amount:      e.Amount,
		OccurredAt:  e.OccurredAt,
		PublishedAt: time.Now(),
	}
}

// Event returns the ledger event carried by the message.
func (m *LedgerEventMessage) Event() core.LedgerEvent {
	return core.LedgerEvent{
		ID:         m.ID,
		Type:       m.Type,
		UserID:     m.UserID,
		EntityID:   m.EntityID,
		AccountID:  m.AccountID,
		Amount:     m.Amount,
		OccurredAt: m.OccurredAt,
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
