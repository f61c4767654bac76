package domain

import "time"

// Event types
const (
	EventTypeTransferCreated = "transfer.created"
	EventTypeAccountCreated  = "account.created"
)

// Aggregate types
const (
	AggregateTypeTransfer = "transfer"
	AggregateTypeAccount  = "account"
)

// OutboxEvent is a domain notification persisted in the same
// transaction as the state change it describes, then published
// asynchronously with at-least-once semantics.
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// TransferCreatedEvent payload. Addressed to both parties of the
// transfer, one logical channel per participant.
type TransferCreatedEvent struct {
	TransferID    int64  `json:"transfer_id"`
	SenderID      int64  `json:"sender_id"`
	ReceiverID    int64  `json:"receiver_id"`
	Amount        string `json:"amount"`
	CommissionFee string `json:"commission_fee"`
	CreatedAt     string `json:"created_at"`
}

// NewTransferCreatedEvent builds the event payload for a committed
// transfer.
func NewTransferCreatedEvent(t *Transfer) TransferCreatedEvent {
	return TransferCreatedEvent{
		TransferID:    t.ID,
		SenderID:      t.SenderID,
		ReceiverID:    t.ReceiverID,
		Amount:        t.Amount.String(),
		CommissionFee: t.CommissionFee.String(),
		CreatedAt:     t.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// AsPayload renders the event as an outbox payload map.
func (e TransferCreatedEvent) AsPayload() map[string]any {
	return map[string]any{
		"transfer_id":    e.TransferID,
		"sender_id":      e.SenderID,
		"receiver_id":    e.ReceiverID,
		"amount":         e.Amount,
		"commission_fee": e.CommissionFee,
		"created_at":     e.CreatedAt,
	}
}
