package domain

import (
	"encoding/json"
	"time"
)

// Payment preference statuses.
const (
	PaymentStatusPending  = "pending"
	PaymentStatusApproved = "approved"
	PaymentStatusRejected = "rejected"
	PaymentStatusRefunded = "refunded"
)

// PaymentPreference tracks a checkout created with the payment provider.
type PaymentPreference struct {
	ID          string
	Reference   string
	Title       string
	AmountCents int64
	Currency    string
	CheckoutURL string
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PaymentEvent records a webhook notification from the provider.
type PaymentEvent struct {
	ID              int64
	ProviderEventID string
	EventType       string
	ResourceID      string
	Payload         json.RawMessage
	ReceivedAt      time.Time
}
