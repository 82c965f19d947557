// Package events holds the CloudEvent types, topics and payloads exchanged
// with other services over Kafka.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Topics.
const (
	TopicBookingEvents = "booking.events"
	TopicPaymentEvents = "payment.events"
)

// Booking event types published by this service.
const (
	BookingCreated           = "booking.created"
	BookingQuoted            = "booking.quoted"
	BookingQuoteResponded    = "booking.quote_responded"
	BookingStatusChanged     = "booking.status_changed"
	BookingCancelled         = "booking.cancelled"
	BookingRated             = "booking.rated"
	BookingPaymentReconciled = "booking.payment_reconciled"
)

// BookingCreatedEvent is published when a client books a service.
type BookingCreatedEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	BookingNumber string    `json:"booking_number"`
	ServiceID     uuid.UUID `json:"service_id"`
	ClientID      uuid.UUID `json:"client_id"`
	ProviderID    uuid.UUID `json:"provider_id"`
	TotalAmount   float64   `json:"total_amount"`
	Currency      string    `json:"currency"`
	ScheduledDate time.Time `json:"scheduled_date"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// BookingQuotedEvent is published when a provider submits or revises a quote.
type BookingQuotedEvent struct {
	BookingID      uuid.UUID `json:"booking_id"`
	ClientID       uuid.UUID `json:"client_id"`
	ProviderID     uuid.UUID `json:"provider_id"`
	Price          float64   `json:"price"`
	EstimatedHours float64   `json:"estimated_hours"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// QuoteRespondedEvent is published when the client accepts or declines a quote.
type QuoteRespondedEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	ClientID   uuid.UUID `json:"client_id"`
	ProviderID uuid.UUID `json:"provider_id"`
	Accepted   bool      `json:"accepted"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}

// BookingStatusChangedEvent is published on every provider-driven status change.
type BookingStatusChangedEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	ChangedBy  uuid.UUID `json:"changed_by"`
	Notes      string    `json:"notes,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// BookingCancelledEvent is published when the client cancels.
type BookingCancelledEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	BookingNumber string    `json:"booking_number"`
	CancelledBy   uuid.UUID `json:"cancelled_by"`
	Reason        string    `json:"reason,omitempty"`
	PaymentStatus string    `json:"payment_status"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// BookingRatedEvent is published when a completed booking is rated.
type BookingRatedEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	ServiceID  uuid.UUID `json:"service_id"`
	ProviderID uuid.UUID `json:"provider_id"`
	Score      int       `json:"score"`
	OccurredAt time.Time `json:"occurred_at"`
}

// PaymentReconciledEvent is published after a payment outcome was applied.
type PaymentReconciledEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	Result        string    `json:"result"`
	PaymentStatus string    `json:"payment_status"`
	Status        string    `json:"status"`
	OccurredAt    time.Time `json:"occurred_at"`
}
