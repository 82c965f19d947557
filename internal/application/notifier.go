package application

import (
	"context"

	"github.com/google/uuid"
)

// Notification event names delivered to the counterparty of a booking.
const (
	NotifyBookingCreated   = "booking:created"
	NotifyBookingQuoted    = "booking:quoted"
	NotifyQuoteAccepted    = "booking:quote_accepted"
	NotifyQuoteDeclined    = "booking:quote_declined"
	NotifyStatusUpdated    = "booking:status_updated"
	NotifyBookingCancelled = "booking:cancelled"
	NotifyBookingRated     = "booking:rated"
	NotifyPaymentUpdated   = "booking:payment_updated"
)

// Notifier delivers a real-time event to one user. Delivery is best effort.
type Notifier interface {
	Publish(ctx context.Context, userID uuid.UUID, event string, payload interface{}) error
}

// NotificationPayload is the body of every booking notification.
type NotificationPayload struct {
	BookingID     uuid.UUID `json:"bookingId"`
	Status        string    `json:"status"`
	QuoteStatus   string    `json:"quoteStatus,omitempty"`
	PaymentStatus string    `json:"paymentStatus,omitempty"`
	Notes         string    `json:"notes,omitempty"`
}
