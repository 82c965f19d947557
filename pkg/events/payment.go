package events

import (
	"time"

	"github.com/google/uuid"
)

// Payment event types consumed from the payment service.
const (
	PaymentCaptured = "payment.captured"
	PaymentFailed   = "payment.failed"
	PaymentRefunded = "payment.refunded"
)

// PaymentCapturedEvent reports a verified successful charge for a booking.
type PaymentCapturedEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	OrderID    string    `json:"order_id"`
	PaymentID  string    `json:"payment_id"`
	Amount     float64   `json:"amount"`
	Currency   string    `json:"currency"`
	PaidAt     time.Time `json:"paid_at"`
	OccurredAt time.Time `json:"occurred_at"`
}

// PaymentFailedEvent reports a declined or abandoned charge.
type PaymentFailedEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	OrderID    string    `json:"order_id"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// PaymentRefundedEvent reports that a captured payment was returned to the client.
type PaymentRefundedEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	PaymentID  string    `json:"payment_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
