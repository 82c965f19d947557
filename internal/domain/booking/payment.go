package booking

import "time"

// PaymentStatus tracks money movement independently of the workflow status.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// IsValid returns true if the payment status is recognized.
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentRefunded:
		return true
	}
	return false
}

// Payment is the payment sub-record of a booking.
type Payment struct {
	Status    PaymentStatus `json:"status"`
	OrderID   string        `json:"orderId,omitempty"`
	PaymentID string        `json:"paymentId,omitempty"`
	PaidAt    *time.Time    `json:"paidAt,omitempty"`
}

// PaymentResult is the verified result reported by the payment gateway.
type PaymentResult string

const (
	PaymentResultPaid     PaymentResult = "paid"
	PaymentResultFailed   PaymentResult = "failed"
	PaymentResultRefunded PaymentResult = "refunded"
)

// PaymentOutcome is an already-verified gateway callback.
type PaymentOutcome struct {
	Result    PaymentResult
	OrderID   string
	PaymentID string
	PaidAt    *time.Time
}
