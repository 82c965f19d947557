package booking

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/servicehub/service-booking/pkg/domain"
)

const bookingNumberChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Booking is the aggregate root for the booking domain.
type Booking struct {
	id            uuid.UUID
	bookingNumber string
	serviceID     uuid.UUID
	clientID      uuid.UUID
	providerID    uuid.UUID
	scheduledDate time.Time
	notes         string
	totalAmount   float64

	status   BookingStatus
	payment  Payment
	quote    *Quote
	tracking []TrackingEntry
	rating   *Rating

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// generateBookingNumber creates a booking number in the format "BK-XXXXXX".
func generateBookingNumber() (string, error) {
	result := make([]byte, 6)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(bookingNumberChars))))
		if err != nil {
			return "", fmt.Errorf("failed to generate booking number: %w", err)
		}
		result[i] = bookingNumberChars[n.Int64()]
	}
	return "BK-" + string(result), nil
}

// NewBooking creates a new Booking aggregate with status=pending and a single
// tracking entry recorded on behalf of the client.
func NewBooking(
	serviceID uuid.UUID,
	clientID uuid.UUID,
	providerID uuid.UUID,
	scheduledDate time.Time,
	totalAmount float64,
	notes string,
) (*Booking, error) {
	if serviceID == uuid.Nil {
		return nil, domain.NewValidationError("service ID is required")
	}
	if clientID == uuid.Nil {
		return nil, domain.NewValidationError("client ID is required")
	}
	if providerID == uuid.Nil {
		return nil, domain.NewValidationError("provider ID is required")
	}
	if clientID == providerID {
		return nil, domain.NewValidationError("providers cannot book their own service")
	}
	now := time.Now().UTC()
	if scheduledDate.IsZero() {
		return nil, domain.NewValidationError("scheduled date is required")
	}
	if !scheduledDate.After(now) {
		return nil, domain.NewValidationError("scheduled date must be in the future")
	}
	if totalAmount < 0 {
		return nil, domain.NewValidationError("total amount cannot be negative")
	}

	bookingNumber, err := generateBookingNumber()
	if err != nil {
		return nil, err
	}

	return &Booking{
		id:            uuid.New(),
		bookingNumber: bookingNumber,
		serviceID:     serviceID,
		clientID:      clientID,
		providerID:    providerID,
		scheduledDate: scheduledDate.UTC(),
		notes:         notes,
		totalAmount:   totalAmount,
		status:        StatusPending,
		payment:       Payment{Status: PaymentPending},
		tracking: []TrackingEntry{{
			Status:    StatusPending,
			Timestamp: now,
			UpdatedBy: clientID,
			Notes:     "Booking created",
		}},
		version:   1,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(
	id uuid.UUID,
	bookingNumber string,
	serviceID uuid.UUID,
	clientID uuid.UUID,
	providerID uuid.UUID,
	scheduledDate time.Time,
	notes string,
	totalAmount float64,
	status BookingStatus,
	payment Payment,
	quote *Quote,
	tracking []TrackingEntry,
	rating *Rating,
	version int64,
	createdAt time.Time,
	updatedAt time.Time,
) *Booking {
	return &Booking{
		id:            id,
		bookingNumber: bookingNumber,
		serviceID:     serviceID,
		clientID:      clientID,
		providerID:    providerID,
		scheduledDate: scheduledDate,
		notes:         notes,
		totalAmount:   totalAmount,
		status:        status,
		payment:       payment,
		quote:         quote,
		tracking:      tracking,
		rating:        rating,
		version:       version,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}

// --- Getters ---

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// BookingNumber returns the human-readable booking number.
func (b *Booking) BookingNumber() string { return b.bookingNumber }

// ServiceID returns the booked service listing.
func (b *Booking) ServiceID() uuid.UUID { return b.serviceID }

// ClientID returns the client who made the booking.
func (b *Booking) ClientID() uuid.UUID { return b.clientID }

// ProviderID returns the provider who owns the booked service.
func (b *Booking) ProviderID() uuid.UUID { return b.providerID }

// ScheduledDate returns when the service is to be performed.
func (b *Booking) ScheduledDate() time.Time { return b.scheduledDate }

// Notes returns the client's notes from creation.
func (b *Booking) Notes() string { return b.notes }

// TotalAmount returns the amount due in rupees.
func (b *Booking) TotalAmount() float64 { return b.totalAmount }

// Status returns the current booking status.
func (b *Booking) Status() BookingStatus { return b.status }

// Payment returns the payment sub-record.
func (b *Booking) Payment() Payment { return b.payment }

// Version returns the optimistic locking version.
func (b *Booking) Version() int64 { return b.version }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last-modified timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// Quote returns a copy of the current quote, or nil if none was submitted.
func (b *Booking) Quote() *Quote {
	if b.quote == nil {
		return nil
	}
	q := *b.quote
	return &q
}

// Rating returns a copy of the client's rating, or nil.
func (b *Booking) Rating() *Rating {
	if b.rating == nil {
		return nil
	}
	r := *b.rating
	return &r
}

// Tracking returns a copy of the audit trail in append order.
func (b *Booking) Tracking() []TrackingEntry {
	out := make([]TrackingEntry, len(b.tracking))
	copy(out, b.tracking)
	return out
}

// IsParty returns true if the user is the client or the provider of this booking.
func (b *Booking) IsParty(userID uuid.UUID) bool {
	return userID == b.clientID || userID == b.providerID
}

// CanBeViewedBy returns true for the two parties and platform administrators.
func (b *Booking) CanBeViewedBy(actor Actor) bool {
	return actor.IsAdmin() || b.IsParty(actor.ID)
}

// --- Lifecycle methods ---

// UpdateStatus moves the booking along the workflow on behalf of its provider.
// The edge is validated before the actor is checked.
func (b *Booking) UpdateStatus(actor Actor, requested BookingStatus, notes string) error {
	if err := ValidateTransition(b.status, requested); err != nil {
		return err
	}
	if actor.ID != b.providerID {
		return domain.NewForbiddenError("only the provider can update the booking status")
	}
	if requested == StatusQuoted {
		return domain.NewValidationError("submit a quote to move a booking to quoted")
	}
	// An open quote is accepted by the client or by payment, never by the provider.
	if requested == StatusConfirmed && b.quote != nil && b.quote.Status == QuotePending {
		return domain.NewInvalidTransitionErrorWithReason(
			string(b.status), string(requested),
			"the client has not accepted the quote yet",
		)
	}
	return b.transition(requested, actor.ID, notes)
}

// Cancel cancels a pending or confirmed booking on behalf of its client.
func (b *Booking) Cancel(actor Actor, reason string) error {
	if b.status != StatusPending && b.status != StatusConfirmed {
		return domain.NewInvalidTransitionErrorWithReason(
			string(b.status), string(StatusCancelled),
			fmt.Sprintf("cannot cancel a booking that is %q: only pending or confirmed bookings can be cancelled", b.status),
		)
	}
	if actor.ID != b.clientID {
		return domain.NewForbiddenError("only the client can cancel this booking")
	}

	note := "cancelled by client"
	if reason != "" {
		note += ": " + reason
	}
	return b.transition(StatusCancelled, actor.ID, note)
}

// Rate attaches the client's rating to a completed booking. A booking can be rated once.
func (b *Booking) Rate(actor Actor, score int, comment string) error {
	if actor.ID != b.clientID {
		return domain.NewForbiddenError("only the client can rate this booking")
	}
	if b.status != StatusCompleted {
		return domain.NewInvalidTransitionErrorWithReason(
			string(b.status), string(StatusCompleted),
			fmt.Sprintf("cannot rate a booking that is %q: only completed bookings can be rated", b.status),
		)
	}
	if b.rating != nil {
		return domain.NewValidationError("booking has already been rated")
	}
	if score < MinRatingScore || score > MaxRatingScore {
		return domain.NewValidationError(fmt.Sprintf("rating score must be between %d and %d", MinRatingScore, MaxRatingScore))
	}

	now := time.Now().UTC()
	b.rating = &Rating{Score: score, Comment: comment, CreatedAt: now}
	b.updatedAt = now
	return nil
}

// ReconcilePayment applies a verified gateway outcome. It reports whether the
// booking status changed as a result. Payment never completes a booking.
func (b *Booking) ReconcilePayment(outcome PaymentOutcome) (bool, error) {
	now := time.Now().UTC()

	switch outcome.Result {
	case PaymentResultPaid:
		if outcome.PaymentID == "" {
			return false, domain.NewValidationError("payment ID is required for a successful payment")
		}
		if b.payment.Status == PaymentRefunded {
			return false, domain.NewValidationError("payment has already been refunded")
		}
		if b.payment.Status == PaymentPaid {
			if b.payment.PaymentID == outcome.PaymentID {
				return false, nil
			}
			return false, domain.NewValidationError(fmt.Sprintf(
				"booking is already paid by %q, refusing payment %q", b.payment.PaymentID, outcome.PaymentID))
		}
		paidAt := now
		if outcome.PaidAt != nil {
			paidAt = outcome.PaidAt.UTC()
		}
		b.payment.Status = PaymentPaid
		b.payment.PaymentID = outcome.PaymentID
		if outcome.OrderID != "" {
			b.payment.OrderID = outcome.OrderID
		}
		b.payment.PaidAt = &paidAt
		b.updatedAt = now

		if b.status != StatusPending && b.status != StatusQuoted {
			return false, nil
		}
		if b.quote != nil && b.quote.Status == QuotePending {
			b.quote.Status = QuoteAccepted
			b.quote.RespondedAt = &now
		}
		if err := b.transition(StatusConfirmed, b.clientID, "payment received"); err != nil {
			return false, err
		}
		return true, nil

	case PaymentResultFailed:
		if b.payment.Status != PaymentPending {
			return false, domain.NewValidationError(
				fmt.Sprintf("cannot record a failed payment when payment is %q", b.payment.Status))
		}
		if outcome.OrderID != "" {
			b.payment.OrderID = outcome.OrderID
		}
		b.updatedAt = now
		return false, nil

	case PaymentResultRefunded:
		if b.payment.Status != PaymentPaid {
			return false, domain.NewValidationError("only a paid booking can be refunded")
		}
		b.payment.Status = PaymentRefunded
		b.updatedAt = now
		return false, nil
	}

	return false, domain.NewValidationError(fmt.Sprintf("unknown payment result: %q", outcome.Result))
}

// HasRecordedPayment reports whether paymentID is the booking's current
// successful payment.
func (b *Booking) HasRecordedPayment(paymentID string) bool {
	return paymentID != "" && b.payment.Status == PaymentPaid && b.payment.PaymentID == paymentID
}

// IncrementVersion bumps the optimistic locking version.
func (b *Booking) IncrementVersion() {
	b.version++
}

// transition validates the edge, then changes status and appends the matching
// tracking entry together.
func (b *Booking) transition(to BookingStatus, by uuid.UUID, notes string) error {
	if err := ValidateTransition(b.status, to); err != nil {
		return err
	}
	b.status = to
	b.appendTracking(by, notes)
	return nil
}

func (b *Booking) appendTracking(by uuid.UUID, notes string) {
	now := time.Now().UTC()
	b.tracking = append(b.tracking, TrackingEntry{
		Status:    b.status,
		Timestamp: now,
		UpdatedBy: by,
		Notes:     notes,
	})
	b.updatedAt = now
}
