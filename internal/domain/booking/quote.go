package booking

import (
	"time"

	"github.com/servicehub/service-booking/pkg/domain"
)

// QuoteStatus is the client's answer to a quote.
type QuoteStatus string

const (
	QuotePending  QuoteStatus = "pending"
	QuoteAccepted QuoteStatus = "accepted"
	QuoteDeclined QuoteStatus = "declined"
)

// Quote is a provider-proposed price and duration that replaces the list price.
type Quote struct {
	Price          float64     `json:"price"`
	EstimatedHours float64     `json:"estimatedHours"`
	Notes          string      `json:"notes,omitempty"`
	Status         QuoteStatus `json:"status"`
	SubmittedAt    time.Time   `json:"submittedAt"`
	RespondedAt    *time.Time  `json:"respondedAt,omitempty"`
}

// SubmitQuote records the provider's quote. Re-quoting is allowed until the
// booking is confirmed; each submission appends a quoted tracking entry.
func (b *Booking) SubmitQuote(actor Actor, price, estimatedHours float64, notes string) error {
	if actor.ID != b.providerID {
		return domain.NewForbiddenError("only the provider can quote this booking")
	}
	if b.status != StatusQuoted {
		if err := ValidateTransition(b.status, StatusQuoted); err != nil {
			return err
		}
	}
	if price <= 0 {
		return domain.NewValidationError("quote price must be positive")
	}
	if estimatedHours <= 0 {
		return domain.NewValidationError("estimated hours must be positive")
	}

	b.quote = &Quote{
		Price:          price,
		EstimatedHours: estimatedHours,
		Notes:          notes,
		Status:         QuotePending,
		SubmittedAt:    time.Now().UTC(),
	}
	b.totalAmount = price
	b.status = StatusQuoted
	b.appendTracking(actor.ID, notes)
	return nil
}

// RespondToQuote applies the client's decision: accepting confirms the booking,
// declining cancels it.
func (b *Booking) RespondToQuote(actor Actor, approved bool) error {
	if actor.ID != b.clientID {
		return domain.NewForbiddenError("only the client can respond to this quote")
	}
	if b.quote == nil {
		return domain.NewNotFoundError("Quote", b.id.String())
	}
	if b.quote.Status != QuotePending {
		return domain.NewValidationError("quote has already been " + string(b.quote.Status))
	}

	target, quoteStatus, note := StatusCancelled, QuoteDeclined, "Client declined the quote"
	if approved {
		target, quoteStatus, note = StatusConfirmed, QuoteAccepted, "Client accepted the quote"
	}
	if err := ValidateTransition(b.status, target); err != nil {
		return err
	}

	now := time.Now().UTC()
	b.quote.Status = quoteStatus
	b.quote.RespondedAt = &now
	return b.transition(target, actor.ID, note)
}
