package booking

import (
	"fmt"

	"github.com/servicehub/service-booking/pkg/domain"
)

// BookingStatus represents the current state of a booking in its lifecycle.
type BookingStatus string

const (
	StatusPending    BookingStatus = "pending"
	StatusQuoted     BookingStatus = "quoted"
	StatusConfirmed  BookingStatus = "confirmed"
	StatusInProgress BookingStatus = "in_progress"
	StatusCompleted  BookingStatus = "completed"
	StatusCancelled  BookingStatus = "cancelled"
)

// validTransitions defines the state machine for booking status transitions.
var validTransitions = map[BookingStatus][]BookingStatus{
	StatusPending:    {StatusQuoted, StatusConfirmed, StatusCancelled},
	StatusQuoted:     {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

// AllStatuses lists every status in lifecycle order.
func AllStatuses() []BookingStatus {
	return []BookingStatus{
		StatusPending,
		StatusQuoted,
		StatusConfirmed,
		StatusInProgress,
		StatusCompleted,
		StatusCancelled,
	}
}

// IsValid returns true if the status is a recognized booking status.
func (s BookingStatus) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// CanTransitionTo returns true if a transition from this status to the target is allowed.
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return false
	}
	for _, t := range allowed {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no further transitions are possible from this status.
func (s BookingStatus) IsTerminal() bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return true
	}
	return len(allowed) == 0
}

// String returns the string representation of the status.
func (s BookingStatus) String() string {
	return string(s)
}

// ParseBookingStatus converts a string to a BookingStatus, returning an error if invalid.
func ParseBookingStatus(s string) (BookingStatus, error) {
	status := BookingStatus(s)
	if !status.IsValid() {
		return "", domain.NewValidationError(fmt.Sprintf("invalid booking status: %q", s))
	}
	return status, nil
}

// ValidateTransition reports whether current may move to requested. It is pure and
// knows nothing about who asks; a nil result means the edge exists.
func ValidateTransition(current, requested BookingStatus) error {
	from, to := string(current), string(requested)

	switch {
	case !current.IsValid():
		return domain.NewInvalidTransitionErrorWithReason(from, to,
			fmt.Sprintf("cannot transition from unknown status %q to %q", from, to))
	case !requested.IsValid():
		return domain.NewInvalidTransitionErrorWithReason(from, to,
			fmt.Sprintf("cannot transition from %q to unknown status %q", from, to))
	case current.IsTerminal():
		return domain.NewInvalidTransitionErrorWithReason(from, to,
			fmt.Sprintf("cannot transition from %q to %q: %q is a terminal status", from, to, from))
	case !current.CanTransitionTo(requested):
		return domain.NewInvalidTransitionErrorWithReason(from, to,
			fmt.Sprintf("cannot transition from %q to %q", from, to))
	}
	return nil
}
