package booking

import (
	"time"

	"github.com/google/uuid"
)

// TrackingEntry is one immutable audit record of a status change.
type TrackingEntry struct {
	Status    BookingStatus `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
	UpdatedBy uuid.UUID     `json:"updatedBy"`
	Notes     string        `json:"notes,omitempty"`
}
