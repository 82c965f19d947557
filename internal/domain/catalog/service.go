package catalog

import (
	"time"

	"github.com/google/uuid"

	"github.com/servicehub/service-booking/pkg/domain"
)

// ServiceStatus represents the lifecycle state of a service listing.
type ServiceStatus string

const (
	ServiceStatusActive   ServiceStatus = "active"
	ServiceStatusArchived ServiceStatus = "archived"
)

// Service is a listing a provider offers for booking.
type Service struct {
	id            uuid.UUID
	providerID    uuid.UUID
	title         string
	description   string
	category      string
	price         float64
	averageRating float64
	ratingCount   int
	status        ServiceStatus
	version       int64
	createdAt     time.Time
	updatedAt     time.Time
}

// NewService creates a new active service listing with validated fields.
func NewService(providerID uuid.UUID, title, description, category string, price float64) (*Service, error) {
	if providerID == uuid.Nil {
		return nil, domain.NewValidationError("provider ID is required")
	}
	if title == "" {
		return nil, domain.NewValidationError("service title is required")
	}
	if category == "" {
		return nil, domain.NewValidationError("service category is required")
	}
	if price <= 0 {
		return nil, domain.NewValidationError("service price must be positive")
	}

	now := time.Now().UTC()
	return &Service{
		id:          uuid.New(),
		providerID:  providerID,
		title:       title,
		description: description,
		category:    category,
		price:       price,
		status:      ServiceStatusActive,
		version:     1,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// Reconstruct rebuilds a Service from persistence data (no validation).
func Reconstruct(
	id, providerID uuid.UUID,
	title, description, category string,
	price, averageRating float64,
	ratingCount int,
	status ServiceStatus,
	version int64,
	createdAt, updatedAt time.Time,
) *Service {
	return &Service{
		id:            id,
		providerID:    providerID,
		title:         title,
		description:   description,
		category:      category,
		price:         price,
		averageRating: averageRating,
		ratingCount:   ratingCount,
		status:        status,
		version:       version,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}

// --- Getters ---

func (s *Service) ID() uuid.UUID          { return s.id }
func (s *Service) ProviderID() uuid.UUID  { return s.providerID }
func (s *Service) Title() string          { return s.title }
func (s *Service) Description() string    { return s.description }
func (s *Service) Category() string       { return s.category }
func (s *Service) Price() float64         { return s.price }
func (s *Service) AverageRating() float64 { return s.averageRating }
func (s *Service) RatingCount() int       { return s.ratingCount }
func (s *Service) Status() ServiceStatus  { return s.status }
func (s *Service) Version() int64         { return s.version }
func (s *Service) CreatedAt() time.Time   { return s.createdAt }
func (s *Service) UpdatedAt() time.Time   { return s.updatedAt }

// --- Behavior ---

// IsOwnedBy checks if the listing belongs to the given provider.
func (s *Service) IsOwnedBy(providerID uuid.UUID) bool {
	return s.providerID == providerID
}

// IsActive returns true if the listing can still be booked.
func (s *Service) IsActive() bool {
	return s.status == ServiceStatusActive
}

// Update applies partial updates to the listing. A nil price leaves it unchanged.
func (s *Service) Update(title, description, category string, price *float64) error {
	if !s.IsActive() {
		return domain.NewValidationError("archived services cannot be edited")
	}
	if price != nil && *price <= 0 {
		return domain.NewValidationError("service price must be positive")
	}

	if title != "" {
		s.title = title
	}
	if description != "" {
		s.description = description
	}
	if category != "" {
		s.category = category
	}
	if price != nil {
		s.price = *price
	}
	s.version++
	s.updatedAt = time.Now().UTC()
	return nil
}

// Archive withdraws the listing. Existing bookings are unaffected.
func (s *Service) Archive() {
	s.status = ServiceStatusArchived
	s.version++
	s.updatedAt = time.Now().UTC()
}
