package catalog

import (
	"context"

	"github.com/google/uuid"
)

// ServiceRepository defines persistence operations for service listings.
type ServiceRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Service, error)
	FindByProviderID(ctx context.Context, providerID uuid.UUID, page, limit int) ([]*Service, int64, error)
	// ListActive returns bookable listings, optionally narrowed to one category.
	ListActive(ctx context.Context, category string, page, limit int) ([]*Service, int64, error)
	Save(ctx context.Context, service *Service) error
	Update(ctx context.Context, service *Service) error
	// RecordRating folds one score into the stored running average in a single statement.
	RecordRating(ctx context.Context, id uuid.UUID, score int) error
}
