package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	catalogDomain "github.com/servicehub/service-booking/internal/domain/catalog"
	"github.com/servicehub/service-booking/pkg/domain"
)

// CreateServiceRequest is the request DTO for publishing a service listing.
type CreateServiceRequest struct {
	Title       string  `json:"title" binding:"required"`
	Description string  `json:"description"`
	Category    string  `json:"category" binding:"required"`
	Price       float64 `json:"price" binding:"required"`
}

// UpdateServiceRequest is the request DTO for editing a service listing.
type UpdateServiceRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Price       *float64 `json:"price"`
}

// ServiceDTO is the API response representation of a service listing.
type ServiceDTO struct {
	ID            uuid.UUID `json:"id"`
	ProviderID    uuid.UUID `json:"provider"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	Category      string    `json:"category"`
	Price         float64   `json:"price"`
	AverageRating float64   `json:"averageRating"`
	RatingCount   int       `json:"ratingCount"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// CatalogService implements use cases for provider service listings. It also
// serves as the ServiceCatalog and RatingAggregator of the booking service.
type CatalogService struct {
	repo   catalogDomain.ServiceRepository
	logger *zap.Logger
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(repo catalogDomain.ServiceRepository, logger *zap.Logger) *CatalogService {
	return &CatalogService{repo: repo, logger: logger}
}

// CreateService publishes a new listing for the given provider.
func (s *CatalogService) CreateService(ctx context.Context, providerID uuid.UUID, req CreateServiceRequest) (*ServiceDTO, error) {
	svc, err := catalogDomain.NewService(providerID, req.Title, req.Description, req.Category, req.Price)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, svc); err != nil {
		s.logger.Error("failed to create service", zap.Error(err))
		return nil, fmt.Errorf("failed to create service: %w", err)
	}

	s.logger.Info("service listing created",
		zap.String("service_id", svc.ID().String()),
		zap.String("provider_id", providerID.String()),
	)
	result := toServiceDTO(svc)
	return &result, nil
}

// GetService returns a single listing by ID, including archived ones.
func (s *CatalogService) GetService(ctx context.Context, serviceID uuid.UUID) (*ServiceDTO, error) {
	svc, err := s.repo.FindByID(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	result := toServiceDTO(svc)
	return &result, nil
}

// ListServices returns active listings, optionally filtered by category.
func (s *CatalogService) ListServices(ctx context.Context, category string, page, limit int) (*domain.PaginatedResult[ServiceDTO], error) {
	services, total, err := s.repo.ListActive(ctx, category, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	result := domain.NewPaginatedResult(toServiceDTOs(services), total, page, limit)
	return &result, nil
}

// ListProviderServices returns every listing of one provider.
func (s *CatalogService) ListProviderServices(ctx context.Context, providerID uuid.UUID, page, limit int) (*domain.PaginatedResult[ServiceDTO], error) {
	services, total, err := s.repo.FindByProviderID(ctx, providerID, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list provider services: %w", err)
	}
	result := domain.NewPaginatedResult(toServiceDTOs(services), total, page, limit)
	return &result, nil
}

// UpdateService edits a listing, verifying ownership.
func (s *CatalogService) UpdateService(ctx context.Context, providerID, serviceID uuid.UUID, req UpdateServiceRequest) (*ServiceDTO, error) {
	svc, err := s.repo.FindByID(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if !svc.IsOwnedBy(providerID) {
		return nil, domain.NewForbiddenError("you do not own this service")
	}

	if err := svc.Update(req.Title, req.Description, req.Category, req.Price); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, svc); err != nil {
		s.logger.Error("failed to update service", zap.Error(err))
		return nil, fmt.Errorf("failed to update service: %w", err)
	}

	s.logger.Info("service listing updated", zap.String("service_id", serviceID.String()))
	result := toServiceDTO(svc)
	return &result, nil
}

// ArchiveService withdraws a listing, verifying ownership. Existing bookings keep working.
func (s *CatalogService) ArchiveService(ctx context.Context, providerID, serviceID uuid.UUID) error {
	svc, err := s.repo.FindByID(ctx, serviceID)
	if err != nil {
		return err
	}
	if !svc.IsOwnedBy(providerID) {
		return domain.NewForbiddenError("you do not own this service")
	}

	svc.Archive()
	if err := s.repo.Update(ctx, svc); err != nil {
		s.logger.Error("failed to archive service", zap.Error(err))
		return fmt.Errorf("failed to archive service: %w", err)
	}

	s.logger.Info("service listing archived", zap.String("service_id", serviceID.String()))
	return nil
}

// RecordRating folds a booking rating into the listing's running average.
func (s *CatalogService) RecordRating(ctx context.Context, serviceID uuid.UUID, score int) error {
	if err := s.repo.RecordRating(ctx, serviceID, score); err != nil {
		return fmt.Errorf("failed to record rating: %w", err)
	}
	return nil
}

func toServiceDTO(svc *catalogDomain.Service) ServiceDTO {
	return ServiceDTO{
		ID:            svc.ID(),
		ProviderID:    svc.ProviderID(),
		Title:         svc.Title(),
		Description:   svc.Description(),
		Category:      svc.Category(),
		Price:         svc.Price(),
		AverageRating: svc.AverageRating(),
		RatingCount:   svc.RatingCount(),
		Status:        string(svc.Status()),
		CreatedAt:     svc.CreatedAt(),
		UpdatedAt:     svc.UpdatedAt(),
	}
}

func toServiceDTOs(services []*catalogDomain.Service) []ServiceDTO {
	dtos := make([]ServiceDTO, len(services))
	for i, svc := range services {
		dtos[i] = toServiceDTO(svc)
	}
	return dtos
}
